// internal/app/features/auditlog/routes.go
package auditlog

import (
	"github.com/dalemusser/unionhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the audit viewer, typically under /audit.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireRole("admin", "superadmin", "branch_manager"))
	r.Get("/", h.ServeList)
	return r
}
