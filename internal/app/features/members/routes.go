// internal/app/features/members/routes.go
package members

import (
	"github.com/dalemusser/unionhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts all member routes under the path where the caller mounts it.
// Typically: r.Mount("/users", members.Routes(handler, sessionMgr))
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)

		pr.Get("/", h.ServeList)
		pr.Get("/stats", h.ServeStats)
		pr.Post("/batch-names", h.HandleBatchNames)

		pr.Get("/{id}", h.ServeView)
		pr.Get("/{id}/logs", h.ServeLogs)
		pr.Patch("/{id}", h.HandleEdit)
		pr.Patch("/{id}/deactivate", h.HandleDeactivate)
		pr.Patch("/{id}/activate", h.HandleActivate)

		pr.Group(func(mr chi.Router) {
			mr.Use(sm.RequireRole("admin", "superadmin", "branch_manager"))
			mr.Patch("/{id}/status", h.HandleStatus)
			mr.Post("/bulk", h.HandleBulk)
		})

		pr.Group(func(ar chi.Router) {
			ar.Use(sm.RequireRole("admin", "superadmin"))
			ar.Patch("/{id}/role", h.HandleRole)
			ar.Patch("/{id}/branch", h.HandleBranch)
			ar.Delete("/{id}", h.HandleDelete)
		})
	})

	return r
}
