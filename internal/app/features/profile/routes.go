// internal/app/features/profile/routes.go
package profile

import (
	"github.com/dalemusser/unionhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts self-service account routes (typically at "/auth/password").
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.With(sm.RequireSignedIn).Post("/", h.HandleChangePassword)
	return r
}
