// internal/app/features/registration/routes.go
package registration

import (
	"github.com/dalemusser/unionhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the registration endpoints, typically under /register.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Post("/basic", h.HandleBasic)
	r.With(sm.RequireSignedIn).Post("/details", h.HandleDetails)
	return r
}
