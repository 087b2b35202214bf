// internal/app/features/branches/routes.go
package branches

import "github.com/go-chi/chi/v5"

// Routes mounts the branch directory (typically at "/branches").
// It is public; anonymous registrants pick their branch from it.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeList)
	r.Get("/{id}", h.ServeView)
	return r
}
