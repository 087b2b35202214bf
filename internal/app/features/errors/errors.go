// internal/app/features/errors/errors.go
package errors

import (
	"net/http"

	"github.com/dalemusser/unionhub/internal/app/features/shared"
	"github.com/dalemusser/unionhub/internal/app/system/apperr"
)

// Handler answers requests the router could not match.
// No DB needed.
type Handler struct{}

// NewHandler constructs an errors Handler.
func NewHandler() *Handler {
	return &Handler{}
}

// NotFound is installed as the router's NotFound handler.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	shared.WriteError(w, r, nil, apperr.NotFound("route"))
}

// MethodNotAllowed is installed as the router's MethodNotAllowed handler.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	shared.WriteJSON(w, r, http.StatusMethodNotAllowed, shared.ErrorBody{
		Status:  "error",
		Code:    "method_not_allowed",
		Message: r.Method + " is not allowed on " + r.URL.Path,
	})
}
