// internal/app/features/userinfo/handler.go
package userinfo

import (
	"context"
	"net/http"

	"github.com/dalemusser/unionhub/internal/app/features/shared"
	"github.com/dalemusser/unionhub/internal/app/policy/memberpolicy"
	"github.com/dalemusser/unionhub/internal/app/system/authz"
	"github.com/dalemusser/unionhub/internal/app/system/timeouts"
	"github.com/dalemusser/unionhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Profiles loads an account on behalf of an actor.
type Profiles interface {
	GetUser(ctx context.Context, actor memberpolicy.Actor, id primitive.ObjectID) (*models.User, error)
}

// Handler serves the caller's own account.
type Handler struct {
	Profiles Profiles
	Log      *zap.Logger
}

// NewHandler creates a new userinfo handler.
func NewHandler(profiles Profiles, logger *zap.Logger) *Handler {
	return &Handler{Profiles: profiles, Log: logger}
}

type meResponse struct {
	IsAuthenticated bool         `json:"isAuthenticated"`
	User            *models.User `json:"user,omitempty"`
}

// ServeMe handles GET /me.
//
// Anonymous callers get {"isAuthenticated": false} with 200 so clients can
// check their session without handling an error.
func (h *Handler) ServeMe(w http.ResponseWriter, r *http.Request) {
	actor, ok := authz.Actor(r)
	if !ok {
		shared.WriteJSON(w, r, http.StatusOK, meResponse{})
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "current user")
	defer cancel()

	u, err := h.Profiles.GetUser(ctx, actor, actor.ID)
	if err != nil {
		shared.WriteError(w, r, h.Log, err)
		return
	}
	shared.WriteJSON(w, r, http.StatusOK, meResponse{IsAuthenticated: true, User: u})
}
