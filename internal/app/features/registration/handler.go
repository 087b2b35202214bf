// internal/app/features/registration/handler.go
package registration

import (
	"context"
	"net/http"

	"github.com/dalemusser/unionhub/internal/app/features/shared"
	"github.com/dalemusser/unionhub/internal/app/membership"
	"github.com/dalemusser/unionhub/internal/app/policy/memberpolicy"
	"github.com/dalemusser/unionhub/internal/app/system/apperr"
	"github.com/dalemusser/unionhub/internal/app/system/authz"
	"github.com/dalemusser/unionhub/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// NameCache drops a cached display name once the detail step renames a member.
type NameCache interface {
	Invalidate(ctx context.Context, id primitive.ObjectID)
}

// Handler serves the two registration steps. Names may be nil.
type Handler struct {
	Svc   *membership.Service
	Names NameCache
	Log   *zap.Logger
}

func NewHandler(svc *membership.Service, names NameCache, logger *zap.Logger) *Handler {
	return &Handler{Svc: svc, Names: names, Log: logger}
}

// HandleBasic handles POST /register/basic. Anonymous callers register
// themselves; a signed-in branch manager or admin registers someone else.
func (h *Handler) HandleBasic(w http.ResponseWriter, r *http.Request) {
	var in membership.BasicInput
	if err := shared.DecodeJSON(w, r, &in, false); err != nil {
		shared.WriteError(w, r, h.Log, err)
		return
	}

	var creator *memberpolicy.Actor
	if a, ok := authz.Actor(r); ok {
		creator = &a
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "register basic")
	defer cancel()

	u, err := h.Svc.RegisterBasic(ctx, in, creator)
	if err != nil {
		shared.WriteError(w, r, h.Log, err)
		return
	}
	shared.WriteJSON(w, r, http.StatusCreated, u)
}

// HandleDetails handles POST /register/details. userId defaults to the caller.
func (h *Handler) HandleDetails(w http.ResponseWriter, r *http.Request) {
	actor, ok := authz.Actor(r)
	if !ok {
		shared.WriteError(w, r, h.Log, apperr.Unauthenticated())
		return
	}

	var in membership.DetailsInput
	if err := shared.DecodeJSON(w, r, &in, false); err != nil {
		shared.WriteError(w, r, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "register details")
	defer cancel()

	u, err := h.Svc.RegisterDetails(ctx, actor, in)
	if err != nil {
		shared.WriteError(w, r, h.Log, err)
		return
	}
	if h.Names != nil && (in.FirstName != nil || in.LastName != nil) {
		h.Names.Invalidate(ctx, u.ID)
	}
	shared.WriteJSON(w, r, http.StatusOK, u)
}
