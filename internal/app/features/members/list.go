// internal/app/features/members/list.go
package members

import (
	"net/http"

	"github.com/dalemusser/unionhub/internal/app/features/shared"
	userstore "github.com/dalemusser/unionhub/internal/app/store/users"
	"github.com/dalemusser/unionhub/internal/app/system/apperr"
	"github.com/dalemusser/unionhub/internal/app/system/authz"
	"github.com/dalemusser/unionhub/internal/app/system/timeouts"
	"github.com/dalemusser/unionhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ServeList handles GET /users?status=&role=&branch=&q=&before=&after=.
//
// Branch managers always get their own branch regardless of ?branch.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	actor, ok := authz.Actor(r)
	if !ok {
		shared.WriteError(w, r, h.Log, apperr.Unauthenticated())
		return
	}

	q := userstore.ListQuery{
		Status: models.Status(query.Get(r, "status")),
		Role:   models.Role(query.Get(r, "role")),
		Search: query.Search(r, "q"),
		Before: query.Get(r, "before"),
		After:  query.Get(r, "after"),
	}
	if raw := query.Get(r, "branch"); raw != "" {
		oid, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			shared.WriteError(w, r, h.Log, apperr.Field("branch", "invalid id"))
			return
		}
		q.BranchID = &oid
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list users")
	defer cancel()

	page, err := h.Svc.ListMembers(ctx, actor, q)
	if err != nil {
		shared.WriteError(w, r, h.Log, err)
		return
	}
	shared.WriteJSON(w, r, http.StatusOK, page)
}

// ServeStats handles GET /users/stats.
func (h *Handler) ServeStats(w http.ResponseWriter, r *http.Request) {
	actor, ok := authz.Actor(r)
	if !ok {
		shared.WriteError(w, r, h.Log, apperr.Unauthenticated())
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "user stats")
	defer cancel()

	st, err := h.Svc.Stats(ctx, actor)
	if err != nil {
		shared.WriteError(w, r, h.Log, err)
		return
	}
	shared.WriteJSON(w, r, http.StatusOK, st)
}
