package membership

import (
	"context"
	"errors"

	"github.com/dalemusser/unionhub/internal/app/policy/memberpolicy"
	userstore "github.com/dalemusser/unionhub/internal/app/store/users"
	"github.com/dalemusser/unionhub/internal/app/system/apperr"
	"github.com/dalemusser/unionhub/internal/app/system/paging"
	"github.com/dalemusser/unionhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ListMembers returns one page of the accounts the actor may see. Branch
// managers are confined to their branch whatever q.BranchID says.
func (s *Service) ListMembers(ctx context.Context, actor memberpolicy.Actor, q userstore.ListQuery) (userstore.ListPage, error) {
	scope, d := memberpolicy.ListScope(actor)
	if !d.Allowed {
		return userstore.ListPage{}, s.deny("list", actor, primitive.NilObjectID, d)
	}
	if scope != nil {
		q.BranchID = scope
	}

	fields := map[string]string{}
	if q.Status != "" && !q.Status.Valid() {
		fields["status"] = "unknown status"
	}
	if q.Role != "" && !q.Role.Valid() {
		fields["role"] = "unknown role"
	}
	if q.Before != "" && q.After != "" {
		fields["cursor"] = "use either before or after"
	}
	if len(fields) > 0 {
		return userstore.ListPage{}, apperr.Validation(fields)
	}

	page, err := s.directory.List(ctx, q)
	if errors.Is(err, paging.ErrInvalidCursor) {
		return userstore.ListPage{}, apperr.Field("cursor", "invalid cursor")
	}
	if err != nil {
		return userstore.ListPage{}, storeErr(err, "users")
	}
	if page.Users == nil {
		page.Users = []models.User{}
	}
	return page, nil
}

// Stats counts the accounts the actor may see.
func (s *Service) Stats(ctx context.Context, actor memberpolicy.Actor) (userstore.Stats, error) {
	scope, d := memberpolicy.ListScope(actor)
	if !d.Allowed {
		return userstore.Stats{}, s.deny("stats", actor, primitive.NilObjectID, d)
	}
	st, err := s.directory.Stats(ctx, scope)
	if err != nil {
		return userstore.Stats{}, storeErr(err, "users")
	}
	return st, nil
}
