// internal/app/system/authz/authz.go
package authz

import (
	"net/http"
	"strings"

	"github.com/dalemusser/unionhub/internal/app/policy/memberpolicy"
	"github.com/dalemusser/unionhub/internal/app/system/auth"
	"github.com/dalemusser/unionhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserCtx returns the user's role (lowercased), name, ObjectID, and a found
// flag. A missing user or a malformed ID yields "visitor", "", NilObjectID,
// false, so ok=true always means a valid authenticated user.
func UserCtx(r *http.Request) (role string, name string, userID primitive.ObjectID, ok bool) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		return "visitor", "", primitive.NilObjectID, false
	}
	userID, err := primitive.ObjectIDFromHex(user.ID)
	if err != nil {
		return "visitor", "", primitive.NilObjectID, false
	}
	return strings.ToLower(user.Role), user.Name, userID, true
}

// Actor converts the authenticated user into a policy actor.
// A malformed branch ID is dropped, which the policy treats as "no branch".
func Actor(r *http.Request) (memberpolicy.Actor, bool) {
	role, _, id, ok := UserCtx(r)
	if !ok {
		return memberpolicy.Actor{}, false
	}
	a := memberpolicy.Actor{ID: id, Role: models.Role(role)}
	if u, _ := auth.CurrentUser(r); u.BranchID != "" {
		if bid, err := primitive.ObjectIDFromHex(u.BranchID); err == nil {
			a.BranchID = &bid
		}
	}
	return a, true
}
