package membership_test

import (
	"context"
	"testing"

	"github.com/dalemusser/unionhub/internal/app/policy/memberpolicy"
	userstore "github.com/dalemusser/unionhub/internal/app/store/users"
	"github.com/dalemusser/unionhub/internal/app/system/apperr"
	"github.com/dalemusser/unionhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestListMembers_Scope(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	other := e.store.AddBranch("Üsküdar", true)
	e.store.AddUser(models.User{Email: "in@example.com", Role: models.RoleUser, Status: models.StatusPendingBranchReview, BranchID: &e.branch.ID, IsActive: true})
	e.store.AddUser(models.User{Email: "out@example.com", Role: models.RoleUser, Status: models.StatusPendingBranchReview, BranchID: &other.ID, IsActive: true})

	page, err := e.svc.ListMembers(ctx, e.manager, userstore.ListQuery{BranchID: &other.ID, Status: models.StatusPendingBranchReview})
	if err != nil {
		t.Fatalf("ListMembers: %v", err)
	}
	if got := e.store.LastList.BranchID; got == nil || *got != e.branch.ID {
		t.Errorf("manager query branch = %v, want own branch", got)
	}
	if len(page.Users) != 1 || page.Users[0].Email != "in@example.com" {
		t.Errorf("manager page = %+v", page.Users)
	}

	page, err = e.svc.ListMembers(ctx, e.admin, userstore.ListQuery{Status: models.StatusPendingBranchReview})
	if err != nil {
		t.Fatalf("ListMembers admin: %v", err)
	}
	if page.Total != 2 {
		t.Errorf("admin total = %d, want 2", page.Total)
	}
}

func TestListMembers_Rejections(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	member := memberpolicy.Actor{ID: primitive.NewObjectID(), Role: models.RoleUser}
	orphan := memberpolicy.Actor{ID: primitive.NewObjectID(), Role: models.RoleBranchManager}

	tests := []struct {
		name   string
		actor  memberpolicy.Actor
		q      userstore.ListQuery
		kind   apperr.Kind
		reason string
	}{
		{"member", member, userstore.ListQuery{}, apperr.KindForbidden, "no_authority"},
		{"manager without branch", orphan, userstore.ListQuery{}, apperr.KindForbidden, "out_of_scope"},
		{"unknown status", e.admin, userstore.ListQuery{Status: "pending_admin_approval"}, apperr.KindValidation, ""},
		{"unknown role", e.admin, userstore.ListQuery{Role: "owner"}, apperr.KindValidation, ""},
		{"both cursors", e.admin, userstore.ListQuery{Before: "a", After: "b"}, apperr.KindValidation, ""},
		{"bad cursor", e.admin, userstore.ListQuery{After: "zzz"}, apperr.KindValidation, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.svc.ListMembers(ctx, tt.actor, tt.q)
			ae, ok := apperr.As(err)
			if !ok || ae.Kind != tt.kind {
				t.Fatalf("err = %v, want kind %v", err, tt.kind)
			}
			if tt.reason != "" && ae.Reason != tt.reason {
				t.Errorf("reason = %q, want %q", ae.Reason, tt.reason)
			}
		})
	}
}

func TestStats_Scope(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.store.AddUser(models.User{Email: "p@example.com", Role: models.RoleUser, Status: models.StatusPendingDetails, BranchID: &e.branch.ID, IsActive: true})
	e.store.AddUser(models.User{Email: "r@example.com", Role: models.RoleUser, Status: models.StatusRejected})

	all, err := e.svc.Stats(ctx, e.admin)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if all.Total != 4 || all.Inactive != 1 || all.ByStatus[models.StatusRejected] != 1 {
		t.Errorf("admin stats = %+v", all)
	}

	mine, err := e.svc.Stats(ctx, e.manager)
	if err != nil {
		t.Fatalf("Stats manager: %v", err)
	}
	if mine.Total != 2 || mine.ByStatus[models.StatusPendingDetails] != 1 || mine.ByRole[models.RoleBranchManager] != 1 {
		t.Errorf("manager stats = %+v", mine)
	}
}
