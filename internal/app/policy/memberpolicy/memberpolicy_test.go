package memberpolicy

import (
	"testing"

	"github.com/dalemusser/unionhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func oid() *primitive.ObjectID {
	id := primitive.NewObjectID()
	return &id
}

// expectedTransition is the reference table the grid test checks against.
func expectedTransition(role models.Role, sameBranch bool, current, requested models.Status) Decision {
	if !requested.Valid() {
		return Deny(ReasonUnknownStatus)
	}
	switch role {
	case models.RoleAdmin, models.RoleSuperAdmin:
		return Allow()
	case models.RoleBranchManager:
		if !sameBranch {
			return Deny(ReasonOutOfScope)
		}
		if current == models.StatusActive {
			return Deny(ReasonSubjectActive)
		}
		return Allow()
	default:
		return Deny(ReasonNoAuthority)
	}
}

func TestCanTransition_Grid(t *testing.T) {
	roles := []models.Role{models.RoleUser, models.RoleBranchManager, models.RoleAdmin, models.RoleSuperAdmin, "guest"}
	requested := append(append([]models.Status{}, models.Statuses...), "pending_admin_approval", "")

	for _, role := range roles {
		for _, same := range []bool{true, false} {
			for _, current := range models.Statuses {
				for _, req := range requested {
					branch := oid()
					actor := Actor{ID: primitive.NewObjectID(), Role: role, BranchID: branch}
					subject := Subject{ID: primitive.NewObjectID(), Role: models.RoleUser, Status: current, BranchID: branch}
					if !same {
						subject.BranchID = oid()
					}

					got := CanTransition(actor, subject, req)
					want := expectedTransition(role, same, current, req)
					if got != want {
						t.Errorf("CanTransition(role=%s sameBranch=%v current=%s requested=%q) = %+v, want %+v",
							role, same, current, req, got, want)
					}
				}
			}
		}
	}
}

func TestCanTransition_BranchManagerMissingBranch(t *testing.T) {
	branch := oid()
	tests := []struct {
		name    string
		actor   *primitive.ObjectID
		subject *primitive.ObjectID
	}{
		{"actor without branch", nil, branch},
		{"subject without branch", branch, nil},
		{"neither has branch", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := Actor{ID: primitive.NewObjectID(), Role: models.RoleBranchManager, BranchID: tt.actor}
			s := Subject{ID: primitive.NewObjectID(), Status: models.StatusPendingBranchReview, BranchID: tt.subject}
			got := CanTransition(a, s, models.StatusActive)
			if got.Allowed || got.Reason != ReasonOutOfScope {
				t.Errorf("got %+v, want out_of_scope denial", got)
			}
		})
	}
}

func TestCanChangeRole(t *testing.T) {
	self := primitive.NewObjectID()
	tests := []struct {
		name      string
		actorRole models.Role
		selfCase  bool
		subject   models.Role
		requested models.Role
		want      Decision
	}{
		{"admin promotes user to branch manager", models.RoleAdmin, false, models.RoleUser, models.RoleBranchManager, Allow()},
		{"admin cannot change own role", models.RoleAdmin, true, models.RoleAdmin, models.RoleUser, Deny(ReasonSelfAction)},
		{"superadmin cannot change own role", models.RoleSuperAdmin, true, models.RoleSuperAdmin, models.RoleAdmin, Deny(ReasonSelfAction)},
		{"admin cannot grant superadmin", models.RoleAdmin, false, models.RoleUser, models.RoleSuperAdmin, Deny(ReasonNoAuthority)},
		{"admin cannot demote superadmin", models.RoleAdmin, false, models.RoleSuperAdmin, models.RoleUser, Deny(ReasonNoAuthority)},
		{"superadmin grants superadmin", models.RoleSuperAdmin, false, models.RoleAdmin, models.RoleSuperAdmin, Allow()},
		{"branch manager has no authority", models.RoleBranchManager, false, models.RoleUser, models.RoleBranchManager, Deny(ReasonNoAuthority)},
		{"user has no authority", models.RoleUser, false, models.RoleUser, models.RoleAdmin, Deny(ReasonNoAuthority)},
		{"unknown role", models.RoleAdmin, false, models.RoleUser, "owner", Deny(ReasonUnknownRole)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := Actor{ID: self, Role: tt.actorRole}
			s := Subject{ID: primitive.NewObjectID(), Role: tt.subject}
			if tt.selfCase {
				s.ID = self
			}
			if got := CanChangeRole(a, s, tt.requested); got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestCanCompleteDetails(t *testing.T) {
	branch := oid()
	other := oid()
	userID := primitive.NewObjectID()

	tests := []struct {
		name    string
		actor   Actor
		subject Subject
		target  primitive.ObjectID
		want    Decision
	}{
		{
			name:    "self without branch picks any branch",
			actor:   Actor{ID: userID, Role: models.RoleUser},
			subject: Subject{ID: userID, Status: models.StatusPendingDetails},
			target:  *other,
			want:    Allow(),
		},
		{
			name:    "self pre-scoped cannot switch branch",
			actor:   Actor{ID: userID, Role: models.RoleUser},
			subject: Subject{ID: userID, Status: models.StatusPendingDetails, BranchID: branch},
			target:  *other,
			want:    Deny(ReasonOutOfScope),
		},
		{
			name:    "branch manager recovers own branch member",
			actor:   Actor{ID: primitive.NewObjectID(), Role: models.RoleBranchManager, BranchID: branch},
			subject: Subject{ID: userID, Status: models.StatusPendingDetails, BranchID: branch},
			target:  *branch,
			want:    Allow(),
		},
		{
			name:    "branch manager cannot assign another branch",
			actor:   Actor{ID: primitive.NewObjectID(), Role: models.RoleBranchManager, BranchID: branch},
			subject: Subject{ID: userID, Status: models.StatusPendingDetails, BranchID: branch},
			target:  *other,
			want:    Deny(ReasonOutOfScope),
		},
		{
			name:    "branch manager cannot claim unscoped member",
			actor:   Actor{ID: primitive.NewObjectID(), Role: models.RoleBranchManager, BranchID: branch},
			subject: Subject{ID: userID, Status: models.StatusPendingDetails},
			target:  *branch,
			want:    Deny(ReasonOutOfScope),
		},
		{
			name:    "admin moves member between branches",
			actor:   Actor{ID: primitive.NewObjectID(), Role: models.RoleAdmin},
			subject: Subject{ID: userID, Status: models.StatusRejected, BranchID: branch},
			target:  *other,
			want:    Allow(),
		},
		{
			name:    "other user has no authority",
			actor:   Actor{ID: primitive.NewObjectID(), Role: models.RoleUser},
			subject: Subject{ID: userID, Status: models.StatusPendingDetails},
			target:  *branch,
			want:    Deny(ReasonNoAuthority),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanCompleteDetails(tt.actor, tt.subject, tt.target); got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestCanEditProfile(t *testing.T) {
	branch := oid()
	me := primitive.NewObjectID()
	tests := []struct {
		name    string
		actor   Actor
		subject Subject
		want    Decision
	}{
		{"self", Actor{ID: me, Role: models.RoleUser}, Subject{ID: me, Status: models.StatusActive}, Allow()},
		{"other user", Actor{ID: me, Role: models.RoleUser}, Subject{ID: primitive.NewObjectID()}, Deny(ReasonNoAuthority)},
		{"admin", Actor{ID: me, Role: models.RoleAdmin}, Subject{ID: primitive.NewObjectID(), Status: models.StatusActive}, Allow()},
		{"branch manager pending member", Actor{ID: me, Role: models.RoleBranchManager, BranchID: branch}, Subject{ID: primitive.NewObjectID(), Status: models.StatusPendingBranchReview, BranchID: branch}, Allow()},
		{"branch manager active member", Actor{ID: me, Role: models.RoleBranchManager, BranchID: branch}, Subject{ID: primitive.NewObjectID(), Status: models.StatusActive, BranchID: branch}, Deny(ReasonSubjectActive)},
		{"branch manager other branch", Actor{ID: me, Role: models.RoleBranchManager, BranchID: branch}, Subject{ID: primitive.NewObjectID(), Status: models.StatusRejected, BranchID: oid()}, Deny(ReasonOutOfScope)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanEditProfile(tt.actor, tt.subject); got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestCanView(t *testing.T) {
	branch := oid()
	me := primitive.NewObjectID()
	tests := []struct {
		name    string
		actor   Actor
		subject Subject
		want    bool
	}{
		{"self", Actor{ID: me, Role: models.RoleUser}, Subject{ID: me}, true},
		{"other user", Actor{ID: me, Role: models.RoleUser}, Subject{ID: primitive.NewObjectID()}, false},
		{"branch manager own branch", Actor{ID: me, Role: models.RoleBranchManager, BranchID: branch}, Subject{ID: primitive.NewObjectID(), BranchID: branch}, true},
		{"branch manager other branch", Actor{ID: me, Role: models.RoleBranchManager, BranchID: branch}, Subject{ID: primitive.NewObjectID(), BranchID: oid()}, false},
		{"superadmin", Actor{ID: me, Role: models.RoleSuperAdmin}, Subject{ID: primitive.NewObjectID()}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanView(tt.actor, tt.subject).Allowed; got != tt.want {
				t.Errorf("CanView = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCanSetActiveAndDelete(t *testing.T) {
	branch := oid()
	me := primitive.NewObjectID()

	admin := Actor{ID: me, Role: models.RoleAdmin}
	if d := CanSetActive(admin, Subject{ID: me, Role: models.RoleAdmin}); d != Deny(ReasonSelfAction) {
		t.Errorf("self deactivate: got %+v", d)
	}
	if d := CanDelete(admin, Subject{ID: me, Role: models.RoleAdmin}); d != Deny(ReasonSelfAction) {
		t.Errorf("self delete: got %+v", d)
	}
	if d := CanDelete(admin, Subject{ID: primitive.NewObjectID(), Role: models.RoleUser}); !d.Allowed {
		t.Errorf("admin delete user: got %+v", d)
	}
	if d := CanDelete(admin, Subject{ID: primitive.NewObjectID(), Role: models.RoleSuperAdmin}); d.Allowed {
		t.Errorf("admin delete superadmin: got %+v", d)
	}

	bm := Actor{ID: me, Role: models.RoleBranchManager, BranchID: branch}
	if d := CanSetActive(bm, Subject{ID: primitive.NewObjectID(), Role: models.RoleUser, BranchID: branch}); !d.Allowed {
		t.Errorf("branch manager deactivate own member: got %+v", d)
	}
	if d := CanSetActive(bm, Subject{ID: primitive.NewObjectID(), Role: models.RoleUser, BranchID: oid()}); d != Deny(ReasonOutOfScope) {
		t.Errorf("branch manager deactivate other branch: got %+v", d)
	}
	if d := CanDelete(bm, Subject{ID: primitive.NewObjectID(), Role: models.RoleUser, BranchID: branch}); d.Allowed {
		t.Errorf("branch manager delete: got %+v", d)
	}
	if d := CanReassignBranch(bm, Subject{ID: primitive.NewObjectID()}); d.Allowed {
		t.Errorf("branch manager reassign: got %+v", d)
	}
}

func TestListScope(t *testing.T) {
	branch := oid()

	tests := []struct {
		name      string
		actor     Actor
		wantScope *primitive.ObjectID
		want      Decision
	}{
		{"admin sees all", Actor{Role: models.RoleAdmin, BranchID: branch}, nil, Allow()},
		{"superadmin sees all", Actor{Role: models.RoleSuperAdmin}, nil, Allow()},
		{"manager scoped", Actor{Role: models.RoleBranchManager, BranchID: branch}, branch, Allow()},
		{"manager without branch", Actor{Role: models.RoleBranchManager}, nil, Deny(ReasonOutOfScope)},
		{"user", Actor{Role: models.RoleUser, BranchID: branch}, nil, Deny(ReasonNoAuthority)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scope, got := ListScope(tt.actor)
			if got != tt.want {
				t.Errorf("decision = %+v, want %+v", got, tt.want)
			}
			if scope != tt.wantScope {
				t.Errorf("scope = %v, want %v", scope, tt.wantScope)
			}
		})
	}
}
