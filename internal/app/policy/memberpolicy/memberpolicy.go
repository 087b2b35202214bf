// Package memberpolicy decides who may move a member through the registration
// workflow and who may edit, view, or manage member accounts.
//
// Authorization rules:
//   - Admins and superadmins have full authority over every member
//   - Branch managers act only on members of their own branch, and never on
//     members that are already active
//   - Users act only on themselves (profile edits, completing registration)
//
// Every function is pure: it receives the actor and the subject and returns a
// Decision. Loading data and enforcing the decision is the caller's job.
package memberpolicy

import (
	"github.com/dalemusser/unionhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Reason explains a denial.
type Reason string

const (
	ReasonNoAuthority   Reason = "no_authority"
	ReasonOutOfScope    Reason = "out_of_scope"
	ReasonSubjectActive Reason = "subject_active"
	ReasonUnknownStatus Reason = "unknown_status"
	ReasonUnknownRole   Reason = "unknown_role"
	ReasonSelfAction    Reason = "self_action"
)

// Decision is the outcome of a policy check. Reason is empty when Allowed.
type Decision struct {
	Allowed bool
	Reason  Reason
}

// Allow returns an allowing decision.
func Allow() Decision { return Decision{Allowed: true} }

// Deny returns a denying decision with the given reason.
func Deny(r Reason) Decision { return Decision{Reason: r} }

// Actor is the authenticated account performing an action.
type Actor struct {
	ID       primitive.ObjectID
	Role     models.Role
	BranchID *primitive.ObjectID
}

// Subject is the member an action targets.
type Subject struct {
	ID       primitive.ObjectID
	Role     models.Role
	Status   models.Status
	BranchID *primitive.ObjectID
}

// SubjectOf builds a Subject from a stored user.
func SubjectOf(u *models.User) Subject {
	return Subject{ID: u.ID, Role: u.Role, Status: u.Status, BranchID: u.BranchID}
}

// IsSelf reports whether the actor and subject are the same account.
func IsSelf(a Actor, s Subject) bool {
	return !a.ID.IsZero() && a.ID == s.ID
}

// SameBranch reports whether both sides are assigned to the same branch.
// A missing branch on either side never matches.
func SameBranch(a Actor, s Subject) bool {
	return a.BranchID != nil && s.BranchID != nil && *a.BranchID == *s.BranchID
}

type transitionRule func(a Actor, s Subject, requested models.Status) Decision

// transitionRules is the per-role rule table. Roles missing from the table
// have no authority.
var transitionRules = map[models.Role]transitionRule{
	models.RoleSuperAdmin:    adminTransition,
	models.RoleAdmin:         adminTransition,
	models.RoleBranchManager: branchManagerTransition,
}

func adminTransition(Actor, Subject, models.Status) Decision {
	return Allow()
}

func branchManagerTransition(a Actor, s Subject, _ models.Status) Decision {
	if !SameBranch(a, s) {
		return Deny(ReasonOutOfScope)
	}
	if s.Status == models.StatusActive {
		return Deny(ReasonSubjectActive)
	}
	// pending_details, pending_branch_review and rejected members may be moved
	// to any status, including the one they are already in.
	return Allow()
}

// CanTransition decides whether actor may move subject to the requested status.
//
// Order of evaluation:
//   - an unknown requested status is denied for every role
//   - admin and superadmin are allowed
//   - branch managers need a matching branch and a subject that is not active
//   - everyone else is denied
func CanTransition(a Actor, s Subject, requested models.Status) Decision {
	if !requested.Valid() {
		return Deny(ReasonUnknownStatus)
	}
	rule, ok := transitionRules[a.Role]
	if !ok {
		return Deny(ReasonNoAuthority)
	}
	return rule(a, s, requested)
}

// CanCompleteDetails decides whether actor may submit the detail step of
// registration for subject into branchID.
//
// Members complete their own registration. Admins may complete anyone's.
// A branch manager may recover a stalled registration for a member already
// scoped to their branch, and only into that same branch. Only admins may
// move a member who already has a different branch.
func CanCompleteDetails(a Actor, s Subject, branchID primitive.ObjectID) Decision {
	if a.Role.IsAdmin() {
		return Allow()
	}
	if s.BranchID != nil && *s.BranchID != branchID {
		return Deny(ReasonOutOfScope)
	}
	if IsSelf(a, s) {
		return Allow()
	}
	if a.Role != models.RoleBranchManager {
		return Deny(ReasonNoAuthority)
	}
	if !SameBranch(a, s) || *a.BranchID != branchID {
		return Deny(ReasonOutOfScope)
	}
	if s.Status != models.StatusPendingDetails {
		return Deny(ReasonNoAuthority)
	}
	return Allow()
}

// CanEditProfile decides whether actor may edit subject's profile fields.
func CanEditProfile(a Actor, s Subject) Decision {
	switch {
	case a.Role.IsAdmin():
		return Allow()
	case IsSelf(a, s):
		return Allow()
	case a.Role == models.RoleBranchManager:
		if !SameBranch(a, s) {
			return Deny(ReasonOutOfScope)
		}
		if s.Status == models.StatusActive {
			return Deny(ReasonSubjectActive)
		}
		return Allow()
	default:
		return Deny(ReasonNoAuthority)
	}
}

// CanView decides whether actor may read subject's account and registration log.
func CanView(a Actor, s Subject) Decision {
	switch {
	case a.Role.IsAdmin(), IsSelf(a, s):
		return Allow()
	case a.Role == models.RoleBranchManager:
		if SameBranch(a, s) {
			return Allow()
		}
		return Deny(ReasonOutOfScope)
	default:
		return Deny(ReasonNoAuthority)
	}
}

// CanChangeRole decides whether actor may give subject the requested role.
// Nobody changes their own role, and only a superadmin grants or revokes
// superadmin.
func CanChangeRole(a Actor, s Subject, requested models.Role) Decision {
	if !requested.Valid() {
		return Deny(ReasonUnknownRole)
	}
	if IsSelf(a, s) {
		return Deny(ReasonSelfAction)
	}
	if !a.Role.IsAdmin() {
		return Deny(ReasonNoAuthority)
	}
	if (requested == models.RoleSuperAdmin || s.Role == models.RoleSuperAdmin) && a.Role != models.RoleSuperAdmin {
		return Deny(ReasonNoAuthority)
	}
	return Allow()
}

// CanReassignBranch decides whether actor may move subject to another branch.
func CanReassignBranch(a Actor, s Subject) Decision {
	if !a.Role.IsAdmin() {
		return Deny(ReasonNoAuthority)
	}
	return Allow()
}

// CanSetActive decides whether actor may deactivate or reactivate subject.
func CanSetActive(a Actor, s Subject) Decision {
	if IsSelf(a, s) {
		return Deny(ReasonSelfAction)
	}
	switch {
	case a.Role == models.RoleSuperAdmin:
		return Allow()
	case a.Role == models.RoleAdmin:
		if s.Role == models.RoleSuperAdmin {
			return Deny(ReasonNoAuthority)
		}
		return Allow()
	case a.Role == models.RoleBranchManager:
		if s.Role != models.RoleUser {
			return Deny(ReasonNoAuthority)
		}
		if !SameBranch(a, s) {
			return Deny(ReasonOutOfScope)
		}
		return Allow()
	default:
		return Deny(ReasonNoAuthority)
	}
}

// CanDelete decides whether actor may permanently delete subject.
func CanDelete(a Actor, s Subject) Decision {
	if IsSelf(a, s) {
		return Deny(ReasonSelfAction)
	}
	if !a.Role.IsAdmin() {
		return Deny(ReasonNoAuthority)
	}
	if s.Role == models.RoleSuperAdmin && a.Role != models.RoleSuperAdmin {
		return Deny(ReasonNoAuthority)
	}
	return Allow()
}

// ListScope decides whether actor may list accounts and returns the branch
// the listing must be restricted to. A nil branch means every branch.
func ListScope(a Actor) (*primitive.ObjectID, Decision) {
	switch {
	case a.Role.IsAdmin():
		return nil, Allow()
	case a.Role == models.RoleBranchManager:
		if a.BranchID == nil {
			return nil, Deny(ReasonOutOfScope)
		}
		return a.BranchID, Allow()
	}
	return nil, Deny(ReasonNoAuthority)
}
