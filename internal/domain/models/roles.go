// internal/domain/models/roles.go
package models

// Role is the closed set of account roles.
type Role string

const (
	RoleUser          Role = "user"
	RoleBranchManager Role = "branch_manager"
	RoleAdmin         Role = "admin"
	RoleSuperAdmin    Role = "superadmin"
)

// Roles lists every role.
var Roles = []Role{RoleUser, RoleBranchManager, RoleAdmin, RoleSuperAdmin}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleBranchManager, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// IsAdmin reports whether r carries full administrative authority.
func (r Role) IsAdmin() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// Status is the closed set of membership statuses.
type Status string

const (
	StatusPendingDetails      Status = "pending_details"
	StatusPendingBranchReview Status = "pending_branch_review"
	StatusActive              Status = "active"
	StatusRejected            Status = "rejected"
)

// Statuses lists every canonical status.
var Statuses = []Status{
	StatusPendingDetails,
	StatusPendingBranchReview,
	StatusActive,
	StatusRejected,
}

// Valid reports whether s is a canonical status. Client-only display states
// such as "pending_admin_approval" are not.
func (s Status) Valid() bool {
	switch s {
	case StatusPendingDetails, StatusPendingBranchReview, StatusActive, StatusRejected:
		return true
	}
	return false
}

// IsPending reports whether s is one of the two pending states.
func (s Status) IsPending() bool {
	return s == StatusPendingDetails || s == StatusPendingBranchReview
}
