package membership

import "github.com/dalemusser/unionhub/internal/domain/models"

// ActionFor labels a status transition for the registration log. The label
// is descriptive only; authorization never depends on it.
func ActionFor(role models.Role, from, to models.Status) models.Action {
	switch {
	case role.IsAdmin():
		switch {
		case to == models.StatusActive:
			return models.ActionAdminApproval
		case to == models.StatusRejected:
			return models.ActionAdminRejection
		case from == models.StatusPendingDetails && to == models.StatusPendingBranchReview:
			return models.ActionStatusUpdate
		default:
			return models.ActionAdminReturn
		}
	case role == models.RoleBranchManager:
		switch to {
		case models.StatusActive:
			return models.ActionBranchManagerApproval
		case models.StatusRejected:
			return models.ActionBranchManagerRejection
		case models.StatusPendingDetails:
			return models.ActionBranchManagerReturn
		}
	}
	return models.ActionStatusUpdate
}
