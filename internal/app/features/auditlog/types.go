// internal/app/features/auditlog/types.go
package auditlog

import (
	"time"

	"github.com/dalemusser/unionhub/internal/app/store/audit"
)

// listItem represents a single audit event in the response.
type listItem struct {
	ID            string            `json:"id"`
	Timestamp     time.Time         `json:"timestamp"`
	Category      string            `json:"category"`
	EventType     string            `json:"eventType"`
	BranchID      string            `json:"branchId,omitempty"`
	ActorID       string            `json:"actorId,omitempty"`
	ActorName     string            `json:"actorName,omitempty"`
	TargetID      string            `json:"targetId,omitempty"`
	TargetName    string            `json:"targetName,omitempty"`
	IP            string            `json:"ip"`
	Success       bool              `json:"success"`
	FailureReason string            `json:"failureReason,omitempty"`
	Details       map[string]string `json:"details,omitempty"`
}

// listResponse is one page of audit events.
type listResponse struct {
	Items      []listItem `json:"items"`
	Page       int        `json:"page"`
	TotalPages int        `json:"totalPages"`
	Total      int64      `json:"total"`
}

var eventTypes = map[string][]string{
	audit.CategoryAuth: {
		audit.EventLoginSuccess,
		audit.EventLoginFailedUserNotFound,
		audit.EventLoginFailedWrongPassword,
		audit.EventLoginFailedUserDisabled,
		audit.EventLoginFailedRateLimit,
		audit.EventLogout,
		audit.EventPasswordChanged,
		audit.EventPasswordChangeFailed,
	},
	audit.CategoryAdmin: {
		audit.EventUserDisabled,
		audit.EventUserEnabled,
		audit.EventUserDeleted,
		audit.EventUserRoleChanged,
		audit.EventUserBranchChanged,
	},
}

func validEventType(category, eventType string) bool {
	for c, types := range eventTypes {
		if category != "" && c != category {
			continue
		}
		for _, t := range types {
			if t == eventType {
				return true
			}
		}
	}
	return false
}
