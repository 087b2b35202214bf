// internal/domain/models/registrationlog.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Action labels a registration log entry.
type Action string

const (
	ActionRegisterBasic          Action = "register_basic"
	ActionRegisterDetails        Action = "register_details"
	ActionBranchManagerApproval  Action = "branch_manager_approval"
	ActionBranchManagerRejection Action = "branch_manager_rejection"
	ActionBranchManagerReturn    Action = "branch_manager_return"
	ActionAdminApproval          Action = "admin_approval"
	ActionAdminRejection         Action = "admin_rejection"
	ActionAdminReturn            Action = "admin_return"
	ActionStatusUpdate           Action = "status_update"
	ActionUserUpdate             Action = "user_update"
	ActionRoleUpdate             Action = "role_update"
)

// Actions lists every action label.
var Actions = []Action{
	ActionRegisterBasic,
	ActionRegisterDetails,
	ActionBranchManagerApproval,
	ActionBranchManagerRejection,
	ActionBranchManagerReturn,
	ActionAdminApproval,
	ActionAdminRejection,
	ActionAdminReturn,
	ActionStatusUpdate,
	ActionUserUpdate,
	ActionRoleUpdate,
}

// IsApproval reports whether a is one of the approval labels.
func (a Action) IsApproval() bool {
	return a == ActionAdminApproval || a == ActionBranchManagerApproval
}

// RegistrationLog is one immutable entry in a member's audit trail.
//
// Status-changing entries carry both PreviousStatus and NewStatus (equal for
// a same-status resubmission). register_basic carries NewStatus only.
// user_update and role_update carry neither.
type RegistrationLog struct {
	ID                  primitive.ObjectID `bson:"_id" json:"id"`
	UserID              primitive.ObjectID `bson:"user_id" json:"userId"`
	Action              Action             `bson:"action" json:"action"`
	PerformedBy         primitive.ObjectID `bson:"performed_by" json:"performedBy"`
	PerformedByRole     Role               `bson:"performed_by_role" json:"performedByRole"`
	PreviousStatus      Status             `bson:"previous_status,omitempty" json:"previousStatus,omitempty"`
	NewStatus           Status             `bson:"new_status,omitempty" json:"newStatus,omitempty"`
	Note                string             `bson:"note,omitempty" json:"note,omitempty"`
	DocumentURL         string             `bson:"document_url,omitempty" json:"documentUrl,omitempty"`
	PreviousDocumentURL string             `bson:"previous_document_url,omitempty" json:"previousDocumentUrl,omitempty"`
	Metadata            *LogMetadata       `bson:"metadata,omitempty" json:"metadata,omitempty"`
	Timestamp           time.Time          `bson:"timestamp" json:"timestamp"`
}

// LogMetadata holds the optional context of a log entry.
type LogMetadata struct {
	BranchID     *primitive.ObjectID    `bson:"branch_id,omitempty" json:"branchId,omitempty"`
	Email        string                 `bson:"email,omitempty" json:"email,omitempty"`
	FieldChanges map[string]FieldChange `bson:"field_changes,omitempty" json:"fieldChanges,omitempty"`
}

// FieldChange records the value of one field before and after an edit.
type FieldChange struct {
	OldValue interface{} `bson:"old_value" json:"oldValue"`
	NewValue interface{} `bson:"new_value" json:"newValue"`
}
