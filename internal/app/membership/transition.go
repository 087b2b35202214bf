package membership

import (
	"context"
	"unicode/utf8"

	"github.com/dalemusser/unionhub/internal/app/policy/memberpolicy"
	"github.com/dalemusser/unionhub/internal/app/system/apperr"
	"github.com/dalemusser/unionhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/unionhub/internal/app/system/inputval"
	"github.com/dalemusser/unionhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MaxNoteLength bounds a transition note, in characters.
const MaxNoteLength = 2000

// TransitionRequest asks to move a member to Status.
type TransitionRequest struct {
	SubjectID   primitive.ObjectID
	Status      models.Status
	Actor       memberpolicy.Actor
	Note        string
	DocumentURL string
}

// ApplyTransition moves the subject to the requested status and records the
// transition. Requesting the current status is allowed and still logged.
// Approvals that change the status are passed to the notifier after commit.
func (s *Service) ApplyTransition(ctx context.Context, req TransitionRequest) (*models.User, *models.RegistrationLog, error) {
	note := htmlsanitize.Text(req.Note)
	if utf8.RuneCountInString(note) > MaxNoteLength {
		return nil, nil, apperr.Field("note", "must be at most 2000 characters")
	}
	if req.DocumentURL != "" && !inputval.IsValidHTTPURL(req.DocumentURL) {
		return nil, nil, apperr.Field("documentUrl", "must be an http or https URL")
	}

	u, err := s.load(ctx, req.SubjectID)
	if err != nil {
		return nil, nil, err
	}
	if d := memberpolicy.CanTransition(req.Actor, memberpolicy.SubjectOf(u), req.Status); !d.Allowed {
		return nil, nil, s.deny("transition", req.Actor, u.ID, d)
	}
	if req.Status != models.StatusPendingDetails && u.BranchID == nil {
		return nil, nil, apperr.Field("branchId", "member has no branch; registration details are incomplete")
	}

	entry := models.RegistrationLog{
		Action:          ActionFor(req.Actor.Role, u.Status, req.Status),
		PerformedBy:     req.Actor.ID,
		PerformedByRole: req.Actor.Role,
		PreviousStatus:  u.Status,
		NewStatus:       req.Status,
		Note:            note,
		Metadata:        &models.LogMetadata{BranchID: u.BranchID},
	}
	set := bson.M{"status": req.Status}
	documentChange(u, &req.DocumentURL, set, &entry)

	updated, stored, err := s.commit(ctx, u, set, entry)
	if err != nil {
		return nil, nil, err
	}

	if stored.Action.IsApproval() && u.Status != req.Status && s.notifier != nil {
		s.notifier.Approved(ctx, *updated, stored)
	}
	return updated, &stored, nil
}
