package membership

import (
	"context"
	"unicode/utf8"

	"github.com/dalemusser/unionhub/internal/app/policy/memberpolicy"
	"github.com/dalemusser/unionhub/internal/app/store/ledger"
	"github.com/dalemusser/unionhub/internal/app/system/apperr"
	"github.com/dalemusser/unionhub/internal/app/system/inputval"
	"github.com/dalemusser/unionhub/internal/app/system/normalize"
	"github.com/dalemusser/unionhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// BasicInput is the first registration step.
type BasicInput struct {
	FirstName string `json:"firstName" validate:"required,max=100"`
	LastName  string `json:"lastName" validate:"required,max=100"`
	Email     string `json:"email" validate:"required,email_simple,max=254"`
	Password  string `json:"password" validate:"required,max=72"`
	BirthDate string `json:"birthDate" validate:"required,birthdate,adult"`
	Gender    string `json:"gender" validate:"required,gender"`
	Phone     string `json:"phone,omitempty" validate:"omitempty,phone_tr"`
}

func (in *BasicInput) normalize() {
	in.FirstName = freeText(in.FirstName)
	in.LastName = freeText(in.LastName)
	in.Email = normalize.Email(in.Email)
	in.BirthDate = birthDate(in.BirthDate)
	in.Gender = normalize.Token(in.Gender)
	in.Phone = normalize.Phone(in.Phone)
}

// RegisterBasic creates a member in pending_details together with its
// register_basic log entry. creator is the authenticated caller, or nil for
// self-registration. Accounts created by a branch manager start scoped to
// the manager's branch.
//
// Every violation is reported in one validation error. The password rule
// here is the server minimum only; clients may enforce stricter rules.
func (s *Service) RegisterBasic(ctx context.Context, in BasicInput, creator *memberpolicy.Actor) (*models.User, error) {
	in.normalize()

	fields := inputval.Struct(in)
	if fields == nil {
		fields = map[string]string{}
	}
	if _, bad := fields["password"]; !bad {
		switch {
		case utf8.RuneCountInString(in.Password) < inputval.MinPasswordLength:
			fields["password"] = "must be at least 6 characters"
		case len(in.Password) > inputval.MaxPasswordBytes:
			fields["password"] = "must be at most 72 bytes"
		}
	}
	if _, bad := fields["email"]; !bad {
		taken, err := s.users.EmailTaken(ctx, in.Email)
		if err != nil {
			return nil, apperr.Internal(err)
		}
		if taken {
			fields["email"] = "is already registered"
		}
	}
	if len(fields) > 0 {
		return nil, apperr.Validation(fields)
	}

	hash, err := s.hashPassword(in.Password)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	now := s.now()
	u := models.User{
		ID:           primitive.NewObjectID(),
		Email:        in.Email,
		PasswordHash: hash,
		Role:         models.RoleUser,
		Status:       models.StatusPendingDetails,
		IsActive:     true,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Phone:        in.Phone,
		BirthDate:    in.BirthDate,
		Gender:       in.Gender,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	u.FullNameCI = text.Fold(u.FullName())

	entry := models.RegistrationLog{
		Action:          models.ActionRegisterBasic,
		PerformedBy:     u.ID,
		PerformedByRole: models.RoleUser,
		NewStatus:       models.StatusPendingDetails,
		Metadata:        &models.LogMetadata{Email: u.Email},
		Timestamp:       now,
	}
	if creator != nil && (creator.Role == models.RoleBranchManager || creator.Role.IsAdmin()) {
		entry.PerformedBy = creator.ID
		entry.PerformedByRole = creator.Role
		if creator.Role == models.RoleBranchManager && creator.BranchID != nil {
			bid := *creator.BranchID
			u.BranchID = &bid
			entry.Metadata.BranchID = &bid
		}
	}

	created, stored, err := s.ledger.CreateUser(ctx, u, entry)
	if err != nil {
		return nil, storeErr(err, "user")
	}
	s.committed(stored)
	return &created, nil
}

// DetailsInput is the second registration step. UserID defaults to the
// actor.
type DetailsInput struct {
	UserID   string `json:"userId,omitempty" validate:"omitempty,mongodb"`
	BranchID string `json:"branchId" validate:"required,mongodb"`
	ProfileInput
}

// RegisterDetails completes a registration: it records the supplied detail
// fields, assigns the branch and moves the member to pending_branch_review.
// Rejected members may resubmit.
func (s *Service) RegisterDetails(ctx context.Context, actor memberpolicy.Actor, in DetailsInput) (*models.User, error) {
	in.ProfileInput.normalize()

	fields := inputval.Struct(in)
	if fields == nil {
		fields = map[string]string{}
	}
	in.ProfileInput.check(fields)
	if len(fields) > 0 {
		return nil, apperr.Validation(fields)
	}

	subjectID := actor.ID
	if in.UserID != "" {
		id, err := parseID("userId", in.UserID)
		if err != nil {
			return nil, err
		}
		subjectID = id
	}
	branchID, err := parseID("branchId", in.BranchID)
	if err != nil {
		return nil, err
	}

	u, err := s.load(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	if d := memberpolicy.CanCompleteDetails(actor, memberpolicy.SubjectOf(u), branchID); !d.Allowed {
		return nil, s.deny("register_details", actor, u.ID, d)
	}
	if u.Status != models.StatusPendingDetails && u.Status != models.StatusRejected {
		return nil, apperr.Field("status", "registration already completed")
	}
	if _, err := s.activeBranch(ctx, branchID); err != nil {
		return nil, err
	}
	if err := s.checkNationalID(ctx, u, in.NationalID); err != nil {
		return nil, err
	}

	set, changes := profileDiff(u, &in.ProfileInput)
	set["status"] = models.StatusPendingBranchReview
	if u.BranchID == nil || *u.BranchID != branchID {
		set["branch_id"] = branchID
		changes["branchId"] = models.FieldChange{OldValue: branchHex(u.BranchID), NewValue: branchID.Hex()}
	}

	entry := models.RegistrationLog{
		Action:          models.ActionRegisterDetails,
		PerformedBy:     actor.ID,
		PerformedByRole: actor.Role,
		PreviousStatus:  u.Status,
		NewStatus:       models.StatusPendingBranchReview,
		Metadata:        &models.LogMetadata{BranchID: &branchID},
	}
	if len(changes) > 0 {
		entry.Metadata.FieldChanges = changes
	}
	documentChange(u, in.DocumentURL, set, &entry)

	updated, _, err := s.commit(ctx, u, set, entry)
	return updated, err
}

// checkNationalID rejects a national id held by another member.
func (s *Service) checkNationalID(ctx context.Context, u *models.User, nid *string) error {
	if nid == nil || *nid == "" || *nid == u.NationalID {
		return nil
	}
	taken, err := s.users.NationalIDTaken(ctx, *nid, u.ID)
	if err != nil {
		return apperr.Internal(err)
	}
	if taken {
		return apperr.Conflict("national id is already registered to another member", nil)
	}
	return nil
}

// commit writes set and entry for u through the ledger.
func (s *Service) commit(ctx context.Context, u *models.User, set bson.M, entry models.RegistrationLog) (*models.User, models.RegistrationLog, error) {
	entry.Timestamp = s.now()
	updated, stored, err := s.ledger.Apply(ctx, ledger.Mutation{
		UserID:          u.ID,
		ExpectedVersion: u.Version,
		Set:             set,
		At:              entry.Timestamp,
	}, entry)
	if err != nil {
		return nil, models.RegistrationLog{}, storeErr(err, "user")
	}
	s.committed(stored)
	return updated, stored, nil
}
