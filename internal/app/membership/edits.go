package membership

import (
	"context"
	"errors"

	"github.com/dalemusser/unionhub/internal/app/policy/memberpolicy"
	"github.com/dalemusser/unionhub/internal/app/system/apperr"
	"github.com/dalemusser/unionhub/internal/app/system/inputval"
	"github.com/dalemusser/unionhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// MaxBatchNames caps one name lookup request.
const MaxBatchNames = 50

// UpdateProfile edits profile fields and logs a user_update entry holding
// only the fields that changed. An edit that changes nothing writes nothing.
func (s *Service) UpdateProfile(ctx context.Context, actor memberpolicy.Actor, id primitive.ObjectID, in ProfileInput) (*models.User, error) {
	in.normalize()
	fields := inputval.Struct(in)
	if fields == nil {
		fields = map[string]string{}
	}
	in.check(fields)
	if len(fields) > 0 {
		return nil, apperr.Validation(fields)
	}

	u, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if d := memberpolicy.CanEditProfile(actor, memberpolicy.SubjectOf(u)); !d.Allowed {
		return nil, s.deny("update_profile", actor, u.ID, d)
	}
	if err := s.checkNationalID(ctx, u, in.NationalID); err != nil {
		return nil, err
	}

	set, changes := profileDiff(u, &in)
	entry := models.RegistrationLog{
		Action:          models.ActionUserUpdate,
		PerformedBy:     actor.ID,
		PerformedByRole: actor.Role,
	}
	docChanged := documentChange(u, in.DocumentURL, set, &entry)
	if len(changes) == 0 && !docChanged {
		return u, nil
	}
	if len(changes) > 0 {
		entry.Metadata = &models.LogMetadata{FieldChanges: changes}
	}

	updated, _, err := s.commit(ctx, u, set, entry)
	return updated, err
}

// UpdateRole changes a member's role and logs role_update. A branch manager
// needs a branch, either supplied here or already assigned. Revoking the
// role keeps the branch.
func (s *Service) UpdateRole(ctx context.Context, actor memberpolicy.Actor, id primitive.ObjectID, role models.Role, branchID string) (*models.User, error) {
	u, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if d := memberpolicy.CanChangeRole(actor, memberpolicy.SubjectOf(u), role); !d.Allowed {
		return nil, s.deny("update_role", actor, u.ID, d)
	}

	target := u.BranchID
	if branchID != "" {
		bid, err := parseID("branchId", branchID)
		if err != nil {
			return nil, err
		}
		if _, err := s.activeBranch(ctx, bid); err != nil {
			return nil, err
		}
		target = &bid
	}
	if role == models.RoleBranchManager && target == nil {
		return nil, apperr.Field("branchId", "is required for branch managers")
	}

	set := bson.M{}
	changes := map[string]models.FieldChange{}
	if role != u.Role {
		set["role"] = role
		changes["role"] = models.FieldChange{OldValue: string(u.Role), NewValue: string(role)}
	}
	if target != nil && (u.BranchID == nil || *u.BranchID != *target) {
		set["branch_id"] = *target
		changes["branchId"] = models.FieldChange{OldValue: branchHex(u.BranchID), NewValue: target.Hex()}
	}
	if len(changes) == 0 {
		return u, nil
	}

	updated, _, err := s.commit(ctx, u, set, models.RegistrationLog{
		Action:          models.ActionRoleUpdate,
		PerformedBy:     actor.ID,
		PerformedByRole: actor.Role,
		Metadata:        &models.LogMetadata{BranchID: target, FieldChanges: changes},
	})
	return updated, err
}

// ReassignBranch moves a member to another branch.
func (s *Service) ReassignBranch(ctx context.Context, actor memberpolicy.Actor, id primitive.ObjectID, branchID string) (*models.User, error) {
	bid, err := parseID("branchId", branchID)
	if err != nil {
		return nil, err
	}
	u, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if d := memberpolicy.CanReassignBranch(actor, memberpolicy.SubjectOf(u)); !d.Allowed {
		return nil, s.deny("reassign_branch", actor, u.ID, d)
	}
	if _, err := s.activeBranch(ctx, bid); err != nil {
		return nil, err
	}
	if u.BranchID != nil && *u.BranchID == bid {
		return u, nil
	}

	updated, _, err := s.commit(ctx, u, bson.M{"branch_id": bid}, models.RegistrationLog{
		Action:          models.ActionUserUpdate,
		PerformedBy:     actor.ID,
		PerformedByRole: actor.Role,
		Metadata: &models.LogMetadata{
			BranchID: &bid,
			FieldChanges: map[string]models.FieldChange{
				"branchId": {OldValue: branchHex(u.BranchID), NewValue: bid.Hex()},
			},
		},
	})
	return updated, err
}

// SetActive deactivates or reactivates an account. Nobody changes their own.
func (s *Service) SetActive(ctx context.Context, actor memberpolicy.Actor, id primitive.ObjectID, active bool) (*models.User, error) {
	u, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if d := memberpolicy.CanSetActive(actor, memberpolicy.SubjectOf(u)); !d.Allowed {
		return nil, s.deny("set_active", actor, u.ID, d)
	}
	if u.IsActive == active {
		return u, nil
	}

	updated, _, err := s.commit(ctx, u, bson.M{"is_active": active}, models.RegistrationLog{
		Action:          models.ActionUserUpdate,
		PerformedBy:     actor.ID,
		PerformedByRole: actor.Role,
		Metadata: &models.LogMetadata{
			FieldChanges: map[string]models.FieldChange{
				"isActive": {OldValue: u.IsActive, NewValue: active},
			},
		},
	})
	return updated, err
}

// Delete permanently removes an account. Its registration log is kept. The
// deleted user is returned for the caller's system audit event.
func (s *Service) Delete(ctx context.Context, actor memberpolicy.Actor, id primitive.ObjectID) (*models.User, error) {
	u, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if d := memberpolicy.CanDelete(actor, memberpolicy.SubjectOf(u)); !d.Allowed {
		return nil, s.deny("delete", actor, u.ID, d)
	}
	if err := s.users.Delete(ctx, u.ID); err != nil {
		return nil, storeErr(err, "user")
	}
	s.log.Info("user deleted",
		zap.String("user_id", u.ID.Hex()),
		zap.String("actor_id", actor.ID.Hex()),
	)
	return u, nil
}

// GetUser returns an account the actor may view.
func (s *Service) GetUser(ctx context.Context, actor memberpolicy.Actor, id primitive.ObjectID) (*models.User, error) {
	u, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if d := memberpolicy.CanView(actor, memberpolicy.SubjectOf(u)); !d.Allowed {
		return nil, s.deny("view", actor, u.ID, d)
	}
	return u, nil
}

// LogView is a registration log entry with the performer's display name.
type LogView struct {
	models.RegistrationLog
	PerformedByName string `json:"performedByName,omitempty"`
}

// ListLogs returns the subject's registration log in ascending order,
// resuming after the given entry when after is non-nil. Admins can still read
// the log of a deleted account.
func (s *Service) ListLogs(ctx context.Context, actor memberpolicy.Actor, id primitive.ObjectID, after *primitive.ObjectID) ([]LogView, error) {
	u, err := s.users.GetByID(ctx, id)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments) && actor.Role.IsAdmin():
	case err != nil:
		return nil, storeErr(err, "user")
	default:
		if d := memberpolicy.CanView(actor, memberpolicy.SubjectOf(u)); !d.Allowed {
			return nil, s.deny("view_logs", actor, u.ID, d)
		}
	}

	entries, err := s.logs.ListByUser(ctx, id, after)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperr.Field("after", "unknown log entry")
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}

	ids := make([]primitive.ObjectID, 0, len(entries))
	seen := map[primitive.ObjectID]bool{}
	for _, e := range entries {
		if !seen[e.PerformedBy] {
			seen[e.PerformedBy] = true
			ids = append(ids, e.PerformedBy)
		}
	}
	names := map[primitive.ObjectID]string{}
	if s.names != nil && len(ids) > 0 {
		if got, err := s.names.Names(ctx, ids); err != nil {
			s.log.Warn("performed_by name lookup failed", zap.Error(err))
		} else {
			names = got
		}
	}

	out := make([]LogView, len(entries))
	for i, e := range entries {
		out[i] = LogView{RegistrationLog: e, PerformedByName: names[e.PerformedBy]}
	}
	return out, nil
}

// BatchNames resolves up to MaxBatchNames account ids to display names.
// Unknown ids are absent from the result.
func (s *Service) BatchNames(ctx context.Context, ids []string) (map[string]string, error) {
	if len(ids) > MaxBatchNames {
		return nil, apperr.Field("ids", "at most 50 ids per request")
	}
	oids := make([]primitive.ObjectID, 0, len(ids))
	bad := map[string]string{}
	for _, h := range ids {
		oid, err := primitive.ObjectIDFromHex(h)
		if err != nil {
			bad["ids"] = "contains an invalid id"
			continue
		}
		oids = append(oids, oid)
	}
	if len(bad) > 0 {
		return nil, apperr.Validation(bad)
	}

	out := map[string]string{}
	if s.names == nil || len(oids) == 0 {
		return out, nil
	}
	got, err := s.names.Names(ctx, oids)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	for id, name := range got {
		out[id.Hex()] = name
	}
	return out, nil
}
