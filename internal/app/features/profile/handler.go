// internal/app/features/profile/handler.go
package profile

import (
	"context"
	"net/http"
	"unicode/utf8"

	"github.com/dalemusser/unionhub/internal/app/features/shared"
	"github.com/dalemusser/unionhub/internal/app/system/apperr"
	"github.com/dalemusser/unionhub/internal/app/system/auditlog"
	"github.com/dalemusser/unionhub/internal/app/system/authz"
	"github.com/dalemusser/unionhub/internal/app/system/inputval"
	"github.com/dalemusser/unionhub/internal/app/system/timeouts"
	"github.com/dalemusser/unionhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Users loads accounts and stores new password hashes.
type Users interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	UpdatePassword(ctx context.Context, id primitive.ObjectID, hash string) error
}

// Handler serves self-service account security.
type Handler struct {
	Users      Users
	AuditLog   *auditlog.Logger
	Log        *zap.Logger
	BcryptCost int
}

// NewHandler creates a profile handler. cost 0 means bcrypt.DefaultCost.
func NewHandler(users Users, audit *auditlog.Logger, cost int, logger *zap.Logger) *Handler {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &Handler{Users: users, AuditLog: audit, Log: logger, BcryptCost: cost}
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// HandleChangePassword handles POST /auth/password.
//
// The caller proves the current password; the new one must differ from it
// and meet the server minimum. Responds 204 on success.
func (h *Handler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	actor, ok := authz.Actor(r)
	if !ok {
		shared.WriteError(w, r, h.Log, apperr.Unauthenticated())
		return
	}

	var req changePasswordRequest
	if err := shared.DecodeJSON(w, r, &req, false); err != nil {
		shared.WriteError(w, r, h.Log, err)
		return
	}

	fields := map[string]string{}
	if req.CurrentPassword == "" {
		fields["currentPassword"] = "is required"
	}
	switch n := utf8.RuneCountInString(req.NewPassword); {
	case n == 0:
		fields["newPassword"] = "is required"
	case n < inputval.MinPasswordLength:
		fields["newPassword"] = "must be at least 6 characters"
	case len(req.NewPassword) > inputval.MaxPasswordBytes:
		fields["newPassword"] = "must be at most 72 bytes"
	case req.NewPassword == req.CurrentPassword:
		fields["newPassword"] = "must differ from the current password"
	}
	if len(fields) > 0 {
		shared.WriteError(w, r, h.Log, apperr.Validation(fields))
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "change password")
	defer cancel()

	u, err := h.Users.GetByID(ctx, actor.ID)
	if err != nil {
		shared.WriteError(w, r, h.Log, apperr.NotFound("user"))
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.CurrentPassword)) != nil {
		h.AuditLog.PasswordChangeFailed(ctx, r, u.ID)
		shared.WriteError(w, r, h.Log, apperr.Field("currentPassword", "is incorrect"))
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), h.BcryptCost)
	if err != nil {
		shared.WriteError(w, r, h.Log, apperr.Internal(err))
		return
	}
	if err := h.Users.UpdatePassword(ctx, u.ID, string(hash)); err != nil {
		shared.WriteError(w, r, h.Log, apperr.Internal(err))
		return
	}

	h.AuditLog.PasswordChanged(ctx, r, u.ID)
	h.Log.Info("password changed", zap.String("user_id", u.ID.Hex()))
	w.WriteHeader(http.StatusNoContent)
}
