// internal/app/features/login/handler.go
package login

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dalemusser/unionhub/internal/app/features/shared"
	"github.com/dalemusser/unionhub/internal/app/system/apperr"
	"github.com/dalemusser/unionhub/internal/app/system/auditlog"
	"github.com/dalemusser/unionhub/internal/app/system/auth"
	"github.com/dalemusser/unionhub/internal/app/system/normalize"
	"github.com/dalemusser/unionhub/internal/app/system/ratelimit"
	"github.com/dalemusser/unionhub/internal/app/system/timeouts"
	"github.com/dalemusser/unionhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Users looks accounts up by email. GetByEmail returns mongo.ErrNoDocuments
// for unknown addresses.
type Users interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

type Handler struct {
	Users      Users
	Log        *zap.Logger
	SessionMgr *auth.SessionManager
	AuditLog   *auditlog.Logger
	Limiter    *ratelimit.LoginLimiter
}

func NewHandler(users Users, sessionMgr *auth.SessionManager, audit *auditlog.Logger, limiter *ratelimit.LoginLimiter, logger *zap.Logger) *Handler {
	return &Handler{
		Users:      users,
		Log:        logger,
		SessionMgr: sessionMgr,
		AuditLog:   audit,
		Limiter:    limiter,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string       `json:"token,omitempty"`
	ExpiresAt *time.Time   `json:"expiresAt,omitempty"`
	User      *models.User `json:"user"`
}

var errBadCredentials = &apperr.Error{Kind: apperr.KindUnauthenticated, Message: "invalid email or password"}

// HandleLoginPost handles POST /auth/login.
//
// On success the cookie session is set and, when bearer tokens are
// configured, a signed token is returned for the mobile app.
func (h *Handler) HandleLoginPost(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := shared.DecodeJSON(w, r, &req, false); err != nil {
		shared.WriteError(w, r, h.Log, err)
		return
	}
	email := normalize.Email(req.Email)

	fields := map[string]string{}
	if email == "" {
		fields["email"] = "is required"
	}
	if req.Password == "" {
		fields["password"] = "is required"
	}
	if len(fields) > 0 {
		shared.WriteError(w, r, h.Log, apperr.Validation(fields))
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "login")
	defer cancel()

	if h.Limiter != nil {
		if ok, msg := h.Limiter.Check(r, email); !ok {
			h.AuditLog.LoginFailedRateLimit(ctx, r, email)
			w.Header().Set("Retry-After", "60")
			shared.WriteError(w, r, h.Log, &apperr.Error{Kind: apperr.KindRateLimited, Message: msg})
			return
		}
	}

	u, err := h.Users.GetByEmail(ctx, email)
	if errors.Is(err, mongo.ErrNoDocuments) {
		h.AuditLog.LoginFailedUserNotFound(ctx, r, email)
		shared.WriteError(w, r, h.Log, errBadCredentials)
		return
	}
	if err != nil {
		shared.WriteError(w, r, h.Log, apperr.Internal(err))
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)) != nil {
		h.AuditLog.LoginFailedWrongPassword(ctx, r, u.ID, email)
		shared.WriteError(w, r, h.Log, errBadCredentials)
		return
	}
	if !u.IsActive {
		h.AuditLog.LoginFailedUserDisabled(ctx, r, u.ID, email)
		shared.WriteError(w, r, h.Log, apperr.Forbidden("account_disabled"))
		return
	}

	if err := h.SessionMgr.SignIn(w, r, u.ID.Hex()); err != nil {
		shared.WriteError(w, r, h.Log, apperr.Internal(err))
		return
	}

	resp := loginResponse{User: u}
	su := &auth.SessionUser{ID: u.ID.Hex(), Name: u.FullName(), Email: u.Email, Role: string(u.Role)}
	token, exp, err := h.SessionMgr.IssueToken(su)
	switch {
	case errors.Is(err, auth.ErrTokensDisabled):
	case err != nil:
		shared.WriteError(w, r, h.Log, apperr.Internal(err))
		return
	default:
		resp.Token = token
		resp.ExpiresAt = &exp
	}

	if h.Limiter != nil {
		h.Limiter.ResetEmail(email)
	}
	h.AuditLog.LoginSuccess(ctx, r, u.ID, email, "password")
	h.Log.Info("user logged in", zap.String("user_id", u.ID.Hex()), zap.String("role", string(u.Role)))

	shared.WriteJSON(w, r, http.StatusOK, resp)
}
