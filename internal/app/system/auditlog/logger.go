// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"

	"github.com/dalemusser/unionhub/internal/app/store/audit"
	"github.com/dalemusser/unionhub/internal/app/system/ratelimit"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Destinations for a category.
const (
	All = "all" // MongoDB + zap
	DB  = "db"
	Log = "log"
	Off = "off"
)

// Config holds audit logging configuration.
type Config struct {
	// Auth controls login and logout events.
	Auth string
	// Admin controls account administration events.
	Admin string
}

// ValidSetting reports whether s is one of all, db, log, off.
func ValidSetting(s string) bool {
	switch s {
	case All, DB, Log, Off:
		return true
	}
	return false
}

// Logger records audit events to MongoDB and/or zap.
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger.
func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{store: store, zapLog: zapLog, config: config}
}

func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
		zap.String("ip", event.IP),
	}
	if event.UserID != nil {
		fields = append(fields, zap.String("user_id", event.UserID.Hex()))
	}
	if event.ActorID != nil {
		fields = append(fields, zap.String("actor_id", event.ActorID.Hex()))
	}
	if event.BranchID != nil {
		fields = append(fields, zap.String("branch_id", event.BranchID.Hex()))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records an audit event according to the category's setting.
// A nil Logger is a no-op.
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	var setting string
	switch event.Category {
	case audit.CategoryAuth:
		setting = l.config.Auth
	case audit.CategoryAdmin:
		setting = l.config.Admin
	default:
		setting = All
	}
	if setting == Off {
		return
	}

	if setting == All || setting == Log {
		l.logToZap(event)
	}
	if (setting == All || setting == DB) && l.store != nil {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

func (l *Logger) auth(ctx context.Context, r *http.Request, eventType string, userID *primitive.ObjectID, ok bool, reason string, details map[string]string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     eventType,
		UserID:        userID,
		IP:            ratelimit.ClientIP(r),
		UserAgent:     r.UserAgent(),
		Success:       ok,
		FailureReason: reason,
		Details:       details,
	})
}

// --- Authentication Events ---

// LoginSuccess logs a successful login.
func (l *Logger) LoginSuccess(ctx context.Context, r *http.Request, userID primitive.ObjectID, email, method string) {
	l.auth(ctx, r, audit.EventLoginSuccess, &userID, true, "", map[string]string{
		"email":       email,
		"auth_method": method,
	})
}

// LoginFailedUserNotFound logs a login attempt for an unknown email.
func (l *Logger) LoginFailedUserNotFound(ctx context.Context, r *http.Request, attemptedEmail string) {
	l.auth(ctx, r, audit.EventLoginFailedUserNotFound, nil, false, "user not found", map[string]string{
		"attempted_email": attemptedEmail,
	})
}

// LoginFailedWrongPassword logs a failed login due to wrong password.
func (l *Logger) LoginFailedWrongPassword(ctx context.Context, r *http.Request, userID primitive.ObjectID, email string) {
	l.auth(ctx, r, audit.EventLoginFailedWrongPassword, &userID, false, "wrong password", map[string]string{
		"email": email,
	})
}

// LoginFailedUserDisabled logs a failed login on a deactivated account.
func (l *Logger) LoginFailedUserDisabled(ctx context.Context, r *http.Request, userID primitive.ObjectID, email string) {
	l.auth(ctx, r, audit.EventLoginFailedUserDisabled, &userID, false, "user disabled", map[string]string{
		"email": email,
	})
}

// LoginFailedRateLimit logs a login rejected by the rate limiter.
func (l *Logger) LoginFailedRateLimit(ctx context.Context, r *http.Request, attemptedEmail string) {
	l.auth(ctx, r, audit.EventLoginFailedRateLimit, nil, false, "rate limited", map[string]string{
		"attempted_email": attemptedEmail,
	})
}

// Logout logs a sign-out. userIDHex may be empty when the session had expired.
func (l *Logger) Logout(ctx context.Context, r *http.Request, userIDHex string) {
	var uid *primitive.ObjectID
	if oid, err := primitive.ObjectIDFromHex(userIDHex); err == nil {
		uid = &oid
	}
	l.auth(ctx, r, audit.EventLogout, uid, true, "", nil)
}

// PasswordChanged logs a successful password change by the account owner.
func (l *Logger) PasswordChanged(ctx context.Context, r *http.Request, userID primitive.ObjectID) {
	l.auth(ctx, r, audit.EventPasswordChanged, &userID, true, "", nil)
}

// PasswordChangeFailed logs a password change rejected because the current
// password did not match.
func (l *Logger) PasswordChangeFailed(ctx context.Context, r *http.Request, userID primitive.ObjectID) {
	l.auth(ctx, r, audit.EventPasswordChangeFailed, &userID, false, "wrong current password", nil)
}

// --- Admin Events ---

func (l *Logger) admin(ctx context.Context, r *http.Request, eventType string, actorID, targetID primitive.ObjectID, branchID *primitive.ObjectID, actorRole string, details map[string]string) {
	if details == nil {
		details = map[string]string{}
	}
	details["actor_role"] = actorRole
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: eventType,
		UserID:    &targetID,
		ActorID:   &actorID,
		BranchID:  branchID,
		IP:        ratelimit.ClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   true,
		Details:   details,
	})
}

// UserDisabled logs an account deactivation.
func (l *Logger) UserDisabled(ctx context.Context, r *http.Request, actorID, targetID primitive.ObjectID, branchID *primitive.ObjectID, actorRole string) {
	l.admin(ctx, r, audit.EventUserDisabled, actorID, targetID, branchID, actorRole, nil)
}

// UserEnabled logs an account reactivation.
func (l *Logger) UserEnabled(ctx context.Context, r *http.Request, actorID, targetID primitive.ObjectID, branchID *primitive.ObjectID, actorRole string) {
	l.admin(ctx, r, audit.EventUserEnabled, actorID, targetID, branchID, actorRole, nil)
}

// UserDeleted logs an account deletion.
func (l *Logger) UserDeleted(ctx context.Context, r *http.Request, actorID, targetID primitive.ObjectID, branchID *primitive.ObjectID, actorRole, role string) {
	l.admin(ctx, r, audit.EventUserDeleted, actorID, targetID, branchID, actorRole, map[string]string{
		"role": role,
	})
}

// UserRoleChanged logs a role change.
func (l *Logger) UserRoleChanged(ctx context.Context, r *http.Request, actorID, targetID primitive.ObjectID, branchID *primitive.ObjectID, actorRole, oldRole, newRole string) {
	l.admin(ctx, r, audit.EventUserRoleChanged, actorID, targetID, branchID, actorRole, map[string]string{
		"old_role": oldRole,
		"new_role": newRole,
	})
}

// UserBranchChanged logs a branch reassignment.
func (l *Logger) UserBranchChanged(ctx context.Context, r *http.Request, actorID, targetID primitive.ObjectID, branchID *primitive.ObjectID, actorRole, oldBranch string) {
	l.admin(ctx, r, audit.EventUserBranchChanged, actorID, targetID, branchID, actorRole, map[string]string{
		"old_branch": oldBranch,
	})
}
