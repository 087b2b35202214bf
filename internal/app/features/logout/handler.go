// internal/app/features/logout/handler.go
package logout

import (
	"net/http"

	"github.com/dalemusser/unionhub/internal/app/system/auditlog"
	"github.com/dalemusser/unionhub/internal/app/system/auth"
	"go.uber.org/zap"
)

type Handler struct {
	Log        *zap.Logger
	SessionMgr *auth.SessionManager
	AuditLog   *auditlog.Logger
}

func NewHandler(sessionMgr *auth.SessionManager, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Log:        logger,
		SessionMgr: sessionMgr,
		AuditLog:   audit,
	}
}

// HandleLogout handles POST /auth/logout. It always succeeds; bearer tokens
// simply expire.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	userID := h.SessionMgr.SessionUserID(r)
	if userID == "" {
		if u, ok := auth.CurrentUser(r); ok {
			userID = u.ID
		}
	}

	if err := h.SessionMgr.SignOut(w, r); err != nil {
		h.Log.Error("logout: save session", zap.Error(err))
	}
	if userID != "" {
		h.AuditLog.Logout(r.Context(), r, userID)
	}

	w.WriteHeader(http.StatusNoContent)
}
