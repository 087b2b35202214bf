// internal/app/features/members/bulk.go
package members

import (
	"context"
	"net/http"

	"github.com/dalemusser/unionhub/internal/app/features/shared"
	"github.com/dalemusser/unionhub/internal/app/policy/memberpolicy"
	"github.com/dalemusser/unionhub/internal/app/system/apperr"
	"github.com/dalemusser/unionhub/internal/app/system/authz"
	"github.com/dalemusser/unionhub/internal/app/system/inputval"
	"github.com/dalemusser/unionhub/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// MaxBulkIDs caps one bulk request.
const MaxBulkIDs = 100

const (
	bulkDelete   = "delete"
	bulkActivate = "activate"
)

type bulkRequest struct {
	Action  string   `json:"action" validate:"required,oneof=delete activate deactivate"`
	UserIDs []string `json:"userIds" validate:"required,min=1,max=100"`
}

type bulkResult struct {
	UserID  string `json:"userId"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

type bulkResponse struct {
	Success      bool         `json:"success"`
	SuccessCount int          `json:"successCount"`
	FailureCount int          `json:"failureCount"`
	Results      []bulkResult `json:"results"`
}

// HandleBulk handles POST /users/bulk.
//
// Each id goes through the same service call, policy check and audit event
// as the single-member endpoint. Failures are reported per id: 200 when every
// id succeeded, 207 otherwise. Only admins may bulk delete.
func (h *Handler) HandleBulk(w http.ResponseWriter, r *http.Request) {
	actor, ok := authz.Actor(r)
	if !ok {
		shared.WriteError(w, r, h.Log, apperr.Unauthenticated())
		return
	}

	var req bulkRequest
	if err := shared.DecodeJSON(w, r, &req, false); err != nil {
		shared.WriteError(w, r, h.Log, err)
		return
	}
	if fields := inputval.Struct(req); len(fields) > 0 {
		shared.WriteError(w, r, h.Log, apperr.Validation(fields))
		return
	}
	if req.Action == bulkDelete && !actor.Role.IsAdmin() {
		shared.WriteError(w, r, h.Log, apperr.Forbidden(string(memberpolicy.ReasonNoAuthority)))
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "bulk "+req.Action)
	defer cancel()

	resp := bulkResponse{Results: make([]bulkResult, 0, len(req.UserIDs))}
	for _, raw := range req.UserIDs {
		res := bulkResult{UserID: raw}
		if err := h.bulkOne(ctx, r, actor, raw, req.Action); err != nil {
			if apperr.KindOf(err) == apperr.KindInternal {
				h.Log.Error("bulk member action failed", zap.String("user_id", raw), zap.Error(err))
			}
			res.Error = bulkMessage(err)
			resp.FailureCount++
		} else {
			res.Success = true
			resp.SuccessCount++
		}
		resp.Results = append(resp.Results, res)
	}
	resp.Success = resp.FailureCount == 0

	h.Log.Info("bulk member action",
		zap.String("action", req.Action),
		zap.String("actor_id", actor.ID.Hex()),
		zap.Int("succeeded", resp.SuccessCount),
		zap.Int("failed", resp.FailureCount),
	)

	status := http.StatusOK
	if !resp.Success {
		status = http.StatusMultiStatus
	}
	shared.WriteJSON(w, r, status, resp)
}

func (h *Handler) bulkOne(ctx context.Context, r *http.Request, actor memberpolicy.Actor, raw, action string) error {
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return apperr.Field("userIds", "invalid id")
	}

	if action == bulkDelete {
		u, err := h.Svc.Delete(ctx, actor, id)
		if err != nil {
			return err
		}
		h.AuditLog.UserDeleted(ctx, r, actor.ID, u.ID, u.BranchID, string(actor.Role), string(u.Role))
		if h.Names != nil {
			h.Names.Invalidate(ctx, u.ID)
		}
		return nil
	}

	active := action == bulkActivate
	before, err := h.Svc.GetUser(ctx, actor, id)
	if err != nil {
		return err
	}
	if before.IsActive == active {
		if active {
			return apperr.Conflict("already active", nil)
		}
		return apperr.Conflict("already inactive", nil)
	}
	u, err := h.Svc.SetActive(ctx, actor, id, active)
	if err != nil {
		return err
	}
	if active {
		h.AuditLog.UserEnabled(ctx, r, actor.ID, u.ID, u.BranchID, string(actor.Role))
	} else {
		h.AuditLog.UserDisabled(ctx, r, actor.ID, u.ID, u.BranchID, string(actor.Role))
	}
	return nil
}

// bulkMessage renders an item failure. Internal causes stay in the server log.
func bulkMessage(err error) string {
	ae, ok := apperr.As(err)
	if !ok || ae.Kind == apperr.KindInternal {
		return "internal error"
	}
	if msg := ae.Fields["userIds"]; msg != "" {
		return msg
	}
	if ae.Message != "" {
		return ae.Message
	}
	return ae.Kind.String()
}
