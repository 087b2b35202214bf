// internal/app/features/members/edit.go
package members

import (
	"net/http"

	"github.com/dalemusser/unionhub/internal/app/features/shared"
	"github.com/dalemusser/unionhub/internal/app/membership"
	"github.com/dalemusser/unionhub/internal/app/system/apperr"
	"github.com/dalemusser/unionhub/internal/app/system/inputval"
	"github.com/dalemusser/unionhub/internal/app/system/timeouts"
	"github.com/dalemusser/unionhub/internal/domain/models"
)

type roleRequest struct {
	Role     string `json:"role" validate:"required"`
	BranchID string `json:"branchId,omitempty" validate:"omitempty,mongodb"`
}

type branchRequest struct {
	BranchID string `json:"branchId" validate:"required,mongodb"`
}

// HandleEdit handles PATCH /users/{id}.
func (h *Handler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := h.subject(w, r)
	if !ok {
		return
	}

	var in membership.ProfileInput
	if err := shared.DecodeJSON(w, r, &in, false); err != nil {
		shared.WriteError(w, r, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "update profile")
	defer cancel()

	u, err := h.Svc.UpdateProfile(ctx, actor, id, in)
	if err != nil {
		shared.WriteError(w, r, h.Log, err)
		return
	}
	if h.Names != nil && (in.FirstName != nil || in.LastName != nil) {
		h.Names.Invalidate(ctx, id)
	}
	shared.WriteJSON(w, r, http.StatusOK, u)
}

// HandleRole handles PATCH /users/{id}/role.
func (h *Handler) HandleRole(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := h.subject(w, r)
	if !ok {
		return
	}

	var req roleRequest
	if err := shared.DecodeJSON(w, r, &req, false); err != nil {
		shared.WriteError(w, r, h.Log, err)
		return
	}
	if fields := inputval.Struct(req); len(fields) > 0 {
		shared.WriteError(w, r, h.Log, apperr.Validation(fields))
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "update role")
	defer cancel()

	before, err := h.Svc.GetUser(ctx, actor, id)
	if err != nil {
		shared.WriteError(w, r, h.Log, err)
		return
	}
	u, err := h.Svc.UpdateRole(ctx, actor, id, models.Role(req.Role), req.BranchID)
	if err != nil {
		shared.WriteError(w, r, h.Log, err)
		return
	}
	if before.Role != u.Role {
		h.AuditLog.UserRoleChanged(ctx, r, actor.ID, u.ID, u.BranchID, string(actor.Role), string(before.Role), string(u.Role))
	}
	shared.WriteJSON(w, r, http.StatusOK, u)
}

// HandleBranch handles PATCH /users/{id}/branch.
func (h *Handler) HandleBranch(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := h.subject(w, r)
	if !ok {
		return
	}

	var req branchRequest
	if err := shared.DecodeJSON(w, r, &req, false); err != nil {
		shared.WriteError(w, r, h.Log, err)
		return
	}
	if fields := inputval.Struct(req); len(fields) > 0 {
		shared.WriteError(w, r, h.Log, apperr.Validation(fields))
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "reassign branch")
	defer cancel()

	before, err := h.Svc.GetUser(ctx, actor, id)
	if err != nil {
		shared.WriteError(w, r, h.Log, err)
		return
	}
	u, err := h.Svc.ReassignBranch(ctx, actor, id, req.BranchID)
	if err != nil {
		shared.WriteError(w, r, h.Log, err)
		return
	}
	if old := hexOrEmpty(before.BranchID); old != hexOrEmpty(u.BranchID) {
		h.AuditLog.UserBranchChanged(ctx, r, actor.ID, u.ID, u.BranchID, string(actor.Role), old)
	}
	shared.WriteJSON(w, r, http.StatusOK, u)
}

// HandleDeactivate handles PATCH /users/{id}/deactivate.
func (h *Handler) HandleDeactivate(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, false)
}

// HandleActivate handles PATCH /users/{id}/activate.
func (h *Handler) HandleActivate(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, true)
}

func (h *Handler) setActive(w http.ResponseWriter, r *http.Request, active bool) {
	actor, id, ok := h.subject(w, r)
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "set active")
	defer cancel()

	before, err := h.Svc.GetUser(ctx, actor, id)
	if err != nil {
		shared.WriteError(w, r, h.Log, err)
		return
	}
	u, err := h.Svc.SetActive(ctx, actor, id, active)
	if err != nil {
		shared.WriteError(w, r, h.Log, err)
		return
	}
	if before.IsActive != u.IsActive {
		if active {
			h.AuditLog.UserEnabled(ctx, r, actor.ID, u.ID, u.BranchID, string(actor.Role))
		} else {
			h.AuditLog.UserDisabled(ctx, r, actor.ID, u.ID, u.BranchID, string(actor.Role))
		}
	}
	shared.WriteJSON(w, r, http.StatusOK, u)
}

// HandleDelete handles DELETE /users/{id}. The registration log survives.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := h.subject(w, r)
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "delete user")
	defer cancel()

	u, err := h.Svc.Delete(ctx, actor, id)
	if err != nil {
		shared.WriteError(w, r, h.Log, err)
		return
	}
	h.AuditLog.UserDeleted(ctx, r, actor.ID, u.ID, u.BranchID, string(actor.Role), string(u.Role))
	if h.Names != nil {
		h.Names.Invalidate(ctx, u.ID)
	}
	w.WriteHeader(http.StatusNoContent)
}
