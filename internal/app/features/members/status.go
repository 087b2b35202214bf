// internal/app/features/members/status.go
package members

import (
	"net/http"

	"github.com/dalemusser/unionhub/internal/app/features/shared"
	"github.com/dalemusser/unionhub/internal/app/membership"
	"github.com/dalemusser/unionhub/internal/app/policy/memberpolicy"
	"github.com/dalemusser/unionhub/internal/app/system/apperr"
	"github.com/dalemusser/unionhub/internal/app/system/authz"
	"github.com/dalemusser/unionhub/internal/app/system/inputval"
	"github.com/dalemusser/unionhub/internal/app/system/timeouts"
	"github.com/dalemusser/unionhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type statusRequest struct {
	Status      string `json:"status" validate:"required"`
	Note        string `json:"note,omitempty" validate:"max=2000"`
	DocumentURL string `json:"documentUrl,omitempty" validate:"omitempty,httpurl,max=2048"`
}

type statusResponse struct {
	User *models.User            `json:"user"`
	Log  *models.RegistrationLog `json:"log"`
}

// subject resolves the caller and the {id} URL parameter, writing the error
// response itself when either is missing.
func (h *Handler) subject(w http.ResponseWriter, r *http.Request) (memberpolicy.Actor, primitive.ObjectID, bool) {
	actor, ok := authz.Actor(r)
	if !ok {
		shared.WriteError(w, r, h.Log, apperr.Unauthenticated())
		return memberpolicy.Actor{}, primitive.NilObjectID, false
	}
	id, err := shared.ObjectIDParam(r, "id")
	if err != nil {
		shared.WriteError(w, r, h.Log, err)
		return memberpolicy.Actor{}, primitive.NilObjectID, false
	}
	return actor, id, true
}

// HandleStatus handles PATCH /users/{id}/status.
//
// Responds with the updated user and the log entry that recorded the move.
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := h.subject(w, r)
	if !ok {
		return
	}

	var req statusRequest
	if err := shared.DecodeJSON(w, r, &req, false); err != nil {
		shared.WriteError(w, r, h.Log, err)
		return
	}
	if fields := inputval.Struct(req); len(fields) > 0 {
		shared.WriteError(w, r, h.Log, apperr.Validation(fields))
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "apply transition")
	defer cancel()

	u, entry, err := h.Svc.ApplyTransition(ctx, membership.TransitionRequest{
		SubjectID:   id,
		Status:      models.Status(req.Status),
		Actor:       actor,
		Note:        req.Note,
		DocumentURL: req.DocumentURL,
	})
	if err != nil {
		shared.WriteError(w, r, h.Log, err)
		return
	}
	shared.WriteJSON(w, r, http.StatusOK, statusResponse{User: u, Log: entry})
}
