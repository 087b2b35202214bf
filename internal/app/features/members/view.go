// internal/app/features/members/view.go
package members

import (
	"net/http"

	"github.com/dalemusser/unionhub/internal/app/features/shared"
	"github.com/dalemusser/unionhub/internal/app/membership"
	"github.com/dalemusser/unionhub/internal/app/system/apperr"
	"github.com/dalemusser/unionhub/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type logsResponse struct {
	Logs []membership.LogView `json:"logs"`
}

type batchNamesRequest struct {
	IDs []string `json:"ids"`
}

type batchNamesResponse struct {
	Names map[string]string `json:"names"`
}

func hexOrEmpty(id *primitive.ObjectID) string {
	if id == nil {
		return ""
	}
	return id.Hex()
}

// ServeView handles GET /users/{id}.
func (h *Handler) ServeView(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := h.subject(w, r)
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "view user")
	defer cancel()

	u, err := h.Svc.GetUser(ctx, actor, id)
	if err != nil {
		shared.WriteError(w, r, h.Log, err)
		return
	}
	shared.WriteJSON(w, r, http.StatusOK, u)
}

// ServeLogs handles GET /users/{id}/logs?after=<log id>.
//
// Entries are oldest first. Clients page by passing the last id they hold.
func (h *Handler) ServeLogs(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := h.subject(w, r)
	if !ok {
		return
	}

	var after *primitive.ObjectID
	if raw := r.URL.Query().Get("after"); raw != "" {
		oid, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			shared.WriteError(w, r, h.Log, apperr.Field("after", "invalid id"))
			return
		}
		after = &oid
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list logs")
	defer cancel()

	logs, err := h.Svc.ListLogs(ctx, actor, id, after)
	if err != nil {
		shared.WriteError(w, r, h.Log, err)
		return
	}
	shared.WriteJSON(w, r, http.StatusOK, logsResponse{Logs: logs})
}

// HandleBatchNames handles POST /users/batch-names.
func (h *Handler) HandleBatchNames(w http.ResponseWriter, r *http.Request) {
	var req batchNamesRequest
	if err := shared.DecodeJSON(w, r, &req, false); err != nil {
		shared.WriteError(w, r, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "batch names")
	defer cancel()

	names, err := h.Svc.BatchNames(ctx, req.IDs)
	if err != nil {
		shared.WriteError(w, r, h.Log, err)
		return
	}
	shared.WriteJSON(w, r, http.StatusOK, batchNamesResponse{Names: names})
}
