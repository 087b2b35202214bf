// internal/app/features/auditlog/list.go
package auditlog

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dalemusser/unionhub/internal/app/features/shared"
	"github.com/dalemusser/unionhub/internal/app/store/audit"
	"github.com/dalemusser/unionhub/internal/app/system/apperr"
	"github.com/dalemusser/unionhub/internal/app/system/authz"
	"github.com/dalemusser/unionhub/internal/app/system/timeouts"
	"github.com/dalemusser/unionhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const pageSize = 50

// ServeList handles GET /audit.
//
// Query: category, event_type, user_id, start_date, end_date (YYYY-MM-DD),
// page. Branch managers only see events recorded against their branch.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	actor, ok := authz.Actor(r)
	if !ok {
		shared.WriteError(w, r, h.Log, apperr.Unauthenticated())
		return
	}

	filter, page, err := parseFilter(r)
	if err != nil {
		shared.WriteError(w, r, h.Log, err)
		return
	}

	switch {
	case actor.Role.IsAdmin():
	case actor.Role == models.RoleBranchManager && actor.BranchID != nil:
		filter.BranchID = actor.BranchID
	default:
		shared.WriteError(w, r, h.Log, apperr.Forbidden("no_authority"))
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "audit log list")
	defer cancel()

	events, err := h.Events.Query(ctx, filter)
	if err != nil {
		shared.WriteError(w, r, h.Log, apperr.Internal(err))
		return
	}
	total, err := h.Events.CountByFilter(ctx, filter)
	if err != nil {
		shared.WriteError(w, r, h.Log, apperr.Internal(err))
		return
	}

	// Collect unique user IDs for name resolution
	seen := make(map[primitive.ObjectID]struct{})
	var ids []primitive.ObjectID
	for _, e := range events {
		for _, id := range []*primitive.ObjectID{e.ActorID, e.UserID} {
			if id == nil {
				continue
			}
			if _, dup := seen[*id]; !dup {
				seen[*id] = struct{}{}
				ids = append(ids, *id)
			}
		}
	}
	names := map[primitive.ObjectID]string{}
	if h.Names != nil && len(ids) > 0 {
		if got, err := h.Names.Names(ctx, ids); err != nil {
			h.Log.Warn("failed to fetch user names for audit log", zap.Error(err))
		} else {
			names = got
		}
	}

	items := make([]listItem, 0, len(events))
	for _, e := range events {
		item := listItem{
			ID:            e.ID.Hex(),
			Timestamp:     e.Timestamp,
			Category:      e.Category,
			EventType:     e.EventType,
			IP:            e.IP,
			Success:       e.Success,
			FailureReason: e.FailureReason,
			Details:       e.Details,
		}
		if e.BranchID != nil {
			item.BranchID = e.BranchID.Hex()
		}
		if e.ActorID != nil {
			item.ActorID = e.ActorID.Hex()
			item.ActorName = names[*e.ActorID]
		}
		if e.UserID != nil {
			item.TargetID = e.UserID.Hex()
			item.TargetName = names[*e.UserID]
		}
		items = append(items, item)
	}

	totalPages := int((total + pageSize - 1) / pageSize)
	if totalPages < 1 {
		totalPages = 1
	}

	shared.WriteJSON(w, r, http.StatusOK, listResponse{
		Items:      items,
		Page:       page,
		TotalPages: totalPages,
		Total:      total,
	})
}

func parseFilter(r *http.Request) (audit.QueryFilter, int, error) {
	q := r.URL.Query()
	category := strings.TrimSpace(q.Get("category"))
	eventType := strings.TrimSpace(q.Get("event_type"))

	page := 1
	if p, err := strconv.Atoi(q.Get("page")); err == nil && p > 0 {
		page = p
	}

	filter := audit.QueryFilter{
		Category:  category,
		EventType: eventType,
		Limit:     pageSize,
		Offset:    int64((page - 1) * pageSize),
	}

	fields := map[string]string{}
	if category != "" && eventTypes[category] == nil {
		fields["category"] = "must be auth or admin"
	}
	if eventType != "" && !validEventType(category, eventType) {
		fields["event_type"] = "unknown event type"
	}
	if raw := q.Get("user_id"); raw != "" {
		if oid, err := primitive.ObjectIDFromHex(raw); err == nil {
			filter.UserID = &oid
		} else {
			fields["user_id"] = "invalid id"
		}
	}
	if raw := q.Get("start_date"); raw != "" {
		if t, err := time.Parse("2006-01-02", raw); err == nil {
			filter.StartTime = &t
		} else {
			fields["start_date"] = "must be YYYY-MM-DD"
		}
	}
	if raw := q.Get("end_date"); raw != "" {
		if t, err := time.Parse("2006-01-02", raw); err == nil {
			// End of day
			endOfDay := t.Add(24*time.Hour - time.Nanosecond)
			filter.EndTime = &endOfDay
		} else {
			fields["end_date"] = "must be YYYY-MM-DD"
		}
	}
	if len(fields) > 0 {
		return filter, page, apperr.Validation(fields)
	}
	return filter, page, nil
}
