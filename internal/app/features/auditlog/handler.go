// internal/app/features/auditlog/handler.go
package auditlog

import (
	"context"

	"github.com/dalemusser/unionhub/internal/app/store/audit"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Events is the read side of the system audit store.
type Events interface {
	Query(ctx context.Context, filter audit.QueryFilter) ([]audit.Event, error)
	CountByFilter(ctx context.Context, filter audit.QueryFilter) (int64, error)
}

// NameLookup resolves account ids to display names.
type NameLookup interface {
	Names(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]string, error)
}

type Handler struct {
	Events Events
	Names  NameLookup
	Log    *zap.Logger
}

// NewHandler constructs an Audit Log feature handler. names may be nil.
func NewHandler(events Events, names NameLookup, logger *zap.Logger) *Handler {
	return &Handler{
		Events: events,
		Names:  names,
		Log:    logger,
	}
}
