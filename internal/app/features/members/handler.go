// internal/app/features/members/handler.go
package members

import (
	"context"

	"github.com/dalemusser/unionhub/internal/app/membership"
	"github.com/dalemusser/unionhub/internal/app/system/auditlog"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// NameCache drops cached display names after a profile edit.
type NameCache interface {
	Invalidate(ctx context.Context, id primitive.ObjectID)
}

// Handler is the feature-level handler for member administration.
// Names may be nil.
type Handler struct {
	Svc      *membership.Service
	Log      *zap.Logger
	AuditLog *auditlog.Logger
	Names    NameCache
}

func NewHandler(svc *membership.Service, audit *auditlog.Logger, names NameCache, logger *zap.Logger) *Handler {
	return &Handler{
		Svc:      svc,
		Log:      logger,
		AuditLog: audit,
		Names:    names,
	}
}
