// internal/app/features/branches/handler.go
package branches

import (
	"context"
	"errors"
	"net/http"

	"github.com/dalemusser/unionhub/internal/app/features/shared"
	"github.com/dalemusser/unionhub/internal/app/system/apperr"
	"github.com/dalemusser/unionhub/internal/app/system/timeouts"
	"github.com/dalemusser/unionhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Store reads branches. GetByID returns mongo.ErrNoDocuments when absent.
type Store interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Branch, error)
	SearchActive(ctx context.Context, q string) ([]models.Branch, error)
}

// Handler serves the public branch directory used by the registration form.
type Handler struct {
	Store Store
	Log   *zap.Logger
}

// NewHandler constructs a branches handler.
func NewHandler(store Store, logger *zap.Logger) *Handler {
	return &Handler{Store: store, Log: logger}
}

type listResponse struct {
	Branches []models.Branch `json:"branches"`
}

// ServeList handles GET /branches?q=.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	q := query.Search(r, "q")

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "list branches")
	defer cancel()

	list, err := h.Store.SearchActive(ctx, q)
	if err != nil {
		shared.WriteError(w, r, h.Log, apperr.Internal(err))
		return
	}
	shared.WriteJSON(w, r, http.StatusOK, listResponse{Branches: list})
}

// ServeView handles GET /branches/{id}. Inactive branches are still
// returned so existing members can see where they belong.
func (h *Handler) ServeView(w http.ResponseWriter, r *http.Request) {
	id, err := shared.ObjectIDParam(r, "id")
	if err != nil {
		shared.WriteError(w, r, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "view branch")
	defer cancel()

	b, err := h.Store.GetByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		shared.WriteError(w, r, h.Log, apperr.NotFound("branch"))
		return
	}
	if err != nil {
		shared.WriteError(w, r, h.Log, apperr.Internal(err))
		return
	}
	shared.WriteJSON(w, r, http.StatusOK, b)
}
