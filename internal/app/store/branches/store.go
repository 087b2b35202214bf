// internal/app/store/branches/store.go
package branches

import (
	"context"

	"github.com/dalemusser/unionhub/internal/app/system/search"
	"github.com/dalemusser/unionhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store looks up union branches. Branch administration lives elsewhere.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("branches")}
}

// EnsureIndexes creates the name index.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "name_ci", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

// GetByID loads a branch. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Branch, error) {
	var b models.Branch
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&b); err != nil {
		return nil, err
	}
	return &b, nil
}

// ListActive returns active branches sorted by name.
func (s *Store) ListActive(ctx context.Context) ([]models.Branch, error) {
	cur, err := s.c.Find(ctx, bson.M{"is_active": true}, options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Branch{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SearchActive returns active branches whose name or city starts with the
// folded query, sorted by name. An empty query lists every active branch.
func (s *Store) SearchActive(ctx context.Context, q string) ([]models.Branch, error) {
	fq, hi := search.NameRange(q)
	if fq == "" {
		return s.ListActive(ctx)
	}
	filter := bson.M{
		"is_active": true,
		"$or": []bson.M{
			{"name_ci": bson.M{"$gte": fq, "$lt": hi}},
			{"city_ci": bson.M{"$gte": fq, "$lt": hi}},
		},
	}
	cur, err := s.c.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Branch{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
