// internal/app/store/reglogs/store.go
package reglogs

import (
	"context"
	"time"

	"github.com/dalemusser/unionhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection is the registration log collection name.
const Collection = "user_registration_logs"

// Store is the append-only registration log. It deliberately has no update
// or delete methods.
type Store struct {
	c *mongo.Collection
}

// New creates a registration log Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(Collection)}
}

// EnsureIndexes creates the per-member ordering index.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "user_id", Value: 1},
				{Key: "timestamp", Value: 1},
				{Key: "_id", Value: 1},
			},
		},
		{
			Keys: bson.D{{Key: "performed_by", Value: 1}, {Key: "timestamp", Value: -1}},
		},
	})
	return err
}

// Append inserts one entry. Pass the session context when appending inside
// a transaction. A zero ID or timestamp is filled in.
func (s *Store) Append(ctx context.Context, entry models.RegistrationLog) (models.RegistrationLog, error) {
	if entry.ID.IsZero() {
		entry.ID = primitive.NewObjectID()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	if _, err := s.c.InsertOne(ctx, entry); err != nil {
		return models.RegistrationLog{}, err
	}
	return entry, nil
}

// ListByUser returns every entry for the member in ascending
// (timestamp, _id) order. When after is non-nil, listing resumes after that
// entry, which lets callers page through long histories.
func (s *Store) ListByUser(ctx context.Context, userID primitive.ObjectID, after *primitive.ObjectID) ([]models.RegistrationLog, error) {
	filter := bson.M{"user_id": userID}

	if after != nil {
		var anchor models.RegistrationLog
		err := s.c.FindOne(ctx, bson.M{"_id": *after, "user_id": userID}).Decode(&anchor)
		if err != nil {
			return nil, err
		}
		filter["$or"] = bson.A{
			bson.M{"timestamp": bson.M{"$gt": anchor.Timestamp}},
			bson.M{"timestamp": anchor.Timestamp, "_id": bson.M{"$gt": anchor.ID}},
		}
	}

	opts := options.Find().SetSort(bson.D{
		{Key: "timestamp", Value: 1},
		{Key: "_id", Value: 1},
	})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.RegistrationLog{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
