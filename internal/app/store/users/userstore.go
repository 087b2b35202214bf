package userstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/unionhub/internal/app/system/normalize"
	"github.com/dalemusser/unionhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection is the users collection name.
const Collection = "users"

var (
	// ErrDuplicateEmail is returned when the email is already registered.
	ErrDuplicateEmail = errors.New("a user with this email already exists")
	// ErrDuplicateNationalID is returned when another user holds the national ID.
	ErrDuplicateNationalID = errors.New("a user with this national id already exists")
)

// Store reads and maintains user documents. Membership mutations that must be
// paired with a registration log go through the ledger store instead.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(Collection)}
}

// EnsureIndexes creates the unique and lookup indexes on users.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("email_unique"),
		},
		{
			// national_id is omitted until the detail step, so the index is sparse.
			Keys:    bson.D{{Key: "national_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true).SetName("national_id_unique"),
		},
		{
			Keys: bson.D{{Key: "branch_id", Value: 1}, {Key: "status", Value: 1}, {Key: "full_name_ci", Value: 1}, {Key: "_id", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "full_name_ci", Value: 1}, {Key: "_id", Value: 1}},
		},
	})
	return err
}

// MapDupErr translates a duplicate-key error into the matching sentinel.
// Other errors are returned unchanged.
func MapDupErr(err error) error {
	if err == nil || !wafflemongo.IsDup(err) {
		return err
	}
	if strings.Contains(err.Error(), "national_id") {
		return ErrDuplicateNationalID
	}
	return ErrDuplicateEmail
}

// GetByID loads a user by ObjectID. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByEmail looks up a user by normalized email. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"email": normalize.Email(email)}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// EmailTaken reports whether any user has the given email.
func (s *Store) EmailTaken(ctx context.Context, email string) (bool, error) {
	n, err := s.c.CountDocuments(ctx, bson.M{"email": normalize.Email(email)}, options.Count().SetLimit(1))
	return n > 0, err
}

// NationalIDTaken reports whether a user other than exclude holds nationalID.
func (s *Store) NationalIDTaken(ctx context.Context, nationalID string, exclude primitive.ObjectID) (bool, error) {
	filter := bson.M{"national_id": nationalID, "_id": bson.M{"$ne": exclude}}
	n, err := s.c.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	return n > 0, err
}

// NamesByIDs returns display names for the given IDs. Unknown IDs are absent
// from the result.
func (s *Store) NamesByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]string, error) {
	out := make(map[primitive.ObjectID]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	proj := options.Find().SetProjection(bson.M{"_id": 1, "first_name": 1, "last_name": 1})
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, proj)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var u models.User
		if err := cur.Decode(&u); err != nil {
			return nil, err
		}
		out[u.ID] = u.FullName()
	}
	return out, cur.Err()
}

// Insert stores a fully built user outside the registration workflow
// (bootstrap accounts). ID, timestamps and the folded name are filled in.
func (s *Store) Insert(ctx context.Context, u models.User) (models.User, error) {
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	u.Email = normalize.Email(u.Email)
	u.FullNameCI = text.Fold(u.FullName())
	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now
	if _, err := s.c.InsertOne(ctx, u); err != nil {
		return models.User{}, MapDupErr(err)
	}
	return u, nil
}

// SetRole changes a user's role directly. Only bootstrap uses this; workflow
// role changes are logged through the ledger.
func (s *Store) SetRole(ctx context.Context, id primitive.ObjectID, role models.Role) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"role": role, "is_active": true, "updated_at": time.Now().UTC()},
		"$inc": bson.M{"version": 1},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// UpdatePassword replaces the password hash. Password changes are account
// security events, not membership changes, so no registration log entry is
// written.
func (s *Store) UpdatePassword(ctx context.Context, id primitive.ObjectID, hash string) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"password_hash": hash, "updated_at": time.Now().UTC()},
		"$inc": bson.M{"version": 1},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// Delete removes a user. Registration logs are kept.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
