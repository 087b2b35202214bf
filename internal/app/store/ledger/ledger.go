// Package ledger writes membership changes together with their registration
// log entry. Either both the user document and the entry are stored, or
// neither is.
package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/unionhub/internal/app/store/reglogs"
	userstore "github.com/dalemusser/unionhub/internal/app/store/users"
	"github.com/dalemusser/unionhub/internal/app/system/txn"
	"github.com/dalemusser/unionhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// ErrVersionConflict is returned when the user changed (or vanished) since it
// was read. Callers re-read and re-decide.
var ErrVersionConflict = errors.New("ledger: user was modified concurrently")

// Mutation is a versioned partial update of one user.
type Mutation struct {
	UserID          primitive.ObjectID
	ExpectedVersion int64
	Set             bson.M
	At              time.Time
}

// Ledger pairs user writes with registration log appends.
type Ledger struct {
	db          *mongo.Database
	users       *mongo.Collection
	logs        *reglogs.Store
	log         *zap.Logger
	allowUnsafe bool
}

// New creates a Ledger. With allowUnsafe set, writes still happen on a
// deployment without transactions, losing the all-or-nothing guarantee.
func New(db *mongo.Database, logs *reglogs.Store, logger *zap.Logger, allowUnsafe bool) *Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ledger{
		db:          db,
		users:       db.Collection(userstore.Collection),
		logs:        logs,
		log:         logger,
		allowUnsafe: allowUnsafe,
	}
}

func (l *Ledger) run(ctx context.Context, fn func(ctx context.Context) error) error {
	if l.allowUnsafe {
		return txn.Run(ctx, l.db, l.log, fn)
	}
	return txn.RunStrict(ctx, l.db, fn)
}

// CreateUser inserts u and its first log entry. entry.UserID is set to u.ID.
func (l *Ledger) CreateUser(ctx context.Context, u models.User, entry models.RegistrationLog) (models.User, models.RegistrationLog, error) {
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	entry.UserID = u.ID

	var stored models.RegistrationLog
	err := l.run(ctx, func(sc context.Context) error {
		if _, err := l.users.InsertOne(sc, u); err != nil {
			return userstore.MapDupErr(err)
		}
		e, err := l.logs.Append(sc, entry)
		if err != nil {
			return err
		}
		stored = e
		return nil
	})
	if err != nil {
		return models.User{}, models.RegistrationLog{}, err
	}
	return u, stored, nil
}

// Apply updates the user only if its version still equals
// m.ExpectedVersion, bumps the version, and appends entry. It returns the
// updated user.
func (l *Ledger) Apply(ctx context.Context, m Mutation, entry models.RegistrationLog) (*models.User, models.RegistrationLog, error) {
	at := m.At
	if at.IsZero() {
		at = time.Now().UTC()
	}
	set := bson.M{"updated_at": at}
	for k, v := range m.Set {
		set[k] = v
	}
	entry.UserID = m.UserID
	if entry.Timestamp.IsZero() {
		entry.Timestamp = at
	}

	var (
		updated models.User
		stored  models.RegistrationLog
	)
	err := l.run(ctx, func(sc context.Context) error {
		filter := bson.M{"_id": m.UserID, "version": m.ExpectedVersion}
		update := bson.M{"$set": set, "$inc": bson.M{"version": 1}}
		opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

		err := l.users.FindOneAndUpdate(sc, filter, update, opts).Decode(&updated)
		if errors.Is(err, mongo.ErrNoDocuments) || txn.IsWriteConflict(err) {
			return ErrVersionConflict
		}
		if err != nil {
			return userstore.MapDupErr(err)
		}

		e, err := l.logs.Append(sc, entry)
		if err != nil {
			return err
		}
		stored = e
		return nil
	})
	if err != nil {
		return nil, models.RegistrationLog{}, err
	}
	return &updated, stored, nil
}
