// Package membership runs the union registration and approval workflow:
// two-phase registration, status transitions, and the administrative edits
// that accompany them. Every mutation is committed together with its
// registration log entry through the Ledger.
package membership

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/unionhub/internal/app/policy/memberpolicy"
	"github.com/dalemusser/unionhub/internal/app/store/ledger"
	userstore "github.com/dalemusser/unionhub/internal/app/store/users"
	"github.com/dalemusser/unionhub/internal/app/system/apperr"
	"github.com/dalemusser/unionhub/internal/app/system/metrics"
	"github.com/dalemusser/unionhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost is used when Deps.BcryptCost is zero.
const DefaultBcryptCost = 12

// Users reads user documents. GetByID returns mongo.ErrNoDocuments when the
// user does not exist.
type Users interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	EmailTaken(ctx context.Context, email string) (bool, error)
	NationalIDTaken(ctx context.Context, nationalID string, exclude primitive.ObjectID) (bool, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// Ledger commits a user mutation and its log entry atomically.
type Ledger interface {
	CreateUser(ctx context.Context, u models.User, entry models.RegistrationLog) (models.User, models.RegistrationLog, error)
	Apply(ctx context.Context, m ledger.Mutation, entry models.RegistrationLog) (*models.User, models.RegistrationLog, error)
}

// Logs reads the registration log.
type Logs interface {
	ListByUser(ctx context.Context, userID primitive.ObjectID, after *primitive.ObjectID) ([]models.RegistrationLog, error)
}

// Branches looks up branches. GetByID returns mongo.ErrNoDocuments when absent.
type Branches interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Branch, error)
}

// Directory lists and counts accounts.
type Directory interface {
	List(ctx context.Context, q userstore.ListQuery) (userstore.ListPage, error)
	Stats(ctx context.Context, branchID *primitive.ObjectID) (userstore.Stats, error)
}

// Notifier is told about approvals after they commit. It must not block.
type Notifier interface {
	Approved(ctx context.Context, u models.User, entry models.RegistrationLog)
}

// NameLookup resolves account IDs to display names for log views.
type NameLookup interface {
	Names(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]string, error)
}

// Deps are the collaborators of a Service. Notifier and Names may be nil.
type Deps struct {
	Users      Users
	Ledger     Ledger
	Logs       Logs
	Branches   Branches
	Directory  Directory
	Notifier   Notifier
	Names      NameLookup
	Logger     *zap.Logger
	BcryptCost int
	Now        func() time.Time
}

// Service implements the membership workflow.
type Service struct {
	users     Users
	ledger    Ledger
	logs      Logs
	branches  Branches
	directory Directory
	notifier  Notifier
	names     NameLookup
	log       *zap.Logger
	cost      int
	now       func() time.Time
}

// New creates a Service.
func New(d Deps) *Service {
	s := &Service{
		users:     d.Users,
		ledger:    d.Ledger,
		logs:      d.Logs,
		branches:  d.Branches,
		directory: d.Directory,
		notifier:  d.Notifier,
		names:     d.Names,
		log:       d.Logger,
		cost:      d.BcryptCost,
		now:       d.Now,
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.cost == 0 {
		s.cost = DefaultBcryptCost
	}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}
	return s
}

var denialMessages = map[memberpolicy.Reason]string{
	memberpolicy.ReasonNoAuthority:   "your role has no authority for this action",
	memberpolicy.ReasonOutOfScope:    "the member is outside your branch",
	memberpolicy.ReasonSubjectActive: "the member is already active; ask an administrator",
	memberpolicy.ReasonUnknownStatus: "unknown membership status",
	memberpolicy.ReasonUnknownRole:   "unknown role",
	memberpolicy.ReasonSelfAction:    "you cannot perform this action on your own account",
}

// deny records a policy denial and converts it to a forbidden error.
func (s *Service) deny(op string, a memberpolicy.Actor, subject primitive.ObjectID, d memberpolicy.Decision) error {
	metrics.Denials.WithLabelValues(op, string(d.Reason)).Inc()
	s.log.Warn("membership action denied",
		zap.String("operation", op),
		zap.String("actor_id", a.ID.Hex()),
		zap.String("actor_role", string(a.Role)),
		zap.String("subject_id", subject.Hex()),
		zap.String("reason", string(d.Reason)),
	)
	e := apperr.Forbidden(string(d.Reason))
	if msg, ok := denialMessages[d.Reason]; ok {
		e.Message = msg
	}
	return e
}

// storeErr translates store and ledger failures for API callers.
func storeErr(err error, what string) error {
	if _, ok := apperr.As(err); ok {
		return err
	}
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return apperr.NotFound(what)
	case errors.Is(err, ledger.ErrVersionConflict):
		metrics.Conflicts.Inc()
		return apperr.Conflict("the member was changed by someone else; reload and try again", err)
	case errors.Is(err, userstore.ErrDuplicateEmail):
		return apperr.Field("email", "is already registered")
	case errors.Is(err, userstore.ErrDuplicateNationalID):
		return apperr.Conflict("national id is already registered to another member", err)
	default:
		return apperr.Internal(err)
	}
}

// load fetches the subject of an operation.
func (s *Service) load(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "user")
	}
	return u, nil
}

// activeBranch loads a branch that accepts members.
func (s *Service) activeBranch(ctx context.Context, id primitive.ObjectID) (*models.Branch, error) {
	b, err := s.branches.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "branch")
	}
	if !b.IsActive {
		return nil, apperr.Field("branchId", "branch is not accepting members")
	}
	return b, nil
}

func (s *Service) hashPassword(pw string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(pw), s.cost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// committed logs and counts a committed mutation.
func (s *Service) committed(entry models.RegistrationLog) {
	metrics.Transitions.WithLabelValues(string(entry.Action)).Inc()
	fields := []zap.Field{
		zap.String("action", string(entry.Action)),
		zap.String("user_id", entry.UserID.Hex()),
		zap.String("performed_by", entry.PerformedBy.Hex()),
		zap.String("performed_by_role", string(entry.PerformedByRole)),
	}
	if entry.NewStatus != "" {
		fields = append(fields,
			zap.String("previous_status", string(entry.PreviousStatus)),
			zap.String("new_status", string(entry.NewStatus)),
		)
	}
	s.log.Info("membership change committed", fields...)
}

func parseID(field, hex string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, apperr.Field(field, "must be a valid id")
	}
	return id, nil
}
