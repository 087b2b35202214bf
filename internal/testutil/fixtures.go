package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/unionhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx, ok := r.Context().Value(chi.RouteCtxKey).(*chi.Context)
	if !ok || rctx == nil {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures creates test data directly in the database.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a Fixtures for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateBranch inserts an active branch.
func (f *Fixtures) CreateBranch(ctx context.Context, name string) models.Branch {
	f.t.Helper()
	return f.insertBranch(ctx, name, true)
}

// CreateInactiveBranch inserts a branch that no longer accepts members.
func (f *Fixtures) CreateInactiveBranch(ctx context.Context, name string) models.Branch {
	f.t.Helper()
	return f.insertBranch(ctx, name, false)
}

func (f *Fixtures) insertBranch(ctx context.Context, name string, active bool) models.Branch {
	now := time.Now().UTC()
	b := models.Branch{
		ID:        primitive.NewObjectID(),
		Name:      name,
		NameCI:    text.Fold(name),
		IsActive:  active,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := f.db.Collection("branches").InsertOne(ctx, b); err != nil {
		f.t.Fatalf("failed to create test branch: %v", err)
	}
	return b
}

// CreateUser inserts an active account with the given role, status and branch.
func (f *Fixtures) CreateUser(ctx context.Context, first, last, email string, role models.Role, status models.Status, branchID *primitive.ObjectID) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	u := models.User{
		ID:         primitive.NewObjectID(),
		Email:      email,
		Role:       role,
		Status:     status,
		BranchID:   branchID,
		IsActive:   true,
		FirstName:  first,
		LastName:   last,
		FullNameCI: text.Fold(first + " " + last),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if _, err := f.db.Collection("users").InsertOne(ctx, u); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return u
}

// CreateMember inserts a member in the given status.
func (f *Fixtures) CreateMember(ctx context.Context, first, last, email string, status models.Status, branchID *primitive.ObjectID) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, first, last, email, models.RoleUser, status, branchID)
}

// CreateBranchManager inserts an active branch manager for branchID.
func (f *Fixtures) CreateBranchManager(ctx context.Context, first, last, email string, branchID primitive.ObjectID) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, first, last, email, models.RoleBranchManager, models.StatusActive, &branchID)
}

// CreateAdmin inserts an active admin.
func (f *Fixtures) CreateAdmin(ctx context.Context, first, last, email string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, first, last, email, models.RoleAdmin, models.StatusActive, nil)
}
