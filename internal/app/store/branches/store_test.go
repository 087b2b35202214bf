package branches_test

import (
	"errors"
	"testing"

	"github.com/dalemusser/unionhub/internal/app/store/branches"
	"github.com/dalemusser/unionhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestStore_GetByID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := branches.New(db)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	b := fx.CreateBranch(ctx, "İstanbul 3")
	got, err := store.GetByID(ctx, b.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Name != "İstanbul 3" || !got.IsActive {
		t.Errorf("branch = %+v", got)
	}

	if _, err := store.GetByID(ctx, primitive.NewObjectID()); !errors.Is(err, mongo.ErrNoDocuments) {
		t.Errorf("missing branch: got %v", err)
	}
}

func TestStore_ListActive(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := branches.New(db)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx.CreateBranch(ctx, "Bursa")
	fx.CreateBranch(ctx, "Adana")
	fx.CreateInactiveBranch(ctx, "Closed")

	got, err := store.ListActive(ctx)
	if err != nil {
		t.Fatalf("ListActive: %v", err)
	}
	if len(got) != 2 || got[0].Name != "Adana" {
		t.Errorf("ListActive = %+v", got)
	}
}

func TestStore_SearchActive(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := branches.New(db)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx.CreateBranch(ctx, "Şişli")
	fx.CreateBranch(ctx, "Sarıyer")
	fx.CreateInactiveBranch(ctx, "Silivri")

	got, err := store.SearchActive(ctx, "SIS")
	if err != nil {
		t.Fatalf("SearchActive: %v", err)
	}
	if len(got) != 1 || got[0].Name != "Şişli" {
		t.Errorf("SearchActive = %+v", got)
	}

	all, err := store.SearchActive(ctx, "  ")
	if err != nil {
		t.Fatalf("SearchActive empty: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("empty query returned %d branches, want 2", len(all))
	}
}
