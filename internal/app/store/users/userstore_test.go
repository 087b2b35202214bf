package userstore_test

import (
	"errors"
	"testing"

	userstore "github.com/dalemusser/unionhub/internal/app/store/users"
	"github.com/dalemusser/unionhub/internal/domain/models"
	"github.com/dalemusser/unionhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestStore_Insert_DuplicateEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := store.EnsureIndexes(ctx); err != nil {
		t.Fatalf("EnsureIndexes: %v", err)
	}

	u := models.User{Email: "Dup@Example.com", FirstName: "A", LastName: "B", Role: models.RoleUser, Status: models.StatusPendingDetails}
	created, err := store.Insert(ctx, u)
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if created.Email != "dup@example.com" {
		t.Errorf("email not normalized: %q", created.Email)
	}
	if created.FullNameCI == "" {
		t.Error("expected FullNameCI to be set")
	}

	_, err = store.Insert(ctx, u)
	if !errors.Is(err, userstore.ErrDuplicateEmail) {
		t.Errorf("second insert: got %v, want ErrDuplicateEmail", err)
	}
}

func TestStore_NationalIDUniqueness(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := store.EnsureIndexes(ctx); err != nil {
		t.Fatalf("EnsureIndexes: %v", err)
	}

	// Two users without a national ID must coexist under the sparse index.
	a := fx.CreateMember(ctx, "Ali", "Kaya", "ali@example.com", models.StatusPendingDetails, nil)
	b := fx.CreateMember(ctx, "Ece", "Demir", "ece@example.com", models.StatusPendingDetails, nil)

	if _, err := db.Collection("users").UpdateOne(ctx, bson.M{"_id": a.ID}, bson.M{"$set": bson.M{"national_id": "10000000146"}}); err != nil {
		t.Fatalf("set national id: %v", err)
	}

	taken, err := store.NationalIDTaken(ctx, "10000000146", b.ID)
	if err != nil || !taken {
		t.Errorf("NationalIDTaken for other user = %v, %v; want true", taken, err)
	}
	taken, err = store.NationalIDTaken(ctx, "10000000146", a.ID)
	if err != nil || taken {
		t.Errorf("NationalIDTaken excluding owner = %v, %v; want false", taken, err)
	}

	_, err = db.Collection("users").UpdateOne(ctx, bson.M{"_id": b.ID}, bson.M{"$set": bson.M{"national_id": "10000000146"}})
	if !errors.Is(userstore.MapDupErr(err), userstore.ErrDuplicateNationalID) {
		t.Errorf("duplicate national id: got %v", err)
	}
}

func TestStore_GetByID_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := store.GetByID(ctx, primitive.NewObjectID())
	if !errors.Is(err, mongo.ErrNoDocuments) {
		t.Errorf("got %v, want mongo.ErrNoDocuments", err)
	}
}

func TestStore_NamesByIDs(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a := fx.CreateAdmin(ctx, "Zeynep", "Arslan", "zeynep@example.com")
	missing := primitive.NewObjectID()

	names, err := store.NamesByIDs(ctx, []primitive.ObjectID{a.ID, missing})
	if err != nil {
		t.Fatalf("NamesByIDs: %v", err)
	}
	if names[a.ID] != "Zeynep Arslan" {
		t.Errorf("name = %q", names[a.ID])
	}
	if _, ok := names[missing]; ok {
		t.Error("unknown id should be absent")
	}
}

func TestFetcher_SkipsDeactivated(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	branch := fx.CreateBranch(ctx, "Ankara 1")
	bm := fx.CreateBranchManager(ctx, "Mehmet", "Öz", "bm@example.com", branch.ID)
	f := userstore.NewFetcher(db)

	su := f.FetchUser(ctx, bm.ID.Hex())
	if su == nil || su.Role != "branch_manager" || su.BranchID != branch.ID.Hex() {
		t.Fatalf("FetchUser = %+v", su)
	}

	if _, err := db.Collection("users").UpdateOne(ctx, bson.M{"_id": bm.ID}, bson.M{"$set": bson.M{"is_active": false}}); err != nil {
		t.Fatal(err)
	}
	if su := f.FetchUser(ctx, bm.ID.Hex()); su != nil {
		t.Errorf("deactivated user fetched: %+v", su)
	}
}
