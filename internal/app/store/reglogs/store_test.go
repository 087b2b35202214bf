package reglogs_test

import (
	"errors"
	"testing"
	"time"

	"github.com/dalemusser/unionhub/internal/app/store/reglogs"
	"github.com/dalemusser/unionhub/internal/domain/models"
	"github.com/dalemusser/unionhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestStore_AppendAndList_Ordered(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := reglogs.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := store.EnsureIndexes(ctx); err != nil {
		t.Fatalf("EnsureIndexes: %v", err)
	}

	user := primitive.NewObjectID()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	actions := []models.Action{
		models.ActionRegisterBasic,
		models.ActionRegisterDetails,
		models.ActionBranchManagerApproval,
	}
	// Insert out of order; listing must sort by timestamp.
	for _, i := range []int{2, 0, 1} {
		_, err := store.Append(ctx, models.RegistrationLog{
			UserID:    user,
			Action:    actions[i],
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	// Another member's entry must not leak in.
	if _, err := store.Append(ctx, models.RegistrationLog{UserID: primitive.NewObjectID(), Action: models.ActionRegisterBasic}); err != nil {
		t.Fatal(err)
	}

	got, err := store.ListByUser(ctx, user, nil)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d entries, want 3", len(got))
	}
	for i, e := range got {
		if e.Action != actions[i] {
			t.Errorf("entry %d = %s, want %s", i, e.Action, actions[i])
		}
	}

	rest, err := store.ListByUser(ctx, user, &got[0].ID)
	if err != nil {
		t.Fatalf("ListByUser after: %v", err)
	}
	if len(rest) != 2 || rest[0].ID != got[1].ID {
		t.Errorf("resume after first entry returned %d entries", len(rest))
	}
}

func TestStore_List_SameTimestampTieBreak(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := reglogs.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	user := primitive.NewObjectID()
	ts := time.Now().UTC().Truncate(time.Millisecond)
	var ids []primitive.ObjectID
	for i := 0; i < 3; i++ {
		e, err := store.Append(ctx, models.RegistrationLog{UserID: user, Action: models.ActionUserUpdate, Timestamp: ts})
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, e.ID)
	}

	got, err := store.ListByUser(ctx, user, &ids[0])
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].ID != ids[1] || got[1].ID != ids[2] {
		t.Errorf("tie-break order wrong: %v", got)
	}
}

func TestStore_List_UnknownCursor(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := reglogs.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	missing := primitive.NewObjectID()
	_, err := store.ListByUser(ctx, primitive.NewObjectID(), &missing)
	if !errors.Is(err, mongo.ErrNoDocuments) {
		t.Errorf("got %v, want mongo.ErrNoDocuments", err)
	}
}

func TestStore_List_EmptyIsNotNil(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := reglogs.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	got, err := store.ListByUser(ctx, primitive.NewObjectID(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("got %v, want empty slice", got)
	}
}
