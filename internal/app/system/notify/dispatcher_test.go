package notify_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dalemusser/unionhub/internal/app/system/notify"
	"github.com/dalemusser/unionhub/internal/domain/models"
	"github.com/sony/gobreaker"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type fakePublisher struct {
	mu     sync.Mutex
	events []notify.Event
	err    error
	closed bool
}

func (f *fakePublisher) Publish(_ context.Context, ev notify.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, ev)
	return nil
}

func (f *fakePublisher) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func approved() (models.User, models.RegistrationLog) {
	branch := primitive.NewObjectID()
	u := models.User{ID: primitive.NewObjectID(), Email: "a@example.com", FirstName: "Ayşe", LastName: "Yılmaz", BranchID: &branch}
	e := models.RegistrationLog{ID: primitive.NewObjectID(), UserID: u.ID, Action: models.ActionBranchManagerApproval, PerformedBy: primitive.NewObjectID(), Timestamp: time.Now()}
	return u, e
}

func TestDispatcher_Publishes(t *testing.T) {
	pub := &fakePublisher{}
	d := notify.NewDispatcher(pub, time.Second, zap.NewNop())
	u, e := approved()

	ctx, cancel := context.WithCancel(context.Background())
	d.Approved(ctx, u, e)
	cancel() // request finished; the send must still go out

	if err := d.Close(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(pub.events) != 1 {
		t.Fatalf("published %d events, want 1", len(pub.events))
	}
	ev := pub.events[0]
	if ev.Type != notify.EventApproved || ev.UserID != u.ID.Hex() || ev.FullName != "Ayşe Yılmaz" || ev.ID == "" {
		t.Errorf("event = %+v", ev)
	}
	if ev.BranchID != u.BranchID.Hex() || ev.LogID != e.ID.Hex() {
		t.Errorf("event ids = %+v", ev)
	}
	if !pub.closed {
		t.Error("publisher not closed")
	}
}

func TestDispatcher_FailuresAreLoggedAndTripBreaker(t *testing.T) {
	pub := &fakePublisher{err: errors.New("broker down")}
	core, logs := observer.New(zap.WarnLevel)
	d := notify.NewDispatcher(pub, time.Second, zap.New(core))
	u, e := approved()

	for i := 0; i < 6; i++ {
		d.Approved(context.Background(), u, e)
	}
	_ = d.Close(context.Background())

	if logs.FilterMessage("approval notification failed").Len() != 6 {
		t.Errorf("failure log lines = %d", logs.FilterMessage("approval notification failed").Len())
	}
	if d.State() != gobreaker.StateOpen {
		t.Errorf("breaker = %s, want open", d.State())
	}
}

func TestLogPublisher(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	p := notify.LogPublisher{Log: zap.New(core)}
	u, e := approved()
	if err := p.Publish(context.Background(), notify.NewApprovedEvent(u, e)); err != nil {
		t.Fatal(err)
	}
	if logs.Len() != 1 {
		t.Errorf("log entries = %d", logs.Len())
	}
}
