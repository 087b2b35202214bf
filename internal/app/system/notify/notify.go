// Package notify announces membership approvals to downstream consumers
// (email and push senders). Delivery is best effort: a failed or slow
// publish never affects the approval that triggered it.
package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dalemusser/unionhub/internal/domain/models"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// EventApproved is the event type published for approvals.
const EventApproved = "membership.approved"

// Event is the message published for an approval.
type Event struct {
	ID          string        `json:"id"`
	Type        string        `json:"type"`
	UserID      string        `json:"userId"`
	Email       string        `json:"email"`
	FullName    string        `json:"fullName"`
	BranchID    string        `json:"branchId,omitempty"`
	Action      models.Action `json:"action"`
	PerformedBy string        `json:"performedBy"`
	LogID       string        `json:"logId"`
	OccurredAt  time.Time     `json:"occurredAt"`
}

// NewApprovedEvent builds the event for a committed approval entry.
func NewApprovedEvent(u models.User, entry models.RegistrationLog) Event {
	ev := Event{
		ID:          uuid.NewString(),
		Type:        EventApproved,
		UserID:      u.ID.Hex(),
		Email:       u.Email,
		FullName:    u.FullName(),
		Action:      entry.Action,
		PerformedBy: entry.PerformedBy.Hex(),
		LogID:       entry.ID.Hex(),
		OccurredAt:  entry.Timestamp,
	}
	if u.BranchID != nil {
		ev.BranchID = u.BranchID.Hex()
	}
	return ev
}

// Publisher delivers one event.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

// KafkaPublisher writes events as JSON to a Kafka topic keyed by user id.
type KafkaPublisher struct {
	writer *kafka.Writer
}

// NewKafkaPublisher creates a publisher for topic on brokers.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	w := kafka.NewWriter(kafka.WriterConfig{
		Brokers:  brokers,
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
	})
	return &KafkaPublisher{writer: w}
}

func (p *KafkaPublisher) Publish(ctx context.Context, ev Event) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(ev.UserID),
		Value: b,
		Time:  ev.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(ev.Type)},
			{Key: "event-id", Value: []byte(ev.ID)},
		},
	})
}

func (p *KafkaPublisher) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}

// LogPublisher only logs events. It is used when no brokers are configured.
type LogPublisher struct {
	Log *zap.Logger
}

func (p LogPublisher) Publish(_ context.Context, ev Event) error {
	p.Log.Info("approval notification",
		zap.String("event_id", ev.ID),
		zap.String("user_id", ev.UserID),
		zap.String("action", string(ev.Action)),
	)
	return nil
}

func (LogPublisher) Close() error { return nil }
