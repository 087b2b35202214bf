package notify

import (
	"context"
	"sync"
	"time"

	"github.com/dalemusser/unionhub/internal/app/system/metrics"
	"github.com/dalemusser/unionhub/internal/domain/models"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// Dispatcher sends approval events in the background through a circuit
// breaker.
type Dispatcher struct {
	pub     Publisher
	cb      *gobreaker.CircuitBreaker
	timeout time.Duration
	log     *zap.Logger
	wg      sync.WaitGroup
}

// NewDispatcher wraps pub. timeout bounds each publish.
func NewDispatcher(pub Publisher, timeout time.Duration, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	st := gobreaker.Settings{
		Name:        "notify",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	}
	return &Dispatcher{
		pub:     pub,
		cb:      gobreaker.NewCircuitBreaker(st),
		timeout: timeout,
		log:     logger,
	}
}

// Approved publishes the approval asynchronously. It never blocks on the
// broker and never reports failure to the caller.
func (d *Dispatcher) Approved(ctx context.Context, u models.User, entry models.RegistrationLog) {
	ev := NewApprovedEvent(u, entry)
	// The request context ends when the response is written.
	base := context.WithoutCancel(ctx)

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.send(base, ev)
	}()
}

func (d *Dispatcher) send(ctx context.Context, ev Event) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	_, err := d.cb.Execute(func() (interface{}, error) {
		return nil, d.pub.Publish(ctx, ev)
	})
	if err != nil {
		metrics.Notifications.WithLabelValues("failed").Inc()
		d.log.Warn("approval notification failed",
			zap.String("event_id", ev.ID),
			zap.String("user_id", ev.UserID),
			zap.Error(err),
		)
		return
	}
	metrics.Notifications.WithLabelValues("sent").Inc()
}

// State reports the breaker state.
func (d *Dispatcher) State() gobreaker.State {
	return d.cb.State()
}

// Close waits for in-flight sends, up to ctx's deadline, then closes the
// publisher.
func (d *Dispatcher) Close(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		d.log.Warn("notification dispatcher closed with sends in flight")
	}
	return d.pub.Close()
}
