// Package metrics holds the Prometheus collectors for the membership
// workflow.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	Transitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "unionhub",
		Name:      "membership_transitions_total",
		Help:      "Committed membership mutations by log action",
	}, []string{"action"})

	Denials = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "unionhub",
		Name:      "membership_denials_total",
		Help:      "Policy denials by operation and reason",
	}, []string{"operation", "reason"})

	Conflicts = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "unionhub",
		Name:      "membership_conflicts_total",
		Help:      "Writes that lost a concurrent update race",
	})

	Notifications = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "unionhub",
		Name:      "notifications_total",
		Help:      "Approval notifications by result",
	}, []string{"result"})

	RateLimited = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "unionhub",
		Name:      "rate_limited_total",
		Help:      "Requests rejected by the rate limiter by route group",
	}, []string{"group"})
)

var once sync.Once

// Register adds the collectors to reg. Later calls are no-ops.
func Register(reg prometheus.Registerer) {
	once.Do(func() {
		reg.MustRegister(Transitions, Denials, Conflicts, Notifications, RateLimited)
	})
}
