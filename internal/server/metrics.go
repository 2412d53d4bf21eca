package server

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	SwipesRecorded  *prometheus.CounterVec
	MatchesCreated  prometheus.Counter
	MessagesSent    prometheus.Counter
	BadRequests     *prometheus.CounterVec
}

var (
	metricsOnce sync.Once
	metrics     *Metrics
)

// InitMetrics registers the service counters exactly once; repeated
// calls (router rebuilds in tests) return the same instance.
func InitMetrics() *Metrics {
	metricsOnce.Do(func() {
		m := &Metrics{
			RequestsTotal: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "ping_requests_total",
					Help: "Total number of HTTP requests by path, method and status",
				},
				[]string{"path", "method", "status"},
			),
			SwipesRecorded: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "ping_swipes_total",
					Help: "Total number of recorded swipes by direction",
				},
				[]string{"direction"},
			),
			MatchesCreated: prometheus.NewCounter(
				prometheus.CounterOpts{
					Name: "ping_matches_created_total",
					Help: "Total number of matches created",
				},
			),
			MessagesSent: prometheus.NewCounter(
				prometheus.CounterOpts{
					Name: "ping_messages_sent_total",
					Help: "Total number of chat messages sent",
				},
			),
			BadRequests: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "ping_bad_requests_total",
					Help: "Total number of 4xx HTTP responses by path",
				},
				[]string{"path"},
			),
		}

		prometheus.MustRegister(m.RequestsTotal)
		prometheus.MustRegister(m.SwipesRecorded)
		prometheus.MustRegister(m.MatchesCreated)
		prometheus.MustRegister(m.MessagesSent)
		prometheus.MustRegister(m.BadRequests)

		metrics = m
	})
	return metrics
}
