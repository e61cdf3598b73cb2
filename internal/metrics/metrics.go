// Package metrics defines the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Pronunciation outcomes
const (
	OutcomeCorrect      = "correct"
	OutcomeIncorrect    = "incorrect"
	OutcomeUnrecognized = "unrecognized"
)

// Metrics groups the application collectors
type Metrics struct {
	SessionsStarted     prometheus.Counter
	SessionsCompleted   prometheus.Counter
	PointsAwarded       prometheus.Counter
	CompletionConflicts prometheus.Counter
	Evaluations         *prometheus.CounterVec
	RequestDuration     *prometheus.HistogramVec

	gatherer prometheus.Gatherer
}

// New registers the collectors with reg. Pass prometheus.NewRegistry() in
// tests to keep them isolated.
func New(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		SessionsStarted: factory.NewCounter(prometheus.CounterOpts{
			Name: "ella_reading_sessions_started_total",
			Help: "Total number of reading sessions started.",
		}),
		SessionsCompleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "ella_reading_sessions_completed_total",
			Help: "Total number of reading sessions completed.",
		}),
		PointsAwarded: factory.NewCounter(prometheus.CounterOpts{
			Name: "ella_reading_points_awarded_total",
			Help: "Total points awarded by session completions.",
		}),
		CompletionConflicts: factory.NewCounter(prometheus.CounterOpts{
			Name: "ella_reading_completion_conflicts_total",
			Help: "Completions retried because the session changed concurrently.",
		}),
		Evaluations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ella_pronunciation_evaluations_total",
				Help: "Total pronunciation evaluations by outcome.",
			},
			[]string{"outcome"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ella_http_request_duration_seconds",
				Help:    "HTTP request latency by method, route and status.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route", "status"},
		),
		gatherer: reg,
	}
}

// NewNop returns collectors registered on a private registry
func NewNop() *Metrics {
	return New(prometheus.NewRegistry())
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
