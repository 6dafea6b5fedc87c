// Package metrics provides Prometheus metrics for the HTTP surface, the
// selection operations and the supporting collaborators.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "smaki"

// Operation results.
const (
	ResultChanged = "changed"
	ResultNoop    = "noop"
	ResultError   = "error"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by method, route and status code",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "Number of HTTP requests currently being processed",
		},
	)

	// Selection operations: toggle, set_hit, move, reorder, copy_previous, clear.
	SelectionOpsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "selection",
			Name:      "operations_total",
			Help:      "Selection operations by operation and result (changed, noop, error)",
		},
		[]string{"operation", "result"},
	)

	SelectionOpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "selection",
			Name:      "operation_duration_seconds",
			Help:      "Selection operation duration in seconds, transaction included",
			Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25},
		},
		[]string{"operation"},
	)

	PublicViewsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "public",
			Name:      "views_total",
			Help:      "Resolved public views by source (today, yesterday, catalog)",
		},
		[]string{"source"},
	)

	SSEClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "sse",
			Name:      "clients",
			Help:      "Number of connected SSE clients",
		},
	)

	PhotosProcessedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "photos",
			Name:      "processed_total",
			Help:      "Uploaded photos by outcome (processed, passthrough)",
		},
		[]string{"outcome"},
	)

	LoginAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "login_attempts_total",
			Help:      "Staff login attempts by result (success, failure, rate_limited)",
		},
		[]string{"result"},
	)
)

// ObserveSelectionOp records one selection operation.
func ObserveSelectionOp(operation string, changed bool, err error, elapsed time.Duration) {
	result := ResultNoop
	switch {
	case err != nil:
		result = ResultError
	case changed:
		result = ResultChanged
	}
	SelectionOpsTotal.WithLabelValues(operation, result).Inc()
	SelectionOpDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// Timer is a helper for measuring operation duration
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer starting now
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Elapsed returns the time since the timer started.
func (t *Timer) Elapsed() time.Duration {
	return time.Since(t.start)
}

// ObserveDuration records the elapsed time since the timer was created
func (t *Timer) ObserveDuration(observer prometheus.Observer) {
	observer.Observe(t.Elapsed().Seconds())
}
