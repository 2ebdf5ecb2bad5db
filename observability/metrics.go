package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects settlement counters and timings. All methods are safe for
// concurrent use.
type Metrics struct {
	registry *prometheus.Registry

	settlements          *prometheus.CounterVec
	fallbacks            prometheus.Counter
	notificationFailures prometheus.Counter
	settleDuration       *prometheus.HistogramVec
	queueDepth           prometheus.Gauge
}

// NewMetrics creates a metrics collector backed by its own registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		settlements: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "settlement_requests_total",
			Help: "Settled transfer requests by kind, path, and terminal status.",
		}, []string{"kind", "path", "status"}),
		fallbacks: factory.NewCounter(prometheus.CounterOpts{
			Name: "settlement_fallbacks_total",
			Help: "Settlements that fell back from the fast channel to on-chain.",
		}),
		notificationFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "notification_failures_total",
			Help: "Outcome notifications that could not be delivered.",
		}),
		settleDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "settlement_duration_seconds",
			Help:    "Wall time from intake to terminal status, by kind.",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 12),
		}, []string{"kind"}),
		queueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Name: "settlement_queue_depth",
			Help: "Transfer requests waiting on the work queue.",
		}),
	}
}

// ObserveSettlement records a terminal settlement outcome.
func (m *Metrics) ObserveSettlement(kind, path, status string, elapsed time.Duration) {
	m.settlements.WithLabelValues(kind, path, status).Inc()
	m.settleDuration.WithLabelValues(kind).Observe(elapsed.Seconds())
}

// ObserveFallback records a fast-channel to on-chain fallback.
func (m *Metrics) ObserveFallback() {
	m.fallbacks.Inc()
}

// ObserveNotificationFailure records a failed outcome notification.
func (m *Metrics) ObserveNotificationFailure() {
	m.notificationFailures.Inc()
}

// SetQueueDepth records the current work queue depth.
func (m *Metrics) SetQueueDepth(depth int) {
	m.queueDepth.Set(float64(depth))
}

// Handler returns the HTTP handler exposing the collected metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
