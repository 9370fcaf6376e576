package metrics

import (
	"strconv"
	"time"

	"gaia-relay/llamagate/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// UpstreamMetrics tracks the remote chat-completion service.
//
// Metrics:
//   - llamagate_relay_upstream_health: 1=healthy, 0=unhealthy
//   - llamagate_relay_upstream_latency_seconds: round-trip latency
//   - llamagate_relay_upstream_responses_total: responses by status code
//   - llamagate_relay_upstream_errors_total: failures by kind
type UpstreamMetrics struct {
	health    prometheus.Gauge
	latency   prometheus.Histogram
	responses *prometheus.CounterVec
	errors    *prometheus.CounterVec
}

// NewUpstreamMetrics creates and registers upstream metrics with the provided registry.
func NewUpstreamMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *UpstreamMetrics {
	um := &UpstreamMetrics{
		health: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "upstream_health",
				Help:      "Upstream health status (1=healthy, 0=unhealthy)",
			},
		),

		latency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "upstream_latency_seconds",
				Help:      "Upstream round-trip latency in seconds",
				Buckets:   cfg.RequestDurationBuckets,
			},
		),

		responses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "upstream_responses_total",
				Help:      "Total number of upstream responses by HTTP status code",
			},
			[]string{"code"},
		),

		errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "upstream_errors_total",
				Help:      "Total number of upstream failures by kind",
			},
			[]string{"error_type"},
		),
	}

	registry.MustRegister(
		um.health,
		um.latency,
		um.responses,
		um.errors,
	)

	// Healthy until proven otherwise.
	um.health.Set(1)

	return um
}

// RecordResponse counts a response and observes its latency.
func (um *UpstreamMetrics) RecordResponse(statusCode int, latency time.Duration) {
	um.responses.WithLabelValues(strconv.Itoa(statusCode)).Inc()
	um.latency.Observe(latency.Seconds())
}

// RecordError counts an upstream failure.
func (um *UpstreamMetrics) RecordError(errorType string) {
	um.errors.WithLabelValues(errorType).Inc()
}

// UpdateHealth sets the health gauge.
func (um *UpstreamMetrics) UpdateHealth(healthy bool) {
	if healthy {
		um.health.Set(1)
	} else {
		um.health.Set(0)
	}
}
