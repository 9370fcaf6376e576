package metrics

import (
	"time"

	"gaia-relay/llamagate/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// RequestMetrics tracks inbound chat-completion requests.
//
// Metrics:
//   - llamagate_relay_requests_total: request count by outcome
//   - llamagate_relay_request_duration_seconds: end-to-end duration by outcome
//   - llamagate_relay_request_size_bytes: request/response body size
//   - llamagate_relay_requests_in_flight: requests currently being forwarded
type RequestMetrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	sizeBytes       *prometheus.HistogramVec
	inFlight        prometheus.Gauge
}

// NewRequestMetrics creates and registers request metrics with the provided registry.
func NewRequestMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *RequestMetrics {
	rm := &RequestMetrics{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "requests_total",
				Help:      "Total number of chat-completion requests handled",
			},
			[]string{"outcome"},
		),

		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "request_duration_seconds",
				Help:      "Duration of chat-completion requests in seconds",
				Buckets:   cfg.RequestDurationBuckets,
			},
			[]string{"outcome"},
		),

		sizeBytes: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "request_size_bytes",
				Help:      "Size of request/response bodies in bytes",
				Buckets:   prometheus.ExponentialBuckets(256, 4, 8), // 256B to 4MB
			},
			[]string{"direction"},
		),

		inFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "requests_in_flight",
				Help:      "Number of requests currently being forwarded",
			},
		),
	}

	registry.MustRegister(
		rm.requestsTotal,
		rm.requestDuration,
		rm.sizeBytes,
		rm.inFlight,
	)

	return rm
}

// RecordRequest increments the request counter and observes the duration.
func (rm *RequestMetrics) RecordRequest(outcome string, duration time.Duration) {
	rm.requestsTotal.WithLabelValues(outcome).Inc()
	rm.requestDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

// RecordSize records the size of a request or response body.
// direction is "request" or "response".
func (rm *RequestMetrics) RecordSize(direction string, sizeBytes int) {
	if sizeBytes > 0 {
		rm.sizeBytes.WithLabelValues(direction).Observe(float64(sizeBytes))
	}
}
