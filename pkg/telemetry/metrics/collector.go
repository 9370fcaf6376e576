package metrics

import (
	"time"

	"gaia-relay/llamagate/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Request outcomes used as the "outcome" label.
const (
	OutcomeOK            = "ok"
	OutcomeBadRequest    = "bad_request"
	OutcomeUpstreamError = "upstream_error"
	OutcomeDecodeError   = "decode_error"
)

// Collector owns every Prometheus metric exported by llamagate.
//
// All methods are safe on a nil *Collector and do nothing, so components can
// take an optional collector without guarding each call.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	requestMetrics  *RequestMetrics
	upstreamMetrics *UpstreamMetrics
	journalMetrics  *JournalMetrics
}

// NewCollector creates a new metrics collector with the specified configuration
// and Prometheus registry. If registry is nil, a fresh registry is created and
// the Go runtime and process collectors are registered on it.
//
// Example:
//
//	cfg := &config.MetricsConfig{
//		Enabled:    true,
//		Namespace:  "llamagate",
//		Subsystem:  "relay",
//	}
//	collector := metrics.NewCollector(cfg, nil)
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}
	if cfg.Subsystem == "" {
		cfg.Subsystem = config.DefaultMetricsSubsystem
	}
	if len(cfg.RequestDurationBuckets) == 0 {
		cfg.RequestDurationBuckets = append([]float64(nil), config.DefaultRequestDurationBuckets...)
	}

	return &Collector{
		config:          cfg,
		registry:        registry,
		requestMetrics:  NewRequestMetrics(cfg, registry),
		upstreamMetrics: NewUpstreamMetrics(cfg, registry),
		journalMetrics:  NewJournalMetrics(cfg, registry),
	}
}

func (c *Collector) enabled() bool {
	return c != nil && c.config.Enabled
}

// RecordRequest records a completed inbound request.
//
// Parameters:
//   - outcome: one of the Outcome* constants
//   - duration: time from the handler being entered to the response being written
//   - requestBytes, responseBytes: body sizes; zero sizes are not observed
func (c *Collector) RecordRequest(outcome string, duration time.Duration, requestBytes, responseBytes int) {
	if !c.enabled() {
		return
	}
	c.requestMetrics.RecordRequest(outcome, duration)
	c.requestMetrics.RecordSize("request", requestBytes)
	c.requestMetrics.RecordSize("response", responseBytes)
}

// IncInFlight marks an inbound request as started.
func (c *Collector) IncInFlight() {
	if !c.enabled() {
		return
	}
	c.requestMetrics.inFlight.Inc()
}

// DecInFlight marks an inbound request as finished.
func (c *Collector) DecInFlight() {
	if !c.enabled() {
		return
	}
	c.requestMetrics.inFlight.Dec()
}

// RecordUpstreamResponse records an upstream exchange that produced an HTTP
// response, whatever its status.
func (c *Collector) RecordUpstreamResponse(statusCode int, latency time.Duration) {
	if !c.enabled() {
		return
	}
	c.upstreamMetrics.RecordResponse(statusCode, latency)
}

// RecordUpstreamError records an upstream failure by kind
// (e.g. "transport", "timeout", "decode").
func (c *Collector) RecordUpstreamError(errorType string) {
	if !c.enabled() {
		return
	}
	c.upstreamMetrics.RecordError(errorType)
}

// UpdateUpstreamHealth updates the upstream health gauge (1=healthy, 0=unhealthy).
func (c *Collector) UpdateUpstreamHealth(healthy bool) {
	if !c.enabled() {
		return
	}
	c.upstreamMetrics.UpdateHealth(healthy)
}

// RecordJournalWrite records the fate of a journal entry
// ("written", "dropped", "failed").
func (c *Collector) RecordJournalWrite(result string) {
	if !c.enabled() {
		return
	}
	c.journalMetrics.RecordWrite(result)
}

// RecordJournalPruned records entries removed by retention.
func (c *Collector) RecordJournalPruned(count int64) {
	if !c.enabled() {
		return
	}
	c.journalMetrics.RecordPruned(count)
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}
