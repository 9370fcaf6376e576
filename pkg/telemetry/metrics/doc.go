// Package metrics provides Prometheus metrics for llamagate.
//
// Metrics fall into three groups:
//
//   - Request metrics: count, duration and body size of inbound requests by outcome
//   - Upstream metrics: health, latency, status codes and failure kinds
//   - Journal metrics: entries written, dropped or failed, and entries pruned
//
// # Usage
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	collector.RecordRequest(metrics.OutcomeOK, 1200*time.Millisecond, 310, 1840)
//	collector.RecordUpstreamResponse(200, 1150*time.Millisecond)
//
//	adminMux.Handle("/metrics", collector.Handler())
//
// Metrics are served only on the admin listener, never on the main listener.
//
//	# HELP llamagate_relay_requests_total Total number of chat-completion requests handled
//	# TYPE llamagate_relay_requests_total counter
//	llamagate_relay_requests_total{outcome="ok"} 1234
package metrics
