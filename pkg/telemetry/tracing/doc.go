// Package tracing emits one OpenTelemetry span per forwarded request.
//
// When telemetry.tracing.enabled is true, spans are batched to an OTLP gRPC
// collector:
//
//	telemetry:
//	  tracing:
//	    enabled: true
//	    endpoint: "localhost:4317"
//	    insecure: true
//	    sample_ratio: 1.0
//
// Otherwise every span is a no-op and costs next to nothing. Inbound W3C
// traceparent headers are honored, so a caller's trace continues through
// the relay.
package tracing
