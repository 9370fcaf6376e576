package tracing

import (
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// createSampler returns a parent-based sampler. Root spans are sampled by
// trace ID ratio so the decision is stable for a given trace; child spans
// follow the sampled flag of an inbound traceparent.
//
//	telemetry:
//	  tracing:
//	    sample_ratio: 0.1  # sample 10% of new traces
func createSampler(ratio float64) sdktrace.Sampler {
	var root sdktrace.Sampler
	switch {
	case ratio >= 1.0:
		root = sdktrace.AlwaysSample()
	case ratio <= 0:
		root = sdktrace.NeverSample()
	default:
		root = sdktrace.TraceIDRatioBased(ratio)
	}
	return sdktrace.ParentBased(root)
}
