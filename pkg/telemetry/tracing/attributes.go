package tracing

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys set on forward spans. Message content is never recorded.
const (
	AttrRequestID      = "llamagate.request_id"
	AttrMessageCount   = "llamagate.message_count"
	AttrTemperature    = "llamagate.temperature"
	AttrMaxTokens      = "llamagate.max_tokens"
	AttrUpstreamURL    = "llamagate.upstream.url"
	AttrUpstreamStatus = "llamagate.upstream.status_code"
	AttrResponseBytes  = "llamagate.response_bytes"
	AttrErrorType      = "llamagate.error.type"
)

// SetForwardAttributes records what is being sent upstream.
func SetForwardAttributes(span trace.Span, requestID string, messageCount int, temperature float64, maxTokens int, upstreamURL string) {
	span.SetAttributes(
		attribute.String(AttrRequestID, requestID),
		attribute.Int(AttrMessageCount, messageCount),
		attribute.Float64(AttrTemperature, temperature),
		attribute.Int(AttrMaxTokens, maxTokens),
		attribute.String(AttrUpstreamURL, upstreamURL),
	)
}

// SetUpstreamResponse records the upstream status and body size.
func SetUpstreamResponse(span trace.Span, statusCode, responseBytes int) {
	span.SetAttributes(
		attribute.Int(AttrUpstreamStatus, statusCode),
		attribute.Int(AttrResponseBytes, responseBytes),
	)
}

// SetErrorType tags the span with a failure kind such as "transport".
func SetErrorType(span trace.Span, errorType string) {
	span.SetAttributes(attribute.String(AttrErrorType, errorType))
}
