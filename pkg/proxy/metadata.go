package proxy

import (
	"net/http"
	"time"

	"gaia-relay/llamagate/pkg/proxy/types"
)

// RequestMetadata describes an inbound request without its content.
// It is used for logging, tracing and the exchange journal.
type RequestMetadata struct {
	// RequestID is a unique identifier for the request.
	RequestID string

	// MessageCount is the number of messages in the request.
	MessageCount int

	// RequestBytes is the size of the inbound body.
	RequestBytes int

	// Method is the HTTP method.
	Method string

	// Path is the HTTP request path.
	Path string

	// UserAgent is the client's user agent string.
	UserAgent string

	// RemoteAddr is the client's address.
	RemoteAddr string

	// Timestamp is when the request was received.
	Timestamp time.Time
}

// ResponseMetadata describes the outcome of a forwarded request.
type ResponseMetadata struct {
	// StatusCode is the HTTP status returned to the client.
	StatusCode int

	// UpstreamStatus is the status returned by the upstream, or 0 if no
	// response was received.
	UpstreamStatus int

	// ResponseBytes is the size of the body returned to the client.
	ResponseBytes int

	// ErrorKind classifies a failure; empty on success.
	ErrorKind string

	// Latency is the time spent waiting for the upstream.
	Latency time.Duration

	// Duration is the total handling time.
	Duration time.Duration
}

// ExtractRequestMetadata collects metadata from an HTTP request and its parsed body.
// req may be nil when parsing failed.
func ExtractRequestMetadata(r *http.Request, requestID string, req *types.ChatRequest, requestBytes int, received time.Time) *RequestMetadata {
	meta := &RequestMetadata{
		RequestID:    requestID,
		RequestBytes: requestBytes,
		Method:       r.Method,
		Path:         r.URL.Path,
		UserAgent:    r.UserAgent(),
		RemoteAddr:   r.RemoteAddr,
		Timestamp:    received,
	}
	if req != nil {
		meta.MessageCount = len(req.Messages)
	}
	return meta
}
