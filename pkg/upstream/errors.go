package upstream

import (
	"errors"
	"fmt"
	"time"
)

// Error kinds reported in logs, metrics and journal entries.
const (
	KindTransport = "transport"
	KindTimeout   = "timeout"
	KindDecode    = "decode"
	KindUnknown   = "unknown"
)

// TransportError represents a failure to complete the HTTP exchange: DNS,
// connect, TLS, connection reset, or the caller cancelling the request.
type TransportError struct {
	// URL is the upstream endpoint
	URL string

	// Cause is the underlying error
	Cause error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("upstream %s transport error: %v", e.URL, e.Cause)
}

// Unwrap returns the underlying error for error chain support.
func (e *TransportError) Unwrap() error {
	return e.Cause
}

// TimeoutError represents an exchange that exceeded the configured timeout.
type TimeoutError struct {
	// URL is the upstream endpoint
	URL string

	// Timeout is the configured timeout duration
	Timeout time.Duration

	// Cause is the underlying error
	Cause error
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("upstream %s request timeout after %s", e.URL, e.Timeout)
}

// Unwrap returns the underlying error for error chain support.
func (e *TimeoutError) Unwrap() error {
	return e.Cause
}

// DecodeError represents a response whose body is not a JSON document.
type DecodeError struct {
	// StatusCode is the upstream HTTP status
	StatusCode int

	// Size is the number of body bytes received
	Size int

	// Cause is the underlying parse error
	Cause error
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("upstream response is not valid JSON (status %d, %d bytes): %v", e.StatusCode, e.Size, e.Cause)
}

// Unwrap returns the underlying error for error chain support.
func (e *DecodeError) Unwrap() error {
	return e.Cause
}

// Kind classifies err as one of the Kind* constants.
func Kind(err error) string {
	var timeoutErr *TimeoutError
	var transportErr *TransportError
	var decodeErr *DecodeError

	switch {
	case errors.As(err, &timeoutErr):
		return KindTimeout
	case errors.As(err, &transportErr):
		return KindTransport
	case errors.As(err, &decodeErr):
		return KindDecode
	default:
		return KindUnknown
	}
}
