package journal

import (
	"context"
	"time"
)

// Outcome values stored with each entry. They match the request outcome
// label used by the metrics collector.
const (
	OutcomeOK            = "ok"
	OutcomeUpstreamError = "upstream_error"
	OutcomeDecodeError   = "decode_error"
)

// Entry is the journal record of one forwarded exchange. It holds metadata
// only: message content and response bodies are never stored.
type Entry struct {
	ID        string `json:"id"`         // UUID v4
	RequestID string `json:"request_id"` // From the X-Request-ID middleware

	ReceivedAt time.Time `json:"received_at"` // When the request arrived
	RecordedAt time.Time `json:"recorded_at"` // When the entry was written

	Method       string `json:"method"`
	Path         string `json:"path"`
	RemoteAddr   string `json:"remote_addr"`
	UserAgent    string `json:"user_agent"`
	MessageCount int    `json:"message_count"`
	RequestBytes int    `json:"request_bytes"`

	UpstreamURL string  `json:"upstream_url"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`

	StatusCode     int    `json:"status_code"`     // Status returned to the client
	UpstreamStatus int    `json:"upstream_status"` // 0 when no response was received
	ResponseBytes  int    `json:"response_bytes"`
	Outcome        string `json:"outcome"`
	ErrorKind      string `json:"error_kind,omitempty"` // transport, timeout, decode
	Error          string `json:"error,omitempty"`

	UpstreamLatency time.Duration `json:"upstream_latency"`
	Duration        time.Duration `json:"duration"`
}

// Query filters entries. Zero values mean no filter.
type Query struct {
	Since   *time.Time // Inclusive lower bound on ReceivedAt
	Until   *time.Time // Exclusive upper bound on ReceivedAt
	Outcome string
	Limit   int // Max entries to return, newest first; 0 uses DefaultQueryLimit
}

// DefaultQueryLimit caps Query results when no limit is given.
const DefaultQueryLimit = 100

// Storage persists journal entries.
type Storage interface {
	// Store persists a single entry.
	Store(ctx context.Context, entry *Entry) error

	// Query returns entries matching q, newest first.
	Query(ctx context.Context, q *Query) ([]*Entry, error)

	// Count returns the number of entries matching q. Limit is ignored.
	Count(ctx context.Context, q *Query) (int64, error)

	// DeleteBefore removes entries received before cutoff.
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// Trim removes the oldest entries so that at most keep remain.
	Trim(ctx context.Context, keep int64) (int64, error)

	// Close releases the backend.
	Close() error
}
