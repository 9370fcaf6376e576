package config

import "time"

// Config is the root configuration structure for llamagate.
// It contains the listener, upstream, generation, journal and telemetry sections.
type Config struct {
	// Proxy contains HTTP listener configuration including listen address,
	// timeouts, and request limits.
	Proxy ProxyConfig `yaml:"proxy"`

	// Upstream describes the remote chat-completion service requests are
	// forwarded to and the client used to reach it.
	Upstream UpstreamConfig `yaml:"upstream"`

	// Generation holds the sampling parameters injected into every
	// forwarded request. They are never read from the inbound body.
	Generation GenerationConfig `yaml:"generation"`

	// Journal contains configuration for the exchange journal, an optional
	// metadata-only record of every forwarded request.
	Journal JournalConfig `yaml:"journal"`

	// Telemetry contains configuration for logging, metrics, health and tracing.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ProxyConfig contains configuration for the inbound HTTP listener.
type ProxyConfig struct {
	// ListenAddress is the address and port for the listener.
	// Format: "host:port".
	// Default: "127.0.0.1:3000"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading the entire request,
	// including the body.
	// Default: 30s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes of the
	// response. It must exceed the upstream timeout or slow upstream answers
	// are cut off before they can be relayed.
	// Default: 60s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the maximum amount of time to wait for the next request
	// when keep-alives are enabled.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout is the maximum duration to wait for in-flight requests
	// during graceful shutdown.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxHeaderBytes controls the maximum number of bytes the server will
	// read parsing the request header.
	// Default: 1048576 (1MB)
	MaxHeaderBytes int `yaml:"max_header_bytes"`

	// MaxRequestBytes is the largest accepted request body. Larger bodies
	// are rejected with 413 before the forwarder runs.
	// Default: 2097152 (2MB)
	MaxRequestBytes int64 `yaml:"max_request_bytes"`

	// WatchConfig reloads upstream and generation settings when the
	// configuration file changes.
	// Default: false
	WatchConfig bool `yaml:"watch_config"`
}

// UpstreamConfig contains configuration for the remote chat-completion service.
type UpstreamConfig struct {
	// URL is the full chat-completions endpoint requests are POSTed to.
	// Default: "https://llama3b.gaia.domains/v1/chat/completions"
	URL string `yaml:"url"`

	// Timeout bounds a whole upstream exchange, from dial to the last body
	// byte. Expiry is reported to the caller as a 500.
	// Default: 30s
	Timeout time.Duration `yaml:"timeout"`

	// PropagateStatus relays the upstream HTTP status code instead of
	// always answering 200 when the upstream body is valid JSON.
	// Default: false
	PropagateStatus bool `yaml:"propagate_status"`

	// MaxIdleConns is the maximum number of idle connections in the pool.
	// Default: 100
	MaxIdleConns int `yaml:"max_idle_conns"`

	// MaxIdleConnsPerHost is the maximum number of idle connections kept per host.
	// Default: 10
	MaxIdleConnsPerHost int `yaml:"max_idle_conns_per_host"`

	// IdleConnTimeout is how long an idle connection remains in the pool.
	// Default: 90s
	IdleConnTimeout time.Duration `yaml:"idle_conn_timeout"`
}

// GenerationConfig holds the fixed generation controls.
type GenerationConfig struct {
	// Temperature is the sampling temperature sent upstream.
	// Default: 0.7
	Temperature float64 `yaml:"temperature"`

	// MaxTokens is the completion token budget sent upstream.
	// Default: 1000
	MaxTokens int `yaml:"max_tokens"`
}

// JournalConfig contains configuration for the exchange journal.
type JournalConfig struct {
	// Enabled controls whether forwarded exchanges are recorded.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Backend selects the storage backend.
	// Options: "memory", "sqlite"
	// Default: "sqlite"
	Backend string `yaml:"backend"`

	// AsyncBuffer is the size of the async write channel buffer. Entries
	// are dropped, never blocking a request, when the buffer is full.
	// Default: 1000
	AsyncBuffer int `yaml:"async_buffer"`

	// WriteTimeout bounds a single storage write.
	// Default: 5s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// SQLite contains SQLite-specific configuration.
	SQLite SQLiteConfig `yaml:"sqlite"`

	// Retention contains retention policy configuration.
	Retention RetentionConfig `yaml:"retention"`
}

// SQLiteConfig contains SQLite-specific configuration.
type SQLiteConfig struct {
	// Path is the file path for the SQLite database.
	// Default: "data/journal.db"
	Path string `yaml:"path"`

	// Driver selects the database/sql driver.
	// Options: "sqlite" (pure Go), "sqlite3" (cgo)
	// Default: "sqlite"
	Driver string `yaml:"driver"`

	// MaxOpenConns is the maximum number of open database connections.
	// Default: 4
	MaxOpenConns int `yaml:"max_open_conns"`

	// WALMode enables Write-Ahead Logging mode.
	// Default: true
	WALMode bool `yaml:"wal_mode"`

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// RetentionConfig contains journal retention configuration.
type RetentionConfig struct {
	// Days is the number of days to retain journal entries.
	// 0 keeps entries forever.
	// Default: 30
	Days int `yaml:"days"`

	// MaxRecords is the maximum number of entries to keep. 0 means unlimited.
	// Default: 0
	MaxRecords int64 `yaml:"max_records"`

	// PruneSchedule is a cron expression for scheduled pruning.
	// Empty disables scheduled pruning.
	// Default: "0 3 * * *"
	PruneSchedule string `yaml:"prune_schedule"`
}

// TelemetryConfig contains configuration for observability.
type TelemetryConfig struct {
	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// AdminAddress is the listen address of the admin listener that serves
	// metrics and health probes. Empty disables the admin listener.
	// Default: ""
	AdminAddress string `yaml:"admin_address"`

	// Metrics contains metrics collection configuration.
	Metrics MetricsConfig `yaml:"metrics"`

	// Tracing contains distributed tracing configuration.
	Tracing TracingConfig `yaml:"tracing"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text"
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	// Default: false
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig contains Prometheus metrics configuration.
type MetricsConfig struct {
	// Enabled controls whether metrics collection is active.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Path is the HTTP path of the metrics endpoint on the admin listener.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace is the metric name prefix.
	// Default: "llamagate"
	Namespace string `yaml:"namespace"`

	// Subsystem is the metric subsystem name.
	// Default: "relay"
	Subsystem string `yaml:"subsystem"`

	// RequestDurationBuckets defines histogram buckets for request duration (seconds).
	// Default: [0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0]
	RequestDurationBuckets []float64 `yaml:"request_duration_buckets"`
}

// TracingConfig contains distributed tracing configuration.
type TracingConfig struct {
	// Enabled controls whether spans are exported.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Endpoint is the OTLP gRPC collector endpoint, e.g. "localhost:4317".
	Endpoint string `yaml:"endpoint"`

	// Insecure disables TLS for the OTLP connection.
	// Default: true
	Insecure bool `yaml:"insecure"`

	// SampleRatio is the fraction of traces to sample (0.0 to 1.0).
	// Default: 1.0
	SampleRatio float64 `yaml:"sample_ratio"`

	// ServiceName is the service name reported in traces.
	// Default: "llamagate"
	ServiceName string `yaml:"service_name"`
}
