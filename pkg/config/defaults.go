package config

import "time"

// Default values for configuration fields.
const (
	// Proxy defaults
	DefaultListenAddress   = "127.0.0.1:3000"
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 60 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultMaxHeaderBytes  = 1048576 // 1MB
	DefaultMaxRequestBytes = int64(2 * 1024 * 1024)

	// Upstream defaults
	DefaultUpstreamURL                 = "https://llama3b.gaia.domains/v1/chat/completions"
	DefaultUpstreamTimeout             = 30 * time.Second
	DefaultUpstreamMaxIdleConns        = 100
	DefaultUpstreamMaxIdleConnsPerHost = 10
	DefaultUpstreamIdleConnTimeout     = 90 * time.Second

	// Generation defaults
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 1000

	// Journal defaults
	DefaultJournalBackend           = "sqlite"
	DefaultJournalAsyncBuffer       = 1000
	DefaultJournalWriteTimeout      = 5 * time.Second
	DefaultJournalSQLitePath        = "data/journal.db"
	DefaultJournalSQLiteDriver      = "sqlite"
	DefaultJournalSQLiteMaxOpen     = 4
	DefaultJournalSQLiteBusyTimeout = 5 * time.Second
	DefaultJournalRetentionDays     = 30
	DefaultJournalRetentionSchedule = "0 3 * * *"

	// Telemetry defaults
	DefaultLoggingLevel       = "info"
	DefaultLoggingFormat      = "json"
	DefaultPrometheusPath     = "/metrics"
	DefaultMetricsNamespace   = "llamagate"
	DefaultMetricsSubsystem   = "relay"
	DefaultTracingSampleRatio = 1.0
	DefaultTracingService     = "llamagate"
)

// DefaultRequestDurationBuckets are tuned for LLM completion latencies.
var DefaultRequestDurationBuckets = []float64{0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0}

// Default returns a configuration populated with every default, including
// the defaults whose zero value is meaningful (booleans, retention days)
// and so cannot be inferred by ApplyDefaults.
// YAML is decoded on top of it so unset keys keep their defaults.
func Default() *Config {
	cfg := &Config{
		Journal: JournalConfig{
			SQLite: SQLiteConfig{
				WALMode: true,
			},
			Retention: RetentionConfig{
				Days:          DefaultJournalRetentionDays,
				PruneSchedule: DefaultJournalRetentionSchedule,
			},
		},
		Telemetry: TelemetryConfig{
			Metrics: MetricsConfig{
				Enabled: true,
			},
			Tracing: TracingConfig{
				Insecure: true,
			},
		},
	}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults applies default values to a Config struct.
// It sets defaults for any fields that have zero values.
// This function is idempotent and safe to call multiple times.
func ApplyDefaults(cfg *Config) {
	// Proxy defaults
	if cfg.Proxy.ListenAddress == "" {
		cfg.Proxy.ListenAddress = DefaultListenAddress
	}
	if cfg.Proxy.ReadTimeout == 0 {
		cfg.Proxy.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Proxy.WriteTimeout == 0 {
		cfg.Proxy.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Proxy.IdleTimeout == 0 {
		cfg.Proxy.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Proxy.ShutdownTimeout == 0 {
		cfg.Proxy.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Proxy.MaxHeaderBytes == 0 {
		cfg.Proxy.MaxHeaderBytes = DefaultMaxHeaderBytes
	}
	if cfg.Proxy.MaxRequestBytes == 0 {
		cfg.Proxy.MaxRequestBytes = DefaultMaxRequestBytes
	}

	// Upstream defaults
	if cfg.Upstream.URL == "" {
		cfg.Upstream.URL = DefaultUpstreamURL
	}
	if cfg.Upstream.Timeout == 0 {
		cfg.Upstream.Timeout = DefaultUpstreamTimeout
	}
	if cfg.Upstream.MaxIdleConns == 0 {
		cfg.Upstream.MaxIdleConns = DefaultUpstreamMaxIdleConns
	}
	if cfg.Upstream.MaxIdleConnsPerHost == 0 {
		cfg.Upstream.MaxIdleConnsPerHost = DefaultUpstreamMaxIdleConnsPerHost
	}
	if cfg.Upstream.IdleConnTimeout == 0 {
		cfg.Upstream.IdleConnTimeout = DefaultUpstreamIdleConnTimeout
	}

	// Generation defaults. A temperature of exactly 0 is a legitimate
	// greedy-decoding setting, so only an untouched section is defaulted.
	if cfg.Generation == (GenerationConfig{}) {
		cfg.Generation.Temperature = DefaultTemperature
		cfg.Generation.MaxTokens = DefaultMaxTokens
	}
	if cfg.Generation.MaxTokens == 0 {
		cfg.Generation.MaxTokens = DefaultMaxTokens
	}

	// Journal defaults
	if cfg.Journal.Backend == "" {
		cfg.Journal.Backend = DefaultJournalBackend
	}
	if cfg.Journal.AsyncBuffer == 0 {
		cfg.Journal.AsyncBuffer = DefaultJournalAsyncBuffer
	}
	if cfg.Journal.WriteTimeout == 0 {
		cfg.Journal.WriteTimeout = DefaultJournalWriteTimeout
	}
	if cfg.Journal.SQLite.Path == "" {
		cfg.Journal.SQLite.Path = DefaultJournalSQLitePath
	}
	if cfg.Journal.SQLite.Driver == "" {
		cfg.Journal.SQLite.Driver = DefaultJournalSQLiteDriver
	}
	if cfg.Journal.SQLite.MaxOpenConns == 0 {
		cfg.Journal.SQLite.MaxOpenConns = DefaultJournalSQLiteMaxOpen
	}
	if cfg.Journal.SQLite.BusyTimeout == 0 {
		cfg.Journal.SQLite.BusyTimeout = DefaultJournalSQLiteBusyTimeout
	}

	// Telemetry defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultPrometheusPath
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Telemetry.Metrics.Subsystem == "" {
		cfg.Telemetry.Metrics.Subsystem = DefaultMetricsSubsystem
	}
	if len(cfg.Telemetry.Metrics.RequestDurationBuckets) == 0 {
		cfg.Telemetry.Metrics.RequestDurationBuckets = append([]float64(nil), DefaultRequestDurationBuckets...)
	}
	if cfg.Telemetry.Tracing.SampleRatio == 0 {
		cfg.Telemetry.Tracing.SampleRatio = DefaultTracingSampleRatio
	}
	if cfg.Telemetry.Tracing.ServiceName == "" {
		cfg.Telemetry.Tracing.ServiceName = DefaultTracingService
	}
}
