package config

import "time"

// ConfigBuilder provides a fluent API for building Config instances in tests.
// It starts with default values and allows selective overrides.
type ConfigBuilder struct {
	cfg *Config
}

// NewTestConfig creates a new ConfigBuilder with sensible defaults for testing.
// The resulting configuration is valid and can be used immediately.
func NewTestConfig() *ConfigBuilder {
	cfg := Default()
	cfg.Journal.Backend = "memory"
	return &ConfigBuilder{cfg: cfg}
}

// Build returns the built Config instance.
func (b *ConfigBuilder) Build() *Config {
	return b.cfg
}

// WithListenAddress sets the proxy listen address.
func (b *ConfigBuilder) WithListenAddress(addr string) *ConfigBuilder {
	b.cfg.Proxy.ListenAddress = addr
	return b
}

// WithUpstreamURL sets the upstream endpoint.
func (b *ConfigBuilder) WithUpstreamURL(u string) *ConfigBuilder {
	b.cfg.Upstream.URL = u
	return b
}

// WithUpstreamTimeout sets the upstream timeout.
func (b *ConfigBuilder) WithUpstreamTimeout(d time.Duration) *ConfigBuilder {
	b.cfg.Upstream.Timeout = d
	return b
}

// WithGeneration sets temperature and max tokens.
func (b *ConfigBuilder) WithGeneration(temperature float64, maxTokens int) *ConfigBuilder {
	b.cfg.Generation = GenerationConfig{Temperature: temperature, MaxTokens: maxTokens}
	return b
}

// WithJournal enables the journal with the given backend.
func (b *ConfigBuilder) WithJournal(backend string) *ConfigBuilder {
	b.cfg.Journal.Enabled = true
	b.cfg.Journal.Backend = backend
	return b
}

// WithLogLevel sets the logging level.
func (b *ConfigBuilder) WithLogLevel(level string) *ConfigBuilder {
	b.cfg.Telemetry.Logging.Level = level
	return b
}
