package config

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestValidate_DefaultsAreValid(t *testing.T) {
	if err := Validate(Default()); err != nil {
		t.Fatalf("expected defaults to be valid, got %v", err)
	}
	if err := Validate(NewTestConfig().Build()); err != nil {
		t.Fatalf("expected test config to be valid, got %v", err)
	}
}

func TestValidate_Fields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{
			name:   "empty listen address",
			mutate: func(c *Config) { c.Proxy.ListenAddress = "" },
			field:  "proxy.listen_address",
		},
		{
			name:   "listen address without port",
			mutate: func(c *Config) { c.Proxy.ListenAddress = "localhost" },
			field:  "proxy.listen_address",
		},
		{
			name:   "negative read timeout",
			mutate: func(c *Config) { c.Proxy.ReadTimeout = -time.Second },
			field:  "proxy.read_timeout",
		},
		{
			name:   "zero max request bytes",
			mutate: func(c *Config) { c.Proxy.MaxRequestBytes = 0 },
			field:  "proxy.max_request_bytes",
		},
		{
			name:   "empty upstream url",
			mutate: func(c *Config) { c.Upstream.URL = "" },
			field:  "upstream.url",
		},
		{
			name:   "non-http upstream url",
			mutate: func(c *Config) { c.Upstream.URL = "ws://example.com/chat" },
			field:  "upstream.url",
		},
		{
			name:   "upstream url without host",
			mutate: func(c *Config) { c.Upstream.URL = "https:///v1/chat/completions" },
			field:  "upstream.url",
		},
		{
			name:   "zero upstream timeout",
			mutate: func(c *Config) { c.Upstream.Timeout = 0 },
			field:  "upstream.timeout",
		},
		{
			name:   "temperature too high",
			mutate: func(c *Config) { c.Generation.Temperature = 2.5 },
			field:  "generation.temperature",
		},
		{
			name:   "negative temperature",
			mutate: func(c *Config) { c.Generation.Temperature = -0.1 },
			field:  "generation.temperature",
		},
		{
			name:   "zero max tokens",
			mutate: func(c *Config) { c.Generation.MaxTokens = 0 },
			field:  "generation.max_tokens",
		},
		{
			name:   "unknown journal backend",
			mutate: func(c *Config) { c.Journal.Backend = "postgres" },
			field:  "journal.backend",
		},
		{
			name:   "unknown sqlite driver",
			mutate: func(c *Config) { c.Journal.SQLite.Driver = "pgx" },
			field:  "journal.sqlite.driver",
		},
		{
			name:   "bad prune schedule",
			mutate: func(c *Config) { c.Journal.Retention.PruneSchedule = "every day" },
			field:  "journal.retention.prune_schedule",
		},
		{
			name:   "invalid logging level",
			mutate: func(c *Config) { c.Telemetry.Logging.Level = "trace" },
			field:  "telemetry.logging.level",
		},
		{
			name:   "invalid logging format",
			mutate: func(c *Config) { c.Telemetry.Logging.Format = "xml" },
			field:  "telemetry.logging.format",
		},
		{
			name:   "invalid admin address",
			mutate: func(c *Config) { c.Telemetry.AdminAddress = "9090" },
			field:  "telemetry.admin_address",
		},
		{
			name:   "metrics path without slash",
			mutate: func(c *Config) { c.Telemetry.Metrics.Path = "metrics" },
			field:  "telemetry.metrics.path",
		},
		{
			name:   "unsorted buckets",
			mutate: func(c *Config) { c.Telemetry.Metrics.RequestDurationBuckets = []float64{1, 0.5} },
			field:  "telemetry.metrics.request_duration_buckets",
		},
		{
			name: "tracing without endpoint",
			mutate: func(c *Config) {
				c.Telemetry.Tracing.Enabled = true
				c.Telemetry.Tracing.Endpoint = ""
			},
			field: "telemetry.tracing.endpoint",
		},
		{
			name:   "sample ratio out of range",
			mutate: func(c *Config) { c.Telemetry.Tracing.SampleRatio = 1.5 },
			field:  "telemetry.tracing.sample_ratio",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewTestConfig().Build()
			tt.mutate(cfg)

			err := Validate(cfg)
			if err == nil {
				t.Fatal("expected validation error")
			}

			var verr ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %T", err)
			}
			if !verr.HasField(tt.field) {
				t.Errorf("expected error for %s, got %v", tt.field, err)
			}
		})
	}
}

func TestValidate_MemoryBackendIgnoresSQLiteSettings(t *testing.T) {
	cfg := NewTestConfig().WithJournal("memory").Build()
	cfg.Journal.SQLite.Path = ""
	cfg.Journal.SQLite.Driver = "anything"

	if err := Validate(cfg); err != nil {
		t.Errorf("expected memory backend to ignore sqlite settings, got %v", err)
	}
}

func TestValidationError_Error(t *testing.T) {
	single := ValidationError{Errors: []FieldError{{Field: "upstream.url", Message: "upstream url is required"}}}
	if got := single.Error(); got != "configuration validation failed: upstream.url: upstream url is required" {
		t.Errorf("unexpected single error message: %q", got)
	}

	multi := ValidationError{Errors: []FieldError{
		{Field: "a", Message: "first"},
		{Field: "b", Message: "second"},
	}}
	msg := multi.Error()
	if !strings.Contains(msg, "2 errors") || !strings.Contains(msg, "  - a: first") || !strings.Contains(msg, "  - b: second") {
		t.Errorf("unexpected multi error message: %q", msg)
	}

	if got := (ValidationError{}).Error(); got != "configuration validation failed" {
		t.Errorf("unexpected empty error message: %q", got)
	}
}
