package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNewWatcher_RequiresPath(t *testing.T) {
	if _, err := NewWatcher("", nil); err == nil {
		t.Error("expected error for empty path")
	}
}

func TestWatcher_ReloadsOnChange(t *testing.T) {
	path := writeConfig(t, "generation:\n  max_tokens: 10\n")

	w, err := NewWatcher(path, nil)
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}
	w.WithInterval(20 * time.Millisecond).WithLoader(func() (*Config, error) {
		return LoadConfig(path)
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloaded := make(chan *Config, 4)
	done := make(chan error, 1)
	go func() {
		done <- w.Watch(ctx, func(cfg *Config) { reloaded <- cfg })
	}()

	// Give the watcher time to register the directory.
	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(path, []byte("generation:\n  max_tokens: 42\n"), 0644); err != nil {
		t.Fatalf("failed to rewrite config: %v", err)
	}

	select {
	case cfg := <-reloaded:
		if cfg.Generation.MaxTokens != 42 {
			t.Errorf("expected max tokens 42, got %d", cfg.Generation.MaxTokens)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for reload")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Watch returned error: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("watcher did not stop after cancel")
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	path := writeConfig(t, "generation:\n  max_tokens: 10\n")

	w, err := NewWatcher(path, nil)
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}
	w.WithInterval(20 * time.Millisecond).WithLoader(func() (*Config, error) {
		return LoadConfig(path)
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloaded := make(chan *Config, 4)
	go func() {
		_ = w.Watch(ctx, func(cfg *Config) { reloaded <- cfg })
	}()
	time.Sleep(100 * time.Millisecond)

	other := filepath.Join(filepath.Dir(path), "other.yaml")
	if err := os.WriteFile(other, []byte("x: 1\n"), 0644); err != nil {
		t.Fatalf("failed to write other file: %v", err)
	}

	select {
	case <-reloaded:
		t.Error("unexpected reload for unrelated file")
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcher_InvalidReloadKeepsWatching(t *testing.T) {
	path := writeConfig(t, "generation:\n  max_tokens: 10\n")

	w, err := NewWatcher(path, nil)
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}
	w.WithInterval(20 * time.Millisecond).WithLoader(func() (*Config, error) {
		return LoadConfig(path)
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloaded := make(chan *Config, 4)
	go func() {
		_ = w.Watch(ctx, func(cfg *Config) { reloaded <- cfg })
	}()
	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(path, []byte("generation:\n  max_tokens: -1\n"), 0644); err != nil {
		t.Fatalf("failed to rewrite config: %v", err)
	}
	select {
	case <-reloaded:
		t.Fatal("invalid configuration should not be delivered")
	case <-time.After(300 * time.Millisecond):
	}

	if err := os.WriteFile(path, []byte("generation:\n  max_tokens: 7\n"), 0644); err != nil {
		t.Fatalf("failed to rewrite config: %v", err)
	}
	select {
	case cfg := <-reloaded:
		if cfg.Generation.MaxTokens != 7 {
			t.Errorf("expected max tokens 7, got %d", cfg.Generation.MaxTokens)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for reload after invalid edit")
	}
}

func TestWatcher_DefaultLoaderAppliesEnvOverrides(t *testing.T) {
	path := writeConfig(t, "generation:\n  max_tokens: 10\n")
	t.Setenv(EnvPrefix+"UPSTREAM_URL", "http://127.0.0.1:9999/v1/chat/completions")

	w, err := NewWatcher(path, nil)
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}
	w.WithInterval(20 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloaded := make(chan *Config, 4)
	go func() {
		_ = w.Watch(ctx, func(cfg *Config) { reloaded <- cfg })
	}()

	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(path, []byte("generation:\n  max_tokens: 42\n"), 0644); err != nil {
		t.Fatalf("failed to rewrite config: %v", err)
	}

	select {
	case cfg := <-reloaded:
		if cfg.Generation.MaxTokens != 42 {
			t.Errorf("expected max tokens 42, got %d", cfg.Generation.MaxTokens)
		}
		if cfg.Upstream.URL != "http://127.0.0.1:9999/v1/chat/completions" {
			t.Errorf("environment override not applied on reload, url %q", cfg.Upstream.URL)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for reload")
	}
}
