package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounceInterval is the quiet period before a reload fires.
const DefaultDebounceInterval = 250 * time.Millisecond

// ReloadFunc receives a freshly loaded and validated configuration.
type ReloadFunc func(*Config)

// Watcher reloads the configuration file when it changes on disk.
//
// The parent directory is watched rather than the file itself so editors
// that save by renaming a temporary file over the original are still seen.
// Bursts of events are collapsed by a debounce timer; a reload that fails
// to load or validate is logged and the previous configuration stays active.
type Watcher struct {
	path     string
	interval time.Duration
	load     func() (*Config, error)
	logger   *slog.Logger

	mu    sync.Mutex
	timer *time.Timer
}

// NewWatcher creates a watcher for path. A nil logger uses slog.Default.
func NewWatcher(path string, logger *slog.Logger) (*Watcher, error) {
	if path == "" {
		return nil, errors.New("config watcher requires a file path")
	}
	if logger == nil {
		logger = slog.Default()
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config path %q: %w", path, err)
	}
	return &Watcher{
		path:     abs,
		interval: DefaultDebounceInterval,
		load:     func() (*Config, error) { return LoadConfigWithEnvOverrides(abs) },
		logger:   logger.With("component", "config.watcher"),
	}, nil
}

// WithInterval overrides the debounce interval.
func (w *Watcher) WithInterval(d time.Duration) *Watcher {
	w.interval = d
	return w
}

// WithLoader overrides how the configuration is reloaded. The default reads
// the watched file with LoadConfigWithEnvOverrides.
func (w *Watcher) WithLoader(load func() (*Config, error)) *Watcher {
	w.load = load
	return w
}

// Watch blocks until ctx is cancelled, invoking onReload after every
// successful reload.
func (w *Watcher) Watch(ctx context.Context, onReload ReloadFunc) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("failed to watch %q: %w", filepath.Dir(w.path), err)
	}

	w.logger.Info("config watcher started",
		"path", w.path,
		"debounce_ms", w.interval.Milliseconds(),
	)

	defer w.stopTimer()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("config watcher stopped")
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return errors.New("watcher events channel closed")
			}
			if !w.relevant(event) {
				continue
			}
			w.logger.Debug("config file event", "op", event.Op.String())
			w.trigger(onReload)

		case err, ok := <-fsw.Errors:
			if !ok {
				return errors.New("watcher errors channel closed")
			}
			w.logger.Error("config watcher error", "error", err)
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op&fsnotify.Chmod == fsnotify.Chmod {
		return false
	}
	name, err := filepath.Abs(event.Name)
	if err != nil {
		return false
	}
	return name == w.path
}

func (w *Watcher) trigger(onReload ReloadFunc) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.interval, func() {
		cfg, err := w.load()
		if err != nil {
			w.logger.Error("config reload failed, keeping previous configuration", "error", err)
			return
		}
		w.logger.Info("config reloaded", "path", w.path)
		if onReload != nil {
			onReload(cfg)
		}
	})
}

func (w *Watcher) stopTimer() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
}
