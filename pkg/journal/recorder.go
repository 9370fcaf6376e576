package journal

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Write results reported to the WriteObserver.
const (
	WriteWritten = "written"
	WriteFailed  = "failed"
	WriteDropped = "dropped"
)

// WriteObserver receives the result of each journal write. The metrics
// collector satisfies it.
type WriteObserver interface {
	RecordJournalWrite(result string)
}

// RecorderConfig contains configuration for the async recorder.
type RecorderConfig struct {
	// AsyncBuffer is the capacity of the write channel.
	AsyncBuffer int

	// WriteTimeout bounds a single storage write.
	WriteTimeout time.Duration
}

// DefaultRecorderConfig returns the default recorder configuration.
func DefaultRecorderConfig() RecorderConfig {
	return RecorderConfig{
		AsyncBuffer:  1000,
		WriteTimeout: 5 * time.Second,
	}
}

// Recorder writes entries to storage from a single background worker.
// Record never blocks: when the buffer is full the entry is dropped with a
// warning.
type Recorder struct {
	storage  Storage
	config   RecorderConfig
	observer WriteObserver
	logger   *slog.Logger

	entries chan *Entry
	done    chan struct{}
	wg      sync.WaitGroup

	closeMu sync.RWMutex
	closed  bool
}

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// WithObserver reports write results to o.
func WithObserver(o WriteObserver) RecorderOption {
	return func(r *Recorder) {
		r.observer = o
	}
}

// WithLogger sets the recorder's logger.
func WithLogger(logger *slog.Logger) RecorderOption {
	return func(r *Recorder) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRecorder creates a recorder and starts its worker.
func NewRecorder(storage Storage, cfg RecorderConfig, opts ...RecorderOption) *Recorder {
	defaults := DefaultRecorderConfig()
	if cfg.AsyncBuffer <= 0 {
		cfg.AsyncBuffer = defaults.AsyncBuffer
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = defaults.WriteTimeout
	}

	r := &Recorder{
		storage: storage,
		config:  cfg,
		logger:  slog.Default(),
		entries: make(chan *Entry, cfg.AsyncBuffer),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With("component", "journal.recorder")

	r.wg.Add(1)
	go r.worker()

	r.logger.Debug("journal recorder started",
		"async_buffer", cfg.AsyncBuffer,
		"write_timeout", cfg.WriteTimeout,
	)

	return r
}

// Record enqueues entry for writing. It assigns an ID if the entry has none.
// It returns ErrBufferFull or ErrClosed when the entry was not accepted.
func (r *Recorder) Record(entry *Entry) error {
	if r == nil || entry == nil {
		return nil
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}

	r.closeMu.RLock()
	defer r.closeMu.RUnlock()
	if r.closed {
		return ErrClosed
	}

	select {
	case r.entries <- entry:
		return nil
	default:
		r.logger.Warn("journal buffer full, dropping entry",
			"entry_id", entry.ID,
			"request_id", entry.RequestID,
			"buffer_capacity", r.config.AsyncBuffer,
		)
		r.observe(WriteDropped)
		return ErrBufferFull
	}
}

// Close stops accepting entries, drains the buffer and waits for the worker.
func (r *Recorder) Close() error {
	r.closeMu.Lock()
	if r.closed {
		r.closeMu.Unlock()
		return nil
	}
	r.closed = true
	close(r.done)
	r.closeMu.Unlock()

	r.wg.Wait()
	r.logger.Debug("journal recorder stopped")
	return nil
}

func (r *Recorder) worker() {
	defer r.wg.Done()

	for {
		select {
		case entry := <-r.entries:
			r.write(entry)

		case <-r.done:
			// Record holds the read lock while sending, so nothing is
			// enqueued once done is closed.
			for {
				select {
				case entry := <-r.entries:
					r.write(entry)
				default:
					return
				}
			}
		}
	}
}

func (r *Recorder) write(entry *Entry) {
	ctx, cancel := context.WithTimeout(context.Background(), r.config.WriteTimeout)
	defer cancel()

	entry.RecordedAt = time.Now().UTC()
	if err := r.storage.Store(ctx, entry); err != nil {
		r.logger.Error("failed to store journal entry",
			"entry_id", entry.ID,
			"request_id", entry.RequestID,
			"error", err,
		)
		r.observe(WriteFailed)
		return
	}
	r.observe(WriteWritten)
}

func (r *Recorder) observe(result string) {
	if r.observer != nil {
		r.observer.RecordJournalWrite(result)
	}
}
