package journal

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// RetentionConfig contains retention policy configuration.
type RetentionConfig struct {
	// Days is the number of days to retain entries. 0 keeps entries forever.
	Days int

	// MaxRecords is the maximum number of entries to keep. 0 means unlimited.
	MaxRecords int64

	// PruneSchedule is a standard cron expression. Empty disables scheduling.
	PruneSchedule string
}

// PruneObserver receives the number of entries each prune removed.
type PruneObserver interface {
	RecordJournalPruned(count int64)
}

// Pruner removes entries that fall outside the retention policy.
type Pruner struct {
	storage  Storage
	config   RetentionConfig
	observer PruneObserver
	logger   *slog.Logger
	now      func() time.Time
}

// NewPruner creates a pruner. observer may be nil.
func NewPruner(storage Storage, cfg RetentionConfig, observer PruneObserver, logger *slog.Logger) *Pruner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pruner{
		storage:  storage,
		config:   cfg,
		observer: observer,
		logger:   logger.With("component", "journal.retention"),
		now:      time.Now,
	}
}

// Prune applies the age limit, then the count limit, and returns the number
// of entries removed.
func (p *Pruner) Prune(ctx context.Context) (int64, error) {
	var total int64

	if p.config.Days > 0 {
		cutoff := p.now().AddDate(0, 0, -p.config.Days)
		deleted, err := p.storage.DeleteBefore(ctx, cutoff)
		if err != nil {
			return total, p.retentionError(fmt.Errorf("prune by age failed: %w", err))
		}
		total += deleted
		p.logger.Debug("pruned entries by age",
			"deleted_count", deleted,
			"cutoff", cutoff,
		)
	}

	if p.config.MaxRecords > 0 {
		deleted, err := p.storage.Trim(ctx, p.config.MaxRecords)
		if err != nil {
			return total, p.retentionError(fmt.Errorf("prune by count failed: %w", err))
		}
		total += deleted
		p.logger.Debug("pruned entries by count",
			"deleted_count", deleted,
			"max_records", p.config.MaxRecords,
		)
	}

	if p.observer != nil {
		p.observer.RecordJournalPruned(total)
	}
	if total > 0 {
		p.logger.Info("journal pruning completed",
			"total_deleted", total,
			"retention_days", p.config.Days,
			"max_records", p.config.MaxRecords,
		)
	}

	return total, nil
}

func (p *Pruner) retentionError(err error) error {
	return &RetentionError{
		RetentionDays: p.config.Days,
		MaxRecords:    p.config.MaxRecords,
		Cause:         err,
	}
}

// Scheduler runs a Pruner on a cron schedule.
type Scheduler struct {
	pruner   *Pruner
	schedule string
	cron     *cron.Cron
	mu       sync.Mutex
	logger   *slog.Logger
	running  bool
}

// NewScheduler creates a scheduler for pruner using its configured schedule.
func NewScheduler(pruner *Pruner) *Scheduler {
	return &Scheduler{
		pruner:   pruner,
		schedule: pruner.config.PruneSchedule,
		cron:     cron.New(),
		logger:   pruner.logger,
	}
}

// Start registers the prune job and starts the cron runner. An empty
// schedule is a no-op. The scheduler stops when ctx is done.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.schedule == "" {
		s.logger.Info("prune schedule not configured, skipping scheduler")
		return nil
	}
	if s.running {
		return nil
	}

	if _, err := s.cron.AddFunc(s.schedule, func() { s.run(ctx) }); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", s.schedule, err)
	}

	s.cron.Start()
	s.running = true

	s.logger.Info("retention scheduler started",
		"schedule", s.schedule,
		"retention_days", s.pruner.config.Days,
		"max_records", s.pruner.config.MaxRecords,
	)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

func (s *Scheduler) run(ctx context.Context) {
	if _, err := s.pruner.Prune(ctx); err != nil {
		s.logger.Error("scheduled pruning failed", "error", err)
	}
}

// Stop stops the cron runner and waits for a running prune to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	<-s.cron.Stop().Done()
	s.running = false
	s.logger.Info("retention scheduler stopped")
}

// IsRunning reports whether the scheduler is active.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// NextRun returns the next scheduled prune time, or nil when not scheduled.
func (s *Scheduler) NextRun() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.cron.Entries()
	if len(entries) == 0 {
		return nil
	}
	next := entries[0].Next
	return &next
}
