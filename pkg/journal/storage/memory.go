package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"gaia-relay/llamagate/pkg/journal"
)

// MemoryStorage implements journal.Storage in memory.
// Entries are lost on restart; use it for development and tests.
type MemoryStorage struct {
	entries []*journal.Entry
	mu      sync.RWMutex
}

// NewMemoryStorage creates an empty in-memory store.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

// Store keeps a copy of entry.
func (s *MemoryStorage) Store(_ context.Context, entry *journal.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entryCopy := *entry
	s.entries = append(s.entries, &entryCopy)
	return nil
}

// Query returns copies of matching entries, newest first.
func (s *MemoryStorage) Query(_ context.Context, q *journal.Query) ([]*journal.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := []*journal.Entry{}
	for _, entry := range s.entries {
		if matches(entry, q) {
			entryCopy := *entry
			results = append(results, &entryCopy)
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].ReceivedAt.After(results[j].ReceivedAt)
	})

	limit := journal.DefaultQueryLimit
	if q != nil && q.Limit > 0 {
		limit = q.Limit
	}
	if len(results) > limit {
		results = results[:limit]
	}

	return results, nil
}

// Count returns the number of matching entries.
func (s *MemoryStorage) Count(_ context.Context, q *journal.Query) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, entry := range s.entries {
		if matches(entry, q) {
			count++
		}
	}
	return count, nil
}

// DeleteBefore removes entries received before cutoff.
func (s *MemoryStorage) DeleteBefore(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.entries[:0]
	var deleted int64
	for _, entry := range s.entries {
		if entry.ReceivedAt.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, entry)
	}
	clear(s.entries[len(kept):])
	s.entries = kept
	return deleted, nil
}

// Trim removes the oldest entries so that at most keep remain.
func (s *MemoryStorage) Trim(_ context.Context, keep int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	excess := int64(len(s.entries)) - keep
	if excess <= 0 {
		return 0, nil
	}

	sort.SliceStable(s.entries, func(i, j int) bool {
		return s.entries[i].ReceivedAt.Before(s.entries[j].ReceivedAt)
	})
	s.entries = append([]*journal.Entry(nil), s.entries[excess:]...)
	return excess, nil
}

// Close is a no-op.
func (s *MemoryStorage) Close() error {
	return nil
}

func matches(entry *journal.Entry, q *journal.Query) bool {
	if q == nil {
		return true
	}
	if q.Since != nil && entry.ReceivedAt.Before(*q.Since) {
		return false
	}
	if q.Until != nil && !entry.ReceivedAt.Before(*q.Until) {
		return false
	}
	if q.Outcome != "" && entry.Outcome != q.Outcome {
		return false
	}
	return true
}
