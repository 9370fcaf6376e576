package storage

import (
	"context"
	"errors"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gaia-relay/llamagate/pkg/config"
	"gaia-relay/llamagate/pkg/journal"
)

var base = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

func newSQLite(t *testing.T) *SQLiteStorage {
	t.Helper()
	s, err := NewSQLiteStorage(SQLiteConfig{
		Path:    filepath.Join(t.TempDir(), "nested", "journal.db"),
		Driver:  DriverModernC,
		WALMode: true,
	}, nil)
	if err != nil {
		t.Fatalf("NewSQLiteStorage() failed: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func backends(t *testing.T) map[string]journal.Storage {
	return map[string]journal.Storage{
		"memory": NewMemoryStorage(),
		"sqlite": newSQLite(t),
	}
}

func entryAt(id string, offset time.Duration, outcome string) *journal.Entry {
	return &journal.Entry{
		ID:              id,
		RequestID:       "req-" + id,
		ReceivedAt:      base.Add(offset),
		RecordedAt:      base.Add(offset + time.Second),
		Method:          "POST",
		Path:            "/v1/chat/completions",
		RemoteAddr:      "127.0.0.1:5000",
		UserAgent:       "test",
		MessageCount:    2,
		RequestBytes:    64,
		UpstreamURL:     "https://upstream.test/v1/chat/completions",
		Temperature:     0.7,
		MaxTokens:       1000,
		StatusCode:      200,
		UpstreamStatus:  200,
		ResponseBytes:   128,
		Outcome:         outcome,
		UpstreamLatency: 1500 * time.Millisecond,
		Duration:        1510 * time.Millisecond,
	}
}

func TestStorage_StoreAndQuery(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			failed := entryAt("c", 2*time.Minute, journal.OutcomeUpstreamError)
			failed.StatusCode = 500
			failed.UpstreamStatus = 0
			failed.ErrorKind = "timeout"
			failed.Error = "upstream request timeout after 30s"

			for _, e := range []*journal.Entry{entryAt("a", 0, journal.OutcomeOK), entryAt("b", time.Minute, journal.OutcomeOK), failed} {
				if err := store.Store(ctx, e); err != nil {
					t.Fatalf("Store() failed: %v", err)
				}
			}

			all, err := store.Query(ctx, nil)
			if err != nil {
				t.Fatalf("Query() failed: %v", err)
			}
			if len(all) != 3 || all[0].ID != "c" || all[2].ID != "a" {
				t.Fatalf("expected newest first, got %d entries", len(all))
			}

			got := all[0]
			if !got.ReceivedAt.Equal(failed.ReceivedAt) || got.ErrorKind != "timeout" || got.Error != failed.Error {
				t.Errorf("round trip mismatch: %+v", got)
			}
			if got.UpstreamLatency != failed.UpstreamLatency || got.Temperature != 0.7 {
				t.Errorf("round trip mismatch: %+v", got)
			}
			if all[1].ErrorKind != "" {
				t.Errorf("expected empty error kind, got %q", all[1].ErrorKind)
			}

			errorsOnly, _ := store.Query(ctx, &journal.Query{Outcome: journal.OutcomeUpstreamError})
			if len(errorsOnly) != 1 || errorsOnly[0].ID != "c" {
				t.Errorf("outcome filter returned %d entries", len(errorsOnly))
			}

			since := base.Add(time.Minute)
			recent, _ := store.Query(ctx, &journal.Query{Since: &since})
			if len(recent) != 2 {
				t.Errorf("since filter returned %d entries, want 2", len(recent))
			}

			limited, _ := store.Query(ctx, &journal.Query{Limit: 1})
			if len(limited) != 1 || limited[0].ID != "c" {
				t.Errorf("limit returned %d entries", len(limited))
			}

			if n, _ := store.Count(ctx, &journal.Query{Until: &since}); n != 1 {
				t.Errorf("Count(until) = %d, want 1", n)
			}
		})
	}
}

func TestStorage_DeleteAndTrim(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			for i, id := range []string{"a", "b", "c", "d", "e"} {
				if err := store.Store(ctx, entryAt(id, time.Duration(i)*time.Hour, journal.OutcomeOK)); err != nil {
					t.Fatalf("Store() failed: %v", err)
				}
			}

			deleted, err := store.DeleteBefore(ctx, base.Add(2*time.Hour))
			if err != nil || deleted != 2 {
				t.Fatalf("DeleteBefore() = %d, %v; want 2", deleted, err)
			}

			trimmed, err := store.Trim(ctx, 2)
			if err != nil || trimmed != 1 {
				t.Fatalf("Trim() = %d, %v; want 1", trimmed, err)
			}

			left, _ := store.Query(ctx, nil)
			if len(left) != 2 || left[0].ID != "e" || left[1].ID != "d" {
				t.Errorf("unexpected remaining entries %v", left)
			}

			if n, _ := store.Trim(ctx, 10); n != 0 {
				t.Errorf("Trim() under the limit deleted %d", n)
			}
		})
	}
}

func TestSQLiteStorage_ReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	cfg := SQLiteConfig{Path: path, Driver: DriverModernC}

	s, err := NewSQLiteStorage(cfg, nil)
	if err != nil {
		t.Fatalf("NewSQLiteStorage() failed: %v", err)
	}
	if err := s.Store(context.Background(), entryAt("a", 0, journal.OutcomeOK)); err != nil {
		t.Fatalf("Store() failed: %v", err)
	}
	if err := s.Ping(context.Background()); err != nil {
		t.Errorf("Ping() failed: %v", err)
	}
	_ = s.Close()

	s, err = NewSQLiteStorage(cfg, nil)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer s.Close()
	if n, _ := s.Count(context.Background(), nil); n != 1 {
		t.Errorf("Count() after reopen = %d, want 1", n)
	}
}

func TestBuildDSN(t *testing.T) {
	tests := []struct {
		driver string
		want   map[string][]string
	}{
		{
			driver: DriverModernC,
			want:   map[string][]string{"_pragma": {"busy_timeout(2000)", "journal_mode(WAL)"}},
		},
		{
			driver: DriverMattn,
			want:   map[string][]string{"_busy_timeout": {"2000"}, "_journal_mode": {"WAL"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.driver, func(t *testing.T) {
			dsn, err := buildDSN(SQLiteConfig{Path: "data/j.db", Driver: tt.driver, WALMode: true, BusyTimeout: 2 * time.Second})
			if err != nil {
				t.Fatalf("buildDSN() failed: %v", err)
			}
			path, rawQuery, _ := strings.Cut(dsn, "?")
			if path != "file:data/j.db" {
				t.Errorf("unexpected path %q", path)
			}
			params, err := url.ParseQuery(rawQuery)
			if err != nil {
				t.Fatalf("invalid query %q: %v", rawQuery, err)
			}
			for key, want := range tt.want {
				got := params[key]
				if strings.Join(got, ",") != strings.Join(want, ",") {
					t.Errorf("%s = %v, want %v", key, got, want)
				}
			}
		})
	}

	if _, err := buildDSN(SQLiteConfig{Path: "x", Driver: "postgres"}); err == nil {
		t.Error("expected error for unsupported driver")
	}
}

func TestOpen(t *testing.T) {
	mem, err := Open(config.JournalConfig{Backend: BackendMemory}, nil)
	if err != nil {
		t.Fatalf("Open(memory) failed: %v", err)
	}
	if _, ok := mem.(*MemoryStorage); !ok {
		t.Errorf("expected *MemoryStorage, got %T", mem)
	}

	cfg := config.JournalConfig{
		Backend: BackendSQLite,
		SQLite:  config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "j.db"), Driver: DriverModernC},
	}
	sqlite, err := Open(cfg, nil)
	if err != nil {
		t.Fatalf("Open(sqlite) failed: %v", err)
	}
	_ = sqlite.Close()

	_, err = Open(config.JournalConfig{Backend: "redis"}, nil)
	var storageErr *journal.StorageError
	if !errors.As(err, &storageErr) {
		t.Errorf("expected StorageError, got %v", err)
	}
}

func TestNewSQLiteStorage_EmptyPath(t *testing.T) {
	if _, err := NewSQLiteStorage(SQLiteConfig{}, nil); err == nil {
		t.Error("expected error for empty path")
	}
}
