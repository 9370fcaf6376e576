// Package journal records metadata about every forwarded exchange.
//
// An Entry captures when a request arrived, how many messages it carried,
// the generation parameters that were injected, what the upstream answered
// and how long it took. Message content and response bodies are never
// stored.
//
// # Recording
//
// The Recorder writes entries from a single background goroutine through a
// bounded channel. Record never blocks the request path: when the channel is
// full the entry is dropped and a warning is logged.
//
//	rec := journal.NewRecorder(store, journal.RecorderConfig{AsyncBuffer: 1000})
//	defer rec.Close()
//	_ = rec.Record(&journal.Entry{RequestID: id, Outcome: journal.OutcomeOK})
//
// # Retention
//
// A Pruner deletes entries older than the retention period and trims the
// journal to a maximum size. A Scheduler runs it on a cron expression
// (default "0 3 * * *"):
//
//	pruner := journal.NewPruner(store, journal.RetentionConfig{Days: 30}, nil, logger)
//	sched := journal.NewScheduler(pruner)
//	_ = sched.Start(ctx)
//
// Backends live in the storage subpackage: an in-memory store and SQLite
// through either modernc.org/sqlite ("sqlite") or mattn/go-sqlite3
// ("sqlite3").
package journal
