package metrics

import (
	"gaia-relay/llamagate/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// JournalMetrics tracks the exchange journal.
type JournalMetrics struct {
	writes *prometheus.CounterVec
	pruned prometheus.Counter
}

// NewJournalMetrics creates and registers journal metrics with the provided registry.
func NewJournalMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *JournalMetrics {
	jm := &JournalMetrics{
		writes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "journal_entries_total",
				Help:      "Journal entries by result (written, dropped, failed)",
			},
			[]string{"result"},
		),
		pruned: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "journal_pruned_total",
				Help:      "Journal entries removed by retention",
			},
		),
	}

	registry.MustRegister(jm.writes, jm.pruned)
	return jm
}

// RecordWrite counts a journal entry outcome.
func (jm *JournalMetrics) RecordWrite(result string) {
	jm.writes.WithLabelValues(result).Inc()
}

// RecordPruned adds to the pruned counter.
func (jm *JournalMetrics) RecordPruned(count int64) {
	if count > 0 {
		jm.pruned.Add(float64(count))
	}
}
