package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"gaia-relay/llamagate/pkg/cli"
	"gaia-relay/llamagate/pkg/config"
	"gaia-relay/llamagate/pkg/journal"
	"gaia-relay/llamagate/pkg/journal/storage"
	"gaia-relay/llamagate/pkg/telemetry/logging"
)

var journalFlags struct {
	limit   int
	since   time.Duration
	outcome string
	output  string
}

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Inspect the exchange journal",
	Long: `Inspect and maintain the exchange journal.

The journal holds one metadata entry per forwarded request (no message
content). It is written by the server when journal.enabled is true.

Subcommands:
  list    - List recent entries
  prune   - Apply the retention policy now`,
}

var journalListCmd = &cobra.Command{
	Use:   "list",
	Short: "List journal entries",
	Long: `List journal entries, newest first.

Examples:
  # Last 100 entries
  llamagate journal list

  # Failures in the last hour as CSV
  llamagate journal list --since 1h --outcome upstream_error --output csv`,
	Args: cobra.NoArgs,
	RunE: listJournal,
}

var journalPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove entries outside the retention policy",
	Args:  cobra.NoArgs,
	RunE:  pruneJournal,
}

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.AddCommand(journalListCmd, journalPruneCmd)

	journalListCmd.Flags().IntVar(&journalFlags.limit, "limit", journal.DefaultQueryLimit, "max entries")
	journalListCmd.Flags().DurationVar(&journalFlags.since, "since", 0, "only entries received within this duration (e.g. 1h)")
	journalListCmd.Flags().StringVar(&journalFlags.outcome, "outcome", "", "filter by outcome (ok, upstream_error, decode_error)")
	journalListCmd.Flags().StringVarP(&journalFlags.output, "output", "o", string(cli.FormatText), "output format: text, json, csv")
}

// openJournal loads the configuration and opens the configured journal
// backend without starting the recorder.
func openJournal(cmd *cobra.Command) (journal.Storage, *config.Config, error) {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Journal.Backend == storage.BackendMemory {
		return nil, nil, cli.NewConfigError("journal.backend", "the memory backend is not shared with a running server")
	}

	logger, err := logging.New(logging.Config{
		Level:  cfg.Telemetry.Logging.Level,
		Format: cfg.Telemetry.Logging.Format,
		Writer: cmd.ErrOrStderr(),
	})
	if err != nil {
		return nil, nil, cli.NewConfigError("telemetry.logging", err.Error())
	}

	store, err := storage.Open(cfg.Journal, logger)
	if err != nil {
		return nil, nil, cli.NewCommandError("journal", err)
	}
	return store, cfg, nil
}

func listJournal(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseOutputFormat(journalFlags.output)
	if err != nil {
		return err
	}
	if journalFlags.limit < 0 {
		return cli.NewConfigError("limit", "must not be negative")
	}

	store, _, err := openJournal(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	q := &journal.Query{
		Outcome: journalFlags.outcome,
		Limit:   journalFlags.limit,
	}
	if journalFlags.since > 0 {
		since := time.Now().Add(-journalFlags.since)
		q.Since = &since
	}

	entries, err := store.Query(cmd.Context(), q)
	if err != nil {
		return cli.NewCommandError("journal", fmt.Errorf("query failed: %w", err))
	}
	if entries == nil {
		entries = []*journal.Entry{}
	}

	return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), entryList(entries))
}

func pruneJournal(cmd *cobra.Command, args []string) error {
	store, cfg, err := openJournal(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	pruner := journal.NewPruner(store, retentionConfig(cfg.Journal), nil, nil)

	ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
	defer cancel()

	deleted, err := pruner.Prune(ctx)
	if err != nil {
		return cli.NewCommandError("journal", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Pruned %d entries\n", deleted)
	return nil
}

// entryList renders journal entries as a table.
type entryList []*journal.Entry

func (l entryList) Table() cli.Table {
	t := cli.Table{
		Headers: []string{"RECEIVED", "REQUEST ID", "OUTCOME", "STATUS", "UPSTREAM", "MESSAGES", "DURATION", "ERROR"},
		Rows:    make([][]string, 0, len(l)),
	}
	for _, e := range l {
		upstreamStatus := "-"
		if e.UpstreamStatus != 0 {
			upstreamStatus = strconv.Itoa(e.UpstreamStatus)
		}
		t.Rows = append(t.Rows, []string{
			e.ReceivedAt.UTC().Format(time.RFC3339),
			e.RequestID,
			e.Outcome,
			strconv.Itoa(e.StatusCode),
			upstreamStatus,
			strconv.Itoa(e.MessageCount),
			e.Duration.Round(time.Millisecond).String(),
			e.ErrorKind,
		})
	}
	return t
}
