package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"gaia-relay/llamagate/pkg/cli"
	"gaia-relay/llamagate/pkg/config"
	"gaia-relay/llamagate/pkg/journal"
	"gaia-relay/llamagate/pkg/journal/storage"
	"gaia-relay/llamagate/pkg/relay"
	"gaia-relay/llamagate/pkg/server"
	"gaia-relay/llamagate/pkg/telemetry/health"
	"gaia-relay/llamagate/pkg/telemetry/logging"
	"gaia-relay/llamagate/pkg/telemetry/metrics"
	"gaia-relay/llamagate/pkg/telemetry/tracing"
	"gaia-relay/llamagate/pkg/upstream"
)

// healthCheckTimeout bounds each readiness probe.
const healthCheckTimeout = 2 * time.Second

var runFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the forwarding server",
	Long: `Start the forwarding server with the specified configuration.

The server listens on the configured address (127.0.0.1:3000 by default)
and forwards POST /v1/chat/completions to the upstream endpoint.

Examples:
  # Start with defaults
  llamagate run

  # Start with custom config
  llamagate run --config /etc/llamagate/llamagate.yaml

  # Override listen address
  llamagate run --listen 127.0.0.1:8080

  # Validate config without starting server
  llamagate run --dry-run`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)
	addRunFlags(runCmd)
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	cmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	cmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting server")
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, path, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	// Apply flag overrides
	if runFlags.listenAddress != "" {
		cfg.Proxy.ListenAddress = runFlags.listenAddress
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}
	if err := config.Validate(cfg); err != nil {
		return cli.NewConfigError("config", err.Error())
	}

	logger, err := logging.New(logging.Config{
		Level:     cfg.Telemetry.Logging.Level,
		Format:    cfg.Telemetry.Logging.Format,
		AddSource: cfg.Telemetry.Logging.AddSource,
		Writer:    cmd.OutOrStdout(),
	})
	if err != nil {
		return cli.NewConfigError("telemetry.logging", err.Error())
	}
	slog.SetDefault(logger)

	if runFlags.dryRun {
		fmt.Fprintln(cmd.OutOrStdout(), "✓ Configuration valid")
		return nil
	}

	ctx, stop := cli.SetupSignalHandler(cmd.Context())
	defer stop()

	if err := serve(ctx, cfg, path, logger, cmd.OutOrStdout()); err != nil {
		return cli.NewCommandError("run", err)
	}
	return nil
}

// serve wires the components described by cfg and blocks until ctx is
// cancelled or a listener fails.
func serve(ctx context.Context, cfg *config.Config, path string, logger *slog.Logger, stdout io.Writer) error {
	logger.Info("starting llamagate",
		"version", Version,
		"config", configSource(path),
		"upstream", cfg.Upstream.URL,
	)

	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, prometheus.NewRegistry())

	tracer, err := tracing.New(&cfg.Telemetry.Tracing, Version)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Proxy.ShutdownTimeout)
		defer cancel()
		if err := tracer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("tracer shutdown failed", "error", err)
		}
	}()

	client := upstream.New(upstream.ConfigFrom(cfg.Upstream),
		upstream.WithLogger(logger),
		upstream.WithHealthObserver(collector.UpdateUpstreamHealth),
	)
	defer client.Close()

	checker := health.New(healthCheckTimeout)
	checker.RegisterCheck("upstream", client.HealthCheck)

	opts := []relay.Option{
		relay.WithLogger(logger),
		relay.WithMetrics(collector),
		relay.WithTracer(tracer),
		relay.WithMaxRequestBytes(cfg.Proxy.MaxRequestBytes),
	}

	var scheduler *journal.Scheduler
	if cfg.Journal.Enabled {
		store, err := storage.Open(cfg.Journal, logger)
		if err != nil {
			return fmt.Errorf("failed to open journal: %w", err)
		}
		defer store.Close()

		if pinger, ok := store.(interface{ Ping(context.Context) error }); ok {
			checker.RegisterCheck("journal", pinger.Ping)
		}

		recorder := journal.NewRecorder(store, journal.RecorderConfig{
			AsyncBuffer:  cfg.Journal.AsyncBuffer,
			WriteTimeout: cfg.Journal.WriteTimeout,
		}, journal.WithObserver(collector), journal.WithLogger(logger))
		defer recorder.Close()
		opts = append(opts, relay.WithJournal(recorder))

		scheduler = journal.NewScheduler(journal.NewPruner(store, retentionConfig(cfg.Journal), collector, logger))
		logger.Info("journal enabled", "backend", cfg.Journal.Backend)
	}

	forwarder := relay.New(client, relay.SettingsFrom(cfg), opts...)

	// Everything that can fail is built before the first goroutine starts.
	var watcher *config.Watcher
	if cfg.Proxy.WatchConfig && path != "" {
		if watcher, err = config.NewWatcher(path, logger); err != nil {
			return fmt.Errorf("failed to watch config: %w", err)
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	srv := server.NewServer(&cfg.Proxy, forwarder,
		server.WithLogger(logger),
		server.WithStartupWriter(stdout),
	)
	g.Go(func() error { return srv.Start(gctx) })

	if addr := cfg.Telemetry.AdminAddress; addr != "" {
		info := health.VersionInfo{Version: Version, Commit: GitCommit, BuildTime: BuildDate}
		admin := server.NewAdminServer(addr,
			server.AdminRoutes(collector, cfg.Telemetry.Metrics.Path, checker, info),
			cfg.Proxy.ShutdownTimeout,
			server.WithLogger(logger),
		)
		g.Go(func() error { return admin.Start(gctx) })
	}

	if scheduler != nil {
		g.Go(func() error {
			if err := scheduler.Start(gctx); err != nil {
				return err
			}
			if next := scheduler.NextRun(); next != nil {
				logger.Debug("next journal prune", "at", next)
			}
			return nil
		})
	}

	if watcher != nil {
		g.Go(func() error {
			return watcher.Watch(gctx, func(next *config.Config) {
				forwarder.Update(relay.SettingsFrom(next))
				client.SetTimeout(next.Upstream.Timeout)
			})
		})
	}

	err = g.Wait()
	logger.Info("llamagate stopped")
	return err
}

func retentionConfig(cfg config.JournalConfig) journal.RetentionConfig {
	return journal.RetentionConfig{
		Days:          cfg.Retention.Days,
		MaxRecords:    cfg.Retention.MaxRecords,
		PruneSchedule: cfg.Retention.PruneSchedule,
	}
}

func configSource(path string) string {
	if path == "" {
		return "defaults"
	}
	return path
}
