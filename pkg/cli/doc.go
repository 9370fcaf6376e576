/*
Package cli provides command-line helpers for the llamagate binary.

Output Formatting:

Journal listings can be printed as an aligned table, JSON or CSV. Results
implement Tabular to support the table and CSV forms:

	format, err := cli.ParseOutputFormat(flagValue)
	if err != nil {
		return err
	}
	if err := cli.NewFormatter(format).FormatTo(os.Stdout, entries); err != nil {
		return err
	}

Signal Handling:

For graceful shutdown on SIGINT/SIGTERM:

	ctx, stop := cli.SetupSignalHandler(context.Background())
	defer stop()

Errors:

ConfigError and CommandError classify failures; ExitCode turns them into
the process exit status.
*/
package cli
