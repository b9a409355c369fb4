/*
Package cli provides command-line helpers for the relay binary.

Output Formatting:

Command results can be printed as text, JSON or CSV:

	formatter := cli.NewFormatter(cli.FormatJSON)
	if err := formatter.FormatTo(os.Stdout, cli.StatsView{StatsResponse: resp}); err != nil {
		return err
	}

Results implement TextRenderer for a human-readable form and Table for CSV.

Signal Handling:

For graceful shutdown on SIGINT/SIGTERM:

	ctx, stop := cli.SetupSignalHandler(context.Background())
	defer stop()

ReloadSignal delivers SIGHUP, which asks the relay to reload its
configuration file.

Errors:

ConfigError and CommandError wrap failures for reporting; ExitCode maps them
to the process exit status.
*/
package cli
