/*
Package cli provides command-line interface utilities for porto.

Output Formatting:

Command results are written in text, JSON or CSV:

	formatter := cli.NewFormatter(cli.FormatJSON)
	if err := formatter.FormatTo(os.Stdout, cli.ReportView(rep)); err != nil {
		return err
	}

Results opt into text and CSV rendering by implementing TextWriter and
Tabular.

Errors and Exit Codes:

Commands return ConfigError for bad flags or configuration, CommandError
for failures of a step, and ValidationFailedError when a report did not
pass. ExitCode maps them to the process exit status.

Signal Handling:

	ctx, stop := cli.SetupSignalHandler(context.Background())
	defer stop()
*/
package cli
