package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"gruncellka/porto/pkg/cli"
	"gruncellka/porto/pkg/history"
)

var historyFlags struct {
	limit  int
	path   string
	format string
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List archived validation runs",
	Long: `List the run summaries archived by "porto validate --record",
newest first.

Examples:
  # Last 20 runs
  porto history

  # Every archived run as CSV
  porto history --limit 0 --format csv`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().IntVar(&historyFlags.limit, "limit", 20, "maximum number of runs (0 for all)")
	historyCmd.Flags().StringVar(&historyFlags.path, "db", "", "history database (uses config if not specified)")
	historyCmd.Flags().StringVar(&historyFlags.format, "format", "text", "output format: text, json, csv")
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	format, err := cli.ParseFormat(historyFlags.format)
	if err != nil {
		return err
	}
	if historyFlags.limit < 0 {
		return cli.NewConfigError("limit", "must not be negative")
	}

	path := cfg.History.Path
	if cmd.Flags().Changed("db") {
		path = historyFlags.path
	}

	// Opening creates the database; a missing archive simply has no runs.
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), cli.HistoryView{})
	}

	store, err := history.Open(history.Config{Path: path, BusyTimeout: cfg.History.BusyTimeout})
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}
	defer store.Close()

	runs, err := store.List(cmd.Context(), historyFlags.limit)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}
	return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), cli.HistoryView(runs))
}
