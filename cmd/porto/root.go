package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"gruncellka/porto/pkg/cli"
	"gruncellka/porto/pkg/config"
	"gruncellka/porto/pkg/telemetry/logging"
)

// defaultConfigFile is read when --config is not given and it exists.
const defaultConfigFile = "porto.yaml"

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "porto",
	Short: "Porto - referential integrity checks for postal tariff data",
	Long: `Porto validates a postal tariff dataset: a directory of JSON files
and the data_links.json manifest describing how they relate.

It checks that:
  - every cross-file reference resolves
  - every declared route has an effective price and every priced route is declared
  - file dependencies are acyclic and cover every data file
  - units agree wherever a quantity is stated twice

All problems are reported in one run.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits with its status.
func Execute() {
	ctx, stop := cli.SetupSignalHandler(context.Background())
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		var failed *cli.ValidationFailedError
		if !errors.As(err, &failed) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
	}
	os.Exit(cli.ExitCode(err))
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (default: ./porto.yaml when present)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// loadConfig reads the configuration file, defaults and environment.
func loadConfig() (*config.Config, error) {
	path := cfgFile
	if path == "" {
		if _, err := os.Stat(defaultConfigFile); err == nil {
			path = defaultConfigFile
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, cli.NewConfigError("config", err.Error())
		}
	}

	cfg, err := config.LoadConfigWithEnvOverrides(path)
	if err != nil {
		return nil, cli.NewConfigError("config", err.Error())
	}
	return cfg, nil
}

// newLogger builds the logger described by cfg; --verbose forces debug.
func newLogger(cmd *cobra.Command, cfg *config.Config) (*slog.Logger, error) {
	lc := logging.Config{
		Level:     cfg.Telemetry.Logging.Level,
		Format:    cfg.Telemetry.Logging.Format,
		AddSource: cfg.Telemetry.Logging.AddSource,
		Writer:    cmd.ErrOrStderr(),
	}
	if verbose {
		lc.Level = "debug"
	}
	logger, err := logging.New(lc)
	if err != nil {
		return nil, cli.NewConfigError("telemetry.logging", err.Error())
	}
	return logger, nil
}
