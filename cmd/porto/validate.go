package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"gruncellka/porto/pkg/cli"
	"gruncellka/porto/pkg/config"
	"gruncellka/porto/pkg/dataset"
	"gruncellka/porto/pkg/history"
	"gruncellka/porto/pkg/integrity"
	"gruncellka/porto/pkg/integrity/model"
	"gruncellka/porto/pkg/telemetry/logging"
	"gruncellka/porto/pkg/telemetry/metrics"
)

// Validation steps selected with --type.
const (
	stepSchema = "schema"
	stepLinks  = "links"
)

var errNoSchemaCommand = errors.New("no schema command configured (schema.command)")

var validateFlags struct {
	typ               string
	analyze           bool
	dataDir           string
	format            string
	asOf              string
	timeout           time.Duration
	metricsFile       string
	record            bool
	allowSupplemental bool
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the dataset",
	Long: `Validate the dataset in the data directory.

Two steps are available:
  schema  runs the configured JSON Schema command in the data directory
  links   checks references, prices, dependencies and units across files

Without --type the schema step runs first when a command is configured,
then the link checks. A failing step ends the run with exit status 1.

Examples:
  # Link checks only
  porto validate --type links

  # Link checks with notices, evaluated on a fixed day
  porto validate --type links --analyze --as-of 2025-01-01

  # Machine-readable report
  porto validate --type links --format json

  # Archive the run and write Prometheus metrics
  porto validate --record --metrics-file /var/lib/node_exporter/porto.prom`,
	Args: cobra.NoArgs,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVar(&validateFlags.typ, "type", "", "validation step: schema, links (default: both)")
	validateCmd.Flags().BoolVar(&validateFlags.analyze, "analyze", false, "include informational notices")
	validateCmd.Flags().StringVar(&validateFlags.dataDir, "data-dir", "", "data directory (uses config if not specified)")
	validateCmd.Flags().StringVar(&validateFlags.format, "format", "text", "output format: text, json, csv")
	validateCmd.Flags().StringVar(&validateFlags.asOf, "as-of", "", "evaluation day as YYYY-MM-DD (default: today, UTC)")
	validateCmd.Flags().DurationVar(&validateFlags.timeout, "timeout", 0, "load timeout (uses config if not specified)")
	validateCmd.Flags().StringVar(&validateFlags.metricsFile, "metrics-file", "", "write Prometheus metrics to this textfile")
	validateCmd.Flags().BoolVar(&validateFlags.record, "record", false, "archive the run summary in the history database")
	validateCmd.Flags().BoolVar(&validateFlags.allowSupplemental, "allow-supplemental-routes", false, "accept priced routes not declared in the manifest")
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := applyValidateFlags(cmd, cfg); err != nil {
		return err
	}

	format, err := cli.ParseFormat(validateFlags.format)
	if err != nil {
		return err
	}

	logger, err := newLogger(cmd, cfg)
	if err != nil {
		return err
	}

	ctx := logging.WithRunID(cmd.Context(), logging.NewRunID())
	ctx = logging.WithCommand(ctx, "validate")

	switch validateFlags.typ {
	case stepSchema:
		return runSchema(ctx, cmd, cfg, logger, true)
	case stepLinks:
		return runLinks(ctx, cmd, cfg, logger, format)
	case "":
		if err := runSchema(ctx, cmd, cfg, logger, false); err != nil {
			return err
		}
		return runLinks(ctx, cmd, cfg, logger, format)
	default:
		return cli.NewConfigError("type", fmt.Sprintf("unknown validation step %q (want schema or links)", validateFlags.typ))
	}
}

// applyValidateFlags overrides configuration with the flags that were set.
func applyValidateFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()

	if flags.Changed("data-dir") {
		cfg.Data.Dir = validateFlags.dataDir
	}
	if flags.Changed("analyze") {
		cfg.Validation.Analyze = validateFlags.analyze
	}
	if flags.Changed("allow-supplemental-routes") {
		cfg.Validation.AllowSupplementalRoutes = validateFlags.allowSupplemental
	}
	if flags.Changed("as-of") {
		if _, err := dataset.ParseDate(validateFlags.asOf); err != nil {
			return cli.NewConfigError("as-of", err.Error())
		}
		cfg.Validation.AsOf = validateFlags.asOf
	}
	if flags.Changed("timeout") {
		if validateFlags.timeout < 0 {
			return cli.NewConfigError("timeout", "must not be negative")
		}
		cfg.Validation.LoadTimeout = validateFlags.timeout
	}
	if flags.Changed("metrics-file") {
		cfg.Telemetry.Metrics.Enabled = true
		cfg.Telemetry.Metrics.Textfile = validateFlags.metricsFile
	}
	if flags.Changed("record") {
		cfg.History.Enabled = validateFlags.record
	}

	if cfg.Data.Dir == "" {
		return cli.NewConfigError("data-dir", "data directory is required")
	}
	return nil
}

// runSchema runs the external schema command in the data directory. When
// required is false a missing command skips the step.
func runSchema(ctx context.Context, cmd *cobra.Command, cfg *config.Config, logger *slog.Logger, required bool) error {
	if len(cfg.Schema.Command) == 0 {
		if required {
			return cli.NewCommandError(stepSchema, errNoSchemaCommand)
		}
		logger.InfoContext(ctx, "schema validation skipped", "reason", "no schema.command configured")
		return nil
	}

	if cfg.Schema.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Schema.Timeout)
		defer cancel()
	}

	program := cfg.Schema.Command
	c := exec.CommandContext(ctx, program[0], program[1:]...)
	c.Dir = cfg.Data.Dir
	c.Stdout = cmd.OutOrStdout()
	c.Stderr = cmd.ErrOrStderr()

	logger.InfoContext(ctx, "running schema validation",
		"command", strings.Join(program, " "),
		"dir", cfg.Data.Dir,
	)
	start := time.Now()
	if err := c.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("timed out after %s: %w", cfg.Schema.Timeout, err)
		}
		logger.ErrorContext(ctx, "schema validation failed", "error", err)
		return cli.NewCommandError(stepSchema, err)
	}
	logger.InfoContext(ctx, "schema validation passed", "duration", time.Since(start))
	return nil
}

// runLinks runs the integrity checks, prints the report, and exports the
// run to the metrics textfile and the history archive when enabled.
func runLinks(ctx context.Context, cmd *cobra.Command, cfg *config.Config, logger *slog.Logger, format cli.OutputFormat) error {
	reg, err := cfg.Registry()
	if err != nil {
		return cli.NewConfigError("data", err.Error())
	}
	asOf, err := cfg.AsOfDate()
	if err != nil {
		return cli.NewConfigError("validation.as_of", err.Error())
	}
	if asOf.IsZero() {
		asOf = dataset.DateOf(time.Now())
	}

	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
	v, err := integrity.NewValidator(integrity.Config{
		DataDir:      cfg.Data.Dir,
		Registry:     reg,
		LoadTimeout:  cfg.Validation.LoadTimeout,
		Analyze:      cfg.Validation.Analyze,
		MetadataFile: cfg.Data.MetadataFile,
		Options: model.Options{
			AsOf:                    asOf,
			AllowSupplementalRoutes: cfg.Validation.AllowSupplementalRoutes,
			ExpectedUnits:           cfg.Validation.ExpectedUnits,
		},
	}, integrity.WithLogger(logger), integrity.WithRecorder(collector))
	if err != nil {
		return cli.NewConfigError("data", err.Error())
	}

	started := time.Now()
	rep, err := v.Validate(ctx)
	if err != nil {
		return fmt.Errorf("links validation: %w", err)
	}
	duration := time.Since(started)

	if err := cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), cli.ReportView(rep)); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	if cfg.Telemetry.Metrics.Enabled && cfg.Telemetry.Metrics.Textfile != "" {
		if err := collector.WriteTextfile(cfg.Telemetry.Metrics.Textfile); err != nil {
			logger.WarnContext(ctx, "metrics not written", "error", err)
		}
	}

	if cfg.History.Enabled {
		run := history.NewRun(logging.GetRunID(ctx), cfg.Data.Dir, asOf.String(), started, duration, rep)
		if err := recordRun(ctx, &cfg.History, run); err != nil {
			logger.WarnContext(ctx, "run not archived", "error", err)
		} else {
			logger.DebugContext(ctx, "run archived", "path", cfg.History.Path)
		}
	}

	if !rep.Passed {
		return &cli.ValidationFailedError{Step: stepLinks, Errors: rep.ErrorCount()}
	}
	return nil
}

func recordRun(ctx context.Context, cfg *config.HistoryConfig, run history.Run) error {
	store, err := history.Open(history.Config{
		Path:        cfg.Path,
		BusyTimeout: cfg.BusyTimeout,
		Keep:        cfg.Keep,
	})
	if err != nil {
		return err
	}
	defer store.Close()

	return store.Record(ctx, run)
}
