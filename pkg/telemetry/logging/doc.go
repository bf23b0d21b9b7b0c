// Package logging builds the structured logger used across porto.
//
// # Overview
//
// The logging package wraps Go's standard log/slog package to provide:
//   - JSON, text, and console output formats
//   - Configurable log levels (debug, info, warn, error)
//   - Run-scoped fields taken from the context
//
// # Usage
//
//	logger, err := logging.New(logging.Config{
//	    Level:  "info",
//	    Format: "json",
//	})
//
//	ctx = logging.WithRunID(ctx, logging.NewRunID())
//	logger.InfoContext(ctx, "validation finished", "passed", true)
//	// {"time":...,"level":"INFO","msg":"validation finished","passed":true,"run_id":"..."}
//
// Logs are written to stderr by default so that reports written to stdout
// stay machine-readable. Run IDs only appear in logs and the run history,
// never in a report.
package logging
