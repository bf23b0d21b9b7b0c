// Package telemetry groups the observability packages of porto.
//
//   - logging: structured slog logging with run-scoped fields
//   - metrics: Prometheus run metrics written to a node-exporter textfile
package telemetry
