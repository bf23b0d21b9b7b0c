// Package metrics provides Prometheus metrics for porto validation runs.
//
// # Metrics Categories
//
//   - Loader Metrics: per-file load duration and outcome
//   - Run Metrics: run results, duration, and findings by kind and severity
//
// # Usage
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//
//	v, _ := integrity.NewValidator(vcfg, integrity.WithRecorder(collector))
//	rep, err := v.Validate(ctx)
//
//	// Hand the results to node-exporter's textfile collector.
//	if err := collector.WriteTextfile("/var/lib/node_exporter/porto.prom"); err != nil {
//		return err
//	}
//
// When the configuration disables metrics the collector records nothing,
// so callers may wire it unconditionally.
package metrics
