package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"gruncellka/porto/pkg/config"
	"gruncellka/porto/pkg/integrity/findings"
	"gruncellka/porto/pkg/integrity/report"
)

// Run result label values.
const (
	ResultPassed = "passed"
	ResultFailed = "failed"
)

// RunMetrics tracks whole validation runs.
//
// Metrics:
//   - porto_validation_runs_total: Runs by result
//   - porto_validation_findings_total: Findings by kind and severity
//   - porto_validation_run_duration_seconds: End-to-end run duration
//   - porto_validation_last_run_passed: 1 if the last run passed, else 0
//   - porto_validation_last_run_timestamp_seconds: Unix time the last run finished
type RunMetrics struct {
	runsTotal     *prometheus.CounterVec
	findingsTotal *prometheus.CounterVec
	runDuration   prometheus.Histogram
	lastPassed    prometheus.Gauge
	lastRunTime   prometheus.Gauge
}

// NewRunMetrics creates and registers run metrics with the provided registry.
func NewRunMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *RunMetrics {
	rm := &RunMetrics{
		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "validation",
				Name:      "runs_total",
				Help:      "Total number of validation runs by result",
			},
			[]string{"result"},
		),

		findingsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "validation",
				Name:      "findings_total",
				Help:      "Total number of reported findings by kind and severity",
			},
			[]string{"kind", "severity"},
		),

		runDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: "validation",
				Name:      "run_duration_seconds",
				Help:      "Duration of a validation run in seconds",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
			},
		),

		lastPassed: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: "validation",
				Name:      "last_run_passed",
				Help:      "Whether the last validation run passed (1) or failed (0)",
			},
		),

		lastRunTime: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: "validation",
				Name:      "last_run_timestamp_seconds",
				Help:      "Unix time the last validation run finished",
			},
		),
	}

	registry.MustRegister(
		rm.runsTotal,
		rm.findingsTotal,
		rm.runDuration,
		rm.lastPassed,
		rm.lastRunTime,
	)

	return rm
}

// RecordRun records a finished run and every finding in its report.
func (rm *RunMetrics) RecordRun(r report.Report, duration time.Duration, finished time.Time) {
	result := ResultFailed
	passed := 0.0
	if r.Passed {
		result = ResultPassed
		passed = 1
	}

	rm.runsTotal.WithLabelValues(result).Inc()
	rm.runDuration.Observe(duration.Seconds())
	rm.lastPassed.Set(passed)
	rm.lastRunTime.Set(float64(finished.Unix()))

	rm.recordFindings(r.Errors)
	rm.recordFindings(r.Notices)
}

func (rm *RunMetrics) recordFindings(list []findings.Finding) {
	for _, f := range list {
		rm.findingsTotal.WithLabelValues(string(f.Kind), string(f.Severity)).Inc()
	}
}
