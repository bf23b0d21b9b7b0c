package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"gruncellka/porto/pkg/config"
)

// Load status label values.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// LoadMetrics tracks the loading of individual data files.
//
// Metrics:
//   - porto_loader_file_load_duration_seconds: Time to read and decode a file
//   - porto_loader_file_loads_total: File loads by file and status
type LoadMetrics struct {
	loadDuration *prometheus.HistogramVec
	loadsTotal   *prometheus.CounterVec
}

// NewLoadMetrics creates and registers loader metrics with the provided registry.
func NewLoadMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *LoadMetrics {
	lm := &LoadMetrics{
		loadDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: "loader",
				Name:      "file_load_duration_seconds",
				Help:      "Duration of reading and decoding one data file in seconds",
				// Data files are small; most load in well under a second.
				Buckets: prometheus.ExponentialBuckets(0.0001, 4, 9), // 100µs to 6.5s
			},
			[]string{"file"},
		),

		loadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "loader",
				Name:      "file_loads_total",
				Help:      "Total number of data file loads by outcome",
			},
			[]string{"file", "status"},
		),
	}

	registry.MustRegister(lm.loadDuration, lm.loadsTotal)

	return lm
}

// RecordLoad records one file load. A non-nil err marks the load failed.
func (lm *LoadMetrics) RecordLoad(file string, duration time.Duration, err error) {
	status := StatusOK
	if err != nil {
		status = StatusFailed
	}
	lm.loadDuration.WithLabelValues(file).Observe(duration.Seconds())
	lm.loadsTotal.WithLabelValues(file, status).Inc()
}
