package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"gruncellka/porto/pkg/config"
	"gruncellka/porto/pkg/integrity/report"
)

// Collector gathers the Prometheus metrics of validation runs. It satisfies
// integrity.Recorder, so a validator reports into it directly.
//
// A validation run is a short batch process, so nothing is served: after
// the run the collected metrics are written to a node-exporter textfile
// with WriteTextfile.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	loadMetrics *LoadMetrics
	runMetrics  *RunMetrics
}

// NewCollector creates a new metrics collector with the specified configuration
// and Prometheus registry. If registry is nil, a fresh registry is used.
//
// Example:
//
//	cfg := &config.MetricsConfig{
//		Enabled:   true,
//		Namespace: "porto",
//	}
//	collector := metrics.NewCollector(cfg, nil)
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	c := *cfg
	if c.Namespace == "" {
		c.Namespace = config.DefaultMetricsNamespace
	}
	cfg = &c

	return &Collector{
		config:      cfg,
		registry:    registry,
		loadMetrics: NewLoadMetrics(cfg, registry),
		runMetrics:  NewRunMetrics(cfg, registry),
	}
}

// ObserveLoad records how long a file took to load and whether it parsed.
func (c *Collector) ObserveLoad(file string, duration time.Duration, err error) {
	if !c.config.Enabled {
		return
	}
	c.loadMetrics.RecordLoad(file, duration, err)
}

// ObserveRun records the outcome of a finished validation run.
func (c *Collector) ObserveRun(r report.Report, duration time.Duration) {
	if !c.config.Enabled {
		return
	}
	c.runMetrics.RecordRun(r, duration, time.Now())
}

// Registry returns the registry the metrics are registered with.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// WriteTextfile writes every collected metric to path in the text
// exposition format. The file is replaced atomically.
func (c *Collector) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile %q: %w", path, err)
	}
	return nil
}
