package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gruncellka/porto/pkg/config"
	"gruncellka/porto/pkg/integrity/findings"
	"gruncellka/porto/pkg/integrity/report"
)

func testConfig() *config.MetricsConfig {
	return &config.MetricsConfig{
		Enabled:   true,
		Namespace: "test",
	}
}

func failingReport() report.Report {
	return report.Report{
		Passed: false,
		Errors: []findings.Finding{
			{Kind: findings.KindMissingPrice, Severity: findings.SeverityError, File: "prices.json"},
			{Kind: findings.KindMissingPrice, Severity: findings.SeverityError, File: "prices.json", ID: "b"},
			{Kind: findings.KindUnitMismatch, Severity: findings.SeverityError, File: "products.json"},
		},
		Notices: []findings.Finding{
			{Kind: findings.KindUnusedFeature, Severity: findings.SeverityNotice, File: "features.json"},
		},
	}
}

func TestCollector_NewCollector(t *testing.T) {
	registry := prometheus.NewRegistry()
	collector := NewCollector(&config.MetricsConfig{Enabled: true}, registry)

	require.NotNil(t, collector)
	assert.Same(t, registry, collector.Registry())
	assert.Equal(t, config.DefaultMetricsNamespace, collector.config.Namespace)
}

func TestCollector_NewCollectorLeavesConfigUntouched(t *testing.T) {
	cfg := &config.MetricsConfig{Enabled: true}
	registry := prometheus.NewRegistry()
	collector := NewCollector(cfg, registry)

	assert.Empty(t, cfg.Namespace)

	collector.ObserveLoad("products.json", time.Millisecond, nil)
	families, err := registry.Gather()
	require.NoError(t, err)
	require.NotEmpty(t, families)
	for _, mf := range families {
		assert.True(t, strings.HasPrefix(mf.GetName(), config.DefaultMetricsNamespace+"_"), mf.GetName())
	}
}

func TestCollector_ObserveRun(t *testing.T) {
	collector := NewCollector(testConfig(), nil)

	collector.ObserveRun(failingReport(), 250*time.Millisecond)

	rm := collector.runMetrics
	assert.Equal(t, 1.0, testutil.ToFloat64(rm.runsTotal.WithLabelValues(ResultFailed)))
	assert.Equal(t, 0.0, testutil.ToFloat64(rm.runsTotal.WithLabelValues(ResultPassed)))
	assert.Equal(t, 2.0, testutil.ToFloat64(rm.findingsTotal.WithLabelValues(string(findings.KindMissingPrice), "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(rm.findingsTotal.WithLabelValues(string(findings.KindUnitMismatch), "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(rm.findingsTotal.WithLabelValues(string(findings.KindUnusedFeature), "notice")))
	assert.Equal(t, 0.0, testutil.ToFloat64(rm.lastPassed))
	assert.Greater(t, testutil.ToFloat64(rm.lastRunTime), 0.0)

	collector.ObserveRun(report.Report{Passed: true}, time.Second)
	assert.Equal(t, 1.0, testutil.ToFloat64(rm.runsTotal.WithLabelValues(ResultPassed)))
	assert.Equal(t, 1.0, testutil.ToFloat64(rm.lastPassed))
}

func TestCollector_ObserveLoad(t *testing.T) {
	collector := NewCollector(testConfig(), nil)

	collector.ObserveLoad("products.json", 2*time.Millisecond, nil)
	collector.ObserveLoad("prices.json", time.Millisecond, errors.New("unexpected end of JSON input"))

	lm := collector.loadMetrics
	assert.Equal(t, 1.0, testutil.ToFloat64(lm.loadsTotal.WithLabelValues("products.json", StatusOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(lm.loadsTotal.WithLabelValues("prices.json", StatusFailed)))
	assert.Equal(t, 2, testutil.CollectAndCount(lm.loadDuration))
}

func TestCollector_Disabled(t *testing.T) {
	collector := NewCollector(&config.MetricsConfig{Enabled: false, Namespace: "test"}, nil)

	collector.ObserveRun(failingReport(), time.Second)
	collector.ObserveLoad("products.json", time.Millisecond, nil)

	assert.Equal(t, 0, testutil.CollectAndCount(collector.runMetrics.findingsTotal))
	assert.Equal(t, 0, testutil.CollectAndCount(collector.loadMetrics.loadsTotal))
}

func TestCollector_WriteTextfile(t *testing.T) {
	collector := NewCollector(testConfig(), nil)
	collector.ObserveRun(failingReport(), 100*time.Millisecond)

	path := filepath.Join(t.TempDir(), "porto.prom")
	require.NoError(t, collector.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, "test_validation_last_run_passed 0")
	assert.Contains(t, text, `test_validation_findings_total{kind="MissingPriceError",severity="error"} 2`)
	assert.True(t, strings.Contains(text, "# TYPE test_validation_run_duration_seconds histogram"))
}

func TestCollector_WriteTextfile_BadPath(t *testing.T) {
	collector := NewCollector(testConfig(), nil)
	err := collector.WriteTextfile(filepath.Join(t.TempDir(), "missing", "dir", "porto.prom"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to write metrics textfile")
}
