package config

import (
	"time"

	"gruncellka/porto/pkg/integrity/model"
)

// Default values for configuration fields.
const (
	// Data defaults
	DefaultDataDir = "data"

	// Validation defaults
	DefaultLoadTimeout = 30 * time.Second

	// Schema defaults
	DefaultSchemaTimeout = 60 * time.Second

	// Logging defaults
	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"

	// Metrics defaults
	DefaultMetricsNamespace = "porto"

	// History defaults
	DefaultHistoryPath        = "porto-history.db"
	DefaultHistoryBusyTimeout = 5 * time.Second
)

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills unset fields with their default values. Fields that
// are already set are left unchanged.
func ApplyDefaults(cfg *Config) {
	applyDataDefaults(&cfg.Data)
	applyValidationDefaults(&cfg.Validation)
	applySchemaDefaults(&cfg.Schema)
	applyTelemetryDefaults(&cfg.Telemetry)
	applyHistoryDefaults(&cfg.History)
}

func applyDataDefaults(cfg *DataConfig) {
	if cfg.Dir == "" {
		cfg.Dir = DefaultDataDir
	}
}

func applyValidationDefaults(cfg *ValidationConfig) {
	if cfg.LoadTimeout == 0 {
		cfg.LoadTimeout = DefaultLoadTimeout
	}

	u := &cfg.ExpectedUnits
	if u.Weight == "" {
		u.Weight = model.DefaultExpectedUnits.Weight
	}
	if u.Dimension == "" {
		u.Dimension = model.DefaultExpectedUnits.Dimension
	}
	if u.Price == "" {
		u.Price = model.DefaultExpectedUnits.Price
	}
	if u.Currency == "" {
		u.Currency = model.DefaultExpectedUnits.Currency
	}
}

func applySchemaDefaults(cfg *SchemaConfig) {
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultSchemaTimeout
	}
}

func applyTelemetryDefaults(cfg *TelemetryConfig) {
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = DefaultLogLevel
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = DefaultLogFormat
	}
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}
}

func applyHistoryDefaults(cfg *HistoryConfig) {
	if cfg.Path == "" {
		cfg.Path = DefaultHistoryPath
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = DefaultHistoryBusyTimeout
	}
}
