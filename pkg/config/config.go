package config

import (
	"fmt"
	"time"

	"gruncellka/porto/pkg/dataset"
)

// Config is the root configuration structure for porto.
// It contains the sections for the dataset location, the validation run,
// the external schema command, telemetry, and the run history archive.
type Config struct {
	// Data locates the dataset: the directory, optional file name overrides,
	// and the auxiliary mappings and metadata files.
	Data DataConfig `yaml:"data"`

	// Validation contains the settings of the integrity checks.
	Validation ValidationConfig `yaml:"validation"`

	// Schema configures the external JSON Schema validation step.
	Schema SchemaConfig `yaml:"schema"`

	// Telemetry contains configuration for logging and metrics.
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// History configures the SQLite archive of past run summaries.
	History HistoryConfig `yaml:"history"`
}

// DataConfig locates the dataset on disk.
type DataConfig struct {
	// Dir is the directory holding the data files and data_links.json.
	// Default: "data"
	Dir string `yaml:"dir" validate:"required"`

	// Files overrides the file name of an entity kind. Keys are kind names
	// ("products", "prices", "data_links", ...), values are file names.
	// Kinds not listed use "<kind>.json".
	Files map[string]string `yaml:"files"`

	// MappingsFile is an optional schema-to-data mappings document. When
	// set, the file registry is derived from it and Files must be empty.
	MappingsFile string `yaml:"mappings_file"`

	// MetadataFile is the optional metadata document with recorded
	// checksums. Stale checksums are reported as notices in analysis mode.
	MetadataFile string `yaml:"metadata_file"`
}

// ValidationConfig contains the settings of the integrity checks.
type ValidationConfig struct {
	// LoadTimeout bounds reading and parsing all files. Zero disables the
	// bound.
	// Default: 30s
	LoadTimeout time.Duration `yaml:"load_timeout" validate:"gte=0"`

	// AsOf is the day prices and services are evaluated on, as YYYY-MM-DD.
	// Empty means the current UTC day.
	AsOf string `yaml:"as_of" validate:"omitempty,datetime=2006-01-02"`

	// AllowSupplementalRoutes accepts priced routes that are not declared in
	// the manifest links. The manifest may enable this too.
	// Default: false
	AllowSupplementalRoutes bool `yaml:"allow_supplemental_routes"`

	// Analyze keeps informational notices in the report.
	// Default: false
	Analyze bool `yaml:"analyze"`

	// ExpectedUnits are the units the dataset is expected to use. Files
	// that consistently use other units are noted in analysis mode.
	// Default: g, mm, cents, EUR
	ExpectedUnits dataset.UnitDecl `yaml:"expected_units"`
}

// SchemaConfig configures the external JSON Schema validation step.
type SchemaConfig struct {
	// Command is the program and arguments run by "validate --type schema".
	// It runs in the data directory. Empty disables the schema step.
	Command []string `yaml:"command"`

	// Timeout bounds the schema command.
	// Default: 60s
	Timeout time.Duration `yaml:"timeout" validate:"gte=0"`
}

// TelemetryConfig contains configuration for observability.
type TelemetryConfig struct {
	// Logging configures the structured logger.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics configures the Prometheus run metrics.
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, or error.
	// Default: "info"
	Level string `yaml:"level" validate:"oneof=debug info warn error"`

	// Format is the log output format: json, text, or console.
	// Default: "text"
	Format string `yaml:"format" validate:"oneof=json text console"`

	// AddSource adds the source file and line to each record.
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig configures the Prometheus run metrics. Metrics of a batch
// run are written to a node-exporter textfile rather than served.
type MetricsConfig struct {
	// Enabled turns on metric collection.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Namespace prefixes every metric name.
	// Default: "porto"
	Namespace string `yaml:"namespace" validate:"required_if=Enabled true"`

	// Textfile is the path the metrics are written to after each run.
	Textfile string `yaml:"textfile"`
}

// HistoryConfig configures the SQLite archive of run summaries.
type HistoryConfig struct {
	// Enabled records every run in the archive.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Path is the SQLite database file.
	// Default: "porto-history.db"
	Path string `yaml:"path" validate:"required_if=Enabled true"`

	// BusyTimeout is how long a write waits for a locked database.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout" validate:"gte=0"`

	// Keep is the number of most recent runs retained. Zero keeps all.
	Keep int `yaml:"keep" validate:"gte=0"`
}

// Registry builds the file registry described by the data section.
func (c *Config) Registry() (*dataset.Registry, error) {
	if c.Data.MappingsFile != "" {
		return dataset.RegistryFromMappings(c.Data.MappingsFile)
	}
	reg, err := dataset.NewRegistry(c.Data.Files)
	if err != nil {
		return nil, fmt.Errorf("invalid data.files: %w", err)
	}
	return reg, nil
}

// AsOfDate returns the configured evaluation day. The zero Date means the
// current day.
func (c *Config) AsOfDate() (dataset.Date, error) {
	return dataset.ParseDate(c.Validation.AsOf)
}
