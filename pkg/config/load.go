package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "PORTO_"

// LoadConfig loads configuration from a YAML file at the specified path.
// It applies default values, validates the configuration, and returns any errors.
// Environment variables are not consulted; use LoadConfigWithEnvOverrides
// for that.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Environment variables follow the naming
// convention PORTO_SECTION_FIELD (e.g., PORTO_DATA_DIR,
// PORTO_TELEMETRY_LOGGING_LEVEL) and take precedence over the file.
//
// The loading sequence is:
// 1. Load YAML from file
// 2. Apply default values
// 3. Apply environment variable overrides
// 4. Validate final configuration
//
// An empty path skips step 1.
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	var cfg *Config
	if path == "" {
		cfg = Default()
	} else {
		var err error
		if cfg, err = LoadConfig(path); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Values that do not parse are ignored.
func applyEnvOverrides(cfg *Config) {
	// Data overrides
	envString("DATA_DIR", &cfg.Data.Dir)
	envString("DATA_MAPPINGS_FILE", &cfg.Data.MappingsFile)
	envString("DATA_METADATA_FILE", &cfg.Data.MetadataFile)

	// Validation overrides
	envDuration("VALIDATION_LOAD_TIMEOUT", &cfg.Validation.LoadTimeout)
	envString("VALIDATION_AS_OF", &cfg.Validation.AsOf)
	envBool("VALIDATION_ALLOW_SUPPLEMENTAL_ROUTES", &cfg.Validation.AllowSupplementalRoutes)
	envBool("VALIDATION_ANALYZE", &cfg.Validation.Analyze)

	// Schema overrides
	if val := os.Getenv(EnvPrefix + "SCHEMA_COMMAND"); val != "" {
		cfg.Schema.Command = strings.Fields(val)
	}
	envDuration("SCHEMA_TIMEOUT", &cfg.Schema.Timeout)

	// Telemetry overrides
	envString("TELEMETRY_LOGGING_LEVEL", &cfg.Telemetry.Logging.Level)
	envString("TELEMETRY_LOGGING_FORMAT", &cfg.Telemetry.Logging.Format)
	envBool("TELEMETRY_LOGGING_ADD_SOURCE", &cfg.Telemetry.Logging.AddSource)
	envBool("TELEMETRY_METRICS_ENABLED", &cfg.Telemetry.Metrics.Enabled)
	envString("TELEMETRY_METRICS_NAMESPACE", &cfg.Telemetry.Metrics.Namespace)
	envString("TELEMETRY_METRICS_TEXTFILE", &cfg.Telemetry.Metrics.Textfile)

	// History overrides
	envBool("HISTORY_ENABLED", &cfg.History.Enabled)
	envString("HISTORY_PATH", &cfg.History.Path)
	envDuration("HISTORY_BUSY_TIMEOUT", &cfg.History.BusyTimeout)
	if val := os.Getenv(EnvPrefix + "HISTORY_KEEP"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.History.Keep = i
		}
	}
}

func envString(name string, dst *string) {
	if val := os.Getenv(EnvPrefix + name); val != "" {
		*dst = val
	}
}

func envBool(name string, dst *bool) {
	if val := os.Getenv(EnvPrefix + name); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			*dst = b
		}
	}
}

func envDuration(name string, dst *time.Duration) {
	if val := os.Getenv(EnvPrefix + name); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			*dst = d
		}
	}
}
