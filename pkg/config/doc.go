// Package config provides configuration for the porto validator.
//
// Configuration is read from an optional YAML file, completed with defaults
// and overridden from the environment. Every source is optional: with no
// file and no environment, the validator reads ./data.
//
// # Configuration Loading
//
//  1. From a YAML file only:
//     cfg, err := config.LoadConfig("porto.yaml")
//
//  2. From a YAML file with environment variable overrides:
//     cfg, err := config.LoadConfigWithEnvOverrides("porto.yaml")
//
//  3. From defaults and the environment only:
//     cfg, err := config.LoadConfigWithEnvOverrides("")
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention PORTO_SECTION_FIELD:
//
//   - PORTO_DATA_DIR overrides data.dir
//   - PORTO_VALIDATION_AS_OF overrides validation.as_of
//   - PORTO_TELEMETRY_LOGGING_LEVEL overrides telemetry.logging.level
//   - PORTO_SCHEMA_COMMAND overrides schema.command (split on whitespace)
//
// # Configuration Precedence
//
//  1. Default values (defined in defaults.go)
//  2. Values from YAML file
//  3. Environment variable overrides
//  4. Validation (fails fast if invalid)
//
// Command-line flags are applied by the caller after loading.
//
// # Validation
//
// Field rules are declared as struct tags and checked with
// go-playground/validator; cross-field rules such as the file registry are
// checked by hand. All failures are collected into one ValidationError:
//
//	configuration validation failed with 2 errors:
//	  - telemetry.logging.level: must be one of: debug, info, warn, error
//	  - validation.as_of: must be a date in YYYY-MM-DD format
//
// # Example Configuration
//
//	data:
//	  dir: "data"
//	  metadata_file: "metadata.json"
//
//	validation:
//	  load_timeout: 10s
//	  analyze: true
//
//	schema:
//	  command: ["check-jsonschema", "--schemafile", "schemas/products.schema.json", "products.json"]
//
//	telemetry:
//	  logging:
//	    level: "info"
//	    format: "json"
//	  metrics:
//	    enabled: true
//	    textfile: "/var/lib/node_exporter/porto.prom"
//
//	history:
//	  enabled: true
//	  path: "porto-history.db"
package config
