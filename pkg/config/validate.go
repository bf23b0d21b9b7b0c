package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"go.uber.org/multierr"

	"gruncellka/porto/pkg/dataset"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "data.dir").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
// It implements the error interface and provides access to all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

var (
	structValidator     *validator.Validate
	structValidatorOnce sync.Once
)

// fieldValidator returns the shared struct validator. Field names in its
// errors are the yaml keys.
func fieldValidator() *validator.Validate {
	structValidatorOnce.Do(func() {
		structValidator = validator.New(validator.WithRequiredStructEnabled())
		structValidator.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return structValidator
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. It returns nil if the configuration is valid.
// All validation errors are collected and returned together.
func Validate(cfg *Config) error {
	var err error

	err = multierr.Append(err, validateFields(cfg))
	err = multierr.Append(err, validateData(&cfg.Data))
	err = multierr.Append(err, validateSchema(&cfg.Schema))

	if err == nil {
		return nil
	}

	var out ValidationError
	for _, e := range multierr.Errors(err) {
		var fe FieldError
		if errors.As(e, &fe) {
			out.Errors = append(out.Errors, fe)
			continue
		}
		out.Errors = append(out.Errors, FieldError{Field: "config", Message: e.Error()})
	}
	return out
}

// validateFields runs the struct tag rules.
func validateFields(cfg *Config) error {
	err := fieldValidator().Struct(cfg)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	var result error
	for _, fe := range verrs {
		result = multierr.Append(result, FieldError{
			Field:   fieldPath(fe.Namespace()),
			Message: tagMessage(fe),
		})
	}
	return result
}

// fieldPath strips the root struct name from a validator namespace.
func fieldPath(namespace string) string {
	if i := strings.IndexByte(namespace, '.'); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}

func tagMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "required_if":
		return "is required when enabled"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", strings.ReplaceAll(fe.Param(), " ", ", "))
	case "datetime":
		return "must be a date in YYYY-MM-DD format"
	case "gte":
		return "must not be negative"
	default:
		return fmt.Sprintf("failed %q rule", fe.Tag())
	}
}

func validateData(cfg *DataConfig) error {
	var err error

	if cfg.MappingsFile != "" && len(cfg.Files) > 0 {
		err = multierr.Append(err, FieldError{
			Field:   "data.files",
			Message: "cannot be combined with data.mappings_file",
		})
	}

	if len(cfg.Files) > 0 {
		if _, rerr := dataset.NewRegistry(cfg.Files); rerr != nil {
			err = multierr.Append(err, FieldError{Field: "data.files", Message: rerr.Error()})
		}
	}

	return err
}

func validateSchema(cfg *SchemaConfig) error {
	if len(cfg.Command) > 0 && strings.TrimSpace(cfg.Command[0]) == "" {
		return FieldError{Field: "schema.command", Message: "program name cannot be empty"}
	}
	return nil
}
