package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}

// Validate checks the configuration for required fields and valid values.
func (c *Config) Validate() error {
	var errors ValidationErrors

	switch c.Database.Driver {
	case "postgres", "mysql":
	default:
		errors = append(errors, ValidationError{
			Field:   "database.driver",
			Message: fmt.Sprintf("must be postgres or mysql, got %q", c.Database.Driver),
		})
	}
	if c.Database.DSN == "" {
		errors = append(errors, ValidationError{Field: "database.dsn", Message: "is required"})
	}
	if c.Database.MaxOpenConns < 0 || c.Database.MaxIdleConns < 0 {
		errors = append(errors, ValidationError{Field: "database", Message: "pool sizes cannot be negative"})
	}

	switch c.Import.Format {
	case "product", "automagic":
	default:
		errors = append(errors, ValidationError{
			Field:   "import.format",
			Message: fmt.Sprintf("must be product or automagic, got %q", c.Import.Format),
		})
	}
	if c.Import.LookupBatchSize <= 0 {
		errors = append(errors, ValidationError{Field: "import.lookup_batch_size", Message: "must be positive"})
	}

	switch c.Export.Format {
	case "csv", "json":
	default:
		errors = append(errors, ValidationError{
			Field:   "export.format",
			Message: fmt.Sprintf("must be csv or json, got %q", c.Export.Format),
		})
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Message: fmt.Sprintf("must be debug, info, warn or error, got %q", c.Logging.Level),
		})
	}
	switch c.Logging.Format {
	case "json", "text":
	default:
		errors = append(errors, ValidationError{
			Field:   "logging.format",
			Message: fmt.Sprintf("must be json or text, got %q", c.Logging.Format),
		})
	}

	if len(errors) > 0 {
		return errors
	}
	return nil
}
