package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/agardiner/epm-utils/internal/rowsource"
	"github.com/agardiner/epm-utils/internal/sink"
)

var (
	// ErrUnknownApplication indicates an application with no configuration
	ErrUnknownApplication = errors.New("unknown application")

	// ErrInvalidDriver indicates an unsupported repository driver
	ErrInvalidDriver = errors.New("invalid repository driver")

	// ErrEmptyDSN indicates a missing data source name
	ErrEmptyDSN = errors.New("empty data source name")

	// ErrInvalidFormat indicates an unsupported output format
	ErrInvalidFormat = errors.New("invalid output format")

	// ErrInvalidEncoding indicates an unknown character encoding
	ErrInvalidEncoding = errors.New("invalid output encoding")

	// ErrEmptySeparator indicates a missing field separator
	ErrEmptySeparator = errors.New("empty field separator")

	// ErrInvalidColumnWidth indicates a non-positive spreadsheet column width
	ErrInvalidColumnWidth = errors.New("invalid column width")

	// ErrInvalidLogLevel indicates an unknown log level
	ErrInvalidLogLevel = errors.New("invalid log level")

	// ErrInvalidLogFormat indicates an unknown log encoder
	ErrInvalidLogFormat = errors.New("invalid log format")
)

// Validate checks that the configuration is valid and complete.
func Validate(cfg *Config) error {
	var errs []error

	for _, name := range cfg.ApplicationNames() {
		if err := validateApplication(name, cfg.Applications[name]); err != nil {
			errs = append(errs, err)
		}
	}
	if err := validateOutput(&cfg.Output); err != nil {
		errs = append(errs, err)
	}
	if cfg.Spreadsheet.MaxColumnWidth <= 0 {
		errs = append(errs, fmt.Errorf("%w: max_column_width must be positive, got %g", ErrInvalidColumnWidth, cfg.Spreadsheet.MaxColumnWidth))
	}
	if err := validateLogging(&cfg.Logging); err != nil {
		errs = append(errs, err)
	}

	return joinErrors(errs)
}

func validateApplication(name string, app ApplicationConfig) error {
	var errs []error

	if !rowsource.Supported(app.Driver) {
		errs = append(errs, fmt.Errorf("%w: application %s: must be one of %s, got '%s'",
			ErrInvalidDriver, name, strings.Join(rowsource.Drivers(), ", "), app.Driver))
	}
	if strings.TrimSpace(app.DSN) == "" {
		errs = append(errs, fmt.Errorf("%w: application %s: dsn is required", ErrEmptyDSN, name))
	}

	return joinErrors(errs)
}

func validateOutput(cfg *OutputConfig) error {
	var errs []error

	format := strings.ToLower(cfg.Format)
	if format != FormatCSV && format != FormatXLSX {
		errs = append(errs, fmt.Errorf("%w: must be 'csv' or 'xlsx', got '%s'", ErrInvalidFormat, cfg.Format))
	}
	if err := sink.CheckEncoding(cfg.Encoding); err != nil {
		errs = append(errs, fmt.Errorf("%w: %v", ErrInvalidEncoding, err))
	}
	if cfg.FieldSeparator == "" {
		errs = append(errs, fmt.Errorf("%w: field_separator is required", ErrEmptySeparator))
	}

	return joinErrors(errs)
}

func validateLogging(cfg *LoggingConfig) error {
	var errs []error

	switch strings.ToLower(cfg.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("%w: must be debug, info, warn or error, got '%s'", ErrInvalidLogLevel, cfg.Level))
	}
	switch strings.ToLower(cfg.Format) {
	case "console", "json":
	default:
		errs = append(errs, fmt.Errorf("%w: must be 'console' or 'json', got '%s'", ErrInvalidLogFormat, cfg.Format))
	}

	return joinErrors(errs)
}

// joinErrors combines multiple errors so that errors.Is still finds every
// sentinel.
func joinErrors(errs []error) error {
	switch len(errs) {
	case 0:
		return nil
	case 1:
		return errs[0]
	}
	return fmt.Errorf("validation failed: %w", errors.Join(errs...))
}
