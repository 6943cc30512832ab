// Package config loads planning extractor settings.
//
// Settings are merged from three layers, lowest priority first:
//
//	defaults → .planning-extractor.yml → EPM_* environment variables
//
// The config file is looked up in the working directory and then in the
// user's home directory unless an explicit path is given.
package config

import (
	"fmt"
	"sort"
	"strings"
)

// Config represents the complete extractor configuration.
type Config struct {
	Applications map[string]ApplicationConfig `yaml:"applications" mapstructure:"applications"`
	Output       OutputConfig                 `yaml:"output" mapstructure:"output"`
	Spreadsheet  SpreadsheetConfig            `yaml:"spreadsheet" mapstructure:"spreadsheet"`
	Migration    MigrationConfig              `yaml:"migration" mapstructure:"migration"`
	Logging      LoggingConfig                `yaml:"logging" mapstructure:"logging"`
}

// ApplicationConfig locates the planning repository of one application.
type ApplicationConfig struct {
	Driver       string `yaml:"driver" mapstructure:"driver"`               // "sqlite3", "postgres", "mysql" or "duckdb"
	DSN          string `yaml:"dsn" mapstructure:"dsn"`                     // driver specific data source name
	Project      string `yaml:"project" mapstructure:"project"`             // Shared Services project for LCM definitions
	RulesCatalog string `yaml:"rules_catalog" mapstructure:"rules_catalog"` // business rules usage catalog (YAML)
}

// OutputConfig controls where and how extracts are written.
type OutputConfig struct {
	Dir            string `yaml:"dir" mapstructure:"dir"`                         // parent of the per-application folders
	Format         string `yaml:"format" mapstructure:"format"`                   // "csv" or "xlsx"
	Encoding       string `yaml:"encoding" mapstructure:"encoding"`               // e.g. "utf-8|bom", "windows-1252"
	FieldSeparator string `yaml:"field_separator" mapstructure:"field_separator"` // text extracts other than outlines
}

// SpreadsheetConfig styles xlsx output.
type SpreadsheetConfig struct {
	MaxColumnWidth float64 `yaml:"max_column_width" mapstructure:"max_column_width"`
	TitleFill      string  `yaml:"title_fill" mapstructure:"title_fill"` // RGB hex
}

// MigrationConfig holds the LCM connection details.
type MigrationConfig struct {
	User      string `yaml:"user" mapstructure:"user"`
	Password  string `yaml:"password" mapstructure:"password"`
	Recursive bool   `yaml:"recursive" mapstructure:"recursive"` // migrate whole artifact folders
}

// LoggingConfig selects the log level and encoder.
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug, info, warn or error
	Format string `yaml:"format" mapstructure:"format"` // "console" or "json"
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Applications: map[string]ApplicationConfig{},
		Output: OutputConfig{
			Dir:            "extracts",
			Format:         FormatCSV,
			Encoding:       "utf-8|bom",
			FieldSeparator: ",",
		},
		Spreadsheet: SpreadsheetConfig{
			MaxColumnWidth: 40,
			TitleFill:      "4F81BD",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Output formats.
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// Application returns the settings of the named application. Names are
// matched case-insensitively since viper lower-cases map keys.
func (c *Config) Application(name string) (ApplicationConfig, error) {
	if app, ok := c.Applications[name]; ok {
		return app, nil
	}
	for key, app := range c.Applications {
		if strings.EqualFold(key, name) {
			return app, nil
		}
	}
	return ApplicationConfig{}, fmt.Errorf("%w: %q (configured: %s)", ErrUnknownApplication, name, strings.Join(c.ApplicationNames(), ", "))
}

// ApplicationNames returns the configured application names, sorted.
func (c *Config) ApplicationNames() []string {
	names := make([]string, 0, len(c.Applications))
	for name := range c.Applications {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
