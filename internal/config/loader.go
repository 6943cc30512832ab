package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// FileName is the config file looked up when no explicit path is given.
const FileName = ".planning-extractor.yml"

// Loader provides configuration loading capabilities.
type Loader interface {
	// Load loads configuration from file and environment variables.
	// Priority: defaults → config file → environment variables (env wins)
	Load() (*Config, error)
}

type loader struct {
	rootDir string
	file    string
}

// NewLoader creates a loader that searches rootDir and the home directory
// for the config file, or reads file when it is not empty.
func NewLoader(rootDir, file string) Loader {
	return &loader{
		rootDir: rootDir,
		file:    file,
	}
}

// Load loads configuration with the following priority (highest to lowest):
// 1. Environment variables (EPM_*)
// 2. Config file
// 3. Default values
// An explicit config file must exist; a searched one may be absent.
func (l *loader) Load() (*Config, error) {
	v := viper.New()

	if l.file != "" {
		v.SetConfigFile(l.file)
	} else {
		v.SetConfigName(strings.TrimSuffix(FileName, ".yml"))
		v.SetConfigType("yaml")
		v.AddConfigPath(l.rootDir)
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
	}

	// EPM_OUTPUT_DIR overrides output.dir
	v.SetEnvPrefix("EPM")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.BindEnv("output.dir")
	v.BindEnv("output.format")
	v.BindEnv("output.encoding")
	v.BindEnv("output.field_separator")
	v.BindEnv("migration.user")
	v.BindEnv("migration.password")
	v.BindEnv("migration.recursive")
	v.BindEnv("logging.level")
	v.BindEnv("logging.format")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if l.file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if cfg.Applications == nil {
		cfg.Applications = map[string]ApplicationConfig{}
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("output.dir", defaults.Output.Dir)
	v.SetDefault("output.format", defaults.Output.Format)
	v.SetDefault("output.encoding", defaults.Output.Encoding)
	v.SetDefault("output.field_separator", defaults.Output.FieldSeparator)

	v.SetDefault("spreadsheet.max_column_width", defaults.Spreadsheet.MaxColumnWidth)
	v.SetDefault("spreadsheet.title_fill", defaults.Spreadsheet.TitleFill)

	v.SetDefault("migration.recursive", defaults.Migration.Recursive)

	v.SetDefault("logging.level", defaults.Logging.Level)
	v.SetDefault("logging.format", defaults.Logging.Format)
}

// LoadConfig searches the working directory and home directory for the
// config file.
func LoadConfig() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}
	return NewLoader(wd, "").Load()
}
