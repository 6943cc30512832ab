// Package logging builds the zap logger used by every command.
package logging

import (
	"fmt"
	"io"
	"strings"

	"github.com/agardiner/epm-utils/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log encoders.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// New creates a logger writing to w at the configured level. The console
// format is meant for people at a terminal; json for log collectors.
func New(cfg config.LoggingConfig, w io.Writer) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("failed to parse log level: %w", err)
	}

	var encoder zapcore.Encoder
	switch strings.ToLower(cfg.Format) {
	case FormatJSON:
		encoder = zapcore.NewJSONEncoder(zapcore.EncoderConfig{
			TimeKey:     "time",
			LevelKey:    "level",
			MessageKey:  "message",
			EncodeLevel: zapcore.LowercaseLevelEncoder,
			EncodeTime:  zapcore.ISO8601TimeEncoder,
		})
	case FormatConsole, "":
		// Level and message only; fields follow as JSON.
		encoder = zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
			LevelKey:         "level",
			MessageKey:       "message",
			EncodeLevel:      zapcore.CapitalLevelEncoder,
			ConsoleSeparator: " ",
		})
	default:
		return nil, fmt.Errorf(`log format must be "console" or "json", got %q`, cfg.Format)
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(w), level)
	return zap.New(core), nil
}
