// Package logging builds the zap loggers used by the buddy commands.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Formats accepted by New.
const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

// Options configure a logger.
type Options struct {
	// Level is a zap level name: debug, info, warn, error.
	Level string

	// Format is FormatJSON (production encoder) or FormatConsole
	// (development encoder).
	Format string

	// OutputPath overrides the destination. Empty means stderr; "discard"
	// returns a no-op logger.
	OutputPath string
}

// Discard disables logging when used as OutputPath.
const Discard = "discard"

// New builds a logger from opts.
func New(opts Options) (*zap.Logger, error) {
	if opts.OutputPath == Discard {
		return zap.NewNop(), nil
	}

	level := zapcore.InfoLevel
	if opts.Level != "" {
		if err := level.UnmarshalText([]byte(opts.Level)); err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
	}

	var config zap.Config
	switch opts.Format {
	case "", FormatJSON:
		config = zap.NewProductionConfig()
	case FormatConsole:
		config = zap.NewDevelopmentConfig()
	default:
		return nil, fmt.Errorf("invalid log format %q (want %s or %s)", opts.Format, FormatJSON, FormatConsole)
	}
	config.Level = zap.NewAtomicLevelAt(level)
	if opts.OutputPath != "" {
		config.OutputPaths = []string{opts.OutputPath}
		config.ErrorOutputPaths = []string{opts.OutputPath}
	}

	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}
