// Package logging builds the zap loggers injected into the LLM client and
// iteration engine. There is no package-level logger: callers construct one
// at startup and pass it down, tests substitute zap.NewNop().
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options controls logger construction.
type Options struct {
	// Debug lowers the level from Info to Debug.
	Debug bool
	// Name is attached to every entry (e.g. "promptforge").
	Name string
}

// New constructs a console-encoded stderr logger.
func New(opts Options) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	if opts.Debug {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	if opts.Name != "" {
		logger = logger.Named(opts.Name)
	}
	return logger, nil
}

// NewNop returns a discard-everything logger for callers that do not care.
func NewNop() *zap.Logger {
	return zap.NewNop()
}
