// Package logging provides zap logger construction for Pulse components.
package logging

import (
	"go.uber.org/zap"
)

// New creates a zap.Logger named after the given component.
// Development mode returns a human-readable development logger with debug
// output; otherwise a production logger with Info+ level and reduced noise.
func New(component string, development bool) (*zap.Logger, error) {
	if development {
		logger, err := zap.NewDevelopment()
		if err != nil {
			return nil, err
		}
		return logger.Named(component), nil
	}

	cfg := zap.NewProductionConfig()
	cfg.DisableCaller = true
	cfg.DisableStacktrace = true
	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.Named(component), nil
}

// Nop returns a logger that discards everything.
func Nop() *zap.Logger {
	return zap.NewNop()
}
