// Package obslog builds the process-wide structured logger.
package obslog

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a production-shaped zap logger, or a development one when
// dev is true (console-encoded, debug level, for local runs of
// cmd/hotreloadd).
func New(dev bool) (*zap.Logger, error) {
	if dev {
		cfg := zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return cfg.Build()
	}
	return zap.NewProduction()
}

// Noop returns a logger that discards everything. cmd/hotreloadd does
// not use it: errors before the real logger exists go to stderr.
func Noop() *zap.Logger {
	return zap.NewNop()
}
