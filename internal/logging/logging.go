// Package logging builds the service's structured logger: JSON in
// production, colored console in development, with small helpers for
// attaching ingestion/file context the way callers need it
// most often in this codebase.
package logging

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a *zap.Logger from the LOG_LEVEL/LOG_FORMAT config
// fields. format "json" produces machine-parseable output; anything
// else falls back to a human-readable console encoder.
func New(level, format string) (*zap.Logger, error) {
	lvl, err := parseLevel(level)
	if err != nil {
		return nil, err
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	if strings.EqualFold(format, "json") {
		encoder = zapcore.NewJSONEncoder(encoderCfg)
	} else {
		encoderCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderCfg)
	}

	core := zapcore.NewCore(encoder, zapcore.Lock(zapcore.AddSync(os.Stdout)), lvl)
	return zap.New(core, zap.AddCaller()), nil
}

func parseLevel(level string) (zapcore.Level, error) {
	var lvl zapcore.Level
	if level == "" {
		return zapcore.InfoLevel, nil
	}
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return lvl, fmt.Errorf("parsing log level %q: %w", level, err)
	}
	return lvl, nil
}

// WithIngestion returns a logger annotated with the ingestion id, the
// way a request-scoped field gets threaded through this codebase's
// handlers and orchestrator.
func WithIngestion(logger *zap.Logger, ingestionID string) *zap.Logger {
	return logger.With(zap.String("ingestion_id", ingestionID))
}

// WithFile returns a logger annotated with the source file uri.
func WithFile(logger *zap.Logger, file string) *zap.Logger {
	return logger.With(zap.String("file", file))
}
