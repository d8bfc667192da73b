package logger

import (
	"context"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Header carries the correlation identifier on requests and responses.
const Header = "x-correlation-id"

type contextKey struct{}

var correlationKey contextKey

// Init builds the process-wide zap logger. The level is taken from the
// LOG_LEVEL environment variable and defaults to info.
func Init() (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if raw, ok := os.LookupEnv("LOG_LEVEL"); ok {
		if parsed, err := zapcore.ParseLevel(strings.ToLower(strings.TrimSpace(raw))); err == nil {
			level = parsed
		}
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}

// WithCorrelationID returns a context carrying the correlation identifier.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationKey, id)
}

// CorrelationID recovers the correlation identifier from the context.
// It returns an empty string when the context carries none.
func CorrelationID(ctx context.Context) string {
	id, _ := ctx.Value(correlationKey).(string)
	return id
}

// WithContext returns a child logger tagged with the correlation identifier
// from ctx, when present.
func WithContext(ctx context.Context, log *zap.Logger) *zap.Logger {
	if id := CorrelationID(ctx); id != "" {
		return log.With(zap.String("correlation_id", id))
	}
	return log
}
