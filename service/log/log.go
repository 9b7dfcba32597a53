package log

import (
	"context"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type loggerKey struct{}

var defaultLogger *zap.Logger

func init() {
	var err error
	if os.Getenv("EEDL_DEVELOPMENT") != "" {
		defaultLogger, err = zap.NewDevelopment()
	} else {
		defaultLogger, err = zap.NewProduction()
	}
	if err != nil {
		defaultLogger = zap.NewNop()
	}
}

// SetDefault replaces the logger returned when the context does not carry one
func SetDefault(l *zap.Logger) {
	if l != nil {
		defaultLogger = l
	}
}

// Logger returns the logger attached to the context, or the default logger
func Logger(ctx context.Context) *zap.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(loggerKey{}).(*zap.Logger); ok && l != nil {
			return l
		}
	}
	return defaultLogger
}

// WithLogger returns a copy of ctx carrying the given logger
func WithLogger(ctx context.Context, l *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

// With returns a copy of ctx whose logger adds the key/value pair to every entry
func With(ctx context.Context, key string, value interface{}) context.Context {
	return WithLogger(ctx, Logger(ctx).With(zap.Any(key, value)))
}

// WithFields returns a copy of ctx whose logger adds the fields to every entry
func WithFields(ctx context.Context, fields ...zapcore.Field) context.Context {
	return WithLogger(ctx, Logger(ctx).With(fields...))
}

// Fatal logs with the default logger and exits
func Fatal(msg string, fields ...zapcore.Field) {
	defaultLogger.Fatal(msg, fields...)
}
