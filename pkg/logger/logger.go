// Package logger configures the process-wide slog default and carries
// request-scoped loggers through context.
package logger

import (
	"context"
	"log/slog"
	"os"
	"strings"
)

type ctxKey int

const loggerKey ctxKey = iota

// Setup installs the process-wide default logger. Unknown levels fall back
// to info, unknown formats to text.
func Setup(level, format string) {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}
	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// WithRequestID returns a context carrying a logger tagged with the request
// id. Downstream code retrieves it with FromContext.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, loggerKey, slog.Default().With("request_id", requestID))
}

// FromContext returns the request-scoped logger, or the process default when
// the context carries none.
func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}

// WithComponent returns the default logger tagged with a component name.
func WithComponent(name string) *slog.Logger {
	return slog.Default().With("component", name)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
