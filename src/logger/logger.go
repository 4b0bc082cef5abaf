package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// L is the global logger. It falls back to slog's default until InitLogger runs,
// so packages used from tests never see a nil logger.
var L = slog.Default()

type contextKey string

const loggerKey contextKey = "logger"

// InitLogger initializes the global logger writing JSON to stdout.
// Call this once at application startup, after loading config.
func InitLogger(logLevelStr string) {
	InitLoggerWithWriter(logLevelStr, os.Stdout)
	L.Info("Logger initialized", "level", ParseLevel(logLevelStr).String())
}

// InitLoggerWithWriter is InitLogger with an explicit sink; tests pass io.Discard.
func InitLoggerWithWriter(logLevelStr string, w io.Writer) {
	opts := &slog.HandlerOptions{
		Level: ParseLevel(logLevelStr),
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				if t, ok := a.Value.Any().(time.Time); ok {
					a.Value = slog.StringValue(t.Format(time.RFC3339))
				}
			}
			return a
		},
	}

	L = slog.New(slog.NewJSONHandler(w, opts))
	slog.SetDefault(L)
}

// ParseLevel maps a LOG_LEVEL string to a slog.Level, defaulting to info.
func ParseLevel(logLevelStr string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(logLevelStr)) {
	case "debug":
		return slog.LevelDebug
	case "info", "":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		slog.Warn("Invalid LOG_LEVEL specified, defaulting to INFO", "configuredLevel", logLevelStr)
		return slog.LevelInfo
	}
}

// FromContext retrieves a logger from context, or returns the global logger.
func FromContext(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if logger, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
			return logger
		}
	}
	return L
}

// ToContext embeds a slog.Logger into a context.Context.
func ToContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}
