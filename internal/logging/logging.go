// Package logging configures the process-wide structured logger.
package logging

import (
	"log/slog"
	"os"
)

// Logger is the configured root logger. It is nil until Init runs, in
// which case the helpers fall back to slog's default.
var Logger *slog.Logger

// Init builds the root logger from the configured level and format and
// installs it as the slog default. Logs go to stderr so an interactive
// monitor can own stdout.
func Init(level, format string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: lvl}

	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	Logger = slog.New(handler)
	slog.SetDefault(Logger)
}

func base() *slog.Logger {
	if Logger != nil {
		return Logger
	}
	return slog.Default()
}

// WithComponent returns a logger scoped to a named server component.
func WithComponent(name string) *slog.Logger {
	return base().With("component", name)
}
