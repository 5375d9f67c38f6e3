// Package logging builds the process-wide slog logger.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Setup creates a logger, sets it as the slog default and returns it.
// level accepts debug, info, warn or error (case-insensitive) and falls back
// to info. Production logs are JSON; development logs are human-readable text.
func Setup(level string, production bool) *slog.Logger {
	logger := New(os.Stderr, level, production)
	slog.SetDefault(logger)
	return logger
}

// New is Setup without touching the default logger.
func New(w io.Writer, level string, production bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}

	var handler slog.Handler
	if production {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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
