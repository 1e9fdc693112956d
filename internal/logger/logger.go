// Package logger provides the configured structured logger for seoscope.
// It wraps log/slog so handler selection and level parsing live in one
// place: text output for humans on a terminal, JSON for batch jobs whose
// output gets collected.
package logger

import (
	"io"
	"log/slog"
	"os"
)

// New creates a logger writing to stderr, keeping stdout clean for report
// output.
func New(level, format string) *slog.Logger {
	return NewWithWriter(level, format, os.Stderr)
}

// NewWithWriter creates a logger writing to w. Unknown levels default to
// info, unknown formats to text.
func NewWithWriter(level, format string, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}

	var handler slog.Handler
	switch format {
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	default:
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// parseLevel converts a string to slog.Level. Defaults to INFO.
func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}
