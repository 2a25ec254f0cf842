// Package logger builds slog.Logger instances from the logging section of
// the application config.
package logger

import (
	"io"
	"log/slog"
	"os"
)

// Options controls logger construction.
type Options struct {
	// Level is one of "debug", "info", "warn", "error". Default: "info".
	Level string
	// Format is "json" or "text". Default: "text".
	Format string
	// Writer receives log output. Default: os.Stderr.
	Writer io.Writer
}

// New creates a *slog.Logger from Options.
func New(o Options) *slog.Logger {
	w := o.Writer
	if w == nil {
		w = os.Stderr
	}

	opts := &slog.HandlerOptions{
		Level:     ParseLevel(o.Level),
		AddSource: o.Level == "debug",
	}

	var handler slog.Handler
	if o.Format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler)
}

// ParseLevel converts a level string to slog.Level.
// Unrecognized values fall back to LevelInfo.
func ParseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
