// Package logging configures structured logging with slog.
//
// Usage:
//
//	logger := logging.Setup("debug", true)   // colored tint output
//	logger := logging.Setup("info", false)   // JSON lines for log shippers
//
// Levels: debug, info, warn, error (default: info).
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// Setup installs and returns the default logger at the named level.
// Colored output is meant for terminals; otherwise logs are JSON.
func Setup(level string, colored bool) *slog.Logger {
	logger := New(os.Stderr, ParseLevel(level), colored)
	slog.SetDefault(logger)
	return logger
}

// SetupWithLevel installs a colored logger at the given level.
func SetupWithLevel(level slog.Level) *slog.Logger {
	logger := New(os.Stderr, level, true)
	slog.SetDefault(logger)
	return logger
}

// New builds a logger writing to w without installing it.
func New(w io.Writer, level slog.Level, colored bool) *slog.Logger {
	if colored {
		return slog.New(tint.NewHandler(w, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
			AddSource:  true,
		}))
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// ParseLevel maps debug, warn and error to their slog levels; anything else is info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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

// Discard returns a logger that drops everything. Useful in tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
