package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// InitLogger initializes and configures the application logger based on environment.
// LOG_LEVEL (debug, info, warn, error) overrides the environment default.
func InitLogger(environment string) *slog.Logger {
	return newLogger(environment, os.Getenv("LOG_LEVEL"), os.Stdout)
}

func newLogger(environment, level string, w io.Writer) *slog.Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}

	development := environment == "development"
	if development {
		opts.Level = slog.LevelDebug
		opts.AddSource = true
	}
	if lvl, ok := parseLevel(level); ok {
		opts.Level = lvl
	}

	// Development gets source locations and human readable output
	if development {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)

	return logger
}

func parseLevel(s string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	}
	return slog.LevelInfo, false
}
