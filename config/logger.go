package config

import (
	"log/slog"
	"os"
)

// NewLogger returns a slog.Logger for the given environment. Production
// gets a JSON handler; everything else a text handler. LOG_LEVEL may be
// debug, info, warn, or error (default: info).
func NewLogger(environment string) *slog.Logger {
	level := slog.LevelInfo
	switch os.Getenv("LOG_LEVEL") {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	if environment == "production" {
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}
