package app

import (
	"log/slog"
	"os"
)

// NewLogger builds the process logger. Production and explicit json format
// get JSON output; development defaults to text with debug level.
func NewLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if cfg != nil && cfg.AppEnv == "development" {
		opts.Level = slog.LevelDebug
	}
	if cfg != nil && (cfg.LogFormat == "json" || cfg.IsProduction()) {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
