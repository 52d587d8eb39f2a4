package app

import (
	"log/slog"
	"os"
)

// NewLogger builds the process-wide logger. JSON output is what the log
// shipper expects in deployments; the text handler stays the default for
// local runs. Source locations are always attached.
func NewLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{AddSource: true}

	var handler slog.Handler = slog.NewTextHandler(os.Stdout, opts)
	if cfg != nil && cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	return slog.New(handler)
}
