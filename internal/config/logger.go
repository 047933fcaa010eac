package config

import (
	"io"
	"log/slog"
	"strings"
)

// NewLogger builds the process logger. Production logs are JSON lines
// tagged with the service name.
func NewLogger(cfg Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}
	if !cfg.IsProd() {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts)).With("service", "hiddenplaces")
}

// parseLevel falls back to info for unknown names.
func parseLevel(name string) slog.Level {
	var lvl slog.Level
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "warning" {
		name = "warn"
	}
	if name == "" || lvl.UnmarshalText([]byte(name)) != nil {
		return slog.LevelInfo
	}
	return lvl
}
