// Package logging builds the slog loggers used by the daemon.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	charmlog "github.com/charmbracelet/log"
)

// ParseLevel maps a config log_level to a charm log level. Unknown values
// fall back to info.
func ParseLevel(level string) charmlog.Level {
	level = strings.ToLower(strings.TrimSpace(level))
	if level == "warning" {
		level = "warn"
	}
	lvl, err := charmlog.ParseLevel(level)
	if err != nil {
		return charmlog.InfoLevel
	}
	return lvl
}

// New returns a slog.Logger that writes through a charm log handler.
func New(w io.Writer, level string) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	handler := charmlog.NewWithOptions(w, charmlog.Options{
		Level:           ParseLevel(level),
		ReportTimestamp: true,
		TimeFormat:      time.TimeOnly,
		Prefix:          "screenmode",
	})
	return slog.New(handler)
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
