// Package telemetry builds the process logger and the OpenTelemetry providers.
package telemetry

import (
	"io"
	"log/slog"
	"strings"

	charmlog "github.com/charmbracelet/log"
)

// NewLogger returns a slog.Logger writing to w in the given format:
// "json", "pretty" (charmbracelet/log) or "text" (default).
func NewLogger(w io.Writer, format string, level slog.Level, prefix string) *slog.Logger {
	var handler slog.Handler
	switch strings.ToLower(format) {
	case "json":
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	case "pretty":
		handler = charmlog.NewWithOptions(w, charmlog.Options{
			Level:           charmlog.Level(level),
			Prefix:          prefix,
			ReportTimestamp: true,
		})
	default:
		handler = slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	}
	return slog.New(handler)
}
