// Package telemetry owns the process-wide structured logger and Prometheus
// registry (SPEC_FULL.md §4.10): components that log are handed a
// *slog.Logger explicitly instead of calling package-level logging
// functions, matching nishisan-dev/n-backup's pattern of passing loggers
// down. The loggers are not scoped with a per-component attribute.
package telemetry

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// NewLogger builds a *slog.Logger selecting a JSON or text handler, grounded
// on nishisan-dev/n-backup's internal/logging.NewLogger. Unlike that
// constructor this one has no file-output mode: the bridge's ambient stack
// has no equivalent requirement, and adding one here would be unused code.
func NewLogger(level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}

	var handler slog.Handler
	switch strings.ToLower(format) {
	case "text":
		handler = slog.NewTextHandler(os.Stdout, opts)
	default:
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	return slog.New(handler)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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

// must is used by components that hold a *slog.Logger field optionally set
// by callers (tests, small tools) and fall back to a writer-less default
// rather than panicking on a nil logger.
func must(l *slog.Logger) *slog.Logger {
	if l != nil {
		return l
	}
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// Discard is a logger that drops everything, for components under test that
// don't care about log output.
var Discard = must(nil)
