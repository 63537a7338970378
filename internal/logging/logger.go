// Package logging builds the structured loggers injected into every
// component. There is no process-wide verbosity state; components log through
// whatever logger they were handed.
package logging

import (
	"io"
	"log/slog"
	"os"
)

// New creates a structured text logger writing to stderr.
// app: application name (e.g. "ncp-send"). level: "debug", "info", "warn"
// or "error" (default "info").
func New(app string, level string) *slog.Logger {
	return NewWithWriter(os.Stderr, app, level)
}

// NewWithWriter is New with an explicit output, for tests.
func NewWithWriter(w io.Writer, app string, level string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}
	logger := slog.New(slog.NewTextHandler(w, opts))
	return logger.With(
		slog.String("app", app),
		slog.Int("pid", os.Getpid()),
	)
}

// ParseLevel maps a level name to a slog level, defaulting to info.
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

// LevelFromVerbosity maps repeated -v flags to a level name: 0 is warn
// (quiet), 1 is info, 2 and above is debug.
func LevelFromVerbosity(count int) string {
	switch {
	case count <= 0:
		return "warn"
	case count == 1:
		return "info"
	default:
		return "debug"
	}
}
