// Package applog wires driftline's debug log.
//
// A full-screen TUI owns the terminal, so diagnostics go to a file instead of stderr. The
// destination comes from config (log_file) or the DRIFTLINE_LOG_FILE environment variable;
// when neither is set, logging is a no-op.
package applog

import (
	"io"
	"log/slog"
	"os"
)

// New returns a logger appending to the file at path, plus a close function for it.
//
// If path is empty or the file can't be opened for appending, New returns a discard
// logger and a no-op close. Logging must never take the app down.
func New(path string) (*slog.Logger, func() error) {
	if path == "" {
		return slog.New(slog.NewTextHandler(io.Discard, nil)), func() error { return nil }
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil)), func() error { return nil }
	}

	h := slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug})
	return slog.New(h), f.Close
}
