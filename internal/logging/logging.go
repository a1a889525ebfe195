// Package logging provides the file-backed logger used across Ripple. The
// terminal is owned by the UI, so nothing may write to stdout or stderr;
// diagnostics go to a log file instead.
package logging

import (
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// Open returns a logger writing JSON lines to path, creating parent
// directories as needed. When the file cannot be opened the returned logger
// discards everything; a broken log path must not take the client down.
func Open(path string) (zerolog.Logger, func()) {
	if path == "" {
		return discard(), func() {}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return discard(), func() {}
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return discard(), func() {}
	}
	logger := zerolog.New(file).With().Timestamp().Logger()
	return logger, func() { _ = file.Close() }
}

func discard() zerolog.Logger {
	return zerolog.New(io.Discard)
}
