package tts

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mitchellh/go-homedir"
)

// InitializeLogging sets the global log level and, when file is non-empty,
// redirects the default logger to that file with RFC3339 timestamps. The
// returned closer releases the file; it is a no-op when logging to stderr.
func InitializeLogging(level, file string) (io.Closer, error) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nopCloser{}, fmt.Errorf("parse log level: %w", err)
	}
	log.SetLevel(lvl)

	if file == "" {
		return nopCloser{}, nil
	}

	path, err := homedir.Expand(file)
	if err != nil {
		return nopCloser{}, fmt.Errorf("expand log path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nopCloser{}, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nopCloser{}, err
	}

	log.SetDefault(log.NewWithOptions(f, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Level:           lvl,
	}))
	log.Debug("Log file opened", "path", path)
	return f, nil
}

// NewLogger returns the default logger tagged with a component prefix.
func NewLogger(component string) *log.Logger {
	return log.Default().WithPrefix(component)
}

// DiscardLogger returns a logger that writes nowhere.
func DiscardLogger() *log.Logger {
	return log.New(io.Discard)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
