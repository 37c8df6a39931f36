// Package diag writes the per-display diagnostic log of the window manager.
package diag

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/phsym/console-slog"
)

var ErrOpen = errors.New("cannot open diagnostic log")

// Path returns the log file for display inside dir, e.g. /tmp/wm:0.
func Path(dir, display string) string {
	return filepath.Join(dir, "wm"+display)
}

type Log struct {
	*slog.Logger
	file *os.File
}

// Open appends to the diagnostic log of display, creating it if needed.
func Open(dir, display string) (*Log, error) {
	path := Path(dir, display)
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrOpen, path, err)
	}

	return &Log{
		Logger: NewLogger(file),
		file:   file,
	}, nil
}

// NewLogger returns an uncoloured debug level logger writing to w.
func NewLogger(w io.Writer) *slog.Logger {
	return slog.New(console.NewHandler(w, &console.HandlerOptions{
		Level:   slog.LevelDebug,
		NoColor: true,
	}))
}

func (l *Log) Path() string {
	return l.file.Name()
}

func (l *Log) Close() error {
	return l.file.Close()
}
