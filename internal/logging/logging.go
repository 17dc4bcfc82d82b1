// Package logging configures the process-wide structured logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/phuslu/log"

	"github.com/seenimoa/newsimpact/internal/config"
)

// Setup configures log.DefaultLogger from cfg. The returned closer releases
// the optional log file and is never nil.
func Setup(cfg config.LoggingConfig) (io.Closer, error) {
	logger, closer, err := New(cfg, os.Stderr)
	if err != nil {
		return nopCloser{}, err
	}
	log.DefaultLogger = *logger
	return closer, nil
}

// New builds a logger writing to out, plus an optional JSON file sink.
func New(cfg config.LoggingConfig, out io.Writer) (*log.Logger, io.Closer, error) {
	var w log.Writer
	switch cfg.Format {
	case "json":
		w = &log.IOWriter{Writer: out}
	case "", "console", "text":
		w = &log.ConsoleWriter{Writer: out, ColorOutput: isTerminal(out), QuoteString: true, EndWithMessage: true}
	default:
		return nil, nopCloser{}, fmt.Errorf("logging: unknown format %q", cfg.Format)
	}

	var closer io.Closer = nopCloser{}
	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			return nil, closer, fmt.Errorf("logging: %w", err)
		}
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, closer, fmt.Errorf("logging: %w", err)
		}
		closer = f
		w = &log.MultiEntryWriter{w, &log.IOWriter{Writer: f}}
	}

	return &log.Logger{
		Level:      ParseLevel(cfg.Level),
		TimeFormat: "15:04:05",
		Writer:     w,
	}, closer, nil
}

// ParseLevel maps a config level name to a log level, defaulting to info.
func ParseLevel(s string) log.Level {
	switch s {
	case "trace":
		return log.TraceLevel
	case "debug":
		return log.DebugLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

// Discard silences the default logger; used by tests and the TUI, which owns
// the terminal while it runs.
func Discard() {
	log.DefaultLogger = log.Logger{Level: log.PanicLevel, Writer: &log.IOWriter{Writer: io.Discard}}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
