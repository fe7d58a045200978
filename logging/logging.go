package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	slogmulti "github.com/samber/slog-multi"
)

// Options describes logger construction parameters.
type Options struct {
	Level  string
	Format string
	// File, when set, receives a JSON debug log of the run in addition to
	// the console output.
	File string
	// Console defaults to os.Stderr.
	Console io.Writer
}

// Setup builds the run logger. The returned cleanup closes the log file, if any.
func Setup(opts Options) (*slog.Logger, func() error, error) {
	console := opts.Console
	if console == nil {
		console = os.Stderr
	}
	level := ParseLevel(opts.Level)

	var consoleHandler slog.Handler
	switch strings.ToLower(strings.TrimSpace(opts.Format)) {
	case "", "text":
		consoleHandler = slog.NewTextHandler(console, &slog.HandlerOptions{Level: level})
	case "json":
		consoleHandler = slog.NewJSONHandler(console, &slog.HandlerOptions{Level: level})
	default:
		return nil, nil, fmt.Errorf("log format: unsupported value %q", opts.Format)
	}

	if strings.TrimSpace(opts.File) == "" {
		return slog.New(consoleHandler), func() error { return nil }, nil
	}

	file, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	logger := NewWithWriters(consoleHandler, file)
	logger.Debug("debug log started", "file", opts.File, "at", time.Now().Format(time.RFC3339))

	cleanup := func() error {
		logger.Debug("debug log closed", "at", time.Now().Format(time.RFC3339))
		return file.Close()
	}
	return logger, cleanup, nil
}

// NewWithWriters fans console records out to a JSON debug log written to file.
func NewWithWriters(console slog.Handler, file io.Writer) *slog.Logger {
	fileHandler := slog.NewJSONHandler(file, &slog.HandlerOptions{Level: slog.LevelDebug})
	return slog.New(slogmulti.Fanout(console, fileHandler))
}

// NewNop returns a logger that discards everything.
func NewNop() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// ParseLevel maps a level name to a slog level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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

// Component returns logger tagged with the component name.
func Component(logger *slog.Logger, name string) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	return logger.With("component", name)
}

// ImageSkipped logs a per-item failure that did not stop the run.
func ImageSkipped(logger *slog.Logger, path string, err error) {
	logger.Warn("skipping image", "path", path, "error", err)
}
