package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

var defaultLevelVar = new(slog.LevelVar)

// Init initializes the logging system. Structured JSON logs go to stdout
// and become the slog default; human-readable progress output stays on
// plain fmt/log calls in the commands. A non-empty logFilePath duplicates
// the stream into a rotated log file.
func Init(debug bool, logFilePath string) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	defaultLevelVar.Set(level)

	var out io.Writer = os.Stdout
	if logFilePath != "" {
		if err := os.MkdirAll(filepath.Dir(logFilePath), 0o755); err == nil {
			out = io.MultiWriter(os.Stdout, &lumberjack.Logger{
				Filename:   logFilePath,
				MaxSize:    10, // megabytes
				MaxBackups: 3,
				MaxAge:     28, // days
				Compress:   true,
			})
		} else {
			fmt.Fprintf(os.Stderr, "Failed to create log directory for %s: %v\n", logFilePath, err)
		}
	}

	handler := slog.NewJSONHandler(out, &slog.HandlerOptions{
		Level: defaultLevelVar,
	})
	slog.SetDefault(slog.New(handler))
}

// SetLevel sets the minimum logging level for the default logger.
func SetLevel(level slog.Level) {
	defaultLevelVar.Set(level)
}

// NewFileLogger creates a service-specific slog logger writing JSON to a
// rotated log file. The returned closer flushes and closes the underlying
// file writer.
func NewFileLogger(logFilePath, service string, level slog.Leveler) (*slog.Logger, func() error, error) {
	if err := os.MkdirAll(filepath.Dir(logFilePath), 0o755); err != nil {
		return nil, nil, fmt.Errorf("creating log directory for %s: %w", logFilePath, err)
	}

	writer := &lumberjack.Logger{
		Filename:   logFilePath,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	}

	handler := slog.NewJSONHandler(writer, &slog.HandlerOptions{Level: level})
	logger := slog.New(handler).With("service", service)

	return logger, writer.Close, nil
}

// NewDiscardLogger returns a logger that drops everything. Used as a
// fallback when a file logger cannot be created, so callers never hold a
// nil logger.
func NewDiscardLogger(service string) *slog.Logger {
	handler := slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(handler).With("service", service)
}
