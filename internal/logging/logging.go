// Package logging provides structured logging for the migration tool.
//
// It wraps log/slog to give every component a named logger with a shared
// level and output format. Text output is the default; JSON is available
// for runs whose output is collected by another system.
package logging

import (
	"context"
	"log/slog"
	"os"
)

// Logger is the global logger instance.
var Logger *slog.Logger

// Init initializes the global logger with the specified level and format.
// If jsonFormat is true, logs are output as JSON; otherwise, human-readable text.
func Init(level slog.Level, jsonFormat bool) {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: level,
	}

	if jsonFormat {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	Logger = slog.New(handler)
	slog.SetDefault(Logger)
}

// InitWithHandler initializes the global logger with a custom handler.
// Useful for tests.
func InitWithHandler(handler slog.Handler) {
	Logger = slog.New(handler)
	slog.SetDefault(Logger)
}

// Component returns a logger tagged with the component name.
func Component(name string) *slog.Logger {
	return get().With("component", name)
}

// With returns a logger with additional attributes.
func With(args ...any) *slog.Logger {
	return get().With(args...)
}

// DebugContext logs at debug level with a context.
func DebugContext(ctx context.Context, msg string, args ...any) {
	get().DebugContext(ctx, msg, args...)
}

func get() *slog.Logger {
	if Logger == nil {
		Init(slog.LevelInfo, false)
	}
	return Logger
}
