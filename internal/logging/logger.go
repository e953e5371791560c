// Package logging wraps log/slog with the field names and per-operation
// helpers used across imgsim.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger wraps slog.Logger with imgsim-specific helpers.
type Logger struct {
	*slog.Logger
}

// New creates a Logger writing to w (stderr when nil). format is "text" or
// "json"; level is a slog level name such as "debug" or "info".
func New(w io.Writer, format, level string) (*Logger, error) {
	if w == nil {
		w = os.Stderr
	}
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: lvl}
	var handler slog.Handler
	switch strings.ToLower(format) {
	case "", "text":
		handler = slog.NewTextHandler(w, opts)
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	default:
		return nil, fmt.Errorf("logging: unknown format %q", format)
	}
	return &Logger{Logger: slog.New(handler)}, nil
}

// Default returns an info-level text logger on stderr.
func Default() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))}
}

// Noop returns a Logger that discards all output.
func Noop() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.Level(1000)}))}
}

// ParseLevel maps a level name to a slog.Level; empty means info.
func ParseLevel(level string) (slog.Level, error) {
	if level == "" {
		return slog.LevelInfo, nil
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return 0, fmt.Errorf("logging: %w", err)
	}
	return lvl, nil
}

// WithDataset adds a dataset field to the logger.
func (l *Logger) WithDataset(dataset string) *Logger {
	return &Logger{Logger: l.Logger.With("dataset", dataset)}
}

// LogPopulate logs the outcome of a store population.
func (l *Logger) LogPopulate(ctx context.Context, source string, count, failed int, err error) {
	switch {
	case err != nil:
		l.ErrorContext(ctx, "populate failed", "source", source, "error", err)
	case failed > 0:
		l.WarnContext(ctx, "populate completed with failures",
			"source", source,
			"count", count,
			"failed", failed,
		)
	default:
		l.InfoContext(ctx, "populate completed", "source", source, "count", count)
	}
}

// LogExtractFailure logs a single image skipped during batch extraction.
func (l *Logger) LogExtractFailure(ctx context.Context, path string, err error) {
	l.WarnContext(ctx, "extraction failed, skipping image", "path", path, "error", err)
}

// LogCache logs a cache load or save.
func (l *Logger) LogCache(ctx context.Context, op string, count int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "cache "+op+" failed", "error", err)
		return
	}
	l.DebugContext(ctx, "cache "+op+" completed", "count", count)
}

// LogSearch logs a similarity query.
func (l *Logger) LogSearch(ctx context.Context, query string, k, results int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "search failed", "query", query, "k", k, "error", err)
		return
	}
	l.DebugContext(ctx, "search completed", "query", query, "k", k, "results", results)
}
