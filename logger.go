package hitaccum

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/dustin/go-humanize"
)

// Logger wraps slog.Logger with pipeline-specific helpers.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.DiscardHandler),
	}
}

// WithOutput adds the output location to every line.
func (l *Logger) WithOutput(uri string) *Logger {
	return &Logger{
		Logger: l.Logger.With("output", uri),
	}
}

// LogAccumulate logs the end of the accumulation stage.
func (l *Logger) LogAccumulate(ctx context.Context, workers, rows, pairs int, d time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "accumulate failed",
			"workers", workers,
			"rows", rows,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "accumulate completed",
		"workers", workers,
		"rows", rows,
		"worker_pairs", pairs,
		"duration", d,
	)
}

// LogMerge logs the end of the merge stage.
func (l *Logger) LogMerge(ctx context.Context, maps, pairs int, reserved int64, d time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "merge failed",
			"maps", maps,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "merge completed",
		"maps", maps,
		"pairs", pairs,
		"reserved", humanize.IBytes(uint64(max(reserved, 0))),
		"duration", d,
	)
}

// LogWrite logs the end of the write stage.
func (l *Logger) LogWrite(ctx context.Context, name string, records, bytes int64, d time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "write failed",
			"name", name,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "write completed",
		"name", name,
		"records", records,
		"size", humanize.IBytes(uint64(max(bytes, 0))),
		"duration", d,
	)
}

// LogRun logs the outcome of a whole call.
func (l *Logger) LogRun(ctx context.Context, s *Summary, err error) {
	if err != nil {
		l.ErrorContext(ctx, "process hits failed", "error", err)
		return
	}
	l.InfoContext(ctx, "process hits completed",
		"records", s.Records,
		"accepted", s.Accepted,
		"dropped", s.Dropped,
		"query_sequences", s.QuerySequences,
		"target_sequences", s.TargetSequences,
		"workers", s.Workers,
		"peak_memory", humanize.IBytes(uint64(max(s.PeakMemoryBytes, 0))),
		"duration", s.TotalDuration,
	)
}
