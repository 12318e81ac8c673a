package hitaccum

import (
	"log/slog"
	"time"

	"github.com/hupe1980/hitaccum/accum"
	"github.com/hupe1980/hitaccum/codec"
	"github.com/hupe1980/hitaccum/result"
)

type options struct {
	numThreads       int
	bias             float32
	mode             accum.Mode
	format           string
	precision        int
	idBase           int64
	header           bool
	memoryLimit      int64
	ioLimit          int64
	codec            codec.Codec
	progressInterval time.Duration
	metricsCollector MetricsCollector
	logger           *Logger
}

// Option configures ProcessHits.
type Option func(*options)

// WithNumThreads sets the number of accumulation workers. Values below 1
// are rejected with ErrInvalidInput. Default: 1.
func WithNumThreads(n int) Option {
	return func(o *options) {
		o.numThreads = n
	}
}

// WithBias sets the value subtracted from every raw score. Only hits whose
// adjusted score is strictly positive contribute, and adjusted scores must
// stay below accum.MaxScore.
//
// Default: 0, meaning the caller already subtracted it.
func WithBias(bias float32) Option {
	return func(o *options) {
		o.bias = bias
	}
}

// WithMode selects how hits of one query embedding contribute.
// Default: accum.ModeAllHits.
func WithMode(mode accum.Mode) Option {
	return func(o *options) {
		o.mode = mode
	}
}

// WithFormat selects the output format by name ("tsv" or "jsonl").
func WithFormat(name string) Option {
	return func(o *options) {
		o.format = name
	}
}

// WithPrecision sets the number of decimals of sum and max in TSV output.
// Default: 7.
func WithPrecision(decimals int) Option {
	return func(o *options) {
		o.precision = decimals
	}
}

// WithIDBase adds base to every emitted sequence id. Use 1 for 1-based ids.
func WithIDBase(base int64) Option {
	return func(o *options) {
		o.idBase = base
	}
}

// WithHeader writes a "# query target sum max count" line before TSV records.
func WithHeader() Option {
	return func(o *options) {
		o.header = true
	}
}

// WithMemoryLimit caps the memory of the aggregate maps. A call that needs
// more fails with ErrResourceExhausted. 0 means unlimited.
func WithMemoryLimit(bytes int64) Option {
	return func(o *options) {
		o.memoryLimit = bytes
	}
}

// WithIOLimit caps output throughput in bytes per second. 0 means unlimited.
func WithIOLimit(bytesPerSec int64) Option {
	return func(o *options) {
		o.ioLimit = bytesPerSec
	}
}

// WithCodec configures the JSON codec of the jsonl format.
//
// If nil is passed, codec.Default is used.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c == nil {
			c = codec.Default
		}
		o.codec = c
	}
}

// WithProgressInterval sets the minimum time between debug progress lines
// of one worker. Default: 10s.
func WithProgressInterval(d time.Duration) Option {
	return func(o *options) {
		o.progressInterval = d
	}
}

// WithMetricsCollector configures a metrics collector for the pipeline stages.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &hitaccum.BasicMetricsCollector{}
//	_, _ = hitaccum.ProcessHits(ctx, hits, q, t, "pairs.tsv", hitaccum.WithMetricsCollector(metrics))
//	stats := metrics.GetStats()
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := hitaccum.NewJSONLogger(slog.LevelInfo)
//	_, _ = hitaccum.ProcessHits(ctx, hits, q, t, "pairs.tsv", hitaccum.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		numThreads:       1,
		format:           "tsv",
		precision:        result.DefaultPrecision,
		codec:            codec.Default,
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}

func (o options) validate() error {
	if o.numThreads < 1 {
		return invalidInput("num_threads", o.numThreads, 1, "must be at least 1")
	}
	if o.precision < 0 || o.precision > 17 {
		return invalidInput("precision", o.precision, result.DefaultPrecision, "must be between 0 and 17")
	}
	if o.mode != accum.ModeAllHits && o.mode != accum.ModeBestPerRow {
		return invalidInput("mode", int(o.mode), int(accum.ModeAllHits), "unknown mode")
	}
	if o.memoryLimit < 0 || o.ioLimit < 0 {
		return invalidInput("limit", 0, 0, "resource limits must be non-negative")
	}
	return nil
}
