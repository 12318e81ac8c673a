package hitaccum

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting pipeline metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
//
// Example Prometheus integration:
//
//	type PrometheusCollector struct {
//	    runs     prometheus.Counter
//	    duration prometheus.Histogram
//	}
//
//	func (p *PrometheusCollector) RecordRun(d time.Duration, err error) {
//	    p.runs.Inc()
//	    p.duration.Observe(d.Seconds())
//	}
type MetricsCollector interface {
	// RecordAccumulate is called after the accumulation stage.
	// hits is the number of hits that contributed to an aggregate.
	RecordAccumulate(rows, hits int64, duration time.Duration, err error)

	// RecordMerge is called after the merge stage.
	RecordMerge(maps, pairs int, duration time.Duration, err error)

	// RecordWrite is called after the output blob was committed or aborted.
	RecordWrite(records, bytes int64, duration time.Duration, err error)

	// RecordRun is called once per call with the total duration.
	RecordRun(duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordAccumulate(int64, int64, time.Duration, error) {}
func (NoopMetricsCollector) RecordMerge(int, int, time.Duration, error)          {}
func (NoopMetricsCollector) RecordWrite(int64, int64, time.Duration, error)      {}
func (NoopMetricsCollector) RecordRun(time.Duration, error)                      {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and benchmarks without external dependencies.
type BasicMetricsCollector struct {
	RunCount        atomic.Int64
	RunErrors       atomic.Int64
	RunTotalNanos   atomic.Int64
	RowsProcessed   atomic.Int64
	HitsAccumulated atomic.Int64
	AccumulateNanos atomic.Int64
	PairsMerged     atomic.Int64
	MergeNanos      atomic.Int64
	RecordsWritten  atomic.Int64
	BytesWritten    atomic.Int64
	WriteNanos      atomic.Int64
	WriteErrors     atomic.Int64
}

// RecordAccumulate implements MetricsCollector.
func (b *BasicMetricsCollector) RecordAccumulate(rows, hits int64, duration time.Duration, err error) {
	b.AccumulateNanos.Add(duration.Nanoseconds())
	if err != nil {
		return
	}
	b.RowsProcessed.Add(rows)
	b.HitsAccumulated.Add(hits)
}

// RecordMerge implements MetricsCollector.
func (b *BasicMetricsCollector) RecordMerge(_ int, pairs int, duration time.Duration, err error) {
	b.MergeNanos.Add(duration.Nanoseconds())
	if err == nil {
		b.PairsMerged.Add(int64(pairs))
	}
}

// RecordWrite implements MetricsCollector.
func (b *BasicMetricsCollector) RecordWrite(records, bytes int64, duration time.Duration, err error) {
	b.WriteNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.WriteErrors.Add(1)
		return
	}
	b.RecordsWritten.Add(records)
	b.BytesWritten.Add(bytes)
}

// RecordRun implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRun(duration time.Duration, err error) {
	b.RunCount.Add(1)
	b.RunTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.RunErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		RunCount:        b.RunCount.Load(),
		RunErrors:       b.RunErrors.Load(),
		RunAvgNanos:     b.getAvgRunNanos(),
		RowsProcessed:   b.RowsProcessed.Load(),
		HitsAccumulated: b.HitsAccumulated.Load(),
		PairsMerged:     b.PairsMerged.Load(),
		RecordsWritten:  b.RecordsWritten.Load(),
		BytesWritten:    b.BytesWritten.Load(),
		WriteErrors:     b.WriteErrors.Load(),
	}
}

func (b *BasicMetricsCollector) getAvgRunNanos() int64 {
	count := b.RunCount.Load()
	if count == 0 {
		return 0
	}
	return b.RunTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	RunCount        int64
	RunErrors       int64
	RunAvgNanos     int64
	RowsProcessed   int64
	HitsAccumulated int64
	PairsMerged     int64
	RecordsWritten  int64
	BytesWritten    int64
	WriteErrors     int64
}
