package hitaccum

import (
	"context"
	"time"

	"github.com/hupe1980/hitaccum/accum"
	"github.com/hupe1980/hitaccum/blobstore"
	"github.com/hupe1980/hitaccum/boundary"
	"github.com/hupe1980/hitaccum/resource"
	"github.com/hupe1980/hitaccum/result"
)

// ProcessHits aggregates hits per (query sequence, target sequence) pair and
// writes the sorted table to outputPath on the local file system.
//
// Sums are exact for adjusted scores (raw score minus bias) below
// accum.MaxScore (2^24). A larger or non-finite adjusted score fails the call
// with ErrScoreOutOfRange, which also matches ErrInvalidInput.
//
// The file appears atomically when the call succeeds. On error nothing is
// written under outputPath: a file already present there from an earlier
// run is left unchanged, and no partial or temporary file remains.
func ProcessHits(ctx context.Context, hits accum.Hits, query, target boundary.Index, outputPath string, optFns ...Option) (*Summary, error) {
	if outputPath == "" {
		return nil, invalidInput("output_path", 0, 0, "must not be empty")
	}
	return ProcessHitsToStore(ctx, hits, query, target, blobstore.NewLocalStore(""), outputPath, optFns...)
}

// ProcessHitsToStore is ProcessHits writing the table as blob name in store.
func ProcessHitsToStore(ctx context.Context, hits accum.Hits, query, target boundary.Index, store blobstore.WritableStore, name string, optFns ...Option) (*Summary, error) {
	o := applyOptions(optFns)
	start := time.Now()

	s, err := process(ctx, hits, query, target, store, name, o)
	err = translateError(err)
	if s != nil {
		s.TotalDuration = time.Since(start)
	}

	o.metricsCollector.RecordRun(time.Since(start), err)
	o.logger.WithOutput(blobstore.URI(store, name)).LogRun(ctx, s, err)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func process(ctx context.Context, hits accum.Hits, query, target boundary.Index, store blobstore.WritableStore, name string, o options) (*Summary, error) {
	if err := o.validate(); err != nil {
		return nil, err
	}
	if store == nil || name == "" {
		return nil, invalidInput("output", 0, 0, "a store and a non-empty name are required")
	}
	format, err := result.FormatByName(o.format, result.FormatOptions{
		Precision: o.precision,
		IDBase:    o.idBase,
		Header:    o.header,
		Codec:     o.codec,
	})
	if err != nil {
		return nil, invalidInput("format", 0, 0, err.Error())
	}

	rc := resource.NewController(resource.Config{
		MemoryLimitBytes:   o.memoryLimit,
		IOLimitBytesPerSec: o.ioLimit,
	})

	s := &Summary{
		Workers: min(o.numThreads, max(hits.Rows, 1)),
		Mode:    o.mode.String(),
		Bias:    o.bias,
	}

	// Accumulate
	t := time.Now()
	maps, err := accum.Accumulate(ctx, hits, query, target, accum.Config{
		Workers:          o.numThreads,
		Filter:           accum.Filter{Bias: o.bias},
		Mode:             o.mode,
		Budget:           rc,
		Logger:           o.logger.Logger,
		ProgressInterval: o.progressInterval,
	})
	s.AccumulateDuration = time.Since(t)
	var workerPairs, contributed int
	for _, m := range maps {
		workerPairs += m.Len()
		contributed += int(m.Stats.Contributed)
	}
	o.metricsCollector.RecordAccumulate(int64(hits.Rows), int64(contributed), s.AccumulateDuration, err)
	o.logger.LogAccumulate(ctx, o.numThreads, hits.Rows, workerPairs, s.AccumulateDuration, err)
	if err != nil {
		return nil, err
	}

	// Merge
	t = time.Now()
	merged, err := accum.Merge(ctx, maps)
	s.MergeDuration = time.Since(t)
	pairs := 0
	if merged != nil {
		pairs = merged.Len()
	}
	o.metricsCollector.RecordMerge(len(maps), pairs, s.MergeDuration, err)
	o.logger.LogMerge(ctx, len(maps), pairs, rc.MemoryUsage(), s.MergeDuration, err)
	if err != nil {
		return nil, err
	}
	defer merged.Release()

	stats := merged.Stats
	s.Rows = stats.Rows
	s.Accepted = stats.Accepted
	s.Contributed = stats.Contributed
	s.Dropped = stats.Dropped
	s.Padding = stats.Padding
	s.QuerySequences = merged.Queries.GetCardinality()
	s.TargetSequences = merged.Targets.GetCardinality()

	// Sort
	t = time.Now()
	records := result.Sort(merged)
	s.SortDuration = time.Since(t)

	// Write
	t = time.Now()
	ws, err := result.Write(ctx, store, name, records, result.Options{
		Format:    format,
		Resources: rc,
	})
	s.WriteDuration = time.Since(t)
	o.metricsCollector.RecordWrite(ws.Records, ws.Bytes, s.WriteDuration, err)
	o.logger.LogWrite(ctx, name, ws.Records, ws.Bytes, s.WriteDuration, err)
	if err != nil {
		return nil, err
	}

	s.Output = blobstore.URI(store, name)
	s.Format = ws.Format
	s.Compression = ws.Compression.String()
	s.Records = ws.Records
	s.Bytes = ws.Bytes
	s.PeakMemoryBytes = rc.PeakMemoryUsage()
	return s, nil
}
