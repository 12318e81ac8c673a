package hitaccum_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hupe1980/hitaccum"
	"github.com/hupe1980/hitaccum/accum"
	"github.com/hupe1980/hitaccum/blobstore"
	"github.com/hupe1980/hitaccum/boundary"
	"github.com/hupe1980/hitaccum/internal/compression"
	"github.com/hupe1980/hitaccum/workload"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exampleHits(t *testing.T) accum.Hits {
	t.Helper()
	hits, err := accum.FromRows(
		[][]float32{{0.9, 0.1}, {0.8, 0.2}, {0.95, 0.05}},
		[][]int64{{0, 1}, {0, 2}, {1, 2}},
	)
	require.NoError(t, err)
	return hits
}

func offsets(t *testing.T, starts ...int64) boundary.Index {
	t.Helper()
	idx, err := boundary.NewOffsets(starts)
	require.NoError(t, err)
	return idx
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestProcessHits_SingleQuerySequence(t *testing.T) {
	out := filepath.Join(t.TempDir(), "pairs.tsv")

	s, err := hitaccum.ProcessHits(context.Background(), exampleHits(t), offsets(t, 0, 3), offsets(t, 0, 2, 3), out,
		hitaccum.WithBias(0.5),
		hitaccum.WithNumThreads(2),
	)
	require.NoError(t, err)

	assert.Equal(t, "0\t0\t1.1500000\t0.4500000\t3\n", readFile(t, out))
	assert.Equal(t, int64(1), s.Records)
	assert.Equal(t, uint64(3), s.Rows)
	assert.Equal(t, uint64(3), s.Accepted)
	assert.Equal(t, uint64(3), s.Dropped)
	assert.Equal(t, uint64(1), s.QuerySequences)
	assert.Equal(t, uint64(1), s.TargetSequences)
	assert.Equal(t, 2, s.Workers)
	assert.Equal(t, "tsv", s.Format)
	assert.Equal(t, "none", s.Compression)
	assert.Equal(t, int64(len("0\t0\t1.1500000\t0.4500000\t3\n")), s.Bytes)
}

func TestProcessHits_QueryBoundarySplitsRows(t *testing.T) {
	out := filepath.Join(t.TempDir(), "pairs.tsv")

	_, err := hitaccum.ProcessHits(context.Background(), exampleHits(t), offsets(t, 0, 2, 3), offsets(t, 0, 2, 3), out,
		hitaccum.WithBias(0.5),
	)
	require.NoError(t, err)

	assert.Equal(t, "0\t0\t0.7000000\t0.4000000\t2\n1\t0\t0.4500000\t0.4500000\t1\n", readFile(t, out))
}

func TestProcessHits_ThreadCountDoesNotChangeOutput(t *testing.T) {
	cfg := workload.DefaultConfig()
	cfg.PaddingEvery = 7
	w, err := workload.Generate(cfg)
	require.NoError(t, err)

	store := blobstore.NewMemoryStore()
	var want []byte
	for _, n := range []int{1, 2, 7, 64} {
		name := "pairs.tsv"
		_, err := hitaccum.ProcessHitsToStore(context.Background(), w.Hits, w.Query, w.Target, store, name,
			hitaccum.WithBias(0.3),
			hitaccum.WithNumThreads(n),
		)
		require.NoError(t, err)

		got, ok := store.Bytes(name)
		require.True(t, ok)
		require.NotEmpty(t, got)
		if want == nil {
			want = got
			continue
		}
		assert.True(t, bytes.Equal(want, got), "output differs with %d threads", n)
	}
}

func TestProcessHits_SortOrder(t *testing.T) {
	cfg := workload.DefaultConfig()
	w, err := workload.Generate(cfg)
	require.NoError(t, err)

	store := blobstore.NewMemoryStore()
	_, err = hitaccum.ProcessHitsToStore(context.Background(), w.Hits, w.Query, w.Target, store, "pairs.jsonl",
		hitaccum.WithNumThreads(4),
		hitaccum.WithFormat("jsonl"),
	)
	require.NoError(t, err)

	data, _ := store.Bytes("pairs.jsonl")
	type rec struct {
		Query  int64   `json:"query"`
		Target int64   `json:"target"`
		Sum    float64 `json:"sum"`
	}
	var prev *rec
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		var r rec
		require.NoError(t, json.Unmarshal([]byte(line), &r))
		if prev != nil {
			require.LessOrEqual(t, prev.Query, r.Query)
			if prev.Query == r.Query {
				require.GreaterOrEqual(t, prev.Sum, r.Sum)
			}
		}
		prev = &r
	}
}

func TestProcessHits_AllDroppedWritesEmptyFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "pairs.tsv")

	s, err := hitaccum.ProcessHits(context.Background(), exampleHits(t), offsets(t, 0, 3), offsets(t, 0, 2, 3), out,
		hitaccum.WithBias(1),
	)
	require.NoError(t, err)

	assert.Empty(t, readFile(t, out))
	assert.Zero(t, s.Records)
	assert.Equal(t, uint64(6), s.Dropped)
}

func TestProcessHits_Header(t *testing.T) {
	out := filepath.Join(t.TempDir(), "pairs.tsv")

	_, err := hitaccum.ProcessHits(context.Background(), exampleHits(t), offsets(t, 0, 3), offsets(t, 0, 2, 3), out,
		hitaccum.WithBias(0.5),
		hitaccum.WithHeader(),
		hitaccum.WithIDBase(1),
		hitaccum.WithPrecision(2),
	)
	require.NoError(t, err)

	assert.Equal(t, "# query\ttarget\tsum\tmax\tcount\n1\t1\t1.15\t0.45\t3\n", readFile(t, out))
}

func TestProcessHits_Compressed(t *testing.T) {
	store := blobstore.NewMemoryStore()

	s, err := hitaccum.ProcessHitsToStore(context.Background(), exampleHits(t), offsets(t, 0, 3), offsets(t, 0, 2, 3), store, "pairs.tsv.zst",
		hitaccum.WithBias(0.5),
	)
	require.NoError(t, err)
	assert.Equal(t, "zstd", s.Compression)

	data, ok := store.Bytes("pairs.tsv.zst")
	require.True(t, ok)
	r, err := compression.NewReader(bytes.NewReader(data), compression.Zstd)
	require.NoError(t, err)
	defer r.Close()
	plain, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "0\t0\t1.1500000\t0.4500000\t3\n", string(plain))
}

func TestProcessHits_BestPerRow(t *testing.T) {
	hits, err := accum.FromRows(
		[][]float32{{0.9, 0.8}},
		[][]int64{{0, 1}},
	)
	require.NoError(t, err)
	store := blobstore.NewMemoryStore()

	_, err = hitaccum.ProcessHitsToStore(context.Background(), hits, offsets(t, 0, 1), offsets(t, 0, 2), store, "pairs.tsv",
		hitaccum.WithMode(accum.ModeBestPerRow),
	)
	require.NoError(t, err)

	data, _ := store.Bytes("pairs.tsv")
	assert.Equal(t, "0\t0\t0.9000000\t0.9000000\t1\n", string(data))
}

func TestProcessHits_InvalidInput(t *testing.T) {
	hits := exampleHits(t)
	query := offsets(t, 0, 3)
	target := offsets(t, 0, 2, 3)
	dir := t.TempDir()

	tests := []struct {
		name   string
		hits   accum.Hits
		query  boundary.Index
		opts   []hitaccum.Option
		output string
	}{
		{"zero threads", hits, query, []hitaccum.Option{hitaccum.WithNumThreads(0)}, "a.tsv"},
		{"bad precision", hits, query, []hitaccum.Option{hitaccum.WithPrecision(40)}, "b.tsv"},
		{"unknown format", hits, query, []hitaccum.Option{hitaccum.WithFormat("xml")}, "c.tsv"},
		{"query table too short", hits, offsets(t, 0, 2), nil, "d.tsv"},
		{"ragged hits", accum.Hits{Scores: []float32{1}, Indices: []int64{0, 1}, Rows: 1, K: 1}, query, nil, "e.tsv"},
		{"unknown mode", hits, query, []hitaccum.Option{hitaccum.WithMode(accum.Mode(7))}, "f.tsv"},
		{"empty output", hits, query, nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := tt.output
			if out != "" {
				out = filepath.Join(dir, out)
			}
			_, err := hitaccum.ProcessHits(context.Background(), tt.hits, tt.query, target, out, tt.opts...)
			require.ErrorIs(t, err, hitaccum.ErrInvalidInput)
			if out != "" {
				_, statErr := os.Stat(out)
				assert.True(t, os.IsNotExist(statErr))
			}
		})
	}
}

func TestProcessHits_OutOfRangeLeavesNoFile(t *testing.T) {
	hits, err := accum.FromRows(
		[][]float32{{0.9, 0.8}, {0.7, 0.6}},
		[][]int64{{0, 1}, {1, 9}},
	)
	require.NoError(t, err)
	dir := t.TempDir()
	out := filepath.Join(dir, "pairs.tsv")

	_, err = hitaccum.ProcessHits(context.Background(), hits, offsets(t, 0, 2), offsets(t, 0, 2), out, hitaccum.WithNumThreads(2))
	require.ErrorIs(t, err, hitaccum.ErrOutOfRange)

	var oor *hitaccum.OutOfRangeError
	require.True(t, errors.As(err, &oor))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestProcessHits_ScoreOutOfRange(t *testing.T) {
	hits, err := accum.FromRows([][]float32{{0.5}, {1 << 25}}, [][]int64{{0}, {0}})
	require.NoError(t, err)
	store := blobstore.NewMemoryStore()

	_, err = hitaccum.ProcessHitsToStore(context.Background(), hits, offsets(t, 0, 2), offsets(t, 0, 1), store, "pairs.tsv")
	require.ErrorIs(t, err, hitaccum.ErrScoreOutOfRange)
	require.ErrorIs(t, err, hitaccum.ErrInvalidInput)
	assert.Empty(t, store.List(""))
}

func TestProcessHits_ResourceExhausted(t *testing.T) {
	store := blobstore.NewMemoryStore()

	_, err := hitaccum.ProcessHitsToStore(context.Background(), exampleHits(t), offsets(t, 0, 3), offsets(t, 0, 2, 3), store, "pairs.tsv",
		hitaccum.WithBias(0.5),
		hitaccum.WithMemoryLimit(1),
	)
	require.ErrorIs(t, err, hitaccum.ErrResourceExhausted)
	assert.Empty(t, store.List(""))
}

func TestProcessHits_MemoryLimitIndependentOfThreads(t *testing.T) {
	// Four rows that all land on the same pair.
	hits, err := accum.FromRows(
		[][]float32{{0.9}, {0.8}, {0.7}, {0.6}},
		[][]int64{{0}, {0}, {0}, {0}},
	)
	require.NoError(t, err)
	query := offsets(t, 0, 4)
	target := offsets(t, 0, 1)

	var want string
	for _, threads := range []int{1, 4} {
		store := blobstore.NewMemoryStore()
		_, err := hitaccum.ProcessHitsToStore(context.Background(), hits, query, target, store, "pairs.tsv",
			hitaccum.WithNumThreads(threads),
			hitaccum.WithMemoryLimit(4*1024),
		)
		require.NoError(t, err, "threads=%d", threads)

		data, err := blobstore.ReadAll(context.Background(), store, "pairs.tsv")
		require.NoError(t, err)
		if want == "" {
			want = string(data)
		}
		assert.Equal(t, want, string(data), "threads=%d", threads)
	}
	assert.Equal(t, "0\t0\t3.0000000\t0.9000000\t4\n", want)
}

func TestProcessHits_SinglePairUnderSmallLimit(t *testing.T) {
	hits, err := accum.FromRows([][]float32{{0.5}}, [][]int64{{0}})
	require.NoError(t, err)
	store := blobstore.NewMemoryStore()

	_, err = hitaccum.ProcessHitsToStore(context.Background(), hits, offsets(t, 0, 1), offsets(t, 0, 1), store, "pairs.tsv",
		hitaccum.WithMemoryLimit(100_000),
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"pairs.tsv"}, store.List(""))
}

func TestProcessHits_FailureKeepsPreviousOutput(t *testing.T) {
	out := filepath.Join(t.TempDir(), "pairs.tsv")
	require.NoError(t, os.WriteFile(out, []byte("previous\n"), 0o644))

	_, err := hitaccum.ProcessHits(context.Background(), exampleHits(t), offsets(t, 0, 3), offsets(t, 0, 2, 3), out,
		hitaccum.WithMemoryLimit(1),
	)
	require.ErrorIs(t, err, hitaccum.ErrResourceExhausted)
	assert.Equal(t, "previous\n", readFile(t, out))
}

func TestProcessHits_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	store := blobstore.NewMemoryStore()

	_, err := hitaccum.ProcessHitsToStore(ctx, exampleHits(t), offsets(t, 0, 3), offsets(t, 0, 2, 3), store, "pairs.tsv")
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, store.List(""))
}

func TestProcessHits_Metrics(t *testing.T) {
	metrics := &hitaccum.BasicMetricsCollector{}
	store := blobstore.NewMemoryStore()

	_, err := hitaccum.ProcessHitsToStore(context.Background(), exampleHits(t), offsets(t, 0, 3), offsets(t, 0, 2, 3), store, "pairs.tsv",
		hitaccum.WithBias(0.5),
		hitaccum.WithMetricsCollector(metrics),
	)
	require.NoError(t, err)

	stats := metrics.GetStats()
	assert.Equal(t, int64(1), stats.RunCount)
	assert.Equal(t, int64(3), stats.RowsProcessed)
	assert.Equal(t, int64(1), stats.RecordsWritten)
	assert.Zero(t, stats.RunErrors)
}

func TestSummary_Marshal(t *testing.T) {
	store := blobstore.NewMemoryStore()

	s, err := hitaccum.ProcessHitsToStore(context.Background(), exampleHits(t), offsets(t, 0, 3), offsets(t, 0, 2, 3), store, "pairs.tsv",
		hitaccum.WithBias(0.5),
	)
	require.NoError(t, err)

	data, err := s.Marshal(nil)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "mem://pairs.tsv", decoded["output"])
	assert.EqualValues(t, 1, decoded["records"])
	assert.Equal(t, "all", decoded["mode"])
}
