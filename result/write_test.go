package result

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"testing"

	"github.com/hupe1980/hitaccum/blobstore"
	"github.com/hupe1980/hitaccum/internal/compression"
	"github.com/hupe1980/hitaccum/internal/fs"
	"github.com/hupe1980/hitaccum/resource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func records(n int) []Record {
	out := make([]Record, n)
	for i := range out {
		out[i] = Record{Query: int64(i / 3), Target: int64(i % 3), Sum: 0.5, Max: 0.25, Count: 2}
	}
	return out
}

func TestWrite(t *testing.T) {
	store := blobstore.NewMemoryStore()

	stats, err := Write(context.Background(), store, "out.tsv", records(2), Options{})
	require.NoError(t, err)

	got, ok := store.Bytes("out.tsv")
	require.True(t, ok)
	assert.Equal(t, "0\t0\t0.5000000\t0.2500000\t2\n0\t1\t0.5000000\t0.2500000\t2\n", string(got))
	assert.Equal(t, int64(2), stats.Records)
	assert.Equal(t, int64(len(got)), stats.Bytes)
	assert.Equal(t, compression.None, stats.Compression)
	assert.Equal(t, "tsv", stats.Format)
}

func TestWrite_EmptyTable(t *testing.T) {
	store := blobstore.NewMemoryStore()

	_, err := Write(context.Background(), store, "empty.tsv", nil, Options{})
	require.NoError(t, err)
	got, ok := store.Bytes("empty.tsv")
	require.True(t, ok, "empty output still produces a blob")
	assert.Empty(t, got)

	_, err = Write(context.Background(), store, "header.tsv", nil, Options{Format: TSV{Header: true}})
	require.NoError(t, err)
	got, _ = store.Bytes("header.tsv")
	assert.Equal(t, "# query\ttarget\tsum\tmax\tcount\n", string(got))
}

func TestWrite_Compressed(t *testing.T) {
	store := blobstore.NewMemoryStore()
	recs := records(5000)

	for _, name := range []string{"out.tsv.gz", "out.tsv.zst", "out.tsv.lz4"} {
		stats, err := Write(context.Background(), store, name, recs, Options{})
		require.NoError(t, err)

		raw, ok := store.Bytes(name)
		require.True(t, ok)
		assert.Equal(t, int64(len(raw)), stats.Bytes)

		r, err := compression.NewReader(bytes.NewReader(raw), compression.FromName(name))
		require.NoError(t, err)
		plain, err := io.ReadAll(r)
		require.NoError(t, err)
		assert.Equal(t, 5000, bytes.Count(plain, []byte("\n")), name)
		assert.Less(t, len(raw), len(plain), name)
	}
}

func TestWrite_RateLimited(t *testing.T) {
	store := blobstore.NewMemoryStore()
	rc := resource.NewController(resource.Config{IOLimitBytesPerSec: 1 << 30})

	_, err := Write(context.Background(), store, "out.jsonl", records(10), Options{
		Format:    JSONL{},
		Resources: rc,
	})
	require.NoError(t, err)
	got, _ := store.Bytes("out.jsonl")
	assert.Equal(t, 10, bytes.Count(got, []byte("\n")))
}

type failingStore struct {
	createErr error
	writeErr  error
	closeErr  error
	aborted   bool
}

func (s *failingStore) Create(context.Context, string) (blobstore.WritableBlob, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	return &failingBlob{s: s}, nil
}

type failingBlob struct{ s *failingStore }

func (b *failingBlob) Write(p []byte) (int, error) {
	if b.s.writeErr != nil {
		return 0, b.s.writeErr
	}
	return len(p), nil
}

func (b *failingBlob) Close() error { return b.s.closeErr }

func (b *failingBlob) Abort() error {
	b.s.aborted = true
	return nil
}

func TestWrite_Failures(t *testing.T) {
	boom := errors.New("disk full")

	tests := []struct {
		name    string
		store   *failingStore
		op      string
		aborted bool
	}{
		{"create", &failingStore{createErr: boom}, "create", false},
		{"write", &failingStore{writeErr: boom}, "write", true},
		{"commit", &failingStore{closeErr: boom}, "commit", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Write(context.Background(), tt.store, "out.tsv", records(3), Options{})
			require.ErrorIs(t, err, boom)

			var ioErr *IOError
			require.ErrorAs(t, err, &ioErr)
			assert.Equal(t, tt.op, ioErr.Op)
			assert.Equal(t, "out.tsv", ioErr.Name)
			assert.Equal(t, tt.aborted, tt.store.aborted)
		})
	}
}

func TestWrite_Canceled(t *testing.T) {
	store := blobstore.NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Write(ctx, store, "out.tsv", records(3), Options{})
	require.ErrorIs(t, err, context.Canceled)

	_, ok := store.Bytes("out.tsv")
	assert.False(t, ok)
}

func TestWrite_LocalDiskFull(t *testing.T) {
	dir := t.TempDir()
	ffs := fs.NewFaultyFS(nil)
	ffs.AddRule(".tmp-", fs.Fault{FailAfterBytes: 100})
	store := blobstore.NewLocalStoreFS(dir, ffs)

	_, err := Write(context.Background(), store, "out.tsv", records(1000), Options{BufferSize: 64})
	require.ErrorIs(t, err, fs.ErrInjected)

	var ioErr *IOError
	require.ErrorAs(t, err, &ioErr)
	assert.Equal(t, "write", ioErr.Op)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.LessOrEqual(t, ffs.Written(), int64(100))
}
