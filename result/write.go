package result

import (
	"bufio"
	"context"
	"io"

	"github.com/hupe1980/hitaccum/blobstore"
	"github.com/hupe1980/hitaccum/internal/compression"
	"github.com/hupe1980/hitaccum/resource"
)

const (
	defaultBufferSize = 256 << 10

	// recordsPerCheck is the number of records between cancellation checks.
	recordsPerCheck = 4096
)

// Options configures Write.
type Options struct {
	// Format serializes records; nil means TSV with default precision.
	Format Format

	// Compression overrides the codec inferred from the blob name.
	Compression *compression.Type

	// Resources throttles output bytes. Nil means unlimited.
	Resources *resource.Controller

	// BufferSize is the size of the write buffer in front of the codec.
	BufferSize int
}

// Stats describes a written blob.
type Stats struct {
	Records     int64
	Bytes       int64 // bytes handed to the sink, after compression
	Compression compression.Type
	Format      string
}

// Write serializes records into a new blob and commits it.
//
// Either the complete blob is committed or it is aborted; an error never
// leaves a partial object visible. Context errors are returned unchanged,
// everything else as *IOError.
func Write(ctx context.Context, store blobstore.WritableStore, name string, records []Record, opts Options) (Stats, error) {
	format := opts.Format
	if format == nil {
		format = TSV{Precision: DefaultPrecision}
	}
	ctype := compression.FromName(name)
	if opts.Compression != nil {
		ctype = *opts.Compression
	}
	bufSize := opts.BufferSize
	if bufSize <= 0 {
		bufSize = defaultBufferSize
	}

	stats := Stats{Compression: ctype, Format: format.Name()}

	if err := ctx.Err(); err != nil {
		return stats, err
	}

	blob, err := store.Create(ctx, name)
	if err != nil {
		return stats, &IOError{Op: "create", Name: name, Err: err}
	}

	counter := &countingWriter{w: blob}
	limited := resource.NewRateLimitedWriter(ctx, counter, opts.Resources)

	zw, err := compression.NewWriter(limited, ctype)
	if err != nil {
		_ = blob.Abort()
		return stats, &IOError{Op: "create", Name: name, Err: err}
	}

	fail := func(op string, err error) (Stats, error) {
		_ = blob.Abort()
		if ctxErr := ctx.Err(); ctxErr != nil {
			return stats, ctxErr
		}
		return stats, &IOError{Op: op, Name: name, Err: err}
	}

	bw := bufio.NewWriterSize(zw, bufSize)
	line := format.AppendHeader(make([]byte, 0, 128))
	for i, r := range records {
		if i%recordsPerCheck == 0 {
			if err := ctx.Err(); err != nil {
				return fail("write", err)
			}
		}
		if line, err = format.AppendRecord(line, r); err != nil {
			return fail("write", err)
		}
		if _, err := bw.Write(line); err != nil {
			return fail("write", err)
		}
		line = line[:0]
	}
	if len(line) > 0 {
		// Header of an empty table.
		if _, err := bw.Write(line); err != nil {
			return fail("write", err)
		}
	}

	if err := bw.Flush(); err != nil {
		return fail("write", err)
	}
	if err := zw.Close(); err != nil {
		return fail("write", err)
	}
	if err := blob.Close(); err != nil {
		_ = blob.Abort()
		return stats, &IOError{Op: "commit", Name: name, Err: err}
	}

	stats.Records = int64(len(records))
	stats.Bytes = counter.n
	return stats, nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
