package blobstore

import (
	"context"
	"errors"
	"io"
	"os"
)

// ErrNotFound is returned when a blob does not exist.
//
// Implementations should return an error that satisfies `errors.Is(err, ErrNotFound)`.
// The default maps to `os.ErrNotExist`.
var ErrNotFound = os.ErrNotExist

// ErrClosed is returned when writing to a blob that was already committed or aborted.
var ErrClosed = errors.New("blobstore: blob is closed")

// ErrAborted is the cause reported by streaming uploads cancelled through Abort.
var ErrAborted = errors.New("blobstore: upload aborted")

// BlobStore opens existing blobs for reading.
type BlobStore interface {
	Open(ctx context.Context, name string) (Blob, error)
}

// WritableStore creates blobs.
type WritableStore interface {
	Create(ctx context.Context, name string) (WritableBlob, error)
}

// Store is a readable and writable store.
type Store interface {
	BlobStore
	WritableStore
}

// Blob is a read-only handle to a data blob.
type Blob interface {
	io.ReaderAt
	io.Closer
	// Size returns the size of the blob in bytes.
	Size() int64
}

// Mappable is an optional interface for Blobs that support memory mapping.
type Mappable interface {
	// Bytes returns the underlying byte slice.
	// The slice is valid until the Blob is closed.
	Bytes() ([]byte, error)
}

// WritableBlob is an in-progress write.
//
// Close commits the blob and reports any error of the underlying transfer.
// Abort discards it; calling Abort after a successful Close is a no-op.
type WritableBlob interface {
	io.Writer
	Close() error
	Abort() error
}

// Locator is implemented by stores that can describe where a blob lives,
// e.g. "s3://bucket/key" or an absolute file path.
type Locator interface {
	URI(name string) string
}

// URI returns the location of name in s, or name itself when s does not
// implement Locator.
func URI(s any, name string) string {
	if l, ok := s.(Locator); ok {
		return l.URI(name)
	}
	return name
}

// NewReader returns a sequential reader over the whole blob.
func NewReader(b Blob) io.Reader {
	return io.NewSectionReader(b, 0, b.Size())
}

// ReadAll reads a blob into memory.
func ReadAll(ctx context.Context, s BlobStore, name string) ([]byte, error) {
	b, err := s.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer b.Close()

	if m, ok := b.(Mappable); ok {
		data, err := m.Bytes()
		if err != nil {
			return nil, err
		}
		return append([]byte(nil), data...), nil
	}
	return io.ReadAll(NewReader(b))
}
