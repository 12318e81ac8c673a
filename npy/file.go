package npy

import (
	"context"
	"fmt"
	"io"

	"github.com/hupe1980/hitaccum/blobstore"
	"github.com/hupe1980/hitaccum/internal/compression"
	"github.com/hupe1980/hitaccum/internal/mmap"
)

// File is an Array backed by a blob. Slices returned by Float32s and
// Int64s may alias the blob's mapping and are valid until Close.
type File struct {
	*Array
	blob blobstore.Blob
}

type advisable interface {
	Advise(pattern mmap.AccessPattern) error
}

// Open loads name from store. Blobs whose name ends in .gz, .zst or .lz4
// are decompressed into memory. Other blobs are decoded in place when the
// store can map them and read into memory otherwise.
func Open(ctx context.Context, store blobstore.BlobStore, name string) (*File, error) {
	blob, err := store.Open(ctx, name)
	if err != nil {
		return nil, err
	}

	a, err := decodeBlob(blob, compression.FromName(name))
	if err != nil {
		_ = blob.Close()
		return nil, fmt.Errorf("npy: %s: %w", blobstore.URI(store, name), err)
	}
	return &File{Array: a, blob: blob}, nil
}

// Close releases the underlying blob.
func (f *File) Close() error {
	if f.blob == nil {
		return nil
	}
	err := f.blob.Close()
	f.blob = nil
	return err
}

func decodeBlob(blob blobstore.Blob, ctype compression.Type) (*Array, error) {
	if ctype != compression.None {
		r, err := compression.NewReader(blobstore.NewReader(blob), ctype)
		if err != nil {
			return nil, err
		}
		defer r.Close()

		data, err := io.ReadAll(r)
		if err != nil {
			return nil, err
		}
		return Decode(data)
	}

	if m, ok := blob.(blobstore.Mappable); ok {
		data, err := m.Bytes()
		if err != nil {
			return nil, err
		}
		// Workers scan the hit matrices front to back.
		if adv, ok := blob.(advisable); ok {
			_ = adv.Advise(mmap.AccessSequential)
		}
		return Decode(data)
	}

	data, err := io.ReadAll(blobstore.NewReader(blob))
	if err != nil {
		return nil, err
	}
	return Decode(data)
}

// Save writes an array to name in store, compressing by extension. The
// blob is committed only if every byte was written.
func Save(ctx context.Context, store blobstore.WritableStore, name string, shape []int, data any) error {
	blob, err := store.Create(ctx, name)
	if err != nil {
		return err
	}
	zw, err := compression.NewWriter(blob, compression.FromName(name))
	if err != nil {
		_ = blob.Abort()
		return err
	}
	if err := Write(zw, shape, data); err != nil {
		_ = blob.Abort()
		return err
	}
	if err := zw.Close(); err != nil {
		_ = blob.Abort()
		return err
	}
	return blob.Close()
}
