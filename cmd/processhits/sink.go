package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/hupe1980/hitaccum/blobstore"
	"github.com/hupe1980/hitaccum/blobstore/minio"
	"github.com/hupe1980/hitaccum/blobstore/s3"
	"github.com/hupe1980/hitaccum/internal/config"
)

// sink is the resolved output location of a run.
type sink struct {
	store blobstore.WritableStore
	name  string
	// s3 outputs are the only ones with a completion ledger.
	s3 bool
}

// openSink maps an output path to a store: s3://bucket/key, minio://bucket/key
// or a local path.
func openSink(ctx context.Context, out config.OutputConfig, mc config.MinIOConfig) (*sink, error) {
	switch {
	case strings.HasPrefix(out.Path, "s3://"):
		bucket, key, err := s3.ParseURI(out.Path)
		if err != nil {
			return nil, err
		}
		var opts []func(*s3.Options)
		if out.Region != "" {
			opts = append(opts, s3.WithRegion(out.Region))
		}
		store, err := s3.New(ctx, bucket, opts...)
		if err != nil {
			return nil, fmt.Errorf("s3 store: %w", err)
		}
		return &sink{store: store, name: key, s3: true}, nil

	case strings.HasPrefix(out.Path, "minio://"):
		bucket, key, err := minio.ParseURI(out.Path)
		if err != nil {
			return nil, err
		}
		if mc.Endpoint == "" {
			return nil, fmt.Errorf("minio output %q needs an endpoint", out.Path)
		}
		opts := []func(*minio.Options){minio.WithSecure(mc.Secure)}
		if mc.AccessKey != "" {
			opts = append(opts, minio.WithCredentials(mc.AccessKey, mc.SecretKey))
		}
		if out.Region != "" {
			opts = append(opts, minio.WithRegion(out.Region))
		}
		store, err := minio.New(mc.Endpoint, bucket, opts...)
		if err != nil {
			return nil, fmt.Errorf("minio store: %w", err)
		}
		return &sink{store: store, name: key}, nil

	default:
		return &sink{store: blobstore.NewLocalStore(""), name: out.Path}, nil
	}
}

// digestStore hashes every byte handed to the blobs it creates.
type digestStore struct {
	blobstore.WritableStore
	h *xxhash.Digest
}

func newDigestStore(s blobstore.WritableStore) *digestStore {
	return &digestStore{WritableStore: s, h: xxhash.New()}
}

func (s *digestStore) Create(ctx context.Context, name string) (blobstore.WritableBlob, error) {
	blob, err := s.WritableStore.Create(ctx, name)
	if err != nil {
		return nil, err
	}
	s.h.Reset()
	return &digestBlob{WritableBlob: blob, h: s.h}, nil
}

func (s *digestStore) URI(name string) string {
	return blobstore.URI(s.WritableStore, name)
}

// Digest returns the xxhash64 of the last blob as 16 hex digits.
func (s *digestStore) Digest() string {
	return fmt.Sprintf("%016x", s.h.Sum64())
}

type digestBlob struct {
	blobstore.WritableBlob
	h *xxhash.Digest
}

func (b *digestBlob) Write(p []byte) (int, error) {
	n, err := b.WritableBlob.Write(p)
	_, _ = b.h.Write(p[:n])
	return n, err
}
