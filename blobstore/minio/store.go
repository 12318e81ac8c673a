package minio

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"sync/atomic"

	"github.com/hupe1980/hitaccum/blobstore"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Putter is the subset of *minio.Client the store uses.
type Putter interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// Options configures New.
type Options struct {
	AccessKey string
	SecretKey string
	Secure    bool
	Region    string
	Prefix    string
	PartSize  uint64
}

// WithCredentials sets static V4 credentials.
func WithCredentials(accessKey, secretKey string) func(*Options) {
	return func(o *Options) {
		o.AccessKey = accessKey
		o.SecretKey = secretKey
	}
}

// WithSecure enables TLS.
func WithSecure(secure bool) func(*Options) {
	return func(o *Options) { o.Secure = secure }
}

// WithPrefix prepends prefix to every object name.
func WithPrefix(prefix string) func(*Options) {
	return func(o *Options) { o.Prefix = prefix }
}

// WithRegion sets the bucket region.
func WithRegion(region string) func(*Options) {
	return func(o *Options) { o.Region = region }
}

// Store implements blobstore.WritableStore for MinIO and S3-compatible storage.
type Store struct {
	client   Putter
	bucket   string
	prefix   string
	endpoint string
	partSize uint64
}

// New creates a client for endpoint and a store for bucket.
func New(endpoint, bucket string, optFns ...func(*Options)) (*Store, error) {
	var opts Options
	for _, fn := range optFns {
		fn(&opts)
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.Secure,
		Region: opts.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("minio: create client: %w", err)
	}

	s := NewStore(client, bucket, opts.Prefix)
	s.endpoint = endpoint
	s.partSize = opts.PartSize
	return s, nil
}

// NewStore creates a store around an existing client.
func NewStore(client Putter, bucket, prefix string) *Store {
	return &Store{client: client, bucket: bucket, prefix: prefix}
}

func (s *Store) key(name string) string {
	return path.Join(s.prefix, name)
}

// URI returns minio://bucket/key for name.
func (s *Store) URI(name string) string {
	return "minio://" + s.bucket + "/" + s.key(name)
}

// Create starts a streaming upload.
func (s *Store) Create(ctx context.Context, name string) (blobstore.WritableBlob, error) {
	ctx, cancel := context.WithCancel(ctx)
	pr, pw := io.Pipe()

	blob := &writableBlob{
		pw:     pw,
		cancel: cancel,
		done:   make(chan error, 1),
	}

	opts := minio.PutObjectOptions{
		ContentType: contentType(name),
		PartSize:    s.partSize,
	}

	go func() {
		_, err := s.client.PutObject(ctx, s.bucket, s.key(name), pr, -1, opts)
		_ = pr.CloseWithError(err)
		blob.done <- err
	}()

	return blob, nil
}

func contentType(name string) string {
	switch {
	case strings.HasSuffix(name, ".tsv"):
		return "text/tab-separated-values"
	case strings.HasSuffix(name, ".jsonl"):
		return "application/x-ndjson"
	default:
		return "application/octet-stream"
	}
}

type writableBlob struct {
	pw       *io.PipeWriter
	cancel   context.CancelFunc
	done     chan error
	finished atomic.Bool
}

func (b *writableBlob) Write(p []byte) (int, error) {
	if b.finished.Load() {
		return 0, blobstore.ErrClosed
	}
	return b.pw.Write(p)
}

func (b *writableBlob) Close() error {
	if !b.finished.CompareAndSwap(false, true) {
		return blobstore.ErrClosed
	}
	defer b.cancel()
	if err := b.pw.Close(); err != nil {
		return err
	}
	if err := <-b.done; err != nil {
		return fmt.Errorf("minio: upload: %w", err)
	}
	return nil
}

func (b *writableBlob) Abort() error {
	if !b.finished.CompareAndSwap(false, true) {
		return nil
	}
	_ = b.pw.CloseWithError(blobstore.ErrAborted)
	b.cancel()
	<-b.done
	return nil
}

// ParseURI splits minio://bucket/key.
func ParseURI(uri string) (bucket, key string, err error) {
	rest, ok := strings.CutPrefix(uri, "minio://")
	if !ok {
		return "", "", fmt.Errorf("minio: invalid URI %q", uri)
	}
	bucket, key, _ = strings.Cut(rest, "/")
	if bucket == "" || key == "" || strings.HasSuffix(key, "/") {
		return "", "", fmt.Errorf("minio: invalid URI %q (want minio://bucket/key)", uri)
	}
	return bucket, key, nil
}
