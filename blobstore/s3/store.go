package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"sync/atomic"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/hupe1980/hitaccum/blobstore"
)

// ErrInvalidURI is returned by ParseURI for anything but s3://bucket/key.
var ErrInvalidURI = errors.New("s3: invalid URI")

// Uploader is the subset of *manager.Uploader the store uses.
type Uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// UploadConfig configures the multipart uploader.
type UploadConfig struct {
	// PartSize is the minimum part size for multipart uploads.
	// Default: 8MB
	PartSize int64

	// Concurrency is the number of concurrent part uploads.
	// Default: 5
	Concurrency int
}

// DefaultUploadConfig returns the upload settings used by New.
func DefaultUploadConfig() UploadConfig {
	return UploadConfig{
		PartSize:    8 * 1024 * 1024,
		Concurrency: 5,
	}
}

// Options configures New.
type Options struct {
	Prefix string
	Region string
	Upload UploadConfig
}

// WithPrefix prepends prefix to every key.
func WithPrefix(prefix string) func(*Options) {
	return func(o *Options) { o.Prefix = prefix }
}

// WithRegion overrides the region from the default AWS config chain.
func WithRegion(region string) func(*Options) {
	return func(o *Options) { o.Region = region }
}

// WithUploadConfig overrides the multipart settings.
func WithUploadConfig(cfg UploadConfig) func(*Options) {
	return func(o *Options) { o.Upload = cfg }
}

// Store implements blobstore.WritableStore for S3.
type Store struct {
	uploader Uploader
	bucket   string
	prefix   string
}

// New loads the default AWS config and creates a store for bucket.
func New(ctx context.Context, bucket string, optFns ...func(*Options)) (*Store, error) {
	opts := Options{Upload: DefaultUploadConfig()}
	for _, fn := range optFns {
		fn(&opts)
	}

	var cfgFns []func(*config.LoadOptions) error
	if opts.Region != "" {
		cfgFns = append(cfgFns, config.WithRegion(opts.Region))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, cfgFns...)
	if err != nil {
		return nil, fmt.Errorf("s3: load aws config: %w", err)
	}

	return NewStore(s3.NewFromConfig(awsCfg), bucket, opts.Prefix, opts.Upload), nil
}

// NewStore creates a store that uploads through client.
func NewStore(client manager.UploadAPIClient, bucket, prefix string, cfg UploadConfig) *Store {
	up := manager.NewUploader(client, func(u *manager.Uploader) {
		if cfg.PartSize > 0 {
			u.PartSize = cfg.PartSize
		}
		if cfg.Concurrency > 0 {
			u.Concurrency = cfg.Concurrency
		}
		// Failed uploads must not leave orphaned parts behind.
		u.LeavePartsOnError = false
	})
	return NewStoreWithUploader(up, bucket, prefix)
}

// NewStoreWithUploader creates a store around an existing uploader.
func NewStoreWithUploader(up Uploader, bucket, prefix string) *Store {
	return &Store{uploader: up, bucket: bucket, prefix: prefix}
}

// Bucket returns the target bucket.
func (s *Store) Bucket() string { return s.bucket }

// Key returns the object key of name.
func (s *Store) Key(name string) string {
	return path.Join(s.prefix, name)
}

// URI returns s3://bucket/key for name.
func (s *Store) URI(name string) string {
	return "s3://" + s.bucket + "/" + s.Key(name)
}

// Create starts a streaming upload. The object exists only after Close
// returns nil.
func (s *Store) Create(ctx context.Context, name string) (blobstore.WritableBlob, error) {
	ctx, cancel := context.WithCancel(ctx)
	pr, pw := io.Pipe()

	blob := &writableBlob{
		pw:     pw,
		cancel: cancel,
		done:   make(chan error, 1),
	}

	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.Key(name)),
		Body:   pr,
	}

	go func() {
		_, err := s.uploader.Upload(ctx, input)
		_ = pr.CloseWithError(err)
		blob.done <- err
	}()

	return blob, nil
}

type writableBlob struct {
	pw     *io.PipeWriter
	cancel context.CancelFunc
	done   chan error
	closed atomic.Bool
}

func (b *writableBlob) Write(p []byte) (int, error) {
	if b.closed.Load() {
		return 0, blobstore.ErrClosed
	}
	return b.pw.Write(p)
}

func (b *writableBlob) Close() error {
	if !b.closed.CompareAndSwap(false, true) {
		return blobstore.ErrClosed
	}
	defer b.cancel()
	if err := b.pw.Close(); err != nil {
		return err
	}
	if err := <-b.done; err != nil {
		return fmt.Errorf("s3: upload: %w", err)
	}
	return nil
}

func (b *writableBlob) Abort() error {
	if !b.closed.CompareAndSwap(false, true) {
		return nil
	}
	_ = b.pw.CloseWithError(blobstore.ErrAborted)
	b.cancel()
	<-b.done
	return nil
}

// ParseURI splits s3://bucket/key.
func ParseURI(uri string) (bucket, key string, err error) {
	rest, ok := strings.CutPrefix(uri, "s3://")
	if !ok {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidURI, uri)
	}
	bucket, key, _ = strings.Cut(rest, "/")
	if bucket == "" || key == "" || strings.HasSuffix(key, "/") {
		return "", "", fmt.Errorf("%w: %q (want s3://bucket/key)", ErrInvalidURI, uri)
	}
	return bucket, key, nil
}
