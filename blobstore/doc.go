// Package blobstore provides the sinks result tables are written to and the
// sources input matrices are read from.
//
// Writes are all-or-nothing: a WritableBlob becomes visible under its name
// only when Close succeeds. Abort discards everything written so far, so a
// failed run never leaves a truncated table behind.
//
// # Built-in Implementations
//
//   - LocalStore: local filesystem, atomic temp-file + rename, mmap reads
//   - MemoryStore: in-memory, for tests and benchmarks
//   - s3.Store: Amazon S3 via the multipart upload manager
//   - minio.Store: MinIO and other S3-compatible services
//
// # Custom Implementations
//
//	type WritableStore interface {
//	    Create(ctx, name) (WritableBlob, error)
//	}
//
//	type WritableBlob interface {
//	    io.Writer
//	    Close() error // commit
//	    Abort() error // discard
//	}
package blobstore
