// Package minio writes result tables to MinIO and other S3-compatible
// object stores through minio-go.
//
//	store, err := minio.New("localhost:9000", "results",
//	    minio.WithCredentials(os.Getenv("MINIO_ACCESS_KEY"), os.Getenv("MINIO_SECRET_KEY")),
//	)
//
// Writes stream through PutObject with an unknown size; the object appears
// only when the upload completes on Close.
package minio
