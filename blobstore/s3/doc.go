// Package s3 writes result tables to Amazon S3.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket", s3.WithPrefix("runs/2024-06/"))
//	summary, err := hitaccum.ProcessHitsToStore(ctx, hits, query, target, store, "pairs.tsv.zst")
//
// Uploads stream through the multipart upload manager and only complete on
// Close; Abort (or a failed run) cancels the upload so no partial object
// appears.
//
// A Ledger records completed outputs in DynamoDB so downstream jobs can
// check that a table is whole before reading it.
package s3
