// Package hitaccum reduces dense top-K embedding hit lists to per-sequence
// pair scores.
//
// A nearest-neighbour search over residue or position embeddings returns,
// for every query embedding, K target embeddings and their similarity
// scores. ProcessHits maps both sides to their owning sequences, keeps hits
// whose score exceeds a bias, and aggregates them per (query sequence,
// target sequence) pair into a sum, a maximum and a count.
//
// # Quick Start
//
//	hits, _ := accum.NewHits(scores, indices, rows)
//	query, _ := boundary.NewOffsets(queryStarts)
//	target, _ := boundary.NewOffsets(targetStarts)
//
//	summary, err := hitaccum.ProcessHits(ctx, hits, query, target, "pairs.tsv",
//	    hitaccum.WithNumThreads(8),
//	    hitaccum.WithBias(0.45),
//	)
//
// # Determinism
//
// Sums are accumulated in 128-bit fixed point with 40 fractional bits, so
// addition is exact and the output is byte-identical for every thread
// count. Records are ordered by query ascending, sum descending, target
// ascending.
//
// # Output
//
// The default TSV format writes "query\ttarget\tsum\tmax\tcount" with seven
// decimals. JSONL is available through WithFormat("jsonl"). Names ending in
// .gz, .zst or .lz4 are compressed. Output is written atomically: a failed
// call never leaves a partial table under the target name.
//
// # Stores
//
// ProcessHits writes to the local file system. ProcessHitsToStore accepts
// any blobstore.WritableStore, including s3.Store and minio.Store.
package hitaccum
