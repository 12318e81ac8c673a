// Package accum reduces dense top-K hit matrices into per-sequence-pair
// aggregates.
//
// # Pipeline
//
//	Partition -> Accumulate (W workers) -> Merge
//
// Query rows are split into W contiguous ranges. Each worker resolves query
// and target embeddings to sequence ids, filters hits by their
// bias-adjusted score and folds accepted hits into a PairMap that no other
// worker touches. After all workers finish, Merge reduces the maps with an
// associative, commutative combine (count add, sum add, max of maxima).
//
// # Exact sums
//
// Aggregate sums are kept in a 128-bit fixed-point Sum. Each adjusted score
// is quantized on its own before being added as an integer, so the merged
// sum is bit-identical no matter how rows were partitioned or in which order
// hits were visited. Floating point accumulation would not give that.
package accum
