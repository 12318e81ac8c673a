// Package boundary maps embedding ordinals to the sequences that own them.
//
// Upstream producers describe sequence boundaries in one of two forms:
//
//   - Offsets: a sorted array of start offsets where sequence i owns the
//     half-open range [starts[i], starts[i+1]). starts[0] must be 0 and the
//     final entry is the total embedding count. Resolution is a binary
//     search, O(log S).
//   - Explicit: one sequence id per embedding. Embeddings do not need to be
//     grouped by sequence. Resolution is a direct lookup, O(1).
//
// The form is fixed when the Index is constructed:
//
//	idx, err := boundary.NewOffsets([]int64{0, 2, 3})
//	seq, ok := idx.Resolve(1) // seq == 0
//
// Both implementations are immutable after construction and safe for
// concurrent use without locking.
package boundary
