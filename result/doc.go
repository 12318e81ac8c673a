// Package result orders merged aggregates and serializes them to a blob.
//
// Records are sorted by query sequence ascending, then exact sum
// descending, then target sequence ascending. Keys are unique so the order
// is total and the written bytes depend only on the aggregates.
package result
