// Package workload generates seeded synthetic hit workloads and computes
// reference aggregates by brute force.
//
// A workload draws sequence lengths uniformly from [MinLen, MaxLen), scores
// uniformly from [0, 1) and target indices uniformly over all target
// embeddings, so every run with the same Config is reproducible.
package workload
