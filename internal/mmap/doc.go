// Package mmap maps input matrices read-only into memory.
//
// Hit matrices are usually far larger than the aggregates they reduce to, so
// the CLI maps .npy files instead of reading them onto the heap:
//
//	m, err := mmap.Open("scores.npy")
//	if err != nil { ... }
//	defer m.Close()
//
//	payload, _ := m.Region(headerLen, dataLen)
//	_ = payload.Advise(mmap.AccessSequential)
//
// Unix uses mmap(2) and madvise(2). Windows uses MapViewOfFile; Advise is a
// no-op there.
//
// Mappings are safe for concurrent reads. Close is idempotent, but no
// goroutine may touch Bytes after Close returns.
package mmap
