// Package native is the allocator boundary for off-heap buffers.
//
// # Overview
//
// Buffers never call mmap or the Go heap directly. They talk to an Allocator,
// which hands out zeroed blocks and keeps one metadata record per live block:
// the requested size, the usable size, a creation Tag and an atomic reference
// count. The Tag is what lets a stale handle notice that its address has been
// freed and handed to somebody else.
//
// # Allocator Interface
//
//   - Allocate(count, elemSize, tag): reserve count*elemSize zeroed bytes
//   - Free(p): return a block, refused while its refcount is above zero
//   - Retain(p) / Release(p): adjust the block refcount (never below zero)
//   - IsLive(p, size, tag): does p still name the allocation stamped with tag
//   - UsableSize(p): bytes actually reserved for p
//
// # Implementations
//
// Client is the tracked allocator. It is parameterised by a Source that
// produces raw memory:
//
//   - MmapSource: one anonymous mapping per block, outside the Go heap
//   - HeapSource: pinned Go heap slices, portable and cheap for tests
//   - ArenaSource: sub-allocates a single mapping with a first-fit free list,
//     so freed addresses are reused immediately
//
// # Usage Example
//
//	a := native.NewMmap(nil)
//	p, err := a.Allocate(1024, 8, a.Stamp())
//	if err != nil {
//	    return err
//	}
//	defer a.Free(p)
//
// # Diagnostics
//
// Every Allocate and Free updates the process-wide counter returned by
// Outstanding, and the per-client Stats. NewCollector exports the latter as
// Prometheus metrics.
//
// # Thread Safety
//
// Client is safe for concurrent use. Refcount changes are atomic and Free
// holds the metadata write lock, so a block cannot be freed while a
// concurrent Retain is in flight.
package native
