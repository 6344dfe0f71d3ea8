package native

import "unsafe"

// Tag stamps one allocation instance. Together with the address and size it
// distinguishes an allocation from any later one that reuses the same address.
type Tag struct {
	CreatedAt int64  // monotonic nanoseconds since process start
	ThreadID  int64  // OS thread that requested the block
	RID       uint32 // random disambiguator
}

// Allocator defines the native memory operations buffers are built on.
//
// Implementations:
//   - Client: metadata-tracked allocator over a Source
//
// Any implementation must return zeroed memory and must refuse Free while
// the block's refcount is above zero.
type Allocator interface {
	// Allocate reserves count*elemSize zeroed bytes and records tag for them.
	Allocate(count, elemSize uint64, tag Tag) (unsafe.Pointer, error)

	// Free returns the block at p. It reports false, with no side effect,
	// when p is unknown or still retained.
	Free(p unsafe.Pointer) bool

	// Retain increments the refcount of the block at p.
	// Returns false when p is unknown.
	Retain(p unsafe.Pointer) bool

	// Release decrements the refcount of the block at p if it is above zero.
	// Returns false when p is unknown.
	Release(p unsafe.Pointer) bool

	// RefCount returns the block's refcount, or -1 when p is unknown.
	RefCount(p unsafe.Pointer) int32

	// IsLive reports whether p currently names a block whose recorded size
	// and tag equal the given ones.
	IsLive(p unsafe.Pointer, size uint64, tag Tag) bool

	// UsableSize returns the number of bytes reserved for p, or 0 when p is unknown.
	UsableSize(p unsafe.Pointer) uint64
}

// Stamper is implemented by allocators that produce their own tags.
type Stamper interface {
	Stamp() Tag
}
