// Package buffer provides handles over natively allocated memory.
//
// # Overview
//
// A handle gives array-like access to a block obtained from a
// native.Allocator while guarding against the two manual-memory hazards:
// touching memory after it went back to the allocator, and giving memory back
// while somebody still uses it.
//
// # Handle Kinds
//
// Fixed: one allocation of at most MaxInt32 elements, stamped with an
// Identity and reference counted through the allocator.
//
// Safe: same size limit, reference counted by the handle itself. It tells a
// handle that was never allocated apart from one that has been freed, and
// computes up front whether vector operations apply.
//
// Huge: one allocation whose length is a uint64. Access primitives index with
// int, so the allocation is viewed as consecutive segments of at most
// MaxSegmentLen elements. Segments are views, never separate allocations.
//
// # Acquire / Release
//
// Every access runs between an Acquire and a Release. Read, Write, Fill and
// the Vector operations do this internally. Spans and enumerators hold their
// retain until released:
//
//	span, err := b.AcquireSpan()
//	if err != nil {
//	    return err
//	}
//	defer span.Release()
//	for i, v := range span.Data() {
//	    ...
//	}
//
// Free returns the memory only when nothing holds a retain; otherwise it
// reports false and changes nothing, so callers may poll and retry.
// Concurrent Free calls race on a compare-and-swap of a freed flag and
// only the winner reaches the allocator.
//
// # Element Types
//
// Elements live outside the garbage-collected heap, so T must be blittable:
// fixed size, no pointers, strings, slices, maps, interfaces, funcs or
// channels anywhere in its layout. Constructors reject other types with
// ErrInvalidLayout. Arithmetic bulk operations additionally require T to be an
// integer or float type, enforced at compile time by Number.
//
// # Thread Safety
//
// Acquire, Release and Free are safe for concurrent use. Nothing serialises
// concurrent readers and writers of the same elements; that is the caller's
// job.
package buffer
