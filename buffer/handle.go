package buffer

import (
	"fmt"
	"sync/atomic"
	"unsafe"

	"github.com/dustin/go-humanize"

	"github.com/joshuapare/offheap/internal/buf"
	"github.com/joshuapare/offheap/internal/layout"
	"github.com/joshuapare/offheap/native"
)

func sizeOf[T any]() uint64 {
	var zero T
	return uint64(unsafe.Sizeof(zero))
}

// checkElem validates T and computes count*sizeof(T) before any allocator call.
func checkElem[T any](count uint64) (uint64, error) {
	if err := layout.Check[T](); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidLayout, err)
	}
	if count == 0 {
		return 0, fmt.Errorf("%w: length must be positive", ErrInvalidArgument)
	}
	size, err := buf.ByteSize(count, sizeOf[T]())
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrOverflow, err)
	}
	return size, nil
}

// allocate requests count elements of T from a. The size has already been
// validated by checkElem.
func allocate[T any](a native.Allocator, count, size uint64) (unsafe.Pointer, native.Tag, error) {
	if a == nil {
		return nil, native.Tag{}, fmt.Errorf("%w: nil allocator", ErrInvalidArgument)
	}
	tag := stamp(a)
	p, err := a.Allocate(count, sizeOf[T](), tag)
	if err != nil {
		return nil, tag, fmt.Errorf("%w: requested %s (%d bytes): %w",
			ErrAllocationFailure, humanize.IBytes(size), size, err)
	}
	if p == nil {
		return nil, tag, fmt.Errorf("%w: requested %s (%d bytes): no address",
			ErrAllocationFailure, humanize.IBytes(size), size)
	}
	return p, tag, nil
}

// stamped is the identity-checked, allocator-refcounted core shared by
// Fixed and Huge. The address never changes; freed only serialises Free.
type stamped struct {
	alloc native.Allocator
	id    Identity
	freed atomic.Bool
}

func (s *stamped) init(a native.Allocator, p unsafe.Pointer, size uint64, tag native.Tag) {
	s.alloc = a
	s.id = newIdentity(p, size, tag)
}

func (s *stamped) live() bool {
	return !s.freed.Load() && s.id.IsLive(s.alloc)
}

// acquire retains the allocation and returns its base, or nil when the
// handle is no longer live. The identity is checked again after the retain
// so a concurrent free-and-reuse of the address backs out.
func (s *stamped) acquire() unsafe.Pointer {
	p := s.id.addr
	if !s.id.IsLive(s.alloc) || !s.alloc.Retain(p) {
		return nil
	}
	if !s.id.IsLive(s.alloc) {
		s.alloc.Release(p)
		return nil
	}
	return p
}

// release drops a retain taken by acquire. The allocator refuses Free while
// the retain is held, so the identity still matches here.
func (s *stamped) release() {
	if s.id.IsLive(s.alloc) {
		s.alloc.Release(s.id.addr)
	}
}

func (s *stamped) refCount() int32 {
	if !s.id.IsLive(s.alloc) {
		return 0
	}
	return max(s.alloc.RefCount(s.id.addr), 0)
}

// free returns the memory when nothing retains it. Only the caller that
// sets freed reaches the allocator; a refused Free clears it again.
func (s *stamped) free() bool {
	p := s.id.addr
	if s.freed.Load() || !s.id.IsLive(s.alloc) || s.alloc.RefCount(p) > 0 {
		return false
	}
	if !s.freed.CompareAndSwap(false, true) {
		return false
	}
	if !s.alloc.Free(p) {
		// retained between the check and the free
		s.freed.Store(false)
		return false
	}
	return true
}

// closeErr explains why free refused.
func (s *stamped) closeErr() error {
	if s.free() {
		return nil
	}
	if s.freed.Load() {
		return ErrReleased
	}
	if !s.id.IsLive(s.alloc) {
		return fmt.Errorf("%w: %s", ErrInvalidHandle, s.id)
	}
	return fmt.Errorf("%w: refcount %d", ErrFreeWhileRetained, s.refCount())
}

func (s *stamped) invalid() error {
	if s.freed.Load() {
		return ErrReleased
	}
	return fmt.Errorf("%w: %s", ErrInvalidHandle, s.id)
}
