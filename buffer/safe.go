package buffer

import (
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/joshuapare/offheap/internal/layout"
	"github.com/joshuapare/offheap/internal/simd"
	"github.com/joshuapare/offheap/native"
)

// notAllocated is the size recorded by a Safe handle before Allocate.
const notAllocated = ^uint64(0)

// Safe is a handle over one allocation of at most MaxInt32 elements whose
// refcount lives in the handle itself, like an OS handle. It does not stamp
// an Identity; the handle object is the identity.
type Safe[T any] struct {
	alloc  native.Allocator
	length int

	mu   sync.Mutex // serialises Allocate
	size atomic.Uint64
	base atomic.Pointer[byte]
	refs atomic.Int32

	vectorReason error // nil when vectorizable
}

// PrepareSafe validates the request and returns a handle in the
// not-yet-allocated state. Call Allocate before use.
func PrepareSafe[T any](a native.Allocator, length int) (*Safe[T], error) {
	if length < 0 || length > math.MaxInt32 {
		return nil, fmt.Errorf("%w: length %d outside [1, %d]", ErrInvalidArgument, length, math.MaxInt32)
	}
	if _, err := checkElem[T](uint64(length)); err != nil {
		return nil, err
	}
	if a == nil {
		return nil, fmt.Errorf("%w: nil allocator", ErrInvalidArgument)
	}
	s := &Safe[T]{alloc: a, length: length}
	s.size.Store(notAllocated)
	s.vectorReason = ErrNotAllocated
	return s, nil
}

// NewSafe allocates length zeroed elements of T from a.
func NewSafe[T any](a native.Allocator, length int) (*Safe[T], error) {
	s, err := PrepareSafe[T](a, length)
	if err != nil {
		return nil, err
	}
	if err := s.Allocate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Allocate obtains the memory for a prepared handle. A handle is allocated
// at most once; a second call, even after Free, fails.
func (s *Safe[T]) Allocate() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.size.Load() != notAllocated {
		return fmt.Errorf("%w: handle already allocated", ErrInvalidArgument)
	}
	size := uint64(s.length) * sizeOf[T]()
	p, _, err := allocate[T](s.alloc, uint64(s.length), size)
	if err != nil {
		return err
	}
	s.vectorReason = vectorReason[T](s.length)
	s.base.Store((*byte)(p))
	s.size.Store(size)
	return nil
}

func vectorReason[T any](length int) error {
	switch {
	case !layout.Numeric[T]():
		return fmt.Errorf("%w: %T is not numeric", ErrUnsupportedType, *new(T))
	case !simd.Available():
		return fmt.Errorf("%w: no SIMD support on this host", ErrUnsupportedOperation)
	case length%simd.Width[T]() != 0:
		return fmt.Errorf("%w: length %d is not a multiple of the vector width %d",
			ErrUnsupportedOperation, length, simd.Width[T]())
	}
	return nil
}

// Len returns the element count.
func (s *Safe[T]) Len() int { return s.length }

// Allocated reports whether Allocate has succeeded, even if the memory has
// since been freed.
func (s *Safe[T]) Allocated() bool { return s.size.Load() != notAllocated }

// IsLive reports whether the handle holds memory.
func (s *Safe[T]) IsLive() bool { return s.base.Load() != nil }

// Vectorizable reports whether vector operations are allowed: the element
// type is numeric, the length is a multiple of the vector width and the
// host has SIMD support. Computed once at allocation.
func (s *Safe[T]) Vectorizable() bool { return s.Allocated() && s.vectorReason == nil }

// VectorReason explains why the handle is not vectorizable, or returns nil.
func (s *Safe[T]) VectorReason() error {
	if !s.Allocated() {
		return ErrNotAllocated
	}
	return s.vectorReason
}

// state reports why the handle cannot be acquired.
func (s *Safe[T]) state() error {
	if !s.Allocated() {
		return ErrNotAllocated
	}
	return ErrReleased
}

// acquire bumps the handle refcount and returns the base, backing out when
// a concurrent Free has already cleared it.
func (s *Safe[T]) acquire() unsafe.Pointer {
	s.refs.Add(1)
	p := unsafe.Pointer(s.base.Load())
	if p == nil {
		s.release()
		return nil
	}
	return p
}

func (s *Safe[T]) release() {
	for {
		refs := s.refs.Load()
		if refs <= 0 || s.refs.CompareAndSwap(refs, refs-1) {
			return
		}
	}
}

// Acquire retains the handle. It reports false before allocation and after Free.
func (s *Safe[T]) Acquire() bool { return s.acquire() != nil }

// Release drops one retain; the refcount never goes below zero.
func (s *Safe[T]) Release() { s.release() }

// RefCount returns the current number of retains.
func (s *Safe[T]) RefCount() int32 { return s.refs.Load() }

// Free returns the memory when nothing retains the handle. It reports
// false, changing nothing, while retained, before allocation and after a
// previous Free.
func (s *Safe[T]) Free() bool {
	if s.refs.Load() > 0 {
		return false
	}
	bp := s.base.Load()
	if bp == nil || !s.base.CompareAndSwap(bp, nil) {
		return false
	}
	if s.refs.Load() > 0 {
		// an Acquire slipped in before the swap
		s.base.Store(bp)
		return false
	}
	if !s.alloc.Free(unsafe.Pointer(bp)) {
		s.base.Store(bp)
		return false
	}
	return true
}

// Close is Free reporting why it refused.
func (s *Safe[T]) Close() error {
	if s.Free() {
		return nil
	}
	if s.IsLive() {
		return fmt.Errorf("%w: refcount %d", ErrFreeWhileRetained, s.RefCount())
	}
	return s.state()
}

func (s *Safe[T]) view(p unsafe.Pointer) []T {
	return unsafe.Slice((*T)(p), s.length)
}

// Read returns element i.
func (s *Safe[T]) Read(i int) (T, error) {
	var zero T
	if i < 0 || i >= s.length {
		return zero, outOfRange(i, s.length)
	}
	p := s.acquire()
	if p == nil {
		return zero, s.state()
	}
	defer s.release()
	return *(*T)(unsafe.Add(p, uintptr(i)*unsafe.Sizeof(zero))), nil
}

// Write stores v at element i.
func (s *Safe[T]) Write(i int, v T) error {
	if i < 0 || i >= s.length {
		return outOfRange(i, s.length)
	}
	p := s.acquire()
	if p == nil {
		return s.state()
	}
	defer s.release()
	*(*T)(unsafe.Add(p, uintptr(i)*unsafe.Sizeof(v))) = v
	return nil
}

// Fill sets every element to v, one element at a time.
func (s *Safe[T]) Fill(v T) error {
	views, release, err := s.views()
	if err != nil {
		return err
	}
	defer release()
	fillScalar(views, v)
	return nil
}

// AcquireSpan returns a view of every element holding a retain until the
// span is released.
func (s *Safe[T]) AcquireSpan() (*Span[T], error) {
	p := s.acquire()
	if p == nil {
		return nil, s.state()
	}
	return newSpan(s.view(p), s.release), nil
}

// AcquireVectorSpan is AcquireSpan cut into register-width lanes. It fails
// with the VectorReason when the handle is not vectorizable.
func (s *Safe[T]) AcquireVectorSpan() (*VectorSpan[T], error) {
	if err := s.VectorReason(); err != nil {
		return nil, err
	}
	span, err := s.AcquireSpan()
	if err != nil {
		return nil, err
	}
	return newVectorSpan(span), nil
}

// Enumerate returns an enumerator that retains s until closed.
func (s *Safe[T]) Enumerate() (*Enumerator[T], error) {
	return enumerate[T](s)
}

func (s *Safe[T]) views() ([][]T, func(), error) {
	p := s.acquire()
	if p == nil {
		return nil, nil, s.state()
	}
	return [][]T{s.view(p)}, s.release, nil
}

func (s *Safe[T]) vectorViews() ([][]T, func(), error) {
	if err := s.VectorReason(); err != nil {
		return nil, nil, err
	}
	return s.views()
}

var _ Buffer[int32] = (*Safe[int32])(nil)
