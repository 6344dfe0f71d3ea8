package buffer

import (
	"fmt"
	"math"
	"unsafe"

	"github.com/joshuapare/offheap/native"
)

// Fixed is a handle over one allocation of at most MaxInt32 elements.
// It carries the allocation's Identity and uses the allocator's refcount.
type Fixed[T any] struct {
	h      stamped
	length int
}

// NewFixed allocates length zeroed elements of T from a.
func NewFixed[T any](a native.Allocator, length int) (*Fixed[T], error) {
	if length < 0 || length > math.MaxInt32 {
		return nil, fmt.Errorf("%w: length %d outside [1, %d]", ErrInvalidArgument, length, math.MaxInt32)
	}
	size, err := checkElem[T](uint64(length))
	if err != nil {
		return nil, err
	}
	p, tag, err := allocate[T](a, uint64(length), size)
	if err != nil {
		return nil, err
	}
	b := &Fixed[T]{length: length}
	b.h.init(a, p, size, tag)
	return b, nil
}

// Len returns the element count.
func (b *Fixed[T]) Len() int { return b.length }

// Identity returns the allocation identity the handle was created with.
func (b *Fixed[T]) Identity() Identity { return b.h.id }

// IsLive reports whether the handle's allocation is still the one at its address.
func (b *Fixed[T]) IsLive() bool { return b.h.live() }

// Acquire retains the allocation. It reports false when the handle is no longer live.
func (b *Fixed[T]) Acquire() bool { return b.h.acquire() != nil }

// Release drops one retain; the refcount never goes below zero.
func (b *Fixed[T]) Release() { b.h.release() }

// RefCount returns the current number of retains.
func (b *Fixed[T]) RefCount() int32 { return b.h.refCount() }

// Free returns the memory to the allocator. It reports false, changing
// nothing, while the handle is retained or once it is no longer live.
func (b *Fixed[T]) Free() bool { return b.h.free() }

// Close is Free reporting why it refused.
func (b *Fixed[T]) Close() error { return b.h.closeErr() }

// Equal compares allocation identities, never contents.
func (b *Fixed[T]) Equal(other *Fixed[T]) bool {
	if b == nil || other == nil {
		return b == other
	}
	return b.h.id.Equal(other.h.id)
}

func (b *Fixed[T]) String() string {
	return fmt.Sprintf("Fixed[%d]%s", b.length, b.h.id)
}

func (b *Fixed[T]) view(p unsafe.Pointer) []T {
	return unsafe.Slice((*T)(p), b.length)
}

// Read returns element i.
func (b *Fixed[T]) Read(i int) (T, error) {
	var zero T
	if i < 0 || i >= b.length {
		return zero, outOfRange(i, b.length)
	}
	p := b.h.acquire()
	if p == nil {
		return zero, b.h.invalid()
	}
	defer b.h.release()
	return *(*T)(unsafe.Add(p, uintptr(i)*unsafe.Sizeof(zero))), nil
}

// Write stores v at element i.
func (b *Fixed[T]) Write(i int, v T) error {
	if i < 0 || i >= b.length {
		return outOfRange(i, b.length)
	}
	p := b.h.acquire()
	if p == nil {
		return b.h.invalid()
	}
	defer b.h.release()
	*(*T)(unsafe.Add(p, uintptr(i)*unsafe.Sizeof(v))) = v
	return nil
}

// Fill sets every element to v, one element at a time.
func (b *Fixed[T]) Fill(v T) error {
	views, release, err := b.views()
	if err != nil {
		return err
	}
	defer release()
	fillScalar(views, v)
	return nil
}

// AcquireSpan returns a view of every element holding a retain until the
// span is released.
func (b *Fixed[T]) AcquireSpan() (*Span[T], error) {
	p := b.h.acquire()
	if p == nil {
		return nil, b.h.invalid()
	}
	return newSpan(b.view(p), b.h.release), nil
}

// AcquireVectorSpan is AcquireSpan cut into register-width lanes.
func (b *Fixed[T]) AcquireVectorSpan() (*VectorSpan[T], error) {
	s, err := b.AcquireSpan()
	if err != nil {
		return nil, err
	}
	return newVectorSpan(s), nil
}

// Enumerate returns an enumerator that retains b until closed.
func (b *Fixed[T]) Enumerate() (*Enumerator[T], error) {
	return enumerate[T](b)
}

func (b *Fixed[T]) views() ([][]T, func(), error) {
	p := b.h.acquire()
	if p == nil {
		return nil, nil, b.h.invalid()
	}
	return [][]T{b.view(p)}, b.h.release, nil
}

// Fixed buffers take the strided path for the aligned prefix and finish the
// tail scalar, whatever the length.
func (b *Fixed[T]) vectorViews() ([][]T, func(), error) {
	return b.views()
}

var _ Buffer[int32] = (*Fixed[int32])(nil)
