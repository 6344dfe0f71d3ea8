package buffer

import (
	"bytes"
	"fmt"
	"reflect"
	"unsafe"

	"github.com/joshuapare/offheap/internal/simd"
	"github.com/joshuapare/offheap/native"
)

// Huge is a handle over one allocation whose length may exceed what an int32
// can index. The allocation is addressed through segments of at most
// MaxSegmentLen elements, computed once after allocation.
type Huge[T any] struct {
	h        stamped
	length   uint64
	segLen   uint64
	segments []Segment

	// equal compares one segment in EqualTo
	equal func(got, want []T) bool
}

// NewHuge allocates length zeroed elements of T from a with a single
// allocator call and copies initial into the front of the buffer.
func NewHuge[T any](a native.Allocator, length uint64, initial []T) (*Huge[T], error) {
	return newHuge(a, length, MaxSegmentLen, initial)
}

func newHuge[T any](a native.Allocator, length, segLen uint64, initial []T) (*Huge[T], error) {
	size, err := checkElem[T](length)
	if err != nil {
		return nil, err
	}
	if uint64(len(initial)) > length {
		return nil, fmt.Errorf("%w: %d initial values for length %d", ErrInvalidArgument, len(initial), length)
	}
	p, tag, err := allocate[T](a, length, size)
	if err != nil {
		return nil, err
	}
	b := &Huge[T]{
		length:       length,
		segLen:       segLen,
		segments:     segmentLayout(length, segLen),
		equal:        segmentEqual[T](),
	}
	bind(b.segments, p, sizeOf[T]())
	b.h.init(a, p, size, tag)

	for _, seg := range b.segments {
		if seg.Start >= uint64(len(initial)) {
			break
		}
		copy(b.segment(seg), initial[seg.Start:])
	}
	return b, nil
}

// Len returns the element count.
func (b *Huge[T]) Len() uint64 { return b.length }

// Segments returns a copy of the segment table.
func (b *Huge[T]) Segments() []Segment {
	return append([]Segment(nil), b.segments...)
}

// SegmentCount returns the number of segments.
func (b *Huge[T]) SegmentCount() int { return len(b.segments) }

// Identity returns the allocation identity the handle was created with.
func (b *Huge[T]) Identity() Identity { return b.h.id }

// IsLive reports whether the handle's allocation is still the one at its address.
func (b *Huge[T]) IsLive() bool { return b.h.live() }

// Acquire retains the allocation. It reports false when the handle is no longer live.
func (b *Huge[T]) Acquire() bool { return b.h.acquire() != nil }

// Release drops one retain; the refcount never goes below zero.
func (b *Huge[T]) Release() { b.h.release() }

// RefCount returns the current number of retains.
func (b *Huge[T]) RefCount() int32 { return b.h.refCount() }

// Free returns the memory to the allocator. It reports false, changing
// nothing, while the handle is retained or once it is no longer live.
func (b *Huge[T]) Free() bool { return b.h.free() }

// Close is Free reporting why it refused.
func (b *Huge[T]) Close() error { return b.h.closeErr() }

// Equal compares allocation identities, never contents.
func (b *Huge[T]) Equal(other *Huge[T]) bool {
	if b == nil || other == nil {
		return b == other
	}
	return b.h.id.Equal(other.h.id)
}

func (b *Huge[T]) String() string {
	return fmt.Sprintf("Huge[%d/%d segments]%s", b.length, len(b.segments), b.h.id)
}

// ResolveIndex maps a buffer index to its segment and the offset inside it.
func (b *Huge[T]) ResolveIndex(i uint64) (segment, offset int, err error) {
	if i >= b.length {
		return 0, 0, outOfRange(i, b.length)
	}
	seg := i / b.segLen
	return int(seg), int(i - seg*b.segLen), nil
}

// segment views one segment; the caller must hold a retain.
func (b *Huge[T]) segment(seg Segment) []T {
	return unsafe.Slice((*T)(seg.base), seg.Len)
}

func (b *Huge[T]) elem(seg, off int) *T {
	var zero T
	return (*T)(unsafe.Add(b.segments[seg].base, uintptr(off)*unsafe.Sizeof(zero)))
}

// Read returns element i.
func (b *Huge[T]) Read(i uint64) (T, error) {
	var zero T
	seg, off, err := b.ResolveIndex(i)
	if err != nil {
		return zero, err
	}
	if b.h.acquire() == nil {
		return zero, b.h.invalid()
	}
	defer b.h.release()
	return *b.elem(seg, off), nil
}

// Write stores v at element i.
func (b *Huge[T]) Write(i uint64, v T) error {
	seg, off, err := b.ResolveIndex(i)
	if err != nil {
		return err
	}
	if b.h.acquire() == nil {
		return b.h.invalid()
	}
	defer b.h.release()
	*b.elem(seg, off) = v
	return nil
}

// Fill sets every element to v, segment by segment.
func (b *Huge[T]) Fill(v T) error {
	views, release, err := b.views()
	if err != nil {
		return err
	}
	defer release()
	fillScalar(views, v)
	return nil
}

// AcquireSegmentSpan returns a view of the segment owning element i, and the
// offset of i inside it. The span ends at the segment boundary; crossing
// into the next segment needs that segment's span.
func (b *Huge[T]) AcquireSegmentSpan(i uint64) (*Span[T], int, error) {
	seg, off, err := b.ResolveIndex(i)
	if err != nil {
		return nil, 0, err
	}
	if b.h.acquire() == nil {
		return nil, 0, b.h.invalid()
	}
	return newSpan(b.segment(b.segments[seg]), b.h.release), off, nil
}

// EqualTo compares the buffer's contents with values element by element. A
// length mismatch is unequal. Floats compare by value, so -0 equals 0 and
// NaN equals nothing; other element types compare bytewise. It stops at the
// first segment holding a difference.
func (b *Huge[T]) EqualTo(values []T) (bool, error) {
	if uint64(len(values)) != b.length {
		return false, nil
	}
	views, release, err := b.views()
	if err != nil {
		return false, err
	}
	defer release()

	for i, view := range views {
		if !b.equal(view, values[b.segments[i].Start:b.segments[i].End()]) {
			return false, nil
		}
	}
	return true, nil
}

// segmentEqual picks the comparison for T: the vector kernels for floats,
// where bit patterns and values disagree, and memory comparison otherwise.
func segmentEqual[T any]() func(got, want []T) bool {
	switch reflect.TypeFor[T]().Kind() {
	case reflect.Float32:
		return func(got, want []T) bool { return simd.Equal(reinterpret[T, float32](got), reinterpret[T, float32](want)) }
	case reflect.Float64:
		return func(got, want []T) bool { return simd.Equal(reinterpret[T, float64](got), reinterpret[T, float64](want)) }
	default:
		return func(got, want []T) bool { return bytes.Equal(asBytes(got), asBytes(want)) }
	}
}

// reinterpret views s as []E; T must have E's size and representation.
func reinterpret[T, E any](s []T) []E {
	if len(s) == 0 {
		return nil
	}
	return unsafe.Slice((*E)(unsafe.Pointer(unsafe.SliceData(s))), len(s))
}

func asBytes[T any](s []T) []byte {
	if len(s) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(s))), len(s)*int(sizeOf[T]()))
}

// Enumerate returns an enumerator that retains b until closed.
func (b *Huge[T]) Enumerate() (*Enumerator[T], error) {
	return enumerate[T](b)
}

func (b *Huge[T]) views() ([][]T, func(), error) {
	if b.h.acquire() == nil {
		return nil, nil, b.h.invalid()
	}
	views := make([][]T, len(b.segments))
	for i, seg := range b.segments {
		views[i] = b.segment(seg)
	}
	return views, b.h.release, nil
}

// Every segment takes the strided path for its aligned prefix and finishes
// its own tail scalar, the same policy as Fixed.
func (b *Huge[T]) vectorViews() ([][]T, func(), error) {
	return b.views()
}

var _ Buffer[int32] = (*Huge[int32])(nil)
