package buffer

import (
	"sync/atomic"

	"github.com/joshuapare/offheap/internal/simd"
)

// Span is a bounded view of native memory that holds a retain on its buffer
// until Release. The slice must not be used after Release.
type Span[T any] struct {
	data     []T
	release  func()
	released atomic.Bool
}

func newSpan[T any](data []T, release func()) *Span[T] {
	return &Span[T]{data: data, release: release}
}

// Data returns the viewed elements, or nil once released.
func (s *Span[T]) Data() []T {
	if s.released.Load() {
		return nil
	}
	return s.data
}

// Len returns the number of viewed elements.
func (s *Span[T]) Len() int { return len(s.data) }

// Release drops the retain. Calling it more than once is a no-op.
func (s *Span[T]) Release() {
	if s.released.CompareAndSwap(false, true) {
		s.data = nil
		s.release()
	}
}

// VectorSpan is a Span cut into register-width lanes plus a scalar tail.
type VectorSpan[T any] struct {
	*Span[T]
	width int
	count int
}

func newVectorSpan[T any](s *Span[T]) *VectorSpan[T] {
	w := simd.Width[T]()
	return &VectorSpan[T]{Span: s, width: w, count: len(s.data) / w}
}

// Width returns the lanes per vector.
func (v *VectorSpan[T]) Width() int { return v.width }

// Count returns the number of full vectors.
func (v *VectorSpan[T]) Count() int { return v.count }

// Vector returns the i-th full vector; its capacity is clipped to Width.
func (v *VectorSpan[T]) Vector(i int) []T {
	data := v.Data()
	if data == nil || i < 0 || i >= v.count {
		return nil
	}
	lo := i * v.width
	return data[lo : lo+v.width : lo+v.width]
}

// Tail returns the elements after the last full vector.
func (v *VectorSpan[T]) Tail() []T {
	data := v.Data()
	if data == nil {
		return nil
	}
	return data[v.count*v.width:]
}
