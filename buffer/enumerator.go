package buffer

import (
	"iter"
	"sync/atomic"
)

// Enumerator walks a buffer once, front to back. It retains the buffer from
// creation until Close.
type Enumerator[T any] struct {
	views   [][]T
	length  int64
	pos     int64 // -1 before the first element
	seg     int
	off     int
	release func()
	closed  atomic.Bool
}

func enumerate[T any](b Buffer[T]) (*Enumerator[T], error) {
	views, release, err := b.views()
	if err != nil {
		return nil, err
	}
	var n int64
	for _, v := range views {
		n += int64(len(v))
	}
	e := &Enumerator[T]{views: views, length: n, release: release}
	e.Reset()
	return e, nil
}

// MoveNext advances to the next element and reports whether there is one.
func (e *Enumerator[T]) MoveNext() bool {
	if e.closed.Load() || e.pos+1 >= e.length {
		e.pos = e.length
		return false
	}
	e.pos++
	e.off++
	for e.off >= len(e.views[e.seg]) {
		e.seg++
		e.off = 0
	}
	return true
}

// Current returns the element at the current position, or the zero value
// before the first MoveNext, after the end, or after Close.
func (e *Enumerator[T]) Current() T {
	var zero T
	if e.closed.Load() || e.pos < 0 || e.pos >= e.length {
		return zero
	}
	return e.views[e.seg][e.off]
}

// Index returns the current position; -1 before the first element.
func (e *Enumerator[T]) Index() int64 { return e.pos }

// Reset rewinds to before the first element.
func (e *Enumerator[T]) Reset() {
	e.pos = -1
	e.seg = 0
	e.off = -1
}

// Close releases the buffer. Only the first call has an effect.
func (e *Enumerator[T]) Close() error {
	if e.closed.CompareAndSwap(false, true) {
		e.views = nil
		e.release()
	}
	return nil
}

// All ranges over b's elements with their indices. The buffer is retained
// for the duration of the loop and released when it ends, including on
// break. A buffer that cannot be acquired yields nothing.
func All[T any](b Buffer[T]) iter.Seq2[int64, T] {
	return func(yield func(int64, T) bool) {
		e, err := enumerate(b)
		if err != nil {
			return
		}
		defer e.Close()
		for e.MoveNext() {
			if !yield(e.Index(), e.Current()) {
				return
			}
		}
	}
}
