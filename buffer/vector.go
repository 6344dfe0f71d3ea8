package buffer

import (
	"github.com/joshuapare/offheap/internal/simd"
)

// Number is the compile-time constraint of the arithmetic bulk operations:
// any integer or floating point type.
type Number interface {
	simd.Number
}

// Buffer is implemented by Fixed, Safe and Huge.
type Buffer[T any] interface {
	Acquire() bool
	Release()
	Free() bool

	// views acquires the buffer and returns its memory as int-indexable
	// slices plus the matching release.
	views() ([][]T, func(), error)

	// vectorViews is views for vector operations; it fails when the buffer
	// refuses the vector path.
	vectorViews() ([][]T, func(), error)
}

func fillScalar[T any](views [][]T, v T) {
	for _, view := range views {
		for i := range view {
			view[i] = v
		}
	}
}

// SIMDWidth returns the number of T lanes processed per vector stride.
func SIMDWidth[T any]() int {
	return simd.Width[T]()
}

// SIMDAvailable reports whether the host has vector registers.
func SIMDAvailable() bool {
	return simd.Available()
}

// VectorFill sets every element of b to v in vector strides.
func VectorFill[T Number](b Buffer[T], v T) error {
	views, release, err := b.vectorViews()
	if err != nil {
		return err
	}
	defer release()
	for _, view := range views {
		simd.Fill(view, v)
	}
	return nil
}

// VectorMultiply multiplies every element of b by m. The aligned prefix of
// each view runs in vector strides and the tail runs scalar. Integer
// overflow wraps.
func VectorMultiply[T Number](b Buffer[T], m T) error {
	views, release, err := b.vectorViews()
	if err != nil {
		return err
	}
	defer release()
	for _, view := range views {
		simd.Multiply(view, m)
	}
	return nil
}

// VectorSqrt replaces every element of b with its square root. Integer
// results truncate and negative integers become 0.
func VectorSqrt[T Number](b Buffer[T]) error {
	views, release, err := b.vectorViews()
	if err != nil {
		return err
	}
	defer release()
	for _, view := range views {
		simd.Sqrt(view)
	}
	return nil
}

// VectorLessThanAll reports whether every element of b is strictly less than v.
func VectorLessThanAll[T Number](b Buffer[T], v T) (bool, error) {
	views, release, err := b.vectorViews()
	if err != nil {
		return false, err
	}
	defer release()
	for _, view := range views {
		if !simd.LessThanAll(view, v) {
			return false, nil
		}
	}
	return true, nil
}

// VectorEqual reports whether b holds exactly values, comparing each view
// lane by lane. A length mismatch is unequal.
func VectorEqual[T Number](b Buffer[T], values []T) (bool, error) {
	views, release, err := b.vectorViews()
	if err != nil {
		return false, err
	}
	defer release()
	off := 0
	for _, view := range views {
		if off+len(view) > len(values) || !simd.Equal(view, values[off:off+len(view)]) {
			return false, nil
		}
		off += len(view)
	}
	return off == len(values), nil
}
