package simd

import (
	"math"

	"github.com/viterin/vek"
	"github.com/viterin/vek/vek32"
	"golang.org/x/exp/constraints"
)

// Number is the set of element types the arithmetic kernels accept.
type Number interface {
	constraints.Integer | constraints.Float
}

// maskChunk bounds the comparison masks the float kernels fill per call.
const maskChunk = 1024

// Fill sets every element of dst to v.
func Fill[T any](dst []T, v T) {
	w := Width[T]()
	n := Aligned(len(dst), w)
	if n > 0 {
		lane := dst[:w:w]
		for i := range lane {
			lane[i] = v
		}
		for i := w; i < n; i += w {
			copy(dst[i:i+w:i+w], lane)
		}
	}
	for i := n; i < len(dst); i++ {
		dst[i] = v
	}
}

// Multiply scales every element of dst by m. float32 and float64 slices run
// on vek's AVX2 kernels; integer overflow wraps.
func Multiply[T Number](dst []T, m T) {
	switch d := any(dst).(type) {
	case []float32:
		vek32.MulNumber_Inplace(d, any(m).(float32))
	case []float64:
		vek.MulNumber_Inplace(d, any(m).(float64))
	default:
		multiplyLanes(dst, m)
	}
}

func multiplyLanes[T Number](dst []T, m T) {
	w := Width[T]()
	n := Aligned(len(dst), w)
	for i := 0; i < n; i += w {
		lane := dst[i : i+w : i+w]
		for j := range lane {
			lane[j] *= m
		}
	}
	for i := n; i < len(dst); i++ {
		dst[i] *= m
	}
}

// Sqrt replaces every element with its square root. Integer results truncate
// toward zero and negative integers become 0; floats follow math.Sqrt.
func Sqrt[T Number](dst []T) {
	switch d := any(dst).(type) {
	case []float32:
		vek32.Sqrt_Inplace(d)
	case []float64:
		vek.Sqrt_Inplace(d)
	default:
		sqrtLanes(dst)
	}
}

func sqrtLanes[T Number](dst []T) {
	w := Width[T]()
	n := Aligned(len(dst), w)
	for i := 0; i < n; i += w {
		lane := dst[i : i+w : i+w]
		for j := range lane {
			lane[j] = sqrt(lane[j])
		}
	}
	for i := n; i < len(dst); i++ {
		dst[i] = sqrt(dst[i])
	}
}

func sqrt[T Number](v T) T {
	if isFloat[T]() {
		return T(math.Sqrt(float64(v)))
	}
	if v <= 0 {
		return 0
	}
	r := T(math.Sqrt(float64(v)))
	// float64 rounding can overshoot for integers above 2^53
	for r > 0 && r > v/r {
		r--
	}
	for r+1 <= v/(r+1) {
		r++
	}
	return r
}

func isFloat[T Number]() bool {
	one := T(1)
	return one/2 != 0
}

// LessThanAll reports whether every element of src is strictly less than v.
// It stops at the first lane, or mask chunk for floats, holding a violating
// element.
func LessThanAll[T Number](src []T, v T) bool {
	switch s := any(src).(type) {
	case []float32:
		return allChunks(s, func(mask []bool, _ int, x []float32) []bool {
			return vek32.LtNumber_Into(mask, x, any(v).(float32))
		})
	case []float64:
		return allChunks(s, func(mask []bool, _ int, x []float64) []bool {
			return vek.LtNumber_Into(mask, x, any(v).(float64))
		})
	}
	return lessThanAllLanes(src, v)
}

func lessThanAllLanes[T Number](src []T, v T) bool {
	w := Width[T]()
	n := Aligned(len(src), w)
	for i := 0; i < n; i += w {
		lane := src[i : i+w : i+w]
		ok := true
		for _, x := range lane {
			ok = ok && x < v
		}
		if !ok {
			return false
		}
	}
	for i := n; i < len(src); i++ {
		if !(src[i] < v) {
			return false
		}
	}
	return true
}

// Equal reports whether a and b hold the same elements. Floats compare by
// value: -0 equals 0 and NaN equals nothing.
func Equal[T Number](a, b []T) bool {
	if len(a) != len(b) {
		return false
	}
	switch x := any(a).(type) {
	case []float32:
		y := any(b).([]float32)
		return allChunks(x, func(mask []bool, off int, xs []float32) []bool {
			return vek32.Eq_Into(mask, xs, y[off:off+len(xs)])
		})
	case []float64:
		y := any(b).([]float64)
		return allChunks(x, func(mask []bool, off int, xs []float64) []bool {
			return vek.Eq_Into(mask, xs, y[off:off+len(xs)])
		})
	}
	return equalLanes(a, b)
}

func equalLanes[T Number](a, b []T) bool {
	w := Width[T]()
	n := Aligned(len(a), w)
	for i := 0; i < n; i += w {
		la, lb := a[i:i+w:i+w], b[i:i+w:i+w]
		same := true
		for j := range la {
			same = same && la[j] == lb[j]
		}
		if !same {
			return false
		}
	}
	for i := n; i < len(a); i++ {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// allChunks runs cmp over src in maskChunk pieces, passing each offset, and
// reports whether every mask came back all true.
func allChunks[E float32 | float64](src []E, cmp func(mask []bool, off int, x []E) []bool) bool {
	var buf [maskChunk]bool
	for off := 0; off < len(src); off += maskChunk {
		x := src[off:min(off+maskChunk, len(src))]
		if !vek.All(cmp(buf[:len(x)], off, x)) {
			return false
		}
	}
	return true
}
