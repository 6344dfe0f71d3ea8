// Package buf contains overflow-checked size arithmetic shared by the
// allocator and the buffer handles.
package buf

import (
	"fmt"
	"math"
	"math/bits"
)

// AddOverflowSafe adds a and b, returning ok = false when the result would overflow uint64.
func AddOverflowSafe(a, b uint64) (uint64, bool) {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0, false
	}
	return sum, true
}

// MulOverflowSafe multiplies a and b, returning ok = false when the result would overflow uint64.
// This is essential for count * elementSize calculations before calling the allocator.
func MulOverflowSafe(a, b uint64) (uint64, bool) {
	hi, lo := bits.Mul64(a, b)
	if hi != 0 {
		return 0, false
	}
	return lo, true
}

// ByteSize returns count * elemSize, failing when the product overflows or
// does not fit the platform's address space (int).
func ByteSize(count, elemSize uint64) (uint64, error) {
	total, ok := MulOverflowSafe(count, elemSize)
	if !ok {
		return 0, fmt.Errorf("overflow: count=%d * elemSize=%d", count, elemSize)
	}
	if total > math.MaxInt {
		return 0, fmt.Errorf("overflow: %d bytes exceeds address space", total)
	}
	return total, nil
}

// CheckRange validates that n elements starting at off fit in a buffer of
// length elements. Returns the end index if valid, or an error describing
// the specific failure (overflow or out of bounds).
//
//	end, err := buf.CheckRange(length, off, n)
//	if err != nil {
//	    return fmt.Errorf("span: %w", err)
//	}
func CheckRange(length, off, n uint64) (uint64, error) {
	end, ok := AddOverflowSafe(off, n)
	if !ok {
		return 0, fmt.Errorf("overflow: offset=%d + count=%d", off, n)
	}
	if end > length {
		return 0, fmt.Errorf("bounds: end=%d > len=%d", end, length)
	}
	return end, nil
}

// CeilDiv returns ceil(a / b). b must be non-zero.
func CeilDiv(a, b uint64) uint64 {
	if a == 0 {
		return 0
	}
	return 1 + (a-1)/b
}
