// Package simd provides lane-strided kernels over typed slices.
//
// The kernels walk the vector-aligned prefix of a slice in strides of one
// hardware register (Width lanes) and finish the remainder one element at a
// time. The register size comes from CPU feature detection.
package simd

import (
	"runtime"
	"unsafe"

	"golang.org/x/sys/cpu"
)

var vectorBytes = detect()

func detect() int {
	switch runtime.GOARCH {
	case "amd64", "386":
		switch {
		case cpu.X86.HasAVX512F:
			return 64
		case cpu.X86.HasAVX2:
			return 32
		case cpu.X86.HasSSE2:
			return 16
		}
	case "arm64":
		if cpu.ARM64.HasASIMD {
			return 16
		}
	case "ppc64", "ppc64le":
		if cpu.PPC64.IsPOWER8 {
			return 16
		}
	case "s390x":
		if cpu.S390X.HasVX {
			return 16
		}
	}
	return 0
}

// Available reports whether the host exposes vector registers.
func Available() bool {
	return vectorBytes > 0
}

// VectorBytes returns the register width in bytes, or 0 without SIMD support.
func VectorBytes() int {
	return vectorBytes
}

// Width returns the number of T lanes in one register. Without SIMD, or for
// elements wider than a register, it is 1.
func Width[T any]() int {
	var zero T
	size := int(unsafe.Sizeof(zero))
	if vectorBytes == 0 || size == 0 || size > vectorBytes {
		return 1
	}
	return vectorBytes / size
}

// Aligned returns n rounded down to a multiple of w.
func Aligned(n, w int) int {
	if w <= 1 {
		return n
	}
	return n - n%w
}
