package buffer

import (
	"errors"
	"fmt"
)

var (
	// ErrAllocationFailure indicates that the allocator returned no address.
	ErrAllocationFailure = errors.New("buffer: allocation failed")

	// ErrInvalidHandle indicates an operation on a handle whose allocation is not live.
	ErrInvalidHandle = errors.New("buffer: invalid handle")

	// ErrNotAllocated indicates a Safe handle that has not been allocated yet.
	ErrNotAllocated = fmt.Errorf("%w: not yet allocated", ErrInvalidHandle)

	// ErrReleased indicates a handle whose memory has been freed.
	ErrReleased = fmt.Errorf("%w: memory released", ErrInvalidHandle)

	// ErrIndexOutOfRange indicates an index outside [0, Length).
	ErrIndexOutOfRange = errors.New("buffer: index out of range")

	// ErrInvalidLayout indicates an element type that is not blittable.
	ErrInvalidLayout = errors.New("buffer: element type is not blittable")

	// ErrInvalidArgument indicates a bad length or initial value set.
	ErrInvalidArgument = errors.New("buffer: invalid argument")

	// ErrUnsupportedType indicates an element type a requested operation cannot handle.
	ErrUnsupportedType = errors.New("buffer: unsupported element type")

	// ErrUnsupportedOperation indicates an operation the handle cannot perform,
	// such as a vector operation on a buffer that is not vectorizable.
	ErrUnsupportedOperation = errors.New("buffer: unsupported operation")

	// ErrFreeWhileRetained is reported by Close when the handle is still retained.
	ErrFreeWhileRetained = errors.New("buffer: free while retained")

	// ErrOverflow indicates that length * element size overflows.
	ErrOverflow = errors.New("buffer: size overflow")
)

func outOfRange[I ~int | ~uint64](i I, length I) error {
	return fmt.Errorf("%w: index %d, length %d", ErrIndexOutOfRange, i, length)
}
