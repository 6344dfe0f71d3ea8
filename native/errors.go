package native

import "errors"

var (
	// ErrZeroSize indicates an allocation request for zero bytes.
	ErrZeroSize = errors.New("native: zero-size allocation")

	// ErrOverflow indicates that count * elemSize does not fit the address space.
	ErrOverflow = errors.New("native: allocation size overflow")

	// ErrOutOfMemory indicates that the memory source could not satisfy a request.
	ErrOutOfMemory = errors.New("native: out of memory")

	// ErrArenaExhausted indicates that no free span in the arena is large enough.
	ErrArenaExhausted = errors.New("native: arena exhausted")

	// ErrForeignPointer indicates a pointer that the source never handed out.
	ErrForeignPointer = errors.New("native: pointer not owned by source")
)
