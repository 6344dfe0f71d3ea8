//go:build !unix

package mmfile

import "fmt"

// Backed reports whether MapAnon returns memory outside the Go heap.
const Backed = false

// MapAnon allocates a zeroed heap slice when mmap is not available.
func MapAnon(size int) ([]byte, func() error, error) {
	if size <= 0 {
		return nil, nil, fmt.Errorf("mmfile: invalid mapping size %d", size)
	}
	data := make([]byte, size)
	return data, func() error { data = nil; return nil }, nil
}
