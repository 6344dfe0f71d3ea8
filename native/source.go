package native

import (
	"fmt"
	"math"
	"os"
	"sync"
	"unsafe"

	"github.com/joshuapare/offheap/internal/mmfile"
)

// Source produces and reclaims raw zeroed memory for a Client.
type Source interface {
	// Reserve returns at least size zeroed bytes and the usable size.
	Reserve(size uint64) (unsafe.Pointer, uint64, error)

	// Return gives back a block obtained from Reserve.
	Return(p unsafe.Pointer, usable uint64) error
}

// MmapSource maps every block separately with an anonymous mapping.
// Off unix platforms the mapping falls back to a heap slice.
type MmapSource struct {
	mu       sync.Mutex
	mappings map[uintptr]mapping
}

type mapping struct {
	data    []byte
	cleanup func() error
}

// NewMmapSource creates an empty mmap-backed source.
func NewMmapSource() *MmapSource {
	return &MmapSource{mappings: make(map[uintptr]mapping)}
}

// Reserve maps size bytes rounded up to the page size.
func (s *MmapSource) Reserve(size uint64) (unsafe.Pointer, uint64, error) {
	page := uint64(os.Getpagesize())
	usable := (size + page - 1) / page * page
	if usable < size || usable > math.MaxInt {
		return nil, 0, fmt.Errorf("%w: %d bytes", ErrOverflow, size)
	}
	data, cleanup, err := mmfile.MapAnon(int(usable))
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrOutOfMemory, err)
	}
	p := unsafe.Pointer(unsafe.SliceData(data))

	s.mu.Lock()
	s.mappings[uintptr(p)] = mapping{data: data, cleanup: cleanup}
	s.mu.Unlock()
	return p, usable, nil
}

// Return unmaps the block at p.
func (s *MmapSource) Return(p unsafe.Pointer, _ uint64) error {
	s.mu.Lock()
	m, ok := s.mappings[uintptr(p)]
	delete(s.mappings, uintptr(p))
	s.mu.Unlock()
	if !ok {
		return ErrForeignPointer
	}
	return m.cleanup()
}

// HeapSource serves blocks from the Go heap. Blocks are word aligned and
// pinned in a table until returned, so the collector never reclaims them.
type HeapSource struct {
	mu     sync.Mutex
	blocks map[uintptr][]uint64
}

// NewHeapSource creates an empty heap-backed source.
func NewHeapSource() *HeapSource {
	return &HeapSource{blocks: make(map[uintptr][]uint64)}
}

// Reserve allocates size bytes rounded up to 8.
func (s *HeapSource) Reserve(size uint64) (unsafe.Pointer, uint64, error) {
	words := size/8 + min(size%8, 1)
	if words > math.MaxInt/8 {
		return nil, 0, fmt.Errorf("%w: %d bytes", ErrOutOfMemory, size)
	}
	block := make([]uint64, words)
	p := unsafe.Pointer(unsafe.SliceData(block))

	s.mu.Lock()
	s.blocks[uintptr(p)] = block
	s.mu.Unlock()
	return p, words * 8, nil
}

// Return unpins the block at p.
func (s *HeapSource) Return(p unsafe.Pointer, _ uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.blocks[uintptr(p)]; !ok {
		return ErrForeignPointer
	}
	delete(s.blocks, uintptr(p))
	return nil
}
