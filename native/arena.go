package native

import (
	"fmt"
	"math"
	"sort"
	"sync"
	"unsafe"

	"github.com/joshuapare/offheap/internal/buf"
	"github.com/joshuapare/offheap/internal/mmfile"
)

// ArenaAlignment is the alignment of every block handed out by an ArenaSource.
const ArenaAlignment = 64

// span is a free range of the arena, in bytes from the region start.
type span struct {
	off  uint64
	size uint64
}

// ArenaSource sub-allocates one fixed mapping with a first-fit free list.
// Adjacent free spans are coalesced on Return. Because the lowest fitting
// span always wins, a freed block's address is handed out again by the next
// request of the same size.
type ArenaSource struct {
	mu      sync.Mutex
	region  []byte
	cleanup func() error
	free    []span // sorted by off, never adjacent
}

// NewArenaSource maps capacity bytes (rounded up to ArenaAlignment).
func NewArenaSource(capacity uint64) (*ArenaSource, error) {
	capacity = alignUp(capacity, ArenaAlignment)
	if capacity == 0 || capacity > math.MaxInt {
		return nil, fmt.Errorf("native: invalid arena capacity %d", capacity)
	}
	region, cleanup, err := mmfile.MapAnon(int(capacity))
	if err != nil {
		return nil, err
	}
	return &ArenaSource{
		region:  region,
		cleanup: cleanup,
		free:    []span{{off: 0, size: capacity}},
	}, nil
}

func alignUp(n, a uint64) uint64 {
	r := (n + a - 1) / a * a
	if r < n {
		return 0
	}
	return r
}

// Capacity returns the arena size in bytes.
func (s *ArenaSource) Capacity() uint64 {
	return uint64(len(s.region))
}

// Available returns the total free bytes, which may be fragmented.
func (s *ArenaSource) Available() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n uint64
	for _, f := range s.free {
		n += f.size
	}
	return n
}

// Reserve carves size bytes (rounded up to ArenaAlignment) out of the first
// free span large enough and zeroes them.
func (s *ArenaSource) Reserve(size uint64) (unsafe.Pointer, uint64, error) {
	need := alignUp(size, ArenaAlignment)
	if need == 0 {
		return nil, 0, fmt.Errorf("%w: %d bytes", ErrOverflow, size)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.region == nil {
		return nil, 0, fmt.Errorf("%w: arena closed", ErrOutOfMemory)
	}
	for i, f := range s.free {
		if f.size < need {
			continue
		}
		if f.size == need {
			s.free = append(s.free[:i], s.free[i+1:]...)
		} else {
			s.free[i] = span{off: f.off + need, size: f.size - need}
		}
		block := s.region[f.off : f.off+need]
		clear(block)
		return unsafe.Pointer(unsafe.SliceData(block)), need, nil
	}
	return nil, 0, fmt.Errorf("%w: need %d bytes", ErrArenaExhausted, need)
}

// Return puts the block back on the free list, merging it with its neighbours.
func (s *ArenaSource) Return(p unsafe.Pointer, usable uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.region == nil {
		return ErrForeignPointer
	}
	base := uintptr(unsafe.Pointer(unsafe.SliceData(s.region)))
	addr := uintptr(p)
	if addr < base {
		return ErrForeignPointer
	}
	off := uint64(addr - base)
	if _, err := buf.CheckRange(uint64(len(s.region)), off, usable); err != nil {
		return fmt.Errorf("%w: %w", ErrForeignPointer, err)
	}

	i := sort.Search(len(s.free), func(i int) bool { return s.free[i].off >= off })
	if i < len(s.free) && s.free[i].off < off+usable {
		return fmt.Errorf("%w: block at %d overlaps free span", ErrForeignPointer, off)
	}
	if i > 0 && s.free[i-1].off+s.free[i-1].size > off {
		return fmt.Errorf("%w: block at %d overlaps free span", ErrForeignPointer, off)
	}

	merged := span{off: off, size: usable}
	if i < len(s.free) && s.free[i].off == off+usable {
		merged.size += s.free[i].size
		s.free = append(s.free[:i], s.free[i+1:]...)
	}
	if i > 0 && s.free[i-1].off+s.free[i-1].size == off {
		s.free[i-1].size += merged.size
		return nil
	}
	s.free = append(s.free, span{})
	copy(s.free[i+1:], s.free[i:])
	s.free[i] = merged
	return nil
}

// Close unmaps the arena. Blocks still handed out become invalid.
func (s *ArenaSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.region == nil {
		return nil
	}
	err := s.cleanup()
	s.region = nil
	s.free = nil
	return err
}
