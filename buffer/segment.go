package buffer

import (
	"math"
	"unsafe"

	"github.com/joshuapare/offheap/internal/buf"
)

// MaxSegmentLen is the element count of every segment but the last: the
// largest length an int32-indexed view can address.
const MaxSegmentLen = math.MaxInt32

// Segment is a view of consecutive elements inside a Huge buffer's single
// allocation.
type Segment struct {
	Index int    // position among the buffer's segments
	Start uint64 // first element index covered
	Len   int    // element count, at most MaxSegmentLen

	base unsafe.Pointer
}

// End returns one past the last element index covered.
func (s Segment) End() uint64 { return s.Start + uint64(s.Len) }

// Base returns the address of the segment's first element, or 0 for a
// layout that is not bound to an allocation.
func (s Segment) Base() uintptr { return uintptr(s.base) }

// SegmentLayout returns the segments a Huge buffer of length elements is cut into.
func SegmentLayout(length uint64) []Segment {
	return segmentLayout(length, MaxSegmentLen)
}

func segmentLayout(length, segLen uint64) []Segment {
	n := buf.CeilDiv(length, segLen)
	segs := make([]Segment, n)
	for i := range segs {
		start := uint64(i) * segLen
		segs[i] = Segment{
			Index: i,
			Start: start,
			Len:   int(min(segLen, length-start)),
		}
	}
	return segs
}

// bind computes every segment base from the allocation base.
func bind(segs []Segment, base unsafe.Pointer, elemSize uint64) {
	for i := range segs {
		segs[i].base = unsafe.Add(base, uintptr(segs[i].Start*elemSize))
	}
}
