package buffer

import (
	"testing"
	"unsafe"

	"go.uber.org/goleak"

	"github.com/joshuapare/offheap/native"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// newArena returns an arena-backed allocator whose freed addresses are
// handed out again, closing the arena when the test ends.
func newArena(t *testing.T, capacity uint64) *native.Client {
	t.Helper()
	a, err := native.NewArena(capacity, nil)
	if err != nil {
		t.Fatalf("NewArena: %v", err)
	}
	t.Cleanup(func() { _ = a.Source().(*native.ArenaSource).Close() })
	return a
}

// simdLengths are the lengths around one vector width.
func simdLengths[T any]() []int {
	w := SIMDWidth[T]()
	var out []int
	for _, n := range []int{w - 1, w, w + 1} {
		if n > 0 {
			out = append(out, n)
		}
	}
	return out
}

// hookedAllocator runs one-shot hooks around the calls Free makes, to stage
// interleavings that are otherwise down to the scheduler.
type hookedAllocator struct {
	*native.Client
	afterRefCount func()
	beforeFree    func()
}

func (h *hookedAllocator) RefCount(p unsafe.Pointer) int32 {
	n := h.Client.RefCount(p)
	if f := h.afterRefCount; f != nil {
		h.afterRefCount = nil
		f()
	}
	return n
}

func (h *hookedAllocator) Free(p unsafe.Pointer) bool {
	if f := h.beforeFree; f != nil {
		h.beforeFree = nil
		f()
	}
	return h.Client.Free(p)
}
