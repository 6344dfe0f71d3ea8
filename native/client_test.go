package native

import (
	"errors"
	"math"
	"sync"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestClients returns one client per source kind.
func newTestClients(t *testing.T) map[string]*Client {
	t.Helper()
	arena, err := NewArena(1<<20, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = arena.Source().(*ArenaSource).Close() })
	return map[string]*Client{
		"heap":  NewHeap(nil),
		"mmap":  NewMmap(nil),
		"arena": arena,
	}
}

func TestClient_AllocateZeroedAndFree(t *testing.T) {
	for name, c := range newTestClients(t) {
		t.Run(name, func(t *testing.T) {
			before := Outstanding()
			tag := c.Stamp()
			p, err := c.Allocate(100, 4, tag)
			require.NoError(t, err)
			require.NotNil(t, p)
			assert.Equal(t, before+1, Outstanding())

			data := unsafe.Slice((*byte)(p), 400)
			for i, b := range data {
				require.Zero(t, b, "byte %d", i)
			}
			data[399] = 0xff

			assert.True(t, c.IsLive(p, 400, tag))
			assert.GreaterOrEqual(t, c.UsableSize(p), uint64(400))
			assert.Equal(t, int32(0), c.RefCount(p))

			require.True(t, c.Free(p))
			assert.Equal(t, before, Outstanding())
			assert.False(t, c.IsLive(p, 400, tag))
			assert.Equal(t, int32(-1), c.RefCount(p))
			assert.Zero(t, c.UsableSize(p))
			assert.False(t, c.Free(p), "double free must be refused")
		})
	}
}

func TestClient_FreeRefusedWhileRetained(t *testing.T) {
	c := NewHeap(nil)
	p, err := c.Allocate(8, 8, c.Stamp())
	require.NoError(t, err)

	require.True(t, c.Retain(p))
	require.True(t, c.Retain(p))
	assert.Equal(t, int32(2), c.RefCount(p))

	assert.False(t, c.Free(p))
	assert.Equal(t, uint64(1), c.Stats().RefusedFrees)

	require.True(t, c.Release(p))
	assert.False(t, c.Free(p))
	require.True(t, c.Release(p))
	require.True(t, c.Release(p), "release at zero is a tracked no-op")
	assert.Equal(t, int32(0), c.RefCount(p))
	assert.True(t, c.Free(p))
}

func TestClient_UnknownAddress(t *testing.T) {
	c := NewHeap(nil)
	var x uint64
	p := unsafe.Pointer(&x)
	assert.False(t, c.Retain(p))
	assert.False(t, c.Release(p))
	assert.False(t, c.Free(p))
	assert.Equal(t, int32(-1), c.RefCount(p))
	assert.False(t, c.IsLive(p, 8, Tag{}))
}

func TestClient_IsLiveComparesEveryField(t *testing.T) {
	c := NewHeap(nil)
	tag := Tag{CreatedAt: 10, ThreadID: 20, RID: 30}
	p, err := c.Allocate(2, 8, tag)
	require.NoError(t, err)
	defer c.Free(p)

	assert.True(t, c.IsLive(p, 16, tag))
	assert.False(t, c.IsLive(p, 8, tag))
	assert.False(t, c.IsLive(p, 16, Tag{CreatedAt: 11, ThreadID: 20, RID: 30}))
	assert.False(t, c.IsLive(p, 16, Tag{CreatedAt: 10, ThreadID: 21, RID: 30}))
	assert.False(t, c.IsLive(p, 16, Tag{CreatedAt: 10, ThreadID: 20, RID: 31}))
}

func TestClient_AllocateErrors(t *testing.T) {
	c := NewHeap(nil)

	_, err := c.Allocate(0, 8, c.Stamp())
	assert.ErrorIs(t, err, ErrZeroSize)

	_, err = c.Allocate(math.MaxUint64, 8, c.Stamp())
	assert.ErrorIs(t, err, ErrOverflow)

	assert.Equal(t, uint64(2), c.Stats().Failures)
	assert.Zero(t, c.Stats().Allocations)
}

func TestClient_ConcurrentRetainRelease(t *testing.T) {
	c := NewMmap(nil)
	p, err := c.Allocate(1, 64, c.Stamp())
	require.NoError(t, err)

	const workers, rounds = 8, 1000
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range rounds {
				c.Retain(p)
				c.Release(p)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(0), c.RefCount(p))
	assert.True(t, c.Free(p))
}

func TestClient_StatsAndLive(t *testing.T) {
	c := New(NewHeapSource(), &Options{Name: "unit"})
	assert.Equal(t, "unit", c.Name())

	var ptrs []unsafe.Pointer
	for range 3 {
		p, err := c.Allocate(3, 1, c.Stamp())
		require.NoError(t, err)
		ptrs = append(ptrs, p)
	}
	assert.Equal(t, 3, c.Live())
	c.Free(ptrs[0])

	s := c.Stats()
	assert.Equal(t, uint64(3), s.Allocations)
	assert.Equal(t, uint64(1), s.Frees)
	assert.Equal(t, int64(2), s.Outstanding)
	assert.Equal(t, int64(16), s.OutstandingBytes, "heap blocks round to 8 bytes")

	c.Free(ptrs[1])
	c.Free(ptrs[2])
	assert.Zero(t, c.Stats().Outstanding)
}

type failingSource struct{}

func (failingSource) Reserve(uint64) (unsafe.Pointer, uint64, error) {
	return nil, 0, ErrOutOfMemory
}

func (failingSource) Return(unsafe.Pointer, uint64) error { return nil }

func TestClient_SourceFailure(t *testing.T) {
	c := New(failingSource{}, nil)
	assert.Equal(t, "custom", c.Name())
	p, err := c.Allocate(1, 1, c.Stamp())
	assert.Nil(t, p)
	assert.True(t, errors.Is(err, ErrOutOfMemory))
	assert.Equal(t, uint64(1), c.Stats().Failures)
}
