package native

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestArena(t *testing.T, capacity uint64) *ArenaSource {
	t.Helper()
	s, err := NewArenaSource(capacity)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestArena_ReuseSameAddress(t *testing.T) {
	s := newTestArena(t, 4096)

	p1, usable, err := s.Reserve(100)
	require.NoError(t, err)
	assert.Equal(t, uint64(128), usable)
	require.NoError(t, s.Return(p1, usable))

	p2, _, err := s.Reserve(100)
	require.NoError(t, err)
	assert.Equal(t, p1, p2, "first fit hands the freed span out again")
}

func TestArena_ZeroesReusedBlocks(t *testing.T) {
	s := newTestArena(t, 4096)

	p, usable, err := s.Reserve(64)
	require.NoError(t, err)
	data := unsafe.Slice((*byte)(p), usable)
	for i := range data {
		data[i] = 0xaa
	}
	require.NoError(t, s.Return(p, usable))

	p, usable, err = s.Reserve(64)
	require.NoError(t, err)
	for i, b := range unsafe.Slice((*byte)(p), usable) {
		require.Zero(t, b, "byte %d", i)
	}
}

func TestArena_CoalesceAndExhaust(t *testing.T) {
	s := newTestArena(t, 256)

	a, ua, err := s.Reserve(64)
	require.NoError(t, err)
	b, ub, err := s.Reserve(64)
	require.NoError(t, err)
	c, uc, err := s.Reserve(128)
	require.NoError(t, err)
	assert.Zero(t, s.Available())

	_, _, err = s.Reserve(1)
	assert.ErrorIs(t, err, ErrArenaExhausted)

	// free in an order that needs both left and right merges
	require.NoError(t, s.Return(a, ua))
	require.NoError(t, s.Return(c, uc))
	require.NoError(t, s.Return(b, ub))
	assert.Equal(t, uint64(256), s.Available())

	whole, _, err := s.Reserve(256)
	require.NoError(t, err)
	assert.Equal(t, a, whole)
}

func TestArena_ReturnRejectsForeign(t *testing.T) {
	s := newTestArena(t, 256)
	var x [64]byte
	assert.ErrorIs(t, s.Return(unsafe.Pointer(&x[0]), 64), ErrForeignPointer)

	p, usable, err := s.Reserve(64)
	require.NoError(t, err)
	require.NoError(t, s.Return(p, usable))
	assert.ErrorIs(t, s.Return(p, usable), ErrForeignPointer, "double return overlaps a free span")
}

func TestArena_Close(t *testing.T) {
	s, err := NewArenaSource(128)
	require.NoError(t, err)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	_, _, err = s.Reserve(8)
	assert.ErrorIs(t, err, ErrOutOfMemory)
}
