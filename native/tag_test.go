package native

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewTag_MonotonicCreatedAt(t *testing.T) {
	prev := NewTag(DefaultRIDBits)
	for range 1000 {
		next := NewTag(DefaultRIDBits)
		assert.Greater(t, next.CreatedAt, prev.CreatedAt)
		prev = next
	}
}

func TestNewTag_RIDBits(t *testing.T) {
	for range 200 {
		assert.Less(t, NewTag(4).RID, uint32(16))
	}
	assert.Equal(t, ^uint32(0), ridMask(0))
	assert.Equal(t, ^uint32(0), ridMask(40))
	assert.Equal(t, uint32(0xff), ridMask(8))
}

func TestClient_StampUsesRIDBits(t *testing.T) {
	c := NewHeap(&Options{RIDBits: 1})
	for range 100 {
		assert.LessOrEqual(t, c.Stamp().RID, uint32(1))
	}
}
