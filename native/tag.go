package native

import (
	"math/rand/v2"
	"sync/atomic"
	"time"

	"github.com/joshuapare/offheap/internal/thread"
)

// DefaultRIDBits is the width of the random disambiguator in a Tag.
const DefaultRIDBits = 32

var (
	epoch    = time.Now()
	lastTick atomic.Int64
)

// tick returns strictly increasing monotonic nanoseconds since process start.
func tick() int64 {
	for {
		prev := lastTick.Load()
		now := int64(time.Since(epoch))
		if now <= prev {
			now = prev + 1
		}
		if lastTick.CompareAndSwap(prev, now) {
			return now
		}
	}
}

// NewTag stamps a new allocation with the current time, the calling thread
// and a random value of ridBits bits. Fewer bits make address-reuse
// collisions more likely; the time component already differs between any two
// tags minted by this process.
func NewTag(ridBits uint) Tag {
	return Tag{
		CreatedAt: tick(),
		ThreadID:  thread.ID(),
		RID:       rand.Uint32() & ridMask(ridBits),
	}
}

func ridMask(bits uint) uint32 {
	if bits == 0 || bits >= 32 {
		return ^uint32(0)
	}
	return 1<<bits - 1
}
