package native

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/dustin/go-humanize"

	"github.com/joshuapare/offheap/internal/buf"
	"github.com/joshuapare/offheap/internal/logger"
)

// Options configures a Client.
type Options struct {
	// Name labels the client in logs and metrics.
	// Default: the source kind ("mmap", "heap", "arena", "custom")
	Name string

	// RIDBits is the width of the random disambiguator minted by Stamp.
	// Default: DefaultRIDBits (32)
	RIDBits uint

	// Logger receives allocation events. Default: logger.L at call time.
	Logger *slog.Logger
}

// DefaultOptions returns the recommended client options.
func DefaultOptions() *Options {
	return &Options{RIDBits: DefaultRIDBits}
}

// block is the metadata record for one live allocation.
type block struct {
	size   uint64
	usable uint64
	tag    Tag
	refs   atomic.Int32
}

// Client is the metadata-tracked Allocator. The zero value is not usable;
// construct with New or one of the source-specific helpers.
type Client struct {
	name    string
	src     Source
	ridBits uint
	log     *slog.Logger

	mu     sync.RWMutex
	blocks map[uintptr]*block

	stats clientStats
}

// New creates a Client drawing memory from src.
func New(src Source, opts *Options) *Client {
	if opts == nil {
		opts = DefaultOptions()
	}
	name := opts.Name
	if name == "" {
		name = sourceKind(src)
	}
	ridBits := opts.RIDBits
	if ridBits == 0 {
		ridBits = DefaultRIDBits
	}
	return &Client{
		name:    name,
		src:     src,
		ridBits: ridBits,
		log:     opts.Logger,
		blocks:  make(map[uintptr]*block),
	}
}

// NewMmap creates a Client backed by per-block anonymous mappings.
func NewMmap(opts *Options) *Client {
	return New(NewMmapSource(), opts)
}

// NewHeap creates a Client backed by pinned Go heap slices.
func NewHeap(opts *Options) *Client {
	return New(NewHeapSource(), opts)
}

// NewArena creates a Client sub-allocating a single mapping of capacity bytes.
func NewArena(capacity uint64, opts *Options) (*Client, error) {
	src, err := NewArenaSource(capacity)
	if err != nil {
		return nil, err
	}
	return New(src, opts), nil
}

func sourceKind(src Source) string {
	switch src.(type) {
	case *MmapSource:
		return "mmap"
	case *HeapSource:
		return "heap"
	case *ArenaSource:
		return "arena"
	default:
		return "custom"
	}
}

func (c *Client) logger() *slog.Logger {
	if c.log != nil {
		return c.log
	}
	return logger.L
}

// Name returns the client's label.
func (c *Client) Name() string { return c.name }

// Source returns the memory source the client draws from.
func (c *Client) Source() Source { return c.src }

// Stamp mints a Tag honouring the client's RIDBits.
func (c *Client) Stamp() Tag { return NewTag(c.ridBits) }

// Allocate reserves count*elemSize zeroed bytes tagged with tag.
func (c *Client) Allocate(count, elemSize uint64, tag Tag) (unsafe.Pointer, error) {
	size, err := buf.ByteSize(count, elemSize)
	if err != nil {
		c.stats.failures.Add(1)
		return nil, fmt.Errorf("%w: %w", ErrOverflow, err)
	}
	if size == 0 {
		c.stats.failures.Add(1)
		return nil, ErrZeroSize
	}

	p, usable, err := c.src.Reserve(size)
	if err != nil {
		c.stats.failures.Add(1)
		c.logger().Warn("allocation failed",
			"allocator", c.name, "bytes", size, "size", humanize.IBytes(size), "error", err)
		return nil, err
	}

	b := &block{size: size, usable: usable, tag: tag}
	c.mu.Lock()
	if _, dup := c.blocks[uintptr(p)]; dup {
		c.mu.Unlock()
		_ = c.src.Return(p, usable)
		c.stats.failures.Add(1)
		return nil, fmt.Errorf("native: source returned live address %#x", uintptr(p))
	}
	c.blocks[uintptr(p)] = b
	c.mu.Unlock()

	c.stats.allocated(usable)
	c.logger().Debug("allocated",
		"allocator", c.name, "addr", fmt.Sprintf("%#x", uintptr(p)), "bytes", size, "usable", usable,
		"thread", tag.ThreadID, "rid", tag.RID)
	return p, nil
}

// Free returns the block at p to the source. It refuses unknown addresses
// and blocks whose refcount is above zero.
func (c *Client) Free(p unsafe.Pointer) bool {
	c.mu.Lock()
	b, ok := c.blocks[uintptr(p)]
	if !ok {
		c.mu.Unlock()
		c.stats.refused.Add(1)
		c.logger().Debug("free of unknown address", "allocator", c.name, "addr", fmt.Sprintf("%#x", uintptr(p)))
		return false
	}
	if refs := b.refs.Load(); refs > 0 {
		c.mu.Unlock()
		c.stats.refused.Add(1)
		c.logger().Debug("free refused while retained",
			"allocator", c.name, "addr", fmt.Sprintf("%#x", uintptr(p)), "refs", refs)
		return false
	}
	delete(c.blocks, uintptr(p))
	c.mu.Unlock()

	if err := c.src.Return(p, b.usable); err != nil {
		c.logger().Error("returning block to source",
			"allocator", c.name, "addr", fmt.Sprintf("%#x", uintptr(p)), "error", err)
	}
	c.stats.freed(b.usable)
	c.logger().Debug("freed", "allocator", c.name, "addr", fmt.Sprintf("%#x", uintptr(p)), "bytes", b.size)
	return true
}

func (c *Client) lookup(p unsafe.Pointer) *block {
	return c.blocks[uintptr(p)]
}

// Retain increments the refcount of the block at p.
func (c *Client) Retain(p unsafe.Pointer) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	b := c.lookup(p)
	if b == nil {
		return false
	}
	b.refs.Add(1)
	return true
}

// Release decrements the refcount of the block at p, never below zero.
func (c *Client) Release(p unsafe.Pointer) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	b := c.lookup(p)
	if b == nil {
		return false
	}
	for {
		refs := b.refs.Load()
		if refs <= 0 || b.refs.CompareAndSwap(refs, refs-1) {
			return true
		}
	}
}

// RefCount returns the refcount of the block at p, or -1 when p is unknown.
func (c *Client) RefCount(p unsafe.Pointer) int32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	b := c.lookup(p)
	if b == nil {
		return -1
	}
	return b.refs.Load()
}

// IsLive reports whether p names a block recorded with exactly size and tag.
func (c *Client) IsLive(p unsafe.Pointer, size uint64, tag Tag) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	b := c.lookup(p)
	return b != nil && b.size == size && b.tag == tag
}

// UsableSize returns the bytes reserved for p, or 0 when p is unknown.
func (c *Client) UsableSize(p unsafe.Pointer) uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if b := c.lookup(p); b != nil {
		return b.usable
	}
	return 0
}

// Live returns the number of blocks currently tracked by c.
func (c *Client) Live() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.blocks)
}

var (
	_ Allocator = (*Client)(nil)
	_ Stamper   = (*Client)(nil)
)
