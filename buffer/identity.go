package buffer

import (
	"encoding/binary"
	"fmt"
	"unsafe"

	"github.com/cespare/xxhash/v2"

	"github.com/joshuapare/offheap/native"
)

// Identity names one allocation instance: its address, byte size, creation
// time, creating thread and a random disambiguator. Two identities are equal
// only when all five agree, so a block that reuses a freed address never
// matches the handle that owned the address before.
type Identity struct {
	addr unsafe.Pointer
	size uint64
	tag  native.Tag
	hash uint64
}

// NewIdentity builds an identity from its five fields.
func NewIdentity(addr unsafe.Pointer, size uint64, createdAt, threadID int64, rid uint32) Identity {
	return newIdentity(addr, size, native.Tag{CreatedAt: createdAt, ThreadID: threadID, RID: rid})
}

func newIdentity(addr unsafe.Pointer, size uint64, tag native.Tag) Identity {
	var b [36]byte
	binary.LittleEndian.PutUint64(b[0:], uint64(uintptr(addr)))
	binary.LittleEndian.PutUint64(b[8:], size)
	binary.LittleEndian.PutUint64(b[16:], uint64(tag.CreatedAt))
	binary.LittleEndian.PutUint64(b[24:], uint64(tag.ThreadID))
	binary.LittleEndian.PutUint32(b[32:], tag.RID)
	return Identity{addr: addr, size: size, tag: tag, hash: xxhash.Sum64(b[:])}
}

func (id Identity) Pointer() unsafe.Pointer { return id.addr }
func (id Identity) Address() uintptr        { return uintptr(id.addr) }
func (id Identity) Size() uint64            { return id.size }
func (id Identity) CreatedAt() int64        { return id.tag.CreatedAt }
func (id Identity) ThreadID() int64         { return id.tag.ThreadID }
func (id Identity) RID() uint32             { return id.tag.RID }
func (id Identity) Tag() native.Tag         { return id.tag }

// Hash returns the xxhash of the five identity fields.
func (id Identity) Hash() uint64 { return id.hash }

// Equal reports whether both identities name the same allocation instance.
func (id Identity) Equal(other Identity) bool {
	return id.addr == other.addr && id.size == other.size && id.tag == other.tag
}

// IsLive asks a whether the address still maps to this exact allocation.
// It is false for never-allocated, freed and reused addresses.
func (id Identity) IsLive(a native.Allocator) bool {
	if id.addr == nil || a == nil {
		return false
	}
	return a.IsLive(id.addr, id.size, id.tag)
}

func (id Identity) String() string {
	return fmt.Sprintf("alloc{%#x size=%d t=%d tid=%d rid=%#x}",
		uintptr(id.addr), id.size, id.tag.CreatedAt, id.tag.ThreadID, id.tag.RID)
}

// stamp mints the tag for a new allocation.
func stamp(a native.Allocator) native.Tag {
	if s, ok := a.(native.Stamper); ok {
		return s.Stamp()
	}
	return native.NewTag(native.DefaultRIDBits)
}
