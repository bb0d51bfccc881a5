package encodevorbis

import "github.com/tetratelabs/wazero/api"

// PageSize is the WebAssembly page size in bytes.
const PageSize = 65536

// maxPages is the page limit of a 32-bit memory.
const maxPages = 1 << 16

// arenaAlign is the alignment of every sbrk increment.
const arenaAlign = 16

// Memory is the part of api.Memory the host primitives touch.
// Byte slices returned by Read alias guest memory until the next Grow.
type Memory interface {
	Size() uint32
	Grow(deltaPages uint32) (previousPages uint32, ok bool)
	Read(offset, byteCount uint32) ([]byte, bool)
	ReadUint32Le(offset uint32) (uint32, bool)
}

var _ Memory = (api.Memory)(nil)

// Arena is the bump pointer handed to the guest's allocator through sbrk.
//
// The top starts at the end of the memory the module was instantiated with
// and never moves down; freed blocks are recycled inside the guest.
type Arena struct {
	mem Memory
	top uint32
}

// NewArena creates an arena whose top is the current end of mem.
func NewArena(mem Memory) *Arena {
	return &Arena{mem: mem, top: mem.Size()}
}

// Top returns the next unused address.
func (a *Arena) Top() uint32 {
	return a.top
}

// Memory returns the managed guest memory.
func (a *Arena) Memory() Memory {
	return a.mem
}

// Sbrk moves the top by increment rounded up to 16 bytes and returns the
// previous top. Memory is grown by whole pages when the new top passes
// the current capacity; existing contents and addresses are preserved.
func (a *Arena) Sbrk(increment uint32) (uint32, error) {
	rounded := (uint64(increment) + arenaAlign - 1) &^ (arenaAlign - 1)
	newTop := uint64(a.top) + rounded
	if newTop >= maxPages*PageSize {
		return 0, newError(ImportSbrk, KindOutOfMemory, nil,
			"top %d + %d exceeds the 32-bit address space", a.top, rounded)
	}
	if err := a.ensure(newTop); err != nil {
		return 0, err
	}

	old := a.top
	a.top = uint32(newTop)
	return old, nil
}

// Reserve grows capacity by pages without moving the top, so that later
// Sbrk calls are satisfied without growing.
func (a *Arena) Reserve(pages uint32) error {
	if pages == 0 {
		return nil
	}
	if _, ok := a.mem.Grow(pages); !ok {
		return newError("reserve", KindOutOfMemory, nil, "cannot grow memory by %d pages", pages)
	}
	return nil
}

// ensure grows memory until it covers end.
func (a *Arena) ensure(end uint64) error {
	have := uint64(a.mem.Size()) / PageSize
	need := (end + PageSize - 1) / PageSize
	if need <= have {
		return nil
	}
	if _, ok := a.mem.Grow(uint32(need - have)); !ok {
		return newError(ImportSbrk, KindOutOfMemory, nil,
			"cannot grow memory from %d to %d pages", have, need)
	}
	return nil
}
