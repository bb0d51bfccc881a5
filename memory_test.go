package encodevorbis

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sliceMemory is a growable byte slice standing in for guest memory.
type sliceMemory struct {
	buf      []byte
	maxPages uint32
}

func newSliceMemory(pages uint32) *sliceMemory {
	return &sliceMemory{buf: make([]byte, pages*PageSize)}
}

func (m *sliceMemory) Size() uint32 {
	return uint32(len(m.buf))
}

func (m *sliceMemory) Grow(deltaPages uint32) (uint32, bool) {
	prev := uint32(len(m.buf) / PageSize)
	if m.maxPages > 0 && prev+deltaPages > m.maxPages {
		return prev, false
	}
	m.buf = append(m.buf, make([]byte, int(deltaPages)*PageSize)...)
	return prev, true
}

func (m *sliceMemory) Read(offset, byteCount uint32) ([]byte, bool) {
	end := uint64(offset) + uint64(byteCount)
	if end > uint64(len(m.buf)) {
		return nil, false
	}
	return m.buf[offset:end:end], true
}

func (m *sliceMemory) ReadUint32Le(offset uint32) (uint32, bool) {
	b, ok := m.Read(offset, 4)
	if !ok {
		return 0, false
	}
	return binary.LittleEndian.Uint32(b), true
}

func TestArenaStartsAtMemoryEnd(t *testing.T) {
	a := NewArena(newSliceMemory(2))
	assert.Equal(t, uint32(2*PageSize), a.Top())
}

func TestArenaSbrk(t *testing.T) {
	mem := newSliceMemory(1)
	a := NewArena(mem)

	for _, incr := range []uint32{0, 1, 15, 16, 17, 100, PageSize, 3*PageSize + 5, 7} {
		prior := a.Top()
		got, err := a.Sbrk(incr)
		require.NoError(t, err)

		rounded := (incr + 15) &^ 15
		assert.Equal(t, prior, got, "increment %d", incr)
		assert.Equal(t, prior+rounded, a.Top(), "increment %d", incr)
		assert.Zero(t, mem.Size()%PageSize)
		assert.GreaterOrEqual(t, mem.Size(), a.Top())
	}
}

func TestArenaGrowsByWholePages(t *testing.T) {
	mem := newSliceMemory(1)
	a := NewArena(mem)

	_, err := a.Sbrk(1)
	require.NoError(t, err)
	assert.Equal(t, uint32(2*PageSize), mem.Size())

	// Still inside the second page.
	_, err = a.Sbrk(PageSize - 32)
	require.NoError(t, err)
	assert.Equal(t, uint32(2*PageSize), mem.Size())

	_, err = a.Sbrk(2*PageSize + 1)
	require.NoError(t, err)
	assert.Equal(t, uint32(4*PageSize), mem.Size())
	assert.Equal(t, uint32(PageSize+16+PageSize-32+2*PageSize+16), a.Top())
}

func TestArenaPreservesContents(t *testing.T) {
	mem := newSliceMemory(1)
	mem.buf[100] = 0xab
	a := NewArena(mem)

	_, err := a.Sbrk(4 * PageSize)
	require.NoError(t, err)

	b, ok := mem.Read(100, 1)
	require.True(t, ok)
	assert.Equal(t, byte(0xab), b[0])
}

func TestArenaOutOfMemory(t *testing.T) {
	mem := newSliceMemory(1)
	mem.maxPages = 2
	a := NewArena(mem)

	_, err := a.Sbrk(PageSize)
	require.NoError(t, err)

	top := a.Top()
	_, err = a.Sbrk(1)
	require.ErrorIs(t, err, ErrOutOfMemory)
	assert.Equal(t, top, a.Top(), "failed sbrk must not move the top")
}

func TestArenaAddressSpaceLimit(t *testing.T) {
	a := NewArena(newSliceMemory(1))
	_, err := a.Sbrk(^uint32(0))
	require.ErrorIs(t, err, ErrOutOfMemory)
}

func TestArenaReserve(t *testing.T) {
	mem := newSliceMemory(1)
	a := NewArena(mem)

	require.NoError(t, a.Reserve(12))
	assert.Equal(t, uint32(13*PageSize), mem.Size())
	assert.Equal(t, uint32(PageSize), a.Top())

	_, err := a.Sbrk(PageSize)
	require.NoError(t, err)
	assert.Equal(t, uint32(13*PageSize), mem.Size(), "reserved pages satisfy sbrk")

	mem.maxPages = 13
	require.ErrorIs(t, a.Reserve(1), ErrOutOfMemory)
}
