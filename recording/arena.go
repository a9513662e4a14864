package recording

import (
	"encoding/binary"
	"math"

	"github.com/gogpu/ink"
)

// arenaInitialCapacity is the starting capacity of a fresh arena.
const arenaInitialCapacity = 4096

// pointSize is the encoded size of one ink.Point in the arena.
const pointSize = 8

// Arena is an append-only byte buffer owning the variable-length payloads
// of recorded draw ops. Offsets returned by the store methods are stable
// for the life of the arena; there is no per-allocation bookkeeping and no
// deallocation except a bulk Reset.
//
// Readers pair every offset with the count or length recorded alongside it
// in the op, so the arena itself needs no metadata.
type Arena struct {
	buf []byte
}

// NewArena returns an empty arena with the default initial capacity.
func NewArena() *Arena {
	return &Arena{buf: make([]byte, 0, arenaInitialCapacity)}
}

// Len returns the number of bytes currently stored.
func (a *Arena) Len() int {
	return len(a.buf)
}

// Allocate extends the arena by n bytes and returns the offset of the new
// region.
func (a *Arena) Allocate(n int) int {
	off := len(a.buf)
	a.buf = append(a.buf, make([]byte, n)...)
	return off
}

// StoreBytes appends b and returns its offset.
func (a *Arena) StoreBytes(b []byte) int {
	off := len(a.buf)
	a.buf = append(a.buf, b...)
	return off
}

// StoreString appends s followed by a single zero byte and returns the
// offset of the first character.
func (a *Arena) StoreString(s string) int {
	off := len(a.buf)
	a.buf = append(a.buf, s...)
	a.buf = append(a.buf, 0)
	return off
}

// StorePoints appends pts and returns the offset of the first point.
func (a *Arena) StorePoints(pts []ink.Point) int {
	off := len(a.buf)
	var enc [pointSize]byte
	for _, p := range pts {
		binary.LittleEndian.PutUint32(enc[0:], math.Float32bits(p.X))
		binary.LittleEndian.PutUint32(enc[4:], math.Float32bits(p.Y))
		a.buf = append(a.buf, enc[:]...)
	}
	return off
}

// Bytes returns the n bytes stored at off.
func (a *Arena) Bytes(off, n int) []byte {
	return a.buf[off : off+n]
}

// String returns the n-byte string stored at off. The trailing zero byte
// written by StoreString is not included in n.
func (a *Arena) String(off, n int) string {
	return string(a.buf[off : off+n])
}

// Points decodes the n points stored at off.
func (a *Arena) Points(off, n int) []ink.Point {
	pts := make([]ink.Point, n)
	for i := range pts {
		b := a.buf[off+i*pointSize:]
		pts[i].X = math.Float32frombits(binary.LittleEndian.Uint32(b[0:]))
		pts[i].Y = math.Float32frombits(binary.LittleEndian.Uint32(b[4:]))
	}
	return pts
}

// Reset truncates the arena to zero length without shrinking its capacity,
// so a recorder can be reused across frames without reallocating.
func (a *Arena) Reset() {
	a.buf = a.buf[:0]
}
