// Package membank defines the simulator's view of the emulated program's
// byte-addressable memory: a flat, host-backed image with typed
// little-endian accessors and the local/global exclusive monitors that back
// LL/SC-style atomics. Read/Write are generic over the scalar width being
// accessed rather than one function per width.
package membank

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Numeric enumerates the scalar types the core reads/writes through Memory.
// 16-byte quad values are handled separately via ReadQuad/WriteQuad since Go
// has no native 128-bit integer type.
type Numeric interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~int8 | ~int16 | ~int32 | ~int64 |
		~float32 | ~float64
}

// Memory is a flat, little-endian, host-addressable byte store standing in
// for the emulated program's memory image. It is sized to the image given
// at construction and never wraps addresses; out-of-range accesses are a
// programmer error in the harness wiring the image, not an architectural
// condition, and panic via the normal slice-bounds check.
type Memory struct {
	buf []byte
}

// New allocates a zero-filled memory image of size bytes.
func New(size int) *Memory {
	return &Memory{buf: make([]byte, size)}
}

// NewFromBytes wraps an existing byte slice as the memory image without
// copying, letting a harness share a backing array with other tooling.
func NewFromBytes(b []byte) *Memory {
	return &Memory{buf: b}
}

// Len returns the size of the backing image.
func (m *Memory) Len() int {
	return len(m.buf)
}

// Read returns the little-endian value of type T stored at addr.
func Read[T Numeric](m *Memory, addr uint64) T {
	var zero T
	size := sizeOf(zero)
	b := m.buf[addr : addr+uint64(size)]
	switch any(zero).(type) {
	case float32:
		return any(math.Float32frombits(binary.LittleEndian.Uint32(b))).(T)
	case float64:
		return any(math.Float64frombits(binary.LittleEndian.Uint64(b))).(T)
	}
	return T(readUint(b))
}

// Write stores the little-endian value v at addr.
func Write[T Numeric](m *Memory, addr uint64, v T) {
	size := sizeOf(v)
	b := m.buf[addr : addr+uint64(size)]
	switch x := any(v).(type) {
	case float32:
		binary.LittleEndian.PutUint32(b, math.Float32bits(x))
		return
	case float64:
		binary.LittleEndian.PutUint64(b, math.Float64bits(x))
		return
	}
	writeUint(b, uint64(toInt(v)))
}

// ReadQuad returns the 16 raw bytes at addr, endian-neutral (the core never
// interprets a quad's bit pattern itself; SVE/SIMD callers slice lanes out
// of it).
func (m *Memory) ReadQuad(addr uint64) [16]byte {
	var q [16]byte
	copy(q[:], m.buf[addr:addr+16])
	return q
}

// WriteQuad stores 16 raw bytes at addr.
func (m *Memory) WriteQuad(addr uint64, q [16]byte) {
	copy(m.buf[addr:addr+16], q[:])
}

// ReadBytes copies n raw bytes starting at addr, used by the SVE whole-
// register LDR/STR, which must stay endian-neutral.
func (m *Memory) ReadBytes(addr uint64, n int) []byte {
	out := make([]byte, n)
	copy(out, m.buf[addr:addr+uint64(n)])
	return out
}

// WriteBytes stores raw bytes starting at addr.
func (m *Memory) WriteBytes(addr uint64, data []byte) {
	copy(m.buf[addr:addr+uint64(len(data))], data)
}

func sizeOf(v any) int {
	switch v.(type) {
	case uint8, int8:
		return 1
	case uint16, int16:
		return 2
	case uint32, int32, float32:
		return 4
	case uint64, int64, float64:
		return 8
	}
	panic(fmt.Sprintf("membank: unsupported type %T", v))
}

func readUint(b []byte) uint64 {
	switch len(b) {
	case 1:
		return uint64(b[0])
	case 2:
		return uint64(binary.LittleEndian.Uint16(b))
	case 4:
		return uint64(binary.LittleEndian.Uint32(b))
	case 8:
		return binary.LittleEndian.Uint64(b)
	}
	panic("membank: bad width")
}

func writeUint(b []byte, v uint64) {
	switch len(b) {
	case 1:
		b[0] = byte(v)
	case 2:
		binary.LittleEndian.PutUint16(b, uint16(v))
	case 4:
		binary.LittleEndian.PutUint32(b, uint32(v))
	case 8:
		binary.LittleEndian.PutUint64(b, v)
	}
}

func toInt(v any) int64 {
	switch x := v.(type) {
	case uint8:
		return int64(x)
	case uint16:
		return int64(x)
	case uint32:
		return int64(x)
	case uint64:
		return int64(x)
	case int8:
		return int64(x)
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case int64:
		return x
	}
	panic(fmt.Sprintf("membank: unsupported type %T", v))
}

// Interval is a half-open [Start, Start+Size) byte range used by both the
// local and global exclusive monitors.
type Interval struct {
	Start uint64
	Size  uint64
	valid bool
}

// covers reports whether iv fully contains [start, start+size).
func (iv Interval) covers(start, size uint64) bool {
	if !iv.valid {
		return false
	}
	return start >= iv.Start && start+size <= iv.Start+iv.Size
}

// Monitor models a single-interval exclusive-access record, used for both
// the local (per-PE) and global exclusive monitors. A single struct covers
// both roles; the simulator holds one of each.
type Monitor struct {
	iv Interval
}

// Mark records addr..addr+size as the exclusively-reserved range.
func (m *Monitor) Mark(addr, size uint64) {
	m.iv = Interval{Start: addr, Size: size, valid: true}
}

// IsExclusive reports whether the recorded interval still fully covers
// addr..addr+size.
func (m *Monitor) IsExclusive(addr, size uint64) bool {
	return m.iv.covers(addr, size)
}

// Clear drops the recorded interval unconditionally (CLREX semantics).
func (m *Monitor) Clear() {
	m.iv = Interval{}
}

// MaybeClear models the "may clear" slack any non-exclusive store is
// architecturally permitted to apply to the monitor. This implementation
// always clears, which is legal and simpler than tracking overlap.
func (m *Monitor) MaybeClear() {
	m.Clear()
}
