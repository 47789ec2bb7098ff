// Package regs implements the A64 register file: the 31 general registers
// (with the polymorphic zero-register/stack-pointer slot 31), the Z/V
// vector registers at a configurable vector length, the P predicate
// registers, NZCV, FPCR, PC, and BType, plus the per-register "written since
// last log" bits the trace package consumes.
package regs

import "fmt"

// Condition flag bits within NZCV, matching the architected bit positions.
const (
	FlagN = uint8(0x8)
	FlagZ = uint8(0x4)
	FlagC = uint8(0x2)
	FlagV = uint8(0x1)
)

// RoundingMode enumerates FPCR.RMode.
type RoundingMode int

const (
	TieEven RoundingMode = iota
	PlusInf
	MinusInf
	Zero
)

// BType enumerates the branch-target-indication states.
type BType int

const (
	Default BType = iota
	BranchAndLink
	BranchFromUnguardedOrToIP
	BranchFromGuardedNotToIP
)

// FPCRState holds the floating-point control bits the core honors.
type FPCRState struct {
	RMode RoundingMode
	FZ    bool // flush-to-zero
	DN    bool // default NaN
	AHP   bool // alternative half-precision
}

// poisonNaN64 is the bit pattern used to fill a V register's 64-bit lanes at
// reset: a signalling NaN whose low bits encode the owning register/lane for
// trace diagnostics.
func poisonNaN64(reg, lane int) uint64 {
	// Signalling-NaN exponent all ones, top mantissa bit clear (keeps it
	// signalling), bit 16 forced set so the mantissa is never all-zero (which
	// would otherwise encode +Inf when reg==0 and lane==0), low 16 bits carry
	// reg/lane for diagnostics.
	return 0x7FF0_0000_0001_0000 | uint64(uint8(reg))<<8 | uint64(uint8(lane))
}

// File is the complete A64 register file for one simulator instance.
type File struct {
	x    [31]uint64 // X0..X30; index 31 is handled specially (zero/SP)
	sp   uint64
	v    [][16]byte // 32 vector registers, low 128 bits (Q view) of each
	p    [][]bool   // 16 predicate registers, VL/8 bits each
	nzcv uint8
	fpcr FPCRState
	pc   uint64
	lr   uint64 // convenience mirror of X30
	bt   BType

	vlBits int // configured vector length in bits

	modifiedX [31]bool
	modifiedV [32]bool
	modifiedP [16]bool
	modifiedSys bool
}

// EndOfSim is the architecturally-null sentinel PC value that terminates the
// driver loop.
const EndOfSim uint64 = 0

// NewFile allocates a register file sized for the given SVE vector length in
// bits (128..2048, multiple of 128). VL may only be chosen once, before the
// first Run().
func NewFile(vlBits int) *File {
	if vlBits < 128 || vlBits%128 != 0 {
		panic(fmt.Sprintf("regs: invalid VL %d", vlBits))
	}
	f := &File{vlBits: vlBits}
	f.v = make([][16]byte, 32)
	vlBytes := vlBits / 8
	// Each predicate register gates one bit per byte-lane of a matching Z
	// register, so it needs VL/8 bits — one bool per bit here for clarity.
	f.p = make([][]bool, 16)
	for i := range f.p {
		f.p[i] = make([]bool, vlBytes)
	}
	// Z/V registers in this struct are stored as a single 16-byte quad view
	// per register, matching AArch64's Z-aliases-V rule for the low 128
	// bits; VL configurations above 128 bits read/write only that low
	// quadword (see visit_fp.go's sveRegBytes/writeSVERegBytes).
	f.Reset()
	return f
}

// VLBits returns the configured SVE vector length in bits.
func (f *File) VLBits() int { return f.vlBits }

// Reset restores power-on-reset register contents.
func (f *File) Reset() {
	for i := range f.x {
		f.x[i] = 0xBADBEEF
	}
	f.lr = EndOfSim
	f.x[30] = f.lr
	f.sp = 0
	f.pc = 0
	f.nzcv = 0
	f.fpcr = FPCRState{}
	f.bt = Default
	for i := range f.v {
		var q [16]byte
		lo, hi := poisonNaN64(i, 0), poisonNaN64(i, 1)
		for b := 0; b < 8; b++ {
			q[b] = byte(lo >> (8 * b))
			q[8+b] = byte(hi >> (8 * b))
		}
		f.v[i] = q
	}
	for i := range f.p {
		for j := range f.p[i] {
			// Poison pattern for predicate lanes: alternate based on
			// reg+lane parity, enough to be deterministic and distinct
			// from an all-true/all-false reset.
			f.p[i][j] = (i+j)%2 == 0
		}
	}
	for i := range f.modifiedX {
		f.modifiedX[i] = false
	}
	for i := range f.modifiedV {
		f.modifiedV[i] = false
	}
	for i := range f.modifiedP {
		f.modifiedP[i] = false
	}
}

// --- General-purpose registers ---

// ReadX returns the 64-bit value of Xn. If sp is true, index 31 selects SP;
// otherwise it selects the zero register (always reads 0).
func (f *File) ReadX(n int, sp bool) uint64 {
	if n == 31 {
		if sp {
			return f.sp
		}
		return 0
	}
	return f.x[n]
}

// WriteX stores a full 64-bit value into Xn. Writes to the zero register
// (n==31, sp==false) are silently dropped.
func (f *File) WriteX(n int, sp bool, v uint64) {
	if n == 31 {
		if sp {
			f.sp = v
		}
		return
	}
	f.x[n] = v
	if n == 30 {
		f.lr = v
	}
	f.modifiedX[n] = true
}

// ReadW returns the low 32 bits of Wn.
func (f *File) ReadW(n int, sp bool) uint32 {
	return uint32(f.ReadX(n, sp))
}

// WriteW stores v into the low 32 bits of Xn and zero-extends into the full
// 64-bit register.
func (f *File) WriteW(n int, sp bool, v uint32) {
	f.WriteX(n, sp, uint64(v))
}

// Modified reports whether Xn was written since the last ClearModified.
func (f *File) Modified(n int) bool {
	if n < 0 || n > 30 {
		return false
	}
	return f.modifiedX[n]
}

// ClearModified clears the "written since last log" bit for Xn.
func (f *File) ClearModified(n int) {
	if n >= 0 && n <= 30 {
		f.modifiedX[n] = false
	}
}

// --- Program counter / link register / BType ---

func (f *File) PC() uint64     { return f.pc }
func (f *File) SetPC(v uint64) { f.pc = v }
func (f *File) LR() uint64     { return f.lr }

func (f *File) BTypeCurrent() BType     { return f.bt }
func (f *File) SetBTypeNext(bt BType)   { f.bt = bt }

// --- NZCV ---

// NZCV returns the current condition flags.
func (f *File) NZCV() uint8 { return f.nzcv & 0xF }

// SetNZCV replaces the condition flags (reserved bits are always masked
// off.
func (f *File) SetNZCV(n, z, c, v bool) {
	var flags uint8
	if n {
		flags |= FlagN
	}
	if z {
		flags |= FlagZ
	}
	if c {
		flags |= FlagC
	}
	if v {
		flags |= FlagV
	}
	f.nzcv = flags
	f.modifiedSys = true
}

// SetNZCVRaw sets NZCV directly from a packed nibble (N<<3|Z<<2|C<<1|V),
// used by conditional-compare's "else" path which loads NZCV from an
// instruction immediate.
func (f *File) SetNZCVRaw(nibble uint8) {
	f.nzcv = nibble & 0xF
	f.modifiedSys = true
}

func (f *File) FlagN() bool { return f.nzcv&FlagN != 0 }
func (f *File) FlagZ() bool { return f.nzcv&FlagZ != 0 }
func (f *File) FlagC() bool { return f.nzcv&FlagC != 0 }
func (f *File) FlagV() bool { return f.nzcv&FlagV != 0 }

// --- FPCR ---

func (f *File) FPCR() FPCRState       { return f.fpcr }
func (f *File) SetFPCR(s FPCRState)   { f.fpcr = s; f.modifiedSys = true }
func (f *File) SysModified() bool     { return f.modifiedSys }
func (f *File) ClearSysModified()     { f.modifiedSys = false }

// --- Vector (Q-view) registers ---

// ReadQ returns the full 128-bit contents of Vn as a little-endian byte
// array (byte 0 is the lowest-addressed byte).
func (f *File) ReadQ(n int) [16]byte { return f.v[n] }

// WriteQ replaces the full 128 bits of Vn.
func (f *File) WriteQ(n int, q [16]byte) {
	f.v[n] = q
	f.modifiedV[n] = true
}

// ModifiedV reports whether Vn was written since the last ClearModifiedV.
func (f *File) ModifiedV(n int) bool { return f.modifiedV[n] }

// ClearModifiedV clears Vn's write-log bit.
func (f *File) ClearModifiedV(n int) { f.modifiedV[n] = false }

// WriteScalarLane writes data into the low bytes (lane 0) of Vn and zeroes the
// remaining upper bytes, the write policy every scalar FP destination
// follows architecturally.
func (f *File) WriteScalarLane(n int, data []byte) {
	var q [16]byte
	copy(q[:], data)
	f.v[n] = q
	f.modifiedV[n] = true
}

// --- Predicate registers ---

// ReadPBit returns bit i of predicate register Pn (0 == inactive).
func (f *File) ReadPBit(n, i int) bool { return f.p[n][i] }

// WritePBit sets bit i of predicate register Pn.
func (f *File) WritePBit(n, i int, v bool) {
	f.p[n][i] = v
	f.modifiedP[n] = true
}

// PBits returns a copy of all bits of Pn, length VL/8.
func (f *File) PBits(n int) []bool {
	out := make([]bool, len(f.p[n]))
	copy(out, f.p[n])
	return out
}

// SetPBits overwrites all bits of Pn.
func (f *File) SetPBits(n int, bits []bool) {
	copy(f.p[n], bits)
	f.modifiedP[n] = true
}

// ModifiedP reports whether Pn was written since the last ClearModifiedP.
func (f *File) ModifiedP(n int) bool { return f.modifiedP[n] }

// ClearModifiedP clears Pn's write-log bit.
func (f *File) ClearModifiedP(n int) { f.modifiedP[n] = false }
