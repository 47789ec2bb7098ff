package a64sim

import "a64sim/simdlane"

// Instruction is the decoded-operand form an external decoder hands to a
// Visitor method. The decoder is responsible for parsing the raw 32-bit
// encoding into these fields; the core only ever consumes the parsed
// result, never a raw word. One struct covers every instruction group
// rather than one type per group, since the decoder hands over what is
// effectively an opaque instruction record — the visitor only reads the
// fields its own group actually populates.
type Instruction struct {
	PC uint64

	// Common operand fields.
	Rd, Rn, Rm, Ra int
	Is64Bit        bool // sf bit: operate on X (64) vs W (32)
	SetFlags       bool

	// Shifted/extended second operand.
	ShiftType ShiftKind
	ShiftAmt  uint
	ExtendType ExtendKind
	Imm        uint64
	Imm2       uint64

	// Condition code (branches, CSEL family, CCMP).
	Cond Condition

	// Branch displacement/target, already sign-extended by the decoder.
	BranchOffset int64
	BranchTarget uint64

	// Pointer authentication.
	PACKeyIsB bool
	PACUseSP  bool

	// Load/store addressing.
	AddrMode  AddrMode
	MemSize   int  // bytes: 1,2,4,8,16
	SignExt   bool
	Rt, Rt2   int
	Rs        int // status/operand register for exclusives and atomic RMW
	Acquire   bool
	Release   bool
	AtomicOp  AtomicOp
	IsVectorReg bool // Rt names a V register (128-bit quad load/store) rather than a GP register

	// FP/SIMD.
	FPPrecision FPPrecision
	VectorFmt   simdlane.VectorFormat
	Index       int // lane index for scalar-from-vector ops

	// SVE.
	ElemBits   int
	Pg, Pn, Pm int // predicate register numbers
	Zd, Zn, Zm int // Z register numbers

	// HLT/SVC/system immediate payloads.
	HLTCode  int
	SysOp    SysOp
	HintKind HintKind
}

// ShiftKind enumerates AddSub/Logical shifted-register shift types.
type ShiftKind int

const (
	ShiftLSL ShiftKind = iota
	ShiftLSR
	ShiftASR
	ShiftROR
)

// ExtendKind enumerates the extended-register operand kinds.
type ExtendKind int

const (
	ExtUXTB ExtendKind = iota
	ExtUXTH
	ExtUXTW
	ExtUXTX
	ExtSXTB
	ExtSXTH
	ExtSXTW
	ExtSXTX
)

// Condition enumerates the 16 architected condition codes.
type Condition int

const (
	CondEQ Condition = iota
	CondNE
	CondCS
	CondCC
	CondMI
	CondPL
	CondVS
	CondVC
	CondHI
	CondLS
	CondGE
	CondLT
	CondGT
	CondLE
	CondAL
	CondNV
)

// AddrMode enumerates the load/store addressing modes.
type AddrMode int

const (
	AddrOffset AddrMode = iota
	AddrPreIndex
	AddrPostIndex
	AddrLiteral
)

// AtomicOp enumerates the LDADD/LDCLR/LDEOR/LDSET/LDSMAX/... family.
type AtomicOp int

const (
	AtomicAdd AtomicOp = iota
	AtomicClr
	AtomicEor
	AtomicSet
	AtomicSMax
	AtomicSMin
	AtomicUMax
	AtomicUMin
	AtomicSwap
	AtomicCAS
)

// FPPrecision enumerates half/single/double.
type FPPrecision int

const (
	FPHalf FPPrecision = iota
	FPSingle
	FPDouble
)

// SysOp enumerates the MSR/MRS special-register targets.
type SysOp int

const (
	SysNZCV SysOp = iota
	SysFPCR
	SysRNDR
	SysRNDRRS
)

// HintKind enumerates the architected HINT immediates.
type HintKind int

const (
	HintNOP HintKind = iota
	HintESB
	HintCSDB
	HintBTI
	HintBTIC
	HintBTIJ
	HintBTIJC
)
