package a64sim

// Visitor is the interface the external decoder (out of scope per this
// module's boundary) drives: it parses a raw instruction word into an
// Instruction and calls exactly one of these methods, named after the
// architecture's own instruction-class groupings. Simulator implements
// Visitor; a harness that wants disassembly-only behavior (or a
// conformance fuzzer that never executes) can implement it too.
//
// A register-state core and a separate decode/dispatch front end are kept
// strictly apart: the decoder hands pre-parsed operands to whichever side
// consumes them, and never touches register or memory state itself.
type Visitor interface {
	// Integer data processing.
	VisitAddSubShifted(ins *Instruction)
	VisitAddSubExtended(ins *Instruction)
	VisitAddSubImmediate(ins *Instruction)
	VisitAddSubCarry(ins *Instruction)
	VisitLogicalShifted(ins *Instruction, op LogicalOp)
	VisitLogicalImmediate(ins *Instruction, op LogicalOp)
	VisitMoveWideImmediate(ins *Instruction, op MoveWideOp)
	VisitConditionalCompare(ins *Instruction, useImm bool)
	VisitConditionalSelect(ins *Instruction, op CondSelectOp)
	VisitBitfield(ins *Instruction, op BitfieldOp)
	VisitExtractRegister(ins *Instruction)
	VisitDataProcessing1Source(ins *Instruction, op DP1Op)
	VisitDataProcessing2Source(ins *Instruction, op DP2Op)
	VisitDataProcessing3Source(ins *Instruction, op DP3Op)
	VisitPCRelAddressing(ins *Instruction, page bool)

	// Control flow.
	VisitUnconditionalBranchImmediate(ins *Instruction, link bool)
	VisitConditionalBranch(ins *Instruction)
	VisitCompareBranch(ins *Instruction, isZero bool)
	VisitTestBranch(ins *Instruction, bitSet bool)
	VisitBranchRegister(ins *Instruction, kind BranchRegKind)

	// Floating point.
	VisitFPCompare(ins *Instruction, vsZero bool)
	VisitFPConditionalCompare(ins *Instruction)
	VisitFPConditionalSelect(ins *Instruction)
	VisitFPDataProcessing1Source(ins *Instruction, op FP1Op)
	VisitFPDataProcessing2Source(ins *Instruction, op FP2Op)
	VisitFPImmediate(ins *Instruction)
	VisitFPIntegerConvert(ins *Instruction, op FPConvertOp)
	VisitFPFixedPointConvert(ins *Instruction, op FPConvertOp)

	// Advanced SIMD.
	VisitNEON3Same(ins *Instruction, op NEON3Op)
	VisitNEON2RegMisc(ins *Instruction, op NEON2Op)
	VisitNEONAcrossLanes(ins *Instruction, op NEONReduceOp)
	VisitNEONShiftImmediate(ins *Instruction, op NEONShiftOp)
	VisitNEONTableLookup(ins *Instruction, extension bool)
	VisitNEONPermute(ins *Instruction, op NEONPermuteOp)

	// SVE.
	VisitSVEIntArithmeticPredicated(ins *Instruction, op SVEArithOp)
	VisitSVEPredicateLogical(ins *Instruction, op PredLogicalOp, setFlags bool)
	VisitSVEIntCompareVectors(ins *Instruction, op SVECompareOp)
	VisitSVEWhile(ins *Instruction, op SVEWhileOp)
	VisitSVEIndexGeneration(ins *Instruction, immForm bool)
	VisitSVEPTrue(ins *Instruction, setFlags bool)
	VisitSVEPTest(ins *Instruction)
	VisitSVEIncDecByPredicateCount(ins *Instruction, decrement, saturate, unsigned bool)
	VisitSVEUnpack(ins *Instruction, high, signed bool)
	VisitSVEMovprfx(ins *Instruction)

	// Loads and stores.
	VisitLoadStoreUnsignedImmediate(ins *Instruction)
	VisitLoadStoreRegisterOffset(ins *Instruction)
	VisitLoadStoreIndexed(ins *Instruction)
	VisitLoadStorePair(ins *Instruction)
	VisitLoadLiteral(ins *Instruction)
	VisitLoadStoreExclusive(ins *Instruction)
	VisitLoadStoreAcquireRelease(ins *Instruction)
	VisitAtomicMemory(ins *Instruction)
	VisitSVELoadStoreVector(ins *Instruction, isStore bool)
	VisitSVELoadStorePredicate(ins *Instruction, isStore bool)

	// System.
	VisitSystemRegisterMove(ins *Instruction, isRead bool)
	VisitHint(ins *Instruction)
	VisitBarrier(ins *Instruction, kind BarrierKind)
	VisitClrex(ins *Instruction)
	VisitException(ins *Instruction, kind ExceptionKind)
	VisitPACInstruction(ins *Instruction, op PACOp)
}

// LogicalOp enumerates AND/ORR/EOR/ANDS (shifted or immediate form).
type LogicalOp int

const (
	LogAnd LogicalOp = iota
	LogOrr
	LogEor
	LogAnds
	LogBic // AND NOT (shifted-register form with inverted second operand)
	LogOrn
	LogEon
)

// MoveWideOp enumerates MOVN/MOVZ/MOVK.
type MoveWideOp int

const (
	MoveN MoveWideOp = iota
	MoveZ
	MoveK
)

// CondSelectOp enumerates CSEL/CSINC/CSINV/CSNEG.
type CondSelectOp int

const (
	CSel CondSelectOp = iota
	CSInc
	CSInv
	CSNeg
)

// BitfieldOp enumerates SBFM/BFM/UBFM.
type BitfieldOp int

const (
	BfmSigned BitfieldOp = iota
	BfmMerge
	BfmUnsigned
)

// DP1Op enumerates the 1-source data-processing family.
type DP1Op int

const (
	DP1Rbit DP1Op = iota
	DP1Rev16
	DP1Rev32
	DP1Rev
	DP1Clz
	DP1Cls
	DP1PacStrip
	DP1PacAdd
	DP1PacAuth
	DP1PacGA
)

// DP2Op enumerates the 2-source data-processing family.
type DP2Op int

const (
	DP2Udiv DP2Op = iota
	DP2Sdiv
	DP2Lslv
	DP2Lsrv
	DP2Asrv
	DP2Rorv
	DP2Crc32
	DP2Crc32C
)

// DP3Op enumerates the 3-source (MADD family) data-processing group.
type DP3Op int

const (
	DP3Madd DP3Op = iota
	DP3Msub
	DP3SMAddL
	DP3SMSubL
	DP3UMAddL
	DP3UMSubL
	DP3SMulH
	DP3UMulH
)

// BranchRegKind enumerates BR/BLR/RET and their PAC-authenticated forms.
type BranchRegKind int

const (
	BrPlain BranchRegKind = iota
	BlrPlain
	RetPlain
	BraaBrab
	BlraaBlrab
	Retaa
)

// FP1Op enumerates the FP 1-source data processing family.
type FP1Op int

const (
	FP1Mov FP1Op = iota
	FP1Abs
	FP1Neg
	FP1Sqrt
	FP1Rint
	FP1CvtPrecision
)

// FP2Op enumerates the FP 2-source data processing family.
type FP2Op int

const (
	FP2Add FP2Op = iota
	FP2Sub
	FP2Mul
	FP2Div
	FP2Max
	FP2Min
	FP2MaxNM
	FP2MinNM
)

// FPConvertOp enumerates the SCVTF/UCVTF/FCVTZS/FCVTZU/FJCVTZS family.
type FPConvertOp int

const (
	FPCvtSignedToFloat FPConvertOp = iota
	FPCvtUnsignedToFloat
	FPCvtFloatToSigned
	FPCvtFloatToUnsigned
	FPCvtJS
)

// NEON3Op enumerates the "three same" vector-vector kernels.
type NEON3Op int

const (
	NeonAdd NEON3Op = iota
	NeonSub
	NeonMul
	NeonMla
	NeonMls
	NeonAnd
	NeonOrr
	NeonEor
	NeonCmEq
	NeonCmGt
	NeonSrhadd
	NeonUrhadd
	NeonMaxNM
	NeonMinNM
	NeonFAdd
	NeonFSub
	NeonFMul
)

// NEON2Op enumerates the 2-register-misc family (ABS/NEG/CNT/...).
type NEON2Op int

const (
	Neon2Abs NEON2Op = iota
	Neon2Neg
	Neon2Not
	Neon2Cmeqz
)

// NEONReduceOp enumerates ADDV/S-UMAXV/S-UMINV and the long-reduce forms.
type NEONReduceOp int

const (
	NeonReduceAdd NEONReduceOp = iota
	NeonReduceSMax
	NeonReduceUMax
	NeonReduceSMin
	NeonReduceUMin
	NeonReduceLongAdd
)

// NEONShiftOp enumerates the immediate-shift family (SHL/SSHR/USHR/SRSHR/...).
type NEONShiftOp int

const (
	NeonShl NEONShiftOp = iota
	NeonSshr
	NeonUshr
	NeonSrshr
	NeonUrshr
)

// NEONPermuteOp enumerates ZIP/UZP/TRN.
type NEONPermuteOp int

const (
	NeonZip1 NEONPermuteOp = iota
	NeonZip2
	NeonUzp1
	NeonUzp2
	NeonTrn1
	NeonTrn2
)

// SVEArithOp enumerates the predicated integer arithmetic family.
type SVEArithOp int

const (
	SVEAdd SVEArithOp = iota
	SVESub
	SVESubr
	SVEMul
	SVESMax
	SVESMin
	SVEUMax
	SVEUMin
)

// PredLogicalOp enumerates AND/BIC/EOR/NAND/NOR/ORN/ORR/SEL over P regs.
type PredLogicalOp int

const (
	PredAnd PredLogicalOp = iota
	PredBic
	PredEor
	PredNand
	PredNor
	PredOrn
	PredOrr
	PredSel
)

// SVECompareOp enumerates CMP<cond> over Z vectors.
type SVECompareOp int

const (
	SVECmpEQ SVECompareOp = iota
	SVECmpNE
	SVECmpGE
	SVECmpGT
	SVECmpLE
	SVECmpLT
	SVECmpHS
	SVECmpHI
	SVECmpLS
	SVECmpLO
)

// SVEWhileOp enumerates WHILELT/LE/LO/LS.
type SVEWhileOp int

const (
	SVEWhileLT SVEWhileOp = iota
	SVEWhileLE
	SVEWhileLO
	SVEWhileLS
)

// BarrierKind enumerates DMB/DSB/ISB.
type BarrierKind int

const (
	BarrierDMB BarrierKind = iota
	BarrierDSB
	BarrierISB
)

// ExceptionKind enumerates HLT/UDF/SVC/BRK.
type ExceptionKind int

const (
	ExcHLT ExceptionKind = iota
	ExcUDF
	ExcSVC
	ExcBRK
)

// PACOp enumerates the standalone PAC instruction forms (AUT*/PAC*/XPAC*
// that aren't folded into a branch-register visit).
type PACOp int

const (
	PacAdd PACOp = iota
	PacStrip
	PacAuth
)
