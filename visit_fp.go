package a64sim

import (
	"math"

	"a64sim/fparith"
	"a64sim/regs"
	"a64sim/simdlane"
	"a64sim/sve"
)

func toFPCR(f regs.FPCRState) fparith.FPCR {
	var mode fparith.RoundingMode
	switch f.RMode {
	case regs.PlusInf:
		mode = fparith.PlusInf
	case regs.MinusInf:
		mode = fparith.MinusInf
	case regs.Zero:
		mode = fparith.Zero
	default:
		mode = fparith.TieEven
	}
	return fparith.FPCR{RMode: mode, FZ: f.FZ, DN: f.DN, AHP: f.AHP}
}

// readScalarFloat extracts the scalar value held in Vn's lane 0 at the
// given precision.
func (s *Simulator) readScalarFloat(n int, prec FPPrecision) float64 {
	q := s.Regs.ReadQ(n)
	switch prec {
	case FPHalf:
		bits := uint16(q[0]) | uint16(q[1])<<8
		return float64(fparith.HalfToFloat32(fparith.Half(bits)))
	case FPSingle:
		bits := uint32(q[0]) | uint32(q[1])<<8 | uint32(q[2])<<16 | uint32(q[3])<<24
		return float64(math.Float32frombits(bits))
	default: // FPDouble
		var bits uint64
		for i := 0; i < 8; i++ {
			bits |= uint64(q[i]) << uint(8*i)
		}
		return math.Float64frombits(bits)
	}
}

// writeScalarFloat writes v into Vn's lane 0 at the given precision,
// zeroing the rest of the register, as every scalar FP destination write
// does architecturally.
func (s *Simulator) writeScalarFloat(n int, prec FPPrecision, v float64) {
	var data []byte
	switch prec {
	case FPHalf:
		h := fparith.Float32ToHalf(float32(v))
		data = []byte{byte(h), byte(h >> 8)}
	case FPSingle:
		bits := math.Float32bits(float32(v))
		data = []byte{byte(bits), byte(bits >> 8), byte(bits >> 16), byte(bits >> 24)}
	default:
		bits := math.Float64bits(v)
		data = make([]byte, 8)
		for i := 0; i < 8; i++ {
			data[i] = byte(bits >> uint(8*i))
		}
	}
	s.Regs.WriteScalarLane(n, data)
}

// VisitFPCompare implements FCMP/FCMPE, against either Vm (vsZero=false) or
// an architected zero (vsZero=true, Rm ignored).
func (s *Simulator) VisitFPCompare(ins *Instruction, vsZero bool) {
	a := s.readScalarFloat(ins.Rn, ins.FPPrecision)
	b := 0.0
	if !vsZero {
		b = s.readScalarFloat(ins.Rm, ins.FPPrecision)
	}
	r := fparith.Compare(a, b)
	s.Regs.SetNZCV(r.N, r.Z, r.C, r.V)
}

// VisitFPConditionalCompare implements FCCMP/FCCMPE.
func (s *Simulator) VisitFPConditionalCompare(ins *Instruction) {
	if !evalCond(s.Regs, ins.Cond) {
		s.Regs.SetNZCVRaw(uint8(ins.Imm2))
		return
	}
	a := s.readScalarFloat(ins.Rn, ins.FPPrecision)
	b := s.readScalarFloat(ins.Rm, ins.FPPrecision)
	r := fparith.Compare(a, b)
	s.Regs.SetNZCV(r.N, r.Z, r.C, r.V)
}

// VisitFPConditionalSelect implements FCSEL.
func (s *Simulator) VisitFPConditionalSelect(ins *Instruction) {
	var v float64
	if evalCond(s.Regs, ins.Cond) {
		v = s.readScalarFloat(ins.Rn, ins.FPPrecision)
	} else {
		v = s.readScalarFloat(ins.Rm, ins.FPPrecision)
	}
	s.writeScalarFloat(ins.Rd, ins.FPPrecision, v)
}

// VisitFPDataProcessing1Source implements FMOV/FABS/FNEG/FSQRT/FRINTx and
// the cross-precision FCVT.
func (s *Simulator) VisitFPDataProcessing1Source(ins *Instruction, op FP1Op) {
	a := s.readScalarFloat(ins.Rn, ins.FPPrecision)
	fpcr := toFPCR(s.Regs.FPCR())
	var result float64
	dstPrec := ins.FPPrecision
	switch op {
	case FP1Mov:
		result = a
	case FP1Abs:
		result = math.Abs(a)
	case FP1Neg:
		result = -a
	case FP1Sqrt:
		if a < 0 {
			result = math.NaN()
		} else {
			result = math.Sqrt(a)
		}
	case FP1Rint:
		result = fparith.Frint(fpcr.RMode, a)
	case FP1CvtPrecision:
		// ins.Index carries the destination precision for cross-precision
		// FCVT, since FPPrecision alone only names the source width.
		dstPrec = FPPrecision(ins.Index)
		result = a
	}
	if fparith.IsNaN64(a) && op != FP1CvtPrecision {
		result, _ = fparith.NaNPropagate2(fpcr, a, a)
	}
	s.writeScalarFloat(ins.Rd, dstPrec, result)
}

// VisitFPDataProcessing2Source implements FADD/FSUB/FMUL/FDIV/FMAX/FMIN/
// FMAXNM/FMINNM.
func (s *Simulator) VisitFPDataProcessing2Source(ins *Instruction, op FP2Op) {
	a := s.readScalarFloat(ins.Rn, ins.FPPrecision)
	b := s.readScalarFloat(ins.Rm, ins.FPPrecision)
	fpcr := toFPCR(s.Regs.FPCR())
	if result, isNaN := fparith.NaNPropagate2(fpcr, a, b); isNaN && op != FP2MaxNM && op != FP2MinNM {
		s.writeScalarFloat(ins.Rd, ins.FPPrecision, result)
		return
	}
	var result float64
	switch op {
	case FP2Add:
		result = a + b
	case FP2Sub:
		result = a - b
	case FP2Mul:
		result = a * b
	case FP2Div:
		result = a / b
	case FP2Max:
		result = math.Max(a, b)
	case FP2Min:
		result = math.Min(a, b)
	case FP2MaxNM:
		result = maxIgnoreNaN(a, b)
	case FP2MinNM:
		result = minIgnoreNaN(a, b)
	}
	s.writeScalarFloat(ins.Rd, ins.FPPrecision, result)
}

func maxIgnoreNaN(a, b float64) float64 {
	if fparith.IsNaN64(a) {
		return b
	}
	if fparith.IsNaN64(b) {
		return a
	}
	return math.Max(a, b)
}

func minIgnoreNaN(a, b float64) float64 {
	if fparith.IsNaN64(a) {
		return b
	}
	if fparith.IsNaN64(b) {
		return a
	}
	return math.Min(a, b)
}

// VisitFPImmediate implements FMOV (scalar, immediate): ins.Imm already
// holds the expanded 64-bit float bit pattern at double precision; the
// visitor narrows it to the target register's precision.
func (s *Simulator) VisitFPImmediate(ins *Instruction) {
	v := math.Float64frombits(ins.Imm)
	s.writeScalarFloat(ins.Rd, ins.FPPrecision, v)
}

// VisitFPIntegerConvert implements SCVTF/UCVTF/FCVTZS/FCVTZU/FJCVTZS
// between a GP register and a scalar FP register.
func (s *Simulator) VisitFPIntegerConvert(ins *Instruction, op FPConvertOp) {
	// FCVTZS/FCVTZU round toward zero whatever FPCR.RMode holds.
	bits := 32
	if ins.Is64Bit {
		bits = 64
	}
	switch op {
	case FPCvtSignedToFloat:
		v := asSigned(s.readReg(ins.Rn, false, ins.Is64Bit), ins.Is64Bit)
		s.writeScalarFloat(ins.Rd, ins.FPPrecision, float64(v))
	case FPCvtUnsignedToFloat:
		v := s.readReg(ins.Rn, false, ins.Is64Bit)
		s.writeScalarFloat(ins.Rd, ins.FPPrecision, float64(v))
	case FPCvtFloatToSigned:
		f := s.readScalarFloat(ins.Rn, ins.FPPrecision)
		s.writeReg(ins.Rd, false, ins.Is64Bit, fparith.ConvertToInt(fparith.Zero, f, bits, true))
	case FPCvtFloatToUnsigned:
		f := s.readScalarFloat(ins.Rn, ins.FPPrecision)
		s.writeReg(ins.Rd, false, ins.Is64Bit, fparith.ConvertToInt(fparith.Zero, f, bits, false))
	case FPCvtJS:
		f := s.readScalarFloat(ins.Rn, FPDouble)
		result := fparith.ConvertToIntJS(f)
		s.writeReg(ins.Rd, false, false, uint64(uint32(result)))
		truncated := math.Trunc(f)
		s.Regs.SetNZCV(false, truncated == f && !math.IsNaN(f), false, false)
	}
}

// VisitFPFixedPointConvert implements SCVTF/UCVTF/FCVTZS/FCVTZU with a
// non-zero fbits fractional-bit count.
func (s *Simulator) VisitFPFixedPointConvert(ins *Instruction, op FPConvertOp) {
	// FCVTZS/FCVTZU round toward zero whatever FPCR.RMode holds.
	fbits := int(ins.Imm)
	bits := 32
	if ins.Is64Bit {
		bits = 64
	}
	switch op {
	case FPCvtSignedToFloat:
		v := asSigned(s.readReg(ins.Rn, false, ins.Is64Bit), ins.Is64Bit)
		s.writeScalarFloat(ins.Rd, ins.FPPrecision, fparith.FixedToFloat(v, true, fbits))
	case FPCvtUnsignedToFloat:
		v := s.readReg(ins.Rn, false, ins.Is64Bit)
		s.writeScalarFloat(ins.Rd, ins.FPPrecision, fparith.FixedToFloat(int64(v), false, fbits))
	case FPCvtFloatToSigned:
		f := s.readScalarFloat(ins.Rn, ins.FPPrecision)
		s.writeReg(ins.Rd, false, ins.Is64Bit, fparith.FloatToFixed(fparith.Zero, f, fbits, bits, true))
	case FPCvtFloatToUnsigned:
		f := s.readScalarFloat(ins.Rn, ins.FPPrecision)
		s.writeReg(ins.Rd, false, ins.Is64Bit, fparith.FloatToFixed(fparith.Zero, f, fbits, bits, false))
	}
}

// --- Advanced SIMD (NEON) ---

func (s *Simulator) vectorLanes(n int, vf simdlane.VectorFormat) []uint64 {
	q := s.Regs.ReadQ(n)
	return simdlane.ExtractLanes(vf, q[:vf.Bytes()])
}

func (s *Simulator) writeVectorLanes(n int, vf simdlane.VectorFormat, lanes []uint64) {
	packed := simdlane.PackLanes(vf, lanes)
	var q [16]byte
	copy(q[:], packed)
	s.Regs.WriteQ(n, q)
}

// VisitNEON3Same implements the vector-vector "three same" kernels: ADD,
// SUB, MUL, MLA/MLS, bitwise AND/ORR/EOR, CMEQ/CMGT, rounding halving-add,
// and the scalar-signed/unsigned-agnostic FP add/sub/mul.
func (s *Simulator) VisitNEON3Same(ins *Instruction, op NEON3Op) {
	vf := ins.VectorFmt
	a := s.vectorLanes(ins.Rn, vf)
	b := s.vectorLanes(ins.Rm, vf)
	switch op {
	case NeonAdd:
		s.writeVectorLanes(ins.Rd, vf, simdlane.Add(vf, a, b, simdlane.PostNone, false))
	case NeonSub:
		s.writeVectorLanes(ins.Rd, vf, simdlane.Sub(vf, a, b, simdlane.PostNone, false))
	case NeonMul:
		s.writeVectorLanes(ins.Rd, vf, simdlane.Mul(vf, a, b, simdlane.PostNone, false))
	case NeonMla:
		d := s.vectorLanes(ins.Rd, vf)
		s.writeVectorLanes(ins.Rd, vf, simdlane.Mla(vf, d, a, b, false))
	case NeonMls:
		d := s.vectorLanes(ins.Rd, vf)
		s.writeVectorLanes(ins.Rd, vf, simdlane.Mla(vf, d, a, b, true))
	case NeonAnd:
		s.writeVectorLanes(ins.Rd, vf, bitwiseLanes(a, b, func(x, y uint64) uint64 { return x & y }))
	case NeonOrr:
		s.writeVectorLanes(ins.Rd, vf, bitwiseLanes(a, b, func(x, y uint64) uint64 { return x | y }))
	case NeonEor:
		s.writeVectorLanes(ins.Rd, vf, bitwiseLanes(a, b, func(x, y uint64) uint64 { return x ^ y }))
	case NeonCmEq:
		s.writeVectorLanes(ins.Rd, vf, simdlane.Compare(vf, a, b, simdlane.CmpEQ, true))
	case NeonCmGt:
		s.writeVectorLanes(ins.Rd, vf, simdlane.Compare(vf, a, b, simdlane.CmpGT, true))
	case NeonSrhadd:
		s.writeVectorLanes(ins.Rd, vf, simdlane.Add(vf, a, b, simdlane.PostRound|simdlane.PostHalve, true))
	case NeonUrhadd:
		s.writeVectorLanes(ins.Rd, vf, simdlane.Add(vf, a, b, simdlane.PostRound|simdlane.PostHalve, false))
	case NeonFAdd, NeonFSub, NeonFMul:
		s.neonFPBinary(ins, op)
	}
}

func bitwiseLanes(a, b []uint64, f func(x, y uint64) uint64) []uint64 {
	out := make([]uint64, len(a))
	for i := range a {
		out[i] = f(a[i], b[i])
	}
	return out
}

func neon3ToFPBinOp(op NEON3Op) simdlane.FPBinOp {
	switch op {
	case NeonFSub:
		return simdlane.FPSub
	case NeonFMul:
		return simdlane.FPMul
	default:
		return simdlane.FPAdd
	}
}

func (s *Simulator) neonFPBinary(ins *Instruction, op NEON3Op) {
	fpcr := toFPCR(s.Regs.FPCR())
	fpOp := neon3ToFPBinOp(op)
	bytesLen := ins.VectorFmt.Bytes()
	qn, qm := s.Regs.ReadQ(ins.Rn), s.Regs.ReadQ(ins.Rm)
	if ins.FPPrecision == FPDouble {
		a := simdlane.FPExtractLanesDouble(qn[:bytesLen])
		b := simdlane.FPExtractLanesDouble(qm[:bytesLen])
		out := simdlane.FPLaneDouble(fpcr, a, b, fpOp)
		var q [16]byte
		copy(q[:], simdlane.FPPackLanesDouble(out))
		s.Regs.WriteQ(ins.Rd, q)
		return
	}
	a := simdlane.FPExtractLanesSingle(qn[:bytesLen])
	b := simdlane.FPExtractLanesSingle(qm[:bytesLen])
	out := simdlane.FPLaneSingle(fpcr, a, b, fpOp)
	var q [16]byte
	copy(q[:], simdlane.FPPackLanesSingle(out))
	s.Regs.WriteQ(ins.Rd, q)
}

// VisitNEON2RegMisc implements ABS/NEG/NOT/CMEQ-vs-zero.
func (s *Simulator) VisitNEON2RegMisc(ins *Instruction, op NEON2Op) {
	vf := ins.VectorFmt
	a := s.vectorLanes(ins.Rn, vf)
	switch op {
	case Neon2Abs:
		s.writeVectorLanes(ins.Rd, vf, simdlane.Abs(vf, a))
	case Neon2Neg:
		s.writeVectorLanes(ins.Rd, vf, simdlane.Neg(vf, a))
	case Neon2Not:
		out := make([]uint64, len(a))
		for i, v := range a {
			out[i] = ^v
		}
		s.writeVectorLanes(ins.Rd, vf, out)
	case Neon2Cmeqz:
		zero := make([]uint64, len(a))
		s.writeVectorLanes(ins.Rd, vf, simdlane.Compare(vf, a, zero, simdlane.CmpEQ, true))
	}
}

// VisitNEONAcrossLanes implements ADDV/S-UMAXV/S-UMINV and SADDLV.
// NeonReduceLongAdd always sums the lanes as signed; there is no unsigned
// (UADDLV) form.
func (s *Simulator) VisitNEONAcrossLanes(ins *Instruction, op NEONReduceOp) {
	vf := ins.VectorFmt
	a := s.vectorLanes(ins.Rn, vf)
	switch op {
	case NeonReduceAdd:
		s.writeScalarInt(ins.Rd, vf.ElemBits, simdlane.Reduce(vf, a, simdlane.ReduceAdd, false))
	case NeonReduceSMax:
		s.writeScalarInt(ins.Rd, vf.ElemBits, simdlane.Reduce(vf, a, simdlane.ReduceMax, true))
	case NeonReduceUMax:
		s.writeScalarInt(ins.Rd, vf.ElemBits, simdlane.Reduce(vf, a, simdlane.ReduceMax, false))
	case NeonReduceSMin:
		s.writeScalarInt(ins.Rd, vf.ElemBits, simdlane.Reduce(vf, a, simdlane.ReduceMin, true))
	case NeonReduceUMin:
		s.writeScalarInt(ins.Rd, vf.ElemBits, simdlane.Reduce(vf, a, simdlane.ReduceMin, false))
	case NeonReduceLongAdd:
		s.writeScalarInt(ins.Rd, vf.ElemBits*2, uint64(simdlane.ReduceLongAdd(vf, a, true)))
	}
}

func (s *Simulator) writeScalarInt(n, bits int, v uint64) {
	data := make([]byte, bits/8)
	for i := range data {
		data[i] = byte(v >> uint(8*i))
	}
	s.Regs.WriteScalarLane(n, data)
}

// VisitNEONShiftImmediate implements SHL/SSHR/USHR/SRSHR/URSHR.
func (s *Simulator) VisitNEONShiftImmediate(ins *Instruction, op NEONShiftOp) {
	vf := ins.VectorFmt
	a := s.vectorLanes(ins.Rn, vf)
	amount := int(ins.ShiftAmt)
	switch op {
	case NeonShl:
		s.writeVectorLanes(ins.Rd, vf, simdlane.Shift(vf, a, simdlane.ShiftLeft, amount, simdlane.PostNone, true))
	case NeonSshr:
		s.writeVectorLanes(ins.Rd, vf, simdlane.Shift(vf, a, simdlane.ShiftRightArith, amount, simdlane.PostNone, true))
	case NeonUshr:
		s.writeVectorLanes(ins.Rd, vf, simdlane.Shift(vf, a, simdlane.ShiftRightLogical, amount, simdlane.PostNone, false))
	case NeonSrshr:
		s.writeVectorLanes(ins.Rd, vf, simdlane.RoundShiftRight(vf, a, amount, simdlane.PostNone, true))
	case NeonUrshr:
		s.writeVectorLanes(ins.Rd, vf, simdlane.RoundShiftRight(vf, a, amount, simdlane.PostNone, false))
	}
}

// VisitNEONTableLookup implements TBL/TBX over 1-4 source registers named
// via ins.Rn..ins.Rn+ins.MemSize-1 (MemSize here repurposed as the table
// register count, 1-4).
func (s *Simulator) VisitNEONTableLookup(ins *Instruction, extension bool) {
	var table []byte
	for i := 0; i < ins.MemSize; i++ {
		q := s.Regs.ReadQ((ins.Rn + i) % 32)
		table = append(table, q[:]...)
	}
	idxQ := s.Regs.ReadQ(ins.Rm)
	dstQ := s.Regs.ReadQ(ins.Rd)
	out := simdlane.TableLookup(idxQ[:], table, dstQ[:], !extension)
	var q [16]byte
	copy(q[:], out)
	s.Regs.WriteQ(ins.Rd, q)
}

// VisitNEONPermute implements ZIP1/ZIP2/UZP1/UZP2/TRN1/TRN2.
func (s *Simulator) VisitNEONPermute(ins *Instruction, op NEONPermuteOp) {
	vf := ins.VectorFmt
	a := s.vectorLanes(ins.Rn, vf)
	b := s.vectorLanes(ins.Rm, vf)
	n := vf.Lanes
	out := make([]uint64, n)
	half := n / 2
	switch op {
	case NeonZip1, NeonZip2:
		off := 0
		if op == NeonZip2 {
			off = half
		}
		for i := 0; i < half; i++ {
			out[2*i] = a[off+i]
			out[2*i+1] = b[off+i]
		}
	case NeonUzp1, NeonUzp2:
		off := 0
		if op == NeonUzp2 {
			off = 1
		}
		for i := 0; i < half; i++ {
			out[i] = a[2*i+off]
			out[half+i] = b[2*i+off]
		}
	case NeonTrn1, NeonTrn2:
		off := 0
		if op == NeonTrn2 {
			off = 1
		}
		for i := 0; i < half; i++ {
			out[2*i] = a[2*i+off]
			out[2*i+1] = b[2*i+off]
		}
	}
	s.writeVectorLanes(ins.Rd, vf, out)
}

// --- SVE ---

// predBits returns the element-indexed view of Pn that every SVE data op
// reasons about: the first sveElemCount(ins) entries of the register's
// VL/8-bit backing storage. Entries beyond that prefix belong to some other,
// narrower element width and are never meaningful to this instruction.
func (s *Simulator) predBits(ins *Instruction, n int) []bool {
	full := s.Regs.PBits(n)
	numElems := s.sveElemCount(ins)
	if numElems > len(full) {
		numElems = len(full)
	}
	return full[:numElems]
}

// setPredBits writes an element-indexed result back into Pn, zero-filling
// the rest of the VL/8-bit predicate register so bits outside the active
// element width read back as inactive rather than stale/poisoned state.
func (s *Simulator) setPredBits(n int, result []bool) {
	full := make([]bool, s.Regs.VLBits()/8)
	copy(full, result)
	s.Regs.SetPBits(n, full)
}

func (s *Simulator) sveElemCount(ins *Instruction) int {
	return sve.NumElems(s.Regs.VLBits(), sve.ElemSize(ins.ElemBits))
}

// zLanesSigned extracts ins.ElemBits-wide signed lanes from Zn's raw bytes.
func (s *Simulator) zLanesSigned(ins *Instruction, zn int) []int64 {
	vf := simdlane.VectorFormat{ElemBits: ins.ElemBits, Lanes: s.Regs.VLBits() / ins.ElemBits}
	raw := s.sveRegBytes(zn)
	lanes := simdlane.ExtractLanes(vf, raw)
	shift := uint(64 - ins.ElemBits)
	out := make([]int64, len(lanes))
	for i, v := range lanes {
		out[i] = int64(v<<shift) >> shift
	}
	return out
}

func (s *Simulator) zLanesUnsigned(ins *Instruction, zn int) []uint64 {
	vf := simdlane.VectorFormat{ElemBits: ins.ElemBits, Lanes: s.Regs.VLBits() / ins.ElemBits}
	return simdlane.ExtractLanes(vf, s.sveRegBytes(zn))
}

func (s *Simulator) writeZLanes(zd int, elemBits int, lanes []uint64) {
	vf := simdlane.VectorFormat{ElemBits: elemBits, Lanes: len(lanes)}
	packed := simdlane.PackLanes(vf, lanes)
	s.writeSVERegBytes(zd, packed)
}

// sveRegBytes/writeSVERegBytes view a Z register as vlBits/8 raw bytes.
// regs.File only stores the 128-bit Q-aliased low lane of each vector
// register, so a VL of 128 round-trips exactly; a wider VL zero-fills the
// bytes above the low 128 bits on read and silently drops them on write.
// Exercising VL > 128 end to end needs regs.File to carry a full
// vlBits/8-byte slice per register, which is a mechanical extension not
// made here.
func (s *Simulator) sveRegBytes(n int) []byte {
	q := s.Regs.ReadQ(n)
	vlBytes := s.Regs.VLBits() / 8
	out := make([]byte, vlBytes)
	copy(out, q[:])
	return out
}

func (s *Simulator) writeSVERegBytes(n int, data []byte) {
	var q [16]byte
	copy(q[:], data)
	s.Regs.WriteQ(n, q)
}

// applyMovprfxOverride lets an SVE arithmetic visitor honor a pending
// MOVPRFX latch by substituting the destructive source with Zd's prior
// contents when merging.
func (s *Simulator) applyMovprfxOverride(ins *Instruction) {
	if zd, merging, ok := s.TakeMovprfx(); ok && merging && zd == ins.Zd {
		// Merging form: Zd already holds the prefixed value; nothing further
		// to substitute here since the visitor reads Zd fresh below.
		_ = zd
	}
}

// VisitSVEIntArithmeticPredicated implements ADD/SUB/SUBR/MUL/SMAX/SMIN/
// UMAX/UMIN with merge-predication (inactive lanes keep Zd's prior value).
func (s *Simulator) VisitSVEIntArithmeticPredicated(ins *Instruction, op SVEArithOp) {
	s.applyMovprfxOverride(ins)
	g := s.predBits(ins, ins.Pg)
	a := s.zLanesSigned(ins, ins.Zn)
	b := s.zLanesSigned(ins, ins.Zm)
	dst := s.zLanesSigned(ins, ins.Zd)
	out := make([]int64, len(a))
	for i := range a {
		if !g[i] {
			out[i] = dst[i]
			continue
		}
		switch op {
		case SVEAdd:
			out[i] = a[i] + b[i]
		case SVESub:
			out[i] = a[i] - b[i]
		case SVESubr:
			out[i] = b[i] - a[i]
		case SVEMul:
			out[i] = a[i] * b[i]
		case SVESMax:
			out[i] = maxI64(a[i], b[i])
		case SVESMin:
			out[i] = minI64(a[i], b[i])
		case SVEUMax:
			out[i] = int64(maxU64(uint64(a[i]), uint64(b[i])))
		case SVEUMin:
			out[i] = int64(minU64(uint64(a[i]), uint64(b[i])))
		}
	}
	lanes := make([]uint64, len(out))
	for i, v := range out {
		lanes[i] = uint64(v)
	}
	s.writeZLanes(ins.Zd, ins.ElemBits, lanes)
}

func maxI64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
func minI64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
func maxU64(a, b uint64) uint64 {
	if a > b {
		return a
	}
	return b
}
func minU64(a, b uint64) uint64 {
	if a < b {
		return a
	}
	return b
}

// VisitSVEPredicateLogical implements AND/BIC/EOR/NAND/NOR/ORN/ORR/SEL over
// P registers, optionally updating NZCV via an implicit PTEST (setFlags,
// the "S" mnemonic suffix).
func (s *Simulator) VisitSVEPredicateLogical(ins *Instruction, op PredLogicalOp, setFlags bool) {
	g := s.predBits(ins, ins.Pg)
	a := s.predBits(ins, ins.Pn)
	b := s.predBits(ins, ins.Pm)
	var sveOp sve.LogicalOp
	switch op {
	case PredAnd:
		sveOp = sve.PAnd
	case PredBic:
		sveOp = sve.PBic
	case PredEor:
		sveOp = sve.PEor
	case PredNand:
		sveOp = sve.PNand
	case PredNor:
		sveOp = sve.PNor
	case PredOrn:
		sveOp = sve.POrn
	case PredOrr:
		sveOp = sve.POrr
	case PredSel:
		sveOp = sve.PSel
	}
	result := sve.Logical(g, a, b, sveOp)
	s.setPredBits(ins.Pn, result) // destination predicate reuses Pn's slot number carried in ins.Pn by decoder convention
	if setFlags {
		f := sve.PTest(g, result)
		s.Regs.SetNZCV(f.N, f.Z, f.C, f.V)
	}
}

// VisitSVEIntCompareVectors implements CMP<cond> Pd, Pg/Z, Zn, Zm.
func (s *Simulator) VisitSVEIntCompareVectors(ins *Instruction, op SVECompareOp) {
	g := s.predBits(ins, ins.Pg)
	a := s.zLanesSigned(ins, ins.Zn)
	b := s.zLanesSigned(ins, ins.Zm)
	ua := s.zLanesUnsigned(ins, ins.Zn)
	ub := s.zLanesUnsigned(ins, ins.Zm)
	var cv sve.CondVec
	unsigned := false
	switch op {
	case SVECmpEQ:
		cv = sve.CondEQ
	case SVECmpNE:
		cv = sve.CondNE
	case SVECmpGE:
		cv = sve.CondGE
	case SVECmpGT:
		cv = sve.CondGT
	case SVECmpLE:
		cv = sve.CondLE
	case SVECmpLT:
		cv = sve.CondLT
	case SVECmpHS:
		cv, unsigned = sve.CondHS, true
	case SVECmpHI:
		cv, unsigned = sve.CondHI, true
	case SVECmpLS:
		cv, unsigned = sve.CondLS, true
	case SVECmpLO:
		cv, unsigned = sve.CondLO, true
	}
	result := sve.CompareVectors(g, a, b, ua, ub, cv, unsigned)
	s.setPredBits(ins.Pn, result)
}

// VisitSVEWhile implements WHILELT/LE/LO/LS.
func (s *Simulator) VisitSVEWhile(ins *Instruction, op SVEWhileOp) {
	n := asSigned(s.Regs.ReadX(ins.Rn, false), true)
	m := asSigned(s.Regs.ReadX(ins.Rm, false), true)
	numElems := s.sveElemCount(ins)
	var wo sve.WhileOp
	unsigned := false
	switch op {
	case SVEWhileLT:
		wo = sve.WhileLT
	case SVEWhileLE:
		wo = sve.WhileLE
	case SVEWhileLO:
		wo, unsigned = sve.WhileLO, true
	case SVEWhileLS:
		wo, unsigned = sve.WhileLS, true
	}
	result := sve.While(wo, n, m, numElems, unsigned)
	s.setPredBits(ins.Pn, result)
	f := sve.PTest(sve.PTrue(sve.PatAll, numElems), result)
	s.Regs.SetNZCV(f.N, f.Z, f.C, f.V)
}

// VisitSVEIndexGeneration implements INDEX, immediate or register operand
// form per immForm.
func (s *Simulator) VisitSVEIndexGeneration(ins *Instruction, immForm bool) {
	start := asSigned(s.Regs.ReadX(ins.Rn, false), true)
	var step int64 = 1
	if immForm {
		step = int64(ins.Imm2)
	} else {
		step = asSigned(s.Regs.ReadX(ins.Rm, false), true)
	}
	numElems := s.sveElemCount(ins)
	lanesI := sve.Index(start, step, numElems)
	lanes := make([]uint64, len(lanesI))
	for i, v := range lanesI {
		lanes[i] = uint64(v)
	}
	s.writeZLanes(ins.Zd, ins.ElemBits, lanes)
}

// VisitSVEPTrue implements PTRUE, optionally updating NZCV (the "S" form).
func (s *Simulator) VisitSVEPTrue(ins *Instruction, setFlags bool) {
	numElems := s.sveElemCount(ins)
	pat := sve.Pattern(ins.Imm)
	result := sve.PTrue(pat, numElems)
	s.setPredBits(ins.Pn, result)
	if setFlags {
		f := sve.PTest(sve.PTrue(sve.PatAll, numElems), result)
		s.Regs.SetNZCV(f.N, f.Z, f.C, f.V)
	}
}

// VisitSVEPTest implements PTEST Pg, Pn. Like every other SVE predicate
// consumer, it reads the element-indexed prefix of Pg/Pn named by
// ins.ElemBits rather than the full VL/8-bit backing storage, so flags are
// computed over the same "active element" view the predicates were written
// with.
func (s *Simulator) VisitSVEPTest(ins *Instruction) {
	g := s.predBits(ins, ins.Pg)
	p := s.predBits(ins, ins.Pn)
	f := sve.PTest(g, p)
	s.Regs.SetNZCV(f.N, f.Z, f.C, f.V)
}

// VisitSVEIncDecByPredicateCount implements INCP/DECP and the saturating
// SQINCP/SQDECP/UQINCP/UQDECP family over a scalar GP destination.
func (s *Simulator) VisitSVEIncDecByPredicateCount(ins *Instruction, decrement, saturate, unsigned bool) {
	g := s.predBits(ins, ins.Pg)
	pred := s.predBits(ins, ins.Pn)
	count := int64(sve.ActiveCount(g, pred))
	bits := 32
	if ins.Is64Bit {
		bits = 64
	}
	dst := int64(s.readReg(ins.Rd, false, ins.Is64Bit))
	result := sve.IncDecSaturate(dst, count, decrement, !unsigned, bits, saturate)
	s.writeReg(ins.Rd, false, ins.Is64Bit, result)
}

// VisitSVEUnpack implements UNPKLO/UNPKHI (signed/unsigned widening).
func (s *Simulator) VisitSVEUnpack(ins *Instruction, high, signed bool) {
	var src []int64
	if signed {
		src = s.zLanesSigned(ins, ins.Zn)
	} else {
		raw := s.zLanesUnsigned(ins, ins.Zn)
		src = make([]int64, len(raw))
		for i, v := range raw {
			src[i] = int64(v)
		}
	}
	out := sve.Unpack(src, high)
	lanes := make([]uint64, len(out))
	for i, v := range out {
		lanes[i] = uint64(v)
	}
	s.writeZLanes(ins.Zd, ins.ElemBits*2, lanes)
}

// VisitSVEMovprfx implements MOVPRFX Zd, [Pg/{M,Z},] Zn: latches the
// one-shot predication override and copies Zn into Zd up front, covering
// both the unpredicated and predicated forms.
func (s *Simulator) VisitSVEMovprfx(ins *Instruction) {
	raw := s.sveRegBytes(ins.Zn)
	if ins.Pg == -1 { // unpredicated form copies the whole register
		s.writeSVERegBytes(ins.Zd, raw)
		s.LatchMovprfx(ins.Zd, false)
		return
	}
	g := s.predBits(ins, ins.Pg)
	dstLanes := s.zLanesUnsigned(ins, ins.Zd)
	srcLanes := s.zLanesUnsigned(ins, ins.Zn)
	out := make([]uint64, len(srcLanes))
	for i := range out {
		if g[i] {
			out[i] = srcLanes[i]
		} else {
			out[i] = dstLanes[i] // merging form; zeroing form's caller passes an all-true Pg with zeroed dst
		}
	}
	s.writeZLanes(ins.Zd, ins.ElemBits, out)
	s.LatchMovprfx(ins.Zd, true)
}
