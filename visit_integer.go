package a64sim

import (
	"a64sim/alu"
	"a64sim/regs"
)

func regSize(is64 bool) alu.RegSize {
	if is64 {
		return alu.Size64
	}
	return alu.Size32
}

func (s *Simulator) setFlags(f alu.Flags) {
	s.Regs.SetNZCV(f.N, f.Z, f.C, f.V)
	s.Trace.Flags(f.N, f.Z, f.C, f.V)
}

// secondOperandShifted resolves the Rm-shifted-by-amount operand shared by
// AddSubShifted and LogicalShifted.
func (s *Simulator) secondOperandShifted(ins *Instruction) uint64 {
	rm := s.readReg(ins.Rm, false, ins.Is64Bit)
	var kind alu.ShiftType
	switch ins.ShiftType {
	case ShiftLSL:
		kind = alu.LSL
	case ShiftLSR:
		kind = alu.LSR
	case ShiftASR:
		kind = alu.ASR
	case ShiftROR:
		kind = alu.ROR
	}
	return alu.Shift(regSize(ins.Is64Bit), rm, kind, ins.ShiftAmt)
}

func (s *Simulator) secondOperandExtended(ins *Instruction) uint64 {
	rm := s.Regs.ReadX(ins.Rm, false)
	var kind alu.ExtendType
	switch ins.ExtendType {
	case ExtUXTB:
		kind = alu.UXTB
	case ExtUXTH:
		kind = alu.UXTH
	case ExtUXTW:
		kind = alu.UXTW
	case ExtUXTX:
		kind = alu.UXTX
	case ExtSXTB:
		kind = alu.SXTB
	case ExtSXTH:
		kind = alu.SXTH
	case ExtSXTW:
		kind = alu.SXTW
	case ExtSXTX:
		kind = alu.SXTX
	}
	return alu.Extend(regSize(ins.Is64Bit), rm, kind, ins.ShiftAmt)
}

// VisitAddSubShifted implements ADD/ADDS/SUB/SUBS with a shifted-register
// second operand. ins.SetFlags selects the S mnemonic, and ins.Imm2 is a
// 0/1 "isSub" flag (0 => add, 1 => sub).
func (s *Simulator) VisitAddSubShifted(ins *Instruction) {
	s.addSub(ins, s.secondOperandShifted(ins))
}

// VisitAddSubExtended implements the extended-register form, used whenever
// either operand is SP.
func (s *Simulator) VisitAddSubExtended(ins *Instruction) {
	s.addSub(ins, s.secondOperandExtended(ins))
}

// VisitAddSubImmediate implements the 12-bit (optionally LSL#12) immediate
// form.
func (s *Simulator) VisitAddSubImmediate(ins *Instruction) {
	imm := ins.Imm << ins.ShiftAmt
	s.addSub(ins, imm)
}

func (s *Simulator) addSub(ins *Instruction, operand uint64) {
	useSP := !ins.SetFlags // non-flag-setting ADD/SUB may target/read SP
	left := s.readReg(ins.Rn, useSP, ins.Is64Bit)
	var result uint64
	var flags alu.Flags
	if ins.Imm2 == 1 {
		result, flags = alu.Sub(regSize(ins.Is64Bit), left, operand)
	} else {
		result, flags = alu.AddWithCarry(regSize(ins.Is64Bit), left, operand, 0)
	}
	if ins.SetFlags {
		s.setFlags(flags)
		s.writeReg(ins.Rd, false, ins.Is64Bit, result)
	} else {
		s.writeReg(ins.Rd, true, ins.Is64Bit, result)
	}
}

// VisitAddSubCarry implements ADC/ADCS/SBC/SBCS: the second operand is a
// plain register (no shift), and the incoming carry feeds AddWithCarry so
// multi-word additions chain correctly across instructions.
func (s *Simulator) VisitAddSubCarry(ins *Instruction) {
	left := s.readReg(ins.Rn, false, ins.Is64Bit)
	right := s.readReg(ins.Rm, false, ins.Is64Bit)
	carryIn := uint64(0)
	if s.Regs.FlagC() {
		carryIn = 1
	}
	var result uint64
	var flags alu.Flags
	if ins.Imm2 == 1 { // SBC/SBCS: invert right, carry already holds !borrow
		result, flags = alu.AddWithCarry(regSize(ins.Is64Bit), left, ^right, carryIn)
	} else {
		result, flags = alu.AddWithCarry(regSize(ins.Is64Bit), left, right, carryIn)
	}
	if ins.SetFlags {
		s.setFlags(flags)
	}
	s.writeReg(ins.Rd, false, ins.Is64Bit, result)
}

// VisitLogicalShifted implements AND/ORR/EOR/ANDS/BIC/ORN/EON, all of which
// share a shifted-register second operand.
func (s *Simulator) VisitLogicalShifted(ins *Instruction, op LogicalOp) {
	right := s.secondOperandShifted(ins)
	s.logical(ins, op, right)
}

// VisitLogicalImmediate implements the bitmask-immediate forms of
// AND/ORR/EOR/ANDS. The decoder is responsible for expanding the bitmask
// encoding into ins.Imm before calling this method.
func (s *Simulator) VisitLogicalImmediate(ins *Instruction, op LogicalOp) {
	s.logical(ins, op, ins.Imm)
}

func (s *Simulator) logical(ins *Instruction, op LogicalOp, right uint64) {
	left := s.readReg(ins.Rn, false, ins.Is64Bit)
	if op == LogBic || op == LogOrn || op == LogEon {
		right = ^right & mask64(ins.Is64Bit)
	}
	var result uint64
	switch op {
	case LogAnd, LogAnds, LogBic:
		result = left & right
	case LogOrr, LogOrn:
		result = left | right
	case LogEor, LogEon:
		result = left ^ right
	}
	result &= mask64(ins.Is64Bit)
	if op == LogAnds {
		s.setFlags(alu.Flags{
			N: result&signBit64(ins.Is64Bit) != 0,
			Z: result == 0,
			C: false,
			V: false,
		})
		s.writeReg(ins.Rd, false, ins.Is64Bit, result)
		return
	}
	s.writeReg(ins.Rd, true, ins.Is64Bit, result)
}

func mask64(is64 bool) uint64 {
	if is64 {
		return ^uint64(0)
	}
	return 0xFFFFFFFF
}

func signBit64(is64 bool) uint64 {
	if is64 {
		return 0x8000000000000000
	}
	return 0x80000000
}

// VisitMoveWideImmediate implements MOVN/MOVZ/MOVK.
func (s *Simulator) VisitMoveWideImmediate(ins *Instruction, op MoveWideOp) {
	shifted := ins.Imm << ins.ShiftAmt
	switch op {
	case MoveZ:
		s.writeReg(ins.Rd, false, ins.Is64Bit, shifted)
	case MoveN:
		s.writeReg(ins.Rd, false, ins.Is64Bit, ^shifted&mask64(ins.Is64Bit))
	case MoveK:
		cur := s.readReg(ins.Rd, false, ins.Is64Bit)
		keepMask := ^(uint64(0xFFFF) << ins.ShiftAmt)
		s.writeReg(ins.Rd, false, ins.Is64Bit, (cur&keepMask)|shifted)
	}
}

// VisitConditionalCompare implements CCMP/CCMN, register or immediate form
// per useImm.
func (s *Simulator) VisitConditionalCompare(ins *Instruction, useImm bool) {
	if !evalCond(s.Regs, ins.Cond) {
		s.Regs.SetNZCVRaw(uint8(ins.Imm2))
		return
	}
	left := s.readReg(ins.Rn, false, ins.Is64Bit)
	var right uint64
	if useImm {
		right = ins.Imm
	} else {
		right = s.readReg(ins.Rm, false, ins.Is64Bit)
	}
	var flags alu.Flags
	if ins.ShiftAmt == 1 { // caller encodes CCMN via ShiftAmt==1 (negate)
		_, flags = alu.AddWithCarry(regSize(ins.Is64Bit), left, right, 0)
	} else {
		_, flags = alu.Sub(regSize(ins.Is64Bit), left, right)
	}
	s.setFlags(flags)
}

// VisitConditionalSelect implements CSEL/CSINC/CSINV/CSNEG.
func (s *Simulator) VisitConditionalSelect(ins *Instruction, op CondSelectOp) {
	if evalCond(s.Regs, ins.Cond) {
		s.writeReg(ins.Rd, false, ins.Is64Bit, s.readReg(ins.Rn, false, ins.Is64Bit))
		return
	}
	rm := s.readReg(ins.Rm, false, ins.Is64Bit)
	var result uint64
	switch op {
	case CSel:
		result = rm
	case CSInc:
		result = (rm + 1) & mask64(ins.Is64Bit)
	case CSInv:
		result = ^rm & mask64(ins.Is64Bit)
	case CSNeg:
		result = (^rm + 1) & mask64(ins.Is64Bit)
	}
	s.writeReg(ins.Rd, false, ins.Is64Bit, result)
}

// VisitBitfield implements SBFM/BFM/UBFM; ins.Imm is immr, ins.Imm2 is imms.
func (s *Simulator) VisitBitfield(ins *Instruction, op BitfieldOp) {
	dst := s.readReg(ins.Rd, false, ins.Is64Bit)
	src := s.readReg(ins.Rn, false, ins.Is64Bit)
	signed := op == BfmSigned
	inzero := op != BfmMerge
	result := alu.Bitfield(regSize(ins.Is64Bit), dst, src, uint(ins.Imm), uint(ins.Imm2), signed, inzero)
	s.writeReg(ins.Rd, false, ins.Is64Bit, result)
}

// VisitExtractRegister implements EXTR: a right rotate of the 2*width
// concatenation {Rn:Rm}.
func (s *Simulator) VisitExtractRegister(ins *Instruction) {
	width := uint(32)
	if ins.Is64Bit {
		width = 64
	}
	hi := s.readReg(ins.Rn, false, ins.Is64Bit)
	lo := s.readReg(ins.Rm, false, ins.Is64Bit)
	lsb := uint(ins.Imm)
	var result uint64
	if lsb == 0 {
		result = lo
	} else {
		result = (lo >> lsb) | (hi << (width - lsb))
	}
	s.writeReg(ins.Rd, false, ins.Is64Bit, result&mask64(ins.Is64Bit))
}

// VisitDataProcessing1Source implements RBIT/REV16/REV32/REV/CLZ/CLS and
// the PAC strip/add/auth/GA single-operand forms.
func (s *Simulator) VisitDataProcessing1Source(ins *Instruction, op DP1Op) {
	src := s.readReg(ins.Rn, false, ins.Is64Bit)
	var result uint64
	switch op {
	case DP1Rbit:
		result = alu.ReverseBits(regSize(ins.Is64Bit), src)
	case DP1Rev16:
		result = alu.Rev16(regSize(ins.Is64Bit), src)
	case DP1Rev32:
		result = alu.Rev32(src)
	case DP1Rev:
		result = alu.ReverseBytes(regSize(ins.Is64Bit), src)
	case DP1Clz:
		result = uint64(alu.CLZ(regSize(ins.Is64Bit), src))
	case DP1Cls:
		result = uint64(alu.CLS(regSize(ins.Is64Bit), src))
	case DP1PacStrip:
		result = alu.PACStrip(src)
	case DP1PacAdd:
		result = s.pacAddWithModifier(ins, src)
	case DP1PacAuth:
		result = s.pacAuthWithModifier(ins, src)
	case DP1PacGA:
		result = alu.PACGA(src, s.Regs.ReadX(ins.Rm, false))
	}
	s.writeReg(ins.Rd, false, ins.Is64Bit, result)
}

func (s *Simulator) pacKey(ins *Instruction) alu.PACKey {
	switch {
	case ins.PACKeyIsB && ins.PACUseSP:
		return alu.KeyDB
	case !ins.PACKeyIsB && ins.PACUseSP:
		return alu.KeyDA
	case ins.PACKeyIsB:
		return alu.KeyIB
	default:
		return alu.KeyIA
	}
}

func (s *Simulator) pacAddWithModifier(ins *Instruction, ptr uint64) uint64 {
	modifier := s.Regs.ReadX(ins.Rm, true)
	return alu.PACAdd(ptr, modifier, s.pacKey(ins))
}

func (s *Simulator) pacAuthWithModifier(ins *Instruction, ptr uint64) uint64 {
	modifier := s.Regs.ReadX(ins.Rm, true)
	result, ok := alu.PACAuth(ptr, modifier, s.pacKey(ins))
	if !ok {
		s.Fault(AuthenticationFailure{Ptr: ptr})
	}
	return result
}

// VisitDataProcessing2Source implements UDIV/SDIV/LSLV/LSRV/ASRV/RORV and
// CRC32/CRC32C.
func (s *Simulator) VisitDataProcessing2Source(ins *Instruction, op DP2Op) {
	left := s.readReg(ins.Rn, false, ins.Is64Bit)
	right := s.readReg(ins.Rm, false, ins.Is64Bit)
	var result uint64
	switch op {
	case DP2Udiv:
		if right == 0 {
			result = 0
		} else {
			result = (left / right) & mask64(ins.Is64Bit)
		}
	case DP2Sdiv:
		sl, sr := asSigned(left, ins.Is64Bit), asSigned(right, ins.Is64Bit)
		if sr == 0 {
			result = 0
		} else if sl == minSigned(ins.Is64Bit) && sr == -1 {
			result = uint64(sl) & mask64(ins.Is64Bit) // architected overflow wraps
		} else {
			result = uint64(sl/sr) & mask64(ins.Is64Bit)
		}
	case DP2Lslv:
		result = alu.Shift(regSize(ins.Is64Bit), left, alu.LSL, uint(right)%regWidth(ins.Is64Bit))
	case DP2Lsrv:
		result = alu.Shift(regSize(ins.Is64Bit), left, alu.LSR, uint(right)%regWidth(ins.Is64Bit))
	case DP2Asrv:
		result = alu.Shift(regSize(ins.Is64Bit), left, alu.ASR, uint(right)%regWidth(ins.Is64Bit))
	case DP2Rorv:
		result = alu.Shift(regSize(ins.Is64Bit), left, alu.ROR, uint(right)%regWidth(ins.Is64Bit))
	case DP2Crc32:
		result = uint64(alu.CRC32Step(uint32(left), right, int(ins.MemSize*8), alu.PolyCRC32))
	case DP2Crc32C:
		result = uint64(alu.CRC32Step(uint32(left), right, int(ins.MemSize*8), alu.PolyCRC32C))
	}
	s.writeReg(ins.Rd, false, ins.Is64Bit, result)
}

func regWidth(is64 bool) uint {
	if is64 {
		return 64
	}
	return 32
}

func asSigned(v uint64, is64 bool) int64 {
	if is64 {
		return int64(v)
	}
	return int64(int32(uint32(v)))
}

func minSigned(is64 bool) int64 {
	if is64 {
		return -1 << 63
	}
	return -1 << 31
}

// VisitDataProcessing3Source implements MADD/MSUB and the signed/unsigned
// widening multiply-add/high forms.
func (s *Simulator) VisitDataProcessing3Source(ins *Instruction, op DP3Op) {
	rn := s.readReg(ins.Rn, false, ins.Is64Bit)
	rm := s.readReg(ins.Rm, false, ins.Is64Bit)
	ra := s.readReg(ins.Ra, false, ins.Is64Bit)
	var result uint64
	switch op {
	case DP3Madd:
		result = (ra + rn*rm) & mask64(ins.Is64Bit)
	case DP3Msub:
		result = (ra - rn*rm) & mask64(ins.Is64Bit)
	case DP3SMAddL:
		result = uint64(int64(ra) + int64(int32(rn))*int64(int32(rm)))
	case DP3SMSubL:
		result = uint64(int64(ra) - int64(int32(rn))*int64(int32(rm)))
	case DP3UMAddL:
		result = ra + uint64(uint32(rn))*uint64(uint32(rm))
	case DP3UMSubL:
		result = ra - uint64(uint32(rn))*uint64(uint32(rm))
	case DP3SMulH:
		result = mulHigh64(int64(rn), int64(rm), true)
	case DP3UMulH:
		result = mulHigh64(int64(rn), int64(rm), false)
	}
	s.writeReg(ins.Rd, false, ins.Is64Bit, result)
}

// mulHigh64 returns the high 64 bits of a 64x64 multiply.
func mulHigh64(a, b int64, signed bool) uint64 {
	if signed {
		hi, _ := bitsMulS64(a, b)
		return hi
	}
	hi, _ := bitsMul64(uint64(a), uint64(b))
	return hi
}

func bitsMul64(a, b uint64) (hi, lo uint64) {
	const mask32 = 0xFFFFFFFF
	aLo, aHi := a&mask32, a>>32
	bLo, bHi := b&mask32, b>>32
	t := aLo * bLo
	w0 := t & mask32
	k := t >> 32
	t = aHi*bLo + k
	w1 := t & mask32
	w2 := t >> 32
	t = aLo*bHi + w1
	k = t >> 32
	lo = (t << 32) | w0
	hi = aHi*bHi + w2 + k
	return hi, lo
}

func bitsMulS64(a, b int64) (hi, lo uint64) {
	hi, lo = bitsMul64(uint64(a), uint64(b))
	if a < 0 {
		hi -= uint64(b)
	}
	if b < 0 {
		hi -= uint64(a)
	}
	return hi, lo
}

// VisitPCRelAddressing implements ADR (page=false) and ADRP (page=true).
func (s *Simulator) VisitPCRelAddressing(ins *Instruction, page bool) {
	base := ins.PC
	if page {
		base &^= 0xFFF
		s.writeReg(ins.Rd, false, true, base+uint64(ins.BranchOffset)*4096)
		return
	}
	s.writeReg(ins.Rd, false, true, uint64(int64(base)+ins.BranchOffset))
}

// VisitUnconditionalBranchImmediate implements B and BL.
func (s *Simulator) VisitUnconditionalBranchImmediate(ins *Instruction, link bool) {
	if link {
		s.Regs.WriteX(30, false, ins.PC+4)
	}
	s.Regs.SetBTypeNext(regs.Default)
	s.TakeBranch(uint64(int64(ins.PC) + ins.BranchOffset))
}

// VisitConditionalBranch implements B.cond.
func (s *Simulator) VisitConditionalBranch(ins *Instruction) {
	if !evalCond(s.Regs, ins.Cond) {
		return
	}
	s.Regs.SetBTypeNext(regs.Default)
	s.TakeBranch(uint64(int64(ins.PC) + ins.BranchOffset))
}

// VisitCompareBranch implements CBZ/CBNZ.
func (s *Simulator) VisitCompareBranch(ins *Instruction, isZero bool) {
	v := s.readReg(ins.Rn, false, ins.Is64Bit)
	if (v == 0) != isZero {
		return
	}
	s.Regs.SetBTypeNext(regs.Default)
	s.TakeBranch(uint64(int64(ins.PC) + ins.BranchOffset))
}

// VisitTestBranch implements TBZ/TBNZ.
func (s *Simulator) VisitTestBranch(ins *Instruction, bitSet bool) {
	v := s.readReg(ins.Rn, false, ins.Is64Bit)
	bit := v&(uint64(1)<<ins.ShiftAmt) != 0
	if bit != bitSet {
		return
	}
	s.Regs.SetBTypeNext(regs.Default)
	s.TakeBranch(uint64(int64(ins.PC) + ins.BranchOffset))
}

// VisitBranchRegister implements BR/BLR/RET and their PAC-authenticated
// BRAA/BLRAA/RETAA siblings. On an authentication failure
// pacAuthWithModifier reports AuthenticationFailure through Fault, so Run
// stops with that error after this instruction and the poisoned target
// returned by alu.PACAuth is never fetched.
func (s *Simulator) VisitBranchRegister(ins *Instruction, kind BranchRegKind) {
	target := s.Regs.ReadX(ins.Rn, false)
	switch kind {
	case BraaBrab, BlraaBlrab:
		target = s.pacAuthWithModifier(ins, target)
	case Retaa:
		target = s.pacAuthWithModifier(ins, s.Regs.LR())
	}
	if kind == RetPlain {
		target = s.Regs.LR()
	}
	if kind == BlrPlain || kind == BlraaBlrab {
		s.Regs.WriteX(30, false, ins.PC+4)
	}
	nextBT := regs.BranchFromUnguardedOrToIP
	if kind == RetPlain || kind == Retaa {
		nextBT = regs.Default
	}
	s.Regs.SetBTypeNext(nextBT)
	s.TakeBranch(target)
}
