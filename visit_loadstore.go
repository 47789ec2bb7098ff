package a64sim

import (
	"a64sim/membank"
	"a64sim/sve"
)

// effectiveAddress resolves the base+offset/pre/post addressing modes
// shared by every scalar load/store visitor, writing back the updated base
// register for the pre/post-index forms.
func (s *Simulator) effectiveAddress(ins *Instruction) uint64 {
	base := s.Regs.ReadX(ins.Rn, true)
	switch ins.AddrMode {
	case AddrPreIndex:
		addr := base + uint64(int64(ins.Imm))
		s.Regs.WriteX(ins.Rn, true, addr)
		return addr
	case AddrPostIndex:
		s.Regs.WriteX(ins.Rn, true, base+uint64(int64(ins.Imm)))
		return base
	default: // AddrOffset (and register-offset forms, folded into ins.Imm by decoder)
		return base + uint64(int64(ins.Imm))
	}
}

func (s *Simulator) checkAlignment(addr uint64, size int) error {
	if addr%uint64(size) != 0 {
		return AlignmentFault{Addr: addr, Reason: "unaligned exclusive/atomic access"}
	}
	return nil
}

func readMemSized(m *membank.Memory, addr uint64, size int, signed bool) uint64 {
	switch size {
	case 1:
		v := membank.Read[uint8](m, addr)
		if signed {
			return uint64(int64(int8(v)))
		}
		return uint64(v)
	case 2:
		v := membank.Read[uint16](m, addr)
		if signed {
			return uint64(int64(int16(v)))
		}
		return uint64(v)
	case 4:
		v := membank.Read[uint32](m, addr)
		if signed {
			return uint64(int64(int32(v)))
		}
		return uint64(v)
	default:
		return membank.Read[uint64](m, addr)
	}
}

func writeMemSized(m *membank.Memory, addr uint64, size int, v uint64) {
	switch size {
	case 1:
		membank.Write(m, addr, uint8(v))
	case 2:
		membank.Write(m, addr, uint16(v))
	case 4:
		membank.Write(m, addr, uint32(v))
	default:
		membank.Write(m, addr, v)
	}
}

func (s *Simulator) doLoad(ins *Instruction, addr uint64) {
	v := readMemSized(s.Mem, addr, ins.MemSize, ins.SignExt)
	s.Trace.MemAccess(false, addr, ins.MemSize, v)
	is64 := ins.Is64Bit || ins.MemSize == 8
	s.writeReg(ins.Rt, false, is64, v)
}

func (s *Simulator) doStore(ins *Instruction, addr uint64) {
	is64 := ins.Is64Bit || ins.MemSize == 8
	v := s.readReg(ins.Rt, false, is64)
	writeMemSized(s.Mem, addr, ins.MemSize, v)
	s.Trace.MemAccess(true, addr, ins.MemSize, v)
	s.localMonitor.MaybeClear()
	s.globalMonitor.MaybeClear()
}

// VisitLoadStoreUnsignedImmediate implements LDR/STR/LDRB/STRB/LDRH/STRH
// (and the sign-extending LDRSB/LDRSH/LDRSW) with the scaled unsigned
// 12-bit immediate addressing mode.
func (s *Simulator) VisitLoadStoreUnsignedImmediate(ins *Instruction) {
	addr := s.effectiveAddress(ins)
	s.dispatchLoadStore(ins, addr)
}

// VisitLoadStoreRegisterOffset implements the register-offset (optionally
// extended/shifted) addressing mode.
func (s *Simulator) VisitLoadStoreRegisterOffset(ins *Instruction) {
	base := s.Regs.ReadX(ins.Rn, true)
	offset := s.secondOperandExtended(ins)
	s.dispatchLoadStore(ins, base+offset)
}

// VisitLoadStoreIndexed implements the pre/post-indexed 9-bit signed
// immediate addressing mode.
func (s *Simulator) VisitLoadStoreIndexed(ins *Instruction) {
	addr := s.effectiveAddress(ins)
	s.dispatchLoadStore(ins, addr)
}

func (s *Simulator) dispatchLoadStore(ins *Instruction, addr uint64) {
	if ins.IsVectorReg && ins.MemSize == 16 {
		// Q-sized (128-bit) vector load/store, addressed like the scalar
		// forms but moving a full quad.
		if ins.Acquire {
			q := s.Mem.ReadQuad(addr)
			s.Regs.WriteQ(ins.Rt, q)
		} else {
			s.Mem.WriteQuad(addr, s.Regs.ReadQ(ins.Rt))
			s.localMonitor.MaybeClear()
			s.globalMonitor.MaybeClear()
		}
		return
	}
	if ins.Acquire {
		s.doLoad(ins, addr)
		return
	}
	s.doStore(ins, addr)
}

// VisitLoadStorePair implements LDP/STP in offset/pre/post-index form.
func (s *Simulator) VisitLoadStorePair(ins *Instruction) {
	addr := s.effectiveAddress(ins)
	stride := uint64(ins.MemSize)
	if ins.Acquire {
		v1 := readMemSized(s.Mem, addr, ins.MemSize, ins.SignExt)
		v2 := readMemSized(s.Mem, addr+stride, ins.MemSize, ins.SignExt)
		is64 := ins.Is64Bit || ins.MemSize == 8
		s.writeReg(ins.Rt, false, is64, v1)
		s.writeReg(ins.Rt2, false, is64, v2)
		return
	}
	is64 := ins.Is64Bit || ins.MemSize == 8
	writeMemSized(s.Mem, addr, ins.MemSize, s.readReg(ins.Rt, false, is64))
	writeMemSized(s.Mem, addr+stride, ins.MemSize, s.readReg(ins.Rt2, false, is64))
	s.localMonitor.MaybeClear()
	s.globalMonitor.MaybeClear()
}

// VisitLoadLiteral implements LDR (literal): a PC-relative load, never
// writeback, no sign-extension variants beyond what ins.SignExt already
// encodes.
func (s *Simulator) VisitLoadLiteral(ins *Instruction) {
	addr := uint64(int64(ins.PC) + ins.BranchOffset)
	s.doLoad(ins, addr)
}

// VisitLoadStoreExclusive implements LDXR/STXR/LDAXR/STLXR, backed by the
// local/global exclusive monitors. It moves a single register: Rt2 is not
// read, so the pair forms (LDXP/STXP) are not modelled.
func (s *Simulator) VisitLoadStoreExclusive(ins *Instruction) {
	addr := s.Regs.ReadX(ins.Rn, true)
	if err := s.checkAlignment(addr, ins.MemSize); err != nil {
		s.Fault(err)
		return
	}
	if !ins.Release { // load-exclusive
		v := readMemSized(s.Mem, addr, ins.MemSize, false)
		is64 := ins.Is64Bit || ins.MemSize == 8
		s.writeReg(ins.Rt, false, is64, v)
		s.localMonitor.Mark(addr, uint64(ins.MemSize))
		s.globalMonitor.Mark(addr, uint64(ins.MemSize))
		return
	}
	// store-exclusive: Rs receives the 0 (success) / 1 (failure) status.
	if !s.localMonitor.IsExclusive(addr, uint64(ins.MemSize)) || !s.globalMonitor.IsExclusive(addr, uint64(ins.MemSize)) {
		s.Regs.WriteW(ins.Rs, false, 1)
		return
	}
	is64 := ins.Is64Bit || ins.MemSize == 8
	writeMemSized(s.Mem, addr, ins.MemSize, s.readReg(ins.Rt, false, is64))
	s.localMonitor.Clear()
	s.globalMonitor.Clear()
	s.Regs.WriteW(ins.Rs, false, 0)
}

// VisitLoadStoreAcquireRelease implements LDAR/STLR/LDAPR/STLUR: no
// exclusive monitor interaction, just the acquire/release ordering
// annotation. This single-threaded core has no reordering to prevent, so
// the ordering itself is a no-op beyond documenting intent.
func (s *Simulator) VisitLoadStoreAcquireRelease(ins *Instruction) {
	addr := s.Regs.ReadX(ins.Rn, true)
	if ins.Acquire {
		s.doLoad(ins, addr)
		return
	}
	s.doStore(ins, addr)
}

// VisitAtomicMemory implements the LSE LDADD/LDCLR/LDEOR/LDSET/LDSMAX/
// LDSMIN/LDUMAX/LDUMIN/SWP/CAS family: read-modify-write at addr, returning
// the pre-modification value in Rt (load-and-op semantics). Rs contributes
// the operand for the load-and-op forms; CAS instead uses Rs as the
// comparand/destination and Rt as the new value, per its own encoding.
func (s *Simulator) VisitAtomicMemory(ins *Instruction) {
	addr := s.Regs.ReadX(ins.Rn, true)
	is64 := ins.Is64Bit || ins.MemSize == 8
	old := readMemSized(s.Mem, addr, ins.MemSize, false)

	if ins.AtomicOp == AtomicCAS {
		expected := s.readReg(ins.Rs, false, is64)
		result := old
		if old == expected {
			result = s.readReg(ins.Rt, false, is64)
		}
		writeMemSized(s.Mem, addr, ins.MemSize, result)
		s.localMonitor.MaybeClear()
		s.globalMonitor.MaybeClear()
		s.writeReg(ins.Rs, false, is64, old)
		return
	}

	operand := s.readReg(ins.Rs, false, is64)
	var result uint64
	switch ins.AtomicOp {
	case AtomicAdd:
		result = (old + operand) & mask64(is64)
	case AtomicClr:
		result = old &^ operand
	case AtomicEor:
		result = old ^ operand
	case AtomicSet:
		result = old | operand
	case AtomicSMax:
		result = uint64(maxI64(asSigned(old, is64), asSigned(operand, is64)))
	case AtomicSMin:
		result = uint64(minI64(asSigned(old, is64), asSigned(operand, is64)))
	case AtomicUMax:
		result = maxU64(old, operand)
	case AtomicUMin:
		result = minU64(old, operand)
	case AtomicSwap:
		result = operand
	}
	writeMemSized(s.Mem, addr, ins.MemSize, result)
	s.localMonitor.MaybeClear()
	s.globalMonitor.MaybeClear()
	s.writeReg(ins.Rt, false, is64, old)
}

// VisitSVELoadStoreVector implements the whole-register contiguous LDR/STR
// Zt form: transferred byte-by-byte so the result stays endian-neutral.
func (s *Simulator) VisitSVELoadStoreVector(ins *Instruction, isStore bool) {
	base := s.Regs.ReadX(ins.Rn, true)
	addr := uint64(int64(base) + ins.BranchOffset*int64(s.Regs.VLBits()/8))
	vlBits := s.Regs.VLBits()
	if isStore {
		data := s.sveRegBytes(ins.Zd)
		sve.StoreZ(func(a uint64, v byte) { membank.Write(s.Mem, a, v) }, addr, data)
		return
	}
	data := sve.LoadZ(vlBits, func(a uint64) byte { return membank.Read[uint8](s.Mem, a) }, addr)
	s.writeSVERegBytes(ins.Zd, data)
}

// VisitSVELoadStorePredicate implements the whole-register LDR/STR Pt form.
func (s *Simulator) VisitSVELoadStorePredicate(ins *Instruction, isStore bool) {
	base := s.Regs.ReadX(ins.Rn, true)
	addr := uint64(int64(base) + ins.BranchOffset*int64(s.Regs.VLBits()/8/8))
	vlBits := s.Regs.VLBits()
	if isStore {
		bits := s.Regs.PBits(ins.Pn)
		sve.StoreP(func(a uint64, v byte) { membank.Write(s.Mem, a, v) }, addr, bits)
		return
	}
	bits := sve.LoadP(vlBits, func(a uint64) byte { return membank.Read[uint8](s.Mem, a) }, addr)
	s.Regs.SetPBits(ins.Pn, bits)
}
