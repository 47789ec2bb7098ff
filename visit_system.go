package a64sim

import (
	"a64sim/alu"
	"a64sim/feature"
	"a64sim/regs"
)

// featuresFromMask decodes the bit-per-feature encoding HLT kSetCPUFeatures
// reads from X0, one bit per feature.Feature ordinal.
func featuresFromMask(mask uint64) []feature.Feature {
	var fs []feature.Feature
	for f := feature.FP; f <= feature.BF16; f++ {
		if mask&(1<<uint(f)) != 0 {
			fs = append(fs, f)
		}
	}
	return fs
}

// VisitSystemRegisterMove implements MRS (isRead=true) and MSR
// (isRead=false) for the special registers the core models: NZCV, FPCR,
// and the RNDR/RNDRRS random-number sources.
func (s *Simulator) VisitSystemRegisterMove(ins *Instruction, isRead bool) {
	switch ins.SysOp {
	case SysNZCV:
		if isRead {
			nzcv := s.Regs.NZCV()
			s.Regs.WriteX(ins.Rt, false, uint64(nzcv)<<28)
		} else {
			packed := s.Regs.ReadX(ins.Rt, false)
			s.Regs.SetNZCVRaw(uint8(packed >> 28))
		}
	case SysFPCR:
		if isRead {
			s.Regs.WriteX(ins.Rt, false, encodeFPCR(s.Regs.FPCR()))
		} else {
			s.Regs.SetFPCR(decodeFPCR(s.Regs.ReadX(ins.Rt, false)))
		}
	case SysRNDR, SysRNDRRS:
		// MRS Xt, RNDR{,RS} is read-only and never fails in this
		// implementation.
		s.Regs.WriteX(ins.Rt, false, s.RNG.Draw())
		s.Regs.SetNZCV(false, false, false, false)
	}
}

func encodeFPCR(f regs.FPCRState) uint64 {
	var v uint64
	v |= uint64(f.RMode) << 22
	if f.FZ {
		v |= 1 << 24
	}
	if f.DN {
		v |= 1 << 25
	}
	if f.AHP {
		v |= 1 << 26
	}
	return v
}

func decodeFPCR(v uint64) regs.FPCRState {
	return regs.FPCRState{
		RMode: regs.RoundingMode((v >> 22) & 0x3),
		FZ:    v&(1<<24) != 0,
		DN:    v&(1<<25) != 0,
		AHP:   v&(1<<26) != 0,
	}
}

// VisitHint implements NOP/ESB/CSDB and the BTI family. BTI's own landing-
// pad compatibility check against the incoming BType happens here since
// HINT is the instruction class BTI is encoded in.
func (s *Simulator) VisitHint(ins *Instruction) {
	if ins.HintKind < HintBTI {
		return // NOP/ESB/CSDB: no architectural effect this core models
	}
	cur := s.Regs.BTypeCurrent()
	if cur == regs.Default {
		return
	}
	switch ins.HintKind {
	case HintBTI: // plain BTI accepts no indirect branch
		s.Fault(BTIViolation{PC: ins.PC})
	case HintBTIC:
		if cur == regs.BranchFromGuardedNotToIP {
			s.Fault(BTIViolation{PC: ins.PC})
		}
	case HintBTIJ:
		if cur == regs.BranchAndLink {
			s.Fault(BTIViolation{PC: ins.PC})
		}
	case HintBTIJC:
		// accepts both BranchAndLink and BranchFromGuardedNotToIP
	}
}

// VisitBarrier implements DMB/DSB/ISB. This core executes one instruction
// at a time with no pipelining or multiple observers, so every barrier is
// architecturally a no-op here; the visit still exists so the decoder has
// somewhere to route the encoding.
func (s *Simulator) VisitBarrier(ins *Instruction, kind BarrierKind) {}

// VisitClrex implements CLREX: drops the local exclusive monitor
// unconditionally.
func (s *Simulator) VisitClrex(ins *Instruction) {
	s.localMonitor.Clear()
}

// VisitException implements HLT/UDF/SVC/BRK. HLT #0 is architecturally
// reserved by this core as a host trap abort; other HLT immediates are
// treated as host-service requests (see handleHLTService) and anything
// unrecognized reports UnallocatedInstruction so a harness can extend the
// host-service convention without the core needing to know its meaning.
func (s *Simulator) VisitException(ins *Instruction, kind ExceptionKind) {
	switch kind {
	case ExcUDF:
		s.Fault(UDFInstruction{PC: ins.PC, Imm: uint16(ins.HLTCode)})
	case ExcHLT:
		if ins.HLTCode == 0 {
			s.Fault(HostTrapAbort{PC: ins.PC})
			return
		}
		s.handleHLTService(ins)
	case ExcSVC, ExcBRK:
		s.Fault(UnallocatedInstruction{PC: ins.PC, Detail: "SVC/BRK have no host service binding in this core"})
	}
}

// CPU-feature HLT service codes: this module's own convention for what
// HLT's immediate payload means when it isn't the reserved host-trap #0.
const (
	hltSetCPUFeatures     = 1
	hltSaveCPUFeatures    = 2
	hltRestoreCPUFeatures = 3
)

func (s *Simulator) handleHLTService(ins *Instruction) {
	switch ins.HLTCode {
	case hltSetCPUFeatures:
		mask := s.Regs.ReadX(0, false)
		s.Features.SetAll(featuresFromMask(mask))
	case hltSaveCPUFeatures:
		s.Features.Save()
	case hltRestoreCPUFeatures:
		s.Features.Restore()
	default:
		s.Fault(UnallocatedInstruction{PC: ins.PC, Detail: "unrecognized HLT host-service code"})
	}
}

// VisitPACInstruction implements the standalone PAC*/AUT*/XPAC* forms that
// aren't folded into a branch-register dispatch (e.g. PACDA/AUTDA on a
// value never used as a branch target).
func (s *Simulator) VisitPACInstruction(ins *Instruction, op PACOp) {
	ptr := s.Regs.ReadX(ins.Rd, false)
	switch op {
	case PacAdd:
		s.Regs.WriteX(ins.Rd, false, s.pacAddWithModifier(ins, ptr))
	case PacStrip:
		s.Regs.WriteX(ins.Rd, false, alu.PACStrip(ptr))
	case PacAuth:
		s.Regs.WriteX(ins.Rd, false, s.pacAuthWithModifier(ins, ptr))
	}
}
