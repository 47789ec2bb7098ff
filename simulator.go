package a64sim

import (
	"a64sim/feature"
	"a64sim/membank"
	"a64sim/regs"
	"a64sim/rndr"
	"a64sim/trace"
)

// Decoder is the external collaborator that turns a raw 32-bit instruction
// word into calls against a Visitor. It is never implemented inside this
// module; a test harness supplies a stub, a real build links an actual A64
// decoder.
type Decoder interface {
	Decode(word uint32, pc uint64, v Visitor) error
}

// Sampler is an optional per-instruction callback a harness can install for
// profiling or coverage collection.
type Sampler func(pc uint64, word uint32)

// Simulator is the complete execution core for one simulated thread of
// execution: a register file, a memory image, the local/global exclusive
// monitors, the feature/trace/RNG ambient services, and the PC-update
// bookkeeping a Visitor implementation needs to report control flow back
// to the driver loop. It implements Visitor itself; Run() drives decode and
// dispatch exactly once per executed instruction.
type Simulator struct {
	Regs    *regs.File
	Mem     *membank.Memory
	Features *feature.Set
	Trace   *trace.Sink
	RNG     *rndr.Generator
	Decoder Decoder
	Sample  Sampler

	localMonitor  membank.Monitor
	globalMonitor membank.Monitor

	branchTaken bool
	nextPC      uint64

	// movprfx latches one destructive-merging predication override good for
	// exactly the immediately following instruction.
	movprfxActive bool
	movprfxZd     int
	movprfxMerge  bool

	halted    bool
	haltErr   error
}

// NewSimulator wires a register file sized to vlBits, a memory image, and
// the ambient services into a ready-to-run Simulator. The caller supplies
// the Decoder; Simulator never constructs one itself.
func NewSimulator(vlBits int, mem *membank.Memory, decoder Decoder) *Simulator {
	return &Simulator{
		Regs:     regs.NewFile(vlBits),
		Mem:      mem,
		Features: feature.NewSet(),
		RNG:      rndr.NewGenerator(0xCAFE, 0xBABE, 0xF00D),
		Decoder:  decoder,
	}
}

// TakeBranch records that the current instruction redirected control flow
// to target instead of falling through to PC+4, and that its BType should
// be whatever the branch visitor already wrote via Regs.SetBTypeNext.
func (s *Simulator) TakeBranch(target uint64) {
	s.branchTaken = true
	s.nextPC = target
	if s.Trace.Enabled(trace.BRANCH) {
		s.Trace.Branch(s.Regs.PC(), target)
	}
}

// Fault aborts the current Run loop with err, reported back to the caller
// of Run once the current instruction finishes dispatching.
func (s *Simulator) Fault(err error) {
	s.halted = true
	s.haltErr = err
}

// LatchMovprfx records a MOVPRFX predication override to apply to the next
// instruction only; visitors that honor movprfx call TakeMovprfx at entry
// and must consume (clear) it regardless of whether they apply it.
func (s *Simulator) LatchMovprfx(zd int, merging bool) {
	s.movprfxActive = true
	s.movprfxZd = zd
	s.movprfxMerge = merging
}

// TakeMovprfx returns and clears any pending movprfx latch. ok is false if
// no MOVPRFX preceded this instruction.
func (s *Simulator) TakeMovprfx() (zd int, merging, ok bool) {
	if !s.movprfxActive {
		return 0, false, false
	}
	zd, merging = s.movprfxZd, s.movprfxMerge
	s.movprfxActive = false
	return zd, merging, true
}

// Run executes instructions until the PC reaches regs.EndOfSim (the
// power-on LR sentinel a RET to an un-returned-from call chain lands on)
// or a visitor calls Fault. It returns the fault error, or nil on a clean
// EndOfSim exit; the first fault a visitor reports ends the loop.
func (s *Simulator) Run() error {
	for {
		pc := s.Regs.PC()
		if pc == regs.EndOfSim {
			return nil
		}
		if s.halted {
			return s.haltErr
		}

		word := membank.Read[uint32](s.Mem, pc)
		s.branchTaken = false
		latched := s.movprfxActive

		if s.Trace.Enabled(trace.DISASM) && s.Trace.Disasm != nil {
			s.Trace.Line(trace.DISASM, "%04x: %s", pc, s.Trace.Disasm(pc))
		}

		if s.Decoder == nil {
			return InvalidSimState{Reason: "no decoder wired"}
		}
		if err := s.Decoder.Decode(word, pc, s); err != nil {
			s.Fault(err)
			return err
		}
		if latched {
			// The instruction after MOVPRFX has run; the latch does not
			// outlive it, whether or not that instruction consumed it.
			s.movprfxActive = false
		}
		if s.halted {
			return s.haltErr
		}

		if s.Sample != nil {
			s.Sample(pc, word)
		}

		if s.branchTaken {
			s.Regs.SetPC(s.nextPC)
		} else {
			s.Regs.SetPC(pc + 4)
			s.Regs.SetBTypeNext(regs.Default)
		}
	}
}

// LocalMonitor and GlobalMonitor expose the exclusive-access monitors to
// the load/store visitors.
func (s *Simulator) LocalMonitor() *membank.Monitor  { return &s.localMonitor }
func (s *Simulator) GlobalMonitor() *membank.Monitor { return &s.globalMonitor }

// readReg resolves an operand register number to its X/W value, honoring
// the architected rule that Rn==31 means SP in address-generating contexts
// but ZR in arithmetic-result contexts; callers pass the right useSP for
// their instruction class.
func (s *Simulator) readReg(n int, useSP, is64 bool) uint64 {
	v := s.Regs.ReadX(n, useSP)
	if !is64 {
		v &= 0xFFFFFFFF
	}
	return v
}

func (s *Simulator) writeReg(n int, useSP, is64 bool, v uint64) {
	if is64 {
		s.Regs.WriteX(n, useSP, v)
	} else {
		s.Regs.WriteW(n, useSP, uint32(v))
	}
}

func evalCond(f *regs.File, cond Condition) bool {
	n, z, c, v := f.FlagN(), f.FlagZ(), f.FlagC(), f.FlagV()
	var result bool
	switch cond >> 1 {
	case 0: // EQ/NE
		result = z
	case 1: // CS/CC
		result = c
	case 2: // MI/PL
		result = n
	case 3: // VS/VC
		result = v
	case 4: // HI/LS
		result = c && !z
	case 5: // GE/LT
		result = n == v
	case 6: // GT/LE
		result = !z && n == v
	case 7: // AL/NV
		result = true
	}
	if cond&1 == 1 && cond != CondAL && cond != CondNV {
		result = !result
	}
	return result
}
