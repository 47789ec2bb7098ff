package a64sim

import (
	"testing"

	"a64sim/membank"
	"a64sim/regs"
	"a64sim/sve"

	"github.com/davecgh/go-spew/spew"
)

// scriptDecoder replays a fixed sequence of visitor calls, standing in for
// a real decoder in tests: the "assembly" is a slice of closures over the
// Visitor interface instead of hand-encoded instruction bytes.
type scriptDecoder struct {
	steps []func(v Visitor)
	n     int
}

func (d *scriptDecoder) Decode(word uint32, pc uint64, v Visitor) error {
	if d.n >= len(d.steps) {
		return UnallocatedInstruction{PC: pc, Detail: "script exhausted"}
	}
	step := d.steps[d.n]
	d.n++
	step(v)
	return nil
}

func newTestSim(steps ...func(v Visitor)) *Simulator {
	mem := membank.New(0x2000)
	sim := NewSimulator(128, mem, &scriptDecoder{steps: steps})
	sim.Trace = nil
	sim.Regs.SetPC(0x1000)
	return sim
}

// TestAddsCarryScenario verifies ADDS Xd, Xn, Xm where
// Xn=0xFFFFFFFFFFFFFFFF and Xm=1 produces a zero result with carry set and
// no overflow.
func TestAddsCarryScenario(t *testing.T) {
	sim := newTestSim(func(v Visitor) {
		v.VisitAddSubShifted(&Instruction{PC: 0x1000, Rd: 0, Rn: 1, Rm: 2, Is64Bit: true, SetFlags: true})
	}, func(v Visitor) {
		v.VisitBranchRegister(&Instruction{PC: 0x1004, Rn: 30}, RetPlain)
	})
	sim.Regs.WriteX(1, false, 0xFFFFFFFFFFFFFFFF)
	sim.Regs.WriteX(2, false, 1)
	if err := sim.Run(); err != nil {
		t.Fatalf("Run: %v state: %s", err, spew.Sdump(sim.Regs))
	}
	if got := sim.Regs.ReadX(0, false); got != 0 {
		t.Errorf("Xd = 0x%X, want 0", got)
	}
	if !sim.Regs.FlagC() || !sim.Regs.FlagZ() || sim.Regs.FlagV() || sim.Regs.FlagN() {
		t.Errorf("NZCV = %v%v%v%v, want N=0 Z=1 C=1 V=0",
			sim.Regs.FlagN(), sim.Regs.FlagZ(), sim.Regs.FlagC(), sim.Regs.FlagV())
	}
}

// TestSubsOverflowScenario verifies SUBS Wd, Wn, Wm with Wn=INT32_MIN and
// Wm=1 sets V (signed overflow).
func TestSubsOverflowScenario(t *testing.T) {
	sim := newTestSim(func(v Visitor) {
		ins := &Instruction{PC: 0x1000, Rd: 0, Rn: 1, Rm: 2, Is64Bit: false, SetFlags: true, Imm2: 1}
		v.VisitAddSubShifted(ins)
	}, func(v Visitor) {
		v.VisitBranchRegister(&Instruction{PC: 0x1004, Rn: 30}, RetPlain)
	})
	sim.Regs.WriteW(1, false, 0x80000000)
	sim.Regs.WriteW(2, false, 1)
	if err := sim.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !sim.Regs.FlagV() {
		t.Errorf("V flag should be set on signed overflow")
	}
}

// TestBranchAndLinkSetsLRAndTarget exercises BL: the link register captures
// the return address (PC+4) and the driver loop's next PC is the branch
// target, not a simple fallthrough.
func TestBranchAndLinkSetsLRAndTarget(t *testing.T) {
	sim := newTestSim(func(v Visitor) {
		v.VisitUnconditionalBranchImmediate(&Instruction{PC: 0x1000, BranchOffset: 0x100}, true)
	})
	// The script has only one step, so the driver's next fetch at the
	// branch target finds no scripted instruction and faults; that fault
	// is expected here and is how the test observes the post-branch PC.
	err := sim.Run()
	if _, ok := err.(UnallocatedInstruction); !ok {
		t.Fatalf("Run() error = %v (%T), want UnallocatedInstruction from the unscripted fetch", err, err)
	}
	if sim.Regs.LR() != 0x1004 {
		t.Errorf("LR = 0x%X, want 0x1004", sim.Regs.LR())
	}
	if sim.Regs.PC() != 0x1100 {
		t.Errorf("PC = 0x%X, want 0x1100 (the BL target)", sim.Regs.PC())
	}
}

// TestRetToPowerOnLRReachesEndOfSim exercises a bare RET with no preceding
// BL: LR still holds its power-on-reset sentinel, so RET drives the driver
// loop straight to EndOfSim.
func TestRetToPowerOnLRReachesEndOfSim(t *testing.T) {
	sim := newTestSim(func(v Visitor) {
		v.VisitBranchRegister(&Instruction{PC: 0x1000, Rn: 30}, RetPlain)
	})
	if err := sim.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sim.Regs.PC() != regs.EndOfSim {
		t.Errorf("PC after RET-to-poweron-LR = 0x%X, want EndOfSim", sim.Regs.PC())
	}
}

// TestConditionalBranchNotTakenFallsThrough verifies B.cond with a false
// condition advances PC by 4 instead of branching.
func TestConditionalBranchNotTakenFallsThrough(t *testing.T) {
	sim := newTestSim(
		func(v Visitor) {
			v.VisitConditionalBranch(&Instruction{PC: 0x1000, Cond: CondEQ, BranchOffset: 0x100})
		},
		func(v Visitor) {
			v.VisitBranchRegister(&Instruction{PC: 0x1004, Rn: 30}, RetPlain)
		},
	)
	sim.Regs.SetNZCV(false, false, false, false) // Z=0, so EQ is false
	if err := sim.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sim.Regs.PC() != regs.EndOfSim {
		t.Errorf("expected fallthrough to the RET at PC+4 then EndOfSim, got 0x%X", sim.Regs.PC())
	}
}

// TestLoadStoreRoundTrip verifies a STR followed by an LDR at the same
// address round-trips the value through memory.
func TestLoadStoreRoundTrip(t *testing.T) {
	sim := newTestSim(
		func(v Visitor) {
			v.VisitLoadStoreUnsignedImmediate(&Instruction{
				PC: 0x1000, Rn: 1, Rt: 2, Is64Bit: true, MemSize: 8, Acquire: false,
			})
		},
		func(v Visitor) {
			v.VisitLoadStoreUnsignedImmediate(&Instruction{
				PC: 0x1004, Rn: 1, Rt: 3, Is64Bit: true, MemSize: 8, Acquire: true,
			})
		},
		func(v Visitor) {
			v.VisitBranchRegister(&Instruction{PC: 0x1008, Rn: 30}, RetPlain)
		},
	)
	sim.Regs.WriteX(1, true, 0x800) // base (SP-relative addressing not needed here, reused as plain base)
	sim.Regs.WriteX(2, false, 0xDEADBEEFCAFEBABE)
	if err := sim.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := sim.Regs.ReadX(3, false); got != 0xDEADBEEFCAFEBABE {
		t.Errorf("round-tripped value = 0x%X, want 0xDEADBEEFCAFEBABE", got)
	}
}

// TestExclusiveStoreFailsWithoutMatchingLoad verifies STXR reports failure
// (Rs=1) when no LDXR previously marked the address.
func TestExclusiveStoreFailsWithoutMatchingLoad(t *testing.T) {
	sim := newTestSim(
		func(v Visitor) {
			v.VisitLoadStoreExclusive(&Instruction{
				PC: 0x1000, Rn: 1, Rt: 2, Rs: 4, Is64Bit: true, MemSize: 8, Release: true,
			})
		},
		func(v Visitor) {
			v.VisitBranchRegister(&Instruction{PC: 0x1004, Rn: 30}, RetPlain)
		},
	)
	sim.Regs.WriteX(1, true, 0x900)
	if err := sim.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := sim.Regs.ReadW(4, false); got != 1 {
		t.Errorf("Rs status = %d, want 1 (failure, no prior exclusive load)", got)
	}
}

// TestExclusivePairSucceeds verifies LDXR followed by a matching STXR to
// the same address reports success (Rs=0) and commits the store.
func TestExclusivePairSucceeds(t *testing.T) {
	sim := newTestSim(
		func(v Visitor) {
			v.VisitLoadStoreExclusive(&Instruction{
				PC: 0x1000, Rn: 1, Rt: 2, Is64Bit: true, MemSize: 8, Release: false,
			})
		},
		func(v Visitor) {
			v.VisitLoadStoreExclusive(&Instruction{
				PC: 0x1004, Rn: 1, Rt: 3, Rs: 4, Is64Bit: true, MemSize: 8, Release: true,
			})
		},
		func(v Visitor) {
			v.VisitBranchRegister(&Instruction{PC: 0x1008, Rn: 30}, RetPlain)
		},
	)
	sim.Regs.WriteX(1, true, 0xA00)
	sim.Regs.WriteX(3, false, 0x1234)
	if err := sim.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := sim.Regs.ReadW(4, false); got != 0 {
		t.Errorf("Rs status = %d, want 0 (success)", got)
	}
	if got := membank.Read[uint64](sim.Mem, 0xA00); got != 0x1234 {
		t.Errorf("stored value = 0x%X, want 0x1234", got)
	}
}

// TestHLTZeroReportsHostTrapAbort verifies HLT #0 faults with
// HostTrapAbort rather than falling through.
func TestHLTZeroReportsHostTrapAbort(t *testing.T) {
	sim := newTestSim(func(v Visitor) {
		v.VisitException(&Instruction{PC: 0x1000, HLTCode: 0}, ExcHLT)
	})
	err := sim.Run()
	if _, ok := err.(HostTrapAbort); !ok {
		t.Fatalf("Run() error = %v (%T), want HostTrapAbort", err, err)
	}
}

// TestUDFFaults verifies UDF reports UDFInstruction.
func TestUDFFaults(t *testing.T) {
	sim := newTestSim(func(v Visitor) {
		v.VisitException(&Instruction{PC: 0x1000, HLTCode: 7}, ExcUDF)
	})
	err := sim.Run()
	udf, ok := err.(UDFInstruction)
	if !ok {
		t.Fatalf("Run() error = %v (%T), want UDFInstruction", err, err)
	}
	if udf.Imm != 7 {
		t.Errorf("UDF imm = %d, want 7", udf.Imm)
	}
}

// TestPTruePTestAllActiveLanes verifies PTRUE P0.S, VL4 followed by
// PTEST P0, P0 at VL=128 (4 S lanes, all active) reports N=1 Z=0 C=0 V=0:
// the predicate register's unused bits beyond the 4 active S lanes must not
// leak into PTEST's last-active-bit computation.
func TestPTruePTestAllActiveLanes(t *testing.T) {
	sim := newTestSim(func(v Visitor) {
		v.VisitSVEPTrue(&Instruction{PC: 0x1000, Pn: 0, ElemBits: 32, Imm: uint64(sve.PatVL4)}, false)
	}, func(v Visitor) {
		v.VisitSVEPTest(&Instruction{PC: 0x1004, Pg: 0, Pn: 0, ElemBits: 32})
	})
	err := sim.Run()
	if _, ok := err.(UnallocatedInstruction); !ok {
		t.Fatalf("Run() error = %v (%T), want UnallocatedInstruction from the unscripted fetch", err, err)
	}
	if !sim.Regs.FlagN() || sim.Regs.FlagZ() || sim.Regs.FlagC() || sim.Regs.FlagV() {
		t.Errorf("NZCV = %v%v%v%v, want N=1 Z=0 C=0 V=0",
			sim.Regs.FlagN(), sim.Regs.FlagZ(), sim.Regs.FlagC(), sim.Regs.FlagV())
	}
}
