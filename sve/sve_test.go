package sve

import "testing"

func TestPTruePTestVL4(t *testing.T) {
	// PTRUE P0.S, VL4 with VL=128 (4 S lanes) sets all four lane-gating
	// bits; PTEST P0,P0 yields N=1 Z=0 C=0 V=0.
	numElems := NumElems(128, ElemS)
	p0 := PTrue(PatVL4, numElems)
	for i, b := range p0 {
		if !b {
			t.Fatalf("lane %d expected true", i)
		}
	}
	f := PTest(p0, p0)
	if !f.N || f.Z || f.C || f.V {
		t.Errorf("PTEST flags = %+v, want N=true Z=false C=false V=false", f)
	}
}

func TestWhileLTScenarios(t *testing.T) {
	// Concrete scenario 6: X0=3, X1=7, 4 S lanes -> {1,1,1,1}.
	got := While(WhileLT, 3, 7, 4, false)
	want := []bool{true, true, true, true}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("lane %d: got %v want %v", i, got[i], want[i])
		}
	}
	// X0=5, X1=7 -> {1,1,0,0}.
	got2 := While(WhileLT, 5, 7, 4, false)
	want2 := []bool{true, true, false, false}
	for i := range want2 {
		if got2[i] != want2[i] {
			t.Fatalf("lane %d: got %v want %v", i, got2[i], want2[i])
		}
	}
}

func TestWhileMonotonicity(t *testing.T) {
	res := While(WhileLT, -3, 2, 16, false)
	seenFalse := false
	for _, b := range res {
		if !b {
			seenFalse = true
			continue
		}
		if seenFalse {
			t.Fatalf("lane became true after a false lane: %v", res)
		}
	}
}

func TestPTestProperty(t *testing.T) {
	g := []bool{true, true, false, true}
	p := []bool{false, true, true, true}
	f := PTest(g, p)
	// g&p = {false, true, false, true}
	if f.N {
		t.Errorf("N should be false (first active bit of g&p is false)")
	}
	if f.Z {
		t.Errorf("Z should be false (g&p has an active bit)")
	}
	if f.C {
		t.Errorf("C should be false (last bit of g&p is true)")
	}
}

func TestIncDecSaturateSignedOverflow(t *testing.T) {
	maxI32 := int64(1)<<31 - 1
	got := IncDecSaturate(maxI32, 5, false, true, 32, true)
	if got != uint64(maxI32)&0xFFFFFFFF {
		t.Errorf("got 0x%X want saturated to INT32_MAX 0x%X", got, maxI32)
	}
}

func TestIncDecSaturateUnsignedUnderflow(t *testing.T) {
	got := IncDecSaturate(3, 5, true, false, 32, true)
	if got != 0 {
		t.Errorf("unsigned decrement underflow should saturate to 0, got %d", got)
	}
}

func TestLogicalMasksInactiveLanes(t *testing.T) {
	g := []bool{true, false}
	a := []bool{true, true}
	b := []bool{true, true}
	got := Logical(g, a, b, PAnd)
	if got[0] != true || got[1] != false {
		t.Errorf("got %v, want [true false]", got)
	}
}

func TestIndex(t *testing.T) {
	got := Index(10, -2, 4)
	want := []int64{10, 8, 6, 4}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("lane %d: got %d want %d", i, got[i], want[i])
		}
	}
}

func TestLoadStoreZRoundTrip(t *testing.T) {
	mem := make(map[uint64]byte)
	write := func(addr uint64, v byte) { mem[addr] = v }
	read := func(addr uint64) byte { return mem[addr] }
	data := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}
	StoreZ(write, 0x1000, data)
	got := LoadZ(128, read, 0x1000)
	for i := range data {
		if got[i] != data[i] {
			t.Fatalf("byte %d: got %d want %d", i, got[i], data[i])
		}
	}
}
