package simdlane

import (
	"testing"

	"github.com/davecgh/go-spew/spew"
)

func TestExtractPackRoundTrip(t *testing.T) {
	q := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}
	for _, vf := range []VectorFormat{V16B, V8H, V4S, V2D} {
		lanes := ExtractLanes(vf, q)
		back := PackLanes(vf, lanes)
		for i := range back {
			if back[i] != q[i] {
				t.Fatalf("%v round-trip mismatch at byte %d: got %v want %v state: %s", vf, i, back, q, spew.Sdump(lanes))
			}
		}
	}
}

func TestAddSaturatesSigned(t *testing.T) {
	vf := V8B
	a := []uint64{0x7F}
	b := []uint64{0x01}
	got := Add(vf, a, b, PostSignedSaturate, true)
	if got[0] != 0x7F {
		t.Errorf("signed saturating add got 0x%X want 0x7F", got[0])
	}
}

func TestAddSaturatesUnsigned(t *testing.T) {
	vf := V8B
	a := []uint64{0xFF}
	b := []uint64{0x01}
	got := Add(vf, a, b, PostUnsignedSaturate, false)
	if got[0] != 0xFF {
		t.Errorf("unsigned saturating add got 0x%X want 0xFF", got[0])
	}
}

func TestPostProcessOrderRoundThenHalveThenSaturate(t *testing.T) {
	// SRHADD-style: round then halve. (0x7F + 0x7F + 1) >> 1 == 0x7F;
	// halving first would give (0xFE >> 1) + 1 == 0x80, so this checks that
	// round happens before halve, not after.
	vf := V8B
	a := []uint64{0x7F}
	b := []uint64{0x7F}
	got := Add(vf, a, b, PostRound|PostHalve, true)
	if got[0] != 0x7F {
		t.Errorf("round-then-halve got 0x%X want 0x7F", got[0])
	}
	// Saturation comes after halving: 0x7F + 0x7F = 0xFE halves to 0x7F,
	// which is in range. Saturating first (0xFE -> 0x7F) and then halving
	// would give 0x3F.
	got = Add(vf, a, b, PostHalve|PostSignedSaturate, true)
	if got[0] != 0x7F {
		t.Errorf("halve-then-saturate got 0x%X want 0x7F", got[0])
	}
}

func TestCompareEQ(t *testing.T) {
	vf := V4S
	a := []uint64{1, 2, 3, 4}
	b := []uint64{1, 0, 3, 0}
	got := Compare(vf, a, b, CmpEQ, false)
	want := []uint64{vf.mask(), 0, vf.mask(), 0}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("lane %d: got 0x%X want 0x%X", i, got[i], want[i])
		}
	}
}

func TestShiftInvariantZeroAmount(t *testing.T) {
	vf := V4S
	a := []uint64{1, 2, 3, 4}
	got := Shift(vf, a, ShiftLeft, 0, PostNone, false)
	for i := range a {
		if got[i] != a[i] {
			t.Errorf("shift by 0 should be identity: lane %d got 0x%X want 0x%X", i, got[i], a[i])
		}
	}
}

func TestReduceAdd(t *testing.T) {
	vf := V4S
	a := []uint64{1, 2, 3, 4}
	if got := Reduce(vf, a, ReduceAdd, false); got != 10 {
		t.Errorf("Reduce(add) = %d want 10", got)
	}
}

func TestReduceLongAddNoOverflow(t *testing.T) {
	vf := V4S
	a := []uint64{0x7FFFFFFF, 0x7FFFFFFF, 1, 1}
	got := ReduceLongAdd(vf, a, true)
	want := int64(0x7FFFFFFF)*2 + 2
	if got != want {
		t.Errorf("ReduceLongAdd = %d want %d", got, want)
	}
}

func TestPairwiseAdd(t *testing.T) {
	vf := V4S
	a := []uint64{1, 2, 3, 4}
	b := []uint64{5, 6, 7, 8}
	got := PairwiseAdd(vf, a, b)
	want := []uint64{3, 7, 11, 15}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("lane %d: got %d want %d", i, got[i], want[i])
		}
	}
}

func TestTableLookupOutOfRange(t *testing.T) {
	table := []byte{10, 20, 30, 40}
	dst := []byte{99, 99, 99, 99}
	idx := []byte{0, 1, 200, 3}
	tbl := TableLookup(idx, table, dst, true)
	if tbl[2] != 0 {
		t.Errorf("TBL out-of-range should be 0, got %d", tbl[2])
	}
	tbx := TableLookup(idx, table, dst, false)
	if tbx[2] != 99 {
		t.Errorf("TBX out-of-range should keep dst, got %d", tbx[2])
	}
}

func TestRoundShiftRight(t *testing.T) {
	vf := V4S
	a := []uint64{8}
	got := RoundShiftRight(vf, a, 2, PostNone, false)
	// (8 + 2) >> 2 = 2
	if got[0] != 2 {
		t.Errorf("RoundShiftRight(8, 2) = %d want 2", got[0])
	}
}
