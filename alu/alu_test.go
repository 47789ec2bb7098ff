package alu

import (
	"testing"

	"github.com/davecgh/go-spew/spew"
)

func TestAddWithCarry(t *testing.T) {
	tests := []struct {
		name    string
		size    RegSize
		left    uint64
		right   uint64
		carryIn uint64
		want    uint64
		wantN   bool
		wantZ   bool
		wantC   bool
		wantV   bool
	}{
		{
			name:    "ADDS carry, W0=0xFFFFFFFF + 1",
			size:    Size32,
			left:    0xFFFFFFFF,
			right:   1,
			carryIn: 0,
			want:    0,
			wantZ:   true,
			wantC:   true,
		},
		{
			name:    "SUBS overflow, 0x80000000 - 1",
			size:    Size32,
			left:    0x80000000,
			right:   (^uint64(1)) & 0xFFFFFFFF,
			carryIn: 1,
			want:    0x7FFFFFFF,
			wantC:   true,
			wantV:   true,
		},
		{
			name:  "simple 64-bit add, no flags set",
			size:  Size64,
			left:  1,
			right: 1,
			want:  2,
		},
		{
			name:  "64-bit negative result sets N",
			size:  Size64,
			left:  0,
			right: ^uint64(0),
			want:  0xFFFFFFFFFFFFFFFF,
			wantN: true,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, flags := AddWithCarry(tc.size, tc.left, tc.right, tc.carryIn)
			if got != tc.want {
				t.Errorf("result = 0x%X, want 0x%X state: %s", got, tc.want, spew.Sdump(flags))
			}
			if flags.N != tc.wantN || flags.Z != tc.wantZ || flags.C != tc.wantC || flags.V != tc.wantV {
				t.Errorf("flags = %+v, want N=%v Z=%v C=%v V=%v", flags, tc.wantN, tc.wantZ, tc.wantC, tc.wantV)
			}
		})
	}
}

func TestSubOverflowScenario(t *testing.T) {
	// SUBS W0, W0, W1 with W0=0x80000000, W1=1 leaves W0=0x7FFFFFFF,
	// N=0 Z=0 C=1 V=1 (signed overflow from INT32_MIN).
	got, flags := Sub(Size32, 0x80000000, 1)
	if got != 0x7FFFFFFF {
		t.Errorf("got 0x%X, want 0x7FFFFFFF", got)
	}
	if flags.N || flags.Z || !flags.C || !flags.V {
		t.Errorf("flags = %+v, want N=false Z=false C=true V=true", flags)
	}
}

func TestShiftInvariants(t *testing.T) {
	for _, size := range []RegSize{Size32, Size64} {
		for amount := uint(0); amount < uint(size); amount++ {
			for _, v := range []uint64{0, 1, 0x7FFFFFFF, 0x80000000, 0xFFFFFFFF} {
				val := v & mask(size)
				if amount == 0 {
					for _, kind := range []ShiftType{LSL, LSR, ASR, ROR} {
						if got := Shift(size, val, kind, 0); got != val {
							t.Errorf("%v amount=0 not identity: got 0x%X want 0x%X", kind, got, val)
						}
					}
				}
				// ROR must be a bijection: RORing right by amount then
				// left (ROR by width-amount) recovers the original value.
				if amount > 0 {
					r := Shift(size, val, ROR, amount)
					back := Shift(size, r, ROR, uint(size)-amount)
					if back != val {
						t.Errorf("ROR not bijective at amount %d: got 0x%X want 0x%X", amount, back, val)
					}
				}
			}
		}
	}
}

func TestExtend(t *testing.T) {
	tests := []struct {
		name string
		size RegSize
		val  uint64
		kind ExtendType
		sh   uint
		want uint64
	}{
		{"UXTB", Size64, 0xFF, UXTB, 0, 0xFF},
		{"SXTB negative", Size64, 0xFF, SXTB, 0, 0xFFFFFFFFFFFFFFFF},
		{"SXTH positive", Size64, 0x7FFF, SXTH, 0, 0x7FFF},
		{"SXTW with shift", Size64, 0x80000000, SXTW, 2, 0xFFFFFFFE00000000 & mask(Size64)},
		{"UXTX identity", Size64, 0x1234, UXTX, 0, 0x1234},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Extend(tc.size, tc.val, tc.kind, tc.sh); got != tc.want {
				t.Errorf("got 0x%X want 0x%X", got, tc.want)
			}
		})
	}
}

func TestCLZCLS(t *testing.T) {
	if got := CLZ(Size32, 0x00000001); got != 31 {
		t.Errorf("CLZ(1) = %d want 31", got)
	}
	if got := CLZ(Size32, 0); got != 32 {
		t.Errorf("CLZ(0) = %d want 32", got)
	}
	if got := CLS(Size32, 0x80000000); got != 0 {
		t.Errorf("CLS(0x80000000) = %d want 0", got)
	}
	if got := CLS(Size32, 0x40000000); got != 0 {
		t.Errorf("CLS(0x40000000) = %d want 0", got)
	}
}

func TestReverse(t *testing.T) {
	if got := ReverseBytes(Size32, 0x01020304); got != 0x04030201 {
		t.Errorf("ReverseBytes = 0x%X want 0x04030201", got)
	}
	if got := ReverseBits(Size32, 0x80000000); got != 1 {
		t.Errorf("ReverseBits(0x80000000) = 0x%X want 1", got)
	}
}

func TestBitfieldUBFMSimple(t *testing.T) {
	// UBFX Xd, Xn, #8, #8 on Xn=0x1234 extracts bits [15:8] into bits[7:0].
	got := Bitfield(Size64, 0, 0x1234, 8, 15, false, true)
	if want := uint64(0x12); got != want {
		t.Errorf("got 0x%X want 0x%X", got, want)
	}
}

func TestBitfieldSBFMSignExtends(t *testing.T) {
	// SBFX with an 8-bit field whose top bit is set sign-extends.
	got := Bitfield(Size64, 0, 0xFF, 0, 7, true, true)
	if got != 0xFFFFFFFFFFFFFFFF {
		t.Errorf("got 0x%X want all-ones", got)
	}
}

func TestCRC32KnownVector(t *testing.T) {
	// CRC32B of a zero accumulator and byte 0 must leave the accumulator
	// unchanged under the reflected definition (0 XOR 0 stays 0).
	if got := CRC32Step(0, 0, 8, PolyCRC32); got != 0 {
		t.Errorf("CRC32Step(0,0) = 0x%X want 0", got)
	}
}

func TestPACRoundTrip(t *testing.T) {
	ptr := uint64(0x0000AAAA12345678)
	tagged := PACAdd(ptr, 0xDEAD, KeyIA)
	if tagged == ptr {
		t.Fatalf("PACAdd did not change the pointer")
	}
	clean, ok := PACAuth(tagged, 0xDEAD, KeyIA)
	if !ok {
		t.Fatalf("PACAuth failed on a matching key/modifier")
	}
	if clean != PACStrip(ptr) {
		t.Errorf("PACAuth recovered 0x%X, want 0x%X", clean, PACStrip(ptr))
	}
	if _, ok := PACAuth(tagged, 0xBEEF, KeyIA); ok {
		t.Errorf("PACAuth succeeded with a mismatched modifier")
	}
}
