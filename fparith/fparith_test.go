package fparith

import (
	"math"
	"testing"

	"github.com/go-test/deep"
)

func TestRoundingModes(t *testing.T) {
	tests := []struct {
		mode RoundingMode
		x    float64
		want float64
	}{
		{TieEven, 2.5, 2},
		{TieEven, 3.5, 4},
		{TieAway, 2.5, 3},
		{PlusInf, 2.1, 3},
		{MinusInf, 2.9, 2},
		{Zero, -2.9, -2},
	}
	for _, tc := range tests {
		if got := Round(tc.mode, tc.x); got != tc.want {
			t.Errorf("Round(%v, %v) = %v, want %v", tc.mode, tc.x, got, tc.want)
		}
	}
}

func TestConvertToIntSaturates(t *testing.T) {
	tests := []struct {
		name   string
		x      float64
		bits   int
		signed bool
		want   uint64
	}{
		{"signed overflow saturates to INT_MAX", 1e20, 32, true, 0x7FFFFFFF},
		{"signed underflow saturates to INT_MIN", -1e20, 32, true, 0xFFFFFFFF80000000 & (uint64(1)<<32 - 1)},
		{"unsigned negative saturates to 0", -5, 32, false, 0},
		{"unsigned overflow saturates to UINT_MAX", 1e20, 32, false, 0xFFFFFFFF},
		{"NaN converts to 0", math.NaN(), 32, true, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ConvertToInt(TieEven, tc.x, tc.bits, tc.signed)
			want := tc.want
			if tc.signed {
				want &= (uint64(1) << tc.bits) - 1
			}
			if got != want {
				t.Errorf("got 0x%X want 0x%X", got, want)
			}
		})
	}
}

func TestConvertToIntJS(t *testing.T) {
	if got := ConvertToIntJS(math.NaN()); got != 0 {
		t.Errorf("NaN -> %d, want 0", got)
	}
	if got := ConvertToIntJS(4294967296 + 5); got != 5 {
		t.Errorf("wraparound -> %d, want 5", got)
	}
	if got := ConvertToIntJS(-1); got != -1 {
		t.Errorf("-1 -> %d, want -1", got)
	}
}

func TestNaNPropagate2(t *testing.T) {
	_, isNaN := NaNPropagate2(FPCR{}, 1.0, 2.0)
	if isNaN {
		t.Fatalf("no NaN operand but propagation reported NaN")
	}
	res, isNaN := NaNPropagate2(FPCR{DN: true}, math.NaN(), 1.0)
	if !isNaN || !math.IsNaN(res) {
		t.Fatalf("expected default-NaN result, got %v isNaN=%v", res, isNaN)
	}
	if math.Float64bits(res) != math.Float64bits(defaultNaN64()) {
		t.Errorf("DN result bits = 0x%X, want default NaN 0x%X", math.Float64bits(res), math.Float64bits(defaultNaN64()))
	}
}

func TestCompareUnordered(t *testing.T) {
	got := Compare(math.NaN(), 1.0)
	want := CompareResult{N: false, Z: false, C: true, V: true}
	if diff := deep.Equal(got, want); diff != nil {
		t.Errorf("Compare(NaN, 1) diff: %v", diff)
	}
}

func TestHalfRoundTrip(t *testing.T) {
	tests := []float32{0, 1, -1, 0.5, 65504, -65504, 1.0 / 3}
	for _, f := range tests {
		h := Float32ToHalf(f)
		back := HalfToFloat32(h)
		diff := float64(back) - float64(f)
		if diff < 0 {
			diff = -diff
		}
		// Half precision has ~3 decimal digits; allow generous tolerance.
		if diff > 0.01*float64(abs32(f)+1) {
			t.Errorf("round-trip %v -> half -> %v diff too large", f, back)
		}
	}
}

func abs32(f float32) float32 {
	if f < 0 {
		return -f
	}
	return f
}

func TestHalfSpecialValues(t *testing.T) {
	if got := HalfToFloat32(Half(0x7C00)); !math.IsInf(float64(got), 1) {
		t.Errorf("0x7C00 should decode to +Inf, got %v", got)
	}
	if got := HalfToFloat32(Half(0xFC00)); !math.IsInf(float64(got), -1) {
		t.Errorf("0xFC00 should decode to -Inf, got %v", got)
	}
	if !IsNaNHalf(DefaultNaNHalf) {
		t.Errorf("DefaultNaNHalf should be a NaN")
	}
}

func TestFixedPointConvert(t *testing.T) {
	f := FixedToFloat(100, true, 2)
	if f != 25.0 {
		t.Errorf("FixedToFloat(100, fbits=2) = %v, want 25.0", f)
	}
	back := FloatToFixed(TieEven, 25.0, 2, 32, true)
	if back != 100 {
		t.Errorf("FloatToFixed(25.0, fbits=2) = %v, want 100", back)
	}
}
