// Package simdlane implements the per-lane integer and floating-point
// kernels behind the advanced SIMD (NEON) instruction visitors: add/sub/mul
// family, shifts, compares, reductions, permutes, and table lookups, each
// parameterized by a VectorFormat rather than hand-inlined per instruction,
// so one small set of generic kernels serves every format.
package simdlane

// VectorFormat names a SIMD operand shape: element width in bits and lane
// count, e.g. {8, 16} is the "16B" format, {64, 1} is a scalar D register.
type VectorFormat struct {
	ElemBits int
	Lanes    int
}

// Named formats matching the architecture's format mnemonics.
var (
	V8B  = VectorFormat{8, 8}
	V16B = VectorFormat{8, 16}
	V4H  = VectorFormat{16, 4}
	V8H  = VectorFormat{16, 8}
	V2S  = VectorFormat{32, 2}
	V4S  = VectorFormat{32, 4}
	V1D  = VectorFormat{64, 1}
	V2D  = VectorFormat{64, 2}

	// Scalar forms used by scalar FP/SIMD instructions.
	V1B = VectorFormat{8, 1}
	V1H = VectorFormat{16, 1}
	V1S = VectorFormat{32, 1}
	V1Dscalar = VectorFormat{64, 1}
)

// Bytes returns the total byte width occupied by the format (8 or 16 for
// the vector formats, 1 to 8 for the scalar ones).
func (vf VectorFormat) Bytes() int {
	return vf.ElemBits * vf.Lanes / 8
}

func (vf VectorFormat) mask() uint64 {
	if vf.ElemBits >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << uint(vf.ElemBits)) - 1
}

func (vf VectorFormat) signBit() uint64 {
	return uint64(1) << uint(vf.ElemBits-1)
}

// ExtractLanes extracts each element of a 128-bit (or 64-bit) register view q as an
// unsigned integer of ElemBits width, little-endian lane order (lane 0 is
// the lowest-addressed).
func ExtractLanes(vf VectorFormat, q []byte) []uint64 {
	out := make([]uint64, vf.Lanes)
	elemBytes := vf.ElemBits / 8
	for i := 0; i < vf.Lanes; i++ {
		var v uint64
		for b := 0; b < elemBytes; b++ {
			v |= uint64(q[i*elemBytes+b]) << uint(8*b)
		}
		out[i] = v
	}
	return out
}

// PackLanes is the inverse of ExtractLanes, writing lanes back into a byte
// slice sized to vf.Bytes(). Bytes beyond vf.Bytes() in the destination
// register (when the format is narrower than the register, e.g. a scalar
// write) must be cleared by the caller, matching the architected rule that a
// narrower SIMD write zeroes the rest of the destination register.
func PackLanes(vf VectorFormat, lanes []uint64) []byte {
	elemBytes := vf.ElemBits / 8
	out := make([]byte, vf.Bytes())
	for i, v := range lanes {
		for b := 0; b < elemBytes; b++ {
			out[i*elemBytes+b] = byte(v >> uint(8*b))
		}
	}
	return out
}

func signExtendLane(vf VectorFormat, v uint64) int64 {
	shift := uint(64 - vf.ElemBits)
	return int64(v<<shift) >> shift
}

// Post enumerates the fixed post-processing stages applied after primary
// arithmetic, always in this order: Round, then Halve, then Saturate. A
// kernel call selects any subset via bitwise OR; the engine always applies
// them in this order regardless of how the caller composed the mask, so
// post-processing is never accidentally reassociated.
type Post uint8

const (
	PostNone           Post = 0
	PostRound          Post = 1 << 0
	PostHalve          Post = 1 << 1
	PostSignedSaturate Post = 1 << 2
	PostUnsignedSaturate Post = 1 << 3
)

// applyPost runs the fixed Round -> Halve -> Saturate pipeline over a
// double-width (2x ElemBits) intermediate result, narrowing back to
// ElemBits at the end. signed controls whether halving is arithmetic
// (rounds toward -Inf on the extra bit) and which saturation bound applies.
func applyPost(vf VectorFormat, wide int64, post Post, signed bool) uint64 {
	if post&PostRound != 0 {
		// Matches SRHADD/URHADD: (a+b+1) >> 1. Callers that need a
		// rounding bias at a different bit position (SRSHR's
		// 2^(shift-1), SQRDMULH's 2^(ElemBits-2)) use RoundShiftRight or
		// compute their own bias before calling applyPost with
		// PostRound cleared.
		wide++
	}
	if post&PostHalve != 0 {
		if signed {
			wide >>= 1
		} else {
			wide = int64(uint64(wide) >> 1)
		}
	}
	result := wide
	if post&PostSignedSaturate != 0 {
		maxV := int64(1)<<(vf.ElemBits-1) - 1
		minV := -(int64(1) << (vf.ElemBits - 1))
		if result > maxV {
			result = maxV
		} else if result < minV {
			result = minV
		}
	}
	if post&PostUnsignedSaturate != 0 {
		maxV := int64(vf.mask())
		if result > maxV {
			result = maxV
		} else if result < 0 {
			result = 0
		}
	}
	return uint64(result) & vf.mask()
}

// Add computes a+b per lane with the given post-processing, signed
// selecting the saturation/halving interpretation of the intermediate
// result (the addend values themselves are reconstructed as signed when
// signed is true, so ADD/SQADD/UQADD/SHADD/UHADD all share this one path).
func Add(vf VectorFormat, a, b []uint64, post Post, signed bool) []uint64 {
	return binOp(vf, a, b, post, signed, func(x, y int64) int64 { return x + y })
}

// Sub computes a-b per lane.
func Sub(vf VectorFormat, a, b []uint64, post Post, signed bool) []uint64 {
	return binOp(vf, a, b, post, signed, func(x, y int64) int64 { return x - y })
}

// Mul computes a*b per lane (MUL/SQDMULH family build on this with extra
// doubling/shifting performed by the caller before post-processing).
func Mul(vf VectorFormat, a, b []uint64, post Post, signed bool) []uint64 {
	return binOp(vf, a, b, post, signed, func(x, y int64) int64 { return x * y })
}

// Mla computes acc + a*b per lane (MLA/MLS share this with the opposite sign
// on the product).
func Mla(vf VectorFormat, acc, a, b []uint64, subtract bool) []uint64 {
	out := make([]uint64, vf.Lanes)
	for i := range a {
		prod := int64(a[i]) * int64(b[i])
		if subtract {
			prod = -prod
		}
		sum := int64(acc[i]) + prod
		out[i] = uint64(sum) & vf.mask()
	}
	return out
}

func binOp(vf VectorFormat, a, b []uint64, post Post, signed bool, op func(x, y int64) int64) []uint64 {
	out := make([]uint64, vf.Lanes)
	for i := range a {
		var x, y int64
		if signed {
			x, y = signExtendLane(vf, a[i]), signExtendLane(vf, b[i])
		} else {
			x, y = int64(a[i]), int64(b[i])
		}
		wide := op(x, y)
		out[i] = applyPost(vf, wide, post, signed)
	}
	return out
}

// Abs computes the per-lane absolute value (signed).
func Abs(vf VectorFormat, a []uint64) []uint64 {
	out := make([]uint64, vf.Lanes)
	for i, v := range a {
		sv := signExtendLane(vf, v)
		if sv < 0 {
			sv = -sv
		}
		out[i] = uint64(sv) & vf.mask()
	}
	return out
}

// Neg computes the per-lane two's-complement negation.
func Neg(vf VectorFormat, a []uint64) []uint64 {
	out := make([]uint64, vf.Lanes)
	for i, v := range a {
		out[i] = (^v + 1) & vf.mask()
	}
	return out
}

// CompareOp enumerates the integer lane comparisons used by CMEQ/CMGT/etc.
type CompareOp int

const (
	CmpEQ CompareOp = iota
	CmpGT
	CmpGE
	CmpLT
	CmpLE
	CmpHI // unsigned >
	CmpHS // unsigned >=
)

// Compare returns an all-ones or all-zero mask per lane, the architected
// SIMD compare result convention.
func Compare(vf VectorFormat, a, b []uint64, op CompareOp, signed bool) []uint64 {
	out := make([]uint64, vf.Lanes)
	for i := range a {
		var cond bool
		if signed {
			x, y := signExtendLane(vf, a[i]), signExtendLane(vf, b[i])
			switch op {
			case CmpEQ:
				cond = x == y
			case CmpGT:
				cond = x > y
			case CmpGE:
				cond = x >= y
			case CmpLT:
				cond = x < y
			case CmpLE:
				cond = x <= y
			}
		} else {
			x, y := a[i], b[i]
			switch op {
			case CmpEQ:
				cond = x == y
			case CmpHI:
				cond = x > y
			case CmpHS:
				cond = x >= y
			}
		}
		if cond {
			out[i] = vf.mask()
		}
	}
	return out
}

// ShiftKind enumerates the SIMD shift families.
type ShiftKind int

const (
	ShiftLeft ShiftKind = iota
	ShiftRightArith
	ShiftRightLogical
)

// Shift applies a uniform shift amount to every lane, with the same
// Round/Saturate post-processing pipeline as the arithmetic kernels (e.g.
// SRSHR rounds, UQSHL saturates).
func Shift(vf VectorFormat, a []uint64, kind ShiftKind, amount int, post Post, signed bool) []uint64 {
	out := make([]uint64, vf.Lanes)
	for i, v := range a {
		var wide int64
		switch kind {
		case ShiftLeft:
			if signed {
				wide = signExtendLane(vf, v) << uint(amount)
			} else {
				wide = int64(v << uint(amount))
			}
		case ShiftRightArith:
			wide = signExtendLane(vf, v) >> uint(amount)
		case ShiftRightLogical:
			wide = int64(v >> uint(amount))
		}
		out[i] = applyPost(vf, wide, post&^PostHalve, signed)
	}
	return out
}

// ReduceOp enumerates cross-lane reductions (ADDV, S/UMAXV, S/UMINV).
type ReduceOp int

const (
	ReduceAdd ReduceOp = iota
	ReduceMax
	ReduceMin
)

// Reduce folds every lane of a into a single ElemBits-wide scalar.
func Reduce(vf VectorFormat, a []uint64, op ReduceOp, signed bool) uint64 {
	if len(a) == 0 {
		return 0
	}
	acc := a[0]
	for _, v := range a[1:] {
		switch op {
		case ReduceAdd:
			acc = (acc + v) & vf.mask()
		case ReduceMax:
			if lessLane(vf, acc, v, signed) {
				acc = v
			}
		case ReduceMin:
			if lessLane(vf, v, acc, signed) {
				acc = v
			}
		}
	}
	return acc
}

func lessLane(vf VectorFormat, x, y uint64, signed bool) bool {
	if signed {
		return signExtendLane(vf, x) < signExtendLane(vf, y)
	}
	return x < y
}

// ReduceLongAdd implements S/UADDLV: sums every lane into an accumulator
// twice the element width, avoiding overflow.
func ReduceLongAdd(vf VectorFormat, a []uint64, signed bool) int64 {
	var acc int64
	for _, v := range a {
		if signed {
			acc += signExtendLane(vf, v)
		} else {
			acc += int64(v)
		}
	}
	return acc
}

// PairwiseAdd implements ADDP-family pairwise addition: result lane i is
// a[2i]+a[2i+1] for i in the first half, then b[2i]+b[2i+1] for the second
// half, per the architected pairwise-across-two-operands convention.
func PairwiseAdd(vf VectorFormat, a, b []uint64) []uint64 {
	out := make([]uint64, vf.Lanes)
	half := vf.Lanes / 2
	for i := 0; i < half; i++ {
		out[i] = (a[2*i] + a[2*i+1]) & vf.mask()
	}
	for i := 0; i < half; i++ {
		out[half+i] = (b[2*i] + b[2*i+1]) & vf.mask()
	}
	return out
}

// RoundShiftRight implements the SRSHR/URSHR family: shift right by amount
// with a rounding bias of 2^(amount-1) added before the shift, optionally
// saturating afterward (SQSHRN/UQSHRN narrowing variants pass a Saturate
// post bit).
func RoundShiftRight(vf VectorFormat, a []uint64, amount int, post Post, signed bool) []uint64 {
	out := make([]uint64, vf.Lanes)
	var bias int64
	if amount > 0 {
		bias = int64(1) << uint(amount-1)
	}
	for i, v := range a {
		var wide int64
		if signed {
			wide = signExtendLane(vf, v)
		} else {
			wide = int64(v)
		}
		wide += bias
		if signed {
			wide >>= uint(amount)
		} else {
			wide = int64(uint64(wide) >> uint(amount))
		}
		out[i] = applyPost(vf, wide, post&^(PostRound|PostHalve), signed)
	}
	return out
}

// TableLookup implements TBL (outOfRangeZero=true) and TBX
// (outOfRangeZero=false, meaning out-of-range indices keep the
// corresponding dst lane instead). table is the concatenation of 1-4
// source vector registers' bytes.
func TableLookup(indices []byte, table []byte, dst []byte, outOfRangeZero bool) []byte {
	out := make([]byte, len(indices))
	for i, idx := range indices {
		if int(idx) < len(table) {
			out[i] = table[idx]
		} else if outOfRangeZero {
			out[i] = 0
		} else {
			out[i] = dst[i]
		}
	}
	return out
}
