package alu

// Pointer authentication is modeled as a placeholder MAC over
// {pointer, modifier, key} with a stable bit layout: Strip masks the tag
// region, Auth recomputes and zero-tags on success or poisons on failure so
// subsequent use faults. This is not cryptographically meaningful; it only
// needs to be a stable, invertible-on-success function so AUT undoes PAC
// for a matching key/modifier and visibly corrupts the pointer otherwise.

// pacTagShift is where the authentication tag lives in an untagged 64-bit
// VA (top byte, below the top bit which can carry TBI-style sign
// information in real silicon; here we keep it simple and use bits
// [63:56]).
const (
	pacTagShift = 56
	pacTagMask  = uint64(0xFF) << pacTagShift
	pacAddrMask = ^pacTagMask
)

// PACKey names one of the four architected pointer-auth key slots.
type PACKey int

const (
	KeyIA PACKey = iota
	KeyIB
	KeyDA
	KeyDB
)

// pacMAC computes an 8-bit placeholder authentication code from the pointer,
// a 64-bit modifier, and a key selector. It is a simple non-cryptographic
// mixing function — enough to detect key/modifier mismatch, which is all
// the simulator needs.
func pacMAC(ptr, modifier uint64, key PACKey) uint8 {
	h := ptr ^ modifier ^ (uint64(key+1) * 0x9E3779B97F4A7C15)
	h ^= h >> 33
	h *= 0xFF51AFD7ED558CCD
	h ^= h >> 29
	return uint8(h)
}

// PACAdd computes and installs an authentication code into the tag field of
// ptr (PACIA/PACIB/PACDA/PACDB).
func PACAdd(ptr, modifier uint64, key PACKey) uint64 {
	tag := pacMAC(ptr, modifier, key)
	return (ptr & pacAddrMask) | uint64(tag)<<pacTagShift
}

// PACStrip masks off the tag region, recovering the plain address
// (XPACI/XPACD and the implicit strip BR/BLR/RET perform when
// authentication is disabled).
func PACStrip(ptr uint64) uint64 {
	return ptr & pacAddrMask
}

// PACAuth recomputes the expected tag for ptr/modifier/key. On a match it
// returns the stripped (clean) pointer and ok=true. On a mismatch it
// returns a poisoned pointer — the tag replaced with its complement so any
// subsequent dereference is overwhelmingly likely to fault — and ok=false.
func PACAuth(ptr, modifier uint64, key PACKey) (result uint64, ok bool) {
	gotTag := uint8(ptr >> pacTagShift)
	addr := ptr & pacAddrMask
	wantTag := pacMAC(addr, modifier, key)
	if gotTag == wantTag {
		return addr, true
	}
	poisoned := (addr & pacAddrMask) | uint64(^wantTag)<<pacTagShift
	return poisoned, false
}

// PACGA packs a 32-bit generic authentication code (computed the same way
// as pacMAC, widened) into bits [63:32] of the result and zeroes the low
// 32 bits.
func PACGA(x, y uint64) uint64 {
	lo := pacMAC(x, y, KeyIA)
	hi := pacMAC(x^0xFFFFFFFFFFFFFFFF, y, KeyIB)
	code := uint32(lo) | uint32(hi)<<8 | uint32(lo)<<16 | uint32(hi)<<24
	return uint64(code) << 32
}
