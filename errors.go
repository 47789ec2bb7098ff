package a64sim

import "fmt"

// InvalidSimState represents an internal precondition violation in the
// simulator (a bug in the core itself, not in the emulated program).
type InvalidSimState struct {
	Reason string
}

// Error implements the error interface.
func (e InvalidSimState) Error() string {
	return fmt.Sprintf("invalid simulator state: %s", e.Reason)
}

// AlignmentFault is raised when a load/store-exclusive address is not a
// multiple of its access size. SP alignment at address formation and atomic
// accesses that straddle a 16-byte line are not checked.
type AlignmentFault struct {
	Addr   uint64
	Reason string
}

// Error implements the error interface.
func (e AlignmentFault) Error() string {
	return fmt.Sprintf("alignment fault at 0x%X: %s", e.Addr, e.Reason)
}

// AuthenticationFailure is raised when a pointer-authentication check fails,
// on an authenticated branch target or on a standalone AUT* operand.
type AuthenticationFailure struct {
	Ptr uint64
}

// Error implements the error interface.
func (e AuthenticationFailure) Error() string {
	return fmt.Sprintf("pointer authentication failure on 0x%X", e.Ptr)
}

// BTIViolation is raised when an indirect branch lands on an instruction
// whose BTI hint does not permit the incoming BType.
type BTIViolation struct {
	PC uint64
}

// Error implements the error interface.
func (e BTIViolation) Error() string {
	return fmt.Sprintf("branch target identification violation at 0x%X", e.PC)
}

// UnallocatedInstruction is raised when the decoder dispatches a slot the
// core does not model (including unimplemented SVE corners).
type UnallocatedInstruction struct {
	PC     uint64
	Detail string
}

// Error implements the error interface.
func (e UnallocatedInstruction) Error() string {
	return fmt.Sprintf("unallocated/unimplemented instruction at 0x%X: %s", e.PC, e.Detail)
}

// UDFInstruction is raised for the architected permanently-undefined
// instruction.
type UDFInstruction struct {
	PC  uint64
	Imm uint16
}

// Error implements the error interface.
func (e UDFInstruction) Error() string {
	return fmt.Sprintf("UDF #%d executed at 0x%X", e.Imm, e.PC)
}

// HostTrapAbort is raised by HLT #kUnreachable.
type HostTrapAbort struct {
	PC uint64
}

// Error implements the error interface.
func (e HostTrapAbort) Error() string {
	return fmt.Sprintf("HLT(kUnreachable) executed at 0x%X", e.PC)
}
