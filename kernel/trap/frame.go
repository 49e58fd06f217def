// Package trap installs the interrupt descriptor table and dispatches CPU
// exceptions and device interrupts into Go handlers. The trap stub and
// trapret are the only places register layout is exposed; everything past
// alltraps deals in a typed *Frame.
package trap

import "unsafe"

// Frame is the register layout alltraps pushes and trapret pops, in
// matching order: general-purpose registers pushed by alltraps, then
// vector/error code pushed by the per-vector stub, then the
// hardware-pushed return frame (rip/cs/rflags/rsp/ss).
//
// Field order here must exactly match the PUSHQ order in trap_amd64.s;
// the size assertion below catches the common way the two drift apart
// (an added field on one side, not the other).
type Frame struct {
	R15, R14, R13, R12, R11, R10, R9, R8 uint64
	DI, SI, BP, BX, DX, CX, AX           uint64

	TrapNum uint64
	ErrCode uint64

	RIP    uint64
	CS     uint64
	RFLAGS uint64
	RSP    uint64
	SS     uint64
}

const frameWords = 22

var _ [frameWords*8 - int(unsafe.Sizeof(Frame{}))]byte
var _ [int(unsafe.Sizeof(Frame{})) - frameWords*8]byte
