// Package proc implements the process table, the per-CPU scheduler and the
// context-switch/sleep primitives built on top of it. Everything above
// trap.Frame in the boot sequence — who runs next, and why a sleeping
// process wakes up — lives here.
package proc

import "unsafe"

// Context holds the callee-saved registers switch saves and restores. It is
// much smaller than trap.Frame: a context switch between two kernel
// call stacks only needs what the calling convention says the callee must
// preserve, not a full interrupt frame.
//
// Field order must exactly match the PUSHQ/POPQ order in switch_amd64.s;
// the size assertion below catches the common way the two drift apart.
type Context struct {
	R15, R14, R13, R12, R11 uint64
	RBX                     uint64
	RBP                     uint64
	RIP                     uint64
}

const contextWords = 8

var _ [contextWords*8 - int(unsafe.Sizeof(Context{}))]byte
var _ [int(unsafe.Sizeof(Context{})) - contextWords*8]byte
