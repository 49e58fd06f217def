// Package spinlock provides the kernel's only synchronization primitive: a
// non-recursive test-and-set lock. Every other piece of shared mutable
// state in this module (the process table, the physical page freelist, the
// I/O-APIC redirection table, the tick counter) is protected by exactly one
// Lock value.
package spinlock

import (
	"sync/atomic"

	"smpkernel/kernel/cpu"
)

// pushCliFn and popCliFn are swapped out by tests so that Lock can be
// exercised on a host that cannot execute CLI/STI.
var (
	pushCliFn = cpu.PushCli
	popCliFn  = cpu.PopCli
	pauseFn   = cpu.Pause
)

// Lock is a spinning mutual-exclusion lock. A locked Lock also disables
// interrupts on the holder's CPU for as long as it is held; this is what
// makes it safe to take inside an interrupt handler and what makes holding
// a Lock across a call to sleep (see the proc package) require special
// handling.
//
// The zero value is an unlocked Lock, ready to use.
type Lock struct {
	locked uint32
}

// Acquire spins until the lock is free and then takes it. Interrupts are
// disabled on the calling CPU for the duration of the critical section;
// PushCli/PopCli nesting means a CPU that already holds another lock can
// safely acquire this one too.
func (l *Lock) Acquire() {
	pushCliFn()
	for !atomic.CompareAndSwapUint32(&l.locked, 0, 1) {
		pauseFn()
	}
}

// Release unlocks l. It is a programming error to call Release on a Lock
// the calling CPU does not hold; like a real spinlock this is not checked
// beyond the underlying CAS semantics.
func (l *Lock) Release() {
	atomic.StoreUint32(&l.locked, 0)
	popCliFn()
}

// Holding reports whether l is currently held by some CPU. It exists
// purely for invariant-checking code (e.g. sleep requires the caller to
// already hold a different lock) and must not be used to implement
// try-lock semantics: the result is stale the instant it is read.
func (l *Lock) Holding() bool {
	return atomic.LoadUint32(&l.locked) != 0
}
