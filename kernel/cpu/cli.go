// +build amd64

package cpu

import "smpkernel/kernel/mem"

// cliState tracks nested interrupt-disable depth for one CPU. Every CPU
// only ever touches its own slot (indexed by GSID), so no lock is needed.
type cliState struct {
	ncli   uint32
	intena bool
}

var cliDepth [mem.MaxCPU]cliState

// PushCli disables interrupts, incrementing this CPU's nesting depth. The
// outermost call records whether interrupts were enabled beforehand so that
// the matching PopCli can restore the flag exactly.
func PushCli() {
	enabled := InterruptsEnabled()
	DisableInterrupts()

	st := &cliDepth[GSID()]
	if st.ncli == 0 {
		st.intena = enabled
	}
	st.ncli++
}

// PopCli decrements this CPU's nesting depth, restoring the interrupt flag
// to what it was before the outermost PushCli once the depth reaches zero.
// Calling PopCli with interrupts already enabled, or without a matching
// PushCli, is a programming error.
func PopCli() {
	if InterruptsEnabled() {
		panic("cpu: PopCli called with interrupts enabled")
	}

	st := &cliDepth[GSID()]
	if st.ncli == 0 {
		panic("cpu: PopCli without matching PushCli")
	}

	st.ncli--
	if st.ncli == 0 && st.intena {
		EnableInterrupts()
	}
}

// NCli returns this CPU's current interrupt-disable nesting depth.
func NCli() uint32 {
	return cliDepth[GSID()].ncli
}
