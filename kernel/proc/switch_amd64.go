// +build amd64

package proc

// Switch saves the calling goroutine's... except there are no goroutines
// here: it saves the current callee-saved registers onto the current
// stack, records the resulting stack pointer at *old, switches RSP to new,
// and pops the callee-saved registers waiting there. The matching "ret"
// then jumps to whatever RIP sits just above those registers on the new
// stack — either the instruction right after some other CPU's earlier call
// to Switch, or, for a brand-new process, ForkRet's address planted there
// by AllocProc.
func Switch(old **Context, new *Context)

// TrapRet pops the trap frame AllocProc built (or a real trap's alltraps
// left behind) and iretqs into it. It is the second half of the same
// push/pop contract trap_amd64.s's alltraps implements; it exists as its
// own symbol here because a fresh process does not run alltraps's
// prologue first — entry is the manufactured stack Switch's "ret" (inside
// ForkRet's own epilogue) jumps into, not a CALL.
func TrapRet()
