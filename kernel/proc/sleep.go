package proc

import (
	"smpkernel/kernel"
	"smpkernel/kernel/spinlock"
)

// Sleep puts the calling process to sleep on chan, releasing lk for the
// duration and reacquiring it before returning. The caller must already
// hold lk (spec.md §7 lists sleeping with no lock held as a programming
// invariant violation, fatal rather than recoverable); it is not grounded
// in any retrieved source file — original_source/ calls wakeup but never
// defines sleep, so this follows spec.md §4.8's description directly.
func Sleep(chanAddr uintptr, lk *spinlock.Lock) {
	if lk == nil || !lk.Holding() {
		panic(&kernel.Error{Module: "proc", Message: "sleep: caller does not hold lock"})
	}

	p := Self()
	if p == nil {
		panic(&kernel.Error{Module: "proc", Message: "sleep: no current process"})
	}

	// Acquire the table lock before releasing lk, and hold both briefly,
	// so that a wakeup racing in on another CPU cannot run between the
	// release of lk and the process actually going to SLEEPING.
	ptableLock.Acquire()
	lk.Release()

	p.Chan = chanAddr
	p.State = Sleeping

	sched()

	p.Chan = 0

	ptableLock.Release()
	lk.Acquire()
}

// sched hands control back to the scheduler loop on this CPU. It is
// called with ptableLock held and returns with ptableLock still held,
// matching Scheduler's own acquire/release bracketing around its Switch
// call.
func sched() {
	c := CurrentCPU()
	switchFn(&c.Proc.Context, c.Scheduler)
}

// Wakeup marks every process sleeping on chan RUNNABLE. Waking a channel
// nobody is sleeping on is a silent no-op (spec.md §7).
func Wakeup(chanAddr uintptr) {
	ptableLock.Acquire()
	for i := range ptable {
		p := &ptable[i]
		if p.State == Sleeping && p.Chan == chanAddr {
			p.State = Runnable
			p.Chan = 0
		}
	}
	ptableLock.Release()
}
