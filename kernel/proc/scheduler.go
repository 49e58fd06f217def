package proc

import (
	"unsafe"

	"smpkernel/kernel/cpu"
	"smpkernel/kernel/gdt"
	"smpkernel/kernel/mem"
	"smpkernel/kernel/mem/vmm"
)

// Local is one CPU's scheduler-private state, indexed by cpu.GSID() (the
// dense boot-assigned CPU index, not the APIC id). It lives here rather
// than in the cpu package because cpu.GSID is a leaf primitive that must
// not know about processes.
type Local struct {
	// Scheduler holds the scheduler loop's own saved context while a
	// process is running. Switch writes into this field through a
	// pointer-to-pointer, the same way xv6's cpu->scheduler works: the
	// field starts nil and Switch populates it with the address of the
	// scheduler goroutine's own stack frame the first time it runs.
	Scheduler *Context
	Proc      *Proc
}

var cpus [mem.MaxCPU]Local

// gsidFn is swapped out by tests; the real cpu.GSID reads a segment base
// register that is only meaningful once WriteGSBase has run on real
// hardware.
var gsidFn = cpu.GSID

// CurrentCPU returns this CPU's Local state.
func CurrentCPU() *Local {
	return &cpus[gsidFn()]
}

// Self returns the process currently running on this CPU, or nil if the
// CPU is idling in the scheduler.
func Self() *Proc {
	return CurrentCPU().Proc
}

// switchUVMFn and switchKVMFn are swapped out by tests; the real ones load
// CR3, which only makes sense on real hardware. switchFn is swapped out
// for the same reason as the other two, but for a stronger reason beyond
// hardware access: the real Switch swaps the CPU's stack pointer out from
// under the calling goroutine, which only makes sense when that goroutine
// is actually a kernel call stack manufactured by AllocProc, not a hosted
// test's own stack.
var (
	switchUVMFn        = switchUVM
	switchKVMFn        = vmm.SwitchKVM
	switchFn           = Switch
	enableInterruptsFn = cpu.EnableInterrupts
	setStackFn         = gdt.SetStack
)

func switchUVM(p *Proc) {
	cpu.LoadCR3(uintptr(vmm.PhysAddrOf(p.PML4)))
}

// funcPC returns a Go function value's entry point, the same trick
// kernel/trap uses to get an address for its body-less assembly stubs.
func funcPC(f func()) uintptr {
	return **(**uintptr)(unsafe.Pointer(&f))
}

func trapRetAddr() uintptr { return funcPC(TrapRet) }
func forkRetAddr() uint64  { return uint64(funcPC(ForkRet)) }

// ForkRet is the address AllocProc plants in a brand-new process's
// Context.RIP. Switch's "ret" jumps here directly rather than calling it,
// leaving SP pointing at the single return-address word AllocProc wrote
// just above the Context — the address of TrapRet. ForkRet's own ordinary
// return then lands there, which is what makes this work with a plain Go
// function body instead of hand-written assembly: the compiler's epilogue
// performs exactly the RET that the manufactured stack expects.
//
// go:nosplit keeps the compiler from inserting a stack-growth check ahead
// of that epilogue; this runs on a brand-new kernel stack with nothing
// else below it to grow into.
//
//go:nosplit
func ForkRet() {
	ptableLock.Release()
}

// Scheduler runs forever on the calling CPU, repeating schedulerPass.
func Scheduler() {
	for {
		schedulerPass()
	}
}

// schedulerPass is one trip around the process table: enable interrupts,
// then switch into each RUNNABLE slot in turn before releasing the table
// lock. Round-robin, no priorities, no preemption: the pass moves on to the
// next slot only once the running process hands the CPU back through sched
// (for example by sleeping). Split out of Scheduler so a test can drive exactly one
// pass instead of an infinite loop.
func schedulerPass() {
	c := CurrentCPU()

	enableInterruptsFn()

	ptableLock.Acquire()
	for i := range ptable {
		p := &ptable[i]
		if p.State != Runnable {
			continue
		}

		c.Proc = p
		switchUVMFn(p)
		setStackFn(gsidFn(), uintptr(p.KStack)+uintptr(mem.PageSize))
		p.State = Running

		switchFn(&c.Scheduler, p.Context)

		switchKVMFn()
		c.Proc = nil
	}
	ptableLock.Release()
}
