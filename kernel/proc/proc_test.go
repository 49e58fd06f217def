package proc

import (
	"testing"
	"unsafe"

	"smpkernel/kernel/mem"
	"smpkernel/kernel/mem/pmm"
)

// resetPTable clears package-level process-table state between tests.
func resetPTable(t *testing.T) {
	t.Helper()
	ptableLock.Acquire()
	for i := range ptable {
		ptable[i] = Proc{}
	}
	nextPID = 1
	ptableLock.Release()

	// Seed the page allocator with a throwaway range so AllocProc's
	// kernel-stack allocation has somewhere to pull from; same fabricated
	// range kernel/mem/pmm's own tests use.
	const start = mem.VirtAddr(0xFFFFFFFF80400000)
	const end = mem.VirtAddr(0xFFFFFFFF80800000)
	pmm.Init(start, end)
}

func TestAllocProcClaimsSlotAndAssignsPID(t *testing.T) {
	resetPTable(t)

	p := AllocProc()
	if p == nil {
		t.Fatal("expected a free slot")
	}
	if p.State != Embryo {
		t.Fatalf("state = %v; want Embryo", p.State)
	}
	if p.PID != 1 {
		t.Fatalf("pid = %d; want 1", p.PID)
	}

	p2 := AllocProc()
	if p2 == nil || p2.PID != 2 {
		t.Fatal("expected a second slot with pid 2")
	}
}

func TestAllocProcLaysOutStackForForkRet(t *testing.T) {
	resetPTable(t)

	p := AllocProc()
	if p == nil {
		t.Fatal("expected a free slot")
	}

	if p.Context == nil {
		t.Fatal("expected a Context to be carved off the new stack")
	}
	if p.Context.RIP != forkRetAddr() {
		t.Fatalf("context.rip = %#x; want ForkRet at %#x", p.Context.RIP, forkRetAddr())
	}
	if p.Context.R11 != 0 || p.Context.RBP != 0 || p.Context.RBX != 0 {
		t.Fatal("expected a freshly built Context to have zeroed callee-saved registers")
	}

	if p.TF == nil {
		t.Fatal("expected a trap frame to be carved off the new stack")
	}

	retSlot := uintptr(unsafe.Pointer(p.Context)) + unsafe.Sizeof(Context{})
	if got := *(*uintptr)(unsafe.Pointer(retSlot)); got != trapRetAddr() {
		t.Fatalf("return-address slot above Context = %#x; want TrapRet at %#x", got, trapRetAddr())
	}
}

func TestAllocProcTableFullReturnsNil(t *testing.T) {
	resetPTable(t)

	for i := 0; i < NProc; i++ {
		if AllocProc() == nil {
			t.Fatalf("unexpected nil at slot %d", i)
		}
	}
	if AllocProc() != nil {
		t.Fatal("expected nil once every slot is taken")
	}
}

func TestUserInitBuildsRunnableRing3Process(t *testing.T) {
	resetPTable(t)

	initcode := []byte{0x90, 0x90, 0xEB, 0xFE} // nop; nop; jmp $
	p := UserInit(initcode)

	if p.State != Runnable {
		t.Fatalf("state = %v; want Runnable", p.State)
	}
	if p.Sz != uint64(mem.PageSize) {
		t.Fatalf("sz = %d; want %d", p.Sz, mem.PageSize)
	}
	if p.TF.CS&3 != 3 {
		t.Fatalf("tf.cs = %#x; want a ring-3 selector", p.TF.CS)
	}
	if p.TF.RIP != 0 {
		t.Fatalf("tf.rip = %#x; want 0", p.TF.RIP)
	}
	if p.TF.RSP != uint64(mem.PageSize) {
		t.Fatalf("tf.rsp = %#x; want %#x", p.TF.RSP, uint64(mem.PageSize))
	}
	if p.TF.RFLAGS&0x200 == 0 {
		t.Fatal("expected IF set in the first process's rflags")
	}
	if p.PML4 == nil {
		t.Fatal("expected a PML4 to be installed")
	}
}

func TestSchedulerPassTransitionsRunnableToRunning(t *testing.T) {
	resetPTable(t)
	origGSID, origUVM, origKVM, origSwitch, origStack := gsidFn, switchUVMFn, switchKVMFn, switchFn, setStackFn
	gsidFn = func() uint32 { return 0 }
	switchUVMFn = func(*Proc) {}
	switchKVMFn = func() {}
	setStackFn = func(uint32, uintptr) {}
	var switched bool
	switchFn = func(old **Context, new *Context) { switched = true }
	t.Cleanup(func() {
		gsidFn, switchUVMFn, switchKVMFn, switchFn, setStackFn = origGSID, origUVM, origKVM, origSwitch, origStack
	})

	p := AllocProc()
	p.State = Runnable

	schedulerPass()

	if !switched {
		t.Fatal("expected schedulerPass to switch into the runnable slot")
	}
	if p.State != Running {
		t.Fatalf("state after schedulerPass = %v; want Running", p.State)
	}
	if CurrentCPU().Proc != nil {
		t.Fatal("expected current-proc to be cleared once the mocked switch returns")
	}
}
