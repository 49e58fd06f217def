package proc

import (
	"unsafe"

	"smpkernel/kernel"
	"smpkernel/kernel/gdt"
	"smpkernel/kernel/mem"
	"smpkernel/kernel/mem/pmm"
	"smpkernel/kernel/mem/vmm"
	"smpkernel/kernel/spinlock"
	"smpkernel/kernel/trap"
)

// NProc bounds the number of process slots the table holds.
const NProc = 32

// NOFile bounds the number of open-file slots a process carries. The file
// type itself is out of scope (spec.md §1 names it an opaque placeholder
// inside process slots); the slot array exists so AllocProc's layout
// matches a real process table even though nothing ever populates it.
const NOFile = 16

// ProcState is a process's position in its lifecycle.
type ProcState int

const (
	Unused ProcState = iota
	Embryo
	Sleeping
	Runnable
	Running
	Zombie
)

// Proc is one process-table slot. cwd and openFiles are opaque
// placeholders: spec.md explicitly keeps the file/inode types out of
// scope, so they are typed as uintptr here rather than as a real file
// table, and nothing in this package dereferences them.
type Proc struct {
	Sz        uint64
	PML4      *vmm.Table
	KStack    mem.VirtAddr
	State     ProcState
	PID       uint64
	Parent    *Proc
	TF        *trap.Frame
	Context   *Context
	Chan      uintptr
	Killed    bool
	OpenFiles [NOFile]uintptr
	Cwd       uintptr
	Name      string
}

func (p *Proc) isUnused() bool { return p.State == Unused }

var (
	ptableLock spinlock.Lock
	ptable     [NProc]Proc
	nextPID    uint64 = 1
)

// AllocProc finds an UNUSED slot, marks it EMBRYO, allocates its kernel
// stack, and lays out a trap frame and a Context on that stack so that the
// first Switch into this process falls through ForkRet into TrapRet. It
// returns nil if the table is full or the kernel stack allocation fails.
//
// The table lock is held only long enough to claim a slot (spec.md §4.8);
// the heavier per-slot setup below runs unlocked, since nothing else can
// see an EMBRYO slot as a candidate to schedule or reuse.
func AllocProc() *Proc {
	ptableLock.Acquire()
	var p *Proc
	for i := range ptable {
		if ptable[i].isUnused() {
			p = &ptable[i]
			break
		}
	}
	if p == nil {
		ptableLock.Release()
		return nil
	}
	p.State = Embryo
	p.PID = nextPID
	nextPID++
	ptableLock.Release()

	stack, ok := pmm.Alloc()
	if !ok {
		p.State = Unused
		return nil
	}
	p.KStack = stack

	sp := uintptr(stack) + uintptr(mem.PageSize)

	sp -= unsafe.Sizeof(trap.Frame{})
	p.TF = (*trap.Frame)(unsafe.Pointer(sp))

	sp -= unsafe.Sizeof(uintptr(0))
	*(*uintptr)(unsafe.Pointer(sp)) = trapRetAddr()

	sp -= unsafe.Sizeof(Context{})
	ctx := (*Context)(unsafe.Pointer(sp))
	*ctx = Context{}
	ctx.RIP = forkRetAddr()
	p.Context = ctx

	return p
}

// UserInit builds the very first process: a zeroed address space with the
// kernel mapping installed, the initial user image loaded at virtual 0,
// and a trap frame that will iretq to ring 3 at rip=0 with interrupts
// enabled.
func UserInit(initcode []byte) *Proc {
	p := AllocProc()
	if p == nil {
		panic(&kernel.Error{Module: "proc", Message: "user_init: alloc_proc failed"})
	}

	pml4, err := vmm.NewPML4()
	if err != nil {
		panic(&kernel.Error{Module: "proc", Message: "user_init: pml4 alloc failed"})
	}
	p.PML4 = pml4

	if err := vmm.SetupKVM(pml4); err != nil {
		panic(&kernel.Error{Module: "proc", Message: "user_init: setup_kvm failed"})
	}
	if err := vmm.InitUVM(pml4, initcode); err != nil {
		panic(&kernel.Error{Module: "proc", Message: "user_init: init_uvm failed"})
	}

	p.Sz = uint64(mem.PageSize)
	p.Name = "initcode"

	p.TF.CS = uint64(gdt.Selector(gdt.UserCode, 3))
	p.TF.SS = uint64(gdt.Selector(gdt.UserData, 3))
	p.TF.RIP = 0
	p.TF.RSP = uint64(mem.PageSize)
	p.TF.RFLAGS = 0x200

	p.State = Runnable
	return p
}
