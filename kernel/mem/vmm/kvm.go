package vmm

import (
	"unsafe"

	"smpkernel/kernel"
	"smpkernel/kernel/cpu"
	"smpkernel/kernel/mem"
	"smpkernel/kernel/mem/pmm"
)

// KernelPML4 is the page table every CPU loads via SwitchKVM whenever it is
// not running a user process. It is built once by InitKVM on the BSP.
var KernelPML4 *Table

// NewPML4 allocates and zeroes a fresh, empty top-level page table.
func NewPML4() (*Table, error) {
	page, ok := pmm.Alloc()
	if !ok {
		return nil, &kernel.Error{Module: "vmm", Message: "NewPML4: out of memory"}
	}
	mem.Memset(uintptr(page), 0, mem.PageSize)
	return (*Table)(unsafe.Pointer(uintptr(page))), nil
}

// SetupKVM installs the kernel's linear map into pml4: the four mapping
// tuples of spec.md §3. The first three tuples' boundaries (ExtMem,
// KernData) are arbitrary link-time values with no guaranteed 2 MiB
// alignment, so they are mapped 4 KiB at a time like a user address space;
// the fourth tuple, the MMIO device window, is naturally 2 MiB-aligned
// (DevBase, DevSpace and its 0x02000000 span are all multiples of
// mem.HugePageSize) and is mapped with 2 MiB leaves, per spec.md §4.2's
// huge-page note.
func SetupKVM(pml4 *Table) error {
	kd := mem.VirtAddr(mem.AlignUp(uintptr(mem.KernData)))

	tuples := [4]struct {
		va       mem.VirtAddr
		pa       mem.PhysAddr
		size     mem.Size
		flags    Flag
		pageSize mem.Size
	}{
		{mem.KernBase, 0, mem.Size(mem.ExtMem), FlagWritable, mem.PageSize},
		{mem.KernBase + mem.VirtAddr(mem.ExtMem), mem.PhysAddr(mem.ExtMem), mem.Size(uint64(mem.V2P(kd)) - mem.ExtMem), 0, mem.PageSize},
		{kd, mem.V2P(kd), mem.Size(mem.PhysTop - uint64(mem.V2P(kd))), FlagWritable, mem.PageSize},
		{mem.DevBase, mem.DevSpace, mem.Size(0x100000000 - mem.DevSpace), FlagWritable | FlagWriteThrough | FlagCacheDisable, mem.HugePageSize},
	}

	for _, t := range tuples {
		if t.size == 0 {
			continue
		}
		if err := Map(pml4, t.va, t.size, t.pa, t.flags, t.pageSize); err != nil {
			return err
		}
	}
	return nil
}

// InitKVM builds the singleton KernelPML4 and installs it as this CPU's
// address space. It must be called once, on the BSP, before any other CPU
// is brought up.
func InitKVM() error {
	pml4, err := NewPML4()
	if err != nil {
		return err
	}
	if err := SetupKVM(pml4); err != nil {
		return err
	}
	KernelPML4 = pml4
	SwitchKVM()
	return nil
}

// SwitchKVM loads CR3 with the kernel's own page table. Every CPU calls
// this whenever it is not about to run a user process (the scheduler calls
// it right after a process yields back to it).
func SwitchKVM() {
	cpu.LoadCR3(uintptr(physAddrOf(KernelPML4)))
}

// PhysAddrOf exposes physAddrOf to other kernel packages (the proc package
// needs it to load CR3 for a process's own PML4 in switch_uvm).
func PhysAddrOf(t *Table) mem.PhysAddr { return physAddrOf(t) }
