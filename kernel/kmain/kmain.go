// Package kmain fixes the boot-time initialization order spec.md §9 names
// (C3 through C10, in dependency order) and starts the scheduler. It is
// the only package that imports every other core package; nothing in
// kernel/ imports kmain back.
package kmain

import (
	"unsafe"

	"smpkernel/kernel"
	"smpkernel/kernel/apic"
	"smpkernel/kernel/cpu"
	"smpkernel/kernel/gdt"
	"smpkernel/kernel/kfmt/early"
	"smpkernel/kernel/mem"
	"smpkernel/kernel/mem/pmm"
	"smpkernel/kernel/mem/vmm"
	"smpkernel/kernel/proc"
	"smpkernel/kernel/smp"
	"smpkernel/kernel/trap"
)

var errKmainReturned = &kernel.Error{Module: "kmain", Message: "Kmain returned"}

// InitCode is the first user program's machine image. Producing it is part
// of the boot-loader handoff spec.md §1 names as out of scope; a real boot
// image overwrites this slice before Kmain runs. Left at its default, it
// is a single `jmp $`, just enough for UserInit to map a runnable ring-3
// process without a real payload to supply.
var InitCode = []byte{0xEB, 0xFE}

// apEntryPA is the physical address, below 1 MiB, that the boot loader is
// expected to have already loaded with the 16-bit real-mode-to-long-mode
// trampoline apic.StartAP's STARTUP IPI targets. That trampoline runs in
// CPU modes (16-bit real mode, then 32-bit protected mode) the Go
// assembler has no way to target; like InitCode, it is an image this
// module consumes rather than one it builds. The trampoline's contract
// with this module is simply: reload CR3 to vmm.KernelPML4, load the
// shared GDT and IDT, and call APEntry with this processor's dense index.
const apEntryPA = 0x7000

// gsSlot holds each CPU's dense index; cpu.WriteGSBase points GS:0 at the
// slot for the running CPU so cpu.GSID() is a single load instead of a
// table lookup keyed by APIC id.
var gsSlot [mem.MaxCPU]uint32

func setGSID(cpuIndex uint32) {
	gsSlot[cpuIndex] = cpuIndex
	cpu.WriteGSBase(uintptr(unsafe.Pointer(&gsSlot[cpuIndex])))
}

// inventory is the CPU/APIC map Discover published; startAPs and APEntry
// both need it, the latter after control has moved to another processor,
// so it is kept here rather than threaded through as a parameter.
var inventory smp.Inventory

// Kmain runs once, on the boot processor, after a boot stub (outside this
// module, per the boot-loader-handoff non-goal) has reached 64-bit mode
// with a temporary stack and calls in with the linker-provided extent of
// the kernel image.
//
//go:noinline
func Kmain(kernelEnd, kernelData mem.VirtAddr) {
	mem.KernEnd = kernelEnd
	mem.KernData = kernelData

	early.Printf("booting\n")

	pmm.Init(kernelEnd, mem.KernBase+mem.VirtAddr(mem.PhysTop))

	var err error
	if err = vmm.InitKVM(); err != nil {
		kernel.Panic(err)
	}

	gdt.InitBoot(0)
	setGSID(0)

	inventory, err = smp.Discover()
	if err != nil {
		kernel.Panic(err)
	}
	if len(inventory.CPUs) == 0 || len(inventory.CPUs) > mem.MaxCPU {
		kernel.Panic(&kernel.Error{Module: "kmain", Message: "MP discovery reported an unusable CPU count"})
	}

	bringUpCPU(0, uintptr(inventory.LAPICAddr))

	trap.WakeupFn = proc.Wakeup

	proc.UserInit(InitCode)

	early.Printf("starting %d cpus\n", len(inventory.CPUs))
	for _, c := range inventory.CPUs {
		if c.Index == 0 {
			continue
		}
		apic.StartAP(c.APICID, apEntryPA)
	}

	cpu.EnableInterrupts()
	proc.Scheduler()

	kernel.Panic(errKmainReturned)
}

// APEntry is where the boot loader's trampoline at apEntryPA hands off
// once an application processor reaches long mode and has reloaded CR3 to
// vmm.KernelPML4. It brings the AP to the same state Kmain brought the
// boot processor to: its own GDT/TSS, the IDT, its own LAPIC, then the
// scheduler, from which it never returns.
//
//go:noinline
func APEntry(cpuIndex uint32) {
	gdt.InitBoot(cpuIndex)
	setGSID(cpuIndex)

	bringUpCPU(cpuIndex, uintptr(inventory.LAPICAddr))

	cpu.EnableInterrupts()
	proc.Scheduler()
}

// bringUpCPU allocates a kernel stack, builds the real per-CPU GDT/TSS,
// installs the shared IDT, and programs this CPU's local APIC. Kmain and
// APEntry share it so the boot processor and every AP go through the
// identical sequence.
func bringUpCPU(cpuIndex uint32, lapicAddr uintptr) {
	vmm.SwitchKVM()

	stack, ok := pmm.Alloc()
	if !ok {
		kernel.Panic(&kernel.Error{Module: "kmain", Message: "no free page for cpu kernel stack"})
	}
	kstack := uintptr(stack) + uintptr(mem.PageSize)

	gdt.Init(cpuIndex, kstack)
	trap.Init()
	apic.Init(lapicAddr)

	if cpuIndex == 0 {
		apic.InitIOAPIC(uintptr(inventory.IOAPICAddr), inventory.IOAPICID)
		apic.EnableIRQ(1, apic.ID()) // IRQ1: PS/2 keyboard, routed to the boot CPU only
	}
}
