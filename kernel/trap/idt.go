package trap

import (
	"unsafe"

	"smpkernel/kernel/cpu"
	"smpkernel/kernel/gdt"
)

// Gate type-attribute byte fields: present, descriptor privilege level,
// and the 64-bit interrupt-gate type (0xE). A present interrupt gate
// clears IF on entry, unlike a trap gate; every vector here uses one.
const (
	gatePresent     = 0x80
	gateInterrupt64 = 0x0E
	dpl0            = 0x00
	dpl3            = 0x60
)

// T_IRQ0 is the IDT vector the first external IRQ is routed to; T_SYSCALL
// is the ring-3-callable software interrupt vector. IRQ_TIMER and IRQ_KBD
// are offsets from T_IRQ0, matching the I/O APIC's redirection table
// indices.
const (
	T_IRQ0    = 32
	IRQ_TIMER = 0
	IRQ_KBD   = 1
	T_SYSCALL = 64
)

// gateEntry is one 16-byte long-mode interrupt-gate descriptor.
type gateEntry struct {
	low, high uint64
}

func newGate(offset uint64, selector uint16, ist, typeAttr uint8) gateEntry {
	low := offset&0xFFFF |
		uint64(selector)<<16 |
		uint64(ist&0x7)<<32 |
		uint64(typeAttr)<<40 |
		(offset>>16&0xFFFF)<<48
	return gateEntry{low: low, high: offset >> 32}
}

var idt [256]gateEntry

// funcPC returns a Go function value's entry point. The first machine word
// of a func value is its code pointer; every vector stub below is declared
// with no body (its code lives in trap_amd64.s), so this is the only way
// to get an address to hand to newGate without exporting a separate
// assembly symbol-table lookup for each one.
func funcPC(f func()) uintptr {
	return **(**uintptr)(unsafe.Pointer(&f))
}

type descriptorPtr struct {
	limit uint16
	base  uint64
}

var lidtFn = cpu.Lidt

// Init builds the interrupt descriptor table and loads it. Vectors this
// kernel never routes a handler to (every device IRQ above IRQ_KBD, and
// the exception vectors idt.rs itself leaves unset) stay present=0 in a
// freshly zeroed table; taking one of them raises a segment-not-present
// fault (vector 11), which Dispatch reports before halting.
func Init() {
	set := func(vec int, stub func(), ist, dpl uint8) {
		idt[vec] = newGate(uint64(funcPC(stub)), gdt.Selector(gdt.KernelCode, 0), ist, gatePresent|dpl|gateInterrupt64)
	}

	set(0, vectorDivideByZero, 0, dpl0)
	set(1, vectorDebug, 0, dpl0)
	set(2, vectorNMI, 0, dpl0)
	set(3, vectorBreakpoint, 0, dpl0)
	set(4, vectorOverflow, 0, dpl0)
	set(5, vectorBoundRange, 0, dpl0)
	set(6, vectorInvalidOpcode, 0, dpl0)
	set(7, vectorDeviceNotAvailable, 0, dpl0)
	set(8, vectorDoubleFault, 1, dpl0) // IST1: double faults always run on their own stack.
	set(10, vectorInvalidTSS, 0, dpl0)
	set(11, vectorSegmentNotPresent, 0, dpl0)
	set(12, vectorStackSegmentFault, 0, dpl0)
	set(13, vectorGeneralProtectionFault, 0, dpl0)
	set(14, vectorPageFault, 0, dpl0)
	set(17, vectorAlignmentCheck, 0, dpl0)
	set(T_IRQ0+IRQ_TIMER, vectorTimer, 0, dpl0)
	set(T_IRQ0+IRQ_KBD, vectorKeyboard, 0, dpl0)
	set(T_SYSCALL, vectorSyscall, 0, dpl3)

	ptr := descriptorPtr{
		limit: uint16(len(idt))*16 - 1,
		base:  uint64(uintptr(unsafe.Pointer(&idt[0]))),
	}
	lidtFn(unsafe.Pointer(&ptr))
}
