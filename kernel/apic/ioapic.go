package apic

import (
	"unsafe"

	"smpkernel/kernel/spinlock"
)

// I/O APIC registers, selected indirectly through the index/data window
// rather than addressed directly like the LAPIC's.
const (
	ioregID    = 0x00
	ioregVER   = 0x01
	ioregTable = 0x10
)

const ioIntDisabled = 0x00010000

// ioapicRegs mirrors the {index, pad[3], data} MMIO layout spec.md §4.5
// describes: writing index selects a register, then data reads or writes
// it.
type ioapicRegs struct {
	index uint32
	_     [3]uint32
	data  uint32
}

var (
	ioapicLock spinlock.Lock
	ioapicBase uintptr
)

// ioWriteFn and ioReadFn are swapped out by tests, the same way smp.readPhysFn
// stands in for real BIOS memory: real hardware has no addressable state a
// host test process can seed ahead of time, so tests replace the index/data
// window with a map keyed by register.
var (
	ioWriteFn = ioWriteMMIO
	ioReadFn  = ioReadMMIO
)

func ioregs() *ioapicRegs {
	return (*ioapicRegs)(unsafe.Pointer(ioapicBase))
}

func ioWriteMMIO(reg uint32, data uint32) {
	r := ioregs()
	r.index = reg
	r.data = data
}

func ioReadMMIO(reg uint32) uint32 {
	r := ioregs()
	r.index = reg
	return r.data
}

// InitIOAPIC points the I/O APIC at its MMIO window (physical 0xFEC00000,
// mapped through the device window) and masks every redirection entry,
// routing none of them to any CPU. wantID must equal the I/O APIC id MP
// discovery reported; a mismatch means the machine isn't the SMP
// configuration the caller expects.
func InitIOAPIC(addr uintptr, wantID uint8) {
	ioapicLock.Acquire()
	defer ioapicLock.Release()

	ioapicBase = addr

	maxIntr := (ioReadFn(ioregVER) >> 16) & 0xFF
	id := ioReadFn(ioregID) >> 24
	if id != uint32(wantID) {
		panic("apic: I/O APIC id does not match MP configuration")
	}

	for i := uint32(0); i <= maxIntr; i++ {
		ioWriteFn(ioregTable+2*i, ioIntDisabled|(T_IRQ0+i))
		ioWriteFn(ioregTable+2*i+1, 0)
	}
}

// EnableIRQ routes irq to cpuNum (that CPU's local APIC id), edge-triggered
// and active-high.
func EnableIRQ(irq uint32, cpuNum uint32) {
	ioapicLock.Acquire()
	defer ioapicLock.Release()

	ioWriteFn(ioregTable+2*irq, T_IRQ0+irq)
	ioWriteFn(ioregTable+2*irq+1, cpuNum<<24)
}
