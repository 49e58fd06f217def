// +build amd64

// Package cpu provides the typed boundary to the handful of instructions
// that cannot be expressed in Go: port I/O, control-register and
// descriptor-table loads, and the segment-base trick used to make
// "which CPU am I" a single memory load. Every function in this file has
// no body; its implementation lives in the matching .s file.
package cpu

import "unsafe"

// EnableInterrupts sets the interrupt flag (STI).
func EnableInterrupts()

// DisableInterrupts clears the interrupt flag (CLI).
func DisableInterrupts()

// InterruptsEnabled reports whether the interrupt flag is currently set.
func InterruptsEnabled() bool

// Halt stops instruction execution until the next interrupt (HLT). It is
// called in a loop by the fatal-error path so that a halted CPU still
// responds to interrupts raised by other CPUs (e.g. a shootdown).
func Halt()

// Pause emits the PAUSE instruction. Spinlock busy loops call this on every
// iteration to reduce memory-order mis-speculation pressure on the core.
func Pause()

// Outb writes a byte to an I/O port.
func Outb(port uint16, val uint8)

// Inb reads a byte from an I/O port.
func Inb(port uint16) uint8

// LoadCR3 loads the page table base register, flushing the non-global TLB
// entries.
func LoadCR3(physAddr uintptr)

// ReadCR3 returns the current page table base register.
func ReadCR3() uintptr

// ReadCR2 returns the faulting linear address recorded by the most recent
// page fault on this CPU.
func ReadCR2() uintptr

// Lgdt loads the GDT register from the descriptor table pointer at ptr.
func Lgdt(ptr unsafe.Pointer)

// Lidt loads the IDT register from the descriptor table pointer at ptr.
func Lidt(ptr unsafe.Pointer)

// Ltr loads the task register with the given segment selector.
func Ltr(selector uint16)

// FlushTLBEntry invalidates a single TLB entry for virtAddr.
func FlushTLBEntry(virtAddr uintptr)

// WriteGSBase points the GS segment base at addr. Called exactly once per
// CPU during bring-up so that every later GSID() call is a single
// GS-relative load instead of a table lookup keyed by APIC id.
func WriteGSBase(addr uintptr)

// GSID reads the dense, boot-assigned CPU index stored at GS:0.
func GSID() uint32

// ReloadSegments reloads CS via a far return and DS/ES/SS with flat data
// selector ds. Called once right after Lgdt so the processor picks up
// descriptors from the newly loaded table instead of the ones it booted
// with.
func ReloadSegments(cs, ds uint16)
