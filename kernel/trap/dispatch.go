package trap

import (
	"unsafe"

	"smpkernel/kernel/apic"
	"smpkernel/kernel/cpu"
	"smpkernel/kernel/kfmt/early"
	"smpkernel/kernel/spinlock"
)

// WakeupFn and KeyboardFn are the hooks the timer and keyboard cases call:
// the scheduler's wakeup primitive (proc.Wakeup, assigned by kmain) and the
// PS/2 scancode decoder, which lives outside this module. trap sets neither
// itself; whichever package owns them assigns these at boot to avoid an
// import cycle (proc needs trap's Frame type for fork_ret; trap must not
// need proc's scheduler to compile).
var (
	WakeupFn   func(channel uintptr)
	KeyboardFn func(scancode uint8)
)

var (
	ticksLock spinlock.Lock
	ticks     uint64
)

// eoiFn and inbFn are swapped out by tests; the real apic/cpu calls touch
// MMIO and port I/O that only make sense on real hardware.
var (
	eoiFn  = apic.EOI
	inbFn  = cpu.Inb
	gsidFn = cpu.GSID
)

// Ticks returns the current tick count. Only CPU 0 advances it.
func Ticks() uint64 {
	ticksLock.Acquire()
	defer ticksLock.Release()
	return ticks
}

func haltLoop(name string, f *Frame) {
	early.Printf("%s at rip=%x cs=%x err=%x\n", name, f.RIP, f.CS, f.ErrCode)
	for {
		cpu.Halt()
	}
}

// Dispatch is alltraps's sole Go-side entry point. It runs with interrupts
// disabled (the gate descriptors here are all interrupt, not trap, gates)
// and on the trapping CPU's kernel stack.
func Dispatch(f *Frame) {
	switch f.TrapNum {
	case 0:
		haltLoop("divide by zero", f)
	case 1:
		haltLoop("debug trap", f)
	case 2:
		haltLoop("non-maskable interrupt", f)
	case 3:
		haltLoop("breakpoint", f)
	case 4:
		haltLoop("overflow", f)
	case 5:
		haltLoop("bound range exceeded", f)
	case 6:
		haltLoop("invalid opcode", f)
	case 7:
		haltLoop("device not available", f)
	case 8:
		haltLoop("double fault", f)
	case 10:
		haltLoop("invalid TSS", f)
	case 11:
		haltLoop("segment not present", f)
	case 12:
		haltLoop("stack segment fault", f)
	case 13:
		haltLoop("general protection fault", f)
	case 14:
		early.Printf("page fault at cr2=%x\n", cpu.ReadCR2())
		haltLoop("page fault", f)
	case 17:
		haltLoop("alignment check", f)

	case T_IRQ0 + IRQ_TIMER:
		if gsidFn() == 0 {
			ticksLock.Acquire()
			ticks++
			if WakeupFn != nil {
				WakeupFn(uintptr(unsafe.Pointer(&ticks)))
			}
			ticksLock.Release()
		}
		eoiFn()

	case T_IRQ0 + IRQ_KBD:
		scancode := inbFn(0x60)
		if KeyboardFn != nil {
			KeyboardFn(scancode)
		}
		eoiFn()

	case T_SYSCALL:
		// Dispatch into the syscall body is out of scope; the vector is
		// routed here so a ring-3 INT 64 returns cleanly instead of
		// faulting.

	default:
		haltLoop("unhandled trap", f)
	}
}
