package gdt

import (
	"unsafe"

	"smpkernel/kernel/cpu"
	"smpkernel/kernel/mem"
)

// Selector indices into the per-CPU GDT, per spec.md §4.6's nine-entry
// layout. TSS occupies two consecutive slots since a 64-bit TSS descriptor
// is 16 bytes.
const (
	Null = iota
	KernelCode
	KernelData
	KernelTLS
	UserCode
	UserData
	UserTLS
	TSSLow
	TSSHigh
	NumEntries
)

// Selector returns the segment selector for a GDT index at the given ring
// (0 or 3), i.e. index*8 with the RPL bits set.
func Selector(index int, ring uint16) uint16 {
	return uint16(index*8) | ring
}

// TSS is the 64-bit task state segment. Only RSP0 (the ring-0 stack
// pointer loaded on a ring-3-to-ring-0 trap) and IST1 (the double-fault
// stack) are used by this kernel; the I/O permission bitmap is unused and
// ioMapBase points past the segment limit so every port is treated as
// privileged.
type TSS struct {
	reserved0 uint32
	RSP       [3]uint64
	reserved1 uint64
	IST       [7]uint64
	reserved2 uint64
	reserved3 uint16
	ioMapBase uint16
}

// perCPU bundles one CPU's bootstrap GDT, real GDT, and TSS. The bootstrap
// GDT exists only so the processor has valid CS/DS selectors to run under
// while the real, per-CPU GDT (which in turn needs a valid stack and
// memory allocated for this CPU) is being built.
type perCPU struct {
	bootGDT [4]Entry
	gdt     [NumEntries]Entry
	tss     TSS
}

var cpus [mem.MaxCPU]perCPU

// lgdtFn, reloadFn and ltrFn are swapped out by tests so the packed table
// contents can be checked without executing privileged instructions.
var (
	lgdtFn   = cpu.Lgdt
	reloadFn = cpu.ReloadSegments
	ltrFn    = cpu.Ltr
)

type descriptorPtr struct {
	limit uint16
	base  uint64
}

// InitBoot loads a flat 4-entry bootstrap GDT (null, kernel code, kernel
// data, kernel TLS) so that early boot code has valid segment selectors
// before any per-CPU state exists. Real kernels reach this before
// WriteGSBase has even run; it does not touch cpu.GSID().
func InitBoot(cpuIndex uint32) {
	p := &cpus[cpuIndex]
	p.bootGDT = [4]Entry{
		Null:       NewEntry(0, 0, 0, 0),
		KernelCode: NewEntry(0, 0, AccessPresent|AccessRing0|AccessSystem|AccessExec|AccessRW, FlagLongMode),
		KernelData: NewEntry(0, 0, AccessPresent|AccessRing0|AccessSystem|AccessRW, FlagLongMode),
		KernelTLS:  NewEntry(0, 0, AccessPresent|AccessRing0|AccessSystem|AccessRW, FlagLongMode),
	}

	ptr := descriptorPtr{
		limit: uint16(len(p.bootGDT))*8 - 1,
		base:  uint64(uintptr(unsafe.Pointer(&p.bootGDT[0]))),
	}
	lgdtFn(unsafe.Pointer(&ptr))
	reloadFn(Selector(KernelCode, 0), Selector(KernelData, 0))
}

// Init builds cpuIndex's real nine-entry GDT and TSS, loads it, and loads
// the task register. kstack is the top of this CPU's kernel stack, used as
// both TSS.RSP0 and the double-fault IST entry.
func Init(cpuIndex uint32, kstack uintptr) {
	p := &cpus[cpuIndex]

	p.tss = TSS{}
	p.tss.RSP[0] = uint64(kstack)
	p.tss.IST[0] = uint64(kstack)
	p.tss.ioMapBase = uint16(unsafe.Sizeof(TSS{}))

	tssBase := uint64(uintptr(unsafe.Pointer(&p.tss)))
	tssEntry := NewTSSEntry(tssBase, uint32(unsafe.Sizeof(TSS{})-1))

	p.gdt = [NumEntries]Entry{
		Null:       NewEntry(0, 0, 0, 0),
		KernelCode: NewEntry(0, 0, AccessPresent|AccessRing0|AccessSystem|AccessExec|AccessRW, FlagLongMode),
		KernelData: NewEntry(0, 0, AccessPresent|AccessRing0|AccessSystem|AccessRW, FlagLongMode),
		KernelTLS:  NewEntry(0, 0, AccessPresent|AccessRing0|AccessSystem|AccessRW, FlagLongMode),
		UserCode:   NewEntry(0, 0, AccessPresent|AccessRing3|AccessSystem|AccessExec|AccessRW, FlagLongMode),
		UserData:   NewEntry(0, 0, AccessPresent|AccessRing3|AccessSystem|AccessRW, FlagLongMode),
		UserTLS:    NewEntry(0, 0, AccessPresent|AccessRing3|AccessSystem|AccessRW, FlagLongMode),
		TSSLow:     tssEntry.Low,
		TSSHigh:    Entry(tssEntry.High),
	}

	ptr := descriptorPtr{
		limit: uint16(len(p.gdt))*8 - 1,
		base:  uint64(uintptr(unsafe.Pointer(&p.gdt[0]))),
	}
	lgdtFn(unsafe.Pointer(&ptr))
	reloadFn(Selector(KernelCode, 0), Selector(KernelData, 0))
	ltrFn(Selector(TSSLow, 0))
}

// SetStack updates this CPU's TSS.RSP0, the stack the processor switches
// to on a ring-3-to-ring-0 trap. Called whenever the scheduler starts
// running a different process so a trap during its time slice lands on
// that process's kernel stack.
func SetStack(cpuIndex uint32, sp uintptr) {
	cpus[cpuIndex].tss.RSP[0] = uint64(sp)
}
