package vmm

import (
	"smpkernel/kernel/cpu"
	"smpkernel/kernel/mem"
)

// InvalidatePage flushes va's translation from this CPU's TLB. Needed
// whenever a mapping already covered by a loaded CR3 is changed in place
// (e.g. a copy-on-write style remap); plain kalloc/map/kfree traffic during
// address-space setup does not need it since CR3 has not been loaded yet.
func InvalidatePage(va mem.VirtAddr) {
	cpu.FlushTLBEntry(uintptr(va))
}
