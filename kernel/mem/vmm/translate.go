package vmm

import "smpkernel/kernel/mem"

// Translation is the result of resolving a virtual address: the physical
// frame it maps to (valid only if Present), the flags on its leaf entry,
// and whether it resolved to a huge (2 MiB) or regular (4 KiB) leaf.
type Translation struct {
	PhysAddr mem.PhysAddr
	Flags    Flag
	Present  bool
	Huge     bool
}

// Translate resolves va against pml4 without allocating, trying a 2 MiB
// leaf first (the device window's granularity) and falling back to a
// 4 KiB leaf (the kernel linear map and user mappings). This mirrors what a hardware page-walk would
// do and is what the test suite uses to check S2/invariant 5 without
// touching CR3.
func Translate(pml4 *Table, va mem.VirtAddr) Translation {
	if pdEntry, _ := Walk(pml4, va, 2); pdEntry != nil && pdEntry.Present() && pdEntry.HasFlags(FlagPageSize) {
		offset := mem.PhysAddr(uintptr(va) & (uintptr(mem.HugePageSize) - 1))
		return Translation{
			PhysAddr: pdEntry.Addr() + offset,
			Flags:    pdEntry.Flags() &^ FlagPageSize,
			Present:  true,
			Huge:     true,
		}
	}

	ptEntry, _ := Walk(pml4, va, 1)
	if ptEntry == nil || !ptEntry.Present() {
		return Translation{}
	}
	offset := mem.PhysAddr(uintptr(va) & (uintptr(mem.PageSize) - 1))
	return Translation{
		PhysAddr: ptEntry.Addr() + offset,
		Flags:    ptEntry.Flags(),
		Present:  true,
	}
}
