package vmm

import (
	"unsafe"

	"smpkernel/kernel/mem"
)

// Table is one level of the page-table hierarchy: 512 eight-byte entries,
// exactly one page in size. A PML4 is a Table, and so is every PDPT, PD and
// PT it points to.
type Table struct {
	entries [mem.EntryCount]Entry
}

// index extracts the 9-bit index for level (4=PML4 ... 1=PT) out of a
// virtual address. Bits 47:39 select the PML4 entry, 38:30 the PDPT entry,
// 29:21 the PD entry, 20:12 the PT entry.
func index(va mem.VirtAddr, level int) uint64 {
	shift := uint(12 + 9*(level-1))
	return (uint64(va) >> shift) & 0x1FF
}

// tableAt reinterprets the page at physical address pa (already mapped
// through the kernel's linear map) as a Table.
func tableAt(pa mem.PhysAddr) *Table {
	return (*Table)(unsafe.Pointer(uintptr(mem.P2V(pa))))
}

// physAddrOf returns the physical address of a Table allocated out of the
// page allocator, so it can be loaded into CR3 or installed into a parent
// entry.
func physAddrOf(t *Table) mem.PhysAddr {
	return mem.V2P(mem.VirtAddr(uintptr(unsafe.Pointer(t))))
}
