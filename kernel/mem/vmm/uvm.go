package vmm

import (
	"smpkernel/kernel"
	"smpkernel/kernel/mem"
	"smpkernel/kernel/mem/pmm"
)

// InitUVM seeds a brand-new user address space with a single 4 KiB page at
// virtual address 0, containing src. It exists only to load the first user
// process's tiny initial image (spec.md §4.2); src must be smaller than one
// page.
func InitUVM(pml4 *Table, src []byte) error {
	if mem.Size(len(src)) >= mem.PageSize {
		return &kernel.Error{Module: "vmm", Message: "init_uvm: image larger than one page"}
	}

	page, ok := pmm.Alloc()
	if !ok {
		return &kernel.Error{Module: "vmm", Message: "init_uvm: out of memory"}
	}
	mem.Memset(uintptr(page), 0, mem.PageSize)
	mem.CopyBytes(uintptr(page), src)

	return Map(pml4, 0, mem.PageSize, mem.V2P(page), FlagWritable|FlagUser, mem.PageSize)
}
