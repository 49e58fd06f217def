package vmm

import (
	"smpkernel/kernel"
	"smpkernel/kernel/mem"
	"smpkernel/kernel/mem/pmm"
)

// walk descends pml4 to the entry that would hold leafLevel's translation of
// va (4=PML4, 3=PDPT, 2=PD, 1=PT), allocating intermediate tables along the
// way when create is true. It never allocates the leaf itself; the caller
// installs that entry.
func walk(pml4 *Table, va mem.VirtAddr, leafLevel int, create bool) (*Entry, error) {
	tbl := pml4
	for level := 4; level > leafLevel; level-- {
		entry := &tbl.entries[index(va, level)]
		if !entry.Present() {
			if !create {
				return nil, nil
			}
			page, ok := pmm.Alloc()
			if !ok {
				return nil, &kernel.Error{Module: "vmm", Message: "walk: out of memory"}
			}
			mem.Memset(uintptr(page), 0, mem.PageSize)
			entry.Set(mem.V2P(page), FlagPresent|FlagWritable|FlagUser)
		}
		tbl = tableAt(entry.Addr())
	}
	return &tbl.entries[index(va, leafLevel)], nil
}

// Walk is the read-only counterpart used by tests and by fault handlers
// that only need to inspect a translation: it never allocates and returns
// (nil, nil) if any level along the path is not present.
func Walk(pml4 *Table, va mem.VirtAddr, leafLevel int) (*Entry, error) {
	return walk(pml4, va, leafLevel, false)
}

// Map installs [va, va+size) → [pa, pa+size) into pml4 using leafSize pages
// (either mem.PageSize for a 4 KiB mapping or mem.HugePageSize for a 2 MiB
// one). It is a programming error to map over an already-present leaf;
// Map panics in that case rather than silently clobbering a translation.
//
// The boundary is inclusive of the last page that contains va+size-1, so a
// size of exactly one page maps exactly one leaf entry.
func Map(pml4 *Table, va mem.VirtAddr, size mem.Size, pa mem.PhysAddr, flags Flag, leafSize mem.Size) error {
	leafLevel := 1
	if leafSize == mem.HugePageSize {
		leafLevel = 2
		flags |= FlagPageSize
	}

	a := va.AlignDownN(leafSize)
	last := (a + mem.VirtAddr(size) - 1).AlignDownN(leafSize)
	p := pa

	for a <= last {
		entry, err := walk(pml4, a, leafLevel, true)
		if err != nil {
			return err
		}
		if entry.Present() {
			panic(&kernel.Error{Module: "vmm", Message: "map: remap of an existing mapping"})
		}
		entry.Set(p, flags|FlagPresent)

		a += mem.VirtAddr(leafSize)
		p += mem.PhysAddr(leafSize)
	}
	return nil
}
