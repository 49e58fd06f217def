package vmm

import (
	"testing"

	"smpkernel/kernel/mem"
)

func TestWalkWithoutCreateDoesNotAllocate(t *testing.T) {
	var pml4 Table // zero-valued: nothing present anywhere

	entry, err := Walk(&pml4, mem.VirtAddr(0x1000), 1)
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	if entry != nil {
		t.Fatalf("expected Walk to return nil on an empty table; got %+v", entry)
	}
}

func TestNewPML4IsZeroed(t *testing.T) {
	seedAllocator(t, 4)

	pml4, err := NewPML4()
	if err != nil {
		t.Fatalf("NewPML4: %v", err)
	}

	for i, e := range pml4.entries {
		if e.Present() {
			t.Fatalf("expected a fresh PML4 to have no present entries; entry %d was present", i)
		}
	}
}
