package smp

import (
	"encoding/binary"
	"testing"

	"smpkernel/kernel/mem"
)

// fakeBIOS is a small sparse physical-memory image used to drive Discover
// without real hardware: regions are registered with set and served back
// by readPhysFn, zero-filled outside any registered region.
type fakeBIOS struct {
	regions map[mem.PhysAddr][]byte
}

func newFakeBIOS() *fakeBIOS {
	return &fakeBIOS{regions: map[mem.PhysAddr][]byte{}}
}

func (f *fakeBIOS) set(addr mem.PhysAddr, data []byte) {
	f.regions[addr] = data
}

func (f *fakeBIOS) read(addr mem.PhysAddr, length int) []byte {
	buf := make([]byte, length)
	for base, data := range f.regions {
		if addr >= base && addr < base+mem.PhysAddr(len(data)) {
			start := int(addr - base)
			n := copy(buf, data[start:])
			_ = n
			return buf
		}
	}
	return buf
}

func withFakeBIOS(t *testing.T) *fakeBIOS {
	t.Helper()
	bios := newFakeBIOS()
	orig := readPhysFn
	readPhysFn = bios.read
	t.Cleanup(func() { readPhysFn = orig })
	return bios
}

// TestDiscoverMPParse is spec.md §8's S3 scenario: two PROC entries
// (apic_id 0, 1) and one IOAPIC entry (apic_no 2, addr 0xFEC00000).
func TestDiscoverMPParse(t *testing.T) {
	bios := withFakeBIOS(t)

	const ebdaSeg = uint16(0x9FC0)
	ebdaPhys := mem.PhysAddr(uint32(ebdaSeg) << 4)
	const ioapicPhys = uint32(0xFEC00000)
	const lapicPhys = uint32(0xFEE00000)
	const confPhys = uint32(0x000F0000)

	bda := make([]byte, 0x20)
	binary.LittleEndian.PutUint16(bda[0x0E:0x10], ebdaSeg)
	bios.set(0x400, bda)

	fp := EncodeFloatingPointer(confPhys)
	bios.set(ebdaPhys, fp)

	conf := EncodeConfigTable([]uint8{0, 1}, 2, ioapicPhys, lapicPhys)
	bios.set(mem.PhysAddr(confPhys), conf)

	inv, err := Discover()
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}

	if len(inv.CPUs) != 2 || inv.CPUs[0].APICID != 0 || inv.CPUs[1].APICID != 1 {
		t.Fatalf("unexpected CPU inventory: %+v", inv.CPUs)
	}
	if inv.IOAPICID != 2 {
		t.Fatalf("expected IOAPICID 2; got %d", inv.IOAPICID)
	}

	wantLAPIC := mem.VirtAddr(mem.DevBase) + mem.VirtAddr(lapicPhys-mem.DevSpace)
	if inv.LAPICAddr != wantLAPIC {
		t.Fatalf("expected LAPIC virtual address %x; got %x", wantLAPIC, inv.LAPICAddr)
	}

	wantIOAPIC := mem.VirtAddr(mem.DevBase) + mem.VirtAddr(ioapicPhys-mem.DevSpace)
	if inv.IOAPICAddr != wantIOAPIC {
		t.Fatalf("expected IOAPIC virtual address %x; got %x", wantIOAPIC, inv.IOAPICAddr)
	}
}

func TestDiscoverFailsWithoutTable(t *testing.T) {
	withFakeBIOS(t) // everything reads back as zero bytes

	if _, err := Discover(); err == nil {
		t.Fatal("expected Discover to fail when no MP table is present")
	}
}

func TestDiscoverFailsOnZeroPhysAddr(t *testing.T) {
	bios := withFakeBIOS(t)

	const ebdaSeg = uint16(0x9FC0)
	ebdaPhys := mem.PhysAddr(uint32(ebdaSeg) << 4)

	bda := make([]byte, 0x20)
	binary.LittleEndian.PutUint16(bda[0x0E:0x10], ebdaSeg)
	bios.set(0x400, bda)

	bios.set(ebdaPhys, EncodeFloatingPointer(0))

	if _, err := Discover(); err == nil {
		t.Fatal("expected Discover to fail when the floating pointer's physaddr is zero")
	}
}

// TestChecksumZeroInvariant is spec.md §8 invariant 6.
func TestChecksumZeroInvariant(t *testing.T) {
	conf := EncodeConfigTable([]uint8{0}, 1, 0xFEC00000, 0xFEE00000)
	if !checksumZero(conf) {
		t.Fatal("expected EncodeConfigTable's output to sum to 0 mod 256")
	}

	fp := EncodeFloatingPointer(0x1000)
	if !checksumZero(fp) {
		t.Fatal("expected EncodeFloatingPointer's output to sum to 0 mod 256")
	}
}
