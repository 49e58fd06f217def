// Package smp discovers the machine's CPU and I/O-APIC inventory by
// scanning for the MP Floating Pointer Structure and parsing the MP
// Configuration Table it points to.
package smp

import (
	"encoding/binary"

	"smpkernel/kernel"
	"smpkernel/kernel/mem"
)

// readPhysFn is swapped out by tests so Discover can run against a
// synthetic byte image instead of real BIOS memory.
var readPhysFn = mem.ReadPhys

const (
	floatingPointerSignature = "_MP_"
	floatingPointerLen       = 16

	configSignature = "PCMP"
	configHeaderLen = 44

	entryProc   = 0
	entryBus    = 1
	entryIOAPIC = 2
	entryIOINTR = 3
	entryLINTR  = 4
)

// entryLen gives the byte length of each MP configuration table entry
// type; entries of unrecognized type are skipped using the minimum
// (8-byte) entry length, the same way the other fixed-length entry types
// are skipped.
var entryLen = map[byte]int{
	entryProc:   20,
	entryBus:    8,
	entryIOAPIC: 8,
	entryIOINTR: 8,
	entryLINTR:  8,
}

// CPUEntry is one processor found in the MP configuration table.
type CPUEntry struct {
	Index  uint8
	APICID uint8
}

// Inventory is the read-only CPU/APIC map published by Discover.
type Inventory struct {
	CPUs       []CPUEntry
	IOAPICID   uint8
	IOAPICAddr mem.VirtAddr
	LAPICAddr  mem.VirtAddr
}

// checksumZero reports whether buf's bytes sum to 0 mod 256, the
// validation the MP spec requires of both the floating pointer structure
// and the configuration table.
func checksumZero(buf []byte) bool {
	var sum byte
	for _, b := range buf {
		sum += b
	}
	return sum == 0
}

// scanRegion looks for the "_MP_" floating pointer signature at every
// 16-byte boundary in [start, start+length), validating its checksum.
func scanRegion(start mem.PhysAddr, length int) (mem.PhysAddr, bool) {
	for off := 0; off+floatingPointerLen <= length; off += floatingPointerLen {
		addr := start + mem.PhysAddr(off)
		buf := readPhysFn(addr, floatingPointerLen)
		if string(buf[0:4]) == floatingPointerSignature && checksumZero(buf) {
			return addr, true
		}
	}
	return 0, false
}

// searchFloatingPointer implements spec.md §4.3's three-region scan: the
// first 1 KiB of the EBDA, else the last 1 KiB of base memory, else the
// BIOS ROM range [0xF0000, 0x100000).
func searchFloatingPointer() (mem.PhysAddr, bool) {
	bda := readPhysFn(0x400, 0x20)

	if ebdaSeg := binary.LittleEndian.Uint16(bda[0x0E:0x10]); ebdaSeg != 0 {
		if addr, ok := scanRegion(mem.PhysAddr(uint32(ebdaSeg)<<4), 1024); ok {
			return addr, true
		}
	}

	if baseKB := binary.LittleEndian.Uint16(bda[0x13:0x15]); baseKB != 0 {
		start := mem.PhysAddr(uint32(baseKB)*1024 - 1024)
		if addr, ok := scanRegion(start, 1024); ok {
			return addr, true
		}
	}

	return scanRegion(0xF0000, 0x100000-0xF0000)
}

// Discover scans for the MP tables and returns the CPU/APIC inventory they
// describe. Any failure (no table found, a zero physaddr, a bad signature
// or checksum on the configuration table) is the one fatal condition
// spec.md §4.3 names: "Expect to run on an SMP."
func Discover() (Inventory, error) {
	fpAddr, ok := searchFloatingPointer()
	if !ok {
		return Inventory{}, fatal()
	}

	fp := readPhysFn(fpAddr, floatingPointerLen)
	confPhysAddr := binary.LittleEndian.Uint32(fp[4:8])
	if confPhysAddr == 0 {
		return Inventory{}, fatal()
	}

	hdr := readPhysFn(mem.PhysAddr(confPhysAddr), configHeaderLen)
	if string(hdr[0:4]) != configSignature {
		return Inventory{}, fatal()
	}
	version := hdr[6]
	if version != 1 && version != 4 {
		return Inventory{}, fatal()
	}

	length := binary.LittleEndian.Uint16(hdr[4:6])
	full := readPhysFn(mem.PhysAddr(confPhysAddr), int(length))
	if !checksumZero(full) {
		return Inventory{}, fatal()
	}

	lapicAddr := binary.LittleEndian.Uint32(hdr[36:40])

	var (
		cpus       []CPUEntry
		ioapicID   uint8
		ioapicAddr uint32
	)

	off := configHeaderLen
	for off < int(length) {
		etype := full[off]
		switch etype {
		case entryProc:
			cpus = append(cpus, CPUEntry{Index: uint8(len(cpus)), APICID: full[off+1]})
		case entryIOAPIC:
			ioapicID = full[off+1]
			ioapicAddr = binary.LittleEndian.Uint32(full[off+4 : off+8])
		}

		step, known := entryLen[etype]
		if !known {
			step = 8
		}
		off += step
	}

	return Inventory{
		CPUs:       cpus,
		IOAPICID:   ioapicID,
		IOAPICAddr: mem.VirtAddr(mem.DevBase) + mem.VirtAddr(ioapicAddr-mem.DevSpace),
		LAPICAddr:  mem.VirtAddr(mem.DevBase) + mem.VirtAddr(lapicAddr-mem.DevSpace),
	}, nil
}

func fatal() error {
	return &kernel.Error{Module: "smp", Message: "Expect to run on an SMP."}
}
