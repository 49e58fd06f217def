package smp

import "encoding/binary"

// The functions below encode an MP floating pointer structure and MP
// configuration table into their on-the-wire byte layout. They exist so
// that tests (and cmd/mkmp) can build a synthetic MP table without a real
// BIOS, rather than because the kernel itself ever needs to write one.

// checksumFixup returns the byte that makes buf sum to 0 mod 256, assuming
// the checksum field itself is currently zero.
func checksumFixup(buf []byte) byte {
	var sum byte
	for _, b := range buf {
		sum += b
	}
	return -sum
}

// EncodeFloatingPointer builds a valid, checksummed MP Floating Pointer
// Structure pointing at confPhysAddr.
func EncodeFloatingPointer(confPhysAddr uint32) []byte {
	buf := make([]byte, floatingPointerLen)
	copy(buf[0:4], floatingPointerSignature)
	binary.LittleEndian.PutUint32(buf[4:8], confPhysAddr)
	buf[8] = 1 // length, in 16-byte units
	buf[9] = 1 // spec revision

	buf[10] = checksumFixup(buf)
	return buf
}

// EncodeConfigTable builds a valid, checksummed MP Configuration Table
// describing the given processors (by APIC id) and a single I/O APIC at
// ioapicPhysAddr.
func EncodeConfigTable(cpuAPICIDs []uint8, ioapicAPICNo uint8, ioapicPhysAddr uint32, lapicPhysAddr uint32) []byte {
	total := configHeaderLen + len(cpuAPICIDs)*entryLen[entryProc] + entryLen[entryIOAPIC]
	buf := make([]byte, total)

	copy(buf[0:4], configSignature)
	binary.LittleEndian.PutUint16(buf[4:6], uint16(total))
	buf[6] = 1 // version
	binary.LittleEndian.PutUint32(buf[36:40], lapicPhysAddr)

	off := configHeaderLen
	for _, apicID := range cpuAPICIDs {
		buf[off] = entryProc
		buf[off+1] = apicID
		off += entryLen[entryProc]
	}

	buf[off] = entryIOAPIC
	buf[off+1] = ioapicAPICNo
	binary.LittleEndian.PutUint32(buf[off+4:off+8], ioapicPhysAddr)
	off += entryLen[entryIOAPIC]

	buf[7] = checksumFixup(buf)
	return buf
}
