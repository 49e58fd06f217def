// +build amd64

package apic

import (
	"unsafe"

	"smpkernel/kernel/cpu"
	"smpkernel/kernel/mem"
)

const (
	cmosPort       = 0x70
	cmosShutdownID = 0x0A

	// warmResetSeg:warmResetOff is the segment:offset pair 40:67 the MP spec
	// reserves for the BSP to point at the AP's entry point.
	warmResetSeg = 0x40
	warmResetOff = 0x67
)

// defaultWrmCMOS sets the CMOS shutdown status byte to 0x0A, the value the
// MP specification's universal startup algorithm requires the BSP to
// program before sending INIT to an AP.
func defaultWrmCMOS() {
	cpu.Outb(cmosPort, 0xF)
	cpu.Outb(cmosPort+1, cmosShutdownID)
}

// defaultWrmWarmVector writes entryPA, shifted into its paragraph form,
// into the BIOS warm reset vector at physical 0x467.
func defaultWrmWarmVector(entryPA uintptr) {
	wrv := (*[2]uint16)(unsafe.Pointer(uintptr(mem.P2V(mem.PhysAddr(warmResetSeg<<4 | warmResetOff)))))
	wrv[0] = 0
	wrv[1] = uint16(entryPA >> 4)
}
