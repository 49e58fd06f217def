// Command mkmp writes a synthetic MP Floating Pointer Structure plus MP
// Configuration Table to a file, in the exact byte layout kernel/smp
// parses. It exists to produce fixtures for manual inspection and for the
// smp package's own tests (which build the same bytes in-process via
// smp.EncodeFloatingPointer/EncodeConfigTable rather than shelling out to
// this binary).
package main

import (
	"encoding/binary"
	"flag"
	"fmt"
	"os"

	"smpkernel/kernel/smp"
)

func main() {
	var (
		out        = flag.String("out", "mp.bin", "output file path")
		ncpu       = flag.Int("ncpu", 2, "number of synthetic CPU entries")
		ioapicNo   = flag.Int("ioapic", 2, "I/O APIC id")
		ioapicAddr = flag.Uint64("ioapic-addr", 0xFEC00000, "I/O APIC physical address")
		lapicAddr  = flag.Uint64("lapic", 0xFEE00000, "LAPIC physical address")
		confOffset = flag.Uint64("conf-offset", 0x1000, "offset of the config table within the output file")
	)
	flag.Parse()

	if err := run(*out, *ncpu, uint8(*ioapicNo), uint32(*ioapicAddr), uint32(*lapicAddr), uint32(*confOffset)); err != nil {
		fmt.Fprintln(os.Stderr, "mkmp:", err)
		os.Exit(1)
	}
}

func run(out string, ncpu int, ioapicNo uint8, ioapicAddr, lapicAddr, confOffset uint32) error {
	cpuIDs := make([]uint8, ncpu)
	for i := range cpuIDs {
		cpuIDs[i] = uint8(i)
	}

	conf := smp.EncodeConfigTable(cpuIDs, ioapicNo, ioapicAddr, lapicAddr)
	fp := smp.EncodeFloatingPointer(confOffset)

	image := make([]byte, int(confOffset)+len(conf))
	copy(image, fp)
	copy(image[confOffset:], conf)

	f, err := os.Create(out)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := binary.Write(f, binary.LittleEndian, image); err != nil {
		return err
	}
	fmt.Printf("mkmp: wrote %d bytes (%d CPUs, ioapic %d at %#x, lapic %#x) to %s\n", len(image), ncpu, ioapicNo, ioapicAddr, lapicAddr, out)
	return nil
}
