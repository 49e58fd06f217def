package apic

import "testing"

// fakeIOAPIC replaces ioReadFn/ioWriteFn with a map keyed by register index,
// so InitIOAPIC and EnableIRQ can be driven without real MMIO.
func fakeIOAPIC(t *testing.T, maxIntrMinus1 uint32, id uint8) map[uint32]uint32 {
	t.Helper()
	regs := map[uint32]uint32{
		ioregVER: maxIntrMinus1 << 16,
		ioregID:  uint32(id) << 24,
	}

	origWrite, origRead := ioWriteFn, ioReadFn
	ioWriteFn = func(reg, data uint32) { regs[reg] = data }
	ioReadFn = func(reg uint32) uint32 { return regs[reg] }
	t.Cleanup(func() { ioWriteFn, ioReadFn = origWrite, origRead })

	return regs
}

func TestInitIOAPICMasksAllRedirectionEntries(t *testing.T) {
	regs := fakeIOAPIC(t, 1, 2) // two redirection entries, id 2

	InitIOAPIC(0, 2)

	for i := uint32(0); i <= 1; i++ {
		if got := regs[ioregTable+2*i]; got != ioIntDisabled|(T_IRQ0+i) {
			t.Fatalf("entry %d low word = %#x; want DISABLED|%#x", i, got, T_IRQ0+i)
		}
		if got := regs[ioregTable+2*i+1]; got != 0 {
			t.Fatalf("entry %d high word = %#x; want 0", i, got)
		}
	}
}

func TestInitIOAPICPanicsOnIDMismatch(t *testing.T) {
	fakeIOAPIC(t, 0, 2)

	defer func() {
		if recover() == nil {
			t.Fatal("expected InitIOAPIC to panic on an id mismatch")
		}
	}()
	InitIOAPIC(0, 9)
}

func TestEnableIRQRoutesToCPU(t *testing.T) {
	regs := fakeIOAPIC(t, 0, 2)
	InitIOAPIC(0, 2)

	EnableIRQ(1, 5)

	if got := regs[ioregTable+2*1]; got != T_IRQ0+1 {
		t.Fatalf("low word = %#x; want edge/active-high/enabled vector %#x", got, T_IRQ0+1)
	}
	if got := regs[ioregTable+2*1+1]; got != 5<<24 {
		t.Fatalf("high word = %#x; want destination apic id 5 in top byte", got)
	}
}
