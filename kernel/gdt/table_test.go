package gdt

import (
	"testing"
	"unsafe"
)

// withMockedLoads replaces lgdtFn/reloadFn/ltrFn with recorders so Init and
// InitBoot can be exercised without executing LGDT/LTR/far-return.
func withMockedLoads(t *testing.T) (lgdtCalls *int, reloadArgs *[2]uint16, ltrArg *uint16) {
	t.Helper()
	lgdtCalls = new(int)
	reloadArgs = new([2]uint16)
	ltrArg = new(uint16)

	origLgdt, origReload, origLtr := lgdtFn, reloadFn, ltrFn
	lgdtFn = func(unsafe.Pointer) { *lgdtCalls++ }
	reloadFn = func(cs, ds uint16) { *reloadArgs = [2]uint16{cs, ds} }
	ltrFn = func(sel uint16) { *ltrArg = sel }
	t.Cleanup(func() { lgdtFn, reloadFn, ltrFn = origLgdt, origReload, origLtr })
	return
}

func TestInitBootLoadsFourEntryTable(t *testing.T) {
	lgdtCalls, reloadArgs, _ := withMockedLoads(t)

	InitBoot(0)

	if *lgdtCalls != 1 {
		t.Fatalf("expected Lgdt called once; got %d", *lgdtCalls)
	}
	if reloadArgs[0] != Selector(KernelCode, 0) || reloadArgs[1] != Selector(KernelData, 0) {
		t.Fatalf("unexpected segment reload args: %+v", *reloadArgs)
	}
	if cpus[0].bootGDT[Null] != 0 {
		t.Fatalf("expected null descriptor to be zero")
	}
}

func TestInitBuildsNineEntryTableAndLoadsTSS(t *testing.T) {
	_, _, ltrArg := withMockedLoads(t)

	const stack = uintptr(0xFFFFFFFF80600000)
	Init(1, stack)

	if cpus[1].tss.RSP[0] != uint64(stack) {
		t.Fatalf("TSS.RSP0 = %#x; want %#x", cpus[1].tss.RSP[0], stack)
	}
	if cpus[1].tss.IST[0] != uint64(stack) {
		t.Fatalf("TSS.IST0 = %#x; want %#x", cpus[1].tss.IST[0], stack)
	}
	if *ltrArg != Selector(TSSLow, 0) {
		t.Fatalf("Ltr selector = %#x; want TSS selector", *ltrArg)
	}

	// The TSS descriptor's packed base should round-trip to the TSS's
	// real address.
	tssAddr := uint64(uintptr(unsafe.Pointer(&cpus[1].tss)))
	gotBase := uint64(cpus[1].gdt[TSSLow]>>16) & 0xFFFF
	gotBase |= uint64(cpus[1].gdt[TSSLow]>>32&0xFF) << 16
	gotBase |= uint64(cpus[1].gdt[TSSLow]>>56&0xFF) << 24
	gotBase |= uint64(cpus[1].gdt[TSSHigh]) << 32
	if gotBase != tssAddr {
		t.Fatalf("TSS descriptor base = %#x; want %#x", gotBase, tssAddr)
	}
}

func TestSetStackUpdatesRSP0Only(t *testing.T) {
	withMockedLoads(t)
	Init(2, 0xFFFFFFFF80700000)

	SetStack(2, 0xFFFFFFFF80701000)

	if cpus[2].tss.RSP[0] != 0xFFFFFFFF80701000 {
		t.Fatalf("RSP0 = %#x after SetStack", cpus[2].tss.RSP[0])
	}
}

func TestSelectorEncodesRingInLowBits(t *testing.T) {
	if got := Selector(UserCode, 3); got != uint16(UserCode*8)|3 {
		t.Fatalf("Selector(UserCode, 3) = %#x; want %#x", got, uint16(UserCode*8)|3)
	}
}
