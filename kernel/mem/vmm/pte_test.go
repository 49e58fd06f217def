package vmm

import (
	"testing"

	"smpkernel/kernel/mem"
)

func TestEntrySetAndFlags(t *testing.T) {
	var e Entry

	if e.Present() {
		t.Fatal("expected the zero Entry to be not-present")
	}

	pa := mem.PhysAddr(0x123456000)
	e.Set(pa, FlagPresent|FlagWritable|FlagUser)

	if !e.Present() {
		t.Fatal("expected entry to be present after Set")
	}
	if got := e.Addr(); got != pa {
		t.Fatalf("expected Addr() to return %x; got %x", pa, got)
	}
	if !e.HasFlags(FlagWritable | FlagUser) {
		t.Fatal("expected HasFlags(Writable|User) to be true")
	}
	if e.HasFlags(FlagCacheDisable) {
		t.Fatal("expected HasFlags(CacheDisable) to be false")
	}

	e.Clear()
	if e.Present() {
		t.Fatal("expected entry to be not-present after Clear")
	}
}
