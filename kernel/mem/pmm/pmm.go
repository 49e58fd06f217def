package pmm

import (
	"unsafe"

	"smpkernel/kernel"
	"smpkernel/kernel/kfmt/early"
	"smpkernel/kernel/mem"
	"smpkernel/kernel/spinlock"
)

// run is the intrusive freelist node. It is written directly into the first
// 8 bytes of each free page, so a free page's contents are never meaningful
// beyond that first word.
type run struct {
	next *run
}

// poisonByte is written across a page's contents the moment it is freed, so
// that a use-after-free shows up as a run of 0x01 bytes instead of silently
// reading whatever the next allocation happens to leave behind.
const poisonByte = 0x01

var (
	lock     spinlock.Lock
	freelist *run
	nfree    uint64
)

// Init seeds the freelist with every page-aligned 4 KiB frame in
// [start, end). start is rounded up and end is not assumed to be aligned;
// any trailing partial page is dropped. Init is meant to be called once,
// before any other CPU is running, but takes the lock anyway so that a
// second call (e.g. to add a later memory region) is not a data race.
func Init(start, end mem.VirtAddr) {
	p := start.AlignUp()
	for p+mem.VirtAddr(mem.PageSize) <= end {
		Free(p)
		p += mem.VirtAddr(mem.PageSize)
	}
}

// Alloc removes one page from the freelist and returns its address with
// ok == true, or returns ok == false if no pages remain.
func Alloc() (mem.VirtAddr, bool) {
	lock.Acquire()
	r := freelist
	if r != nil {
		freelist = r.next
		nfree--
	}
	lock.Release()

	if r == nil {
		return 0, false
	}
	return mem.VirtAddr(uintptr(unsafe.Pointer(r))), true
}

// Free returns a page to the freelist. v must be page-aligned and must fall
// within [KernEnd, KernBase+PhysTop) — below KernEnd is still the kernel's
// own image, and at or above KernBase+PhysTop is off the end of the linear
// map entirely. Either violation is fatal (Free panics) rather than an
// error return. Free does not detect a page outside the range passed to
// Init or a page that is already free; freeing one corrupts the freelist.
func Free(v mem.VirtAddr) {
	if !v.Aligned() {
		panic(&kernel.Error{Module: "pmm", Message: "kfree: address not page-aligned"})
	}
	if v < mem.KernEnd || mem.V2P(v) >= mem.PhysAddr(mem.PhysTop) {
		panic(&kernel.Error{Module: "pmm", Message: "kfree: address out of range"})
	}

	mem.Memset(uintptr(v), poisonByte, mem.PageSize)

	r := (*run)(unsafe.Pointer(uintptr(v)))

	lock.Acquire()
	r.next = freelist
	freelist = r
	nfree++
	lock.Release()
}

// NumFree returns the number of pages currently on the freelist. It is
// racy by nature (another CPU can allocate or free the instant after it
// returns) and is intended for diagnostics, not for correctness decisions.
func NumFree() uint64 {
	lock.Acquire()
	n := nfree
	lock.Release()
	return n
}

// PrintStats logs the current freelist size, in the style of the other
// allocator diagnostics in this kernel.
func PrintStats() {
	early.Printf("pmm: %d pages free (%d KB)\n", NumFree(), NumFree()*uint64(mem.PageSize)/1024)
}
