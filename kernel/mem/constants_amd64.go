// +build amd64

package mem

// These constants describe the fixed physical/virtual memory layout that
// the boot loader hands off to the kernel and that setup_kvm (see the vmm
// package) installs into the kernel PML4. They are bit-exact: tests and the
// mapper both rely on the literal values, not just their relative ordering.
const (
	// EntryCount is the number of entries in every level of the page
	// table hierarchy (PML4, PDPT, PD, PT).
	EntryCount = 512

	// ExtMem is the end of the "extended memory" identity window that is
	// mapped read-write starting at KernBase.
	ExtMem = 0x00100000

	// PhysTop is the highest physical address (exclusive) described by
	// the kernel linear map.
	PhysTop = 0x20000000

	// DevSpace is the physical base of the MMIO device window.
	DevSpace = 0xFE000000

	// DevBase is the virtual base that DevSpace is mapped to.
	DevBase = 0xFFFFFFFF40000000

	// KernBase is the virtual address at which physical address 0 is
	// mapped in every address space. KernBase+p is always valid for any
	// p in [0, PhysTop).
	KernBase = 0xFFFFFFFF80000000

	// KStackSize is the size in bytes of a kernel stack.
	KStackSize = 4096

	// MaxCPU bounds the number of CPUs the MP tables may describe.
	MaxCPU = 8
)

// KernEnd and KernData are patched at boot time from the symbols the linker
// exports for the kernel image (_KERNEL_END and _KERNEL_DATA in the spec's
// external-interfaces section). They default to sentinel zero values so that
// package-level tests can set them explicitly without touching a linker
// script.
var (
	// KernEnd is the first virtual address past the kernel's loaded
	// image; it is also the first address the page allocator may use
	// for its freelist.
	KernEnd VirtAddr

	// KernData is the virtual address of the kernel's writable data
	// segment; everything below it (down to KernBase+ExtMem) is mapped
	// read-only.
	KernData VirtAddr
)
