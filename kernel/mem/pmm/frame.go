// Package pmm contains the physical page allocator: a single freelist of
// 4 KiB frames threaded through the kernel's linear map.
package pmm

import (
	"math"

	"smpkernel/kernel/mem"
)

// Frame identifies a physical page by its page number (physical address
// divided by mem.PageSize). Every allocation and mapping in this module is
// exactly one page, so unlike a buddy allocator's frame there is no
// encoded order.
type Frame uint64

// InvalidFrame is returned by Alloc when the freelist is empty.
const InvalidFrame = Frame(math.MaxUint64)

// IsValid reports whether f is a real frame rather than InvalidFrame.
func (f Frame) IsValid() bool {
	return f != InvalidFrame
}

// Address returns the physical address of the page this frame describes.
func (f Frame) Address() mem.PhysAddr {
	return mem.PhysAddr(uintptr(f) << mem.PageShift)
}

// FrameForAddress returns the frame that contains physAddr, rounding down
// to the enclosing page.
func FrameForAddress(physAddr mem.PhysAddr) Frame {
	return Frame(uintptr(physAddr) >> mem.PageShift)
}
