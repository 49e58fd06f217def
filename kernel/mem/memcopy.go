package mem

import (
	"reflect"
	"unsafe"
)

// overlay returns a []byte view of the size bytes starting at addr without
// copying. Used internally by Memset/Memcopy/Memcompare to work with raw
// addresses before the Go allocator (and slice bounds checks against real
// backing arrays) are meaningful.
func overlay(addr uintptr, size Size) []byte {
	return *(*[]byte)(unsafe.Pointer(&reflect.SliceHeader{
		Len:  int(size),
		Cap:  int(size),
		Data: addr,
	}))
}

// Memcopy copies size bytes from src to dst. Overlapping regions are
// copied correctly, since the builtin copy has memmove semantics.
func Memcopy(dst, src uintptr, size Size) {
	if size == 0 {
		return
	}
	copy(overlay(dst, size), overlay(src, size))
}

// Memcompare returns true if the size bytes starting at a and b are
// identical.
func Memcompare(a, b uintptr, size Size) bool {
	if size == 0 {
		return true
	}
	bufA, bufB := overlay(a, size), overlay(b, size)
	for i := range bufA {
		if bufA[i] != bufB[i] {
			return false
		}
	}
	return true
}

// CopyBytes copies src into the raw memory starting at dst. It exists for
// the boot-time callers (e.g. init_uvm) that hold their source image as an
// ordinary Go []byte rather than as another raw address.
func CopyBytes(dst uintptr, src []byte) {
	if len(src) == 0 {
		return
	}
	copy(overlay(dst, Size(len(src))), src)
}

// ReadPhys copies length bytes starting at the physical address p, through
// the kernel's linear map, into a freshly allocated []byte. Used by boot-time
// code (MP table discovery) that needs to read BIOS memory before the
// allocator has any notion of "this is a BIOS structure, not a page".
func ReadPhys(p PhysAddr, length int) []byte {
	buf := make([]byte, length)
	if length == 0 {
		return buf
	}
	Memcopy(uintptr(unsafe.Pointer(&buf[0])), uintptr(P2V(p)), Size(length))
	return buf
}
