package main

import (
	"smpkernel/kernel/kmain"
	"smpkernel/kernel/mem"
)

// kernelEnd and kernelData stand in for the symbols a real linker script
// exports for this image (_KERNEL_END, _KERNEL_DATA); the boot loader
// patches them before transferring control here. Passed as package
// variables, not literals, so the compiler cannot fold Kmain's arguments
// away and inline this call out of existence.
var (
	kernelEnd  mem.VirtAddr
	kernelData mem.VirtAddr
)

// main is the only Go symbol the boot stub (outside this module, per the
// boot-loader-handoff non-goal) calls into after it reaches 64-bit mode
// with a temporary stack. It exists only to keep the compiler from
// treating kmain.Kmain as dead code; main is not expected to return.
func main() {
	kmain.Kmain(kernelEnd, kernelData)
}
