// +build amd64

package trap

// Each vector* function is a tiny asm stub (trap_amd64.s) that pushes a
// dummy error code (for vectors the CPU doesn't push one for), pushes its
// own vector number, and jumps to the shared alltraps entry. They are
// referenced only by address (via funcPC in idt.go), never called
// directly from Go.
func vectorDivideByZero()
func vectorDebug()
func vectorNMI()
func vectorBreakpoint()
func vectorOverflow()
func vectorBoundRange()
func vectorInvalidOpcode()
func vectorDeviceNotAvailable()
func vectorDoubleFault()
func vectorInvalidTSS()
func vectorSegmentNotPresent()
func vectorStackSegmentFault()
func vectorGeneralProtectionFault()
func vectorPageFault()
func vectorAlignmentCheck()
func vectorTimer()
func vectorKeyboard()
func vectorSyscall()

// alltraps is the common trap entry every vector* stub jumps to after
// pushing trapno/errcode. It is never called from Go directly.
func alltraps()
