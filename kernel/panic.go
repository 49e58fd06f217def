package kernel

import (
	"smpkernel/kernel/cpu"
	"smpkernel/kernel/kfmt/early"
)

var (
	// cpuHaltFn is swapped out by tests.
	cpuHaltFn = haltForever

	errRuntimePanic = &Error{Module: "rt", Message: "unknown cause"}
)

// haltForever issues HLT in a loop: a single HLT returns as soon as the
// CPU takes an interrupt.
func haltForever() {
	for {
		cpu.Halt()
	}
}

// Panic prints the supplied error (if not nil) and halts the calling CPU.
// It never returns. Per the error-handling design, a panic while already
// holding the process-table or freelist lock is itself a fatal programming
// error; callers must release every lock they hold before calling Panic.
func Panic(e interface{}) {
	var err *Error

	switch t := e.(type) {
	case *Error:
		err = t
	case string:
		errRuntimePanic.Message = t
		err = errRuntimePanic
	case error:
		errRuntimePanic.Message = t.Error()
		err = errRuntimePanic
	}

	early.Printf("\n-----------------------------------\n")
	if err != nil {
		early.Printf("[%s] unrecoverable error: %s\n", err.Module, err.Message)
	}
	early.Printf("*** kernel panic: system halted ***")
	early.Printf("\n-----------------------------------\n")

	cpuHaltFn()
}
