package kernel

// errors.go declares the kernel's error kinds (spec.md §7) following the
// sentinel-plus-wrapper idiom of the teacher's MemoryError/ErrObjectLoader.

import (
	"errors"
	"fmt"
)

var (
	// ErrLoad is a program file read/copy failure. Policy: during
	// CREATE_PROC, return -1 to the caller; during RESET, halt.
	ErrLoad = errors.New("load error")

	// ErrBadSyscall is an unrecognized system call number. Policy:
	// terminate the caller and set the internal-error flag.
	ErrBadSyscall = errors.New("bad syscall")

	// ErrCPUFault is a CPU exception reported against a process. Policy:
	// terminate the faulting process and set the internal-error flag.
	ErrCPUFault = errors.New("cpu fault")

	// ErrUnknownInterrupt is an IRQ the kernel does not recognize. Policy:
	// set the internal-error flag.
	ErrUnknownInterrupt = errors.New("unknown interrupt")
)

// I/O register failures use machine.ErrIO directly, wrapped with pid
// context in a KernelError, and frame exhaustion uses
// machine.ErrOutOfFrames, wrapped in ErrLoad: the kernel package declares
// no sentinels of its own for either.

// KernelError annotates a sentinel error with the pid it happened to, the
// way MemoryError annotates ErrMemory with an address.
type KernelError struct {
	PID int
	Err error
}

func (e *KernelError) Error() string {
	return fmt.Sprintf("pid %d: %s", e.PID, e.Err)
}

func (e *KernelError) Unwrap() error {
	return e.Err
}
