// Package kernel implements the interrupt-driven supervisor core: the
// process table, blocking/wakeup resolution, the round-robin scheduler, the
// syscall dispatcher and the trap handler that sequences them.
package kernel

//go:generate stringer -type=ProcessState,BlockingKind -output=types_string.go

import "github.com/so24b/kernel/internal/machine"

// Fixed constants that must match spec.md §6 exactly.
const (
	MaxProcesses     = 4
	SchedulerQuantum = 2   // Clock ticks a process may hold the CPU.
	MaxFilenameLen   = 256 // Bytes, including the terminating NUL.
)

// ProcessState is the lifecycle state of a process descriptor.
type ProcessState int

const (
	StateNew ProcessState = iota
	StateReady
	StateRunning
	StateBlocked
	StateTerminated
)

// BlockingKind identifies what a blocked process is waiting for.
type BlockingKind int

const (
	NotBlocking BlockingKind = iota
	BlockingInput
	BlockingOutput
	BlockingJoin
)

// Blocking describes the condition a BLOCKED process is waiting on. ID is
// either a device-register address (INPUT/OUTPUT) or a target pid (JOIN).
type Blocking struct {
	Kind BlockingKind
	ID   int
}

// Context is the process's saved CPU registers: program counter, the two
// general registers the syscall convention uses, and the fault code the CPU
// records on a CPU_ERROR trap.
type Context struct {
	PC  machine.ProgramCounter
	A   machine.Register
	X   machine.Register
	Err machine.Word
}
