package kernel

// kernel.go assembles the supervisor from its parts and is the Go analogue
// of so_t/so_cria in the source this kernel follows.

import (
	"fmt"

	"github.com/so24b/kernel/internal/log"
	"github.com/so24b/kernel/internal/machine"
)

// NoProcess is the "no current process" sentinel: an optional slot index
// modeled as -1, following spec.md §9's guidance to use an optional rather
// than reuse a magic constant pervasively.
const NoProcess = -1

// Kernel is the supervisor: it owns the machine's CPU, memory, MMU and I/O
// subsystem, the process table, the frame allocator, and the scheduling
// state, and is the sole mutator of all of them.
type Kernel struct {
	Cpu *machine.Cpu
	Mem *machine.Memory
	MMU *machine.MMU
	IO  *machine.IO

	Loader   *Loader
	Programs ProgramOpener

	Processes *ProcessTable

	blocking  *BlockingResolver
	scheduler *Scheduler
	dispatch  *Dispatcher
	syscalls  *SyscallDispatcher

	current       int // Slot index of the running process, or NoProcess.
	quantum       int
	internalError bool

	ticker Ticker
	log    *log.Logger
}

// Names of the two fixed boot images this kernel expects its ProgramOpener
// to resolve: the trap stub, loaded once into physical memory at a fixed
// address, and init, the first process created on RESET.
const (
	TrapStubImage = "trata_int.img"
	InitImage     = "init.img"
)

// Ticker is the console collaborator's idle-loop primitive: spec.md §4.1
// step 5's "advance simulated time by one tick", the kernel's only waiting
// primitive.
type Ticker interface {
	Tictac()
}

type noopTicker struct{}

func (noopTicker) Tictac() {}

// New creates and wires a kernel. The CPU is configured to call the
// kernel's Trap method on every interrupt, exactly as so_cria wires
// cpu_define_chamaC.
func New(cpu *machine.Cpu, mem *machine.Memory, mmu *machine.MMU, io *machine.IO, programs ProgramOpener) *Kernel {
	processes := NewProcessTable()
	frames := machine.NewFrameAllocator()
	loader := NewLoader(mem, frames)

	k := &Kernel{
		Cpu:       cpu,
		Mem:       mem,
		MMU:       mmu,
		IO:        io,
		Loader:    loader,
		Programs:  programs,
		Processes: processes,
		current:   NoProcess,
		quantum:   SchedulerQuantum,
		ticker:    noopTicker{},
		log:       log.DefaultLogger(),
	}

	k.blocking = NewBlockingResolver(io, processes, k.terminate)
	k.scheduler = NewScheduler(processes)
	k.dispatch = NewDispatcher(mmu, processes)
	k.syscalls = NewSyscallDispatcher(io, mmu, processes, loader, programs, k.fail, k.terminate)

	cpu.SetTrapCallback(k.Trap)

	return k
}

// WithLogger overrides the kernel's logger.
func (k *Kernel) WithLogger(logger *log.Logger) *Kernel {
	k.log = logger
	return k
}

// WithTicker overrides the idle-loop primitive the trap handler calls when
// no process is runnable. Tests that want to observe the idle loop's
// iteration count supply a counting Ticker; production code supplies
// internal/console's bridge.
func (k *Kernel) WithTicker(t Ticker) *Kernel {
	k.ticker = t
	return k
}

// currentProcess returns the descriptor for the current slot, or nil if no
// process is selected.
func (k *Kernel) currentProcess() *Process {
	if k.current == NoProcess {
		return nil
	}

	return k.Processes.Slot(k.current)
}

// fail records an internal error. Once set, the trap handler always halts
// on return (spec.md §7's internal-error latch).
func (k *Kernel) fail(format string, args ...any) {
	k.log.Error(fmt.Sprintf(format, args...))
	k.internalError = true
}

// terminate ends a single process on one of the error kinds declared in
// errors.go (spec.md §7), logging it wrapped in a KernelError for its pid.
// Unlike fail, it does not set the internal-error latch: a process failing
// on its own device I/O is an ordinary process-level failure, not a
// supervisor-wide one.
func (k *Kernel) terminate(p *Process, err error) {
	p.State = StateTerminated
	k.log.Error("process terminated", "err", &KernelError{PID: p.PID, Err: err})
}

// Boot installs the supervisor trap stub at its fixed physical address and
// raises the initial RESET interrupt, the only one the hardware generates
// unasked. Everything downstream of RESET -- zeroing the process table,
// creating init -- happens inside Trap.
func (k *Kernel) Boot() error {
	stub, err := k.Programs.Open(TrapStubImage)
	if err != nil {
		return fmt.Errorf("boot: open trap stub: %w", err)
	}

	if _, err := k.Loader.LoadPhysical(stub); err != nil {
		return fmt.Errorf("boot: load trap stub: %w", err)
	}

	return k.Cpu.Boot()
}
