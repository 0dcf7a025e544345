package machine

// cpu.go is the simulated CPU: the single instruction-trap mechanism that
// drives the kernel. Actual user-program instruction semantics are
// deliberately not implemented here -- spec.md §1 treats program execution
// as peripheral glue, external to the supervisor core this repository
// implements. What the CPU provides is exactly the §6 contract: it dumps
// its user-visible registers into the fixed save area on every trap, then
// calls back into supervisor code, and halts if the callback asks it to.

import (
	"context"
	"fmt"
)

// IRQ identifies the kind of interrupt that caused a trap into the
// supervisor.
type IRQ int

const (
	IRQReset IRQ = iota
	IRQClock
	IRQCPUError
	IRQSyscall
)

func (irq IRQ) String() string {
	switch irq {
	case IRQReset:
		return "RESET"
	case IRQClock:
		return "CLOCK"
	case IRQCPUError:
		return "CPU_ERROR"
	case IRQSyscall:
		return "SYSCALL"
	default:
		return fmt.Sprintf("IRQ(%d)", int(irq))
	}
}

// ProgramCounter is the special-purpose register pointing at the next
// instruction a process would execute.
type ProgramCounter Word

func (p ProgramCounter) String() string { return Word(p).String() }

// TrapFunc is the supervisor's entry point: called with the interrupt kind,
// it returns 0 to resume the interrupted process or non-zero to halt the
// machine.
type TrapFunc func(irq IRQ) int

// Cpu is the machine's single processor. It holds exactly the register set
// spec.md §3 calls the process context: PC, A, X and Err.
type Cpu struct {
	PC  ProgramCounter
	A   Register
	X   Register
	Err Word

	mem     *Memory
	clock   *Clock
	trap    TrapFunc
	running bool
}

// NewCpu creates a CPU wired to physical memory (for save-area access) and
// the clock device (to drive the scheduling quantum).
func NewCpu(mem *Memory, clock *Clock) *Cpu {
	return &Cpu{mem: mem, clock: clock}
}

// SetTrapCallback installs the supervisor's trap handler. The machine calls
// this once, at creation, exactly as spec.md §6 describes.
func (c *Cpu) SetTrapCallback(fn TrapFunc) {
	c.trap = fn
}

// Running reports whether the machine is executing (as opposed to halted,
// pending the next interrupt).
func (c *Cpu) Running() bool {
	return c.running
}

// Halt stops the CPU. It is idempotent.
func (c *Cpu) Halt() {
	c.running = false
}

// Raise simulates the CPU's trap-entry hardware: it writes the current
// context into the fixed save area, invokes the trap callback, and either
// restores the context from the save area (resume) or halts (on a non-zero
// return). This is the CPU's one and only way into the kernel.
func (c *Cpu) Raise(irq IRQ) error {
	if c.trap == nil {
		return fmt.Errorf("cpu: no trap callback installed")
	}

	if err := c.saveContext(); err != nil {
		return err
	}

	if ret := c.trap(irq); ret != 0 {
		c.running = false

		return nil
	}

	return c.restoreContext()
}

func (c *Cpu) saveContext() error {
	if err := c.mem.Write(SavePC, Word(c.PC)); err != nil {
		return err
	}

	if err := c.mem.Write(SaveA, Word(c.A)); err != nil {
		return err
	}

	if err := c.mem.Write(SaveX, Word(c.X)); err != nil {
		return err
	}

	if err := c.mem.Write(SaveErr, c.Err); err != nil {
		return err
	}

	return nil
}

func (c *Cpu) restoreContext() error {
	pc, err := c.mem.Read(SavePC)
	if err != nil {
		return err
	}

	a, err := c.mem.Read(SaveA)
	if err != nil {
		return err
	}

	x, err := c.mem.Read(SaveX)
	if err != nil {
		return err
	}

	c.PC = ProgramCounter(pc)
	c.A = Register(a)
	c.X = Register(x)
	c.running = true

	return nil
}

// Boot raises the initial RESET interrupt, the only interrupt the hardware
// generates without being asked.
func (c *Cpu) Boot() error {
	return c.Raise(IRQReset)
}

// Syscall simulates a user program executing the trap-to-supervisor
// instruction with a system call number in A and an argument in X.
func (c *Cpu) Syscall(a, x Register) error {
	c.A = a
	c.X = x

	return c.Raise(IRQSyscall)
}

// Fault simulates the CPU trapping on its own account -- an illegal
// instruction, an access violation -- recording the fault code callers
// would otherwise have read out of a hardware status register.
func (c *Cpu) Fault(code Word) error {
	c.Err = code

	return c.Raise(IRQCPUError)
}

// Run drives the clock: each step represents one executed instruction. No
// user-program semantics are simulated (see the package doc); the loop
// exists to exercise the clock's interrupt cadence for the `run` CLI command
// and for tests that want CLOCK interrupts delivered without hand-stepping
// the clock. It returns when the context is done or the CPU halts.
func (c *Cpu) Run(ctx context.Context) error {
	c.running = true

	for c.running {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		c.clock.Tick()

		if c.clock.pending {
			if err := c.Raise(IRQClock); err != nil {
				return err
			}
		}
	}

	return nil
}
