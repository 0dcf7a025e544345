package kernel

// trap.go is the orchestrator: the single entry point the simulated CPU
// calls on every interrupt, grounded on so_trata_interrupcao in the source
// this kernel follows. It sequences the five phases spec.md §4.1 requires,
// without reentry -- the CPU never raises a second interrupt until this one
// returns.

import (
	"fmt"

	"github.com/so24b/kernel/internal/machine"
)

// Trap is the supervisor's entry point. It runs, in order: save context,
// service the interrupt, resolve blockers, schedule, idle (if nothing
// runnable), dispatch. Its return value is the machine.TrapFunc contract:
// 0 resumes the user process, non-zero halts the CPU.
func (k *Kernel) Trap(irq machine.IRQ) int {
	k.saveContext()
	k.service(irq)
	k.resolveAndSchedule()

	for k.current == NoProcess && !k.internalError {
		k.ticker.Tictac()
		k.resolveAndSchedule()
	}

	return k.dispatch.Dispatch(k.current, k.internalError)
}

// saveContext reads the four save-area cells through the MMU in
// supervisor mode into the current process's descriptor. If no process is
// current (e.g. the boot RESET), there is nothing to save.
func (k *Kernel) saveContext() {
	p := k.currentProcess()
	if p == nil {
		return
	}

	pc, err := k.MMU.Read(machine.SavePC, machine.Supervisor)
	if err != nil {
		k.fail("save context: %s", err)

		return
	}

	a, err := k.MMU.Read(machine.SaveA, machine.Supervisor)
	if err != nil {
		k.fail("save context: %s", err)

		return
	}

	x, err := k.MMU.Read(machine.SaveX, machine.Supervisor)
	if err != nil {
		k.fail("save context: %s", err)

		return
	}

	errv, err := k.MMU.Read(machine.SaveErr, machine.Supervisor)
	if err != nil {
		k.fail("save context: %s", err)

		return
	}

	p.Context = Context{
		PC:  machine.ProgramCounter(pc),
		A:   machine.Register(a),
		X:   machine.Register(x),
		Err: errv,
	}
}

// service dispatches on the interrupt kind, spec.md §4.6's ISR table.
func (k *Kernel) service(irq machine.IRQ) {
	switch irq {
	case machine.IRQReset:
		k.reset()
	case machine.IRQClock:
		k.clockTick()
	case machine.IRQCPUError:
		k.cpuFault()
	case machine.IRQSyscall:
		k.syscall()
	default:
		k.fail("%s: %s", ErrUnknownInterrupt, irq)
	}
}

// reset zeroes the process table and creates the init descriptor in slot
// 0, bound to terminal A, running init's image from virtual address 100 --
// the fixed boot sequence of spec.md §4.6.
func (k *Kernel) reset() {
	k.Processes.Reset()
	k.current = NoProcess
	k.quantum = SchedulerQuantum
	k.internalError = false

	img, err := k.Programs.Open(InitImage)
	if err != nil {
		k.fail("reset: open init image: %s", err)

		return
	}

	init := &Process{
		PID:       k.Processes.NewPID(),
		State:     StateNew,
		PageTable: machine.NewPageTable(),
		InDev:     machine.TerminalBase(machine.TerminalA) + machine.TerminalDataIn,
		OutDev:    machine.TerminalBase(machine.TerminalA) + machine.TerminalDataOut,
	}

	loadAddr, err := k.Loader.LoadProcess(img, init)
	if err != nil {
		k.fail("reset: load init: %s", err)

		return
	}

	init.Context.PC = machine.ProgramCounter(loadAddr)
	init.State = StateReady

	k.Processes.Put(0, init)
}

// clockTick services a CLOCK interrupt: acknowledge it, rearm the timer,
// and charge the running process's quantum.
func (k *Kernel) clockTick() {
	if err := k.IO.Write(machine.ClockInterrupt, 0); err != nil {
		k.fail("clock: ack: %s", err)

		return
	}

	if err := k.IO.Write(machine.ClockTimer, machine.Interval); err != nil {
		k.fail("clock: rearm: %s", err)

		return
	}

	k.quantum--
}

// cpuFault services a CPU_ERROR interrupt: the current process's Err
// register, already populated by saveContext, names the fault.
func (k *Kernel) cpuFault() {
	p := k.currentProcess()
	if p != nil {
		k.terminate(p, fmt.Errorf("%w: code %s", ErrCPUFault, p.Context.Err))
	}

	k.internalError = true
}

// syscall dispatches the current process's pending system call.
func (k *Kernel) syscall() {
	p := k.currentProcess()
	if p == nil {
		k.fail("syscall: no current process")

		return
	}

	k.syscalls.Dispatch(p)
}

// resolveAndSchedule runs the BlockingResolver and then the Scheduler, in
// that order, so newly READY processes are eligible for selection in the
// same trap that woke them.
func (k *Kernel) resolveAndSchedule() {
	k.blocking.Resolve()
	k.current = k.scheduler.Select(k.current, &k.quantum)

	k.log.Debug("scheduled", "current", k.current, "table", k.Processes.String())
}
