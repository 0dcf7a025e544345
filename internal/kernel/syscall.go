package kernel

// syscall.go decodes and services system calls on behalf of the current
// process, grounded on so_trata_chamada_de_sistema in the source this
// kernel follows.

import (
	"fmt"

	"github.com/so24b/kernel/internal/machine"
)

// Syscall numbers, fixed by spec.md §4.7.
const (
	SyscallRead       = 1
	SyscallWrite      = 2
	SyscallCreateProc = 3
	SyscallKillProc   = 4
	SyscallWaitProc   = 5
)

// SyscallDispatcher services the system call named by the current process's
// A register, with its argument in X, writing a result back into A.
type SyscallDispatcher struct {
	io        *machine.IO
	mmu       *machine.MMU
	pt        *ProcessTable
	loader    *Loader
	programs  ProgramOpener
	fail      func(format string, args ...any)
	terminate func(p *Process, err error)
}

// NewSyscallDispatcher creates a dispatcher bound to the collaborators it
// needs to service every call: the I/O subsystem, the MMU (for reading a
// filename out of the caller's address space), the process table, the
// loader, and the program-file opener. fail records a supervisor-wide
// internal error; terminate ends a single process on one of errors.go's
// kinds.
func NewSyscallDispatcher(io *machine.IO, mmu *machine.MMU, pt *ProcessTable, loader *Loader, programs ProgramOpener, fail func(format string, args ...any), terminate func(p *Process, err error)) *SyscallDispatcher {
	return &SyscallDispatcher{io: io, mmu: mmu, pt: pt, loader: loader, programs: programs, fail: fail, terminate: terminate}
}

// Dispatch services the call named by p's saved A register.
func (s *SyscallDispatcher) Dispatch(p *Process) {
	switch int(p.Context.A) {
	case SyscallRead:
		s.read(p)
	case SyscallWrite:
		s.write(p)
	case SyscallCreateProc:
		s.createProc(p)
	case SyscallKillProc:
		s.killProc(p)
	case SyscallWaitProc:
		s.waitProc(p)
	default:
		s.fail("pid %d: unknown syscall %d", p.PID, p.Context.A)
		s.terminate(p, fmt.Errorf("%w: %d", ErrBadSyscall, p.Context.A))
	}
}

func (s *SyscallDispatcher) read(p *Process) {
	statusReg := p.InDev + 1

	status, err := s.io.Read(statusReg)
	if err != nil {
		s.terminate(p, err)

		return
	}

	if status == 0 {
		p.State = StateBlocked
		p.Blocking = Blocking{Kind: BlockingInput, ID: int(statusReg)}

		return
	}

	word, err := s.io.Read(p.InDev)
	if err != nil {
		s.terminate(p, err)

		return
	}

	_ = s.io.Write(statusReg, 0)

	p.Context.A = machine.Register(word)
}

func (s *SyscallDispatcher) write(p *Process) {
	statusReg := p.OutDev + 1

	status, err := s.io.Read(statusReg)
	if err != nil {
		s.terminate(p, err)

		return
	}

	if status == 0 {
		p.State = StateBlocked
		p.Blocking = Blocking{Kind: BlockingOutput, ID: int(statusReg)}

		return
	}

	if err := s.io.Write(p.OutDev, machine.Word(p.Context.X)); err != nil {
		s.terminate(p, err)

		return
	}

	_ = s.io.Write(statusReg, 0)

	p.Context.A = 0
}

// createProc implements CREATE_PROC: x is a virtual address, in the
// caller's address space, of a NUL-terminated filename. Any failing step
// stores -1 in the caller's A; the caller itself is never terminated.
func (s *SyscallDispatcher) createProc(p *Process) {
	name, ok := s.copyFilename(machine.Word(p.Context.X))
	if !ok {
		p.Context.A = machine.Register(0xffff)

		return
	}

	slot := s.pt.FreeSlot()
	if slot < 0 {
		p.Context.A = machine.Register(0xffff)

		return
	}

	img, err := s.programs.Open(name)
	if err != nil {
		p.Context.A = machine.Register(0xffff)

		return
	}

	child := &Process{
		PID:       s.pt.NewPID(),
		State:     StateNew,
		PageTable: machine.NewPageTable(),
		InDev:     machine.TerminalBase(slot%4) + machine.TerminalDataIn,
		OutDev:    machine.TerminalBase(slot%4) + machine.TerminalDataOut,
	}

	loadAddr, err := s.loader.LoadProcess(img, child)
	if err != nil {
		p.Context.A = machine.Register(0xffff)

		return
	}

	child.Context.PC = machine.ProgramCounter(loadAddr)
	child.State = StateReady

	s.pt.Put(slot, child)

	p.Context.A = machine.Register(child.PID)
}

// copyFilename reads a NUL-terminated filename out of the caller's virtual
// address space, one word (one byte in its low order) at a time, up to
// MaxFilenameLen bytes.
func (s *SyscallDispatcher) copyFilename(va machine.Word) (string, bool) {
	buf := make([]byte, 0, MaxFilenameLen)

	for i := 0; i < MaxFilenameLen; i++ {
		w, err := s.mmu.Read(va+machine.Word(i), machine.User)
		if err != nil {
			return "", false
		}

		if w == 0 {
			return string(buf), true
		}

		buf = append(buf, byte(w))
	}

	return "", false
}

// killProc implements KILL_PROC. x = 0 means self: the caller terminates.
// A missing target pid also terminates the caller -- preserved from the
// source exactly as spec.md §9 Open Question 1 requires, surprising as it
// is.
func (s *SyscallDispatcher) killProc(p *Process) {
	target := int(p.Context.X)

	if target == 0 {
		p.State = StateTerminated

		return
	}

	victim := s.pt.Find(target)
	if victim == nil {
		p.State = StateTerminated

		return
	}

	victim.State = StateTerminated
	p.Context.A = 0
}

// waitProc implements WAIT_PROC. A caller waiting on itself, or on a pid
// that does not exist, is terminated rather than blocked forever.
func (s *SyscallDispatcher) waitProc(p *Process) {
	target := int(p.Context.X)

	victim := s.pt.Find(target)
	if victim == nil || victim.PID == p.PID {
		p.State = StateTerminated

		return
	}

	p.State = StateBlocked
	p.Blocking = Blocking{Kind: BlockingJoin, ID: target}
	p.Context.A = 0
}
