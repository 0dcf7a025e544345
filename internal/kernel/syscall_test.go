package kernel

import (
	"testing"

	"github.com/so24b/kernel/internal/machine"
)

func newSyscallFixture(t *testing.T, opener fakeOpener) (*SyscallDispatcher, *ProcessTable, *machine.MMU, *machine.Terminal) {
	t.Helper()

	mem := machine.NewMemory()
	mmu := machine.NewMMU(mem)
	io := machine.NewIO()
	term := machine.NewTerminal(machine.TerminalA, "A")
	io.Attach(term)

	pt := NewProcessTable()
	loader := NewLoader(mem, machine.NewFrameAllocator())

	noop := func(format string, args ...any) {}
	terminate := func(p *Process, err error) { p.State = StateTerminated }

	return NewSyscallDispatcher(io, mmu, pt, loader, opener, noop, terminate), pt, mmu, term
}

func TestSyscallReadBlocksWhenNotReady(t *testing.T) {
	s, pt, _, term := newSyscallFixture(t, fakeOpener{})

	p := &Process{PID: 0, State: StateRunning, InDev: term.In()}
	p.Context.A = SyscallRead
	pt.Put(0, p)

	s.Dispatch(p)

	if p.State != StateBlocked {
		t.Fatalf("state = %s, want BLOCKED", p.State)
	}

	if p.Blocking.Kind != BlockingInput {
		t.Errorf("blocking kind = %v, want BlockingInput", p.Blocking.Kind)
	}
}

func TestSyscallReadSucceedsWhenReady(t *testing.T) {
	s, pt, _, term := newSyscallFixture(t, fakeOpener{})

	term.Deliver(123)

	p := &Process{PID: 0, State: StateRunning, InDev: term.In()}
	p.Context.A = SyscallRead
	pt.Put(0, p)

	s.Dispatch(p)

	if p.State != StateRunning {
		t.Fatalf("state = %s, want still RUNNING", p.State)
	}

	if p.Context.A != 123 {
		t.Errorf("a = %d, want 123", p.Context.A)
	}
}

func TestSyscallWriteSucceedsWhenReady(t *testing.T) {
	s, pt, _, term := newSyscallFixture(t, fakeOpener{})

	term.SetOutputReady(true)

	p := &Process{PID: 0, State: StateRunning, OutDev: term.Out()}
	p.Context.A = SyscallWrite
	p.Context.X = 55
	pt.Put(0, p)

	s.Dispatch(p)

	if p.Context.A != 0 {
		t.Errorf("a = %d, want 0", p.Context.A)
	}

	if term.Displayed() != 55 {
		t.Errorf("displayed = %d, want 55", term.Displayed())
	}
}

// TestKillProcMissingTargetTerminatesCaller preserves spec.md §9 Open
// Question 1's surprising-but-specified behavior.
func TestKillProcMissingTargetTerminatesCaller(t *testing.T) {
	s, pt, _, _ := newSyscallFixture(t, fakeOpener{})

	p := &Process{PID: 0, State: StateRunning}
	p.Context.A = SyscallKillProc
	p.Context.X = 77 // no process has this pid
	pt.Put(0, p)

	s.Dispatch(p)

	if p.State != StateTerminated {
		t.Fatalf("state = %s, want TERMINATED", p.State)
	}
}

func TestKillProcSelfTerminatesCaller(t *testing.T) {
	s, pt, _, _ := newSyscallFixture(t, fakeOpener{})

	p := &Process{PID: 5, State: StateRunning}
	p.Context.A = SyscallKillProc
	p.Context.X = 0
	pt.Put(0, p)

	s.Dispatch(p)

	if p.State != StateTerminated {
		t.Fatalf("state = %s, want TERMINATED", p.State)
	}
}

func TestKillProcFoundTargetTerminatesTarget(t *testing.T) {
	s, pt, _, _ := newSyscallFixture(t, fakeOpener{})

	caller := &Process{PID: 0, State: StateRunning}
	caller.Context.A = SyscallKillProc
	caller.Context.X = 1
	target := &Process{PID: 1, State: StateRunning}

	pt.Put(0, caller)
	pt.Put(1, target)

	s.Dispatch(caller)

	if caller.State != StateRunning {
		t.Fatalf("caller state = %s, want RUNNING", caller.State)
	}

	if caller.Context.A != 0 {
		t.Errorf("caller a = %d, want 0", caller.Context.A)
	}

	if target.State != StateTerminated {
		t.Errorf("target state = %s, want TERMINATED", target.State)
	}
}

func TestWaitProcBlocksOnExistingOtherTarget(t *testing.T) {
	s, pt, _, _ := newSyscallFixture(t, fakeOpener{})

	caller := &Process{PID: 0, State: StateRunning}
	caller.Context.A = SyscallWaitProc
	caller.Context.X = 1
	target := &Process{PID: 1, State: StateReady}

	pt.Put(0, caller)
	pt.Put(1, target)

	s.Dispatch(caller)

	if caller.State != StateBlocked {
		t.Fatalf("state = %s, want BLOCKED", caller.State)
	}

	if caller.Blocking != (Blocking{Kind: BlockingJoin, ID: 1}) {
		t.Errorf("blocking = %+v, want {JOIN 1}", caller.Blocking)
	}
}

func TestWaitProcOnSelfTerminatesCaller(t *testing.T) {
	s, pt, _, _ := newSyscallFixture(t, fakeOpener{})

	caller := &Process{PID: 0, State: StateRunning}
	caller.Context.A = SyscallWaitProc
	caller.Context.X = 0
	pt.Put(0, caller)

	s.Dispatch(caller)

	if caller.State != StateTerminated {
		t.Fatalf("state = %s, want TERMINATED (self-wait is nonsensical)", caller.State)
	}
}

func TestCreateProcLoadsAndAssignsPid(t *testing.T) {
	opener := fakeOpener{
		"prog.img": {LoadAddress: machine.UserSpaceAddr, Code: []machine.Word{0, 0}},
	}

	s, pt, mmu, _ := newSyscallFixture(t, opener)

	caller := &Process{PID: pt.NewPID(), State: StateRunning, PageTable: machine.NewPageTable()}
	caller.Context.A = SyscallCreateProc
	caller.Context.X = machine.Register(5*machine.PageSize + 10) // a page far from the loader's own frames
	caller.PageTable.Map(machine.PageOf(machine.Word(caller.Context.X)), 5)
	pt.Put(0, caller)

	// Install the caller's page table and write the filename into its
	// virtual space the same way the real dispatcher would leave it mid-trap.
	mmu.SetPageTable(caller.PageTable)
	writeCString(t, s, machine.Word(caller.Context.X), "prog.img")

	s.Dispatch(caller)

	if caller.Context.A == 0xffff {
		t.Fatalf("create_proc failed, want success")
	}

	child := pt.Find(int(caller.Context.A))
	if child == nil {
		t.Fatalf("no descriptor for new pid %d", caller.Context.A)
	}

	if child.State != StateReady {
		t.Errorf("child state = %s, want READY", child.State)
	}

	if child.Context.PC != machine.ProgramCounter(machine.UserSpaceAddr) {
		t.Errorf("child pc = %s, want %s", child.Context.PC, machine.ProgramCounter(machine.UserSpaceAddr))
	}
}

func TestCreateProcFullTableReturnsMinusOne(t *testing.T) {
	s, pt, _, _ := newSyscallFixture(t, fakeOpener{})

	caller := &Process{PID: 0, State: StateRunning, PageTable: machine.NewPageTable()}
	caller.Context.A = SyscallCreateProc
	caller.Context.X = 0
	pt.Put(0, caller)
	pt.Put(1, &Process{PID: 1, State: StateRunning})
	pt.Put(2, &Process{PID: 2, State: StateRunning})
	pt.Put(3, &Process{PID: 3, State: StateRunning})

	s.Dispatch(caller)

	if caller.Context.A != 0xffff {
		t.Errorf("a = %#x, want -1", caller.Context.A)
	}

	if caller.State != StateRunning {
		t.Errorf("state = %s, want RUNNING (caller never terminated)", caller.State)
	}
}

// writeCString writes a NUL-terminated string into the currently installed
// page table at va, one byte per word, backing the filename CREATE_PROC
// reads back out.
func writeCString(t *testing.T, s *SyscallDispatcher, va machine.Word, str string) {
	t.Helper()

	for i, c := range []byte(str) {
		if err := s.mmu.Write(va+machine.Word(i), machine.Word(c), machine.User); err != nil {
			t.Fatalf("write filename byte: %s", err)
		}
	}

	if err := s.mmu.Write(va+machine.Word(len(str)), 0, machine.User); err != nil {
		t.Fatalf("write filename nul: %s", err)
	}
}
