package kernel

import (
	"testing"

	"github.com/so24b/kernel/internal/machine"
)

func newResolverFixture() (*BlockingResolver, *ProcessTable, *machine.IO, *machine.Terminal) {
	io := machine.NewIO()
	term := machine.NewTerminal(machine.TerminalA, "A")
	io.Attach(term)

	pt := NewProcessTable()

	terminate := func(p *Process, err error) { p.State = StateTerminated }

	return NewBlockingResolver(io, pt, terminate), pt, io, term
}

func TestBlockingResolverWakesOnInput(t *testing.T) {
	r, pt, _, term := newResolverFixture()

	p := &Process{
		PID:      0,
		State:    StateBlocked,
		Blocking: Blocking{Kind: BlockingInput, ID: int(term.In() + 1)},
		InDev:    term.In(),
	}
	pt.Put(0, p)

	r.Resolve()

	if p.State != StateBlocked {
		t.Fatalf("state = %s, want still BLOCKED before input arrives", p.State)
	}

	term.Deliver(7)
	r.Resolve()

	if p.State != StateReady {
		t.Fatalf("state = %s, want READY after input delivered", p.State)
	}

	if p.Context.A != 7 {
		t.Errorf("a = %d, want 7", p.Context.A)
	}

	if p.Blocking.Kind != NotBlocking {
		t.Errorf("blocking.kind = %v, want NotBlocking", p.Blocking.Kind)
	}
}

func TestBlockingResolverWakesOnOutput(t *testing.T) {
	r, pt, _, term := newResolverFixture()

	p := &Process{
		PID:      0,
		State:    StateBlocked,
		Blocking: Blocking{Kind: BlockingOutput, ID: int(term.Out() + 1)},
		OutDev:   term.Out(),
	}
	p.Context.X = 99
	pt.Put(0, p)

	term.SetOutputReady(true)
	r.Resolve()

	if p.State != StateReady {
		t.Fatalf("state = %s, want READY", p.State)
	}

	if p.Context.A != 0 {
		t.Errorf("a = %d, want 0", p.Context.A)
	}

	if term.Displayed() != 99 {
		t.Errorf("displayed = %d, want 99", term.Displayed())
	}
}

// TestJoinWakesSameTrapTargetTerminates is Open Question 2's resolution: a
// joiner wakes in the same resolution pass its target terminates, and the
// target's slot is already free by the next pass.
func TestJoinWakesSameTrapTargetTerminates(t *testing.T) {
	r, pt, _, _ := newResolverFixture()

	joiner := &Process{PID: 0, State: StateBlocked, Blocking: Blocking{Kind: BlockingJoin, ID: 1}}
	target := &Process{PID: 1, State: StateTerminated}

	pt.Put(0, joiner)
	pt.Put(1, target)

	r.Resolve()

	if joiner.State != StateReady {
		t.Fatalf("joiner state = %s, want READY", joiner.State)
	}

	if joiner.Context.A != 0 {
		t.Errorf("joiner a = %d, want 0", joiner.Context.A)
	}

	if pt.Slot(1) != nil {
		t.Errorf("target slot not reaped")
	}
}

func TestReapClearsPageTable(t *testing.T) {
	r, pt, _, _ := newResolverFixture()

	p := &Process{PID: 0, State: StateTerminated, PageTable: machine.NewPageTable()}
	pt.Put(0, p)

	r.Resolve()

	if pt.Slot(0) != nil {
		t.Fatalf("slot not freed")
	}

	if p.PageTable != nil {
		t.Errorf("page table not cleared on reap")
	}
}
