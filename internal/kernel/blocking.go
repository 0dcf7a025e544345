package kernel

// blocking.go is the two-pass blocker resolver: so_desbloqueia_processos and
// the reaping half of so_escalona in the source this kernel follows.

import (
	"github.com/so24b/kernel/internal/machine"
)

// BlockingResolver wakes processes whose blocking condition has cleared and
// reaps processes that have terminated. It runs once per trap, always pass A
// (wake) before pass B (reap), so a joiner observes a terminated target in
// the same trap that woke it.
type BlockingResolver struct {
	io        *machine.IO
	pt        *ProcessTable
	terminate func(p *Process, err error)
}

// NewBlockingResolver creates a resolver bound to the I/O subsystem and the
// process table it polls. terminate is called to end a process whose
// blocking condition can no longer be resolved (a device I/O failure).
func NewBlockingResolver(io *machine.IO, pt *ProcessTable, terminate func(p *Process, err error)) *BlockingResolver {
	return &BlockingResolver{io: io, pt: pt, terminate: terminate}
}

// Resolve runs both passes once.
func (r *BlockingResolver) Resolve() {
	r.wake()
	r.reap()
}

// wake is pass A: poll every BLOCKED descriptor's condition and, if ready,
// transition it back to READY.
func (r *BlockingResolver) wake() {
	r.pt.Each(func(_ int, p *Process) {
		if p.State != StateBlocked {
			return
		}

		switch p.Blocking.Kind {
		case BlockingInput:
			r.wakeInput(p)
		case BlockingOutput:
			r.wakeOutput(p)
		case BlockingJoin:
			r.wakeJoin(p)
		}
	})
}

func (r *BlockingResolver) wakeInput(p *Process) {
	status, err := r.io.Read(machine.Word(p.Blocking.ID))
	if err != nil {
		r.terminate(p, err)

		return
	}

	if status == 0 {
		return
	}

	word, err := r.io.Read(p.InDev)
	if err != nil {
		r.terminate(p, err)

		return
	}

	_ = r.io.Write(machine.Word(p.Blocking.ID), 0)

	p.Context.A = machine.Register(word)
	r.ready(p)
}

func (r *BlockingResolver) wakeOutput(p *Process) {
	status, err := r.io.Read(machine.Word(p.Blocking.ID))
	if err != nil {
		r.terminate(p, err)

		return
	}

	if status == 0 {
		return
	}

	if err := r.io.Write(p.OutDev, machine.Word(p.Context.X)); err != nil {
		r.terminate(p, err)

		return
	}

	_ = r.io.Write(machine.Word(p.Blocking.ID), 0)

	p.Context.A = 0
	r.ready(p)
}

func (r *BlockingResolver) wakeJoin(p *Process) {
	target := r.pt.Find(p.Blocking.ID)
	if target == nil || target.State == StateTerminated {
		p.Context.A = 0
		r.ready(p)
	}
}

func (r *BlockingResolver) ready(p *Process) {
	p.State = StateReady
	p.Blocking = Blocking{Kind: NotBlocking}
}

// reap is pass B: free the slot and discard the page table of every
// TERMINATED descriptor. It runs after every wake in the same trap, so a
// JOIN can fire (pass A) before its target's slot is freed (pass B).
func (r *BlockingResolver) reap() {
	for i := 0; i < MaxProcesses; i++ {
		p := r.pt.Slot(i)
		if p == nil || p.State != StateTerminated {
			continue
		}

		p.PageTable = nil
		r.pt.Free(i)
	}
}
