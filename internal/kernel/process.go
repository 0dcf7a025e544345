package kernel

// process.go is the process descriptor and the fixed-capacity process
// table, grounded on Process/Process_t and the process_table array of the
// source this kernel follows.

import (
	"fmt"
	"strings"

	"github.com/so24b/kernel/internal/machine"
)

// Process is the kernel's record for one process: spec.md §3's process
// descriptor.
type Process struct {
	PID      int
	Priority float64
	State    ProcessState
	Blocking Blocking
	Context  Context

	InDev  machine.Word
	OutDev machine.Word

	PageTable *machine.PageTable
}

func (p *Process) String() string {
	return fmt.Sprintf("pid:%d state:%s", p.PID, p.State)
}

// ProcessTable is a fixed-size array of optional process-descriptor slots.
// Slot index and pid are independent: a pid survives after its slot is
// freed and reused by an unrelated later process.
type ProcessTable struct {
	slots   [MaxProcesses]*Process
	nextPID int
}

// NewProcessTable creates an empty process table. The pid counter starts at
// 0, the reserved pid of the init process.
func NewProcessTable() *ProcessTable {
	return &ProcessTable{}
}

// Reset clears every slot, as the RESET interrupt service routine requires.
func (pt *ProcessTable) Reset() {
	for i := range pt.slots {
		pt.slots[i] = nil
	}

	pt.nextPID = 0
}

// NewPID allocates the next process identifier from the table's monotonic,
// process-wide counter.
func (pt *ProcessTable) NewPID() int {
	pid := pt.nextPID
	pt.nextPID++

	return pid
}

// Slot returns the descriptor in slot i, or nil if the slot is free.
func (pt *ProcessTable) Slot(i int) *Process {
	return pt.slots[i]
}

// Put installs a descriptor in slot i.
func (pt *ProcessTable) Put(i int, p *Process) {
	pt.slots[i] = p
}

// Free clears slot i.
func (pt *ProcessTable) Free(i int) {
	pt.slots[i] = nil
}

// FreeSlot returns the index of the first free slot, or -1 if the table is
// full.
func (pt *ProcessTable) FreeSlot() int {
	for i, p := range pt.slots {
		if p == nil {
			return i
		}
	}

	return -1
}

// Find returns the descriptor with the given pid, scanning the (at most
// four) occupied slots linearly -- the natural implementation for a table
// this small.
func (pt *ProcessTable) Find(pid int) *Process {
	for _, p := range pt.slots {
		if p != nil && p.PID == pid {
			return p
		}
	}

	return nil
}

// Each calls fn once per occupied slot, in slot order.
func (pt *ProcessTable) Each(fn func(slot int, p *Process)) {
	for i, p := range pt.slots {
		if p != nil {
			fn(i, p)
		}
	}
}

func (pt *ProcessTable) String() string {
	var b strings.Builder

	for i, p := range pt.slots {
		if p == nil {
			fmt.Fprintf(&b, "[%d, -]", i)
		} else {
			fmt.Fprintf(&b, "[%d, %s]", p.PID, p.State)
		}
	}

	return b.String()
}
