package kernel

// dispatch.go is the final phase of every trap: writing the selected
// process's context back into the save area and installing its page table,
// grounded on so_despacha in the source this kernel follows.

import (
	"github.com/so24b/kernel/internal/machine"
)

// Dispatcher restores a process's saved registers into the save area
// through the MMU (in supervisor mode, since the save area is never
// mapped into any process's page table) and installs its page table so
// user-mode accesses translate correctly once the CPU resumes.
type Dispatcher struct {
	mmu *machine.MMU
	pt  *ProcessTable
}

// NewDispatcher creates a dispatcher bound to the MMU and process table.
func NewDispatcher(mmu *machine.MMU, pt *ProcessTable) *Dispatcher {
	return &Dispatcher{mmu: mmu, pt: pt}
}

// Dispatch installs the selected slot's context and page table. slot is
// NoProcess only when the caller is about to halt regardless (an internal
// error), since the idle loop never lets the trap handler reach dispatch
// with nothing selected and no fault. It returns 0 on success, non-zero if
// the CPU should halt.
func (d *Dispatcher) Dispatch(slot int, internalError bool) int {
	if internalError || slot == NoProcess {
		return 1
	}

	p := d.pt.Slot(slot)
	if p == nil {
		return 1
	}

	d.mmu.SetPageTable(p.PageTable)

	if err := d.mmu.Write(machine.SavePC, machine.Word(p.Context.PC), machine.Supervisor); err != nil {
		return 1
	}

	if err := d.mmu.Write(machine.SaveA, machine.Word(p.Context.A), machine.Supervisor); err != nil {
		return 1
	}

	if err := d.mmu.Write(machine.SaveX, machine.Word(p.Context.X), machine.Supervisor); err != nil {
		return 1
	}

	return 0
}
