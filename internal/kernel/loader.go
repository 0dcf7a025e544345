package kernel

// loader.go installs a program image into physical memory or into a
// process's virtual address space, grounded on so_carrega_programa and its
// physical/virtual helpers in the source this kernel follows.

import (
	"fmt"

	"github.com/so24b/kernel/internal/machine"
	"github.com/so24b/kernel/internal/program"
)

// ProgramOpener reads a named program image. It is the Go shape of the
// "ProgramFile" collaborator spec.md §6 describes: callers never reach for
// the filesystem directly, so tests can supply images without touching
// disk.
type ProgramOpener interface {
	Open(name string) (*program.Image, error)
}

// Loader installs program images into the machine.
type Loader struct {
	mem    *machine.Memory
	frames *machine.FrameAllocator
}

// NewLoader creates a loader bound to physical memory and the frame
// allocator it draws from for per-process loads.
func NewLoader(mem *machine.Memory, frames *machine.FrameAllocator) *Loader {
	return &Loader{mem: mem, frames: frames}
}

// LoadPhysical writes an image directly to physical memory at its literal
// load address, bypassing any page table. This is used exactly once, at
// boot, to install the supervisor trap stub -- the only code in the system
// that must live at a fixed physical address outside any process's virtual
// space.
func (l *Loader) LoadPhysical(img *program.Image) (machine.Word, error) {
	addr := img.LoadAddress

	for _, word := range img.Code {
		if err := l.mem.Write(addr, word); err != nil {
			return 0, fmt.Errorf("%w: %w", ErrLoad, err)
		}

		addr++
	}

	return img.LoadAddress, nil
}

// LoadProcess installs an image into a process's virtual address space: it
// allocates a contiguous run of physical frames covering the image's page
// range, maps each page valid in the process's page table, and copies the
// image's words into the frames. Monotonic frame allocation means later
// loads never evict earlier ones -- simple and correct for the short-lived
// programs this kernel runs (see spec.md §4.3 design note).
func (l *Loader) LoadProcess(img *program.Image, proc *Process) (machine.Word, error) {
	var (
		start    = img.LoadAddress
		end      = start + machine.Word(img.Size()) - 1
		firstPg  = machine.PageOf(start)
		lastPg   = machine.PageOf(end)
		numPages = int(lastPg-firstPg) + 1
	)

	firstFrame, err := l.frames.AllocContiguous(numPages)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrLoad, err)
	}

	frame := firstFrame
	for page := firstPg; page <= lastPg; page++ {
		proc.PageTable.Map(page, frame)
		frame++
	}

	physBase := machine.Word(firstFrame) * machine.PageSize
	physOffset := machine.OffsetOf(start)

	addr := physBase + physOffset

	for _, word := range img.Code {
		if err := l.mem.Write(addr, word); err != nil {
			return 0, fmt.Errorf("%w: %w", ErrLoad, err)
		}

		addr++
	}

	return start, nil
}
