package kernel

import (
	"io"
	"strings"
	"testing"

	"github.com/so24b/kernel/internal/log"
	"github.com/so24b/kernel/internal/machine"
	"github.com/so24b/kernel/internal/program"
)

// fakeOpener is a ProgramOpener backed by an in-memory map, so tests never
// touch the filesystem.
type fakeOpener map[string]*program.Image

func (f fakeOpener) Open(name string) (*program.Image, error) {
	img, ok := f[name]
	if !ok {
		return nil, program.ErrProgramFile
	}

	return img, nil
}

func newTestLogger(t *testing.T) *log.Logger {
	t.Helper()

	return log.NewFormattedLogger(testWriter{t})
}

type testWriter struct{ t *testing.T }

func (w testWriter) Write(b []byte) (int, error) {
	w.t.Helper()
	w.t.Log(strings.TrimSuffix(string(b), "\n"))

	return len(b), nil
}

var _ io.Writer = testWriter{}

// newTestKernel wires a minimal machine and returns the kernel plus its
// terminal-A device, so tests can drive I/O directly.
func newTestKernel(t *testing.T, opener fakeOpener) (*Kernel, *machine.Terminal) {
	t.Helper()

	mem := machine.NewMemory()
	clock := machine.NewClock()
	cpu := machine.NewCpu(mem, clock)
	mmu := machine.NewMMU(mem)
	io := machine.NewIO()

	termA := machine.NewTerminal(machine.TerminalA, "A")
	io.Attach(termA)
	io.Attach(clock)

	k := New(cpu, mem, mmu, io, opener).WithLogger(newTestLogger(t))

	return k, termA
}

// minimalImages returns a fakeOpener with a trap stub and an init image
// sized to occupy exactly one page, sufficient for boot scenarios.
func minimalImages() fakeOpener {
	return fakeOpener{
		TrapStubImage: {LoadAddress: machine.TrapStubAddr, Code: []machine.Word{0}},
		InitImage:     {LoadAddress: machine.UserSpaceAddr, Code: []machine.Word{0, 0, 0, 0}},
	}
}
