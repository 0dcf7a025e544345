package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/so24b/kernel/internal/cli"
	"github.com/so24b/kernel/internal/kernel"
	"github.com/so24b/kernel/internal/log"
	"github.com/so24b/kernel/internal/machine"
	"github.com/so24b/kernel/internal/program"
)

// boot is the `so24b boot <image-dir>` sub-command: it constructs a
// kernel, raises RESET, and prints the resulting process table -- a
// scriptable smoke test for scenario 1.
type boot struct {
	flags *flag.FlagSet
}

var _ cli.Command = (*boot)(nil)

func Boot() *boot {
	return &boot{flags: flag.NewFlagSet("boot", flag.ExitOnError)}
}

func (boot) Description() string {
	return "construct a kernel, raise RESET, and print the process table"
}

func (b *boot) FlagSet() *cli.FlagSet {
	return b.flags
}

func (boot) Usage(out io.Writer) error {
	_, err := fmt.Fprintln(out, `boot <image-dir>

Constructs a kernel pointed at a directory containing trata_int.img and
init.img, sends RESET, and prints the resulting process table.`)

	return err
}

func (b *boot) Run(_ context.Context, args []string, out io.Writer, logger *log.Logger) int {
	if len(args) != 1 {
		fmt.Fprintln(out, "boot: expected exactly one argument, an image directory")
		return 1
	}

	k, _ := newMachine(args[0], logger)

	if err := k.Boot(); err != nil {
		fmt.Fprintf(out, "boot: %s\n", err)
		return 1
	}

	fmt.Fprintln(out, k.Processes.String())

	return 0
}

// newMachine wires a fresh machine (CPU, memory, MMU, four terminals, a
// clock) and a kernel on top of it, following newTestKernel's shape but
// reading program images from the filesystem instead of a fake opener. It
// returns terminal A separately since the run command attaches a console
// bridge to it.
func newMachine(imageDir string, logger *log.Logger) (*kernel.Kernel, *machine.Terminal) {
	mem := machine.NewMemory()
	clock := machine.NewClock()
	cpu := machine.NewCpu(mem, clock)
	mmu := machine.NewMMU(mem)
	ioBus := machine.NewIO()

	termA := machine.NewTerminal(machine.TerminalA, "A")
	ioBus.Attach(termA)

	for _, id := range []int{machine.TerminalB, machine.TerminalC, machine.TerminalD} {
		ioBus.Attach(machine.NewTerminal(id, terminalName(id)))
	}

	ioBus.Attach(clock)

	programs := program.DirOpener{Dir: imageDir}

	return kernel.New(cpu, mem, mmu, ioBus, programs).WithLogger(logger), termA
}

func terminalName(id int) string {
	return string(rune('A' + id))
}
