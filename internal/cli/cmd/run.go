package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/so24b/kernel/internal/cli"
	"github.com/so24b/kernel/internal/console"
	"github.com/so24b/kernel/internal/log"
)

// run is the `so24b run <image-dir>` sub-command: boot, attach a console,
// and drive the clock-tick loop until the machine halts or the context is
// cancelled (Ctrl-C).
type run struct {
	flags *flag.FlagSet
}

var _ cli.Command = (*run)(nil)

func Run() *run {
	return &run{flags: flag.NewFlagSet("run", flag.ExitOnError)}
}

func (run) Description() string {
	return "boot, attach the console, and run until halt"
}

func (r *run) FlagSet() *cli.FlagSet {
	return r.flags
}

func (run) Usage(out io.Writer) error {
	_, err := fmt.Fprintln(out, `run <image-dir>

Boots a kernel from the given image directory, attaches the console's TTY
bridge to terminal A when stdin is a real terminal, and drives the clock
until the machine halts or Ctrl-C is pressed.`)

	return err
}

func (r *run) Run(ctx context.Context, args []string, out io.Writer, logger *log.Logger) int {
	if len(args) != 1 {
		fmt.Fprintln(out, "run: expected exactly one argument, an image directory")
		return 1
	}

	k, termA := newMachine(args[0], logger)

	cons, err := console.NewConsole(os.Stdin, os.Stdout, termA, logger)
	if err == nil {
		defer cons.Close()

		k.WithTicker(cons)
	} else {
		logger.Info("run: no console attached", "err", err)
	}

	if err := k.Boot(); err != nil {
		fmt.Fprintf(out, "run: %s\n", err)
		return 1
	}

	if err := k.Cpu.Run(ctx); err != nil && ctx.Err() == nil {
		fmt.Fprintf(out, "run: %s\n", err)
		return 1
	}

	return 0
}
