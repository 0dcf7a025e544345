// Package console bridges terminal A's memory-mapped register pair to a
// real host terminal, and supplies the kernel's idle-loop primitive.
//
// Grounded on cmd/internal/tty/tty.go's Console: that type runs a
// goroutine-per-direction bridge (readTerminal, updateKeyboard) between a
// raw host TTY and a single simulated keyboard/display pair. This package
// keeps the raw-mode setup and the read goroutine, but -- because
// spec.md's kernel is single-threaded and holds no locks -- it does not
// mutate the terminal from a second goroutine. Instead, Tictac delivers at
// most one pending key per call synchronously, on the kernel's own
// goroutine, exactly where the trap loop calls it.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"syscall"
	"time"

	"github.com/so24b/kernel/internal/log"
	"github.com/so24b/kernel/internal/machine"
	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

// ErrNoTTY is returned when standard input is not a terminal.
var ErrNoTTY = errors.New("console: not a TTY")

// Console adapts terminal A for use on a real terminal: keystrokes arrive
// asynchronously on a channel and are delivered into the input register
// pair by Tictac; writes to the output register are relayed to the host
// terminal as they happen, on the kernel's own goroutine.
type Console struct {
	term *machine.Terminal
	log  *log.Logger

	in    *os.File
	out   *term.Terminal
	fd    int
	state *term.State

	keyCh  chan byte
	cancel context.CancelFunc
}

// NewConsole takes over sin/sout for raw teletype I/O and wires term's
// output half to the host terminal. Callers must call Close to restore
// the terminal and stop the read goroutine. If sin is not a terminal,
// ErrNoTTY is returned and term is left unwired.
func NewConsole(sin, sout *os.File, term_ *machine.Terminal, logger *log.Logger) (*Console, error) {
	fd := int(sin.Fd())

	if !term.IsTerminal(fd) {
		return nil, ErrNoTTY
	}

	saved, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNoTTY, err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	c := &Console{
		term:   term_,
		log:    logger,
		in:     sin,
		out:    term.NewTerminal(sout, ""),
		fd:     fd,
		state:  saved,
		keyCh:  make(chan byte, 16),
		cancel: cancel,
	}

	if err := c.setTerminalParams(1, 0); err != nil {
		_ = term.Restore(fd, saved)
		return nil, err
	}

	term_.Listen(c.writeOut)

	go c.readTerminal(ctx)

	return c, nil
}

// Close restores the host terminal's original state and stops the read
// goroutine. It is safe to call more than once.
func (c *Console) Close() {
	c.cancel()
	_ = c.in.SetReadDeadline(time.Now())
	_ = term.Restore(c.fd, c.state)
}

// Tictac is the kernel's idle-loop primitive (spec.md §4.1 step 5). It
// delivers at most one pending keystroke into terminal A's input
// register, and only when the input half isn't already holding an
// undelivered byte -- the same overrun rule a real single-register
// keyboard would impose.
func (c *Console) Tictac() {
	status, err := c.term.Read(c.term.In() + 1)
	if err != nil || status == machine.StatusReady {
		return
	}

	select {
	case b := <-c.keyCh:
		c.term.Deliver(machine.Word(b))
	default:
	}
}

// writeOut is registered with the terminal's Listen hook and is called,
// synchronously, on the kernel's own goroutine every time a process
// writes to the output register.
func (c *Console) writeOut(val machine.Word) {
	if _, err := c.out.Write([]byte{byte(val)}); err != nil {
		c.log.Warn("console: write to host terminal failed", "err", err)
	}
}

func (c *Console) setTerminalParams(vmin, vtime byte) error {
	_ = syscall.SetNonblock(c.fd, true)

	termios, err := unix.IoctlGetTermios(c.fd, getTermiosIoctl)
	if err != nil {
		return err
	}

	termios.Cc[unix.VMIN] = vmin
	termios.Cc[unix.VTIME] = vtime

	if err := unix.IoctlSetTermios(c.fd, setTermiosIoctl, termios); err != nil {
		return err
	}

	_ = c.in.SetReadDeadline(time.Time{})

	return nil
}

// readTerminal is the console's one background goroutine: a blocking byte
// reader feeding keyCh. It stops when ctx is cancelled, which Close
// arranges by also setting a read deadline in the past to unblock the
// in-flight read.
func (c *Console) readTerminal(ctx context.Context) {
	_ = syscall.SetNonblock(c.fd, false)

	buf := bufio.NewReader(c.in)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		b, err := buf.ReadByte()
		if err != nil {
			return
		}

		select {
		case c.keyCh <- b:
		case <-ctx.Done():
			return
		}
	}
}
