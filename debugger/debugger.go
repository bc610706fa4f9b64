// Package debugger implements the interactive single-step debugger.
//
// Commands are read one per line and dispatched on their first letter:
//
//	c  print the condition flags
//	r  print the registers
//	l  list the current instruction
//	s  execute one instruction
//	g  run until a fault
//	q  quit
//
// An empty line repeats the last s or g.
package debugger

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/pisim/disasm"
	"github.com/sarchlab/pisim/emu"
)

// Prompt is written before each command when prompting is enabled.
const Prompt = "> "

// Debugger drives an Emulator from a line-oriented command stream.
type Debugger struct {
	emu    *emu.Emulator
	disasm *disasm.Disassembler
	in     *bufio.Scanner
	out    io.Writer
	logger logrus.FieldLogger

	prompt bool
	last   string
}

// Option is a functional option for configuring the Debugger.
type Option func(*Debugger)

// WithPrompt enables or disables the command prompt.
func WithPrompt(prompt bool) Option {
	return func(d *Debugger) {
		d.prompt = prompt
	}
}

// WithLogger sets the logger used to record commands.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(d *Debugger) {
		d.logger = logger
	}
}

// New creates a Debugger reading commands from in and writing to out.
func New(e *emu.Emulator, in io.Reader, out io.Writer, opts ...Option) *Debugger {
	d := &Debugger{
		emu:    e,
		disasm: disasm.New(e.Memory()),
		in:     bufio.NewScanner(in),
		out:    out,
		logger: logrus.StandardLogger(),
		prompt: true,
		last:   "s",
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Run lists the current instruction and processes commands until quit, end
// of input, or a fault. Faults, including the one that ends a g command, are
// returned. Quit and end of input return nil.
func (d *Debugger) Run(ctx context.Context) error {
	if err := d.list(); err != nil {
		return err
	}

	for {
		if d.prompt {
			_, _ = io.WriteString(d.out, Prompt)
		}

		if !d.in.Scan() {
			return d.in.Err()
		}

		input := strings.TrimSpace(d.in.Text())
		if input == "" {
			input = d.last
		}
		cmd := strings.ToLower(input[:1])

		d.logger.WithField("command", cmd).Debug("debugger command")

		switch cmd {
		case "c":
			_, _ = fmt.Fprintln(d.out, d.emu.FormatFlags())
		case "r":
			regs, err := d.emu.FormatRegisters()
			if err != nil {
				return err
			}
			_, _ = io.WriteString(d.out, regs)
		case "l":
			if err := d.list(); err != nil {
				return err
			}
		case "s":
			d.last = cmd
			if result := d.emu.Step(); result.Err != nil {
				return result.Err
			}
			if err := d.list(); err != nil {
				return err
			}
		case "g":
			d.last = cmd
			return d.emu.Run(ctx)
		case "q":
			return nil
		default:
			_, _ = fmt.Fprintf(d.out, "Unknown command: %s\n", input[:1])
		}
	}
}

// list prints the instruction about to execute.
func (d *Debugger) list() error {
	addr := d.emu.ProgramCounter() - 8
	return d.disasm.Listing(d.out, addr, addr+4)
}
