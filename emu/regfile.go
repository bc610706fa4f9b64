// Package emu provides functional ARM1176JZF-S emulation.
package emu

import (
	"github.com/sarchlab/pisim/fault"
	"github.com/sarchlab/pisim/insts"
)

// NumRegisters is the number of registers visible in User and System mode.
const NumRegisters = 16

// Mode is the processor mode held in the CPSR mode bits.
type Mode uint8

// Processor modes.
const (
	ModeUser       Mode = 16
	ModeFIQ        Mode = 17
	ModeIRQ        Mode = 18
	ModeSupervisor Mode = 19
	ModeAbort      Mode = 23
	ModeUndefined  Mode = 27
	ModeSystem     Mode = 31
)

func (m Mode) String() string {
	switch m {
	case ModeUser:
		return "user"
	case ModeFIQ:
		return "fiq"
	case ModeIRQ:
		return "irq"
	case ModeSupervisor:
		return "supervisor"
	case ModeAbort:
		return "abort"
	case ModeUndefined:
		return "undefined"
	case ModeSystem:
		return "system"
	default:
		return "invalid"
	}
}

// Flags holds the CPSR condition flags.
type Flags struct {
	// N is the negative flag.
	N bool
	// Z is the zero flag.
	Z bool
	// C is the carry flag. Nothing updates it yet.
	C bool
	// V is the overflow flag. Nothing updates it yet.
	V bool
}

// RegFile represents the ARM register file as seen in User and System mode:
// r0-r12, sp (r13), lr (r14) and pc (r15). The banked registers of the other
// modes are not modelled, so any access outside User and System mode faults.
type RegFile struct {
	// R holds r0-r15.
	R [NumRegisters]uint32

	// Flags holds the condition flags.
	Flags Flags

	// Mode is the current processor mode.
	Mode Mode
}

// NewRegFile returns a register file in its power-on state: System mode,
// Z set, every register zero.
func NewRegFile() *RegFile {
	return &RegFile{
		Flags: Flags{Z: true},
		Mode:  ModeSystem,
	}
}

func (r *RegFile) checkMode() error {
	if r.Mode == ModeUser || r.Mode == ModeSystem {
		return nil
	}
	return fault.Unimplemented("cpu", "register access in %v mode", r.Mode)
}

// ReadReg reads a register value.
func (r *RegFile) ReadReg(reg uint8) (uint32, error) {
	if err := r.checkMode(); err != nil {
		return 0, err
	}
	return r.R[reg&0xF], nil
}

// WriteReg writes a value to a register.
func (r *RegFile) WriteReg(reg uint8, value uint32) error {
	if err := r.checkMode(); err != nil {
		return err
	}
	r.R[reg&0xF] = value
	return nil
}

// PC returns the program counter. It runs 8 bytes ahead of the instruction
// being executed.
func (r *RegFile) PC() uint32 {
	return r.R[insts.RegPC]
}
