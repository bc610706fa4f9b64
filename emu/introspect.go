package emu

import (
	"fmt"
	"strings"

	"github.com/sarchlab/pisim/insts"
)

// Registers returns a copy of r0-r15.
func (e *Emulator) Registers() ([NumRegisters]uint32, error) {
	var regs [NumRegisters]uint32

	for reg := range regs {
		value, err := e.regFile.ReadReg(uint8(reg))
		if err != nil {
			return regs, err
		}
		regs[reg] = value
	}

	return regs, nil
}

// Flags returns the condition flags.
func (e *Emulator) Flags() Flags {
	return e.regFile.Flags
}

// FormatFlags renders the flags with set flags in upper case, e.g.
// "CPSR: nZcv".
func (e *Emulator) FormatFlags() string {
	flags := e.regFile.Flags

	return "CPSR: " +
		flagChar(flags.N, 'n') +
		flagChar(flags.Z, 'z') +
		flagChar(flags.C, 'c') +
		flagChar(flags.V, 'v')
}

func flagChar(set bool, c byte) string {
	if set {
		c -= 'a' - 'A'
	}
	return string(c)
}

// FormatRegisters renders all 16 registers, four to a line.
func (e *Emulator) FormatRegisters() (string, error) {
	regs, err := e.Registers()
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for reg, value := range regs {
		fmt.Fprintf(&b, "%-4s 0x%08x", insts.RegisterName(uint8(reg))+":", value)

		if reg%4 == 3 {
			b.WriteByte('\n')
		} else {
			b.WriteString("   ")
		}
	}

	return b.String(), nil
}
