// Package emu provides functional ARM1176JZF-S emulation.
package emu

import (
	"github.com/sarchlab/pisim/insts"
)

// ALU implements ARM data processing operations.
type ALU struct {
	regFile *RegFile
}

// NewALU creates a new ALU connected to the given register file.
func NewALU(regFile *RegFile) *ALU {
	return &ALU{regFile: regFile}
}

// Operand evaluates the shifter operand: the rotated immediate, or Rm
// shifted left by an immediate amount.
func (a *ALU) Operand(dp insts.DataProcessing) (uint32, error) {
	if dp.Immediate {
		return dp.ImmediateOperand(), nil
	}

	rm, err := a.regFile.ReadReg(dp.Rm)
	if err != nil {
		return 0, err
	}
	return rm << dp.ShiftAmount, nil
}

// MOV performs a move: Rd = operand
func (a *ALU) MOV(rd uint8, operand uint32) error {
	return a.regFile.WriteReg(rd, operand)
}

// SUB performs 32-bit subtraction: Rd = Rn - operand
func (a *ALU) SUB(rd, rn uint8, operand uint32) error {
	op1, err := a.regFile.ReadReg(rn)
	if err != nil {
		return err
	}
	return a.regFile.WriteReg(rd, op1-operand)
}

// CMP compares Rn with operand. N and Z follow Rn - operand; C and V are
// left untouched.
func (a *ALU) CMP(rn uint8, operand uint32) error {
	op1, err := a.regFile.ReadReg(rn)
	if err != nil {
		return err
	}

	result := op1 - operand
	a.regFile.Flags.N = result>>31 == 1
	a.regFile.Flags.Z = result == 0

	return nil
}
