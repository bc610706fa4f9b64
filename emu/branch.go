// Package emu provides functional ARM1176JZF-S emulation.
package emu

import (
	"github.com/sarchlab/pisim/fault"
	"github.com/sarchlab/pisim/insts"
)

// BranchUnit implements condition evaluation and ARM branch operations.
type BranchUnit struct {
	regFile *RegFile
}

// NewBranchUnit creates a new BranchUnit connected to the given register file.
func NewBranchUnit(regFile *RegFile) *BranchUnit {
	return &BranchUnit{regFile: regFile}
}

// B performs an unconditional branch. The target is computed from the
// program counter, which already runs 8 bytes ahead of the branch.
func (b *BranchUnit) B(branch insts.Branch) error {
	pc, err := b.regFile.ReadReg(insts.RegPC)
	if err != nil {
		return err
	}
	return b.regFile.WriteReg(insts.RegPC, branch.Target(pc))
}

// CheckCondition evaluates a condition code against the current flags.
// Only the conditions that do not depend on C and V are evaluated; the rest
// fault.
func (b *BranchUnit) CheckCondition(cond insts.Cond) (bool, error) {
	flags := &b.regFile.Flags

	switch cond {
	case insts.CondAL:
		// Always (unconditional)
		return true, nil
	case insts.CondEQ:
		// Equal: Z == 1
		return flags.Z, nil
	case insts.CondNE:
		// Not Equal: Z == 0
		return !flags.Z, nil
	default:
		return false, fault.Unimplemented("cpu", "condition %v", cond)
	}
}
