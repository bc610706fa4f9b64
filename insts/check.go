package insts

import (
	"github.com/sarchlab/pisim/fault"
)

const component = "cpu"

// Check reports whether the emulator models inst. It returns a
// *fault.UnimplementedFeature naming the first unsupported condition,
// opcode, operand form or addressing variant, and nil otherwise.
//
// Execution and disassembly both gate on Check, so they reject exactly the
// same words.
func (inst *Instruction) Check() error {
	if inst.Category == CategoryUnrecognized {
		return fault.Unimplemented(component, "instruction 0x%08x", inst.Word)
	}

	switch inst.Cond {
	case CondAL, CondEQ, CondNE:
	default:
		return fault.Unimplemented(component, "condition %v in 0x%08x", inst.Cond, inst.Word)
	}

	switch inst.Category {
	case CategoryDataProcessing:
		return inst.checkDataProcessing()
	case CategoryLoadStoreWord:
		return inst.checkLoadStore()
	case CategoryBranch:
		if inst.Branch.Link {
			return fault.Unimplemented(component, "branch and link")
		}
	}

	return nil
}

func (inst *Instruction) checkDataProcessing() error {
	dp := &inst.DP

	switch dp.Opcode {
	case OpMOV, OpSUB:
		if dp.SetFlags {
			// C and V have no update path.
			return fault.Unimplemented(component, "set CPSR (%vs)", dp.Opcode)
		}
	case OpCMP:
		if !dp.SetFlags {
			return fault.Unimplemented(component, "miscellaneous instruction 0x%08x", inst.Word)
		}
	default:
		return fault.Unimplemented(component, "data processing opcode %v", dp.Opcode)
	}

	if !dp.Immediate && !dp.PlainLSL() {
		if dp.RegisterShift {
			return fault.Unimplemented(component, "register-specified shift (%v)", dp.ShiftType)
		}
		return fault.Unimplemented(component, "shift type %v", dp.ShiftType)
	}

	return nil
}

func (inst *Instruction) checkLoadStore() error {
	ls := &inst.LS

	switch {
	case ls.Immediate:
		return fault.Unimplemented(component, "load/store register offset")
	case !ls.PreIndex:
		return fault.Unimplemented(component, "load/store post-indexed addressing")
	case ls.Writeback:
		return fault.Unimplemented(component, "load/store writeback")
	case ls.Byte && ls.Load:
		return fault.Unimplemented(component, "load byte")
	case ls.Byte:
		return fault.Unimplemented(component, "store byte")
	}

	return nil
}
