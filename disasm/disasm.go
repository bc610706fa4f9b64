// Package disasm renders ARM instruction words as assembly text.
//
// The disassembler decodes with the same decoder and support check as the
// execution engine, so a word either executes and disassembles, or faults in
// both.
package disasm

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sarchlab/pisim/fault"
	"github.com/sarchlab/pisim/insts"
)

// WordReader reads aligned 32-bit words. *emu.AddressSpace satisfies it.
type WordReader interface {
	ReadWord(addr uint32) (uint32, error)
}

// Disassembler renders words read from memory.
type Disassembler struct {
	memory  WordReader
	decoder *insts.Decoder
}

// New creates a Disassembler reading from memory.
func New(memory WordReader) *Disassembler {
	return &Disassembler{
		memory:  memory,
		decoder: insts.NewDecoder(),
	}
}

// Disassemble renders the instruction at addr as a single line, e.g.
//
//	    8000:  e3a0002a  mov     r0, #42
func (d *Disassembler) Disassemble(addr uint32) (string, error) {
	word, err := d.memory.ReadWord(addr)
	if err != nil {
		return "", err
	}
	return d.Format(addr, word)
}

// Format renders word as if it were located at addr.
func (d *Disassembler) Format(addr, word uint32) (string, error) {
	inst := d.decoder.Decode(word)
	if err := inst.Check(); err != nil {
		return "", err
	}

	operator, operand := render(addr, inst)

	return fmt.Sprintf("%8x:  %08x  %-8s%s", addr, word, operator, operand), nil
}

// Listing writes one line for every word in [start, end). Words that cannot
// be disassembled are listed as data with the reason as a comment. A memory
// fault stops the listing.
func (d *Disassembler) Listing(w io.Writer, start, end uint32) error {
	for addr := start; addr < end; addr += 4 {
		word, err := d.memory.ReadWord(addr)
		if err != nil {
			return err
		}

		line, err := d.Format(addr, word)

		var unimpl *fault.UnimplementedFeature
		if errors.As(err, &unimpl) {
			line = fmt.Sprintf("%8x:  %08x  %-8s0x%08x   ; %v",
				addr, word, ".word", word, unimpl)
		} else if err != nil {
			return err
		}

		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}

		if addr+4 < addr {
			break
		}
	}

	return nil
}

func render(addr uint32, inst *insts.Instruction) (operator, operand string) {
	switch inst.Category {
	case insts.CategoryDataProcessing:
		return renderDataProcessing(inst)
	case insts.CategoryLoadStoreWord:
		return renderLoadStore(addr, inst)
	case insts.CategoryBranch:
		return renderBranch(addr, inst)
	default:
		return ".word", fmt.Sprintf("0x%08x", inst.Word)
	}
}

func renderDataProcessing(inst *insts.Instruction) (string, string) {
	dp := inst.DP
	name := func(reg uint8) string { return insts.RegisterName(reg) }

	var operator strings.Builder
	operator.WriteString(dp.Opcode.String())
	if dp.Opcode == insts.OpMOV && !dp.Immediate && dp.PlainLSL() {
		operator.Reset()
		operator.WriteString("lsl")
	}
	operator.WriteString(inst.Cond.Suffix())
	if dp.SetFlags && !isCompare(dp.Opcode) {
		operator.WriteByte('s')
	}

	var operand strings.Builder
	if !isCompare(dp.Opcode) {
		fmt.Fprintf(&operand, "%s, ", name(dp.Rd))
	}
	if dp.Opcode != insts.OpMOV && dp.Opcode != insts.OpMVN {
		fmt.Fprintf(&operand, "%s, ", name(dp.Rn))
	}

	switch {
	case dp.Immediate:
		fmt.Fprintf(&operand, "#%d", dp.ImmediateOperand())
	case dp.Opcode == insts.OpMOV:
		fmt.Fprintf(&operand, "%s, #%d", name(dp.Rm), dp.ShiftAmount)
	case dp.ShiftAmount == 0:
		operand.WriteString(name(dp.Rm))
	default:
		fmt.Fprintf(&operand, "%s, %v #%d", name(dp.Rm), dp.ShiftType, dp.ShiftAmount)
	}

	return operator.String(), operand.String()
}

func isCompare(op insts.Opcode) bool {
	return op >= insts.OpTST && op <= insts.OpCMN
}

func renderLoadStore(addr uint32, inst *insts.Instruction) (string, string) {
	ls := inst.LS

	operator := "str"
	if ls.Load {
		operator = "ldr"
	}
	operator += inst.Cond.Suffix()
	if ls.Byte {
		operator += "b"
	}

	var operand strings.Builder
	fmt.Fprintf(&operand, "%s, [%s, #", insts.RegisterName(ls.Rd), insts.RegisterName(ls.Rn))
	if !ls.Up {
		operand.WriteByte('-')
	}
	fmt.Fprintf(&operand, "%d]", ls.Offset12)

	switch {
	case ls.Rn == insts.RegPC:
		fmt.Fprintf(&operand, "   ; %x", ls.Address(addr+8))
	case ls.Offset12 > 15:
		fmt.Fprintf(&operand, "   ; 0x%x", ls.Offset12)
	}

	return operator, operand.String()
}

func renderBranch(addr uint32, inst *insts.Instruction) (string, string) {
	operator := "b"
	if inst.Branch.Link {
		operator = "bl"
	}
	operator += inst.Cond.Suffix()

	return operator, fmt.Sprintf("%x", inst.Branch.Target(addr))
}
