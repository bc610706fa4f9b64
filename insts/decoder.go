// Package insts provides ARMv6 (A32) instruction definitions and decoding.
package insts

import "math/bits"

// Category is the top-level instruction class of an encoding.
type Category uint8

// Instruction categories, in decode priority order.
const (
	CategoryUnrecognized Category = iota
	CategoryDataProcessing
	CategoryLoadStoreWord
	CategoryBranch
)

var categoryNames = [...]string{"unrecognized", "data processing", "load/store word", "branch"}

func (c Category) String() string {
	if int(c) < len(categoryNames) {
		return categoryNames[c]
	}
	return "unknown"
}

// Cond represents an ARM condition code.
type Cond uint8

// ARM condition codes.
const (
	CondEQ Cond = 0b0000 // Equal (Z == 1)
	CondNE Cond = 0b0001 // Not Equal (Z == 0)
	CondCS Cond = 0b0010 // Carry Set / Unsigned higher or same (C == 1)
	CondCC Cond = 0b0011 // Carry Clear / Unsigned lower (C == 0)
	CondMI Cond = 0b0100 // Minus / Negative (N == 1)
	CondPL Cond = 0b0101 // Plus / Positive or zero (N == 0)
	CondVS Cond = 0b0110 // Overflow (V == 1)
	CondVC Cond = 0b0111 // No overflow (V == 0)
	CondHI Cond = 0b1000 // Unsigned higher (C == 1 && Z == 0)
	CondLS Cond = 0b1001 // Unsigned lower or same (C == 0 || Z == 1)
	CondGE Cond = 0b1010 // Signed greater than or equal (N == V)
	CondLT Cond = 0b1011 // Signed less than (N != V)
	CondGT Cond = 0b1100 // Signed greater than (Z == 0 && N == V)
	CondLE Cond = 0b1101 // Signed less than or equal (Z == 1 || N != V)
	CondAL Cond = 0b1110 // Always (unconditional)
	CondNV Cond = 0b1111 // Unconditional instruction space
)

var condNames = [16]string{
	"eq", "ne", "cs", "cc", "mi", "pl", "vs", "vc",
	"hi", "ls", "ge", "lt", "gt", "le", "al", "nv",
}

func (c Cond) String() string {
	return condNames[c&0xF]
}

// Suffix returns the mnemonic suffix for the condition, which is empty for
// CondAL.
func (c Cond) Suffix() string {
	if c == CondAL {
		return ""
	}
	return c.String()
}

// Opcode is the 4-bit data processing operation.
type Opcode uint8

// Data processing opcodes.
const (
	OpAND Opcode = iota
	OpEOR
	OpSUB
	OpRSB
	OpADD
	OpADC
	OpSBC
	OpRSC
	OpTST
	OpTEQ
	OpCMP
	OpCMN
	OpORR
	OpMOV
	OpBIC
	OpMVN
)

var opcodeNames = [16]string{
	"and", "eor", "sub", "rsb", "add", "adc", "sbc", "rsc",
	"tst", "teq", "cmp", "cmn", "orr", "mov", "bic", "mvn",
}

func (o Opcode) String() string {
	return opcodeNames[o&0xF]
}

// ShiftType represents a shift type for register operands.
type ShiftType uint8

// Shift types.
const (
	ShiftLSL ShiftType = 0b00 // Logical shift left
	ShiftLSR ShiftType = 0b01 // Logical shift right
	ShiftASR ShiftType = 0b10 // Arithmetic shift right
	ShiftROR ShiftType = 0b11 // Rotate right
)

var shiftNames = [4]string{"lsl", "lsr", "asr", "ror"}

func (s ShiftType) String() string {
	return shiftNames[s&0x3]
}

// Named registers.
const (
	RegSP uint8 = 13
	RegLR uint8 = 14
	RegPC uint8 = 15
)

var registerNames = [16]string{
	"r0", "r1", "r2", "r3", "r4", "r5", "r6", "r7",
	"r8", "r9", "r10", "r11", "r12", "sp", "lr", "pc",
}

// RegisterName returns the assembler name of a register index.
func RegisterName(reg uint8) string {
	return registerNames[reg&0xF]
}

// DataProcessing holds the fields of a data processing encoding.
type DataProcessing struct {
	Immediate bool   // I bit: operand is a rotated immediate
	Opcode    Opcode // Operation
	SetFlags  bool   // S bit
	Rn        uint8  // First operand register
	Rd        uint8  // Destination register

	// Immediate operand
	Rotate uint8 // Rotate-right count, in units of two bits
	Imm8   uint8 // 8-bit immediate

	// Register operand
	Rm            uint8     // Operand register
	ShiftType     ShiftType // Shift applied to Rm
	ShiftAmount   uint8     // Immediate shift amount
	RegisterShift bool      // Shift amount comes from a register
}

// ImmediateOperand returns the rotated immediate operand.
func (dp DataProcessing) ImmediateOperand() uint32 {
	return bits.RotateLeft32(uint32(dp.Imm8), -2*int(dp.Rotate))
}

// PlainLSL reports whether the operand is Rm shifted left by an immediate
// amount, the only register form the emulator models.
func (dp DataProcessing) PlainLSL() bool {
	return !dp.Immediate && dp.ShiftType == ShiftLSL && !dp.RegisterShift
}

// LoadStore holds the fields of a load/store word or unsigned byte encoding.
type LoadStore struct {
	Immediate bool // I bit: set selects a register offset
	PreIndex  bool // P bit
	Up        bool // U bit: add the offset
	Byte      bool // B bit
	Writeback bool // W bit
	Load      bool // L bit
	Rn        uint8
	Rd        uint8
	Rm        uint8
	Offset12  uint16

	ShiftType   ShiftType
	ShiftAmount uint8
}

// Address applies the immediate offset to a base address.
func (ls LoadStore) Address(base uint32) uint32 {
	if ls.Up {
		return base + uint32(ls.Offset12)
	}
	return base - uint32(ls.Offset12)
}

// Branch holds the fields of a branch encoding.
type Branch struct {
	Link   bool   // L bit
	Imm24  uint32 // Raw signed 24-bit word offset
	Offset int32  // Sign-extended offset in bytes
}

// Target returns the new program counter value for a branch executed while
// the program counter reads pc. The program counter runs 8 bytes ahead of
// the instruction, so the result is the destination address plus 8.
func (b Branch) Target(pc uint32) uint32 {
	return pc + 8 + uint32(b.Offset)
}

// Instruction represents a decoded ARM instruction. Only the field struct
// matching Category is meaningful.
type Instruction struct {
	Word     uint32
	Cond     Cond
	Category Category

	DP     DataProcessing
	LS     LoadStore
	Branch Branch
}

// WritesPC reports whether inst stores its result in pc. Branches are not
// included.
func (inst *Instruction) WritesPC() bool {
	switch inst.Category {
	case CategoryDataProcessing:
		return inst.DP.Rd == RegPC &&
			(inst.DP.Opcode == OpMOV || inst.DP.Opcode == OpSUB)
	case CategoryLoadStoreWord:
		return inst.LS.Load && inst.LS.Rd == RegPC
	}
	return false
}

// Decoder decodes ARM machine code into instructions.
type Decoder struct{}

// NewDecoder creates a new ARM instruction decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode decodes a 32-bit ARM instruction word.
func (d *Decoder) Decode(word uint32) *Instruction {
	inst := &Instruction{
		Word:     word,
		Cond:     Cond(word >> 28),
		Category: CategoryUnrecognized,
	}

	switch {
	case d.isDataProcessing(word):
		d.decodeDataProcessing(word, inst)
	case d.isLoadStoreWord(word):
		d.decodeLoadStoreWord(word, inst)
	case d.isBranch(word):
		d.decodeBranch(word, inst)
	}

	return inst
}

// isDataProcessing checks bits [27:26] == 0b00.
func (d *Decoder) isDataProcessing(word uint32) bool {
	return (word>>26)&0x3 == 0b00
}

// decodeDataProcessing decodes data processing instructions.
// Format: cond | 00 | I | opcode | S | Rn | Rd | shifter_operand
func (d *Decoder) decodeDataProcessing(word uint32, inst *Instruction) {
	inst.Category = CategoryDataProcessing

	dp := &inst.DP
	dp.Immediate = (word>>25)&0x1 == 1     // bit 25
	dp.Opcode = Opcode((word >> 21) & 0xF) // bits [24:21]
	dp.SetFlags = (word>>20)&0x1 == 1      // bit 20
	dp.Rn = uint8((word >> 16) & 0xF)      // bits [19:16]
	dp.Rd = uint8((word >> 12) & 0xF)      // bits [15:12]

	if dp.Immediate {
		dp.Rotate = uint8((word >> 8) & 0xF) // bits [11:8]
		dp.Imm8 = uint8(word & 0xFF)         // bits [7:0]
		return
	}

	dp.ShiftAmount = uint8((word >> 7) & 0x1F)  // bits [11:7]
	dp.ShiftType = ShiftType((word >> 5) & 0x3) // bits [6:5]
	dp.RegisterShift = (word>>4)&0x1 == 1       // bit 4
	dp.Rm = uint8(word & 0xF)                   // bits [3:0]
}

// isLoadStoreWord checks bits [27:26] == 0b01.
func (d *Decoder) isLoadStoreWord(word uint32) bool {
	return (word>>26)&0x3 == 0b01
}

// decodeLoadStoreWord decodes load/store word or unsigned byte instructions.
// Format: cond | 01 | I | P | U | B | W | L | Rn | Rd | addressing_mode
func (d *Decoder) decodeLoadStoreWord(word uint32, inst *Instruction) {
	inst.Category = CategoryLoadStoreWord

	ls := &inst.LS
	ls.Immediate = (word>>25)&0x1 == 1          // bit 25
	ls.PreIndex = (word>>24)&0x1 == 1           // bit 24
	ls.Up = (word>>23)&0x1 == 1                 // bit 23
	ls.Byte = (word>>22)&0x1 == 1               // bit 22
	ls.Writeback = (word>>21)&0x1 == 1          // bit 21
	ls.Load = (word>>20)&0x1 == 1               // bit 20
	ls.Rn = uint8((word >> 16) & 0xF)           // bits [19:16]
	ls.Rd = uint8((word >> 12) & 0xF)           // bits [15:12]
	ls.Offset12 = uint16(word & 0xFFF)          // bits [11:0]
	ls.ShiftAmount = uint8((word >> 7) & 0x1F)  // bits [11:7]
	ls.ShiftType = ShiftType((word >> 5) & 0x3) // bits [6:5]
	ls.Rm = uint8(word & 0xF)                   // bits [3:0]
}

// isBranch checks bits [27:25] == 0b101.
func (d *Decoder) isBranch(word uint32) bool {
	return (word>>25)&0x7 == 0b101
}

// decodeBranch decodes B and BL instructions.
// Format: cond | 101 | L | signed_immed_24
func (d *Decoder) decodeBranch(word uint32, inst *Instruction) {
	inst.Category = CategoryBranch

	imm24 := word & 0xFFFFFF // bits [23:0]

	inst.Branch = Branch{
		Link:  (word>>24)&0x1 == 1,
		Imm24: imm24,
		// Sign-extend imm24 and multiply by 4
		Offset: int32(imm24<<8) >> 6,
	}
}
