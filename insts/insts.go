// Package insts provides ARMv6 (A32) instruction definitions and decoding.
//
// This package classifies 32-bit ARM words into the instruction categories
// the emulator understands and extracts their fields. It supports:
//   - Data Processing: MOV, SUB, CMP with immediate or LSL-by-immediate operands
//   - Load/Store Word: LDR, STR with pre-indexed immediate offsets
//   - Branch: B
//
// Decoding is total: every word maps to exactly one Instruction, possibly
// CategoryUnrecognized. Check reports whether the emulator models a decoded
// instruction, and is shared by execution and disassembly.
//
// Usage:
//
//	decoder := insts.NewDecoder()
//	inst := decoder.Decode(0xE3A0002A) // MOV R0, #42
//	fmt.Printf("Op: %v, Rd: %d, Operand: %d\n", inst.DP.Opcode, inst.DP.Rd, inst.DP.ImmediateOperand())
package insts
