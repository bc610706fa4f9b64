// Package emu provides functional ARM1176JZF-S emulation.
package emu

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/pisim/gpio"
	"github.com/sarchlab/pisim/insts"
)

// ErrInstructionLimit is returned once the configured instruction limit has
// been reached.
var ErrInstructionLimit = errors.New("max instructions reached")

// StepResult represents the result of executing a single instruction.
type StepResult struct {
	// Executed is false when the condition check failed and the
	// instruction was skipped.
	Executed bool

	// Err is set if a fault occurred during execution. The machine state is
	// left as it was at the fault.
	Err error
}

// Emulator executes ARM instructions functionally. It owns the whole
// machine: registers, address space and GPIO.
type Emulator struct {
	regFile *RegFile
	memory  *AddressSpace
	gpio    *gpio.GPIO
	decoder *insts.Decoder

	// Execution units
	alu        *ALU
	lsu        *LoadStoreUnit
	branchUnit *BranchUnit

	// I/O
	stdout io.Writer
	logger logrus.FieldLogger

	// Execution state
	instructionCount uint64
	maxInstructions  uint64 // 0 means no limit
}

// EmulatorOption is a functional option for configuring the Emulator.
type EmulatorOption func(*Emulator)

// WithStdout sets the writer that receives peripheral output such as the
// OK LED reports.
func WithStdout(w io.Writer) EmulatorOption {
	return func(e *Emulator) {
		e.stdout = w
	}
}

// WithLogger sets the logger used for step tracing.
func WithLogger(logger logrus.FieldLogger) EmulatorOption {
	return func(e *Emulator) {
		e.logger = logger
	}
}

// WithGPIO replaces the default GPIO controller.
func WithGPIO(g *gpio.GPIO) EmulatorOption {
	return func(e *Emulator) {
		e.gpio = g
	}
}

// WithMaxInstructions sets the maximum number of instructions to execute.
// A value of 0 means no limit.
func WithMaxInstructions(max uint64) EmulatorOption {
	return func(e *Emulator) {
		e.maxInstructions = max
	}
}

// NewEmulator creates a powered-on machine: System mode, Z set, registers
// and RAM zeroed, GPIO mapped at gpio.Base.
func NewEmulator(opts ...EmulatorOption) *Emulator {
	regFile := NewRegFile()
	memory := NewAddressSpace()

	e := &Emulator{
		regFile: regFile,
		memory:  memory,
		decoder: insts.NewDecoder(),
		stdout:  os.Stdout,
		logger:  logrus.StandardLogger(),
	}

	// Apply options first (may set stdout/logger)
	for _, opt := range opts {
		opt(e)
	}

	if e.gpio == nil {
		e.gpio = gpio.New(gpio.WithOutput(e.stdout), gpio.WithLogger(e.logger))
	}
	if err := memory.Attach(gpio.Base, gpio.End, e.gpio); err != nil {
		panic(err)
	}

	// Create execution units
	e.alu = NewALU(regFile)
	e.lsu = NewLoadStoreUnit(regFile, memory)
	e.branchUnit = NewBranchUnit(regFile)

	return e
}

// RegFile returns the emulator's register file.
func (e *Emulator) RegFile() *RegFile {
	return e.regFile
}

// Memory returns the emulator's address space.
func (e *Emulator) Memory() *AddressSpace {
	return e.memory
}

// GPIO returns the emulator's GPIO controller.
func (e *Emulator) GPIO() *gpio.GPIO {
	return e.gpio
}

// InstructionCount returns the number of instructions stepped, including
// those skipped by their condition.
func (e *Emulator) InstructionCount() uint64 {
	return e.instructionCount
}

// ProgramCounter returns the current program counter.
func (e *Emulator) ProgramCounter() uint32 {
	return e.regFile.PC()
}

// SetProgramCounter sets the program counter. The program counter runs 8
// bytes ahead of the instruction being executed, so to start at address A
// set it to A+8.
func (e *Emulator) SetProgramCounter(addr uint32) error {
	return e.regFile.WriteReg(insts.RegPC, addr)
}

// LoadProgram places a raw kernel image at base and points the program
// counter at its first instruction.
func (e *Emulator) LoadProgram(base uint32, image []byte) error {
	if err := e.memory.LoadImage(image, base); err != nil {
		return err
	}
	return e.SetProgramCounter(base + 8)
}

// Step executes a single instruction.
func (e *Emulator) Step() StepResult {
	// Check instruction limit before executing
	if e.maxInstructions > 0 && e.instructionCount >= e.maxInstructions {
		return StepResult{Err: ErrInstructionLimit}
	}

	// 1. Fetch: 2 instruction pipeline
	addr := e.regFile.PC() - 8
	word, err := e.memory.ReadWord(addr)
	if err != nil {
		return StepResult{Err: fmt.Errorf("fetch at 0x%08x: %w", addr, err)}
	}

	if e.tracing() {
		e.logger.WithFields(logrus.Fields{
			"pc":   fmt.Sprintf("%08x", addr),
			"word": fmt.Sprintf("%08x", word),
		}).Debug("cpu step")
	}

	// 2. Decode
	inst := e.decoder.Decode(word)

	// 3. Execute
	result := e.execute(inst)
	if result.Err != nil {
		result.Err = fmt.Errorf("0x%08x: %08x: %w", addr, word, result.Err)
		return result
	}

	e.instructionCount++

	return result
}

// Run steps until a fault occurs or ctx is done. It never interrupts a
// step.
func (e *Emulator) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if result := e.Step(); result.Err != nil {
			return result.Err
		}
	}
}

// execute checks, conditions and dispatches a decoded instruction.
// tracing reports whether step traces would be emitted. Loggers other than
// *logrus.Logger are always traced.
func (e *Emulator) tracing() bool {
	l, ok := e.logger.(*logrus.Logger)
	return !ok || l.IsLevelEnabled(logrus.DebugLevel)
}

func (e *Emulator) execute(inst *insts.Instruction) StepResult {
	// Check runs before the condition so a skipped word still faults, the
	// same as in the disassembler.
	if err := inst.Check(); err != nil {
		return StepResult{Err: err}
	}

	pass, err := e.branchUnit.CheckCondition(inst.Cond)
	if err != nil {
		return StepResult{Err: err}
	}
	if !pass {
		return StepResult{Err: e.advance()}
	}

	switch inst.Category {
	case insts.CategoryDataProcessing:
		err = e.executeDataProcessing(inst)
	case insts.CategoryLoadStoreWord:
		err = e.executeLoadStore(inst)
	case insts.CategoryBranch:
		// PC already updated by branch
		return StepResult{Executed: true, Err: e.branchUnit.B(inst.Branch)}
	default:
		err = fmt.Errorf("unhandled category %v", inst.Category)
	}

	if err != nil {
		return StepResult{Err: err}
	}

	// A result written to pc is the next fetch address, as for a branch.
	if inst.WritesPC() {
		return StepResult{Executed: true, Err: e.refill()}
	}

	// Advance PC by 4 (for non-branch instructions)
	return StepResult{Executed: true, Err: e.advance()}
}

func (e *Emulator) refill() error {
	pc, err := e.regFile.ReadReg(insts.RegPC)
	if err != nil {
		return err
	}
	return e.regFile.WriteReg(insts.RegPC, pc+8)
}

func (e *Emulator) advance() error {
	pc, err := e.regFile.ReadReg(insts.RegPC)
	if err != nil {
		return err
	}
	return e.regFile.WriteReg(insts.RegPC, pc+4)
}

// executeDataProcessing executes MOV, SUB and CMP.
func (e *Emulator) executeDataProcessing(inst *insts.Instruction) error {
	dp := inst.DP

	operand, err := e.alu.Operand(dp)
	if err != nil {
		return err
	}

	switch dp.Opcode {
	case insts.OpMOV:
		return e.alu.MOV(dp.Rd, operand)
	case insts.OpSUB:
		return e.alu.SUB(dp.Rd, dp.Rn, operand)
	case insts.OpCMP:
		return e.alu.CMP(dp.Rn, operand)
	default:
		return fmt.Errorf("unhandled opcode %v", dp.Opcode)
	}
}

// executeLoadStore executes LDR and STR with a pre-indexed immediate offset.
func (e *Emulator) executeLoadStore(inst *insts.Instruction) error {
	ls := inst.LS

	base, err := e.regFile.ReadReg(ls.Rn)
	if err != nil {
		return err
	}
	addr := ls.Address(base)

	if ls.Load {
		return e.lsu.LDR(ls.Rd, addr)
	}
	return e.lsu.STR(ls.Rd, addr)
}
