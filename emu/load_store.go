// Package emu provides functional ARM1176JZF-S emulation.
package emu

// LoadStoreUnit implements ARM word load and store operations.
type LoadStoreUnit struct {
	regFile *RegFile
	memory  *AddressSpace
}

// NewLoadStoreUnit creates a new LoadStoreUnit connected to the given
// register file and address space.
func NewLoadStoreUnit(regFile *RegFile, memory *AddressSpace) *LoadStoreUnit {
	return &LoadStoreUnit{
		regFile: regFile,
		memory:  memory,
	}
}

// LDR performs a word load: Rd = mem[addr]
func (lsu *LoadStoreUnit) LDR(rd uint8, addr uint32) error {
	value, err := lsu.memory.ReadWord(addr)
	if err != nil {
		return err
	}
	return lsu.regFile.WriteReg(rd, value)
}

// STR performs a word store: mem[addr] = Rd
func (lsu *LoadStoreUnit) STR(rd uint8, addr uint32) error {
	value, err := lsu.regFile.ReadReg(rd)
	if err != nil {
		return err
	}
	return lsu.memory.WriteWord(addr, value)
}
