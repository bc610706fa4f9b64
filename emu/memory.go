// Package emu provides functional ARM1176JZF-S emulation.
package emu

import (
	"fmt"

	"github.com/sarchlab/pisim/fault"
)

const (
	// RAMWords is the number of 32-bit words of RAM.
	RAMWords = 16 * 1024

	// RAMSize is the size of RAM in bytes. RAM starts at address 0.
	RAMSize = RAMWords * 4
)

// Peripheral is a memory-mapped device reached through a window of the
// address space. Addresses passed to it are absolute.
type Peripheral interface {
	ReadWord(addr uint32) (uint32, error)
	WriteWord(addr uint32, value uint32) error
}

type mapping struct {
	low, high uint32 // inclusive
	dev       Peripheral
}

// AddressSpace routes word accesses either to RAM or to a peripheral window.
type AddressSpace struct {
	ram      [RAMWords]uint32
	mappings []mapping
}

// NewAddressSpace creates an address space with zeroed RAM and no
// peripherals attached.
func NewAddressSpace() *AddressSpace {
	return &AddressSpace{}
}

// Attach maps dev into the window [low, high]. The window must not overlap
// RAM or any window already attached.
func (m *AddressSpace) Attach(low, high uint32, dev Peripheral) error {
	if low > high {
		return fmt.Errorf("invalid peripheral window 0x%08x-0x%08x", low, high)
	}
	if low < RAMSize {
		return fmt.Errorf("peripheral window 0x%08x-0x%08x overlaps RAM", low, high)
	}
	for _, mp := range m.mappings {
		if low <= mp.high && mp.low <= high {
			return fmt.Errorf("peripheral window 0x%08x-0x%08x overlaps 0x%08x-0x%08x",
				low, high, mp.low, mp.high)
		}
	}

	m.mappings = append(m.mappings, mapping{low: low, high: high, dev: dev})
	return nil
}

// findPeripheral returns the peripheral whose window contains addr.
func (m *AddressSpace) findPeripheral(addr uint32) Peripheral {
	for _, mp := range m.mappings {
		if mp.low <= addr && addr <= mp.high {
			return mp.dev
		}
	}
	return nil
}

// ramIndex validates a RAM access and returns its word index.
func (m *AddressSpace) ramIndex(addr uint32) (uint32, error) {
	if addr/4 >= RAMWords {
		return 0, &fault.OutOfBounds{Address: addr}
	}
	if addr&3 != 0 {
		return 0, &fault.AlignmentFault{Address: addr}
	}
	return addr >> 2, nil
}

// ReadWord reads the 32-bit word at addr.
func (m *AddressSpace) ReadWord(addr uint32) (uint32, error) {
	if dev := m.findPeripheral(addr); dev != nil {
		return dev.ReadWord(addr)
	}

	idx, err := m.ramIndex(addr)
	if err != nil {
		return 0, err
	}
	return m.ram[idx], nil
}

// WriteWord writes the 32-bit word value at addr.
func (m *AddressSpace) WriteWord(addr uint32, value uint32) error {
	if dev := m.findPeripheral(addr); dev != nil {
		return dev.WriteWord(addr, value)
	}

	idx, err := m.ramIndex(addr)
	if err != nil {
		return err
	}
	m.ram[idx] = value
	return nil
}

// LoadImage copies data byte for byte into RAM starting at base, in
// little-endian byte order. The whole range is checked before anything is
// written; an image that does not fit fails with fault.OutOfBounds naming
// the first address past the end of RAM.
func (m *AddressSpace) LoadImage(data []byte, base uint32) error {
	end := uint64(base) + uint64(len(data))
	if end > RAMSize {
		addr := uint32(RAMSize)
		if base > addr {
			addr = base
		}
		return &fault.OutOfBounds{Address: addr}
	}

	for i, b := range data {
		addr := base + uint32(i)
		shift := (addr & 3) * 8
		word := &m.ram[addr>>2]
		*word = *word&^(0xFF<<shift) | uint32(b)<<shift
	}

	return nil
}
