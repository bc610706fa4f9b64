// Package loader reads kernel images for the emulator. Raw images such as
// kernel.img are placed at a load address; 32-bit ARM ELF files are placed
// by their program headers.
package loader

import (
	"bytes"
	"debug/elf"
	"fmt"
	"io"
	"os"

	"github.com/sarchlab/pisim/fault"
)

// Segment is a contiguous block of the image.
type Segment struct {
	// Addr is where the segment is placed.
	Addr uint32
	// Data contains the segment contents from the file.
	Data []byte
	// MemSize is the size in memory (may be larger than len(Data) for BSS).
	MemSize uint32
}

// Image is a kernel ready to be placed in memory.
type Image struct {
	Path string
	// Entry is the address of the first instruction.
	Entry    uint32
	Segments []Segment
}

// Memory receives image segments. *emu.AddressSpace satisfies it.
type Memory interface {
	LoadImage(data []byte, base uint32) error
}

var elfMagic = []byte(elf.ELFMAG)

// Load reads the image at path. Raw images are placed at base and entered
// at base. Any failure is returned as a *fault.ImageLoadFault.
func Load(path string, base uint32) (*Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &fault.ImageLoadFault{Path: path, Err: err}
	}

	if bytes.HasPrefix(data, elfMagic) {
		img, err := loadELF(path, data)
		if err != nil {
			return nil, &fault.ImageLoadFault{Path: path, Err: err}
		}
		return img, nil
	}

	return &Image{
		Path:  path,
		Entry: base,
		Segments: []Segment{
			{Addr: base, Data: data, MemSize: uint32(len(data))},
		},
	}, nil
}

func loadELF(path string, data []byte) (*Image, error) {
	f, err := elf.NewFile(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse ELF file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if f.Class != elf.ELFCLASS32 {
		return nil, fmt.Errorf("not a 32-bit ELF file")
	}
	if f.Machine != elf.EM_ARM {
		return nil, fmt.Errorf("not an ARM ELF file (machine type: %v)", f.Machine)
	}
	if f.Data != elf.ELFDATA2LSB {
		return nil, fmt.Errorf("not a little-endian ELF file")
	}

	img := &Image{
		Path:  path,
		Entry: uint32(f.Entry),
	}

	for _, phdr := range f.Progs {
		if phdr.Type != elf.PT_LOAD {
			continue
		}

		segData := make([]byte, phdr.Filesz)
		if phdr.Filesz > 0 {
			n, err := phdr.ReadAt(segData, 0)
			if err != nil && err != io.EOF {
				return nil, fmt.Errorf("failed to read segment at 0x%x: %w", phdr.Vaddr, err)
			}
			if uint64(n) != phdr.Filesz {
				return nil, fmt.Errorf("short read for segment at 0x%x: got %d bytes, expected %d",
					phdr.Vaddr, n, phdr.Filesz)
			}
		}

		img.Segments = append(img.Segments, Segment{
			Addr:    uint32(phdr.Vaddr),
			Data:    segData,
			MemSize: uint32(phdr.Memsz),
		})
	}

	return img, nil
}

// LoadInto places every segment in memory, zero-filling the part of each
// segment not backed by file data.
func (img *Image) LoadInto(m Memory) error {
	for _, seg := range img.Segments {
		data := seg.Data
		if seg.MemSize > uint32(len(data)) {
			data = make([]byte, seg.MemSize)
			copy(data, seg.Data)
		}

		if err := m.LoadImage(data, seg.Addr); err != nil {
			return &fault.ImageLoadFault{Path: img.Path, Err: err}
		}
	}

	return nil
}
