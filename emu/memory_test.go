package emu_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/pisim/emu"
	"github.com/sarchlab/pisim/fault"
)

type recordingPeripheral struct {
	writes map[uint32]uint32
}

func (p *recordingPeripheral) ReadWord(addr uint32) (uint32, error) {
	return p.writes[addr], nil
}

func (p *recordingPeripheral) WriteWord(addr uint32, value uint32) error {
	p.writes[addr] = value
	return nil
}

var _ = Describe("AddressSpace", func() {
	var memory *emu.AddressSpace

	BeforeEach(func() {
		memory = emu.NewAddressSpace()
	})

	Describe("RAM", func() {
		It("should start zeroed", func() {
			Expect(memory.ReadWord(0)).To(BeZero())
			Expect(memory.ReadWord(emu.RAMSize - 4)).To(BeZero())
		})

		It("should read back every written word", func() {
			for addr := uint32(0); addr < emu.RAMSize; addr += 4 {
				Expect(memory.WriteWord(addr, addr^0xA5A5A5A5)).To(Succeed())
			}

			for addr := uint32(0); addr < emu.RAMSize; addr += 4 {
				value, err := memory.ReadWord(addr)
				Expect(err).NotTo(HaveOccurred())
				Expect(value).To(Equal(addr ^ 0xA5A5A5A5))
			}
		})

		DescribeTable("unaligned accesses fault",
			func(addr uint32) {
				_, err := memory.ReadWord(addr)
				var align *fault.AlignmentFault
				Expect(errors.As(err, &align)).To(BeTrue())
				Expect(align.Address).To(Equal(addr))

				err = memory.WriteWord(addr, 1)
				Expect(errors.As(err, &align)).To(BeTrue())
			},
			Entry("offset 1", uint32(0x1001)),
			Entry("offset 2", uint32(0x2)),
			Entry("offset 3", uint32(emu.RAMSize-1)),
		)

		DescribeTable("accesses past RAM fault",
			func(addr uint32) {
				_, err := memory.ReadWord(addr)
				var oob *fault.OutOfBounds
				Expect(errors.As(err, &oob)).To(BeTrue())
				Expect(oob.Address).To(Equal(addr))

				err = memory.WriteWord(addr, 1)
				Expect(errors.As(err, &oob)).To(BeTrue())
			},
			Entry("end of RAM", uint32(emu.RAMSize)),
			Entry("unaligned past end", uint32(emu.RAMSize+2)),
			Entry("top of address space", uint32(0xFFFFFFFC)),
		)
	})

	Describe("Attach", func() {
		var dev *recordingPeripheral

		BeforeEach(func() {
			dev = &recordingPeripheral{writes: map[uint32]uint32{}}
		})

		It("should route accesses inside the window", func() {
			Expect(memory.Attach(0x20000000, 0x200000FF, dev)).To(Succeed())

			Expect(memory.WriteWord(0x20000010, 7)).To(Succeed())

			Expect(dev.writes).To(HaveKeyWithValue(uint32(0x20000010), uint32(7)))
			Expect(memory.ReadWord(0x20000010)).To(Equal(uint32(7)))
		})

		It("should leave accesses outside the window alone", func() {
			Expect(memory.Attach(0x20000000, 0x200000FF, dev)).To(Succeed())

			err := memory.WriteWord(0x20000100, 7)

			var oob *fault.OutOfBounds
			Expect(errors.As(err, &oob)).To(BeTrue())
			Expect(dev.writes).To(BeEmpty())
		})

		It("should reject windows overlapping RAM", func() {
			Expect(memory.Attach(emu.RAMSize-4, emu.RAMSize+4, dev)).NotTo(Succeed())
		})

		It("should reject overlapping windows", func() {
			Expect(memory.Attach(0x20000000, 0x200000FF, dev)).To(Succeed())
			Expect(memory.Attach(0x200000FC, 0x200001FF, dev)).NotTo(Succeed())
		})

		It("should reject inverted windows", func() {
			Expect(memory.Attach(0x20000100, 0x20000000, dev)).NotTo(Succeed())
		})
	})

	Describe("LoadImage", func() {
		It("should place bytes in little-endian order", func() {
			Expect(memory.LoadImage([]byte{0x2A, 0x00, 0xA0, 0xE3}, 0x8000)).To(Succeed())

			Expect(memory.ReadWord(0x8000)).To(Equal(uint32(0xE3A0002A)))
		})

		It("should handle unaligned bases and partial words", func() {
			Expect(memory.WriteWord(0x100, 0x11223344)).To(Succeed())
			Expect(memory.WriteWord(0x104, 0x55667788)).To(Succeed())

			Expect(memory.LoadImage([]byte{0xAA, 0xBB, 0xCC}, 0x102)).To(Succeed())

			Expect(memory.ReadWord(0x100)).To(Equal(uint32(0xBBAA3344)))
			Expect(memory.ReadWord(0x104)).To(Equal(uint32(0x556677CC)))
		})

		It("should accept an image that ends exactly at the end of RAM", func() {
			Expect(memory.LoadImage([]byte{1, 2, 3, 4}, emu.RAMSize-4)).To(Succeed())

			Expect(memory.ReadWord(emu.RAMSize - 4)).To(Equal(uint32(0x04030201)))
		})

		It("should write nothing when the image does not fit", func() {
			err := memory.LoadImage([]byte{1, 2, 3, 4, 5, 6, 7, 8}, emu.RAMSize-4)

			var oob *fault.OutOfBounds
			Expect(errors.As(err, &oob)).To(BeTrue())
			Expect(oob.Address).To(Equal(uint32(emu.RAMSize)))
			Expect(memory.ReadWord(emu.RAMSize - 4)).To(BeZero())
		})

		It("should name the base when it is already past RAM", func() {
			err := memory.LoadImage([]byte{1}, 0x20000)

			var oob *fault.OutOfBounds
			Expect(errors.As(err, &oob)).To(BeTrue())
			Expect(oob.Address).To(Equal(uint32(0x20000)))
		})
	})
})
