package insts_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/pisim/insts"
)

var _ = Describe("Insts Package", func() {
	It("should have an Instruction type", func() {
		var i insts.Instruction
		Expect(i).To(BeZero())
	})

	It("should have a Decoder type", func() {
		decoder := insts.NewDecoder()
		Expect(decoder).ToNot(BeNil())
	})

	It("should name registers with their aliases", func() {
		Expect(insts.RegisterName(0)).To(Equal("r0"))
		Expect(insts.RegisterName(12)).To(Equal("r12"))
		Expect(insts.RegisterName(insts.RegSP)).To(Equal("sp"))
		Expect(insts.RegisterName(insts.RegLR)).To(Equal("lr"))
		Expect(insts.RegisterName(insts.RegPC)).To(Equal("pc"))
	})

	It("should render condition suffixes", func() {
		Expect(insts.CondEQ.Suffix()).To(Equal("eq"))
		Expect(insts.CondNE.Suffix()).To(Equal("ne"))
		Expect(insts.CondAL.Suffix()).To(BeEmpty())
		Expect(insts.CondAL.String()).To(Equal("al"))
	})
})
