package gpio_test

import (
	"bytes"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/pisim/fault"
	"github.com/sarchlab/pisim/gpio"
)

type pinEvent struct {
	pin  int
	high bool
}

// functionSelect returns the register address and field shift for pin.
func functionSelect(pin int) (uint32, int) {
	return gpio.FunctionSelectStart + uint32(pin/10)*4, (pin % 10) * 3
}

var _ = Describe("GPIO", func() {
	var (
		g      *gpio.GPIO
		events []pinEvent
	)

	BeforeEach(func() {
		events = nil
		g = gpio.New(gpio.WithListener(func(pin int, high bool) {
			events = append(events, pinEvent{pin, high})
		}))
	})

	It("should power on with every pin an input driven low", func() {
		for pin := 0; pin < gpio.NumPins; pin++ {
			Expect(g.Function(pin)).To(Equal(gpio.FunctionInput))
			Expect(g.Level(pin)).To(BeFalse())
		}
	})

	Describe("function select", func() {
		It("should round trip every function code on every pin", func() {
			for pin := 0; pin < gpio.NumPins; pin++ {
				for code := gpio.Function(0); code < 8; code++ {
					addr, shift := functionSelect(pin)
					Expect(g.WriteWord(addr, uint32(code)<<shift)).To(Succeed())
					Expect(g.Function(pin)).To(Equal(code))
				}
			}
		})

		It("should decode ten pins per register", func() {
			// GPFSEL1: pin 16 output, pin 19 alt5
			value := uint32(gpio.FunctionOutput)<<18 | uint32(gpio.FunctionAlt5)<<27
			Expect(g.WriteWord(0x20200004, value)).To(Succeed())

			Expect(g.Function(16)).To(Equal(gpio.FunctionOutput))
			Expect(g.Function(19)).To(Equal(gpio.FunctionAlt5))
			Expect(g.Function(10)).To(Equal(gpio.FunctionInput))
		})

		It("should discard fields past the last pin", func() {
			Expect(g.WriteWord(gpio.FunctionSelectEnd, 0xFFFFFFFF)).To(Succeed())

			for pin := 50; pin < gpio.NumPins; pin++ {
				Expect(g.Function(pin)).To(Equal(gpio.FunctionAlt3))
			}
			Expect(g.Function(49)).To(Equal(gpio.FunctionInput))
		})
	})

	Describe("output set and clear", func() {
		BeforeEach(func() {
			// pin 16 output
			Expect(g.WriteWord(0x20200004, uint32(gpio.FunctionOutput)<<18)).To(Succeed())
		})

		It("should drive the pin named by each set bit", func() {
			Expect(g.WriteWord(gpio.OutputSetStart, 1<<16)).To(Succeed())

			Expect(g.Level(16)).To(BeTrue())
			Expect(g.Level(17)).To(BeFalse())
			Expect(events).To(Equal([]pinEvent{{16, true}}))

			Expect(g.WriteWord(gpio.OutputClearStart, 1<<16)).To(Succeed())

			Expect(g.Level(16)).To(BeFalse())
			Expect(events).To(Equal([]pinEvent{{16, true}, {16, false}}))
		})

		It("should leave pins that are not outputs alone", func() {
			Expect(g.WriteWord(gpio.OutputSetStart, 1<<3)).To(Succeed())

			Expect(g.Level(3)).To(BeFalse())
			Expect(events).To(BeEmpty())
		})

		It("should address pins 32 and up through the second register", func() {
			// GPFSEL4: pin 47 output
			Expect(g.WriteWord(0x20200010, uint32(gpio.FunctionOutput)<<21)).To(Succeed())

			Expect(g.WriteWord(gpio.OutputSetEnd, 1<<15)).To(Succeed())
			Expect(g.Level(47)).To(BeTrue())

			Expect(g.WriteWord(gpio.OutputClearEnd, 1<<15)).To(Succeed())
			Expect(g.Level(47)).To(BeFalse())
		})

		It("should discard bits past the last pin", func() {
			Expect(g.WriteWord(gpio.OutputSetEnd, 0xFFC00000)).To(Succeed())

			Expect(events).To(BeEmpty())
		})
	})

	Describe("LEDPrinter", func() {
		It("should report the OK LED as active low", func() {
			var buf bytes.Buffer
			g = gpio.New(gpio.WithOutput(&buf))
			Expect(g.WriteWord(0x20200004, uint32(gpio.FunctionOutput)<<18)).To(Succeed())

			Expect(g.WriteWord(gpio.OutputClearStart, 1<<16)).To(Succeed())
			Expect(g.WriteWord(gpio.OutputSetStart, 1<<16)).To(Succeed())

			Expect(buf.String()).To(Equal("*** OK LED: ON ***\n*** OK LED: OFF ***\n"))
		})
	})

	Describe("faults", func() {
		It("should fault on every read", func() {
			_, err := g.ReadWord(gpio.FunctionSelectStart)

			var unimpl *fault.UnimplementedFeature
			Expect(errors.As(err, &unimpl)).To(BeTrue())
			Expect(unimpl.Component).To(Equal("gpio"))
		})

		It("should fault on registers outside the modelled windows", func() {
			err := g.WriteWord(0x20200034, 1)

			var unimpl *fault.UnimplementedFeature
			Expect(errors.As(err, &unimpl)).To(BeTrue())
			Expect(unimpl.Detail).To(ContainSubstring("0x20200034"))
		})

		It("should fault on unaligned writes", func() {
			err := g.WriteWord(gpio.OutputSetStart+1, 1)

			var align *fault.AlignmentFault
			Expect(errors.As(err, &align)).To(BeTrue())
			Expect(align.Address).To(Equal(uint32(gpio.OutputSetStart + 1)))
		})
	})
})
