// Package gpio models the BCM2835 GPIO controller as far as the function
// select, output set and output clear registers.
package gpio

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/pisim/fault"
)

// Register window addresses. All ranges are inclusive.
const (
	// Base and End bound the whole GPIO register block.
	Base = 0x20200000
	End  = 0x202000b0

	FunctionSelectStart = 0x20200000
	FunctionSelectEnd   = 0x20200014

	OutputSetStart = 0x2020001c
	OutputSetEnd   = 0x20200020

	OutputClearStart = 0x20200028
	OutputClearEnd   = 0x2020002c
)

const (
	// NumPins is the number of GPIO lines.
	NumPins = 54

	pinsPerFunctionSelect = 10
	pinsPerLevelRegister  = 32
)

const component = "gpio"

// Function is the 3-bit function select code of a pin.
type Function uint8

// Function select codes.
const (
	FunctionInput  Function = 0b000
	FunctionOutput Function = 0b001
	FunctionAlt0   Function = 0b100
	FunctionAlt1   Function = 0b101
	FunctionAlt2   Function = 0b110
	FunctionAlt3   Function = 0b111
	FunctionAlt4   Function = 0b011
	FunctionAlt5   Function = 0b010
)

func (f Function) String() string {
	switch f {
	case FunctionInput:
		return "input"
	case FunctionOutput:
		return "output"
	case FunctionAlt0:
		return "alt0"
	case FunctionAlt1:
		return "alt1"
	case FunctionAlt2:
		return "alt2"
	case FunctionAlt3:
		return "alt3"
	case FunctionAlt4:
		return "alt4"
	case FunctionAlt5:
		return "alt5"
	default:
		return fmt.Sprintf("function(%d)", uint8(f))
	}
}

// Listener observes an output pin being driven. high is the new level.
type Listener func(pin int, high bool)

// LEDPrinter returns a Listener that reports the board's OK LED on w. The
// LED is wired active low, so driving a pin high turns it off.
func LEDPrinter(w io.Writer) Listener {
	return func(pin int, high bool) {
		if high {
			_, _ = fmt.Fprintln(w, "*** OK LED: OFF ***")
		} else {
			_, _ = fmt.Fprintln(w, "*** OK LED: ON ***")
		}
	}
}

// GPIO holds the function and output level of every pin.
type GPIO struct {
	functions [NumPins]Function
	levels    [NumPins]bool

	listener Listener
	logger   logrus.FieldLogger
}

// Option is a functional option for configuring the GPIO.
type Option func(*GPIO)

// WithListener sets the observer for output pin changes.
func WithListener(l Listener) Option {
	return func(g *GPIO) {
		g.listener = l
	}
}

// WithOutput reports the OK LED on w.
func WithOutput(w io.Writer) Option {
	return WithListener(LEDPrinter(w))
}

// WithLogger sets the logger for pin activity.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(g *GPIO) {
		g.logger = logger
	}
}

// New creates a GPIO controller with every pin an input driven low.
func New(opts ...Option) *GPIO {
	g := &GPIO{
		listener: LEDPrinter(os.Stdout),
		logger:   logrus.StandardLogger(),
	}

	for _, opt := range opts {
		opt(g)
	}

	return g
}

// Function returns the function selected for pin.
func (g *GPIO) Function(pin int) Function {
	return g.functions[pin]
}

// Level returns the output level of pin.
func (g *GPIO) Level(pin int) bool {
	return g.levels[pin]
}

// ReadWord always faults: no GPIO register is readable yet.
func (g *GPIO) ReadWord(addr uint32) (uint32, error) {
	return 0, fault.Unimplemented(component, "read from 0x%08x", addr)
}

// WriteWord writes one of the GPIO registers.
func (g *GPIO) WriteWord(addr uint32, value uint32) error {
	if addr&3 != 0 {
		return &fault.AlignmentFault{Address: addr}
	}

	switch {
	case FunctionSelectStart <= addr && addr <= FunctionSelectEnd:
		g.writeFunctionSelect(addr, value)
	case OutputSetStart <= addr && addr <= OutputSetEnd:
		g.writeLevels(int(addr-OutputSetStart)/4*pinsPerLevelRegister, value, true)
	case OutputClearStart <= addr && addr <= OutputClearEnd:
		g.writeLevels(int(addr-OutputClearStart)/4*pinsPerLevelRegister, value, false)
	default:
		return fault.Unimplemented(component, "write to 0x%08x with value 0x%08x", addr, value)
	}

	return nil
}

// writeFunctionSelect decodes ten 3-bit function fields. Fields past the
// last pin are discarded.
func (g *GPIO) writeFunctionSelect(addr uint32, value uint32) {
	base := int(addr-FunctionSelectStart) / 4 * pinsPerFunctionSelect

	for i := 0; i < pinsPerFunctionSelect && base+i < NumPins; i++ {
		g.functions[base+i] = Function((value >> (i * 3)) & 0x7)
	}
}

// writeLevels drives every output pin whose bit is set in value. Bits past
// the last pin are discarded.
func (g *GPIO) writeLevels(base int, value uint32, high bool) {
	for i := 0; i < pinsPerLevelRegister && base+i < NumPins; i++ {
		if (value>>i)&1 == 0 {
			continue
		}

		pin := base + i
		if g.functions[pin] != FunctionOutput {
			continue
		}

		g.levels[pin] = high
		g.logger.WithFields(logrus.Fields{
			"pin":  pin,
			"high": high,
		}).Debug("gpio output")

		if g.listener != nil {
			g.listener(pin, high)
		}
	}
}
