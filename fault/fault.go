// Package fault defines the errors raised by the emulated machine.
//
// Every fault is detected where the violation happens and is returned to the
// caller unchanged. Nothing inside the machine retries or substitutes a
// default value, so callers decide whether to stop, report and continue, or
// assert on the fault.
//
// Match faults with errors.As:
//
//	var unimpl *fault.UnimplementedFeature
//	if errors.As(err, &unimpl) {
//		fmt.Println(unimpl.Component)
//	}
package fault

import (
	"github.com/sarchlab/pisim/translate"
)

var f = translate.From

// UnimplementedFeature reports a mode, opcode, addressing variant, condition,
// shift or peripheral register the machine does not model.
type UnimplementedFeature struct {
	// Component names the part of the machine that refused, e.g. "cpu".
	Component string
	// Detail names exactly what was not implemented.
	Detail string
}

// Unimplemented returns an UnimplementedFeature for component, with the
// detail rendered from an en-US format.
func Unimplemented(component, format string, args ...any) *UnimplementedFeature {
	return &UnimplementedFeature{
		Component: component,
		Detail:    f(format, args...),
	}
}

func (e *UnimplementedFeature) Error() string {
	return f("%v: %v not implemented", e.Component, e.Detail)
}

// AlignmentFault reports an access that is not word aligned.
type AlignmentFault struct {
	Address uint32
}

func (e *AlignmentFault) Error() string {
	return f("unaligned access at 0x%08x", e.Address)
}

// OutOfBounds reports an access outside RAM and every peripheral window.
type OutOfBounds struct {
	Address uint32
}

func (e *OutOfBounds) Error() string {
	return f("access out of bounds at 0x%08x", e.Address)
}

// ImageLoadFault reports a kernel image that could not be read or placed.
type ImageLoadFault struct {
	Path string
	Err  error
}

func (e *ImageLoadFault) Error() string {
	return f("load image '%v': %v", e.Path, e.Err)
}

func (e *ImageLoadFault) Unwrap() error {
	return e.Err
}
