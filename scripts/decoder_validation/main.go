// Validate decoder throughput and decoder/engine agreement.
package main

import (
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"runtime"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/pisim/disasm"
	"github.com/sarchlab/pisim/emu"
	"github.com/sarchlab/pisim/fault"
	"github.com/sarchlab/pisim/insts"
)

var sample = []uint32{
	0xE59F0018, // ldr r0, [pc, #24]
	0xE3A01001, // mov r1, #1
	0xE1A01901, // lsl r1, r1, #18
	0xE5801004, // str r1, [r0, #4]
	0xE3500000, // cmp r0, #0
	0x1AFFFFFC, // bne
}

func main() {
	measureDecode()

	mismatches := sweep(100000)
	if mismatches > 0 {
		os.Exit(1)
	}
}

func measureDecode() {
	decoder := insts.NewDecoder()

	// Warm up
	for i := 0; i < 1000; i++ {
		_ = decoder.Decode(sample[0]).Check()
	}

	runtime.GC()
	var m1, m2 runtime.MemStats
	runtime.ReadMemStats(&m1)

	start := time.Now()
	iterations := 100000

	for i := 0; i < iterations; i++ {
		for _, word := range sample {
			_ = decoder.Decode(word).Check()
		}
	}

	elapsed := time.Since(start)
	runtime.ReadMemStats(&m2)

	totalDecodes := iterations * len(sample)
	allocations := m2.Mallocs - m1.Mallocs

	fmt.Printf("Decoder Validation Results:\n")
	fmt.Printf("===========================\n")
	fmt.Printf("Total decode operations: %d\n", totalDecodes)
	fmt.Printf("Time elapsed: %v\n", elapsed)
	fmt.Printf("Decodes per second: %.0f\n", float64(totalDecodes)/elapsed.Seconds())
	fmt.Printf("Allocations per decode: %.3f\n", float64(allocations)/float64(totalDecodes))
}

// sweep steps random words on a fresh machine and checks that the engine
// faults as unimplemented exactly when the disassembler rejects the word.
func sweep(n int) int {
	rng := rand.New(rand.NewPCG(0x8000, uint64(time.Now().UnixNano())))
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	e := emu.NewEmulator(emu.WithStdout(io.Discard), emu.WithLogger(logger))
	d := disasm.New(e.Memory())

	mismatches := 0
	for i := 0; i < n; i++ {
		word := rng.Uint32()

		*e.RegFile() = *emu.NewRegFile()
		image := []byte{byte(word), byte(word >> 8), byte(word >> 16), byte(word >> 24)}
		if err := e.LoadProgram(0x8000, image); err != nil {
			panic(err)
		}

		engineErr := e.Step().Err
		_, disasmErr := d.Format(0x8000, word)

		var unimpl *fault.UnimplementedFeature
		if errors.As(engineErr, &unimpl) != (disasmErr != nil) {
			mismatches++
			fmt.Printf("mismatch %08x: engine %v, disassembler %v\n", word, engineErr, disasmErr)
		}
	}

	fmt.Printf("\nAgreement sweep: %d words, %d mismatches\n", n, mismatches)
	return mismatches
}
