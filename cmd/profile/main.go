// Package main provides a profiling wrapper for PiSim to identify performance
// bottlenecks in the execution engine.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"runtime/pprof"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/pisim/emu"
	"github.com/sarchlab/pisim/loader"
)

var (
	cpuProfile  = flag.String("cpuprofile", "", "write cpu profile to file")
	memProfile  = flag.String("memprofile", "", "write memory profile to file")
	duration    = flag.Duration("duration", 30*time.Second, "max duration to run (for profiling)")
	instruction = flag.Uint64("max-instr", 10000000, "max instructions to execute (0 = unlimited)")
	loadAddress = flag.Uint("load", 0x8000, "load address for raw images")
)

func main() {
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: profile [options] <kernel.img>\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	// Start CPU profiling if requested
	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer func() { _ = f.Close() }()

		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Fprintf(os.Stderr, "Error starting CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer pprof.StopCPUProfile()
	}

	kernelPath := flag.Arg(0)

	img, err := loader.Load(kernelPath, uint32(*loadAddress))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading kernel: %v\n", err)
		os.Exit(2)
	}

	fmt.Printf("Loaded: %s\n", kernelPath)
	fmt.Printf("Entry point: 0x%X\n", img.Entry)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	e := emu.NewEmulator(
		emu.WithStdout(io.Discard),
		emu.WithLogger(logger),
		emu.WithMaxInstructions(*instruction),
	)
	if err := img.LoadInto(e.Memory()); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading kernel: %v\n", err)
		os.Exit(2)
	}
	if err := e.SetProgramCounter(img.Entry + 8); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()

	start := time.Now()
	err = e.Run(ctx)
	elapsed := time.Since(start)

	if errors.Is(err, context.DeadlineExceeded) {
		fmt.Printf("\nTimeout reached after %v - stopped execution\n", *duration)
	}

	// Write memory profile if requested
	if *memProfile != "" {
		f, err := os.Create(*memProfile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating memory profile: %v\n", err)
			os.Exit(1)
		}
		defer func() { _ = f.Close() }()

		if err := pprof.WriteHeapProfile(f); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing memory profile: %v\n", err)
		}
	}

	instrCount := e.InstructionCount()

	fmt.Printf("\nProfiling Results:\n")
	fmt.Printf("Stopped by: %v\n", err)
	fmt.Printf("Instructions executed: %d\n", instrCount)
	fmt.Printf("Elapsed time: %v\n", elapsed)
	if instrCount > 0 {
		fmt.Printf("Instructions/second: %.0f\n", float64(instrCount)/elapsed.Seconds())
	}
}
