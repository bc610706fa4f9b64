// Package main provides the entry point for PiSim.
// PiSim is a functional Raspberry Pi (ARM1176JZF-S) emulator.
//
// For the full CLI, use: go run ./cmd/pisim
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("PiSim - Raspberry Pi ARM1176JZF-S Emulator")
	fmt.Println("")
	fmt.Println("Usage: pisim [options] [kernel.img]")
	fmt.Println("")
	fmt.Println("Options:")
	fmt.Println("  -config    Path to configuration JSON file")
	fmt.Println("  -d         Disassemble the image instead of running it")
	fmt.Println("  -debug     Start in the interactive debugger")
	fmt.Println("  -v         Trace every instruction")
	fmt.Println("  -max       Stop after this many instructions")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/pisim' for the full CLI.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/pisim' instead.")
	}
}
