// Package config holds the run configuration of the emulator.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/sarchlab/pisim/emu"
)

// DefaultLoadAddress is where the Raspberry Pi firmware places kernel.img.
const DefaultLoadAddress = 0x8000

// Config holds the settings of a single emulator run.
type Config struct {
	// LoadAddress is where the kernel image is placed and where execution
	// starts. Default: 0x8000.
	LoadAddress uint32 `json:"load_address"`

	// MaxInstructions stops the run after this many instructions.
	// Default: 0 (no limit).
	MaxInstructions uint64 `json:"max_instructions"`

	// Trace logs every executed instruction at debug level.
	Trace bool `json:"trace"`

	// Debug starts in the interactive debugger instead of free-running.
	Debug bool `json:"debug"`
}

// DefaultConfig returns a Config that free-runs a kernel at 0x8000.
func DefaultConfig() *Config {
	return &Config{
		LoadAddress: DefaultLoadAddress,
	}
}

// LoadConfig loads a Config from a JSON file. Fields missing from the file
// keep their default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// SaveConfig writes a Config to a JSON file.
func (c *Config) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks that the load address is a word-aligned RAM address.
func (c *Config) Validate() error {
	if c.LoadAddress%4 != 0 {
		return fmt.Errorf("load_address 0x%x must be word aligned", c.LoadAddress)
	}
	if c.LoadAddress >= emu.RAMSize {
		return fmt.Errorf("load_address 0x%x must be below 0x%x", c.LoadAddress, emu.RAMSize)
	}
	return nil
}

// Clone returns a copy of the Config.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}
