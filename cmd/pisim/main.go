// Package main provides the entry point for PiSim.
// PiSim runs a Raspberry Pi kernel image on a functional ARM1176JZF-S model.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/sirupsen/logrus"
	"golang.org/x/term"

	"github.com/sarchlab/pisim/config"
	"github.com/sarchlab/pisim/debugger"
	"github.com/sarchlab/pisim/disasm"
	"github.com/sarchlab/pisim/emu"
	"github.com/sarchlab/pisim/loader"
	"github.com/sarchlab/pisim/translate"
)

// Exit statuses.
const (
	exitOK        = 0
	exitFault     = 1
	exitUsage     = 1
	exitLoadFault = 2
)

// DefaultKernel is the image run when no path is given.
const DefaultKernel = "kernel.img"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

type options struct {
	configPath  string
	disassemble bool
	debug       bool
	verbose     bool
	max         uint64
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("pisim", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var opts options
	fs.StringVar(&opts.configPath, "config", "", "Path to configuration JSON file")
	fs.BoolVar(&opts.disassemble, "d", false, "Disassemble the image instead of running it")
	fs.BoolVar(&opts.debug, "debug", false, "Start in the interactive debugger")
	fs.BoolVar(&opts.verbose, "v", false, "Trace every instruction")
	fs.Uint64Var(&opts.max, "max", 0, "Stop after this many instructions (0 means no limit)")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: pisim [options] [%s]\n", DefaultKernel)
		fmt.Fprintf(stderr, "\nOptions:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() > 1 {
		fs.Usage()
		return exitUsage
	}

	kernelPath := DefaultKernel
	if fs.NArg() == 1 {
		kernelPath = fs.Arg(0)
	}

	logger := logrus.New()
	logger.SetOutput(stderr)

	cfg, err := resolveConfig(fs, &opts)
	if err != nil {
		logger.WithError(err).Error("invalid configuration")
		return exitUsage
	}
	if cfg.Trace {
		logger.SetLevel(logrus.DebugLevel)
	}

	img, err := loader.Load(kernelPath, cfg.LoadAddress)
	if err != nil {
		logger.Error(err)
		return exitLoadFault
	}

	e := emu.NewEmulator(
		emu.WithStdout(stdout),
		emu.WithLogger(logger),
		emu.WithMaxInstructions(cfg.MaxInstructions),
	)
	if err := img.LoadInto(e.Memory()); err != nil {
		logger.Error(err)
		return exitLoadFault
	}

	logger.WithFields(logrus.Fields{
		"image":    kernelPath,
		"entry":    fmt.Sprintf("0x%08x", img.Entry),
		"segments": len(img.Segments),
	}).Debug("image loaded")

	if opts.disassemble {
		return listImage(img, e, stdout, logger)
	}

	if err := e.SetProgramCounter(img.Entry + 8); err != nil {
		logger.Error(err)
		return exitFault
	}

	if cfg.Debug {
		d := debugger.New(e, stdin, stdout,
			debugger.WithPrompt(isTerminal(stdin)),
			debugger.WithLogger(logger),
		)
		err = d.Run(ctx)
	} else {
		err = e.Run(ctx)
	}

	return finish(e, err, logger)
}

// resolveConfig loads the configuration file, if any, and applies the flags
// that were set on the command line on top of it.
func resolveConfig(fs *flag.FlagSet, opts *options) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if opts.configPath != "" {
		var err error
		cfg, err = config.LoadConfig(opts.configPath)
		if err != nil {
			return nil, err
		}
	}

	fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "debug":
			cfg.Debug = opts.debug
		case "v":
			cfg.Trace = opts.verbose
		case "max":
			cfg.MaxInstructions = opts.max
		}
	})

	return cfg, cfg.Validate()
}

func listImage(img *loader.Image, e *emu.Emulator, stdout io.Writer, logger logrus.FieldLogger) int {
	d := disasm.New(e.Memory())

	for _, seg := range img.Segments {
		end := seg.Addr + (seg.MemSize+3)&^3
		if err := d.Listing(stdout, seg.Addr, end); err != nil {
			logger.Error(err)
			return exitFault
		}
	}

	return exitOK
}

func finish(e *emu.Emulator, err error, logger logrus.FieldLogger) int {
	fields := logrus.Fields{
		"instructions": e.InstructionCount(),
		"pc":           fmt.Sprintf("0x%08x", e.ProgramCounter()),
	}

	switch {
	case err == nil:
		logger.WithFields(fields).Debug("debugger quit")
		return exitOK
	case errors.Is(err, emu.ErrInstructionLimit):
		logger.WithFields(fields).Info(err)
		return exitOK
	case errors.Is(err, context.Canceled):
		logger.WithFields(fields).Info("interrupted")
		return exitOK
	}

	logger.WithFields(fields).Error(translate.From("execution stopped: %v", err))
	return exitFault
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
