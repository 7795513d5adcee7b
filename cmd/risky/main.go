// Package main provides the risky command, the host-side toolchain for
// the Risky FPGA core: it assembles RV32I programs, uploads them over
// UART and decodes the pipeline dumps the core streams back.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"go.bug.st/serial"

	"github.com/stefaema/risc-v-risky-edition/asm"
	"github.com/stefaema/risc-v-risky-edition/loader"
	"github.com/stefaema/risc-v-risky-edition/pipeline"
	"github.com/stefaema/risc-v-risky-edition/pkg/log"
	"github.com/stefaema/risc-v-risky-edition/telemetry"
)

// loadReadTimeout bounds the echo and ACK reads of an upload so an
// unresponsive device surfaces as a handshake error instead of a hang.
const loadReadTimeout = 2 * time.Second

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "assemble":
		err = cmdAssemble(os.Args[2:])
	case "load":
		err = cmdLoad(os.Args[2:])
	case "run":
		err = cmdRun(os.Args[2:])
	case "step":
		err = cmdStep(os.Args[2:])
	case "ports":
		err = cmdPorts()
	default:
		usage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: risky <command> [options]\n")
	fmt.Fprintf(os.Stderr, "\nCommands:\n")
	fmt.Fprintf(os.Stderr, "  assemble   Assemble an RV32I source file into a memory image\n")
	fmt.Fprintf(os.Stderr, "  load       Upload program and data images to the core\n")
	fmt.Fprintf(os.Stderr, "  run        Start continuous execution and stream pipeline dumps\n")
	fmt.Fprintf(os.Stderr, "  step       Step the core cycle by cycle\n")
	fmt.Fprintf(os.Stderr, "  ports      List available serial ports\n")
}

// logFlags registers the logging options shared by every subcommand.
func logFlags(fs *flag.FlagSet) (level, format *string) {
	level = fs.String("log-level", "info", "Minimum log level (trace, debug, info, warn, error)")
	format = fs.String("log-format", "console", "Log output format (console, json)")
	return level, format
}

func initLogging(level, format string) error {
	lvl, err := log.ParseLogLevel(level)
	if err != nil {
		return fmt.Errorf("parsing log level: %w", err)
	}
	t := log.ConsoleLogger
	if format == "json" {
		t = log.JSONLogger
	}
	log.Init(log.Options{LogLevel: lvl, Type: t})
	return nil
}

func cmdAssemble(args []string) error {
	fs := flag.NewFlagSet("assemble", flag.ExitOnError)
	out := fs.String("o", "", "Output file (defaults to the input with a .bin extension)")
	level, format := logFlags(fs)
	fs.Parse(args)

	if fs.NArg() != 1 {
		return fmt.Errorf("assemble expects exactly one source file")
	}
	if err := initLogging(*level, *format); err != nil {
		return err
	}

	input := fs.Arg(0)
	source, err := os.ReadFile(input)
	if err != nil {
		return fmt.Errorf("reading source: %w", err)
	}

	program, err := asm.New(asm.WithLogger(log.Asm)).Assemble(string(source))
	if err != nil {
		return err
	}

	output := *out
	if output == "" {
		output = strings.TrimSuffix(input, filepath.Ext(input)) + ".bin"
	}
	if err := os.WriteFile(output, program.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing image: %w", err)
	}

	log.Root.Info().
		Str("output", output).
		Int("words", len(program.Words)).
		Int("labels", len(program.Labels)).
		Msg("assembly complete")
	return nil
}

func cmdLoad(args []string) error {
	fs := flag.NewFlagSet("load", flag.ExitOnError)
	portName := fs.String("port", "", "Serial port of the core (required)")
	baud := fs.Int("baud", 115200, "Baud rate")
	dataFile := fs.String("data", "", "Optional data memory image to upload")
	maxWords := fs.Int("max-words", loader.DefaultMaxWords, "Capacity of each on-chip memory")
	level, format := logFlags(fs)
	fs.Parse(args)

	if fs.NArg() != 1 {
		return fmt.Errorf("load expects exactly one program file")
	}
	if err := initLogging(*level, *format); err != nil {
		return err
	}

	image, err := programImage(fs.Arg(0))
	if err != nil {
		return err
	}

	port, err := openPort(*portName, *baud)
	if err != nil {
		return err
	}
	defer port.Close()

	// Handshake reads must not block forever on a silent device. The
	// telemetry commands keep the port blocking, since a stepped core may
	// legitimately stay quiet between dumps.
	if err := port.SetReadTimeout(loadReadTimeout); err != nil {
		return fmt.Errorf("setting read timeout on %s: %w", *portName, err)
	}

	ld := loader.New(port,
		loader.WithLogger(log.UART),
		loader.WithMaxWords(*maxWords))

	if err := ld.Upload(loader.InstructionMemory, image); err != nil {
		return err
	}

	if *dataFile != "" {
		data, err := os.ReadFile(*dataFile)
		if err != nil {
			return fmt.Errorf("reading data image: %w", err)
		}
		if err := ld.Upload(loader.DataMemory, data); err != nil {
			return err
		}
	}
	return nil
}

func cmdRun(args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	portName := fs.String("port", "", "Serial port of the core (required)")
	baud := fs.Int("baud", 115200, "Baud rate")
	legacy := fs.Bool("legacy", false, "Decode the legacy dump format")
	full := fs.Bool("full", false, "Print full snapshots instead of register diffs")
	level, format := logFlags(fs)
	fs.Parse(args)

	if err := initLogging(*level, *format); err != nil {
		return err
	}

	port, err := openPort(*portName, *baud)
	if err != nil {
		return err
	}
	defer port.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	session := newSession(port, *legacy)
	if err := session.StartContinuous(ctx); err != nil {
		return err
	}

	mirror := pipeline.NewMemoryMirror()
	var prev *pipeline.Snapshot
	err = session.Run(ctx, func(snap *pipeline.Snapshot) error {
		report(snap, prev, mirror, *full)
		prev = snap
		return nil
	})
	if err != nil && ctx.Err() != nil {
		log.Root.Info().Msg("interrupted")
		return nil
	}
	return err
}

func cmdStep(args []string) error {
	fs := flag.NewFlagSet("step", flag.ExitOnError)
	portName := fs.String("port", "", "Serial port of the core (required)")
	baud := fs.Int("baud", 115200, "Baud rate")
	legacy := fs.Bool("legacy", false, "Decode the legacy dump format")
	steps := fs.Int("n", 1, "Number of cycles to step")
	level, format := logFlags(fs)
	fs.Parse(args)

	if err := initLogging(*level, *format); err != nil {
		return err
	}

	port, err := openPort(*portName, *baud)
	if err != nil {
		return err
	}
	defer port.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	session := newSession(port, *legacy)
	if err := session.StartStepMode(ctx); err != nil {
		return err
	}

	mirror := pipeline.NewMemoryMirror()
	var prev *pipeline.Snapshot
	for i := 0; i < *steps; i++ {
		snap, err := session.Step(ctx)
		if err != nil {
			return err
		}
		report(snap, prev, mirror, true)
		prev = snap
		if snap.Hazard.ProgramEnded {
			log.Root.Info().Msg("program ended")
			break
		}
	}
	return nil
}

func cmdPorts() error {
	ports, err := serial.GetPortsList()
	if err != nil {
		return fmt.Errorf("enumerating serial ports: %w", err)
	}
	if len(ports) == 0 {
		fmt.Println("No serial ports found.")
		return nil
	}
	for _, p := range ports {
		fmt.Println(p)
	}
	return nil
}

// programImage loads a program file, assembling it first when it is a
// source file rather than a raw image.
func programImage(path string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading program: %w", err)
	}

	switch filepath.Ext(path) {
	case ".s", ".asm":
		program, err := asm.New(asm.WithLogger(log.Asm)).Assemble(string(raw))
		if err != nil {
			return nil, err
		}
		return program.Bytes(), nil
	default:
		return raw, nil
	}
}

func openPort(name string, baud int) (serial.Port, error) {
	if name == "" {
		return nil, fmt.Errorf("no serial port given, use -port (see 'risky ports')")
	}
	port, err := serial.Open(name, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", name, err)
	}
	return port, nil
}

func newSession(port serial.Port, legacy bool) *loader.Session {
	opts := []telemetry.ParserOption{
		telemetry.WithParserLogger(log.Telemetry),
		telemetry.WithNoiseWriter(os.Stdout),
	}
	if legacy {
		opts = append(opts, telemetry.WithLayout(telemetry.Rev1{}))
	}
	return loader.NewSession(port,
		loader.WithSessionLogger(log.UART),
		loader.WithParser(telemetry.NewParser(opts...)))
}

// report prints one decoded snapshot: either the full pipeline state or
// the register-file changes since the previous cycle, plus any memory
// activity folded into the host-side mirror.
func report(snap, prev *pipeline.Snapshot, mirror *pipeline.MemoryMirror, full bool) {
	if full {
		fmt.Println(snap.Render())
	} else {
		changes := snap.DiffRegisters(prev)
		if len(changes) == 0 {
			fmt.Println("No changes in Register File.")
		}
		for _, c := range changes {
			fmt.Printf("x%-2d: 0x%08X -> 0x%08X\n", c.Index, c.Old, c.New)
		}
	}

	if snap.Memory != nil {
		mirror.Apply(snap.Memory)
		fmt.Println(snap.Memory)
	}
	if snap.Hazard.ProgramEnded {
		fmt.Println("\nFinal register file:")
		for i := 0; i < 32; i++ {
			fmt.Printf("x%-2d: 0x%08X\n", i, snap.Registers.Read(i))
		}
		fmt.Println(mirror)
	}
}
