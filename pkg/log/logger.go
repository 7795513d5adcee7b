// Package log configures the component loggers shared by the assembler,
// the UART link and the telemetry decoder.
package log

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// LoggerType selects the output encoding.
type LoggerType uint8

// Supported logger types.
const (
	ConsoleLogger LoggerType = iota
	JSONLogger
)

// Component loggers. Init must run before these are used; until then they
// are disabled no-op loggers.
var (
	Root      zerolog.Logger
	Asm       zerolog.Logger
	UART      zerolog.Logger
	Telemetry zerolog.Logger
)

func init() {
	Root = zerolog.Nop()
	Asm = zerolog.Nop()
	UART = zerolog.Nop()
	Telemetry = zerolog.Nop()
}

// Options for Init.
type Options struct {
	// LogLevel sets the minimum emitted level, default Info.
	LogLevel zerolog.Level
	Type     LoggerType
}

// ParseLogLevel maps a level name ("debug", "info", ...) to a zerolog level.
func ParseLogLevel(loglevel string) (zerolog.Level, error) {
	return zerolog.ParseLevel(loglevel)
}

// Init builds the root logger and derives the component loggers from it.
func Init(opts Options) {
	switch opts.Type {
	case ConsoleLogger:
		Root = zerolog.New(newConsoleWriter()).Level(opts.LogLevel).
			With().Timestamp().Logger()
	default:
		Root = zerolog.New(os.Stdout).Level(opts.LogLevel).
			With().Timestamp().Logger()
	}

	Asm = Root.With().Str("component", "asm").Logger()
	UART = Root.With().Str("component", "uart").Logger()
	Telemetry = Root.With().Str("component", "telemetry").Logger()
}

func newConsoleWriter() zerolog.ConsoleWriter {
	cw := zerolog.ConsoleWriter{Out: os.Stdout, NoColor: true, TimeFormat: time.RFC3339}

	cw.FormatLevel = func(i interface{}) string {
		return strings.ToUpper(fmt.Sprintf("| %-6s|", i))
	}

	cw.FormatFieldName = func(i interface{}) string {
		return fmt.Sprintf("%s=", i)
	}

	return cw
}
