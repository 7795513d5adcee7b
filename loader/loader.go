// Package loader drives the UART boot protocol of the core: payload
// validation and upload into instruction or data memory, and the run-mode
// commands that start execution once memory is loaded.
package loader

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
)

// Protocol command bytes.
const (
	CmdLoadCode byte = 0x1C // Select instruction memory as upload target
	CmdLoadData byte = 0x1D // Select data memory as upload target
	AckFinish   byte = 0xF1 // Upload accepted

	CmdModeContinuous byte = 0xCE // Free-running execution
	CmdModeStep       byte = 0xDE // Single-step execution
	CmdStepNext       byte = 0xAE // Advance one cycle in step mode
)

// DefaultMaxWords is the capacity of each on-chip memory.
const DefaultMaxWords = 256

// protocolMaxWords is the ceiling of the 16-bit word count on the wire.
// Images above it cannot be announced to the device no matter how deep
// the synthesized memory is.
const protocolMaxWords = 0xFFFF

// ecallWord is the mandatory last instruction of any program image,
// little-endian on the wire.
var ecallWord = [4]byte{0x73, 0x00, 0x00, 0x00}

// MemoryKind selects which on-chip memory an upload targets.
type MemoryKind uint8

// Upload targets.
const (
	InstructionMemory MemoryKind = iota
	DataMemory
)

func (k MemoryKind) String() string {
	if k == InstructionMemory {
		return "instruction memory"
	}
	return "data memory"
}

func (k MemoryKind) command() byte {
	if k == InstructionMemory {
		return CmdLoadCode
	}
	return CmdLoadData
}

// Loader uploads memory images over an already-open UART connection.
type Loader struct {
	port     io.ReadWriter
	logger   zerolog.Logger
	maxWords int
}

// Option configures a Loader.
type Option func(*Loader)

// WithLogger routes the loader's transfer log.
func WithLogger(l zerolog.Logger) Option {
	return func(ld *Loader) { ld.logger = l }
}

// WithMaxWords overrides the memory capacity check, for cores synthesized
// with a different memory depth.
func WithMaxWords(n int) Option {
	return func(ld *Loader) { ld.maxWords = n }
}

// New returns a loader speaking over port.
func New(port io.ReadWriter, opts ...Option) *Loader {
	ld := &Loader{
		port:     port,
		logger:   zerolog.Nop(),
		maxWords: DefaultMaxWords,
	}
	for _, opt := range opts {
		opt(ld)
	}
	return ld
}

// ValidatePayload checks a memory image against the hardware's constraints
// and returns it padded to a whole number of words. Instruction images
// must end with the ECALL word, which the core relies on to detect program
// end.
func (ld *Loader) ValidatePayload(payload []byte, kind MemoryKind) ([]byte, error) {
	words := (len(payload) + 3) / 4
	if words > protocolMaxWords {
		return nil, &ValidationError{
			Kind: kind,
			Reason: fmt.Sprintf("image holds %d words, the word count field caps out at %d",
				words, protocolMaxWords),
		}
	}
	if words > ld.maxWords {
		return nil, &ValidationError{
			Kind: kind,
			Reason: fmt.Sprintf("image holds %d words, memory fits %d",
				words, ld.maxWords),
		}
	}

	data := make([]byte, 0, words*4)
	data = append(data, payload...)
	if pad := len(data) % 4; pad != 0 {
		ld.logger.Warn().
			Int("bytes", 4-pad).
			Msg("padding image to word alignment")
		data = append(data, make([]byte, 4-pad)...)
	}

	if kind == InstructionMemory {
		if len(data) < 4 || [4]byte(data[len(data)-4:]) != ecallWord {
			return nil, &ValidationError{
				Kind:   kind,
				Reason: "program must end with ecall (0x00000073)",
			}
		}
	}
	return data, nil
}

// Upload validates payload and transfers it into the selected memory:
// command byte, echo, big-endian 16-bit word count, payload, final ACK.
func (ld *Loader) Upload(kind MemoryKind, payload []byte) error {
	data, err := ld.ValidatePayload(payload, kind)
	if err != nil {
		return err
	}
	words := len(data) / 4

	cmd := kind.command()
	ld.logger.Info().
		Stringer("target", kind).
		Int("words", words).
		Msg("starting upload")

	if _, err := ld.port.Write([]byte{cmd}); err != nil {
		return fmt.Errorf("sending %#x command: %w", cmd, err)
	}
	echo, err := readByte(ld.port)
	if err != nil {
		return &HandshakeError{Stage: "command echo", Expected: cmd, Err: err}
	}
	if echo != cmd {
		return &HandshakeError{Stage: "command echo", Expected: cmd, Got: echo}
	}

	var count [2]byte
	binary.BigEndian.PutUint16(count[:], uint16(words))
	if _, err := ld.port.Write(count[:]); err != nil {
		return fmt.Errorf("sending word count: %w", err)
	}

	if _, err := ld.port.Write(data); err != nil {
		return fmt.Errorf("sending payload: %w", err)
	}

	ack, err := readByte(ld.port)
	if err != nil {
		return &HandshakeError{Stage: "final ack", Expected: AckFinish, Err: err}
	}
	if ack != AckFinish {
		return &HandshakeError{Stage: "final ack", Expected: AckFinish, Got: ack}
	}

	ld.logger.Info().Stringer("target", kind).Msg("upload acknowledged")
	return nil
}

// readByte reads one byte, treating a zero-length read as a dead line.
// Serial ports with a read timeout report an expired deadline as (0, nil).
func readByte(r io.Reader) (byte, error) {
	var b [1]byte
	n, err := r.Read(b[:])
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, os.ErrDeadlineExceeded
	}
	return b[0], nil
}
