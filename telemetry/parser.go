// Package telemetry decodes the binary dump stream the core emits over
// UART into pipeline snapshots.
//
// Each packet starts with the 0xDA alert byte and a mode byte, followed by
// a fixed 50-word pipeline block and a variable-length memory trailer
// whose size depends on the mode and, in range mode, on the dumped window.
// Bytes between packets are noise (typically firmware prints) and are
// skipped one at a time.
//
// The parser is resumable: feed it whatever the serial port returned, even
// one byte at a time, and it emits a snapshot whenever a packet completes.
package telemetry

import (
	"encoding/binary"
	"io"

	"github.com/rs/zerolog"

	"github.com/stefaema/risc-v-risky-edition/insts"
	"github.com/stefaema/risc-v-risky-edition/pipeline"
)

// AlertByte announces a pipeline dump packet.
const AlertByte = 0xDA

// State names the parsing phase the parser is blocked in while it waits
// for more bytes.
type State uint8

// Parsing phases.
const (
	// Scanning means the parser is looking for the alert byte.
	Scanning State = iota
	// AwaitingHeader means the alert byte arrived and the fixed pipeline
	// block is still incomplete.
	AwaitingHeader
	// AwaitingMemSize means the fixed block is complete and the memory
	// trailer's size header (snoop flag or range min/max) is incomplete.
	AwaitingMemSize
	// AwaitingMemBody means the trailer size is known and its payload is
	// incomplete.
	AwaitingMemBody
)

func (s State) String() string {
	switch s {
	case Scanning:
		return "scanning"
	case AwaitingHeader:
		return "awaiting header"
	case AwaitingMemSize:
		return "awaiting memory size"
	case AwaitingMemBody:
		return "awaiting memory body"
	}
	return "UNKNOWN"
}

// Parser reassembles dump packets from an arbitrarily chunked byte stream.
// It keeps no per-packet state outside its buffer, so a feed that ends
// mid-packet simply resumes on the next feed. Not safe for concurrent use.
type Parser struct {
	layout  Layout
	decoder *insts.Decoder
	logger  zerolog.Logger
	noise   io.Writer

	buf        []byte
	state      State
	noiseCount int
}

// ParserOption configures a Parser.
type ParserOption func(*Parser)

// WithLayout selects the wire format revision. Defaults to CurrentLayout.
func WithLayout(l Layout) ParserOption {
	return func(p *Parser) { p.layout = l }
}

// WithParserLogger routes the parser's diagnostics.
func WithParserLogger(l zerolog.Logger) ParserOption {
	return func(p *Parser) { p.logger = l }
}

// WithNoiseWriter mirrors skipped inter-packet bytes to w, so firmware
// prints interleaved with the dumps stay visible.
func WithNoiseWriter(w io.Writer) ParserOption {
	return func(p *Parser) { p.noise = w }
}

// NewParser returns a parser for the current wire format.
func NewParser(opts ...ParserOption) *Parser {
	p := &Parser{
		layout:  CurrentLayout,
		decoder: insts.NewDecoder(),
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// State reports the phase the parser is currently blocked in.
func (p *Parser) State() State { return p.state }

// Buffered reports how many fed bytes are waiting to be consumed.
func (p *Parser) Buffered() int { return len(p.buf) }

// NoiseBytes reports how many inter-packet bytes have been skipped so far.
func (p *Parser) NoiseBytes() int { return p.noiseCount }

// Feed appends data to the parser's buffer and returns every snapshot that
// completed. Feeding the same stream in different chunkings yields the
// same snapshots. On a protocol violation the offending alert byte is
// dropped so a later Feed can resynchronize on the next packet.
func (p *Parser) Feed(data []byte) ([]*pipeline.Snapshot, error) {
	p.buf = append(p.buf, data...)

	var snapshots []*pipeline.Snapshot
	for {
		snap, err := p.step()
		if err != nil {
			return snapshots, err
		}
		if snap == nil {
			return snapshots, nil
		}
		snapshots = append(snapshots, snap)
	}
}

// step consumes at most one packet. It returns (nil, nil) when the buffer
// holds no complete packet yet.
func (p *Parser) step() (*pipeline.Snapshot, error) {
	// Skip noise until the buffer starts with the alert byte.
	for len(p.buf) > 0 && p.buf[0] != AlertByte {
		p.skipNoiseByte()
	}
	if len(p.buf) == 0 {
		p.state = Scanning
		return nil, nil
	}

	// Fixed block: alert, mode, 50 words, pad.
	fixed := 2 + 4*(pipelineWords+p.layout.padWords())
	if len(p.buf) < fixed {
		p.state = AwaitingHeader
		return nil, nil
	}

	mode := pipeline.RangeDump
	if p.buf[1] == 0 {
		mode = pipeline.SnoopDump
	}

	var sizeWords int // trailer size header
	if mode == pipeline.SnoopDump {
		sizeWords = 1
	} else {
		sizeWords = 2
	}
	if len(p.buf) < fixed+4*sizeWords {
		p.state = AwaitingMemSize
		return nil, nil
	}

	var bodyWords int
	if mode == pipeline.SnoopDump {
		flag := binary.LittleEndian.Uint32(p.buf[fixed:])
		bodyWords = p.layout.snoopBodyWords(flag)
	} else {
		min := binary.LittleEndian.Uint32(p.buf[fixed:])
		max := binary.LittleEndian.Uint32(p.buf[fixed+4:])
		bodyWords = p.layout.rangeBodyWords(min, max)
	}

	total := fixed + 4*(sizeWords+bodyWords)
	if len(p.buf) < total {
		p.state = AwaitingMemBody
		return nil, nil
	}

	snap, err := p.decodePacket(p.buf[:total], mode)
	if err != nil {
		// Drop the alert byte: the rest of the packet re-enters the
		// buffer as noise and the next alert resynchronizes the stream.
		p.skipNoiseByte()
		p.state = Scanning
		return nil, err
	}

	p.buf = p.buf[total:]
	p.state = Scanning
	p.logger.Debug().
		Stringer("mode", mode).
		Int("bytes", total).
		Msg("packet decoded")
	return snap, nil
}

func (p *Parser) skipNoiseByte() {
	b := p.buf[0]
	p.buf = p.buf[1:]
	p.noiseCount++
	if p.noise != nil {
		p.noise.Write([]byte{b})
	}
	p.logger.Trace().Uint8("byte", b).Msg("noise byte skipped")
}

// decodePacket decodes one complete packet. packet[0] is the alert byte.
func (p *Parser) decodePacket(packet []byte, mode pipeline.DumpMode) (*pipeline.Snapshot, error) {
	words := make([]uint32, (len(packet)-2)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(packet[2+4*i:])
	}

	snap := &pipeline.Snapshot{Mode: mode}
	for i := 0; i < regFileWords; i++ {
		snap.Registers[i] = words[i]
	}

	w := words[regFileWords:]
	snap.Hazard = p.layout.hazard(w[0])
	snap.IFID = pipeline.IFIDLatch{
		PC:          w[1],
		Instruction: p.decoder.Decode(w[2]),
		PCPlus4:     w[3],
	}
	snap.IDEX = p.layout.idex(w[4:10])
	snap.EXMEM = p.layout.exmem(w[10:14])
	snap.MEMWB = p.layout.memwb(w[14:18])

	mem := w[18+p.layout.padWords():]
	if mode == pipeline.SnoopDump {
		update, err := p.layout.snoop(mem[0], mem[1:])
		if err != nil {
			return nil, err
		}
		snap.Memory = update
	} else {
		min, max := mem[0], mem[1]
		patch := &pipeline.RangePatch{Min: min, Max: max}
		if !p.layout.rangeEmpty(min, max) {
			patch.Words = append(patch.Words, mem[2:]...)
		}
		snap.Memory = patch
	}
	return snap, nil
}
