// Package asm assembles RV32I assembly text into machine code.
//
// Assembly proceeds in three phases: macro expansion (pseudo-ops become real
// instructions), a first pass that assigns a program counter to every
// instruction line and records label addresses, and a second pass that
// encodes each line through the insts codec, resolving branch and jump
// labels to PC-relative offsets.
//
// Any defect aborts the whole assembly with the offending line attached;
// partial output is never produced.
package asm

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/stefaema/risc-v-risky-edition/insts"
)

// ErrUndefinedLabel reports a branch or jump to a label no line defines.
var ErrUndefinedLabel = errors.New("undefined label")

// Error is an assembly failure attributed to one source line.
type Error struct {
	PC   uint32 // Program counter of the instruction, when known
	Line string // The offending (macro-expanded) line
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("assembly failed at %q (pc=0x%03X): %v", e.Line, e.PC, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Program is the result of a successful assembly.
type Program struct {
	// Words holds one encoded instruction per entry, in program order.
	Words []uint32

	// Labels maps lowercase label names to their byte addresses.
	Labels map[string]uint32
}

// Bytes serializes the program as consecutive 4-byte little-endian words,
// the layout the instruction memory loader transmits.
func (p *Program) Bytes() []byte {
	out := make([]byte, 0, len(p.Words)*4)
	for _, w := range p.Words {
		out = binary.LittleEndian.AppendUint32(out, w)
	}
	return out
}

// Assembler converts assembly source text into Programs. It keeps no state
// between invocations; one instance may assemble many inputs, concurrently
// if desired.
type Assembler struct {
	logger zerolog.Logger
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithLogger routes expansion and encoding traces to the given logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(a *Assembler) { a.logger = logger }
}

// New creates an Assembler.
func New(opts ...Option) *Assembler {
	a := &Assembler{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// queuedLine is an instruction awaiting encoding, tagged with its PC.
type queuedLine struct {
	pc   uint32
	line string
}

// Assemble converts source text to machine code. The input is one
// instruction, label or comment per line.
func (a *Assembler) Assemble(source string) (*Program, error) {
	expanded, err := a.ExpandMacros(strings.Split(source, "\n"))
	if err != nil {
		return nil, err
	}

	labels, queue := collectLabels(expanded)

	prog := &Program{
		Words:  make([]uint32, 0, len(queue)),
		Labels: labels,
	}
	for _, q := range queue {
		word, err := a.encodeLine(q, labels)
		if err != nil {
			return nil, err
		}
		a.logger.Debug().
			Str("line", q.line).
			Uint32("pc", q.pc).
			Str("word", fmt.Sprintf("0x%08X", word)).
			Msg("encoded")
		prog.Words = append(prog.Words, word)
	}

	return prog, nil
}

// collectLabels is the first pass: label definitions record the running PC
// without advancing it; every other line is queued and advances it by 4.
func collectLabels(lines []string) (map[string]uint32, []queuedLine) {
	labels := make(map[string]uint32)
	var queue []queuedLine
	var pc uint32

	for _, line := range lines {
		if name, ok := strings.CutSuffix(line, ":"); ok {
			labels[strings.ToLower(strings.TrimSpace(name))] = pc
			continue
		}
		queue = append(queue, queuedLine{pc: pc, line: line})
		pc += 4
	}

	return labels, queue
}

// encodeLine is the second pass: tokenize, resolve a trailing label operand
// for branches and jumps to a self-relative offset, and encode.
func (a *Assembler) encodeLine(q queuedLine, labels map[string]uint32) (uint32, error) {
	fields := splitOperands(q.line)
	mnemonic := strings.ToLower(fields[0])
	operands := fields[1:]

	if insts.IsBranchOrJump(mnemonic) && len(operands) > 0 {
		last := len(operands) - 1
		resolved, err := resolveTarget(operands[last], q.pc, labels)
		if err != nil {
			return 0, &Error{PC: q.pc, Line: q.line, Err: err}
		}
		operands[last] = resolved
	}

	word, err := insts.Encode(mnemonic, operands)
	if err != nil {
		return 0, &Error{PC: q.pc, Line: q.line, Err: err}
	}
	return word, nil
}

// resolveTarget turns a label operand into a PC-relative decimal offset.
// Offsets are relative to the instruction itself, not PC+4. A target that
// already parses as an integer is taken as a literal offset.
func resolveTarget(target string, pc uint32, labels map[string]uint32) (string, error) {
	if _, err := insts.ParseImmediate(target); err == nil {
		return target, nil
	}
	addr, ok := labels[strings.ToLower(target)]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUndefinedLabel, target)
	}
	return fmt.Sprintf("%d", int64(addr)-int64(pc)), nil
}
