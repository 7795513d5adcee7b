package asm

import (
	"fmt"
	"strings"

	"github.com/stefaema/risc-v-risky-edition/insts"
)

// ScratchRegister is the caller-invisible temporary clobbered by macro
// expansions that need an intermediate result (blt). Programs that keep live
// data in t6/x31 cannot use those macros.
const ScratchRegister = "t6"

// ExpandMacros rewrites pseudo-instructions into real RV32I instructions.
// Comments (text after '#') are stripped, blank lines dropped, and label
// definitions emitted as their own lines. Anything that is not a recognized
// pseudo-op passes through unchanged for the encoding phase to judge.
func (a *Assembler) ExpandMacros(lines []string) ([]string, error) {
	var expanded []string

	for _, raw := range lines {
		line := strings.TrimSpace(strings.SplitN(raw, "#", 2)[0])
		if line == "" {
			continue
		}

		// Detach a "label:" prefix so shared lines like "loop: nop" still
		// get their instruction half macro-expanded.
		if idx := strings.Index(line, ":"); idx >= 0 {
			expanded = append(expanded, line[:idx+1])
			line = strings.TrimSpace(line[idx+1:])
			if line == "" {
				continue
			}
		}

		fields := splitOperands(line)
		mnemonic := strings.ToLower(fields[0])
		args := fields[1:]

		var replacement []string
		switch mnemonic {
		case "nop":
			replacement = []string{"addi x0, x0, 0"}

		case "mv":
			if len(args) != 2 {
				return nil, &Error{Line: line, Err: fmt.Errorf("%w: mv takes 2 operands", insts.ErrBadOperands)}
			}
			replacement = []string{fmt.Sprintf("addi %s, %s, 0", args[0], args[1])}

		case "li":
			var err error
			replacement, err = expandLoadImmediate(line, args)
			if err != nil {
				return nil, err
			}

		case "blt":
			if len(args) != 3 {
				return nil, &Error{Line: line, Err: fmt.Errorf("%w: blt takes 3 operands", insts.ErrBadOperands)}
			}
			replacement = []string{
				fmt.Sprintf("slt %s, %s, %s", ScratchRegister, args[0], args[1]),
				fmt.Sprintf("bne %s, zero, %s", ScratchRegister, args[2]),
			}

		default:
			expanded = append(expanded, line)
			continue
		}

		a.logger.Debug().
			Str("pseudo", line).
			Strs("expansion", replacement).
			Msg("expanded macro")
		expanded = append(expanded, replacement...)
	}

	return expanded, nil
}

// expandLoadImmediate emits the minimal sequence for li: a single addi when
// the value fits 12 signed bits, otherwise lui plus an optional addi using
// the standard relocation trick. When the low half's sign bit is set the
// upper part is incremented to compensate for the sign extension the addi
// will apply, and the low half rebiased by -4096.
func expandLoadImmediate(line string, args []string) ([]string, error) {
	if len(args) != 2 {
		return nil, &Error{Line: line, Err: fmt.Errorf("%w: li takes 2 operands", insts.ErrBadOperands)}
	}
	rd := args[0]
	imm, err := insts.ParseImmediate(args[1])
	if err != nil {
		return nil, &Error{Line: line, Err: err}
	}

	if imm >= -2048 && imm <= 2047 {
		return []string{fmt.Sprintf("addi %s, zero, %d", rd, imm)}, nil
	}

	lower := imm & 0xFFF
	upper := (imm >> 12) & 0xFFFFF
	if lower&0x800 != 0 {
		upper = (upper + 1) & 0xFFFFF
		lower -= 4096
	}

	out := []string{fmt.Sprintf("lui %s, %d", rd, upper)}
	if lower != 0 {
		out = append(out, fmt.Sprintf("addi %s, %s, %d", rd, rd, lower))
	}
	return out, nil
}

// splitOperands tokenizes an instruction line on commas, parentheses and
// whitespace, so "lw x5, 4(x10)" becomes ["lw", "x5", "4", "x10"].
func splitOperands(line string) []string {
	normalized := strings.NewReplacer("(", " ", ")", " ", ",", " ").Replace(line)
	return strings.Fields(normalized)
}
