package insts

import "fmt"

// String renders the instruction the way the debugger console expects:
// mnemonic padded to seven columns, memory operands in imm(rs1) form, upper
// immediates in hex.
func (i *Instruction) String() string {
	if i.Unknown() {
		return fmt.Sprintf("unknown (raw: %#x)", i.Word)
	}

	switch i.Format {
	case FormatR:
		return fmt.Sprintf("%-7s x%d, x%d, x%d", i.Mnemonic, i.Rd, i.Rs1, i.Rs2)
	case FormatIShift:
		return fmt.Sprintf("%-7s x%d, x%d, %d", i.Mnemonic, i.Rd, i.Rs1, i.Shamt())
	case FormatILoad:
		if i.Opcode == OpcodeJALR {
			return fmt.Sprintf("%-7s x%d, x%d, %d", i.Mnemonic, i.Rd, i.Rs1, i.Imm)
		}
		return fmt.Sprintf("%-7s x%d, %d(x%d)", i.Mnemonic, i.Rd, i.Imm, i.Rs1)
	case FormatI:
		return fmt.Sprintf("%-7s x%d, x%d, %d", i.Mnemonic, i.Rd, i.Rs1, i.Imm)
	case FormatS:
		return fmt.Sprintf("%-7s x%d, %d(x%d)", i.Mnemonic, i.Rs2, i.Imm, i.Rs1)
	case FormatB:
		return fmt.Sprintf("%-7s x%d, x%d, %d", i.Mnemonic, i.Rs1, i.Rs2, i.Imm)
	case FormatU:
		return fmt.Sprintf("%-7s x%d, %#x", i.Mnemonic, i.Rd, uint32(i.Imm))
	case FormatJ:
		return fmt.Sprintf("%-7s x%d, %d", i.Mnemonic, i.Rd, i.Imm)
	case FormatSystem:
		return i.Mnemonic
	}

	return fmt.Sprintf("%s (raw: %#x)", i.Mnemonic, i.Word)
}
