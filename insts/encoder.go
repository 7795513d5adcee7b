package insts

import "fmt"

// Encode assembles a mnemonic and its operand tokens into a 32-bit machine
// word. Operands follow assembly order for the mnemonic's format; memory
// operands arrive with parentheses already split (so "lw x5, 4(x10)" passes
// ["x5", "4", "x10"]). Label operands must have been resolved to PC-relative
// byte offsets by the caller.
//
// Errors wrap ErrUnknownMnemonic, ErrUnknownRegister, ErrInvalidImmediate or
// ErrBadOperands.
func Encode(mnemonic string, operands []string) (uint32, error) {
	spec, ok := encodingTable[mnemonic]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownMnemonic, mnemonic)
	}

	switch spec.format {
	case FormatR:
		return encodeR(spec, mnemonic, operands)
	case FormatI:
		return encodeI(spec, mnemonic, operands)
	case FormatIShift:
		return encodeIShift(spec, mnemonic, operands)
	case FormatILoad:
		return encodeILoad(spec, mnemonic, operands)
	case FormatS:
		return encodeS(spec, mnemonic, operands)
	case FormatB:
		return encodeB(spec, mnemonic, operands)
	case FormatU:
		return encodeU(spec, mnemonic, operands)
	case FormatJ:
		return encodeJ(spec, mnemonic, operands)
	case FormatSystem:
		return uint32(spec.funct12)<<20 | uint32(spec.funct3)<<12 | uint32(spec.opcode), nil
	}

	return 0, fmt.Errorf("%w: %q", ErrUnknownMnemonic, mnemonic)
}

func operandCount(mnemonic string, operands []string, want int) error {
	if len(operands) != want {
		return fmt.Errorf("%w: %s takes %d operands, got %d",
			ErrBadOperands, mnemonic, want, len(operands))
	}
	return nil
}

// immInRange validates a signed immediate against an inclusive range.
func immInRange(mnemonic string, imm, lo, hi int64) error {
	if imm < lo || imm > hi {
		return fmt.Errorf("%w: %d out of range [%d, %d] for %s",
			ErrInvalidImmediate, imm, lo, hi, mnemonic)
	}
	return nil
}

// encodeR packs funct7|rs2|rs1|funct3|rd|opcode.
func encodeR(spec encodingSpec, mnemonic string, operands []string) (uint32, error) {
	if err := operandCount(mnemonic, operands, 3); err != nil {
		return 0, err
	}
	rd, err := ParseRegister(operands[0])
	if err != nil {
		return 0, err
	}
	rs1, err := ParseRegister(operands[1])
	if err != nil {
		return 0, err
	}
	rs2, err := ParseRegister(operands[2])
	if err != nil {
		return 0, err
	}

	return uint32(spec.funct7)<<25 | uint32(rs2)<<20 | uint32(rs1)<<15 |
		uint32(spec.funct3)<<12 | uint32(rd)<<7 | uint32(spec.opcode), nil
}

// encodeI packs imm[11:0]|rs1|funct3|rd|opcode.
func encodeI(spec encodingSpec, mnemonic string, operands []string) (uint32, error) {
	if err := operandCount(mnemonic, operands, 3); err != nil {
		return 0, err
	}
	rd, err := ParseRegister(operands[0])
	if err != nil {
		return 0, err
	}
	rs1, err := ParseRegister(operands[1])
	if err != nil {
		return 0, err
	}
	imm, err := ParseImmediate(operands[2])
	if err != nil {
		return 0, err
	}
	if err := immInRange(mnemonic, imm, -2048, 2047); err != nil {
		return 0, err
	}

	return packI(spec, rd, rs1, int32(imm)), nil
}

// encodeIShift packs funct7|shamt[4:0]|rs1|funct3|rd|opcode.
// The shift amount is unsigned, never sign-extended.
func encodeIShift(spec encodingSpec, mnemonic string, operands []string) (uint32, error) {
	if err := operandCount(mnemonic, operands, 3); err != nil {
		return 0, err
	}
	rd, err := ParseRegister(operands[0])
	if err != nil {
		return 0, err
	}
	rs1, err := ParseRegister(operands[1])
	if err != nil {
		return 0, err
	}
	shamt, err := ParseImmediate(operands[2])
	if err != nil {
		return 0, err
	}
	if err := immInRange(mnemonic, shamt, 0, 31); err != nil {
		return 0, err
	}

	return uint32(spec.funct7)<<25 | uint32(shamt)<<20 | uint32(rs1)<<15 |
		uint32(spec.funct3)<<12 | uint32(rd)<<7 | uint32(spec.opcode), nil
}

// encodeILoad handles both operand orders observed in source: the memory form
// "rd, imm, rs1" (from rd, imm(rs1)) and the JALR form "rd, rs1, imm".
func encodeILoad(spec encodingSpec, mnemonic string, operands []string) (uint32, error) {
	if err := operandCount(mnemonic, operands, 3); err != nil {
		return 0, err
	}
	rd, err := ParseRegister(operands[0])
	if err != nil {
		return 0, err
	}

	var rs1 uint8
	var imm int64
	if r, rerr := ParseRegister(operands[1]); rerr == nil {
		rs1 = r
		imm, err = ParseImmediate(operands[2])
	} else {
		imm, err = ParseImmediate(operands[1])
		if err == nil {
			rs1, err = ParseRegister(operands[2])
		}
	}
	if err != nil {
		return 0, err
	}
	if err := immInRange(mnemonic, imm, -2048, 2047); err != nil {
		return 0, err
	}

	return packI(spec, rd, rs1, int32(imm)), nil
}

func packI(spec encodingSpec, rd, rs1 uint8, imm int32) uint32 {
	return truncate(imm, 12)<<20 | uint32(rs1)<<15 |
		uint32(spec.funct3)<<12 | uint32(rd)<<7 | uint32(spec.opcode)
}

// encodeS packs imm[11:5]|rs2|rs1|funct3|imm[4:0]|opcode.
// Operand order is "rs2, imm, rs1" (from rs2, imm(rs1)).
func encodeS(spec encodingSpec, mnemonic string, operands []string) (uint32, error) {
	if err := operandCount(mnemonic, operands, 3); err != nil {
		return 0, err
	}
	rs2, err := ParseRegister(operands[0])
	if err != nil {
		return 0, err
	}
	imm, err := ParseImmediate(operands[1])
	if err != nil {
		return 0, err
	}
	rs1, err := ParseRegister(operands[2])
	if err != nil {
		return 0, err
	}
	if err := immInRange(mnemonic, imm, -2048, 2047); err != nil {
		return 0, err
	}

	raw := truncate(int32(imm), 12)
	return (raw>>5)<<25 | uint32(rs2)<<20 | uint32(rs1)<<15 |
		uint32(spec.funct3)<<12 | (raw&0x1F)<<7 | uint32(spec.opcode), nil
}

// encodeB packs imm[12|10:5]|rs2|rs1|funct3|imm[4:1|11]|opcode.
// The offset is PC-relative, even, and spans 13 signed bits.
func encodeB(spec encodingSpec, mnemonic string, operands []string) (uint32, error) {
	if err := operandCount(mnemonic, operands, 3); err != nil {
		return 0, err
	}
	rs1, err := ParseRegister(operands[0])
	if err != nil {
		return 0, err
	}
	rs2, err := ParseRegister(operands[1])
	if err != nil {
		return 0, err
	}
	offset, err := ParseImmediate(operands[2])
	if err != nil {
		return 0, err
	}
	if offset%2 != 0 {
		return 0, fmt.Errorf("%w: branch offset %d is odd", ErrInvalidImmediate, offset)
	}
	if err := immInRange(mnemonic, offset, -4096, 4094); err != nil {
		return 0, err
	}

	raw := truncate(int32(offset), 13)
	return (raw>>12)<<31 | ((raw>>5)&0x3F)<<25 | uint32(rs2)<<20 | uint32(rs1)<<15 |
		uint32(spec.funct3)<<12 | ((raw>>1)&0xF)<<8 | ((raw>>11)&0x1)<<7 |
		uint32(spec.opcode), nil
}

// encodeU packs imm[31:12]|rd|opcode. The operand is the 20-bit upper value.
func encodeU(spec encodingSpec, mnemonic string, operands []string) (uint32, error) {
	if err := operandCount(mnemonic, operands, 2); err != nil {
		return 0, err
	}
	rd, err := ParseRegister(operands[0])
	if err != nil {
		return 0, err
	}
	imm, err := ParseImmediate(operands[1])
	if err != nil {
		return 0, err
	}
	if err := immInRange(mnemonic, imm, 0, 0xFFFFF); err != nil {
		return 0, err
	}

	return uint32(imm)<<12 | uint32(rd)<<7 | uint32(spec.opcode), nil
}

// encodeJ packs imm[20|10:1|11|19:12]|rd|opcode.
func encodeJ(spec encodingSpec, mnemonic string, operands []string) (uint32, error) {
	if err := operandCount(mnemonic, operands, 2); err != nil {
		return 0, err
	}
	rd, err := ParseRegister(operands[0])
	if err != nil {
		return 0, err
	}
	offset, err := ParseImmediate(operands[1])
	if err != nil {
		return 0, err
	}
	if offset%2 != 0 {
		return 0, fmt.Errorf("%w: jump offset %d is odd", ErrInvalidImmediate, offset)
	}
	if err := immInRange(mnemonic, offset, -(1 << 20), 1<<20-2); err != nil {
		return 0, err
	}

	raw := truncate(int32(offset), 21)
	return (raw>>20)<<31 | ((raw>>1)&0x3FF)<<21 | ((raw>>11)&0x1)<<20 |
		((raw>>12)&0xFF)<<12 | uint32(rd)<<7 | uint32(spec.opcode), nil
}
