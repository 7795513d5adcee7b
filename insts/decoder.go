package insts

// Decoder decodes RV32I machine words into instructions.
type Decoder struct{}

// NewDecoder creates a new RV32I instruction decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode decodes a 32-bit RISC-V instruction word. It never fails:
// unrecognized opcode/funct combinations produce an instruction with
// FormatUnknown and an empty mnemonic, carrying the raw word.
func (d *Decoder) Decode(word uint32) *Instruction {
	inst := &Instruction{
		Word:   word,
		Opcode: uint8(word & 0x7F),
	}

	inst.Format = formatForOpcode[inst.Opcode]

	switch inst.Format {
	case FormatR:
		d.decodeR(word, inst)
	case FormatI, FormatILoad:
		d.decodeI(word, inst)
	case FormatS:
		d.decodeS(word, inst)
	case FormatB:
		d.decodeB(word, inst)
	case FormatU:
		d.decodeU(word, inst)
	case FormatJ:
		d.decodeJ(word, inst)
	case FormatSystem:
		d.decodeSystem(word, inst)
	}

	d.resolveMnemonic(inst)

	// Shift immediates are funct7-discriminated, so a decoded slli/srli/srai
	// reclassifies from plain I to the shift format.
	if inst.Opcode == OpcodeIType && (inst.Funct3 == 0b001 || inst.Funct3 == 0b101) {
		inst.Format = FormatIShift
		inst.Imm = int32(inst.Shamt())
	}

	return inst
}

// decodeR extracts fields for funct7|rs2|rs1|funct3|rd|opcode.
func (d *Decoder) decodeR(word uint32, inst *Instruction) {
	inst.Rd = uint8(ExtractBits(word, 7, 5))
	inst.Funct3 = uint8(ExtractBits(word, 12, 3))
	inst.Rs1 = uint8(ExtractBits(word, 15, 5))
	inst.Rs2 = uint8(ExtractBits(word, 20, 5))
	inst.Funct7 = uint8(ExtractBits(word, 25, 7))
}

// decodeI extracts fields for imm[11:0]|rs1|funct3|rd|opcode.
func (d *Decoder) decodeI(word uint32, inst *Instruction) {
	inst.Rd = uint8(ExtractBits(word, 7, 5))
	inst.Funct3 = uint8(ExtractBits(word, 12, 3))
	inst.Rs1 = uint8(ExtractBits(word, 15, 5))
	inst.Imm = SignExtend(ExtractBits(word, 20, 12), 12)
}

// decodeS extracts fields for imm[11:5]|rs2|rs1|funct3|imm[4:0]|opcode.
func (d *Decoder) decodeS(word uint32, inst *Instruction) {
	inst.Funct3 = uint8(ExtractBits(word, 12, 3))
	inst.Rs1 = uint8(ExtractBits(word, 15, 5))
	inst.Rs2 = uint8(ExtractBits(word, 20, 5))

	imm := ExtractBits(word, 25, 7)<<5 | ExtractBits(word, 7, 5)
	inst.Imm = SignExtend(imm, 12)
}

// decodeB extracts fields for imm[12|10:5]|rs2|rs1|funct3|imm[4:1|11]|opcode.
// The branch immediate is re-assembled from its scrambled field order; bit 0
// is implicitly zero (targets are always even).
func (d *Decoder) decodeB(word uint32, inst *Instruction) {
	inst.Funct3 = uint8(ExtractBits(word, 12, 3))
	inst.Rs1 = uint8(ExtractBits(word, 15, 5))
	inst.Rs2 = uint8(ExtractBits(word, 20, 5))

	imm := ExtractBits(word, 31, 1)<<12 |
		ExtractBits(word, 7, 1)<<11 |
		ExtractBits(word, 25, 6)<<5 |
		ExtractBits(word, 8, 4)<<1
	inst.Imm = SignExtend(imm, 13)
}

// decodeU extracts fields for imm[31:12]|rd|opcode. The immediate keeps its
// shifted position; the low 12 bits are zero.
func (d *Decoder) decodeU(word uint32, inst *Instruction) {
	inst.Rd = uint8(ExtractBits(word, 7, 5))
	inst.Imm = int32(word & 0xFFFFF000)
}

// decodeJ extracts fields for imm[20|10:1|11|19:12]|rd|opcode.
func (d *Decoder) decodeJ(word uint32, inst *Instruction) {
	inst.Rd = uint8(ExtractBits(word, 7, 5))

	imm := ExtractBits(word, 31, 1)<<20 |
		ExtractBits(word, 12, 8)<<12 |
		ExtractBits(word, 20, 1)<<11 |
		ExtractBits(word, 21, 10)<<1
	inst.Imm = SignExtend(imm, 21)
}

// decodeSystem extracts fields for funct12|rs1|funct3|rd|opcode.
func (d *Decoder) decodeSystem(word uint32, inst *Instruction) {
	inst.Funct3 = uint8(ExtractBits(word, 12, 3))
	inst.Funct7 = uint8(ExtractBits(word, 25, 7))
}

// resolveMnemonic looks the instruction up by (opcode, funct3, funct7),
// falling back to (opcode, funct3, *) and (opcode, *, *). Only formats that
// actually carry a funct7 participate with one; this keeps shift immediates
// (which reuse funct7 bits) distinguishable while plain I-types stay
// wildcarded.
func (d *Decoder) resolveMnemonic(inst *Instruction) {
	f3 := int8(inst.Funct3)
	f7 := wildcard
	switch inst.Opcode {
	case OpcodeRType, OpcodeIType, OpcodeSystem:
		f7 = int8(ExtractBits(inst.Word, 25, 7))
	}

	keys := [3]mnemonicKey{
		{inst.Opcode, f3, f7},
		{inst.Opcode, f3, wildcard},
		{inst.Opcode, wildcard, wildcard},
	}
	for _, key := range keys {
		if name, ok := mnemonicTable[key]; ok {
			inst.Mnemonic = name
			return
		}
	}
}
