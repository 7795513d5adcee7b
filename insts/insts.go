// Package insts provides RV32I instruction definitions, decoding and encoding.
//
// This package implements the bit-level codec between 32-bit RISC-V machine
// words and structured instruction representations. It covers the integer
// subset used by the target core:
//   - R-type: ADD, SUB, SLL, SLT, SLTU, XOR, SRL, SRA, OR, AND
//   - I-type: ADDI, SLTI, SLTIU, XORI, ORI, ANDI, SLLI, SRLI, SRAI,
//     LB, LH, LW, LBU, LHU, JALR
//   - S-type: SB, SH, SW
//   - B-type: BEQ, BNE
//   - U-type: LUI
//   - J-type: JAL
//   - System: ECALL
//
// Usage:
//
//	decoder := insts.NewDecoder()
//	inst := decoder.Decode(0x00F00293) // addi x5, x0, 15
//	fmt.Printf("%s rd=%d imm=%d\n", inst.Mnemonic, inst.Rd, inst.Imm)
package insts

// Format represents an instruction encoding format.
type Format uint8

// Instruction formats.
const (
	FormatUnknown Format = iota
	FormatR              // Register-register arithmetic
	FormatI              // Immediate arithmetic
	FormatIShift         // Immediate shifts (funct7 + 5-bit shamt)
	FormatILoad          // Loads and JALR (imm(rs1) operand syntax)
	FormatS              // Stores
	FormatB              // Conditional branches
	FormatU              // Upper immediate
	FormatJ              // Jump and link
	FormatSystem         // ECALL
)

// RV32I base opcodes (bits [6:0]).
const (
	OpcodeRType  uint8 = 0b0110011 // Arithmetic register-register
	OpcodeIType  uint8 = 0b0010011 // Arithmetic immediate
	OpcodeLoad   uint8 = 0b0000011 // Loads
	OpcodeStore  uint8 = 0b0100011 // Stores
	OpcodeBranch uint8 = 0b1100011 // Conditional branches
	OpcodeJALR   uint8 = 0b1100111 // Jump and link register
	OpcodeJAL    uint8 = 0b1101111 // Jump and link
	OpcodeLUI    uint8 = 0b0110111 // Load upper immediate
	OpcodeSystem uint8 = 0b1110011 // Environment calls
)

// WordEcall is the machine encoding of ECALL, used by the target core as the
// program-halt marker.
const WordEcall uint32 = 0x00000073

// Instruction represents a decoded RV32I instruction.
//
// Imm is always the sign-extended semantic immediate, regardless of the
// source field width (12, 13, 20 or 21 bits). For U-type it carries the
// already-shifted upper value with the low 12 bits zero.
type Instruction struct {
	Word     uint32 // Raw 32-bit machine word
	Opcode   uint8  // Bits [6:0]
	Format   Format // Encoding format
	Mnemonic string // Resolved name, "" when unrecognized

	Rd  uint8 // Destination register
	Rs1 uint8 // First source register
	Rs2 uint8 // Second source register

	Funct3 uint8 // Bits [14:12]
	Funct7 uint8 // Bits [31:25]

	Imm int32 // Sign-extended immediate
}

// Unknown reports whether the word did not match any supported opcode/funct
// combination.
func (i *Instruction) Unknown() bool {
	return i.Mnemonic == ""
}

// Shamt returns the 5-bit unsigned shift amount for I-type shifts.
func (i *Instruction) Shamt() uint8 {
	return uint8((i.Word >> 20) & 0x1F)
}

// mnemonicKey identifies an instruction by opcode and funct fields.
// A funct value of wildcard matches any field content, modeling the fact
// that U/J-type instructions carry no funct3 and most I-types no funct7.
type mnemonicKey struct {
	opcode uint8
	funct3 int8
	funct7 int8
}

// wildcard marks a don't-care funct field in the mnemonic table.
const wildcard int8 = -1

// mnemonicTable resolves (opcode, funct3, funct7) tuples to mnemonics.
// Lookup order on decode: exact, then funct7 wildcarded, then both.
var mnemonicTable = map[mnemonicKey]string{
	// R-type
	{OpcodeRType, 0b000, 0b0000000}: "add",
	{OpcodeRType, 0b000, 0b0100000}: "sub",
	{OpcodeRType, 0b001, 0b0000000}: "sll",
	{OpcodeRType, 0b010, 0b0000000}: "slt",
	{OpcodeRType, 0b011, 0b0000000}: "sltu",
	{OpcodeRType, 0b100, 0b0000000}: "xor",
	{OpcodeRType, 0b101, 0b0000000}: "srl",
	{OpcodeRType, 0b101, 0b0100000}: "sra",
	{OpcodeRType, 0b110, 0b0000000}: "or",
	{OpcodeRType, 0b111, 0b0000000}: "and",

	// I-type arithmetic
	{OpcodeIType, 0b000, wildcard}: "addi",
	{OpcodeIType, 0b010, wildcard}: "slti",
	{OpcodeIType, 0b011, wildcard}: "sltiu",
	{OpcodeIType, 0b100, wildcard}: "xori",
	{OpcodeIType, 0b110, wildcard}: "ori",
	{OpcodeIType, 0b111, wildcard}: "andi",
	// Shifts distinguish logical vs. arithmetic through funct7
	{OpcodeIType, 0b001, 0b0000000}: "slli",
	{OpcodeIType, 0b101, 0b0000000}: "srli",
	{OpcodeIType, 0b101, 0b0100000}: "srai",

	// Loads and JALR
	{OpcodeLoad, 0b000, wildcard}: "lb",
	{OpcodeLoad, 0b001, wildcard}: "lh",
	{OpcodeLoad, 0b010, wildcard}: "lw",
	{OpcodeLoad, 0b100, wildcard}: "lbu",
	{OpcodeLoad, 0b101, wildcard}: "lhu",
	{OpcodeJALR, 0b000, wildcard}: "jalr",

	// S-type
	{OpcodeStore, 0b000, wildcard}: "sb",
	{OpcodeStore, 0b001, wildcard}: "sh",
	{OpcodeStore, 0b010, wildcard}: "sw",

	// B-type
	{OpcodeBranch, 0b000, wildcard}: "beq",
	{OpcodeBranch, 0b001, wildcard}: "bne",

	// U-type and J-type
	{OpcodeLUI, wildcard, wildcard}: "lui",
	{OpcodeJAL, wildcard, wildcard}: "jal",

	// System
	{OpcodeSystem, 0b000, 0b0000000}: "ecall",
}

// formatForOpcode maps an opcode to its encoding format.
// Unlisted opcodes decode to FormatUnknown.
var formatForOpcode = map[uint8]Format{
	OpcodeRType:  FormatR,
	OpcodeIType:  FormatI,
	OpcodeLoad:   FormatILoad,
	OpcodeStore:  FormatS,
	OpcodeBranch: FormatB,
	OpcodeJALR:   FormatILoad,
	OpcodeJAL:    FormatJ,
	OpcodeLUI:    FormatU,
	OpcodeSystem: FormatSystem,
}

// encodingSpec describes how a mnemonic is assembled.
type encodingSpec struct {
	format  Format
	opcode  uint8
	funct3  uint8
	funct7  uint8
	funct12 uint16
}

// encodingTable maps assembly mnemonics to their encoding parameters.
var encodingTable = map[string]encodingSpec{
	"add":   {format: FormatR, opcode: OpcodeRType, funct3: 0x0, funct7: 0x00},
	"sub":   {format: FormatR, opcode: OpcodeRType, funct3: 0x0, funct7: 0x20},
	"sll":   {format: FormatR, opcode: OpcodeRType, funct3: 0x1, funct7: 0x00},
	"slt":   {format: FormatR, opcode: OpcodeRType, funct3: 0x2, funct7: 0x00},
	"sltu":  {format: FormatR, opcode: OpcodeRType, funct3: 0x3, funct7: 0x00},
	"xor":   {format: FormatR, opcode: OpcodeRType, funct3: 0x4, funct7: 0x00},
	"srl":   {format: FormatR, opcode: OpcodeRType, funct3: 0x5, funct7: 0x00},
	"sra":   {format: FormatR, opcode: OpcodeRType, funct3: 0x5, funct7: 0x20},
	"or":    {format: FormatR, opcode: OpcodeRType, funct3: 0x6, funct7: 0x00},
	"and":   {format: FormatR, opcode: OpcodeRType, funct3: 0x7, funct7: 0x00},
	"addi":  {format: FormatI, opcode: OpcodeIType, funct3: 0x0},
	"slti":  {format: FormatI, opcode: OpcodeIType, funct3: 0x2},
	"sltiu": {format: FormatI, opcode: OpcodeIType, funct3: 0x3},
	"xori":  {format: FormatI, opcode: OpcodeIType, funct3: 0x4},
	"ori":   {format: FormatI, opcode: OpcodeIType, funct3: 0x6},
	"andi":  {format: FormatI, opcode: OpcodeIType, funct3: 0x7},
	"slli":  {format: FormatIShift, opcode: OpcodeIType, funct3: 0x1, funct7: 0x00},
	"srli":  {format: FormatIShift, opcode: OpcodeIType, funct3: 0x5, funct7: 0x00},
	"srai":  {format: FormatIShift, opcode: OpcodeIType, funct3: 0x5, funct7: 0x20},
	"lb":    {format: FormatILoad, opcode: OpcodeLoad, funct3: 0x0},
	"lh":    {format: FormatILoad, opcode: OpcodeLoad, funct3: 0x1},
	"lw":    {format: FormatILoad, opcode: OpcodeLoad, funct3: 0x2},
	"lbu":   {format: FormatILoad, opcode: OpcodeLoad, funct3: 0x4},
	"lhu":   {format: FormatILoad, opcode: OpcodeLoad, funct3: 0x5},
	"jalr":  {format: FormatILoad, opcode: OpcodeJALR, funct3: 0x0},
	"sb":    {format: FormatS, opcode: OpcodeStore, funct3: 0x0},
	"sh":    {format: FormatS, opcode: OpcodeStore, funct3: 0x1},
	"sw":    {format: FormatS, opcode: OpcodeStore, funct3: 0x2},
	"beq":   {format: FormatB, opcode: OpcodeBranch, funct3: 0x0},
	"bne":   {format: FormatB, opcode: OpcodeBranch, funct3: 0x1},
	"lui":   {format: FormatU, opcode: OpcodeLUI},
	"jal":   {format: FormatJ, opcode: OpcodeJAL},
	"ecall": {format: FormatSystem, opcode: OpcodeSystem, funct3: 0x0, funct12: 0x000},
}

// IsBranchOrJump reports whether the mnemonic takes a label operand that the
// assembler must resolve to a PC-relative offset.
func IsBranchOrJump(mnemonic string) bool {
	spec, ok := encodingTable[mnemonic]
	if !ok {
		return false
	}
	return spec.format == FormatB || spec.format == FormatJ
}
