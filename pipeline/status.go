package pipeline

import (
	"fmt"

	"github.com/stefaema/risc-v-risky-edition/insts"
)

// RegisterFile holds the 32 architectural registers as captured on the wire.
// The wire value of x0 may be non-zero; Read hides that, Raw exposes it.
type RegisterFile [32]uint32

// Read returns the architectural value of register i: x0 always reads 0.
func (rf *RegisterFile) Read(i int) uint32 {
	if i == 0 {
		return 0
	}
	return rf[i]
}

// Raw returns the value exactly as the hardware dumped it.
func (rf *RegisterFile) Raw(i int) uint32 {
	return rf[i]
}

// HazardStatus is the hazard/forwarding unit output captured with the
// snapshot.
type HazardStatus struct {
	PCWriteEnable   bool // PC register may latch (false while stalled)
	IFIDWriteEnable bool // IF/ID latch may advance
	ControlHazard   bool // Branch/jump flush in flight
	LoadUseHazard   bool // Load-use stall in flight
	ProgramEnded    bool // ECALL reached writeback

	RS1Source ForwardSource
	RS2Source ForwardSource
}

func (h *HazardStatus) String() string {
	return fmt.Sprintf(
		"PC Write Enable: %s\n"+
			"IF/ID Write Enable: %s\n"+
			"Control Hazard: %s\n"+
			"Load Use Hazard: %s\n"+
			"RS1 Data Source: %s\n"+
			"RS2 Data Source: %s\n"+
			"Program Ended: %s",
		yesNo(h.PCWriteEnable), yesNo(h.IFIDWriteEnable),
		yesNo(h.ControlHazard), yesNo(h.LoadUseHazard),
		h.RS1Source, h.RS2Source, yesNo(h.ProgramEnded))
}

// IFIDLatch is the fetch-to-decode pipeline register.
type IFIDLatch struct {
	PC          uint32
	Instruction *insts.Instruction // Disassembled fetch word
	PCPlus4     uint32
}

func (l *IFIDLatch) String() string {
	inst := "(none)"
	if l.Instruction != nil {
		inst = l.Instruction.String()
	}
	return fmt.Sprintf(
		"PC @ IF: %s\nInstruction @ IF: %s\nIncremented PC @ IF: %s",
		pcString(l.PC), inst, pcString(l.PCPlus4))
}

// IDEXLatch is the decode-to-execute pipeline register.
type IDEXLatch struct {
	// Control
	RegWrite  bool
	MemWrite  bool
	MemRead   bool
	ALUSource ALUSource
	ALUIntent ALUIntent
	RdSource  ResultSource
	IsBranch  bool
	IsJAL     bool
	IsJALR    bool
	IsHalt    bool

	// Data
	PC      uint32
	RS1Data uint32
	RS2Data uint32
	Imm     uint32

	// Metadata
	RS1    uint8
	RS2    uint8
	Rd     uint8
	Funct3 uint8
	Funct7 uint8
}

func (l *IDEXLatch) String() string {
	return fmt.Sprintf(
		"PC @ ID: %s\n"+
			"RS1 Data @ ID: 0x%08X\n"+
			"RS2 Data @ ID: 0x%08X\n"+
			"IMM @ ID: 0x%08X\n"+
			"RS1 Addr @ ID: x%d\n"+
			"RS2 Addr @ ID: x%d\n"+
			"RD Addr @ ID: x%d\n"+
			"Funct3 @ ID: 0b%03b\n"+
			"Funct7 @ ID: 0b%07b\n"+
			"is_halt @ ID: %s\n"+
			"is_jal @ ID: %s\n"+
			"is_jalr @ ID: %s\n"+
			"is_branch @ ID: %s\n"+
			"RD Source @ ID: %s\n"+
			"ALU Intent @ ID: %s\n"+
			"ALU Src Optn @ ID: %s\n"+
			"Mem Read @ ID: %s\n"+
			"Mem Write @ ID: %s\n"+
			"Reg Write @ ID: %s",
		pcString(l.PC), l.RS1Data, l.RS2Data, l.Imm,
		l.RS1, l.RS2, l.Rd, l.Funct3, l.Funct7,
		yesNo(l.IsHalt), yesNo(l.IsJAL), yesNo(l.IsJALR), yesNo(l.IsBranch),
		l.RdSource, l.ALUIntent, l.ALUSource,
		yesNo(l.MemRead), yesNo(l.MemWrite), yesNo(l.RegWrite))
}

// EXMEMLatch is the execute-to-memory pipeline register.
type EXMEMLatch struct {
	// Control
	RegWrite bool
	MemWrite bool
	MemRead  bool
	RdSource ResultSource
	IsHalt   bool

	// Data
	ALUResult uint32
	StoreData uint32
	PC        uint32

	// Metadata
	Rd     uint8
	Funct3 uint8
}

func (l *EXMEMLatch) String() string {
	return fmt.Sprintf(
		"PC @ EX: %s\n"+
			"ALU Result @ EX: 0x%08X\n"+
			"Store Data @ EX: 0x%08X\n"+
			"RD Addr @ EX: x%d\n"+
			"Funct3 @ EX: 0b%03b\n"+
			"is_halt @ EX: %s\n"+
			"RD Source @ EX: %s\n"+
			"Mem Read @ EX: %s\n"+
			"Mem Write @ EX: %s\n"+
			"Reg Write @ EX: %s",
		pcString(l.PC), l.ALUResult, l.StoreData, l.Rd, l.Funct3,
		yesNo(l.IsHalt), l.RdSource,
		yesNo(l.MemRead), yesNo(l.MemWrite), yesNo(l.RegWrite))
}

// MEMWBLatch is the memory-to-writeback pipeline register.
type MEMWBLatch struct {
	// Control
	RegWrite bool
	RdSource ResultSource
	IsHalt   bool

	// Data
	ExecutionData uint32
	MemoryData    uint32
	PC            uint32

	// Metadata
	Rd uint8
}

func (l *MEMWBLatch) String() string {
	return fmt.Sprintf(
		"PC @ MEM: %s\n"+
			"Execution Data @ MEM: 0x%08X\n"+
			"Memory Data @ MEM: 0x%08X\n"+
			"RD Addr @ MEM: x%d\n"+
			"is_halt @ MEM: %s\n"+
			"RD Source @ MEM: %s\n"+
			"Reg Write @ MEM: %s",
		pcString(l.PC), l.ExecutionData, l.MemoryData, l.Rd,
		yesNo(l.IsHalt), l.RdSource, yesNo(l.RegWrite))
}

// Snapshot is one complete pipeline capture, constructed atomically from a
// single telemetry packet and immutable afterwards.
type Snapshot struct {
	Mode      DumpMode
	Registers RegisterFile
	Hazard    HazardStatus
	IFID      IFIDLatch
	IDEX      IDEXLatch
	EXMEM     EXMEMLatch
	MEMWB     MEMWBLatch

	// Memory is the mode-dependent memory activity record: a *StoreSnoop
	// in SnoopDump captures, a *RangePatch in RangeDump captures.
	Memory MemoryUpdate
}

func yesNo(b bool) string {
	if b {
		return "YES"
	}
	return "NO"
}

// pcString renders a program counter with its instruction ordinal.
func pcString(pc uint32) string {
	return fmt.Sprintf("Inst. #%d (0x%08X)", pc/4, pc)
}
