// Package pipeline models a point-in-time snapshot of the 5-stage RV32I
// core: register file, hazard unit outputs, the four inter-stage latches
// and the memory activity observed since the previous capture.
//
// Snapshots are produced by the telemetry decoder and never mutated after
// construction. Two snapshots may be diffed (register file) but never
// merged.
package pipeline

import "fmt"

// DumpMode identifies how the device captured memory activity for a
// snapshot.
type DumpMode uint8

// Capture modes.
const (
	// SnoopDump reports the single store since the last capture (step mode).
	SnoopDump DumpMode = iota
	// RangeDump reports the full contents of the touched address range
	// (continuous mode).
	RangeDump
)

func (m DumpMode) String() string {
	switch m {
	case SnoopDump:
		return "snoop: single store diff since the last dump"
	case RangeDump:
		return "range: contents of the tracked address window"
	}
	return "UNKNOWN"
}

// ForwardSource selects where an operand entering EX is taken from.
type ForwardSource uint8

// Forwarding sources, as driven by the hazard unit.
const (
	ForwardFromRegFile ForwardSource = iota // Register file at ID
	ForwardFromEX                           // Rd data at EX out
	ForwardFromMEM                          // Rd data at MEM out
	ForwardFromWB                           // Rd data at WB out
)

func (s ForwardSource) String() string {
	switch s {
	case ForwardFromRegFile:
		return "Reg File @ ID out"
	case ForwardFromEX:
		return "Rd Data @ EX out"
	case ForwardFromMEM:
		return "Rd Data @ MEM out"
	case ForwardFromWB:
		return "Rd Data @ WB out"
	}
	return "UNKNOWN"
}

// NewForwardSource validates a 2-bit forwarding selector.
func NewForwardSource(v uint32) (ForwardSource, error) {
	if v > uint32(ForwardFromWB) {
		return 0, fmt.Errorf("forward source %d outside [0,3]", v)
	}
	return ForwardSource(v), nil
}

// ALUSource selects the ALU's second operand.
type ALUSource uint8

// ALU operand sources.
const (
	ALUFromReg2 ALUSource = iota // Reg2 @ ID
	ALUFromImm                   // Imm @ ID
)

func (s ALUSource) String() string {
	switch s {
	case ALUFromReg2:
		return "Reg2 @ ID"
	case ALUFromImm:
		return "Imm @ ID"
	}
	return "UNKNOWN"
}

// ALUIntent is the decode-stage summary of what the ALU must do.
type ALUIntent uint8

// ALU intents.
const (
	IntentAdd ALUIntent = iota
	IntentSub
	IntentFromRegType // Operation resolved from funct fields of an R-type
	IntentFromImmType // Operation resolved from funct fields of an I-type
)

func (i ALUIntent) String() string {
	switch i {
	case IntentAdd:
		return "Add Needed"
	case IntentSub:
		return "Sub Needed"
	case IntentFromRegType:
		return "Depends on Reg Type"
	case IntentFromImmType:
		return "Depends on Imm Type"
	}
	return "UNKNOWN"
}

// ResultSource selects what a stage hands to writeback.
type ResultSource uint8

// Writeback result sources. ResultFromLink is the legacy encoding for the
// PC+4 value a jump links into rd.
const (
	ResultFromExecution ResultSource = iota
	ResultFromMemory
	ResultFromLink
)

func (s ResultSource) String() string {
	switch s {
	case ResultFromExecution:
		return "RD has Execution Data"
	case ResultFromMemory:
		return "RD has Memory Data"
	case ResultFromLink:
		return "RD has Link Data (PC+4)"
	}
	return "UNKNOWN"
}

// WriteMask is the 4-bit byte strobe of a data-memory store.
type WriteMask uint8

// Legal strobe patterns. Anything else on the wire is a protocol violation.
const (
	MaskNone      WriteMask = 0x0 // No activity
	MaskByte0     WriteMask = 0x1
	MaskByte1     WriteMask = 0x2
	MaskByte2     WriteMask = 0x4
	MaskByte3     WriteMask = 0x8
	MaskHalfLower WriteMask = 0x3 // Bytes 0 and 1
	MaskHalfUpper WriteMask = 0xC // Bytes 2 and 3
	MaskWord      WriteMask = 0xF
)

func (m WriteMask) String() string {
	switch m {
	case MaskNone:
		return "No Write"
	case MaskByte0:
		return "Byte 0 Write (lsb)"
	case MaskByte1:
		return "Byte 1 Write"
	case MaskByte2:
		return "Byte 2 Write"
	case MaskByte3:
		return "Byte 3 Write (msb)"
	case MaskHalfLower:
		return "Lower Halfword Write"
	case MaskHalfUpper:
		return "Upper Halfword Write"
	case MaskWord:
		return "Word Write"
	}
	return fmt.Sprintf("INVALID MASK (%#b)", uint8(m))
}

// NewWriteMask validates a store byte strobe.
func NewWriteMask(v uint32) (WriteMask, error) {
	if v > 0xF {
		return 0, fmt.Errorf("write mask %#x not a legal byte strobe", v)
	}
	switch WriteMask(v) {
	case MaskNone, MaskByte0, MaskByte1, MaskByte2, MaskByte3,
		MaskHalfLower, MaskHalfUpper, MaskWord:
		return WriteMask(v), nil
	}
	return 0, fmt.Errorf("write mask %#x not a legal byte strobe", v)
}
