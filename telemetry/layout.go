package telemetry

import (
	"github.com/stefaema/risc-v-risky-edition/insts"
	"github.com/stefaema/risc-v-risky-edition/pipeline"
)

// Word counts of the fixed pipeline block, in wire order.
const (
	regFileWords = 32
	hazardWords  = 1
	ifidWords    = 3
	idexWords    = 6
	exmemWords   = 4
	memwbWords   = 4

	pipelineWords = regFileWords + hazardWords + ifidWords +
		idexWords + exmemWords + memwbWords
)

// Layout describes one revision of the dump wire format: the bit positions
// inside the hazard and latch control words, and the framing of the
// variable memory trailer. The fixed block (sync, mode, register file and
// the four latches, 50 words after the mode byte) is common to all
// revisions.
type Layout interface {
	// Name identifies the revision in logs and errors.
	Name() string

	hazard(word uint32) pipeline.HazardStatus
	idex(words []uint32) pipeline.IDEXLatch
	exmem(words []uint32) pipeline.EXMEMLatch
	memwb(words []uint32) pipeline.MEMWBLatch

	// padWords is the number of throwaway words between the fixed block
	// and the memory trailer.
	padWords() int

	// snoopBodyWords sizes the snoop trailer after its flag word.
	snoopBodyWords(flag uint32) int
	snoop(flag uint32, body []uint32) (*pipeline.StoreSnoop, error)

	// rangeEmpty recognizes the nothing-dumped sentinel in the min/max
	// header. rangeBodyWords sizes the payload that follows the header,
	// including any placeholder an empty window still transmits.
	rangeEmpty(min, max uint32) bool
	rangeBodyWords(min, max uint32) int
}

// CurrentLayout is the wire format the current bitstream speaks.
var CurrentLayout Layout = Rev2{}

// Rev2 is the current dump format: a pad word precedes the memory trailer,
// forwarding selectors are 2 bits wide and the snoop flag word doubles as
// the store byte strobe. An empty or inverted range window transmits no
// placeholder.
type Rev2 struct{}

// Name returns "rev2".
func (Rev2) Name() string { return "rev2" }

func (Rev2) padWords() int { return 1 }

func (Rev2) hazard(word uint32) pipeline.HazardStatus {
	rs1, _ := pipeline.NewForwardSource(insts.ExtractBits(word, 4, 2))
	rs2, _ := pipeline.NewForwardSource(insts.ExtractBits(word, 6, 2))
	return pipeline.HazardStatus{
		PCWriteEnable:   insts.ExtractBits(word, 11, 1) != 0,
		IFIDWriteEnable: insts.ExtractBits(word, 10, 1) != 0,
		ControlHazard:   insts.ExtractBits(word, 9, 1) != 0,
		LoadUseHazard:   insts.ExtractBits(word, 8, 1) != 0,
		ProgramEnded:    insts.ExtractBits(word, 0, 1) != 0,
		RS1Source:       rs1,
		RS2Source:       rs2,
	}
}

func (Rev2) idex(words []uint32) pipeline.IDEXLatch {
	ctrl, meta := words[0], words[5]
	return pipeline.IDEXLatch{
		IsHalt:    insts.ExtractBits(ctrl, 0, 1) != 0,
		IsJALR:    insts.ExtractBits(ctrl, 1, 1) != 0,
		IsJAL:     insts.ExtractBits(ctrl, 2, 1) != 0,
		IsBranch:  insts.ExtractBits(ctrl, 3, 1) != 0,
		RdSource:  pipeline.ResultSource(insts.ExtractBits(ctrl, 4, 1)),
		ALUIntent: pipeline.ALUIntent(insts.ExtractBits(ctrl, 5, 2)),
		ALUSource: pipeline.ALUSource(insts.ExtractBits(ctrl, 7, 1)),
		MemRead:   insts.ExtractBits(ctrl, 8, 1) != 0,
		MemWrite:  insts.ExtractBits(ctrl, 9, 1) != 0,
		RegWrite:  insts.ExtractBits(ctrl, 10, 1) != 0,

		PC:      words[1],
		RS1Data: words[2],
		RS2Data: words[3],
		Imm:     words[4],

		Funct7: uint8(insts.ExtractBits(meta, 0, 7)),
		Funct3: uint8(insts.ExtractBits(meta, 7, 3)),
		Rd:     uint8(insts.ExtractBits(meta, 10, 5)),
		RS2:    uint8(insts.ExtractBits(meta, 15, 5)),
		RS1:    uint8(insts.ExtractBits(meta, 20, 5)),
	}
}

func (Rev2) exmem(words []uint32) pipeline.EXMEMLatch {
	cm := words[0]
	return pipeline.EXMEMLatch{
		Funct3:   uint8(insts.ExtractBits(cm, 0, 3)),
		Rd:       uint8(insts.ExtractBits(cm, 3, 5)),
		IsHalt:   insts.ExtractBits(cm, 8, 1) != 0,
		RdSource: pipeline.ResultSource(insts.ExtractBits(cm, 9, 1)),
		MemRead:  insts.ExtractBits(cm, 10, 1) != 0,
		MemWrite: insts.ExtractBits(cm, 11, 1) != 0,
		RegWrite: insts.ExtractBits(cm, 12, 1) != 0,

		PC:        words[1],
		StoreData: words[2],
		ALUResult: words[3],
	}
}

func (Rev2) memwb(words []uint32) pipeline.MEMWBLatch {
	cm := words[0]
	return pipeline.MEMWBLatch{
		Rd:       uint8(insts.ExtractBits(cm, 0, 5)),
		IsHalt:   insts.ExtractBits(cm, 5, 1) != 0,
		RdSource: pipeline.ResultSource(insts.ExtractBits(cm, 6, 1)),
		RegWrite: insts.ExtractBits(cm, 7, 1) != 0,

		PC:            words[1],
		ExecutionData: words[2],
		MemoryData:    words[3],
	}
}

func (Rev2) snoopBodyWords(flag uint32) int {
	if flag == 0 {
		return 0
	}
	return 2
}

func (l Rev2) snoop(flag uint32, body []uint32) (*pipeline.StoreSnoop, error) {
	if flag == 0 {
		return &pipeline.StoreSnoop{}, nil
	}
	mask, err := pipeline.NewWriteMask(flag)
	if err != nil {
		return nil, &ProtocolViolationError{
			Layout: l.Name(), Field: "store byte strobe", Value: flag, Err: err,
		}
	}
	return &pipeline.StoreSnoop{
		Occurred: true,
		Address:  body[0],
		Data:     body[1],
		Mask:     mask,
	}, nil
}

func (Rev2) rangeEmpty(min, max uint32) bool {
	return min == 0xFFFFFFFF || max < min
}

func (l Rev2) rangeBodyWords(min, max uint32) int {
	if l.rangeEmpty(min, max) {
		return 0
	}
	if max == min {
		return 1
	}
	return int((max-min-1)/4) + 2
}

// Rev1 is the legacy dump format spoken by older bitstreams: no pad word,
// 1-bit forwarding flags, a 2-bit result selector with a separate PC+4
// link encoding, ALU result ahead of the program counter in the EX/MEM
// record, and an empty range that still transmits one placeholder word.
// Snoop stores carry no byte strobe and always patch a full word.
type Rev1 struct{}

// Name returns "rev1".
func (Rev1) Name() string { return "rev1" }

func (Rev1) padWords() int { return 0 }

func (Rev1) hazard(word uint32) pipeline.HazardStatus {
	h := pipeline.HazardStatus{
		PCWriteEnable:   insts.ExtractBits(word, 9, 1) != 0,
		IFIDWriteEnable: insts.ExtractBits(word, 8, 1) != 0,
		ControlHazard:   insts.ExtractBits(word, 7, 1) != 0,
		LoadUseHazard:   insts.ExtractBits(word, 6, 1) != 0,
		ProgramEnded:    insts.ExtractBits(word, 0, 1) != 0,
	}
	// Legacy forwarding flags are 1 bit: either the register file or EX.
	if insts.ExtractBits(word, 4, 1) != 0 {
		h.RS1Source = pipeline.ForwardFromEX
	}
	if insts.ExtractBits(word, 5, 1) != 0 {
		h.RS2Source = pipeline.ForwardFromEX
	}
	return h
}

func (Rev1) idex(words []uint32) pipeline.IDEXLatch {
	ctrl, meta := words[0], words[5]
	return pipeline.IDEXLatch{
		IsHalt:    insts.ExtractBits(ctrl, 0, 1) != 0,
		IsJALR:    insts.ExtractBits(ctrl, 1, 1) != 0,
		IsJAL:     insts.ExtractBits(ctrl, 2, 1) != 0,
		IsBranch:  insts.ExtractBits(ctrl, 3, 1) != 0,
		RdSource:  pipeline.ResultSource(insts.ExtractBits(ctrl, 4, 2)),
		ALUIntent: pipeline.ALUIntent(insts.ExtractBits(ctrl, 6, 2)),
		ALUSource: pipeline.ALUSource(insts.ExtractBits(ctrl, 8, 1)),
		MemRead:   insts.ExtractBits(ctrl, 9, 1) != 0,
		MemWrite:  insts.ExtractBits(ctrl, 10, 1) != 0,
		RegWrite:  insts.ExtractBits(ctrl, 11, 1) != 0,

		PC:      words[1],
		RS1Data: words[2],
		RS2Data: words[3],
		Imm:     words[4],

		Funct7: uint8(insts.ExtractBits(meta, 0, 7)),
		Funct3: uint8(insts.ExtractBits(meta, 7, 3)),
		Rd:     uint8(insts.ExtractBits(meta, 10, 5)),
		RS2:    uint8(insts.ExtractBits(meta, 15, 5)),
		RS1:    uint8(insts.ExtractBits(meta, 20, 5)),
	}
}

func (Rev1) exmem(words []uint32) pipeline.EXMEMLatch {
	cm := words[0]
	return pipeline.EXMEMLatch{
		Funct3:   uint8(insts.ExtractBits(cm, 0, 3)),
		Rd:       uint8(insts.ExtractBits(cm, 3, 5)),
		IsHalt:   insts.ExtractBits(cm, 8, 1) != 0,
		RdSource: pipeline.ResultSource(insts.ExtractBits(cm, 9, 2)),
		MemRead:  insts.ExtractBits(cm, 11, 1) != 0,
		MemWrite: insts.ExtractBits(cm, 12, 1) != 0,
		RegWrite: insts.ExtractBits(cm, 13, 1) != 0,

		ALUResult: words[1],
		StoreData: words[2],
		PC:        words[3],
	}
}

func (Rev1) memwb(words []uint32) pipeline.MEMWBLatch {
	cm := words[0]
	return pipeline.MEMWBLatch{
		Rd:       uint8(insts.ExtractBits(cm, 0, 5)),
		IsHalt:   insts.ExtractBits(cm, 5, 1) != 0,
		RdSource: pipeline.ResultSource(insts.ExtractBits(cm, 6, 2)),
		RegWrite: insts.ExtractBits(cm, 8, 1) != 0,

		ExecutionData: words[1],
		MemoryData:    words[2],
		PC:            words[3],
	}
}

func (Rev1) snoopBodyWords(flag uint32) int {
	if flag == 1 {
		return 2
	}
	return 0
}

func (Rev1) snoop(flag uint32, body []uint32) (*pipeline.StoreSnoop, error) {
	if flag != 1 {
		return &pipeline.StoreSnoop{}, nil
	}
	return &pipeline.StoreSnoop{
		Occurred: true,
		Address:  body[0],
		Data:     body[1],
		Mask:     pipeline.MaskWord,
	}, nil
}

func (Rev1) rangeEmpty(min, max uint32) bool {
	return min == 0xFFFFFFFF || max < min
}

func (l Rev1) rangeBodyWords(min, max uint32) int {
	if l.rangeEmpty(min, max) {
		return 1
	}
	return int((max-min)/4) + 1
}
