package pipeline

import (
	"fmt"
	"strings"
)

// MemoryUpdate is the mode-dependent memory activity record carried by a
// Snapshot.
type MemoryUpdate interface {
	fmt.Stringer

	// Mode reports which dump mode produced this record.
	Mode() DumpMode
}

// StoreSnoop records a single data-memory write event observed during the
// captured cycle. When Occurred is false no store retired and the remaining
// fields are zero.
type StoreSnoop struct {
	Occurred bool
	Address  uint32
	Data     uint32
	Mask     WriteMask
}

// Mode returns SnoopDump.
func (s *StoreSnoop) Mode() DumpMode { return SnoopDump }

func (s *StoreSnoop) String() string {
	if !s.Occurred {
		return "Memory Write: NO"
	}
	return fmt.Sprintf(
		"Memory Write: YES\nAddress: 0x%08X\nData: 0x%08X\nByte Mask: %s",
		s.Address, s.Data, s.Mask)
}

// RangePatch records the contents of a word-aligned address window
// [Min, Max] dumped during the captured cycle. An empty window (no
// addresses touched yet) carries Min > Max and no words.
type RangePatch struct {
	Min   uint32
	Max   uint32
	Words []uint32
}

// Mode returns RangeDump.
func (r *RangePatch) Mode() DumpMode { return RangeDump }

// Empty reports whether the window holds no addresses.
func (r *RangePatch) Empty() bool {
	return len(r.Words) == 0 || r.Max < r.Min
}

// Contents pairs each dumped word with its address.
func (r *RangePatch) Contents() []AddressedWord {
	if r.Empty() {
		return nil
	}
	out := make([]AddressedWord, len(r.Words))
	for i, w := range r.Words {
		out[i] = AddressedWord{Address: r.Min + uint32(i)*4, Data: w}
	}
	return out
}

func (r *RangePatch) String() string {
	if r.Empty() {
		return "Memory Range: empty"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Memory Range: 0x%08X..0x%08X", r.Min, r.Max)
	for _, aw := range r.Contents() {
		fmt.Fprintf(&b, "\n[0x%08X] = 0x%08X", aw.Address, aw.Data)
	}
	return b.String()
}

// AddressedWord is one word of data memory together with its byte address.
type AddressedWord struct {
	Address uint32
	Data    uint32
}
