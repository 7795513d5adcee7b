package pipeline

import (
	"fmt"
	"sort"
	"strings"
)

// MemoryMirror reconstructs a host-side view of the core's data memory by
// replaying the MemoryUpdate records of successive snapshots. Storage is
// sparse: only words that have been touched exist.
type MemoryMirror struct {
	words map[uint32]uint32
}

// NewMemoryMirror returns an empty mirror.
func NewMemoryMirror() *MemoryMirror {
	return &MemoryMirror{words: make(map[uint32]uint32)}
}

// Apply folds one snapshot's memory record into the mirror. Snoop records
// merge the store byte-by-byte under its write mask; range records replace
// the dumped window wholesale. A nil update is a no-op.
func (m *MemoryMirror) Apply(update MemoryUpdate) {
	switch u := update.(type) {
	case *StoreSnoop:
		if u.Occurred {
			m.store(u.Address, u.Data, u.Mask)
		}
	case *RangePatch:
		for _, aw := range u.Contents() {
			m.words[aw.Address&^3] = aw.Data
		}
	}
}

// store merges data into the word holding addr, writing only the bytes the
// mask enables. The mask addresses bytes of the aligned word, bit 0 being
// the least significant byte.
func (m *MemoryMirror) store(addr, data uint32, mask WriteMask) {
	aligned := addr &^ 3
	word := m.words[aligned]
	for b := uint(0); b < 4; b++ {
		if mask&(1<<b) != 0 {
			shift := 8 * b
			word = word&^(0xFF<<shift) | data&(0xFF<<shift)
		}
	}
	m.words[aligned] = word
}

// Read returns the word at the aligned address addr, and whether the mirror
// has seen it.
func (m *MemoryMirror) Read(addr uint32) (uint32, bool) {
	w, ok := m.words[addr&^3]
	return w, ok
}

// Len reports how many distinct words the mirror tracks.
func (m *MemoryMirror) Len() int { return len(m.words) }

func (m *MemoryMirror) String() string {
	if len(m.words) == 0 {
		return "Data Memory: empty"
	}
	addrs := make([]uint32, 0, len(m.words))
	for a := range m.words {
		addrs = append(addrs, a)
	}
	sort.Slice(addrs, func(i, j int) bool { return addrs[i] < addrs[j] })

	var b strings.Builder
	b.WriteString("Data Memory:")
	for _, a := range addrs {
		fmt.Fprintf(&b, "\n[0x%08X] = 0x%08X", a, m.words[a])
	}
	return b.String()
}
