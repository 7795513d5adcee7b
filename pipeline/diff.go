package pipeline

// RegisterChange records one register whose value differs between two
// consecutive snapshots.
type RegisterChange struct {
	Index int
	Old   uint32
	New   uint32
}

// DiffRegisters lists the registers whose architectural value changed from
// prev to s, in ascending index order. x0 never appears. A nil prev
// compares against an all-zero register file, so the first snapshot of a
// run reports its non-zero registers.
func (s *Snapshot) DiffRegisters(prev *Snapshot) []RegisterChange {
	var changes []RegisterChange
	for i := 1; i < 32; i++ {
		old := uint32(0)
		if prev != nil {
			old = prev.Registers.Read(i)
		}
		if v := s.Registers.Read(i); v != old {
			changes = append(changes, RegisterChange{Index: i, Old: old, New: v})
		}
	}
	return changes
}
