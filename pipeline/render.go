package pipeline

import (
	"fmt"
	"strings"
)

// Render formats the whole snapshot as the multi-section report shown in
// the debugger console.
func (s *Snapshot) Render() string {
	var b strings.Builder

	fmt.Fprintf(&b, "=== Pipeline Snapshot (%s mode) ===\n", s.Mode)

	b.WriteString("\n--- Register File ---\n")
	for i := 0; i < 32; i++ {
		fmt.Fprintf(&b, "x%-2d = 0x%08X", i, s.Registers.Read(i))
		if i%4 == 3 {
			b.WriteByte('\n')
		} else {
			b.WriteString("   ")
		}
	}

	b.WriteString("\n--- Hazard Unit ---\n")
	b.WriteString(s.Hazard.String())

	b.WriteString("\n\n--- IF/ID ---\n")
	b.WriteString(s.IFID.String())

	b.WriteString("\n\n--- ID/EX ---\n")
	b.WriteString(s.IDEX.String())

	b.WriteString("\n\n--- EX/MEM ---\n")
	b.WriteString(s.EXMEM.String())

	b.WriteString("\n\n--- MEM/WB ---\n")
	b.WriteString(s.MEMWB.String())

	if s.Memory != nil {
		b.WriteString("\n\n--- Memory ---\n")
		b.WriteString(s.Memory.String())
	}

	b.WriteByte('\n')
	return b.String()
}

func (s *Snapshot) String() string { return s.Render() }
