package pipeline_test

import (
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/stefaema/risc-v-risky-edition/pipeline"
)

// expectLines compares multi-line renderings and fails with a unified diff,
// which reads far better than Gomega's single-string mismatch for these.
func expectLines(actual, expected string) {
	GinkgoHelper()
	if actual == expected {
		return
	}
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(expected),
		B:        difflib.SplitLines(actual),
		FromFile: "expected",
		ToFile:   "actual",
		Context:  2,
	})
	Expect(err).ToNot(HaveOccurred())
	Fail("rendering mismatch:\n" + diff)
}

var _ = Describe("Rendering", func() {
	It("should render the hazard unit report", func() {
		h := pipeline.HazardStatus{
			PCWriteEnable:   true,
			IFIDWriteEnable: true,
			RS1Source:       pipeline.ForwardFromEX,
			RS2Source:       pipeline.ForwardFromRegFile,
		}

		expectLines(h.String(), strings.Join([]string{
			"PC Write Enable: YES",
			"IF/ID Write Enable: YES",
			"Control Hazard: NO",
			"Load Use Hazard: NO",
			"RS1 Data Source: Rd Data @ EX out",
			"RS2 Data Source: Reg File @ ID out",
			"Program Ended: NO",
		}, "\n"))
	})

	It("should render a store snoop", func() {
		s := &pipeline.StoreSnoop{
			Occurred: true,
			Address:  0x00000024,
			Data:     0x000000AB,
			Mask:     pipeline.MaskByte0,
		}

		expectLines(s.String(), strings.Join([]string{
			"Memory Write: YES",
			"Address: 0x00000024",
			"Data: 0x000000AB",
			"Byte Mask: Byte 0 Write (lsb)",
		}, "\n"))
	})

	It("should render an idle snoop as a single line", func() {
		s := &pipeline.StoreSnoop{}
		Expect(s.String()).To(Equal("Memory Write: NO"))
	})

	It("should include every pipeline section in the full report", func() {
		snap := &pipeline.Snapshot{Mode: pipeline.SnoopDump}
		snap.Memory = &pipeline.StoreSnoop{}

		out := snap.Render()
		Expect(out).To(ContainSubstring("--- Register File ---"))
		Expect(out).To(ContainSubstring("--- Hazard Unit ---"))
		Expect(out).To(ContainSubstring("--- IF/ID ---"))
		Expect(out).To(ContainSubstring("--- ID/EX ---"))
		Expect(out).To(ContainSubstring("--- EX/MEM ---"))
		Expect(out).To(ContainSubstring("--- MEM/WB ---"))
		Expect(out).To(ContainSubstring("Memory Write: NO"))
	})
})
