package pipeline_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/stefaema/risc-v-risky-edition/pipeline"
)

var _ = Describe("RegisterFile", func() {
	It("should read x0 as zero even when the wire value is not", func() {
		var rf pipeline.RegisterFile
		rf[0] = 0xDEADBEEF
		rf[5] = 0x15

		Expect(rf.Read(0)).To(Equal(uint32(0)))
		Expect(rf.Raw(0)).To(Equal(uint32(0xDEADBEEF)))
		Expect(rf.Read(5)).To(Equal(uint32(0x15)))
	})
})

var _ = Describe("ForwardSource", func() {
	It("should accept the four selector values", func() {
		for v := uint32(0); v <= 3; v++ {
			src, err := pipeline.NewForwardSource(v)
			Expect(err).ToNot(HaveOccurred())
			Expect(uint8(src)).To(Equal(uint8(v)))
		}
	})

	It("should reject out-of-range selectors", func() {
		_, err := pipeline.NewForwardSource(4)
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("WriteMask", func() {
	DescribeTable("legal strobes",
		func(v uint32, want pipeline.WriteMask) {
			m, err := pipeline.NewWriteMask(v)
			Expect(err).ToNot(HaveOccurred())
			Expect(m).To(Equal(want))
		},
		Entry("none", uint32(0x0), pipeline.MaskNone),
		Entry("byte 0", uint32(0x1), pipeline.MaskByte0),
		Entry("byte 3", uint32(0x8), pipeline.MaskByte3),
		Entry("lower half", uint32(0x3), pipeline.MaskHalfLower),
		Entry("upper half", uint32(0xC), pipeline.MaskHalfUpper),
		Entry("word", uint32(0xF), pipeline.MaskWord),
	)

	DescribeTable("illegal strobes",
		func(v uint32) {
			_, err := pipeline.NewWriteMask(v)
			Expect(err).To(HaveOccurred())
		},
		Entry("bytes 0 and 2", uint32(0x5)),
		Entry("three bytes", uint32(0x7)),
		Entry("wider than 4 bits", uint32(0x10)),
		Entry("wider value aliasing none", uint32(0x100)),
	)
})

var _ = Describe("RangePatch", func() {
	It("should pair each word with its address", func() {
		p := &pipeline.RangePatch{
			Min:   0x10,
			Max:   0x18,
			Words: []uint32{0xAAAAAAAA, 0xBBBBBBBB, 0xCCCCCCCC},
		}

		contents := p.Contents()
		Expect(contents).To(HaveLen(3))
		Expect(contents[0]).To(Equal(
			pipeline.AddressedWord{Address: 0x10, Data: 0xAAAAAAAA}))
		Expect(contents[2]).To(Equal(
			pipeline.AddressedWord{Address: 0x18, Data: 0xCCCCCCCC}))
	})

	It("should report an inverted window as empty", func() {
		p := &pipeline.RangePatch{Min: 0xFFFFFFFF, Max: 0}
		Expect(p.Empty()).To(BeTrue())
		Expect(p.Contents()).To(BeEmpty())
	})
})

var _ = Describe("MemoryMirror", func() {
	var mirror *pipeline.MemoryMirror

	BeforeEach(func() {
		mirror = pipeline.NewMemoryMirror()
	})

	It("should apply a full word store", func() {
		mirror.Apply(&pipeline.StoreSnoop{
			Occurred: true,
			Address:  0x20,
			Data:     0x11223344,
			Mask:     pipeline.MaskWord,
		})

		w, ok := mirror.Read(0x20)
		Expect(ok).To(BeTrue())
		Expect(w).To(Equal(uint32(0x11223344)))
	})

	It("should merge a byte store into an existing word", func() {
		mirror.Apply(&pipeline.StoreSnoop{
			Occurred: true,
			Address:  0x20,
			Data:     0x11223344,
			Mask:     pipeline.MaskWord,
		})
		mirror.Apply(&pipeline.StoreSnoop{
			Occurred: true,
			Address:  0x20,
			Data:     0x000000FF,
			Mask:     pipeline.MaskByte0,
		})

		w, _ := mirror.Read(0x20)
		Expect(w).To(Equal(uint32(0x112233FF)))
	})

	It("should merge an upper halfword store", func() {
		mirror.Apply(&pipeline.StoreSnoop{
			Occurred: true,
			Address:  0x40,
			Data:     0xABCD0000,
			Mask:     pipeline.MaskHalfUpper,
		})

		w, _ := mirror.Read(0x40)
		Expect(w).To(Equal(uint32(0xABCD0000)))
	})

	It("should ignore a snoop with no store", func() {
		mirror.Apply(&pipeline.StoreSnoop{Occurred: false})
		Expect(mirror.Len()).To(Equal(0))
	})

	It("should replace the window on a range patch", func() {
		mirror.Apply(&pipeline.StoreSnoop{
			Occurred: true, Address: 0x10, Data: 1, Mask: pipeline.MaskWord,
		})
		mirror.Apply(&pipeline.RangePatch{
			Min:   0x10,
			Max:   0x14,
			Words: []uint32{0x55, 0x66},
		})

		w, _ := mirror.Read(0x10)
		Expect(w).To(Equal(uint32(0x55)))
		w, _ = mirror.Read(0x14)
		Expect(w).To(Equal(uint32(0x66)))
		Expect(mirror.Len()).To(Equal(2))
	})

	It("should align unaligned store addresses to their word", func() {
		mirror.Apply(&pipeline.StoreSnoop{
			Occurred: true,
			Address:  0x22,
			Data:     0x00FF0000,
			Mask:     pipeline.MaskByte2,
		})

		w, ok := mirror.Read(0x20)
		Expect(ok).To(BeTrue())
		Expect(w).To(Equal(uint32(0x00FF0000)))
	})
})

var _ = Describe("DiffRegisters", func() {
	It("should list only changed registers, never x0", func() {
		prev := &pipeline.Snapshot{}
		prev.Registers[5] = 10
		prev.Registers[6] = 20

		cur := &pipeline.Snapshot{}
		cur.Registers[0] = 0xFFFFFFFF // wire noise on x0
		cur.Registers[5] = 10
		cur.Registers[6] = 21
		cur.Registers[7] = 1

		changes := cur.DiffRegisters(prev)
		Expect(changes).To(Equal([]pipeline.RegisterChange{
			{Index: 6, Old: 20, New: 21},
			{Index: 7, Old: 0, New: 1},
		}))
	})

	It("should diff the first snapshot against all zeroes", func() {
		cur := &pipeline.Snapshot{}
		cur.Registers[1] = 0x80

		Expect(cur.DiffRegisters(nil)).To(Equal([]pipeline.RegisterChange{
			{Index: 1, Old: 0, New: 0x80},
		}))
	})
})
