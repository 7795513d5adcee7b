package asm_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/stefaema/risc-v-risky-edition/asm"
	"github.com/stefaema/risc-v-risky-edition/insts"
)

var _ = Describe("Assembler", func() {
	var a *asm.Assembler

	BeforeEach(func() {
		a = asm.New()
	})

	Describe("Assemble", func() {
		It("should encode the halt-terminated demo program", func() {
			prog, err := a.Assemble("addi x5, x0, 15\nadd x3, x1, x2\necall\n")
			Expect(err).NotTo(HaveOccurred())

			Expect(prog.Words).To(Equal([]uint32{0x00F00293, 0x002081B3, 0x00000073}))
			Expect(prog.Bytes()).To(Equal([]byte{
				0x93, 0x02, 0xF0, 0x00,
				0xB3, 0x81, 0x20, 0x00,
				0x73, 0x00, 0x00, 0x00,
			}))
		})

		It("should produce exactly 4 bytes per instruction at 4-byte addresses", func() {
			source := "addi x1, x0, 1\naddi x2, x0, 2\naddi x3, x0, 3\naddi x4, x0, 4\necall"
			prog, err := a.Assemble(source)
			Expect(err).NotTo(HaveOccurred())

			Expect(prog.Words).To(HaveLen(5))
			Expect(prog.Bytes()).To(HaveLen(20))
		})

		It("should skip comments and blank lines", func() {
			prog, err := a.Assemble("# setup\n\naddi x1, x0, 1 # trailing\n\necall")
			Expect(err).NotTo(HaveOccurred())

			Expect(prog.Words).To(HaveLen(2))
		})

		It("should accept hex immediates", func() {
			prog, err := a.Assemble("addi x5, x0, 0xF")
			Expect(err).NotTo(HaveOccurred())

			Expect(prog.Words).To(Equal([]uint32{0x00F00293}))
		})

		It("should abort on the first defective line", func() {
			_, err := a.Assemble("addi x1, x0, 1\nfrob x2, x3\necall")

			var asmErr *asm.Error
			Expect(err).To(MatchError(insts.ErrUnknownMnemonic))
			Expect(errors.As(err, &asmErr)).To(BeTrue())
			Expect(asmErr.Line).To(ContainSubstring("frob"))
		})
	})

	Describe("label resolution", func() {
		It("should resolve a forward branch relative to the branch itself", func() {
			prog, err := a.Assemble("beq x1, x2, target\nnop\ntarget:\necall")
			Expect(err).NotTo(HaveOccurred())

			// target sits 8 bytes past the beq
			Expect(prog.Words[0]).To(Equal(uint32(0x00208463)))
		})

		It("should resolve a backward branch", func() {
			prog, err := a.Assemble("target:\nnop\nbeq x1, x2, target")
			Expect(err).NotTo(HaveOccurred())

			Expect(prog.Words[1]).To(Equal(uint32(0xFE208EE3)))
		})

		It("should decode branch offsets back to their byte distance", func() {
			prog, err := a.Assemble("beq x1, x2, target\nnop\ntarget:\necall")
			Expect(err).NotTo(HaveOccurred())

			decoder := insts.NewDecoder()
			Expect(decoder.Decode(prog.Words[0]).Imm).To(Equal(int32(8)))
		})

		It("should treat label names case-insensitively", func() {
			prog, err := a.Assemble("LOOP:\nnop\njal x1, loop")
			Expect(err).NotTo(HaveOccurred())

			decoder := insts.NewDecoder()
			Expect(decoder.Decode(prog.Words[1]).Imm).To(Equal(int32(-4)))
		})

		It("should allow a label to share a line with an instruction", func() {
			prog, err := a.Assemble("start: addi x1, x0, 1\njal x0, start")
			Expect(err).NotTo(HaveOccurred())

			Expect(prog.Labels).To(HaveKeyWithValue("start", uint32(0)))
			Expect(prog.Words).To(HaveLen(2))
		})

		It("should not advance the PC for label-only lines", func() {
			prog, err := a.Assemble("a:\nb:\nnop\nc:\necall")
			Expect(err).NotTo(HaveOccurred())

			Expect(prog.Labels).To(HaveKeyWithValue("a", uint32(0)))
			Expect(prog.Labels).To(HaveKeyWithValue("b", uint32(0)))
			Expect(prog.Labels).To(HaveKeyWithValue("c", uint32(4)))
		})

		It("should fail on a branch to a missing label", func() {
			_, err := a.Assemble("beq x1, x2, nowhere")

			Expect(err).To(MatchError(asm.ErrUndefinedLabel))
		})
	})
})
