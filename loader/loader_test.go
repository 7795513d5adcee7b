package loader_test

import (
	"bytes"
	"encoding/binary"
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/stefaema/risc-v-risky-edition/loader"
)

// fakePort is an in-memory UART endpoint. tx holds the bytes the device
// will answer with, rx captures everything the host sent. The loader's
// traffic is strictly write-then-read, so pre-queued answers suffice.
type fakePort struct {
	tx bytes.Buffer
	rx bytes.Buffer
}

func (p *fakePort) Read(b []byte) (int, error)  { return p.tx.Read(b) }
func (p *fakePort) Write(b []byte) (int, error) { return p.rx.Write(b) }

// silentPort models a serial port with an expiring read deadline: reads
// return no data and no error, the way go.bug.st/serial reports a timeout.
type silentPort struct{ fakePort }

func (p *silentPort) Read(b []byte) (int, error) { return 0, nil }

var ecall = []byte{0x73, 0x00, 0x00, 0x00}

var _ = Describe("Loader", func() {
	var port *fakePort

	BeforeEach(func() {
		port = &fakePort{}
	})

	Describe("ValidatePayload", func() {
		It("should accept a program ending with ecall", func() {
			ld := loader.New(port)
			image := append([]byte{0x93, 0x02, 0xF0, 0x00}, ecall...)

			data, err := ld.ValidatePayload(image, loader.InstructionMemory)
			Expect(err).ToNot(HaveOccurred())
			Expect(data).To(Equal(image))
		})

		It("should reject a program that does not end with ecall", func() {
			ld := loader.New(port)
			image := []byte{0x93, 0x02, 0xF0, 0x00}

			_, err := ld.ValidatePayload(image, loader.InstructionMemory)
			var verr *loader.ValidationError
			Expect(err).To(BeAssignableToTypeOf(verr))
			Expect(err.Error()).To(ContainSubstring("ecall"))
		})

		It("should pad a data image to word alignment", func() {
			ld := loader.New(port)

			data, err := ld.ValidatePayload([]byte{0xAA, 0xBB, 0xCC, 0xDD, 0xEE}, loader.DataMemory)
			Expect(err).ToNot(HaveOccurred())
			Expect(data).To(Equal([]byte{0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0x00, 0x00, 0x00}))
		})

		It("should not require ecall in a data image", func() {
			ld := loader.New(port)

			_, err := ld.ValidatePayload([]byte{1, 2, 3, 4}, loader.DataMemory)
			Expect(err).ToNot(HaveOccurred())
		})

		It("should reject an image larger than the memory", func() {
			ld := loader.New(port, loader.WithMaxWords(2))
			image := append(make([]byte, 8), ecall...)

			_, err := ld.ValidatePayload(image, loader.InstructionMemory)
			var verr *loader.ValidationError
			Expect(err).To(BeAssignableToTypeOf(verr))
		})

		It("should reject an image above the 16-bit word count even with a raised cap", func() {
			ld := loader.New(port, loader.WithMaxWords(70000))
			image := make([]byte, 0x10000*4)

			_, err := ld.ValidatePayload(image, loader.DataMemory)
			var verr *loader.ValidationError
			Expect(err).To(BeAssignableToTypeOf(verr))
			Expect(err.Error()).To(ContainSubstring("word count"))
		})
	})

	Describe("Upload", func() {
		It("should run the full handshake for a program image", func() {
			port.tx.Write([]byte{loader.CmdLoadCode, loader.AckFinish})
			ld := loader.New(port)
			image := append([]byte{0x93, 0x02, 0xF0, 0x00}, ecall...)

			Expect(ld.Upload(loader.InstructionMemory, image)).To(Succeed())

			sent := port.rx.Bytes()
			Expect(sent[0]).To(Equal(loader.CmdLoadCode))
			Expect(binary.BigEndian.Uint16(sent[1:3])).To(Equal(uint16(2)))
			Expect(sent[3:]).To(Equal(image))
		})

		It("should select data memory with its own command byte", func() {
			port.tx.Write([]byte{loader.CmdLoadData, loader.AckFinish})
			ld := loader.New(port)

			Expect(ld.Upload(loader.DataMemory, []byte{1, 2, 3, 4})).To(Succeed())
			Expect(port.rx.Bytes()[0]).To(Equal(loader.CmdLoadData))
		})

		It("should fail when the command echo is wrong", func() {
			port.tx.Write([]byte{0x00})
			ld := loader.New(port)

			err := ld.Upload(loader.InstructionMemory, ecall)
			var herr *loader.HandshakeError
			Expect(err).To(BeAssignableToTypeOf(herr))
			Expect(err.Error()).To(ContainSubstring("command echo"))
		})

		It("should fail when the device never acknowledges", func() {
			port.tx.Write([]byte{loader.CmdLoadCode})
			ld := loader.New(port)

			err := ld.Upload(loader.InstructionMemory, ecall)
			var herr *loader.HandshakeError
			Expect(err).To(BeAssignableToTypeOf(herr))
			Expect(err.Error()).To(ContainSubstring("final ack"))
		})

		It("should surface an expired read deadline as a handshake failure", func() {
			ld := loader.New(&silentPort{})

			err := ld.Upload(loader.InstructionMemory, ecall)
			var herr *loader.HandshakeError
			Expect(err).To(BeAssignableToTypeOf(herr))
			Expect(err).To(MatchError(os.ErrDeadlineExceeded))
		})

		It("should fail when the ack byte is wrong", func() {
			port.tx.Write([]byte{loader.CmdLoadCode, 0x55})
			ld := loader.New(port)

			err := ld.Upload(loader.InstructionMemory, ecall)
			Expect(err).To(MatchError(ContainSubstring("final ack")))
		})
	})
})
