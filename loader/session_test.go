package loader_test

import (
	"context"
	"encoding/binary"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/stefaema/risc-v-risky-edition/loader"
	"github.com/stefaema/risc-v-risky-edition/pipeline"
	"github.com/stefaema/risc-v-risky-edition/telemetry"
)

// dumpPacket builds a minimal idle snoop packet: all-zero pipeline block
// and an empty store flag. hazard lands in the hazard word.
func dumpPacket(hazard uint32) []byte {
	out := []byte{telemetry.AlertByte, 0x00}
	appendWord := func(w uint32) {
		out = binary.LittleEndian.AppendUint32(out, w)
	}
	for i := 0; i < 32; i++ { // register file
		appendWord(0)
	}
	appendWord(hazard)
	for i := 0; i < 3+6+4+4; i++ { // latches
		appendWord(0)
	}
	appendWord(0) // pad
	appendWord(0) // store flag: nothing written
	return out
}

var _ = Describe("Session", func() {
	var (
		port *fakePort
		ctx  context.Context
	)

	BeforeEach(func() {
		port = &fakePort{}
		ctx = context.Background()
	})

	It("should acknowledge a step-mode switch", func() {
		port.tx.Write([]byte{loader.CmdModeStep})
		s := loader.NewSession(port)

		Expect(s.StartStepMode(ctx)).To(Succeed())
		Expect(port.rx.Bytes()).To(Equal([]byte{loader.CmdModeStep}))
	})

	It("should skip stray stream bytes while waiting for the mode echo", func() {
		port.tx.Write([]byte{'o', 'k', loader.CmdModeContinuous})
		s := loader.NewSession(port)

		Expect(s.StartContinuous(ctx)).To(Succeed())
	})

	It("should fail a mode switch when the port goes silent", func() {
		s := loader.NewSession(port)

		err := s.StartStepMode(ctx)
		var herr *loader.HandshakeError
		Expect(err).To(BeAssignableToTypeOf(herr))
	})

	It("should return the dump packet a step produces", func() {
		port.tx.Write(dumpPacket(0))
		s := loader.NewSession(port)

		snap, err := s.Step(ctx)
		Expect(err).ToNot(HaveOccurred())
		Expect(snap).ToNot(BeNil())
		Expect(port.rx.Bytes()).To(Equal([]byte{loader.CmdStepNext}))
	})

	It("should drain snapshots until the program ends", func() {
		port.tx.Write(dumpPacket(0))
		port.tx.Write(dumpPacket(1)) // program ended
		s := loader.NewSession(port)

		var count int
		err := s.Run(ctx, func(_ *pipeline.Snapshot) error { count++; return nil })
		Expect(err).ToNot(HaveOccurred())
		Expect(count).To(Equal(2))
	})

	It("should stop when the context is cancelled", func() {
		s := loader.NewSession(port)
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		_, err := s.Next(cancelled)
		Expect(err).To(MatchError(context.Canceled))
	})
})
