package loader

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/stefaema/risc-v-risky-edition/pipeline"
	"github.com/stefaema/risc-v-risky-edition/telemetry"
)

// Session controls a loaded core: it switches the run mode and pumps the
// resulting dump stream through a telemetry parser.
type Session struct {
	port   io.ReadWriter
	parser *telemetry.Parser
	logger zerolog.Logger

	pending []*pipeline.Snapshot
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithSessionLogger routes the session's diagnostics.
func WithSessionLogger(l zerolog.Logger) SessionOption {
	return func(s *Session) { s.logger = l }
}

// WithParser substitutes the telemetry parser, typically to select a
// legacy wire layout.
func WithParser(p *telemetry.Parser) SessionOption {
	return func(s *Session) { s.parser = p }
}

// NewSession returns a session over an already-loaded core.
func NewSession(port io.ReadWriter, opts ...SessionOption) *Session {
	s := &Session{
		port:   port,
		parser: telemetry.NewParser(),
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StartContinuous puts the core in free-running mode. The core starts
// streaming one dump packet per retired cycle; drain them with Next.
func (s *Session) StartContinuous(ctx context.Context) error {
	return s.switchMode(ctx, CmdModeContinuous)
}

// StartStepMode puts the core in single-step mode. Each Step call then
// advances one cycle.
func (s *Session) StartStepMode(ctx context.Context) error {
	return s.switchMode(ctx, CmdModeStep)
}

// switchMode sends a mode command and waits for the core to echo it back.
// Stray dump bytes already in flight are fed to the parser rather than
// discarded.
func (s *Session) switchMode(ctx context.Context, cmd byte) error {
	if _, err := s.port.Write([]byte{cmd}); err != nil {
		return fmt.Errorf("sending %#x mode command: %w", cmd, err)
	}
	s.logger.Info().Uint8("command", cmd).Msg("mode switch requested")

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		b, err := readByte(s.port)
		if err != nil {
			return &HandshakeError{Stage: "mode echo", Expected: cmd, Err: err}
		}
		if b == cmd {
			s.logger.Info().Uint8("command", cmd).Msg("mode switch acknowledged")
			return nil
		}
		// Not the echo: let the parser treat it as stream content.
		if _, err := s.feed([]byte{b}); err != nil {
			return err
		}
	}
}

// Step requests one cycle from a core in step mode and returns its
// snapshot. The step command is not echoed; the dump packet itself is the
// acknowledgement.
func (s *Session) Step(ctx context.Context) (*pipeline.Snapshot, error) {
	if _, err := s.port.Write([]byte{CmdStepNext}); err != nil {
		return nil, fmt.Errorf("sending step command: %w", err)
	}
	return s.Next(ctx)
}

// Next blocks until the stream yields the next snapshot.
func (s *Session) Next(ctx context.Context) (*pipeline.Snapshot, error) {
	buf := make([]byte, 256)
	for {
		if len(s.pending) > 0 {
			snap := s.pending[0]
			s.pending = s.pending[1:]
			return snap, nil
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n, err := s.port.Read(buf)
		if n > 0 {
			if _, ferr := s.feed(buf[:n]); ferr != nil {
				return nil, ferr
			}
		}
		if err != nil {
			return nil, fmt.Errorf("reading dump stream: %w", err)
		}
	}
}

// Run drains the stream, invoking fn per snapshot, until the core reports
// program end, fn returns an error, or the context is cancelled.
func (s *Session) Run(ctx context.Context, fn func(*pipeline.Snapshot) error) error {
	for {
		snap, err := s.Next(ctx)
		if err != nil {
			return err
		}
		if err := fn(snap); err != nil {
			return err
		}
		if snap.Hazard.ProgramEnded {
			s.logger.Info().Msg("program ended")
			return nil
		}
	}
}

func (s *Session) feed(data []byte) (int, error) {
	snaps, err := s.parser.Feed(data)
	s.pending = append(s.pending, snaps...)
	return len(snaps), err
}
