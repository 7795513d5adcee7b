package loader

import "fmt"

// ValidationError reports an image that the hardware would not accept.
type ValidationError struct {
	Kind   MemoryKind
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s image: %s", e.Kind, e.Reason)
}

// HandshakeError reports a byte-level protocol failure during an upload or
// a mode switch. Err is set when the port failed outright instead of
// answering with the wrong byte.
type HandshakeError struct {
	Stage    string
	Expected byte
	Got      byte
	Err      error
}

func (e *HandshakeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("handshake failed at %s (expected %#02x): %v",
			e.Stage, e.Expected, e.Err)
	}
	return fmt.Sprintf("handshake failed at %s: expected %#02x, got %#02x",
		e.Stage, e.Expected, e.Got)
}

func (e *HandshakeError) Unwrap() error { return e.Err }
