package telemetry

import "fmt"

// ProtocolViolationError reports a field whose wire value has no legal
// decoding under the active layout. The parser resynchronizes after
// returning one, so the stream stays usable.
type ProtocolViolationError struct {
	Layout string
	Field  string
	Value  uint32
	Err    error
}

func (e *ProtocolViolationError) Error() string {
	return fmt.Sprintf("protocol violation (%s): %s holds %#x: %v",
		e.Layout, e.Field, e.Value, e.Err)
}

func (e *ProtocolViolationError) Unwrap() error { return e.Err }
