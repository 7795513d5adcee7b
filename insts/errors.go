package insts

import "errors"

// Encoding error kinds. Callers branch on these with errors.Is.
var (
	// ErrUnknownMnemonic reports an instruction name outside the supported
	// RV32I subset.
	ErrUnknownMnemonic = errors.New("unknown mnemonic")

	// ErrUnknownRegister reports a register operand that is neither an ABI
	// name nor x0-x31.
	ErrUnknownRegister = errors.New("unknown register")

	// ErrInvalidImmediate reports an immediate that does not parse or does
	// not fit the instruction's field.
	ErrInvalidImmediate = errors.New("invalid immediate")

	// ErrBadOperands reports a malformed operand list for the mnemonic.
	ErrBadOperands = errors.New("malformed operands")
)
