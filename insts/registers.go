package insts

import (
	"fmt"
	"strconv"
	"strings"
)

// abiRegisters maps ABI register names to register numbers.
// s0 and fp are the same physical register.
var abiRegisters = map[string]uint8{
	"zero": 0, "ra": 1, "sp": 2, "gp": 3, "tp": 4,
	"t0": 5, "t1": 6, "t2": 7,
	"s0": 8, "fp": 8, "s1": 9,
	"a0": 10, "a1": 11, "a2": 12, "a3": 13,
	"a4": 14, "a5": 15, "a6": 16, "a7": 17,
	"s2": 18, "s3": 19, "s4": 20, "s5": 21, "s6": 22, "s7": 23,
	"s8": 24, "s9": 25, "s10": 26, "s11": 27,
	"t3": 28, "t4": 29, "t5": 30, "t6": 31,
}

// ParseRegister resolves a register operand given by ABI name ("sp", "t6")
// or numeric form ("x0".."x31"). Names are case-insensitive.
func ParseRegister(name string) (uint8, error) {
	s := strings.ToLower(strings.TrimSpace(name))
	if reg, ok := abiRegisters[s]; ok {
		return reg, nil
	}
	if strings.HasPrefix(s, "x") {
		n, err := strconv.Atoi(s[1:])
		if err == nil && n >= 0 && n < 32 {
			return uint8(n), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownRegister, name)
}

// ParseImmediate parses an immediate operand in any base accepted by Go
// integer literals (decimal, 0x hex, 0b binary, 0o octal).
func ParseImmediate(s string) (int64, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 0, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidImmediate, s)
	}
	return v, nil
}
