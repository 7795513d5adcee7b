package insts

// ExtractBits returns width bits from word, starting at shift.
// Width must be between 1 and 32; out-of-range widths return 0.
func ExtractBits(word uint32, shift, width uint) uint32 {
	if width == 0 || width > 32 {
		return 0
	}
	if width == 32 {
		return word >> shift
	}
	mask := uint32(1)<<width - 1
	return (word >> shift) & mask
}

// SignExtend interprets the low bits of value as a two's-complement number
// of the given width and returns it as a signed 32-bit integer.
func SignExtend(value uint32, bits uint) int32 {
	value &= uint32(1)<<bits - 1
	if value&(1<<(bits-1)) != 0 {
		return int32(value) - int32(1)<<bits
	}
	return int32(value)
}

// truncate masks a possibly-negative host integer down to bits width via
// two's complement, the inverse of SignExtend.
func truncate(value int32, bits uint) uint32 {
	return uint32(value) & (uint32(1)<<bits - 1)
}
