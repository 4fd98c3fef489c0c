// Package bitfield extracts and updates bit-packed fields inside 64-bit
// big-endian CAN payloads.
//
// The payload convention is the one used when packing the 8 data bytes of a
// frame with binary.BigEndian.Uint64 : bit position 0 is the most
// significant bit of byte 0, bit position 63 the least significant bit of
// byte 7. Fields may span byte boundaries.
package bitfield

// Get returns the unsigned integer formed by width bits starting at
// position. The caller must guarantee 1 <= width and position+width <= 64 ;
// this runs on the per-frame hot path so it is not validated here and the
// result is undefined otherwise.
func Get(data uint64, position uint8, width uint8) uint64 {
	shift := 64 - uint(position) - uint(width)
	if width >= 64 {
		return data >> shift
	}
	mask := uint64(1)<<width - 1
	return (data >> shift) & mask
}

// Set writes value into the field Get reads, leaving all other bits
// untouched, and returns the updated payload. Same preconditions as Get.
// Extra high bits of value beyond width are discarded.
func Set(data uint64, position uint8, width uint8, value uint64) uint64 {
	if width >= 64 {
		return value
	}
	shift := 64 - uint(position) - uint(width)
	mask := (uint64(1)<<width - 1) << shift
	return (data &^ mask) | (value << shift & mask)
}
