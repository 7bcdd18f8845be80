// Package bits holds the small bit and byte helpers shared by the hardware
// components.
package bits

// Val returns the value of the bit at the given index.
func Val(b, i uint8) uint8 {
	return (b >> i) & 1
}

// Reset resets the bit at the given index.
func Reset(b, i uint8) uint8 {
	return b &^ (1 << i)
}

// Set sets the bit at the given index.
func Set(b, i uint8) uint8 {
	return b | (1 << i)
}

// SetTo sets or resets the bit at the given index.
func SetTo(b, i uint8, on bool) uint8 {
	if on {
		return Set(b, i)
	}
	return Reset(b, i)
}

// Test tests the bit at the given index.
func Test(b, i uint8) bool {
	return (b>>i)&1 != 0
}

// Test16 tests a bit of a 16-bit word.
func Test16(w uint16, i uint8) bool {
	return (w>>i)&1 != 0
}

// Hi returns the high byte of w.
func Hi(w uint16) uint8 {
	return uint8(w >> 8)
}

// Lo returns the low byte of w.
func Lo(w uint16) uint8 {
	return uint8(w)
}

// Word joins a high and a low byte.
func Word(hi, lo uint8) uint16 {
	return uint16(hi)<<8 | uint16(lo)
}
