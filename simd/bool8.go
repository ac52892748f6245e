package simd

import "math/bits"

// Bool8 is an 8-lane boolean mask. Lane i is stored as bit i so every lane
// is exactly true or false and Movemask is the identity.
type Bool8 uint8

const (
	// BoolFalse has all lanes cleared.
	BoolFalse Bool8 = 0x00
	// BoolTrue has all lanes set.
	BoolTrue Bool8 = 0xff
)

// Build a mask from an 8-bit integer; bit i selects lane i.
func MaskFromBits(a uint8) Bool8 {
	return Bool8(a)
}

// Broadcast a single boolean to all lanes.
func MaskAll(b bool) Bool8 {
	if b {
		return BoolTrue
	}
	return BoolFalse
}

// Build a mask with only the given lane set.
func MaskLane(lane int) Bool8 {
	return 1 << uint(lane)
}

// Get lane i.
func (m Bool8) Lane(i int) bool {
	return m&(1<<uint(i)) != 0
}

func (m Bool8) And(n Bool8) Bool8 { return m & n }
func (m Bool8) Or(n Bool8) Bool8  { return m | n }
func (m Bool8) Xor(n Bool8) Bool8 { return m ^ n }
func (m Bool8) Not() Bool8        { return ^m }

// AndNot clears the lanes of m that are set in n.
func (m Bool8) AndNot(n Bool8) Bool8 { return m &^ n }

// True if at least one lane is set.
func (m Bool8) Any() bool {
	return m != 0
}

// True if every lane is set.
func (m Bool8) All() bool {
	return m == BoolTrue
}

// True if no lane is set.
func (m Bool8) None() bool {
	return m == 0
}

// Count the set lanes.
func (m Bool8) Popcount() int {
	return bits.OnesCount8(uint8(m))
}

// Extract the mask as an 8-bit integer; bit i carries lane i.
func (m Bool8) Movemask() uint8 {
	return uint8(m)
}

// Lanewise select between two masks.
func SelectBool8(m, t, f Bool8) Bool8 {
	return (t & m) | (f &^ m)
}
