package simd

// Uint32x8 is an 8-lane 32-bit integer vector, used for geometry/primitive
// ids and ray visibility masks.
type Uint32x8 [8]uint32

// Broadcast a scalar to all lanes.
func SplatU32(a uint32) Uint32x8 {
	return Uint32x8{a, a, a, a, a, a, a, a}
}

func (a Uint32x8) And(b Uint32x8) Uint32x8 {
	var r Uint32x8
	for i := 0; i < 8; i++ {
		r[i] = a[i] & b[i]
	}
	return r
}

func (a Uint32x8) Or(b Uint32x8) Uint32x8 {
	var r Uint32x8
	for i := 0; i < 8; i++ {
		r[i] = a[i] | b[i]
	}
	return r
}

func (a Uint32x8) CmpEQ(b Uint32x8) Bool8 {
	var m Bool8
	for i := 0; i < 8; i++ {
		if a[i] == b[i] {
			m |= 1 << uint(i)
		}
	}
	return m
}

func (a Uint32x8) CmpNE(b Uint32x8) Bool8 {
	var m Bool8
	for i := 0; i < 8; i++ {
		if a[i] != b[i] {
			m |= 1 << uint(i)
		}
	}
	return m
}

// Lanewise select; takes t on set lanes.
func SelectU32(m Bool8, t, f Uint32x8) Uint32x8 {
	var r Uint32x8
	for i := 0; i < 8; i++ {
		if m.Lane(i) {
			r[i] = t[i]
		} else {
			r[i] = f[i]
		}
	}
	return r
}

// StoreMasked overwrites the lanes of dst that are set in m with v.
func (dst *Uint32x8) StoreMasked(m Bool8, v Uint32x8) {
	for i := 0; i < 8; i++ {
		if m.Lane(i) {
			dst[i] = v[i]
		}
	}
}
