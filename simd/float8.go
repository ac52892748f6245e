package simd

import "math"

// Float8 is an 8-lane single precision float vector. All operations are
// value-returning and lanewise unless stated otherwise.
type Float8 [8]float32

const signBit uint32 = 0x80000000

var (
	posInf = float32(math.Inf(1))
	negInf = float32(math.Inf(-1))
)

// Broadcast a scalar to all lanes.
func Splat(a float32) Float8 {
	return Float8{a, a, a, a, a, a, a, a}
}

// All lanes +Inf.
func PosInf8() Float8 {
	return Splat(posInf)
}

// All lanes -Inf.
func NegInf8() Float8 {
	return Splat(negInf)
}

////////////////////////////////////////////////////////////////////////////////
// Arithmetic
////////////////////////////////////////////////////////////////////////////////

func (a Float8) Add(b Float8) Float8 {
	var r Float8
	for i := 0; i < 8; i++ {
		r[i] = a[i] + b[i]
	}
	return r
}

func (a Float8) Sub(b Float8) Float8 {
	var r Float8
	for i := 0; i < 8; i++ {
		r[i] = a[i] - b[i]
	}
	return r
}

func (a Float8) Mul(b Float8) Float8 {
	var r Float8
	for i := 0; i < 8; i++ {
		r[i] = a[i] * b[i]
	}
	return r
}

func (a Float8) Div(b Float8) Float8 {
	var r Float8
	for i := 0; i < 8; i++ {
		r[i] = a[i] / b[i]
	}
	return r
}

// Flip the sign bit of every lane.
func (a Float8) Neg() Float8 {
	var r Float8
	for i := 0; i < 8; i++ {
		r[i] = math.Float32frombits(math.Float32bits(a[i]) ^ signBit)
	}
	return r
}

// Clear the sign bit of every lane.
func (a Float8) Abs() Float8 {
	var r Float8
	for i := 0; i < 8; i++ {
		r[i] = math.Float32frombits(math.Float32bits(a[i]) &^ signBit)
	}
	return r
}

// Sign returns +1 for lanes >= 0 and -1 otherwise (NaN lanes yield -1).
func (a Float8) Sign() Float8 {
	var r Float8
	for i := 0; i < 8; i++ {
		if a[i] >= 0 {
			r[i] = 1
		} else {
			r[i] = -1
		}
	}
	return r
}

// SignMask isolates the sign bit of every lane, to be combined with Xor.
func (a Float8) SignMask() Float8 {
	var r Float8
	for i := 0; i < 8; i++ {
		r[i] = math.Float32frombits(math.Float32bits(a[i]) & signBit)
	}
	return r
}

// Bitwise xor of the lane bit patterns.
func (a Float8) Xor(b Float8) Float8 {
	var r Float8
	for i := 0; i < 8; i++ {
		r[i] = math.Float32frombits(math.Float32bits(a[i]) ^ math.Float32bits(b[i]))
	}
	return r
}

// Bitwise and of the lane bit patterns.
func (a Float8) And(b Float8) Float8 {
	var r Float8
	for i := 0; i < 8; i++ {
		r[i] = math.Float32frombits(math.Float32bits(a[i]) & math.Float32bits(b[i]))
	}
	return r
}

func (a Float8) Sqrt() Float8 {
	var r Float8
	for i := 0; i < 8; i++ {
		r[i] = float32(math.Sqrt(float64(a[i])))
	}
	return r
}

// Rcp returns the lanewise reciprocal. The scalar path divides directly,
// which stays within the error bound of the estimate-plus-Newton-step
// sequence used on hardware with a reciprocal approximation.
func (a Float8) Rcp() Float8 {
	var r Float8
	for i := 0; i < 8; i++ {
		r[i] = 1.0 / a[i]
	}
	return r
}

// Rsqrt returns the lanewise reciprocal square root.
func (a Float8) Rsqrt() Float8 {
	var r Float8
	for i := 0; i < 8; i++ {
		r[i] = float32(1.0 / math.Sqrt(float64(a[i])))
	}
	return r
}

// Min selects the smaller lane; on an unordered compare the second operand
// wins, matching the packed single precision min instruction.
func (a Float8) Min(b Float8) Float8 {
	var r Float8
	for i := 0; i < 8; i++ {
		if a[i] < b[i] {
			r[i] = a[i]
		} else {
			r[i] = b[i]
		}
	}
	return r
}

// Max selects the larger lane; on an unordered compare the second operand
// wins, matching the packed single precision max instruction.
func (a Float8) Max(b Float8) Float8 {
	var r Float8
	for i := 0; i < 8; i++ {
		if a[i] > b[i] {
			r[i] = a[i]
		} else {
			r[i] = b[i]
		}
	}
	return r
}

// MinInt compares the 32-bit lane patterns as signed integers. This is the
// canonical behavior of the fast slab test (packed integer min on the float
// register file) and is kept bit-exact here for reproducibility.
func (a Float8) MinInt(b Float8) Float8 {
	var r Float8
	for i := 0; i < 8; i++ {
		if int32(math.Float32bits(a[i])) < int32(math.Float32bits(b[i])) {
			r[i] = a[i]
		} else {
			r[i] = b[i]
		}
	}
	return r
}

// MaxInt compares the 32-bit lane patterns as signed integers. See MinInt.
func (a Float8) MaxInt(b Float8) Float8 {
	var r Float8
	for i := 0; i < 8; i++ {
		if int32(math.Float32bits(a[i])) > int32(math.Float32bits(b[i])) {
			r[i] = a[i]
		} else {
			r[i] = b[i]
		}
	}
	return r
}

////////////////////////////////////////////////////////////////////////////////
// Fused shapes
////////////////////////////////////////////////////////////////////////////////

// Madd computes a*b + c.
func Madd(a, b, c Float8) Float8 {
	var r Float8
	for i := 0; i < 8; i++ {
		r[i] = a[i]*b[i] + c[i]
	}
	return r
}

// Msub computes a*b - c.
func Msub(a, b, c Float8) Float8 {
	var r Float8
	for i := 0; i < 8; i++ {
		r[i] = a[i]*b[i] - c[i]
	}
	return r
}

// Nmadd computes -a*b - c.
func Nmadd(a, b, c Float8) Float8 {
	var r Float8
	for i := 0; i < 8; i++ {
		r[i] = -a[i]*b[i] - c[i]
	}
	return r
}

// Nmsub computes c - a*b.
func Nmsub(a, b, c Float8) Float8 {
	var r Float8
	for i := 0; i < 8; i++ {
		r[i] = c[i] - a[i]*b[i]
	}
	return r
}

////////////////////////////////////////////////////////////////////////////////
// Comparisons + select
////////////////////////////////////////////////////////////////////////////////

// Comparisons are ordered: a lane holding NaN on either side yields false.
// The exception is CmpNE, which is unordered and yields true on NaN lanes,
// matching the packed not-equal compare.

func (a Float8) CmpLT(b Float8) Bool8 {
	var m Bool8
	for i := 0; i < 8; i++ {
		if a[i] < b[i] {
			m |= 1 << uint(i)
		}
	}
	return m
}

func (a Float8) CmpLE(b Float8) Bool8 {
	var m Bool8
	for i := 0; i < 8; i++ {
		if a[i] <= b[i] {
			m |= 1 << uint(i)
		}
	}
	return m
}

func (a Float8) CmpGT(b Float8) Bool8 {
	var m Bool8
	for i := 0; i < 8; i++ {
		if a[i] > b[i] {
			m |= 1 << uint(i)
		}
	}
	return m
}

func (a Float8) CmpGE(b Float8) Bool8 {
	var m Bool8
	for i := 0; i < 8; i++ {
		if a[i] >= b[i] {
			m |= 1 << uint(i)
		}
	}
	return m
}

func (a Float8) CmpEQ(b Float8) Bool8 {
	var m Bool8
	for i := 0; i < 8; i++ {
		if a[i] == b[i] {
			m |= 1 << uint(i)
		}
	}
	return m
}

func (a Float8) CmpNE(b Float8) Bool8 {
	var m Bool8
	for i := 0; i < 8; i++ {
		if a[i] != b[i] {
			m |= 1 << uint(i)
		}
	}
	return m
}

// Lanewise select; takes t on set lanes.
func Select(m Bool8, t, f Float8) Float8 {
	var r Float8
	for i := 0; i < 8; i++ {
		if m.Lane(i) {
			r[i] = t[i]
		} else {
			r[i] = f[i]
		}
	}
	return r
}

// BlendImm is Select with a compile-time lane mask.
func BlendImm(imm uint8, t, f Float8) Float8 {
	return Select(Bool8(imm), t, f)
}

////////////////////////////////////////////////////////////////////////////////
// Reductions
////////////////////////////////////////////////////////////////////////////////

func (a Float8) ReduceMin() float32 {
	r := a[0]
	for i := 1; i < 8; i++ {
		if a[i] < r {
			r = a[i]
		}
	}
	return r
}

func (a Float8) ReduceMax() float32 {
	r := a[0]
	for i := 1; i < 8; i++ {
		if a[i] > r {
			r = a[i]
		}
	}
	return r
}

func (a Float8) ReduceAdd() float32 {
	var r float32
	for i := 0; i < 8; i++ {
		r += a[i]
	}
	return r
}

// SelectMin returns the index of a minimum lane; ties go to the lowest lane.
func (a Float8) SelectMin() int {
	m := a.ReduceMin()
	for i := 0; i < 8; i++ {
		if a[i] == m {
			return i
		}
	}
	return 0
}

// SelectMax returns the index of a maximum lane; ties go to the lowest lane.
func (a Float8) SelectMax() int {
	m := a.ReduceMax()
	for i := 0; i < 8; i++ {
		if a[i] == m {
			return i
		}
	}
	return 0
}

// SelectMinMasked restricts SelectMin to the lanes set in valid.
func (a Float8) SelectMinMasked(valid Bool8) int {
	v := Select(valid, a, PosInf8())
	m := v.ReduceMin()
	for i := 0; i < 8; i++ {
		if valid.Lane(i) && v[i] == m {
			return i
		}
	}
	return 0
}

// SelectMaxMasked restricts SelectMax to the lanes set in valid.
func (a Float8) SelectMaxMasked(valid Bool8) int {
	v := Select(valid, a, NegInf8())
	m := v.ReduceMax()
	for i := 0; i < 8; i++ {
		if valid.Lane(i) && v[i] == m {
			return i
		}
	}
	return 0
}

////////////////////////////////////////////////////////////////////////////////
// Stores and shuffles
////////////////////////////////////////////////////////////////////////////////

// StoreMasked overwrites the lanes of dst that are set in m with v.
func (dst *Float8) StoreMasked(m Bool8, v Float8) {
	for i := 0; i < 8; i++ {
		if m.Lane(i) {
			dst[i] = v[i]
		}
	}
}

// Transpose4x8 transposes the two 4x4 halves of four vectors: lanes 0-3 of
// the outputs hold the columns of the low halves, lanes 4-7 the columns of
// the high halves.
func Transpose4x8(r0, r1, r2, r3 Float8) (c0, c1, c2, c3 Float8) {
	rows := [4]Float8{r0, r1, r2, r3}
	var cols [4]Float8
	for h := 0; h < 8; h += 4 {
		for i := 0; i < 4; i++ {
			for j := 0; j < 4; j++ {
				cols[j][h+i] = rows[i][h+j]
			}
		}
	}
	return cols[0], cols[1], cols[2], cols[3]
}
