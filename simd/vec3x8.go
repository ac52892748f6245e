package simd

import "math"

// Vec3x8 is a struct-of-arrays 3-vector over eight lanes.
type Vec3x8 struct {
	X, Y, Z Float8
}

// The smallest input magnitude RcpSafe reciprocates without clamping. Inputs
// below it (denormals, zero) clamp to +-minRcpInput so a slab test never sees
// NaN, only a large finite bound.
const minRcpInput float32 = 1e-18

// Broadcast a scalar 3-vector to all lanes.
func SplatVec3(x, y, z float32) Vec3x8 {
	return Vec3x8{X: Splat(x), Y: Splat(y), Z: Splat(z)}
}

func (a Vec3x8) Add(b Vec3x8) Vec3x8 {
	return Vec3x8{a.X.Add(b.X), a.Y.Add(b.Y), a.Z.Add(b.Z)}
}

func (a Vec3x8) Sub(b Vec3x8) Vec3x8 {
	return Vec3x8{a.X.Sub(b.X), a.Y.Sub(b.Y), a.Z.Sub(b.Z)}
}

func (a Vec3x8) Mul(b Vec3x8) Vec3x8 {
	return Vec3x8{a.X.Mul(b.X), a.Y.Mul(b.Y), a.Z.Mul(b.Z)}
}

// Scale all components by an 8-lane factor.
func (a Vec3x8) Scale(s Float8) Vec3x8 {
	return Vec3x8{a.X.Mul(s), a.Y.Mul(s), a.Z.Mul(s)}
}

// Dot product, per lane.
func Dot(a, b Vec3x8) Float8 {
	return Madd(a.X, b.X, Madd(a.Y, b.Y, a.Z.Mul(b.Z)))
}

// Cross product, per lane.
func Cross(a, b Vec3x8) Vec3x8 {
	return Vec3x8{
		X: Msub(a.Y, b.Z, a.Z.Mul(b.Y)),
		Y: Msub(a.Z, b.X, a.X.Mul(b.Z)),
		Z: Msub(a.X, b.Y, a.Y.Mul(b.X)),
	}
}

// RcpSafe returns componentwise reciprocals with the input magnitude clamped
// to minRcpInput, preserving sign. Rays parallel to a slab therefore yield a
// well defined large bound instead of NaN.
func (a Vec3x8) RcpSafe() Vec3x8 {
	return Vec3x8{rcpSafe(a.X), rcpSafe(a.Y), rcpSafe(a.Z)}
}

func rcpSafe(a Float8) Float8 {
	var r Float8
	for i := 0; i < 8; i++ {
		v := a[i]
		if abs32(v) < minRcpInput {
			v = copysign32(minRcpInput, v)
		}
		r[i] = 1.0 / v
	}
	return r
}

func abs32(a float32) float32 {
	return math.Float32frombits(math.Float32bits(a) &^ signBit)
}

func copysign32(a, sign float32) float32 {
	return math.Float32frombits(math.Float32bits(a)&^signBit | math.Float32bits(sign)&signBit)
}
