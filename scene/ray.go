package scene

import (
	"math"

	"github.com/madmann91/ratrace/simd"
	"github.com/madmann91/ratrace/types"
)

// InvalidID marks a ray lane with no recorded hit and a triangle slot with no
// geometry attached.
const InvalidID uint32 = 0xffffffff

// Ray8 is a packet of eight rays in struct-of-arrays form. The input fields
// describe the rays, the output fields the nearest recorded hit per lane.
// TFar is both: it shrinks toward the nearest hit as traversal progresses.
type Ray8 struct {
	// Ray input fields.
	Org   simd.Vec3x8
	Dir   simd.Vec3x8
	TNear simd.Float8
	TFar  simd.Float8
	Time  simd.Float8
	Mask  simd.Uint32x8

	// Hit output fields.
	U      simd.Float8
	V      simd.Float8
	Ng     simd.Vec3x8
	GeomID simd.Uint32x8
	PrimID simd.Uint32x8
}

// NewRay8 creates a packet with no active hits, open ray intervals and all
// visibility mask bits set.
func NewRay8() *Ray8 {
	r := &Ray8{}
	r.Reset()
	return r
}

// Reset clears the hit fields and reopens the ray intervals.
func (r *Ray8) Reset() {
	inf := float32(math.Inf(1))
	for i := 0; i < 8; i++ {
		r.TNear[i] = 0
		r.TFar[i] = inf
		r.Mask[i] = 0xffffffff
		r.GeomID[i] = InvalidID
		r.PrimID[i] = InvalidID
	}
}

// SetRay overwrites the input fields of one lane.
func (r *Ray8) SetRay(lane int, org, dir types.Vec3, tnear, tfar float32) {
	r.Org.X[lane] = org[0]
	r.Org.Y[lane] = org[1]
	r.Org.Z[lane] = org[2]
	r.Dir.X[lane] = dir[0]
	r.Dir.Y[lane] = dir[1]
	r.Dir.Z[lane] = dir[2]
	r.TNear[lane] = tnear
	r.TFar[lane] = tfar
}

// HasHit reports whether the lane recorded a hit.
func (r *Ray8) HasHit(lane int) bool {
	return r.GeomID[lane] != InvalidID
}
