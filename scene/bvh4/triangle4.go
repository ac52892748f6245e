package bvh4

import (
	"github.com/madmann91/ratrace/scene"
	"github.com/madmann91/ratrace/simd"
	"github.com/madmann91/ratrace/types"
)

// listIDMask strips the list-mode termination flag from an id slot.
const listIDMask uint32 = 0x7fffffff

// Triangle4 stores four triangles in struct-of-arrays form: base vertex v0,
// edges e1 = v0-v1 and e2 = v2-v0, and the precomputed geometric normal
// Ng = e1 x e2. Unused slots carry InvalidID in their geometry id.
type Triangle4 struct {
	V0x, V0y, V0z [4]float32
	E1x, E1y, E1z [4]float32
	E2x, E2y, E2z [4]float32
	Ngx, Ngy, Ngz [4]float32

	GeomIDs [4]uint32
	PrimIDs [4]uint32
	Masks   [4]uint32
}

// Clear invalidates all four slots.
func (t *Triangle4) Clear() {
	for i := 0; i < 4; i++ {
		t.GeomIDs[i] = scene.InvalidID
		t.PrimIDs[i] = scene.InvalidID
	}
}

// Set fills slot i from a triangle's vertices.
func (t *Triangle4) Set(i int, v0, v1, v2 types.Vec3, geomID, primID, mask uint32) {
	e1 := v0.Sub(v1)
	e2 := v2.Sub(v0)
	ng := e1.Cross(e2)

	t.V0x[i], t.V0y[i], t.V0z[i] = v0[0], v0[1], v0[2]
	t.E1x[i], t.E1y[i], t.E1z[i] = e1[0], e1[1], e1[2]
	t.E2x[i], t.E2y[i], t.E2z[i] = e2[0], e2[1], e2[2]
	t.Ngx[i], t.Ngy[i], t.Ngz[i] = ng[0], ng[1], ng[2]
	t.GeomIDs[i] = geomID
	t.PrimIDs[i] = primID
	t.Masks[i] = mask
}

// Valid checks if slot i holds a triangle.
func (t *Triangle4) Valid(i int) bool {
	return t.GeomIDs[i] != scene.InvalidID
}

// GeomID returns the geometry id of slot i. In list mode the top bit flags
// the last block of a leaf list and is stripped.
func (t *Triangle4) GeomID(i int, list bool) uint32 {
	if list {
		return t.GeomIDs[i] & listIDMask
	}
	return t.GeomIDs[i]
}

// PrimID returns the primitive id of slot i.
func (t *Triangle4) PrimID(i int, list bool) uint32 {
	if list {
		return t.PrimIDs[i] & listIDMask
	}
	return t.PrimIDs[i]
}

// broadcastV3 broadcasts slot k of three 4-lane slabs to all eight lanes.
func broadcastV3(x, y, z *[4]float32, k int) simd.Vec3x8 {
	return simd.SplatVec3(x[k], y[k], z[k])
}

// Triangle4MoellerTrumbore intersects four triangles with eight rays. It
// implements a modified version of the Moeller-Trumbore intersector from
// "Fast, Minimum Storage Ray-Triangle Intersection": the factorization is
// rearranged so the cross product e1 x e2 can be precalculated per triangle.
type Triangle4MoellerTrumbore struct {
	// EnableFilter dispatches candidate hits through a geometry's
	// registered intersection filter instead of committing directly.
	EnableFilter bool

	// BackfaceCulling rejects hits with a non-positive determinant.
	BackfaceCulling bool

	// RayMask filters hits through the per-triangle and per-ray
	// visibility masks.
	RayMask bool

	// Stats receives trav_prims events; may be nil.
	Stats StatSink
}

// Precalculate derives no state for this intersector.
func (t *Triangle4MoellerTrumbore) Precalculate(valid simd.Bool8, ray *scene.Ray8) Precalculations {
	return nil
}

// Intersect tests items triangle blocks starting at base against the ray
// packet and records closer hits under the lane mask.
func (t *Triangle4MoellerTrumbore) Intersect(validI simd.Bool8, pre Precalculations, ray *scene.Ray8, base, items int, bvh *BVH4) {
	zero := simd.Float8{}
	for b := 0; b < items; b++ {
		tri := &bvh.Tris[base+b]
		for i := 0; i < 4; i++ {
			if !tri.Valid(i) {
				break
			}
			countStat(t.Stats, StatTravPrims, 1, validI.Popcount())

			// Load one triangle, broadcast to all lanes.
			valid := validI
			p0 := broadcastV3(&tri.V0x, &tri.V0y, &tri.V0z, i)
			e1 := broadcastV3(&tri.E1x, &tri.E1y, &tri.E1z, i)
			e2 := broadcastV3(&tri.E2x, &tri.E2y, &tri.E2z, i)
			ng := broadcastV3(&tri.Ngx, &tri.Ngy, &tri.Ngz, i)

			// Calculate the denominator and its isolated sign bit.
			c := p0.Sub(ray.Org)
			r := simd.Cross(ray.Dir, c)
			den := simd.Dot(ng, ray.Dir)
			absDen := den.Abs()
			sgnDen := den.SignMask()

			// Test against edge p2 p0.
			u := simd.Dot(r, e2).Xor(sgnDen)
			valid = valid.And(u.CmpGE(zero))

			// Test against edge p0 p1.
			v := simd.Dot(r, e1).Xor(sgnDen)
			valid = valid.And(v.CmpGE(zero))

			// Test against edge p1 p2.
			w := absDen.Sub(u).Sub(v)
			valid = valid.And(w.CmpGE(zero))
			if valid.None() {
				continue
			}

			// Perform depth test.
			tt := simd.Dot(ng, c).Xor(sgnDen)
			valid = valid.And(tt.CmpGE(absDen.Mul(ray.TNear)))
			valid = valid.And(absDen.Mul(ray.TFar).CmpGE(tt))
			if valid.None() {
				continue
			}

			// Perform backface culling.
			if t.BackfaceCulling {
				valid = valid.And(den.CmpGT(zero))
			} else {
				valid = valid.And(den.CmpNE(zero))
			}
			if valid.None() {
				continue
			}

			// Ray masking test.
			if t.RayMask {
				triMask := simd.SplatU32(tri.Masks[i])
				valid = valid.And(triMask.And(ray.Mask).CmpNE(simd.Uint32x8{}))
				if valid.None() {
					continue
				}
			}

			// Calculate hit information.
			rcpAbsDen := absDen.Rcp()
			hitU := u.Mul(rcpAbsDen)
			hitV := v.Mul(rcpAbsDen)
			hitT := tt.Mul(rcpAbsDen)
			geomID := tri.GeomID(i, bvh.ListMode)
			primID := tri.PrimID(i, bvh.ListMode)

			// Intersection filter test.
			if t.EnableFilter {
				geometry := bvh.Scene.Get(geomID)
				if geometry.HasIntersectionFilter8() {
					geometry.RunIntersectionFilter8(valid, ray, &scene.Hit8{
						U: hitU, V: hitV, T: hitT,
						Ng:     ng,
						GeomID: geomID,
						PrimID: primID,
					})
					continue
				}
			}

			// Update hit information.
			ray.U.StoreMasked(valid, hitU)
			ray.V.StoreMasked(valid, hitV)
			ray.TFar.StoreMasked(valid, hitT)
			ray.GeomID.StoreMasked(valid, simd.SplatU32(geomID))
			ray.PrimID.StoreMasked(valid, simd.SplatU32(primID))
			ray.Ng.X.StoreMasked(valid, ng.X)
			ray.Ng.Y.StoreMasked(valid, ng.Y)
			ray.Ng.Z.StoreMasked(valid, ng.Z)
		}
	}
}
