package scene

import (
	"fmt"

	"github.com/madmann91/ratrace/simd"
)

// Hit8 carries a candidate hit for up to eight lanes, as produced by a
// primitive intersector before writeback.
type Hit8 struct {
	U, V, T simd.Float8
	Ng      simd.Vec3x8
	GeomID  uint32
	PrimID  uint32
}

// IntersectionFilter8 inspects a candidate hit and returns the lanes that
// accept it. Lanes outside valid must not be returned.
type IntersectionFilter8 func(valid simd.Bool8, ray *Ray8, hit *Hit8) simd.Bool8

// Geometry wraps a triangle mesh together with its ray visibility mask and
// optional intersection filter callback.
type Geometry struct {
	id      uint32
	mesh    *TriangleMesh
	mask    uint32
	filter8 IntersectionFilter8
}

// Get geometry id.
func (g *Geometry) ID() uint32 {
	return g.id
}

// Get the wrapped mesh.
func (g *Geometry) Mesh() *TriangleMesh {
	return g.mesh
}

// Get the ray visibility mask.
func (g *Geometry) Mask() uint32 {
	return g.mask
}

// Set the ray visibility mask.
func (g *Geometry) SetMask(mask uint32) {
	g.mask = mask
}

// Register an intersection filter for 8-wide ray packets.
func (g *Geometry) SetIntersectionFilter8(filter IntersectionFilter8) {
	g.filter8 = filter
}

// HasIntersectionFilter8 reports whether a packet filter is registered.
func (g *Geometry) HasIntersectionFilter8() bool {
	return g.filter8 != nil
}

// RunIntersectionFilter8 invokes the registered filter on a candidate hit and
// commits it to the accepted lanes. The filter decides which lanes commit;
// rejected lanes keep their previous hit.
func (g *Geometry) RunIntersectionFilter8(valid simd.Bool8, ray *Ray8, hit *Hit8) {
	accept := g.filter8(valid, ray, hit) & valid
	if accept.None() {
		return
	}
	ray.U.StoreMasked(accept, hit.U)
	ray.V.StoreMasked(accept, hit.V)
	ray.TFar.StoreMasked(accept, hit.T)
	ray.Ng.X.StoreMasked(accept, hit.Ng.X)
	ray.Ng.Y.StoreMasked(accept, hit.Ng.Y)
	ray.Ng.Z.StoreMasked(accept, hit.Ng.Z)
	ray.GeomID.StoreMasked(accept, simd.SplatU32(hit.GeomID))
	ray.PrimID.StoreMasked(accept, simd.SplatU32(hit.PrimID))
}

// Scene is an ordered collection of geometries. It is immutable during
// traversal; geometries are registered up front and addressed by id.
type Scene struct {
	geometries []*Geometry
}

func NewScene() *Scene {
	return &Scene{geometries: make([]*Geometry, 0)}
}

// Attach a mesh to the scene and return its geometry.
func (s *Scene) Attach(mesh *TriangleMesh) (*Geometry, error) {
	if err := mesh.Validate(); err != nil {
		return nil, err
	}
	geom := &Geometry{
		id:   uint32(len(s.geometries)),
		mesh: mesh,
		mask: 0xffffffff,
	}
	s.geometries = append(s.geometries, geom)
	return geom, nil
}

// Get the geometry with the given id.
func (s *Scene) Get(geomID uint32) *Geometry {
	if geomID >= uint32(len(s.geometries)) {
		panic(fmt.Sprintf("scene: unknown geometry id %d", geomID))
	}
	return s.geometries[geomID]
}

// NumGeometries returns the geometry count.
func (s *Scene) NumGeometries() int {
	return len(s.geometries)
}
