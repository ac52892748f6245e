package scene

import (
	"fmt"

	"github.com/madmann91/ratrace/types"
)

// A triangle mesh. Vertices are shared between triangles through the index
// triples.
type TriangleMesh struct {
	Vertices []types.Vec3
	Indices  [][3]uint32
}

// NumTriangles returns the triangle count.
func (m *TriangleMesh) NumTriangles() int {
	return len(m.Indices)
}

// Triangle returns the vertices of triangle i.
func (m *TriangleMesh) Triangle(i int) (v0, v1, v2 types.Vec3) {
	idx := m.Indices[i]
	return m.Vertices[idx[0]], m.Vertices[idx[1]], m.Vertices[idx[2]]
}

// Validate checks that all triangle indices reference mesh vertices.
func (m *TriangleMesh) Validate() error {
	for i, idx := range m.Indices {
		for _, v := range idx {
			if int(v) >= len(m.Vertices) {
				return fmt.Errorf("scene: triangle %d references missing vertex %d", i, v)
			}
		}
	}
	return nil
}
