package bvh4

import (
	"testing"

	"github.com/madmann91/ratrace/log"
	"github.com/madmann91/ratrace/scene"
	"github.com/madmann91/ratrace/types"
)

func testBuilder() *builder {
	return &builder{
		logger:       log.New("bvh4"),
		minLeafItems: 4,
		scoreChan:    make(chan splitScore),
	}
}

// terrainMesh builds a bumpy height field over [0, cells] x [0, cells] with
// two triangles per cell. Heights are deterministic so tests are stable.
func terrainMesh(cells int) *scene.TriangleMesh {
	mesh := &scene.TriangleMesh{}

	for j := 0; j <= cells; j++ {
		for i := 0; i <= cells; i++ {
			h := float32((i*7+j*13)%11) * 0.15
			mesh.Vertices = append(mesh.Vertices, types.Vec3{float32(i), h, float32(j)})
		}
	}

	stride := uint32(cells + 1)
	for j := 0; j < cells; j++ {
		for i := 0; i < cells; i++ {
			a := uint32(j)*stride + uint32(i)
			b := a + 1
			c := a + stride
			d := c + 1
			mesh.Indices = append(mesh.Indices, [3]uint32{a, b, c}, [3]uint32{b, d, c})
		}
	}
	return mesh
}

func terrainScene(t *testing.T, cells int) *scene.Scene {
	t.Helper()
	sc := scene.NewScene()
	if _, err := sc.Attach(terrainMesh(cells)); err != nil {
		t.Fatalf("error attaching terrain: %v", err)
	}
	return sc
}

func TestBuildEmptyScene(t *testing.T) {
	bvh, err := Build(scene.NewScene(), BuildOptions{})
	if err != nil {
		t.Fatalf("error building empty scene: %v", err)
	}
	if bvh.Root != EmptyNode {
		t.Fatalf("expected empty root; got %#x", uint64(bvh.Root))
	}
	if bvh.NumPrimitives != 0 {
		t.Fatalf("expected 0 primitives; got %d", bvh.NumPrimitives)
	}
}

func TestBuildSingleTriangle(t *testing.T) {
	sc := scene.NewScene()
	mesh := &scene.TriangleMesh{
		Vertices: []types.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
		Indices:  [][3]uint32{{0, 1, 2}},
	}
	if _, err := sc.Attach(mesh); err != nil {
		t.Fatalf("error attaching mesh: %v", err)
	}

	bvh, err := Build(sc, BuildOptions{})
	if err != nil {
		t.Fatalf("error building tree: %v", err)
	}

	if !bvh.Root.IsLeaf() {
		t.Fatal("expected a single leaf root")
	}
	base, items := bvh.Root.Leaf()
	if base != 0 || items != 1 {
		t.Fatalf("expected leaf (0, 1); got (%d, %d)", base, items)
	}
	if !bvh.Tris[0].Valid(0) || bvh.Tris[0].Valid(1) {
		t.Fatal("expected exactly one valid slot in the leaf block")
	}
}

// Walk the tree and gather every primitive id stored in a leaf.
func collectPrimIDs(t *testing.T, bvh *BVH4, ref NodeRef, out map[uint32]int) {
	t.Helper()
	if ref == EmptyNode {
		return
	}
	if ref.IsLeaf() {
		base, items := ref.Leaf()
		if items > maxLeafBlocks {
			t.Fatalf("leaf holds %d blocks; limit is %d", items, maxLeafBlocks)
		}
		for b := 0; b < items; b++ {
			tri := &bvh.Tris[base+b]
			for i := 0; i < 4; i++ {
				if !tri.Valid(i) {
					continue
				}
				out[tri.PrimID(i, false)]++
			}
		}
		return
	}
	node := bvh.node(ref)
	for i := 0; i < width; i++ {
		if node.Children[i] == EmptyNode {
			break
		}
		collectPrimIDs(t, bvh, node.Children[i], out)
	}
}

func TestBuildKeepsAllPrimitives(t *testing.T) {
	sc := terrainScene(t, 8)
	bvh, err := Build(sc, BuildOptions{})
	if err != nil {
		t.Fatalf("error building tree: %v", err)
	}

	numTris := sc.Get(0).Mesh().NumTriangles()
	if bvh.NumPrimitives != numTris {
		t.Fatalf("expected %d primitives; got %d", numTris, bvh.NumPrimitives)
	}

	seen := make(map[uint32]int)
	collectPrimIDs(t, bvh, bvh.Root, seen)
	if len(seen) != numTris {
		t.Fatalf("expected %d distinct primitives in the tree; got %d", numTris, len(seen))
	}
	for id, count := range seen {
		if count != 1 {
			t.Fatalf("primitive %d appears %d times; expected once", id, count)
		}
	}
}

// Verify that every leaf triangle lies inside the bounds its parent node
// advertises for the child.
func checkContainment(t *testing.T, bvh *BVH4, ref NodeRef, lower, upper types.Vec3) {
	t.Helper()
	const eps float32 = 1e-4

	if ref == EmptyNode {
		return
	}
	if ref.IsLeaf() {
		base, items := ref.Leaf()
		for b := 0; b < items; b++ {
			tri := &bvh.Tris[base+b]
			for i := 0; i < 4; i++ {
				if !tri.Valid(i) {
					continue
				}
				v0 := types.Vec3{tri.V0x[i], tri.V0y[i], tri.V0z[i]}
				e1 := types.Vec3{tri.E1x[i], tri.E1y[i], tri.E1z[i]}
				e2 := types.Vec3{tri.E2x[i], tri.E2y[i], tri.E2z[i]}
				for _, v := range []types.Vec3{v0, v0.Sub(e1), v0.Add(e2)} {
					for axis := 0; axis < 3; axis++ {
						if v[axis] < lower[axis]-eps || v[axis] > upper[axis]+eps {
							t.Fatalf("vertex %v escapes bounds [%v, %v] on axis %d", v, lower, upper, axis)
						}
					}
				}
			}
		}
		return
	}
	node := bvh.node(ref)
	for i := 0; i < width; i++ {
		if node.Children[i] == EmptyNode {
			break
		}
		clower, cupper := node.Bounds(i)
		checkContainment(t, bvh, node.Children[i], clower, cupper)
	}
}

func TestBuildBoundsContainment(t *testing.T) {
	sc := terrainScene(t, 8)
	bvh, err := Build(sc, BuildOptions{})
	if err != nil {
		t.Fatalf("error building tree: %v", err)
	}

	inf := float32(1e30)
	checkContainment(t, bvh, bvh.Root, types.Vec3{-inf, -inf, -inf}, types.Vec3{inf, inf, inf})
}

func TestBuildTreeShape(t *testing.T) {
	sc := terrainScene(t, 8)
	bvh, err := Build(sc, BuildOptions{})
	if err != nil {
		t.Fatalf("error building tree: %v", err)
	}

	stats := bvh.Stats()
	if stats.Leaves == 0 {
		t.Fatal("expected at least one leaf")
	}
	if stats.MaxDepth > maxBuildDepthLeaf {
		t.Fatalf("tree depth %d exceeds limit %d", stats.MaxDepth, maxBuildDepthLeaf)
	}
	if len(bvh.Nodes) != stats.Nodes {
		t.Fatalf("arena holds %d nodes; stats counted %d", len(bvh.Nodes), stats.Nodes)
	}
}

func TestPartitionDepthCap(t *testing.T) {
	// A work list the heuristic would happily keep splitting.
	items, _ := stageItems(terrainScene(t, 2))

	b := testBuilder()
	ref, _, _ := b.partition(items, 0)
	if ref.IsLeaf() {
		t.Fatal("expected a shallow work list to be split")
	}

	b = testBuilder()
	ref, _, _ = b.partition(items, maxBuildDepth)
	if !ref.IsLeaf() {
		t.Fatal("expected a leaf once the build depth limit is reached")
	}
}

func TestPartitionDepthCapOversizeList(t *testing.T) {
	// More triangles than one leaf can hold: past the depth limit the
	// builder may only subdivide through median splits, which halve the
	// list each level and terminate well before the stack sizing allows.
	sc := terrainScene(t, 4)
	items, _ := stageItems(sc)
	if len(items) <= maxLeafItems {
		t.Fatalf("expected more than %d staged items; got %d", maxLeafItems, len(items))
	}

	b := testBuilder()
	root, _, _ := b.partition(items, maxBuildDepth)

	bvh := &BVH4{Root: root, Scene: sc, PrimTy: Triangle4Type, Nodes: b.nodes, Tris: b.tris}
	seen := make(map[uint32]int)
	collectPrimIDs(t, bvh, root, seen)
	if len(seen) != len(items) {
		t.Fatalf("expected %d primitives below the capped subtree; got %d", len(items), len(seen))
	}

	stats := bvh.Stats()
	if limit := maxBuildDepthLeaf - maxBuildDepth; stats.MaxDepth > limit {
		t.Fatalf("median fallback produced depth %d; limit is %d", stats.MaxDepth, limit)
	}
}

func TestBuildMultipleGeometries(t *testing.T) {
	sc := scene.NewScene()
	if _, err := sc.Attach(terrainMesh(2)); err != nil {
		t.Fatalf("error attaching terrain: %v", err)
	}
	second, err := sc.Attach(&scene.TriangleMesh{
		Vertices: []types.Vec3{{20, 0, 0}, {21, 0, 0}, {20, 1, 0}},
		Indices:  [][3]uint32{{0, 1, 2}},
	})
	if err != nil {
		t.Fatalf("error attaching mesh: %v", err)
	}

	bvh, err := Build(sc, BuildOptions{})
	if err != nil {
		t.Fatalf("error building tree: %v", err)
	}

	// Both geometry ids must survive into the leaves.
	seenGeoms := make(map[uint32]bool)
	var walk func(NodeRef)
	walk = func(ref NodeRef) {
		if ref == EmptyNode {
			return
		}
		if ref.IsLeaf() {
			base, items := ref.Leaf()
			for b := 0; b < items; b++ {
				tri := &bvh.Tris[base+b]
				for i := 0; i < 4; i++ {
					if tri.Valid(i) {
						seenGeoms[tri.GeomID(i, false)] = true
					}
				}
			}
			return
		}
		node := bvh.node(ref)
		for i := 0; i < width; i++ {
			if node.Children[i] == EmptyNode {
				break
			}
			walk(node.Children[i])
		}
	}
	walk(bvh.Root)

	if !seenGeoms[0] || !seenGeoms[second.ID()] {
		t.Fatalf("expected geometries 0 and %d in the tree; got %v", second.ID(), seenGeoms)
	}
}
