// Package bvh4 implements a four-wide bounding volume hierarchy and its
// eight-ray packet traversal kernels. Inner nodes store the bounds of their
// four children in struct-of-arrays form; leaves reference blocks of four
// triangles packed for SIMD-style intersection.
package bvh4

import (
	"math"

	"github.com/madmann91/ratrace/scene"
	"github.com/madmann91/ratrace/simd"
	"github.com/madmann91/ratrace/types"
)

const (
	// Branching width of the tree.
	width = 4

	// Number of low reference bits reserved for the type tag. Maximally
	// 2^alignment-1 primitive blocks per leaf are representable.
	alignment = 4

	// Masks the tag bits of a NodeRef.
	alignMask uint64 = 1<<alignment - 1
	itemsMask uint64 = 1<<alignment - 1

	// The highest reference bit is reserved as a barrier flag for
	// build-time tree rotations. Traversal never follows a barrier ref.
	barrierMask uint64 = 1 << 63

	// Type tags. Inner nodes use tag 0; leaves encode tyLeaf+items.
	tyNode uint64 = 0
	tyLeaf uint64 = 8

	// Maximal number of primitive blocks in a leaf.
	maxLeafBlocks = int(itemsMask - tyLeaf)

	// Maximal tree depths.
	maxBuildDepth     = 32
	maxBuildDepthLeaf = maxBuildDepth + 16
	maxDepth          = maxBuildDepthLeaf + maxBuildDepthLeaf + maxBuildDepth

	// Traversal stack depth.
	stackSize = 4*maxDepth + 1
)

// Node type bitset accepted by a traversal instantiation. Only aligned inner
// nodes are implemented; the remaining bits are dispatch hooks for motion
// blur and unaligned node variants.
const (
	TyNodeFlag            = 0x1
	TyNodeMBFlag          = 0x10
	TyUnalignedNodeFlag   = 0x100
	TyUnalignedNodeMBFlag = 0x1000
)

// NodeRef is a tagged reference to a node or a leaf. The low alignment bits
// carry the type tag, the remaining bits an arena index.
type NodeRef uint64

const (
	// EmptyNode is a leaf with zero items; it terminates the child list of
	// an inner node.
	EmptyNode NodeRef = NodeRef(tyLeaf)

	// InvalidNode marks the bottom of the traversal stack.
	InvalidNode NodeRef = NodeRef((^uint64(0) &^ itemsMask) | tyLeaf)
)

// NewNodeRef builds a reference to the inner node at the given arena index.
func NewNodeRef(index int) NodeRef {
	return NodeRef(uint64(index) << alignment)
}

// NewLeafRef builds a reference to items primitive blocks starting at the
// given arena index.
func NewLeafRef(base int, items int) NodeRef {
	return NodeRef(uint64(base)<<alignment | (tyLeaf + uint64(items)))
}

// IsNode checks if this is an aligned inner node.
func (r NodeRef) IsNode() bool {
	return uint64(r)&alignMask == tyNode
}

// IsLeaf checks if this is a leaf.
func (r NodeRef) IsLeaf() bool {
	return uint64(r)&tyLeaf != 0
}

// nodeIndex returns the arena index of an inner node reference.
func (r NodeRef) nodeIndex() int {
	return int((uint64(r) &^ alignMask) >> alignment)
}

// Leaf decodes a leaf reference into its primitive block base index and item
// count.
func (r NodeRef) Leaf() (base int, items int) {
	base = int((uint64(r) &^ alignMask) >> alignment)
	items = int(uint64(r)&itemsMask - tyLeaf)
	return base, items
}

// SetBarrier sets the barrier flag.
func (r NodeRef) SetBarrier() NodeRef {
	return NodeRef(uint64(r) | barrierMask)
}

// ClearBarrier clears the barrier flag.
func (r NodeRef) ClearBarrier() NodeRef {
	return NodeRef(uint64(r) &^ barrierMask)
}

// IsBarrier checks the barrier flag.
func (r NodeRef) IsBarrier() bool {
	return uint64(r)&barrierMask != 0
}

// Node is a four-wide inner node. The child bounds are stored as six 4-lane
// slabs so that one child's box is a column across the slabs. The children
// array is left-packed: the first EmptyNode terminates it.
type Node struct {
	LowerX, UpperX [4]float32
	LowerY, UpperY [4]float32
	LowerZ, UpperZ [4]float32

	Children [4]NodeRef
}

// Clear resets all children to empty with inverted bounds.
func (n *Node) Clear() {
	inf := float32(math.Inf(1))
	for i := 0; i < width; i++ {
		n.LowerX[i], n.LowerY[i], n.LowerZ[i] = inf, inf, inf
		n.UpperX[i], n.UpperY[i], n.UpperZ[i] = -inf, -inf, -inf
		n.Children[i] = EmptyNode
	}
}

// Set stores the bounds and reference of child i.
func (n *Node) Set(i int, lower, upper types.Vec3, child NodeRef) {
	n.LowerX[i], n.LowerY[i], n.LowerZ[i] = lower[0], lower[1], lower[2]
	n.UpperX[i], n.UpperY[i], n.UpperZ[i] = upper[0], upper[1], upper[2]
	n.Children[i] = child
}

// Bounds returns the bounds of child i.
func (n *Node) Bounds(i int) (lower, upper types.Vec3) {
	lower = types.Vec3{n.LowerX[i], n.LowerY[i], n.LowerZ[i]}
	upper = types.Vec3{n.UpperX[i], n.UpperY[i], n.UpperZ[i]}
	return lower, upper
}

// Slab widening factors for the robust ray-box test: two ulp on each side
// guarantee watertightness with adjacent siblings despite rounding.
const (
	ulp       float32 = 1.1920929e-07
	roundDown float32 = 1.0 - 2.0*ulp
	roundUp   float32 = 1.0 + 2.0*ulp
)

// intersect8 clips the eight rays against the box of child i and returns the
// hit mask together with the near clipping distance. The fast path compares
// through integer min/max on the lane bit patterns; the robust path widens
// the slab by two ulp per side.
func (n *Node) intersect8(i int, org, rdir, orgRdir simd.Vec3x8, tnear, tfar simd.Float8, robust bool) (lhit simd.Bool8, dist simd.Float8) {
	if robust {
		// (bound - org) * rdir keeps each axis clip independent of the
		// rounding of org*rdir.
		lclipMinX := simd.Splat(n.LowerX[i]).Sub(org.X).Mul(rdir.X)
		lclipMinY := simd.Splat(n.LowerY[i]).Sub(org.Y).Mul(rdir.Y)
		lclipMinZ := simd.Splat(n.LowerZ[i]).Sub(org.Z).Mul(rdir.Z)
		lclipMaxX := simd.Splat(n.UpperX[i]).Sub(org.X).Mul(rdir.X)
		lclipMaxY := simd.Splat(n.UpperY[i]).Sub(org.Y).Mul(rdir.Y)
		lclipMaxZ := simd.Splat(n.UpperZ[i]).Sub(org.Z).Mul(rdir.Z)

		lnearP := lclipMinX.Min(lclipMaxX).Max(lclipMinY.Min(lclipMaxY)).Max(lclipMinZ.Min(lclipMaxZ))
		lfarP := lclipMinX.Max(lclipMaxX).Min(lclipMinY.Max(lclipMaxY)).Min(lclipMinZ.Max(lclipMaxZ))
		near := lnearP.Max(tnear).Mul(simd.Splat(roundDown))
		far := lfarP.Min(tfar).Mul(simd.Splat(roundUp))
		return near.CmpLE(far), lnearP
	}

	lclipMinX := simd.Msub(simd.Splat(n.LowerX[i]), rdir.X, orgRdir.X)
	lclipMinY := simd.Msub(simd.Splat(n.LowerY[i]), rdir.Y, orgRdir.Y)
	lclipMinZ := simd.Msub(simd.Splat(n.LowerZ[i]), rdir.Z, orgRdir.Z)
	lclipMaxX := simd.Msub(simd.Splat(n.UpperX[i]), rdir.X, orgRdir.X)
	lclipMaxY := simd.Msub(simd.Splat(n.UpperY[i]), rdir.Y, orgRdir.Y)
	lclipMaxZ := simd.Msub(simd.Splat(n.UpperZ[i]), rdir.Z, orgRdir.Z)

	lnearP := lclipMinX.MinInt(lclipMaxX).MaxInt(lclipMinY.MinInt(lclipMaxY)).MaxInt(lclipMinZ.MinInt(lclipMaxZ))
	lfarP := lclipMinX.MaxInt(lclipMaxX).MinInt(lclipMinY.MaxInt(lclipMaxY)).MinInt(lclipMinZ.MaxInt(lclipMaxZ))
	lhit = lnearP.MaxInt(tnear).CmpLE(lfarP.MinInt(tfar))
	return lhit, lnearP
}

// PrimitiveType describes the primitive blocks stored in the leaves.
type PrimitiveType struct {
	Name      string
	BlockSize int
}

// Triangle4Type is the canonical primitive: blocks of four triangles.
var Triangle4Type = PrimitiveType{Name: "triangle4", BlockSize: 4}

// BVH4 is a four-wide bounding volume hierarchy. Nodes and primitive blocks
// live in arenas owned by the tree; NodeRef values index into them. The
// caller guarantees the tree outlives any traversal.
type BVH4 struct {
	Root   NodeRef
	Scene  *scene.Scene
	PrimTy PrimitiveType

	// ListMode controls whether leaf item counts are encoded in the
	// NodeRef (false) or in the primitive payload itself (true).
	ListMode bool

	Nodes []Node
	Tris  []Triangle4

	NumPrimitives int
	NumVertices   int
}

// node resolves an inner node reference.
func (b *BVH4) node(ref NodeRef) *Node {
	return &b.Nodes[ref.nodeIndex()]
}

// TreeStats summarizes the shape of a built tree.
type TreeStats struct {
	Nodes    int
	Leaves   int
	Blocks   int
	MaxDepth int
}

// Stats walks the tree and collects shape statistics.
func (b *BVH4) Stats() TreeStats {
	var st TreeStats
	b.collectStats(b.Root, 1, &st)
	return st
}

func (b *BVH4) collectStats(ref NodeRef, depth int, st *TreeStats) {
	if ref == InvalidNode || ref == EmptyNode {
		return
	}
	if depth > st.MaxDepth {
		st.MaxDepth = depth
	}
	if ref.IsLeaf() {
		_, items := ref.Leaf()
		st.Leaves++
		st.Blocks += items
		return
	}
	st.Nodes++
	node := b.node(ref)
	for i := 0; i < width; i++ {
		if node.Children[i] == EmptyNode {
			break
		}
		b.collectStats(node.Children[i], depth+1, st)
	}
}
