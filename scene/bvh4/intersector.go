package bvh4

import (
	"fmt"

	"github.com/madmann91/ratrace/scene"
	"github.com/madmann91/ratrace/simd"
)

// Precalculations is the per-traversal state of a primitive intersector,
// derived once from the input rays and reused across all visited leaves.
type Precalculations interface{}

// PrimitiveIntersector8 intersects the primitive blocks of one leaf with a
// ray packet. Implementations update the ray's hit fields in place under the
// lane mask and may only shrink TFar.
type PrimitiveIntersector8 interface {
	Precalculate(valid simd.Bool8, ray *scene.Ray8) Precalculations
	Intersect(valid simd.Bool8, pre Precalculations, ray *scene.Ray8, base, items int, bvh *BVH4)
}

// Intersector8 finds the nearest primitive intersection for each active ray
// in the packet. All outputs are written to the ray.
type Intersector8 func(valid simd.Bool8, bvh *BVH4, ray *scene.Ray8)

// NewIntersector8Chunk builds a chunk traversal over the given primitive
// intersector. nodeTypes is the bitset of node kinds the tree may contain;
// only TyNodeFlag is implemented. robust selects the widened slab test.
func NewIntersector8Chunk(nodeTypes int, robust bool, prim PrimitiveIntersector8, stats StatSink) Intersector8 {
	return func(valid simd.Bool8, bvh *BVH4, ray *scene.Ray8) {
		intersect8Chunk(nodeTypes, robust, prim, stats, valid, bvh, ray)
	}
}

// intersect8Chunk is the depth-first stack machine shared by all chunk
// instantiations. The whole packet is treated as one unit: descent decisions
// branch on per-packet any/none predicates while per-lane activity is carried
// in the masks and distances.
func intersect8Chunk(nodeTypes int, robust bool, prim PrimitiveIntersector8, stats StatSink, valid simd.Bool8, bvh *BVH4, ray *scene.Ray8) {
	// Load ray. Inactive lanes get an inverted interval so every slab test
	// culls them.
	org := ray.Org
	rdir := ray.Dir.RcpSafe()
	orgRdir := org.Mul(rdir)
	rayTNear := simd.Select(valid, ray.TNear, simd.PosInf8())
	rayTFar := simd.Select(valid, ray.TFar, simd.NegInf8())
	inf := simd.PosInf8()
	pre := prim.Precalculate(valid, ray)

	// Allocate stack and push the root under the bottom marker.
	var stackNode [stackSize]NodeRef
	var stackNear [stackSize]simd.Float8
	stackNode[0] = InvalidNode
	stackNear[0] = inf
	stackNode[1] = bvh.Root
	stackNear[1] = rayTNear
	sp := 2

	for {
		// Pop next node from stack.
		sp--
		cur := stackNode[sp]
		curDist := stackNear[sp]
		if cur == InvalidNode {
			break
		}

		// Cull node if behind closest hit point.
		if rayTFar.CmpGT(curDist).None() {
			continue
		}

		for {
			if nodeTypes&TyNodeFlag != 0 && cur.IsNode() {
				validNode := rayTFar.CmpGT(curDist)
				countStat(stats, StatTravNodes, 1, validNode.Popcount())
				node := bvh.node(cur)

				// Pop of next node: the candidate successor if no
				// child beats it.
				sp--
				cur = stackNode[sp]
				curDist = stackNear[sp]

				for i := 0; i < width; i++ {
					child := node.Children[i]
					if child == EmptyNode {
						break
					}
					lhit, lnearP := node.intersect8(i, org, rdir, orgRdir, rayTNear, rayTFar, robust)

					// If we hit the child we continue with it when it
					// is closer than the current next node, otherwise
					// we push it onto the stack.
					if lhit.Any() {
						childDist := simd.Select(lhit, lnearP, inf)
						if childDist.CmpLT(curDist).Any() {
							stackNode[sp] = cur
							stackNear[sp] = curDist
							sp++
							cur = child
							curDist = childDist
						} else {
							stackNode[sp] = child
							stackNear[sp] = childDist
							sp++
						}
					}
				}
			} else {
				// Leaf, or a node kind outside the configured bitset
				// (motion blur and unaligned dispatch hooks).
				break
			}
		}

		// Return if stack is empty.
		if cur == InvalidNode {
			break
		}

		// Intersect leaf.
		validLeaf := rayTFar.CmpGT(curDist)
		countStat(stats, StatTravLeaves, 1, validLeaf.Popcount())
		base, items := cur.Leaf()
		prim.Intersect(validLeaf, pre, ray, base, items, bvh)
		rayTFar = simd.Select(validLeaf, ray.TFar, rayTFar)
	}
}

// NewTriangle4Intersector8ChunkMoeller returns the canonical Triangle4
// chunk intersector with intersection filters enabled.
func NewTriangle4Intersector8ChunkMoeller(stats StatSink) Intersector8 {
	prim := &Triangle4MoellerTrumbore{EnableFilter: true, RayMask: true, Stats: stats}
	return NewIntersector8Chunk(TyNodeFlag, false, prim, stats)
}

// NewTriangle4Intersector8ChunkMoellerNoFilter returns the Triangle4 chunk
// intersector with intersection filters compiled out.
func NewTriangle4Intersector8ChunkMoellerNoFilter(stats StatSink) Intersector8 {
	prim := &Triangle4MoellerTrumbore{EnableFilter: false, RayMask: true, Stats: stats}
	return NewIntersector8Chunk(TyNodeFlag, false, prim, stats)
}

// NewTriangle4Intersector8ChunkRobustMoeller returns the Triangle4 chunk
// intersector using the widened slab test.
func NewTriangle4Intersector8ChunkRobustMoeller(stats StatSink) Intersector8 {
	prim := &Triangle4MoellerTrumbore{EnableFilter: true, RayMask: true, Stats: stats}
	return NewIntersector8Chunk(TyNodeFlag, true, prim, stats)
}

// LookupIntersector8 resolves a registered intersector instantiation by
// symbol name.
func LookupIntersector8(name string, stats StatSink) (Intersector8, error) {
	switch name {
	case "BVH4Triangle4Intersector8ChunkMoeller":
		return NewTriangle4Intersector8ChunkMoeller(stats), nil
	case "BVH4Triangle4Intersector8ChunkMoellerNoFilter":
		return NewTriangle4Intersector8ChunkMoellerNoFilter(stats), nil
	case "BVH4Triangle4Intersector8ChunkRobustMoeller":
		return NewTriangle4Intersector8ChunkRobustMoeller(stats), nil
	}
	return nil, fmt.Errorf("bvh4: unknown intersector %q", name)
}
