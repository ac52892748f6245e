package bvh4

import (
	"math"
	"sort"
	"time"

	"github.com/madmann91/ratrace/log"
	"github.com/madmann91/ratrace/scene"
	"github.com/madmann91/ratrace/types"
)

type Axis uint8

const (
	XAxis Axis = iota
	YAxis
	ZAxis

	// The builder will not attempt to calculate split candidates if the
	// node bbox along an axis is less than this threshold.
	minSideLength float32 = 1e-3

	// If the split step is less than this threshold the builder will not
	// evaluate split candidates.
	minSplitStep float32 = 1e-5

	// Maximal number of triangles representable by a single leaf.
	maxLeafItems = 4 * maxLeafBlocks
)

// BuildOptions tunes the builder.
type BuildOptions struct {
	// Minimum number of triangles required to keep partitioning; smaller
	// work lists become leaves. Defaults to 4 (one full block).
	MinLeafItems int
}

// A triangle staged for partitioning.
type buildItem struct {
	min, max, center types.Vec3
	v0, v1, v2       types.Vec3

	geomID, primID, mask uint32
}

// A candidate split and its score.
type splitScore struct {
	axis       Axis
	splitPoint float32

	leftCount, rightCount int
	score                 float32
}

type buildStats struct {
	partitionedItems int
	totalItems       int
	nodes            int
	leafs            int
	maxDepth         int
}

type builder struct {
	logger log.Logger

	// Node and primitive block arenas of the tree under construction.
	nodes []Node
	tris  []Triangle4

	// The minimum number of items that are required for creating a leaf.
	minLeafItems int

	// A channel for receiving score results.
	scoreChan chan splitScore

	stats buildStats
}

// Build constructs a BVH4 over all triangle meshes attached to the scene.
//
// The builder scores splits with the surface area heuristic
// (score = polygon count * bbox face area, lower is better), partitions each
// node twice to fill up to four children and packs leaf triangles into
// Triangle4 blocks.
func Build(sc *scene.Scene, opts BuildOptions) (*BVH4, error) {
	if opts.MinLeafItems <= 0 {
		opts.MinLeafItems = 4
	}

	b := &builder{
		logger:       log.New("bvh4"),
		nodes:        make([]Node, 0),
		tris:         make([]Triangle4, 0),
		minLeafItems: opts.MinLeafItems,
		scoreChan:    make(chan splitScore),
	}

	items, numVertices := stageItems(sc)
	b.stats.totalItems = len(items)

	bvh := &BVH4{
		Scene:         sc,
		PrimTy:        Triangle4Type,
		NumPrimitives: len(items),
		NumVertices:   numVertices,
	}

	if len(items) == 0 {
		bvh.Root = EmptyNode
		return bvh, nil
	}

	start := time.Now()
	root, _, _ := b.partition(items, 0)
	b.logger.Debugf(
		"tree build time: %d ms, maxDepth: %d, nodes: %d, leafs: %d",
		time.Since(start).Nanoseconds()/1e6,
		b.stats.maxDepth, b.stats.nodes, b.stats.leafs,
	)

	bvh.Root = root
	bvh.Nodes = b.nodes
	bvh.Tris = b.tris
	return bvh, nil
}

// Stage one build item per scene triangle.
func stageItems(sc *scene.Scene) ([]buildItem, int) {
	items := make([]buildItem, 0)
	numVertices := 0
	for g := 0; g < sc.NumGeometries(); g++ {
		geom := sc.Get(uint32(g))
		mesh := geom.Mesh()
		numVertices += len(mesh.Vertices)
		for t := 0; t < mesh.NumTriangles(); t++ {
			v0, v1, v2 := mesh.Triangle(t)
			min := types.MinVec3(v0, types.MinVec3(v1, v2))
			max := types.MaxVec3(v0, types.MaxVec3(v1, v2))
			items = append(items, buildItem{
				min:    min,
				max:    max,
				center: min.Add(max).Mul(0.5),
				v0:     v0, v1: v1, v2: v2,
				geomID: geom.ID(),
				primID: uint32(t),
				mask:   geom.Mask(),
			})
		}
	}
	return items, numVertices
}

// Partition the work list and return the resulting subtree reference with
// its bounds.
func (b *builder) partition(workList []buildItem, depth int) (NodeRef, types.Vec3, types.Vec3) {
	if depth > b.stats.maxDepth {
		b.stats.maxDepth = depth
	}

	min, max := itemBounds(workList)

	// Do we have enough items for partitioning? If not create a leaf.
	if len(workList) <= b.minLeafItems {
		return b.createLeaf(workList), min, max
	}

	// Past the build depth limit only createLeaf's bounded median path may
	// subdivide further; this keeps the tree within the traversal stack.
	if depth >= maxBuildDepth {
		return b.createLeaf(workList), min, max
	}

	left, right, ok := b.splitOnce(workList, min, max, depth)
	if !ok {
		if len(workList) <= maxLeafItems {
			return b.createLeaf(workList), min, max
		}
		// No split improves the score but the list exceeds one leaf;
		// force a median split along the longest axis.
		left, right = medianSplit(workList, max.Sub(min).MaxAxis())
	}

	// Refine both halves once more to fill up to four children.
	groups := make([][]buildItem, 0, width)
	for _, half := range [][]buildItem{left, right} {
		groups = append(groups, b.refine(half, depth)...)
	}

	nodeRef, _ := b.allocNode()
	b.stats.nodes++
	for i, group := range groups {
		childRef, cmin, cmax := b.partition(group, depth+1)
		// The arena may have been reallocated by the recursion.
		b.nodes[nodeRef.nodeIndex()].Set(i, cmin, cmax, childRef)
	}
	return nodeRef, min, max
}

// Split a half again when it is still worth partitioning.
func (b *builder) refine(half []buildItem, depth int) [][]buildItem {
	if len(half) > b.minLeafItems {
		hmin, hmax := itemBounds(half)
		if l, r, ok := b.splitOnce(half, hmin, hmax, depth); ok {
			return [][]buildItem{l, r}
		}
		if len(half) > maxLeafItems {
			l, r := medianSplit(half, hmax.Sub(hmin).MaxAxis())
			return [][]buildItem{l, r}
		}
	}
	return [][]buildItem{half}
}

// Find and apply the best scoring split. Returns false if no candidate beats
// the unsplit partition score.
func (b *builder) splitOnce(workList []buildItem, min, max types.Vec3, depth int) (left, right []buildItem, ok bool) {
	bestScore := scorePartition(workList, min, max)
	var bestSplit *splitScore

	// Run axis split tests in parallel.
	pendingScores := 0
	side := max.Sub(min)
	for axis := XAxis; axis <= ZAxis; axis++ {
		// Skip axis if bbox dimension is too small.
		if side[axis] < minSideLength {
			continue
		}

		// Split steps become more granular the deeper we go.
		splitStep := side[axis] / (256.0 / float32(depth+1))
		if splitStep < minSplitStep {
			continue
		}

		for splitPoint := min[axis] + splitStep; splitPoint < max[axis]; splitPoint += splitStep {
			pendingScores++
			go func(axis Axis, splitPoint float32) {
				lCount, rCount, score := scoreSplit(workList, axis, splitPoint)
				b.scoreChan <- splitScore{
					axis:       axis,
					splitPoint: splitPoint,
					leftCount:  lCount,
					rightCount: rCount,
					score:      score,
				}
			}(axis, splitPoint)
		}
	}

	// Process all scores and pick the best split.
	for ; pendingScores > 0; pendingScores-- {
		candidate := <-b.scoreChan
		if candidate.score < bestScore {
			bestScore = candidate.score
			c := candidate
			bestSplit = &c
		}
	}

	if bestSplit == nil {
		return nil, nil, false
	}

	left = make([]buildItem, 0, bestSplit.leftCount)
	right = make([]buildItem, 0, bestSplit.rightCount)
	for _, item := range workList {
		if item.center[bestSplit.axis] < bestSplit.splitPoint {
			left = append(left, item)
		} else {
			right = append(right, item)
		}
	}
	return left, right, true
}

// Setup a leaf containing all items in the work list. Oversized lists are
// recursively median-split until they fit the per-leaf block limit.
func (b *builder) createLeaf(workList []buildItem) NodeRef {
	if len(workList) == 0 {
		return EmptyNode
	}

	if len(workList) > maxLeafItems {
		min, max := itemBounds(workList)
		left, right := medianSplit(workList, max.Sub(min).MaxAxis())
		nodeRef, _ := b.allocNode()
		b.stats.nodes++
		for i, group := range [][]buildItem{left, right} {
			childRef := b.createLeaf(group)
			cmin, cmax := itemBounds(group)
			b.nodes[nodeRef.nodeIndex()].Set(i, cmin, cmax, childRef)
		}
		return nodeRef
	}

	numBlocks := (len(workList) + 3) / 4
	base := len(b.tris)
	for blk := 0; blk < numBlocks; blk++ {
		var tri Triangle4
		tri.Clear()
		for slot := 0; slot < 4; slot++ {
			idx := blk*4 + slot
			if idx >= len(workList) {
				break
			}
			item := &workList[idx]
			tri.Set(slot, item.v0, item.v1, item.v2, item.geomID, item.primID, item.mask)
		}
		b.tris = append(b.tris, tri)
	}

	b.stats.leafs++
	b.stats.partitionedItems += len(workList)
	return NewLeafRef(base, numBlocks)
}

// allocNode appends a cleared node to the builder arena.
func (b *builder) allocNode() (NodeRef, *Node) {
	b.nodes = append(b.nodes, Node{})
	node := &b.nodes[len(b.nodes)-1]
	node.Clear()
	return NewNodeRef(len(b.nodes) - 1), node
}

func itemBounds(items []buildItem) (min, max types.Vec3) {
	min = types.Vec3{math.MaxFloat32, math.MaxFloat32, math.MaxFloat32}
	max = types.Vec3{-math.MaxFloat32, -math.MaxFloat32, -math.MaxFloat32}
	for i := range items {
		min = types.MinVec3(min, items[i].min)
		max = types.MaxVec3(max, items[i].max)
	}
	return min, max
}

// Split the work list at the median center along the given axis.
func medianSplit(workList []buildItem, axis int) (left, right []buildItem) {
	sorted := make([]buildItem, len(workList))
	copy(sorted, workList)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].center[axis] < sorted[j].center[axis]
	})
	mid := len(sorted) / 2
	return sorted[:mid], sorted[mid:]
}

// Score a partition without splitting it: item count times bbox face area.
func scorePartition(workList []buildItem, min, max types.Vec3) float32 {
	return float32(len(workList)) * halfArea(min, max)
}

// Score a split based on the surface area heuristic (lower is better):
// left count * left bbox area + right count * right bbox area. Splits that
// produce an empty partition get the worst possible score.
func scoreSplit(workList []buildItem, axis Axis, splitPoint float32) (leftCount, rightCount int, score float32) {
	lmin := types.Vec3{math.MaxFloat32, math.MaxFloat32, math.MaxFloat32}
	rmin := types.Vec3{math.MaxFloat32, math.MaxFloat32, math.MaxFloat32}
	lmax := types.Vec3{-math.MaxFloat32, -math.MaxFloat32, -math.MaxFloat32}
	rmax := types.Vec3{-math.MaxFloat32, -math.MaxFloat32, -math.MaxFloat32}

	for i := range workList {
		item := &workList[i]
		if item.center[axis] < splitPoint {
			leftCount++
			lmin = types.MinVec3(lmin, item.min)
			lmax = types.MaxVec3(lmax, item.max)
		} else {
			rightCount++
			rmin = types.MinVec3(rmin, item.min)
			rmax = types.MaxVec3(rmax, item.max)
		}
	}

	if leftCount == 0 || rightCount == 0 {
		return leftCount, rightCount, math.MaxFloat32
	}
	return leftCount, rightCount,
		float32(leftCount)*halfArea(lmin, lmax) + float32(rightCount)*halfArea(rmin, rmax)
}

func halfArea(min, max types.Vec3) float32 {
	d := max.Sub(min)
	return d[0]*d[1] + d[1]*d[2] + d[2]*d[0]
}
