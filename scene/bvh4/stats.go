package bvh4

import "sync/atomic"

// Counter identifies a traversal statistic.
type Counter uint8

const (
	// StatTravNodes counts visited inner nodes.
	StatTravNodes Counter = iota
	// StatTravLeaves counts visited leaves.
	StatTravLeaves
	// StatTravPrims counts tested primitives.
	StatTravPrims
)

// StatWidth is the SIMD width tagged onto every counter event.
const StatWidth = 8

// StatSink receives traversal counter events: the event count, the number of
// active lanes when it occurred, and the packet width. Implementations must
// be safe for concurrent use when traversals run in parallel.
type StatSink interface {
	Count(c Counter, n, activeLanes, width uint64)
}

func countStat(sink StatSink, c Counter, n, active int) {
	if sink != nil {
		sink.Count(c, uint64(n), uint64(active), StatWidth)
	}
}

// CountingSink accumulates counter totals.
type CountingSink struct {
	travNodes  uint64
	travLeaves uint64
	travPrims  uint64
	activeSum  uint64
}

func (s *CountingSink) Count(c Counter, n, activeLanes, width uint64) {
	switch c {
	case StatTravNodes:
		atomic.AddUint64(&s.travNodes, n)
	case StatTravLeaves:
		atomic.AddUint64(&s.travLeaves, n)
	case StatTravPrims:
		atomic.AddUint64(&s.travPrims, n)
	}
	atomic.AddUint64(&s.activeSum, activeLanes)
}

// TravNodes returns the accumulated inner node visits.
func (s *CountingSink) TravNodes() uint64 {
	return atomic.LoadUint64(&s.travNodes)
}

// TravLeaves returns the accumulated leaf visits.
func (s *CountingSink) TravLeaves() uint64 {
	return atomic.LoadUint64(&s.travLeaves)
}

// TravPrims returns the accumulated primitive tests.
func (s *CountingSink) TravPrims() uint64 {
	return atomic.LoadUint64(&s.travPrims)
}

// ActiveLanes returns the sum of active lane counts over all events.
func (s *CountingSink) ActiveLanes() uint64 {
	return atomic.LoadUint64(&s.activeSum)
}
