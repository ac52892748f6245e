package tracer

import "time"

// WorkerStat describes the work performed by a single tracing worker.
type WorkerStat struct {
	// The worker id.
	ID int

	// The number of rendered rows and the percentage of total frame area
	// they represent.
	Rows         uint32
	FramePercent float32

	// Render time for the assigned rows.
	RenderTime time.Duration
}

// FrameStats summarizes a rendered frame.
type FrameStats struct {
	// Individual worker stats.
	Workers []WorkerStat

	// Total render time for entire frame.
	RenderTime time.Duration

	// Total number of traced rays.
	Rays uint64

	// Traversal counters accumulated over all packets.
	TravNodes  uint64
	TravLeaves uint64
	TravPrims  uint64
}
