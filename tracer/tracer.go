// Package tracer renders depth and id buffers by tracing eight-ray packets
// through a four-wide bounding volume hierarchy. Frames are split into row
// blocks which a pool of workers consumes in parallel.
package tracer

import (
	"fmt"
	"math"
	"runtime"
	"sync"
	"time"

	"github.com/madmann91/ratrace/log"
	"github.com/madmann91/ratrace/scene"
	"github.com/madmann91/ratrace/scene/bvh4"
	"github.com/madmann91/ratrace/simd"
)

// DefaultIntersector is used when Options does not name one.
const DefaultIntersector = "BVH4Triangle4Intersector8ChunkMoeller"

// Options control a frame render.
type Options struct {
	// Frame dimensions in pixels.
	FrameW, FrameH uint32

	// Number of tracing workers. Defaults to the number of CPUs.
	NumWorkers int

	// Intersector instantiation symbol. Defaults to DefaultIntersector.
	Intersector string
}

// Frame holds the per-pixel output of a render: hit distance and the ids of
// the closest primitive. Missed pixels carry +Inf depth and invalid ids.
type Frame struct {
	W, H uint32

	Depth   []float32
	GeomIDs []uint32
	PrimIDs []uint32
}

// DepthAt returns the depth value of pixel (x, y).
func (f *Frame) DepthAt(x, y uint32) float32 {
	return f.Depth[y*f.W+x]
}

// Render traces one primary ray per pixel and returns the frame buffers with
// render statistics.
func Render(bvh *bvh4.BVH4, cam *Camera, opts Options) (*Frame, *FrameStats, error) {
	if opts.FrameW == 0 || opts.FrameH == 0 {
		return nil, nil, fmt.Errorf("tracer: invalid frame dimensions %dx%d", opts.FrameW, opts.FrameH)
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = runtime.NumCPU()
	}
	if opts.Intersector == "" {
		opts.Intersector = DefaultIntersector
	}

	sink := &bvh4.CountingSink{}
	intersect, err := bvh4.LookupIntersector8(opts.Intersector, sink)
	if err != nil {
		return nil, nil, err
	}

	logger := log.New("tracer")
	logger.Noticef("rendering %dx%d frame using %d workers", opts.FrameW, opts.FrameH, opts.NumWorkers)

	frame := &Frame{
		W:       opts.FrameW,
		H:       opts.FrameH,
		Depth:   make([]float32, opts.FrameW*opts.FrameH),
		GeomIDs: make([]uint32, opts.FrameW*opts.FrameH),
		PrimIDs: make([]uint32, opts.FrameW*opts.FrameH),
	}

	stats := &FrameStats{
		Workers: make([]WorkerStat, opts.NumWorkers),
	}

	start := time.Now()
	rowChan := make(chan uint32, opts.NumWorkers)

	var wg sync.WaitGroup
	for w := 0; w < opts.NumWorkers; w++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			workerStart := time.Now()
			var rows uint32
			for y := range rowChan {
				traceRow(bvh, cam, intersect, frame, y)
				rows++
			}
			stats.Workers[id] = WorkerStat{
				ID:           id,
				Rows:         rows,
				FramePercent: 100.0 * float32(rows) / float32(opts.FrameH),
				RenderTime:   time.Since(workerStart),
			}
		}(w)
	}

	for y := uint32(0); y < opts.FrameH; y++ {
		rowChan <- y
	}
	close(rowChan)
	wg.Wait()

	stats.RenderTime = time.Since(start)
	stats.Rays = uint64(opts.FrameW) * uint64(opts.FrameH)
	stats.TravNodes = sink.TravNodes()
	stats.TravLeaves = sink.TravLeaves()
	stats.TravPrims = sink.TravPrims()

	logger.Noticef("frame rendered in %d ms", stats.RenderTime.Nanoseconds()/1e6)
	return frame, stats, nil
}

// traceRow renders one frame row in packets of eight horizontally adjacent
// pixels. The tail packet of a row deactivates its out-of-frame lanes.
func traceRow(bvh *bvh4.BVH4, cam *Camera, intersect bvh4.Intersector8, frame *Frame, y uint32) {
	inf := float32(math.Inf(1))
	ray := scene.NewRay8()

	for x := uint32(0); x < frame.W; x += 8 {
		ray.Reset()
		valid := simd.BoolFalse
		for lane := 0; lane < 8; lane++ {
			px := x + uint32(lane)
			if px >= frame.W {
				break
			}
			org, dir := cam.PrimaryRay(px, y)
			ray.SetRay(lane, org, dir, 0, inf)
			valid = valid.Or(simd.MaskLane(lane))
		}

		intersect(valid, bvh, ray)

		for lane := 0; lane < 8; lane++ {
			px := x + uint32(lane)
			if px >= frame.W {
				break
			}
			idx := y*frame.W + px
			if ray.HasHit(lane) {
				frame.Depth[idx] = ray.TFar[lane]
				frame.GeomIDs[idx] = ray.GeomID[lane]
				frame.PrimIDs[idx] = ray.PrimID[lane]
			} else {
				frame.Depth[idx] = inf
				frame.GeomIDs[idx] = scene.InvalidID
				frame.PrimIDs[idx] = scene.InvalidID
			}
		}
	}
}
