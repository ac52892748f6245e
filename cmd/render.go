package cmd

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"math"
	"os"
	"time"

	"github.com/madmann91/ratrace/tracer"
	"github.com/madmann91/ratrace/types"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

// Render a still depth frame.
func RenderFrame(ctx *cli.Context) error {
	setupLogging(ctx)

	_, bvh, err := loadScene(ctx)
	if err != nil {
		return err
	}

	eye, err := parseVec3(ctx.String("eye"))
	if err != nil {
		return err
	}
	target, err := parseVec3(ctx.String("target"))
	if err != nil {
		return err
	}

	opts := tracer.Options{
		FrameW:      uint32(ctx.Int("width")),
		FrameH:      uint32(ctx.Int("height")),
		NumWorkers:  ctx.Int("workers"),
		Intersector: ctx.String("intersector"),
	}

	cam := tracer.NewCamera(
		eye, target, types.Vec3{0, 1, 0},
		float32(ctx.Float64("fov")),
		opts.FrameW, opts.FrameH,
	)

	frame, stats, err := tracer.Render(bvh, cam, opts)
	if err != nil {
		return err
	}

	// Export PNG
	imgFile := ctx.String("out")
	f, err := os.Create(imgFile)
	if err != nil {
		return err
	}
	defer f.Close()

	start := time.Now()
	if err = png.Encode(f, depthImage(frame)); err != nil {
		return err
	}
	logger.Noticef("wrote frame to %s in %d ms", imgFile, time.Since(start).Nanoseconds()/1e6)

	// Display stats
	displayFrameStats(stats)

	return nil
}

// Map the frame's depth buffer to a grayscale image. Closer hits render
// brighter; missed pixels stay black.
func depthImage(frame *tracer.Frame) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, int(frame.W), int(frame.H)))

	minDepth := float32(math.Inf(1))
	maxDepth := float32(math.Inf(-1))
	for _, d := range frame.Depth {
		if math.IsInf(float64(d), 1) {
			continue
		}
		if d < minDepth {
			minDepth = d
		}
		if d > maxDepth {
			maxDepth = d
		}
	}

	depthRange := maxDepth - minDepth
	if depthRange <= 0 {
		depthRange = 1
	}

	for i, d := range frame.Depth {
		if math.IsInf(float64(d), 1) {
			continue
		}
		img.Pix[i] = uint8(255.0 * (1.0 - (d-minDepth)/depthRange*0.9))
	}
	return img
}

func displayFrameStats(stats *tracer.FrameStats) {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Worker", "Rows", "% of frame", "Render time"})
	for _, stat := range stats.Workers {
		table.Append([]string{
			fmt.Sprintf("%d", stat.ID),
			fmt.Sprintf("%d", stat.Rows),
			fmt.Sprintf("%02.1f %%", stat.FramePercent),
			fmt.Sprintf("%s", stat.RenderTime),
		})
	}
	table.SetFooter([]string{"", "", "TOTAL", fmt.Sprintf("%s", stats.RenderTime)})
	table.Render()
	logger.Noticef("frame statistics\n%s", buf.String())

	logger.Noticef(
		"traversal statistics: %d rays, %d node visits, %d leaf visits, %d primitive tests",
		stats.Rays, stats.TravNodes, stats.TravLeaves, stats.TravPrims,
	)
}
