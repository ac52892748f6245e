package cmd

import (
	"bytes"
	"fmt"

	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

// Info loads a scene, builds its acceleration structure and prints shape
// statistics.
func Info(ctx *cli.Context) error {
	setupLogging(ctx)

	sc, bvh, err := loadScene(ctx)
	if err != nil {
		return err
	}

	stats := bvh.Stats()

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Metric", "Value"})
	table.Append([]string{"Geometries", fmt.Sprintf("%d", sc.NumGeometries())})
	table.Append([]string{"Triangles", fmt.Sprintf("%d", bvh.NumPrimitives)})
	table.Append([]string{"Vertices", fmt.Sprintf("%d", bvh.NumVertices)})
	table.Append([]string{"Inner nodes", fmt.Sprintf("%d", stats.Nodes)})
	table.Append([]string{"Leaves", fmt.Sprintf("%d", stats.Leaves)})
	table.Append([]string{"Triangle blocks", fmt.Sprintf("%d", stats.Blocks)})
	table.Append([]string{"Max depth", fmt.Sprintf("%d", stats.MaxDepth)})
	table.Render()

	logger.Noticef("tree statistics\n%s", buf.String())
	return nil
}
