package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/madmann91/ratrace/scene"
	"github.com/madmann91/ratrace/scene/bvh4"
	"github.com/madmann91/ratrace/types"
	"github.com/urfave/cli"
)

// Load the wavefront files given as command arguments into a scene and build
// its acceleration structure.
func loadScene(ctx *cli.Context) (*scene.Scene, *bvh4.BVH4, error) {
	if ctx.NArg() == 0 {
		return nil, nil, errors.New("missing scene file argument")
	}

	sc := scene.NewScene()
	for _, file := range ctx.Args() {
		mesh, err := scene.ReadWavefront(file)
		if err != nil {
			return nil, nil, err
		}
		if _, err := sc.Attach(mesh); err != nil {
			return nil, nil, err
		}
	}

	bvh, err := bvh4.Build(sc, bvh4.BuildOptions{})
	if err != nil {
		return nil, nil, err
	}
	return sc, bvh, nil
}

// Parse a comma-separated vector flag like "0,1.5,-4".
func parseVec3(value string) (types.Vec3, error) {
	var out types.Vec3
	fields := strings.Split(value, ",")
	if len(fields) != 3 {
		return out, fmt.Errorf("expected 3 comma-separated values; got %q", value)
	}
	for i, field := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(field), 32)
		if err != nil {
			return out, fmt.Errorf("invalid vector component %q", field)
		}
		out[i] = float32(v)
	}
	return out, nil
}
