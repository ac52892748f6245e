package main

import (
	"os"

	"github.com/madmann91/ratrace/cmd"
	"github.com/urfave/cli"
)

func main() {
	cli.VersionFlag = cli.BoolFlag{
		Name:  "version",
		Usage: "print only the version",
	}

	app := cli.NewApp()
	app.Name = "ratrace"
	app.Usage = "trace ray packets through triangle scenes"
	app.Version = "0.0.1"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:  "render",
			Usage: "render a depth map of the scene",
			Description: `
Parse one or more wavefront obj files, build a four-wide BVH over their
triangles and trace one primary ray per pixel in packets of eight. The
resulting depth buffer is written out as a grayscale png.`,
			ArgsUsage: "scene_file1.obj scene_file2.obj ...",
			Flags: []cli.Flag{
				cli.IntFlag{
					Name:  "width",
					Value: 512,
					Usage: "frame width",
				},
				cli.IntFlag{
					Name:  "height",
					Value: 512,
					Usage: "frame height",
				},
				cli.Float64Flag{
					Name:  "fov",
					Value: 45.0,
					Usage: "vertical field of view in degrees",
				},
				cli.StringFlag{
					Name:  "eye",
					Value: "0,0,2",
					Usage: "camera position as x,y,z",
				},
				cli.StringFlag{
					Name:  "target",
					Value: "0,0,0",
					Usage: "camera look-at point as x,y,z",
				},
				cli.IntFlag{
					Name:  "workers",
					Value: 0,
					Usage: "number of tracing workers; 0 uses all cpus",
				},
				cli.StringFlag{
					Name:  "intersector",
					Value: "BVH4Triangle4Intersector8ChunkMoeller",
					Usage: "intersector instantiation to use",
				},
				cli.StringFlag{
					Name:  "out, o",
					Value: "frame.png",
					Usage: "image filename for the rendered frame",
				},
			},
			Action: cmd.RenderFrame,
		},
		{
			Name:      "info",
			Usage:     "print acceleration structure statistics for a scene",
			ArgsUsage: "scene_file1.obj scene_file2.obj ...",
			Action:    cmd.Info,
		},
	}

	app.Run(os.Args)
}
