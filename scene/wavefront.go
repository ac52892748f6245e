package scene

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/madmann91/ratrace/log"
	"github.com/madmann91/ratrace/types"
)

var wavefrontLogger = log.New("wavefront")

// ReadWavefront parses a Wavefront OBJ file into a triangle mesh. Only vertex
// and face statements are honored; faces with more than three indices are
// triangulated as a fan.
func ReadWavefront(path string) (*TriangleMesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("scene: %v", err)
	}
	defer f.Close()

	mesh := &TriangleMesh{
		Vertices: make([]types.Vec3, 0),
		Indices:  make([][3]uint32, 0),
	}

	scanner := bufio.NewScanner(f)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		fields := strings.Fields(strings.TrimSpace(scanner.Text()))
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "v":
			if len(fields) < 4 {
				return nil, parseError(path, lineNum, "unsupported syntax for 'v'; expected 3 coordinates")
			}
			var v types.Vec3
			for i := 0; i < 3; i++ {
				c, err := strconv.ParseFloat(fields[i+1], 32)
				if err != nil {
					return nil, parseError(path, lineNum, "invalid vertex coordinate %q", fields[i+1])
				}
				v[i] = float32(c)
			}
			mesh.Vertices = append(mesh.Vertices, v)
		case "f":
			if len(fields) < 4 {
				return nil, parseError(path, lineNum, "unsupported syntax for 'f'; expected at least 3 indices")
			}
			face := make([]uint32, 0, len(fields)-1)
			for _, token := range fields[1:] {
				idx, err := parseFaceIndex(token, len(mesh.Vertices))
				if err != nil {
					return nil, parseError(path, lineNum, "%v", err)
				}
				face = append(face, idx)
			}
			// Triangulate as a fan anchored at the first index.
			for i := 2; i < len(face); i++ {
				mesh.Indices = append(mesh.Indices, [3]uint32{face[0], face[i-1], face[i]})
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scene: %v", err)
	}

	wavefrontLogger.Infof("parsed %s: %d vertices, %d triangles", path, len(mesh.Vertices), len(mesh.Indices))

	return mesh, mesh.Validate()
}

// Parse the vertex index out of a face token, dropping any uv/normal indices.
// Indices are 1-based; negative values are relative to the end of the vertex
// list.
func parseFaceIndex(token string, numVertices int) (uint32, error) {
	if slash := strings.IndexByte(token, '/'); slash != -1 {
		token = token[:slash]
	}
	idx, err := strconv.ParseInt(token, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid face index %q", token)
	}
	if idx < 0 {
		idx += int64(numVertices)
	} else {
		idx--
	}
	if idx < 0 || idx >= int64(numVertices) {
		return 0, fmt.Errorf("face index %q out of range", token)
	}
	return uint32(idx), nil
}

func parseError(file string, line int, format string, args ...interface{}) error {
	return fmt.Errorf("scene: [%s: %d] error: %s", file, line, fmt.Sprintf(format, args...))
}
