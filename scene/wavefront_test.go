package scene

import (
	"os"
	"path/filepath"
	"testing"
)

func writeObj(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scene.obj")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("error writing obj file: %v", err)
	}
	return path
}

func TestReadWavefront(t *testing.T) {
	path := writeObj(t, `
# a unit quad
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
f 1 2 3 4
`)

	mesh, err := ReadWavefront(path)
	if err != nil {
		t.Fatalf("error reading obj file: %v", err)
	}

	if len(mesh.Vertices) != 4 {
		t.Fatalf("expected %d vertices; got %d", 4, len(mesh.Vertices))
	}

	// The quad triangulates into a fan of two triangles.
	if mesh.NumTriangles() != 2 {
		t.Fatalf("expected %d triangles; got %d", 2, mesh.NumTriangles())
	}
	if mesh.Indices[0] != [3]uint32{0, 1, 2} {
		t.Fatalf("expected first triangle {0 1 2}; got %v", mesh.Indices[0])
	}
	if mesh.Indices[1] != [3]uint32{0, 2, 3} {
		t.Fatalf("expected second triangle {0 2 3}; got %v", mesh.Indices[1])
	}
}

func TestReadWavefrontIndexVariants(t *testing.T) {
	path := writeObj(t, `
v 0 0 0
v 1 0 0
v 0 1 0
f 1/1/1 2/2/2 -1/3/3
`)

	mesh, err := ReadWavefront(path)
	if err != nil {
		t.Fatalf("error reading obj file: %v", err)
	}

	// uv/normal indices are dropped; -1 references the last vertex.
	if mesh.Indices[0] != [3]uint32{0, 1, 2} {
		t.Fatalf("expected triangle {0 1 2}; got %v", mesh.Indices[0])
	}
}

func TestReadWavefrontErrors(t *testing.T) {
	testCases := []struct {
		desc    string
		content string
	}{
		{"truncated vertex", "v 1 2\n"},
		{"truncated face", "v 0 0 0\nv 1 0 0\nf 1 2\n"},
		{"bad coordinate", "v a b c\n"},
		{"face index out of range", "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 7\n"},
		{"bad face index", "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 x\n"},
	}

	for _, tc := range testCases {
		path := writeObj(t, tc.content)
		if _, err := ReadWavefront(path); err == nil {
			t.Fatalf("[%s] expected parse error; got nil", tc.desc)
		}
	}
}

func TestReadWavefrontMissingFile(t *testing.T) {
	if _, err := ReadWavefront("does-not-exist.obj"); err == nil {
		t.Fatal("expected error for missing file; got nil")
	}
}
