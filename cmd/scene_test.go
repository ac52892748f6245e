package cmd

import (
	"math"
	"testing"

	"github.com/madmann91/ratrace/tracer"
	"github.com/madmann91/ratrace/types"
)

func TestParseVec3(t *testing.T) {
	testCases := []struct {
		in      string
		want    types.Vec3
		wantErr bool
	}{
		{"0,1,2", types.Vec3{0, 1, 2}, false},
		{"-1.5, 2.25 ,3", types.Vec3{-1.5, 2.25, 3}, false},
		{"1,2", types.Vec3{}, true},
		{"1,2,3,4", types.Vec3{}, true},
		{"1,x,3", types.Vec3{}, true},
	}

	for _, tc := range testCases {
		got, err := parseVec3(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("parseVec3(%q): expected error; got nil", tc.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("parseVec3(%q): unexpected error: %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("parseVec3(%q): expected %v; got %v", tc.in, tc.want, got)
		}
	}
}

func TestDepthImage(t *testing.T) {
	inf := float32(math.Inf(1))
	frame := &tracer.Frame{
		W:     2,
		H:     2,
		Depth: []float32{1, 2, 3, inf},
	}

	img := depthImage(frame)

	// Closer pixels render brighter; misses stay black.
	if img.Pix[0] <= img.Pix[1] || img.Pix[1] <= img.Pix[2] {
		t.Fatalf("expected decreasing brightness with depth; got %v", img.Pix[:3])
	}
	if img.Pix[3] != 0 {
		t.Fatalf("expected missed pixel to be black; got %d", img.Pix[3])
	}
	if img.Pix[0] != 255 {
		t.Fatalf("expected nearest pixel at full brightness; got %d", img.Pix[0])
	}
}
