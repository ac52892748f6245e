package tracer

import (
	"math"

	"github.com/madmann91/ratrace/types"
)

// Camera is a pinhole camera that maps pixel coordinates to primary rays.
type Camera struct {
	eye types.Vec3

	// Orthonormal view basis.
	right, up, forward types.Vec3

	// Image plane half extents at unit distance from the eye.
	halfW, halfH float32

	// Reciprocal frame dimensions.
	invW, invH float32
}

// NewCamera creates a pinhole camera at eye looking at the target point.
// fov is the vertical field of view in degrees.
func NewCamera(eye, target, up types.Vec3, fov float32, frameW, frameH uint32) *Camera {
	forward := target.Sub(eye).Normalize()
	right := forward.Cross(up).Normalize()

	halfH := float32(math.Tan(float64(fov) * math.Pi / 360.0))
	aspect := float32(frameW) / float32(frameH)

	return &Camera{
		eye:     eye,
		right:   right,
		up:      right.Cross(forward),
		forward: forward,
		halfW:   halfH * aspect,
		halfH:   halfH,
		invW:    1.0 / float32(frameW),
		invH:    1.0 / float32(frameH),
	}
}

// PrimaryRay returns the origin and non-normalized direction of the ray
// through pixel center (x, y).
func (c *Camera) PrimaryRay(x, y uint32) (org, dir types.Vec3) {
	// NDC coordinates in [-1, 1] with y growing upwards.
	nx := (float32(x)+0.5)*c.invW*2.0 - 1.0
	ny := 1.0 - (float32(y)+0.5)*c.invH*2.0

	dir = c.forward.
		Add(c.right.Mul(nx * c.halfW)).
		Add(c.up.Mul(ny * c.halfH))
	return c.eye, dir
}
