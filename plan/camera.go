package plan

import (
	"errors"
	"fmt"

	"cogentcore.org/core/math32"
)

// MaxViewport is the largest accepted viewport side in pixels
const MaxViewport = 8192

// ErrInvalidViewport is returned for a viewport with a side outside 1..MaxViewport
var ErrInvalidViewport = errors.New("invalid viewport")

func validViewport(width, height int) bool {
	return width > 0 && height > 0 && width <= MaxViewport && height <= MaxViewport
}

// PerspectiveCamera is a pinhole camera with a vertical field of view in degrees.
// The projection is recomputed only by UpdateProjectionMatrix, so changing
// Aspect or FOV has no effect on Project until then.
type PerspectiveCamera struct {
	Position math32.Vector3
	Up       math32.Vector3
	FOV      float32
	Aspect   float32
	Near     float32
	Far      float32

	lookAt math32.Vector3
	// cached projection
	focal      float32
	projAspect float32
	projNear   float32
	projFar    float32
	version    int
}

// NewPerspectiveCamera returns a camera at the pose's position looking at its
// initial target
func NewPerspectiveCamera(pose CameraPose, aspect float32) *PerspectiveCamera {
	c := &PerspectiveCamera{
		Position: vec3(pose.Position),
		Up:       math32.Vec3(0, 1, 0),
		FOV:      float32(pose.FOV),
		Aspect:   aspect,
		Near:     float32(pose.Near),
		Far:      float32(pose.Far),
	}
	c.LookAt(vec3(pose.InitialTarget()))
	c.UpdateProjectionMatrix()
	return c
}

// LookAt orients the camera toward the given point
func (c *PerspectiveCamera) LookAt(target math32.Vector3) {
	c.lookAt = target
}

// Target returns the point the camera is oriented toward
func (c *PerspectiveCamera) Target() math32.Vector3 {
	return c.lookAt
}

// UpdateProjectionMatrix recomputes the projection from FOV, Aspect, Near and Far
func (c *PerspectiveCamera) UpdateProjectionMatrix() {
	c.focal = 1 / math32.Tan(math32.DegToRad(c.FOV)/2)
	c.projAspect = c.Aspect
	c.projNear = c.Near
	c.projFar = c.Far
	c.version++
}

// ProjectionAspect returns the aspect ratio the current projection was built with
func (c *PerspectiveCamera) ProjectionAspect() float32 {
	return c.projAspect
}

// ProjectionVersion counts UpdateProjectionMatrix calls
func (c *PerspectiveCamera) ProjectionVersion() int {
	return c.version
}

// SetViewport sets the aspect ratio from a viewport size and rebuilds the projection
func (c *PerspectiveCamera) SetViewport(width, height int) error {
	if !validViewport(width, height) {
		return fmt.Errorf("%w: %dx%d", ErrInvalidViewport, width, height)
	}
	c.Aspect = float32(width) / float32(height)
	c.UpdateProjectionMatrix()
	return nil
}

// basis returns the camera's right, up and forward unit vectors
func (c *PerspectiveCamera) basis() (right, up, forward math32.Vector3) {
	forward = c.lookAt.Sub(c.Position).Normal()
	right = forward.Cross(c.Up).Normal()
	up = right.Cross(forward)
	return right, up, forward
}

// Project maps a world point to viewport pixels, with y growing downward.
// depth is the distance along the view axis; ok is false when the point
// lies outside the near/far range or is not a number.
func (c *PerspectiveCamera) Project(p math32.Vector3, width, height float32) (x, y, depth float32, ok bool) {
	right, up, forward := c.basis()
	rel := p.Sub(c.Position)
	depth = rel.Dot(forward)
	if !(depth >= c.projNear && depth <= c.projFar) {
		return 0, 0, depth, false
	}
	ndcX := rel.Dot(right) * c.focal / (c.projAspect * depth)
	ndcY := rel.Dot(up) * c.focal / depth
	x = (ndcX + 1) / 2 * width
	y = (1 - ndcY) / 2 * height
	return x, y, depth, true
}

// ViewDepth returns the distance of p along the camera's view axis
func (c *PerspectiveCamera) ViewDepth(p math32.Vector3) float32 {
	_, _, forward := c.basis()
	return p.Sub(c.Position).Dot(forward)
}
