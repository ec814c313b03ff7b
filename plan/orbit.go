package plan

import (
	"math"

	"cogentcore.org/core/math32"
)

// DefaultDampingFactor is the fraction of pending motion applied per Update
const DefaultDampingFactor = 0.05

// restEpsilon is the magnitude below which pending motion counts as settled
const restEpsilon = 1e-6

// OrbitControls orbits a camera around a target point. Gestures accumulate
// pending deltas; Update applies them (a damped fraction per call when
// damping is enabled) and re-aims the camera at the target.
type OrbitControls struct {
	Camera        *PerspectiveCamera
	Target        math32.Vector3
	EnableDamping bool
	DampingFactor float32

	MinDistance float32
	MaxDistance float32
	MinPolar    float32
	MaxPolar    float32

	deltaTheta float32
	deltaPhi   float32
	panOffset  math32.Vector3
	scale      float32
}

// NewOrbitControls attaches damped controls to a camera, aimed at target
func NewOrbitControls(camera *PerspectiveCamera, target math32.Vector3) *OrbitControls {
	oc := &OrbitControls{
		Camera:        camera,
		Target:        target,
		EnableDamping: true,
		DampingFactor: DefaultDampingFactor,
		MinDistance:   1,
		MaxDistance:   camera.Far / 2,
		MinPolar:      0,
		MaxPolar:      math32.Pi,
		scale:         1,
	}
	camera.LookAt(target)
	return oc
}

// Rotate queues an orbit: dTheta around the vertical axis, dPhi toward the pole (radians)
func (oc *OrbitControls) Rotate(dTheta, dPhi float32) {
	oc.deltaTheta -= dTheta
	oc.deltaPhi -= dPhi
}

// Pan queues a target translation in the camera's screen plane (world units)
func (oc *OrbitControls) Pan(dx, dy float32) {
	right, up, _ := oc.Camera.basis()
	oc.panOffset = oc.panOffset.Add(right.MulScalar(-dx)).Add(up.MulScalar(dy))
}

// Zoom scales the camera distance; values below 1 move closer
func (oc *OrbitControls) Zoom(scale float32) {
	if !(scale > 0) {
		return
	}
	oc.scale = math32.Clamp(oc.scale*scale, 1e-6, 1e6)
}

// Pending reports whether queued motion has not yet settled
func (oc *OrbitControls) Pending() bool {
	return math32.Abs(oc.deltaTheta) > restEpsilon ||
		math32.Abs(oc.deltaPhi) > restEpsilon ||
		oc.panOffset.Length() > restEpsilon ||
		oc.scale != 1
}

// Stop discards all queued motion
func (oc *OrbitControls) Stop() {
	oc.deltaTheta = 0
	oc.deltaPhi = 0
	oc.panOffset = math32.Vector3{}
	oc.scale = 1
}

// Reset moves the target and camera to a fixed pose and discards queued motion.
// The caller still runs Update to re-aim the camera.
func (oc *OrbitControls) Reset(target, position math32.Vector3) {
	oc.Stop()
	oc.Target = target
	oc.Camera.Position = position
}

// Update applies queued motion and points the camera at the target.
// It returns true when the camera moved.
func (oc *OrbitControls) Update() bool {
	if !finite(oc.deltaTheta, oc.deltaPhi, oc.scale, oc.panOffset.X, oc.panOffset.Y, oc.panOffset.Z) {
		oc.Stop()
	}
	if !oc.Pending() {
		oc.deltaTheta, oc.deltaPhi = 0, 0
		oc.panOffset = math32.Vector3{}
		oc.Camera.LookAt(oc.Target)
		return false
	}
	offset := oc.Camera.Position.Sub(oc.Target)
	radius := offset.Length()
	if radius == 0 {
		oc.Camera.LookAt(oc.Target)
		return false
	}
	theta := math32.Atan2(offset.X, offset.Z)
	phi := math32.Acos(math32.Clamp(offset.Y/radius, -1, 1))

	step := float32(1)
	if oc.EnableDamping {
		step = oc.DampingFactor
	}

	theta += oc.deltaTheta * step
	phi += oc.deltaPhi * step
	const polarEps = 1e-6
	phi = math32.Clamp(phi, oc.MinPolar+polarEps, oc.MaxPolar-polarEps)

	radius = math32.Clamp(radius*oc.scale, oc.MinDistance, oc.MaxDistance)
	target := oc.Target.Add(oc.panOffset.MulScalar(step))

	sinPhi := math32.Sin(phi)
	newOffset := math32.Vec3(
		radius*sinPhi*math32.Sin(theta),
		radius*math32.Cos(phi),
		radius*sinPhi*math32.Cos(theta),
	)
	position := target.Add(newOffset)
	if !finite(position.X, position.Y, position.Z, target.X, target.Y, target.Z) {
		oc.Stop()
		oc.Camera.LookAt(oc.Target)
		return false
	}

	before := oc.Camera.Position
	oc.Target = target
	oc.Camera.Position = position
	oc.Camera.LookAt(oc.Target)

	if oc.EnableDamping {
		oc.deltaTheta *= 1 - oc.DampingFactor
		oc.deltaPhi *= 1 - oc.DampingFactor
		oc.panOffset = oc.panOffset.MulScalar(1 - oc.DampingFactor)
	} else {
		oc.deltaTheta = 0
		oc.deltaPhi = 0
		oc.panOffset = math32.Vector3{}
	}
	oc.scale = 1

	return oc.Camera.Position.Sub(before).Length() > restEpsilon
}

func finite(vs ...float32) bool {
	for _, v := range vs {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}
