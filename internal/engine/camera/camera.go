// Package camera provides the orbit camera and its eased transitions.
package camera

import (
	gomath "math"

	"github.com/Faultbox/bodyview/pkg/math"
)

// OrbitCamera orbits around a center point.
type OrbitCamera struct {
	// Center point to orbit around (the look-at target)
	Center math.Vec3

	// Spherical coordinates
	Distance  float32 // Distance from center
	RotationX float32 // Pitch (vertical angle, radians)
	RotationY float32 // Yaw (horizontal angle, radians)

	// Constraints applied to user input only
	MinDistance float32
	MaxDistance float32
	MinPitch    float32
	MaxPitch    float32

	// Sensitivity
	DragSensitivity float32
	ZoomSensitivity float32
}

// NewOrbitCamera creates a new orbit camera looking at the origin from +Z.
func NewOrbitCamera() *OrbitCamera {
	return &OrbitCamera{
		Distance:        5.0,
		RotationX:       0.0,
		RotationY:       0.0,
		MinDistance:     0.05,
		MaxDistance:     100.0,
		MinPitch:        -1.5,
		MaxPitch:        1.5,
		DragSensitivity: 0.005,
		ZoomSensitivity: 0.1,
	}
}

// Pose is a snapshot of the camera state.
type Pose struct {
	Position math.Vec3 `json:"position"`
	Target   math.Vec3 `json:"target"`
	Distance float32   `json:"distance"`
}

// Pose returns the current camera state.
func (c *OrbitCamera) Pose() Pose {
	return Pose{Position: c.Position(), Target: c.Center, Distance: c.Distance}
}

// Position returns the camera position in world space.
func (c *OrbitCamera) Position() math.Vec3 {
	return c.Center.Add(c.offsetDir().Scale(c.Distance))
}

// offsetDir is the unit vector from the center toward the camera.
func (c *OrbitCamera) offsetDir() math.Vec3 {
	return math.Vec3{
		X: float32(gomath.Cos(float64(c.RotationX)) * gomath.Sin(float64(c.RotationY))),
		Y: float32(gomath.Sin(float64(c.RotationX))),
		Z: float32(gomath.Cos(float64(c.RotationX)) * gomath.Cos(float64(c.RotationY))),
	}
}

// Forward returns the unit view direction.
func (c *OrbitCamera) Forward() math.Vec3 {
	return c.offsetDir().Scale(-1)
}

// SetPose places the camera at position looking at target.
func (c *OrbitCamera) SetPose(position, target math.Vec3) {
	c.Center = target
	offset := position.Sub(target)
	c.Distance = offset.Length()
	if c.Distance == 0 {
		return
	}
	c.RotationX = float32(gomath.Asin(float64(offset.Y / c.Distance)))
	c.RotationY = float32(gomath.Atan2(float64(offset.X), float64(offset.Z)))
}

// ViewMatrix returns the view matrix for this camera.
func (c *OrbitCamera) ViewMatrix() math.Mat4 {
	up := math.Vec3{X: 0, Y: 1, Z: 0}
	return math.LookAt(c.Position(), c.Center, up)
}

// HandleDrag updates rotation based on mouse drag delta.
func (c *OrbitCamera) HandleDrag(deltaX, deltaY float32) {
	c.RotationY -= deltaX * c.DragSensitivity
	c.RotationX += deltaY * c.DragSensitivity

	if c.RotationX < c.MinPitch {
		c.RotationX = c.MinPitch
	}
	if c.RotationX > c.MaxPitch {
		c.RotationX = c.MaxPitch
	}
}

// HandleZoom updates distance based on scroll wheel delta.
func (c *OrbitCamera) HandleZoom(delta float32) {
	c.Distance -= delta * c.Distance * c.ZoomSensitivity
	if c.Distance < c.MinDistance {
		c.Distance = c.MinDistance
	}
	if c.Distance > c.MaxDistance {
		c.Distance = c.MaxDistance
	}
}
