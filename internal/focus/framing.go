package focus

import (
	"time"

	"github.com/Faultbox/bodyview/internal/engine/camera"
	"github.com/Faultbox/bodyview/internal/engine/picking"
	"github.com/Faultbox/bodyview/pkg/math"
)

// Framer computes camera goals that fit a bounding box in view.
type Framer struct {
	DistanceMultiplier float32
	Duration           time.Duration
}

// Distance returns the orbit distance that frames bounds.
func (f Framer) Distance(bounds picking.AABB) float32 {
	return bounds.HalfExtent().Length() * f.DistanceMultiplier
}

// Frame builds an eased animation that centers cam on bounds. onSettle
// runs once the animation has run its full duration. The goal distance
// stays within the camera's zoom limits; an empty box keeps the current
// target.
func (f Framer) Frame(bounds picking.AABB, cam *camera.OrbitCamera, onSettle func()) *camera.Animation {
	if bounds.IsEmpty() {
		return camera.NewAnimation(cam, cam.Center, cam.Distance, f.Duration, onSettle)
	}
	dist := f.Distance(bounds)
	if dist < cam.MinDistance {
		dist = cam.MinDistance
	}
	if dist > cam.MaxDistance {
		dist = cam.MaxDistance
	}
	return camera.NewAnimation(cam, bounds.Center(), dist, f.Duration, onSettle)
}

// WholeModelPose returns the default camera placement for a model: looking
// at its center from above, front and right.
func WholeModelPose(bounds picking.AABB) (position, target math.Vec3) {
	target = bounds.Center()
	r := bounds.HalfExtent().Length()
	position = target.Add(math.Vec3{X: 2 * r, Y: r, Z: 2 * r})
	return position, target
}
