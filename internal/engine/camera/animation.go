package camera

import (
	"math"
	"time"

	bmath "github.com/Faultbox/bodyview/pkg/math"
)

// EaseInOutCubic maps linear progress in [0,1] to an ease-in-out curve.
func EaseInOutCubic(x float32) float32 {
	if x < 0.5 {
		return 4 * x * x * x
	}
	return 1 - float32(math.Pow(float64(-2*x+2), 3))/2
}

// Animation moves the orbit center and distance toward a goal over a fixed
// duration. Orbit angles are kept, so the view direction does not swing.
type Animation struct {
	fromCenter bmath.Vec3
	toCenter   bmath.Vec3
	fromDist   float32
	toDist     float32

	elapsed  time.Duration
	duration time.Duration
	onSettle func()
}

// NewAnimation creates an animation from the camera's current state.
// onSettle runs once when the animation completes; it never runs if the
// animation is cancelled or superseded.
func NewAnimation(cam *OrbitCamera, center bmath.Vec3, distance float32, duration time.Duration, onSettle func()) *Animation {
	return &Animation{
		fromCenter: cam.Center,
		toCenter:   center,
		fromDist:   cam.Distance,
		toDist:     distance,
		duration:   duration,
		onSettle:   onSettle,
	}
}

// Goal returns the target center and distance.
func (a *Animation) Goal() (bmath.Vec3, float32) {
	return a.toCenter, a.toDist
}

// Duration returns the total animation time.
func (a *Animation) Duration() time.Duration {
	return a.duration
}

// step advances by dt and applies the eased state. Reports completion.
func (a *Animation) step(cam *OrbitCamera, dt time.Duration) bool {
	a.elapsed += dt
	progress := float32(1)
	if a.duration > 0 && a.elapsed < a.duration {
		progress = float32(a.elapsed) / float32(a.duration)
	}
	eased := EaseInOutCubic(progress)
	cam.Center = a.fromCenter.Lerp(a.toCenter, eased)
	cam.Distance = a.fromDist + (a.toDist-a.fromDist)*eased
	return progress >= 1
}

// Animator runs at most one camera animation; starting a new one replaces
// the running one.
type Animator struct {
	cam    *OrbitCamera
	active *Animation
}

// NewAnimator creates an animator driving cam.
func NewAnimator(cam *OrbitCamera) *Animator {
	return &Animator{cam: cam}
}

// Start replaces any running animation with a.
func (an *Animator) Start(a *Animation) {
	an.active = a
}

// Cancel drops the running animation and its settle callback.
func (an *Animator) Cancel() {
	an.active = nil
}

// Active reports whether an animation is in flight.
func (an *Animator) Active() bool {
	return an.active != nil
}

// Tick advances the running animation. On completion the animation is
// cleared before its settle callback runs, so the callback may start another.
func (an *Animator) Tick(dt time.Duration) {
	a := an.active
	if a == nil {
		return
	}
	if !a.step(an.cam, dt) {
		return
	}
	an.active = nil
	if a.onSettle != nil {
		a.onSettle()
	}
}
