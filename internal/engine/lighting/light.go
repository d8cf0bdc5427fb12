// Package lighting computes light directions for the mesh shader.
package lighting

import (
	gomath "math"

	"github.com/Faultbox/bodyview/pkg/math"
)

// SunDirection converts azimuth/elevation angles in degrees to a unit vector
// pointing towards the light. Azimuth rotates around Y starting at +Z,
// elevation is measured up from the horizon.
func SunDirection(azimuth, elevation float32) math.Vec3 {
	az := float64(azimuth) * gomath.Pi / 180
	el := float64(elevation) * gomath.Pi / 180

	return math.V3(
		float32(gomath.Cos(el)*gomath.Sin(az)),
		float32(gomath.Sin(el)),
		float32(gomath.Cos(el)*gomath.Cos(az)),
	)
}

// Key returns the direction a key light placed at azimuth/elevation travels.
func Key(azimuth, elevation float32) math.Vec3 {
	return SunDirection(azimuth, elevation).Scale(-1)
}
