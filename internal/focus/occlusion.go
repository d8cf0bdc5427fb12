package focus

import (
	"github.com/Faultbox/bodyview/internal/engine/picking"
	"github.com/Faultbox/bodyview/pkg/math"
)

// IsObstructing reports whether candidate blocks the line of sight from
// camPos to target's center.
//
// Bounding-box centers are projected on camDir first; a candidate deeper
// than the target is rejected without touching its geometry. Only the
// remaining candidates get a ray test against their triangles, bounded at
// the target's depth. Near-equal depths can produce false negatives.
// Meshes without geometry never obstruct or get obstructed.
func IsObstructing(candidate, target *Entry, camPos, camDir math.Vec3) bool {
	if candidate.Bounds.IsEmpty() || target.Bounds.IsEmpty() {
		return false
	}
	candidateCenter := candidate.Bounds.Center()
	targetCenter := target.Bounds.Center()

	dCandidate := candidateCenter.Sub(camPos).Dot(camDir)
	dTarget := targetCenter.Sub(camPos).Dot(camDir)
	if dCandidate > dTarget {
		return false
	}

	ray := picking.Ray{Origin: camPos, Direction: targetCenter.Sub(camPos).Normalize()}
	return candidate.Handle.IntersectSegment(ray, dTarget)
}
