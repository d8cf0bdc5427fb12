package renderer

import (
	"sort"

	"github.com/Faultbox/bodyview/internal/scene"
	"github.com/Faultbox/bodyview/pkg/math"
)

// floatsPerVertex is position (3) + normal (3).
const floatsPerVertex = 6

// buildVertices expands an indexed mesh into interleaved world-space
// position and flat normal vertices, three per triangle.
func buildVertices(m *scene.Mesh) []float32 {
	positions := m.Positions()
	indices := m.Indices()
	out := make([]float32, 0, len(indices)*floatsPerVertex)

	for i := 0; i+2 < len(indices); i += 3 {
		ia, ib, ic := indices[i], indices[i+1], indices[i+2]
		if int(max(ia, ib, ic)) >= len(positions) {
			continue
		}
		a, b, c := positions[ia], positions[ib], positions[ic]
		n := b.Sub(a).Cross(c.Sub(a)).Normalize()
		for _, p := range [3]math.Vec3{a, b, c} {
			out = append(out, p.X, p.Y, p.Z, n.X, n.Y, n.Z)
		}
	}
	return out
}

// drawOrder splits meshes into opaque and blended sets. Blended meshes are
// sorted far to near from camPos so they composite correctly.
func drawOrder(meshes []*scene.Mesh, camPos math.Vec3) (opaque, blended []*scene.Mesh) {
	for _, m := range meshes {
		if mat := m.Material(); mat != nil && !mat.Opaque() {
			blended = append(blended, m)
		} else {
			opaque = append(opaque, m)
		}
	}
	sort.SliceStable(blended, func(i, j int) bool {
		di := blended[i].Bounds().Center().Distance(camPos)
		dj := blended[j].Bounds().Center().Distance(camPos)
		return di > dj
	})
	return opaque, blended
}
