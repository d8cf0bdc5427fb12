// Package debug provides debug visualization utilities.
package debug

import "github.com/Faultbox/bodyview/internal/engine/picking"

// BBoxWireframeVertexCount is the number of vertices for a bbox wireframe (12 edges × 2).
const BBoxWireframeVertexCount = 24

// DefaultBBoxPadding is the default padding for focus boxes, in world units.
const DefaultBBoxPadding = 0.01

// GenerateBBoxWireframeVertices creates line vertices for a wireframe bounding box.
// Returns 24 vertices (12 edges × 2 endpoints), format: [x, y, z] per vertex.
func GenerateBBoxWireframeVertices(minX, minY, minZ, maxX, maxY, maxZ float32) []float32 {
	return []float32{
		// Bottom face (4 edges)
		minX, minY, minZ, maxX, minY, minZ,
		maxX, minY, minZ, maxX, minY, maxZ,
		maxX, minY, maxZ, minX, minY, maxZ,
		minX, minY, maxZ, minX, minY, minZ,
		// Top face (4 edges)
		minX, maxY, minZ, maxX, maxY, minZ,
		maxX, maxY, minZ, maxX, maxY, maxZ,
		maxX, maxY, maxZ, minX, maxY, maxZ,
		minX, maxY, maxZ, minX, maxY, minZ,
		// Vertical edges (4 edges)
		minX, minY, minZ, minX, maxY, minZ,
		maxX, minY, minZ, maxX, maxY, minZ,
		maxX, minY, maxZ, maxX, maxY, maxZ,
		minX, minY, maxZ, minX, maxY, maxZ,
	}
}

// BoxLines returns wireframe vertices for box grown by padding on every
// side. An empty box gives no vertices.
func BoxLines(box picking.AABB, padding float32) []float32 {
	if box.IsEmpty() {
		return nil
	}
	lo, hi := box.Min, box.Max
	return GenerateBBoxWireframeVertices(
		lo.X-padding, lo.Y-padding, lo.Z-padding,
		hi.X+padding, hi.Y+padding, hi.Z+padding,
	)
}
