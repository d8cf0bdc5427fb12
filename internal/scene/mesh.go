package scene

import (
	"errors"

	"github.com/Faultbox/bodyview/internal/engine/picking"
	"github.com/Faultbox/bodyview/pkg/math"
)

// Mesh is a named triangle mesh with a world transform and a material.
type Mesh struct {
	name      string
	positions []math.Vec3 // Local space
	indices   []uint32

	world          math.Mat4
	worldPositions []math.Vec3
	localBounds    picking.AABB
	worldBounds    picking.AABB

	material  *Material
	releasers []func() error
}

// NewMesh creates a mesh from local positions and triangle indices.
// A nil material is replaced by DefaultMaterial.
func NewMesh(name string, positions []math.Vec3, indices []uint32, mat *Material) *Mesh {
	if mat == nil {
		mat = DefaultMaterial()
	}
	m := &Mesh{
		name:      name,
		positions: positions,
		indices:   indices,
		material:  mat,
	}
	m.localBounds = picking.EmptyAABB()
	for _, p := range positions {
		m.localBounds = m.localBounds.Extend(p)
	}
	m.SetWorld(math.Identity())
	return m
}

// Name returns the mesh name.
func (m *Mesh) Name() string { return m.name }

// Positions returns world-space vertex positions.
func (m *Mesh) Positions() []math.Vec3 { return m.worldPositions }

// Indices returns triangle indices, three per triangle.
func (m *Mesh) Indices() []uint32 { return m.indices }

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int { return len(m.indices) / 3 }

// World returns the world transform.
func (m *Mesh) World() math.Mat4 { return m.world }

// SetWorld sets the world transform and refreshes world-space geometry.
func (m *Mesh) SetWorld(world math.Mat4) {
	m.world = world
	if cap(m.worldPositions) < len(m.positions) {
		m.worldPositions = make([]math.Vec3, len(m.positions))
	}
	m.worldPositions = m.worldPositions[:len(m.positions)]
	for i, p := range m.positions {
		m.worldPositions[i] = world.TransformVec3(p)
	}
	if m.localBounds.IsEmpty() {
		m.worldBounds = m.localBounds
		return
	}
	m.worldBounds = m.localBounds.Transform(world)
}

// Bounds returns the world-space bounding box.
func (m *Mesh) Bounds() picking.AABB { return m.worldBounds }

// Material returns the live material.
func (m *Mesh) Material() *Material { return m.material }

// SetMaterial replaces the live material.
func (m *Mesh) SetMaterial(mat *Material) { m.material = mat }

// IntersectSegment reports whether the ray hits a triangle within maxDist.
func (m *Mesh) IntersectSegment(ray picking.Ray, maxDist float32) bool {
	t, hit := m.Pick(ray)
	return hit && t <= maxDist
}

// Pick returns the nearest triangle hit distance along the ray.
func (m *Mesh) Pick(ray picking.Ray) (float32, bool) {
	if _, hit := ray.IntersectAABB(m.worldBounds); !hit || m.worldBounds.IsEmpty() {
		return 0, false
	}

	best := float32(-1)
	for i := 0; i+2 < len(m.indices); i += 3 {
		a, b, c := m.indices[i], m.indices[i+1], m.indices[i+2]
		if int(max(a, b, c)) >= len(m.worldPositions) {
			continue
		}
		t, hit := ray.IntersectTriangle(m.worldPositions[a], m.worldPositions[b], m.worldPositions[c])
		if hit && (best < 0 || t < best) {
			best = t
		}
	}
	return best, best >= 0
}

// OnRelease registers a hook run when the mesh is released, e.g. to free GPU buffers.
func (m *Mesh) OnRelease(fn func() error) {
	m.releasers = append(m.releasers, fn)
}

// Release runs all release hooks, collecting their errors.
func (m *Mesh) Release() error {
	var errs []error
	for _, fn := range m.releasers {
		if err := fn(); err != nil {
			errs = append(errs, err)
		}
	}
	m.releasers = nil
	return errors.Join(errs...)
}
