// Package scene is the in-memory 3D scene toolkit the viewer runs on: a node
// graph of named triangle meshes with materials, world bounds and ray tests.
package scene

import (
	"errors"
	"fmt"

	"github.com/Faultbox/bodyview/internal/engine/picking"
	"github.com/Faultbox/bodyview/pkg/math"
)

// Renderable is the capability set the viewer needs from one mesh handle.
type Renderable interface {
	Name() string
	Bounds() picking.AABB
	Material() *Material
	SetMaterial(*Material)
	IntersectSegment(ray picking.Ray, maxDist float32) bool
}

// Model is the capability set the viewer needs from a loaded scene graph.
type Model interface {
	// Walk visits every renderable once, depth-first in child order.
	Walk(fn func(Renderable))
	Bounds() picking.AABB
	Dispose() error
}

// Node is a scene graph node with a local transform and an optional mesh.
type Node struct {
	Name     string
	Local    math.Mat4
	Mesh     *Mesh
	Children []*Node
}

// NewNode creates a node with an identity transform.
func NewNode(name string) *Node {
	return &Node{Name: name, Local: math.Identity()}
}

// AddChild appends children and returns n for chaining.
func (n *Node) AddChild(children ...*Node) *Node {
	n.Children = append(n.Children, children...)
	return n
}

// Graph is a loaded model: a node tree plus the source it came from.
type Graph struct {
	Root   *Node
	Source string
	meshes []*Mesh
}

var _ Model = (*Graph)(nil)

// NewGraph wraps root and computes world transforms.
func NewGraph(root *Node) *Graph {
	if root == nil {
		root = NewNode("root")
	}
	g := &Graph{Root: root}
	g.UpdateWorld()
	return g
}

// UpdateWorld recomputes world transforms and the mesh list after
// node transforms or the tree changed.
func (g *Graph) UpdateWorld() {
	g.meshes = g.meshes[:0]
	var visit func(n *Node, parent math.Mat4)
	visit = func(n *Node, parent math.Mat4) {
		world := parent.Mul(n.Local)
		if n.Mesh != nil {
			n.Mesh.SetWorld(world)
			g.meshes = append(g.meshes, n.Mesh)
		}
		for _, c := range n.Children {
			visit(c, world)
		}
	}
	visit(g.Root, math.Identity())
}

// Meshes returns all meshes in traversal order.
func (g *Graph) Meshes() []*Mesh {
	return g.meshes
}

// Walk visits every mesh in traversal order.
func (g *Graph) Walk(fn func(Renderable)) {
	for _, m := range g.meshes {
		fn(m)
	}
}

// Bounds returns the union of all mesh bounds.
func (g *Graph) Bounds() picking.AABB {
	box := picking.EmptyAABB()
	for _, m := range g.meshes {
		box = box.Union(m.Bounds())
	}
	return box
}

// Normalize centers the model on the origin and scales its largest
// dimension to size. Empty graphs and non-positive sizes are left alone.
func (g *Graph) Normalize(size float32) {
	box := g.Bounds()
	if size <= 0 || box.IsEmpty() {
		return
	}
	maxDim := box.Size().MaxComponent()
	if maxDim == 0 {
		return
	}
	s := size / maxDim
	c := box.Center()
	g.Root.Local = math.Scale(s, s, s).Mul(math.Translate(-c.X, -c.Y, -c.Z)).Mul(g.Root.Local)
	g.UpdateWorld()
}

// Pick returns the nearest mesh hit by the ray.
func (g *Graph) Pick(ray picking.Ray) (*Mesh, float32, bool) {
	var best *Mesh
	var bestT float32
	for _, m := range g.meshes {
		if t, hit := m.Pick(ray); hit && (best == nil || t < bestT) {
			best, bestT = m, t
		}
	}
	return best, bestT, best != nil
}

// Dispose releases every mesh. It keeps going past failures and returns
// them joined.
func (g *Graph) Dispose() error {
	var errs []error
	for _, m := range g.meshes {
		if err := m.Release(); err != nil {
			errs = append(errs, fmt.Errorf("release %s: %w", m.Name(), err))
		}
	}
	return errors.Join(errs...)
}
