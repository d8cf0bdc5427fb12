package scene

import "github.com/Faultbox/bodyview/pkg/math"

// boxIndices are the 12 triangles of a box built by NewBox.
var boxIndices = []uint32{
	0, 1, 2, 0, 2, 3, // -Z
	4, 6, 5, 4, 7, 6, // +Z
	0, 4, 5, 0, 5, 1, // -Y
	3, 2, 6, 3, 6, 7, // +Y
	0, 3, 7, 0, 7, 4, // -X
	1, 5, 6, 1, 6, 2, // +X
}

// NewBox creates an axis-aligned box mesh spanning lo..hi in local space.
func NewBox(name string, lo, hi math.Vec3, mat *Material) *Mesh {
	positions := []math.Vec3{
		{X: lo.X, Y: lo.Y, Z: lo.Z},
		{X: hi.X, Y: lo.Y, Z: lo.Z},
		{X: hi.X, Y: hi.Y, Z: lo.Z},
		{X: lo.X, Y: hi.Y, Z: lo.Z},
		{X: lo.X, Y: lo.Y, Z: hi.Z},
		{X: hi.X, Y: lo.Y, Z: hi.Z},
		{X: hi.X, Y: hi.Y, Z: hi.Z},
		{X: lo.X, Y: hi.Y, Z: hi.Z},
	}
	indices := make([]uint32, len(boxIndices))
	copy(indices, boxIndices)
	return NewMesh(name, positions, indices, mat)
}

// bodyParts lays out a blocky stand-in figure, roughly 1.8 units tall, facing +Z.
var bodyParts = []struct {
	name   string
	lo, hi math.Vec3
}{
	{"head", math.V3(-0.12, 1.50, -0.12), math.V3(0.12, 1.80, 0.12)},
	{"neck", math.V3(-0.06, 1.42, -0.06), math.V3(0.06, 1.50, 0.06)},
	{"torso", math.V3(-0.22, 0.95, -0.12), math.V3(0.22, 1.42, 0.12)},
	{"pelvis", math.V3(-0.20, 0.85, -0.11), math.V3(0.20, 0.95, 0.11)},
	{"leftShoulder", math.V3(0.22, 1.30, -0.07), math.V3(0.32, 1.42, 0.07)},
	{"leftArm", math.V3(0.24, 0.95, -0.06), math.V3(0.34, 1.30, 0.06)},
	{"leftForearm", math.V3(0.25, 0.70, -0.05), math.V3(0.33, 0.95, 0.05)},
	{"leftHand", math.V3(0.25, 0.58, -0.04), math.V3(0.33, 0.70, 0.04)},
	{"rightShoulder", math.V3(-0.32, 1.30, -0.07), math.V3(-0.22, 1.42, 0.07)},
	{"rightArm", math.V3(-0.34, 0.95, -0.06), math.V3(-0.24, 1.30, 0.06)},
	{"rightForearm", math.V3(-0.33, 0.70, -0.05), math.V3(-0.25, 0.95, 0.05)},
	{"rightHand", math.V3(-0.33, 0.58, -0.04), math.V3(-0.25, 0.70, 0.04)},
	{"leftThigh", math.V3(0.02, 0.48, -0.08), math.V3(0.18, 0.85, 0.08)},
	{"leftKnee", math.V3(0.03, 0.42, -0.07), math.V3(0.17, 0.48, 0.07)},
	{"leftShin", math.V3(0.04, 0.10, -0.06), math.V3(0.16, 0.42, 0.06)},
	{"leftAnkle", math.V3(0.05, 0.05, -0.05), math.V3(0.15, 0.10, 0.05)},
	{"leftFoot", math.V3(0.04, 0.00, -0.05), math.V3(0.16, 0.05, 0.18)},
	{"rightThigh", math.V3(-0.18, 0.48, -0.08), math.V3(-0.02, 0.85, 0.08)},
	{"rightKnee", math.V3(-0.17, 0.42, -0.07), math.V3(-0.03, 0.48, 0.07)},
	{"rightShin", math.V3(-0.16, 0.10, -0.06), math.V3(-0.04, 0.42, 0.06)},
	{"rightAnkle", math.V3(-0.15, 0.05, -0.05), math.V3(-0.05, 0.10, 0.05)},
	{"rightFoot", math.V3(-0.16, 0.00, -0.05), math.V3(-0.04, 0.05, 0.18)},
}

// Mannequin builds a box figure with one mesh per named body part.
// It stands in for a real anatomical model in demos and tests.
func Mannequin() *Graph {
	root := NewNode("mannequin")
	for _, p := range bodyParts {
		mat := DefaultMaterial()
		mat.Name = p.name + "-skin"
		mat.Diffuse = Color{0.87, 0.72, 0.62}
		n := NewNode(p.name)
		n.Mesh = NewBox(p.name, p.lo, p.hi, mat)
		root.AddChild(n)
	}
	g := NewGraph(root)
	g.Source = "builtin:mannequin"
	return g
}
