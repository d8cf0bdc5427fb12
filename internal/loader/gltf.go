package loader

import (
	"bytes"
	"fmt"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/Faultbox/bodyview/internal/scene"
	"github.com/Faultbox/bodyview/pkg/math"
)

var identity64 = [16]float64{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}

// Decode parses a glTF 2.0 document, JSON or binary, from memory. Buffers
// must be embedded.
func Decode(data []byte) (*scene.Graph, error) {
	doc := new(gltf.Document)
	if err := gltf.NewDecoder(bytes.NewReader(data)).Decode(doc); err != nil {
		return nil, fmt.Errorf("decoding gltf: %w", err)
	}
	return buildGraph(doc)
}

// DecodeFile parses a glTF file. External buffers are resolved relative to it.
func DecodeFile(path string) (*scene.Graph, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	return buildGraph(doc)
}

// buildGraph converts the default scene of doc into a graph with one mesh
// per triangle primitive.
func buildGraph(doc *gltf.Document) (*scene.Graph, error) {
	materials := make([]*scene.Material, len(doc.Materials))
	for i, m := range doc.Materials {
		materials[i] = convertMaterial(m)
	}

	b := &graphBuilder{doc: doc, materials: materials, visited: make(map[int]bool)}
	root := scene.NewNode("root")
	for _, idx := range sceneRoots(doc) {
		n, err := b.node(idx)
		if err != nil {
			return nil, err
		}
		root.AddChild(n)
	}
	return scene.NewGraph(root), nil
}

type graphBuilder struct {
	doc       *gltf.Document
	materials []*scene.Material
	visited   map[int]bool
}

func (b *graphBuilder) node(idx int) (*scene.Node, error) {
	if idx < 0 || idx >= len(b.doc.Nodes) {
		return nil, fmt.Errorf("node %d out of range", idx)
	}
	if b.visited[idx] {
		return nil, fmt.Errorf("node %d referenced twice", idx)
	}
	b.visited[idx] = true

	gn := b.doc.Nodes[idx]
	n := scene.NewNode(gn.Name)
	n.Local = nodeMatrix(gn)

	if gn.Mesh != nil {
		meshes, err := b.meshes(*gn.Mesh, gn.Name)
		if err != nil {
			return nil, fmt.Errorf("node %d: %w", idx, err)
		}
		if len(meshes) == 1 {
			n.Mesh = meshes[0]
		} else {
			for _, m := range meshes {
				child := scene.NewNode(m.Name())
				child.Mesh = m
				n.AddChild(child)
			}
		}
	}

	for _, c := range gn.Children {
		child, err := b.node(c)
		if err != nil {
			return nil, err
		}
		n.AddChild(child)
	}
	return n, nil
}

func (b *graphBuilder) meshes(idx int, nodeName string) ([]*scene.Mesh, error) {
	if idx < 0 || idx >= len(b.doc.Meshes) {
		return nil, fmt.Errorf("mesh %d out of range", idx)
	}
	gm := b.doc.Meshes[idx]

	name := nodeName
	if name == "" {
		name = gm.Name
	}
	if name == "" {
		name = fmt.Sprintf("mesh%d", idx)
	}

	var out []*scene.Mesh
	for i, p := range gm.Primitives {
		if p.Mode != gltf.PrimitiveTriangles {
			continue
		}
		positions, indices, err := b.primitive(p)
		if err != nil {
			return nil, fmt.Errorf("mesh %q primitive %d: %w", name, i, err)
		}
		if positions == nil {
			continue
		}

		meshName := name
		if len(gm.Primitives) > 1 {
			meshName = fmt.Sprintf("%s_primitive%d", name, i)
		}
		var mat *scene.Material
		if p.Material != nil && *p.Material >= 0 && *p.Material < len(b.materials) {
			mat = b.materials[*p.Material].Clone()
		}
		out = append(out, scene.NewMesh(meshName, positions, indices, mat))
	}
	return out, nil
}

func (b *graphBuilder) primitive(p *gltf.Primitive) ([]math.Vec3, []uint32, error) {
	posIdx, ok := p.Attributes[gltf.POSITION]
	if !ok {
		return nil, nil, nil
	}
	acr, err := b.accessor(posIdx)
	if err != nil {
		return nil, nil, err
	}
	raw, err := modeler.ReadPosition(b.doc, acr, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("reading positions: %w", err)
	}
	positions := make([]math.Vec3, len(raw))
	for i, v := range raw {
		positions[i] = math.FromArray(v)
	}

	var indices []uint32
	if p.Indices != nil {
		acr, err := b.accessor(*p.Indices)
		if err != nil {
			return nil, nil, err
		}
		if indices, err = modeler.ReadIndices(b.doc, acr, nil); err != nil {
			return nil, nil, fmt.Errorf("reading indices: %w", err)
		}
	} else {
		indices = make([]uint32, len(positions))
		for i := range indices {
			indices[i] = uint32(i)
		}
	}
	return positions, indices, nil
}

func (b *graphBuilder) accessor(idx int) (*gltf.Accessor, error) {
	if idx < 0 || idx >= len(b.doc.Accessors) {
		return nil, fmt.Errorf("accessor %d out of range", idx)
	}
	return b.doc.Accessors[idx], nil
}

// sceneRoots returns the root nodes of the default scene, falling back to
// the first scene, then to every node that is nobody's child.
func sceneRoots(doc *gltf.Document) []int {
	if doc.Scene != nil && *doc.Scene >= 0 && *doc.Scene < len(doc.Scenes) {
		return doc.Scenes[*doc.Scene].Nodes
	}
	if len(doc.Scenes) > 0 {
		return doc.Scenes[0].Nodes
	}

	isChild := make(map[int]bool)
	for _, n := range doc.Nodes {
		for _, c := range n.Children {
			isChild[c] = true
		}
	}
	var roots []int
	for i := range doc.Nodes {
		if !isChild[i] {
			roots = append(roots, i)
		}
	}
	return roots
}

func nodeMatrix(n *gltf.Node) math.Mat4 {
	if m := n.MatrixOrDefault(); m != identity64 {
		return math.FromFloat64(m)
	}
	t := n.TranslationOrDefault()
	r := n.RotationOrDefault()
	s := n.ScaleOrDefault()
	return math.FromTRS(
		math.V3(float32(t[0]), float32(t[1]), float32(t[2])),
		math.Quat{X: float32(r[0]), Y: float32(r[1]), Z: float32(r[2]), W: float32(r[3])},
		math.V3(float32(s[0]), float32(s[1]), float32(s[2])),
	)
}

func convertMaterial(m *gltf.Material) *scene.Material {
	mat := scene.DefaultMaterial()
	if m == nil {
		return mat
	}
	mat.Name = m.Name
	if pbr := m.PBRMetallicRoughness; pbr != nil {
		if f := pbr.BaseColorFactor; f != nil {
			mat.Diffuse = scene.Color{R: float32(f[0]), G: float32(f[1]), B: float32(f[2])}
			mat.Alpha = float32(f[3])
		}
		if pbr.BaseColorTexture != nil {
			mat.Texture = fmt.Sprintf("texture:%d", pbr.BaseColorTexture.Index)
		}
		params := make(map[string]float32)
		if pbr.MetallicFactor != nil {
			params["metallic"] = float32(*pbr.MetallicFactor)
		}
		if pbr.RoughnessFactor != nil {
			params["roughness"] = float32(*pbr.RoughnessFactor)
		}
		if len(params) > 0 {
			mat.Params = params
		}
	}
	e := m.EmissiveFactor
	mat.Emissive = scene.Color{R: float32(e[0]), G: float32(e[1]), B: float32(e[2])}
	mat.Transparent = m.AlphaMode == gltf.AlphaBlend
	return mat
}
