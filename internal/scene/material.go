package scene

import "maps"

// Color is a linear RGB color with components in [0, 1].
type Color struct {
	R, G, B float32
}

// Scale returns the color multiplied by s.
func (c Color) Scale(s float32) Color {
	return Color{c.R * s, c.G * s, c.B * s}
}

// Material holds the surface parameters the renderer reads for one mesh.
type Material struct {
	Name        string
	Diffuse     Color
	Specular    Color
	Emissive    Color
	Alpha       float32
	Transparent bool
	Shininess   float32
	Texture     string             // Texture reference, resolved by the renderer
	Params      map[string]float32 // Extra scalar parameters (metallic, roughness, ...)
}

// DefaultMaterial returns the light grey material used for untextured meshes.
func DefaultMaterial() *Material {
	return &Material{
		Name:      "default",
		Diffuse:   Color{0.8, 0.8, 0.8},
		Specular:  Color{0.2, 0.2, 0.2},
		Alpha:     1,
		Shininess: 30,
	}
}

// Clone returns a deep copy; mutating the copy never affects m.
func (m *Material) Clone() *Material {
	if m == nil {
		return nil
	}
	c := *m
	c.Params = maps.Clone(m.Params)
	return &c
}

// Opaque reports whether the material renders without blending.
func (m *Material) Opaque() bool {
	return !m.Transparent && m.Alpha >= 1
}
