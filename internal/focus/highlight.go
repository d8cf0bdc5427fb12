package focus

import "github.com/Faultbox/bodyview/internal/scene"

var highlightSpecular = scene.Color{R: 0.5, G: 0.6, B: 0.87}

// Highlighter swaps and fades mesh materials.
type Highlighter struct {
	FadeOpacity      float32
	EmissiveFraction float32
}

// ResetAll puts a fresh copy of every original material back.
func (h Highlighter) ResetAll(idx *Index) {
	for _, e := range idx.entries {
		e.Handle.SetMaterial(e.Original.Clone())
	}
}

// ApplyHighlight gives the mesh an opaque material in the status color.
func (h Highlighter) ApplyHighlight(e *Entry, status Status) {
	c := status.Color()
	e.Handle.SetMaterial(&scene.Material{
		Name:      "highlight-" + status.String(),
		Diffuse:   c,
		Specular:  highlightSpecular,
		Emissive:  c.Scale(h.EmissiveFraction),
		Alpha:     1,
		Shininess: 30,
	})
}

// ApplyOcclusionFade lowers the opacity of the mesh's current material.
// The mesh stays visible so its position still reads.
func (h Highlighter) ApplyOcclusionFade(e *Entry) {
	if m := e.Handle.Material(); m != nil {
		m.Alpha = h.FadeOpacity
		m.Transparent = true
	}
}

// ClearFade restores the original opacity of the mesh's current material.
func (h Highlighter) ClearFade(e *Entry) {
	m := e.Handle.Material()
	if m == nil || e.Original == nil {
		return
	}
	m.Alpha = e.Original.Alpha
	m.Transparent = e.Original.Transparent
}
