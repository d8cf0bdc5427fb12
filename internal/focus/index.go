package focus

import (
	"strings"

	"github.com/Faultbox/bodyview/internal/engine/picking"
	"github.com/Faultbox/bodyview/internal/scene"
)

// Entry is one indexed mesh.
type Entry struct {
	Name     string
	Handle   scene.Renderable
	Bounds   picking.AABB    // World space, captured at index time
	Original *scene.Material // Snapshot taken before any highlighting; never mutated

	lower string
}

// Index maps body-part names to meshes for one loaded model.
// It is built once and replaced wholesale on reload.
type Index struct {
	entries []*Entry
}

// NewIndex walks model once and snapshots every mesh. A nil or empty model
// gives an empty index, which is the state before any model is loaded.
func NewIndex(model scene.Model) *Index {
	idx := &Index{}
	if model == nil {
		return idx
	}
	model.Walk(func(r scene.Renderable) {
		idx.entries = append(idx.entries, &Entry{
			Name:     r.Name(),
			Handle:   r,
			Bounds:   r.Bounds(),
			Original: r.Material().Clone(),
			lower:    strings.ToLower(r.Name()),
		})
	})
	return idx
}

// Len returns the number of indexed meshes.
func (idx *Index) Len() int {
	return len(idx.entries)
}

// Entries returns all entries in traversal order.
func (idx *Index) Entries() []*Entry {
	return idx.entries
}

// Names returns all mesh names in traversal order.
func (idx *Index) Names() []string {
	names := make([]string, len(idx.entries))
	for i, e := range idx.entries {
		names[i] = e.Name
	}
	return names
}

// Resolve finds the mesh for a semantic name, ignoring case. An exact name
// match wins; otherwise the first mesh in traversal order whose name
// contains the query. Returns nil when nothing matches.
func (idx *Index) Resolve(name string) *Entry {
	q := strings.ToLower(strings.TrimSpace(name))
	if q == "" {
		return nil
	}
	for _, e := range idx.entries {
		if e.lower == q {
			return e
		}
	}
	for _, e := range idx.entries {
		if strings.Contains(e.lower, q) {
			return e
		}
	}
	return nil
}

// Lookup finds an entry by its handle.
func (idx *Index) Lookup(r scene.Renderable) *Entry {
	for _, e := range idx.entries {
		if e.Handle == r {
			return e
		}
	}
	return nil
}
