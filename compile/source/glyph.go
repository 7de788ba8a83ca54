package source

import (
	"github.com/glyphworks/punchcut/core/designspace"
)

// Glyph is one editable glyph: glyph-local axes plus a set of masters
// ("sources"), each referencing a layer holding static outline data.
type Glyph struct {
	Name    string
	Axes    []designspace.Axis
	Sources []Source
	Layers  map[string]Layer
}

// Source is one master of a glyph: a named location in designspace and
// the name of the layer carrying the outline at that location.
type Source struct {
	Name      string
	Location  designspace.Location // design coordinates, keyed by axis name
	LayerName string
	Inactive  bool
}

// Layer wraps the static glyph data of one master.
type Layer struct {
	Glyph StaticGlyph
}

// StaticGlyph is the concrete outline snapshot at one location: closed
// contours and/or component references, plus the advance width.
type StaticGlyph struct {
	Contours   []Contour
	Components []ComponentRef
	XAdvance   float64
}

// IsEmpty is a predicate: no contours and no components. An empty glyph
// (e.g. the space glyph) is valid and compiles to an empty record.
func (g StaticGlyph) IsEmpty() bool {
	return len(g.Contours) == 0 && len(g.Components) == 0
}

// Contour is a closed, ordered sequence of points.
type Contour struct {
	Points []Point
}

// Point is one point of a contour. Off-curve points are quadratic
// control points unless Cubic is set; the glyf format 1 target supports
// both kinds.
type Point struct {
	X, Y    float64
	OnCurve bool
	Cubic   bool
}

// ComponentRef is a reference to another glyph, placed by an affine
// transform. For variable components, Location pins the target glyph's
// own axes.
type ComponentRef struct {
	Name      string
	Transform Transform
	Location  designspace.Location // target glyph's variation space
}

// ActiveSources filters out sources marked inactive.
func (g *Glyph) ActiveSources() []Source {
	active := make([]Source, 0, len(g.Sources))
	for _, s := range g.Sources {
		if !s.Inactive {
			active = append(active, s)
		}
	}
	return active
}

// SourceLayer returns the static glyph of a source's layer.
func (g *Glyph) SourceLayer(s Source) (StaticGlyph, bool) {
	layer, ok := g.Layers[s.LayerName]
	return layer.Glyph, ok
}

// ComponentNames returns the target names referenced by the first
// active source, which after the compatibility check is representative
// for all masters of the glyph.
func (g *Glyph) ComponentNames() []string {
	sources := g.ActiveSources()
	if len(sources) == 0 {
		return nil
	}
	static, ok := g.SourceLayer(sources[0])
	if !ok {
		return nil
	}
	names := make([]string, len(static.Components))
	for i, compo := range static.Components {
		names[i] = compo.Name
	}
	return names
}
