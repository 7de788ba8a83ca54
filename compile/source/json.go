package source

import (
	"encoding/json"
	"os"

	"github.com/glyphworks/punchcut/core"
	"github.com/glyphworks/punchcut/core/designspace"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/text/unicode/norm"
)

// JSON project format. This mirrors the in-memory model one to one and
// exists so that the thin CLI has something concrete to read; richer
// project backends are out of scope.

type jsonProject struct {
	UnitsPerEm int                  `json:"unitsPerEm"`
	Axes       []jsonAxis           `json:"axes"`
	Glyphs     map[string]jsonGlyph `json:"glyphs"`
}

type jsonAxis struct {
	Name    string       `json:"name"`
	Tag     string       `json:"tag"`
	Min     float64      `json:"minValue"`
	Default float64      `json:"defaultValue"`
	Max     float64      `json:"maxValue"`
	Mapping [][2]float64 `json:"mapping,omitempty"`
	Hidden  bool         `json:"hidden,omitempty"`
}

type jsonGlyph struct {
	Axes    []jsonAxis           `json:"axes,omitempty"`
	Sources []jsonSource         `json:"sources"`
	Layers  map[string]jsonLayer `json:"layers"`
}

type jsonSource struct {
	Name      string             `json:"name"`
	Location  map[string]float64 `json:"location"`
	LayerName string             `json:"layerName"`
	Inactive  bool               `json:"inactive,omitempty"`
}

type jsonLayer struct {
	Glyph jsonStaticGlyph `json:"glyph"`
}

type jsonStaticGlyph struct {
	XAdvance   float64         `json:"xAdvance"`
	Contours   []jsonContour   `json:"contours,omitempty"`
	Components []jsonComponent `json:"components,omitempty"`
}

type jsonContour struct {
	Points []jsonPoint `json:"points"`
}

type jsonPoint struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Off   bool    `json:"off,omitempty"`
	Cubic bool    `json:"cubic,omitempty"`
}

type jsonComponent struct {
	Name           string             `json:"name"`
	Transformation Transform          `json:"transformation"`
	Location       map[string]float64 `json:"location,omitempty"`
}

// LoadJSON reads a JSON glyph project from a file and returns it as a
// populated MemoryBackend. Glyph names are NFC-normalized, so that
// composed and decomposed spellings of the same name cannot end up as
// two distinct glyphs.
func LoadJSON(path string) (*MemoryBackend, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, Unavailable(path, err)
	}
	var project jsonProject
	if err := json.Unmarshal(data, &project); err != nil {
		return nil, core.WrapError(err, core.EINVALID, "cannot parse glyph project %s", path)
	}
	if project.UnitsPerEm <= 0 {
		project.UnitsPerEm = 1000
	}
	backend := NewMemoryBackend(sfnt.Units(project.UnitsPerEm))
	axes := make([]designspace.Axis, len(project.Axes))
	for i, a := range project.Axes {
		axes[i] = a.toAxis()
		if err := axes[i].Check(); err != nil {
			return nil, err
		}
	}
	backend.SetAxes(axes)
	for name, jg := range project.Glyphs {
		glyph, err := jg.toGlyph(norm.NFC.String(name))
		if err != nil {
			return nil, err
		}
		backend.AddGlyph(glyph)
	}
	tracer().Infof("loaded %d glyphs from %s", len(project.Glyphs), path)
	return backend, nil
}

func (a jsonAxis) toAxis() designspace.Axis {
	return designspace.Axis{
		Name:    a.Name,
		Tag:     a.Tag,
		Min:     a.Min,
		Default: a.Default,
		Max:     a.Max,
		Mapping: a.Mapping,
		Hidden:  a.Hidden,
	}
}

func (jg jsonGlyph) toGlyph(name string) (*Glyph, error) {
	glyph := &Glyph{
		Name:   name,
		Layers: make(map[string]Layer, len(jg.Layers)),
	}
	for _, a := range jg.Axes {
		axis := a.toAxis()
		if err := axis.Check(); err != nil {
			return nil, core.WrapError(err, core.EINVALID, "glyph %s: bad local axis", name)
		}
		glyph.Axes = append(glyph.Axes, axis)
	}
	for _, s := range jg.Sources {
		glyph.Sources = append(glyph.Sources, Source{
			Name:      s.Name,
			Location:  designspace.Location(s.Location),
			LayerName: s.LayerName,
			Inactive:  s.Inactive,
		})
	}
	for layerName, jl := range jg.Layers {
		static := StaticGlyph{XAdvance: jl.Glyph.XAdvance}
		for _, jc := range jl.Glyph.Contours {
			contour := Contour{Points: make([]Point, len(jc.Points))}
			for i, p := range jc.Points {
				contour.Points[i] = Point{X: p.X, Y: p.Y, OnCurve: !p.Off, Cubic: p.Cubic}
			}
			static.Contours = append(static.Contours, contour)
		}
		for _, jc := range jl.Glyph.Components {
			static.Components = append(static.Components, ComponentRef{
				Name:      norm.NFC.String(jc.Name),
				Transform: jc.Transformation,
				Location:  designspace.Location(jc.Location),
			})
		}
		glyph.Layers[layerName] = Layer{Glyph: static}
	}
	return glyph, nil
}
