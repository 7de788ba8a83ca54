package resolver

import (
	"context"
	"fmt"
	"sort"

	"github.com/glyphworks/punchcut/compile/source"
	"github.com/glyphworks/punchcut/core"
	"github.com/glyphworks/punchcut/core/designspace"
)

// IncompatibleMasters reports a contour-topology or component-structure
// mismatch between two masters of one glyph.
type IncompatibleMasters struct {
	Glyph   string
	MasterA string
	MasterB string
	Detail  string
}

func (e *IncompatibleMasters) Error() string {
	return fmt.Sprintf("glyph %s: masters %s and %s are not compatible (%s)",
		e.Glyph, e.MasterA, e.MasterB, e.Detail)
}

// UnsupportedMixedGlyph reports a glyph mixing contours and components,
// which the target record format does not carry.
type UnsupportedMixedGlyph struct {
	Glyph string
}

func (e *UnsupportedMixedGlyph) Error() string {
	return fmt.Sprintf("glyph %s mixes contours and components", e.Glyph)
}

// GlyphKind classifies a resolved glyph.
type GlyphKind int

const (
	EmptyGlyph     GlyphKind = iota // no contours, no components; valid
	ContourGlyph                    // simple outline
	CompositeGlyph                  // component references only
)

// Master pairs one active source with its static outline data.
type Master struct {
	Source source.Source
	Static source.StaticGlyph
}

// ResolvedGlyph is the cross-master view of one glyph: all active
// masters, their normalized locations (keyed by axis tag), and the
// validated topology.
type ResolvedGlyph struct {
	Name          string
	Kind          GlyphKind
	Masters       []Master
	Locations     []designspace.Location // normalized, tag-keyed, parallel to Masters
	DefaultMaster int                    // index into Masters, -1 if absent
	Signature     TopologySignature
	AxisBounds    map[string]designspace.Bounds // merged global+local, name-keyed
	AxisTags      map[string]string             // axis name → tag (incl. local V-tags)
	LocalAxisTags []string                      // sorted synthetic tags of local axes
}

// ComponentSlot is the across-master view of one component reference
// position: target name, per-master transforms and per-master raw
// locations in the target glyph's variation space.
type ComponentSlot struct {
	Name         string
	Transforms   []source.Transform
	RawLocations []designspace.Location
}

// Resolver fetches and validates glyphs against a fixed set of global
// axes. It is stateless apart from the backend handle and safe for
// concurrent use.
type Resolver struct {
	backend      source.Backend
	globalBounds map[string]designspace.Bounds
	globalTags   map[string]string
}

// New creates a resolver for a backend and the font's global axes.
// Axis mappings are applied to the global extents once, here.
func New(backend source.Backend, globalAxes []designspace.Axis) (*Resolver, error) {
	bounds := make(map[string]designspace.Bounds, len(globalAxes))
	tags := make(map[string]string, len(globalAxes))
	for _, axis := range globalAxes {
		if err := axis.Check(); err != nil {
			return nil, err
		}
		bounds[axis.Name] = axis.MappedBounds()
		tags[axis.Name] = axis.Tag
	}
	return &Resolver{backend: backend, globalBounds: bounds, globalTags: tags}, nil
}

// Resolve fetches one glyph and validates cross-master compatibility.
// A glyph with zero contours and zero components resolves to an
// explicit EmptyGlyph result, not an error.
func (r *Resolver) Resolve(ctx context.Context, glyphName string) (*ResolvedGlyph, error) {
	glyph, err := r.backend.Glyph(ctx, glyphName)
	if err != nil {
		return nil, err
	}
	rg := &ResolvedGlyph{Name: glyphName, DefaultMaster: -1}
	rg.AxisBounds, rg.AxisTags, rg.LocalAxisTags = r.mergeAxes(glyph)

	defaultLocation := designspace.Location{}
	for name, b := range rg.AxisBounds {
		defaultLocation[name] = b.Default
	}
	for _, src := range glyph.ActiveSources() {
		static, ok := glyph.SourceLayer(src)
		if !ok {
			return nil, core.Error(core.EMISSING, "glyph %s: source %s references missing layer %s",
				glyphName, src.Name, src.LayerName)
		}
		loc := defaultLocation.Copy()
		for axis, v := range src.Location {
			loc[axis] = v
		}
		normalized := designspace.NormalizeLocation(loc, rg.AxisBounds).RenameAxes(rg.AxisTags)
		if normalized.IsDefault() && rg.DefaultMaster < 0 {
			rg.DefaultMaster = len(rg.Masters)
		}
		rg.Masters = append(rg.Masters, Master{Source: src, Static: static})
		rg.Locations = append(rg.Locations, normalized)
	}
	if len(rg.Masters) == 0 {
		tracer().Infof("glyph %s has no active sources, treating as empty", glyphName)
		rg.Kind = EmptyGlyph
		return rg, nil
	}
	if err := r.checkCompatibility(rg); err != nil {
		return nil, err
	}
	first := rg.Masters[0].Static
	switch {
	case first.IsEmpty():
		rg.Kind = EmptyGlyph
	case len(first.Contours) > 0 && len(first.Components) > 0:
		return nil, core.WrapError(&UnsupportedMixedGlyph{Glyph: glyphName}, core.EINVALID,
			"glyph %s mixes contours and components", glyphName)
	case len(first.Components) > 0:
		rg.Kind = CompositeGlyph
	default:
		rg.Kind = ContourGlyph
	}
	tracer().Debugf("resolved glyph %s: %d masters, kind %d", glyphName, len(rg.Masters), rg.Kind)
	return rg, nil
}

// mergeAxes merges the glyph's local axes into the global axis set.
// Local axes shadowed by a global axis of the same name are ignored;
// the remaining ones get synthetic V-tags.
func (r *Resolver) mergeAxes(glyph *source.Glyph) (map[string]designspace.Bounds, map[string]string, []string) {
	bounds := make(map[string]designspace.Bounds, len(r.globalBounds)+len(glyph.Axes))
	tags := make(map[string]string, len(r.globalTags)+len(glyph.Axes))
	for name, b := range r.globalBounds {
		bounds[name] = b
	}
	for name, tag := range r.globalTags {
		tags[name] = tag
	}
	var localNames []string
	for _, axis := range glyph.Axes {
		if _, isGlobal := r.globalBounds[axis.Name]; isGlobal {
			continue
		}
		bounds[axis.Name] = axis.Bounds()
		localNames = append(localNames, axis.Name)
	}
	localTags := designspace.LocalAxisTags(localNames)
	sortedTags := make([]string, 0, len(localTags))
	for name, tag := range localTags {
		tags[name] = tag
		sortedTags = append(sortedTags, tag)
	}
	sort.Strings(sortedTags)
	return bounds, tags, sortedTags
}

// checkCompatibility compares every master's topology signature against
// the first master's.
func (r *Resolver) checkCompatibility(rg *ResolvedGlyph) error {
	rg.Signature = Signature(rg.Masters[0].Static)
	for _, master := range rg.Masters[1:] {
		sig := Signature(master.Static)
		if sig != rg.Signature {
			err := &IncompatibleMasters{
				Glyph:   rg.Name,
				MasterA: rg.Masters[0].Source.Name,
				MasterB: master.Source.Name,
				Detail:  fmt.Sprintf("topology %q vs. %q", rg.Signature, sig),
			}
			return core.WrapError(err, core.EINVALID,
				"contours for master %s of %s are not compatible", master.Source.Name, rg.Name)
		}
	}
	return nil
}

// NumPoints returns the number of outline points of a contour glyph,
// including the four phantom points.
func (rg *ResolvedGlyph) NumPoints() int {
	n := 0
	for _, contour := range rg.Masters[0].Static.Contours {
		n += len(contour.Points)
	}
	return n + 4
}

// CoordinateVectors flattens every master's outline into an
// (x0, y0, x1, y1, …) vector with the four phantom points appended, in
// master order. Only meaningful for contour glyphs.
func (rg *ResolvedGlyph) CoordinateVectors() [][]float64 {
	vectors := make([][]float64, len(rg.Masters))
	for i, master := range rg.Masters {
		vec := make([]float64, 0, 2*rg.NumPoints())
		for _, contour := range master.Static.Contours {
			for _, p := range contour.Points {
				vec = append(vec, p.X, p.Y)
			}
		}
		// phantom points: origin, advance, top origin, bottom origin
		vec = append(vec, 0, 0, master.Static.XAdvance, 0, 0, 0, 0, 0)
		vectors[i] = vec
	}
	return vectors
}

// ComponentSlots transposes the per-master component lists into
// per-slot across-master views. Only meaningful for composite glyphs.
func (rg *ResolvedGlyph) ComponentSlots() []ComponentSlot {
	if len(rg.Masters) == 0 {
		return nil
	}
	numSlots := len(rg.Masters[0].Static.Components)
	slots := make([]ComponentSlot, numSlots)
	for s := 0; s < numSlots; s++ {
		slots[s].Name = rg.Masters[0].Static.Components[s].Name
		slots[s].Transforms = make([]source.Transform, len(rg.Masters))
		slots[s].RawLocations = make([]designspace.Location, len(rg.Masters))
		for m, master := range rg.Masters {
			compo := master.Static.Components[s]
			slots[s].Transforms[m] = compo.Transform
			slots[s].RawLocations[m] = compo.Location
		}
	}
	return slots
}
