package compile

import (
	"context"
	"errors"
	"math"
	"runtime"
	"sort"
	"sync"

	"github.com/npillmayer/arithm"
	"golang.org/x/image/font/sfnt"

	"github.com/glyphworks/punchcut/compile/encode"
	"github.com/glyphworks/punchcut/compile/graph"
	"github.com/glyphworks/punchcut/compile/resolver"
	"github.com/glyphworks/punchcut/compile/source"
	"github.com/glyphworks/punchcut/compile/tables"
	"github.com/glyphworks/punchcut/core"
	"github.com/glyphworks/punchcut/core/designspace"
)

// Options configure a compilation run.
type Options struct {
	Workers     int      // bounded pool size; 0 means GOMAXPROCS
	DepthLimit  int      // component nesting limit; 0 means the graph default
	GlyphFilter []string // compile only these glyphs (plus their components)
}

// phase names the pipeline stages, in order.
type phase int

const (
	phaseInit phase = iota
	phaseResolveGlyphs
	phaseBuildGraph
	phaseBuildVariationModels
	phaseEncodeGlyphs
	phaseAssemble
	phaseDone
	phaseFailed
)

var phaseNames = []string{"Init", "ResolveGlyphs", "BuildGraph", "BuildVariationModels",
	"EncodeGlyphs", "Assemble", "Done", "Failed"}

func (p phase) String() string {
	if int(p) < len(phaseNames) {
		return phaseNames[p]
	}
	return "?"
}

// Compiler runs the pipeline against one source backend. A Compiler is
// single-use: create one per compilation.
type Compiler struct {
	opts    Options
	backend source.Backend
	phase   phase

	res        *resolver.Resolver
	axes       []designspace.Axis
	globalTags map[string]bool
	unitsPerEm sfnt.Units
	axisOrder  []string
	localTags  []string
	depGraph   *graph.Graph

	mu       sync.Mutex
	resolved map[string]*resolver.ResolvedGlyph
	models   map[string]*designspace.Model
	records  map[string]*encode.Record
	responds map[string]bool
}

// New creates a compiler over a backend.
func New(backend source.Backend, opts Options) *Compiler {
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	return &Compiler{
		opts:     opts,
		backend:  backend,
		resolved: map[string]*resolver.ResolvedGlyph{},
		models:   map[string]*designspace.Model{},
		records:  map[string]*encode.Record{},
		responds: map[string]bool{},
	}
}

func (c *Compiler) enter(p phase) {
	tracer().Infof("pipeline stage %s", p)
	c.phase = p
}

// Phase reports the stage the pipeline is in, for diagnostics.
func (c *Compiler) Phase() string {
	return c.phase.String()
}

// Compile runs all stages and returns the assembled font. On error the
// pipeline stops at the failing stage and no partial output escapes.
func (c *Compiler) Compile(ctx context.Context) ([]byte, error) {
	out, err := c.run(ctx)
	if err != nil {
		tracer().Errorf("pipeline failed in stage %s: %v", c.phase, err)
		c.phase = phaseFailed
		return nil, err
	}
	c.enter(phaseDone)
	return out, nil
}

func (c *Compiler) run(ctx context.Context) ([]byte, error) {
	c.enter(phaseInit)
	axes, err := c.backend.Axes(ctx)
	if err != nil {
		return nil, err
	}
	c.axes = axes
	c.globalTags = map[string]bool{}
	for _, axis := range axes {
		c.globalTags[axis.Tag] = true
	}
	if c.unitsPerEm, err = c.backend.UnitsPerEm(ctx); err != nil {
		return nil, err
	}
	if c.res, err = resolver.New(c.backend, axes); err != nil {
		return nil, err
	}
	requested := c.opts.GlyphFilter
	if len(requested) == 0 {
		if requested, err = c.backend.GlyphNames(ctx); err != nil {
			return nil, err
		}
	}

	c.enter(phaseResolveGlyphs)
	if err := runWorkers(ctx, c.opts.Workers, requested, c.resolveGlyph); err != nil {
		return nil, err
	}

	c.enter(phaseBuildGraph)
	refs := func(name string) ([]string, error) {
		rg, err := c.ensureResolved(ctx, name)
		if err != nil {
			return nil, err
		}
		var targets []string
		for _, slot := range rg.ComponentSlots() {
			targets = append(targets, slot.Name)
		}
		return targets, nil
	}
	if c.depGraph, err = graph.Build(requested, refs, c.opts.DepthLimit); err != nil {
		return nil, err
	}

	c.enter(phaseBuildVariationModels)
	if err := c.buildModels(); err != nil {
		return nil, err
	}

	c.enter(phaseEncodeGlyphs)
	for _, tier := range c.depGraph.Tiers() {
		if err := runWorkers(ctx, c.opts.Workers, tier, c.encodeGlyph); err != nil {
			return nil, err
		}
	}

	c.enter(phaseAssemble)
	return c.assemble()
}

// resolveGlyph resolves one glyph and caches the result. A glyph the
// backend does not have becomes an explicit empty glyph, so dangling
// component references degrade instead of failing the run.
func (c *Compiler) resolveGlyph(ctx context.Context, name string) error {
	rg, err := c.res.Resolve(ctx, name)
	if err != nil {
		if errors.Is(err, source.ErrGlyphNotFound) {
			tracer().Infof("glyph %s not in source, compiling as empty", name)
			rg = &resolver.ResolvedGlyph{Name: name, Kind: resolver.EmptyGlyph, DefaultMaster: -1}
		} else {
			return err
		}
	}
	c.mu.Lock()
	c.resolved[name] = rg
	c.mu.Unlock()
	return nil
}

func (c *Compiler) ensureResolved(ctx context.Context, name string) (*resolver.ResolvedGlyph, error) {
	c.mu.Lock()
	rg, ok := c.resolved[name]
	c.mu.Unlock()
	if ok {
		return rg, nil
	}
	if err := c.resolveGlyph(ctx, name); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.resolved[name], nil
}

// buildModels derives the per-glyph variation models and fixes the
// font-wide axis order, including the union of synthetic local tags.
func (c *Compiler) buildModels() error {
	var perGlyph [][]string
	for _, name := range c.depGraph.CompileOrder() {
		rg := c.resolved[name]
		perGlyph = append(perGlyph, rg.LocalAxisTags)
		if rg.Kind == resolver.EmptyGlyph {
			continue
		}
		model, err := designspace.NewModel(rg.Locations)
		if err != nil {
			var missing *designspace.MissingDefaultMaster
			if errors.As(err, &missing) {
				missing.Glyph = name
			}
			return core.WrapError(err, core.Code(err),
				"cannot build variation model for glyph %s", name)
		}
		c.models[name] = model
	}
	c.localTags = tables.MergeLocalAxisTags(perGlyph)
	c.axisOrder = make([]string, 0, len(c.axes)+len(c.localTags))
	for _, axis := range c.axes {
		c.axisOrder = append(c.axisOrder, axis.Tag)
	}
	c.axisOrder = append(c.axisOrder, c.localTags...)
	tracer().Debugf("axis order: %v", c.axisOrder)
	return nil
}

func (c *Compiler) encodeGlyph(ctx context.Context, name string) error {
	c.mu.Lock()
	rg := c.resolved[name]
	model := c.models[name]
	c.mu.Unlock()
	var rec *encode.Record
	var err error
	switch rg.Kind {
	case resolver.EmptyGlyph:
		rec = encode.EmptyGlyphRecord(rg)
	case resolver.ContourGlyph:
		rec, err = encode.SimpleGlyphRecord(rg, model, c.axisOrder)
	case resolver.CompositeGlyph:
		rec, err = encode.CompositeGlyphRecord(rg, model, c.baseInfo)
		if err == nil {
			rec.BBox = c.compositeBBox(rg)
		}
	}
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.records[name] = rec
	c.mu.Unlock()
	return nil
}

// baseInfo exposes a component target's axis space to the encoder.
// Targets are always resolved by the time their dependents encode.
func (c *Compiler) baseInfo(target string) (*encode.BaseInfo, error) {
	c.mu.Lock()
	rg, ok := c.resolved[target]
	c.mu.Unlock()
	if !ok {
		return nil, core.Error(core.EINTERNAL, "component target %s was never resolved", target)
	}
	var localNames []string
	for name := range rg.AxisBounds {
		if !c.isGlobalAxisName(name) {
			localNames = append(localNames, name)
		}
	}
	sort.Strings(localNames)
	return &encode.BaseInfo{
		AxisBounds:           rg.AxisBounds,
		AxisTags:             rg.AxisTags,
		LocalAxisNames:       localNames,
		RespondsToGlobalAxes: c.respondsToGlobalAxes(target, nil),
	}, nil
}

func (c *Compiler) isGlobalAxisName(name string) bool {
	for _, axis := range c.axes {
		if axis.Name == name {
			return true
		}
	}
	return false
}

// respondsToGlobalAxes is a predicate: does the glyph's outline change
// along any global axis, directly or through a nested component. The
// result is memoized; seen guards against cycles, which the graph has
// already ruled out for reachable glyphs.
func (c *Compiler) respondsToGlobalAxes(name string, seen map[string]bool) bool {
	c.mu.Lock()
	cached, ok := c.responds[name]
	rg := c.resolved[name]
	c.mu.Unlock()
	if ok {
		return cached
	}
	if seen[name] || rg == nil {
		return false
	}
	if seen == nil {
		seen = map[string]bool{}
	}
	seen[name] = true
	responds := false
	for _, loc := range rg.Locations {
		for tag, v := range loc {
			if v != 0 && c.globalTags[tag] {
				responds = true
			}
		}
	}
	if !responds {
		for _, slot := range rg.ComponentSlots() {
			if c.respondsToGlobalAxes(slot.Name, seen) {
				responds = true
				break
			}
		}
	}
	c.mu.Lock()
	c.responds[name] = responds
	c.mu.Unlock()
	return responds
}

// compositeBBox unions the default-master placements of all component
// targets. Targets are encoded in earlier tiers, so their records (and
// variation-extended boxes) are already published; nested composites
// propagate bottom-up.
func (c *Compiler) compositeBBox(rg *resolver.ResolvedGlyph) encode.BBox {
	var minX, minY, maxX, maxY float64
	have := false
	for _, slot := range rg.ComponentSlots() {
		c.mu.Lock()
		target := c.records[slot.Name]
		c.mu.Unlock()
		if target == nil || target.IsEmpty() {
			continue
		}
		tr := slot.Transforms[rg.DefaultMaster]
		box := target.BBox
		corners := [4]arithm.Pair{
			arithm.Pair(complex(float64(box.XMin), float64(box.YMin))),
			arithm.Pair(complex(float64(box.XMax), float64(box.YMin))),
			arithm.Pair(complex(float64(box.XMax), float64(box.YMax))),
			arithm.Pair(complex(float64(box.XMin), float64(box.YMax))),
		}
		for _, corner := range corners {
			if !tr.IsIdentity() {
				corner = tr.Apply(corner)
			}
			z := complex128(corner)
			x, y := real(z), imag(z)
			if !have {
				minX, maxX, minY, maxY = x, x, y, y
				have = true
				continue
			}
			minX = math.Min(minX, x)
			maxX = math.Max(maxX, x)
			minY = math.Min(minY, y)
			maxY = math.Max(maxY, y)
		}
	}
	if !have {
		return encode.BBox{}
	}
	return encode.BBox{
		XMin: clampUnits(encode.OtRound(minX)),
		YMin: clampUnits(encode.OtRound(minY)),
		XMax: clampUnits(encode.OtRound(maxX)),
		YMax: clampUnits(encode.OtRound(maxY)),
	}
}

func clampUnits(v int) int16 {
	if v < -0x8000 {
		return -0x8000
	}
	if v > 0x7fff {
		return 0x7fff
	}
	return int16(v)
}

// assemble fixes the glyph index order (.notdef first, the rest sorted
// by name) and hands the records to the table assembler.
func (c *Compiler) assemble() ([]byte, error) {
	names := append([]string{}, c.depGraph.CompileOrder()...)
	sort.Strings(names)
	ordered := make([]*encode.Record, 0, len(names)+1)
	if _, hasNotdef := c.records[".notdef"]; !hasNotdef {
		ordered = append(ordered, &encode.Record{
			Name:     ".notdef",
			XAdvance: uint16(c.unitsPerEm / 2),
		})
	}
	for _, name := range names {
		if name == ".notdef" {
			ordered = append([]*encode.Record{c.records[name]}, ordered...)
			continue
		}
		ordered = append(ordered, c.records[name])
	}
	in := &tables.Input{
		UnitsPerEm:        c.unitsPerEm,
		GlobalAxes:        c.axes,
		LocalAxisTags:     c.localTags,
		Records:           ordered,
		MaxComponentDepth: c.componentDepth(),
	}
	return tables.Assemble(in)
}

// componentDepth is the deepest component nesting among the compiled
// glyphs, derived from the tier partition.
func (c *Compiler) componentDepth() int {
	depth := 0
	for i, tier := range c.depGraph.Tiers() {
		for _, name := range tier {
			if rec := c.records[name]; rec != nil && rec.Composite != nil && i > depth {
				depth = i
			}
		}
	}
	return depth
}
