package source

import (
	"context"
	"sort"
	"sync"

	"github.com/glyphworks/punchcut/core/designspace"
	"golang.org/x/image/font/sfnt"
)

// MemoryBackend is a Backend over data held in memory. It serves tests
// and programmatic construction of glyph sources. A MemoryBackend is
// safe for concurrent reads once populated.
type MemoryBackend struct {
	mutex   sync.RWMutex
	upem    sfnt.Units
	axes    []designspace.Axis
	glyphs  map[string]*Glyph
	ordered []string
}

// NewMemoryBackend creates an empty backend with the given units per em.
func NewMemoryBackend(upem sfnt.Units) *MemoryBackend {
	return &MemoryBackend{
		upem:   upem,
		glyphs: make(map[string]*Glyph),
	}
}

// SetAxes declares the font-level axes.
func (b *MemoryBackend) SetAxes(axes []designspace.Axis) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.axes = axes
}

// AddGlyph registers a glyph under its name.
func (b *MemoryBackend) AddGlyph(g *Glyph) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	if _, ok := b.glyphs[g.Name]; !ok {
		b.ordered = append(b.ordered, g.Name)
	}
	b.glyphs[g.Name] = g
}

// GlyphNames returns all registered glyph names, sorted.
func (b *MemoryBackend) GlyphNames(ctx context.Context) ([]string, error) {
	b.mutex.RLock()
	defer b.mutex.RUnlock()
	names := make([]string, len(b.ordered))
	copy(names, b.ordered)
	sort.Strings(names)
	return names, nil
}

// Axes returns the font-level axes.
func (b *MemoryBackend) Axes(ctx context.Context) ([]designspace.Axis, error) {
	b.mutex.RLock()
	defer b.mutex.RUnlock()
	return b.axes, nil
}

// Glyph returns the glyph registered under name.
func (b *MemoryBackend) Glyph(ctx context.Context, name string) (*Glyph, error) {
	b.mutex.RLock()
	defer b.mutex.RUnlock()
	g, ok := b.glyphs[name]
	if !ok {
		return nil, NotFound(name)
	}
	return g, nil
}

// UnitsPerEm returns the font's units per em.
func (b *MemoryBackend) UnitsPerEm(ctx context.Context) (sfnt.Units, error) {
	return b.upem, nil
}

var _ Backend = &MemoryBackend{}
