package resolver

import (
	"context"
	"errors"
	"testing"

	"github.com/glyphworks/punchcut/compile/source"
	"github.com/glyphworks/punchcut/core/designspace"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
)

var weightAxis = designspace.Axis{
	Name: "Weight", Tag: "wght", Min: 100, Default: 400, Max: 900,
}

func testBackend() *source.MemoryBackend {
	b := source.NewMemoryBackend(1000)
	b.SetAxes([]designspace.Axis{weightAxis})
	return b
}

func contourOf(points ...source.Point) source.Contour {
	return source.Contour{Points: points}
}

func box(x, y, w, h float64) source.Contour {
	return contourOf(
		source.Point{X: x, Y: y, OnCurve: true},
		source.Point{X: x + w, Y: y, OnCurve: true},
		source.Point{X: x + w, Y: y + h, OnCurve: true},
		source.Point{X: x, Y: y + h, OnCurve: true},
	)
}

func twoMasterGlyph(name string, regular, bold source.StaticGlyph) *source.Glyph {
	return &source.Glyph{
		Name: name,
		Sources: []source.Source{
			{Name: "Regular", Location: designspace.Location{"Weight": 400}, LayerName: "regular"},
			{Name: "Bold", Location: designspace.Location{"Weight": 900}, LayerName: "bold"},
		},
		Layers: map[string]source.Layer{
			"regular": {Glyph: regular},
			"bold":    {Glyph: bold},
		},
	}
}

func TestResolveContourGlyph(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "punchcut.compile")
	defer teardown()
	//
	b := testBackend()
	b.AddGlyph(twoMasterGlyph("I",
		source.StaticGlyph{Contours: []source.Contour{box(100, 0, 80, 700)}, XAdvance: 280},
		source.StaticGlyph{Contours: []source.Contour{box(80, 0, 140, 700)}, XAdvance: 320},
	))
	r, err := New(b, []designspace.Axis{weightAxis})
	if err != nil {
		t.Fatal(err)
	}
	rg, err := r.Resolve(context.Background(), "I")
	if err != nil {
		t.Fatal(err)
	}
	if rg.Kind != ContourGlyph {
		t.Errorf("expected a contour glyph, got kind %d", rg.Kind)
	}
	if rg.DefaultMaster != 0 {
		t.Errorf("expected the Regular master to be the default, got %d", rg.DefaultMaster)
	}
	if got := rg.Locations[1]; got["wght"] != 1 {
		t.Errorf("expected Bold at wght=1, got %v", got)
	}
	if rg.NumPoints() != 8 {
		t.Errorf("expected 4 outline + 4 phantom points, got %d", rg.NumPoints())
	}
	vecs := rg.CoordinateVectors()
	if len(vecs[0]) != 16 {
		t.Errorf("expected 16 coordinates, got %d", len(vecs[0]))
	}
	if vecs[1][10] != 320 { // phantom advance point of the bold master
		t.Errorf("expected bold advance phantom x to be 320, is %g", vecs[1][10])
	}
}

func TestResolveIncompatibleMasters(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "punchcut.compile")
	defer teardown()
	//
	b := testBackend()
	b.AddGlyph(twoMasterGlyph("broken",
		source.StaticGlyph{Contours: []source.Contour{box(0, 0, 10, 10)}},
		source.StaticGlyph{Contours: []source.Contour{contourOf(
			source.Point{X: 0, Y: 0, OnCurve: true},
			source.Point{X: 10, Y: 0, OnCurve: true},
			source.Point{X: 5, Y: 10, OnCurve: true},
		)}},
	))
	r, _ := New(b, []designspace.Axis{weightAxis})
	_, err := r.Resolve(context.Background(), "broken")
	if err == nil {
		t.Fatal("expected resolution of incompatible masters to fail")
	}
	var incompatible *IncompatibleMasters
	if !errors.As(err, &incompatible) {
		t.Fatalf("expected an IncompatibleMasters error, got %v", err)
	}
	if incompatible.Glyph != "broken" || incompatible.MasterB != "Bold" {
		t.Errorf("expected error to name glyph and masters, got %+v", incompatible)
	}
}

func TestResolveEmptyGlyph(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "punchcut.compile")
	defer teardown()
	//
	b := testBackend()
	b.AddGlyph(twoMasterGlyph("space",
		source.StaticGlyph{XAdvance: 250},
		source.StaticGlyph{XAdvance: 250},
	))
	r, _ := New(b, []designspace.Axis{weightAxis})
	rg, err := r.Resolve(context.Background(), "space")
	if err != nil {
		t.Fatal(err)
	}
	if rg.Kind != EmptyGlyph {
		t.Errorf("expected the space glyph to resolve to an empty result")
	}
}

func TestResolveMixedGlyphRejected(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "punchcut.compile")
	defer teardown()
	//
	b := testBackend()
	mixed := source.StaticGlyph{
		Contours:   []source.Contour{box(0, 0, 10, 10)},
		Components: []source.ComponentRef{{Name: "acute", Transform: source.Identity()}},
	}
	b.AddGlyph(twoMasterGlyph("amix", mixed, mixed))
	r, _ := New(b, []designspace.Axis{weightAxis})
	_, err := r.Resolve(context.Background(), "amix")
	var mixedErr *UnsupportedMixedGlyph
	if !errors.As(err, &mixedErr) {
		t.Fatalf("expected an UnsupportedMixedGlyph error, got %v", err)
	}
}

func TestResolveLocalAxes(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "punchcut.compile")
	defer teardown()
	//
	b := testBackend()
	g := &source.Glyph{
		Name: "flourish",
		Axes: []designspace.Axis{{Name: "swash", Min: 0, Default: 0, Max: 100}},
		Sources: []source.Source{
			{Name: "Default", Location: designspace.Location{}, LayerName: "default"},
			{Name: "Swashy", Location: designspace.Location{"swash": 100}, LayerName: "swashy"},
		},
		Layers: map[string]source.Layer{
			"default": {Glyph: source.StaticGlyph{Contours: []source.Contour{box(0, 0, 10, 10)}}},
			"swashy":  {Glyph: source.StaticGlyph{Contours: []source.Contour{box(0, 0, 20, 10)}}},
		},
	}
	b.AddGlyph(g)
	r, _ := New(b, []designspace.Axis{weightAxis})
	rg, err := r.Resolve(context.Background(), "flourish")
	if err != nil {
		t.Fatal(err)
	}
	if len(rg.LocalAxisTags) != 1 || rg.LocalAxisTags[0] != "V000" {
		t.Errorf("expected one local axis tag V000, got %v", rg.LocalAxisTags)
	}
	if got := rg.Locations[1]["V000"]; got != 1 {
		t.Errorf("expected swashy master at V000=1, got %v", rg.Locations[1])
	}
}
