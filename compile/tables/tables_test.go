package tables

import (
	"encoding/binary"
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glyphworks/punchcut/compile/encode"
	"github.com/glyphworks/punchcut/compile/resolver"
	"github.com/glyphworks/punchcut/compile/source"
	"github.com/glyphworks/punchcut/core/designspace"
)

func TestCheckSum(t *testing.T) {
	assert.Equal(t, uint32(3), checkSum([]byte{0, 0, 0, 1, 0, 0, 0, 2}))
	// a trailing partial word is zero-padded
	assert.Equal(t, uint32(0x01000000), checkSum([]byte{0, 0, 0, 0, 1}))
}

func TestMergeLocalAxisTags(t *testing.T) {
	merged := MergeLocalAxisTags([][]string{{"V001", "V000"}, {"V000", "V002"}})
	assert.Equal(t, []string{"V000", "V001", "V002"}, merged)
}

func TestVarStoreRegionDedup(t *testing.T) {
	model, err := designspace.NewModel([]designspace.Location{{}, {"wght": 1}})
	require.NoError(t, err)
	b := NewVarStoreBuilder([]string{"wght"})
	identity := func(i int, v float64) (int16, error) { return int16(encode.OtRound(v)), nil }
	idx0, err := b.StoreMasters(model, [][]float64{{0}, {10}}, identity)
	require.NoError(t, err)
	idx1, err := b.StoreMasters(model, [][]float64{{0, 0}, {3, -4}}, identity)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), idx0)
	assert.Equal(t, uint32(1), idx1)
	assert.Len(t, b.regions, 1, "expected both items to share one region")

	blob := b.Serialize()
	assert.Equal(t, uint16(1), binary.BigEndian.Uint16(blob[0:2])) // axisCount
	assert.Equal(t, uint16(1), binary.BigEndian.Uint16(blob[2:4])) // regionCount
	// region tent for wght: min 0, peak 1, max 1 in F2Dot14
	assert.Equal(t, uint16(0x0000), binary.BigEndian.Uint16(blob[4:6]))
	assert.Equal(t, uint16(0x4000), binary.BigEndian.Uint16(blob[6:8]))
	assert.Equal(t, uint16(0x4000), binary.BigEndian.Uint16(blob[8:10]))
	assert.Equal(t, uint32(2), binary.BigEndian.Uint32(blob[10:14])) // itemCount
}

// --- fixtures ------------------------------------------------------------

func weightAxis() designspace.Axis {
	return designspace.Axis{Name: "weight", Tag: "wght", Min: 100, Default: 400, Max: 900}
}

func squareGlyph(t *testing.T, size float64) *encode.Record {
	t.Helper()
	static := func(s float64) source.StaticGlyph {
		return source.StaticGlyph{
			Contours: []source.Contour{{Points: []source.Point{
				{X: 0, Y: 0, OnCurve: true},
				{X: s, Y: 0, OnCurve: true},
				{X: s, Y: s, OnCurve: true},
				{X: 0, Y: s, OnCurve: true},
			}}},
			XAdvance: s + 20,
		}
	}
	rg := &resolver.ResolvedGlyph{
		Name: "block",
		Kind: resolver.ContourGlyph,
		Masters: []resolver.Master{
			{Static: static(size)},
			{Static: static(size * 1.5)},
		},
		Locations:     []designspace.Location{{}, {"wght": 1}},
		DefaultMaster: 0,
	}
	model, err := designspace.NewModel(rg.Locations)
	require.NoError(t, err)
	rec, err := encode.SimpleGlyphRecord(rg, model, []string{"wght"})
	require.NoError(t, err)
	return rec
}

func assembleFixture(t *testing.T) ([]byte, *Input) {
	t.Helper()
	in := &Input{
		UnitsPerEm: 1000,
		GlobalAxes: []designspace.Axis{weightAxis()},
		Records: []*encode.Record{
			{Name: ".notdef"},
			squareGlyph(t, 100),
		},
	}
	out, err := Assemble(in)
	require.NoError(t, err)
	return out, in
}

// parseDirectory maps table tags to (offset, length).
func parseDirectory(t *testing.T, font []byte) map[string][2]int {
	t.Helper()
	numTables := int(binary.BigEndian.Uint16(font[4:6]))
	dir := map[string][2]int{}
	for i := 0; i < numTables; i++ {
		entry := font[12+16*i:]
		tag := string(entry[0:4])
		offset := int(binary.BigEndian.Uint32(entry[8:12]))
		length := int(binary.BigEndian.Uint32(entry[12:16]))
		dir[tag] = [2]int{offset, length}
	}
	return dir
}

// --- assembly ------------------------------------------------------------

func TestAssembleDirectory(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "punchcut.tables")
	defer teardown()
	//
	font, _ := assembleFixture(t)
	assert.Equal(t, uint32(0x00010000), binary.BigEndian.Uint32(font[0:4]))
	numTables := int(binary.BigEndian.Uint16(font[4:6]))
	assert.Equal(t, 6, numTables) // fvar glyf gvar head loca maxp, no composites
	searchRange := int(binary.BigEndian.Uint16(font[6:8]))
	assert.Equal(t, 64, searchRange)
	assert.Equal(t, 2, int(binary.BigEndian.Uint16(font[8:10])))

	dir := parseDirectory(t, font)
	for _, tag := range []string{"fvar", "glyf", "gvar", "head", "loca", "maxp"} {
		assert.Contains(t, dir, tag)
	}
}

func TestAssembleChecksumAdjustment(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "punchcut.tables")
	defer teardown()
	//
	font, _ := assembleFixture(t)
	dir := parseDirectory(t, font)
	head := dir["head"]
	assert.Equal(t, uint32(0x5f0f3cf5), binary.BigEndian.Uint32(font[head[0]+12:])) // magic
	// summing the whole file, adjustment included, yields the magic constant
	assert.Equal(t, uint32(0xb1b0afba), checkSum(font))
}

func TestAssembleLoca(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "punchcut.tables")
	defer teardown()
	//
	font, in := assembleFixture(t)
	dir := parseDirectory(t, font)
	loca := dir["loca"]
	assert.Equal(t, 4*(len(in.Records)+1), loca[1])
	// .notdef has no description, so its loca segment is empty
	off0 := binary.BigEndian.Uint32(font[loca[0]:])
	off1 := binary.BigEndian.Uint32(font[loca[0]+4:])
	off2 := binary.BigEndian.Uint32(font[loca[0]+8:])
	assert.Equal(t, uint32(0), off0)
	assert.Equal(t, uint32(0), off1)
	assert.Greater(t, off2, off1)
}

func TestAssembleIdempotent(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "punchcut.tables")
	defer teardown()
	//
	font1, _ := assembleFixture(t)
	font2, _ := assembleFixture(t)
	assert.Equal(t, font1, font2)
}

func TestAssembleRejectsEmpty(t *testing.T) {
	_, err := Assemble(&Input{UnitsPerEm: 1000})
	require.Error(t, err)
}

// --- VARC ----------------------------------------------------------------

func TestBuildVARC(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "punchcut.tables")
	defer teardown()
	//
	model, err := designspace.NewModel([]designspace.Location{{}, {"wght": 1}})
	require.NoError(t, err)
	compo := &encode.Composite{
		Model: model,
		Components: []encode.Component{{
			TargetName: "a",
			Flags: encode.FlagHaveAxes | encode.FlagAxesHaveVariation |
				encode.FlagHaveTranslateX,
			Transform:        source.Identity(),
			AxisTags:         []string{"wght"},
			AxisValues:       []float64{-0.5},
			AxisValueMasters: [][]float64{{-0.5}, {0.25}},
		}},
	}
	gids := map[string]uint16{"a": 1, "adieresis": 2}
	store := NewVarStoreBuilder([]string{"wght"})
	blob, err := buildVARC([]compositeGlyph{{gid: 2, name: "adieresis", compo: compo}},
		gids, AxisIndexMap([]string{"wght"}), store)
	require.NoError(t, err)
	assert.Equal(t, uint32(varcVersion), binary.BigEndian.Uint32(blob[0:4]))
	storeOffset := binary.BigEndian.Uint32(blob[4:8])
	assert.NotZero(t, storeOffset, "axis variation must populate the store")
	assert.Equal(t, uint16(1), binary.BigEndian.Uint16(blob[12:14]))
	assert.Equal(t, uint16(2), binary.BigEndian.Uint16(blob[14:16])) // coverage gid

	recordOffset := binary.BigEndian.Uint32(blob[16:20])
	record := blob[recordOffset:]
	assert.Equal(t, uint16(1), binary.BigEndian.Uint16(record[0:2])) // numComponents
	assert.Equal(t, compo.Components[0].Flags, binary.BigEndian.Uint16(record[2:4]))
	assert.Equal(t, uint16(1), binary.BigEndian.Uint16(record[4:6])) // target gid
	// axis list index 0, then the pinned value -0.5 in F2Dot14
	assert.Equal(t, uint16(0), binary.BigEndian.Uint16(record[6:8]))
	assert.Equal(t, int16(-8192), int16(binary.BigEndian.Uint16(record[8:10])))
}

func TestBuildVARCUnknownTarget(t *testing.T) {
	model, err := designspace.NewModel([]designspace.Location{{}})
	require.NoError(t, err)
	compo := &encode.Composite{
		Model:      model,
		Components: []encode.Component{{TargetName: "missing", Transform: source.Identity()}},
	}
	store := NewVarStoreBuilder(nil)
	_, err = buildVARC([]compositeGlyph{{gid: 0, name: "x", compo: compo}},
		map[string]uint16{}, map[string]int{}, store)
	require.Error(t, err)
}
