package tables

import (
	"encoding/binary"
	"fmt"
	"sort"

	"golang.org/x/image/font/sfnt"

	"github.com/glyphworks/punchcut/compile/encode"
	"github.com/glyphworks/punchcut/core"
	"github.com/glyphworks/punchcut/core/designspace"
)

// TableOverflow means a table grew past what its offset encoding can
// address. Glyph names the record that crossed the limit.
type TableOverflow struct {
	Glyph string
}

func (e *TableOverflow) Error() string {
	return fmt.Sprintf("table offset overflow at glyph %s", e.Glyph)
}

// Input is everything the assembler needs: the compiled records in
// glyph-index order plus the font-wide axis information.
type Input struct {
	UnitsPerEm        sfnt.Units
	GlobalAxes        []designspace.Axis
	LocalAxisTags     []string // sorted union of synthetic tags
	Records           []*encode.Record
	MaxComponentDepth int
}

// AxisOrder is the font-wide axis tag order: global axes as declared,
// then the synthetic local tags. fvar records, gvar peak tuples and
// VARC axis indices all follow it.
func (in *Input) AxisOrder() []string {
	order := make([]string, 0, len(in.GlobalAxes)+len(in.LocalAxisTags))
	for _, axis := range in.GlobalAxes {
		order = append(order, axis.Tag)
	}
	return append(order, in.LocalAxisTags...)
}

// Assemble builds the binary font: glyph tables, companion tables and
// the sfnt directory with checksums. The output is deterministic.
func Assemble(in *Input) ([]byte, error) {
	if len(in.Records) == 0 {
		return nil, core.Error(core.EINVALID, "no glyphs to assemble")
	}
	if len(in.Records) > 0xffff {
		return nil, core.Error(core.EOVERFLOW, "%d glyphs exceed the glyph index range",
			len(in.Records))
	}
	axisOrder := in.AxisOrder()
	gids := make(map[string]uint16, len(in.Records))
	for i, rec := range in.Records {
		gids[rec.Name] = uint16(i)
	}

	glyf, loca, err := buildGlyf(in.Records)
	if err != nil {
		return nil, err
	}
	gvar, err := buildGvar(in.Records, len(axisOrder))
	if err != nil {
		return nil, err
	}
	var composites []compositeGlyph
	for i, rec := range in.Records {
		if rec.Composite != nil {
			composites = append(composites, compositeGlyph{
				gid:   uint16(i),
				name:  rec.Name,
				compo: rec.Composite,
			})
		}
	}
	varc, err := buildVARC(composites, gids, AxisIndexMap(axisOrder), NewVarStoreBuilder(axisOrder))
	if err != nil {
		return nil, err
	}

	head := buildHead(in.UnitsPerEm, unionBBox(in.Records))
	maxp := buildMaxp(len(in.Records), collectMaxima(in.Records, in.MaxComponentDepth))
	fvar := buildFvar(in.GlobalAxes, in.LocalAxisTags)

	font := map[string][]byte{
		"fvar": fvar,
		"glyf": glyf,
		"gvar": gvar,
		"head": head,
		"loca": loca,
		"maxp": maxp,
	}
	if varc != nil {
		font["VARC"] = varc
	}
	return assembleSfnt(font)
}

// buildGlyf concatenates the glyph descriptions 4-byte aligned and
// returns the long-format loca alongside.
func buildGlyf(records []*encode.Record) ([]byte, []byte, error) {
	var glyf encode.BinWriter
	var loca encode.BinWriter
	for _, rec := range records {
		if glyf.Len() > 0xffffffff-len(rec.Description) {
			return nil, nil, core.WrapError(&TableOverflow{Glyph: rec.Name},
				core.EOVERFLOW, "glyf table overflow")
		}
		loca.U32(uint32(glyf.Len()))
		glyf.Raw(rec.Description)
		glyf.Pad4()
	}
	loca.U32(uint32(glyf.Len()))
	return glyf.Bytes(), loca.Bytes(), nil
}

// buildGvar writes the glyph-variations table: fixed header, long
// per-glyph offsets, then the tuple-variation data blocks.
func buildGvar(records []*encode.Record, axisCount int) ([]byte, error) {
	var data encode.BinWriter
	offsets := make([]uint32, 0, len(records)+1)
	for _, rec := range records {
		if data.Len() > 0xffffffff-len(rec.GvarData) {
			return nil, core.WrapError(&TableOverflow{Glyph: rec.Name},
				core.EOVERFLOW, "gvar table overflow")
		}
		offsets = append(offsets, uint32(data.Len()))
		data.Raw(rec.GvarData)
		if data.Len()%2 != 0 {
			data.U8(0)
		}
	}
	offsets = append(offsets, uint32(data.Len()))

	w := &encode.BinWriter{}
	w.U16(1) // majorVersion
	w.U16(0) // minorVersion
	w.U16(uint16(axisCount))
	w.U16(0)  // sharedTupleCount
	w.U32(20) // sharedTuplesOffset: directly past the header
	w.U16(uint16(len(records)))
	w.U16(1) // long offsets
	w.U32(uint32(20 + 4*len(offsets)))
	for _, off := range offsets {
		w.U32(off)
	}
	w.Raw(data.Bytes())
	return w.Bytes(), nil
}

func unionBBox(records []*encode.Record) encode.BBox {
	bbox := encode.BBox{}
	first := true
	for _, rec := range records {
		if rec.IsEmpty() {
			continue
		}
		if first {
			bbox = rec.BBox
			first = false
			continue
		}
		if rec.BBox.XMin < bbox.XMin {
			bbox.XMin = rec.BBox.XMin
		}
		if rec.BBox.YMin < bbox.YMin {
			bbox.YMin = rec.BBox.YMin
		}
		if rec.BBox.XMax > bbox.XMax {
			bbox.XMax = rec.BBox.XMax
		}
		if rec.BBox.YMax > bbox.YMax {
			bbox.YMax = rec.BBox.YMax
		}
	}
	return bbox
}

// collectMaxima re-derives point and contour maxima from the encoded
// descriptions. The description header is authoritative and cheap to
// read back.
func collectMaxima(records []*encode.Record, depth int) glyphMaxima {
	m := glyphMaxima{depth: depth}
	for _, rec := range records {
		if len(rec.Description) >= 12 {
			contours := int(int16(binary.BigEndian.Uint16(rec.Description[0:2])))
			if contours > m.contours {
				m.contours = contours
			}
			lastEnd := int(binary.BigEndian.Uint16(rec.Description[10+2*(contours-1) : 12+2*(contours-1)]))
			if lastEnd+1 > m.points {
				m.points = lastEnd + 1
			}
		}
		if rec.Composite != nil && len(rec.Composite.Components) > m.components {
			m.components = len(rec.Composite.Components)
		}
	}
	return m
}

// assembleSfnt writes the table directory and the tables in tag order,
// then patches head's checkSumAdjustment over the whole file.
func assembleSfnt(font map[string][]byte) ([]byte, error) {
	tags := make([]string, 0, len(font))
	for tag := range font {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	numTables := len(tags)

	entrySelector := 0
	for 1<<(entrySelector+1) <= numTables {
		entrySelector++
	}
	searchRange := (1 << entrySelector) * 16

	w := &encode.BinWriter{}
	w.U32(0x00010000)
	w.U16(uint16(numTables))
	w.U16(uint16(searchRange))
	w.U16(uint16(entrySelector))
	w.U16(uint16(numTables*16 - searchRange))

	offset := 12 + 16*numTables
	headOffset := -1
	for _, tag := range tags {
		data := font[tag]
		w.Tag(tag)
		w.U32(checkSum(data))
		w.U32(uint32(offset))
		w.U32(uint32(len(data)))
		if tag == "head" {
			headOffset = offset
		}
		offset += padded4(len(data))
	}
	for _, tag := range tags {
		w.Raw(font[tag])
		w.Pad4()
	}
	out := w.Bytes()
	adjustment := 0xb1b0afba - checkSum(out)
	binary.BigEndian.PutUint32(out[headOffset+8:], adjustment)
	tracer().Infof("assembled %d tables, %d bytes", numTables, len(out))
	return out, nil
}

func padded4(n int) int {
	return (n + 3) &^ 3
}

// checkSum is the sfnt table checksum: the sum of the data read as
// big-endian uint32 words, zero-padded to a word boundary.
func checkSum(data []byte) uint32 {
	var sum uint32
	for i := 0; i+4 <= len(data); i += 4 {
		sum += binary.BigEndian.Uint32(data[i:])
	}
	if rest := len(data) % 4; rest != 0 {
		var tail [4]byte
		copy(tail[:], data[len(data)-rest:])
		sum += binary.BigEndian.Uint32(tail[:])
	}
	return sum
}
