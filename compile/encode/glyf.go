package encode

import (
	"github.com/glyphworks/punchcut/compile/resolver"
	"github.com/glyphworks/punchcut/compile/source"
	"github.com/glyphworks/punchcut/core"
	"github.com/glyphworks/punchcut/core/designspace"
)

// Simple glyph description flags, glyf format 1. Bit 7 marks a cubic
// off-curve point, which the legacy format does not have.
const (
	flagOnCurve       = 0x01
	flagXShort        = 0x02
	flagYShort        = 0x04
	flagRepeat        = 0x08
	flagXSamePositive = 0x10
	flagYSamePositive = 0x20
	flagCubic         = 0x80
)

// SimpleGlyphRecord encodes a contour glyph: the default master's
// outline as a glyf description plus the across-master deltas as gvar
// tuple-variation data. axisOrder is the font-wide fvar axis tag order.
func SimpleGlyphRecord(rg *resolver.ResolvedGlyph, model *designspace.Model, axisOrder []string) (*Record, error) {
	if rg.DefaultMaster < 0 {
		return nil, core.WrapError(&designspace.MissingDefaultMaster{Glyph: rg.Name},
			core.EMISSING, "glyph %s has no master at the default location", rg.Name)
	}
	vectors := rg.CoordinateVectors()
	deltas, err := model.Deltas(vectors)
	if err != nil {
		return nil, err
	}
	rounded, err := roundDeltas(deltas, rg.Name)
	if err != nil {
		return nil, err
	}

	defaultMaster := rg.Masters[rg.DefaultMaster]
	points := roundContours(defaultMaster.Static.Contours)
	bbox, err := variationBBox(points, rounded, rg.Name)
	if err != nil {
		return nil, err
	}
	description := encodeGlyphDescription(points, bbox)

	gvarData, err := TupleVariations(model.Supports(), rounded, rg.NumPoints(), axisOrder)
	if err != nil {
		return nil, err
	}
	advance := OtRound(defaultMaster.Static.XAdvance)
	if advance < 0 {
		advance = 0
	}
	tracer().Debugf("glyph %s: %d bytes glyf, %d bytes gvar", rg.Name, len(description), len(gvarData))
	return &Record{
		Name:        rg.Name,
		Description: description,
		GvarData:    gvarData,
		BBox:        bbox,
		XAdvance:    uint16(advance),
	}, nil
}

// EmptyGlyphRecord encodes a glyph without outline or components, e.g.
// the space glyph.
func EmptyGlyphRecord(rg *resolver.ResolvedGlyph) *Record {
	advance := 0
	if rg.DefaultMaster >= 0 {
		advance = OtRound(rg.Masters[rg.DefaultMaster].Static.XAdvance)
	} else if len(rg.Masters) > 0 {
		advance = OtRound(rg.Masters[0].Static.XAdvance)
	}
	if advance < 0 {
		advance = 0
	}
	return &Record{Name: rg.Name, XAdvance: uint16(advance)}
}

type roundedPoint struct {
	x, y           int
	onCurve, cubic bool
}

func roundContours(contours []source.Contour) [][]roundedPoint {
	rounded := make([][]roundedPoint, len(contours))
	for i, contour := range contours {
		rounded[i] = make([]roundedPoint, len(contour.Points))
		for j, p := range contour.Points {
			rounded[i][j] = roundedPoint{
				x:       OtRound(p.X),
				y:       OtRound(p.Y),
				onCurve: p.OnCurve,
				cubic:   p.Cubic,
			}
		}
	}
	return rounded
}

// roundDeltas rounds the model's delta vectors to integers, verifying
// the tuple-variation word range.
func roundDeltas(deltas [][]float64, glyphName string) ([][]int, error) {
	rounded := make([][]int, len(deltas))
	for i, delta := range deltas {
		rounded[i] = make([]int, len(delta))
		for k, d := range delta {
			rounded[i][k] = OtRound(d)
		}
		if i == 0 {
			continue // the default payload is not stored as a delta
		}
		if err := CheckWordRange(rounded[i]); err != nil {
			return nil, core.WrapError(err, core.EOVERFLOW,
				"glyph %s: master delta out of range", glyphName)
		}
	}
	return rounded, nil
}

// variationBBox computes the default-master bounding box, extended so
// that it covers the extreme coordinate every delta can contribute at
// its full support weight. The sum of one-sided delta extremes bounds
// any reachable interpolated instance.
func variationBBox(points [][]roundedPoint, deltas [][]int, glyphName string) (BBox, error) {
	numOutline := 0
	for _, contour := range points {
		numOutline += len(contour)
	}
	if numOutline == 0 {
		return BBox{}, nil
	}
	minX := make([]int, numOutline)
	maxX := make([]int, numOutline)
	minY := make([]int, numOutline)
	maxY := make([]int, numOutline)
	i := 0
	for _, contour := range points {
		for _, p := range contour {
			minX[i], maxX[i] = p.x, p.x
			minY[i], maxY[i] = p.y, p.y
			i++
		}
	}
	for _, delta := range deltas[1:] {
		for k := 0; k < numOutline; k++ {
			dx, dy := delta[2*k], delta[2*k+1]
			if dx < 0 {
				minX[k] += dx
			} else {
				maxX[k] += dx
			}
			if dy < 0 {
				minY[k] += dy
			} else {
				maxY[k] += dy
			}
		}
	}
	bbox := BBox{XMin: 0x7fff, YMin: 0x7fff, XMax: -0x8000, YMax: -0x8000}
	for k := 0; k < numOutline; k++ {
		if err := checkUnits(glyphName, minX[k], maxX[k], minY[k], maxY[k]); err != nil {
			return BBox{}, err
		}
		bbox.XMin = min16(bbox.XMin, int16(minX[k]))
		bbox.XMax = max16(bbox.XMax, int16(maxX[k]))
		bbox.YMin = min16(bbox.YMin, int16(minY[k]))
		bbox.YMax = max16(bbox.YMax, int16(maxY[k]))
	}
	return bbox, nil
}

func checkUnits(glyphName string, values ...int) error {
	for _, v := range values {
		if v < -0x8000 || v > 0x7fff {
			return core.Error(core.EOVERFLOW, "glyph %s: coordinate %d exceeds font unit range", glyphName, v)
		}
	}
	return nil
}

func min16(a, b int16) int16 {
	if a < b {
		return a
	}
	return b
}

func max16(a, b int16) int16 {
	if a > b {
		return a
	}
	return b
}

// encodeGlyphDescription writes a simple glyph description: contour
// end points, flags with repeat compression, then x and y coordinates
// as deltas from the previous point in their narrowest width.
func encodeGlyphDescription(contours [][]roundedPoint, bbox BBox) []byte {
	if len(contours) == 0 {
		return nil
	}
	w := &BinWriter{}
	w.I16(int16(len(contours)))
	w.I16(bbox.XMin)
	w.I16(bbox.YMin)
	w.I16(bbox.XMax)
	w.I16(bbox.YMax)
	end := -1
	for _, contour := range contours {
		end += len(contour)
		w.U16(uint16(end))
	}
	w.U16(0) // no instructions

	var flags []byte
	var xw, yw BinWriter
	prevX, prevY := 0, 0
	for _, contour := range contours {
		for _, p := range contour {
			dx, dy := p.x-prevX, p.y-prevY
			prevX, prevY = p.x, p.y
			var flag byte
			if p.onCurve {
				flag |= flagOnCurve
			} else if p.cubic {
				flag |= flagCubic
			}
			flag |= encodeCoord(dx, flagXShort, flagXSamePositive, &xw)
			flag |= encodeCoordY(dy, &yw)
			flags = append(flags, flag)
		}
	}
	writeRepeatedFlags(w, flags)
	w.Raw(xw.Bytes())
	w.Raw(yw.Bytes())
	return w.Bytes()
}

// encodeCoord picks the narrowest encoding for one coordinate delta
// and returns the flag bits describing it.
func encodeCoord(d int, shortBit, sameBit byte, w *BinWriter) byte {
	switch {
	case d == 0:
		return sameBit
	case d >= -255 && d <= 255:
		if d > 0 {
			w.U8(uint8(d))
			return shortBit | sameBit
		}
		w.U8(uint8(-d))
		return shortBit
	default:
		w.I16(int16(d))
		return 0
	}
}

func encodeCoordY(d int, w *BinWriter) byte {
	return encodeCoord(d, flagYShort, flagYSamePositive, w)
}

// writeRepeatedFlags compresses runs of identical flag bytes with the
// repeat flag and a count byte.
func writeRepeatedFlags(w *BinWriter, flags []byte) {
	for i := 0; i < len(flags); {
		j := i + 1
		for j < len(flags) && flags[j] == flags[i] && j-i < 256 {
			j++
		}
		if repeats := j - i - 1; repeats > 0 {
			w.U8(flags[i] | flagRepeat)
			w.U8(uint8(repeats))
		} else {
			w.U8(flags[i])
		}
		i = j
	}
}
