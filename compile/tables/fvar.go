package tables

import (
	"golang.org/x/image/font/sfnt"

	"github.com/glyphworks/punchcut/compile/encode"
	"github.com/glyphworks/punchcut/core/designspace"
)

// fvar axis flags
const axisHidden = 0x0001

// toFixed1616 converts to 16.16 fixed point.
func toFixed1616(v float64) uint32 {
	return uint32(int32(encode.OtRound(v * 65536)))
}

// buildFvar writes the fvar table: the font's global axes followed by
// hidden synthetic entries for the per-glyph local axes. Extents are
// design-space values, since no avar mapping table is emitted.
func buildFvar(globalAxes []designspace.Axis, localTags []string) []byte {
	axisCount := len(globalAxes) + len(localTags)
	w := &encode.BinWriter{}
	w.U16(1) // majorVersion
	w.U16(0) // minorVersion
	w.U16(16)
	w.U16(2) // reserved
	w.U16(uint16(axisCount))
	w.U16(20) // axisSize
	w.U16(0)  // instanceCount
	w.U16(uint16(axisCount*4 + 4))
	nameID := uint16(256)
	for _, axis := range globalAxes {
		b := axis.MappedBounds()
		w.Tag(axis.Tag)
		w.U32(toFixed1616(b.Min))
		w.U32(toFixed1616(b.Default))
		w.U32(toFixed1616(b.Max))
		flags := uint16(0)
		if axis.Hidden {
			flags |= axisHidden
		}
		w.U16(flags)
		w.U16(nameID)
		nameID++
	}
	for _, tag := range localTags {
		w.Tag(tag)
		w.U32(toFixed1616(-1))
		w.U32(toFixed1616(0))
		w.U32(toFixed1616(1))
		w.U16(axisHidden)
		w.U16(nameID)
		nameID++
	}
	return w.Bytes()
}

// headEpoch is 2000-01-01 00:00:00 in seconds since the sfnt epoch
// (1904-01-01). Both head timestamps are pinned here so recompiling
// identical sources yields byte-identical output.
const headEpoch = 3029529600

func buildHead(unitsPerEm sfnt.Units, bbox encode.BBox) []byte {
	w := &encode.BinWriter{}
	w.U32(0x00010000) // version
	w.U32(0x00010000) // fontRevision
	w.U32(0)          // checkSumAdjustment, patched after assembly
	w.U32(0x5f0f3cf5) // magicNumber
	w.U16(0x0003)     // baseline at y=0, left sidebearing at x=0
	w.U16(uint16(unitsPerEm))
	w.U32(0) // created, hi
	w.U32(headEpoch)
	w.U32(0) // modified, hi
	w.U32(headEpoch)
	w.I16(bbox.XMin)
	w.I16(bbox.YMin)
	w.I16(bbox.XMax)
	w.I16(bbox.YMax)
	w.U16(0) // macStyle
	w.U16(8) // lowestRecPPEM
	w.I16(2) // fontDirectionHint
	w.I16(1) // indexToLocFormat: long
	w.I16(0) // glyphDataFormat
	return w.Bytes()
}

// glyphMaxima are the per-font maxima maxp reports.
type glyphMaxima struct {
	points, contours  int
	components, depth int
}

func buildMaxp(numGlyphs int, m glyphMaxima) []byte {
	w := &encode.BinWriter{}
	w.U32(0x00010000)
	w.U16(uint16(numGlyphs))
	w.U16(uint16(m.points))
	w.U16(uint16(m.contours))
	w.U16(0) // maxCompositePoints
	w.U16(0) // maxCompositeContours
	w.U16(2) // maxZones
	w.U16(0) // maxTwilightPoints
	w.U16(0) // maxStorage
	w.U16(0) // maxFunctionDefs
	w.U16(0) // maxInstructionDefs
	w.U16(0) // maxStackElements
	w.U16(0) // maxSizeOfInstructions
	w.U16(uint16(m.components))
	w.U16(uint16(m.depth))
	return w.Bytes()
}
