package tables

import (
	"fmt"
	"strings"

	"github.com/glyphworks/punchcut/compile/encode"
	"github.com/glyphworks/punchcut/core"
)

// compositeGlyph pairs a composite record with its glyph index.
type compositeGlyph struct {
	gid   uint16
	name  string
	compo *encode.Composite
}

// varcVersion is the version word of our variable-composite layout.
const varcVersion = 0x00010000

// buildVARC writes the variable-composite table: header, coverage of
// composite glyph IDs with record offsets, component records, shared
// axis-index lists and the variation store. Composites must arrive in
// glyph-index order; their component targets must all have glyph IDs.
func buildVARC(composites []compositeGlyph, gids map[string]uint16,
	axisIndex map[string]int, store *VarStoreBuilder) ([]byte, error) {
	//
	if len(composites) == 0 {
		return nil, nil
	}
	lists := &axisIndexLists{interned: map[string]uint16{}}
	var records encode.BinWriter
	offsets := make([]uint32, len(composites))
	headerSize := 14 + 6*len(composites)
	for i, cg := range composites {
		offsets[i] = uint32(headerSize + records.Len())
		if err := writeCompositeRecord(&records, cg, gids, axisIndex, lists, store); err != nil {
			return nil, err
		}
	}
	listsBlob := lists.serialize()
	w := &encode.BinWriter{}
	w.U32(varcVersion)
	if store.IsEmpty() {
		w.U32(0)
	} else {
		w.U32(uint32(headerSize + records.Len() + len(listsBlob)))
	}
	w.U32(uint32(headerSize + records.Len()))
	w.U16(uint16(len(composites)))
	for i, cg := range composites {
		w.U16(cg.gid)
		w.U32(offsets[i])
	}
	w.Raw(records.Bytes())
	w.Raw(listsBlob)
	if !store.IsEmpty() {
		w.Raw(store.Serialize())
	}
	tracer().Debugf("VARC: %d composites, %d bytes", len(composites), w.Len())
	return w.Bytes(), nil
}

func writeCompositeRecord(w *encode.BinWriter, cg compositeGlyph, gids map[string]uint16,
	axisIndex map[string]int, lists *axisIndexLists, store *VarStoreBuilder) error {
	//
	w.U16(uint16(len(cg.compo.Components)))
	for _, compo := range cg.compo.Components {
		targetGID, ok := gids[compo.TargetName]
		if !ok {
			return core.Error(core.EINTERNAL, "glyph %s references unindexed component %s",
				cg.name, compo.TargetName)
		}
		w.U16(compo.Flags)
		w.U16(targetGID)
		if compo.Flags&encode.FlagHaveAxes != 0 {
			indices := make([]uint16, len(compo.AxisTags))
			for i, tag := range compo.AxisTags {
				idx, ok := axisIndex[tag]
				if !ok {
					return core.Error(core.EINTERNAL, "glyph %s: axis tag %s not in fvar",
						cg.name, tag)
				}
				indices[i] = uint16(idx)
			}
			w.U16(lists.intern(indices))
			for _, v := range compo.AxisValues {
				fixed, err := encode.FloatToFixed(v, 14)
				if err != nil {
					return core.WrapError(err, core.EOVERFLOW,
						"glyph %s: component axis value out of range", cg.name)
				}
				w.I16(fixed)
			}
		}
		if compo.Flags&encode.FlagAxesHaveVariation != 0 {
			varIdx, err := store.StoreMasters(cg.compo.Model, compo.AxisValueMasters,
				func(i int, v float64) (int16, error) { return encode.FloatToFixed(v, 14) })
			if err != nil {
				return core.WrapError(err, core.Code(err), "glyph %s: axis variation", cg.name)
			}
			w.U32(varIdx)
		}
		channels := compo.Transform.Channels()
		for c, v := range channels {
			if compo.Flags&encode.ChannelFlag(c) == 0 {
				continue
			}
			fixed, err := encode.FixTransformChannel(c, v)
			if err != nil {
				return core.WrapError(err, core.EOVERFLOW,
					"glyph %s: transform value out of range", cg.name)
			}
			w.I16(fixed)
		}
		if compo.Flags&encode.FlagTransformHasVariation != 0 {
			var mask uint16
			for _, c := range compo.VaryingChannels {
				mask |= 1 << uint(c)
			}
			w.U16(mask)
			varying := compo.VaryingChannels
			varIdx, err := store.StoreMasters(cg.compo.Model, compo.TransformMasters,
				func(i int, v float64) (int16, error) {
					return encode.FixTransformChannel(varying[i], v)
				})
			if err != nil {
				return core.WrapError(err, core.Code(err), "glyph %s: transform variation", cg.name)
			}
			w.U32(varIdx)
		}
	}
	return nil
}

// axisIndexLists interns the axis-index lists components refer to, so
// repeated pinnings of the same axes share one list.
type axisIndexLists struct {
	interned map[string]uint16
	lists    [][]uint16
}

func (al *axisIndexLists) intern(indices []uint16) uint16 {
	var key strings.Builder
	for _, idx := range indices {
		fmt.Fprintf(&key, "%d,", idx)
	}
	if listIdx, ok := al.interned[key.String()]; ok {
		return listIdx
	}
	listIdx := uint16(len(al.lists))
	al.lists = append(al.lists, indices)
	al.interned[key.String()] = listIdx
	return listIdx
}

func (al *axisIndexLists) serialize() []byte {
	w := &encode.BinWriter{}
	w.U16(uint16(len(al.lists)))
	for _, list := range al.lists {
		w.U16(uint16(len(list)))
		for _, idx := range list {
			w.U16(idx)
		}
	}
	return w.Bytes()
}
