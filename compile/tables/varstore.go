package tables

import (
	"fmt"
	"sort"
	"strings"

	"github.com/glyphworks/punchcut/compile/encode"
	"github.com/glyphworks/punchcut/core/designspace"
)

// VarStoreBuilder collects multi-value variation items for the VARC
// table. Regions are deduplicated across items; items are addressed by
// the index returned from StoreMasters.
//
// Not safe for concurrent use; the assembler drives it serially.
type VarStoreBuilder struct {
	axisOrder []string // fvar tag order
	regions   []designspace.Support
	regionIdx map[string]int
	items     []storeItem
}

type storeItem struct {
	regions []int
	deltas  [][]int16 // per region, per value
}

func NewVarStoreBuilder(axisOrder []string) *VarStoreBuilder {
	return &VarStoreBuilder{
		axisOrder: axisOrder,
		regionIdx: map[string]int{},
	}
}

// IsEmpty is a predicate: no items stored.
func (b *VarStoreBuilder) IsEmpty() bool {
	return len(b.items) == 0
}

// StoreMasters turns per-master value vectors into store deltas under
// the glyph's variation model and returns the new item's index.
// masterValues is in the glyph's source order; toFixed converts one
// float delta of value column i to its int16 wire representation.
func (b *VarStoreBuilder) StoreMasters(model *designspace.Model, masterValues [][]float64,
	toFixed func(i int, v float64) (int16, error)) (uint32, error) {
	//
	deltas, err := model.Deltas(masterValues)
	if err != nil {
		return 0, err
	}
	supports := model.Supports()
	item := storeItem{}
	for s := 1; s < len(deltas); s++ {
		row := make([]int16, len(deltas[s]))
		for i, d := range deltas[s] {
			fixed, err := toFixed(i, d)
			if err != nil {
				return 0, err
			}
			row[i] = fixed
		}
		item.regions = append(item.regions, b.regionIndex(supports[s]))
		item.deltas = append(item.deltas, row)
	}
	b.items = append(b.items, item)
	return uint32(len(b.items) - 1), nil
}

// regionIndex interns a support region, keyed by its extent on every
// axis of the fvar order.
func (b *VarStoreBuilder) regionIndex(support designspace.Support) int {
	var key strings.Builder
	for _, axis := range b.axisOrder {
		rng := support[axis] // zero tent for axes the region does not constrain
		fmt.Fprintf(&key, "%g:%g:%g;", rng.Min, rng.Peak, rng.Max)
	}
	if idx, ok := b.regionIdx[key.String()]; ok {
		return idx
	}
	idx := len(b.regions)
	b.regions = append(b.regions, support)
	b.regionIdx[key.String()] = idx
	return idx
}

// Serialize writes the store: region list first (each region a
// min/peak/max F2Dot14 triple per fvar axis), then the items.
func (b *VarStoreBuilder) Serialize() []byte {
	w := &encode.BinWriter{}
	w.U16(uint16(len(b.axisOrder)))
	w.U16(uint16(len(b.regions)))
	for _, region := range b.regions {
		for _, axis := range b.axisOrder {
			rng := region[axis]
			w.I16(encode.ToF2Dot14(rng.Min))
			w.I16(encode.ToF2Dot14(rng.Peak))
			w.I16(encode.ToF2Dot14(rng.Max))
		}
	}
	w.U32(uint32(len(b.items)))
	for _, item := range b.items {
		w.U16(uint16(len(item.regions)))
		for _, r := range item.regions {
			w.U16(uint16(r))
		}
		valueCount := 0
		if len(item.deltas) > 0 {
			valueCount = len(item.deltas[0])
		}
		w.U16(uint16(valueCount))
		for _, row := range item.deltas {
			for _, d := range row {
				w.I16(d)
			}
		}
	}
	return w.Bytes()
}

// AxisIndexMap numbers fvar axis tags for component axis references.
func AxisIndexMap(axisOrder []string) map[string]int {
	m := make(map[string]int, len(axisOrder))
	for i, tag := range axisOrder {
		m[tag] = i
	}
	return m
}

// MergeLocalAxisTags unions per-glyph synthetic axis tag lists into one
// sorted list for fvar.
func MergeLocalAxisTags(perGlyph [][]string) []string {
	seen := map[string]bool{}
	var merged []string
	for _, tags := range perGlyph {
		for _, tag := range tags {
			if !seen[tag] {
				seen[tag] = true
				merged = append(merged, tag)
			}
		}
	}
	sort.Strings(merged)
	return merged
}
