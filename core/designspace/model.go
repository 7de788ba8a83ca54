package designspace

import (
	"fmt"
	"math"
	"sort"

	"github.com/glyphworks/punchcut/core"
)

// MissingDefaultMaster is returned (wrapped) by NewModel when no master
// location sits at the normalized default (all axes zero).
type MissingDefaultMaster struct {
	Glyph string // optional; filled by callers that know the glyph
}

func (e *MissingDefaultMaster) Error() string {
	if e.Glyph == "" {
		return "no master at the default location"
	}
	return fmt.Sprintf("glyph %s has no master at the default location", e.Glyph)
}

// AxisRange is the support interval of one axis: the delta applies fully
// at Peak, fades out linearly towards Min and Max, and is zero outside.
type AxisRange struct {
	Min, Peak, Max float64
}

// Support is the region of (normalized) designspace over which a
// master's delta contributes non-zero weight. Axes not present in the
// map are unconstrained.
type Support map[string]AxisRange

// Model is a variation model over a set of master locations. It is
// immutable after construction and safe for concurrent evaluation.
type Model struct {
	locations    []Location        // in model (sorted) order, default first
	supports     []Support         // parallel to locations
	deltaWeights []map[int]float64 // per master: influence of earlier masters
	mapping      []int             // original index → model order
}

// NewModel builds a variation model from master locations (given in
// normalized coordinates). The set must contain the default location;
// otherwise a MissingDefaultMaster error is returned.
func NewModel(locations []Location) (*Model, error) {
	if len(locations) == 0 {
		return nil, core.WrapError(&MissingDefaultMaster{}, core.EMISSING,
			"variation model needs at least the default master")
	}
	hasDefault := false
	for _, loc := range locations {
		if loc.IsDefault() {
			hasDefault = true
			break
		}
	}
	if !hasDefault {
		return nil, core.WrapError(&MissingDefaultMaster{}, core.EMISSING,
			"variation model needs a master at the default location")
	}
	m := &Model{}
	m.sortLocations(locations)
	m.computeSupports()
	m.computeDeltaWeights()
	tracer().Debugf("variation model over %d masters", len(m.locations))
	return m, nil
}

// Len returns the number of masters in the model.
func (m *Model) Len() int {
	return len(m.locations)
}

// Locations returns the master locations in model order (default first).
func (m *Model) Locations() []Location {
	return m.locations
}

// Supports returns the support regions in model order. The default
// master's support is the empty region (weight 1 everywhere).
func (m *Model) Supports() []Support {
	return m.supports
}

// MasterIndex maps an index into the caller's original master list to
// the model-internal (sorted) order.
func (m *Model) MasterIndex(originalIndex int) int {
	return m.mapping[originalIndex]
}

// sortLocations brings the master locations into canonical model order:
// the default first, then by number of active axes, by how many of
// those axes have on-axis sibling masters, by axis name, sign and
// magnitude. The sort is deterministic for identical input sets.
func (m *Model) sortLocations(locations []Location) {
	// on-axis value sets, for the "on point" criterion
	axisPoints := make(map[string]map[float64]bool)
	for _, loc := range locations {
		active := activeAxes(loc)
		if len(active) != 1 {
			continue
		}
		axis := active[0]
		if axisPoints[axis] == nil {
			axisPoints[axis] = map[float64]bool{0: true}
		}
		axisPoints[axis][loc[axis]] = true
	}
	type keyed struct {
		original int
		loc      Location
		key      string
	}
	keys := make([]keyed, len(locations))
	for i, loc := range locations {
		active := activeAxes(loc)
		onPoint := 0
		for _, axis := range active {
			if axisPoints[axis] != nil && axisPoints[axis][loc[axis]] {
				onPoint++
			}
		}
		// A printable sort key keeps the ordering total and stable.
		key := fmt.Sprintf("%04d|%04d", len(active), len(active)-onPoint)
		for _, axis := range active {
			sign := '0'
			if loc[axis] < 0 {
				sign = '-'
			} else if loc[axis] > 0 {
				sign = '+'
			}
			key += fmt.Sprintf("|%s%c%017.10f", axis, sign, math.Abs(loc[axis]))
		}
		keys[i] = keyed{original: i, loc: pruneZeroAxes(loc), key: key}
	}
	sort.SliceStable(keys, func(i, j int) bool { return keys[i].key < keys[j].key })
	m.locations = make([]Location, len(keys))
	m.mapping = make([]int, len(keys))
	for sorted, k := range keys {
		m.locations[sorted] = k.loc
		m.mapping[k.original] = sorted
	}
}

// computeSupports derives each master's support region, narrowing the
// initial full-extent box against every earlier master that is active
// on exactly the same axes ("region locking").
func (m *Model) computeSupports() {
	regions := make([]Support, len(m.locations))
	for i, loc := range m.locations {
		region := Support{}
		for axis, v := range loc {
			if v > 0 {
				region[axis] = AxisRange{Min: 0, Peak: v, Max: 1}
			} else {
				region[axis] = AxisRange{Min: -1, Peak: v, Max: 0}
			}
		}
		regions[i] = region
	}
	for i, region := range regions {
		for _, prev := range regions[:i] {
			if !sameAxes(prev, region) {
				continue
			}
			// prev is relevant only if its peaks fall inside our box
			relevant := true
			for axis, rng := range region {
				p := prev[axis].Peak
				if p != rng.Peak && !(rng.Min < p && p < rng.Max) {
					relevant = false
					break
				}
			}
			if !relevant {
				continue
			}
			// Lock the box to the sibling peak on the axes where that
			// sacrifices the least support volume.
			bestRatio := -1.0
			var bestAxes map[string]AxisRange
			for axis := range prev {
				val := prev[axis].Peak
				rng := region[axis]
				newRange := rng
				var ratio float64
				switch {
				case val < rng.Peak:
					newRange.Min = val
					ratio = (val - rng.Peak) / (rng.Min - rng.Peak)
				case val > rng.Peak:
					newRange.Max = val
					ratio = (val - rng.Peak) / (rng.Max - rng.Peak)
				default:
					continue // same peak, no narrowing on this axis
				}
				if ratio > bestRatio {
					bestAxes = map[string]AxisRange{}
					bestRatio = ratio
				}
				if ratio == bestRatio {
					bestAxes[axis] = newRange
				}
			}
			for axis, rng := range bestAxes {
				region[axis] = rng
			}
		}
		regions[i] = region
	}
	m.supports = regions
}

// computeDeltaWeights records, per master, the weight every earlier
// master's delta has at this master's own location.
func (m *Model) computeDeltaWeights() {
	m.deltaWeights = make([]map[int]float64, len(m.locations))
	for i, loc := range m.locations {
		weights := map[int]float64{}
		for j := 0; j < i; j++ {
			scalar := SupportScalar(loc, m.supports[j])
			if scalar != 0 {
				weights[j] = scalar
			}
		}
		m.deltaWeights[i] = weights
	}
}

// SupportScalar computes the weight of a support region at a location:
// the product of the per-axis tent functions, in [0, 1].
func SupportScalar(loc Location, support Support) float64 {
	scalar := 1.0
	for axis, rng := range support {
		if rng.Min == 0 && rng.Peak == 0 && rng.Max == 0 {
			continue
		}
		v := loc[axis]
		if v == rng.Peak {
			continue
		}
		if v <= rng.Min || rng.Max <= v {
			return 0
		}
		if v < rng.Peak {
			scalar *= (v - rng.Min) / (rng.Peak - rng.Min)
		} else {
			scalar *= (v - rng.Max) / (rng.Peak - rng.Max)
		}
	}
	return scalar
}

// Deltas converts per-master payload vectors (in the caller's original
// master order) into delta vectors, in model order. The first delta is
// the default master's payload itself.
func (m *Model) Deltas(masterValues [][]float64) ([][]float64, error) {
	if len(masterValues) != len(m.locations) {
		return nil, core.Error(core.EINTERNAL,
			"variation model: %d masters, but %d payload vectors",
			len(m.locations), len(masterValues))
	}
	sorted := make([][]float64, len(masterValues))
	for original, values := range masterValues {
		sorted[m.mapping[original]] = values
	}
	n := len(sorted[0])
	deltas := make([][]float64, len(sorted))
	for i, values := range sorted {
		if len(values) != n {
			return nil, core.Error(core.EINTERNAL,
				"variation model: payload vector %d has length %d, want %d",
				i, len(values), n)
		}
		delta := make([]float64, n)
		copy(delta, values)
		for j, weight := range m.deltaWeights[i] {
			for k := range delta {
				delta[k] -= deltas[j][k] * weight
			}
		}
		deltas[i] = delta
	}
	return deltas, nil
}

// Evaluate reconstructs the payload vector at an arbitrary normalized
// location, as the default plus every delta weighted by its support
// scalar. Evaluate is a pure function of its arguments.
func (m *Model) Evaluate(deltas [][]float64, loc Location) []float64 {
	if len(deltas) == 0 {
		return nil
	}
	result := make([]float64, len(deltas[0]))
	for i, delta := range deltas {
		scalar := SupportScalar(loc, m.supports[i])
		if scalar == 0 {
			continue
		}
		for k, d := range delta {
			result[k] += d * scalar
		}
	}
	return result
}

func activeAxes(loc Location) []string {
	axes := make([]string, 0, len(loc))
	for axis, v := range loc {
		if v != 0 {
			axes = append(axes, axis)
		}
	}
	sort.Strings(axes)
	return axes
}

func pruneZeroAxes(loc Location) Location {
	pruned := make(Location, len(loc))
	for axis, v := range loc {
		if v != 0 {
			pruned[axis] = v
		}
	}
	return pruned
}

func sameAxes(a, b Support) bool {
	if len(a) != len(b) {
		return false
	}
	for axis := range a {
		if _, ok := b[axis]; !ok {
			return false
		}
	}
	return true
}
