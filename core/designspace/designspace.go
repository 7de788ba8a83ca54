package designspace

import (
	"fmt"
	"sort"

	"github.com/glyphworks/punchcut/core"
)

// Axis is one design axis of a font, e.g. weight or width. Values of
// Min/Default/Max are in design coordinates; Mapping optionally maps
// design values to user values, as a piecewise linear function given by
// (design, user) sample pairs.
type Axis struct {
	Name    string
	Tag     string // 4-byte OpenType tag, e.g. "wght"
	Min     float64
	Default float64
	Max     float64
	Mapping [][2]float64
	Hidden  bool
}

// Check validates the axis extent invariant min ≤ default ≤ max.
func (a Axis) Check() error {
	if a.Min > a.Default || a.Default > a.Max {
		return core.Error(core.EINVALID, "axis %s: min/default/max not ordered (%g/%g/%g)",
			a.Name, a.Min, a.Default, a.Max)
	}
	return nil
}

// Bounds is the (min, default, max) extent of an axis, after any axis
// mapping has been applied.
type Bounds struct {
	Min, Default, Max float64
}

// MappedBounds applies the axis' mapping to its extent values.
func (a Axis) MappedBounds() Bounds {
	return Bounds{
		Min:     PiecewiseLinearMap(a.Min, a.Mapping),
		Default: PiecewiseLinearMap(a.Default, a.Mapping),
		Max:     PiecewiseLinearMap(a.Max, a.Mapping),
	}
}

// Bounds returns the raw (unmapped) extent of an axis.
func (a Axis) Bounds() Bounds {
	return Bounds{Min: a.Min, Default: a.Default, Max: a.Max}
}

// Location is a position in designspace, as a mapping from axis name (or
// tag, once renamed) to a coordinate. Axes not present in the map sit at
// their default.
type Location map[string]float64

// Copy returns an independent copy of a location.
func (loc Location) Copy() Location {
	c := make(Location, len(loc))
	for k, v := range loc {
		c[k] = v
	}
	return c
}

// AxisNames returns the axis keys of a location in sorted order.
func (loc Location) AxisNames() []string {
	names := make([]string, 0, len(loc))
	for name := range loc {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsDefault is a predicate: does this location sit at the origin of the
// normalized designspace?
func (loc Location) IsDefault() bool {
	for _, v := range loc {
		if v != 0 {
			return false
		}
	}
	return true
}

// Equals compares two locations, treating absent axes as 0.
func (loc Location) Equals(other Location) bool {
	for k, v := range loc {
		if other[k] != v {
			return false
		}
	}
	for k, v := range other {
		if loc[k] != v {
			return false
		}
	}
	return true
}

// String formats a location with sorted axis keys, for stable tracing.
func (loc Location) String() string {
	s := "<"
	for i, name := range loc.AxisNames() {
		if i > 0 {
			s += ","
		}
		s += fmt.Sprintf("%s=%g", name, loc[name])
	}
	return s + ">"
}

// RenameAxes translates the axis keys of a location through a name→tag
// mapping. Keys without a mapping entry are kept as is.
func (loc Location) RenameAxes(tags map[string]string) Location {
	renamed := make(Location, len(loc))
	for name, v := range loc {
		if tag, ok := tags[name]; ok {
			renamed[tag] = v
		} else {
			renamed[name] = v
		}
	}
	return renamed
}

// PiecewiseLinearMap maps v through a set of (from, to) sample pairs,
// interpolating linearly between neighbouring samples and extrapolating
// by identity offset beyond the outermost samples. An empty mapping is
// the identity.
func PiecewiseLinearMap(v float64, mapping [][2]float64) float64 {
	if len(mapping) == 0 {
		return v
	}
	samples := make([][2]float64, len(mapping))
	copy(samples, mapping)
	sort.Slice(samples, func(i, j int) bool { return samples[i][0] < samples[j][0] })
	if v <= samples[0][0] {
		return v - samples[0][0] + samples[0][1]
	}
	last := samples[len(samples)-1]
	if v >= last[0] {
		return v - last[0] + last[1]
	}
	for i := 1; i < len(samples); i++ {
		if v == samples[i][0] {
			return samples[i][1]
		}
		if v < samples[i][0] {
			lo, hi := samples[i-1], samples[i]
			t := (v - lo[0]) / (hi[0] - lo[0])
			return lo[1] + t*(hi[1]-lo[1])
		}
	}
	return last[1]
}

// NormalizeValue maps a design coordinate into [-1, 1], with the axis
// default at 0. Values outside [min, max] are clamped.
func NormalizeValue(v float64, b Bounds) float64 {
	if v < b.Min {
		v = b.Min
	} else if v > b.Max {
		v = b.Max
	}
	switch {
	case v < b.Default:
		return -(b.Default - v) / (b.Default - b.Min)
	case v > b.Default:
		return (v - b.Default) / (b.Max - b.Default)
	}
	return 0
}

// NormalizeLocation normalizes every axis of loc against the given axis
// bounds. Axes of loc unknown to the bounds map are dropped; axes absent
// from loc default to 0 and are omitted from the result when zero.
func NormalizeLocation(loc Location, axes map[string]Bounds) Location {
	normalized := make(Location, len(axes))
	for name, b := range axes {
		v, ok := loc[name]
		if !ok {
			v = b.Default
		}
		normalized[name] = NormalizeValue(v, b)
	}
	return normalized
}

// LocalAxisTags invents private tags for glyph-local axes: V000, V001, …
// in sorted axis-name order. Axis names already present as global axes
// must be filtered by the caller beforehand.
func LocalAxisTags(localNames []string) map[string]string {
	names := make([]string, len(localNames))
	copy(names, localNames)
	sort.Strings(names)
	tags := make(map[string]string, len(names))
	for i, name := range names {
		tags[name] = fmt.Sprintf("V%03d", i)
	}
	return tags
}
