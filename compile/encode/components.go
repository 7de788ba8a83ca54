package encode

import (
	"sort"

	"github.com/glyphworks/punchcut/compile/resolver"
	"github.com/glyphworks/punchcut/compile/source"
	"github.com/glyphworks/punchcut/core"
	"github.com/glyphworks/punchcut/core/designspace"
)

// Variable-component flags.
const (
	FlagResetUnspecifiedAxes  = 0x0001
	FlagHaveAxes              = 0x0002
	FlagAxesHaveVariation     = 0x0004
	FlagTransformHasVariation = 0x0008
	FlagHaveTranslateX        = 0x0010
	FlagHaveTranslateY        = 0x0020
	FlagHaveRotation          = 0x0040
	FlagHaveScaleX            = 0x0080
	FlagHaveScaleY            = 0x0100
	FlagHaveSkewX             = 0x0200
	FlagHaveSkewY             = 0x0400
	FlagHaveTCenterX          = 0x0800
	FlagHaveTCenterY          = 0x1000
)

// channelSpec describes the encoding of one decomposed-transform
// channel: its presence flag, default value, fixed-point fraction width
// and pre-scale divisor. Rotation and skew are stored as fractions of a
// half turn.
type channelSpec struct {
	name           string
	flag           uint16
	def            float64
	fractionalBits uint
	divisor        float64
}

// transformChannels is ordered like source.Transform.Channels.
var transformChannels = []channelSpec{
	{"translateX", FlagHaveTranslateX, 0, 0, 1},
	{"translateY", FlagHaveTranslateY, 0, 0, 1},
	{"rotation", FlagHaveRotation, 0, 12, 180},
	{"scaleX", FlagHaveScaleX, 1, 10, 1},
	{"scaleY", FlagHaveScaleY, 1, 10, 1},
	{"skewX", FlagHaveSkewX, 0, 12, 180},
	{"skewY", FlagHaveSkewY, 0, 12, 180},
	{"tCenterX", FlagHaveTCenterX, 0, 0, 1},
	{"tCenterY", FlagHaveTCenterY, 0, 0, 1},
}

// FixTransformChannel converts a transform channel value to its
// fixed-point wire representation.
func FixTransformChannel(channel int, v float64) (int16, error) {
	spec := transformChannels[channel]
	return FloatToFixed(v/spec.divisor, spec.fractionalBits)
}

// ChannelFlag returns the presence flag of a transform channel.
func ChannelFlag(channel int) uint16 {
	return transformChannels[channel].flag
}

// BaseInfo is what a referencing glyph needs to know about a component
// target: the target's merged axis extents and tags, its private axis
// names, and whether the target (or anything below it) responds to the
// font's global axes.
type BaseInfo struct {
	AxisBounds           map[string]designspace.Bounds
	AxisTags             map[string]string
	LocalAxisNames       []string
	RespondsToGlobalAxes bool
}

// Component is the across-master encoding view of one component
// reference slot.
type Component struct {
	TargetName string
	Flags      uint16
	Transform  source.Transform // default-master channel values
	// axis pinning, parallel slices sorted by tag
	AxisTags   []string
	AxisValues []float64 // default-master normalized values
	// per-master payloads for the variation store; nil without variation
	AxisValueMasters [][]float64
	VaryingChannels  []int // canonical channel indices with variation
	TransformMasters [][]float64
}

// Composite is a compiled composite glyph before table assembly: its
// component slots plus the glyph's variation model, which the
// assembler uses to turn per-master payloads into store deltas.
type Composite struct {
	Components []Component
	Model      *designspace.Model
}

// CompositeGlyphRecord encodes a component-only glyph. baseInfo
// provides the target-glyph axis information; targets are guaranteed
// resolved beforehand by the component graph's compile order.
func CompositeGlyphRecord(rg *resolver.ResolvedGlyph, model *designspace.Model,
	baseInfo func(target string) (*BaseInfo, error)) (*Record, error) {
	//
	if rg.DefaultMaster < 0 {
		return nil, core.WrapError(&designspace.MissingDefaultMaster{Glyph: rg.Name},
			core.EMISSING, "glyph %s has no master at the default location", rg.Name)
	}
	slots := rg.ComponentSlots()
	composite := &Composite{Model: model, Components: make([]Component, 0, len(slots))}
	for _, slot := range slots {
		base, err := baseInfo(slot.Name)
		if err != nil {
			return nil, err
		}
		compo, err := analyzeSlot(rg, slot, base)
		if err != nil {
			return nil, err
		}
		composite.Components = append(composite.Components, compo)
	}
	advance := OtRound(rg.Masters[rg.DefaultMaster].Static.XAdvance)
	if advance < 0 {
		advance = 0
	}
	tracer().Debugf("glyph %s: %d variable components", rg.Name, len(composite.Components))
	return &Record{
		Name:      rg.Name,
		Composite: composite,
		XAdvance:  uint16(advance),
	}, nil
}

// analyzeSlot derives flags and per-master payloads for one component
// slot, making the component locations compatible across masters.
func analyzeSlot(rg *resolver.ResolvedGlyph, slot resolver.ComponentSlot, base *BaseInfo) (Component, error) {
	numMasters := len(rg.Masters)
	compo := Component{TargetName: slot.Name}

	// axes used by any master's pin, restricted to the target's space
	usedAxes := map[string]bool{}
	for _, loc := range slot.RawLocations {
		for axis := range loc {
			if _, known := base.AxisBounds[axis]; known {
				usedAxes[axis] = true
			}
		}
	}
	// normalize every master's pin over the union
	valuesByAxis := map[string][]float64{}
	for m := 0; m < numMasters; m++ {
		normalized := designspace.NormalizeLocation(slot.RawLocations[m], base.AxisBounds)
		for axis := range usedAxes {
			valuesByAxis[axis] = append(valuesByAxis[axis], normalized[axis])
		}
	}

	var flags uint16
	if !base.RespondsToGlobalAxes {
		flags |= FlagResetUnspecifiedAxes
	}

	// transform channels
	channelValues := make([][]float64, source.NumTransformChannels)
	for m := 0; m < numMasters; m++ {
		for c, v := range slot.Transforms[m].Channels() {
			channelValues[c] = append(channelValues[c], v)
		}
	}
	for c, spec := range transformChannels {
		values := channelValues[c]
		if !anyDiffers(values, spec.def) {
			continue
		}
		flags |= spec.flag
		if !allEqual(values) {
			flags |= FlagTransformHasVariation
			compo.VaryingChannels = append(compo.VaryingChannels, c)
		}
	}
	if len(compo.VaryingChannels) > 0 {
		compo.TransformMasters = make([][]float64, numMasters)
		for m := 0; m < numMasters; m++ {
			vec := make([]float64, len(compo.VaryingChannels))
			for i, c := range compo.VaryingChannels {
				vec[i] = channelValues[c][m]
			}
			compo.TransformMasters[m] = vec
		}
	}
	compo.Transform = slot.Transforms[rg.DefaultMaster]

	// axis values: drop axes pinned to 0 everywhere when the target
	// resets unspecified axes anyway; otherwise pin the target's local
	// axes explicitly.
	axesHaveVariation := false
	var axesAtDefault []string
	for axis, values := range valuesByAxis {
		if !allEqual(values) {
			axesHaveVariation = true
		} else if values[0] == 0 {
			axesAtDefault = append(axesAtDefault, axis)
		}
	}
	if flags&FlagResetUnspecifiedAxes != 0 {
		for _, axis := range axesAtDefault {
			delete(valuesByAxis, axis)
			delete(usedAxes, axis)
		}
	} else {
		for _, axis := range base.LocalAxisNames {
			if !usedAxes[axis] {
				usedAxes[axis] = true
				valuesByAxis[axis] = make([]float64, numMasters)
			}
		}
	}
	if len(valuesByAxis) > 0 {
		flags |= FlagHaveAxes
		if axesHaveVariation {
			flags |= FlagAxesHaveVariation
		}
		// sort by target-space tag for a canonical wire order
		type taggedAxis struct{ tag, name string }
		tagged := make([]taggedAxis, 0, len(valuesByAxis))
		for axis := range valuesByAxis {
			tag, ok := base.AxisTags[axis]
			if !ok {
				return Component{}, core.Error(core.EINTERNAL,
					"component %s of %s: axis %s has no tag", slot.Name, rg.Name, axis)
			}
			tagged = append(tagged, taggedAxis{tag: tag, name: axis})
		}
		sort.Slice(tagged, func(i, j int) bool { return tagged[i].tag < tagged[j].tag })
		compo.AxisTags = make([]string, len(tagged))
		compo.AxisValues = make([]float64, len(tagged))
		for i, ta := range tagged {
			compo.AxisTags[i] = ta.tag
			compo.AxisValues[i] = valuesByAxis[ta.name][rg.DefaultMaster]
		}
		if axesHaveVariation {
			compo.AxisValueMasters = make([][]float64, numMasters)
			for m := 0; m < numMasters; m++ {
				vec := make([]float64, len(tagged))
				for i, ta := range tagged {
					vec[i] = valuesByAxis[ta.name][m]
				}
				compo.AxisValueMasters[m] = vec
			}
		}
	}
	compo.Flags = flags
	return compo, nil
}

func allEqual(values []float64) bool {
	for _, v := range values[1:] {
		if v != values[0] {
			return false
		}
	}
	return true
}

func anyDiffers(values []float64, def float64) bool {
	for _, v := range values {
		if v != def {
			return true
		}
	}
	return false
}
