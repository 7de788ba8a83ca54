package encode

import (
	"github.com/glyphworks/punchcut/core"
	"github.com/glyphworks/punchcut/core/designspace"
)

// Tuple-variation header flags (gvar).
const (
	tupleEmbeddedPeak  = 0x8000
	tupleIntermediate  = 0x4000
	tuplePrivatePoints = 0x2000
)

// TupleVariations serializes the non-default deltas of one glyph as
// gvar glyph-variation data: a tuple per master, each with an embedded
// peak (and an intermediate region where support locking narrowed the
// box), private "all points" numbers, and run-packed deltas.
//
// supports and deltas are in model order, the default master first;
// deltas are interleaved (x0, y0, x1, y1, …) including the four
// phantom points. numPoints counts points including phantoms.
func TupleVariations(supports []designspace.Support, deltas [][]int, numPoints int, axisOrder []string) ([]byte, error) {
	if len(supports) != len(deltas) {
		return nil, core.Error(core.EINTERNAL, "got %d supports for %d delta vectors",
			len(supports), len(deltas))
	}
	numTuples := len(supports) - 1
	if numTuples <= 0 {
		return nil, nil
	}
	var headers, data BinWriter
	for i := 1; i < len(supports); i++ {
		tupleData := serializeTupleData(deltas[i], numPoints)
		flags := uint16(tupleEmbeddedPeak | tuplePrivatePoints)
		if needsIntermediate(supports[i], axisOrder) {
			flags |= tupleIntermediate
		}
		headers.U16(uint16(len(tupleData)))
		headers.U16(flags)
		for _, axis := range axisOrder {
			headers.I16(ToF2Dot14(supports[i][axis].Peak))
		}
		if flags&tupleIntermediate != 0 {
			for _, axis := range axisOrder {
				headers.I16(ToF2Dot14(supports[i][axis].Min))
			}
			for _, axis := range axisOrder {
				headers.I16(ToF2Dot14(supports[i][axis].Max))
			}
		}
		data.Raw(tupleData)
	}
	w := &BinWriter{}
	w.U16(uint16(numTuples))
	w.U16(uint16(4 + headers.Len()))
	w.Raw(headers.Bytes())
	w.Raw(data.Bytes())
	return w.Bytes(), nil
}

// needsIntermediate is a predicate: does the support region deviate
// from the default tent implied by its peak alone?
func needsIntermediate(support designspace.Support, axisOrder []string) bool {
	for _, axis := range axisOrder {
		rng, ok := support[axis]
		if !ok {
			continue
		}
		impliedMin, impliedMax := 0.0, 0.0
		if rng.Peak < 0 {
			impliedMin = rng.Peak
		} else {
			impliedMax = rng.Peak
		}
		if rng.Min != impliedMin || rng.Max != impliedMax {
			return true
		}
	}
	return false
}

// serializeTupleData writes one tuple's serialized data: private point
// numbers (the "all points" shortcut) followed by the packed x deltas
// and the packed y deltas.
func serializeTupleData(delta []int, numPoints int) []byte {
	xs := make([]int, numPoints)
	ys := make([]int, numPoints)
	for k := 0; k < numPoints; k++ {
		xs[k] = delta[2*k]
		ys[k] = delta[2*k+1]
	}
	w := &BinWriter{}
	w.U8(0) // all points
	packDeltas(w, xs)
	packDeltas(w, ys)
	return w.Bytes()
}

// Packed-delta run control bits.
const (
	deltasAreZero  = 0x80
	deltasAreWords = 0x40
	deltaRunMax    = 64 // low 6 bits hold count-1
)

// packDeltas writes deltas in runs: zero runs, int8 runs and int16
// runs, each at most 64 values long. The run kind is chosen per value,
// escalating width only where a delta exceeds the narrower range.
func packDeltas(w *BinWriter, deltas []int) {
	for i := 0; i < len(deltas); {
		j := i
		switch {
		case deltas[i] == 0:
			for j < len(deltas) && deltas[j] == 0 && j-i < deltaRunMax {
				j++
			}
			w.U8(deltasAreZero | uint8(j-i-1))
		case fitsInt8(deltas[i]):
			for j < len(deltas) && deltas[j] != 0 && fitsInt8(deltas[j]) && j-i < deltaRunMax {
				j++
			}
			w.U8(uint8(j - i - 1))
			for _, d := range deltas[i:j] {
				w.U8(uint8(int8(d)))
			}
		default:
			for j < len(deltas) && deltas[j] != 0 && !fitsInt8(deltas[j]) && j-i < deltaRunMax {
				j++
			}
			w.U8(deltasAreWords | uint8(j-i-1))
			for _, d := range deltas[i:j] {
				w.I16(int16(d))
			}
		}
		i = j
	}
}

func fitsInt8(d int) bool {
	return d >= -128 && d <= 127
}
