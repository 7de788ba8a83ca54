package encode

import (
	"math"

	"github.com/glyphworks/punchcut/core"
)

// OtRound rounds half away from zero, the rounding convention of font
// binary formats.
func OtRound(v float64) int {
	return int(math.Floor(v + 0.5))
}

// ToF2Dot14 converts a normalized coordinate in [-2, 2) to 2.14 fixed
// point.
func ToF2Dot14(v float64) int16 {
	return int16(OtRound(v * 16384))
}

// FloatToFixed converts v to fixed point with the given number of
// fractional bits, failing when the result leaves the int16 range.
// Conversion is exact up to rounding of the fraction; magnitudes are
// never silently truncated.
func FloatToFixed(v float64, fractionalBits uint) (int16, error) {
	scaled := OtRound(v * float64(int(1)<<fractionalBits))
	if scaled < -0x8000 || scaled > 0x7fff {
		return 0, core.Error(core.EOVERFLOW,
			"value %g does not fit %d.%d fixed point", v, 16-fractionalBits, fractionalBits)
	}
	return int16(scaled), nil
}

// CheckWordRange verifies that a rounded delta fits int16, the widest
// delta representation of the tuple-variation encoding.
func CheckWordRange(deltas []int) error {
	for _, d := range deltas {
		if d < -0x8000 || d > 0x7fff {
			return core.Error(core.EOVERFLOW, "delta value %d out of range", d)
		}
	}
	return nil
}
