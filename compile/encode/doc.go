/*
Package encode turns resolved glyphs and their variation models into
binary records: simple outline descriptions (glyf, format 1), per-glyph
tuple-variation data (gvar), and variable-composite component records
(VARC).

Numeric policy: coordinates and deltas are rounded half away from zero
and stored in the narrowest exact representation that fits — flag-driven
uint8/int16 coordinates in glyf, run-compressed zero/int8/int16 deltas
in gvar. A delta that exceeds the int16 range is a hard error, never a
lossy truncation. Axis coordinates are F2Dot14; transform channels use
per-channel fixed-point widths (see transformChannels).

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.
*/
package encode

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'punchcut.encode'.
func tracer() tracing.Trace {
	return tracing.Select("punchcut.encode")
}
