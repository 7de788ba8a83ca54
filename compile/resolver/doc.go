/*
Package resolver gathers the per-master data of one glyph from the
source backend and validates that the masters are compatible: identical
contour topology and identical component structure across all masters.

Compatibility is established through an explicit topology signature
(contour count, per-contour point count, on-curve/cubic pattern,
component slots) computed once per master and compared structurally.
A mismatch is a typed error naming the glyph and the masters involved,
never a silent coercion.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.
*/
package resolver

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'punchcut.compile'.
func tracer() tracing.Trace {
	return tracing.Select("punchcut.compile")
}
