/*
Package designspace models the variation space of a font: axes, locations
within the space spanned by those axes, and the variation model that
reconstructs arbitrary interpolated instances from a default master plus
weighted deltas.

The delta/support math follows the OpenType variation mechanism: every
non-default master contributes a delta that applies over a support region
of the (normalized) designspace, with piecewise-linear "tent" weights per
axis. Building the support regions involves narrowing each master's box
against its sibling masters, so that deltas do not bleed outside the
subspace they were designed for.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.
*/
package designspace

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'punchcut.model'.
func tracer() tracing.Trace {
	return tracing.Select("punchcut.model")
}
