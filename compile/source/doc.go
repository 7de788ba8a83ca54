/*
Package source holds the normalized in-memory representation of editable
glyph sources, together with the backend contract through which the
compiler obtains them.

A glyph source consists of named masters ("sources"), each sitting at a
location in designspace and pointing to a layer with the concrete static
outline at that location: contours and/or component references. Variable
components carry a location in the target glyph's own variation space in
addition to their decomposed affine transform.

Concrete project storage (designspace projects, remote stores, existing
compiled fonts) is deliberately out of scope; MemoryBackend serves
programmatic construction and tests, JSONBackend loads the very same
model from a project file.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.
*/
package source

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'punchcut.source'.
func tracer() tracing.Trace {
	return tracing.Select("punchcut.source")
}
