package source

import (
	"context"
	"errors"
	"fmt"

	"github.com/glyphworks/punchcut/core"
	"github.com/glyphworks/punchcut/core/designspace"
	"golang.org/x/image/font/sfnt"
)

// Backend is the source collaborator contract: an abstract capability
// exposing glyph and designspace data. Implementations may be I/O-bound;
// calls may block until ctx is done and must not hold locks that stall
// other glyphs' resolution.
type Backend interface {
	GlyphNames(ctx context.Context) ([]string, error)
	Axes(ctx context.Context) ([]designspace.Axis, error)
	Glyph(ctx context.Context, name string) (*Glyph, error)
	UnitsPerEm(ctx context.Context) (sfnt.Units, error)
}

// SourceUnavailable signals that the source collaborator failed to
// deliver, e.g. because of an I/O problem. It is distinct from a glyph
// simply not existing.
type SourceUnavailable struct {
	Resource string
	Err      error
}

func (e *SourceUnavailable) Error() string {
	return fmt.Sprintf("source unavailable: %s: %v", e.Resource, e.Err)
}

func (e *SourceUnavailable) Unwrap() error {
	return e.Err
}

// Unavailable wraps a backend failure into the application error chain.
func Unavailable(resource string, err error) error {
	return core.WrapError(&SourceUnavailable{Resource: resource, Err: err},
		core.ECONNECTION, "glyph source backend failed for %s", resource)
}

// ErrGlyphNotFound marks a glyph the backend does not have, as opposed
// to a backend failure. Test with errors.Is.
var ErrGlyphNotFound = errors.New("glyph not found")

// NotFound returns an application error for a glyph missing from the
// backend.
func NotFound(glyphName string) error {
	return core.WrapError(ErrGlyphNotFound, core.EMISSING, "glyph not found: %s", glyphName)
}
