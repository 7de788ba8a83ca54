package encode

// BBox is a glyph bounding box in font units. For variable glyphs it
// covers the extreme coordinates reachable at any location, not just
// the default instance.
type BBox struct {
	XMin, YMin, XMax, YMax int16
}

// Record is the compiled artifact for one glyph. Once returned by an
// encoder a Record is immutable; the table assembler takes sole
// ownership and shares it read-only.
type Record struct {
	Name        string
	Description []byte     // glyf glyph description; empty for empty and composite glyphs
	GvarData    []byte     // per-glyph tuple-variation data; may be empty
	Composite   *Composite // component data; nil for simple and empty glyphs
	BBox        BBox
	XAdvance    uint16
}

// IsEmpty is a predicate: no outline and no components.
func (r *Record) IsEmpty() bool {
	return len(r.Description) == 0 && r.Composite == nil
}
