package resolver

import (
	"strings"

	"github.com/glyphworks/punchcut/compile/source"
)

// TopologySignature is a structural fingerprint of a static glyph:
// contour count, per-contour point count with on-curve/cubic pattern,
// and the ordered component target names. Two masters are compatible
// exactly when their signatures are equal.
type TopologySignature string

// Signature computes the topology signature of one master's outline.
func Signature(g source.StaticGlyph) TopologySignature {
	var sb strings.Builder
	for _, contour := range g.Contours {
		sb.WriteByte('(')
		for _, p := range contour.Points {
			switch {
			case p.OnCurve:
				sb.WriteByte('o')
			case p.Cubic:
				sb.WriteByte('c')
			default:
				sb.WriteByte('q')
			}
		}
		sb.WriteByte(')')
	}
	for _, compo := range g.Components {
		sb.WriteByte('[')
		sb.WriteString(compo.Name)
		sb.WriteByte(']')
	}
	return TopologySignature(sb.String())
}
