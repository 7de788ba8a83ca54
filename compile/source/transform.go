package source

import (
	"encoding/json"
	"math"

	"github.com/npillmayer/arithm"
)

// Transform is a decomposed affine transformation, in the order used by
// variable-component references: translation, rotation (degrees,
// counter-clockwise), scale, skew (degrees), around a transformation
// center.
type Transform struct {
	TranslateX float64 `json:"translateX"`
	TranslateY float64 `json:"translateY"`
	Rotation   float64 `json:"rotation"`
	ScaleX     float64 `json:"scaleX"`
	ScaleY     float64 `json:"scaleY"`
	SkewX      float64 `json:"skewX"`
	SkewY      float64 `json:"skewY"`
	TCenterX   float64 `json:"tCenterX"`
	TCenterY   float64 `json:"tCenterY"`
}

// Identity returns the neutral transform.
func Identity() Transform {
	return Transform{ScaleX: 1, ScaleY: 1}
}

// IsIdentity is a predicate: does this transform move anything at all?
func (t Transform) IsIdentity() bool {
	return t == Identity()
}

// Matrix composes the decomposed parameters into an affine matrix
// [a b c d e f] with x' = a·x + c·y + e and y' = b·x + d·y + f.
// Composition order matches the variable-component convention:
// translate → rotate → scale → skew, around the center point.
func (t Transform) Matrix() [6]float64 {
	m := [6]float64{1, 0, 0, 1, 0, 0}
	m = translate(m, t.TranslateX+t.TCenterX, t.TranslateY+t.TCenterY)
	m = rotate(m, t.Rotation*math.Pi/180)
	m = scale(m, t.ScaleX, t.ScaleY)
	m = skew(m, t.SkewX*math.Pi/180, t.SkewY*math.Pi/180)
	m = translate(m, -t.TCenterX, -t.TCenterY)
	return m
}

// Apply transforms a point.
func (t Transform) Apply(p arithm.Pair) arithm.Pair {
	return applyMatrix(t.Matrix(), p)
}

// Channels lists the transform parameters in their canonical encoding
// order. Channel values feed the variation model of composite glyphs.
func (t Transform) Channels() []float64 {
	return []float64{
		t.TranslateX, t.TranslateY, t.Rotation,
		t.ScaleX, t.ScaleY, t.SkewX, t.SkewY,
		t.TCenterX, t.TCenterY,
	}
}

// NumTransformChannels is the number of scalar channels of a Transform.
const NumTransformChannels = 9

// FromChannels reassembles a Transform from its channel vector.
func FromChannels(ch []float64) Transform {
	return Transform{
		TranslateX: ch[0], TranslateY: ch[1], Rotation: ch[2],
		ScaleX: ch[3], ScaleY: ch[4], SkewX: ch[5], SkewY: ch[6],
		TCenterX: ch[7], TCenterY: ch[8],
	}
}

// UnmarshalJSON decodes a transform, defaulting absent scale factors
// to 1 rather than 0.
func (t *Transform) UnmarshalJSON(data []byte) error {
	type alias Transform
	aux := alias(Identity())
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*t = Transform(aux)
	return nil
}

func applyMatrix(m [6]float64, p arithm.Pair) arithm.Pair {
	z := complex128(p)
	x, y := real(z), imag(z)
	return arithm.Pair(complex(m[0]*x+m[2]*y+m[4], m[1]*x+m[3]*y+m[5]))
}

// mul multiplies affine matrices: first n, then m.
func mul(m, n [6]float64) [6]float64 {
	return [6]float64{
		m[0]*n[0] + m[2]*n[1],
		m[1]*n[0] + m[3]*n[1],
		m[0]*n[2] + m[2]*n[3],
		m[1]*n[2] + m[3]*n[3],
		m[0]*n[4] + m[2]*n[5] + m[4],
		m[1]*n[4] + m[3]*n[5] + m[5],
	}
}

func translate(m [6]float64, dx, dy float64) [6]float64 {
	return mul(m, [6]float64{1, 0, 0, 1, dx, dy})
}

func rotate(m [6]float64, rad float64) [6]float64 {
	sin, cos := math.Sincos(rad)
	return mul(m, [6]float64{cos, sin, -sin, cos, 0, 0})
}

func scale(m [6]float64, sx, sy float64) [6]float64 {
	return mul(m, [6]float64{sx, 0, 0, sy, 0, 0})
}

func skew(m [6]float64, radx, rady float64) [6]float64 {
	return mul(m, [6]float64{1, math.Tan(rady), math.Tan(radx), 1, 0, 0})
}
