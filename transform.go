package marquee

import (
	"math"

	"github.com/phanxgames/marquee/swf"
)

// Matrix is a 2D affine matrix over twips.
//
//	Matrix layout: [a, b, c, d, tx, ty]
//	| a  c  tx |
//	| b  d  ty |
//	| 0  0   1 |
type Matrix [6]float64

// identityTransform is the identity affine matrix.
var identityTransform = Matrix{1, 0, 0, 1, 0, 0}

// IdentityMatrix returns the identity matrix.
func IdentityMatrix() Matrix { return identityTransform }

// MatrixFromSWF converts a tag-stream matrix.
func MatrixFromSWF(m swf.Matrix) Matrix {
	return Matrix{
		m.ScaleX, m.RotateSkew0,
		m.RotateSkew1, m.ScaleY,
		float64(m.TranslateX), float64(m.TranslateY),
	}
}

// multiplyAffine multiplies two 2D affine matrices: result = parent * child.
func multiplyAffine(p, c Matrix) Matrix {
	return Matrix{
		p[0]*c[0] + p[2]*c[1],
		p[1]*c[0] + p[3]*c[1],
		p[0]*c[2] + p[2]*c[3],
		p[1]*c[2] + p[3]*c[3],
		p[0]*c[4] + p[2]*c[5] + p[4],
		p[1]*c[4] + p[3]*c[5] + p[5],
	}
}

// invertAffine computes the inverse of a 2D affine matrix.
// Returns the identity matrix if the matrix is singular (determinant ≈ 0).
func invertAffine(m Matrix) Matrix {
	det := m[0]*m[3] - m[2]*m[1]
	if det > -1e-12 && det < 1e-12 {
		return identityTransform
	}
	invDet := 1.0 / det
	a := m[3] * invDet
	b := -m[1] * invDet
	c := -m[2] * invDet
	d := m[0] * invDet
	return Matrix{
		a, b, c, d,
		-(a*m[4] + c*m[5]),
		-(b*m[4] + d*m[5]),
	}
}

// transformPoint applies an affine matrix to a point.
func transformPoint(m Matrix, x, y float64) (float64, float64) {
	return m[0]*x + m[2]*y + m[4], m[1]*x + m[3]*y + m[5]
}

// Multiply returns m * c.
func (m Matrix) Multiply(c Matrix) Matrix { return multiplyAffine(m, c) }

// Invert returns the inverse of m, or the identity if m is singular.
func (m Matrix) Invert() Matrix { return invertAffine(m) }

// Apply transforms the point (x, y).
func (m Matrix) Apply(x, y float64) (float64, float64) { return transformPoint(m, x, y) }

// TranslateX returns the x translation in twips.
func (m Matrix) TranslateX() float64 { return m[4] }

// TranslateY returns the y translation in twips.
func (m Matrix) TranslateY() float64 { return m[5] }

// --- Color transforms ---

// ColorTransform multiplies each channel and then adds an offset in 0..255 units.
type ColorTransform struct {
	RMult, GMult, BMult, AMult float64
	RAdd, GAdd, BAdd, AAdd     float64
}

// IdentityColorTransform returns the transform that leaves colors unchanged.
func IdentityColorTransform() ColorTransform {
	return ColorTransform{RMult: 1, GMult: 1, BMult: 1, AMult: 1}
}

// ColorTransformFromSWF converts a tag-stream color transform.
func ColorTransformFromSWF(ct swf.ColorTransform) ColorTransform {
	return ColorTransform{
		RMult: ct.RMult, GMult: ct.GMult, BMult: ct.BMult, AMult: ct.AMult,
		RAdd: float64(ct.RAdd), GAdd: float64(ct.GAdd), BAdd: float64(ct.BAdd), AAdd: float64(ct.AAdd),
	}
}

// Concat returns the transform that applies c first and then p.
func (p ColorTransform) Concat(c ColorTransform) ColorTransform {
	return ColorTransform{
		RMult: p.RMult * c.RMult,
		GMult: p.GMult * c.GMult,
		BMult: p.BMult * c.BMult,
		AMult: p.AMult * c.AMult,
		RAdd:  p.RMult*c.RAdd + p.RAdd,
		GAdd:  p.GMult*c.GAdd + p.GAdd,
		BAdd:  p.BMult*c.BAdd + p.BAdd,
		AAdd:  p.AMult*c.AAdd + p.AAdd,
	}
}

// Apply transforms an 8-bit color, clamping each channel.
func (p ColorTransform) Apply(c Color) Color {
	return Color{
		R: clampChannel(float64(c.R)*p.RMult + p.RAdd),
		G: clampChannel(float64(c.G)*p.GMult + p.GAdd),
		B: clampChannel(float64(c.B)*p.BMult + p.BAdd),
		A: clampChannel(float64(c.A)*p.AMult + p.AAdd),
	}
}

func clampChannel(v float64) uint8 {
	return uint8(math.Max(0, math.Min(255, math.Round(v))))
}

// --- Transform stack ---

// Transform is a matrix paired with a color transform.
type Transform struct {
	Matrix         Matrix
	ColorTransform ColorTransform
}

// IdentityTransform returns the transform that changes nothing.
func IdentityTransform() Transform {
	return Transform{Matrix: identityTransform, ColorTransform: IdentityColorTransform()}
}

// TransformStack accumulates nested transforms during a render traversal.
// The top of the stack is always the concatenation of everything pushed.
type TransformStack struct {
	stack []Transform
}

// Push concatenates t onto the current top.
func (s *TransformStack) Push(t Transform) {
	top := s.Top()
	s.stack = append(s.stack, Transform{
		Matrix:         multiplyAffine(top.Matrix, t.Matrix),
		ColorTransform: top.ColorTransform.Concat(t.ColorTransform),
	})
}

// Pop removes the most recent transform. Panics if the stack is empty.
func (s *TransformStack) Pop() {
	if len(s.stack) == 0 {
		panic("marquee: pop on empty transform stack")
	}
	s.stack = s.stack[:len(s.stack)-1]
}

// Top returns the accumulated transform, or the identity if nothing is pushed.
func (s *TransformStack) Top() Transform {
	if len(s.stack) == 0 {
		return IdentityTransform()
	}
	return s.stack[len(s.stack)-1]
}

// Len returns the number of pushed transforms.
func (s *TransformStack) Len() int { return len(s.stack) }
