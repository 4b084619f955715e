package marquee

import (
	"math"
	"testing"

	"github.com/phanxgames/marquee/swf"
)

const epsilon = 1e-9

func assertNear(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > epsilon {
		t.Errorf("%s = %v, want %v", name, got, want)
	}
}

func assertMatrix(t *testing.T, name string, got, want Matrix) {
	t.Helper()
	for i := range got {
		if math.Abs(got[i]-want[i]) > epsilon {
			t.Errorf("%s[%d] = %v, want %v (full: %v vs %v)", name, i, got[i], want[i], got, want)
		}
	}
}

// --- MatrixFromSWF ---

func TestMatrixFromSWF(t *testing.T) {
	m := swf.Matrix{ScaleX: 2, ScaleY: 3, RotateSkew0: 0.5, RotateSkew1: -0.5, TranslateX: 40, TranslateY: -20}
	got := MatrixFromSWF(m)
	assertMatrix(t, "converted", got, Matrix{2, 0.5, -0.5, 3, 40, -20})
	assertMatrix(t, "identity", MatrixFromSWF(swf.IdentityMatrix()), IdentityMatrix())
}

// --- multiplyAffine ---

func TestMultiplyAffineIdentity(t *testing.T) {
	id := identityTransform
	m := Matrix{2, 1, 3, 4, 5, 6}
	assertMatrix(t, "id*m", multiplyAffine(id, m), m)
	assertMatrix(t, "m*id", multiplyAffine(m, id), m)
}

func TestMultiplyAffineTranslations(t *testing.T) {
	a := Matrix{1, 0, 0, 1, 10, 20}
	b := Matrix{1, 0, 0, 1, 5, 3}
	got := multiplyAffine(a, b)
	assertMatrix(t, "translations", got, Matrix{1, 0, 0, 1, 15, 23})
}

func TestMultiplyAffineScaleThenTranslate(t *testing.T) {
	parent := Matrix{2, 0, 0, 2, 100, 0}
	child := Matrix{1, 0, 0, 1, 10, 10}
	got := parent.Multiply(child)
	// The child's translation is scaled by the parent.
	assertMatrix(t, "scaled", got, Matrix{2, 0, 0, 2, 120, 20})
}

// --- invertAffine ---

func TestInvertAffine(t *testing.T) {
	m := Matrix{2, 0, 0, 3, 10, 20}
	result := multiplyAffine(m, invertAffine(m))
	assertMatrix(t, "m*inv=id", result, identityTransform)
}

func TestInvertAffineRotation(t *testing.T) {
	s, c := math.Sincos(math.Pi / 3)
	m := Matrix{2 * c, 2 * s, -s, c, 7, -3}
	result := multiplyAffine(m, m.Invert())
	assertMatrix(t, "m*inv=id", result, identityTransform)
}

func TestApplyRoundTrip(t *testing.T) {
	m := Matrix{0.5, 0.25, -0.25, 2, 300, -40}
	x, y := m.Apply(123, 456)
	bx, by := m.Invert().Apply(x, y)
	assertNear(t, "x", bx, 123)
	assertNear(t, "y", by, 456)
}

// --- Singular matrix safety ---

func TestInvertAffineSingularReturnsIdentity(t *testing.T) {
	m := Matrix{0, 0, 0, 1, 10, 20}
	assertMatrix(t, "singular→identity", invertAffine(m), identityTransform)
}

func TestInvertAffineBothZeroScales(t *testing.T) {
	m := Matrix{0, 0, 0, 0, 50, 100}
	assertMatrix(t, "zero-scale→identity", invertAffine(m), identityTransform)
}

// --- Color transforms ---

func TestColorTransformApply(t *testing.T) {
	tests := []struct {
		name string
		ct   ColorTransform
		in   Color
		want Color
	}{
		{"identity", IdentityColorTransform(), Color{R: 10, G: 20, B: 30, A: 40}, Color{R: 10, G: 20, B: 30, A: 40}},
		{"halve red", ColorTransform{RMult: 0.5, GMult: 1, BMult: 1, AMult: 1}, Color{R: 200, G: 20, B: 30, A: 255}, Color{R: 100, G: 20, B: 30, A: 255}},
		{"offset clamps high", ColorTransform{RMult: 1, GMult: 1, BMult: 1, AMult: 1, GAdd: 100}, Color{R: 0, G: 200, B: 0, A: 255}, Color{R: 0, G: 255, B: 0, A: 255}},
		{"offset clamps low", ColorTransform{RMult: 1, GMult: 1, BMult: 1, AMult: 1, AAdd: -300}, Color{R: 1, G: 2, B: 3, A: 255}, Color{R: 1, G: 2, B: 3, A: 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.ct.Apply(tt.in); got != tt.want {
				t.Errorf("Apply = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestColorTransformConcat(t *testing.T) {
	parent := ColorTransform{RMult: 0.5, GMult: 1, BMult: 1, AMult: 1, RAdd: 10}
	child := ColorTransform{RMult: 1, GMult: 1, BMult: 1, AMult: 0.5, RAdd: 20}
	combined := parent.Concat(child)

	in := Color{R: 100, G: 100, B: 100, A: 200}
	want := parent.Apply(child.Apply(in))
	if got := combined.Apply(in); got != want {
		t.Errorf("Concat.Apply = %v, want %v", got, want)
	}
	assertNear(t, "RAdd", combined.RAdd, 20)
}

func TestColorTransformFromSWF(t *testing.T) {
	ct := swf.IdentityColorTransform()
	ct.BMult = 0.25
	ct.RAdd = -16
	got := ColorTransformFromSWF(ct)
	assertNear(t, "BMult", got.BMult, 0.25)
	assertNear(t, "RAdd", got.RAdd, -16)
	assertNear(t, "AMult", got.AMult, 1)
}

// --- Transform stack ---

func TestTransformStack(t *testing.T) {
	var s TransformStack
	assertMatrix(t, "empty top", s.Top().Matrix, identityTransform)

	s.Push(Transform{Matrix: Matrix{2, 0, 0, 2, 100, 0}, ColorTransform: IdentityColorTransform()})
	s.Push(Transform{Matrix: Matrix{1, 0, 0, 1, 10, 10}, ColorTransform: ColorTransform{RMult: 0.5, GMult: 1, BMult: 1, AMult: 1}})
	if s.Len() != 2 {
		t.Fatalf("Len = %d, want 2", s.Len())
	}
	assertMatrix(t, "nested top", s.Top().Matrix, Matrix{2, 0, 0, 2, 120, 20})
	assertNear(t, "nested RMult", s.Top().ColorTransform.RMult, 0.5)

	s.Pop()
	assertMatrix(t, "after pop", s.Top().Matrix, Matrix{2, 0, 0, 2, 100, 0})
	s.Pop()
	if s.Len() != 0 {
		t.Errorf("Len = %d, want 0", s.Len())
	}
}

func TestTransformStackPopEmptyPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Pop on empty stack should panic")
		}
	}()
	var s TransformStack
	s.Pop()
}

// --- World space ---

func TestWorldToLocalRoundtrip(t *testing.T) {
	spr := sprite(t, 10, frame{square(1, 10), func() swf.PlaceObject {
		pl := place(1, 1)
		pl.Matrix = translate(5, 5)
		return pl
	}()})
	pl := place(10, 1)
	m := swf.Matrix{ScaleX: 2, ScaleY: 2, TranslateX: 200}
	pl.Matrix = &m
	p := newTestPlayer(t, buildMovie(t, frame{spr, pl}), Options{})
	p.RunFrame()
	clip := childAt(t, p, rootNode(p), 1)
	shape := childAt(t, p, clip, 1)

	p.Mutate(func(ctx *UpdateContext) {
		gx, gy := ctx.LocalToGlobal(shape, 0, 0)
		// 200 + 2*100 twips
		assertNear(t, "gx", gx, 400)
		assertNear(t, "gy", gy, 200)
		lx, ly := ctx.GlobalToLocal(shape, gx, gy)
		assertNear(t, "lx", lx, 0)
		assertNear(t, "ly", ly, 0)
	})
}
