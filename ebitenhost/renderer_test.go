package ebitenhost

import (
	"image/color"
	"math"
	"testing"

	"github.com/phanxgames/marquee"
	"github.com/phanxgames/marquee/swf"
)

func redSquare(px float64) marquee.ShapeDefinition {
	tw := swf.TwipsFromPixels(px)
	return marquee.ShapeDefinition{
		Bounds:  swf.Rect{XMax: tw, YMax: tw},
		Fill:    marquee.Color{R: 255, A: 255},
		HasFill: true,
	}
}

func TestRegisterShapeHandles(t *testing.T) {
	r := NewRenderer(100, 100)
	for want := marquee.ShapeHandle(1); want <= 3; want++ {
		if got := r.RegisterShape(redSquare(10)); got != want {
			t.Errorf("RegisterShape = %d, want %d", got, want)
		}
	}
}

func TestRenderShapeTransformsToPixels(t *testing.T) {
	r := NewRenderer(100, 100)
	h := r.RegisterShape(redSquare(10))

	r.BeginFrame()
	r.Clear(marquee.Color{R: 1, G: 2, B: 3, A: 255})
	r.RenderShape(h, marquee.Transform{
		Matrix:         marquee.Matrix{2, 0, 0, 2, 100, 40},
		ColorTransform: marquee.ColorTransform{RMult: 0.5, GMult: 1, BMult: 1, AMult: 1},
	})
	r.EndFrame()

	if got := r.current.clear; got != (color.RGBA{1, 2, 3, 255}) {
		t.Errorf("clear = %v", got)
	}
	if len(r.current.quads) != 1 {
		t.Fatalf("quads = %d, want 1", len(r.current.quads))
	}
	q := r.current.quads[0]
	want := [4][2]float32{{5, 2}, {25, 2}, {25, 22}, {5, 22}}
	if q.pts != want {
		t.Errorf("pts = %v, want %v", q.pts, want)
	}
	if math.Abs(float64(q.r)-128.0/255) > 1e-6 || q.g != 0 || q.a != 1 {
		t.Errorf("color = %v %v %v %v", q.r, q.g, q.b, q.a)
	}
}

func TestRenderShapeSkips(t *testing.T) {
	r := NewRenderer(100, 100)
	filled := r.RegisterShape(redSquare(10))
	def := redSquare(10)
	def.HasFill = false
	outline := r.RegisterShape(def)

	tests := []struct {
		name string
		h    marquee.ShapeHandle
		ct   marquee.ColorTransform
	}{
		{"zero handle", 0, marquee.IdentityColorTransform()},
		{"unknown handle", 9, marquee.IdentityColorTransform()},
		{"no fill", outline, marquee.IdentityColorTransform()},
		{"transparent", filled, marquee.ColorTransform{RMult: 1, GMult: 1, BMult: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r.BeginFrame()
			r.RenderShape(tt.h, marquee.Transform{Matrix: marquee.IdentityMatrix(), ColorTransform: tt.ct})
			r.EndFrame()
			if n, _ := r.Frame(); n != 0 {
				t.Errorf("quads = %d, want 0", n)
			}
		})
	}
}

func TestDrawLetterbox(t *testing.T) {
	tests := []struct {
		name string
		l    marquee.Letterbox
		want [][4][2]float32
	}{
		{"none", marquee.Letterbox{}, nil},
		{"letterbox", marquee.Letterbox{Kind: marquee.LetterboxLetterbox, Margin: 10}, [][4][2]float32{
			{{0, 0}, {200, 0}, {200, 10}, {0, 10}},
			{{0, 90}, {200, 90}, {200, 100}, {0, 100}},
		}},
		{"pillarbox", marquee.Letterbox{Kind: marquee.LetterboxPillarbox, Margin: 50}, [][4][2]float32{
			{{0, 0}, {50, 0}, {50, 100}, {0, 100}},
			{{150, 0}, {200, 0}, {200, 100}, {150, 100}},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRenderer(200, 100)
			r.BeginFrame()
			r.DrawLetterbox(tt.l)
			r.EndFrame()
			if len(r.current.quads) != len(tt.want) {
				t.Fatalf("quads = %d, want %d", len(r.current.quads), len(tt.want))
			}
			for i, q := range r.current.quads {
				if q.pts != tt.want[i] {
					t.Errorf("bar %d = %v, want %v", i, q.pts, tt.want[i])
				}
				if q.r != 0 || q.g != 0 || q.b != 0 || q.a != 1 {
					t.Errorf("bar %d not opaque black", i)
				}
			}
		})
	}
}

func TestPauseOverlayFades(t *testing.T) {
	r := NewRenderer(100, 100)
	r.BeginFrame()
	r.DrawPauseOverlay()
	r.EndFrame()
	if _, overlay := r.Frame(); !overlay {
		t.Fatal("overlay not recorded")
	}
	if r.overlayAlpha != 0 {
		t.Errorf("alpha before update = %v, want 0", r.overlayAlpha)
	}

	r.Update(overlayFadeSecs / 2)
	mid := r.overlayAlpha
	if mid <= 0 || mid >= overlayMaxAlpha {
		t.Errorf("alpha mid-fade = %v, want in (0, %v)", mid, overlayMaxAlpha)
	}
	r.Update(overlayFadeSecs)
	if math.Abs(float64(r.overlayAlpha)-overlayMaxAlpha) > 1e-6 {
		t.Errorf("alpha after fade = %v, want %v", r.overlayAlpha, overlayMaxAlpha)
	}

	// A second paused frame keeps the fade where it is.
	r.BeginFrame()
	r.DrawPauseOverlay()
	r.EndFrame()
	if math.Abs(float64(r.overlayAlpha)-overlayMaxAlpha) > 1e-6 {
		t.Errorf("alpha reset by repeated overlay: %v", r.overlayAlpha)
	}

	r.BeginFrame()
	r.EndFrame()
	if r.overlayAlpha != 0 || r.fade != nil {
		t.Error("overlay should reset once a frame is drawn without it")
	}
}

func TestRendererAsPlayerBackend(t *testing.T) {
	w := swf.NewWriter(8)
	for _, tag := range []swf.Tag{
		swf.DefineShape{Version: 1, ID: 1, Bounds: swf.Rect{XMax: 200, YMax: 200}, Fill: swf.Color{G: 255, A: 255}, HasFill: true},
		swf.PlaceObject{Version: 2, Action: swf.PlaceObjectAction{Kind: swf.PlaceKindPlace, ID: 1}, Depth: 1},
		swf.ShowFrame{},
		swf.End{},
	} {
		if err := w.WriteTag(tag); err != nil {
			t.Fatal(err)
		}
	}
	data, err := swf.EncodeMovie(swf.Header{
		Version:   8,
		StageSize: swf.Rect{XMax: 2000, YMax: 2000},
		FrameRate: 10,
		NumFrames: 1,
	}, w.Bytes())
	if err != nil {
		t.Fatal(err)
	}

	r := NewRenderer(200, 100)
	p, err := marquee.NewPlayer(data, marquee.Options{Renderer: r, Input: NewInput()})
	if err != nil {
		t.Fatal(err)
	}
	p.SetViewportDimensions(200, 100)
	p.SetPlaying(true)
	p.RunFrame()
	p.Render()

	// shape plus two pillarbox bars
	if n, overlay := r.Frame(); n != 3 || overlay {
		t.Fatalf("Frame = %d, %v, want 3, false", n, overlay)
	}
	q := r.current.quads[0]
	// 100x100 stage scaled by 1 and centered with a 50 px margin.
	if q.pts[0] != [2]float32{50, 0} || q.pts[2] != [2]float32{60, 10} {
		t.Errorf("shape corners = %v", q.pts)
	}
	if q.g != 1 {
		t.Errorf("shape green = %v, want 1", q.g)
	}
}

func TestOverlayTintBlendsFromBackground(t *testing.T) {
	r := NewRenderer(100, 100)
	r.BeginFrame()
	r.Clear(marquee.Color{R: 200, G: 180, B: 40, A: 255})
	r.DrawPauseOverlay()
	r.EndFrame()

	near := func(a, b uint8) bool { return a-b <= 1 || b-a <= 1 }
	tests := []struct {
		name    string
		alpha   float32
		r, g, b uint8
	}{
		{"start is background", 0, 200, 180, 40},
		{"end is overlay color", overlayMaxAlpha, 0x10, 0x10, 0x18},
	}
	for _, tt := range tests {
		r.overlayAlpha = tt.alpha
		cr, cg, cb := r.overlayTint().RGB255()
		if !near(cr, tt.r) || !near(cg, tt.g) || !near(cb, tt.b) {
			t.Errorf("%s: tint = %d,%d,%d, want %d,%d,%d", tt.name, cr, cg, cb, tt.r, tt.g, tt.b)
		}
	}

	r.overlayAlpha = overlayMaxAlpha / 2
	cr, cg, _ := r.overlayTint().RGB255()
	if cr >= 200 || cr <= 0x10 || cg >= 180 || cg <= 0x10 {
		t.Errorf("mid-fade tint = %d,%d, want between background and overlay", cr, cg)
	}
}
