package ebitenhost

import (
	"image"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"

	"github.com/phanxgames/marquee"
	"github.com/phanxgames/marquee/swf"
)

// Pause overlay appearance.
const (
	overlayMaxAlpha = 0.6
	overlayFadeSecs = 0.25
	overlayHex      = "#101018"
)

var (
	whiteImage = ebiten.NewImage(3, 3)

	// whiteSubImage avoids sampling the texture edge when filling paths.
	whiteSubImage = whiteImage.SubImage(image.Rect(1, 1, 2, 2)).(*ebiten.Image)
)

func init() {
	whiteImage.Fill(color.White)
}

// shape is a registered shape: its bounds rectangle and fill.
type shape struct {
	bounds  swf.Rect
	fill    marquee.Color
	hasFill bool
}

// quad is one filled quadrilateral in viewport pixels with straight-alpha
// color components in [0, 1].
type quad struct {
	pts        [4][2]float32
	r, g, b, a float32
}

// frame is a recorded display list, replayed by Draw.
type frame struct {
	clear   color.RGBA
	quads   []quad
	overlay bool
}

// Renderer is a marquee.RenderBackend for Ebitengine. Calls between
// BeginFrame and EndFrame are recorded and the last completed frame is
// drawn on every Draw, so the player can render outside the Draw callback.
type Renderer struct {
	shapes []shape

	width, height float64

	building frame
	current  frame

	fade         *gween.Tween
	overlayAlpha float32
	overlayColor colorful.Color

	path     vector.Path
	vertices []ebiten.Vertex
	indices  []uint16
}

// NewRenderer returns a renderer for a viewport of the given pixel size.
func NewRenderer(width, height int) *Renderer {
	c, err := colorful.Hex(overlayHex)
	if err != nil {
		panic(err)
	}
	return &Renderer{
		width:        float64(width),
		height:       float64(height),
		overlayColor: c,
	}
}

// SetViewportSize updates the size used for the letterbox and overlay.
func (r *Renderer) SetViewportSize(width, height int) {
	r.width, r.height = float64(width), float64(height)
}

func (r *Renderer) RegisterShape(def marquee.ShapeDefinition) marquee.ShapeHandle {
	r.shapes = append(r.shapes, shape{bounds: def.Bounds, fill: def.Fill, hasFill: def.HasFill})
	return marquee.ShapeHandle(len(r.shapes))
}

func (r *Renderer) BeginFrame() {
	r.building = frame{quads: r.building.quads[:0]}
}

func (r *Renderer) Clear(c marquee.Color) {
	r.building.clear = color.RGBA{R: c.R, G: c.G, B: c.B, A: 255}
}

// RenderShape records the shape's bounds transformed into viewport pixels.
// Outline records are not tessellated.
func (r *Renderer) RenderShape(h marquee.ShapeHandle, t marquee.Transform) {
	if h == 0 || int(h) > len(r.shapes) {
		return
	}
	s := r.shapes[h-1]
	if !s.hasFill {
		return
	}
	fill := t.ColorTransform.Apply(s.fill)
	if fill.A == 0 {
		return
	}

	b := s.bounds
	corners := [4][2]float64{
		{float64(b.XMin), float64(b.YMin)},
		{float64(b.XMax), float64(b.YMin)},
		{float64(b.XMax), float64(b.YMax)},
		{float64(b.XMin), float64(b.YMax)},
	}
	var q quad
	for i, c := range corners {
		x, y := t.Matrix.Apply(c[0], c[1])
		q.pts[i] = [2]float32{float32(x / swf.TwipsPerPixel), float32(y / swf.TwipsPerPixel)}
	}
	q.r = float32(fill.R) / 255
	q.g = float32(fill.G) / 255
	q.b = float32(fill.B) / 255
	q.a = float32(fill.A) / 255
	r.building.quads = append(r.building.quads, q)
}

func (r *Renderer) EndFrame() {
	r.current, r.building = r.building, r.current
	if !r.current.overlay {
		r.fade = nil
		r.overlayAlpha = 0
	}
}

// DrawPauseOverlay starts the overlay fade-in if it is not already showing.
func (r *Renderer) DrawPauseOverlay() {
	r.building.overlay = true
	if r.fade == nil {
		r.fade = gween.New(0, overlayMaxAlpha, overlayFadeSecs, ease.OutQuad)
	}
}

func (r *Renderer) DrawLetterbox(l marquee.Letterbox) {
	m := l.Margin
	switch l.Kind {
	case marquee.LetterboxLetterbox:
		r.addRect(0, 0, r.width, m)
		r.addRect(0, r.height-m, r.width, m)
	case marquee.LetterboxPillarbox:
		r.addRect(0, 0, m, r.height)
		r.addRect(r.width-m, 0, m, r.height)
	}
}

func (r *Renderer) addRect(x, y, w, h float64) {
	x0, y0, x1, y1 := float32(x), float32(y), float32(x+w), float32(y+h)
	r.building.quads = append(r.building.quads, quad{
		pts: [4][2]float32{{x0, y0}, {x1, y0}, {x1, y1}, {x0, y1}},
		a:   1,
	})
}

// Update advances the overlay fade by dt seconds.
func (r *Renderer) Update(dt float32) {
	if r.fade == nil {
		return
	}
	v, _ := r.fade.Update(dt)
	r.overlayAlpha = v
}

// Draw replays the last completed frame onto screen.
func (r *Renderer) Draw(screen *ebiten.Image) {
	f := &r.current
	screen.Fill(f.clear)
	for i := range f.quads {
		r.fillQuad(screen, &f.quads[i])
	}
	if f.overlay && r.overlayAlpha > 0 {
		cr, cg, cb := r.overlayTint().RGB255()
		a := uint8(r.overlayAlpha * 255)
		vector.DrawFilledRect(screen, 0, 0, float32(r.width), float32(r.height),
			color.NRGBA{R: cr, G: cg, B: cb, A: a}, false)
	}
}

// overlayTint is the overlay color for the current fade position. It starts
// at the stage background and moves toward the overlay color in Lab space as
// the overlay darkens.
func (r *Renderer) overlayTint() colorful.Color {
	t := float64(r.overlayAlpha / overlayMaxAlpha)
	if t > 1 {
		t = 1
	}
	bg, _ := colorful.MakeColor(r.current.clear)
	return bg.BlendLab(r.overlayColor, t).Clamped()
}

func (r *Renderer) fillQuad(dst *ebiten.Image, q *quad) {
	r.path.Reset()
	r.path.MoveTo(q.pts[0][0], q.pts[0][1])
	for _, p := range q.pts[1:] {
		r.path.LineTo(p[0], p[1])
	}
	r.path.Close()

	r.vertices, r.indices = r.path.AppendVerticesAndIndicesForFilling(r.vertices[:0], r.indices[:0])
	for i := range r.vertices {
		v := &r.vertices[i]
		v.SrcX, v.SrcY = 1, 1
		v.ColorR, v.ColorG, v.ColorB, v.ColorA = q.r, q.g, q.b, q.a
	}
	op := &ebiten.DrawTrianglesOptions{AntiAlias: true}
	dst.DrawTriangles(r.vertices, r.indices, whiteSubImage, op)
}

// Frame returns the number of quads and whether the overlay is showing in
// the last completed frame.
func (r *Renderer) Frame() (quads int, overlay bool) {
	return len(r.current.quads), r.current.overlay
}
