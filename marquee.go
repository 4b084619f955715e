package marquee

import "github.com/phanxgames/marquee/swf"

// Color is an 8-bit RGBA color.
type Color = swf.Color

// ColorWhite is the default stage background.
var ColorWhite = Color{R: 255, G: 255, B: 255, A: 255}

// Vec2 is a 2D vector. Stage positions are in twips.
type Vec2 struct {
	X, Y float64
}

// Depth is a child's stacking slot within its parent. Lower depths draw first.
type Depth int32

// Rect is an axis-aligned rectangle in twips. The origin is at the top-left,
// with Y increasing downward.
type Rect struct {
	X, Y, Width, Height float64
}

// RectFromSWF converts tag-stream bounds.
func RectFromSWF(r swf.Rect) Rect {
	return Rect{
		X:      float64(r.XMin),
		Y:      float64(r.YMin),
		Width:  float64(r.XMax - r.XMin),
		Height: float64(r.YMax - r.YMin),
	}
}

// Contains reports whether the point (x, y) lies inside the rectangle.
// Points on the edge are considered inside.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.Width &&
		y >= r.Y && y <= r.Y+r.Height
}

// Clamp returns the point of r closest to (x, y).
func (r Rect) Clamp(x, y float64) (float64, float64) {
	return clamp(x, r.X, r.X+r.Width), clamp(y, r.Y, r.Y+r.Height)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// NodeType distinguishes behavior for a Node.
type NodeType uint8

const (
	NodeTypeMovieClip  NodeType = iota // timeline with a depth-keyed child map
	NodeTypeGraphic                    // static shape
	NodeTypeButton                     // interactive button with Up/Over/Down states
	NodeTypeMorphShape                 // shape tween driven by a ratio
)

func (t NodeType) String() string {
	switch t {
	case NodeTypeMovieClip:
		return "movieclip"
	case NodeTypeGraphic:
		return "graphic"
	case NodeTypeButton:
		return "button"
	case NodeTypeMorphShape:
		return "morphshape"
	}
	return "unknown"
}

// DragObject describes an active drag started by a script.
type DragObject struct {
	// Target is the node being dragged.
	Target Handle
	// Offset is added to the stage mouse position, in twips.
	Offset Vec2
	// Constraint, when non-nil, bounds the target's position in its
	// parent's space.
	Constraint *Rect
}
