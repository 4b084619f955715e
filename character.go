package marquee

import (
	"errors"
	"fmt"

	"github.com/phanxgames/marquee/swf"
)

var (
	// ErrCharacterNotFound is returned when a character id is not in the library.
	ErrCharacterNotFound = errors.New("marquee: character not found")
	// ErrNotInstantiable is returned when a character cannot be placed on a
	// timeline, such as a font or a sound.
	ErrNotInstantiable = errors.New("marquee: character is not a display object")
)

// CharacterKind identifies the variant of a Character.
type CharacterKind uint8

const (
	CharacterGraphic CharacterKind = iota
	CharacterSprite
	CharacterFont
	CharacterButton
	CharacterMorphShape
	CharacterSound
)

func (k CharacterKind) String() string {
	switch k {
	case CharacterGraphic:
		return "graphic"
	case CharacterSprite:
		return "sprite"
	case CharacterFont:
		return "font"
	case CharacterButton:
		return "button"
	case CharacterMorphShape:
		return "morphshape"
	case CharacterSound:
		return "sound"
	}
	return "unknown"
}

// Character is an immutable template registered once under its id. Only the
// fields of its Kind are set.
type Character struct {
	Kind CharacterKind
	ID   swf.CharacterID

	// Graphic
	Shape  ShapeHandle
	Bounds swf.Rect

	// Sprite: the nested timeline's tags start at TagStart in the shared
	// tag buffer.
	NumFrames uint16
	TagStart  int

	// Button
	TrackAsMenu   bool
	ButtonRecords []swf.ButtonRecord
	ButtonActions []swf.ButtonAction

	// MorphShape
	Morph *swf.DefineMorphShape

	// Font
	Font *swf.DefineFont

	// Sound
	Sound SoundHandle
}

// Instantiable reports whether the character can be placed on a timeline.
func (c *Character) Instantiable() bool {
	switch c.Kind {
	case CharacterGraphic, CharacterSprite, CharacterButton, CharacterMorphShape:
		return true
	}
	return false
}

// Library maps character ids to templates for the lifetime of a movie.
type Library struct {
	characters  map[swf.CharacterID]*Character
	deviceFont  *Character
	morphFrames map[morphKey]ShapeHandle
}

type morphKey struct {
	id    swf.CharacterID
	ratio uint16
}

// NewLibrary returns an empty library.
func NewLibrary() *Library {
	return &Library{
		characters:  make(map[swf.CharacterID]*Character),
		morphFrames: make(map[morphKey]ShapeHandle),
	}
}

// Register stores c under its id. The first definition of an id wins; later
// ones are ignored and Register reports false.
func (l *Library) Register(c *Character) bool {
	if _, ok := l.characters[c.ID]; ok {
		return false
	}
	l.characters[c.ID] = c
	return true
}

// Contains reports whether id is registered.
func (l *Library) Contains(id swf.CharacterID) bool {
	_, ok := l.characters[id]
	return ok
}

// Character returns the template for id.
func (l *Library) Character(id swf.CharacterID) (*Character, bool) {
	c, ok := l.characters[id]
	return c, ok
}

// Len returns the number of registered characters.
func (l *Library) Len() int { return len(l.characters) }

// SetDeviceFont sets the font used for device text.
func (l *Library) SetDeviceFont(c *Character) { l.deviceFont = c }

// DeviceFont returns the device font, or nil if none loaded.
func (l *Library) DeviceFont() *Character { return l.deviceFont }

// Instantiate creates a new node from the template for id.
func (l *Library) Instantiate(a *Arena, id swf.CharacterID) (Handle, error) {
	c, ok := l.characters[id]
	if !ok {
		return NoHandle, fmt.Errorf("instantiate %d: %w", id, ErrCharacterNotFound)
	}
	var n *Node
	switch c.Kind {
	case CharacterGraphic:
		n = newGraphic(c)
	case CharacterSprite:
		n = newMovieClip(c.TagStart, c.NumFrames)
	case CharacterButton:
		n = newButton(c)
	case CharacterMorphShape:
		n = newMorphShape(c)
	default:
		return NoHandle, fmt.Errorf("instantiate %d (%s): %w", id, c.Kind, ErrNotInstantiable)
	}
	n.CharacterID = id
	h := a.Allocate(n)
	if n.Type == NodeTypeButton {
		l.setButtonState(a, n, ButtonStateUp)
	}
	return h, nil
}

// morphShape returns the renderer shape for a morph character at ratio,
// registering the interpolated definition the first time it is needed.
func (l *Library) morphShape(r RenderBackend, c *Character, ratio uint16) ShapeHandle {
	key := morphKey{id: c.ID, ratio: ratio}
	if h, ok := l.morphFrames[key]; ok {
		return h
	}
	t := float64(ratio) / 65535
	m := c.Morph
	def := ShapeDefinition{
		ID:      c.ID,
		Bounds:  lerpRect(m.StartBounds, m.EndBounds, t),
		Fill:    lerpColor(m.StartFill, m.EndFill, t),
		HasFill: m.HasFill,
	}
	h := r.RegisterShape(def)
	l.morphFrames[key] = h
	return h
}

func lerp(a, b, t float64) float64 { return a + (b-a)*t }

func lerpRect(a, b swf.Rect, t float64) swf.Rect {
	return swf.Rect{
		XMin: swf.Twips(lerp(float64(a.XMin), float64(b.XMin), t)),
		XMax: swf.Twips(lerp(float64(a.XMax), float64(b.XMax), t)),
		YMin: swf.Twips(lerp(float64(a.YMin), float64(b.YMin), t)),
		YMax: swf.Twips(lerp(float64(a.YMax), float64(b.YMax), t)),
	}
}

func lerpColor(a, b Color, t float64) Color {
	return Color{
		R: uint8(lerp(float64(a.R), float64(b.R), t)),
		G: uint8(lerp(float64(a.G), float64(b.G), t)),
		B: uint8(lerp(float64(a.B), float64(b.B), t)),
		A: uint8(lerp(float64(a.A), float64(b.A), t)),
	}
}
