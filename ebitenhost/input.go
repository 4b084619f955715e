package ebitenhost

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/phanxgames/marquee"
)

// keyCodes maps Ebitengine keys to the player's key codes.
var keyCodes = func() map[ebiten.Key]marquee.KeyCode {
	m := map[ebiten.Key]marquee.KeyCode{
		ebiten.KeyBackspace:    marquee.KeyBackspace,
		ebiten.KeyTab:          marquee.KeyTab,
		ebiten.KeyEnter:        marquee.KeyEnter,
		ebiten.KeyNumpadEnter:  marquee.KeyEnter,
		ebiten.KeyShiftLeft:    marquee.KeyShift,
		ebiten.KeyShiftRight:   marquee.KeyShift,
		ebiten.KeyControlLeft:  marquee.KeyControl,
		ebiten.KeyControlRight: marquee.KeyControl,
		ebiten.KeyAltLeft:      marquee.KeyAlt,
		ebiten.KeyAltRight:     marquee.KeyAlt,
		ebiten.KeyEscape:       marquee.KeyEscape,
		ebiten.KeySpace:        marquee.KeySpace,
		ebiten.KeyPageUp:       marquee.KeyPageUp,
		ebiten.KeyPageDown:     marquee.KeyPageDown,
		ebiten.KeyEnd:          marquee.KeyEnd,
		ebiten.KeyHome:         marquee.KeyHome,
		ebiten.KeyArrowLeft:    marquee.KeyLeft,
		ebiten.KeyArrowUp:      marquee.KeyUp,
		ebiten.KeyArrowRight:   marquee.KeyRight,
		ebiten.KeyArrowDown:    marquee.KeyDown,
		ebiten.KeyInsert:       marquee.KeyInsert,
		ebiten.KeyDelete:       marquee.KeyDelete,
	}
	letters := [...]ebiten.Key{
		ebiten.KeyA, ebiten.KeyB, ebiten.KeyC, ebiten.KeyD, ebiten.KeyE, ebiten.KeyF,
		ebiten.KeyG, ebiten.KeyH, ebiten.KeyI, ebiten.KeyJ, ebiten.KeyK, ebiten.KeyL,
		ebiten.KeyM, ebiten.KeyN, ebiten.KeyO, ebiten.KeyP, ebiten.KeyQ, ebiten.KeyR,
		ebiten.KeyS, ebiten.KeyT, ebiten.KeyU, ebiten.KeyV, ebiten.KeyW, ebiten.KeyX,
		ebiten.KeyY, ebiten.KeyZ,
	}
	for i, k := range letters {
		m[k] = marquee.KeyA + marquee.KeyCode(i)
	}
	digits := [...]ebiten.Key{
		ebiten.KeyDigit0, ebiten.KeyDigit1, ebiten.KeyDigit2, ebiten.KeyDigit3, ebiten.KeyDigit4,
		ebiten.KeyDigit5, ebiten.KeyDigit6, ebiten.KeyDigit7, ebiten.KeyDigit8, ebiten.KeyDigit9,
	}
	for i, k := range digits {
		m[k] = marquee.Key0 + marquee.KeyCode(i)
	}
	return m
}()

// KeyCodeFor maps an Ebitengine key to a player key code.
func KeyCodeFor(k ebiten.Key) marquee.KeyCode {
	return keyCodes[k]
}

// Input is a marquee.InputBackend that polls Ebitengine's input state. Poll
// must be called once per Update before the player drains Events.
type Input struct {
	pending []marquee.PlayerEvent

	lastX, lastY int
	inside       bool

	keys  []ebiten.Key
	chars []rune

	inject     []syntheticPointer
	injX, injY float64
	injDown    bool
}

// NewInput returns an input backend with no pending events.
func NewInput() *Input {
	return &Input{}
}

// Events returns and clears the events gathered by Poll.
func (in *Input) Events() []marquee.PlayerEvent {
	ev := in.pending
	in.pending = nil
	return ev
}

// Push appends an event, for hosts that synthesize input.
func (in *Input) Push(ev marquee.PlayerEvent) {
	in.pending = append(in.pending, ev)
}

// Poll gathers this tick's input. width and height are the viewport size
// used to detect the cursor leaving it.
func (in *Input) Poll(width, height int) {
	if !in.pollInjected() {
		mx, my := ebiten.CursorPosition()
		inside := mx >= 0 && my >= 0 && mx < width && my < height
		in.pointer(mx, my, inside,
			inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft),
			inpututil.IsMouseButtonJustReleased(ebiten.MouseButtonLeft))
	}

	in.keys = inpututil.AppendJustPressedKeys(in.keys[:0])
	for _, k := range in.keys {
		in.key(marquee.EventKeyDown, k)
	}
	in.keys = inpututil.AppendJustReleasedKeys(in.keys[:0])
	for _, k := range in.keys {
		in.key(marquee.EventKeyUp, k)
	}
	in.chars = ebiten.AppendInputChars(in.chars[:0])
	for _, r := range in.chars {
		in.Push(marquee.PlayerEvent{Type: marquee.EventTextInput, Rune: r})
	}
}

// pointer turns one cursor sample into move, button and leave events.
func (in *Input) pointer(x, y int, inside, pressed, released bool) {
	fx, fy := float64(x), float64(y)
	switch {
	case inside && (!in.inside || x != in.lastX || y != in.lastY):
		in.Push(marquee.PlayerEvent{Type: marquee.EventMouseMove, X: fx, Y: fy})
	case !inside && in.inside:
		in.Push(marquee.PlayerEvent{Type: marquee.EventMouseLeft})
	}
	in.lastX, in.lastY, in.inside = x, y, inside

	if pressed {
		in.Push(marquee.PlayerEvent{Type: marquee.EventMouseDown, X: fx, Y: fy})
	}
	if released {
		in.Push(marquee.PlayerEvent{Type: marquee.EventMouseUp, X: fx, Y: fy})
	}
}

func (in *Input) key(t marquee.PlayerEventType, k ebiten.Key) {
	code, ok := keyCodes[k]
	if !ok {
		return
	}
	in.Push(marquee.PlayerEvent{Type: t, Key: code})
}
