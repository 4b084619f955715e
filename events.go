package marquee

import "github.com/phanxgames/marquee/swf"

// PlayerEventType identifies the kind of a PlayerEvent.
type PlayerEventType uint8

const (
	EventMouseMove PlayerEventType = iota
	EventMouseDown
	EventMouseUp
	EventMouseLeft
	EventKeyDown
	EventKeyUp
	EventTextInput
)

func (t PlayerEventType) String() string {
	switch t {
	case EventMouseMove:
		return "mouse_move"
	case EventMouseDown:
		return "mouse_down"
	case EventMouseUp:
		return "mouse_up"
	case EventMouseLeft:
		return "mouse_left"
	case EventKeyDown:
		return "key_down"
	case EventKeyUp:
		return "key_up"
	case EventTextInput:
		return "text_input"
	}
	return "unknown"
}

// PlayerEvent is an input event delivered by the host. Mouse coordinates are
// viewport pixels.
type PlayerEvent struct {
	Type PlayerEventType
	X, Y float64
	Key  KeyCode // EventKeyDown, EventKeyUp
	Rune rune    // EventTextInput
}

// KeyCode is a host-independent key code using the player's virtual key values.
type KeyCode uint8

const (
	KeyUnknown   KeyCode = 0
	KeyBackspace KeyCode = 8
	KeyTab       KeyCode = 9
	KeyEnter     KeyCode = 13
	KeyShift     KeyCode = 16
	KeyControl   KeyCode = 17
	KeyAlt       KeyCode = 18
	KeyEscape    KeyCode = 27
	KeySpace     KeyCode = 32
	KeyPageUp    KeyCode = 33
	KeyPageDown  KeyCode = 34
	KeyEnd       KeyCode = 35
	KeyHome      KeyCode = 36
	KeyLeft      KeyCode = 37
	KeyUp        KeyCode = 38
	KeyRight     KeyCode = 39
	KeyDown      KeyCode = 40
	KeyInsert    KeyCode = 45
	KeyDelete    KeyCode = 46
	Key0         KeyCode = 48
	KeyA         KeyCode = 65
)

// ButtonKeyCode is the key value buttons match their key-press actions
// against. Printable ASCII maps to itself.
type ButtonKeyCode uint8

const (
	ButtonKeyLeft      ButtonKeyCode = 1
	ButtonKeyRight     ButtonKeyCode = 2
	ButtonKeyHome      ButtonKeyCode = 3
	ButtonKeyEnd       ButtonKeyCode = 4
	ButtonKeyInsert    ButtonKeyCode = 5
	ButtonKeyDelete    ButtonKeyCode = 6
	ButtonKeyBackspace ButtonKeyCode = 8
	ButtonKeyEnter     ButtonKeyCode = 13
	ButtonKeyUp        ButtonKeyCode = 14
	ButtonKeyDown      ButtonKeyCode = 15
	ButtonKeyPageUp    ButtonKeyCode = 16
	ButtonKeyPageDown  ButtonKeyCode = 17
	ButtonKeyTab       ButtonKeyCode = 18
	ButtonKeyEscape    ButtonKeyCode = 19
)

var buttonKeyCodes = map[KeyCode]ButtonKeyCode{
	KeyLeft:      ButtonKeyLeft,
	KeyRight:     ButtonKeyRight,
	KeyHome:      ButtonKeyHome,
	KeyEnd:       ButtonKeyEnd,
	KeyInsert:    ButtonKeyInsert,
	KeyDelete:    ButtonKeyDelete,
	KeyBackspace: ButtonKeyBackspace,
	KeyEnter:     ButtonKeyEnter,
	KeyUp:        ButtonKeyUp,
	KeyDown:      ButtonKeyDown,
	KeyPageUp:    ButtonKeyPageUp,
	KeyPageDown:  ButtonKeyPageDown,
	KeyTab:       ButtonKeyTab,
	KeyEscape:    ButtonKeyEscape,
}

// ButtonKeyCodeFor maps a special key to its button key value.
func ButtonKeyCodeFor(k KeyCode) (ButtonKeyCode, bool) {
	c, ok := buttonKeyCodes[k]
	return c, ok
}

// ButtonState is a button's visual state.
type ButtonState uint8

const (
	ButtonStateUp ButtonState = iota
	ButtonStateOver
	ButtonStateDown
)

func (s ButtonState) String() string {
	switch s {
	case ButtonStateOver:
		return "over"
	case ButtonStateDown:
		return "down"
	}
	return "up"
}

// recordFlag returns the record state bit that shows children for s.
func (s ButtonState) recordFlag() swf.ButtonState {
	switch s {
	case ButtonStateOver:
		return swf.ButtonStateOver
	case ButtonStateDown:
		return swf.ButtonStateDown
	}
	return swf.ButtonStateUp
}

// ButtonEventType identifies a ButtonEvent.
type ButtonEventType uint8

const (
	ButtonEventRollOver ButtonEventType = iota
	ButtonEventRollOut
	ButtonEventPress
	ButtonEventRelease
	ButtonEventKeyPress
)

func (t ButtonEventType) String() string {
	switch t {
	case ButtonEventRollOver:
		return "roll_over"
	case ButtonEventRollOut:
		return "roll_out"
	case ButtonEventPress:
		return "press"
	case ButtonEventRelease:
		return "release"
	case ButtonEventKeyPress:
		return "key_press"
	}
	return "unknown"
}

// ButtonEvent is delivered to buttons by hover, mouse and key handling.
type ButtonEvent struct {
	Type ButtonEventType
	Key  ButtonKeyCode // ButtonEventKeyPress
}

// ClipEvent is delivered to clips with matching clip event handlers.
type ClipEvent struct {
	Flag swf.ClipEventFlag
	Key  ButtonKeyCode // swf.ClipEventKeyPress
}
