package marquee

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// InputStep is one entry of a scripted input sequence.
type InputStep struct {
	Type   string  `yaml:"type"` // move, down, up, click, drag, leave, key, keyup, text, wait
	X      float64 `yaml:"x"`
	Y      float64 `yaml:"y"`
	ToX    float64 `yaml:"to_x"` // drag target
	ToY    float64 `yaml:"to_y"`
	Key    string  `yaml:"key"`
	Text   string  `yaml:"text"`
	Frames int     `yaml:"frames"` // wait: polls to stay silent; drag: polls the drag spans
}

type inputScriptFile struct {
	Steps []InputStep `yaml:"steps"`
}

// InputScript replays a scripted input sequence. It implements InputBackend:
// each poll returns the events up to the next wait step.
type InputScript struct {
	events  [][]PlayerEvent // one batch per poll
	current int
}

// LoadInputScript loads an input script from a YAML file.
func LoadInputScript(path string) (*InputScript, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read input script: %w", err)
	}
	return ParseInputScript(raw)
}

// ParseInputScript parses an input script document of the form
//
//	steps:
//	  - {type: move, x: 10, y: 20}
//	  - {type: down, x: 10, y: 20}
//	  - {type: wait, frames: 3}
//	  - {type: drag, x: 10, y: 20, to_x: 50, to_y: 20, frames: 4}
//	  - {type: key, key: enter}
//	  - {type: text, text: "go"}
func ParseInputScript(raw []byte) (*InputScript, error) {
	var f inputScriptFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse input script: %w", err)
	}
	s := &InputScript{}
	var batch []PlayerEvent
	for i, step := range f.Steps {
		typ := strings.ToLower(step.Type)
		switch typ {
		case "move":
			batch = append(batch, PlayerEvent{Type: EventMouseMove, X: step.X, Y: step.Y})
		case "down":
			batch = append(batch, PlayerEvent{Type: EventMouseDown, X: step.X, Y: step.Y})
		case "up":
			batch = append(batch, PlayerEvent{Type: EventMouseUp, X: step.X, Y: step.Y})
		case "click":
			batch = append(batch,
				PlayerEvent{Type: EventMouseMove, X: step.X, Y: step.Y},
				PlayerEvent{Type: EventMouseDown, X: step.X, Y: step.Y},
				PlayerEvent{Type: EventMouseUp, X: step.X, Y: step.Y})
		case "drag":
			// Press, frames-2 interpolated moves, release; one poll each.
			frames := max(step.Frames, 2)
			batch = append(batch,
				PlayerEvent{Type: EventMouseMove, X: step.X, Y: step.Y},
				PlayerEvent{Type: EventMouseDown, X: step.X, Y: step.Y})
			s.events = append(s.events, batch)
			moves := frames - 2
			for j := 1; j <= moves; j++ {
				t := float64(j) / float64(moves+1)
				s.events = append(s.events, []PlayerEvent{{
					Type: EventMouseMove,
					X:    step.X + (step.ToX-step.X)*t,
					Y:    step.Y + (step.ToY-step.Y)*t,
				}})
			}
			batch = []PlayerEvent{
				{Type: EventMouseMove, X: step.ToX, Y: step.ToY},
				{Type: EventMouseUp, X: step.ToX, Y: step.ToY},
			}
		case "leave":
			batch = append(batch, PlayerEvent{Type: EventMouseLeft})
		case "key", "keyup":
			k, ok := ParseKeyCode(step.Key)
			if !ok {
				return nil, fmt.Errorf("input script step %d: unknown key %q", i, step.Key)
			}
			t := EventKeyDown
			if typ == "keyup" {
				t = EventKeyUp
			}
			batch = append(batch, PlayerEvent{Type: t, Key: k})
		case "text":
			for _, r := range step.Text {
				batch = append(batch, PlayerEvent{Type: EventTextInput, Rune: r})
			}
		case "wait":
			if step.Frames < 1 {
				return nil, fmt.Errorf("input script step %d: wait needs frames >= 1", i)
			}
			s.events = append(s.events, batch)
			batch = nil
			for j := 1; j < step.Frames; j++ {
				s.events = append(s.events, nil)
			}
		default:
			return nil, fmt.Errorf("input script step %d: unknown type %q", i, step.Type)
		}
	}
	if len(batch) > 0 {
		s.events = append(s.events, batch)
	}
	return s, nil
}

// Events returns the next batch of events, or nil once the script is done.
func (s *InputScript) Events() []PlayerEvent {
	if s.current >= len(s.events) {
		return nil
	}
	b := s.events[s.current]
	s.current++
	return b
}

// Done reports whether every batch has been returned.
func (s *InputScript) Done() bool { return s.current >= len(s.events) }

// Len returns the number of polls the script spans.
func (s *InputScript) Len() int { return len(s.events) }

var keyNames = map[string]KeyCode{
	"backspace": KeyBackspace,
	"tab":       KeyTab,
	"enter":     KeyEnter,
	"shift":     KeyShift,
	"control":   KeyControl,
	"alt":       KeyAlt,
	"escape":    KeyEscape,
	"space":     KeySpace,
	"pageup":    KeyPageUp,
	"pagedown":  KeyPageDown,
	"end":       KeyEnd,
	"home":      KeyHome,
	"left":      KeyLeft,
	"up":        KeyUp,
	"right":     KeyRight,
	"down":      KeyDown,
	"insert":    KeyInsert,
	"delete":    KeyDelete,
}

// ParseKeyCode resolves a key name such as "enter", "a" or "7".
func ParseKeyCode(name string) (KeyCode, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if k, ok := keyNames[name]; ok {
		return k, true
	}
	if len(name) == 1 {
		c := name[0]
		switch {
		case c >= 'a' && c <= 'z':
			return KeyA + KeyCode(c-'a'), true
		case c >= '0' && c <= '9':
			return Key0 + KeyCode(c-'0'), true
		}
	}
	return KeyUnknown, false
}
