package marquee

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// ErrBytecode is wrapped by BasicInterpreter for action bytecode it cannot
// decode.
var ErrBytecode = errors.New("marquee: malformed action bytecode")

// Action opcodes understood by BasicInterpreter.
const (
	opEnd           = 0x00
	opNextFrame     = 0x04
	opPrevFrame     = 0x05
	opPlay          = 0x06
	opStop          = 0x07
	opToggleQuality = 0x08
	opStopSounds    = 0x09
	opGotoFrame     = 0x81
	opGetURL        = 0x83
	opWaitForFrame  = 0x8A
	opSetTarget     = 0x8B
	opGotoLabel     = 0x8C
)

// BasicInterpreter runs the timeline-control subset of action bytecode:
// play, stop, frame navigation, URL requests and target changes. Opcodes
// outside that subset are skipped. Method and listener actions are ignored;
// they need a full scripting runtime.
type BasicInterpreter struct {
	// Skipped counts opcodes that were not executed.
	Skipped int
}

// NewBasicInterpreter returns a BasicInterpreter.
func NewBasicInterpreter() *BasicInterpreter {
	return &BasicInterpreter{}
}

// Run executes a.
func (b *BasicInterpreter) Run(ctx *UpdateContext, a Action) error {
	switch a.Kind {
	case ActionNormal, ActionInit:
		return b.RunBytecode(ctx, a.Target, a.Bytecode)
	}
	return nil
}

// RunBytecode executes code with target as the initial target clip.
func (b *BasicInterpreter) RunBytecode(ctx *UpdateContext, target Handle, code []byte) error {
	base := target
	for pos := 0; pos < len(code); {
		op := code[pos]
		pos++
		if op == opEnd {
			return nil
		}
		var arg []byte
		if op >= 0x80 {
			if pos+2 > len(code) {
				return fmt.Errorf("opcode 0x%02x at %d: %w", op, pos-1, ErrBytecode)
			}
			n := int(binary.LittleEndian.Uint16(code[pos:]))
			pos += 2
			if pos+n > len(code) {
				return fmt.Errorf("opcode 0x%02x at %d: length %d: %w", op, pos-3, n, ErrBytecode)
			}
			arg = code[pos : pos+n]
			pos += n
		}

		n := ctx.Node(target)
		switch op {
		case opNextFrame:
			if n != nil {
				n.GotoFrame(ctx, n.DisplayedFrame()+1, true)
			}
		case opPrevFrame:
			if n != nil && n.DisplayedFrame() > 1 {
				n.GotoFrame(ctx, n.DisplayedFrame()-1, true)
			}
		case opPlay:
			if n != nil {
				n.Play()
			}
		case opStop:
			if n != nil {
				n.Stop()
			}
		case opStopSounds:
			ctx.Audio.StopAllSounds()
		case opGotoFrame:
			if len(arg) < 2 {
				return fmt.Errorf("goto frame: %w", ErrBytecode)
			}
			if n != nil {
				n.GotoFrame(ctx, binary.LittleEndian.Uint16(arg)+1, true)
			}
		case opGotoLabel:
			label, _ := cString(arg)
			if n != nil && !n.GotoLabel(ctx, label, true) {
				ctx.Log.Debug("goto unknown label", zap.String("label", label))
			}
		case opGetURL:
			url, rest := cString(arg)
			window, _ := cString(rest)
			ctx.NavigateToURL(url, window)
		case opSetTarget:
			path, _ := cString(arg)
			if path == "" {
				target = base
				continue
			}
			target = ctx.ResolvePath(base, path)
			if target == NoHandle {
				ctx.Log.Debug("set target to unknown path", zap.String("path", path))
			}
		case opToggleQuality, opWaitForFrame:
			// All frames are loaded and quality is fixed.
		default:
			b.Skipped++
		}
	}
	return nil
}

// cString splits a null-terminated string off the front of b.
func cString(b []byte) (string, []byte) {
	i := bytes.IndexByte(b, 0)
	if i < 0 {
		return string(b), nil
	}
	return string(b[:i]), b[i+1:]
}
