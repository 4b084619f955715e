package luascript

import (
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/phanxgames/marquee"
	"github.com/phanxgames/marquee/swf"
)

// register installs the Go functions scripts call. Positions are in pixels.
func (i *Interpreter) register() {
	for name, fn := range map[string]lua.LGFunction{
		"trace":          i.luaTrace,
		"play":           i.luaPlay,
		"stop":           i.luaStop,
		"goto_and_stop":  i.luaGoto(true),
		"goto_and_play":  i.luaGoto(false),
		"current_frame":  i.luaCurrentFrame,
		"total_frames":   i.luaTotalFrames,
		"get_position":   i.luaGetPosition,
		"set_position":   i.luaSetPosition,
		"set_alpha":      i.luaSetAlpha,
		"mouse_position": i.luaMousePosition,
		"start_drag":     i.luaStartDrag,
		"stop_drag":      i.luaStopDrag,
		"get_url":        i.luaGetURL,
		"stop_sounds":    i.luaStopSounds,
	} {
		i.vm.SetGlobal(name, i.vm.NewFunction(fn))
	}
}

// update returns the running context, raising a Lua error outside of Run.
func (i *Interpreter) update(L *lua.LState) *marquee.UpdateContext {
	if i.ctx == nil {
		L.RaiseError("%v", ErrNoUpdate)
	}
	return i.ctx
}

// target resolves argument n as a path from the root. A missing argument
// selects the root.
func (i *Interpreter) target(L *lua.LState, n int) *marquee.Node {
	ctx := i.update(L)
	path := L.OptString(n, "/")
	node := ctx.Node(ctx.ResolvePath(ctx.Root, path))
	if node == nil {
		i.log.Debug("lua target not found", zap.String("path", path))
	}
	return node
}

func (i *Interpreter) luaTrace(L *lua.LState) int {
	msg := make([]string, 0, L.GetTop())
	for k := 1; k <= L.GetTop(); k++ {
		msg = append(msg, L.ToStringMeta(L.Get(k)).String())
	}
	i.log.Info("trace", zap.Strings("args", msg))
	return 0
}

func (i *Interpreter) luaPlay(L *lua.LState) int {
	if n := i.target(L, 1); n != nil {
		n.Play()
	}
	return 0
}

func (i *Interpreter) luaStop(L *lua.LState) int {
	if n := i.target(L, 1); n != nil {
		n.Stop()
	}
	return 0
}

// luaGoto accepts a frame number or a label as its second argument.
func (i *Interpreter) luaGoto(stop bool) lua.LGFunction {
	return func(L *lua.LState) int {
		n := i.target(L, 1)
		if n == nil {
			return 0
		}
		switch v := L.Get(2).(type) {
		case lua.LNumber:
			n.GotoFrame(i.ctx, uint16(v), stop)
		case lua.LString:
			if !n.GotoLabel(i.ctx, string(v), stop) {
				i.log.Debug("lua goto unknown label", zap.String("label", string(v)))
			}
		default:
			L.ArgError(2, "frame number or label expected")
		}
		return 0
	}
}

func (i *Interpreter) luaCurrentFrame(L *lua.LState) int {
	var f uint16
	if n := i.target(L, 1); n != nil {
		f = n.DisplayedFrame()
	}
	L.Push(lua.LNumber(f))
	return 1
}

func (i *Interpreter) luaTotalFrames(L *lua.LState) int {
	var f uint16
	if n := i.target(L, 1); n != nil {
		f = n.TotalFrames()
	}
	L.Push(lua.LNumber(f))
	return 1
}

func (i *Interpreter) luaGetPosition(L *lua.LState) int {
	n := i.target(L, 1)
	if n == nil {
		L.Push(lua.LNil)
		L.Push(lua.LNil)
		return 2
	}
	L.Push(lua.LNumber(n.X() / swf.TwipsPerPixel))
	L.Push(lua.LNumber(n.Y() / swf.TwipsPerPixel))
	return 2
}

func (i *Interpreter) luaSetPosition(L *lua.LState) int {
	n := i.target(L, 1)
	x, y := float64(L.CheckNumber(2)), float64(L.CheckNumber(3))
	if n != nil {
		n.SetPosition(x*swf.TwipsPerPixel, y*swf.TwipsPerPixel)
	}
	return 0
}

// luaSetAlpha sets the alpha multiplier, 0 to 1.
func (i *Interpreter) luaSetAlpha(L *lua.LState) int {
	n := i.target(L, 1)
	a := float64(L.CheckNumber(2))
	if n != nil {
		n.ColorTransform.AMult = a
	}
	return 0
}

func (i *Interpreter) luaMousePosition(L *lua.LState) int {
	m := i.update(L).MousePosition()
	L.Push(lua.LNumber(m.X / swf.TwipsPerPixel))
	L.Push(lua.LNumber(m.Y / swf.TwipsPerPixel))
	return 2
}

func (i *Interpreter) luaStartDrag(L *lua.LState) int {
	n := i.target(L, 1)
	lock := L.OptBool(2, false)
	if n != nil {
		i.ctx.StartDrag(n.Handle(), lock, nil)
	}
	return 0
}

func (i *Interpreter) luaStopDrag(L *lua.LState) int {
	i.update(L).StopDrag()
	return 0
}

func (i *Interpreter) luaGetURL(L *lua.LState) int {
	url := L.CheckString(1)
	window := L.OptString(2, "")
	i.update(L).NavigateToURL(url, window)
	return 0
}

func (i *Interpreter) luaStopSounds(L *lua.LState) int {
	i.update(L).Audio.StopAllSounds()
	return 0
}
