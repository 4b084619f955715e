package luascript

import (
	"os"
	"path/filepath"
	"testing"

	lua "github.com/yuin/gopher-lua"

	"github.com/phanxgames/marquee"
	"github.com/phanxgames/marquee/swf"
)

// ballMovie is a two-frame root that places a two-frame sprite named "ball"
// at depth 1 on its first frame.
func ballMovie(t *testing.T) []byte {
	t.Helper()

	inner := swf.NewWriter(8)
	for i := 0; i < 2; i++ {
		if err := inner.WriteTag(swf.ShowFrame{}); err != nil {
			t.Fatal(err)
		}
	}
	if err := inner.WriteTag(swf.End{}); err != nil {
		t.Fatal(err)
	}

	name := "ball"
	w := swf.NewWriter(8)
	w.WriteSprite(10, 2, inner.Bytes())
	for _, tag := range []swf.Tag{
		swf.PlaceObject{
			Version: 2,
			Action:  swf.PlaceObjectAction{Kind: swf.PlaceKindPlace, ID: 10},
			Depth:   1,
			Name:    &name,
		},
		swf.ShowFrame{},
		swf.ShowFrame{},
		swf.End{},
	} {
		if err := w.WriteTag(tag); err != nil {
			t.Fatal(err)
		}
	}

	data, err := swf.EncodeMovie(swf.Header{
		Compression: swf.CompressionNone,
		Version:     8,
		StageSize:   swf.Rect{XMax: 100 * swf.TwipsPerPixel, YMax: 100 * swf.TwipsPerPixel},
		FrameRate:   10,
		NumFrames:   2,
	}, w.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func newInterpreter(t *testing.T, src string) *Interpreter {
	t.Helper()
	i, err := New("", nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(i.Close)
	if err := i.LoadString(src); err != nil {
		t.Fatal(err)
	}
	return i
}

func newPlayer(t *testing.T, i *Interpreter) *marquee.Player {
	t.Helper()
	p, err := marquee.NewPlayer(ballMovie(t), marquee.Options{Interpreter: i})
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func ball(t *testing.T, p *marquee.Player) *marquee.Node {
	t.Helper()
	var n *marquee.Node
	p.Mutate(func(ctx *marquee.UpdateContext) {
		n = ctx.Node(ctx.ResolvePath(ctx.Root, "ball"))
	})
	if n == nil {
		t.Fatal("ball not on stage")
	}
	return n
}

func number(t *testing.T, i *Interpreter, name string) float64 {
	t.Helper()
	v, ok := i.Global(name).(lua.LNumber)
	if !ok {
		t.Fatalf("global %s = %v, want a number", name, i.Global(name))
	}
	return float64(v)
}

func TestEnterFrameMethod(t *testing.T) {
	i := newInterpreter(t, `
handlers = {
  ball = {
    onEnterFrame = function(self)
      count = (count or 0) + 1
      path = self
      stop(self)
    end,
  },
}
`)
	p := newPlayer(t, i)
	p.RunFrame()

	if got := number(t, i, "count"); got != 1 {
		t.Errorf("count = %v, want 1", got)
	}
	if got := i.Global("path").String(); got != "/ball" {
		t.Errorf("self = %q, want /ball", got)
	}
	if ball(t, p).IsPlaying() {
		t.Error("ball should be stopped by its handler")
	}
}

func TestRootHandler(t *testing.T) {
	i := newInterpreter(t, `
handlers = { _root = { onEnterFrame = function(self) root_path = self end } }
`)
	p := newPlayer(t, i)
	p.RunFrame()
	if got := i.Global("root_path").String(); got != "/" {
		t.Errorf("root self = %q, want /", got)
	}
}

func TestHasMethod(t *testing.T) {
	i := newInterpreter(t, `handlers = { ball = { onPress = function() end, value = 3 } }`)
	p := newPlayer(t, i)
	p.RunFrame()
	b := ball(t, p)

	tests := []struct {
		name string
		want bool
	}{
		{"onPress", true},
		{"onRelease", false},
		{"value", false},
	}
	p.Mutate(func(ctx *marquee.UpdateContext) {
		for _, tt := range tests {
			if got := i.HasMethod(ctx, b.Handle(), tt.name); got != tt.want {
				t.Errorf("HasMethod(ball, %q) = %v, want %v", tt.name, got, tt.want)
			}
		}
		if i.HasMethod(ctx, ctx.Root, "onPress") {
			t.Error("root should have no onPress")
		}
	})
}

func TestListenerBroadcast(t *testing.T) {
	i := newInterpreter(t, `
listeners = { Mouse = { onMouseDown = function() clicks = (clicks or 0) + 1 end } }
`)
	p := newPlayer(t, i)
	p.RunFrame()
	p.HandleEvent(marquee.PlayerEvent{Type: marquee.EventMouseDown, X: 50, Y: 50})
	p.HandleEvent(marquee.PlayerEvent{Type: marquee.EventMouseUp, X: 50, Y: 50})
	p.HandleEvent(marquee.PlayerEvent{Type: marquee.EventMouseDown, X: 50, Y: 50})

	if got := number(t, i, "clicks"); got != 2 {
		t.Errorf("clicks = %v, want 2", got)
	}
}

func TestPositionAPI(t *testing.T) {
	i := newInterpreter(t, `
handlers = {
  ball = {
    onEnterFrame = function(self)
      set_position(self, 12, 34)
      x, y = get_position(self)
      frames = total_frames(self)
    end,
  },
}
`)
	p := newPlayer(t, i)
	p.RunFrame()
	b := ball(t, p)
	if b.X() != 240 || b.Y() != 680 {
		t.Errorf("twips = %v,%v, want 240,680", b.X(), b.Y())
	}
	if number(t, i, "x") != 12 || number(t, i, "y") != 34 {
		t.Errorf("get_position = %v,%v, want 12,34", i.Global("x"), i.Global("y"))
	}
	if got := number(t, i, "frames"); got != 2 {
		t.Errorf("total_frames = %v, want 2", got)
	}
}

func TestGotoFromLua(t *testing.T) {
	i := newInterpreter(t, `
handlers = { _root = { onEnterFrame = function(self) goto_and_stop(self, 2) end } }
`)
	p := newPlayer(t, i)
	p.RunFrame()
	var frame uint16
	var playing bool
	p.Mutate(func(ctx *marquee.UpdateContext) {
		frame = ctx.RootNode().DisplayedFrame()
		playing = ctx.RootNode().IsPlaying()
	})
	if frame != 2 || playing {
		t.Errorf("root frame = %d, playing = %v, want 2, false", frame, playing)
	}
}

func TestScriptErrorReturned(t *testing.T) {
	i := newInterpreter(t, `handlers = { _root = { onEnterFrame = function() error("boom") end } }`)
	p := newPlayer(t, i)
	p.Mutate(func(ctx *marquee.UpdateContext) {
		err := i.Run(ctx, marquee.Action{Target: ctx.Root, Kind: marquee.ActionMethod, Method: "onEnterFrame"})
		if err == nil {
			t.Error("Run = nil, want the Lua error")
		}
	})
}

func TestCalledOutsideUpdate(t *testing.T) {
	i := newInterpreter(t, "")
	if err := i.LoadString("stop()"); err == nil {
		t.Error("stop() outside an update should fail")
	}
}

func TestBytecodeFallsBack(t *testing.T) {
	i := newInterpreter(t, "")
	p := newPlayer(t, i)
	p.Mutate(func(ctx *marquee.UpdateContext) {
		// Stop, End
		err := i.Run(ctx, marquee.Action{Target: ctx.Root, Kind: marquee.ActionNormal, Bytecode: []byte{0x07, 0x00}})
		if err != nil {
			t.Fatal(err)
		}
		if ctx.RootNode().IsPlaying() {
			t.Error("bytecode stop was not applied")
		}
	})
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"a.lua":    "order = 'a'",
		"b.lua":    "order = order .. 'b'",
		"skip.txt": "this is not lua",
	}
	for name, src := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(src), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	i, err := New(dir, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer i.Close()
	if got := i.Global("order").String(); got != "ab" {
		t.Errorf("order = %q, want ab", got)
	}
	if got := number(t, i, "API_VERSION"); got != APIVersion {
		t.Errorf("API_VERSION = %v, want %d", got, APIVersion)
	}

	if _, err := New(filepath.Join(dir, "missing"), nil); err != nil {
		t.Errorf("New(missing dir) = %v, want nil", err)
	}

	bad := t.TempDir()
	if err := os.WriteFile(filepath.Join(bad, "x.lua"), []byte("this is (not"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := New(bad, nil); err == nil {
		t.Error("New(syntax error) = nil error")
	}
}
