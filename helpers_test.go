package marquee

import (
	"fmt"
	"testing"

	"github.com/phanxgames/marquee/swf"
)

// --- Movie building ---

// frame is the tag list of one frame, without the trailing ShowFrame.
type frame []swf.Tag

// spriteTag is a sprite definition carrying its encoded nested timeline.
type spriteTag struct {
	id     swf.CharacterID
	frames uint16
	tags   []byte
}

func (spriteTag) Code() swf.TagCode { return swf.TagDefineSprite }

func encodeTags(t testing.TB, frames ...frame) []byte {
	t.Helper()
	w := swf.NewWriter(8)
	for _, f := range frames {
		for _, tag := range f {
			if st, ok := tag.(spriteTag); ok {
				w.WriteSprite(st.id, st.frames, st.tags)
				continue
			}
			if err := w.WriteTag(tag); err != nil {
				t.Fatalf("WriteTag(%T): %v", tag, err)
			}
		}
		if err := w.WriteTag(swf.ShowFrame{}); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.WriteTag(swf.End{}); err != nil {
		t.Fatal(err)
	}
	return w.Bytes()
}

func sprite(t testing.TB, id swf.CharacterID, frames ...frame) spriteTag {
	t.Helper()
	return spriteTag{id: id, frames: uint16(len(frames)), tags: encodeTags(t, frames...)}
}

func buildMovie(t testing.TB, frames ...frame) []byte {
	t.Helper()
	return wrapMovie(t, uint16(len(frames)), encodeTags(t, frames...))
}

func wrapMovie(t testing.TB, numFrames uint16, tags []byte) []byte {
	t.Helper()
	data, err := swf.EncodeMovie(swf.Header{
		Compression: swf.CompressionNone,
		Version:     8,
		StageSize:   swf.Rect{XMax: 100 * swf.TwipsPerPixel, YMax: 100 * swf.TwipsPerPixel},
		FrameRate:   10,
		NumFrames:   numFrames,
	}, tags)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func newTestPlayer(t testing.TB, data []byte, opts Options) *Player {
	t.Helper()
	p, err := NewPlayer(data, opts)
	if err != nil {
		t.Fatalf("NewPlayer: %v", err)
	}
	return p
}

func square(id swf.CharacterID, size float64) swf.DefineShape {
	tw := swf.TwipsFromPixels(size)
	return swf.DefineShape{
		Version: 1,
		ID:      id,
		Bounds:  swf.Rect{XMax: tw, YMax: tw},
		Fill:    swf.Color{R: 255, A: 255},
		HasFill: true,
	}
}

func place(id swf.CharacterID, depth uint16) swf.PlaceObject {
	return swf.PlaceObject{
		Version: 2,
		Action:  swf.PlaceObjectAction{Kind: swf.PlaceKindPlace, ID: id},
		Depth:   depth,
	}
}

func translate(x, y float64) *swf.Matrix {
	m := swf.IdentityMatrix()
	m.TranslateX = swf.TwipsFromPixels(x)
	m.TranslateY = swf.TwipsFromPixels(y)
	return &m
}

func background(r uint8) swf.SetBackgroundColor {
	return swf.SetBackgroundColor{Color: swf.Color{R: r, A: 255}}
}

// rootNode returns the player's root clip. Must not be called inside a
// mutation.
func rootNode(p *Player) *Node {
	return p.arena.Get(p.Root())
}

func childAt(t *testing.T, p *Player, parent *Node, depth Depth) *Node {
	t.Helper()
	h, ok := parent.Child(depth)
	if !ok {
		t.Fatalf("no child at depth %d", depth)
	}
	n := p.arena.Get(h)
	if n == nil {
		t.Fatalf("child at depth %d is stale", depth)
	}
	return n
}

// --- Recording backends ---

type renderCall struct {
	op     string
	shape  ShapeHandle
	matrix Matrix
}

func (c renderCall) String() string {
	if c.op == "shape" {
		return fmt.Sprintf("shape(%d, %v)", c.shape, c.matrix)
	}
	return c.op
}

type recordingRenderer struct {
	NullRenderer
	defs  []ShapeDefinition
	calls []renderCall
}

func (r *recordingRenderer) RegisterShape(def ShapeDefinition) ShapeHandle {
	r.defs = append(r.defs, def)
	return r.NullRenderer.RegisterShape(def)
}

func (r *recordingRenderer) BeginFrame() { r.calls = append(r.calls, renderCall{op: "begin"}) }
func (r *recordingRenderer) Clear(Color) { r.calls = append(r.calls, renderCall{op: "clear"}) }
func (r *recordingRenderer) EndFrame()   { r.calls = append(r.calls, renderCall{op: "end"}) }

func (r *recordingRenderer) RenderShape(h ShapeHandle, t Transform) {
	r.calls = append(r.calls, renderCall{op: "shape", shape: h, matrix: t.Matrix})
}

func (r *recordingRenderer) DrawPauseOverlay() {
	r.calls = append(r.calls, renderCall{op: "pause"})
}

func (r *recordingRenderer) DrawLetterbox(Letterbox) {
	r.calls = append(r.calls, renderCall{op: "letterbox"})
}

func (r *recordingRenderer) frames() int {
	n := 0
	for _, c := range r.calls {
		if c.op == "begin" {
			n++
		}
	}
	return n
}

func (r *recordingRenderer) shapes() []ShapeHandle {
	var hs []ShapeHandle
	for _, c := range r.calls {
		if c.op == "shape" {
			hs = append(hs, c.shape)
		}
	}
	return hs
}

type recordingAudio struct {
	*NullAudio
	loading  bool
	ticks    int
	primed   int
	streams  int
	samples  int
	started  []SoundHandle
	stopped  []SoundHandle
	stopAll  int
	playing  map[SoundHandle]bool
	streamAt []uint16
}

func newRecordingAudio() *recordingAudio {
	return &recordingAudio{NullAudio: NewNullAudio(), playing: make(map[SoundHandle]bool)}
}

func (a *recordingAudio) IsLoadingComplete() bool { return !a.loading }
func (a *recordingAudio) Tick()                   { a.ticks++ }
func (a *recordingAudio) PrimeAudio()             { a.primed++ }
func (a *recordingAudio) StopAllSounds()          { a.stopAll++ }

func (a *recordingAudio) RegisterStream(info swf.SoundStreamInfo) AudioStreamHandle {
	a.streams++
	return a.NullAudio.RegisterStream(info)
}

func (a *recordingAudio) StartStream(_ AudioStreamHandle, _ swf.CharacterID, frame uint16) {
	a.streamAt = append(a.streamAt, frame)
}

func (a *recordingAudio) QueueStreamSamples(_ AudioStreamHandle, samples []byte) {
	a.samples += len(samples)
}

func (a *recordingAudio) StartSound(h SoundHandle, info swf.SoundInfo) SoundInstance {
	a.started = append(a.started, h)
	a.playing[h] = true
	return a.NullAudio.StartSound(h, info)
}

func (a *recordingAudio) StopSoundsWithHandle(h SoundHandle) {
	a.stopped = append(a.stopped, h)
	a.playing[h] = false
}

func (a *recordingAudio) IsSoundPlaying(h SoundHandle) bool { return a.playing[h] }

type recordedAction struct {
	Action
	removed bool
}

// recordingInterpreter records every action it runs. hook, when set, runs
// inside the same mutation.
type recordingInterpreter struct {
	actions []recordedAction
	hook    func(ctx *UpdateContext, a Action) error
}

func (r *recordingInterpreter) Run(ctx *UpdateContext, a Action) error {
	n := ctx.Node(a.Target)
	r.actions = append(r.actions, recordedAction{Action: a, removed: n == nil || n.Removed()})
	if r.hook != nil {
		return r.hook(ctx, a)
	}
	return nil
}

func (r *recordingInterpreter) kinds() []ActionKind {
	var ks []ActionKind
	for _, a := range r.actions {
		ks = append(ks, a.Kind)
	}
	return ks
}

type recordingNavigator struct {
	urls    []string
	targets []string
}

func (n *recordingNavigator) NavigateToURL(url, target string) {
	n.urls = append(n.urls, url)
	n.targets = append(n.targets, target)
}

type recordingStore struct {
	events []InteractionEvent
}

func (s *recordingStore) EmitEvent(e InteractionEvent) {
	s.events = append(s.events, e)
}

func (s *recordingStore) types() []ButtonEventType {
	var ts []ButtonEventType
	for _, e := range s.events {
		ts = append(ts, e.Type)
	}
	return ts
}
