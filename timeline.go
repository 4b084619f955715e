package marquee

import (
	"errors"
	"io"

	"go.uber.org/zap"

	"github.com/phanxgames/marquee/swf"
)

// spriteHeaderSize is the sprite id plus frame count that precede a nested
// timeline's first tag.
const spriteHeaderSize = 4

// runFrame executes one frame of n's timeline and then of every child.
// Children are visited in map order; rendering and picking use depth order.
func (n *Node) runFrame(ctx *UpdateContext) {
	if n.Type == NodeTypeMovieClip && n.playing {
		n.runTagBatch(ctx)
		n.advanceFrame()
	}
	if n.Type == NodeTypeMovieClip {
		n.queueClipEvent(ctx, ClipEvent{Flag: swf.ClipEventEnterFrame}, false)
	}
	for _, h := range n.children {
		if c := ctx.Node(h); c != nil {
			c.runFrame(ctx)
		}
	}
}

// runTagBatch reads tags from the persisted cursor up to the next ShowFrame
// and persists the new position. The caller's cursor is restored.
func (n *Node) runTagBatch(ctx *UpdateContext) {
	saved := ctx.Stream.Pos()
	ctx.Stream.SetPos(n.tagPos)
	for {
		start := ctx.Stream.Pos()
		tag, err := ctx.Stream.ReadTag()
		if err != nil {
			if errors.Is(err, swf.ErrMalformedTag) {
				ctx.Log.Debug("skipping malformed tag", zap.Error(err))
				continue
			}
			if !errors.Is(err, io.EOF) {
				ctx.Log.Debug("tag stream ended early", zap.Error(err))
			}
			break
		}
		if _, ok := tag.(swf.ShowFrame); ok {
			break
		}
		if _, ok := tag.(swf.End); ok {
			// Stay on the End tag so later frames do not run into the
			// enclosing timeline's tags.
			ctx.Stream.SetPos(start)
			break
		}
		n.runTag(ctx, tag, start)
	}
	n.tagPos = ctx.Stream.Pos()
	ctx.Stream.SetPos(saved)
}

// advanceFrame moves to the next frame, looping back to frame 1 and the
// start of the tag stream after the last one.
func (n *Node) advanceFrame() {
	if n.nextFrame < n.totalFrames {
		n.nextFrame++
		return
	}
	n.nextFrame = 1
	n.tagPos = n.tagStart
}

func (n *Node) runTag(ctx *UpdateContext, tag swf.Tag, start int) {
	switch t := tag.(type) {
	case swf.SetBackgroundColor:
		ctx.SetBackgroundColor(t.Color)
	case swf.DefineShape:
		defineShape(ctx, t)
	case swf.DefineSprite:
		defineSprite(ctx, t, start)
	case swf.DefineButton:
		if !ctx.Library.Contains(t.ID) {
			ctx.Library.Register(&Character{
				Kind:          CharacterButton,
				ID:            t.ID,
				TrackAsMenu:   t.TrackAsMenu,
				ButtonRecords: t.Records,
				ButtonActions: t.Actions,
			})
		}
	case swf.DefineMorphShape:
		if !ctx.Library.Contains(t.ID) {
			m := t
			ctx.Library.Register(&Character{Kind: CharacterMorphShape, ID: t.ID, Bounds: t.StartBounds, Morph: &m})
		}
	case swf.DefineFont:
		if !ctx.Library.Contains(t.ID) {
			f := t
			ctx.Library.Register(&Character{Kind: CharacterFont, ID: t.ID, Font: &f})
		}
	case swf.DefineSound:
		defineSound(ctx, t)
	case swf.PlaceObject:
		n.placeObject(ctx, t)
	case swf.RemoveObject:
		if c := ctx.arena.removeChild(n, Depth(t.Depth)); c != nil {
			ctx.RemoveNode(c)
		}
	case swf.SoundStreamHead:
		if !n.hasAudioStream {
			n.audioStream = ctx.Audio.RegisterStream(t.Info)
			n.hasAudioStream = true
		}
	case swf.SoundStreamBlock:
		if n.hasAudioStream {
			if !n.streamStarted {
				ctx.Audio.StartStream(n.audioStream, n.CharacterID, n.nextFrame)
				n.streamStarted = true
			}
			ctx.Audio.QueueStreamSamples(n.audioStream, t.Data)
		}
	case swf.StartSound:
		startSound(ctx, t)
	case swf.DoAction:
		ctx.QueueAction(Action{Target: n.handle, Kind: ActionNormal, Bytecode: t.Actions})
	case swf.DoInitAction:
		if !ctx.player.initDone[t.ID] {
			ctx.player.initDone[t.ID] = true
			ctx.QueueAction(Action{Target: n.handle, Kind: ActionInit, Bytecode: t.Actions})
		}
	case swf.FrameLabel:
		if n.labels == nil {
			n.labels = make(map[string]uint16)
		}
		n.labels[t.Label] = n.nextFrame
	case swf.Unknown:
		ctx.Log.Debug("unhandled tag", zap.Uint16("code", uint16(t.TagCode)), zap.Int("length", t.Length))
	}
}

func defineShape(ctx *UpdateContext, t swf.DefineShape) {
	if ctx.Library.Contains(t.ID) {
		return
	}
	h := ctx.Renderer.RegisterShape(ShapeDefinition{
		ID:      t.ID,
		Bounds:  t.Bounds,
		Fill:    t.Fill,
		HasFill: t.HasFill,
		Records: t.Records,
	})
	ctx.Library.Register(&Character{Kind: CharacterGraphic, ID: t.ID, Shape: h, Bounds: t.Bounds})
}

// defineSprite indexes a nested timeline without decoding it. The nested
// tags begin after the sprite tag's header and its 4-byte sprite header.
func defineSprite(ctx *UpdateContext, t swf.DefineSprite, start int) {
	if ctx.Library.Contains(t.ID) {
		return
	}
	pos := ctx.Stream.Pos()
	ctx.Stream.SetPos(start)
	_, _, err := ctx.Stream.ReadTagHeader()
	if err == nil {
		err = ctx.Stream.Skip(spriteHeaderSize)
	}
	nested := ctx.Stream.Pos()
	ctx.Stream.SetPos(pos)
	if err != nil {
		ctx.Log.Debug("skipping sprite", zap.Uint16("id", t.ID), zap.Error(err))
		return
	}
	ctx.Library.Register(&Character{Kind: CharacterSprite, ID: t.ID, NumFrames: t.NumFrames, TagStart: nested})
}

func defineSound(ctx *UpdateContext, t swf.DefineSound) {
	if ctx.Library.Contains(t.ID) {
		return
	}
	h, err := ctx.Audio.RegisterSound(t)
	if err != nil {
		ctx.Log.Warn("sound registration failed", zap.Uint16("id", t.ID), zap.Error(err))
		return
	}
	ctx.Library.Register(&Character{Kind: CharacterSound, ID: t.ID, Sound: h})
}

func startSound(ctx *UpdateContext, t swf.StartSound) {
	c, ok := ctx.Library.Character(t.ID)
	if !ok || c.Kind != CharacterSound {
		return
	}
	switch t.Info.Event {
	case swf.SoundEventStop:
		ctx.Audio.StopSoundsWithHandle(c.Sound)
	case swf.SoundEventStartNoMultiple:
		if ctx.Audio.IsSoundPlaying(c.Sound) {
			return
		}
		ctx.Audio.StartSound(c.Sound, t.Info)
	default:
		ctx.Audio.StartSound(c.Sound, t.Info)
	}
}

// --- Placement ---

// placeObject applies the placement protocol for one PlaceObject tag.
func (n *Node) placeObject(ctx *UpdateContext, p swf.PlaceObject) {
	depth := Depth(p.Depth)
	var child *Node
	switch p.Action.Kind {
	case swf.PlaceKindPlace, swf.PlaceKindReplace:
		h, err := ctx.Instantiate(p.Action.ID)
		if err != nil {
			ctx.Log.Debug("placement skipped", zap.Uint16("depth", p.Depth), zap.Error(err))
			return
		}
		child = ctx.Node(h)
		if prev := ctx.Node(ctx.arena.setChild(n, depth, child)); prev != nil {
			if p.Action.Kind == swf.PlaceKindReplace {
				child.Matrix = prev.Matrix
				child.ColorTransform = prev.ColorTransform
			}
			ctx.RemoveNode(prev)
		}
	case swf.PlaceKindModify:
		child = ctx.Node(n.children[depth])
		if child == nil {
			return
		}
	default:
		return
	}

	if p.Matrix != nil {
		child.Matrix = MatrixFromSWF(*p.Matrix)
	}
	if p.ColorTransform != nil {
		child.ColorTransform = ColorTransformFromSWF(*p.ColorTransform)
	}
	if p.Name != nil {
		child.Name = *p.Name
	}
	if p.Ratio != nil {
		child.ratio = *p.Ratio
	}
	if p.ClipActions != nil {
		child.clipActions = p.ClipActions
	}
	if p.Action.Kind != swf.PlaceKindModify {
		child.queueClipEvent(ctx, ClipEvent{Flag: swf.ClipEventLoad}, false)
	}
}

// --- Clip events ---

// clipEventMethods names the script method dispatched for each clip event.
var clipEventMethods = map[swf.ClipEventFlag]string{
	swf.ClipEventLoad:       "onLoad",
	swf.ClipEventEnterFrame: "onEnterFrame",
	swf.ClipEventUnload:     "onUnload",
	swf.ClipEventMouseMove:  "onMouseMove",
	swf.ClipEventMouseDown:  "onMouseDown",
	swf.ClipEventMouseUp:    "onMouseUp",
	swf.ClipEventKeyDown:    "onKeyDown",
	swf.ClipEventKeyUp:      "onKeyUp",
}

// queueClipEvent queues the bytecode of every clip action on n that listens
// for ev, followed by a method action when the interpreter implements it.
// Reports whether anything was queued.
func (n *Node) queueClipEvent(ctx *UpdateContext, ev ClipEvent, unload bool) bool {
	queued := false
	for _, ca := range n.clipActions {
		if ca.Events&ev.Flag == 0 {
			continue
		}
		if ev.Flag == swf.ClipEventKeyPress && ButtonKeyCode(ca.KeyCode) != ev.Key {
			continue
		}
		ctx.QueueAction(Action{Target: n.handle, Kind: ActionNormal, Bytecode: ca.Actions, Unload: unload})
		queued = true
	}
	if name, ok := clipEventMethods[ev.Flag]; ok {
		if mh, ok := ctx.Interpreter.(MethodHandler); ok && mh.HasMethod(ctx, n.handle, name) {
			ctx.QueueAction(Action{Target: n.handle, Kind: ActionMethod, Method: name, Unload: unload})
			queued = true
		}
	}
	return queued
}

// updateFrameNumber commits nextFrame into currentFrame for n and every
// descendant.
func (n *Node) updateFrameNumber(a *Arena) {
	if n.Type == NodeTypeMovieClip {
		n.currentFrame = n.nextFrame
	}
	for _, h := range n.children {
		if c := a.Get(h); c != nil {
			c.updateFrameNumber(a)
		}
	}
}

// --- Frame navigation ---

// GotoFrame jumps n's timeline to frame, clamped to [1, TotalFrames]. Going
// backward clears the display list and replays from the start. Intermediate
// frames are replayed with their frame actions suppressed. stop selects
// whether the timeline keeps playing afterward.
func (n *Node) GotoFrame(ctx *UpdateContext, frame uint16, stop bool) {
	if n.Type != NodeTypeMovieClip {
		return
	}
	switch {
	case frame < 1:
		frame = 1
	case frame > n.totalFrames:
		frame = n.totalFrames
	}
	n.playing = !stop
	played := n.DisplayedFrame()
	if frame == played {
		return
	}
	if frame < played {
		n.rewind(ctx)
	}

	suppressed := ctx.suppressActions
	for n.nextFrame < frame {
		ctx.suppressActions = true
		n.runTagBatch(ctx)
		n.advanceFrame()
	}
	ctx.suppressActions = suppressed
	n.runTagBatch(ctx)
	n.advanceFrame()
	n.currentFrame = n.nextFrame
}

// DisplayedFrame returns the frame whose tags ran most recently, or 0 if
// the timeline has not run yet.
func (n *Node) DisplayedFrame() uint16 {
	if n.Type != NodeTypeMovieClip || n.currentFrame == 0 {
		return 0
	}
	if n.nextFrame == 1 {
		return n.totalFrames
	}
	return n.nextFrame - 1
}

// GotoLabel jumps to the frame carrying label. Reports false if no frame
// has that label.
func (n *Node) GotoLabel(ctx *UpdateContext, label string, stop bool) bool {
	frame, ok := n.FrameForLabel(ctx, label)
	if !ok {
		return false
	}
	n.GotoFrame(ctx, frame, stop)
	return true
}

// FrameForLabel returns the frame number that carries label.
func (n *Node) FrameForLabel(ctx *UpdateContext, label string) (uint16, bool) {
	if !n.labelsScanned {
		n.scanLabels(ctx)
	}
	f, ok := n.labels[label]
	return f, ok
}

func (n *Node) rewind(ctx *UpdateContext) {
	for _, d := range n.ChildDepths() {
		if c := ctx.Node(n.children[d]); c != nil {
			ctx.RemoveNode(c)
		}
	}
	ctx.arena.clearChildren(n)
	n.tagPos = n.tagStart
	n.nextFrame = 1
	n.streamStarted = false
}

// scanLabels walks the whole timeline once and records every frame label
// without running any other tag.
func (n *Node) scanLabels(ctx *UpdateContext) {
	n.labelsScanned = true
	if n.labels == nil {
		n.labels = make(map[string]uint16)
	}
	saved := ctx.Stream.Pos()
	defer ctx.Stream.SetPos(saved)

	ctx.Stream.SetPos(n.tagStart)
	frame := uint16(1)
	for frame <= n.totalFrames {
		start := ctx.Stream.Pos()
		code, length, err := ctx.Stream.ReadTagHeader()
		if err != nil || code == swf.TagEnd {
			return
		}
		switch code {
		case swf.TagShowFrame:
			frame++
		case swf.TagFrameLabel:
			ctx.Stream.SetPos(start)
			tag, err := ctx.Stream.ReadTag()
			if err != nil {
				continue
			}
			if fl, ok := tag.(swf.FrameLabel); ok {
				if _, seen := n.labels[fl.Label]; !seen {
					n.labels[fl.Label] = frame
				}
			}
			continue
		}
		if err := ctx.Stream.Skip(length); err != nil {
			return
		}
	}
}

// --- Rendering ---

// RenderContext carries the render backend and the transform stack through
// a render traversal.
type RenderContext struct {
	Renderer   RenderBackend
	Library    *Library
	Transforms *TransformStack

	arena *Arena
}

// render draws n and its children in ascending depth order.
func (n *Node) render(ctx *RenderContext) {
	ctx.Transforms.Push(Transform{Matrix: n.Matrix, ColorTransform: n.ColorTransform})
	switch n.Type {
	case NodeTypeGraphic:
		ctx.Renderer.RenderShape(n.character.Shape, ctx.Transforms.Top())
	case NodeTypeMorphShape:
		h := ctx.Library.morphShape(ctx.Renderer, n.character, n.ratio)
		ctx.Renderer.RenderShape(h, ctx.Transforms.Top())
	}
	for _, d := range n.ChildDepths() {
		if c := ctx.arena.Get(n.children[d]); c != nil {
			c.render(ctx)
		}
	}
	ctx.Transforms.Pop()
}
