package marquee

import (
	"strings"

	"go.uber.org/zap"

	"github.com/phanxgames/marquee/swf"
)

// TagStream is the decoded tag sequence the timeline interpreter reads. The
// cursor is a byte offset into a shared, immutable buffer.
type TagStream interface {
	Pos() int
	SetPos(pos int)
	ReadTag() (swf.Tag, error)
	ReadTagHeader() (swf.TagCode, int, error)
	Skip(n int) error
}

// UpdateContext is assembled for the duration of one mutation. It gives
// timeline code, input dispatch and script interpreters simultaneous access
// to the root data and the player's backends.
type UpdateContext struct {
	*GCRoot

	Stream     TagStream
	Audio      AudioBackend
	Renderer   RenderBackend
	Navigator  NavigatorBackend
	Log        *zap.Logger
	SwfVersion uint8

	arena  *Arena
	player *Player

	// suppressActions drops frame actions while a goto fast-forwards.
	suppressActions bool
}

// Node resolves h, returning nil for zero or stale handles.
func (ctx *UpdateContext) Node(h Handle) *Node {
	return ctx.arena.Get(h)
}

// RootNode returns the root clip.
func (ctx *UpdateContext) RootNode() *Node {
	return ctx.arena.Get(ctx.Root)
}

// Instantiate creates a node from the library template id.
func (ctx *UpdateContext) Instantiate(id swf.CharacterID) (Handle, error) {
	return ctx.Library.Instantiate(ctx.arena, id)
}

// QueueAction appends a to the action queue.
func (ctx *UpdateContext) QueueAction(a Action) {
	if ctx.suppressActions && !a.Unload {
		return
	}
	ctx.Queue.Queue(a)
}

// RunActions drains the action queue to empty, including actions queued by
// the actions it runs. Actions whose target left the display list are
// skipped unless they are unload actions. Interpreter errors are logged.
func (ctx *UpdateContext) RunActions() {
	for {
		a, ok := ctx.Queue.Pop()
		if !ok {
			return
		}
		n := ctx.Node(a.Target)
		if !a.Unload && (n == nil || n.removed) {
			ctx.Log.Debug("skipping action for removed target",
				zap.Stringer("kind", a.Kind), zap.Uint64("target", uint64(a.Target)))
			continue
		}
		if err := ctx.Interpreter.Run(ctx, a); err != nil {
			ctx.Log.Warn("action failed",
				zap.Stringer("kind", a.Kind), zap.Uint64("target", uint64(a.Target)), zap.Error(err))
		}
	}
}

// RemoveNode takes n and its subtree off the display list. Unload handlers
// are queued and streaming sounds stop. The caller is responsible for
// deleting the parent's depth entry.
func (ctx *UpdateContext) RemoveNode(n *Node) {
	ctx.arena.markRemoved(n)
	ctx.unloadSubtree(n)
}

func (ctx *UpdateContext) unloadSubtree(n *Node) {
	if n.hasAudioStream {
		ctx.Audio.StopStream(n.audioStream)
	}
	n.queueClipEvent(ctx, ClipEvent{Flag: swf.ClipEventUnload}, true)
	for _, d := range n.ChildDepths() {
		if c := ctx.Node(n.children[d]); c != nil {
			ctx.unloadSubtree(c)
		}
	}
}

// MousePosition returns the mouse position in stage twips.
func (ctx *UpdateContext) MousePosition() Vec2 {
	return ctx.player.mousePos
}

// SetBackgroundColor sets the stage clear color.
func (ctx *UpdateContext) SetBackgroundColor(c Color) {
	ctx.player.background = c
}

// StageSize returns the movie's stage size in twips.
func (ctx *UpdateContext) StageSize() Vec2 {
	s := ctx.player.movie.Header.StageSize
	return Vec2{X: float64(s.Width()), Y: float64(s.Height())}
}

// StartDrag begins dragging target. With lockCenter the target's origin
// snaps to the mouse; otherwise the current offset is kept. constraint, in
// the parent's space, may be nil.
func (ctx *UpdateContext) StartDrag(target Handle, lockCenter bool, constraint *Rect) {
	n := ctx.Node(target)
	if n == nil {
		return
	}
	var offset Vec2
	if !lockCenter {
		mouse := ctx.MousePosition()
		x, y := n.X(), n.Y()
		if p := ctx.Node(n.parent); p != nil {
			x, y = ctx.arena.localToGlobal(p, x, y)
		}
		offset = Vec2{X: x - mouse.X, Y: y - mouse.Y}
	}
	ctx.Drag = &DragObject{Target: target, Offset: offset, Constraint: constraint}
}

// StopDrag ends any active drag.
func (ctx *UpdateContext) StopDrag() {
	ctx.Drag = nil
}

// GlobalToLocal converts a stage point into n's local space.
func (ctx *UpdateContext) GlobalToLocal(n *Node, x, y float64) (float64, float64) {
	return ctx.arena.globalToLocal(n, x, y)
}

// LocalToGlobal converts a point in n's local space to stage space.
func (ctx *UpdateContext) LocalToGlobal(n *Node, x, y float64) (float64, float64) {
	return ctx.arena.localToGlobal(n, x, y)
}

// NavigateToURL forwards a navigation request to the navigator backend.
func (ctx *UpdateContext) NavigateToURL(url, target string) {
	ctx.Navigator.NavigateToURL(url, target)
}

// ResolvePath resolves a target path relative to base. Both slash
// ("/clip/child", "../sibling") and dot ("_root.clip", "_parent.x") forms
// are accepted. Returns NoHandle if any segment does not resolve.
func (ctx *UpdateContext) ResolvePath(base Handle, path string) Handle {
	if path == "" {
		return base
	}
	cur := base
	if strings.HasPrefix(path, "/") {
		cur = ctx.Root
		path = strings.TrimLeft(path, "/")
	}
	for _, seg := range strings.Split(path, "/") {
		for _, part := range splitDotted(seg) {
			n := ctx.Node(cur)
			if n == nil {
				return NoHandle
			}
			switch part {
			case "", ".":
			case "..", "_parent":
				cur = n.parent
			case "_root", "_level0":
				cur = ctx.Root
			default:
				cur = ctx.childByName(n, part)
			}
			if cur == NoHandle {
				return NoHandle
			}
		}
	}
	return cur
}

// splitDotted splits "a.b.c" into segments, keeping ".." intact.
func splitDotted(seg string) []string {
	if seg == ".." || seg == "." {
		return []string{seg}
	}
	return strings.Split(seg, ".")
}

func (ctx *UpdateContext) childByName(n *Node, name string) Handle {
	for _, d := range n.ChildDepths() {
		h := n.children[d]
		if c := ctx.Node(h); c != nil && strings.EqualFold(c.Name, name) {
			return h
		}
	}
	return NoHandle
}
