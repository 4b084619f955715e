package marquee

import "github.com/phanxgames/marquee/swf"

// setButtonState rebuilds n's children from the records visible in state.
func (l *Library) setButtonState(a *Arena, n *Node, state ButtonState) {
	a.clearChildren(n)
	n.buttonState = state
	flag := state.recordFlag()
	for _, rec := range n.character.ButtonRecords {
		if rec.States&flag == 0 {
			continue
		}
		h, err := l.Instantiate(a, rec.ID)
		if err != nil {
			continue
		}
		child := a.Get(h)
		child.Matrix = MatrixFromSWF(rec.Matrix)
		child.ColorTransform = ColorTransformFromSWF(rec.ColorTransform)
		a.setChild(n, Depth(rec.Depth), child)
	}
}

// buttonTransitions maps a button event to the state it leads to and the
// condition whose actions fire.
var buttonTransitions = map[ButtonEventType]struct {
	state ButtonState
	cond  swf.ButtonCondition
}{
	ButtonEventRollOver: {ButtonStateOver, swf.ButtonIdleToOverUp},
	ButtonEventRollOut:  {ButtonStateUp, swf.ButtonOverUpToIdle},
	ButtonEventPress:    {ButtonStateDown, swf.ButtonOverUpToOverDown},
	ButtonEventRelease:  {ButtonStateOver, swf.ButtonOverDownToOverUp},
}

// handleButtonEvent runs the button state machine for ev. Matching actions
// are queued against the timeline that contains the button. Reports whether
// the event was consumed.
func (n *Node) handleButtonEvent(ctx *UpdateContext, ev ButtonEvent) bool {
	if n.Type != NodeTypeButton || n.removed {
		return false
	}
	if ev.Type == ButtonEventKeyPress {
		handled := false
		for _, ba := range n.character.ButtonActions {
			if ba.KeyCode != 0 && ButtonKeyCode(ba.KeyCode) == ev.Key {
				ctx.QueueAction(Action{Target: n.parent, Kind: ActionNormal, Bytecode: ba.Actions})
				handled = true
			}
		}
		if handled {
			ctx.emitInteraction(n, ev)
		}
		return handled
	}

	tr, ok := buttonTransitions[ev.Type]
	if !ok {
		return false
	}
	if tr.state != n.buttonState {
		ctx.Library.setButtonState(ctx.arena, n, tr.state)
	}
	for _, ba := range n.character.ButtonActions {
		if ba.Conditions&tr.cond != 0 {
			ctx.QueueAction(Action{Target: n.parent, Kind: ActionNormal, Bytecode: ba.Actions})
		}
	}
	ctx.emitInteraction(n, ev)
	return true
}

// hitTest reports whether the stage point (x, y) lies inside one of the
// button's hit-test records.
func (n *Node) hitTest(ctx *UpdateContext, x, y float64) bool {
	if n.Type != NodeTypeButton {
		return false
	}
	world := ctx.arena.worldMatrix(n)
	for _, rec := range n.character.ButtonRecords {
		if rec.States&swf.ButtonStateHitTest == 0 {
			continue
		}
		c, ok := ctx.Library.Character(rec.ID)
		if !ok {
			continue
		}
		m := multiplyAffine(world, MatrixFromSWF(rec.Matrix))
		lx, ly := transformPoint(invertAffine(m), x, y)
		if RectFromSWF(c.Bounds).Contains(lx, ly) {
			return true
		}
	}
	return false
}

// --- Traversal ---

// mousePick returns the topmost button under the stage point (x, y), or
// NoHandle. Children are tested from the highest depth down.
func (ctx *UpdateContext) mousePick(n *Node, x, y float64) Handle {
	if n.Type == NodeTypeButton {
		if n.hitTest(ctx, x, y) {
			return n.handle
		}
		return NoHandle
	}
	depths := n.ChildDepths()
	for i := len(depths) - 1; i >= 0; i-- {
		c := ctx.Node(n.children[depths[i]])
		if c == nil {
			continue
		}
		if h := ctx.mousePick(c, x, y); h != NoHandle {
			return h
		}
	}
	return NoHandle
}

// propagateButtonEvent delivers ev to every button under n in depth order
// and reports whether any consumed it.
func (ctx *UpdateContext) propagateButtonEvent(n *Node, ev ButtonEvent) bool {
	if n.Type == NodeTypeButton {
		return n.handleButtonEvent(ctx, ev)
	}
	handled := false
	for _, h := range ctx.childHandles(n) {
		if c := ctx.Node(h); c != nil && ctx.propagateButtonEvent(c, ev) {
			handled = true
		}
	}
	return handled
}

// propagateClipEvent offers ev to n and every descendant in depth order.
func (ctx *UpdateContext) propagateClipEvent(n *Node, ev ClipEvent) {
	if n.Type == NodeTypeMovieClip {
		n.queueClipEvent(ctx, ev, false)
	}
	for _, h := range ctx.childHandles(n) {
		if c := ctx.Node(h); c != nil {
			ctx.propagateClipEvent(c, ev)
		}
	}
}

// childHandles snapshots n's children in depth order. Event handlers may
// rebuild a button's children while the traversal is still running.
func (ctx *UpdateContext) childHandles(n *Node) []Handle {
	depths := n.ChildDepths()
	hs := make([]Handle, 0, len(depths))
	for _, d := range depths {
		hs = append(hs, n.children[d])
	}
	return hs
}
