package marquee

import "github.com/phanxgames/marquee/swf"

// Node is a display object in the scene graph. A single flat struct is used
// for every node type; Type selects which field group is meaningful.
//
// Nodes live in the Arena and refer to each other by Handle. The parent
// handle is a non-owning back reference; reachability from the GCRoot
// decides when a node is reclaimed.
type Node struct {
	// Identity
	handle      Handle
	Name        string
	Type        NodeType
	CharacterID swf.CharacterID

	// Hierarchy
	parent   Handle
	depth    Depth
	children map[Depth]Handle
	removed  bool

	// Transform (local, twips)
	Matrix         Matrix
	ColorTransform ColorTransform

	// Clip event handlers from the placing tag.
	clipActions []swf.ClipAction

	// Timeline (NodeTypeMovieClip)
	tagStart       int
	tagPos         int
	currentFrame   uint16
	nextFrame      uint16
	totalFrames    uint16
	playing        bool
	audioStream    AudioStreamHandle
	hasAudioStream bool
	streamStarted  bool
	labels         map[string]uint16
	labelsScanned  bool

	// Template (NodeTypeGraphic, NodeTypeButton, NodeTypeMorphShape)
	character *Character

	// NodeTypeMorphShape
	ratio uint16

	// NodeTypeButton
	buttonState ButtonState

	// Internal
	childrenSorted bool
	sortedDepths   []Depth // reused buffer for depth-ordered traversal
}

func nodeDefaults(n *Node) {
	n.Matrix = identityTransform
	n.ColorTransform = IdentityColorTransform()
	n.children = make(map[Depth]Handle)
	n.childrenSorted = true
}

// newMovieClip creates a timeline whose tags start at tagStart.
func newMovieClip(tagStart int, totalFrames uint16) *Node {
	n := &Node{Type: NodeTypeMovieClip}
	nodeDefaults(n)
	if totalFrames == 0 {
		totalFrames = 1
	}
	n.tagStart = tagStart
	n.tagPos = tagStart
	n.nextFrame = 1
	n.totalFrames = totalFrames
	n.playing = true
	return n
}

func newGraphic(c *Character) *Node {
	n := &Node{Type: NodeTypeGraphic, character: c}
	nodeDefaults(n)
	return n
}

func newButton(c *Character) *Node {
	n := &Node{Type: NodeTypeButton, character: c, buttonState: ButtonStateUp}
	nodeDefaults(n)
	return n
}

func newMorphShape(c *Character) *Node {
	n := &Node{Type: NodeTypeMorphShape, character: c}
	nodeDefaults(n)
	return n
}

// --- Accessors ---

// Handle returns the node's arena handle.
func (n *Node) Handle() Handle { return n.handle }

// Parent returns the parent handle, or NoHandle for the root.
func (n *Node) Parent() Handle { return n.parent }

// Depth returns the node's depth within its parent.
func (n *Node) Depth() Depth { return n.depth }

// Removed reports whether the node has been taken off the display list.
func (n *Node) Removed() bool { return n.removed }

// Child returns the child at depth.
func (n *Node) Child(depth Depth) (Handle, bool) {
	h, ok := n.children[depth]
	return h, ok
}

// NumChildren returns the number of occupied depths.
func (n *Node) NumChildren() int { return len(n.children) }

// ChildDepths returns the occupied depths in ascending order. The returned
// slice MUST NOT be mutated by the caller.
func (n *Node) ChildDepths() []Depth {
	if !n.childrenSorted {
		n.rebuildSortedDepths()
	}
	return n.sortedDepths
}

// rebuildSortedDepths refreshes the depth-ordered traversal buffer.
// Uses insertion sort: children usually arrive nearly sorted.
func (n *Node) rebuildSortedDepths() {
	n.sortedDepths = n.sortedDepths[:0]
	for d := range n.children {
		n.sortedDepths = append(n.sortedDepths, d)
	}
	for i := 1; i < len(n.sortedDepths); i++ {
		key := n.sortedDepths[i]
		j := i - 1
		for j >= 0 && n.sortedDepths[j] > key {
			n.sortedDepths[j+1] = n.sortedDepths[j]
			j--
		}
		n.sortedDepths[j+1] = key
	}
	n.childrenSorted = true
}

// CurrentFrame returns the committed frame number.
func (n *Node) CurrentFrame() uint16 { return n.currentFrame }

// NextFrame returns the frame whose tags run on the next step.
func (n *Node) NextFrame() uint16 { return n.nextFrame }

// TotalFrames returns the timeline length.
func (n *Node) TotalFrames() uint16 { return n.totalFrames }

// IsPlaying reports whether the timeline advances on each step.
func (n *Node) IsPlaying() bool { return n.playing }

// Play resumes timeline playback.
func (n *Node) Play() { n.playing = true }

// Stop halts timeline playback. Children keep running.
func (n *Node) Stop() { n.playing = false }

// TagPos returns the persisted tag stream offset.
func (n *Node) TagPos() int { return n.tagPos }

// TagStart returns the offset where this timeline's tags begin.
func (n *Node) TagStart() int { return n.tagStart }

// Ratio returns the morph ratio.
func (n *Node) Ratio() uint16 { return n.ratio }

// ButtonState returns the button's visual state.
func (n *Node) ButtonState() ButtonState { return n.buttonState }

// Character returns the template this node was instantiated from, if kept.
func (n *Node) Character() *Character { return n.character }

// X returns the local x position in twips.
func (n *Node) X() float64 { return n.Matrix[4] }

// Y returns the local y position in twips.
func (n *Node) Y() float64 { return n.Matrix[5] }

// SetPosition sets the local translation in twips.
func (n *Node) SetPosition(x, y float64) {
	n.Matrix[4] = x
	n.Matrix[5] = y
}

// --- Tree manipulation ---

// setChild stores child at depth under parent and returns the previous
// occupant's handle, if any. Both new edges pass the write barrier.
func (a *Arena) setChild(parent *Node, depth Depth, child *Node) Handle {
	prev := parent.children[depth]
	parent.children[depth] = child.handle
	parent.childrenSorted = false
	child.parent = parent.handle
	child.depth = depth
	a.barrier(child.handle)
	a.barrier(parent.handle)
	return prev
}

// removeChild deletes the entry at depth and returns the former occupant,
// which is still in the arena until collected.
func (a *Arena) removeChild(parent *Node, depth Depth) *Node {
	h, ok := parent.children[depth]
	if !ok {
		return nil
	}
	delete(parent.children, depth)
	parent.childrenSorted = false
	return a.Get(h)
}

// markRemoved flags n and its whole subtree as off the display list.
func (a *Arena) markRemoved(n *Node) {
	n.removed = true
	for _, h := range n.children {
		if c := a.Get(h); c != nil {
			a.markRemoved(c)
		}
	}
}

// clearChildren removes every child of n.
func (a *Arena) clearChildren(n *Node) {
	for d, h := range n.children {
		if c := a.Get(h); c != nil {
			a.markRemoved(c)
		}
		delete(n.children, d)
	}
	n.childrenSorted = false
}

// worldMatrix returns the concatenation of n's matrix with all its ancestors'.
func (a *Arena) worldMatrix(n *Node) Matrix {
	m := n.Matrix
	for p := a.Get(n.parent); p != nil; p = a.Get(p.parent) {
		m = multiplyAffine(p.Matrix, m)
	}
	return m
}

// globalToLocal converts a stage point into n's local space.
func (a *Arena) globalToLocal(n *Node, x, y float64) (float64, float64) {
	return transformPoint(invertAffine(a.worldMatrix(n)), x, y)
}

// localToGlobal converts a point in n's local space to stage space.
func (a *Arena) localToGlobal(n *Node, x, y float64) (float64, float64) {
	return transformPoint(a.worldMatrix(n), x, y)
}
