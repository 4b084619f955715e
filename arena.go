package marquee

import (
	"errors"
	"math"
)

// ErrReentrantMutation is the panic value raised when Mutate or a collection
// entry point is called while a mutation is already running.
var ErrReentrantMutation = errors.New("marquee: reentrant arena mutation")

// Handle is a non-owning reference to a node in the Arena. The low 32 bits
// are the slot index, the high 32 bits the slot generation. Generations start
// at 1, so the zero Handle never refers to a node.
type Handle uint64

// NoHandle is the zero Handle.
const NoHandle Handle = 0

func makeHandle(index, gen uint32) Handle {
	return Handle(uint64(gen)<<32 | uint64(index))
}

func (h Handle) index() uint32 { return uint32(h) }
func (h Handle) gen() uint32   { return uint32(h >> 32) }

// IsValid reports whether h is non-zero. A valid handle may still be stale.
func (h Handle) IsValid() bool { return h != NoHandle }

// ArenaParameters tune the incremental collector.
type ArenaParameters struct {
	// PauseFactor sets how long the collector sleeps after a cycle, as a
	// fraction of the nodes that survived it.
	PauseFactor float64
	// TimingFactor is the units of collection work done per unit of debt.
	TimingFactor float64
	// MinSleep is the minimum number of allocations between cycles.
	MinSleep int
	// FrameDebt is added on every CollectDebt call so that a cycle in
	// progress keeps moving even when nothing is allocated.
	FrameDebt float64
}

// DefaultArenaParameters returns the collector defaults.
func DefaultArenaParameters() ArenaParameters {
	return ArenaParameters{
		PauseFactor:  0.5,
		TimingFactor: 1.5,
		MinSleep:     64,
		FrameDebt:    16,
	}
}

type gcPhase uint8

const (
	phaseSleep gcPhase = iota
	phasePropagate
	phaseSweep
)

func (p gcPhase) String() string {
	switch p {
	case phasePropagate:
		return "propagate"
	case phaseSweep:
		return "sweep"
	}
	return "sleep"
}

type slot struct {
	node   *Node
	gen    uint32
	live   bool
	marked bool // gray or black during a cycle
}

// GCRoot is the single structure the collector traces from. It owns the
// library, the root clip and the interaction state that must survive
// between frames.
type GCRoot struct {
	Library     *Library
	Root        Handle
	Hovered     Handle
	Drag        *DragObject
	Interpreter ScriptInterpreter
	Queue       *ActionQueue
}

// HandleTracer is implemented by script interpreters that hold node handles
// across actions. The collector treats every reported handle as a root.
type HandleTracer interface {
	TraceHandles(mark func(Handle))
}

// Arena owns every node of the scene graph and reclaims unreachable ones with
// an incremental mark and sweep collector. Parent and child handles form
// cycles; reachability from the GCRoot alone decides what survives.
type Arena struct {
	slots []slot
	free  []uint32
	root  GCRoot

	phase  gcPhase
	gray   []Handle
	cursor int // next slot to sweep

	params       ArenaParameters
	debt         float64
	allocated    int // allocations since the last cycle ended
	liveAtSleep  int
	live         int
	cycles       int
	lastFreed    int
	mutating     bool
	collecting   bool
	freedInCycle int
}

// NewArena returns an empty arena whose root data is built by init. init may
// allocate nodes; they are reachable only through the returned root.
func NewArena(params ArenaParameters, init func(a *Arena) GCRoot) *Arena {
	a := &Arena{params: params}
	a.mutating = true
	a.root = init(a)
	a.mutating = false
	return a
}

// Mutate runs fn with exclusive access to the root data. It is the only way
// to change engine state. Calling Mutate from inside fn panics with
// ErrReentrantMutation.
func (a *Arena) Mutate(fn func(root *GCRoot)) {
	if a.mutating || a.collecting {
		panic(ErrReentrantMutation)
	}
	a.mutating = true
	defer func() { a.mutating = false }()
	fn(&a.root)
}

// Mutating reports whether a mutation is in progress.
func (a *Arena) Mutating() bool { return a.mutating }

// Allocate stores n in a fresh slot and returns its handle. Allocation adds
// collector debt. New nodes are allocated black while marking and are
// protected from the in-progress sweep.
func (a *Arena) Allocate(n *Node) Handle {
	var idx uint32
	if len(a.free) > 0 {
		idx = a.free[len(a.free)-1]
		a.free = a.free[:len(a.free)-1]
	} else {
		if uint64(len(a.slots)) >= math.MaxUint32 {
			panic("marquee: arena exhausted")
		}
		idx = uint32(len(a.slots))
		a.slots = append(a.slots, slot{})
	}
	s := &a.slots[idx]
	s.gen++
	if s.gen == 0 {
		s.gen = 1
	}
	s.node = n
	s.live = true
	switch a.phase {
	case phasePropagate:
		s.marked = true
	case phaseSweep:
		s.marked = int(idx) >= a.cursor
	default:
		s.marked = false
	}
	h := makeHandle(idx, s.gen)
	n.handle = h
	a.live++
	a.allocated++
	a.debt++
	return h
}

// Get returns the node for h, or nil if h is zero or stale.
func (a *Arena) Get(h Handle) *Node {
	if h == NoHandle {
		return nil
	}
	idx := h.index()
	if int(idx) >= len(a.slots) {
		return nil
	}
	s := &a.slots[idx]
	if !s.live || s.gen != h.gen() {
		return nil
	}
	return s.node
}

// Live returns the number of nodes currently held.
func (a *Arena) Live() int { return a.live }

// Cycles returns the number of completed collection cycles.
func (a *Arena) Cycles() int { return a.cycles }

// LastFreed returns how many nodes the last completed cycle reclaimed.
func (a *Arena) LastFreed() int { return a.lastFreed }

// barrier shades h gray when a new edge to it is stored during marking.
func (a *Arena) barrier(h Handle) {
	if a.phase != phasePropagate {
		return
	}
	a.shade(h)
}

func (a *Arena) shade(h Handle) {
	if a.Get(h) == nil {
		return
	}
	s := &a.slots[h.index()]
	if s.marked {
		return
	}
	s.marked = true
	a.gray = append(a.gray, h)
}

func (a *Arena) traceRoots() {
	r := &a.root
	a.shade(r.Root)
	a.shade(r.Hovered)
	if r.Drag != nil {
		a.shade(r.Drag.Target)
	}
	if r.Queue != nil {
		r.Queue.each(func(act *Action) { a.shade(act.Target) })
	}
	if t, ok := r.Interpreter.(HandleTracer); ok {
		t.TraceHandles(a.shade)
	}
}

// traceNode shades everything n refers to and returns the work spent.
func (a *Arena) traceNode(n *Node) int {
	work := 1
	a.shade(n.parent)
	for _, c := range n.children {
		a.shade(c)
		work++
	}
	return work
}

// CollectDebt performs collection work proportional to the debt accumulated
// since the last call. It must not be called during a mutation.
func (a *Arena) CollectDebt() {
	if a.mutating {
		panic(ErrReentrantMutation)
	}
	a.debt += a.params.FrameDebt
	if a.phase == phaseSleep {
		threshold := int(float64(a.liveAtSleep) * a.params.PauseFactor)
		if threshold < a.params.MinSleep {
			threshold = a.params.MinSleep
		}
		if a.allocated < threshold {
			a.debt = 0
			return
		}
		a.startCycle()
	}
	budget := a.debt * a.params.TimingFactor
	a.debt = 0
	a.work(budget)
}

// CollectAll finishes any cycle in progress and then runs one complete
// cycle, reclaiming every node unreachable from the root.
func (a *Arena) CollectAll() {
	if a.mutating {
		panic(ErrReentrantMutation)
	}
	if a.phase != phaseSleep {
		a.work(math.Inf(1))
	}
	a.startCycle()
	a.work(math.Inf(1))
	a.debt = 0
}

func (a *Arena) startCycle() {
	a.phase = phasePropagate
	a.gray = a.gray[:0]
	a.freedInCycle = 0
	a.traceRoots()
}

// work advances the collector by up to budget units.
func (a *Arena) work(budget float64) {
	a.collecting = true
	defer func() { a.collecting = false }()

	for budget > 0 && a.phase != phaseSleep {
		switch a.phase {
		case phasePropagate:
			if len(a.gray) == 0 {
				// Roots may have changed since the cycle began. Rescan them
				// and finish marking without yielding.
				a.traceRoots()
				for len(a.gray) > 0 {
					budget -= float64(a.propagateOne())
				}
				a.phase = phaseSweep
				a.cursor = 0
				continue
			}
			budget -= float64(a.propagateOne())
		case phaseSweep:
			if a.cursor >= len(a.slots) {
				a.finishCycle()
				continue
			}
			a.sweepOne()
			budget--
		}
	}
}

func (a *Arena) propagateOne() int {
	h := a.gray[len(a.gray)-1]
	a.gray = a.gray[:len(a.gray)-1]
	n := a.Get(h)
	if n == nil {
		return 1
	}
	return a.traceNode(n)
}

func (a *Arena) sweepOne() {
	idx := a.cursor
	a.cursor++
	s := &a.slots[idx]
	if !s.live {
		return
	}
	if s.marked {
		s.marked = false
		return
	}
	s.node.handle = NoHandle
	s.node = nil
	s.live = false
	a.free = append(a.free, uint32(idx))
	a.live--
	a.freedInCycle++
}

func (a *Arena) finishCycle() {
	a.phase = phaseSleep
	a.cursor = 0
	a.allocated = 0
	a.liveAtSleep = a.live
	a.lastFreed = a.freedInCycle
	a.cycles++
}
