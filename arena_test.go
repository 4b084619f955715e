package marquee

import (
	"errors"
	"math"
	"testing"
)

func newTestArena(params ArenaParameters) *Arena {
	return NewArena(params, func(a *Arena) GCRoot {
		return GCRoot{
			Library: NewLibrary(),
			Root:    a.Allocate(newMovieClip(0, 1)),
			Queue:   NewActionQueue(),
		}
	})
}

// allocate runs one mutation that allocates a fresh clip and returns it.
func allocate(a *Arena) *Node {
	var n *Node
	a.Mutate(func(*GCRoot) {
		n = a.Get(a.Allocate(newMovieClip(0, 1)))
	})
	return n
}

// arenaRoot returns the root node. Only call it inside a mutation.
func arenaRoot(a *Arena) *Node { return a.Get(a.root.Root) }

func expectPanic(t *testing.T, want error, fn func()) {
	t.Helper()
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic")
		}
		err, ok := r.(error)
		if !ok || !errors.Is(err, want) {
			t.Fatalf("panic = %v, want %v", r, want)
		}
	}()
	fn()
}

func TestArenaAllocateAndGet(t *testing.T) {
	a := newTestArena(DefaultArenaParameters())
	if a.Live() != 1 {
		t.Fatalf("Live = %d, want 1 (root)", a.Live())
	}
	n := allocate(a)
	if n.Handle() == NoHandle {
		t.Fatal("allocated node has no handle")
	}
	if got := a.Get(n.Handle()); got != n {
		t.Errorf("Get = %p, want %p", got, n)
	}
	if a.Get(NoHandle) != nil {
		t.Error("Get(NoHandle) should be nil")
	}
	if a.Live() != 2 {
		t.Errorf("Live = %d, want 2", a.Live())
	}
}

func TestArenaCollectsDetachedCycle(t *testing.T) {
	a := newTestArena(DefaultArenaParameters())
	var x, y Handle
	a.Mutate(func(*GCRoot) {
		xn := a.Get(a.Allocate(newMovieClip(0, 1)))
		yn := a.Get(a.Allocate(newMovieClip(0, 1)))
		a.setChild(xn, 1, yn)
		a.setChild(yn, 1, xn)
		x, y = xn.Handle(), yn.Handle()
	})
	kept := allocate(a)
	a.Mutate(func(*GCRoot) { a.setChild(arenaRoot(a), 1, kept) })

	a.CollectAll()

	if a.Get(x) != nil || a.Get(y) != nil {
		t.Error("unreachable cycle should be collected")
	}
	if a.Get(kept.Handle()) != kept {
		t.Error("reachable child should survive")
	}
	if a.Live() != 2 {
		t.Errorf("Live = %d, want 2", a.Live())
	}
	if a.LastFreed() != 2 {
		t.Errorf("LastFreed = %d, want 2", a.LastFreed())
	}
	if a.Cycles() != 1 {
		t.Errorf("Cycles = %d, want 1", a.Cycles())
	}
}

func TestArenaStaleHandleAfterReuse(t *testing.T) {
	a := newTestArena(DefaultArenaParameters())
	old := allocate(a).Handle()
	a.CollectAll()
	if a.Get(old) != nil {
		t.Fatal("collected handle should be stale")
	}
	fresh := allocate(a).Handle()
	if fresh.index() != old.index() {
		t.Fatalf("slot %d not reused (got %d)", old.index(), fresh.index())
	}
	if a.Get(old) != nil {
		t.Error("old handle must not resolve to the slot's new occupant")
	}
	if a.Get(fresh) == nil {
		t.Error("fresh handle should resolve")
	}
}

func TestArenaReentrantMutationPanics(t *testing.T) {
	a := newTestArena(DefaultArenaParameters())
	expectPanic(t, ErrReentrantMutation, func() {
		a.Mutate(func(*GCRoot) {
			a.Mutate(func(*GCRoot) {})
		})
	})
	if a.Mutating() {
		t.Error("Mutating should be reset after the panic unwinds")
	}
	expectPanic(t, ErrReentrantMutation, func() {
		a.Mutate(func(*GCRoot) { a.CollectDebt() })
	})
	expectPanic(t, ErrReentrantMutation, func() {
		a.Mutate(func(*GCRoot) { a.CollectAll() })
	})
}

func TestArenaWriteBarrierDuringMarking(t *testing.T) {
	a := newTestArena(DefaultArenaParameters())
	late := allocate(a)

	// Mark everything reachable so the root is already black.
	a.startCycle()
	for len(a.gray) > 0 {
		a.propagateOne()
	}
	if a.phase != phasePropagate {
		t.Fatalf("phase = %v, want propagate", a.phase)
	}

	a.Mutate(func(r *GCRoot) {
		a.setChild(a.Get(r.Root), 3, late)
	})
	a.work(math.Inf(1))

	if a.phase != phaseSleep {
		t.Fatalf("phase = %v, want sleep", a.phase)
	}
	if a.Get(late.Handle()) != late {
		t.Error("node linked during marking was swept")
	}
}

func TestArenaAllocatedDuringCycleSurvives(t *testing.T) {
	a := newTestArena(DefaultArenaParameters())
	a.startCycle()
	n := allocate(a)
	a.work(math.Inf(1))
	if a.Get(n.Handle()) != n {
		t.Error("node allocated during marking should survive the cycle")
	}
	a.CollectAll()
	if a.Get(n.Handle()) != nil {
		t.Error("unreachable node should be collected by the next cycle")
	}
}

func TestArenaQueuedTargetsAreRooted(t *testing.T) {
	a := newTestArena(DefaultArenaParameters())
	n := allocate(a)
	h := n.Handle()
	a.Mutate(func(r *GCRoot) {
		r.Queue.Queue(Action{Target: h, Kind: ActionNormal, Unload: true})
	})
	a.CollectAll()
	if a.Get(h) == nil {
		t.Fatal("queued action target was collected")
	}

	a.Mutate(func(r *GCRoot) { r.Queue.Pop() })
	a.CollectAll()
	if a.Get(h) != nil {
		t.Error("target should be collected once the action is drained")
	}
}

func TestArenaDragAndHoverAreRooted(t *testing.T) {
	a := newTestArena(DefaultArenaParameters())
	dragged := allocate(a).Handle()
	hovered := allocate(a).Handle()
	a.Mutate(func(r *GCRoot) {
		r.Drag = &DragObject{Target: dragged}
		r.Hovered = hovered
	})
	a.CollectAll()
	if a.Get(dragged) == nil || a.Get(hovered) == nil {
		t.Error("drag target and hovered button must survive collection")
	}
}

type handleHolder struct{ held []Handle }

func (h *handleHolder) Run(*UpdateContext, Action) error { return nil }

func (h *handleHolder) TraceHandles(mark func(Handle)) {
	for _, x := range h.held {
		mark(x)
	}
}

func TestArenaInterpreterHandlesAreRooted(t *testing.T) {
	holder := &handleHolder{}
	a := NewArena(DefaultArenaParameters(), func(a *Arena) GCRoot {
		return GCRoot{
			Library:     NewLibrary(),
			Root:        a.Allocate(newMovieClip(0, 1)),
			Queue:       NewActionQueue(),
			Interpreter: holder,
		}
	})
	n := allocate(a)
	holder.held = append(holder.held, n.Handle())
	a.CollectAll()
	if a.Get(n.Handle()) != n {
		t.Error("handle held by the interpreter was collected")
	}
}

func TestArenaCollectDebtIsIncremental(t *testing.T) {
	params := DefaultArenaParameters()
	params.MinSleep = 4
	params.FrameDebt = 1
	params.TimingFactor = 1
	a := newTestArena(params)

	a.CollectDebt()
	if a.Cycles() != 0 || a.phase != phaseSleep {
		t.Fatalf("collector woke without enough allocation: cycles %d phase %v", a.Cycles(), a.phase)
	}

	for i := 0; i < 10; i++ {
		allocate(a)
	}
	a.CollectDebt()
	if a.Cycles() != 0 {
		t.Fatal("one debt payment should not finish a cycle over 11 slots")
	}
	for i := 0; i < 100 && a.Cycles() == 0; i++ {
		a.CollectDebt()
	}
	if a.Cycles() != 1 {
		t.Fatalf("Cycles = %d, want 1", a.Cycles())
	}
	if a.LastFreed() != 10 {
		t.Errorf("LastFreed = %d, want 10", a.LastFreed())
	}
	if a.Live() != 1 {
		t.Errorf("Live = %d, want 1", a.Live())
	}
}
