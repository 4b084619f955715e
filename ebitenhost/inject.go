package ebitenhost

import "github.com/phanxgames/marquee"

// syntheticPointer is one injected pointer sample in viewport pixels.
type syntheticPointer struct {
	x, y    float64
	pressed bool
}

// InjectPress queues a left-button press at the given viewport position.
// Injected samples are consumed one per Poll and replace the real cursor
// for that poll.
func (in *Input) InjectPress(x, y float64) {
	in.inject = append(in.inject, syntheticPointer{x: x, y: y, pressed: true})
}

// InjectMove queues a move with the button held.
func (in *Input) InjectMove(x, y float64) {
	in.inject = append(in.inject, syntheticPointer{x: x, y: y, pressed: true})
}

// InjectRelease queues a release at the given position.
func (in *Input) InjectRelease(x, y float64) {
	in.inject = append(in.inject, syntheticPointer{x: x, y: y})
}

// InjectClick queues a press and a release at the same position. Consumes
// two polls.
func (in *Input) InjectClick(x, y float64) {
	in.InjectPress(x, y)
	in.InjectRelease(x, y)
}

// InjectDrag queues a press at (fromX, fromY), frames-2 interpolated moves
// and a release at (toX, toY). Minimum frames is 2.
func (in *Input) InjectDrag(fromX, fromY, toX, toY float64, frames int) {
	if frames < 2 {
		frames = 2
	}
	in.InjectPress(fromX, fromY)
	steps := frames - 2
	for i := 1; i <= steps; i++ {
		t := float64(i) / float64(steps+1)
		in.InjectMove(fromX+(toX-fromX)*t, fromY+(toY-fromY)*t)
	}
	in.InjectRelease(toX, toY)
}

// Injecting reports whether injected samples are pending.
func (in *Input) Injecting() bool { return len(in.inject) > 0 }

// pollInjected pops one injected sample and turns it into events. Reports
// false when nothing was queued.
func (in *Input) pollInjected() bool {
	if len(in.inject) == 0 {
		return false
	}
	s := in.inject[0]
	copy(in.inject, in.inject[1:])
	in.inject = in.inject[:len(in.inject)-1]

	if s.x != in.injX || s.y != in.injY || !in.inside {
		in.Push(marquee.PlayerEvent{Type: marquee.EventMouseMove, X: s.x, Y: s.y})
	}
	switch {
	case s.pressed && !in.injDown:
		in.Push(marquee.PlayerEvent{Type: marquee.EventMouseDown, X: s.x, Y: s.y})
	case !s.pressed && in.injDown:
		in.Push(marquee.PlayerEvent{Type: marquee.EventMouseUp, X: s.x, Y: s.y})
	}
	in.injX, in.injY, in.injDown = s.x, s.y, s.pressed
	in.inside = true
	return true
}
