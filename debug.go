package marquee

import (
	"time"

	"go.uber.org/zap"
)

// debugStats holds timing and queue metrics since the last report.
// Only reported when Options.Debug is true.
type debugStats struct {
	frames     int
	actions    int
	runTime    time.Duration
	renderTime time.Duration
}

// debugLog reports the accumulated stats and resets them.
func (p *Player) debugLog() {
	if !p.opts.Debug {
		p.stats = debugStats{}
		return
	}
	s := p.stats
	p.log.Debug("frame",
		zap.Int("frames", s.frames),
		zap.Int("actions", s.actions),
		zap.Duration("run", s.runTime),
		zap.Duration("render", s.renderTime),
		zap.Int("live_nodes", p.arena.Live()),
		zap.Int("gc_cycles", p.arena.Cycles()),
		zap.Int("gc_last_freed", p.arena.LastFreed()))
	p.stats = debugStats{}
	p.debugCheckScene()
}

// debugMaxChildCount is the child count above which a warning is logged.
const debugMaxChildCount = 1000

// debugMaxTreeDepth is the nesting depth above which a warning is logged.
const debugMaxTreeDepth = 32

// debugCheckScene warns about unusually wide or deep display lists.
func (p *Player) debugCheckScene() {
	p.mutate(func(ctx *UpdateContext) {
		p.debugCheckNode(ctx, ctx.RootNode(), 1)
	})
}

func (p *Player) debugCheckNode(ctx *UpdateContext, n *Node, depth int) {
	if n == nil {
		return
	}
	if len(n.children) > debugMaxChildCount {
		p.log.Warn("node has many children",
			zap.String("name", n.Name), zap.Int("children", len(n.children)), zap.Int("threshold", debugMaxChildCount))
	}
	if depth > debugMaxTreeDepth {
		p.log.Warn("display list is deeply nested",
			zap.String("name", n.Name), zap.Int("depth", depth), zap.Int("threshold", debugMaxTreeDepth))
		return
	}
	for _, h := range n.children {
		p.debugCheckNode(ctx, ctx.Node(h), depth+1)
	}
}
