package ebitenhost

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"

	"github.com/phanxgames/marquee"
)

// debugRefreshSecs is how often the overlay text is rebuilt.
const debugRefreshSecs = 0.5

// debugOverlay prints FPS, TPS and the root timeline's frame in the corner
// of the window.
type debugOverlay struct {
	img   *ebiten.Image
	since float64
	text  string
}

func newDebugOverlay() *debugOverlay {
	return &debugOverlay{img: ebiten.NewImage(160, 48), since: debugRefreshSecs}
}

// update rebuilds the text every debugRefreshSecs.
func (d *debugOverlay) update(dt float64, p *marquee.Player) {
	d.since += dt
	if d.since < debugRefreshSecs {
		return
	}
	d.since = 0
	d.text = debugText(ebiten.ActualFPS(), ebiten.ActualTPS(), p)

	d.img.Clear()
	d.img.Fill(color.RGBA{0, 0, 0, 128})
	ebitenutil.DebugPrint(d.img, d.text)
}

func (d *debugOverlay) draw(screen *ebiten.Image) {
	screen.DrawImage(d.img, nil)
}

func debugText(fps, tps float64, p *marquee.Player) string {
	var frame, total uint16
	p.Mutate(func(ctx *marquee.UpdateContext) {
		root := ctx.RootNode()
		frame, total = root.DisplayedFrame(), root.TotalFrames()
	})
	state := "playing"
	if !p.IsPlaying() {
		state = "paused"
	}
	return fmt.Sprintf("FPS: %.1f\nTPS: %.1f\nFrame: %d/%d %s", fps, tps, frame, total, state)
}
