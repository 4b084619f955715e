// Package ebitenhost runs a marquee.Player inside an Ebitengine window.
package ebitenhost

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"go.uber.org/zap"

	"github.com/phanxgames/marquee"
)

// Game adapts a Player to ebiten.Game. Each Update polls input, feeds it to
// the player and ticks the player by one Ebitengine tick.
type Game struct {
	player   *marquee.Player
	renderer *Renderer
	input    *Input
	log      *zap.Logger

	width, height int

	// PauseKey toggles playback unless NoPauseKey is set.
	PauseKey   ebiten.Key
	NoPauseKey bool

	// ScreenshotKey queues a capture into ScreenshotDir.
	ScreenshotKey   ebiten.Key
	ScreenshotDir   string
	screenshotQueue []string

	// DebugKey toggles the FPS and frame overlay.
	DebugKey ebiten.Key
	debug    *debugOverlay
}

// NewGame wires p to r and in. The player must have been created with r as
// its renderer and in as its input backend.
func NewGame(p *marquee.Player, r *Renderer, in *Input, log *zap.Logger) *Game {
	if log == nil {
		log = zap.NewNop()
	}
	w, h := p.ViewportDimensions()
	return &Game{
		player:        p,
		renderer:      r,
		input:         in,
		log:           log,
		width:         int(w),
		height:        int(h),
		PauseKey:      ebiten.KeyP,
		ScreenshotKey: ebiten.KeyF12,
		ScreenshotDir: "screenshots",
		DebugKey:      ebiten.KeyF3,
	}
}

// ShowDebug turns the debug overlay on or off.
func (g *Game) ShowDebug(on bool) {
	if !on {
		g.debug = nil
		return
	}
	if g.debug == nil {
		g.debug = newDebugOverlay()
	}
}

// Player returns the hosted player.
func (g *Game) Player() *marquee.Player { return g.player }

func (g *Game) Update() error {
	dt := 1.0 / float64(ebiten.TPS())

	if !g.NoPauseKey && inpututil.IsKeyJustPressed(g.PauseKey) {
		g.togglePause()
	} else if !g.player.IsPlaying() && inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		g.togglePause()
	}

	if inpututil.IsKeyJustPressed(g.ScreenshotKey) {
		g.Screenshot("capture")
	}
	if inpututil.IsKeyJustPressed(g.DebugKey) {
		g.ShowDebug(g.debug == nil)
	}

	g.input.Poll(g.width, g.height)
	g.player.ProcessInput()
	g.renderer.Update(float32(dt))
	g.player.Tick(dt * 1000)
	if g.debug != nil {
		g.debug.update(dt, g.player)
	}
	return nil
}

func (g *Game) togglePause() {
	playing := !g.player.IsPlaying()
	g.player.SetPlaying(playing)
	g.log.Debug("playback toggled", zap.Bool("playing", playing))
	g.player.Render()
}

func (g *Game) Draw(screen *ebiten.Image) {
	g.renderer.Draw(screen)
	g.flushScreenshots(screen)
	if g.debug != nil {
		g.debug.draw(screen)
	}
}

// Layout keeps the player's viewport equal to the window size.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	if outsideWidth != g.width || outsideHeight != g.height {
		g.width, g.height = outsideWidth, outsideHeight
		g.renderer.SetViewportSize(outsideWidth, outsideHeight)
		g.player.SetViewportDimensions(float64(outsideWidth), float64(outsideHeight))
		g.player.Render()
	}
	return outsideWidth, outsideHeight
}

// Window configures the Ebitengine window.
type Window struct {
	Width, Height int
	Title         string
	Resizable     bool
}

// Run opens the window and blocks until it is closed.
func Run(g *Game, w Window) error {
	ebiten.SetWindowSize(w.Width, w.Height)
	ebiten.SetWindowTitle(w.Title)
	if w.Resizable {
		ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	}
	g.log.Info("starting window",
		zap.Int("width", w.Width), zap.Int("height", w.Height), zap.String("title", w.Title))
	return ebiten.RunGame(g)
}
