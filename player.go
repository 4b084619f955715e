package marquee

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/phanxgames/marquee/swf"
)

// DefaultMaxFramesPerTick caps how many frames a single Tick may run to
// catch up after a stall.
const DefaultMaxFramesPerTick = 5

// defaultFrameRate is used for movies that declare a frame rate of zero.
const defaultFrameRate = 12

// Options configures a Player. The zero value is usable: missing backends are
// replaced with their null implementations.
type Options struct {
	Audio       AudioBackend
	Renderer    RenderBackend
	Navigator   NavigatorBackend
	Input       InputBackend
	Interpreter ScriptInterpreter
	Logger      *zap.Logger

	// MaxFramesPerTick caps catch-up work per Tick. Zero means
	// DefaultMaxFramesPerTick.
	MaxFramesPerTick int
	// FrameRate overrides the movie's frame rate when positive.
	FrameRate float64
	// DeviceFont is a DefineFont3 tag record used for device text.
	DeviceFont []byte
	// ArenaParameters tunes the collector. Zero fields take the defaults.
	ArenaParameters ArenaParameters
	// NoLetterbox disables drawing the margins around the stage.
	NoLetterbox bool
	// Debug logs per-frame timing and scene statistics.
	Debug bool
}

func (o Options) withDefaults() Options {
	if o.Audio == nil {
		o.Audio = NewNullAudio()
	}
	if o.Renderer == nil {
		o.Renderer = &NullRenderer{}
	}
	if o.Navigator == nil {
		o.Navigator = NullNavigator{}
	}
	if o.Input == nil {
		o.Input = NullInput{}
	}
	if o.Interpreter == nil {
		o.Interpreter = NewBasicInterpreter()
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.MaxFramesPerTick <= 0 {
		o.MaxFramesPerTick = DefaultMaxFramesPerTick
	}
	d := DefaultArenaParameters()
	if o.ArenaParameters.PauseFactor <= 0 {
		o.ArenaParameters.PauseFactor = d.PauseFactor
	}
	if o.ArenaParameters.TimingFactor <= 0 {
		o.ArenaParameters.TimingFactor = d.TimingFactor
	}
	if o.ArenaParameters.MinSleep <= 0 {
		o.ArenaParameters.MinSleep = d.MinSleep
	}
	if o.ArenaParameters.FrameDebt <= 0 {
		o.ArenaParameters.FrameDebt = d.FrameDebt
	}
	return o
}

// Player owns a loaded movie, its backends and the collected scene graph,
// and turns wall-clock ticks into frame steps.
type Player struct {
	movie  *swf.Movie
	stream *swf.Reader
	arena  *Arena
	log    *zap.Logger
	opts   Options

	audio     AudioBackend
	renderer  RenderBackend
	navigator NavigatorBackend
	input     InputBackend
	store     EntityStore

	frameRate        float64
	frameAccumulator float64
	globalTime       float64
	isPlaying        bool

	background  Color
	mousePos    Vec2 // stage twips
	isMouseDown bool

	movieWidth, movieHeight       float64 // pixels
	viewportWidth, viewportHeight float64
	viewMatrix, inverseViewMatrix Matrix
	letterbox                     Letterbox
	transforms                    TransformStack

	// initDone records sprites whose init actions have been queued.
	initDone map[swf.CharacterID]bool

	stats debugStats
}

// NewPlayer decodes data and prepares it for playback. The player starts
// paused. A truncated compressed body is logged and the recovered prefix is
// played; an unparseable header is an error.
func NewPlayer(data []byte, opts Options) (*Player, error) {
	opts = opts.withDefaults()
	movie, err := swf.DecodeMovie(data)
	if err != nil {
		return nil, fmt.Errorf("marquee: load movie: %w", err)
	}
	log := opts.Logger
	if movie.DecompressErr != nil {
		log.Error("movie body is corrupt, playing recovered data", zap.Error(movie.DecompressErr))
	}

	h := movie.Header
	p := &Player{
		movie:      movie,
		stream:     movie.NewReader(),
		log:        log,
		opts:       opts,
		audio:      opts.Audio,
		renderer:   opts.Renderer,
		navigator:  opts.Navigator,
		input:      opts.Input,
		frameRate:  h.FrameRate,
		background: ColorWhite,
		initDone:   make(map[swf.CharacterID]bool),
	}
	if opts.FrameRate > 0 {
		p.frameRate = opts.FrameRate
	}
	if p.frameRate <= 0 {
		log.Warn("movie has no frame rate", zap.Float64("default", defaultFrameRate))
		p.frameRate = defaultFrameRate
	}
	p.movieWidth = h.StageSize.Width().Pixels()
	p.movieHeight = h.StageSize.Height().Pixels()

	p.arena = NewArena(opts.ArenaParameters, func(a *Arena) GCRoot {
		lib := NewLibrary()
		if len(opts.DeviceFont) > 0 {
			font, err := loadDeviceFont(opts.DeviceFont)
			if err != nil {
				log.Error("unable to load device font", zap.Error(err))
			} else {
				lib.SetDeviceFont(font)
			}
		}
		return GCRoot{
			Library:     lib,
			Root:        a.Allocate(newMovieClip(0, h.NumFrames)),
			Interpreter: opts.Interpreter,
			Queue:       NewActionQueue(),
		}
	})

	log.Info("movie loaded",
		zap.Uint8("version", h.Version),
		zap.Stringer("compression", h.Compression),
		zap.Float64("width", p.movieWidth),
		zap.Float64("height", p.movieHeight),
		zap.Float64("frame_rate", p.frameRate),
		zap.Uint16("frames", h.NumFrames))

	p.SetViewportDimensions(p.movieWidth, p.movieHeight)
	return p, nil
}

func loadDeviceFont(record []byte) (*Character, error) {
	tag, err := swf.NewReader(record, 8).ReadTag()
	if err != nil {
		return nil, fmt.Errorf("device font: %w", err)
	}
	f, ok := tag.(swf.DefineFont)
	if !ok {
		return nil, fmt.Errorf("device font: unexpected tag %d", tag.Code())
	}
	return &Character{Kind: CharacterFont, ID: f.ID, Font: &f}, nil
}

// --- Scheduling ---

// Tick advances the player by dt milliseconds of wall-clock time. Nothing
// runs until the audio backend reports preloading complete.
func (p *Player) Tick(dt float64) {
	if !p.audio.IsLoadingComplete() {
		return
	}
	if p.isPlaying {
		p.frameAccumulator += dt
		p.globalTime += dt
		frameTime := p.frameTime()
		needsRender := p.frameAccumulator >= frameTime

		frames := 0
		for frames < p.opts.MaxFramesPerTick && p.frameAccumulator >= frameTime {
			p.frameAccumulator -= frameTime
			p.RunFrame()
			frames++
		}
		// Drop debt left over after the cap instead of fast-forwarding.
		if p.frameAccumulator >= frameTime {
			p.frameAccumulator = 0
		}
		if needsRender {
			p.Render()
		}
	}
	p.audio.Tick()
}

func (p *Player) frameTime() float64 { return 1000 / p.frameRate }

// TimeUntilNextFrame returns how long until the next frame is due, truncated
// to whole milliseconds. Hosts use it as a sleep hint.
func (p *Player) TimeUntilNextFrame() time.Duration {
	frameTime := p.frameTime()
	var ms float64
	switch {
	case p.frameAccumulator <= 0:
		ms = frameTime
	case p.frameAccumulator >= frameTime:
		ms = 0
	default:
		ms = frameTime - p.frameAccumulator
	}
	return time.Duration(uint64(ms)) * time.Millisecond
}

// RunFrame executes one discrete frame step: the root timeline runs, frame
// numbers are committed and queued actions drained. Drag and hover are then
// updated and the collector is paid.
func (p *Player) RunFrame() {
	start := time.Now()
	p.mutate(func(ctx *UpdateContext) {
		root := ctx.RootNode()
		root.runFrame(ctx)
		root.updateFrameNumber(p.arena)
		p.stats.actions += ctx.Queue.Len()
		ctx.RunActions()
	})
	p.updateDrag()
	p.updateRollOver()
	p.arena.CollectDebt()
	p.stats.frames++
	p.stats.runTime += time.Since(start)
	p.debugLog()
}

// mutate runs fn inside an arena mutation with a fresh update context.
func (p *Player) mutate(fn func(ctx *UpdateContext)) {
	p.arena.Mutate(func(root *GCRoot) {
		fn(&UpdateContext{
			GCRoot:     root,
			Stream:     p.stream,
			Audio:      p.audio,
			Renderer:   p.renderer,
			Navigator:  p.navigator,
			Log:        p.log,
			SwfVersion: p.movie.Header.Version,
			arena:      p.arena,
			player:     p,
		})
	})
}

// Mutate runs fn with an update context. Hosts use it to drive the scene
// from outside the frame loop; fn must not call back into the Player.
func (p *Player) Mutate(fn func(ctx *UpdateContext)) {
	p.mutate(fn)
}

// --- Input ---

// ProcessInput polls the input backend and handles every pending event.
func (p *Player) ProcessInput() {
	for _, ev := range p.input.Events() {
		p.HandleEvent(ev)
	}
}

var clipEventListeners = map[PlayerEventType]struct {
	flag     swf.ClipEventFlag
	listener string
	method   string
}{
	EventKeyDown:   {swf.ClipEventKeyDown, ListenerKey, "onKeyDown"},
	EventMouseMove: {swf.ClipEventMouseMove, ListenerMouse, "onMouseMove"},
	EventMouseUp:   {swf.ClipEventMouseUp, ListenerMouse, "onMouseUp"},
	EventMouseDown: {swf.ClipEventMouseDown, ListenerMouse, "onMouseDown"},
}

// HandleEvent dispatches one input event. Mouse coordinates are viewport
// pixels.
func (p *Player) HandleEvent(ev PlayerEvent) {
	needsRender := false

	switch ev.Type {
	case EventMouseMove, EventMouseDown, EventMouseUp:
		p.mousePos.X, p.mousePos.Y = transformPoint(p.inverseViewMatrix,
			ev.X*swf.TwipsPerPixel, ev.Y*swf.TwipsPerPixel)
		if p.updateRollOver() {
			needsRender = true
		}
	}

	var buttonEvent *ButtonEvent
	switch ev.Type {
	case EventTextInput:
		if ev.Rune >= 32 && ev.Rune <= 126 {
			buttonEvent = &ButtonEvent{Type: ButtonEventKeyPress, Key: ButtonKeyCode(ev.Rune)}
		}
	case EventKeyDown:
		if k, ok := ButtonKeyCodeFor(ev.Key); ok {
			buttonEvent = &ButtonEvent{Type: ButtonEventKeyPress, Key: k}
		}
	}
	if buttonEvent != nil {
		p.mutate(func(ctx *UpdateContext) {
			ctx.propagateButtonEvent(ctx.RootNode(), *buttonEvent)
		})
	}

	if ce, ok := clipEventListeners[ev.Type]; ok {
		p.mutate(func(ctx *UpdateContext) {
			ctx.propagateClipEvent(ctx.RootNode(), ClipEvent{Flag: ce.flag})
			ctx.QueueAction(Action{
				Target:   ctx.Root,
				Kind:     ActionNotifyListeners,
				Listener: ce.listener,
				Method:   ce.method,
			})
		})
	}

	mouseDown := p.isMouseDown
	p.mutate(func(ctx *UpdateContext) {
		if n := ctx.Node(ctx.Hovered); n != nil && n.Type == NodeTypeButton {
			switch ev.Type {
			case EventMouseDown:
				mouseDown = true
				needsRender = true
				n.handleButtonEvent(ctx, ButtonEvent{Type: ButtonEventPress})
			case EventMouseUp:
				mouseDown = false
				needsRender = true
				n.handleButtonEvent(ctx, ButtonEvent{Type: ButtonEventRelease})
			}
		}
		ctx.RunActions()
	})
	p.isMouseDown = mouseDown

	if needsRender {
		p.Render()
	}
}

// updateDrag moves the drag target to follow the mouse. A drag whose target
// left the display list is cleared.
func (p *Player) updateDrag() {
	p.mutate(func(ctx *UpdateContext) {
		d := ctx.Drag
		if d == nil {
			return
		}
		n := ctx.Node(d.Target)
		if n == nil || n.removed {
			ctx.Drag = nil
			return
		}
		x, y := p.mousePos.X+d.Offset.X, p.mousePos.Y+d.Offset.Y
		if parent := ctx.Node(n.parent); parent != nil {
			x, y = ctx.GlobalToLocal(parent, x, y)
		}
		if d.Constraint != nil {
			x, y = d.Constraint.Clamp(x, y)
		}
		n.SetPosition(x, y)
	})
}

// updateRollOver re-picks the hovered button and sends RollOut to the old
// one before RollOver to the new one. Hover is frozen while the mouse is
// down. Reports whether the hovered button changed.
func (p *Player) updateRollOver() bool {
	if p.isMouseDown {
		return false
	}
	changed := false
	p.mutate(func(ctx *UpdateContext) {
		newHovered := ctx.mousePick(ctx.RootNode(), p.mousePos.X, p.mousePos.Y)
		if newHovered == ctx.Hovered {
			return
		}
		if n := ctx.Node(ctx.Hovered); n != nil {
			n.handleButtonEvent(ctx, ButtonEvent{Type: ButtonEventRollOut})
		}
		if n := ctx.Node(newHovered); n != nil {
			n.handleButtonEvent(ctx, ButtonEvent{Type: ButtonEventRollOver})
		}
		ctx.Hovered = newHovered
		ctx.RunActions()
		changed = true
	})
	return changed
}

// --- Rendering ---

// Render draws the background, the scene through the view matrix, the
// pause overlay when paused and the letterbox margins.
func (p *Player) Render() {
	start := time.Now()
	p.renderer.BeginFrame()
	p.renderer.Clear(p.background)

	p.transforms.Push(Transform{Matrix: p.viewMatrix, ColorTransform: IdentityColorTransform()})
	p.mutate(func(ctx *UpdateContext) {
		rc := &RenderContext{
			Renderer:   p.renderer,
			Library:    ctx.Library,
			Transforms: &p.transforms,
			arena:      p.arena,
		}
		ctx.RootNode().render(rc)
	})
	p.transforms.Pop()

	if !p.isPlaying {
		p.renderer.DrawPauseOverlay()
	}
	if !p.opts.NoLetterbox {
		p.renderer.DrawLetterbox(p.letterbox)
	}
	p.renderer.EndFrame()
	p.stats.renderTime += time.Since(start)
}

// SetViewportDimensions sets the viewport size in pixels and rebuilds the
// view matrix and letterbox.
func (p *Player) SetViewportDimensions(width, height float64) {
	p.viewportWidth, p.viewportHeight = width, height
	p.buildMatrices()
}

// ViewportDimensions returns the viewport size in pixels.
func (p *Player) ViewportDimensions() (float64, float64) {
	return p.viewportWidth, p.viewportHeight
}

// buildMatrices fits the stage into the viewport preserving aspect ratio
// and centers it.
func (p *Player) buildMatrices() {
	mw, mh := p.movieWidth, p.movieHeight
	vw, vh := p.viewportWidth, p.viewportHeight
	if mw <= 0 || mh <= 0 || vw <= 0 || vh <= 0 {
		p.viewMatrix = identityTransform
		p.inverseViewMatrix = identityTransform
		p.letterbox = Letterbox{}
		return
	}

	var scale, marginW, marginH float64
	if vw/vh > mw/mh {
		scale = vh / mh
		marginW = (vw - mw*scale) / 2
	} else {
		scale = vw / mw
		marginH = (vh - mh*scale) / 2
	}
	p.viewMatrix = Matrix{scale, 0, 0, scale, marginW * swf.TwipsPerPixel, marginH * swf.TwipsPerPixel}
	p.inverseViewMatrix = invertAffine(p.viewMatrix)

	switch {
	case marginW > 0:
		p.letterbox = Letterbox{Kind: LetterboxPillarbox, Margin: marginW}
	case marginH > 0:
		p.letterbox = Letterbox{Kind: LetterboxLetterbox, Margin: marginH}
	default:
		p.letterbox = Letterbox{}
	}
}

// --- Accessors ---

// SetPlaying starts or pauses playback. Starting primes the audio backend
// for hosts that gate autoplay behind a user gesture.
func (p *Player) SetPlaying(v bool) {
	if v {
		p.audio.PrimeAudio()
	}
	p.isPlaying = v
}

// IsPlaying reports whether Tick advances frames.
func (p *Player) IsPlaying() bool { return p.isPlaying }

// FrameRate returns the frames per second in use.
func (p *Player) FrameRate() float64 { return p.frameRate }

// MovieWidth returns the stage width in pixels.
func (p *Player) MovieWidth() float64 { return p.movieWidth }

// MovieHeight returns the stage height in pixels.
func (p *Player) MovieHeight() float64 { return p.movieHeight }

// Header returns the movie header.
func (p *Player) Header() swf.Header { return p.movie.Header }

// Background returns the current stage background color.
func (p *Player) Background() Color { return p.background }

// Letterbox returns the current stage margins.
func (p *Player) Letterbox() Letterbox { return p.letterbox }

// ViewMatrix returns the stage-to-viewport matrix in twips.
func (p *Player) ViewMatrix() Matrix { return p.viewMatrix }

// MousePosition returns the last mouse position in stage twips.
func (p *Player) MousePosition() Vec2 { return p.mousePos }

// IsMouseDown reports whether the mouse button is latched down.
func (p *Player) IsMouseDown() bool { return p.isMouseDown }

// GlobalTime returns the milliseconds of playing time elapsed.
func (p *Player) GlobalTime() float64 { return p.globalTime }

// Arena returns the arena holding the scene graph.
func (p *Player) Arena() *Arena { return p.arena }

// SetEntityStore sets the optional ECS store that receives button
// interaction events. Pass nil to disable.
func (p *Player) SetEntityStore(s EntityStore) { p.store = s }

// Root returns the root clip's handle. It reads the root data without a
// mutation, so it is safe to call from inside Mutate.
func (p *Player) Root() Handle { return p.arena.root.Root }

// Hovered returns the handle of the button under the mouse, or NoHandle.
// Like Root it is safe to call from inside Mutate.
func (p *Player) Hovered() Handle { return p.arena.root.Hovered }
