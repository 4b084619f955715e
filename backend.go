package marquee

import (
	"errors"
	"fmt"

	"github.com/phanxgames/marquee/swf"
)

// ShapeHandle identifies a shape registered with a RenderBackend.
type ShapeHandle uint32

// SoundHandle identifies a sound registered with an AudioBackend.
type SoundHandle uint64

// SoundInstance identifies one playing instance of a sound.
type SoundInstance uint64

// AudioStreamHandle identifies a timeline's streaming sound.
type AudioStreamHandle uint64

// ErrInvalidSound is returned by RegisterSound for sounds that cannot be used.
var ErrInvalidSound = errors.New("marquee: invalid sound")

// ShapeDefinition is what the core hands a renderer when a shape is first
// defined. Outline records are passed through undecoded.
type ShapeDefinition struct {
	ID      swf.CharacterID
	Bounds  swf.Rect
	Fill    Color
	HasFill bool
	Records []byte
}

// AudioBackend plays event and stream sounds.
type AudioBackend interface {
	// PrimeAudio unlocks playback after a user gesture on hosts that gate autoplay.
	PrimeAudio()
	RegisterSound(s swf.DefineSound) (SoundHandle, error)
	StartSound(h SoundHandle, info swf.SoundInfo) SoundInstance
	StopSound(i SoundInstance)
	StopSoundsWithHandle(h SoundHandle)
	StopAllSounds()
	IsSoundPlaying(h SoundHandle) bool
	// SoundDuration returns the length in milliseconds, or false if h is unknown.
	SoundDuration(h SoundHandle) (uint32, bool)

	RegisterStream(info swf.SoundStreamInfo) AudioStreamHandle
	QueueStreamSamples(s AudioStreamHandle, samples []byte)
	StartStream(s AudioStreamHandle, clip swf.CharacterID, frame uint16)
	StopStream(s AudioStreamHandle)

	// IsLoadingComplete gates Tick until preloading finishes.
	IsLoadingComplete() bool
	Tick()
}

// LetterboxKind selects which margins are drawn around the stage.
type LetterboxKind uint8

const (
	LetterboxNone      LetterboxKind = iota
	LetterboxLetterbox                // bars above and below
	LetterboxPillarbox                // bars left and right
)

// Letterbox describes the margins around the stage. Margin is in pixels.
type Letterbox struct {
	Kind   LetterboxKind
	Margin float64
}

// RenderBackend draws the scene.
type RenderBackend interface {
	RegisterShape(def ShapeDefinition) ShapeHandle
	BeginFrame()
	Clear(c Color)
	// RenderShape draws h with t, whose matrix maps twips to viewport twips.
	RenderShape(h ShapeHandle, t Transform)
	EndFrame()
	DrawPauseOverlay()
	DrawLetterbox(l Letterbox)
}

// InputBackend is polled once per host update for pending events.
type InputBackend interface {
	Events() []PlayerEvent
}

// NavigatorBackend handles URL navigation requests from scripts.
type NavigatorBackend interface {
	NavigateToURL(url, target string)
}

// ScriptInterpreter runs queued actions. It is consumed as an opaque
// capability: the core never inspects bytecode itself.
type ScriptInterpreter interface {
	Run(ctx *UpdateContext, a Action) error
}

// MethodHandler is implemented by interpreters that dispatch named methods
// such as onEnterFrame. Method actions are only queued for targets that
// report a handler.
type MethodHandler interface {
	HasMethod(ctx *UpdateContext, target Handle, name string) bool
}

// --- Null backends ---

// NullAudio is a silent AudioBackend. Every operation succeeds.
type NullAudio struct {
	sounds     map[SoundHandle]swf.DefineSound
	nextSound  SoundHandle
	nextInst   SoundInstance
	nextStream AudioStreamHandle
}

// NewNullAudio returns a silent audio backend.
func NewNullAudio() *NullAudio {
	return &NullAudio{sounds: make(map[SoundHandle]swf.DefineSound)}
}

func (a *NullAudio) PrimeAudio() {}

func (a *NullAudio) RegisterSound(s swf.DefineSound) (SoundHandle, error) {
	if s.Format.SampleRate == 0 {
		return 0, fmt.Errorf("sound %d: %w: zero sample rate", s.ID, ErrInvalidSound)
	}
	a.nextSound++
	a.sounds[a.nextSound] = s
	return a.nextSound, nil
}

func (a *NullAudio) StartSound(SoundHandle, swf.SoundInfo) SoundInstance {
	a.nextInst++
	return a.nextInst
}

func (a *NullAudio) StopSound(SoundInstance)          {}
func (a *NullAudio) StopSoundsWithHandle(SoundHandle) {}
func (a *NullAudio) StopAllSounds()                   {}
func (a *NullAudio) IsSoundPlaying(SoundHandle) bool  { return false }

func (a *NullAudio) SoundDuration(h SoundHandle) (uint32, bool) {
	s, ok := a.sounds[h]
	if !ok {
		return 0, false
	}
	return uint32(uint64(s.SampleCount) * 1000 / uint64(s.Format.SampleRate)), true
}

func (a *NullAudio) RegisterStream(swf.SoundStreamInfo) AudioStreamHandle {
	a.nextStream++
	return a.nextStream
}

func (a *NullAudio) QueueStreamSamples(AudioStreamHandle, []byte)           {}
func (a *NullAudio) StartStream(AudioStreamHandle, swf.CharacterID, uint16) {}
func (a *NullAudio) StopStream(AudioStreamHandle)                           {}
func (a *NullAudio) IsLoadingComplete() bool                                { return true }
func (a *NullAudio) Tick()                                                  {}

// NullRenderer draws nothing and hands out sequential shape handles.
type NullRenderer struct {
	next ShapeHandle
}

func (r *NullRenderer) RegisterShape(ShapeDefinition) ShapeHandle {
	r.next++
	return r.next
}

func (r *NullRenderer) BeginFrame()                        {}
func (r *NullRenderer) Clear(Color)                        {}
func (r *NullRenderer) RenderShape(ShapeHandle, Transform) {}
func (r *NullRenderer) EndFrame()                          {}
func (r *NullRenderer) DrawPauseOverlay()                  {}
func (r *NullRenderer) DrawLetterbox(Letterbox)            {}

// NullInput never reports events.
type NullInput struct{}

func (NullInput) Events() []PlayerEvent { return nil }

// NullNavigator ignores navigation requests.
type NullNavigator struct{}

func (NullNavigator) NavigateToURL(string, string) {}

// NullInterpreter discards every action.
type NullInterpreter struct{}

func (NullInterpreter) Run(*UpdateContext, Action) error { return nil }
