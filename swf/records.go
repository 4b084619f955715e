package swf

// Twips is the movie's native length unit: 1/20 of a pixel.
type Twips int32

// TwipsPerPixel is the number of twips in one pixel.
const TwipsPerPixel = 20

// Pixels returns t converted to pixels.
func (t Twips) Pixels() float64 {
	return float64(t) / TwipsPerPixel
}

// TwipsFromPixels converts a pixel length to twips, truncating toward zero.
func TwipsFromPixels(px float64) Twips {
	return Twips(px * TwipsPerPixel)
}

// Rect is an axis-aligned rectangle in twips.
type Rect struct {
	XMin, XMax Twips
	YMin, YMax Twips
}

// Width returns the rectangle's width in twips.
func (r Rect) Width() Twips { return r.XMax - r.XMin }

// Height returns the rectangle's height in twips.
func (r Rect) Height() Twips { return r.YMax - r.YMin }

// Color is an 8-bit RGBA color. RGB records decode with A = 255.
type Color struct {
	R, G, B, A uint8
}

// Matrix is the tag-stream affine matrix. Scale and rotate terms are 16.16
// fixed point in the stream and decoded to float64.
type Matrix struct {
	ScaleX      float64
	ScaleY      float64
	RotateSkew0 float64
	RotateSkew1 float64
	TranslateX  Twips
	TranslateY  Twips
}

// IdentityMatrix returns the identity matrix.
func IdentityMatrix() Matrix {
	return Matrix{ScaleX: 1, ScaleY: 1}
}

// ColorTransform multiplies then offsets each channel. Multipliers are 8.8
// fixed point in the stream and decoded to float64.
type ColorTransform struct {
	RMult, GMult, BMult, AMult float64
	RAdd, GAdd, BAdd, AAdd     int16
}

// IdentityColorTransform returns the color transform that leaves colors unchanged.
func IdentityColorTransform() ColorTransform {
	return ColorTransform{RMult: 1, GMult: 1, BMult: 1, AMult: 1}
}

// --- Clip actions ---

// ClipEventFlag is a bit set of clip events a handler responds to.
type ClipEventFlag uint32

const (
	ClipEventLoad ClipEventFlag = 1 << iota
	ClipEventEnterFrame
	ClipEventUnload
	ClipEventMouseMove
	ClipEventMouseDown
	ClipEventMouseUp
	ClipEventKeyDown
	ClipEventKeyUp
	ClipEventData
	ClipEventInitialize
	ClipEventPress
	ClipEventRelease
	ClipEventReleaseOutside
	ClipEventRollOver
	ClipEventRollOut
	ClipEventDragOver
	ClipEventDragOut
	ClipEventKeyPress
	ClipEventConstruct
)

// ClipAction is one event handler attached to a placed clip.
type ClipAction struct {
	Events  ClipEventFlag
	KeyCode uint8 // only meaningful when Events has ClipEventKeyPress
	Actions []byte
}

// --- Buttons ---

// ButtonState is the set of button states a record is visible in.
type ButtonState uint8

const (
	ButtonStateUp ButtonState = 1 << iota
	ButtonStateOver
	ButtonStateDown
	ButtonStateHitTest
)

// ButtonRecord places one character inside a button for a set of states.
type ButtonRecord struct {
	States         ButtonState
	ID             CharacterID
	Depth          uint16
	Matrix         Matrix
	ColorTransform ColorTransform
}

// ButtonCondition is a bit set of button state transitions.
type ButtonCondition uint16

const (
	ButtonIdleToOverUp ButtonCondition = 1 << iota
	ButtonOverUpToIdle
	ButtonOverUpToOverDown
	ButtonOverDownToOverUp
	ButtonOverDownToOutDown
	ButtonOutDownToOverDown
	ButtonOutDownToIdle
	ButtonIdleToOverDown
	ButtonOverDownToIdle
)

// ButtonAction runs bytecode when any of its conditions fires, or when its
// key is pressed.
type ButtonAction struct {
	Conditions ButtonCondition
	KeyCode    uint8 // 0 when the action is not bound to a key
	Actions    []byte
}

// --- Sound ---

// AudioCompression identifies a sound codec.
type AudioCompression uint8

const (
	AudioUncompressedUnknownEndian AudioCompression = 0
	AudioADPCM                     AudioCompression = 1
	AudioMP3                       AudioCompression = 2
	AudioUncompressed              AudioCompression = 3
	AudioNellymoser16k             AudioCompression = 4
	AudioNellymoser8k              AudioCompression = 5
	AudioNellymoser                AudioCompression = 6
	AudioSpeex                     AudioCompression = 11
)

var sampleRates = [4]uint16{5512, 11025, 22050, 44100}

// SoundFormat describes the encoding of a sound.
type SoundFormat struct {
	Compression AudioCompression
	SampleRate  uint16
	Is16Bit     bool
	IsStereo    bool
}

// SoundStreamInfo is the payload of a sound stream head.
type SoundStreamInfo struct {
	Playback        SoundFormat
	Stream          SoundFormat
	SamplesPerBlock uint16
	LatencySeek     int16
}

// SoundEvent selects what a StartSound tag does.
type SoundEvent uint8

const (
	SoundEventStart SoundEvent = iota
	SoundEventStartNoMultiple
	SoundEventStop
)

// SoundEnvelopePoint is one point of a volume envelope.
type SoundEnvelopePoint struct {
	Sample      uint32
	LeftVolume  float32
	RightVolume float32
}

// SoundInfo controls playback of an event sound.
type SoundInfo struct {
	Event     SoundEvent
	InSample  *uint32
	OutSample *uint32
	NumLoops  uint16
	Envelope  []SoundEnvelopePoint
}
