package swf

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"math/bits"

	"github.com/ulikunitz/xz/lzma"
	"golang.org/x/text/encoding/charmap"
)

// ErrClipEventWidth is returned when a clip action uses an event that does
// not fit the movie version's event flag field. Versions 5 and below only
// carry the low 16 event bits.
var ErrClipEventWidth = errors.New("swf: clip event not encodable in this version")

// Writer encodes tag records into a tag stream. It covers the tags this
// package decodes and is used to build movies for tools and tests.
type Writer struct {
	buf     bytes.Buffer
	version uint8
}

// NewWriter returns a writer that encodes for the given movie version.
func NewWriter(version uint8) *Writer {
	return &Writer{version: version}
}

// Bytes returns the encoded tag stream.
func (w *Writer) Bytes() []byte {
	return w.buf.Bytes()
}

// Len returns the number of bytes written so far, which is also the offset
// of the next tag.
func (w *Writer) Len() int {
	return w.buf.Len()
}

// WriteSprite writes a sprite definition whose nested timeline is the
// already-encoded tag stream tags.
func (w *Writer) WriteSprite(id CharacterID, numFrames uint16, tags []byte) {
	e := newEnc(w.version)
	e.u16(id)
	e.u16(numFrames)
	e.raw(tags)
	w.writeRecord(TagDefineSprite, e.bytes())
}

// WriteTag encodes t and appends it to the stream.
func (w *Writer) WriteTag(t Tag) error {
	e := newEnc(w.version)
	switch t := t.(type) {
	case End, ShowFrame:
	case SetBackgroundColor:
		e.rgb(t.Color)
	case DefineShape:
		e.u16(t.ID)
		e.rect(t.Bounds)
		if t.Version == 4 {
			e.rect(t.Bounds)
			e.u8(0)
		}
		if t.Records != nil {
			e.raw(t.Records)
		} else {
			e.shapeStyles(t)
		}
	case DefineSprite:
		w.WriteSprite(t.ID, t.NumFrames, nil)
		return nil
	case PlaceObject:
		if err := e.placeObject(t); err != nil {
			return err
		}
	case RemoveObject:
		if t.CharacterID != nil {
			e.u16(*t.CharacterID)
		}
		e.u16(t.Depth)
	case SoundStreamHead:
		e.soundFormat(t.Info.Playback)
		e.soundFormat(t.Info.Stream)
		e.u16(t.Info.SamplesPerBlock)
		if t.Info.Stream.Compression == AudioMP3 {
			e.u16(uint16(t.Info.LatencySeek))
		}
	case SoundStreamBlock:
		e.raw(t.Data)
	case DefineSound:
		e.u16(t.ID)
		e.soundFormat(t.Format)
		e.u32(t.SampleCount)
		e.raw(t.Data)
	case StartSound:
		e.u16(t.ID)
		e.soundInfo(t.Info)
	case DoAction:
		e.raw(t.Actions)
	case DoInitAction:
		e.u16(t.ID)
		e.raw(t.Actions)
	case FrameLabel:
		e.str(t.Label)
		if t.Anchor {
			e.u8(1)
		}
	case DefineButton:
		e.button(t)
	case DefineMorphShape:
		e.u16(t.ID)
		e.rect(t.StartBounds)
		e.rect(t.EndBounds)
		if t.Version == 2 {
			e.rect(t.StartBounds)
			e.rect(t.EndBounds)
			e.u8(0)
		}
		e.u32(0)
		if t.HasFill {
			e.u8(1)
			e.u8(0)
			e.rgba(t.StartFill)
			e.rgba(t.EndFill)
		} else {
			e.u8(0)
		}
	case DefineFont:
		e.u16(t.ID)
		if t.Version == 1 {
			e.u16(uint16(t.NumGlyphs * 2))
			for i := 1; i < t.NumGlyphs; i++ {
				e.u16(0)
			}
			break
		}
		var flags uint8
		if t.Bold {
			flags |= 0x01
		}
		if t.Italic {
			flags |= 0x02
		}
		e.u8(flags)
		e.u8(0)
		name := e.encodeText(t.Name)
		e.u8(uint8(len(name)))
		e.raw(name)
		e.u16(uint16(t.NumGlyphs))
	case Unknown:
		e.raw(make([]byte, t.Length))
	default:
		return fmt.Errorf("swf: cannot encode %T", t)
	}
	w.writeRecord(t.Code(), e.bytes())
	return nil
}

func (w *Writer) writeRecord(code TagCode, body []byte) {
	var hdr [6]byte
	if len(body) < 0x3F {
		binary.LittleEndian.PutUint16(hdr[:], uint16(code)<<6|uint16(len(body)))
		w.buf.Write(hdr[:2])
	} else {
		binary.LittleEndian.PutUint16(hdr[:], uint16(code)<<6|0x3F)
		binary.LittleEndian.PutUint32(hdr[2:], uint32(len(body)))
		w.buf.Write(hdr[:])
	}
	w.buf.Write(body)
}

// EncodeMovie wraps a main-timeline tag stream in a movie container using
// h.Compression. UncompressedLength is computed.
func EncodeMovie(h Header, tags []byte) ([]byte, error) {
	e := newEnc(h.Version)
	e.rect(h.StageSize)
	e.u16(uint16(math.Round(h.FrameRate * 256)))
	e.u16(h.NumFrames)
	e.raw(tags)
	payload := e.bytes()

	var out bytes.Buffer
	sig := map[Compression]string{CompressionNone: "FWS", CompressionZlib: "CWS", CompressionLZMA: "ZWS"}[h.Compression]
	if sig == "" {
		return nil, fmt.Errorf("swf: unknown compression %d", h.Compression)
	}
	out.WriteString(sig)
	out.WriteByte(h.Version)
	var n [4]byte
	binary.LittleEndian.PutUint32(n[:], uint32(len(payload)+8))
	out.Write(n[:])

	switch h.Compression {
	case CompressionNone:
		out.Write(payload)
	case CompressionZlib:
		zw := zlib.NewWriter(&out)
		if _, err := zw.Write(payload); err != nil {
			return nil, fmt.Errorf("zlib: %w", err)
		}
		if err := zw.Close(); err != nil {
			return nil, fmt.Errorf("zlib: %w", err)
		}
	case CompressionLZMA:
		var classic bytes.Buffer
		cfg := lzma.WriterConfig{SizeInHeader: true, Size: int64(len(payload))}
		lw, err := cfg.NewWriter(&classic)
		if err != nil {
			return nil, fmt.Errorf("lzma: %w", err)
		}
		if _, err := lw.Write(payload); err != nil {
			return nil, fmt.Errorf("lzma: %w", err)
		}
		if err := lw.Close(); err != nil {
			return nil, fmt.Errorf("lzma: %w", err)
		}
		// Classic layout: 5 property bytes, 8 size bytes, stream.
		c := classic.Bytes()
		binary.LittleEndian.PutUint32(n[:], uint32(len(c)-13))
		out.Write(n[:])
		out.Write(c[:5])
		out.Write(c[13:])
	}
	return out.Bytes(), nil
}

// --- Body encoder ---

type enc struct {
	buf     bytes.Buffer
	version uint8
	cur     byte
	nbits   uint8
}

func newEnc(version uint8) *enc {
	return &enc{version: version}
}

func (e *enc) bytes() []byte {
	e.align()
	return e.buf.Bytes()
}

func (e *enc) align() {
	if e.nbits > 0 {
		e.buf.WriteByte(e.cur << (8 - e.nbits))
		e.cur, e.nbits = 0, 0
	}
}

func (e *enc) raw(p []byte) {
	e.align()
	e.buf.Write(p)
}

func (e *enc) u8(v uint8) {
	e.align()
	e.buf.WriteByte(v)
}

func (e *enc) u16(v uint16) {
	e.align()
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	e.buf.Write(b[:])
}

func (e *enc) u32(v uint32) {
	e.align()
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	e.buf.Write(b[:])
}

func (e *enc) encodeText(s string) []byte {
	if e.version >= 6 {
		return []byte(s)
	}
	out, err := charmap.Windows1252.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return []byte(s)
	}
	return out
}

func (e *enc) str(s string) {
	e.raw(e.encodeText(s))
	e.u8(0)
}

func (e *enc) ub(v uint32, n uint) {
	for i := int(n) - 1; i >= 0; i-- {
		e.cur = e.cur<<1 | byte(v>>uint(i))&1
		e.nbits++
		if e.nbits == 8 {
			e.buf.WriteByte(e.cur)
			e.cur, e.nbits = 0, 0
		}
	}
}

func (e *enc) sb(v int32, n uint) {
	e.ub(uint32(v)&(1<<n-1), n)
}

// signedBits returns the bit width needed to store every value as a signed field.
func signedBits(vs ...int32) uint {
	n := uint(1)
	for _, v := range vs {
		if v < 0 {
			v = ^v
		}
		if w := uint(bits.Len32(uint32(v))) + 1; w > n {
			n = w
		}
	}
	return n
}

func (e *enc) rect(r Rect) {
	e.align()
	n := signedBits(int32(r.XMin), int32(r.XMax), int32(r.YMin), int32(r.YMax))
	e.ub(uint32(n), 5)
	e.sb(int32(r.XMin), n)
	e.sb(int32(r.XMax), n)
	e.sb(int32(r.YMin), n)
	e.sb(int32(r.YMax), n)
	e.align()
}

func (e *enc) rgb(c Color) {
	e.u8(c.R)
	e.u8(c.G)
	e.u8(c.B)
}

func (e *enc) rgba(c Color) {
	e.rgb(c)
	e.u8(c.A)
}

func fixed16(v float64) int32 {
	return int32(math.Round(v * 65536))
}

func (e *enc) matrix(m Matrix) {
	e.align()
	if m.ScaleX != 1 || m.ScaleY != 1 {
		sx, sy := fixed16(m.ScaleX), fixed16(m.ScaleY)
		n := signedBits(sx, sy)
		e.ub(1, 1)
		e.ub(uint32(n), 5)
		e.sb(sx, n)
		e.sb(sy, n)
	} else {
		e.ub(0, 1)
	}
	if m.RotateSkew0 != 0 || m.RotateSkew1 != 0 {
		r0, r1 := fixed16(m.RotateSkew0), fixed16(m.RotateSkew1)
		n := signedBits(r0, r1)
		e.ub(1, 1)
		e.ub(uint32(n), 5)
		e.sb(r0, n)
		e.sb(r1, n)
	} else {
		e.ub(0, 1)
	}
	n := signedBits(int32(m.TranslateX), int32(m.TranslateY))
	e.ub(uint32(n), 5)
	e.sb(int32(m.TranslateX), n)
	e.sb(int32(m.TranslateY), n)
	e.align()
}

func (e *enc) colorTransform(ct ColorTransform, alpha bool) {
	e.align()
	mults := []int32{
		int32(math.Round(ct.RMult * 256)),
		int32(math.Round(ct.GMult * 256)),
		int32(math.Round(ct.BMult * 256)),
	}
	adds := []int32{int32(ct.RAdd), int32(ct.GAdd), int32(ct.BAdd)}
	if alpha {
		mults = append(mults, int32(math.Round(ct.AMult*256)))
		adds = append(adds, int32(ct.AAdd))
	}
	hasMult := false
	for _, m := range mults {
		if m != 256 {
			hasMult = true
		}
	}
	hasAdd := false
	for _, a := range adds {
		if a != 0 {
			hasAdd = true
		}
	}
	var vals []int32
	if hasMult {
		vals = append(vals, mults...)
	}
	if hasAdd {
		vals = append(vals, adds...)
	}
	n := signedBits(vals...)
	e.ub(boolBit(hasAdd), 1)
	e.ub(boolBit(hasMult), 1)
	e.ub(uint32(n), 4)
	for _, v := range vals {
		e.sb(v, n)
	}
	e.align()
}

func boolBit(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

// shapeStyles writes a minimal SHAPEWITHSTYLE: at most one solid fill, no
// line styles and an immediate end record.
func (e *enc) shapeStyles(s DefineShape) {
	if s.HasFill {
		e.u8(1)
		e.u8(0x00)
		if s.Version >= 3 {
			e.rgba(s.Fill)
		} else {
			e.rgb(s.Fill)
		}
	} else {
		e.u8(0)
	}
	e.u8(0)    // line styles
	e.u8(0x10) // 1 fill bit, 0 line bits
	e.u8(0)    // end shape record
}

func (e *enc) placeObject(p PlaceObject) error {
	if p.Version == 1 {
		e.u16(p.Action.ID)
		e.u16(p.Depth)
		m := IdentityMatrix()
		if p.Matrix != nil {
			m = *p.Matrix
		}
		e.matrix(m)
		if p.ColorTransform != nil {
			e.colorTransform(*p.ColorTransform, false)
		}
		return nil
	}

	var flags uint8
	switch p.Action.Kind {
	case PlaceKindPlace:
		flags |= 0x02
	case PlaceKindModify:
		flags |= 0x01
	case PlaceKindReplace:
		flags |= 0x03
	default:
		return fmt.Errorf("swf: unknown place kind %d", p.Action.Kind)
	}
	if p.Matrix != nil {
		flags |= 0x04
	}
	if p.ColorTransform != nil {
		flags |= 0x08
	}
	if p.Ratio != nil {
		flags |= 0x10
	}
	if p.Name != nil {
		flags |= 0x20
	}
	if p.ClipDepth != nil {
		flags |= 0x40
	}
	if len(p.ClipActions) > 0 {
		flags |= 0x80
	}
	e.u8(flags)
	if p.Version == 3 {
		e.u8(0)
	}
	e.u16(p.Depth)
	if flags&0x02 != 0 {
		e.u16(p.Action.ID)
	}
	if p.Matrix != nil {
		e.matrix(*p.Matrix)
	}
	if p.ColorTransform != nil {
		e.colorTransform(*p.ColorTransform, true)
	}
	if p.Ratio != nil {
		e.u16(*p.Ratio)
	}
	if p.Name != nil {
		e.str(*p.Name)
	}
	if p.ClipDepth != nil {
		e.u16(*p.ClipDepth)
	}
	if len(p.ClipActions) > 0 {
		return e.clipActions(p.ClipActions)
	}
	return nil
}

func (e *enc) clipEventFlags(f ClipEventFlag) {
	if e.version <= 5 {
		e.u16(uint16(f))
		return
	}
	e.u32(uint32(f))
}

func (e *enc) clipActions(actions []ClipAction) error {
	var all ClipEventFlag
	for i, a := range actions {
		if e.version <= 5 && a.Events > math.MaxUint16 {
			return fmt.Errorf("clip action %d events %#x in version %d: %w", i, uint32(a.Events), e.version, ErrClipEventWidth)
		}
		all |= a.Events
	}
	e.u16(0)
	e.clipEventFlags(all)
	for _, a := range actions {
		e.clipEventFlags(a.Events)
		length := len(a.Actions)
		if a.Events&ClipEventKeyPress != 0 {
			e.u32(uint32(length + 1))
			e.u8(a.KeyCode)
		} else {
			e.u32(uint32(length))
		}
		e.raw(a.Actions)
	}
	e.clipEventFlags(0)
	return nil
}

func sampleRateIndex(rate uint16) uint8 {
	for i, r := range sampleRates {
		if r == rate {
			return uint8(i)
		}
	}
	return 0
}

func (e *enc) soundFormat(f SoundFormat) {
	v := uint8(f.Compression)<<4 | sampleRateIndex(f.SampleRate)<<2
	if f.Is16Bit {
		v |= 0x02
	}
	if f.IsStereo {
		v |= 0x01
	}
	e.u8(v)
}

func (e *enc) soundInfo(info SoundInfo) {
	var flags uint8
	switch info.Event {
	case SoundEventStop:
		flags |= 0x20
	case SoundEventStartNoMultiple:
		flags |= 0x10
	}
	if info.InSample != nil {
		flags |= 0x01
	}
	if info.OutSample != nil {
		flags |= 0x02
	}
	if info.NumLoops > 1 {
		flags |= 0x04
	}
	if len(info.Envelope) > 0 {
		flags |= 0x08
	}
	e.u8(flags)
	if info.InSample != nil {
		e.u32(*info.InSample)
	}
	if info.OutSample != nil {
		e.u32(*info.OutSample)
	}
	if info.NumLoops > 1 {
		e.u16(info.NumLoops)
	}
	if len(info.Envelope) > 0 {
		e.u8(uint8(len(info.Envelope)))
		for _, p := range info.Envelope {
			e.u32(p.Sample)
			e.u16(uint16(p.LeftVolume * 32768))
			e.u16(uint16(p.RightVolume * 32768))
		}
	}
}

func (e *enc) button(b DefineButton) {
	records := newEnc(e.version)
	for _, r := range b.Records {
		records.u8(uint8(r.States))
		records.u16(r.ID)
		records.u16(r.Depth)
		records.matrix(r.Matrix)
		if b.Version >= 2 {
			records.colorTransform(r.ColorTransform, true)
		}
	}
	records.u8(0)
	rb := records.bytes()

	e.u16(b.ID)
	if b.Version == 1 {
		e.raw(rb)
		for _, a := range b.Actions {
			e.raw(a.Actions)
		}
		return
	}
	var flags uint8
	if b.TrackAsMenu {
		flags = 0x01
	}
	e.u8(flags)
	if len(b.Actions) == 0 {
		e.u16(0)
		e.raw(rb)
		return
	}
	e.u16(uint16(2 + len(rb)))
	e.raw(rb)
	for i, a := range b.Actions {
		size := 0
		if i < len(b.Actions)-1 {
			size = 4 + len(a.Actions)
		}
		e.u16(uint16(size))
		e.u16(uint16(a.Conditions&0x1FF) | uint16(a.KeyCode&0x7F)<<9)
		e.raw(a.Actions)
	}
}
