package swf

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/text/encoding/charmap"
)

// body reads the fields of one tag body. Reads past the end record a
// sticky error and return zero values, so decoders check err once at the end.
type body struct {
	data    []byte
	off     int
	version uint8

	bits    byte
	bitLeft uint8

	err error
}

func newBody(data []byte, version uint8) *body {
	return &body{data: data, version: version}
}

func (b *body) fail(what string) {
	if b.err == nil {
		b.err = fmt.Errorf("%w: truncated %s at offset %d", ErrMalformedTag, what, b.off)
	}
}

func (b *body) remaining() int {
	return len(b.data) - b.off
}

// align discards any partially consumed byte.
func (b *body) align() {
	b.bitLeft = 0
}

func (b *body) u8() uint8 {
	b.align()
	if b.off >= len(b.data) {
		b.fail("u8")
		return 0
	}
	v := b.data[b.off]
	b.off++
	return v
}

func (b *body) u16() uint16 {
	b.align()
	if b.off+2 > len(b.data) {
		b.fail("u16")
		b.off = len(b.data)
		return 0
	}
	v := binary.LittleEndian.Uint16(b.data[b.off:])
	b.off += 2
	return v
}

func (b *body) i16() int16 {
	return int16(b.u16())
}

func (b *body) u32() uint32 {
	b.align()
	if b.off+4 > len(b.data) {
		b.fail("u32")
		b.off = len(b.data)
		return 0
	}
	v := binary.LittleEndian.Uint32(b.data[b.off:])
	b.off += 4
	return v
}

// bytes returns the next n bytes without copying.
func (b *body) bytes(n int) []byte {
	b.align()
	if n < 0 || b.off+n > len(b.data) {
		b.fail("byte block")
		b.off = len(b.data)
		return nil
	}
	v := b.data[b.off : b.off+n]
	b.off += n
	return v
}

// rest returns the unread remainder of the body.
func (b *body) rest() []byte {
	b.align()
	v := b.data[b.off:]
	b.off = len(b.data)
	return v
}

// str reads a null-terminated string. Movies before version 6 store text in
// the platform code page, which is decoded as Windows-1252.
func (b *body) str() string {
	b.align()
	start := b.off
	for b.off < len(b.data) {
		if b.data[b.off] == 0 {
			raw := b.data[start:b.off]
			b.off++
			return b.decodeText(raw)
		}
		b.off++
	}
	b.fail("string")
	return b.decodeText(b.data[start:])
}

func (b *body) decodeText(raw []byte) string {
	if b.version >= 6 || len(raw) == 0 {
		return string(raw)
	}
	ascii := true
	for _, c := range raw {
		if c >= 0x80 {
			ascii = false
			break
		}
	}
	if ascii {
		return string(raw)
	}
	decoded, err := charmap.Windows1252.NewDecoder().Bytes(raw)
	if err != nil {
		return string(raw)
	}
	return string(decoded)
}

// --- Bit fields ---

func (b *body) ub(n uint) uint32 {
	var v uint32
	for i := uint(0); i < n; i++ {
		if b.bitLeft == 0 {
			if b.off >= len(b.data) {
				b.fail("bit field")
				return 0
			}
			b.bits = b.data[b.off]
			b.off++
			b.bitLeft = 8
		}
		b.bitLeft--
		v = v<<1 | uint32(b.bits>>b.bitLeft)&1
	}
	return v
}

func (b *body) sb(n uint) int32 {
	v := b.ub(n)
	if n > 0 && n < 32 && v&(1<<(n-1)) != 0 {
		v |= ^uint32(0) << n
	}
	return int32(v)
}

// fb reads a signed 16.16 fixed point bit field.
func (b *body) fb(n uint) float64 {
	return float64(b.sb(n)) / 65536
}

func (b *body) flag() bool {
	return b.ub(1) == 1
}

// --- Records ---

func (b *body) rect() Rect {
	b.align()
	n := uint(b.ub(5))
	r := Rect{
		XMin: Twips(b.sb(n)),
		XMax: Twips(b.sb(n)),
		YMin: Twips(b.sb(n)),
		YMax: Twips(b.sb(n)),
	}
	b.align()
	return r
}

func (b *body) rgb() Color {
	return Color{R: b.u8(), G: b.u8(), B: b.u8(), A: 255}
}

func (b *body) rgba() Color {
	return Color{R: b.u8(), G: b.u8(), B: b.u8(), A: b.u8()}
}

func (b *body) matrix() Matrix {
	b.align()
	m := IdentityMatrix()
	if b.flag() {
		n := uint(b.ub(5))
		m.ScaleX = b.fb(n)
		m.ScaleY = b.fb(n)
	}
	if b.flag() {
		n := uint(b.ub(5))
		m.RotateSkew0 = b.fb(n)
		m.RotateSkew1 = b.fb(n)
	}
	n := uint(b.ub(5))
	m.TranslateX = Twips(b.sb(n))
	m.TranslateY = Twips(b.sb(n))
	b.align()
	return m
}

// colorTransform reads a CXFORM, or a CXFORMWITHALPHA when alpha is set.
func (b *body) colorTransform(alpha bool) ColorTransform {
	b.align()
	ct := IdentityColorTransform()
	hasAdd := b.flag()
	hasMult := b.flag()
	n := uint(b.ub(4))
	if hasMult {
		ct.RMult = float64(b.sb(n)) / 256
		ct.GMult = float64(b.sb(n)) / 256
		ct.BMult = float64(b.sb(n)) / 256
		if alpha {
			ct.AMult = float64(b.sb(n)) / 256
		}
	}
	if hasAdd {
		ct.RAdd = int16(b.sb(n))
		ct.GAdd = int16(b.sb(n))
		ct.BAdd = int16(b.sb(n))
		if alpha {
			ct.AAdd = int16(b.sb(n))
		}
	}
	b.align()
	return ct
}

func (b *body) soundFormat() SoundFormat {
	flags := b.u8()
	return SoundFormat{
		Compression: AudioCompression(flags >> 4),
		SampleRate:  sampleRates[(flags>>2)&0x3],
		Is16Bit:     flags&0x2 != 0,
		IsStereo:    flags&0x1 != 0,
	}
}

// playbackFormat reads the playback half of a stream head, whose codec bits
// are reserved.
func (b *body) playbackFormat() SoundFormat {
	f := b.soundFormat()
	f.Compression = AudioUncompressed
	return f
}

func (b *body) soundInfo() SoundInfo {
	flags := b.u8()
	var info SoundInfo
	switch {
	case flags&0x20 != 0:
		info.Event = SoundEventStop
	case flags&0x10 != 0:
		info.Event = SoundEventStartNoMultiple
	default:
		info.Event = SoundEventStart
	}
	if flags&0x01 != 0 {
		v := b.u32()
		info.InSample = &v
	}
	if flags&0x02 != 0 {
		v := b.u32()
		info.OutSample = &v
	}
	info.NumLoops = 1
	if flags&0x04 != 0 {
		info.NumLoops = b.u16()
	}
	if flags&0x08 != 0 {
		count := int(b.u8())
		info.Envelope = make([]SoundEnvelopePoint, 0, count)
		for i := 0; i < count && b.err == nil; i++ {
			info.Envelope = append(info.Envelope, SoundEnvelopePoint{
				Sample:      b.u32(),
				LeftVolume:  float32(b.u16()) / 32768,
				RightVolume: float32(b.u16()) / 32768,
			})
		}
	}
	return info
}

// clipEventFlags reads the event bit set, which is 16 bits wide before version 6.
func (b *body) clipEventFlags() ClipEventFlag {
	if b.version <= 5 {
		return ClipEventFlag(b.u16())
	}
	return ClipEventFlag(b.u32())
}

func (b *body) clipActions() []ClipAction {
	b.u16() // reserved
	b.clipEventFlags()
	var out []ClipAction
	for b.err == nil && b.remaining() > 0 {
		events := b.clipEventFlags()
		if events == 0 {
			break
		}
		length := int(b.u32())
		var key uint8
		if events&ClipEventKeyPress != 0 {
			key = b.u8()
			length--
		}
		out = append(out, ClipAction{Events: events, KeyCode: key, Actions: b.bytes(length)})
	}
	return out
}

func (b *body) buttonRecords(version int) []ButtonRecord {
	var out []ButtonRecord
	for b.err == nil {
		flags := b.u8()
		if flags == 0 {
			break
		}
		rec := ButtonRecord{
			States:         ButtonState(flags & 0x0F),
			ID:             b.u16(),
			Depth:          b.u16(),
			Matrix:         b.matrix(),
			ColorTransform: IdentityColorTransform(),
		}
		if version >= 2 {
			rec.ColorTransform = b.colorTransform(true)
			if flags&0x10 != 0 {
				b.fail("button filter list")
				break
			}
			if flags&0x20 != 0 {
				b.u8() // blend mode
			}
		}
		out = append(out, rec)
	}
	return out
}
