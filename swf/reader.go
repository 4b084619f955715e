package swf

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

var (
	// ErrMalformedTag is wrapped by ReadTag when a tag body cannot be decoded.
	// The reader has already moved past the tag, so callers may continue.
	ErrMalformedTag = errors.New("swf: malformed tag")

	// ErrUnexpectedEOF is returned when a tag header or body runs past the
	// end of the stream.
	ErrUnexpectedEOF = errors.New("swf: unexpected end of tag stream")
)

// Reader decodes tag records from a shared, immutable tag buffer. The cursor
// is a plain byte offset so callers can save, restore and persist positions.
type Reader struct {
	data    []byte
	pos     int
	version uint8
}

// NewReader returns a reader positioned at the start of data. version is the
// movie's format version and selects version-dependent field widths.
func NewReader(data []byte, version uint8) *Reader {
	return &Reader{data: data, version: version}
}

// Pos returns the current byte offset.
func (r *Reader) Pos() int { return r.pos }

// SetPos moves the cursor. Offsets are clamped to the buffer.
func (r *Reader) SetPos(pos int) {
	switch {
	case pos < 0:
		pos = 0
	case pos > len(r.data):
		pos = len(r.data)
	}
	r.pos = pos
}

// Len returns the size of the underlying buffer.
func (r *Reader) Len() int { return len(r.data) }

// Version returns the movie version the reader decodes for.
func (r *Reader) Version() uint8 { return r.version }

// ReadTagHeader reads a tag's code and body length, leaving the cursor at the
// start of the body. Returns io.EOF at the exact end of the buffer.
func (r *Reader) ReadTagHeader() (TagCode, int, error) {
	if r.pos >= len(r.data) {
		return 0, 0, io.EOF
	}
	if r.pos+2 > len(r.data) {
		return 0, 0, fmt.Errorf("tag header at %d: %w", r.pos, ErrUnexpectedEOF)
	}
	codeAndLength := binary.LittleEndian.Uint16(r.data[r.pos:])
	r.pos += 2
	code := TagCode(codeAndLength >> 6)
	length := int(codeAndLength & 0x3F)
	if length == 0x3F {
		if r.pos+4 > len(r.data) {
			return 0, 0, fmt.Errorf("long tag header at %d: %w", r.pos-2, ErrUnexpectedEOF)
		}
		length = int(binary.LittleEndian.Uint32(r.data[r.pos:]))
		r.pos += 4
	}
	return code, length, nil
}

// Skip advances the cursor by n bytes.
func (r *Reader) Skip(n int) error {
	if n < 0 || r.pos+n > len(r.data) {
		r.pos = len(r.data)
		return fmt.Errorf("skip %d bytes: %w", n, ErrUnexpectedEOF)
	}
	r.pos += n
	return nil
}

// ReadTag decodes the next tag and leaves the cursor at the following tag
// boundary. A body that fails to decode yields an error wrapping
// ErrMalformedTag; the cursor still advances past it.
func (r *Reader) ReadTag() (Tag, error) {
	start := r.pos
	code, length, err := r.ReadTagHeader()
	if err != nil {
		return nil, err
	}
	if r.pos+length > len(r.data) {
		r.pos = len(r.data)
		return nil, fmt.Errorf("tag %d at %d (length %d): %w", code, start, length, ErrUnexpectedEOF)
	}
	b := newBody(r.data[r.pos:r.pos+length], r.version)
	r.pos += length

	tag := decodeTag(code, length, b)
	if b.err != nil {
		return nil, fmt.Errorf("tag %d at %d: %w", code, start, b.err)
	}
	return tag, nil
}

func decodeTag(code TagCode, length int, b *body) Tag {
	switch code {
	case TagEnd:
		return End{}
	case TagShowFrame:
		return ShowFrame{}
	case TagSetBackgroundColor:
		return SetBackgroundColor{Color: b.rgb()}
	case TagDefineShape:
		return decodeDefineShape(b, 1)
	case TagDefineShape2:
		return decodeDefineShape(b, 2)
	case TagDefineShape3:
		return decodeDefineShape(b, 3)
	case TagDefineShape4:
		return decodeDefineShape(b, 4)
	case TagDefineSprite:
		return DefineSprite{ID: b.u16(), NumFrames: b.u16()}
	case TagPlaceObject:
		return decodePlaceObject1(b)
	case TagPlaceObject2:
		return decodePlaceObject(b, 2)
	case TagPlaceObject3:
		return decodePlaceObject(b, 3)
	case TagRemoveObject:
		id := b.u16()
		return RemoveObject{CharacterID: &id, Depth: b.u16()}
	case TagRemoveObject2:
		return RemoveObject{Depth: b.u16()}
	case TagSoundStreamHead, TagSoundStreamHead2:
		head := SoundStreamHead{Version: 1}
		if code == TagSoundStreamHead2 {
			head.Version = 2
		}
		head.Info.Playback = b.playbackFormat()
		head.Info.Stream = b.soundFormat()
		head.Info.SamplesPerBlock = b.u16()
		if head.Info.Stream.Compression == AudioMP3 && b.remaining() >= 2 {
			head.Info.LatencySeek = b.i16()
		}
		return head
	case TagSoundStreamBlock:
		return SoundStreamBlock{Data: b.rest()}
	case TagDefineSound:
		return DefineSound{ID: b.u16(), Format: b.soundFormat(), SampleCount: b.u32(), Data: b.rest()}
	case TagStartSound:
		return StartSound{ID: b.u16(), Info: b.soundInfo()}
	case TagDoAction:
		return DoAction{Actions: b.rest()}
	case TagDoInitAction:
		return DoInitAction{ID: b.u16(), Actions: b.rest()}
	case TagFrameLabel:
		label := FrameLabel{Label: b.str()}
		if b.remaining() > 0 {
			label.Anchor = b.u8() == 1
		}
		return label
	case TagDefineButton:
		return decodeDefineButton1(b)
	case TagDefineButton2:
		return decodeDefineButton2(b)
	case TagDefineMorphShape:
		return decodeDefineMorphShape(b, 1)
	case TagDefineMorphShape2:
		return decodeDefineMorphShape(b, 2)
	case TagDefineFont:
		return decodeDefineFont1(b)
	case TagDefineFont2:
		return decodeDefineFont2(b, 2)
	case TagDefineFont3:
		return decodeDefineFont2(b, 3)
	}
	return Unknown{TagCode: code, Length: length}
}

func decodeDefineShape(b *body, version int) DefineShape {
	s := DefineShape{Version: version, ID: b.u16(), Bounds: b.rect()}
	if version == 4 {
		b.rect() // edge bounds
		b.u8()   // stroke flags
	}
	s.Records = b.rest()

	// Only the first fill style is inspected, from a private view of the records.
	styles := newBody(s.Records, b.version)
	count := int(styles.u8())
	if count == 0xFF && version >= 2 {
		count = int(styles.u16())
	}
	if count > 0 && styles.u8() == 0x00 {
		if version >= 3 {
			s.Fill = styles.rgba()
		} else {
			s.Fill = styles.rgb()
		}
		s.HasFill = styles.err == nil
	}
	return s
}

func decodePlaceObject1(b *body) PlaceObject {
	p := PlaceObject{Version: 1}
	p.Action = PlaceObjectAction{Kind: PlaceKindPlace, ID: b.u16()}
	p.Depth = b.u16()
	m := b.matrix()
	p.Matrix = &m
	if b.remaining() > 0 {
		ct := b.colorTransform(false)
		p.ColorTransform = &ct
	}
	return p
}

func decodePlaceObject(b *body, version int) PlaceObject {
	p := PlaceObject{Version: version}
	flags := b.u8()
	var flags2 uint8
	if version == 3 {
		flags2 = b.u8()
	}
	p.Depth = b.u16()

	if version == 3 && (flags2&0x08 != 0 || (flags2&0x10 != 0 && flags&0x02 != 0)) {
		b.str() // class name
	}

	move := flags&0x01 != 0
	hasCharacter := flags&0x02 != 0
	var id CharacterID
	if hasCharacter {
		id = b.u16()
	}
	switch {
	case move && hasCharacter:
		p.Action = PlaceObjectAction{Kind: PlaceKindReplace, ID: id}
	case hasCharacter:
		p.Action = PlaceObjectAction{Kind: PlaceKindPlace, ID: id}
	case move:
		p.Action = PlaceObjectAction{Kind: PlaceKindModify}
	default:
		if b.err == nil {
			b.err = fmt.Errorf("%w: place object without move or character", ErrMalformedTag)
		}
		return p
	}

	if flags&0x04 != 0 {
		m := b.matrix()
		p.Matrix = &m
	}
	if flags&0x08 != 0 {
		ct := b.colorTransform(true)
		p.ColorTransform = &ct
	}
	if flags&0x10 != 0 {
		ratio := b.u16()
		p.Ratio = &ratio
	}
	if flags&0x20 != 0 {
		name := b.str()
		p.Name = &name
	}
	if flags&0x40 != 0 {
		depth := b.u16()
		p.ClipDepth = &depth
	}
	if version == 3 {
		if flags2&0x01 != 0 {
			// Filter lists are not decoded, so nothing after them can be located.
			return p
		}
		if flags2&0x02 != 0 {
			b.u8() // blend mode
		}
		if flags2&0x04 != 0 && b.remaining() > 0 {
			b.u8() // bitmap cache
		}
	}
	if flags&0x80 != 0 {
		p.ClipActions = b.clipActions()
	}
	return p
}

func decodeDefineButton1(b *body) DefineButton {
	btn := DefineButton{Version: 1, ID: b.u16()}
	btn.Records = b.buttonRecords(1)
	if actions := b.rest(); len(actions) > 0 {
		btn.Actions = []ButtonAction{{Conditions: ButtonOverDownToOverUp, Actions: actions}}
	}
	return btn
}

func decodeDefineButton2(b *body) DefineButton {
	btn := DefineButton{Version: 2, ID: b.u16()}
	btn.TrackAsMenu = b.u8()&0x01 != 0
	actionOffset := b.u16()
	btn.Records = b.buttonRecords(2)
	if actionOffset == 0 {
		return btn
	}
	for b.err == nil && b.remaining() > 0 {
		size := int(b.u16())
		cond := b.u16()
		action := ButtonAction{
			Conditions: ButtonCondition(cond & 0x1FF),
			KeyCode:    uint8((cond >> 9) & 0x7F),
		}
		if size == 0 {
			action.Actions = b.rest()
		} else {
			action.Actions = b.bytes(size - 4)
		}
		btn.Actions = append(btn.Actions, action)
		if size == 0 {
			break
		}
	}
	return btn
}

func decodeDefineMorphShape(b *body, version int) DefineMorphShape {
	m := DefineMorphShape{Version: version, ID: b.u16()}
	m.StartBounds = b.rect()
	m.EndBounds = b.rect()
	if version == 2 {
		b.rect() // start edge bounds
		b.rect() // end edge bounds
		b.u8()   // flags
	}
	b.u32() // offset to end edges
	count := int(b.u8())
	if count == 0xFF {
		count = int(b.u16())
	}
	if count > 0 && b.u8() == 0x00 {
		m.StartFill = b.rgba()
		m.EndFill = b.rgba()
		m.HasFill = b.err == nil
	}
	b.rest()
	return m
}

func decodeDefineFont1(b *body) DefineFont {
	f := DefineFont{Version: 1, ID: b.u16()}
	if b.remaining() >= 2 {
		f.NumGlyphs = int(b.u16()) / 2
	}
	b.rest()
	return f
}

func decodeDefineFont2(b *body, version int) DefineFont {
	f := DefineFont{Version: version, ID: b.u16()}
	flags := b.u8()
	f.Bold = flags&0x01 != 0
	f.Italic = flags&0x02 != 0
	b.u8() // language code
	nameLen := int(b.u8())
	name := b.bytes(nameLen)
	for len(name) > 0 && name[len(name)-1] == 0 {
		name = name[:len(name)-1]
	}
	f.Name = b.decodeText(name)
	f.NumGlyphs = int(b.u16())
	b.rest()
	return f
}
