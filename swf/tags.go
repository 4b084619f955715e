package swf

// TagCode identifies the type of a tag record.
type TagCode uint16

const (
	TagEnd                TagCode = 0
	TagShowFrame          TagCode = 1
	TagDefineShape        TagCode = 2
	TagPlaceObject        TagCode = 4
	TagRemoveObject       TagCode = 5
	TagDefineBits         TagCode = 6
	TagDefineButton       TagCode = 7
	TagJPEGTables         TagCode = 8
	TagSetBackgroundColor TagCode = 9
	TagDefineFont         TagCode = 10
	TagDefineText         TagCode = 11
	TagDoAction           TagCode = 12
	TagDefineFontInfo     TagCode = 13
	TagDefineSound        TagCode = 14
	TagStartSound         TagCode = 15
	TagDefineButtonSound  TagCode = 17
	TagSoundStreamHead    TagCode = 18
	TagSoundStreamBlock   TagCode = 19
	TagDefineShape2       TagCode = 22
	TagPlaceObject2       TagCode = 26
	TagRemoveObject2      TagCode = 28
	TagDefineShape3       TagCode = 32
	TagDefineButton2      TagCode = 34
	TagDefineSprite       TagCode = 39
	TagFrameLabel         TagCode = 43
	TagSoundStreamHead2   TagCode = 45
	TagDefineMorphShape   TagCode = 46
	TagDefineFont2        TagCode = 48
	TagDoInitAction       TagCode = 59
	TagPlaceObject3       TagCode = 70
	TagDefineFont3        TagCode = 75
	TagDefineShape4       TagCode = 83
	TagDefineMorphShape2  TagCode = 84
)

// CharacterID is the library key of a character definition.
type CharacterID = uint16

// Tag is one decoded record of the tag stream.
type Tag interface {
	Code() TagCode
}

// End marks the end of a tag list.
type End struct{}

// ShowFrame ends the tag batch of the current frame.
type ShowFrame struct{}

// SetBackgroundColor sets the stage background.
type SetBackgroundColor struct {
	Color Color
}

// DefineShape defines a vector graphic. Only the bounds and the first solid
// fill are decoded; the shape records themselves are kept as raw bytes.
type DefineShape struct {
	Version int
	ID      CharacterID
	Bounds  Rect
	Fill    Color
	HasFill bool
	Records []byte
}

// DefineSprite defines a nested timeline. Its tags are not decoded here;
// the timeline interpreter reads them lazily from the parent buffer.
type DefineSprite struct {
	ID        CharacterID
	NumFrames uint16
}

// PlaceKind selects how a PlaceObject tag resolves its target.
type PlaceKind uint8

const (
	PlaceKindPlace   PlaceKind = iota // instantiate a new character at an empty depth
	PlaceKindModify                   // update the existing occupant of a depth
	PlaceKindReplace                  // swap the occupant for a new character
)

// PlaceObjectAction is the resolution part of a PlaceObject tag.
type PlaceObjectAction struct {
	Kind PlaceKind
	ID   CharacterID
}

// PlaceObject places, modifies or replaces a character at a depth. Nil
// optional fields leave the corresponding property untouched.
type PlaceObject struct {
	Version        int
	Action         PlaceObjectAction
	Depth          uint16
	Matrix         *Matrix
	ColorTransform *ColorTransform
	Ratio          *uint16
	Name           *string
	ClipDepth      *uint16
	ClipActions    []ClipAction
}

// RemoveObject removes the occupant of a depth. CharacterID is only present
// in the version 1 tag.
type RemoveObject struct {
	Depth       uint16
	CharacterID *CharacterID
}

// SoundStreamHead announces the streaming sound format of a timeline.
type SoundStreamHead struct {
	Version int
	Info    SoundStreamInfo
}

// SoundStreamBlock carries one frame's worth of streaming sound data.
type SoundStreamBlock struct {
	Data []byte
}

// DefineSound defines an event sound.
type DefineSound struct {
	ID          CharacterID
	Format      SoundFormat
	SampleCount uint32
	Data        []byte
}

// StartSound starts or stops an event sound.
type StartSound struct {
	ID   CharacterID
	Info SoundInfo
}

// DoAction carries frame script bytecode.
type DoAction struct {
	Actions []byte
}

// DoInitAction carries one-time initialization bytecode for a sprite.
type DoInitAction struct {
	ID      CharacterID
	Actions []byte
}

// FrameLabel names the frame it appears in.
type FrameLabel struct {
	Label  string
	Anchor bool
}

// DefineButton defines a button (version 1 or 2).
type DefineButton struct {
	Version     int
	ID          CharacterID
	TrackAsMenu bool
	Records     []ButtonRecord
	Actions     []ButtonAction
}

// DefineMorphShape defines a shape tween between two keyframe shapes.
type DefineMorphShape struct {
	Version     int
	ID          CharacterID
	StartBounds Rect
	EndBounds   Rect
	StartFill   Color
	EndFill     Color
	HasFill     bool
}

// DefineFont defines a font (versions 1 to 3). Glyph outlines are not decoded.
type DefineFont struct {
	Version   int
	ID        CharacterID
	Name      string
	NumGlyphs int
	Bold      bool
	Italic    bool
}

// Unknown is any tag this decoder does not interpret.
type Unknown struct {
	TagCode TagCode
	Length  int
}

func (End) Code() TagCode                { return TagEnd }
func (ShowFrame) Code() TagCode          { return TagShowFrame }
func (SetBackgroundColor) Code() TagCode { return TagSetBackgroundColor }
func (DefineSprite) Code() TagCode       { return TagDefineSprite }
func (SoundStreamBlock) Code() TagCode   { return TagSoundStreamBlock }
func (DefineSound) Code() TagCode        { return TagDefineSound }
func (StartSound) Code() TagCode         { return TagStartSound }
func (DoAction) Code() TagCode           { return TagDoAction }
func (DoInitAction) Code() TagCode       { return TagDoInitAction }
func (FrameLabel) Code() TagCode         { return TagFrameLabel }
func (t Unknown) Code() TagCode          { return t.TagCode }

func (t DefineShape) Code() TagCode {
	switch t.Version {
	case 2:
		return TagDefineShape2
	case 3:
		return TagDefineShape3
	case 4:
		return TagDefineShape4
	}
	return TagDefineShape
}

func (t RemoveObject) Code() TagCode {
	if t.CharacterID != nil {
		return TagRemoveObject
	}
	return TagRemoveObject2
}

func (t PlaceObject) Code() TagCode {
	switch t.Version {
	case 1:
		return TagPlaceObject
	case 3:
		return TagPlaceObject3
	}
	return TagPlaceObject2
}

func (t SoundStreamHead) Code() TagCode {
	if t.Version == 2 {
		return TagSoundStreamHead2
	}
	return TagSoundStreamHead
}

func (t DefineButton) Code() TagCode {
	if t.Version == 1 {
		return TagDefineButton
	}
	return TagDefineButton2
}

func (t DefineMorphShape) Code() TagCode {
	if t.Version == 2 {
		return TagDefineMorphShape2
	}
	return TagDefineMorphShape
}

func (t DefineFont) Code() TagCode {
	switch t.Version {
	case 2:
		return TagDefineFont2
	case 3:
		return TagDefineFont3
	}
	return TagDefineFont
}
