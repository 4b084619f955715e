package swf

import (
	"bytes"
	"errors"
	"testing"
)

func testTags(t *testing.T) []byte {
	t.Helper()
	w := NewWriter(8)
	mustWrite(t, w,
		SetBackgroundColor{Color: Color{R: 1, G: 2, B: 3, A: 255}},
		ShowFrame{},
		End{},
	)
	return w.Bytes()
}

func TestDecodeMovieCompression(t *testing.T) {
	tags := testTags(t)
	for _, c := range []Compression{CompressionNone, CompressionZlib, CompressionLZMA} {
		t.Run(c.String(), func(t *testing.T) {
			h := Header{
				Compression: c,
				Version:     8,
				StageSize:   Rect{XMax: 550 * 20, YMax: 400 * 20},
				FrameRate:   24,
				NumFrames:   1,
			}
			data, err := EncodeMovie(h, tags)
			if err != nil {
				t.Fatal(err)
			}
			m, err := DecodeMovie(data)
			if err != nil {
				t.Fatal(err)
			}
			if m.DecompressErr != nil {
				t.Errorf("DecompressErr = %v", m.DecompressErr)
			}
			if m.Header.Compression != c {
				t.Errorf("Compression = %v, want %v", m.Header.Compression, c)
			}
			if m.Header.Version != 8 {
				t.Errorf("Version = %d, want 8", m.Header.Version)
			}
			if m.Header.FrameRate != 24 {
				t.Errorf("FrameRate = %v, want 24", m.Header.FrameRate)
			}
			if m.Header.StageSize.Width().Pixels() != 550 || m.Header.StageSize.Height().Pixels() != 400 {
				t.Errorf("StageSize = %+v", m.Header.StageSize)
			}
			if !bytes.Equal(m.Data, tags) {
				t.Errorf("Data = %x, want %x", m.Data, tags)
			}
		})
	}
}

func TestDecodeMovieFractionalFrameRate(t *testing.T) {
	data, err := EncodeMovie(Header{Version: 6, FrameRate: 29.97, NumFrames: 1}, nil)
	if err != nil {
		t.Fatal(err)
	}
	m, err := DecodeMovie(data)
	if err != nil {
		t.Fatal(err)
	}
	// 8.8 fixed point keeps 1/256 precision.
	if got := m.Header.FrameRate; got < 29.96 || got > 29.98 {
		t.Errorf("FrameRate = %v, want ~29.97", got)
	}
}

func TestDecodeMovieInvalidHeader(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"short", []byte("FWS")},
		{"signature", []byte("XYZ\x08\x10\x00\x00\x00\x00\x00\x00\x00")},
		{"no stage", []byte("FWS\x08\x09\x00\x00\x00")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodeMovie(tt.data); !errors.Is(err, ErrInvalidHeader) {
				t.Errorf("DecodeMovie = %v, want ErrInvalidHeader", err)
			}
		})
	}
}

func TestDecodeMovieTruncatedZlibRecovers(t *testing.T) {
	w := NewWriter(8)
	for i := 0; i < 200; i++ {
		mustWrite(t, w, DoAction{Actions: bytes.Repeat([]byte{byte(i)}, 40)}, ShowFrame{})
	}
	data, err := EncodeMovie(Header{Compression: CompressionZlib, Version: 8, FrameRate: 12, NumFrames: 200}, w.Bytes())
	if err != nil {
		t.Fatal(err)
	}

	m, err := DecodeMovie(data[:len(data)*3/4])
	if err != nil {
		t.Fatalf("DecodeMovie: %v", err)
	}
	if m.DecompressErr == nil {
		t.Error("DecompressErr = nil, want an error for truncated body")
	}
	if len(m.Data) == 0 {
		t.Error("no bytes recovered")
	}
	if !bytes.HasPrefix(w.Bytes(), m.Data) {
		t.Error("recovered bytes are not a prefix of the original tag stream")
	}
}
