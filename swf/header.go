package swf

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/ulikunitz/xz/lzma"
)

// ErrInvalidHeader is returned when the movie header cannot be parsed.
var ErrInvalidHeader = errors.New("swf: invalid movie header")

// Compression is the container compression named by the signature.
type Compression uint8

const (
	CompressionNone Compression = iota // "FWS"
	CompressionZlib                    // "CWS"
	CompressionLZMA                    // "ZWS"
)

func (c Compression) String() string {
	switch c {
	case CompressionZlib:
		return "zlib"
	case CompressionLZMA:
		return "lzma"
	}
	return "none"
}

// Header is the movie-wide header.
type Header struct {
	Compression        Compression
	Version            uint8
	UncompressedLength uint32
	StageSize          Rect
	FrameRate          float64 // frames per second, 8.8 fixed point in the stream
	NumFrames          uint16
}

// Movie is a decoded movie: its header plus the raw tag stream of the main
// timeline. Tag offsets used by readers are relative to Data.
type Movie struct {
	Header Header
	Data   []byte

	// DecompressErr is set when the body could only be partially
	// decompressed. Data then holds whatever was recovered.
	DecompressErr error
}

// NewReader returns a tag reader over the movie's main timeline.
func (m *Movie) NewReader() *Reader {
	return NewReader(m.Data, m.Header.Version)
}

// DecodeMovie parses the container header and decompresses the body. Only a
// header that cannot be parsed is fatal; a decompression failure is reported
// through Movie.DecompressErr.
func DecodeMovie(data []byte) (*Movie, error) {
	if len(data) < 8 {
		return nil, fmt.Errorf("%w: %d bytes", ErrInvalidHeader, len(data))
	}
	h := Header{
		Version:            data[3],
		UncompressedLength: binary.LittleEndian.Uint32(data[4:8]),
	}
	switch string(data[:3]) {
	case "FWS":
		h.Compression = CompressionNone
	case "CWS":
		h.Compression = CompressionZlib
	case "ZWS":
		h.Compression = CompressionLZMA
	default:
		return nil, fmt.Errorf("%w: signature %q", ErrInvalidHeader, data[:3])
	}

	raw, decompressErr := decompress(h, data)
	if len(raw) == 0 && decompressErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidHeader, decompressErr)
	}

	b := newBody(raw, h.Version)
	h.StageSize = b.rect()
	h.FrameRate = float64(b.u16()) / 256
	h.NumFrames = b.u16()
	if b.err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidHeader, b.err)
	}
	return &Movie{Header: h, Data: raw[b.off:], DecompressErr: decompressErr}, nil
}

// decompress returns the bytes following the 8-byte signature block.
func decompress(h Header, data []byte) ([]byte, error) {
	size := 0
	if h.UncompressedLength > 8 {
		size = int(h.UncompressedLength) - 8
	}
	switch h.Compression {
	case CompressionZlib:
		zr, err := zlib.NewReader(bytes.NewReader(data[8:]))
		if err != nil {
			return nil, fmt.Errorf("zlib: %w", err)
		}
		defer zr.Close()
		return readRecovered(zr, size, "zlib")
	case CompressionLZMA:
		// ZWS stores a 4-byte compressed length, then the 5 property bytes
		// and the raw stream. The classic LZMA header is rebuilt around them.
		if len(data) < 17 {
			return nil, fmt.Errorf("lzma: %w", io.ErrUnexpectedEOF)
		}
		hdr := make([]byte, 13)
		copy(hdr, data[12:17])
		binary.LittleEndian.PutUint64(hdr[5:], uint64(size))
		lr, err := lzma.NewReader(io.MultiReader(bytes.NewReader(hdr), bytes.NewReader(data[17:])))
		if err != nil {
			return nil, fmt.Errorf("lzma: %w", err)
		}
		return readRecovered(lr, size, "lzma")
	}
	return data[8:], nil
}

// maxSizeHint bounds the preallocation trusted from the header length field.
const maxSizeHint = 16 << 20

// readRecovered reads r to the end and keeps whatever arrived before an error.
func readRecovered(r io.Reader, sizeHint int, codec string) ([]byte, error) {
	if sizeHint > maxSizeHint {
		sizeHint = maxSizeHint
	}
	buf := bytes.NewBuffer(make([]byte, 0, sizeHint))
	_, err := io.Copy(buf, r)
	if err != nil {
		return buf.Bytes(), fmt.Errorf("%s: %w", codec, err)
	}
	return buf.Bytes(), nil
}
