// Package riff implements RIFF chunk framing for WAV/AVI-family files:
// the "RIFF"/form-type header, 4CC+size chunk walking with even-byte
// padding, the "LIST"/"INFO" metadata sub-chunk convention, and the
// "id3 "/"ID3 " chunk that carries an embedded ID3v2 tag, per spec.md
// §4.6. Grounded on the RIFF chunk-walking conventions in
// anaray-fq__format-riff-avi.go (4CC chunk IDs, LIST sub-chunk
// recursion, odd-length chunk padding byte), generalized from that
// file's AVI-specific stream demuxing down to the plain chunk tree WAV
// needs, since no example repo tags WAV/INFO chunks directly.
package riff

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/go-tagkit/tagkit/tagmodel"
)

// Chunk is one RIFF chunk: its 4CC ID and raw payload. LIST chunks
// additionally carry a ListType (the 4 bytes immediately following the
// chunk size) and their own nested Chunks.
type Chunk struct {
	ID       string
	ListType string // set only when ID == "LIST"
	Data     []byte // leaf payload; nil when ListType is set
	Chunks   []Chunk
}

// File is a parsed RIFF container: its form type ("WAVE", "AVI ", ...)
// and top-level chunks.
type File struct {
	FormType string
	Chunks   []Chunk
}

// ErrNoMagic is returned when b does not begin with "RIFF".
var ErrNoMagic = errors.New("riff: missing 'RIFF' magic")

// Parse decodes a whole RIFF container from b.
func Parse(b []byte) (*File, error) {
	if len(b) < 12 || string(b[0:4]) != "RIFF" {
		return nil, ErrNoMagic
	}
	size := binary.LittleEndian.Uint32(b[4:8])
	formType := string(b[8:12])
	end := 8 + int(size)
	if end > len(b) {
		end = len(b)
	}
	chunks, err := parseChunks(b[12:end])
	if err != nil {
		return nil, err
	}
	return &File{FormType: formType, Chunks: chunks}, nil
}

func parseChunks(b []byte) ([]Chunk, error) {
	var out []Chunk
	off := 0
	for off+8 <= len(b) {
		id := string(b[off : off+4])
		size := binary.LittleEndian.Uint32(b[off+4 : off+8])
		bodyStart := off + 8
		bodyEnd := bodyStart + int(size)
		if bodyEnd > len(b) {
			return nil, errors.Errorf("riff: chunk %q declares size %d, buffer has %d remaining", id, size, len(b)-bodyStart)
		}
		body := b[bodyStart:bodyEnd]

		c := Chunk{ID: id}
		if id == "LIST" {
			if len(body) < 4 {
				return nil, errors.New("riff: truncated LIST chunk")
			}
			c.ListType = string(body[0:4])
			children, err := parseChunks(body[4:])
			if err != nil {
				return nil, errors.Wrap(err, "riff: LIST children")
			}
			c.Chunks = children
		} else {
			c.Data = append([]byte(nil), body...)
		}
		out = append(out, c)

		off = bodyEnd
		if size%2 == 1 {
			off++ // chunks are padded to an even byte boundary
		}
	}
	return out, nil
}

// Render serializes f back to a whole RIFF container.
func Render(f *File) []byte {
	body := renderChunks(f.Chunks)
	out := make([]byte, 0, 12+len(body))
	out = append(out, []byte("RIFF")...)
	var sizeBytes [4]byte
	binary.LittleEndian.PutUint32(sizeBytes[:], uint32(4+len(body)))
	out = append(out, sizeBytes[:]...)
	out = append(out, []byte(f.FormType)...)
	out = append(out, body...)
	return out
}

func renderChunks(chunks []Chunk) []byte {
	var out []byte
	for _, c := range chunks {
		var body []byte
		if c.ID == "LIST" {
			body = append([]byte(c.ListType), renderChunks(c.Chunks)...)
		} else {
			body = c.Data
		}
		var header [8]byte
		copy(header[0:4], c.ID)
		binary.LittleEndian.PutUint32(header[4:8], uint32(len(body)))
		out = append(out, header[:]...)
		out = append(out, body...)
		if len(body)%2 == 1 {
			out = append(out, 0)
		}
	}
	return out
}

// Find returns the first top-level chunk with the given ID.
func (f *File) Find(id string) *Chunk {
	for i := range f.Chunks {
		if f.Chunks[i].ID == id {
			return &f.Chunks[i]
		}
	}
	return nil
}

// FindList returns the first top-level LIST chunk with the given list
// type (e.g. "INFO").
func (f *File) FindList(listType string) *Chunk {
	for i := range f.Chunks {
		if f.Chunks[i].ID == "LIST" && f.Chunks[i].ListType == listType {
			return &f.Chunks[i]
		}
	}
	return nil
}

// FmtChunk holds the WAVEFORMATEX fields of a WAV "fmt " chunk relevant
// to audio properties, the same PCM-header shape asf's Stream
// Properties Object type-specific data carries.
type FmtChunk struct {
	Channels       uint16
	SampleRate     uint32
	AvgBytesPerSec uint32
	BitsPerSample  uint16
}

// ParseFmtChunk decodes a "fmt " chunk's payload.
func ParseFmtChunk(b []byte) (FmtChunk, error) {
	if len(b) < 16 {
		return FmtChunk{}, errors.New("riff: truncated 'fmt ' chunk")
	}
	return FmtChunk{
		Channels:       binary.LittleEndian.Uint16(b[2:4]),
		SampleRate:     binary.LittleEndian.Uint32(b[4:8]),
		AvgBytesPerSec: binary.LittleEndian.Uint32(b[8:12]),
		BitsPerSample:  binary.LittleEndian.Uint16(b[14:16]),
	}, nil
}

// Properties converts a FmtChunk into the logical AudioProperties.
func (c FmtChunk) Properties() tagmodel.AudioProperties {
	return tagmodel.AudioProperties{
		SampleRate: int(c.SampleRate),
		Channels:   int(c.Channels),
		Bitrate:    int(c.AvgBytesPerSec) * 8 / 1000,
		Codec:      "PCM",
	}
}
