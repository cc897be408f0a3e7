// Package dsd implements the DSF and DFF (DSD-IFF) container formats:
// DSF's flat "DSD " header with a 64-bit metadata offset pointing at an
// embedded ID3v2 tag, and DFF's "FRM8" nested big-endian-sized chunk
// tree, per spec.md §4.6. New: no teacher or pack example covers DSD,
// so framing is grounded directly on the spec's byte layout, and tag
// storage is delegated entirely to the id3v2 package, for both the DSF
// metadata block and DFF's "ID3 " chunk, matching how both real formats
// actually embed ID3v2.
package dsd

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/go-tagkit/tagkit/id3v2"
	"github.com/go-tagkit/tagkit/tagmodel"
)

// ErrNoDSFMagic is returned when a buffer does not begin with "DSD ".
var ErrNoDSFMagic = errors.New("dsd: missing 'DSD ' magic")

// ErrNoDFFMagic is returned when a buffer does not begin with "FRM8".
var ErrNoDFFMagic = errors.New("dsd: missing 'FRM8' magic")

// DSFHeader is DSF's fixed 28-byte leading chunk, per spec.md §4.6: a
// "DSD " 4CC, an 8-byte chunk size (always 28), an 8-byte total file
// size, and an 8-byte pointer to the embedded ID3v2 tag (0 if absent).
type DSFHeader struct {
	ChunkSize      uint64
	TotalFileSize  uint64
	MetadataOffset uint64
}

// ParseDSFHeader decodes the leading 28 bytes of a DSF file.
func ParseDSFHeader(b []byte) (DSFHeader, error) {
	if len(b) < 28 || string(b[0:4]) != "DSD " {
		return DSFHeader{}, ErrNoDSFMagic
	}
	return DSFHeader{
		ChunkSize:      binary.LittleEndian.Uint64(b[4:12]),
		TotalFileSize:  binary.LittleEndian.Uint64(b[12:20]),
		MetadataOffset: binary.LittleEndian.Uint64(b[20:28]),
	}, nil
}

// Render serializes h to the 28-byte DSF header.
func (h DSFHeader) Render() []byte {
	out := make([]byte, 28)
	copy(out[0:4], "DSD ")
	binary.LittleEndian.PutUint64(out[4:12], 28)
	binary.LittleEndian.PutUint64(out[12:20], h.TotalFileSize)
	binary.LittleEndian.PutUint64(out[20:28], h.MetadataOffset)
	return out
}

// DSFFile is a parsed DSF stream: its header, the raw body (fmt/data
// chunks, left untouched since tagkit does not decode DSD audio), and
// the logical tag projected from the embedded ID3v2 metadata.
type DSFFile struct {
	Header DSFHeader
	Body   []byte // everything from byte 28 up to MetadataOffset (or EOF)
	Tag    *tagmodel.Tag
}

// ParseDSF decodes a whole DSF file.
func ParseDSF(b []byte) (*DSFFile, error) {
	h, err := ParseDSFHeader(b)
	if err != nil {
		return nil, err
	}
	f := &DSFFile{Header: h, Tag: &tagmodel.Tag{Extension: map[string]any{}}}

	bodyEnd := len(b)
	if h.MetadataOffset != 0 && int(h.MetadataOffset) <= len(b) {
		bodyEnd = int(h.MetadataOffset)
	}
	f.Body = append([]byte(nil), b[28:bodyEnd]...)

	if h.MetadataOffset != 0 && int(h.MetadataOffset) < len(b) {
		tag, err := id3v2.Parse(b[h.MetadataOffset:])
		if err != nil {
			return nil, errors.Wrap(err, "dsd: embedded ID3v2 tag")
		}
		f.Tag = id3v2.Project(tag)
	}
	return f, nil
}

// Properties extracts sample rate and channel count from the "fmt "
// sub-chunk in f.Body: 4-byte format version, 4-byte format ID, 4-byte
// channel type, 4-byte channel count, 4-byte sampling frequency, 4-byte
// bits per sample, per the DSF specification's fixed fmt-chunk layout.
func (f *DSFFile) Properties() tagmodel.AudioProperties {
	props := tagmodel.AudioProperties{Codec: "DSD"}
	off := 0
	for off+12 <= len(f.Body) {
		id := string(f.Body[off : off+4])
		size := binary.LittleEndian.Uint64(f.Body[off+4 : off+12])
		bodyStart := off + 12
		bodyEnd := bodyStart + int(size) - 12
		if bodyEnd > len(f.Body) || bodyEnd < bodyStart {
			break
		}
		if id == "fmt " && bodyEnd-bodyStart >= 20 {
			data := f.Body[bodyStart:bodyEnd]
			props.Channels = int(binary.LittleEndian.Uint32(data[12:16]))
			props.SampleRate = int(binary.LittleEndian.Uint32(data[16:20]))
			return props
		}
		off = bodyEnd
	}
	return props
}

// Render re-serializes f, appending a fresh ID3v2.4 encoding of f.Tag
// after the body and updating the header's offset/size fields.
func (f *DSFFile) Render() ([]byte, error) {
	tag := id3v2.Apply(id3v2.Version2_4, nil, f.Tag)
	tagBytes, err := tag.Render(0)
	if err != nil {
		return nil, err
	}

	metadataOffset := uint64(28 + len(f.Body))
	h := f.Header
	h.MetadataOffset = metadataOffset
	h.TotalFileSize = metadataOffset + uint64(len(tagBytes))

	out := make([]byte, 0, h.TotalFileSize)
	out = append(out, h.Render()...)
	out = append(out, f.Body...)
	out = append(out, tagBytes...)
	return out, nil
}

// DFFChunk is one DSD-IFF chunk: a 4CC ID, an 8-byte big-endian size,
// and either a flat payload or (for "FRM8"/"PROP", DFF's container
// types) nested children.
type DFFChunk struct {
	ID       string
	Data     []byte
	Children []DFFChunk
}

var dffContainers = map[string]bool{"FRM8": true, "PROP": true}

// ParseDFF decodes a whole DFF (DSD-IFF) file.
func ParseDFF(b []byte) (*DFFChunk, error) {
	if len(b) < 12 || string(b[0:4]) != "FRM8" {
		return nil, ErrNoDFFMagic
	}
	chunk, _, err := parseDFFChunk(b)
	if err != nil {
		return nil, err
	}
	return &chunk, nil
}

func parseDFFChunk(b []byte) (DFFChunk, int, error) {
	if len(b) < 12 {
		return DFFChunk{}, 0, errors.New("dsd: truncated DFF chunk header")
	}
	id := string(b[0:4])
	size := binary.BigEndian.Uint64(b[4:12])
	bodyStart := 12
	bodyEnd := bodyStart + int(size)
	if bodyEnd > len(b) {
		return DFFChunk{}, 0, errors.Errorf("dsd: chunk %q declares size %d, buffer has %d remaining", id, size, len(b)-bodyStart)
	}
	body := b[bodyStart:bodyEnd]

	c := DFFChunk{ID: id}
	if dffContainers[id] {
		// FRM8/PROP carry a 4-byte form-type before their nested chunks.
		if len(body) < 4 {
			return DFFChunk{}, 0, errors.Errorf("dsd: truncated %q form type", id)
		}
		c.Data = append([]byte(nil), body[:4]...)
		children, err := parseDFFChunks(body[4:])
		if err != nil {
			return DFFChunk{}, 0, err
		}
		c.Children = children
	} else {
		c.Data = append([]byte(nil), body...)
	}

	n := bodyEnd
	if size%2 == 1 {
		n++
	}
	return c, n, nil
}

func parseDFFChunks(b []byte) ([]DFFChunk, error) {
	var out []DFFChunk
	off := 0
	for off+12 <= len(b) {
		c, n, err := parseDFFChunk(b[off:])
		if err != nil {
			return nil, err
		}
		out = append(out, c)
		off += n
	}
	return out, nil
}

// Find returns the first immediate child of c with the given ID.
func (c *DFFChunk) Find(id string) *DFFChunk {
	for i := range c.Children {
		if c.Children[i].ID == id {
			return &c.Children[i]
		}
	}
	return nil
}

// ProjectDFFTag decodes a DFF "ID3 " chunk's payload as an ID3v2 tag.
func ProjectDFFTag(root *DFFChunk) (*tagmodel.Tag, error) {
	if c := root.Find("ID3 "); c != nil {
		tag, err := id3v2.Parse(c.Data)
		if err != nil {
			return nil, err
		}
		return id3v2.Project(tag), nil
	}
	return &tagmodel.Tag{Extension: map[string]any{}}, nil
}

// ApplyDFFTag returns a copy of root with its "ID3 " child chunk
// replaced (or appended, if absent) by a fresh ID3v2.4 encoding of in,
// preserving every other top-level child untouched.
func ApplyDFFTag(root *DFFChunk, in *tagmodel.Tag) (DFFChunk, error) {
	tag := id3v2.Apply(id3v2.Version2_4, nil, in)
	data, err := tag.Render(0)
	if err != nil {
		return DFFChunk{}, err
	}

	out := DFFChunk{ID: root.ID, Data: root.Data}
	found := false
	for _, c := range root.Children {
		if c.ID == "ID3 " {
			c.Data = data
			found = true
		}
		out.Children = append(out.Children, c)
	}
	if !found {
		out.Children = append(out.Children, DFFChunk{ID: "ID3 ", Data: data})
	}
	return out, nil
}

// RenderDFFChunk serializes c back to DFF's big-endian chunk encoding,
// mirroring parseDFFChunk's FRM8/PROP-container convention in reverse.
func RenderDFFChunk(c DFFChunk) []byte {
	var body []byte
	if dffContainers[c.ID] {
		body = append(append([]byte(nil), c.Data...), renderDFFChunks(c.Children)...)
	} else {
		body = c.Data
	}

	out := make([]byte, 0, 12+len(body)+1)
	out = append(out, []byte(c.ID)...)
	var size [8]byte
	binary.BigEndian.PutUint64(size[:], uint64(len(body)))
	out = append(out, size[:]...)
	out = append(out, body...)
	if len(body)%2 == 1 {
		out = append(out, 0)
	}
	return out
}

func renderDFFChunks(children []DFFChunk) []byte {
	var out []byte
	for _, c := range children {
		out = append(out, RenderDFFChunk(c)...)
	}
	return out
}

// ReadDFFProperties extracts sample rate and channel count from a DFF
// file's "PROP"/"SND " local chunks ("FS  ": 4-byte big-endian sample
// rate; "CHNL": 2-byte channel count followed by that many 4-byte
// channel-ID fourccs), per the DSD-IFF specification.
func ReadDFFProperties(root *DFFChunk) tagmodel.AudioProperties {
	props := tagmodel.AudioProperties{Codec: "DSD"}
	prop := root.Find("PROP")
	if prop == nil {
		return props
	}
	if fs := prop.Find("FS  "); fs != nil && len(fs.Data) >= 4 {
		props.SampleRate = int(binary.BigEndian.Uint32(fs.Data[0:4]))
	}
	if chnl := prop.Find("CHNL"); chnl != nil && len(chnl.Data) >= 2 {
		props.Channels = int(binary.BigEndian.Uint16(chnl.Data[0:2]))
	}
	return props
}
