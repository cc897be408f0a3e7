package dsd

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-tagkit/tagkit/id3v2"
	"github.com/go-tagkit/tagkit/tagmodel"
)

func TestDSFHeaderRoundTrip(t *testing.T) {
	h := DSFHeader{TotalFileSize: 1000, MetadataOffset: 500}
	b := h.Render()
	got, err := ParseDSFHeader(b)
	require.NoError(t, err)
	assert.Equal(t, uint64(28), got.ChunkSize)
	assert.Equal(t, h.TotalFileSize, got.TotalFileSize)
	assert.Equal(t, h.MetadataOffset, got.MetadataOffset)
}

func TestParseDSFRejectsBadMagic(t *testing.T) {
	_, err := ParseDSFHeader([]byte("XXXX0000000000000000000000"))
	assert.ErrorIs(t, err, ErrNoDSFMagic)
}

func TestDSFFileRoundTrip(t *testing.T) {
	in := &tagmodel.Tag{Title: "Song", Artist: "Artist"}
	tag := id3v2.Apply(id3v2.Version2_4, nil, in)
	tagBytes, err := tag.Render(0)
	require.NoError(t, err)

	body := []byte("fmtdatachunkbytes")
	metadataOffset := uint64(28 + len(body))
	h := DSFHeader{TotalFileSize: metadataOffset + uint64(len(tagBytes)), MetadataOffset: metadataOffset}

	var buf []byte
	buf = append(buf, h.Render()...)
	buf = append(buf, body...)
	buf = append(buf, tagBytes...)

	f, err := ParseDSF(buf)
	require.NoError(t, err)
	assert.Equal(t, "Song", f.Tag.Title)
	assert.Equal(t, body, f.Body)

	f.Tag.Album = "New Album"
	out, err := f.Render()
	require.NoError(t, err)

	reparsed, err := ParseDSF(out)
	require.NoError(t, err)
	assert.Equal(t, "Song", reparsed.Tag.Title)
	assert.Equal(t, "New Album", reparsed.Tag.Album)
}

func TestDSFFileProperties(t *testing.T) {
	fmtBody := make([]byte, 20)
	binary.LittleEndian.PutUint32(fmtBody[12:16], 2)     // channel count
	binary.LittleEndian.PutUint32(fmtBody[16:20], 44100) // sampling frequency

	var body []byte
	chunkHeader := make([]byte, 12)
	copy(chunkHeader[0:4], "fmt ")
	binary.LittleEndian.PutUint64(chunkHeader[4:12], uint64(12+len(fmtBody)))
	body = append(body, chunkHeader...)
	body = append(body, fmtBody...)

	f := &DSFFile{Body: body}
	props := f.Properties()
	assert.Equal(t, "DSD", props.Codec)
	assert.Equal(t, 2, props.Channels)
	assert.Equal(t, 44100, props.SampleRate)
}

func buildDFFChunk(id string, body []byte) []byte {
	header := make([]byte, 12)
	copy(header[0:4], id)
	binary.BigEndian.PutUint64(header[4:12], uint64(len(body)))
	out := append(header, body...)
	if len(body)%2 == 1 {
		out = append(out, 0)
	}
	return out
}

func TestParseDFF(t *testing.T) {
	in := &tagmodel.Tag{Title: "DFF Song"}
	tag := id3v2.Apply(id3v2.Version2_4, nil, in)
	tagBytes, err := tag.Render(0)
	require.NoError(t, err)

	id3Chunk := buildDFFChunk("ID3 ", tagBytes)
	fverChunk := buildDFFChunk("FVER", []byte{1, 2, 3, 4})
	inner := append(append([]byte("DSD "), fverChunk...), id3Chunk...)
	root := buildDFFChunk("FRM8", inner)

	f, err := ParseDFF(root)
	require.NoError(t, err)
	assert.Equal(t, "FRM8", f.ID)
	require.Len(t, f.Children, 2)

	tagOut, err := ProjectDFFTag(f)
	require.NoError(t, err)
	assert.Equal(t, "DFF Song", tagOut.Title)
}

func TestParseDFFRejectsBadMagic(t *testing.T) {
	_, err := ParseDFF([]byte("XXXX00000000"))
	assert.ErrorIs(t, err, ErrNoDFFMagic)
}

func TestDFFRenderRoundTrip(t *testing.T) {
	in := &tagmodel.Tag{Title: "DFF Song"}
	tag := id3v2.Apply(id3v2.Version2_4, nil, in)
	tagBytes, err := tag.Render(0)
	require.NoError(t, err)

	id3Chunk := buildDFFChunk("ID3 ", tagBytes)
	fverChunk := buildDFFChunk("FVER", []byte{1, 2, 3, 4})
	inner := append(append([]byte("DSD "), fverChunk...), id3Chunk...)
	root := buildDFFChunk("FRM8", inner)

	f, err := ParseDFF(root)
	require.NoError(t, err)

	updated := &tagmodel.Tag{Title: "Updated Title"}
	out, err := ApplyDFFTag(f, updated)
	require.NoError(t, err)

	rendered := RenderDFFChunk(out)
	reparsed, err := ParseDFF(rendered)
	require.NoError(t, err)

	tagOut, err := ProjectDFFTag(reparsed)
	require.NoError(t, err)
	assert.Equal(t, "Updated Title", tagOut.Title)

	require.NotNil(t, reparsed.Find("FVER"))
}

func TestReadDFFProperties(t *testing.T) {
	fsChunk := buildDFFChunk("FS  ", []byte{0, 0, 0xAC, 0x44}) // 44100 big-endian
	propBody := append([]byte("SND "), fsChunk...)
	propChunk := buildDFFChunk("PROP", propBody)
	inner := append([]byte("DSD "), propChunk...)
	root := buildDFFChunk("FRM8", inner)

	f, err := ParseDFF(root)
	require.NoError(t, err)

	props := ReadDFFProperties(f)
	assert.Equal(t, "DSD", props.Codec)
	assert.Equal(t, 44100, props.SampleRate)
}
