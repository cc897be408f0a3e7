package riff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-tagkit/tagkit/tagmodel"
)

func TestChunkRoundTrip(t *testing.T) {
	f := &File{
		FormType: "WAVE",
		Chunks: []Chunk{
			{ID: "fmt ", Data: []byte{1, 2, 3}}, // odd length, exercises padding
			{ID: "LIST", ListType: "INFO", Chunks: []Chunk{
				{ID: "INAM", Data: append([]byte("Title"), 0)},
			}},
		},
	}
	b := Render(f)
	got, err := Parse(b)
	require.NoError(t, err)
	assert.Equal(t, "WAVE", got.FormType)
	require.Len(t, got.Chunks, 2)
	assert.Equal(t, "fmt ", got.Chunks[0].ID)
	assert.Equal(t, []byte{1, 2, 3}, got.Chunks[0].Data)

	info := got.FindList("INFO")
	require.NotNil(t, info)
	require.Len(t, info.Chunks, 1)
	assert.Equal(t, "INAM", info.Chunks[0].ID)
}

func TestParseRejectsMissingMagic(t *testing.T) {
	_, err := Parse([]byte("XXXX00000000"))
	assert.ErrorIs(t, err, ErrNoMagic)
}

func TestInfoProjectApplyRoundTrip(t *testing.T) {
	in := &tagmodel.Tag{
		Title:   "Song",
		Artist:  "Artist",
		Album:   "Album",
		Comment: "a comment",
		Genre:   "Rock",
		Year:    1999,
		Track:   7,
	}
	chunk := ApplyInfo(in)
	out := ProjectInfo(&chunk)
	assert.Equal(t, in.Title, out.Title)
	assert.Equal(t, in.Artist, out.Artist)
	assert.Equal(t, in.Album, out.Album)
	assert.Equal(t, in.Comment, out.Comment)
	assert.Equal(t, in.Genre, out.Genre)
	assert.Equal(t, in.Year, out.Year)
	assert.Equal(t, in.Track, out.Track)
}

func TestProjectInfoNilChunk(t *testing.T) {
	out := ProjectInfo(nil)
	assert.True(t, out.IsEmpty())
}

func TestParseFmtChunkProperties(t *testing.T) {
	data := make([]byte, 16)
	// format tag (PCM, unused by ParseFmtChunk)
	data[0], data[1] = 1, 0
	// channels
	data[2], data[3] = 2, 0
	// sample rate
	data[4], data[5], data[6], data[7] = 0x44, 0xAC, 0, 0 // 44100
	// avg bytes/sec -> 1411 kbps for 16-bit stereo 44.1kHz
	data[8], data[9], data[10], data[11] = 0x10, 0xB1, 0x02, 0 // 176400
	// bits per sample
	data[14], data[15] = 16, 0

	fmtChunk, err := ParseFmtChunk(data)
	require.NoError(t, err)
	assert.Equal(t, uint16(2), fmtChunk.Channels)
	assert.Equal(t, uint32(44100), fmtChunk.SampleRate)
	assert.Equal(t, uint16(16), fmtChunk.BitsPerSample)

	props := fmtChunk.Properties()
	assert.Equal(t, 44100, props.SampleRate)
	assert.Equal(t, 2, props.Channels)
	assert.Equal(t, 1411, props.Bitrate)
	assert.Equal(t, "PCM", props.Codec)
}

func TestParseFmtChunkTruncated(t *testing.T) {
	_, err := ParseFmtChunk([]byte{1, 2, 3})
	assert.Error(t, err)
}

func TestID3ChunkRoundTrip(t *testing.T) {
	in := &tagmodel.Tag{Title: "Embedded ID3 Title", Artist: "Artist"}
	chunk, err := RenderID3Chunk(in)
	require.NoError(t, err)
	assert.Equal(t, "id3 ", chunk.ID)

	out, err := ProjectID3Chunk(chunk.Data)
	require.NoError(t, err)
	assert.Equal(t, in.Title, out.Title)
	assert.Equal(t, in.Artist, out.Artist)
}
