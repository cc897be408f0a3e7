package flac

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-tagkit/tagkit/tagmodel"
	"github.com/go-tagkit/tagkit/vorbiscomment"
)

func sampleStreamInfo() []byte {
	b := make([]byte, 34)
	b[0], b[1] = 0x10, 0x00 // min block size 4096
	b[2], b[3] = 0x10, 0x00 // max block size 4096
	// sample rate 44100 (20 bits), channels-1 (3 bits), bps-1 (5 bits), total samples (36 bits)
	packed := uint64(44100)<<44 | uint64(1)<<41 | uint64(15)<<36 | uint64(44100*10)
	for i := 0; i < 8; i++ {
		b[10+i] = byte(packed >> uint(56-8*i))
	}
	return b
}

func TestBlockRoundTrip(t *testing.T) {
	blocks := []Block{
		{Type: BlockStreamInfo, Data: sampleStreamInfo()},
		{Type: BlockPadding, Data: make([]byte, 10)},
	}
	b := RenderBlocks(blocks)
	got, err := ParseBlocks(b)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, BlockStreamInfo, got[0].Type)
	assert.Equal(t, BlockPadding, got[1].Type)
}

func TestParseBlocksRejectsMissingMagic(t *testing.T) {
	_, err := ParseBlocks([]byte("NOPE"))
	assert.ErrorIs(t, err, ErrNoMagic)
}

func TestStreamInfoProperties(t *testing.T) {
	si, err := ParseStreamInfo(sampleStreamInfo())
	require.NoError(t, err)
	assert.Equal(t, uint32(44100), si.SampleRate)
	assert.Equal(t, uint8(2), si.Channels)
	assert.Equal(t, uint8(16), si.BitsPerSample)
	props := si.Properties()
	assert.InDelta(t, 10.0, props.Duration, 0.01)
	assert.Equal(t, "FLAC", props.Codec)
}

func TestPictureRoundTrip(t *testing.T) {
	p := tagmodel.Picture{
		Type:        tagmodel.PictureFrontCover,
		MIMEType:    "image/jpeg",
		Description: "cover",
		Data:        []byte{1, 2, 3, 4, 5},
	}
	b := RenderPicture(p)
	got, err := ParsePicture(b)
	require.NoError(t, err)
	assert.Equal(t, p, got)
}

func TestFileRoundTrip(t *testing.T) {
	vc := vorbiscomment.Comment{Vendor: "tagkit"}
	vc.Add("TITLE", "Song")
	vc.Add("ARTIST", "Artist")

	blocks := []Block{
		{Type: BlockStreamInfo, Data: sampleStreamInfo()},
		{Type: BlockVorbisComment, Data: vorbiscomment.Render(vc)},
	}
	b := RenderBlocks(blocks)

	f, err := Parse(b)
	require.NoError(t, err)
	assert.Equal(t, "Song", f.Tag.Title)
	assert.Equal(t, "Artist", f.Tag.Artist)

	f.Tag.Album = "New Album"
	out := f.Render()

	reparsed, err := Parse(out)
	require.NoError(t, err)
	assert.Equal(t, "Song", reparsed.Tag.Title)
	assert.Equal(t, "New Album", reparsed.Tag.Album)
	assert.Equal(t, uint32(44100), reparsed.Info.SampleRate)
}

func TestFileRoundTripWithPicture(t *testing.T) {
	f := &File{
		Blocks: []Block{{Type: BlockStreamInfo, Data: sampleStreamInfo()}},
		Tag: &tagmodel.Tag{
			Title:     "Song",
			Extension: map[string]any{},
			Pictures: []tagmodel.Picture{
				{Type: tagmodel.PictureFrontCover, MIMEType: "image/png", Data: []byte{9, 9, 9}},
			},
		},
	}
	out := f.Render()
	reparsed, err := Parse(out)
	require.NoError(t, err)
	require.Len(t, reparsed.Tag.Pictures, 1)
	assert.Equal(t, "image/png", reparsed.Tag.Pictures[0].MIMEType)
}
