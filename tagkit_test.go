package tagkit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-tagkit/tagkit/id3v2"
	"github.com/go-tagkit/tagkit/tagmodel"
)

func buildMP3(t *testing.T, title string, duplicate bool) []byte {
	t.Helper()
	tag := id3v2.Apply(id3v2.Version2_4, nil, &tagmodel.Tag{Title: title, Artist: "Artist"})
	tagBytes, err := tag.Render(0)
	require.NoError(t, err)

	out := append([]byte(nil), tagBytes...)
	if duplicate {
		out = append(out, tagBytes...)
	}
	// A minimal MPEG-1 Layer III frame sync so mp3probe has something
	// to read without erroring out the whole Read call.
	frame := []byte{0xFF, 0xFB, 0x90, 0x00}
	frame = append(frame, make([]byte, 96)...)
	out = append(out, frame...)
	return out
}

func TestReadMP3RoundTrip(t *testing.T) {
	b := buildMP3(t, "Original", false)
	res := Read(b, "song.mp3")
	require.True(t, res.IsSuccess())
	assert.Equal(t, tagmodel.FileMP3, res.File.Type)
	assert.Equal(t, "Original", res.File.Tag.Title)
	assert.False(t, res.HasDuplicateTag)

	res.File.Tag.Title = "Changed"
	out, err := res.File.Render(DefaultConfig())
	require.NoError(t, err)

	res2 := Read(out, "song.mp3")
	require.True(t, res2.IsSuccess())
	assert.Equal(t, "Changed", res2.File.Tag.Title)
}

func TestReadMP3DuplicateHeader(t *testing.T) {
	b := buildMP3(t, "Original", true)
	res := Read(b, "song.mp3")
	require.True(t, res.IsSuccess())
	assert.True(t, res.HasDuplicateTag)
}

func TestReadUnknownContainer(t *testing.T) {
	res := Read([]byte("not an audio file"), "")
	assert.False(t, res.IsSuccess())
	assert.Error(t, res.Err)
}

func TestReadExtensionFallback(t *testing.T) {
	b := []byte("not a recognizable magic prefix at all, padded out")

	noExt := Read(b, "")
	require.Error(t, noExt.Err)
	assert.Contains(t, noExt.Err.Error(), "could not identify container")

	withExt := Read(b, "mystery.mpc")
	require.Error(t, withExt.Err)
	assert.Contains(t, withExt.Err.Error(), "parse Musepack stream")
}
