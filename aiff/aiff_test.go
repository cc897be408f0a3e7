package aiff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-tagkit/tagkit/tagmodel"
)

func TestFileRoundTrip(t *testing.T) {
	f := &File{
		FormType: "AIFF",
		Chunks: []Chunk{
			{ID: "COMM", Data: RenderCommonChunk(CommonChunk{Channels: 2, NumSampleFrames: 44100 * 3, SampleSize: 16, SampleRate: 44100})},
			{ID: "SSND", Data: []byte{1, 2, 3}}, // odd length, exercises padding
		},
	}
	b := Render(f)
	got, err := Parse(b)
	require.NoError(t, err)
	assert.Equal(t, "AIFF", got.FormType)
	require.Len(t, got.Chunks, 2)

	props := got.Properties()
	assert.Equal(t, 2, props.Channels)
	assert.Equal(t, 44100, props.SampleRate)
	assert.InDelta(t, 3.0, props.Duration, 0.001)
}

func TestParseRejectsMissingMagic(t *testing.T) {
	_, err := Parse([]byte("XXXX00000000"))
	assert.ErrorIs(t, err, ErrNoMagic)
}

func TestCommonChunkRoundTrip(t *testing.T) {
	c := CommonChunk{Channels: 1, NumSampleFrames: 1000, SampleSize: 16, SampleRate: 48000}
	b := RenderCommonChunk(c)
	got, err := ParseCommonChunk(b)
	require.NoError(t, err)
	assert.Equal(t, c.Channels, got.Channels)
	assert.Equal(t, c.NumSampleFrames, got.NumSampleFrames)
	assert.InDelta(t, c.SampleRate, got.SampleRate, 0.001)
}

func TestSetTagAndParseTagRoundTrip(t *testing.T) {
	f := &File{FormType: "AIFF"}
	in := &tagmodel.Tag{Title: "Song", Artist: "Artist"}
	require.NoError(t, f.SetTag(in))

	out, err := f.ParseTag()
	require.NoError(t, err)
	assert.Equal(t, "Song", out.Title)
	assert.Equal(t, "Artist", out.Artist)

	b := Render(f)
	reparsed, err := Parse(b)
	require.NoError(t, err)
	out2, err := reparsed.ParseTag()
	require.NoError(t, err)
	assert.Equal(t, "Song", out2.Title)
}

func TestPropertiesNoCommChunk(t *testing.T) {
	f := &File{FormType: "AIFF"}
	props := f.Properties()
	assert.Equal(t, tagmodel.AudioProperties{}, props)
}
