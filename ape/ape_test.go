package ape

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-tagkit/tagkit/tagmodel"
)

func TestFooterRoundTrip(t *testing.T) {
	f := Footer{Version: 2000, TagSize: 100, ItemCount: 3}
	b := f.Render(false)
	got, err := ParseFooter(b)
	require.NoError(t, err)
	assert.Equal(t, f.Version, got.Version)
	assert.Equal(t, f.TagSize, got.TagSize)
	assert.Equal(t, f.ItemCount, got.ItemCount)
}

func TestParseFooterRejectsBadMagic(t *testing.T) {
	b := make([]byte, FooterSize)
	copy(b, "NOTATAG!")
	_, err := ParseFooter(b)
	assert.ErrorIs(t, err, ErrNoMagic)
}

func TestItemsRoundTrip(t *testing.T) {
	items := []Item{
		{Key: "Title", Type: ItemTypeUTF8, Value: []byte("Song")},
		{Key: "Track", Type: ItemTypeUTF8, Value: []byte("3/12")},
	}
	b := RenderItems(items)
	got, err := ParseItems(b, uint32(len(items)))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Song", got[0].Text())
	assert.Equal(t, "3/12", got[1].Text())
}

func TestTagRoundTrip(t *testing.T) {
	tag := &Tag{Items: []Item{
		{Key: "Title", Type: ItemTypeUTF8, Value: []byte("Song")},
		{Key: "Artist", Type: ItemTypeUTF8, Value: []byte("Artist")},
	}}
	b := tag.Render()
	got, err := ParseTag(b)
	require.NoError(t, err)
	assert.Equal(t, "Song", got.Get("Title"))
	assert.Equal(t, "Artist", got.Get("artist"))
}

func TestParseTagRejectsShortBuffer(t *testing.T) {
	_, err := ParseTag([]byte{1, 2, 3})
	assert.Error(t, err)
}

func TestProjectApplyRoundTrip(t *testing.T) {
	in := &tagmodel.Tag{
		Title:       "Song",
		Artist:      "Artist",
		Album:       "Album",
		Genre:       "Rock",
		Year:        2019,
		Track:       4,
		TotalTracks: 10,
	}
	out := Apply(&Tag{}, in)
	projected := Project(out)
	assert.Equal(t, in.Title, projected.Title)
	assert.Equal(t, in.Artist, projected.Artist)
	assert.Equal(t, in.Album, projected.Album)
	assert.Equal(t, in.Genre, projected.Genre)
	assert.Equal(t, in.Year, projected.Year)
	assert.Equal(t, in.Track, projected.Track)
	assert.Equal(t, in.TotalTracks, projected.TotalTracks)
}

func TestCoverArtRoundTrip(t *testing.T) {
	in := &tagmodel.Tag{
		Pictures: []tagmodel.Picture{
			{Description: "cover", Data: []byte{0xFF, 0xD8, 0xFF, 1, 2, 3}},
		},
	}
	out := Apply(&Tag{}, in)
	projected := Project(out)
	require.Len(t, projected.Pictures, 1)
	assert.Equal(t, "cover", projected.Pictures[0].Description)
	assert.Equal(t, "image/jpeg", projected.Pictures[0].MIMEType)
}

func TestApplyPreservesUnknownItems(t *testing.T) {
	base := &Tag{Items: []Item{{Key: "CustomField", Type: ItemTypeUTF8, Value: []byte("keepme")}}}
	in := Project(base)
	out := Apply(base, in)
	assert.Equal(t, "keepme", out.Get("CustomField"))
}
