package vorbiscomment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-tagkit/tagkit/tagmodel"
)

func TestRoundTrip(t *testing.T) {
	c := Comment{
		Vendor: "reference libFLAC 1.4.3 20230623",
		Entries: []Entry{
			{Key: "TITLE", Value: "Song"},
			{Key: "ARTIST", Value: "First Artist"},
			{Key: "ARTIST", Value: "Second Artist"},
		},
	}
	b := Render(c)
	got, err := Parse(b)
	require.NoError(t, err)
	assert.Equal(t, c.Vendor, got.Vendor)
	assert.Equal(t, []string{"First Artist", "Second Artist"}, got.All("ARTIST"))
	assert.Equal(t, "Song", got.Get("title"))
}

func TestParseEntryRejectsMissingEquals(t *testing.T) {
	_, _, err := parseEntry("NOEQUALS")
	assert.Error(t, err)
}

func TestSetReplacesExisting(t *testing.T) {
	c := Comment{}
	c.Add("TITLE", "old")
	c.Set("TITLE", "new")
	assert.Equal(t, []string{"new"}, c.All("TITLE"))
}

func TestProjectApplyRoundTrip(t *testing.T) {
	in := &tagmodel.Tag{
		Title:  "Title",
		Artist: "Artist",
		Album:  "Album",
		Genre:  "Rock",
		Year:   2021,
		Track:  4,
	}
	c := Apply(Comment{Vendor: "tagkit"}, in)
	out := Project(c)
	assert.Equal(t, in.Title, out.Title)
	assert.Equal(t, in.Artist, out.Artist)
	assert.Equal(t, in.Album, out.Album)
	assert.Equal(t, in.Genre, out.Genre)
	assert.Equal(t, in.Year, out.Year)
	assert.Equal(t, in.Track, out.Track)
}

func TestApplyPreservesUnknownEntries(t *testing.T) {
	base := Comment{Vendor: "tagkit"}
	in := Project(base)
	in.Extension["vorbis.rawentries"] = []Entry{{Key: "CUSTOMFIELD", Value: "keepme"}}
	out := Apply(base, in)
	assert.Equal(t, "keepme", out.Get("CUSTOMFIELD"))
}

func TestPerformerFallsBackFromArtist(t *testing.T) {
	c := Comment{}
	c.Add("ARTIST", "Composer Name")
	c.Add("PERFORMER", "Performing Artist")
	out := Project(c)
	assert.Equal(t, "Performing Artist", out.Artist)
}
