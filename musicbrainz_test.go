package tagkit

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/go-tagkit/tagkit/tagmodel"
)

func TestMusicBrainzExtractsIdentifiers(t *testing.T) {
	tag := &tagmodel.Tag{Extension: map[string]any{"acoustid_id": "acoustid-123"}}
	tag.MusicBrainz.SetRelease("release-id")
	tag.MusicBrainz.SetAlbumArtist("album-artist-id")
	tag.MusicBrainz.SetArtist("artist-id")
	tag.MusicBrainz.SetReleaseGroup("release-group-id")
	tag.MusicBrainz.SetTrack("track-id")

	info := MusicBrainz(tag)
	assert.Equal(t, "acoustid-123", info.AcoustID)
	assert.Equal(t, "release-id", info.Album)
	assert.Equal(t, "album-artist-id", info.AlbumArtist)
	assert.Equal(t, "artist-id", info.Artist)
	assert.Equal(t, "release-group-id", info.ReleaseGroup)
	assert.Equal(t, "track-id", info.Track)
}

func TestMusicBrainzEmptyTag(t *testing.T) {
	tag := &tagmodel.Tag{Extension: map[string]any{}}
	info := MusicBrainz(tag)
	assert.Empty(t, info.AcoustID)
	assert.Empty(t, info.Album)
}
