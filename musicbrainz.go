package tagkit

import "github.com/go-tagkit/tagkit/tagmodel"

// MBInfo holds the MusicBrainz Picard identifiers extracted from a
// parsed tag, the same field set as teacher's mbz.Info.
type MBInfo struct {
	AcoustID     string
	Album        string
	AlbumArtist  string
	Artist       string
	ReleaseGroup string
	Track        string
}

// MusicBrainz extracts Picard-written MusicBrainz identifiers from tag,
// grounded on teacher's tag.go MusicBrainz function and mbz/mbz.go's
// Extract. Where teacher re-derives the fields by re-scanning the raw
// TXXX/UFID frames (or the raw Vorbis Comment/MP4 map) at call time,
// every format engine's Project already does that work once during
// parsing and stores the result in tagmodel.Tag.MusicBrainz, so this is
// a plain accessor rather than a second frame scan.
func MusicBrainz(tag *tagmodel.Tag) *MBInfo {
	i := &MBInfo{
		Album:        tag.MusicBrainz.ReleaseString(),
		AlbumArtist:  tag.MusicBrainz.AlbumArtistString(),
		Artist:       tag.MusicBrainz.ArtistString(),
		ReleaseGroup: tag.MusicBrainz.ReleaseGroupString(),
		Track:        tag.MusicBrainz.TrackString(),
	}
	if v, ok := tag.Extension["acoustid_id"].(string); ok {
		i.AcoustID = v
	}
	return i
}
