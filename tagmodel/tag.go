// Package tagmodel defines the logical metadata surface shared by every
// format engine in tagkit: the common Tag fields, Picture, ReplayGain,
// MusicBrainz identifiers, and the Format/FileType enumerations, per
// spec.md §3. Grounded on dhowden/tag's tag.go Metadata interface and
// mbz/mbz.go's MusicBrainz field set, generalized to a concrete struct
// plus an engine-specific extension map (spec.md §9, "Abstract-base tag
// with many virtual properties").
package tagmodel

import "github.com/google/uuid"

// Format is an enumeration of the metadata encodings tagkit understands.
type Format string

const (
	FormatID3v1   Format = "ID3v1"
	FormatID3v2_2 Format = "ID3v2.2"
	FormatID3v2_3 Format = "ID3v2.3"
	FormatID3v2_4 Format = "ID3v2.4"
	FormatMP4     Format = "MP4"
	FormatVorbis  Format = "VORBIS"
	FormatAPE     Format = "APEv2"
	FormatASF     Format = "ASF"
	FormatRIFFInfo Format = "RIFF-INFO"
)

// FileType enumerates the container/codec families tagkit can identify,
// per spec.md §1 and §4.6.
type FileType string

const (
	FileMP3      FileType = "MP3"
	FileAAC      FileType = "AAC"
	FileALAC     FileType = "ALAC"
	FileFLAC     FileType = "FLAC"
	FileOggVorbis FileType = "OGG_VORBIS"
	FileOggOpus  FileType = "OGG_OPUS"
	FileOggFLAC  FileType = "OGG_FLAC"
	FileWAV      FileType = "WAV"
	FileAIFF     FileType = "AIFF"
	FileDSF      FileType = "DSF"
	FileDFF      FileType = "DFF"
	FileWavPack  FileType = "WAVPACK"
	FileMonkeysAudio FileType = "APE_AUDIO"
	FileMusepack FileType = "MUSEPACK"
	FileASF      FileType = "ASF"
	FileUnknown  FileType = "UNKNOWN"
)

// ReplayGain holds the loudness-normalization convention values
// described in the GLOSSARY: gain values formatted like "-6.50 dB",
// peak values like "0.xxx".
type ReplayGain struct {
	TrackGain string
	TrackPeak string
	AlbumGain string
	AlbumPeak string
}

// IsEmpty reports whether no ReplayGain field has been set.
func (r ReplayGain) IsEmpty() bool {
	return r.TrackGain == "" && r.TrackPeak == "" && r.AlbumGain == "" && r.AlbumPeak == ""
}

// MusicBrainzIDs holds the UUIDs MusicBrainz Picard writes, per spec.md
// §3 and the GLOSSARY. Fields are uuid.UUID (github.com/google/uuid);
// RawXxx preserves the original text when it did not parse as a UUID,
// so round-tripping never silently drops a tagger's non-conformant
// value.
type MusicBrainzIDs struct {
	Track        uuid.UUID
	Release      uuid.UUID
	Artist       uuid.UUID
	ReleaseGroup uuid.UUID
	AlbumArtist  uuid.UUID
	Recording    uuid.UUID

	RawTrack        string
	RawRelease       string
	RawArtist        string
	RawReleaseGroup  string
	RawAlbumArtist   string
	RawRecording     string
}

// SetTrack parses s as a UUID for the Track field, falling back to
// storing it verbatim in RawTrack if it doesn't parse. The analogous
// Setters below follow the same pattern for each field.
func (m *MusicBrainzIDs) SetTrack(s string)        { m.Track, m.RawTrack = parseUUID(s) }
func (m *MusicBrainzIDs) SetRelease(s string)       { m.Release, m.RawRelease = parseUUID(s) }
func (m *MusicBrainzIDs) SetArtist(s string)        { m.Artist, m.RawArtist = parseUUID(s) }
func (m *MusicBrainzIDs) SetReleaseGroup(s string)   { m.ReleaseGroup, m.RawReleaseGroup = parseUUID(s) }
func (m *MusicBrainzIDs) SetAlbumArtist(s string)    { m.AlbumArtist, m.RawAlbumArtist = parseUUID(s) }
func (m *MusicBrainzIDs) SetRecording(s string)      { m.Recording, m.RawRecording = parseUUID(s) }

func parseUUID(s string) (uuid.UUID, string) {
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, s
	}
	return u, ""
}

// TrackString returns the track UUID as text, preferring the parsed
// UUID and falling back to the raw text tagkit could not parse.
func (m MusicBrainzIDs) TrackString() string { return idString(m.Track, m.RawTrack) }
func (m MusicBrainzIDs) ReleaseString() string { return idString(m.Release, m.RawRelease) }
func (m MusicBrainzIDs) ArtistString() string { return idString(m.Artist, m.RawArtist) }
func (m MusicBrainzIDs) ReleaseGroupString() string { return idString(m.ReleaseGroup, m.RawReleaseGroup) }
func (m MusicBrainzIDs) AlbumArtistString() string { return idString(m.AlbumArtist, m.RawAlbumArtist) }
func (m MusicBrainzIDs) RecordingString() string { return idString(m.Recording, m.RawRecording) }

func idString(u uuid.UUID, raw string) string {
	if u != uuid.Nil {
		return u.String()
	}
	return raw
}

// Tag is the logical metadata entity every format engine projects onto
// and renders from, per spec.md §3. Optional string fields are the
// empty string when unset; numeric fields are zero when unset.
type Tag struct {
	Title       string
	Artist      string
	Album       string
	Year        int
	Comment     string
	Genre       string
	AlbumArtist string
	Composer    string
	Conductor   string
	Copyright   string
	Publisher   string
	ISRC        string
	Lyrics      string

	Track      int
	TotalTracks int
	Disc       int
	TotalDiscs int
	BPM        int

	IsCompilation bool

	TitleSort       string
	ArtistSort      string
	AlbumSort       string
	AlbumArtistSort string

	ReplayGain ReplayGain
	MusicBrainz MusicBrainzIDs

	Pictures []Picture

	// Extension holds format-specific fields with no logical-field home
	// (raw frame/atom/comment payloads, per spec.md §9's "format-only
	// fields live in the extension map").
	Extension map[string]any
}

// IsEmpty reports whether the seven core fields (Title, Artist, Album,
// Year, Comment, Genre, AlbumArtist) and Track are all unset, per
// spec.md §3's is-empty invariant.
func (t *Tag) IsEmpty() bool {
	return t.Title == "" && t.Artist == "" && t.Album == "" && t.Year == 0 &&
		t.Comment == "" && t.Genre == "" && t.AlbumArtist == "" && t.Track == 0
}

// Clear resets every field to its zero value.
func (t *Tag) Clear() {
	*t = Tag{}
}

// Clone returns a deep copy of t.
func (t *Tag) Clone() *Tag {
	c := *t
	c.Pictures = append([]Picture(nil), t.Pictures...)
	if t.Extension != nil {
		c.Extension = make(map[string]any, len(t.Extension))
		for k, v := range t.Extension {
			c.Extension[k] = v
		}
	}
	return &c
}

// AudioProperties holds the stream-level facts extracted independently
// of the tag: duration, sample rate, channel count, bitrate and codec
// name, per spec.md §1.
type AudioProperties struct {
	Duration   float64 // seconds
	SampleRate int     // Hz
	Channels   int
	Bitrate    int // kbps
	Codec      string
	IsVBR      bool
}
