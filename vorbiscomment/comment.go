// Package vorbiscomment implements the Vorbis Comment codec shared by
// FLAC's VORBIS_COMMENT metadata block and Ogg's comment header packet,
// per spec.md §4.5. Grounded on teacher's flac.go
// (readVorbisComment/parseComment), generalized from a single read-only
// walk into a standalone encode+decode codec so both flac and
// oggcontainer can render as well as parse.
package vorbiscomment

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/go-tagkit/tagkit/bytesio"
	"github.com/go-tagkit/tagkit/tagmodel"
)

// Comment is a parsed Vorbis Comment block: the vendor string plus an
// ordered list of "FIELD=value" entries. Order is preserved since
// multi-valued fields (e.g. multiple ARTIST entries) are meaningful and
// must round-trip, per spec.md §4.5.
type Comment struct {
	Vendor  string
	Entries []Entry
}

// Entry is one comment field. Key is stored upper-cased per the Vorbis
// Comment spec's case-insensitive-but-conventionally-uppercase field
// names; Value retains its original case.
type Entry struct {
	Key   string
	Value string
}

// Get returns the first entry's value for key (case-insensitive), or
// "" if absent.
func (c Comment) Get(key string) string {
	key = strings.ToUpper(key)
	for _, e := range c.Entries {
		if e.Key == key {
			return e.Value
		}
	}
	return ""
}

// All returns every entry's value for key, in original order.
func (c Comment) All(key string) []string {
	key = strings.ToUpper(key)
	var out []string
	for _, e := range c.Entries {
		if e.Key == key {
			out = append(out, e.Value)
		}
	}
	return out
}

// Set replaces every existing entry for key with a single new entry,
// or appends one if key was absent. Passing an empty value removes the
// field.
func (c *Comment) Set(key, value string) {
	key = strings.ToUpper(key)
	filtered := c.Entries[:0]
	for _, e := range c.Entries {
		if e.Key == key {
			continue
		}
		filtered = append(filtered, e)
	}
	c.Entries = filtered
	if value != "" {
		c.Entries = append(c.Entries, Entry{Key: key, Value: value})
	}
}

// Add appends an additional value for key without removing existing
// entries, for multi-valued fields like ARTIST.
func (c *Comment) Add(key, value string) {
	c.Entries = append(c.Entries, Entry{Key: strings.ToUpper(key), Value: value})
}

// Parse decodes b, the payload of a Vorbis Comment header (no framing
// byte/signature prefix — callers strip the "\x03vorbis" or FLAC block
// header before calling Parse).
func Parse(b []byte) (Comment, error) {
	v := bytesio.NewView(b)
	vendorLen, err := v.ReadU32LE(0)
	if err != nil {
		return Comment{}, errors.Wrap(err, "vorbiscomment: vendor length")
	}
	off := 4
	vendor, err := readString(v, off, int(vendorLen))
	if err != nil {
		return Comment{}, errors.Wrap(err, "vorbiscomment: vendor string")
	}
	off += int(vendorLen)

	count, err := v.ReadU32LE(off)
	if err != nil {
		return Comment{}, errors.Wrap(err, "vorbiscomment: comment count")
	}
	off += 4

	c := Comment{Vendor: vendor}
	for i := uint32(0); i < count; i++ {
		l, err := v.ReadU32LE(off)
		if err != nil {
			return Comment{}, errors.Wrapf(err, "vorbiscomment: entry %d length", i)
		}
		off += 4
		s, err := readString(v, off, int(l))
		if err != nil {
			return Comment{}, errors.Wrapf(err, "vorbiscomment: entry %d", i)
		}
		off += int(l)
		k, val, err := parseEntry(s)
		if err != nil {
			return Comment{}, err
		}
		c.Entries = append(c.Entries, Entry{Key: strings.ToUpper(k), Value: val})
	}
	return c, nil
}

func readString(v bytesio.View, off, n int) (string, error) {
	b, err := v.ReadBytes(off, n)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func parseEntry(s string) (k, v string, err error) {
	i := strings.IndexByte(s, '=')
	if i < 0 {
		return "", "", errors.New("vorbiscomment: entry missing '='")
	}
	return s[:i], s[i+1:], nil
}

// Render serializes c back to wire bytes (no framing prefix).
func Render(c Comment) []byte {
	bd := bytesio.NewBuilder(64 + len(c.Entries)*32)
	defer bd.Release()
	bd.U32LE(uint32(len(c.Vendor)))
	bd.Raw([]byte(c.Vendor))
	bd.U32LE(uint32(len(c.Entries)))
	for _, e := range c.Entries {
		line := e.Key + "=" + e.Value
		bd.U32LE(uint32(len(line)))
		bd.Raw([]byte(line))
	}
	return append([]byte(nil), bd.Bytes()...)
}

// Project maps a Comment onto the logical tagmodel.Tag, per the field
// names at https://wiki.xiph.org/Field_names, grounded on teacher's
// metadataFLAC Title/Artist/Album/Genre/Track/Disc accessors generalized
// to every spec.md §3 field.
func Project(c Comment) *tagmodel.Tag {
	out := &tagmodel.Tag{Extension: map[string]any{}}
	out.Title = c.Get("TITLE")
	out.Album = c.Get("ALBUM")
	out.Genre = c.Get("GENRE")
	out.Composer = c.Get("COMPOSER")
	out.Conductor = c.Get("CONDUCTOR")
	out.Copyright = c.Get("COPYRIGHT")
	if pub := c.Get("PUBLISHER"); pub != "" {
		out.Publisher = pub
	} else {
		out.Publisher = c.Get("LABEL")
	}
	out.ISRC = c.Get("ISRC")
	out.Lyrics = c.Get("LYRICS")
	out.Comment = c.Get("COMMENT")
	out.TitleSort = c.Get("TITLESORT")
	out.ArtistSort = c.Get("ARTISTSORT")
	out.AlbumSort = c.Get("ALBUMSORT")
	out.AlbumArtistSort = c.Get("ALBUMARTISTSORT")
	out.AlbumArtist = c.Get("ALBUMARTIST")

	if performer := c.Get("PERFORMER"); performer != "" {
		out.Artist = performer
	} else {
		out.Artist = c.Get("ARTIST")
	}

	out.Track = atoi(c.Get("TRACKNUMBER"))
	out.TotalTracks = atoi(c.Get("TRACKTOTAL"))
	out.Disc = atoi(c.Get("DISCNUMBER"))
	out.TotalDiscs = atoi(c.Get("DISCTOTAL"))
	out.BPM = atoi(c.Get("BPM"))
	out.IsCompilation = c.Get("COMPILATION") == "1"
	out.Year = yearFromDate(c.Get("DATE"))

	out.ReplayGain.TrackGain = c.Get("REPLAYGAIN_TRACK_GAIN")
	out.ReplayGain.TrackPeak = c.Get("REPLAYGAIN_TRACK_PEAK")
	out.ReplayGain.AlbumGain = c.Get("REPLAYGAIN_ALBUM_GAIN")
	out.ReplayGain.AlbumPeak = c.Get("REPLAYGAIN_ALBUM_PEAK")

	out.MusicBrainz.SetTrack(c.Get("MUSICBRAINZ_TRACKID"))
	out.MusicBrainz.SetRelease(c.Get("MUSICBRAINZ_ALBUMID"))
	out.MusicBrainz.SetArtist(c.Get("MUSICBRAINZ_ARTISTID"))
	out.MusicBrainz.SetReleaseGroup(c.Get("MUSICBRAINZ_RELEASEGROUPID"))
	out.MusicBrainz.SetAlbumArtist(c.Get("MUSICBRAINZ_ALBUMARTISTID"))
	out.MusicBrainz.SetRecording(c.Get("MUSICBRAINZ_RELEASETRACKID"))

	out.Extension["vorbis.vendor"] = c.Vendor
	out.Extension["vorbis.rawentries"] = c.Entries
	return out
}

func yearFromDate(date string) int {
	if len(date) < 4 {
		return 0
	}
	return atoi(date[:4])
}

func atoi(s string) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0
		}
		n = n*10 + int(r-'0')
	}
	return n
}

// Apply renders a logical tagmodel.Tag into a Comment, preserving base's
// vendor string and the unrecognized entries that Project recorded in
// in.Extension["vorbis.rawentries"]; base's own entries are not read
// (pass a zero Comment to build one from scratch).
func Apply(base Comment, in *tagmodel.Tag) Comment {
	c := Comment{Vendor: base.Vendor}
	if raw, ok := in.Extension["vorbis.rawentries"].([]Entry); ok {
		for _, e := range raw {
			if !knownField[e.Key] {
				c.Entries = append(c.Entries, e)
			}
		}
	}

	set := func(key, value string) {
		if value != "" {
			c.Add(key, value)
		}
	}
	set("TITLE", in.Title)
	set("ARTIST", in.Artist)
	set("ALBUM", in.Album)
	set("ALBUMARTIST", in.AlbumArtist)
	set("GENRE", in.Genre)
	set("COMPOSER", in.Composer)
	set("CONDUCTOR", in.Conductor)
	set("COPYRIGHT", in.Copyright)
	set("PUBLISHER", in.Publisher)
	set("ISRC", in.ISRC)
	set("LYRICS", in.Lyrics)
	set("COMMENT", in.Comment)
	set("TITLESORT", in.TitleSort)
	set("ARTISTSORT", in.ArtistSort)
	set("ALBUMSORT", in.AlbumSort)
	set("ALBUMARTISTSORT", in.AlbumArtistSort)

	if in.Year != 0 {
		set("DATE", itoa(in.Year))
	}
	if in.Track != 0 {
		set("TRACKNUMBER", itoa(in.Track))
	}
	if in.TotalTracks != 0 {
		set("TRACKTOTAL", itoa(in.TotalTracks))
	}
	if in.Disc != 0 {
		set("DISCNUMBER", itoa(in.Disc))
	}
	if in.TotalDiscs != 0 {
		set("DISCTOTAL", itoa(in.TotalDiscs))
	}
	if in.BPM != 0 {
		set("BPM", itoa(in.BPM))
	}
	if in.IsCompilation {
		set("COMPILATION", "1")
	}

	set("REPLAYGAIN_TRACK_GAIN", in.ReplayGain.TrackGain)
	set("REPLAYGAIN_TRACK_PEAK", in.ReplayGain.TrackPeak)
	set("REPLAYGAIN_ALBUM_GAIN", in.ReplayGain.AlbumGain)
	set("REPLAYGAIN_ALBUM_PEAK", in.ReplayGain.AlbumPeak)

	set("MUSICBRAINZ_TRACKID", in.MusicBrainz.TrackString())
	set("MUSICBRAINZ_ALBUMID", in.MusicBrainz.ReleaseString())
	set("MUSICBRAINZ_ARTISTID", in.MusicBrainz.ArtistString())
	set("MUSICBRAINZ_RELEASEGROUPID", in.MusicBrainz.ReleaseGroupString())
	set("MUSICBRAINZ_ALBUMARTISTID", in.MusicBrainz.AlbumArtistString())
	set("MUSICBRAINZ_RELEASETRACKID", in.MusicBrainz.RecordingString())

	return c
}

var knownField = map[string]bool{
	"TITLE": true, "ARTIST": true, "ALBUM": true, "ALBUMARTIST": true,
	"GENRE": true, "COMPOSER": true, "CONDUCTOR": true, "COPYRIGHT": true,
	"PUBLISHER": true, "ISRC": true, "LYRICS": true, "COMMENT": true,
	"TITLESORT": true, "ARTISTSORT": true, "ALBUMSORT": true, "ALBUMARTISTSORT": true,
	"DATE": true, "TRACKNUMBER": true, "TRACKTOTAL": true, "DISCNUMBER": true,
	"DISCTOTAL": true, "BPM": true, "COMPILATION": true,
	"REPLAYGAIN_TRACK_GAIN": true, "REPLAYGAIN_TRACK_PEAK": true,
	"REPLAYGAIN_ALBUM_GAIN": true, "REPLAYGAIN_ALBUM_PEAK": true,
	"MUSICBRAINZ_TRACKID": true, "MUSICBRAINZ_ALBUMID": true,
	"MUSICBRAINZ_ARTISTID": true, "MUSICBRAINZ_RELEASEGROUPID": true,
	"MUSICBRAINZ_ALBUMARTISTID": true, "MUSICBRAINZ_RELEASETRACKID": true,
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}
