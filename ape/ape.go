// Package ape implements the APEv2 tag format: the 32-byte
// footer/header (magic "APETAGEX", version, tag size, item count,
// flags), and the item list (value-size, flags, null-terminated ASCII
// key, value bytes), per spec.md §4.6. Shared verbatim by standalone
// APE tags, WavPack, and Monkey's Audio trailers. New: no teacher or
// pack example covers APEv2, so the codec is grounded directly on the
// spec's byte layout, in the same Parse/Render-plus-Project/Apply shape
// used throughout the rest of this module (id3v2.Tag, mp4.File).
package ape

import (
	"encoding/binary"
	"strings"

	"github.com/pkg/errors"

	"github.com/go-tagkit/tagkit/tagmodel"
)

const (
	magic      = "APETAGEX"
	FooterSize = 32
)

// Item flags (bit 0 of the 32-bit flags field: read-only; bits 1-2:
// value type) and tag header/footer flags (bit 31: "tag contains a
// header"; bit 29: "this is a header").
const (
	ItemTypeUTF8   = 0
	ItemTypeBinary = 1
	ItemTypeLocator = 2 // external reference, stored as UTF-8 text
	ItemTypeReserved = 3

	flagContainsHeader = 1 << 31
	flagIsHeader        = 1 << 29
	flagReadOnly        = 1 << 0
)

// Item is a single APEv2 tag entry.
type Item struct {
	Key   string
	Type  int // one of ItemType*
	Value []byte
	ReadOnly bool
}

// Text returns Value interpreted as a UTF-8 string (valid for
// ItemTypeUTF8/ItemTypeLocator items).
func (it Item) Text() string { return string(it.Value) }

// Tag is a decoded APEv2 tag: its version and item list.
type Tag struct {
	Version int
	Items   []Item
}

// Get returns the first item's text value for key (case-insensitive),
// or "" if absent.
func (t Tag) Get(key string) string {
	for _, it := range t.Items {
		if strings.EqualFold(it.Key, key) {
			return it.Text()
		}
	}
	return ""
}

// ErrNoMagic is returned when a footer/header does not carry the
// "APETAGEX" signature.
var ErrNoMagic = errors.New("ape: missing 'APETAGEX' magic")

// Footer holds the fields of a 32-byte APEv2 footer or header.
type Footer struct {
	Version   uint32
	TagSize   uint32 // size of the item list plus this footer; the optional header is not counted
	ItemCount uint32
	Flags     uint32
}

// ParseFooter decodes a 32-byte APEv2 footer or header.
func ParseFooter(b []byte) (Footer, error) {
	if len(b) < FooterSize || string(b[0:8]) != magic {
		return Footer{}, ErrNoMagic
	}
	return Footer{
		Version:   binary.LittleEndian.Uint32(b[8:12]),
		TagSize:   binary.LittleEndian.Uint32(b[12:16]),
		ItemCount: binary.LittleEndian.Uint32(b[16:20]),
		Flags:     binary.LittleEndian.Uint32(b[20:24]),
	}, nil
}

// Render serializes f to a 32-byte footer/header. isHeader sets the
// "this is a header" bit rather than leaving it clear for a footer.
func (f Footer) Render(isHeader bool) []byte {
	out := make([]byte, FooterSize)
	copy(out[0:8], magic)
	binary.LittleEndian.PutUint32(out[8:12], f.Version)
	binary.LittleEndian.PutUint32(out[12:16], f.TagSize)
	binary.LittleEndian.PutUint32(out[16:20], f.ItemCount)
	flags := f.Flags | flagContainsHeader
	if isHeader {
		flags |= flagIsHeader
	}
	binary.LittleEndian.PutUint32(out[20:24], flags)
	return out
}

// ParseItems decodes count items starting at the beginning of b (the
// byte range between an optional header and the footer).
func ParseItems(b []byte, count uint32) ([]Item, error) {
	var items []Item
	off := 0
	for i := uint32(0); i < count; i++ {
		if off+8 > len(b) {
			return nil, errors.Errorf("ape: truncated item %d header", i)
		}
		valueSize := binary.LittleEndian.Uint32(b[off : off+4])
		flags := binary.LittleEndian.Uint32(b[off+4 : off+8])
		off += 8

		keyEnd := indexNull(b, off)
		if keyEnd < 0 {
			return nil, errors.Errorf("ape: item %d key missing null terminator", i)
		}
		key := string(b[off:keyEnd])
		off = keyEnd + 1

		if off+int(valueSize) > len(b) {
			return nil, errors.Errorf("ape: item %q value overruns buffer", key)
		}
		value := append([]byte(nil), b[off:off+int(valueSize)]...)
		off += int(valueSize)

		items = append(items, Item{
			Key:      key,
			Type:     int(flags>>1) & 0x3,
			Value:    value,
			ReadOnly: flags&flagReadOnly != 0,
		})
	}
	return items, nil
}

func indexNull(b []byte, from int) int {
	for i := from; i < len(b); i++ {
		if b[i] == 0 {
			return i
		}
	}
	return -1
}

// RenderItems serializes items to the item-list byte range.
func RenderItems(items []Item) []byte {
	var out []byte
	for _, it := range items {
		var header [8]byte
		binary.LittleEndian.PutUint32(header[0:4], uint32(len(it.Value)))
		flags := uint32(it.Type) << 1
		if it.ReadOnly {
			flags |= flagReadOnly
		}
		binary.LittleEndian.PutUint32(header[4:8], flags)
		out = append(out, header[:]...)
		out = append(out, []byte(it.Key)...)
		out = append(out, 0)
		out = append(out, it.Value...)
	}
	return out
}

// ParseTag decodes a whole APEv2 tag (with or without a leading
// header) from b, using the trailing 32 bytes as the footer.
func ParseTag(b []byte) (*Tag, error) {
	if len(b) < FooterSize {
		return nil, errors.New("ape: buffer shorter than footer")
	}
	footer, err := ParseFooter(b[len(b)-FooterSize:])
	if err != nil {
		return nil, err
	}
	// TagSize covers the item list plus the footer, but never the
	// optional header, per the APEv2 spec.
	itemsEnd := len(b) - FooterSize
	itemsStart := itemsEnd - int(footer.TagSize) + FooterSize
	if itemsStart < 0 || itemsStart > itemsEnd {
		return nil, errors.New("ape: tag size does not fit buffer")
	}
	items, err := ParseItems(b[itemsStart:itemsEnd], footer.ItemCount)
	if err != nil {
		return nil, err
	}
	return &Tag{Version: int(footer.Version), Items: items}, nil
}

// Render serializes t into a full APEv2 tag: a header, the item list,
// and a footer, per the "ape tags should always have both" convention
// most modern writers follow.
func (t Tag) Render() []byte {
	itemBytes := RenderItems(t.Items)
	version := t.Version
	if version == 0 {
		version = 2000
	}
	f := Footer{Version: uint32(version), ItemCount: uint32(len(t.Items)), TagSize: uint32(FooterSize + len(itemBytes))}

	var out []byte
	out = append(out, f.Render(true)...)
	out = append(out, itemBytes...)
	out = append(out, f.Render(false)...)
	return out
}

// Project maps a decoded Tag onto the logical tagmodel.Tag, per the
// APEv2 key conventions documented at
// http://wiki.hydrogenaud.io/index.php?title=APE_key.
func Project(t *Tag) *tagmodel.Tag {
	out := &tagmodel.Tag{Extension: map[string]any{}}
	out.Title = t.Get("Title")
	out.Artist = t.Get("Artist")
	out.Album = t.Get("Album")
	out.AlbumArtist = t.Get("Album Artist")
	out.Composer = t.Get("Composer")
	out.Conductor = t.Get("Conductor")
	out.Copyright = t.Get("Copyright")
	out.Publisher = t.Get("Publisher")
	out.ISRC = t.Get("ISRC")
	out.Lyrics = t.Get("Lyrics")
	out.Comment = t.Get("Comment")
	out.Genre = t.Get("Genre")
	out.Year = atoi(firstFour(t.Get("Year")))
	out.Track = atoi(beforeSlash(t.Get("Track")))
	out.TotalTracks = atoi(afterSlash(t.Get("Track")))
	out.Disc = atoi(beforeSlash(t.Get("Disc")))
	out.TotalDiscs = atoi(afterSlash(t.Get("Disc")))
	out.IsCompilation = t.Get("Compilation") == "1"

	out.ReplayGain.TrackGain = t.Get("replaygain_track_gain")
	out.ReplayGain.TrackPeak = t.Get("replaygain_track_peak")
	out.ReplayGain.AlbumGain = t.Get("replaygain_album_gain")
	out.ReplayGain.AlbumPeak = t.Get("replaygain_album_peak")

	out.MusicBrainz.SetTrack(t.Get("MUSICBRAINZ_TRACKID"))
	out.MusicBrainz.SetRelease(t.Get("MUSICBRAINZ_ALBUMID"))
	out.MusicBrainz.SetArtist(t.Get("MUSICBRAINZ_ARTISTID"))

	for _, it := range t.Items {
		if strings.EqualFold(it.Key, "Cover Art (front)") && it.Type == ItemTypeBinary {
			out.Pictures = append(out.Pictures, parseCoverArtItem(it))
		}
	}
	out.Extension["ape.rawitems"] = t.Items
	return out
}

// parseCoverArtItem splits an APEv2 "Cover Art (front)" item's value
// into its null-terminated description and following binary image
// bytes, per the convention established by Monkey's Audio's tagger.
func parseCoverArtItem(it Item) tagmodel.Picture {
	idx := indexNull(it.Value, 0)
	if idx < 0 {
		return tagmodel.Picture{Data: it.Value, MIMEType: tagmodel.SniffMIME(it.Value)}
	}
	desc := string(it.Value[:idx])
	data := it.Value[idx+1:]
	return tagmodel.Picture{Description: desc, Data: data, MIMEType: tagmodel.SniffMIME(data)}
}

func firstFour(s string) string {
	if len(s) < 4 {
		return s
	}
	return s[:4]
}

func beforeSlash(s string) string {
	if i := strings.IndexByte(s, '/'); i >= 0 {
		return s[:i]
	}
	return s
}

func afterSlash(s string) string {
	if i := strings.IndexByte(s, '/'); i >= 0 {
		return s[i+1:]
	}
	return ""
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

// Apply renders a logical tagmodel.Tag into an APEv2 Tag, preserving
// any unrecognized items already present in base.
func Apply(base *Tag, in *tagmodel.Tag) *Tag {
	out := &Tag{Version: base.Version}
	if raw, ok := in.Extension["ape.rawitems"].([]Item); ok {
		for _, it := range raw {
			if !knownKey[strings.ToUpper(it.Key)] {
				out.Items = append(out.Items, it)
			}
		}
	}
	add := func(key, value string) {
		if value != "" {
			out.Items = append(out.Items, Item{Key: key, Type: ItemTypeUTF8, Value: []byte(value)})
		}
	}
	add("Title", in.Title)
	add("Artist", in.Artist)
	add("Album", in.Album)
	add("Album Artist", in.AlbumArtist)
	add("Composer", in.Composer)
	add("Conductor", in.Conductor)
	add("Copyright", in.Copyright)
	add("Publisher", in.Publisher)
	add("ISRC", in.ISRC)
	add("Lyrics", in.Lyrics)
	add("Comment", in.Comment)
	add("Genre", in.Genre)
	if in.Year != 0 {
		add("Year", itoa(in.Year))
	}
	if in.Track != 0 {
		if in.TotalTracks != 0 {
			add("Track", itoa(in.Track)+"/"+itoa(in.TotalTracks))
		} else {
			add("Track", itoa(in.Track))
		}
	}
	if in.Disc != 0 {
		if in.TotalDiscs != 0 {
			add("Disc", itoa(in.Disc)+"/"+itoa(in.TotalDiscs))
		} else {
			add("Disc", itoa(in.Disc))
		}
	}
	if in.IsCompilation {
		add("Compilation", "1")
	}
	add("replaygain_track_gain", in.ReplayGain.TrackGain)
	add("replaygain_track_peak", in.ReplayGain.TrackPeak)
	add("replaygain_album_gain", in.ReplayGain.AlbumGain)
	add("replaygain_album_peak", in.ReplayGain.AlbumPeak)
	add("MUSICBRAINZ_TRACKID", in.MusicBrainz.TrackString())
	add("MUSICBRAINZ_ALBUMID", in.MusicBrainz.ReleaseString())
	add("MUSICBRAINZ_ARTISTID", in.MusicBrainz.ArtistString())

	for _, p := range in.Pictures {
		value := append(append([]byte(p.Description), 0), p.Data...)
		out.Items = append(out.Items, Item{Key: "Cover Art (Front)", Type: ItemTypeBinary, Value: value})
	}
	return out
}

var knownKey = map[string]bool{
	"TITLE": true, "ARTIST": true, "ALBUM": true, "ALBUM ARTIST": true,
	"COMPOSER": true, "CONDUCTOR": true, "COPYRIGHT": true, "PUBLISHER": true,
	"ISRC": true, "LYRICS": true, "COMMENT": true, "GENRE": true, "YEAR": true,
	"TRACK": true, "DISC": true, "COMPILATION": true,
	"REPLAYGAIN_TRACK_GAIN": true, "REPLAYGAIN_TRACK_PEAK": true,
	"REPLAYGAIN_ALBUM_GAIN": true, "REPLAYGAIN_ALBUM_PEAK": true,
	"MUSICBRAINZ_TRACKID": true, "MUSICBRAINZ_ALBUMID": true, "MUSICBRAINZ_ARTISTID": true,
	"COVER ART (FRONT)": true,
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
