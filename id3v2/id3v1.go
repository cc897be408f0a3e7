package id3v2

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/go-tagkit/tagkit/bytesio"
	"github.com/go-tagkit/tagkit/tagmodel"
)

// ID3v1 is a parsed ID3v1/ID3v1.1 trailer: a fixed 128-byte structure
// at the end of the file, "TAG" magic followed by five fixed-width
// Latin-1 fields and a genre byte. This format does not appear in the
// teacher snapshot retrieved for this engine (id3v1.go is referenced by
// id3v2metadata.go's Genre()/id3v1Genres but absent from the copied
// source tree), so it is supplemented here from the well-known,
// unchanging ID3v1 byte layout the format itself defines, rendered in
// the same hand-rolled-parser style the rest of this package uses.
const (
	ID3v1Size    = 128
	id3v1Magic   = "TAG"
)

var ErrNoID3v1Tag = errors.New("id3v2: no ID3v1 tag found")

// ID3v1Tag holds the decoded fields of an ID3v1/ID3v1.1 trailer.
type ID3v1Tag struct {
	Title   string
	Artist  string
	Album   string
	Year    string
	Comment string
	Track   int // 0 when absent (plain ID3v1, not v1.1)
	Genre   byte
}

// ParseID3v1 reads the trailing 128 bytes of a file (b must be exactly
// that slice, typically file[len(file)-128:]) as an ID3v1 tag.
func ParseID3v1(b []byte) (ID3v1Tag, error) {
	if len(b) != ID3v1Size {
		return ID3v1Tag{}, errors.Errorf("id3v2: ID3v1 tag must be exactly %d bytes, got %d", ID3v1Size, len(b))
	}
	if string(b[0:3]) != id3v1Magic {
		return ID3v1Tag{}, ErrNoID3v1Tag
	}
	t := ID3v1Tag{
		Title:  trimLatin1(b[3:33]),
		Artist: trimLatin1(b[33:63]),
		Album:  trimLatin1(b[63:93]),
		Year:   trimLatin1(b[93:97]),
		Genre:  b[127],
	}
	comment := b[97:127]
	// ID3v1.1: byte 125 is zero and byte 126 holds the track number.
	if comment[28] == 0 && comment[29] != 0 {
		t.Comment = trimLatin1(comment[:28])
		t.Track = int(comment[29])
	} else {
		t.Comment = trimLatin1(comment)
	}
	return t, nil
}

func trimLatin1(b []byte) string {
	i := len(b)
	for i > 0 && b[i-1] == 0 {
		i--
	}
	s, err := bytesio.Decode(bytesio.Latin1, b[:i])
	if err != nil {
		return ""
	}
	return strings.TrimRight(s, " \x00")
}

// Render serializes t back into the fixed 128-byte ID3v1.1 layout
// (always writing the track-number convention, since nearly every
// modern reader expects it).
func (t ID3v1Tag) Render() [ID3v1Size]byte {
	var out [ID3v1Size]byte
	copy(out[0:3], id3v1Magic)
	putLatin1Fixed(out[3:33], t.Title)
	putLatin1Fixed(out[33:63], t.Artist)
	putLatin1Fixed(out[63:93], t.Album)
	putLatin1Fixed(out[93:97], t.Year)
	putLatin1Fixed(out[97:125], t.Comment)
	out[125] = 0
	out[126] = byte(t.Track)
	out[127] = t.Genre
	return out
}

func putLatin1Fixed(dst []byte, s string) {
	enc, err := bytesio.Encode(bytesio.Latin1, s)
	if err != nil {
		return
	}
	n := copy(dst, enc)
	for i := n; i < len(dst); i++ {
		dst[i] = 0
	}
}

// ProjectID3v1 maps an ID3v1Tag onto the logical tagmodel.Tag.
func ProjectID3v1(t ID3v1Tag) *tagmodel.Tag {
	out := &tagmodel.Tag{Extension: map[string]any{}}
	out.Title = t.Title
	out.Artist = t.Artist
	out.Album = t.Album
	out.Comment = t.Comment
	out.Track = t.Track
	out.Genre = GenreName(int(t.Genre))
	if y, err := strconv.Atoi(strings.TrimSpace(t.Year)); err == nil {
		out.Year = y
	}
	return out
}

// ApplyID3v1 renders a logical tagmodel.Tag into an ID3v1Tag,
// truncating fields to their fixed-width capacity and mapping Genre
// back to its numeric index when it matches a known ID3v1 genre name
// (falling back to 12, "Other", otherwise).
func ApplyID3v1(in *tagmodel.Tag) ID3v1Tag {
	genre := byte(12)
	if idx, ok := GenreIndex(in.Genre); ok {
		genre = byte(idx)
	}
	year := ""
	if in.Year != 0 {
		year = strconv.Itoa(in.Year)
	}
	return ID3v1Tag{
		Title:   truncate(in.Title, 30),
		Artist:  truncate(in.Artist, 30),
		Album:   truncate(in.Album, 30),
		Year:    truncate(year, 4),
		Comment: truncate(in.Comment, 28),
		Track:   in.Track,
		Genre:   genre,
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
