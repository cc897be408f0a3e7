package mp4

import (
	"encoding/binary"
	"strings"

	"github.com/pkg/errors"

	"github.com/go-tagkit/tagkit/id3v2"
	"github.com/go-tagkit/tagkit/tagmodel"
)

// DataClass is the "class" field of an ilst "data" sub-atom, per
// spec.md §4.4.2. Grounded on teacher's mp4.go atomTypes map.
type DataClass uint32

const (
	DataClassImplicit DataClass = 0
	DataClassUTF8     DataClass = 1
	DataClassJPEG     DataClass = 13
	DataClassPNG      DataClass = 14
	DataClassUint8    DataClass = 21
)

// itunesAtomNames maps the well-known four-char-code (or copyright-sign
// prefixed) atom types to their logical field name, extended from
// teacher's mp4.go atoms table with the full set spec.md §4.4.2 names.
var itunesAtomNames = map[string]string{
	"\xa9alb": "album", "\xa9art": "artist", "\xa9ART": "artist",
	"aART": "album_artist", "\xa9day": "year", "\xa9nam": "title",
	"\xa9gen": "genre", "gnre": "genre_id3v1", "geID": "genre_id",
	"trkn": "track", "\xa9wrt": "composer", "\xa9too": "encoder",
	"cprt": "copyright", "covr": "picture", "\xa9grp": "grouping",
	"keyw": "keyword", "\xa9lyr": "lyrics", "\xa9cmt": "comment",
	"tmpo": "tempo", "cpil": "compilation", "disk": "disc",
	"soal": "album_sort", "soar": "artist_sort", "sonm": "title_sort",
	"soaa": "album_artist_sort", "\xa9wrk": "work", "\xa9con": "conductor",
	"\xa9pub": "publisher", "sosn": "show_sort",
}

var logicalToAtom = invertAtomNames(itunesAtomNames)

func invertAtomNames(m map[string]string) map[string][]string {
	out := make(map[string][]string)
	for k, v := range m {
		out[v] = append(out[v], k)
	}
	return out
}

// Item is a single decoded ilst entry: either the "----" freeform form
// (Mean/Name set) or a well-known four-char-code atom.
type Item struct {
	Atom string // four-char code, or "" for freeform
	Mean string // freeform only
	Name string // freeform only
	Class DataClass
	Text  string
	Int   int64
	Data  []byte // binary payload (pictures, unrecognized binary data classes)
}

// ParseIlst decodes the children of an "ilst" box into Items.
func ParseIlst(ilst *Box) ([]Item, error) {
	var items []Item
	for _, child := range ilst.Children {
		kids := child.Children
		if kids == nil {
			parsed, err := ParseBoxes(child.Data)
			if err != nil {
				continue
			}
			kids = parsed
		}
		node := &Box{Type: child.Type, Children: kids}
		if child.Type == "----" {
			it, err := parseFreeformItem(node)
			if err != nil {
				continue
			}
			items = append(items, it)
			continue
		}
		dataBox := node.Find("data")
		if dataBox == nil {
			continue
		}
		it, err := parseDataAtom(child.Type, dataBox.Data)
		if err != nil {
			continue
		}
		items = append(items, it)
	}
	return items, nil
}

func parseDataAtom(atomType string, b []byte) (Item, error) {
	if len(b) < 8 {
		return Item{}, errors.New("mp4: truncated data atom")
	}
	class := DataClass(binary.BigEndian.Uint32(b[0:4]) & 0x00FFFFFF)
	// next 4 bytes: locale indicator, usually zero.
	payload := b[8:]

	if atomType == "trkn" || atomType == "disk" {
		return parseTrknDisk(atomType, payload)
	}
	if atomType == "gnre" {
		if len(payload) < 1 {
			return Item{}, errors.New("mp4: truncated gnre atom")
		}
		return Item{Atom: atomType, Class: DataClassUint8, Int: int64(payload[len(payload)-1])}, nil
	}

	switch class {
	case DataClassUTF8, DataClassImplicit:
		return Item{Atom: atomType, Class: DataClassUTF8, Text: string(payload)}, nil
	case DataClassUint8:
		if len(payload) == 0 {
			return Item{}, errors.New("mp4: empty uint8 data atom")
		}
		return Item{Atom: atomType, Class: class, Int: int64(payload[len(payload)-1])}, nil
	case DataClassJPEG, DataClassPNG:
		return Item{Atom: atomType, Class: class, Data: payload}, nil
	default:
		return Item{Atom: atomType, Class: class, Data: payload}, nil
	}
}

func parseTrknDisk(atomType string, b []byte) (Item, error) {
	if len(b) < 6 {
		return Item{}, errors.New("mp4: truncated trkn/disk atom")
	}
	n := int64(b[3])
	total := int64(b[5])
	return Item{Atom: atomType, Class: DataClassUint8, Int: n<<16 | total}, nil
}

// TrackOf unpacks an Item parsed from trkn/disk into (number, total).
func (it Item) TrackOf() (int, int) {
	return int(it.Int >> 16), int(it.Int & 0xFFFF)
}

func parseFreeformItem(box *Box) (Item, error) {
	var mean, name string
	var data []byte
	for _, c := range box.Children {
		switch c.Type {
		case "mean":
			if len(c.Data) > 4 {
				mean = string(c.Data[4:])
			}
		case "name":
			if len(c.Data) > 4 {
				name = string(c.Data[4:])
			}
		case "data":
			if len(c.Data) > 8 {
				data = c.Data[8:]
			}
		}
	}
	if mean == "" || name == "" {
		return Item{}, errors.New("mp4: incomplete freeform atom")
	}
	return Item{Mean: mean, Name: name, Class: DataClassUTF8, Text: string(data), Data: data}, nil
}

// RenderIlst serializes items back into an "ilst" Box.
func RenderIlst(items []Item) *Box {
	ilst := &Box{Type: "ilst", Children: []*Box{}}
	for _, it := range items {
		if it.Mean != "" {
			ilst.Children = append(ilst.Children, renderFreeformItem(it))
			continue
		}
		ilst.Children = append(ilst.Children, renderAtomItem(it))
	}
	return ilst
}

func renderAtomItem(it Item) *Box {
	var dataPayload []byte
	class := it.Class
	switch it.Atom {
	case "trkn", "disk":
		n, total := it.TrackOf()
		dataPayload = make([]byte, 8)
		binary.BigEndian.PutUint16(dataPayload[2:4], uint16(n))
		binary.BigEndian.PutUint16(dataPayload[4:6], uint16(total))
		class = DataClassUint8
	case "gnre":
		dataPayload = []byte{byte(it.Int)}
		class = DataClassUint8
	default:
		if len(it.Data) > 0 {
			dataPayload = it.Data
		} else if class == DataClassUint8 {
			dataPayload = []byte{byte(it.Int)}
		} else {
			dataPayload = []byte(it.Text)
			class = DataClassUTF8
		}
	}
	header := make([]byte, 8, 8+len(dataPayload))
	binary.BigEndian.PutUint32(header[0:4], uint32(class))
	data := &Box{Type: "data", Data: append(header, dataPayload...)}
	return &Box{Type: it.Atom, Children: []*Box{data}}
}

func renderFreeformItem(it Item) *Box {
	mean := &Box{Type: "mean", Data: append([]byte{0, 0, 0, 0}, []byte(it.Mean)...)}
	name := &Box{Type: "name", Data: append([]byte{0, 0, 0, 0}, []byte(it.Name)...)}
	payload := it.Data
	if payload == nil {
		payload = []byte(it.Text)
	}
	header := []byte{0, 0, 0, 1, 0, 0, 0, 0}
	data := &Box{Type: "data", Data: append(append([]byte(nil), header...), payload...)}
	return &Box{Type: "----", Children: []*Box{mean, name, data}}
}

// Project maps the decoded ilst items onto the logical tagmodel.Tag.
func Project(items []Item) *tagmodel.Tag {
	out := &tagmodel.Tag{Extension: map[string]any{}}
	find := func(atom string) (Item, bool) {
		for _, it := range items {
			if it.Atom == atom {
				return it, true
			}
		}
		return Item{}, false
	}
	if it, ok := find("\xa9nam"); ok {
		out.Title = it.Text
	}
	if it, ok := find("\xa9art"); ok {
		out.Artist = it.Text
	} else if it, ok := find("\xa9ART"); ok {
		out.Artist = it.Text
	}
	if it, ok := find("\xa9alb"); ok {
		out.Album = it.Text
	}
	if it, ok := find("aART"); ok {
		out.AlbumArtist = it.Text
	}
	if it, ok := find("\xa9wrt"); ok {
		out.Composer = it.Text
	}
	if it, ok := find("\xa9con"); ok {
		out.Conductor = it.Text
	}
	if it, ok := find("cprt"); ok {
		out.Copyright = it.Text
	}
	if it, ok := find("\xa9pub"); ok {
		out.Publisher = it.Text
	}
	if it, ok := find("\xa9lyr"); ok {
		out.Lyrics = it.Text
	}
	if it, ok := find("\xa9cmt"); ok {
		out.Comment = it.Text
	}
	if it, ok := find("sonm"); ok {
		out.TitleSort = it.Text
	}
	if it, ok := find("soar"); ok {
		out.ArtistSort = it.Text
	}
	if it, ok := find("soal"); ok {
		out.AlbumSort = it.Text
	}
	if it, ok := find("soaa"); ok {
		out.AlbumArtistSort = it.Text
	}
	if it, ok := find("tmpo"); ok {
		out.BPM = int(it.Int)
	}
	if it, ok := find("cpil"); ok {
		out.IsCompilation = it.Int != 0
	}
	if it, ok := find("\xa9day"); ok && len(it.Text) >= 4 {
		out.Year = atoiSafe(it.Text[:4])
	}
	if it, ok := find("trkn"); ok {
		out.Track, out.TotalTracks = it.TrackOf()
	}
	if it, ok := find("disk"); ok {
		out.Disc, out.TotalDiscs = it.TrackOf()
	}
	if it, ok := find("\xa9gen"); ok && it.Text != "" {
		out.Genre = it.Text
	} else if it, ok := find("gnre"); ok {
		out.Genre = id3v2.GenreName(int(it.Int) - 1)
	} else if it, ok := find("geID"); ok {
		out.Genre = GenreIDName(int(it.Int))
	}

	for _, it := range items {
		if it.Atom == "covr" {
			out.Pictures = append(out.Pictures, tagmodel.Picture{
				MIMEType: mimeForClass(it.Class),
				Data:     it.Data,
			})
		}
		if it.Mean == "com.apple.iTunes" {
			switch it.Name {
			case "MusicBrainz Track Id":
				out.MusicBrainz.SetRecording(it.Text)
			case "MusicBrainz Album Id":
				out.MusicBrainz.SetRelease(it.Text)
			case "MusicBrainz Artist Id":
				out.MusicBrainz.SetArtist(it.Text)
			case "MusicBrainz Release Group Id":
				out.MusicBrainz.SetReleaseGroup(it.Text)
			case "MusicBrainz Album Artist Id":
				out.MusicBrainz.SetAlbumArtist(it.Text)
			case "replaygain_track_gain":
				out.ReplayGain.TrackGain = it.Text
			case "replaygain_track_peak":
				out.ReplayGain.TrackPeak = it.Text
			case "replaygain_album_gain":
				out.ReplayGain.AlbumGain = it.Text
			case "replaygain_album_peak":
				out.ReplayGain.AlbumPeak = it.Text
			}
		}
	}
	out.Extension["mp4.rawitems"] = items
	return out
}

func mimeForClass(c DataClass) string {
	switch c {
	case DataClassPNG:
		return "image/png"
	case DataClassJPEG:
		return "image/jpeg"
	default:
		return "image/jpeg"
	}
}

func atoiSafe(s string) int {
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0
		}
		n = n*10 + int(c-'0')
	}
	return n
}

// Apply renders a logical tagmodel.Tag into an ilst Item list.
func Apply(in *tagmodel.Tag) []Item {
	var items []Item
	addText := func(atom, s string) {
		if s != "" {
			items = append(items, Item{Atom: atom, Class: DataClassUTF8, Text: s})
		}
	}
	addText("\xa9nam", in.Title)
	addText("\xa9art", in.Artist)
	addText("\xa9alb", in.Album)
	addText("aART", in.AlbumArtist)
	addText("\xa9wrt", in.Composer)
	addText("\xa9con", in.Conductor)
	addText("cprt", in.Copyright)
	addText("\xa9pub", in.Publisher)
	addText("\xa9lyr", in.Lyrics)
	addText("\xa9cmt", in.Comment)
	addText("\xa9gen", in.Genre)
	addText("sonm", in.TitleSort)
	addText("soar", in.ArtistSort)
	addText("soal", in.AlbumSort)
	addText("soaa", in.AlbumArtistSort)

	if in.Year != 0 {
		addText("\xa9day", itoa(in.Year))
	}
	if in.BPM != 0 {
		items = append(items, Item{Atom: "tmpo", Class: DataClassUint8, Int: int64(in.BPM)})
	}
	if in.IsCompilation {
		items = append(items, Item{Atom: "cpil", Class: DataClassUint8, Int: 1})
	}
	if in.Track != 0 {
		items = append(items, Item{Atom: "trkn", Int: int64(in.Track)<<16 | int64(in.TotalTracks)})
	}
	if in.Disc != 0 {
		items = append(items, Item{Atom: "disk", Int: int64(in.Disc)<<16 | int64(in.TotalDiscs)})
	}

	addFreeform := func(name, value string) {
		if value != "" {
			items = append(items, Item{Mean: "com.apple.iTunes", Name: name, Class: DataClassUTF8, Text: value})
		}
	}
	addFreeform("MusicBrainz Track Id", in.MusicBrainz.RecordingString())
	addFreeform("MusicBrainz Album Id", in.MusicBrainz.ReleaseString())
	addFreeform("MusicBrainz Artist Id", in.MusicBrainz.ArtistString())
	addFreeform("MusicBrainz Release Group Id", in.MusicBrainz.ReleaseGroupString())
	addFreeform("MusicBrainz Album Artist Id", in.MusicBrainz.AlbumArtistString())
	addFreeform("replaygain_track_gain", in.ReplayGain.TrackGain)
	addFreeform("replaygain_track_peak", in.ReplayGain.TrackPeak)
	addFreeform("replaygain_album_gain", in.ReplayGain.AlbumGain)
	addFreeform("replaygain_album_peak", in.ReplayGain.AlbumPeak)

	for _, p := range in.Pictures {
		class := DataClassJPEG
		if strings.Contains(p.MIMEType, "png") {
			class = DataClassPNG
		}
		items = append(items, Item{Atom: "covr", Class: class, Data: p.Data})
	}
	return items
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
