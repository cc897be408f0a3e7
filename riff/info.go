package riff

import (
	"strings"

	"github.com/go-tagkit/tagkit/id3v2"
	"github.com/go-tagkit/tagkit/tagmodel"
)

// infoFieldNames maps the four-character RIFF INFO sub-chunk IDs to
// their logical field name, per spec.md §4.6 and the Microsoft
// RIFF1991/INFO convention.
var infoFieldNames = map[string]string{
	"INAM": "title", "IART": "artist", "IPRD": "album",
	"ICMT": "comment", "IGNR": "genre", "ICRD": "year",
	"ITRK": "track", "IPRT": "track", "TRCK": "track",
	"ICOP": "copyright", "IPUB": "publisher", "ISFT": "encoder",
}

// ProjectInfo maps an "INFO" LIST chunk onto the logical tagmodel.Tag.
func ProjectInfo(info *Chunk) *tagmodel.Tag {
	out := &tagmodel.Tag{Extension: map[string]any{}}
	if info == nil {
		return out
	}
	raw := make(map[string]string, len(info.Chunks))
	for _, c := range info.Chunks {
		raw[c.ID] = trimNull(string(c.Data))
	}
	out.Extension["riff.rawinfo"] = raw

	if v, ok := raw["INAM"]; ok {
		out.Title = v
	}
	if v, ok := raw["IART"]; ok {
		out.Artist = v
	}
	if v, ok := raw["IPRD"]; ok {
		out.Album = v
	}
	if v, ok := raw["ICMT"]; ok {
		out.Comment = v
	}
	if v, ok := raw["IGNR"]; ok {
		out.Genre = v
	}
	if v, ok := raw["ICOP"]; ok {
		out.Copyright = v
	}
	if v, ok := raw["ISFT"]; ok {
		out.Extension["riff.encoder"] = v
	}
	if v, ok := raw["ICRD"]; ok && len(v) >= 4 {
		out.Year = atoi(v[:4])
	}
	for _, key := range []string{"ITRK", "IPRT", "TRCK"} {
		if v, ok := raw[key]; ok {
			out.Track = atoi(v)
			break
		}
	}
	return out
}

// ApplyInfo renders a logical tagmodel.Tag into an "INFO" LIST Chunk.
func ApplyInfo(in *tagmodel.Tag) Chunk {
	info := Chunk{ID: "LIST", ListType: "INFO"}
	add := func(id, value string) {
		if value != "" {
			info.Chunks = append(info.Chunks, Chunk{ID: id, Data: append([]byte(value), 0)})
		}
	}
	add("INAM", in.Title)
	add("IART", in.Artist)
	add("IPRD", in.Album)
	add("ICMT", in.Comment)
	add("IGNR", in.Genre)
	add("ICOP", in.Copyright)
	if in.Year != 0 {
		add("ICRD", itoa(in.Year))
	}
	if in.Track != 0 {
		add("ITRK", itoa(in.Track))
	}
	return info
}

func trimNull(s string) string {
	return strings.TrimRight(s, "\x00")
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

// ProjectID3Chunk decodes an embedded "id3 "/"ID3 " chunk's payload as
// an ID3v2 tag and projects it onto tagmodel.Tag, delegating entirely
// to the id3v2 package per spec.md §4.6.
func ProjectID3Chunk(data []byte) (*tagmodel.Tag, error) {
	tag, err := id3v2.Parse(data)
	if err != nil {
		return nil, err
	}
	return id3v2.Project(tag), nil
}

// RenderID3Chunk encodes a logical tagmodel.Tag as an ID3v2.4 tag and
// wraps it in an "id3 " chunk.
func RenderID3Chunk(in *tagmodel.Tag) (Chunk, error) {
	tag := id3v2.Apply(id3v2.Version2_4, nil, in)
	b, err := tag.Render(0)
	if err != nil {
		return Chunk{}, err
	}
	return Chunk{ID: "id3 ", Data: b}, nil
}
