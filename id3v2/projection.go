package id3v2

import (
	"strconv"
	"strings"

	"github.com/go-tagkit/tagkit/bytesio"
	"github.com/go-tagkit/tagkit/tagmodel"
)

// Tag is a parsed ID3v2 tag: its header plus the ordered frame
// directory. Project/Apply bind it to the logical tagmodel.Tag, the
// way teacher's metadataID3v2 binds m.frames to the read-only Metadata
// interface (id3v2metadata.go), generalized here to a two-way mapping
// since tagkit must also render.
type Tag struct {
	Header Header
	Ext    *ExtendedHeader
	Frames []RawFrame
}

func (t *Tag) frame(id string) *RawFrame {
	id = NormalizeID(id)
	for i := range t.Frames {
		if NormalizeID(t.Frames[i].ID) == id {
			return &t.Frames[i]
		}
	}
	return nil
}

func (t *Tag) framesWithID(id string) []*RawFrame {
	id = NormalizeID(id)
	var out []*RawFrame
	for i := range t.Frames {
		if NormalizeID(t.Frames[i].ID) == id {
			out = append(out, &t.Frames[i])
		}
	}
	return out
}

func textOf(f *RawFrame) string {
	if f == nil {
		return ""
	}
	tf, err := ParseTextFrame(f.Data)
	if err != nil || len(tf.Values) == 0 {
		return ""
	}
	return strings.Join(tf.Values, "/")
}

func setText(t *Tag, id, value string, enc bytesio.Encoding) {
	removeFrame(t, id)
	if value == "" {
		return
	}
	data, err := TextFrame{Encoding: enc, Values: []string{value}}.Render()
	if err != nil {
		return
	}
	t.Frames = append(t.Frames, RawFrame{ID: id, Data: data})
}

func removeFrame(t *Tag, id string) {
	id = NormalizeID(id)
	out := t.Frames[:0]
	for _, f := range t.Frames {
		if NormalizeID(f.ID) != id {
			out = append(out, f)
		}
	}
	t.Frames = out
}

func userTextValue(t *Tag, description string) string {
	for _, f := range t.framesWithID("TXXX") {
		ut, err := ParseUserTextFrame(f.Data)
		if err == nil && strings.EqualFold(ut.Description, description) {
			return ut.Value
		}
	}
	return ""
}

func setUserText(t *Tag, description, value string, enc bytesio.Encoding) {
	for _, f := range t.framesWithID("TXXX") {
		ut, err := ParseUserTextFrame(f.Data)
		if err == nil && strings.EqualFold(ut.Description, description) {
			if value == "" {
				removeOneFrame(t, f)
				return
			}
			ut.Value = value
			if data, err := ut.Render(); err == nil {
				f.Data = data
			}
			return
		}
	}
	if value == "" {
		return
	}
	data, err := UserTextFrame{Encoding: enc, Description: description, Value: value}.Render()
	if err != nil {
		return
	}
	t.Frames = append(t.Frames, RawFrame{ID: "TXXX", Data: data})
}

func removeOneFrame(t *Tag, target *RawFrame) {
	for i := range t.Frames {
		if &t.Frames[i] == target {
			t.Frames = append(t.Frames[:i], t.Frames[i+1:]...)
			return
		}
	}
}

// Project reads t into a logical tagmodel.Tag, per spec.md §4.3.6's
// frame-to-field binding table. Unrecognized frames are preserved in
// out.Extension["id3v2.rawframes"] so a subsequent Apply + render can
// reproduce them losslessly.
func Project(t *Tag) *tagmodel.Tag {
	out := &tagmodel.Tag{Extension: map[string]any{}}

	out.Title = textOf(t.frame("TIT2"))
	out.Artist = textOf(t.frame("TPE1"))
	out.Album = textOf(t.frame("TALB"))
	out.AlbumArtist = textOf(t.frame("TPE2"))
	out.Composer = textOf(t.frame("TCOM"))
	out.Conductor = textOf(t.frame("TPE3"))
	out.Copyright = textOf(t.frame("TCOP"))
	out.Publisher = textOf(t.frame("TPUB"))

	if genre := textOf(t.frame("TCON")); genre != "" {
		out.Genre = ResolveTCONGenre(genre)
	}

	if year := textOf(t.frame("TYER")); year != "" {
		out.Year, _ = strconv.Atoi(year)
	}
	if out.Year == 0 {
		if tdrc := textOf(t.frame("TDRC")); len(tdrc) >= 4 {
			out.Year, _ = strconv.Atoi(tdrc[:4])
		}
	}
	if bpm := textOf(t.frame("TBPM")); bpm != "" {
		out.BPM, _ = strconv.Atoi(bpm)
	}

	out.Track, out.TotalTracks = parseXOfN(textOf(t.frame("TRCK")))
	out.Disc, out.TotalDiscs = parseXOfN(textOf(t.frame("TPOS")))

	if tcmp := textOf(t.frame("TCMP")); tcmp == "1" {
		out.IsCompilation = true
	}

	if c := t.frame("COMM"); c != nil {
		if cf, err := ParseCommentFrame(c.Data); err == nil {
			out.Comment = cf.Text
		}
	}
	if l := t.frame("USLT"); l != nil {
		if cf, err := ParseCommentFrame(l.Data); err == nil {
			out.Lyrics = cf.Text
		}
	}
	out.ISRC = textOf(t.frame("TSRC"))

	out.TitleSort = textOf(t.frame("TSOT"))
	out.ArtistSort = textOf(t.frame("TSOP"))
	out.AlbumSort = textOf(t.frame("TSOA"))
	out.AlbumArtistSort = textOf(t.frame("TSO2"))

	out.ReplayGain.TrackGain = userTextValue(t, "replaygain_track_gain")
	out.ReplayGain.TrackPeak = userTextValue(t, "replaygain_track_peak")
	out.ReplayGain.AlbumGain = userTextValue(t, "replaygain_album_gain")
	out.ReplayGain.AlbumPeak = userTextValue(t, "replaygain_album_peak")

	for _, f := range t.framesWithID("UFID") {
		uf, err := ParseUFIDFrame(f.Data)
		if err != nil {
			continue
		}
		switch uf.Owner {
		case "http://musicbrainz.org":
			out.MusicBrainz.SetTrack(string(uf.Identifier))
		}
	}
	out.MusicBrainz.SetRelease(userTextValue(t, "MusicBrainz Album Id"))
	out.MusicBrainz.SetArtist(userTextValue(t, "MusicBrainz Artist Id"))
	out.MusicBrainz.SetReleaseGroup(userTextValue(t, "MusicBrainz Release Group Id"))
	out.MusicBrainz.SetAlbumArtist(userTextValue(t, "MusicBrainz Album Artist Id"))
	out.MusicBrainz.SetRecording(userTextValue(t, "MusicBrainz Release Track Id"))

	for _, f := range t.framesWithID("APIC") {
		pf, err := ParseAPICFrame(f.Data)
		if err != nil {
			continue
		}
		out.Pictures = append(out.Pictures, tagmodel.Picture{
			Type:        tagmodel.PictureType(pf.PictureType),
			MIMEType:    pf.MIMEType,
			Description: pf.Description,
			Data:        pf.Data,
		})
	}
	for _, f := range t.framesWithID("PIC") {
		pf, _, err := ParsePICFrame(f.Data)
		if err != nil {
			continue
		}
		out.Pictures = append(out.Pictures, tagmodel.Picture{
			Type:        tagmodel.PictureType(pf.PictureType),
			MIMEType:    pf.MIMEType,
			Description: pf.Description,
			Data:        pf.Data,
		})
	}

	out.Extension["id3v2.rawframes"] = t.Frames
	out.Extension["id3v2.version"] = t.Header.Version
	return out
}

func parseXOfN(s string) (x, n int) {
	parts := strings.SplitN(s, "/", 2)
	x, _ = strconv.Atoi(strings.TrimSpace(parts[0]))
	if len(parts) == 2 {
		n, _ = strconv.Atoi(strings.TrimSpace(parts[1]))
	}
	return x, n
}

// Apply renders a logical tagmodel.Tag into an ID3v2 Tag of the given
// version, starting from an existing Tag when provided (preserving any
// frames Project didn't recognize) or a fresh one otherwise.
func Apply(ver Version, base *Tag, in *tagmodel.Tag) *Tag {
	t := base
	if t == nil {
		t = &Tag{Header: Header{Version: ver, Revision: 0}}
	}
	enc := bytesio.UTF8
	if ver == Version2_3 {
		enc = bytesio.UTF16BOM
	}

	setText(t, "TIT2", in.Title, enc)
	setText(t, "TPE1", in.Artist, enc)
	setText(t, "TALB", in.Album, enc)
	setText(t, "TPE2", in.AlbumArtist, enc)
	setText(t, "TCOM", in.Composer, enc)
	setText(t, "TPE3", in.Conductor, enc)
	setText(t, "TCOP", in.Copyright, enc)
	setText(t, "TPUB", in.Publisher, enc)
	setText(t, "TCON", in.Genre, enc)
	setText(t, "TSRC", in.ISRC, enc)
	setText(t, "TSOT", in.TitleSort, enc)
	setText(t, "TSOP", in.ArtistSort, enc)
	setText(t, "TSOA", in.AlbumSort, enc)
	setText(t, "TSO2", in.AlbumArtistSort, enc)

	if in.Year != 0 {
		if ver == Version2_4 {
			setText(t, "TDRC", strconv.Itoa(in.Year), enc)
		} else {
			setText(t, "TYER", strconv.Itoa(in.Year), enc)
		}
	}
	if in.BPM != 0 {
		setText(t, "TBPM", strconv.Itoa(in.BPM), enc)
	}
	if in.Track != 0 {
		setText(t, "TRCK", xOfN(in.Track, in.TotalTracks), enc)
	}
	if in.Disc != 0 {
		setText(t, "TPOS", xOfN(in.Disc, in.TotalDiscs), enc)
	}
	if in.IsCompilation {
		setText(t, "TCMP", "1", enc)
	}

	if in.Comment != "" {
		removeFrame(t, "COMM")
		if data, err := (CommentFrame{Encoding: enc, Language: "eng", Text: in.Comment}).Render(); err == nil {
			t.Frames = append(t.Frames, RawFrame{ID: "COMM", Data: data})
		}
	}
	if in.Lyrics != "" {
		removeFrame(t, "USLT")
		if data, err := (CommentFrame{Encoding: enc, Language: "eng", Text: in.Lyrics}).Render(); err == nil {
			t.Frames = append(t.Frames, RawFrame{ID: "USLT", Data: data})
		}
	}

	setUserText(t, "replaygain_track_gain", in.ReplayGain.TrackGain, enc)
	setUserText(t, "replaygain_track_peak", in.ReplayGain.TrackPeak, enc)
	setUserText(t, "replaygain_album_gain", in.ReplayGain.AlbumGain, enc)
	setUserText(t, "replaygain_album_peak", in.ReplayGain.AlbumPeak, enc)

	if id := in.MusicBrainz.TrackString(); id != "" {
		removeFrame(t, "UFID")
		data, err := UniqueFileIDFrame{Owner: "http://musicbrainz.org", Identifier: []byte(id)}.Render()
		if err == nil {
			t.Frames = append(t.Frames, RawFrame{ID: "UFID", Data: data})
		}
	}
	setUserText(t, "MusicBrainz Album Id", in.MusicBrainz.ReleaseString(), enc)
	setUserText(t, "MusicBrainz Artist Id", in.MusicBrainz.ArtistString(), enc)
	setUserText(t, "MusicBrainz Release Group Id", in.MusicBrainz.ReleaseGroupString(), enc)
	setUserText(t, "MusicBrainz Album Artist Id", in.MusicBrainz.AlbumArtistString(), enc)
	setUserText(t, "MusicBrainz Release Track Id", in.MusicBrainz.RecordingString(), enc)

	removeFrame(t, "APIC")
	for _, p := range in.Pictures {
		data, err := PictureFrame{
			Encoding: enc, MIMEType: p.MIMEType, PictureType: byte(p.Type),
			Description: p.Description, Data: p.Data,
		}.RenderAPIC()
		if err != nil {
			continue
		}
		t.Frames = append(t.Frames, RawFrame{ID: "APIC", Data: data})
	}

	t.Header.Version = ver
	return t
}

func xOfN(x, n int) string {
	if n > 0 {
		return strconv.Itoa(x) + "/" + strconv.Itoa(n)
	}
	return strconv.Itoa(x)
}
