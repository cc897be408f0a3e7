package mp4

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-tagkit/tagkit/tagmodel"
)

func TestBoxRoundTrip(t *testing.T) {
	free := &Box{Type: "free", Data: []byte{1, 2, 3}}
	moov := &Box{Type: "moov", Children: []*Box{free}}
	b := Render([]*Box{moov})
	got, err := ParseBoxes(b)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "moov", got[0].Type)
	require.Len(t, got[0].Children, 1)
	assert.Equal(t, []byte{1, 2, 3}, got[0].Children[0].Data)
}

func TestParseBoxRejectsTruncated(t *testing.T) {
	_, err := ParseBoxes([]byte{0, 0, 0})
	assert.Error(t, err)
}

func TestExtendedSizeBox(t *testing.T) {
	payload := make([]byte, 20)
	b := make([]byte, 0, 16+len(payload))
	b = append(b, 0, 0, 0, 1)
	b = append(b, []byte("mdat")...)
	var ext [8]byte
	binary.BigEndian.PutUint64(ext[:], uint64(16+len(payload)))
	b = append(b, ext[:]...)
	b = append(b, payload...)

	got, err := ParseBoxes(b)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "mdat", got[0].Type)
	assert.Len(t, got[0].Data, 20)
}

func TestIlstTextRoundTrip(t *testing.T) {
	items := []Item{
		{Atom: "\xa9nam", Class: DataClassUTF8, Text: "Title"},
		{Atom: "\xa9art", Class: DataClassUTF8, Text: "Artist"},
	}
	ilst := RenderIlst(items)
	got, err := ParseIlst(ilst)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Title", got[0].Text)
	assert.Equal(t, "Artist", got[1].Text)
}

func TestTrknDiskRoundTrip(t *testing.T) {
	items := []Item{
		{Atom: "trkn", Int: 3<<16 | 12},
		{Atom: "disk", Int: 1<<16 | 2},
	}
	ilst := RenderIlst(items)
	got, err := ParseIlst(ilst)
	require.NoError(t, err)
	require.Len(t, got, 2)
	n, total := got[0].TrackOf()
	assert.Equal(t, 3, n)
	assert.Equal(t, 12, total)
	n, total = got[1].TrackOf()
	assert.Equal(t, 1, n)
	assert.Equal(t, 2, total)
}

func TestFreeformRoundTrip(t *testing.T) {
	items := []Item{
		{Mean: "com.apple.iTunes", Name: "MusicBrainz Track Id", Class: DataClassUTF8, Text: "abc-123"},
	}
	ilst := RenderIlst(items)
	got, err := ParseIlst(ilst)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "com.apple.iTunes", got[0].Mean)
	assert.Equal(t, "MusicBrainz Track Id", got[0].Name)
	assert.Equal(t, "abc-123", got[0].Text)
}

func TestTagRoundTripViaProjection(t *testing.T) {
	in := &tagmodel.Tag{
		Title:       "Song",
		Artist:      "Artist",
		Album:       "Album",
		AlbumArtist: "Album Artist",
		Track:       3,
		TotalTracks: 10,
		Disc:        1,
		TotalDiscs:  2,
		BPM:         120,
	}
	in.MusicBrainz.SetRecording("11111111-1111-1111-1111-111111111111")

	items := Apply(in)
	out := Project(items)

	assert.Equal(t, in.Title, out.Title)
	assert.Equal(t, in.Artist, out.Artist)
	assert.Equal(t, in.Album, out.Album)
	assert.Equal(t, in.AlbumArtist, out.AlbumArtist)
	assert.Equal(t, in.Track, out.Track)
	assert.Equal(t, in.TotalTracks, out.TotalTracks)
	assert.Equal(t, in.Disc, out.Disc)
	assert.Equal(t, in.TotalDiscs, out.TotalDiscs)
	assert.Equal(t, in.BPM, out.BPM)
	assert.Equal(t, in.MusicBrainz.RecordingString(), out.MusicBrainz.RecordingString())
}

func TestGenreIDName(t *testing.T) {
	name := GenreIDName(2)
	assert.NotEmpty(t, name)
}

func TestStcoShift(t *testing.T) {
	stco := &Box{Type: "stco", Data: []byte{
		0, 0, 0, 0, // version/flags
		0, 0, 0, 2, // count
		0, 0, 0, 100,
		0, 0, 0, 200,
	}}
	ShiftChunkOffsets(stco, 50)
	assert.Equal(t, uint32(150), binary.BigEndian.Uint32(stco.Data[8:12]))
	assert.Equal(t, uint32(250), binary.BigEndian.Uint32(stco.Data[12:16]))
}

func TestCo64Shift(t *testing.T) {
	co64 := &Box{Type: "co64", Data: []byte{
		0, 0, 0, 0,
		0, 0, 0, 1,
		0, 0, 0, 0, 0, 0, 0, 100,
	}}
	ShiftChunkOffsets(co64, -30)
	assert.Equal(t, uint64(70), binary.BigEndian.Uint64(co64.Data[8:16]))
}

func TestFileRenderRewritesOffsets(t *testing.T) {
	stco := &Box{Type: "stco", Data: []byte{0, 0, 0, 0, 0, 0, 0, 1, 0, 0, 1, 0}}
	stbl := &Box{Type: "stbl", Children: []*Box{stco}}
	minf := &Box{Type: "minf", Children: []*Box{stbl}}
	mdia := &Box{Type: "mdia", Children: []*Box{minf}}
	mvhd := &Box{Type: "mvhd", Data: make([]byte, 20)}
	binary.BigEndian.PutUint32(mvhd.Data[12:16], 1000) // timescale
	binary.BigEndian.PutUint32(mvhd.Data[16:20], 5000) // duration
	trak := &Box{Type: "trak", Children: []*Box{mdia}}
	moov := &Box{Type: "moov", Children: []*Box{mvhd, trak}}

	f := &File{Root: []*Box{moov}, Tag: &tagmodel.Tag{Title: "Hello", Extension: map[string]any{}}}
	out, err := f.Render()
	require.NoError(t, err)
	assert.NotEmpty(t, out)

	reparsed, err := Parse(out)
	require.NoError(t, err)
	assert.Equal(t, "Hello", reparsed.Tag.Title)
	assert.InDelta(t, 5.0, reparsed.Props.Duration, 0.001)
}

func TestParseNoMetadataReturnsEmptyTag(t *testing.T) {
	moov := &Box{Type: "moov", Children: []*Box{}}
	b := Render([]*Box{moov})
	f, err := Parse(b)
	require.NoError(t, err)
	assert.True(t, f.Tag.IsEmpty())
}
