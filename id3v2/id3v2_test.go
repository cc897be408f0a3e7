package id3v2

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-tagkit/tagkit/bytesio"
	"github.com/go-tagkit/tagkit/tagmodel"
)

func TestHeaderRoundTrip(t *testing.T) {
	h := Header{Version: Version2_3, Revision: 0, Flags: FlagUnsynchronized, Size: 4096}
	b, err := h.Render()
	require.NoError(t, err)
	got, err := ParseHeader(b)
	require.NoError(t, err)
	assert.Equal(t, h, got)
}

func TestParseHeaderRejectsBadMagic(t *testing.T) {
	_, err := ParseHeader([]byte("XXXX000000"))
	assert.ErrorIs(t, err, ErrNoTag)
}

func TestParseHeaderRejectsUnknownVersion(t *testing.T) {
	b := []byte{'I', 'D', '3', 9, 0, 0, 0, 0, 0, 0}
	_, err := ParseHeader(b)
	assert.ErrorIs(t, err, ErrUnsupportedVersion)
}

func TestUnsynchronizeRoundTrip(t *testing.T) {
	cases := [][]byte{
		{0x00, 0xFF, 0xE0, 0x01},
		{0xFF, 0xFF, 0xFF},
		{0x01, 0x02, 0x03},
		{0xFF},
	}
	for _, c := range cases {
		u := Unsynchronize(c)
		got := RemoveUnsynchronization(u)
		assert.Equal(t, c, got)
	}
}

func TestTextFrameRoundTrip(t *testing.T) {
	f := TextFrame{Encoding: bytesio.UTF8, Values: []string{"Hello World"}}
	b, err := f.Render()
	require.NoError(t, err)
	got, err := ParseTextFrame(b)
	require.NoError(t, err)
	assert.Equal(t, f.Values, got.Values)
}

func TestCommentFrameRoundTrip(t *testing.T) {
	f := CommentFrame{Encoding: bytesio.Latin1, Language: "eng", Description: "", Text: "a comment"}
	b, err := f.Render()
	require.NoError(t, err)
	got, err := ParseCommentFrame(b)
	require.NoError(t, err)
	assert.Equal(t, f.Text, got.Text)
	assert.Equal(t, f.Language, got.Language)
}

func TestAPICFrameRoundTrip(t *testing.T) {
	f := PictureFrame{Encoding: bytesio.UTF8, MIMEType: "image/jpeg", PictureType: 3, Description: "cover", Data: []byte{1, 2, 3, 4}}
	b, err := f.RenderAPIC()
	require.NoError(t, err)
	got, err := ParseAPICFrame(b)
	require.NoError(t, err)
	assert.Equal(t, f, got)
}

func TestLegacyIDMapping(t *testing.T) {
	assert.Equal(t, "TIT2", NormalizeID("TT2"))
	modern, ok := LegacyID("TALB")
	require.True(t, ok)
	assert.Equal(t, "TAL", modern)
	_, ok = LegacyID("TDRC")
	assert.False(t, ok)
}

func TestResolveTCONGenre(t *testing.T) {
	assert.Equal(t, "Blues", ResolveTCONGenre("(0)"))
	assert.Equal(t, "Eurodisco", ResolveTCONGenre("(4)Eurodisco"))
	assert.Equal(t, "Rock", ResolveTCONGenre("Rock"))
	assert.Equal(t, "Remix", ResolveTCONGenre("(RX)"))
}

func TestTagRoundTripViaProjection(t *testing.T) {
	in := &tagmodel.Tag{
		Title:  "Song",
		Artist: "Artist",
		Album:  "Album",
		Year:   2020,
		Track:  3,
		Genre:  "Rock",
	}
	tag := Apply(Version2_4, nil, in)
	rendered, err := tag.Render(0)
	require.NoError(t, err)

	parsed, err := Parse(rendered)
	require.NoError(t, err)
	out := Project(parsed)

	assert.Equal(t, in.Title, out.Title)
	assert.Equal(t, in.Artist, out.Artist)
	assert.Equal(t, in.Album, out.Album)
	assert.Equal(t, in.Year, out.Year)
	assert.Equal(t, in.Track, out.Track)
	assert.Equal(t, in.Genre, out.Genre)
}

func TestID3v1RoundTrip(t *testing.T) {
	orig := ID3v1Tag{Title: "T", Artist: "A", Album: "Al", Year: "1999", Comment: "C", Track: 5, Genre: 17}
	raw := orig.Render()
	got, err := ParseID3v1(raw[:])
	require.NoError(t, err)
	assert.Equal(t, orig, got)
}

func TestID3v1NoTag(t *testing.T) {
	var b [ID3v1Size]byte
	_, err := ParseID3v1(b[:])
	assert.ErrorIs(t, err, ErrNoID3v1Tag)
}

func TestParseFrameFlagsBitPositionsDifferByVersion(t *testing.T) {
	// v2.3: Compression=0x80, Encryption=0x40, Grouping=0x20.
	f := parseFrameFlags(Version2_3, 0, 0x80)
	assert.True(t, f.Compression)
	assert.False(t, f.Encryption)
	assert.False(t, f.GroupIdentity)

	f = parseFrameFlags(Version2_3, 0, 0x20)
	assert.True(t, f.GroupIdentity)
	assert.False(t, f.Compression)

	// v2.4: Grouping=0x40, Compression=0x08, Encryption=0x04.
	f = parseFrameFlags(Version2_4, 0, 0x40)
	assert.True(t, f.GroupIdentity)
	assert.False(t, f.Compression)

	f = parseFrameFlags(Version2_4, 0, 0x08)
	assert.True(t, f.Compression)
	assert.False(t, f.GroupIdentity)
}

func TestCompressedFrameV23DecodesLiteralExample(t *testing.T) {
	// Mirrors spec.md §8's "ID3v2.3 compressed frame" scenario: a TIT2
	// frame, zlib-compressed, v2.3 compression flag 0x80, with a 4-byte
	// big-endian decompressed size ahead of the zlib stream.
	title := "Compressed title text for version 2.3"
	textFrame, err := TextFrame{Encoding: bytesio.Latin1, Values: []string{title}}.Render()
	require.NoError(t, err)

	compressed, err := zlibDeflate(textFrame)
	require.NoError(t, err)

	var sizePrefix [4]byte
	sizePrefix[0] = byte(len(textFrame) >> 24)
	sizePrefix[1] = byte(len(textFrame) >> 16)
	sizePrefix[2] = byte(len(textFrame) >> 8)
	sizePrefix[3] = byte(len(textFrame))
	payload := append(sizePrefix[:], compressed...)

	frameHeader := make([]byte, 10)
	copy(frameHeader[0:4], "TIT2")
	frameHeader[4] = byte(len(payload) >> 24)
	frameHeader[5] = byte(len(payload) >> 16)
	frameHeader[6] = byte(len(payload) >> 8)
	frameHeader[7] = byte(len(payload))
	frameHeader[9] = 0x80 // v2.3 compression format flag

	frames, err := ParseFrames(Version2_3, append(frameHeader, payload...), 10+len(payload))
	require.NoError(t, err)
	require.Len(t, frames, 1)
	assert.False(t, frames[0].Opaque)

	got, err := ParseTextFrame(frames[0].Data)
	require.NoError(t, err)
	require.Len(t, got.Values, 1)
	assert.Equal(t, title, got.Values[0])
}

func TestGroupIdentityRoundTrip(t *testing.T) {
	data, err := TextFrame{Encoding: bytesio.UTF8, Values: []string{"grouped"}}.Render()
	require.NoError(t, err)

	f := RawFrame{ID: "TIT2", Flags: FrameFlags{GroupIdentity: true}, GroupID: 0x42, Data: data}
	rendered, err := RenderFrame(Version2_3, f)
	require.NoError(t, err)

	frames, err := ParseFrames(Version2_3, rendered, len(rendered))
	require.NoError(t, err)
	require.Len(t, frames, 1)
	assert.True(t, frames[0].Flags.GroupIdentity)
	assert.Equal(t, byte(0x42), frames[0].GroupID)
	assert.Equal(t, data, frames[0].Data)
}

func TestRenderAppliesPerFrameUnsyncOnV24Only(t *testing.T) {
	risky := []byte{0x00, 0xFF, 0xE0, 0x01}

	tagV24 := &Tag{Header: Header{Version: Version2_4}}
	tagV24.Frames = append(tagV24.Frames, RawFrame{ID: "TIT2", Data: risky})
	rendered, err := tagV24.Render(0)
	require.NoError(t, err)

	parsed, err := Parse(rendered)
	require.NoError(t, err)
	require.Len(t, parsed.Frames, 1)
	assert.False(t, parsed.Header.Unsynchronized())
	assert.True(t, parsed.Frames[0].Flags.Unsynchronisation)
	assert.Equal(t, risky, parsed.Frames[0].Data)
}

func TestUnknownFramePreservation(t *testing.T) {
	tag := &Tag{Header: Header{Version: Version2_3}}
	tag.Frames = append(tag.Frames, RawFrame{ID: "XXXX", Data: []byte("custom")})
	rendered, err := tag.Render(0)
	require.NoError(t, err)
	parsed, err := Parse(rendered)
	require.NoError(t, err)
	require.Len(t, parsed.Frames, 1)
	assert.Equal(t, "XXXX", parsed.Frames[0].ID)
	assert.Equal(t, []byte("custom"), parsed.Frames[0].Data)
}
