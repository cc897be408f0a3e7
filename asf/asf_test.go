package asf

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-tagkit/tagkit/tagmodel"
)

func TestGUIDRoundTrip(t *testing.T) {
	got := renderGUID(GUIDContentDescriptionObject)
	back := parseGUID(got)
	assert.Equal(t, GUIDContentDescriptionObject, back)
}

func TestObjectRoundTrip(t *testing.T) {
	objects := []Object{
		{GUID: GUIDContentDescriptionObject, Data: []byte("hello")},
		{GUID: GUIDPaddingObject, Data: make([]byte, 10)},
	}
	b := RenderObjects(objects)
	got, err := ParseObjects(b)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, objects[0].GUID, got[0].GUID)
	assert.Equal(t, objects[0].Data, got[0].Data)
	assert.Equal(t, objects[1].GUID, got[1].GUID)
}

func TestParseObjectsRejectsTruncatedSize(t *testing.T) {
	g := renderGUID(GUIDPaddingObject)
	b := append([]byte{}, g[:]...)
	var size [8]byte
	binary.LittleEndian.PutUint64(size[:], 1000)
	b = append(b, size[:]...)
	_, err := ParseObjects(b)
	assert.Error(t, err)
}

func TestExtendedContentDescriptionRoundTrip(t *testing.T) {
	descs := []Descriptor{
		{Name: "WM/AlbumTitle", Type: DescriptorUnicode, Value: encodeUTF16LE("Album\x00")},
		{Name: "WM/TrackNumber", Type: DescriptorUnicode, Value: encodeUTF16LE("4\x00")},
	}
	b := RenderExtendedContentDescription(descs)
	got, err := ParseExtendedContentDescription(b)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Album", got[0].Text())
	assert.Equal(t, "WM/TrackNumber", got[1].Name)
}

func TestContentDescriptionRoundTrip(t *testing.T) {
	f := contentDescriptionFields{title: "Song", author: "Artist", copyright: "(c) 2020"}
	b := renderContentDescription(f)
	got := parseContentDescription(b)
	assert.Equal(t, f.title, got.title)
	assert.Equal(t, f.author, got.author)
	assert.Equal(t, f.copyright, got.copyright)
}

func buildHeaderObject(children []Object) []byte {
	childBytes := RenderObjects(children)
	payload := make([]byte, 6, 6+len(childBytes))
	binary.LittleEndian.PutUint32(payload[0:4], uint32(len(children)))
	payload = append(payload, childBytes...)
	return RenderObjects([]Object{{GUID: GUIDHeaderObject, Data: payload}})
}

func TestFileParseRenderRoundTrip(t *testing.T) {
	cd := renderContentDescription(contentDescriptionFields{title: "Song", author: "Artist"})
	ext := RenderExtendedContentDescription([]Descriptor{
		{Name: "WM/AlbumTitle", Type: DescriptorUnicode, Value: encodeUTF16LE("Album\x00")},
	})
	raw := buildHeaderObject([]Object{
		{GUID: GUIDContentDescriptionObject, Data: cd},
		{GUID: GUIDExtendedContentDescription, Data: ext},
	})

	f, err := Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "Song", f.Tag.Title)
	assert.Equal(t, "Artist", f.Tag.Artist)
	assert.Equal(t, "Album", f.Tag.Album)

	f.Tag.Album = "New Album"
	out := f.Render()

	reparsed, err := Parse(out)
	require.NoError(t, err)
	assert.Equal(t, "Song", reparsed.Tag.Title)
	assert.Equal(t, "New Album", reparsed.Tag.Album)
}

func TestParseRejectsMissingHeaderObject(t *testing.T) {
	raw := RenderObjects([]Object{{GUID: GUIDPaddingObject, Data: make([]byte, 4)}})
	_, err := Parse(raw)
	assert.Error(t, err)
}

func TestReadPropertiesFromFilePropertiesObject(t *testing.T) {
	fp := make([]byte, 64)
	binary.LittleEndian.PutUint64(fp[40:48], 50_000_000) // 5s in 100ns units
	objects := []Object{{GUID: GUIDFilePropertiesObject, Data: fp}}
	props := readProperties(objects)
	assert.InDelta(t, 5.0, props.Duration, 0.001)
}

func TestApplyPreservesUnknownDescriptors(t *testing.T) {
	descs := []Descriptor{
		{Name: "WM/Provider", Type: DescriptorUnicode, Value: encodeUTF16LE("custom\x00")},
	}
	in := Project(&File{Objects: []Object{
		{GUID: GUIDExtendedContentDescription, Data: RenderExtendedContentDescription(descs)},
	}})
	_, ext := Apply(in)
	got, err := ParseExtendedContentDescription(ext)
	require.NoError(t, err)
	found := false
	for _, d := range got {
		if d.Name == "WM/Provider" && d.Text() == "custom" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestProjectApplyRoundTrip(t *testing.T) {
	in := &tagmodel.Tag{Title: "Song", Album: "Album", Track: 3}
	cd, ext := Apply(in)
	f := &File{Objects: []Object{
		{GUID: GUIDContentDescriptionObject, Data: cd},
		{GUID: GUIDExtendedContentDescription, Data: ext},
	}}
	projected := Project(f)
	assert.Equal(t, in.Title, projected.Title)
	assert.Equal(t, in.Album, projected.Album)
	assert.Equal(t, in.Track, projected.Track)
}
