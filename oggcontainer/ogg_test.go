package oggcontainer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-tagkit/tagkit/vorbiscomment"
)

func TestPageRoundTrip(t *testing.T) {
	p := Page{
		Version:        0,
		HeaderType:     FlagBOS,
		GranulePos:     0,
		SerialNumber:   12345,
		SequenceNumber: 0,
		Segments:       LaceSegments(10),
		Data:           []byte("0123456789"),
	}
	b := RenderPage(p)
	got, n, err := ParsePage(b)
	require.NoError(t, err)
	assert.Equal(t, len(b), n)
	assert.Equal(t, p.SerialNumber, got.SerialNumber)
	assert.Equal(t, p.Data, got.Data)
	assert.Equal(t, p.HeaderType, got.HeaderType)
}

func TestParsePageRejectsBadCapture(t *testing.T) {
	b := make([]byte, 30)
	copy(b, "XXXX")
	_, _, err := ParsePage(b)
	assert.Error(t, err)
}

func TestLaceSegmentsBoundary(t *testing.T) {
	assert.Equal(t, []byte{255, 0}, LaceSegments(255))
	assert.Equal(t, []byte{100}, LaceSegments(100))
	assert.Equal(t, []byte{255, 255, 10}, LaceSegments(520))
}

func TestReadPacketsStitchesContinuation(t *testing.T) {
	page1 := Page{HeaderType: FlagBOS | FlagContinuation&0, Segments: []byte{255, 255, 10}, Data: make([]byte, 520)}
	for i := range page1.Data {
		page1.Data[i] = byte(i)
	}
	b1 := RenderPage(page1)

	page2 := Page{HeaderType: FlagContinuation, SequenceNumber: 1, Segments: []byte{5}, Data: []byte{1, 2, 3, 4, 5}}
	b2 := RenderPage(page2)

	page3 := Page{HeaderType: 0, SequenceNumber: 2, Segments: LaceSegments(3), Data: []byte{9, 9, 9}}
	b3 := RenderPage(page3)

	all := append(append(append([]byte{}, b1...), b2...), b3...)
	data, consumed, err := ReadPackets(all)
	require.NoError(t, err)
	assert.Equal(t, len(b1)+len(b2), consumed)
	assert.Len(t, data, 520+5)
}

func TestSniffCodec(t *testing.T) {
	vorbisID := append([]byte{1}, []byte("vorbis extra bytes here")...)
	assert.Equal(t, CodecVorbis, SniffCodec(vorbisID))
	assert.Equal(t, CodecOpus, SniffCodec([]byte("OpusHead...")))
	assert.Equal(t, CodecFLAC, SniffCodec(append([]byte{0x7F}, []byte("FLAC1.0")...)))
	assert.Equal(t, CodecUnknown, SniffCodec([]byte("nonsense")))
}

func buildVorbisStream(t *testing.T) []byte {
	t.Helper()
	idPacket := append([]byte{1}, []byte("vorbis")...)
	idPacket = append(idPacket, make([]byte, 23)...) // pad past the 29-byte identification header

	vc := vorbiscomment.Comment{Vendor: "tagkit"}
	vc.Add("TITLE", "Song")
	commentPacket := append([]byte{3}, []byte("vorbis")...)
	commentPacket = append(commentPacket, vorbiscomment.Render(vc)...)

	setupPacket := append([]byte{5}, []byte("vorbissetupstub")...)

	// Comment and setup packets both start fresh on their own pages (the
	// common real-world layout); a real Vorbis stream always carries all
	// three header packets before any audio page.
	page1 := Page{HeaderType: FlagBOS, SerialNumber: 1, Segments: LaceSegments(len(idPacket)), Data: idPacket}
	page2 := Page{HeaderType: 0, SerialNumber: 1, SequenceNumber: 1, Segments: LaceSegments(len(commentPacket)), Data: commentPacket}
	page3 := Page{HeaderType: 0, SerialNumber: 1, SequenceNumber: 2, Segments: LaceSegments(len(setupPacket)), Data: setupPacket}

	return append(append(RenderPage(page1), RenderPage(page2)...), RenderPage(page3)...)
}

func TestParseVorbisStream(t *testing.T) {
	b := buildVorbisStream(t)
	f, err := Parse(b)
	require.NoError(t, err)
	assert.Equal(t, CodecVorbis, f.Codec)
	assert.Equal(t, "Song", f.Tag.Title)
}

func TestOggRenderRoundTrip(t *testing.T) {
	b := buildVorbisStream(t)
	f, err := Parse(b)
	require.NoError(t, err)

	f.Tag.Title = "New Title"
	out, err := f.Render()
	require.NoError(t, err)

	f2, err := Parse(out)
	require.NoError(t, err)
	assert.Equal(t, CodecVorbis, f2.Codec)
	assert.Equal(t, "New Title", f2.Tag.Title)
}
