package musepack

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-tagkit/tagkit/ape"
)

func TestIsMusepack(t *testing.T) {
	assert.True(t, IsMusepack([]byte("MPCK\x00\x00\x00\x00")))
	assert.True(t, IsMusepack([]byte("MP+\x07")))
	assert.False(t, IsMusepack([]byte("RIFF")))
}

func buildSV7Stream() []byte {
	b := make([]byte, 4+24)
	copy(b, "MP+\x07")
	header := b[4:]
	word0 := uint32(0) | (1 << 16) // sample rate index 1 -> 48000
	binary.LittleEndian.PutUint32(header[0:4], word0)
	binary.LittleEndian.PutUint32(header[4:8], 100) // frame count
	return b
}

func writeVariableLength(v uint64) []byte {
	var stack []byte
	stack = append(stack, byte(v&0x7F))
	v >>= 7
	for v > 0 {
		stack = append(stack, byte(v&0x7F)|0x80)
		v >>= 7
	}
	// reverse so continuation bits read MSB-first
	out := make([]byte, len(stack))
	for i, b := range stack {
		out[len(stack)-1-i] = b
	}
	return out
}

func buildSV8Stream() []byte {
	var buf []byte
	buf = append(buf, []byte("MPCK")...)

	var sh []byte
	sh = append(sh, make([]byte, 5)...) // crc + version
	sh = append(sh, writeVariableLength(1000)...)
	sh = append(sh, writeVariableLength(0)...)
	flags := uint32(1)<<21 | uint32(1)<<17 // sample rate idx 1 (48000), channels-1 = 1 (2ch)
	sh = append(sh, byte(flags>>16), byte(flags>>8), byte(flags))

	packet := append([]byte("SH"), writeVariableLength(uint64(2+len(sh)+1))...)
	packet = append(packet, sh...)
	buf = append(buf, packet...)
	return buf
}

func TestParseSV7Properties(t *testing.T) {
	f, err := Parse(buildSV7Stream())
	require.NoError(t, err)
	assert.Equal(t, 48000, f.Props.SampleRate)
	assert.Equal(t, 2, f.Props.Channels)
}

func TestParseSV8Properties(t *testing.T) {
	f, err := Parse(buildSV8Stream())
	require.NoError(t, err)
	assert.Equal(t, 48000, f.Props.SampleRate)
	assert.Equal(t, 2, f.Props.Channels)
}

func TestParseRejectsBadMagic(t *testing.T) {
	_, err := Parse([]byte("XXXX"))
	assert.ErrorIs(t, err, ErrNoMagic)
}

func TestParseWithTrailingAPETag(t *testing.T) {
	stream := buildSV7Stream()
	tag := &ape.Tag{Items: []ape.Item{
		{Key: "Title", Type: ape.ItemTypeUTF8, Value: []byte("Song")},
	}}
	tagBytes := tag.Render()

	var buf []byte
	buf = append(buf, stream...)
	buf = append(buf, tagBytes...)

	f, err := Parse(buf)
	require.NoError(t, err)
	assert.Equal(t, "Song", f.Tag.Title)
}

func TestParseWithAPETagBeforeID3v1(t *testing.T) {
	stream := buildSV7Stream()
	tag := &ape.Tag{Items: []ape.Item{
		{Key: "Title", Type: ape.ItemTypeUTF8, Value: []byte("Song")},
	}}
	tagBytes := tag.Render()

	var buf []byte
	buf = append(buf, stream...)
	buf = append(buf, tagBytes...)
	buf = append(buf, make([]byte, id3v1Size)...)

	f, err := Parse(buf)
	require.NoError(t, err)
	assert.Equal(t, "Song", f.Tag.Title)
}
