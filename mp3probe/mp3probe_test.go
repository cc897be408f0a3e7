package mp3probe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildFrame constructs one MPEG-1 Layer III frame header for the
// given bitrate/sampling-rate table indices, with a zeroed body
// padded to the frame's computed length.
func buildFrame(bitrateIdx, samplingIdx byte, channelMode byte) []byte {
	header := make([]byte, 4)
	header[0] = 0xFF
	header[1] = 0xFB // v1, layer III, no CRC (11111011)
	header[2] = bitrateIdx<<4 | samplingIdx<<2
	header[3] = channelMode << 6

	bitrate := mp3Bitrate["1III"][bitrateIdx]
	sampling := mp3Sampling["1"][samplingIdx]
	frameLen := 144 * bitrate * 1000 / sampling

	frame := make([]byte, frameLen)
	copy(frame, header)
	return frame
}

func TestProbeCBR(t *testing.T) {
	var stream []byte
	frame := buildFrame(10, 0, 0) // 160kbps, 44100Hz, stereo
	for i := 0; i < 20; i++ {
		stream = append(stream, frame...)
	}
	props, err := Probe(stream, true)
	require.NoError(t, err)
	assert.Equal(t, 44100, props.SampleRate)
	assert.Equal(t, 2, props.Channels)
	assert.Equal(t, 160, props.Bitrate)
	assert.False(t, props.IsVBR)
}

func TestProbeRejectsNonMP3(t *testing.T) {
	_, err := Probe([]byte("not an mp3 stream at all"), false)
	assert.ErrorIs(t, err, ErrNotMP3)
}

func TestProbeSkipsID3v1Tag(t *testing.T) {
	var stream []byte
	frame := buildFrame(10, 0, 0)
	for i := 0; i < 5; i++ {
		stream = append(stream, frame...)
	}
	tag := append([]byte("TAG"), make([]byte, 125)...)
	stream = append(stream, tag...)
	stream = append(stream, frame...)

	props, err := Probe(stream, true)
	require.NoError(t, err)
	assert.Equal(t, 160, props.Bitrate)
}

func TestProbeMonoChannelCount(t *testing.T) {
	var stream []byte
	frame := buildFrame(10, 0, 3) // mono
	for i := 0; i < 10; i++ {
		stream = append(stream, frame...)
	}
	props, err := Probe(stream, true)
	require.NoError(t, err)
	assert.Equal(t, 1, props.Channels)
}

func TestProbeWithXingHeader(t *testing.T) {
	frame := buildFrame(10, 0, 0)
	xingPos := 4 + int(xingOffset("1", "Stereo"))
	copy(frame[xingPos:], []byte("Xing"))
	frame[xingPos+7] = 0x03 // frames+bytes flags set

	be := func(v uint32) []byte {
		return []byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}
	}
	copy(frame[xingPos+8:], be(100))
	copy(frame[xingPos+12:], be(160*1000*100/8))

	props, err := Probe(frame, false)
	require.NoError(t, err)
	assert.Equal(t, 44100, props.SampleRate)
	assert.Greater(t, props.Duration, 0.0)
}
