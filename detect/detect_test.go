package detect

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/go-tagkit/tagkit/tagmodel"
)

func TestDetectFLAC(t *testing.T) {
	assert.Equal(t, tagmodel.FileFLAC, Detect([]byte("fLaC\x00\x00\x00\x22")))
}

func TestDetectWAV(t *testing.T) {
	b := append([]byte("RIFF\x00\x00\x00\x00"), []byte("WAVEfmt ")...)
	assert.Equal(t, tagmodel.FileWAV, Detect(b))
}

func TestDetectAIFF(t *testing.T) {
	b := append([]byte("FORM\x00\x00\x00\x00"), []byte("AIFFCOMM")...)
	assert.Equal(t, tagmodel.FileAIFF, Detect(b))
}

func TestDetectMP4(t *testing.T) {
	b := []byte("\x00\x00\x00\x18ftypM4A \x00\x00\x02\x00")
	assert.Equal(t, tagmodel.FileAAC, Detect(b))
}

func TestDetectDSF(t *testing.T) {
	assert.Equal(t, tagmodel.FileDSF, Detect([]byte("DSD \x1c\x00\x00\x00\x00\x00\x00\x00")))
}

func TestDetectDFF(t *testing.T) {
	b := append([]byte("FRM8"), make([]byte, 8)...)
	b = append(b, []byte("DSD ")...)
	assert.Equal(t, tagmodel.FileDFF, Detect(b))
}

func TestDetectWavPack(t *testing.T) {
	assert.Equal(t, tagmodel.FileWavPack, Detect([]byte("wvpk\x00\x00\x00\x00")))
}

func TestDetectMonkeysAudio(t *testing.T) {
	assert.Equal(t, tagmodel.FileMonkeysAudio, Detect([]byte("MAC \x00\x00\x00\x00")))
}

func TestDetectMusepack(t *testing.T) {
	assert.Equal(t, tagmodel.FileMusepack, Detect([]byte("MPCK\x00\x00\x00\x00")))
	assert.Equal(t, tagmodel.FileMusepack, Detect([]byte("MP+\x07\x00\x00\x00\x00")))
}

func TestDetectID3MP3(t *testing.T) {
	assert.Equal(t, tagmodel.FileMP3, Detect([]byte("ID3\x04\x00\x00\x00\x00\x00\x00")))
}

func TestDetectFrameSyncMP3(t *testing.T) {
	assert.Equal(t, tagmodel.FileMP3, Detect([]byte{0xFF, 0xFB, 0x90, 0x00}))
}

func TestDetectASF(t *testing.T) {
	b := append(asfHeaderGUIDBytes[:], make([]byte, 8)...)
	assert.Equal(t, tagmodel.FileASF, Detect(b))
}

func TestDetectUnknown(t *testing.T) {
	assert.Equal(t, tagmodel.FileUnknown, Detect([]byte("not an audio file")))
}

func TestDetectOggVorbis(t *testing.T) {
	page := buildOggPage([]byte("\x01vorbis...."))
	assert.Equal(t, tagmodel.FileOggVorbis, Detect(page))
}

func TestDetectOggOpus(t *testing.T) {
	page := buildOggPage([]byte("OpusHead...."))
	assert.Equal(t, tagmodel.FileOggOpus, Detect(page))
}

func TestDetectOggFLAC(t *testing.T) {
	page := buildOggPage(append([]byte{0x7F}, []byte("FLAC....")...))
	assert.Equal(t, tagmodel.FileOggFLAC, Detect(page))
}

// buildOggPage constructs a minimal single-segment Ogg page carrying
// payload as its first packet, enough for detectOggSubCodec to read.
func buildOggPage(payload []byte) []byte {
	header := make([]byte, 27)
	copy(header, "OggS")
	header[26] = 1 // one segment
	page := append(header, byte(len(payload)))
	page = append(page, payload...)
	return page
}
