// Package mp3probe scans an MPEG audio stream's frame headers to
// recover stream properties (bitrate, sample rate, channel mode,
// duration, VBR detection via the Xing/Info header), per spec.md
// §4.2's MP3 properties requirement. Grounded nearly verbatim on
// dhowden-tag's mp3.go (getMp3Infos/readHeader and its bitrate/
// sampling tables), adapted from an io.ReadSeeker scan to an in-memory
// []byte scan to match the rest of this module's byte-slice
// conventions.
package mp3probe

import (
	"math"

	"github.com/pkg/errors"

	"github.com/go-tagkit/tagkit/tagmodel"
)

// ErrNotMP3 is returned when no valid MPEG audio frame sync can be
// found in the scanned region.
var ErrNotMP3 = errors.New("mp3probe: no MPEG audio frame sync found")

// frameScanLimit caps the number of frames read in fast (non-exhaustive)
// mode, matching teacher's nbscan default.
const frameScanLimit = 50

type scanState struct {
	Version  string
	Layer    string
	Type     string
	Mode     string
	Bitrate  int
	Sampling int
	Size     int64
	Length   float64
	vbr      int
}

// Probe scans b (the MP3 audio stream, with any leading ID3v2 tag
// already stripped) and returns its stream properties. slow forces a
// full-file frame scan instead of stopping after frameScanLimit frames
// once no Xing/Info VBR header is found.
func Probe(b []byte, slow bool) (tagmodel.AudioProperties, error) {
	h := &scanState{}

	pos := skipPadding(b)
	if pos+4 > len(b) {
		return tagmodel.AudioProperties{}, ErrNotMP3
	}
	start := pos

	var buf8 [8]byte
	copy(buf8[:4], b[pos:pos+4])
	if !(buf8[0] == 255 && buf8[1] >= 224) {
		return tagmodel.AudioProperties{}, ErrNotMP3
	}
	offset := h.readHeader(buf8)

	xingPos := pos + 4 + int(xingOffset(h.Version, h.Mode))
	if xingPos+8 <= len(b) {
		copy(buf8[:8], b[xingPos:xingPos+8])
		if !slow && (string(buf8[:4]) == "Xing" || string(buf8[:4]) == "Info") {
			flags := buf8[7]
			if (1&flags != 0) && (2&flags != 0) && xingPos+16 <= len(b) {
				frames := be32(b[xingPos+8 : xingPos+12])
				size := be32(b[xingPos+12 : xingPos+16])
				h.Length = float64(frames) * samplePerFrame(h.Version, h.Layer) / float64(h.Sampling)
				h.Size = int64(size)
				bitrate := nearestBitrate(float64(int64(size)/125)/h.Length, h.Version, h.Layer)
				if bitrate != h.Bitrate {
					h.Bitrate = bitrate
					h.Type = "VBR"
				}
				return h.properties(), nil
			}
		}
	}

	pos = start + int(offset)
	var bitrateSum, frameCount int
	nbscan := frameScanLimit
	reachedEOF := false

	for slow || frameCount < nbscan {
		if pos+4 > len(b) {
			reachedEOF = true
			break
		}
		var hdr [8]byte
		n := copy(hdr[:4], b[pos:pos+4])
		if n < 4 {
			break
		}
		switch {
		case hdr[0] == 255 && hdr[1] >= 224:
			adv := h.readHeader(hdr)
			pos += int(adv)
			bitrateSum += h.Bitrate
			frameCount++
			if h.vbr > 2 {
				nbscan = 100
			}
		case pos+3 <= len(b) && string(b[pos:pos+3]) == "TAG":
			pos += 128 // id3v1 tag, bypass it
		default:
			pos++
		}
	}

	if reachedEOF {
		h.Size = int64(pos)
	} else {
		end := len(b)
		if pos > start {
			h.Length = h.Length * float64(end-start) / float64(pos-start)
		}
		h.Size = int64(end)
	}

	if frameCount > 1 || h.Type == "VBR" {
		h.Bitrate = nearestBitrate(float64(bitrateSum/max(frameCount, 1)), h.Version, h.Layer)
	}
	return h.properties(), nil
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func skipPadding(b []byte) int {
	i := 0
	for i < len(b) && b[i] == 0 {
		i++
	}
	return i
}

func be32(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

func (h *scanState) properties() tagmodel.AudioProperties {
	return tagmodel.AudioProperties{
		Duration:   h.Length,
		SampleRate: h.Sampling,
		Channels:   channelCount(h.Mode),
		Bitrate:    h.Bitrate,
		Codec:      "MP3",
		IsVBR:      h.Type == "VBR",
	}
}

func channelCount(mode string) int {
	if mode == "Mono" {
		return 1
	}
	return 2
}

func nearestBitrate(s float64, v, l string) int {
	diff := s
	result := int(s)
	for _, br := range mp3Bitrate[v+l] {
		if math.Abs(float64(br)-s) < diff {
			result = br
			diff = math.Abs(float64(br) - s)
		}
	}
	return result
}

// readHeader decodes the 4-byte MPEG audio frame header in buf and
// returns the number of bytes the caller advances to reach the next
// frame. A header with an invalid version, layer, bitrate or
// sample-rate index yields 11, and 4 is returned when the sample rate
// is unknown.
func (h *scanState) readHeader(buf [8]byte) int64 {
	v := buf[1] & 24 >> 3
	l := buf[1] & 6 >> 1

	b := buf[2] & 240 >> 4
	s := buf[2] & 12 >> 2
	c := buf[3] & 192 >> 6

	if l == 0 || b == 15 || v == 1 || b == 0 || s == 3 {
		return 11
	}

	if h.Version == "" {
		h.Version = mp3Version[v]
		h.Layer = mp3Layer[l]
		h.Sampling = mp3Sampling[mp3Version[v]][s]
		h.Mode = mp3Channel[c]
		h.Type = "CBR"
	}

	bitrate := mp3Bitrate[mp3Version[v]+mp3Layer[l]][b]
	mult := frameLengthMult[mp3Version[v]+mp3Layer[l]]

	switch {
	case h.vbr > 2:
		h.Type = "VBR"
	case bitrate != h.Bitrate:
		h.vbr++
	}

	h.Bitrate = bitrate

	samples := samplePerFrame(mp3Version[v], mp3Layer[l])
	if h.Sampling > 0 {
		h.Length += samples / float64(h.Sampling)
	}

	if h.Sampling == 0 {
		return 4
	}
	return int64(mult * bitrate * 1000 / h.Sampling)
}

func xingOffset(v, m string) int64 {
	switch {
	case v == "2" && m == "Mono":
		return 9
	case v == "1" && m != "Mono":
		return 32
	default:
		return 17
	}
}

func samplePerFrame(v, l string) float64 {
	switch {
	case v == "1" && l == "I":
		return 384
	case (v == "2" || v == "2.5") && l == "III":
		return 576
	}
	return 1152
}

var (
	mp3Version = [4]string{"2.5", "x", "2", "1"}
	mp3Layer   = [4]string{"r", "III", "II", "I"}
	mp3Bitrate = map[string][16]int{
		"1I":     {0, 32, 64, 96, 128, 160, 192, 224, 256, 288, 320, 352, 384, 416, 448},
		"1II":    {0, 32, 48, 56, 64, 80, 96, 112, 128, 160, 192, 224, 256, 320, 384},
		"1III":   {0, 32, 40, 48, 56, 64, 80, 96, 112, 128, 160, 192, 224, 256, 320},
		"2I":     {0, 32, 48, 56, 64, 80, 96, 112, 128, 144, 160, 176, 192, 224, 256},
		"2II":    {0, 8, 16, 24, 32, 40, 48, 56, 64, 80, 96, 112, 128, 144, 160},
		"2III":   {0, 8, 16, 24, 32, 40, 48, 56, 64, 80, 96, 112, 128, 144, 160},
		"2.5I":   {0, 32, 48, 56, 64, 80, 96, 112, 128, 144, 160, 176, 192, 224, 256},
		"2.5II":  {0, 8, 16, 24, 32, 40, 48, 56, 64, 80, 96, 112, 128, 144, 160},
		"2.5III": {0, 8, 16, 24, 32, 40, 48, 56, 64, 80, 96, 112, 128, 144, 160},
	}
	mp3Sampling = map[string][4]int{
		"1":   {44100, 48000, 32000, 0},
		"2":   {22050, 24000, 16000, 0},
		"2.5": {11025, 12000, 8000, 0},
	}
	mp3Channel      = [4]string{"Stereo", "Join Stereo", "Dual", "Mono"}
	frameLengthMult = map[string]int{
		"1I":     48,
		"1II":    144,
		"1III":   144,
		"2I":     24,
		"2II":    144,
		"2III":   72,
		"2.5I":   24,
		"2.5II":  72,
		"2.5III": 144,
	}
)
