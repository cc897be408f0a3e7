package mp4

import (
	"encoding/binary"

	"github.com/go-tagkit/tagkit/tagmodel"
)

// ReadProperties extracts stream-level facts from the moov box tree:
// duration and timescale from mvhd, sample rate/channel count from the
// first audio sample-description table entry (stsd), per spec.md §4.4.3.
// Grounded on the trak/mdia/minf/stbl box hierarchy confirmed by
// moshee-sound's mp4-atom.go atomDefs table; teacher's mp4.go never
// extracts audio properties at all.
func ReadProperties(root []*Box) tagmodel.AudioProperties {
	var props tagmodel.AudioProperties
	moov := FindPath(root, "moov")
	if moov == nil {
		return props
	}
	if mvhd := moov.Find("mvhd"); mvhd != nil {
		duration, timescale := parseMvhd(mvhd.Data)
		if timescale > 0 {
			props.Duration = float64(duration) / float64(timescale)
		}
	}
	for _, trak := range moov.Children {
		if trak.Type != "trak" {
			continue
		}
		stsd := FindPath(trak.Children, "mdia", "minf", "stbl", "stsd")
		if stsd == nil {
			continue
		}
		if sr, ch, codec, ok := parseAudioSampleEntry(stsd.Data); ok {
			props.SampleRate = sr
			props.Channels = ch
			props.Codec = codec
			break
		}
	}
	return props
}

func parseMvhd(b []byte) (duration uint64, timescale uint32) {
	if len(b) < 4 {
		return 0, 0
	}
	version := b[0]
	if version == 1 {
		if len(b) < 32 {
			return 0, 0
		}
		timescale = binary.BigEndian.Uint32(b[20:24])
		duration = binary.BigEndian.Uint64(b[24:32])
		return
	}
	if len(b) < 20 {
		return 0, 0
	}
	timescale = binary.BigEndian.Uint32(b[12:16])
	duration = uint64(binary.BigEndian.Uint32(b[16:20]))
	return
}

// parseAudioSampleEntry reads the first entry of an "stsd" full box's
// table. Audio sample entries (mp4a, alac, ...) share a common prefix:
// 6 reserved bytes, 2-byte data-reference-index, 8 reserved bytes,
// 2-byte channel count, 2-byte sample size, 2-byte pre-defined field,
// 2 reserved bytes, then a 16.16 fixed-point sample rate.
func parseAudioSampleEntry(b []byte) (sampleRate, channels int, codec string, ok bool) {
	if len(b) < 8 {
		return 0, 0, "", false
	}
	count := binary.BigEndian.Uint32(b[4:8])
	if count == 0 || len(b) < 8+8 {
		return 0, 0, "", false
	}
	entry := b[8:]
	if len(entry) < 8 {
		return 0, 0, "", false
	}
	size := binary.BigEndian.Uint32(entry[0:4])
	codec = string(entry[4:8])
	if len(entry) < int(size) || size < 8+28 {
		return 0, 0, codec, codec != ""
	}
	body := entry[8:size]
	if len(body) < 28 {
		return 0, 0, codec, true
	}
	channels = int(binary.BigEndian.Uint16(body[16:18]))
	sampleRate = int(binary.BigEndian.Uint32(body[24:28]) >> 16)
	return sampleRate, channels, codec, true
}
