// Package musepack reads Musepack (MPC) stream properties and
// delegates all tag storage to the APEv2 format, per spec.md §4.5's
// "proprietary headers for properties; APEv2 trailer shared with
// WavPack/Monkey's Audio" note. No pack example ships Musepack
// support, so stream-header parsing is grounded directly on the
// Musepack SV7/SV8 bitstream specifications; tag handling is a thin
// wrapper over the ape package already built for APEv2.
package musepack

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/go-tagkit/tagkit/ape"
	"github.com/go-tagkit/tagkit/tagmodel"
)

// ErrNoMagic is returned when b does not start with a recognized
// Musepack stream-version magic ("MPCK" for SV8, "MP+" for SV7).
var ErrNoMagic = errors.New("musepack: missing MPCK/MP+ magic")

var sv7SampleRates = [4]int{44100, 48000, 37800, 32000}

// IsMusepack reports whether b begins with a Musepack magic.
func IsMusepack(b []byte) bool {
	return len(b) >= 4 && (string(b[0:4]) == "MPCK" || string(b[0:3]) == "MP+")
}

// File is a parsed Musepack stream: its audio properties (from the
// SV7 fixed header or the SV8 Stream Header packet) and its logical
// tag (projected from a trailing APEv2 tag, if present).
type File struct {
	Props tagmodel.AudioProperties
	Tag   *tagmodel.Tag
}

// Parse reads stream properties from b's Musepack header and, if an
// APEv2 tag trailer is present anywhere in b, projects it onto Tag.
func Parse(b []byte) (*File, error) {
	if !IsMusepack(b) {
		return nil, ErrNoMagic
	}
	f := &File{Tag: &tagmodel.Tag{Extension: map[string]any{}}}

	switch {
	case len(b) >= 4 && string(b[0:4]) == "MPCK":
		f.Props = parseSV8Properties(b)
	case len(b) >= 3 && string(b[0:3]) == "MP+":
		f.Props = parseSV7Properties(b)
	}

	if start, end := findAPETag(b); start >= 0 {
		tag, err := ape.ParseTag(b[start:end])
		if err == nil {
			f.Tag = ape.Project(tag)
		}
	}
	return f, nil
}

const id3v1Size = 128

// findAPETag locates a trailing APEv2 tag the way APEv2 taggers
// conventionally append one: as the very last bytes of the file, or
// immediately before a trailing 128-byte ID3v1 tag. It returns the
// byte range [start, end) of the tag (header-if-present + items +
// footer), or start < 0 if no tag is found.
func findAPETag(b []byte) (start, end int) {
	for _, trailerSize := range []int{0, id3v1Size} {
		footerStart := len(b) - trailerSize - ape.FooterSize
		if footerStart < 0 || footerStart+8 > len(b) {
			continue
		}
		if string(b[footerStart:footerStart+8]) != "APETAGEX" {
			continue
		}
		footer, err := ape.ParseFooter(b[footerStart : footerStart+ape.FooterSize])
		if err != nil {
			continue
		}
		// TagSize covers the item list plus the footer but never the
		// optional header, per the APEv2 spec, so a tag written with a
		// header starts one more footer-width earlier than TagSize
		// alone would suggest.
		itemsStart := footerStart + ape.FooterSize - int(footer.TagSize)
		tagStart := itemsStart
		const flagContainsHeader = 1 << 31
		if footer.Flags&flagContainsHeader != 0 {
			tagStart -= ape.FooterSize
		}
		if tagStart >= 0 {
			return tagStart, footerStart + ape.FooterSize
		}
	}
	return -1, -1
}

// parseSV7Properties decodes the fixed SV7 stream header: a 6-word
// little-endian header beginning at byte 4 (after the "MP+" magic and
// its version byte), with a 2-bit sample-rate index in bits 16-17 of
// word 0 and the frame count in word 1.
func parseSV7Properties(b []byte) tagmodel.AudioProperties {
	var props tagmodel.AudioProperties
	props.Codec = "Musepack SV7"
	props.Channels = 2
	if len(b) < 4+24 {
		return props
	}
	header := b[4 : 4+24]
	word0 := binary.LittleEndian.Uint32(header[0:4])
	sampleRateIdx := (word0 >> 16) & 0x3
	props.SampleRate = sv7SampleRates[sampleRateIdx]
	frameCount := binary.LittleEndian.Uint32(header[4:8])
	if props.SampleRate > 0 {
		props.Duration = float64(frameCount) * 1152 / float64(props.SampleRate)
	}
	return props
}

// parseSV8Properties decodes the SV8 packet stream far enough to find
// the mandatory "SH" (Stream Header) packet: packet key (2 bytes),
// then a variable-length (base-128, MSB-continuation) packet size,
// then (skipping the header's own CRC/version/sample-count fields)
// the sample rate and channel count.
func parseSV8Properties(b []byte) tagmodel.AudioProperties {
	var props tagmodel.AudioProperties
	props.Codec = "Musepack SV8"
	off := 4 // past "MPCK"
	for off+2 <= len(b) {
		key := string(b[off : off+2])
		size, n, ok := readVariableLength(b[off+2:])
		if !ok {
			break
		}
		packetStart := off + 2 + n
		packetEnd := off + int(size)
		if packetEnd > len(b) || packetEnd <= packetStart {
			break
		}
		if key == "SH" {
			decodeSH(b[packetStart:packetEnd], &props)
			break
		}
		off = packetEnd
	}
	return props
}

// readVariableLength decodes Musepack's base-128 variable-length
// integer: each byte contributes 7 bits, MSB set means more bytes
// follow.
func readVariableLength(b []byte) (value uint64, consumed int, ok bool) {
	for i := 0; i < len(b) && i < 10; i++ {
		value = value<<7 | uint64(b[i]&0x7F)
		if b[i]&0x80 == 0 {
			return value, i + 1, true
		}
	}
	return 0, 0, false
}

// decodeSH decodes the Stream Header packet body: 4-byte CRC, 1-byte
// stream version, then a variable-length sample count, then a
// variable-length "beginning silence" sample count, then 3 bytes
// packing a 17.4-bit sample rate index / max-band / channel-count /
// frame-count-power fields.
func decodeSH(b []byte, props *tagmodel.AudioProperties) {
	if len(b) < 5 {
		return
	}
	off := 5
	_, n, ok := readVariableLength(b[off:])
	if !ok {
		return
	}
	off += n
	_, n, ok = readVariableLength(b[off:])
	if !ok {
		return
	}
	off += n
	if off+3 > len(b) {
		return
	}
	flags := uint32(b[off])<<16 | uint32(b[off+1])<<8 | uint32(b[off+2])
	sampleRateIdx := (flags >> 21) & 0x7
	channels := (flags >> 17) & 0xF
	sampleRates := [8]int{44100, 48000, 37800, 32000, 0, 0, 0, 0}
	props.SampleRate = sampleRates[sampleRateIdx]
	props.Channels = int(channels) + 1
}
