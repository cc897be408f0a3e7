// Package detect sniffs an audio file's container/codec family from a
// leading prefix of its bytes, per spec.md §4.6's priority-ordered
// magic-byte list. Grounded on teacher's tag.go (ReadFrom's
// fLaC/OggS/ftypM4A/ID3 magic-byte switch) and hash.go/sum.go's
// identical ftypM4A/ID3 checks, extended to the full format list this
// module supports.
package detect

import (
	"github.com/go-tagkit/tagkit/asf"
	"github.com/go-tagkit/tagkit/tagmodel"
)

// asfHeaderGUIDBytes is the 16-byte wire encoding of the ASF Header
// Object GUID, per spec.md §4.6 rule 9. asf.GUIDHeaderObject is stored
// in RFC 4122 (big-endian) form by github.com/google/uuid, so it is
// re-ordered into the mixed-endian bytes that actually appear at the
// front of an ASF file, the same way asf.RenderObjects does.
var asfHeaderGUIDBytes = asfWireGUID([16]byte(asf.GUIDHeaderObject))

// Detect identifies the FileType of b, a prefix of the file (the
// longer the prefix, the more reliable Ogg sub-codec and MP3
// frame-sync detection are). It never returns an error: an
// unrecognized prefix yields tagmodel.FileUnknown, leaving the
// filename-extension fallback (spec.md §4.6's final rule) to the
// caller, since detect has no access to a file name.
func Detect(b []byte) tagmodel.FileType {
	switch {
	case hasPrefix(b, 0, "fLaC"):
		return tagmodel.FileFLAC

	case hasPrefix(b, 0, "OggS"):
		return detectOggSubCodec(b)

	case len(b) >= 12 && hasPrefix(b, 0, "RIFF") && hasPrefix(b, 8, "WAVE"):
		return tagmodel.FileWAV

	case len(b) >= 12 && hasPrefix(b, 0, "FORM") && (hasPrefix(b, 8, "AIFF") || hasPrefix(b, 8, "AIFC")):
		return tagmodel.FileAIFF

	case hasPrefix(b, 4, "ftyp"):
		return detectMP4SubType(b)

	case hasPrefix(b, 0, "DSD "):
		return tagmodel.FileDSF

	case hasPrefix(b, 0, "FRM8") && len(b) >= 16 && hasPrefix(b, 12, "DSD "):
		return tagmodel.FileDFF

	case hasPrefix(b, 0, "wvpk"):
		return tagmodel.FileWavPack

	case hasPrefix(b, 0, "MAC "):
		return tagmodel.FileMonkeysAudio

	case hasPrefix(b, 0, "MPCK") || hasPrefix(b, 0, "MP+"):
		return tagmodel.FileMusepack

	case len(b) >= 16 && [16]byte(b[0:16]) == asfHeaderGUIDBytes:
		return tagmodel.FileASF

	case hasPrefix(b, 0, "ID3") || isMP3FrameSync(b):
		return tagmodel.FileMP3
	}
	return tagmodel.FileUnknown
}

func hasPrefix(b []byte, at int, s string) bool {
	return len(b) >= at+len(s) && string(b[at:at+len(s)]) == s
}

// isMP3FrameSync reports whether b starts with an MPEG audio frame
// sync pattern: 11 set high bits (0xFF followed by the top 3 bits of
// the next byte all set).
func isMP3FrameSync(b []byte) bool {
	return len(b) >= 2 && b[0] == 0xFF && b[1]&0xE0 == 0xE0
}

// detectOggSubCodec inspects the first Ogg page's payload to pick the
// embedded codec, per spec.md §4.6 rule 2.
func detectOggSubCodec(b []byte) tagmodel.FileType {
	if len(b) < 28 {
		return tagmodel.FileOggVorbis
	}
	segCount := int(b[26])
	payloadStart := 27 + segCount
	if payloadStart >= len(b) {
		return tagmodel.FileOggVorbis
	}
	payload := b[payloadStart:]
	switch {
	case hasPrefix(payload, 0, "OpusHead"):
		return tagmodel.FileOggOpus
	case len(payload) >= 5 && payload[0] == 0x7F && string(payload[1:5]) == "FLAC":
		return tagmodel.FileOggFLAC
	default:
		return tagmodel.FileOggVorbis
	}
}

// detectMP4SubType reports the MP4 container's codec family. The
// ftyp brand alone cannot distinguish AAC from ALAC (both commonly
// carry an "M4A " brand); that requires the stsd codec fourcc inside
// moov, which mp4.ReadProperties already extracts as Props.Codec once
// the full file is parsed, so Detect reports the common case and lets
// the caller upgrade to FileALAC from Props.Codec afterward.
func detectMP4SubType(b []byte) tagmodel.FileType {
	return tagmodel.FileAAC
}

func asfWireGUID(g [16]byte) [16]byte {
	var out [16]byte
	out[0], out[1], out[2], out[3] = g[3], g[2], g[1], g[0]
	out[4], out[5] = g[5], g[4]
	out[6], out[7] = g[7], g[6]
	copy(out[8:], g[8:])
	return out
}
