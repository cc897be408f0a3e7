package oggcontainer

import (
	"bytes"
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/go-tagkit/tagkit/tagmodel"
	"github.com/go-tagkit/tagkit/vorbiscomment"
)

// Codec identifies which logical bitstream is carried by a chain of Ogg
// pages, per spec.md §4.6 (Ogg Vorbis / Ogg Opus / Ogg FLAC all share
// the same page-framing format but tag differently).
type Codec string

const (
	CodecVorbis Codec = "vorbis"
	CodecOpus   Codec = "opus"
	CodecFLAC   Codec = "flac"
	CodecUnknown Codec = ""
)

// SniffCodec inspects the first page's packet payload to tell Vorbis,
// Opus and FLAC-in-Ogg apart, since teacher's ogg.go hard-codes Vorbis
// only (checks for the identification packet type 1 unconditionally).
func SniffCodec(firstPacket []byte) Codec {
	switch {
	case len(firstPacket) >= 7 && firstPacket[0] == PacketIdentification && string(firstPacket[1:7]) == "vorbis":
		return CodecVorbis
	case len(firstPacket) >= 8 && string(firstPacket[0:8]) == "OpusHead":
		return CodecOpus
	case len(firstPacket) >= 5 && firstPacket[0] == 0x7F && string(firstPacket[1:5]) == "FLAC":
		return CodecFLAC
	default:
		return CodecUnknown
	}
}

// File is a parsed Ogg stream: the page sequence, the detected codec,
// and the logical tag projected from the comment header packet, plus
// enough of the header-packet layout to re-paginate on Render.
type File struct {
	Pages []Page
	Codec Codec
	Tag   *tagmodel.Tag

	serial          uint32
	idPacket        []byte
	commentPacket   []byte // raw Vorbis Comment payload, no type/magic prefix
	setupPacket     []byte // Vorbis only; nil for Opus/FLAC-in-Ogg
	flacBlockHeader []byte // FLAC-in-Ogg only: the 4-byte block header preceding the comment payload
	headerPageCount int    // number of leading f.Pages that make up the header run
}

// Parse reads an entire Ogg logical bitstream from b and decodes its
// comment header packet, handling all three comment-packet conventions
// (Vorbis: type byte 3 + "vorbis", plus a trailing setup packet; Opus:
// "OpusTags" magic; FLAC-in-Ogg: packet type 0x7F "FLAC" header then a
// plain Vorbis Comment packet). Header packets are reassembled with
// WalkPackets, which reconstructs packet boundaries straight from each
// page's segment table rather than assuming the comment header always
// lands on the first run of continuation pages.
func Parse(b []byte) (*File, error) {
	pages, err := ParsePages(b)
	if err != nil {
		return nil, err
	}
	f := &File{Pages: pages, Tag: &tagmodel.Tag{Extension: map[string]any{}}}
	if len(pages) == 0 {
		return f, nil
	}
	f.serial = pages[0].SerialNumber

	packets, endPage := WalkPackets(pages)
	if len(packets) == 0 {
		return f, nil
	}
	f.idPacket = packets[0]
	f.Codec = SniffCodec(f.idPacket)
	f.headerPageCount = endPage[0] + 1

	wantPackets := 2
	if f.Codec == CodecVorbis {
		wantPackets = 3
	}
	if len(packets) < wantPackets {
		return f, nil // truncated header; Tag stays empty
	}

	commentPacket, err := extractCommentPacket(packets[1], f.Codec)
	if err != nil {
		return f, nil // no comment header found is not fatal; Tag stays empty
	}
	f.commentPacket = commentPacket
	if f.Codec == CodecFLAC {
		f.flacBlockHeader = flacCommentBlockHeader(packets[1])
	}
	f.headerPageCount = endPage[1] + 1
	if f.Codec == CodecVorbis {
		f.setupPacket = packets[2]
		f.headerPageCount = endPage[2] + 1
	}

	vc, err := vorbiscomment.Parse(commentPacket)
	if err != nil {
		return f, nil
	}
	f.Tag = vorbiscomment.Project(vc)
	return f, nil
}

// Properties reports the sample rate and channel count declared in the
// identification header packet, whose layout differs per codec:
// Vorbis's identification header and Opus's OpusHead both carry these
// fields at fixed little-endian offsets; FLAC-in-Ogg instead defers to
// the STREAMINFO block nested right after the "fLaC" marker.
func (f *File) Properties() tagmodel.AudioProperties {
	props := tagmodel.AudioProperties{Codec: string(f.Codec)}
	switch f.Codec {
	case CodecVorbis:
		// type(1) + "vorbis"(6) + version(4) + channels(1) + sample rate(4)
		if len(f.idPacket) >= 16 {
			props.Channels = int(f.idPacket[11])
			props.SampleRate = int(binary.LittleEndian.Uint32(f.idPacket[12:16]))
		}
	case CodecOpus:
		// "OpusHead"(8) + version(1) + channels(1) + pre-skip(2) + sample rate(4)
		if len(f.idPacket) >= 16 {
			props.Channels = int(f.idPacket[9])
			props.SampleRate = int(binary.LittleEndian.Uint32(f.idPacket[12:16]))
		}
	case CodecFLAC:
		// "fLaC"(4) + block header(4) + STREAMINFO; the 20-bit sample
		// rate and 3-bit channels-1 are packed into bytes 10..12 of the
		// fixed 34-byte payload.
		idx := bytes.Index(f.idPacket, []byte("fLaC"))
		off := idx + 4 + 4
		if idx >= 0 && len(f.idPacket) >= off+18 {
			si := f.idPacket[off : off+18]
			props.SampleRate = int(si[10])<<12 | int(si[11])<<4 | int(si[12])>>4
			props.Channels = int((si[12]>>1)&0x7) + 1
		}
	}
	return props
}

// extractCommentPacket strips the packet-type/magic prefix from the
// second header packet, per codec convention, and returns the raw
// Vorbis Comment payload. Unlike the page/blob-based scanning this
// replaced, it operates on one already-reassembled packet (packets[1]
// from WalkPackets), so there is no header-region ambiguity to resolve.
func extractCommentPacket(packet []byte, codec Codec) ([]byte, error) {
	switch codec {
	case CodecVorbis:
		if len(packet) < 7 || packet[0] != PacketComment || string(packet[1:7]) != "vorbis" {
			return nil, errors.New("oggcontainer: second packet is not a vorbis comment header")
		}
		return packet[7:], nil
	case CodecOpus:
		if len(packet) < 8 || string(packet[0:8]) != "OpusTags" {
			return nil, errors.New("oggcontainer: second packet is not an OpusTags header")
		}
		return packet[8:], nil
	case CodecFLAC:
		// FLAC-in-Ogg's second packet is the VORBIS_COMMENT metadata
		// block in full: a 4-byte block header (type + 24-bit big-endian
		// length) followed by the comment payload itself.
		if len(packet) < 4 {
			return nil, errors.New("oggcontainer: truncated FLAC-in-Ogg metadata block header")
		}
		return packet[4:], nil
	default:
		return nil, errors.New("oggcontainer: unrecognized codec, cannot locate comment packet")
	}
}

// flacCommentBlockHeader returns the 4-byte VORBIS_COMMENT block header
// prefixing a FLAC-in-Ogg comment packet, preserved so Render can
// reapply it unchanged (only the block's length field needs updating).
func flacCommentBlockHeader(packet []byte) []byte {
	return append([]byte(nil), packet[:4]...)
}

// Render re-serializes f.Tag into a fresh comment header packet,
// repaginates the header run (identification, comment, and for Vorbis,
// setup), and re-numbers every following audio page onto the same
// logical stream. Audio page payloads are never touched; only their
// SequenceNumber and checksum change.
func (f *File) Render() ([]byte, error) {
	if f.Codec == CodecUnknown || f.idPacket == nil {
		return nil, errors.New("oggcontainer: cannot render an unrecognized Ogg codec")
	}

	base, err := vorbiscomment.Parse(f.commentPacket)
	if err != nil {
		base = vorbiscomment.Comment{}
	}
	vc := vorbiscomment.Apply(base, f.Tag)
	payload := vorbiscomment.Render(vc)

	var commentPacket []byte
	switch f.Codec {
	case CodecVorbis:
		commentPacket = append(append([]byte{PacketComment}, []byte("vorbis")...), payload...)
	case CodecOpus:
		commentPacket = append([]byte("OpusTags"), payload...)
	case CodecFLAC:
		header := f.flacBlockHeader
		if header == nil {
			header = []byte{4, 0, 0, 0} // VORBIS_COMMENT type, last-block flag unset
		}
		commentPacket = renderFlacCommentBlock(header, payload)
	}

	packets := [][]byte{f.idPacket, commentPacket}
	if f.Codec == CodecVorbis {
		packets = append(packets, f.setupPacket)
	}
	headerPages := paginateHeaderPackets(f.serial, packets)

	var out []byte
	for _, p := range headerPages {
		out = append(out, RenderPage(p)...)
	}

	seq := uint32(len(headerPages))
	for _, p := range f.Pages[f.headerPageCount:] {
		p.SerialNumber = f.serial
		p.SequenceNumber = seq
		seq++
		out = append(out, RenderPage(p)...)
	}
	return out, nil
}

// renderFlacCommentBlock reapplies a FLAC metadata block header to a
// re-encoded Vorbis Comment payload, updating only the 24-bit
// big-endian length field and preserving the type/last-block byte.
func renderFlacCommentBlock(header, payload []byte) []byte {
	out := make([]byte, 4+len(payload))
	out[0] = header[0]
	n := len(payload)
	out[1] = byte(n >> 16)
	out[2] = byte(n >> 8)
	out[3] = byte(n)
	copy(out[4:], payload)
	return out
}
