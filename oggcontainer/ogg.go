// Package oggcontainer implements Ogg page framing: the "OggS" capture
// pattern, page header fields, segment-table-driven packet reassembly
// across contiguous pages, and the page CRC-32 checksum, per spec.md
// §4.5. Grounded on teacher's ogg.go (readPackets' continuation-flag
// page-stitching logic and the id/comment header-type constants),
// extended with a renderer (teacher only ever reads) and Opus/FLAC-in-Ogg
// sub-codec sniffing that teacher's ogg.go, which assumes pure Vorbis,
// does not attempt.
package oggcontainer

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

const capturePattern = "OggS"

// Header-type flag bits, per the Ogg framing spec.
const (
	FlagContinuation byte = 1 << 0
	FlagBOS          byte = 1 << 1 // beginning of logical stream
	FlagEOS          byte = 1 << 2 // end of logical stream
)

// Vorbis/Opus header packet type bytes, per teacher's ogg.go idType/commentType.
const (
	PacketIdentification = 1
	PacketComment        = 3
	PacketSetup          = 5
)

// Page is one parsed Ogg page.
type Page struct {
	Version        byte
	HeaderType     byte
	GranulePos     int64
	SerialNumber   uint32
	SequenceNumber uint32
	Checksum       uint32
	Segments       []byte // lacing values
	Data           []byte // concatenation of every segment's payload
}

// Continuation reports whether Page continues a packet begun on a
// previous page.
func (p Page) Continuation() bool { return p.HeaderType&FlagContinuation != 0 }

// ParsePage reads a single page starting at the beginning of b, and
// returns its length in bytes so the caller can advance to the next
// page.
func ParsePage(b []byte) (Page, int, error) {
	if len(b) < 27 || string(b[0:4]) != capturePattern {
		return Page{}, 0, errors.New("oggcontainer: missing 'OggS' capture pattern")
	}
	var p Page
	p.Version = b[4]
	p.HeaderType = b[5]
	p.GranulePos = int64(binary.LittleEndian.Uint64(b[6:14]))
	p.SerialNumber = binary.LittleEndian.Uint32(b[14:18])
	p.SequenceNumber = binary.LittleEndian.Uint32(b[18:22])
	p.Checksum = binary.LittleEndian.Uint32(b[22:26])
	segCount := int(b[26])
	if len(b) < 27+segCount {
		return Page{}, 0, errors.New("oggcontainer: truncated segment table")
	}
	p.Segments = append([]byte(nil), b[27:27+segCount]...)

	pageSize := 0
	for _, s := range p.Segments {
		pageSize += int(s)
	}
	off := 27 + segCount
	if len(b) < off+pageSize {
		return Page{}, 0, errors.New("oggcontainer: truncated page body")
	}
	p.Data = append([]byte(nil), b[off:off+pageSize]...)
	return p, off + pageSize, nil
}

// ParsePages decodes every page in b.
func ParsePages(b []byte) ([]Page, error) {
	var pages []Page
	off := 0
	for off < len(b) {
		p, n, err := ParsePage(b[off:])
		if err != nil {
			return nil, err
		}
		pages = append(pages, p)
		off += n
	}
	return pages, nil
}

// RenderPage serializes p to wire bytes, computing its CRC-32 checksum
// over the page with the checksum field itself zeroed, per the Ogg
// framing spec.
func RenderPage(p Page) []byte {
	total := 27 + len(p.Segments) + len(p.Data)
	out := make([]byte, total)
	copy(out[0:4], capturePattern)
	out[4] = p.Version
	out[5] = p.HeaderType
	binary.LittleEndian.PutUint64(out[6:14], uint64(p.GranulePos))
	binary.LittleEndian.PutUint32(out[14:18], p.SerialNumber)
	binary.LittleEndian.PutUint32(out[18:22], p.SequenceNumber)
	// out[22:26] (checksum) left zero for the CRC pass.
	out[26] = byte(len(p.Segments))
	copy(out[27:27+len(p.Segments)], p.Segments)
	copy(out[27+len(p.Segments):], p.Data)

	binary.LittleEndian.PutUint32(out[22:26], crc32Ogg(out))
	return out
}

// LaceSegments splits a packet's length into 255-byte lacing values
// terminated by a final value < 255 (or 0 if the packet length is an
// exact multiple of 255, to mark the packet boundary).
func LaceSegments(packetLen int) []byte {
	var segs []byte
	for packetLen >= 255 {
		segs = append(segs, 255)
		packetLen -= 255
	}
	segs = append(segs, byte(packetLen))
	return segs
}

// ReadPackets reassembles the sequence of logical packets spanning
// contiguous pages starting at b, stopping at the first page that both
// is not first and does not continue a packet. Mirrors teacher's
// ogg.go readPackets: the pages' data is returned as one flattened
// buffer with no packet boundaries, together with how many bytes of b
// were consumed.
func ReadPackets(b []byte) (data []byte, consumed int, err error) {
	off := 0
	first := true
	for off < len(b) {
		p, n, perr := ParsePage(b[off:])
		if perr != nil {
			return nil, 0, perr
		}
		if !first && !p.Continuation() {
			break
		}
		first = false
		data = append(data, p.Data...)
		off += n
	}
	return data, off, nil
}

// WalkPackets reassembles every logical packet carried by pages using
// the segment table alone: a lacing value of 255 means the packet
// continues into the next segment (possibly on the next page), and any
// value under 255 terminates it. This is byte-accurate regardless of a
// page's Continuation flag, unlike ReadPackets, which only stitches one
// run of pages and stops at the first page boundary that doesn't carry
// the continuation flag — the right behavior for resyncing a single
// fragmented packet, the wrong one for gathering every header packet in
// a multi-page run such as a Vorbis comment+setup pair. endPage[i]
// reports the index into pages of the page the i'th packet finishes on.
func WalkPackets(pages []Page) (packets [][]byte, endPage []int) {
	var cur []byte
	for i, p := range pages {
		off := 0
		for _, seg := range p.Segments {
			cur = append(cur, p.Data[off:off+int(seg)]...)
			off += int(seg)
			if seg < 255 {
				packets = append(packets, cur)
				endPage = append(endPage, i)
				cur = nil
			}
		}
	}
	if len(cur) > 0 {
		packets = append(packets, cur)
		endPage = append(endPage, len(pages)-1)
	}
	return packets, endPage
}

// paginateHeaderPackets repaginates a sequence of header packets
// (identification, comment, and for Vorbis, setup) into fresh pages
// under serial, packing lacing values greedily up to the 255-segment
// page limit and setting the continuation flag on any page whose first
// packet spills over from the previous one.
func paginateHeaderPackets(serial uint32, packets [][]byte) []Page {
	var pages []Page
	var curSegs, curData []byte
	continuesPrior := false

	flush := func() {
		ht := byte(0)
		if len(pages) == 0 {
			ht |= FlagBOS
		}
		if continuesPrior {
			ht |= FlagContinuation
		}
		pages = append(pages, Page{
			HeaderType:     ht,
			SerialNumber:   serial,
			SequenceNumber: uint32(len(pages)),
			Segments:       curSegs,
			Data:           curData,
		})
		curSegs = nil
		curData = nil
		continuesPrior = false
	}

	for _, packet := range packets {
		lacing := LaceSegments(len(packet))
		off := 0
		for _, seg := range lacing {
			if len(curSegs) == 255 {
				spills := curSegs[254] == 255
				flush()
				continuesPrior = spills
			}
			curSegs = append(curSegs, seg)
			curData = append(curData, packet[off:off+int(seg)]...)
			off += int(seg)
		}
	}
	if len(curSegs) > 0 || len(pages) == 0 {
		flush()
	}
	return pages
}

// crc32Ogg computes Ogg's CRC-32 variant: polynomial 0x04C11DB7,
// non-reflected, no final XOR — distinct from bytesio.CRC32's
// zlib/PNG-style reflected variant.
func crc32Ogg(b []byte) uint32 {
	var crc uint32
	for _, x := range b {
		crc ^= uint32(x) << 24
		for i := 0; i < 8; i++ {
			if crc&0x80000000 != 0 {
				crc = (crc << 1) ^ 0x04C11DB7
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}
