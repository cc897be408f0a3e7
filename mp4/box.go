// Package mp4 implements the MP4/M4A "ilst" iTunes metadata atom tree:
// box parsing and rendering, the ilst metadata atoms (text/uint8/
// binary/trkn/disk/freeform "----"), stco/co64 offset rewriting, and
// basic mvhd/stsd audio-property extraction, per spec.md §4.4.
// Grounded on teacher's mp4.go (readAtomHeader/readAtoms/readAtomData/
// readCustomAtom, the atoms/atomTypes/genreIDValues tables), generalized
// from a single read-only walk into a full box-tree value type that
// supports re-rendering, with the box/container classification grounded
// on other_examples' moshee-sound's mp4-atom.go atomDefs table (which
// mp4.go). teacher never names: it keeps a closed-set container list
// instead of inferring recursion from "moov"/"udta"/"ilst"/"meta" alone.
package mp4

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// containerBoxes is the set of box types whose payload is itself a
// sequence of child boxes, rather than opaque data. Grounded on
// moshee-sound's mp4-atom.go atomDefs container flag, extended with the
// "meta" full-box variant (4-byte version/flags prefix before its
// children) that teacher's readAtoms special-cases.
var containerBoxes = map[string]bool{
	"moov": true, "trak": true, "mdia": true, "minf": true, "stbl": true,
	"udta": true, "ilst": true, "meta": true, "edts": true, "mvex": true,
	"moof": true, "traf": true, "mfra": true, "dinf": true, "----": false,
}

// metaIsFullBox is true for "meta", whose payload begins with a 4-byte
// version+flags field before its child boxes, per ISO/IEC 14496-12.
const metaIsFullBox = true

// Box is one node of the MP4 box tree: either a leaf with opaque Data,
// or a container with Children populated.
type Box struct {
	Type     string
	Data     []byte // leaf payload; for containers nil, except "meta", whose 4-byte version/flags prefix is kept here
	Children []*Box
}

// IsContainer reports whether b was parsed as (or should render as) a
// container box.
func (b *Box) IsContainer() bool { return b.Children != nil }

// ParseBoxes reads a flat sequence of sibling boxes from b until it is
// exhausted.
func ParseBoxes(b []byte) ([]*Box, error) {
	var out []*Box
	off := 0
	for off < len(b) {
		box, n, err := parseOneBox(b[off:])
		if err != nil {
			return out, err
		}
		out = append(out, box)
		off += n
	}
	return out, nil
}

func parseOneBox(b []byte) (*Box, int, error) {
	if len(b) < 8 {
		return nil, 0, errors.New("mp4: truncated box header")
	}
	size := uint64(binary.BigEndian.Uint32(b[0:4]))
	typ := string(b[4:8])
	headerLen := 8
	if size == 1 {
		if len(b) < 16 {
			return nil, 0, errors.New("mp4: truncated 64-bit box size")
		}
		size = binary.BigEndian.Uint64(b[8:16])
		headerLen = 16
	} else if size == 0 {
		// size 0 means "extends to end of file/buffer" per ISO/IEC 14496-12.
		size = uint64(len(b))
	}
	if size < uint64(headerLen) || int(size) > len(b) {
		return nil, 0, errors.Errorf("mp4: box %q declares size %d, buffer has %d", typ, size, len(b))
	}
	payload := b[headerLen:size]

	box := &Box{Type: typ}
	if containerBoxes[typ] {
		skip := 0
		if typ == "meta" && metaIsFullBox {
			if len(payload) < 4 {
				return nil, 0, errors.New("mp4: truncated meta full-box header")
			}
			skip = 4
		}
		children, err := ParseBoxes(payload[skip:])
		if err != nil {
			return nil, 0, errors.Wrapf(err, "mp4: box %q children", typ)
		}
		box.Children = children
		if skip > 0 {
			box.Data = payload[:skip]
		}
	} else {
		box.Data = append([]byte(nil), payload...)
	}
	return box, int(size), nil
}

// Render serializes the box tree rooted at boxes back to wire bytes.
func Render(boxes []*Box) []byte {
	var out []byte
	for _, b := range boxes {
		out = append(out, renderOne(b)...)
	}
	return out
}

func renderOne(b *Box) []byte {
	var payload []byte
	if b.IsContainer() {
		payload = append(payload, b.Data...) // meta's 4-byte full-box prefix, if any
		payload = append(payload, Render(b.Children)...)
	} else {
		payload = b.Data
	}
	size := uint64(8 + len(payload))
	out := make([]byte, 8, size)
	if size <= 0xFFFFFFFF {
		binary.BigEndian.PutUint32(out[0:4], uint32(size))
	} else {
		binary.BigEndian.PutUint32(out[0:4], 1)
	}
	copy(out[4:8], b.Type)
	if size > 0xFFFFFFFF {
		var ext [8]byte
		binary.BigEndian.PutUint64(ext[:], size+8)
		out = append(out, ext[:]...)
	}
	out = append(out, payload...)
	return out
}

// Find returns the first immediate child of box with the given type.
func (b *Box) Find(typ string) *Box {
	for _, c := range b.Children {
		if c.Type == typ {
			return c
		}
	}
	return nil
}

// FindPath walks a sequence of box types from boxes, returning the
// final box (e.g. FindPath(root, "moov", "udta", "meta", "ilst")).
func FindPath(boxes []*Box, path ...string) *Box {
	if len(path) == 0 {
		return nil
	}
	var cur *Box
	for _, b := range boxes {
		if b.Type == path[0] {
			cur = b
			break
		}
	}
	if cur == nil {
		return nil
	}
	if len(path) == 1 {
		return cur
	}
	return FindPath(cur.Children, path[1:]...)
}
