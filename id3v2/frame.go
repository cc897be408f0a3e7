package id3v2

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/go-tagkit/tagkit/bytesio"
)

// FrameFlags models the per-frame status/format flags, per spec.md
// §4.3.1. Bit positions match teacher's id3v2.go ID3v2FrameFlags,
// generalized to a render-capable type (teacher's version is read-only).
type FrameFlags struct {
	TagAlterPreservation  bool
	FileAlterPreservation bool
	ReadOnly              bool

	GroupIdentity       bool
	Compression         bool
	Encryption          bool
	Unsynchronisation   bool
	DataLengthIndicator bool
}

// parseFrameFlags decodes the per-frame status/format flag bytes. The
// format byte's bit layout differs between v2.3 and v2.4 (spec.md
// §4.3.2's table); v2.3 has no per-frame-unsync or data-length-
// indicator bits at all.
func parseFrameFlags(ver Version, msg, format byte) FrameFlags {
	f := FrameFlags{
		TagAlterPreservation:  msg&(1<<6) != 0,
		FileAlterPreservation: msg&(1<<5) != 0,
		ReadOnly:              msg&(1<<4) != 0,
	}
	switch ver {
	case Version2_3:
		f.GroupIdentity = format&(1<<5) != 0
		f.Compression = format&(1<<7) != 0
		f.Encryption = format&(1<<6) != 0
	case Version2_4:
		f.GroupIdentity = format&(1<<6) != 0
		f.Compression = format&(1<<3) != 0
		f.Encryption = format&(1<<2) != 0
		f.Unsynchronisation = format&(1<<1) != 0
		f.DataLengthIndicator = format&(1<<0) != 0
	}
	return f
}

func (f FrameFlags) render(ver Version) (byte, byte) {
	var msg, format byte
	if f.TagAlterPreservation {
		msg |= 1 << 6
	}
	if f.FileAlterPreservation {
		msg |= 1 << 5
	}
	if f.ReadOnly {
		msg |= 1 << 4
	}
	switch ver {
	case Version2_3:
		if f.GroupIdentity {
			format |= 1 << 5
		}
		if f.Compression {
			format |= 1 << 7
		}
		if f.Encryption {
			format |= 1 << 6
		}
	case Version2_4:
		if f.GroupIdentity {
			format |= 1 << 6
		}
		if f.Compression {
			format |= 1 << 3
		}
		if f.Encryption {
			format |= 1 << 2
		}
		if f.Unsynchronisation {
			format |= 1 << 1
		}
		if f.DataLengthIndicator {
			format |= 1 << 0
		}
	}
	return msg, format
}

// RawFrame is a frame as it exists on the wire: an ID, flags, and an
// (already decompressed/decrypted-if-possible) payload. The projection
// layer (projection.go) interprets RawFrame.Data according to RawFrame.ID
// into logical Tag fields; unrecognized or unparseable frames are kept
// as RawFrame so rendering never silently drops data, per spec.md §4.3.6
// "Unknown frame preservation".
type RawFrame struct {
	ID               string
	Flags            FrameFlags
	GroupID          byte // valid only if Flags.GroupIdentity
	EncryptionMethod byte // valid only if Flags.Encryption
	Data             []byte

	// Opaque is true when Data could not be decompressed/decrypted and
	// is kept as-is for lossless round-trip preservation.
	Opaque bool
}

// ParseFrames walks the frame directory starting immediately after the
// (extended) header, up to tagSize bytes, per version-specific frame
// header layouts (teacher's readID3v2_{2,3,4}FrameHeader). Frames with
// a null/empty ID terminate the directory (padding).
func ParseFrames(ver Version, b []byte, tagSize int) ([]RawFrame, error) {
	var frames []RawFrame
	offset := 0
	for offset < tagSize && offset < len(b) {
		id, size, headerSize, flags, err := parseFrameHeader(ver, b[offset:])
		if err != nil {
			return frames, err
		}
		if size == 0 || strings.TrimSpace(id) == "" {
			break
		}
		start := offset + headerSize
		end := start + size
		if end > len(b) {
			return frames, errors.Errorf("id3v2: frame %q size %d exceeds buffer", id, size)
		}
		payload := b[start:end]

		// Pre-content bytes, in order: grouping (1 byte), encryption (1
		// byte), data-length indicator (4 bytes), per spec.md §4.3.2.
		var groupID, encMethod byte
		if flags.GroupIdentity && len(payload) >= 1 {
			groupID = payload[0]
			payload = payload[1:]
		}
		if flags.Encryption && len(payload) >= 1 {
			encMethod = payload[0]
			payload = payload[1:]
		}
		if flags.DataLengthIndicator && len(payload) >= 4 {
			payload = payload[4:]
		}

		rf := RawFrame{ID: id, Flags: flags, GroupID: groupID, EncryptionMethod: encMethod}

		payload, opaque, err := decodeFramePayload(ver, flags, payload)
		if err != nil {
			rf.Opaque = true
			rf.Data = payload
		} else {
			rf.Opaque = opaque
			rf.Data = payload
		}
		frames = append(frames, rf)
		offset = end
	}
	return frames, nil
}

// decodeFramePayload reverses compression/unsynchronisation applied to
// a single frame's body. Encrypted frames cannot be decoded without a
// registered decryptor (spec.md §9 Open Question, resolved in
// DESIGN.md: preserve opaque), so they are always returned opaque.
func decodeFramePayload(ver Version, flags FrameFlags, b []byte) ([]byte, bool, error) {
	if flags.Encryption {
		return b, true, nil
	}
	out := b
	if flags.Unsynchronisation && ver == Version2_4 {
		// Per-frame unsynchronisation is a v2.4-only bit (spec.md §4.3.2's
		// table gives v2.3 no such bit); v2.3 only supports the
		// tag-wide unsync flag, handled in tag.go's Parse.
		out = RemoveUnsynchronization(out)
	}
	if flags.Compression {
		if ver == Version2_3 {
			// v2.3 compression prepends a 4-byte big-endian decompressed
			// size ahead of the zlib stream itself (not the v2.4
			// data-length-indicator pre-content byte, which v2.3 has no
			// flag bit for).
			if len(out) < 4 {
				return b, true, nil
			}
			out = out[4:]
		}
		decompressed, err := zlibInflate(out)
		if err != nil {
			return b, true, nil
		}
		out = decompressed
	}
	return out, false, nil
}

func parseFrameHeader(ver Version, b []byte) (id string, size, headerSize int, flags FrameFlags, err error) {
	switch ver {
	case Version2_2:
		if len(b) < 6 {
			return "", 0, 0, FrameFlags{}, errors.New("id3v2: truncated v2.2 frame header")
		}
		id = string(b[0:3])
		sz24, e := bytesio.Decode24BE(b[3:6])
		if e != nil {
			err = e
			return
		}
		size = int(sz24)
		headerSize = 6
		return
	case Version2_3:
		if len(b) < 10 {
			return "", 0, 0, FrameFlags{}, errors.New("id3v2: truncated v2.3 frame header")
		}
		id = string(b[0:4])
		v := bytesio.NewView(b)
		sz, e := v.ReadU32BE(4)
		if e != nil {
			err = e
			return
		}
		size = int(sz)
		flags = parseFrameFlags(ver, b[8], b[9])
		headerSize = 10
		return
	case Version2_4:
		if len(b) < 10 {
			return "", 0, 0, FrameFlags{}, errors.New("id3v2: truncated v2.4 frame header")
		}
		id = string(b[0:4])
		sz, e := bytesio.DecodeSyncSafe(b[4:8])
		if e != nil {
			err = e
			return
		}
		size = int(sz)
		flags = parseFrameFlags(ver, b[8], b[9])
		headerSize = 10
		return
	default:
		return "", 0, 0, FrameFlags{}, errors.Wrapf(ErrUnsupportedVersion, "version %d", ver)
	}
}

// RenderFrame serializes a RawFrame to wire bytes for the given version,
// choosing the frame ID width and size encoding appropriate to ver. It
// does not translate IDs between versions: f.ID is written as given,
// and an ID whose length does not fit ver (3 letters for v2.2, 4 for
// v2.3/2.4) is rejected with an error.
func RenderFrame(ver Version, f RawFrame) ([]byte, error) {
	bd := bytesio.NewBuilder(len(f.Data) + 16)
	defer bd.Release()

	// Pre-content bytes, in order: grouping, encryption, data-length
	// indicator (mirroring the parse-side order in ParseFrames).
	payload := f.Data
	if f.Flags.DataLengthIndicator && ver == Version2_4 {
		dli, err := bytesio.EncodeSyncSafe(uint32(len(f.Data)))
		if err != nil {
			return nil, err
		}
		payload = append(dli[:], payload...)
	}
	if f.Flags.Encryption {
		payload = append([]byte{f.EncryptionMethod}, payload...)
	}
	if f.Flags.GroupIdentity {
		payload = append([]byte{f.GroupID}, payload...)
	}

	switch ver {
	case Version2_2:
		if len(f.ID) != 3 {
			return nil, errors.Errorf("id3v2: frame id %q is not a 3-letter v2.2 id", f.ID)
		}
		bd.Raw([]byte(f.ID))
		enc, err := bytesio.Encode24BE(uint32(len(payload)))
		if err != nil {
			return nil, err
		}
		bd.Raw(enc[:])
	case Version2_3, Version2_4:
		if len(f.ID) != 4 {
			return nil, errors.Errorf("id3v2: frame id %q is not a 4-letter id", f.ID)
		}
		bd.Raw([]byte(f.ID))
		if ver == Version2_4 {
			if err := bd.SyncSafeU32(uint32(len(payload))); err != nil {
				return nil, err
			}
		} else {
			bd.U32BE(uint32(len(payload)))
		}
		msg, format := f.Flags.render(ver)
		bd.U8(msg)
		bd.U8(format)
	default:
		return nil, errors.Wrapf(ErrUnsupportedVersion, "version %d", ver)
	}
	bd.Raw(payload)
	return append([]byte(nil), bd.Bytes()...), nil
}

// frameNumKey disambiguates repeated frame IDs in a map-based view the
// way teacher's readID3v2Frames appends "_0", "_1", ... ; tagkit's
// projection layer keeps frames in a slice instead (spec.md §9), and
// nothing in this module calls this helper.
func frameNumKey(existing map[string]bool, id string) string {
	if !existing[id] {
		return id
	}
	for i := 0; ; i++ {
		cand := id + "_" + strconv.Itoa(i)
		if !existing[cand] {
			return cand
		}
	}
}
