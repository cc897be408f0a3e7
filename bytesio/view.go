// Package bytesio provides the byte-level primitives shared by every
// container and codec engine in tagkit: an immutable, sliceable byte
// view with endian-typed reads, and a pooled append-only builder used by
// the renderers. Nothing in this package touches a file or knows about
// any particular tag format.
package bytesio

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/pkg/errors"
)

// ErrOutOfRange is returned (wrapped) whenever a read or slice falls
// outside the bounds of a View.
var ErrOutOfRange = errors.New("bytesio: offset/length out of range")

// View is an immutable, cloneable wrapper around a byte sequence. All
// read operations are bounds-checked and return ErrOutOfRange on
// failure rather than panicking, per the "result, not exception"
// discipline used throughout tagkit.
type View struct {
	b []byte
}

// NewView wraps b without copying it. Callers must not mutate b after
// handing it to NewView if they rely on View's immutability guarantee.
func NewView(b []byte) View { return View{b: b} }

// Bytes returns the underlying byte slice. Callers that intend to
// mutate it should copy first.
func (v View) Bytes() []byte { return v.b }

// Len returns the number of bytes in the view.
func (v View) Len() int { return len(v.b) }

// Clone returns a View over a fresh copy of the underlying bytes.
func (v View) Clone() View {
	c := make([]byte, len(v.b))
	copy(c, v.b)
	return View{b: c}
}

// Slice returns the half-open byte range [from, to) as a new View
// sharing the same backing array.
func (v View) Slice(from, to int) (View, error) {
	if from < 0 || to > len(v.b) || from > to {
		return View{}, errors.Wrapf(ErrOutOfRange, "slice [%d:%d) of %d bytes", from, to, len(v.b))
	}
	return View{b: v.b[from:to]}, nil
}

// Equal reports sequence-equality with another view.
func (v View) Equal(o View) bool { return bytes.Equal(v.b, o.b) }

// Compare gives lexicographic ordering, matching bytes.Compare.
func (v View) Compare(o View) int { return bytes.Compare(v.b, o.b) }

// Index returns the offset of the first occurrence of pat at or after
// `from`, or -1 if not found.
func (v View) Index(pat []byte, from int) int {
	if from < 0 || from > len(v.b) {
		return -1
	}
	i := bytes.Index(v.b[from:], pat)
	if i < 0 {
		return -1
	}
	return i + from
}

func (v View) checkRange(at, n int) error {
	if at < 0 || n < 0 || at+n > len(v.b) {
		return errors.Wrapf(ErrOutOfRange, "read %d bytes at offset %d of %d", n, at, len(v.b))
	}
	return nil
}

// ReadBytes returns a copy of n bytes starting at offset at.
func (v View) ReadBytes(at, n int) ([]byte, error) {
	if err := v.checkRange(at, n); err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, v.b[at:at+n])
	return out, nil
}

// ReadU8 reads an unsigned byte at the given offset.
func (v View) ReadU8(at int) (byte, error) {
	if err := v.checkRange(at, 1); err != nil {
		return 0, err
	}
	return v.b[at], nil
}

// ReadU16BE reads a big-endian uint16 at the given offset.
func (v View) ReadU16BE(at int) (uint16, error) {
	if err := v.checkRange(at, 2); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(v.b[at:]), nil
}

// ReadU16LE reads a little-endian uint16 at the given offset.
func (v View) ReadU16LE(at int) (uint16, error) {
	if err := v.checkRange(at, 2); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(v.b[at:]), nil
}

// ReadU24BE reads a big-endian 24-bit unsigned integer at the given offset.
func (v View) ReadU24BE(at int) (uint32, error) {
	if err := v.checkRange(at, 3); err != nil {
		return 0, err
	}
	return uint32(v.b[at])<<16 | uint32(v.b[at+1])<<8 | uint32(v.b[at+2]), nil
}

// ReadU24LE reads a little-endian 24-bit unsigned integer at the given offset.
func (v View) ReadU24LE(at int) (uint32, error) {
	if err := v.checkRange(at, 3); err != nil {
		return 0, err
	}
	return uint32(v.b[at]) | uint32(v.b[at+1])<<8 | uint32(v.b[at+2])<<16, nil
}

// ReadU32BE reads a big-endian uint32 at the given offset.
func (v View) ReadU32BE(at int) (uint32, error) {
	if err := v.checkRange(at, 4); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(v.b[at:]), nil
}

// ReadU32LE reads a little-endian uint32 at the given offset.
func (v View) ReadU32LE(at int) (uint32, error) {
	if err := v.checkRange(at, 4); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(v.b[at:]), nil
}

// ReadU64BE reads a big-endian uint64 at the given offset.
func (v View) ReadU64BE(at int) (uint64, error) {
	if err := v.checkRange(at, 8); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(v.b[at:]), nil
}

// ReadU64LE reads a little-endian uint64 at the given offset.
func (v View) ReadU64LE(at int) (uint64, error) {
	if err := v.checkRange(at, 8); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(v.b[at:]), nil
}

// ReadI16BE/LE, ReadI32BE/LE are signed variants built on the unsigned readers.
func (v View) ReadI16BE(at int) (int16, error) { u, err := v.ReadU16BE(at); return int16(u), err }
func (v View) ReadI16LE(at int) (int16, error) { u, err := v.ReadU16LE(at); return int16(u), err }
func (v View) ReadI32BE(at int) (int32, error) { u, err := v.ReadU32BE(at); return int32(u), err }
func (v View) ReadI32LE(at int) (int32, error) { u, err := v.ReadU32LE(at); return int32(u), err }

// ReadSyncSafeU32 reads a 4-byte sync-safe integer (MSB of each byte is
// zero, 7 significant bits per byte, 28 bits total) at the given offset,
// per spec.md §4.1 and the ID3v2 structure document.
func (v View) ReadSyncSafeU32(at int) (uint32, error) {
	b, err := v.ReadBytes(at, 4)
	if err != nil {
		return 0, err
	}
	return DecodeSyncSafe(b)
}

// String renders the view as a debug string; not used for text decoding
// (see text.go for that).
func (v View) String() string { return fmt.Sprintf("View(%d bytes)", len(v.b)) }
