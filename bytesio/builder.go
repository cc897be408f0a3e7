package bytesio

import (
	"encoding/binary"
	"sync"

	"github.com/pkg/errors"
)

// poolThreshold is the size above which a Builder's backing storage is
// rented from bufPool rather than allocated directly, per spec.md §4.2.
const poolThreshold = 1024

// minGrowth is the floor for the builder's initial/grown capacity.
const minGrowth = 256

var bufPool = sync.Pool{
	New: func() any {
		b := make([]byte, 0, poolThreshold)
		return &b
	},
}

// Builder is a mutable, append-only byte accumulator used by every
// renderer in tagkit. It grows by doubling, floors new allocations at
// minGrowth, and rents its initial storage from a shared pool when
// NewBuilder's size hint is at least poolThreshold — the pool slice MUST
// be returned via Release to avoid leaking rented storage, per spec.md's
// "Pooled buffer" design note. Bytes does not give up the pooled slice.
type Builder struct {
	buf    []byte
	pooled *[]byte
}

// NewBuilder returns a Builder with capacity hinted by sizeHint.
func NewBuilder(sizeHint int) *Builder {
	if sizeHint < minGrowth {
		sizeHint = minGrowth
	}
	if sizeHint >= poolThreshold {
		p, _ := bufPool.Get().(*[]byte)
		*p = (*p)[:0]
		if cap(*p) < sizeHint {
			*p = make([]byte, 0, sizeHint)
		}
		return &Builder{buf: *p, pooled: p}
	}
	return &Builder{buf: make([]byte, 0, sizeHint)}
}

// Release returns any pooled storage to the shared pool. After Release,
// the Builder must not be used again. Safe to call on a Builder that
// never rented pooled storage (a no-op in that case).
func (bd *Builder) Release() {
	if bd.pooled == nil {
		return
	}
	*bd.pooled = bd.buf[:0]
	bufPool.Put(bd.pooled)
	bd.pooled = nil
	bd.buf = nil
}

func (bd *Builder) grow(n int) {
	if cap(bd.buf)-len(bd.buf) >= n {
		return
	}
	need := len(bd.buf) + n
	newCap := cap(bd.buf)
	if newCap < minGrowth {
		newCap = minGrowth
	}
	for newCap < need {
		newCap *= 2
	}
	nb := make([]byte, len(bd.buf), newCap)
	copy(nb, bd.buf)
	if bd.pooled != nil {
		bufPool.Put(bd.pooled)
		bd.pooled = nil
	}
	bd.buf = nb
}

// Len returns the number of bytes written so far.
func (bd *Builder) Len() int { return len(bd.buf) }

// Bytes returns the accumulated bytes. The Builder retains ownership of
// the pooled backing array (if any) until Release is called; callers
// that need to keep the result past Release must copy it.
func (bd *Builder) Bytes() []byte { return bd.buf }

// View snapshots the builder's current contents as an immutable View
// (copying, so it survives Release).
func (bd *Builder) View() View { return View{b: append([]byte(nil), bd.buf...)} }

// Raw appends b verbatim.
func (bd *Builder) Raw(b []byte) *Builder {
	bd.grow(len(b))
	bd.buf = append(bd.buf, b...)
	return bd
}

// U8 appends a single byte.
func (bd *Builder) U8(x byte) *Builder { return bd.Raw([]byte{x}) }

// U16BE/U16LE/U32BE/U32LE/U64BE/U64LE append fixed-width endian integers.
func (bd *Builder) U16BE(x uint16) *Builder {
	bd.grow(2)
	bd.buf = binary.BigEndian.AppendUint16(bd.buf, x)
	return bd
}

func (bd *Builder) U16LE(x uint16) *Builder {
	bd.grow(2)
	bd.buf = binary.LittleEndian.AppendUint16(bd.buf, x)
	return bd
}

// U24BE appends a plain (non-sync-safe) 24-bit big-endian integer.
func (bd *Builder) U24BE(x uint32) *Builder {
	b, err := Encode24BE(x)
	if err != nil {
		// programmer error per spec.md §9: out-of-range arithmetic here
		// indicates a caller bug, not a data error.
		panic(err)
	}
	return bd.Raw(b[:])
}

func (bd *Builder) U32BE(x uint32) *Builder {
	bd.grow(4)
	bd.buf = binary.BigEndian.AppendUint32(bd.buf, x)
	return bd
}

func (bd *Builder) U32LE(x uint32) *Builder {
	bd.grow(4)
	bd.buf = binary.LittleEndian.AppendUint32(bd.buf, x)
	return bd
}

func (bd *Builder) U64BE(x uint64) *Builder {
	bd.grow(8)
	bd.buf = binary.BigEndian.AppendUint64(bd.buf, x)
	return bd
}

func (bd *Builder) U64LE(x uint64) *Builder {
	bd.grow(8)
	bd.buf = binary.LittleEndian.AppendUint64(bd.buf, x)
	return bd
}

// SyncSafeU32 appends a 4-byte sync-safe integer, per spec.md §4.1.
// Returns an error (rather than panicking) when n exceeds MaxSyncSafe,
// since this is reachable from renderer logic on attacker-influenced
// sizes, not just programmer-chosen constants.
func (bd *Builder) SyncSafeU32(n uint32) error {
	b, err := EncodeSyncSafe(n)
	if err != nil {
		return err
	}
	bd.Raw(b[:])
	return nil
}

// Text appends s encoded per enc (UTF16BOM output always starts with a
// BOM, as Encode produces it) and, if terminate is set, a trailing null
// terminator.
func (bd *Builder) Text(enc Encoding, s string, terminate bool) error {
	b, err := Encode(enc, s)
	if err != nil {
		return err
	}
	bd.Raw(b)
	if terminate {
		delim, err := Delim(enc)
		if err != nil {
			return err
		}
		bd.Raw(delim)
	}
	return nil
}

// Fill appends n copies of x.
func (bd *Builder) Fill(x byte, n int) *Builder {
	if n <= 0 {
		return bd
	}
	bd.grow(n)
	for i := 0; i < n; i++ {
		bd.buf = append(bd.buf, x)
	}
	return bd
}

// ZeroFill appends n zero bytes.
func (bd *Builder) ZeroFill(n int) *Builder { return bd.Fill(0, n) }

// Insert splices b into the builder's content at offset at, shifting
// any existing bytes after at to the right. O(n) in the shifted length.
func (bd *Builder) Insert(at int, b []byte) error {
	if at < 0 || at > len(bd.buf) {
		return errors.Errorf("bytesio: insert at %d out of range (len %d)", at, len(bd.buf))
	}
	bd.grow(len(b))
	bd.buf = append(bd.buf, make([]byte, len(b))...)
	copy(bd.buf[at+len(b):], bd.buf[at:len(bd.buf)-len(b)])
	copy(bd.buf[at:], b)
	return nil
}

// RemoveRange deletes n bytes starting at offset at, shifting the
// remainder left. O(n) in the shifted length.
func (bd *Builder) RemoveRange(at, n int) error {
	if at < 0 || n < 0 || at+n > len(bd.buf) {
		return errors.Errorf("bytesio: remove range [%d:%d) out of range (len %d)", at, at+n, len(bd.buf))
	}
	copy(bd.buf[at:], bd.buf[at+n:])
	bd.buf = bd.buf[:len(bd.buf)-n]
	return nil
}
