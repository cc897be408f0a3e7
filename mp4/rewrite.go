package mp4

import "encoding/binary"

// ShiftChunkOffsets adds delta to every sample offset recorded in an
// stco (32-bit) or co64 (64-bit) box, per spec.md §9 Open Question (a):
// render keeps the top-level box order, so when moov precedes mdat any
// change in moov's size shifts every absolute byte offset stco/co64
// record into mdat, and they are corrected by the same delta.
// New, since teacher's mp4.go never renders (reads "stco"/"co64" as
// arbitrary unhandled atoms and skips them).
func ShiftChunkOffsets(box *Box, delta int64) {
	switch box.Type {
	case "stco":
		shiftStco(box, delta)
	case "co64":
		shiftCo64(box, delta)
	}
	for _, c := range box.Children {
		ShiftChunkOffsets(c, delta)
	}
}

func shiftStco(box *Box, delta int64) {
	b := box.Data
	if len(b) < 8 {
		return
	}
	count := binary.BigEndian.Uint32(b[4:8])
	off := 8
	for i := uint32(0); i < count && off+4 <= len(b); i++ {
		v := int64(binary.BigEndian.Uint32(b[off : off+4]))
		v += delta
		if v < 0 {
			v = 0
		}
		binary.BigEndian.PutUint32(b[off:off+4], uint32(v))
		off += 4
	}
}

func shiftCo64(box *Box, delta int64) {
	b := box.Data
	if len(b) < 8 {
		return
	}
	count := binary.BigEndian.Uint32(b[4:8])
	off := 8
	for i := uint32(0); i < count && off+8 <= len(b); i++ {
		v := int64(binary.BigEndian.Uint64(b[off : off+8]))
		v += delta
		if v < 0 {
			v = 0
		}
		binary.BigEndian.PutUint64(b[off:off+8], uint64(v))
		off += 8
	}
}

// boxSize returns the rendered size of box, without actually rendering
// it, so callers can compute a moov resize delta cheaply.
func boxSize(box *Box) int64 {
	return int64(len(renderOne(box)))
}

// RewriteForNewMoovSize recomputes the chunk-offset delta caused by
// moov changing from oldMoovSize to the newly rendered moov's size, and
// applies it to every stco/co64 inside moov. Callers render moov once
// to measure its new size, call this to patch offsets, then re-render
// moov a second time to emit the patched bytes — two passes, since the
// patch itself does not change moov's size (offsets are fixed-width).
func RewriteForNewMoovSize(moov *Box, oldMoovSize int64) {
	newSize := boxSize(moov)
	delta := newSize - oldMoovSize
	if delta == 0 {
		return
	}
	ShiftChunkOffsets(moov, delta)
}
