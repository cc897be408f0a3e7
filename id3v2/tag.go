package id3v2

import (
	"github.com/pkg/errors"

	"github.com/go-tagkit/tagkit/bytesio"
)

// DefaultPadding is a padding size for Render's argument, mirroring the
// convention most ID3v2 writers use (spec.md §4.3.1). Nothing in this
// module passes it; the facade passes Config.ID3v2PreservePaddingBytes.
const DefaultPadding = 2048

// Parse reads a complete ID3v2 tag (header, optional extended header,
// frame directory) from the start of b. It does not require the whole
// file; b need only contain at least HeaderSize+Header.Size bytes.
func Parse(b []byte) (*Tag, error) {
	h, err := ParseHeader(b)
	if err != nil {
		return nil, err
	}
	if len(b) < HeaderSize+int(h.Size) {
		return nil, errors.Errorf("id3v2: buffer shorter than declared tag size (%d < %d)", len(b), HeaderSize+int(h.Size))
	}
	body := b[HeaderSize : HeaderSize+int(h.Size)]

	if h.Unsynchronized() {
		body = RemoveUnsynchronization(body)
	}

	t := &Tag{Header: h}
	offset := 0
	if h.HasExtendedHeader() {
		eh, n, err := ParseExtendedHeader(h.Version, body)
		if err != nil {
			return nil, errors.Wrap(err, "id3v2: extended header")
		}
		t.Ext = &eh
		offset = n
	}

	frames, err := ParseFrames(h.Version, body[offset:], len(body)-offset)
	if err != nil {
		return nil, errors.Wrap(err, "id3v2: frame directory")
	}
	t.Frames = frames
	return t, nil
}

// Size returns the number of bytes Parse would need to see starting
// from the buffer's first byte in order to read the whole tag: the
// 10-byte header plus the declared body size.
func Size(b []byte) (int, error) {
	h, err := ParseHeader(b)
	if err != nil {
		return 0, err
	}
	return HeaderSize + int(h.Size), nil
}

// Render serializes t (header + frame directory) to wire bytes,
// appending paddingBytes of zero padding after the last frame. Render
// never applies the tag-wide unsync flag/transform; on v2.4 any frame
// body carrying a risky sync pattern is unsynchronized individually
// instead, per spec.md §4.3.5 rule 5. Earlier versions have no
// per-frame unsync bit, so a risky byte sequence in a v2.2/v2.3 frame
// body is left as-is.
func (t *Tag) Render(paddingBytes int) ([]byte, error) {
	body := bytesio.NewBuilder(1024)
	defer body.Release()

	for _, f := range t.Frames {
		if t.Header.Version == Version2_4 && needsUnsync(f.Data) {
			f.Flags.Unsynchronisation = true
			f.Data = Unsynchronize(f.Data)
		}
		rendered, err := RenderFrame(t.Header.Version, f)
		if err != nil {
			return nil, errors.Wrapf(err, "id3v2: render frame %q", f.ID)
		}
		body.Raw(rendered)
	}
	if paddingBytes > 0 {
		body.ZeroFill(paddingBytes)
	}

	payload := append([]byte(nil), body.Bytes()...)

	h := t.Header
	h.Flags &^= FlagUnsynchronized
	h.Size = uint32(len(payload))

	headerBytes, err := h.Render()
	if err != nil {
		return nil, err
	}
	return append(headerBytes, payload...), nil
}

// needsUnsync reports whether payload contains a byte sequence that an
// MPEG decoder could mistake for a frame sync (0xFF followed by a byte
// >= 0xE0), per spec.md §4.3.2.
func needsUnsync(b []byte) bool {
	for i := 0; i+1 < len(b); i++ {
		if b[i] == 0xFF && b[i+1]&0xE0 == 0xE0 {
			return true
		}
	}
	return false
}
