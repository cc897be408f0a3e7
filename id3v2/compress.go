package id3v2

import (
	"bytes"
	"compress/zlib"
	"io"

	"github.com/pkg/errors"
)

// zlibInflate and zlibDeflate implement ID3v2.3's frame-level
// compression flag (spec.md §4.3.1). zlib is used directly from the
// standard library: no example repo in the pack wires a third-party
// DEFLATE/zlib implementation, and the ID3v2.3 spec mandates zlib
// specifically, so there is no ecosystem alternative to prefer over
// compress/zlib.
func zlibInflate(b []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(b))
	if err != nil {
		return nil, errors.Wrap(err, "id3v2: zlib inflate")
	}
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "id3v2: zlib inflate read")
	}
	return out, nil
}

func zlibDeflate(b []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	if _, err := w.Write(b); err != nil {
		return nil, errors.Wrap(err, "id3v2: zlib deflate")
	}
	if err := w.Close(); err != nil {
		return nil, errors.Wrap(err, "id3v2: zlib deflate close")
	}
	return buf.Bytes(), nil
}
