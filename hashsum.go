package tagkit

import (
	"crypto/sha1"
	"fmt"

	"github.com/pkg/errors"

	"github.com/go-tagkit/tagkit/id3v2"
	"github.com/go-tagkit/tagkit/mp4"
)

// ErrHashUnsupported is returned by Hash when b's container has no
// metadata-invariant payload boundary this package knows how to locate.
var ErrHashUnsupported = errors.New("tagkit: no metadata-invariant hash rule for this file")

// Hash returns a SHA-1 hex digest of b's audio payload with any ID3v1,
// ID3v2 or MP4 "ilst" metadata stripped out, so retagging a file leaves
// its Hash unchanged. Grounded on teacher's hash.go Hash/HashAtoms/
// HashID3v1/HashID3v2, adapted from an io.ReadSeeker walk to operate on
// an in-memory []byte (every engine in this module already does), which
// is also why Sum's streaming hash.Hash variant in teacher's sum.go has
// no counterpart here: there is no io.Reader boundary left to stream
// across once parsing works off a byte slice throughout.
func Hash(b []byte) (string, error) {
	switch {
	case len(b) >= 11 && string(b[4:11]) == "ftypM4A":
		return hashAtoms(b)
	case len(b) >= 3 && string(b[0:3]) == "ID3":
		return hashID3v2(b)
	case len(b) >= 128 && string(b[len(b)-128:len(b)-125]) == "TAG":
		return hashDigest(b[:len(b)-128]), nil
	}
	return "", ErrHashUnsupported
}

func hashAtoms(b []byte) (string, error) {
	root, err := mp4.ParseBoxes(b)
	if err != nil {
		return "", errors.Wrap(err, "tagkit: parse MP4 boxes for hashing")
	}
	mdat := mp4.FindPath(root, "mdat")
	if mdat == nil {
		return "", errors.New("tagkit: no mdat box found")
	}
	return hashDigest(mdat.Data), nil
}

func hashID3v2(b []byte) (string, error) {
	size, err := id3v2.Size(b)
	if err != nil {
		return "", errors.Wrap(err, "tagkit: read ID3v2 header")
	}
	if size > len(b) {
		return "", errors.New("tagkit: ID3v2 header size exceeds file length")
	}
	audio := b[size:]
	if len(audio) >= 128 && string(audio[len(audio)-128:len(audio)-125]) == "TAG" {
		audio = audio[:len(audio)-128]
	}
	return hashDigest(audio), nil
}

func hashDigest(b []byte) string {
	return fmt.Sprintf("%x", sha1.Sum(b))
}
