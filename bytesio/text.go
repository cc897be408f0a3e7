package bytesio

import (
	"bytes"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// Encoding is the set of text encodings the core engine must decode and
// encode, per spec.md §3 (Byte view) and §4.1.
type Encoding byte

const (
	Latin1 Encoding = iota
	UTF16BOM
	UTF16BE
	UTF8
)

// ErrInvalidEncoding is returned for an encoding byte outside {0,1,2,3}.
var ErrInvalidEncoding = errors.New("bytesio: invalid text encoding byte")

var (
	latin1Decoder = charmap.ISO8859_1.NewDecoder()
	latin1Encoder = charmap.ISO8859_1.NewEncoder()

	utf16BOMDecoder = unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder()
	utf16LEEncoder  = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewEncoder()
	utf16BEDecoder  = unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewDecoder()
	utf16BEEncoder  = unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewEncoder()
)

// Decode decodes b according to enc, using golang.org/x/text's
// charmap/unicode decoders the way yorkxin-mp3len and tmthrgd-id3v2
// depend on that package for the same job, instead of a hand-rolled
// byte-to-rune table.
func Decode(enc Encoding, b []byte) (string, error) {
	if len(b) == 0 {
		return "", nil
	}
	switch enc {
	case Latin1:
		return decodeWith(latin1Decoder, b)
	case UTF16BOM:
		if len(b) < 2 {
			return "", nil
		}
		return decodeWith(utf16BOMDecoder, b)
	case UTF16BE:
		if len(b) < 2 {
			return "", nil
		}
		return decodeWith(utf16BEDecoder, b)
	case UTF8:
		return string(b), nil
	default:
		return "", errors.Wrapf(ErrInvalidEncoding, "byte 0x%02x", byte(enc))
	}
}

func decodeWith(dec *encoding.Decoder, b []byte) (string, error) {
	out, err := dec.Bytes(b)
	if err != nil {
		return "", errors.Wrap(err, "bytesio: decode text")
	}
	return string(out), nil
}

// Encode is the inverse of Decode, used by renderers choosing the
// smallest legal encoding per spec.md §4.3.5.
func Encode(enc Encoding, s string) ([]byte, error) {
	switch enc {
	case Latin1:
		out, err := latin1Encoder.Bytes([]byte(s))
		if err != nil {
			return nil, errors.Wrap(err, "bytesio: encode latin-1")
		}
		return out, nil
	case UTF16BOM:
		out, err := utf16LEEncoder.Bytes([]byte(s))
		if err != nil {
			return nil, errors.Wrap(err, "bytesio: encode utf-16")
		}
		// utf16LEEncoder is built with unicode.IgnoreBOM, so it writes no
		// BOM of its own; exactly one is prepended here to match
		// spec.md's "UTF-16 with byte order marker" contract.
		return append([]byte{0xFF, 0xFE}, out...), nil
	case UTF16BE:
		out, err := utf16BEEncoder.Bytes([]byte(s))
		if err != nil {
			return nil, errors.Wrap(err, "bytesio: encode utf-16be")
		}
		return out, nil
	case UTF8:
		return []byte(s), nil
	default:
		return nil, errors.Wrapf(ErrInvalidEncoding, "byte 0x%02x", byte(enc))
	}
}

// Delim returns the null-terminator width for enc: 1 byte for
// Latin-1/UTF-8, 2 bytes for the UTF-16 variants, per spec.md §4.3.3.
func Delim(enc Encoding) ([]byte, error) {
	switch enc {
	case Latin1, UTF8:
		return []byte{0}, nil
	case UTF16BOM, UTF16BE:
		return []byte{0, 0}, nil
	default:
		return nil, errors.Wrapf(ErrInvalidEncoding, "byte 0x%02x", byte(enc))
	}
}

// IsASCII reports whether every byte of s is plain ASCII, used by
// renderers picking Latin-1 when legal (spec.md §4.3.5 rule 2).
func IsASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] > 0x7F {
			return false
		}
	}
	return true
}

// SplitAtDelim splits b at the first occurrence of delim, mirroring
// teacher's id3v2frames.go dataSplit: a delimiter that is itself
// followed by a stray zero (an over-eager cut on a double/triple null)
// is repaired by reattaching the extra byte to the tail.
func SplitAtDelim(b []byte, delim []byte) [][]byte {
	parts := bytes.SplitN(b, delim, 2)
	if len(parts) <= 1 {
		return parts
	}
	if len(parts[1]) > 0 && parts[1][0] == 0 && len(delim) == 1 {
		parts[1] = parts[1][1:]
	}
	return parts
}

// NullTerminated reads a single field of the given encoding starting at
// b[0], stopping at the first null terminator (1 byte for Latin-1/UTF-8,
// 2 bytes for UTF-16 variants). It returns the decoded string and the
// number of raw bytes consumed, including the terminator.
func NullTerminated(enc Encoding, b []byte) (string, int, error) {
	delim, err := Delim(enc)
	if err != nil {
		return "", 0, err
	}
	i := indexDelim(b, delim)
	if i < 0 {
		s, err := Decode(enc, b)
		return s, len(b), err
	}
	s, err := Decode(enc, b[:i])
	return s, i + len(delim), err
}

func indexDelim(b, delim []byte) int {
	if len(delim) == 1 {
		return bytes.IndexByte(b, delim[0])
	}
	for i := 0; i+1 < len(b); i += 2 {
		if b[i] == 0 && b[i+1] == 0 {
			return i
		}
	}
	return -1
}
