package id3v2

import (
	"github.com/pkg/errors"

	"github.com/go-tagkit/tagkit/bytesio"
)

// This file implements the ID3v2 frame body codecs: the typed payload
// layouts nested inside a RawFrame's Data, grounded on teacher's
// id3v2frames.go readTFrame/readTextWithDescrFrame/readAPICFrame/
// readPICFrame, generalized from teacher's read-only decode functions
// into parse+render pairs and extended to the rest of the frame family
// named in spec.md §4.3.4 (URL, UFID, PRIV, POPM, GEOB, CHAP/CTOC,
// SYLT, TIPL/TMCL/IPLS).

func encByte(enc bytesio.Encoding) byte { return byte(enc) }

// TextFrame is the body of any "T***" text-information frame (TIT2,
// TPE1, TALB, TRCK, TYER/TDRC, TCON, ...). Multiple values joined by a
// null separator, permitted since ID3v2.4, are kept as a slice so
// render can reproduce the original count.
type TextFrame struct {
	Encoding bytesio.Encoding
	Values   []string
}

func ParseTextFrame(b []byte) (TextFrame, error) {
	if len(b) == 0 {
		return TextFrame{}, errors.New("id3v2: empty text frame")
	}
	enc := bytesio.Encoding(b[0])
	s, err := bytesio.Decode(enc, b[1:])
	if err != nil {
		return TextFrame{}, errors.Wrap(err, "id3v2: text frame")
	}
	return TextFrame{Encoding: enc, Values: splitNulls(enc, s)}, nil
}

func (f TextFrame) Render() ([]byte, error) {
	bd := bytesio.NewBuilder(len(f.Values)*8 + 1)
	defer bd.Release()
	bd.U8(encByte(f.Encoding))
	for i, v := range f.Values {
		if i > 0 {
			if err := writeNullSep(bd, f.Encoding); err != nil {
				return nil, err
			}
		}
		if err := bd.Text(f.Encoding, v, false); err != nil {
			return nil, err
		}
	}
	return append([]byte(nil), bd.Bytes()...), nil
}

func splitNulls(enc bytesio.Encoding, s string) []string {
	sep := "\x00"
	if enc == bytesio.UTF16BOM || enc == bytesio.UTF16BE {
		// s is already decoded to Go string; a single NUL rune still
		// separates ID3v2.4 multi-value text frames.
		sep = "\x00"
	}
	if s == "" {
		return []string{""}
	}
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if string(s[i]) == sep {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	out = append(out, s[start:])
	return out
}

func writeNullSep(bd *bytesio.Builder, enc bytesio.Encoding) error {
	delim, err := bytesio.Delim(enc)
	if err != nil {
		return err
	}
	bd.Raw(delim)
	return nil
}

// UserTextFrame is TXXX: a description/value pair with a caller-chosen
// key, used for non-standard fields (MusicBrainz IDs, ReplayGain).
type UserTextFrame struct {
	Encoding    bytesio.Encoding
	Description string
	Value       string
}

func ParseUserTextFrame(b []byte) (UserTextFrame, error) {
	if len(b) == 0 {
		return UserTextFrame{}, errors.New("id3v2: empty TXXX frame")
	}
	enc := bytesio.Encoding(b[0])
	delim, err := bytesio.Delim(enc)
	if err != nil {
		return UserTextFrame{}, err
	}
	parts := bytesio.SplitAtDelim(b[1:], delim)
	if len(parts) != 2 {
		return UserTextFrame{}, errors.New("id3v2: malformed TXXX frame")
	}
	desc, err := bytesio.Decode(enc, parts[0])
	if err != nil {
		return UserTextFrame{}, err
	}
	val, err := bytesio.Decode(enc, parts[1])
	if err != nil {
		return UserTextFrame{}, err
	}
	return UserTextFrame{Encoding: enc, Description: desc, Value: val}, nil
}

func (f UserTextFrame) Render() ([]byte, error) {
	bd := bytesio.NewBuilder(len(f.Description) + len(f.Value) + 4)
	defer bd.Release()
	bd.U8(encByte(f.Encoding))
	if err := bd.Text(f.Encoding, f.Description, true); err != nil {
		return nil, err
	}
	if err := bd.Text(f.Encoding, f.Value, false); err != nil {
		return nil, err
	}
	return append([]byte(nil), bd.Bytes()...), nil
}

// URLFrame is the body of a "W***" URL-link frame: a single
// ASCII/Latin-1 URL with no encoding byte.
type URLFrame struct {
	URL string
}

func ParseURLFrame(b []byte) (URLFrame, error) {
	return URLFrame{URL: string(b)}, nil
}

func (f URLFrame) Render() ([]byte, error) {
	return []byte(f.URL), nil
}

// UserURLFrame is WXXX: a description/URL pair.
type UserURLFrame struct {
	Encoding    bytesio.Encoding
	Description string
	URL         string
}

func ParseUserURLFrame(b []byte) (UserURLFrame, error) {
	if len(b) == 0 {
		return UserURLFrame{}, errors.New("id3v2: empty WXXX frame")
	}
	enc := bytesio.Encoding(b[0])
	delim, err := bytesio.Delim(enc)
	if err != nil {
		return UserURLFrame{}, err
	}
	parts := bytesio.SplitAtDelim(b[1:], delim)
	if len(parts) != 2 {
		return UserURLFrame{}, errors.New("id3v2: malformed WXXX frame")
	}
	desc, err := bytesio.Decode(enc, parts[0])
	if err != nil {
		return UserURLFrame{}, err
	}
	return UserURLFrame{Encoding: enc, Description: desc, URL: string(parts[1])}, nil
}

func (f UserURLFrame) Render() ([]byte, error) {
	bd := bytesio.NewBuilder(len(f.Description) + len(f.URL) + 4)
	defer bd.Release()
	bd.U8(encByte(f.Encoding))
	if err := bd.Text(f.Encoding, f.Description, true); err != nil {
		return nil, err
	}
	bd.Raw([]byte(f.URL))
	return append([]byte(nil), bd.Bytes()...), nil
}

// CommentFrame is the body of COMM (and, with the same layout, USLT),
// grounded directly on teacher's readTextWithDescrFrame.
type CommentFrame struct {
	Encoding    bytesio.Encoding
	Language    string // 3-letter ISO-639-2 code
	Description string
	Text        string
}

func ParseCommentFrame(b []byte) (CommentFrame, error) {
	if len(b) < 4 {
		return CommentFrame{}, errors.New("id3v2: truncated COMM/USLT frame")
	}
	enc := bytesio.Encoding(b[0])
	lang := string(b[1:4])
	delim, err := bytesio.Delim(enc)
	if err != nil {
		return CommentFrame{}, err
	}
	parts := bytesio.SplitAtDelim(b[4:], delim)
	if len(parts) != 2 {
		return CommentFrame{}, errors.New("id3v2: malformed COMM/USLT frame")
	}
	desc, err := bytesio.Decode(enc, parts[0])
	if err != nil {
		return CommentFrame{}, errors.Wrap(err, "id3v2: COMM/USLT description")
	}
	text, err := bytesio.Decode(enc, parts[1])
	if err != nil {
		return CommentFrame{}, errors.Wrap(err, "id3v2: COMM/USLT text")
	}
	return CommentFrame{Encoding: enc, Language: lang, Description: desc, Text: text}, nil
}

func (f CommentFrame) Render() ([]byte, error) {
	lang := f.Language
	if len(lang) != 3 {
		lang = "eng"
	}
	bd := bytesio.NewBuilder(len(f.Text) + 16)
	defer bd.Release()
	bd.U8(encByte(f.Encoding))
	bd.Raw([]byte(lang))
	if err := bd.Text(f.Encoding, f.Description, true); err != nil {
		return nil, err
	}
	if err := bd.Text(f.Encoding, f.Text, false); err != nil {
		return nil, err
	}
	return append([]byte(nil), bd.Bytes()...), nil
}

// PictureFrame is APIC (v2.3/2.4); ParsePICFrame reads the legacy PIC
// (v2.2) body, with a 3-letter format code instead of a MIME string,
// into the same type; both grounded on teacher's readAPICFrame/readPICFrame.
type PictureFrame struct {
	Encoding    bytesio.Encoding
	MIMEType    string
	PictureType byte
	Description string
	Data        []byte
}

func ParseAPICFrame(b []byte) (PictureFrame, error) {
	if len(b) < 2 {
		return PictureFrame{}, errors.New("id3v2: truncated APIC frame")
	}
	enc := bytesio.Encoding(b[0])
	mimeParts := bytesio.SplitAtDelim(b[1:], []byte{0})
	if len(mimeParts) != 2 || len(mimeParts[1]) == 0 {
		return PictureFrame{}, errors.New("id3v2: malformed APIC frame")
	}
	mime := string(mimeParts[0])
	rest := mimeParts[1]
	picType := rest[0]

	delim, err := bytesio.Delim(enc)
	if err != nil {
		return PictureFrame{}, err
	}
	descData := bytesio.SplitAtDelim(rest[1:], delim)
	if len(descData) != 2 {
		return PictureFrame{}, errors.New("id3v2: malformed APIC frame description")
	}
	desc, err := bytesio.Decode(enc, descData[0])
	if err != nil {
		return PictureFrame{}, err
	}
	return PictureFrame{
		Encoding:    enc,
		MIMEType:    mime,
		PictureType: picType,
		Description: desc,
		Data:        descData[1],
	}, nil
}

func (f PictureFrame) RenderAPIC() ([]byte, error) {
	bd := bytesio.NewBuilder(len(f.Data) + 32)
	defer bd.Release()
	bd.U8(encByte(f.Encoding))
	bd.Raw([]byte(f.MIMEType))
	bd.U8(0)
	bd.U8(f.PictureType)
	if err := bd.Text(f.Encoding, f.Description, true); err != nil {
		return nil, err
	}
	bd.Raw(f.Data)
	return append([]byte(nil), bd.Bytes()...), nil
}

func ParsePICFrame(b []byte) (PictureFrame, string, error) {
	if len(b) < 5 {
		return PictureFrame{}, "", errors.New("id3v2: truncated PIC frame")
	}
	enc := bytesio.Encoding(b[0])
	format := string(b[1:4])
	picType := b[4]
	delim, err := bytesio.Delim(enc)
	if err != nil {
		return PictureFrame{}, "", err
	}
	descData := bytesio.SplitAtDelim(b[5:], delim)
	if len(descData) != 2 {
		return PictureFrame{}, "", errors.New("id3v2: malformed PIC frame")
	}
	desc, err := bytesio.Decode(enc, descData[0])
	if err != nil {
		return PictureFrame{}, "", err
	}
	return PictureFrame{
		Encoding:    enc,
		MIMEType:    mimeFromExt(format),
		PictureType: picType,
		Description: desc,
		Data:        descData[1],
	}, format, nil
}

func mimeFromExt(ext string) string {
	switch ext {
	case "jpeg", "jpg", "JPG":
		return "image/jpeg"
	case "png", "PNG":
		return "image/png"
	default:
		return ""
	}
}

// UniqueFileIDFrame is UFID: an owner identifier string plus an opaque
// identifier byte string (used for MusicBrainz Recording/Track IDs).
type UniqueFileIDFrame struct {
	Owner      string
	Identifier []byte
}

func ParseUFIDFrame(b []byte) (UniqueFileIDFrame, error) {
	parts := bytesio.SplitAtDelim(b, []byte{0})
	if len(parts) != 2 {
		return UniqueFileIDFrame{}, errors.New("id3v2: malformed UFID frame")
	}
	return UniqueFileIDFrame{Owner: string(parts[0]), Identifier: parts[1]}, nil
}

func (f UniqueFileIDFrame) Render() ([]byte, error) {
	bd := bytesio.NewBuilder(len(f.Owner) + len(f.Identifier) + 1)
	defer bd.Release()
	bd.Raw([]byte(f.Owner))
	bd.U8(0)
	bd.Raw(f.Identifier)
	return append([]byte(nil), bd.Bytes()...), nil
}

// PrivateFrame is PRIV: an owner identifier plus an arbitrary private
// byte payload (e.g. iTunes's "PeakValue"/"AverageLevel" frames).
type PrivateFrame struct {
	Owner string
	Data  []byte
}

func ParsePRIVFrame(b []byte) (PrivateFrame, error) {
	parts := bytesio.SplitAtDelim(b, []byte{0})
	if len(parts) != 2 {
		return PrivateFrame{}, errors.New("id3v2: malformed PRIV frame")
	}
	return PrivateFrame{Owner: string(parts[0]), Data: parts[1]}, nil
}

func (f PrivateFrame) Render() ([]byte, error) {
	bd := bytesio.NewBuilder(len(f.Owner) + len(f.Data) + 1)
	defer bd.Release()
	bd.Raw([]byte(f.Owner))
	bd.U8(0)
	bd.Raw(f.Data)
	return append([]byte(nil), bd.Bytes()...), nil
}

// PopularimeterFrame is POPM: an email identifier, a 0-255 rating, and
// an optional 32-bit play counter.
type PopularimeterFrame struct {
	Email     string
	Rating    byte
	Counter   uint32
	HasCounter bool
}

func ParsePOPMFrame(b []byte) (PopularimeterFrame, error) {
	parts := bytesio.SplitAtDelim(b, []byte{0})
	if len(parts) != 2 || len(parts[1]) < 1 {
		return PopularimeterFrame{}, errors.New("id3v2: malformed POPM frame")
	}
	f := PopularimeterFrame{Email: string(parts[0]), Rating: parts[1][0]}
	if len(parts[1]) >= 5 {
		v := bytesio.NewView(parts[1][1:5])
		n, err := v.ReadU32BE(0)
		if err != nil {
			return PopularimeterFrame{}, err
		}
		f.Counter = n
		f.HasCounter = true
	}
	return f, nil
}

func (f PopularimeterFrame) Render() ([]byte, error) {
	bd := bytesio.NewBuilder(len(f.Email) + 8)
	defer bd.Release()
	bd.Raw([]byte(f.Email))
	bd.U8(0)
	bd.U8(f.Rating)
	if f.HasCounter {
		bd.U32BE(f.Counter)
	}
	return append([]byte(nil), bd.Bytes()...), nil
}

// GeneralObjectFrame is GEOB: an arbitrary attached file (MIME type,
// filename, description, binary payload).
type GeneralObjectFrame struct {
	Encoding    bytesio.Encoding
	MIMEType    string
	Filename    string
	Description string
	Data        []byte
}

func ParseGEOBFrame(b []byte) (GeneralObjectFrame, error) {
	if len(b) < 2 {
		return GeneralObjectFrame{}, errors.New("id3v2: truncated GEOB frame")
	}
	enc := bytesio.Encoding(b[0])
	mimeParts := bytesio.SplitAtDelim(b[1:], []byte{0})
	if len(mimeParts) != 2 {
		return GeneralObjectFrame{}, errors.New("id3v2: malformed GEOB frame")
	}
	mime := string(mimeParts[0])
	rest := mimeParts[1]

	delim, err := bytesio.Delim(enc)
	if err != nil {
		return GeneralObjectFrame{}, err
	}
	fnRest := bytesio.SplitAtDelim(rest, delim)
	if len(fnRest) != 2 {
		return GeneralObjectFrame{}, errors.New("id3v2: malformed GEOB filename")
	}
	filename, err := bytesio.Decode(enc, fnRest[0])
	if err != nil {
		return GeneralObjectFrame{}, err
	}
	descData := bytesio.SplitAtDelim(fnRest[1], delim)
	if len(descData) != 2 {
		return GeneralObjectFrame{}, errors.New("id3v2: malformed GEOB description")
	}
	desc, err := bytesio.Decode(enc, descData[0])
	if err != nil {
		return GeneralObjectFrame{}, err
	}
	return GeneralObjectFrame{
		Encoding:    enc,
		MIMEType:    mime,
		Filename:    filename,
		Description: desc,
		Data:        descData[1],
	}, nil
}

func (f GeneralObjectFrame) Render() ([]byte, error) {
	bd := bytesio.NewBuilder(len(f.Data) + 32)
	defer bd.Release()
	bd.U8(encByte(f.Encoding))
	bd.Raw([]byte(f.MIMEType))
	bd.U8(0)
	if err := bd.Text(f.Encoding, f.Filename, true); err != nil {
		return nil, err
	}
	if err := bd.Text(f.Encoding, f.Description, true); err != nil {
		return nil, err
	}
	bd.Raw(f.Data)
	return append([]byte(nil), bd.Bytes()...), nil
}

// SyncedLyricsEntry is one (text, timestamp) pair of a SYLT frame.
type SyncedLyricsEntry struct {
	Text      string
	Timestamp uint32 // ms or MPEG frames, per TimestampFormat
}

// SyncedLyricsFrame is SYLT: time-synchronized lyrics/text, a sequence
// of (text, timestamp) pairs.
type SyncedLyricsFrame struct {
	Encoding        bytesio.Encoding
	Language        string
	TimestampFormat byte // 1=MPEG frames, 2=milliseconds
	ContentType     byte
	Descriptor      string
	Entries         []SyncedLyricsEntry
}

func ParseSYLTFrame(b []byte) (SyncedLyricsFrame, error) {
	if len(b) < 6 {
		return SyncedLyricsFrame{}, errors.New("id3v2: truncated SYLT frame")
	}
	enc := bytesio.Encoding(b[0])
	lang := string(b[1:4])
	tsFormat := b[4]
	contentType := b[5]
	delim, err := bytesio.Delim(enc)
	if err != nil {
		return SyncedLyricsFrame{}, err
	}
	rest := bytesio.SplitAtDelim(b[6:], delim)
	if len(rest) != 2 {
		return SyncedLyricsFrame{}, errors.New("id3v2: malformed SYLT frame descriptor")
	}
	descriptor, err := bytesio.Decode(enc, rest[0])
	if err != nil {
		return SyncedLyricsFrame{}, err
	}
	f := SyncedLyricsFrame{
		Encoding: enc, Language: lang, TimestampFormat: tsFormat,
		ContentType: contentType, Descriptor: descriptor,
	}
	body := rest[1]
	v := bytesio.NewView(body)
	off := 0
	for off < len(body) {
		text, n, err := bytesio.NullTerminated(enc, body[off:])
		if err != nil {
			return SyncedLyricsFrame{}, err
		}
		off += n
		ts, err := v.ReadU32BE(off)
		if err != nil {
			break
		}
		off += 4
		f.Entries = append(f.Entries, SyncedLyricsEntry{Text: text, Timestamp: ts})
	}
	return f, nil
}

func (f SyncedLyricsFrame) Render() ([]byte, error) {
	bd := bytesio.NewBuilder(64)
	defer bd.Release()
	bd.U8(encByte(f.Encoding))
	bd.Raw([]byte(f.Language))
	bd.U8(f.TimestampFormat)
	bd.U8(f.ContentType)
	if err := bd.Text(f.Encoding, f.Descriptor, true); err != nil {
		return nil, err
	}
	for _, e := range f.Entries {
		if err := bd.Text(f.Encoding, e.Text, true); err != nil {
			return nil, err
		}
		bd.U32BE(e.Timestamp)
	}
	return append([]byte(nil), bd.Bytes()...), nil
}

// InvolvedPeopleFrame covers TIPL/TMCL (v2.4) and the legacy IPLS
// (v2.3): alternating role/name pairs.
type InvolvedPeopleFrame struct {
	Encoding bytesio.Encoding
	Pairs    [][2]string // [role, name]
}

func ParseInvolvedPeopleFrame(b []byte) (InvolvedPeopleFrame, error) {
	if len(b) == 0 {
		return InvolvedPeopleFrame{}, errors.New("id3v2: empty IPLS/TIPL/TMCL frame")
	}
	enc := bytesio.Encoding(b[0])
	s, err := bytesio.Decode(enc, b[1:])
	if err != nil {
		return InvolvedPeopleFrame{}, err
	}
	values := splitNulls(enc, s)
	f := InvolvedPeopleFrame{Encoding: enc}
	for i := 0; i+1 < len(values); i += 2 {
		f.Pairs = append(f.Pairs, [2]string{values[i], values[i+1]})
	}
	return f, nil
}

func (f InvolvedPeopleFrame) Render() ([]byte, error) {
	bd := bytesio.NewBuilder(len(f.Pairs)*16 + 1)
	defer bd.Release()
	bd.U8(encByte(f.Encoding))
	for i, p := range f.Pairs {
		if i > 0 {
			if err := writeNullSep(bd, f.Encoding); err != nil {
				return nil, err
			}
		}
		if err := bd.Text(f.Encoding, p[0], true); err != nil {
			return nil, err
		}
		if err := bd.Text(f.Encoding, p[1], false); err != nil {
			return nil, err
		}
	}
	return append([]byte(nil), bd.Bytes()...), nil
}

// ChapterFrame is CHAP: a chapter with time/byte offsets and a nested
// set of sub-frames (typically TIT2 and an APIC), per spec.md §4.3.4's
// recursion cap (8, per DESIGN.md's Open Question decision).
type ChapterFrame struct {
	ElementID  string
	StartTime  uint32
	EndTime    uint32
	StartOffset uint32 // 0xFFFFFFFF if not used
	EndOffset   uint32
	SubFrames  []RawFrame
}

// MaxNestedFrameDepth bounds CHAP/CTOC recursion, per the resolved Open
// Question in DESIGN.md.
const MaxNestedFrameDepth = 8

func ParseCHAPFrame(ver Version, b []byte, depth int) (ChapterFrame, error) {
	parts := bytesio.SplitAtDelim(b, []byte{0})
	if len(parts) != 2 || len(parts[1]) < 16 {
		return ChapterFrame{}, errors.New("id3v2: malformed CHAP frame")
	}
	v := bytesio.NewView(parts[1][:16])
	start, _ := v.ReadU32BE(0)
	end, _ := v.ReadU32BE(4)
	startOff, _ := v.ReadU32BE(8)
	endOff, _ := v.ReadU32BE(12)
	f := ChapterFrame{ElementID: string(parts[0]), StartTime: start, EndTime: end, StartOffset: startOff, EndOffset: endOff}
	if depth >= MaxNestedFrameDepth {
		return f, nil
	}
	if len(parts[1]) > 16 {
		sub, err := ParseFrames(ver, parts[1][16:], len(parts[1])-16)
		if err != nil {
			return f, err
		}
		f.SubFrames = sub
	}
	return f, nil
}

func (f ChapterFrame) Render(ver Version) ([]byte, error) {
	bd := bytesio.NewBuilder(64)
	defer bd.Release()
	bd.Raw([]byte(f.ElementID))
	bd.U8(0)
	bd.U32BE(f.StartTime)
	bd.U32BE(f.EndTime)
	bd.U32BE(f.StartOffset)
	bd.U32BE(f.EndOffset)
	for _, sf := range f.SubFrames {
		rendered, err := RenderFrame(ver, sf)
		if err != nil {
			return nil, err
		}
		bd.Raw(rendered)
	}
	return append([]byte(nil), bd.Bytes()...), nil
}

// TableOfContentsFrame is CTOC: an ordered list of child element IDs
// (chapters or nested CTOCs) plus optional sub-frames (typically TIT2).
type TableOfContentsFrame struct {
	ElementID   string
	TopLevel    bool
	Ordered     bool
	ChildIDs    []string
	SubFrames   []RawFrame
}

func ParseCTOCFrame(ver Version, b []byte, depth int) (TableOfContentsFrame, error) {
	parts := bytesio.SplitAtDelim(b, []byte{0})
	if len(parts) != 2 || len(parts[1]) < 2 {
		return TableOfContentsFrame{}, errors.New("id3v2: malformed CTOC frame")
	}
	flags := parts[1][0]
	count := int(parts[1][1])
	rest := parts[1][2:]
	f := TableOfContentsFrame{
		ElementID: string(parts[0]),
		TopLevel:  flags&0x02 != 0,
		Ordered:   flags&0x01 != 0,
	}
	for i := 0; i < count; i++ {
		idx := indexOfNull(rest)
		if idx < 0 {
			return f, errors.New("id3v2: truncated CTOC child id list")
		}
		f.ChildIDs = append(f.ChildIDs, string(rest[:idx]))
		rest = rest[idx+1:]
	}
	if depth >= MaxNestedFrameDepth {
		return f, nil
	}
	if len(rest) > 0 {
		sub, err := ParseFrames(ver, rest, len(rest))
		if err != nil {
			return f, err
		}
		f.SubFrames = sub
	}
	return f, nil
}

func indexOfNull(b []byte) int {
	for i, x := range b {
		if x == 0 {
			return i
		}
	}
	return -1
}

func (f TableOfContentsFrame) Render(ver Version) ([]byte, error) {
	bd := bytesio.NewBuilder(64)
	defer bd.Release()
	bd.Raw([]byte(f.ElementID))
	bd.U8(0)
	var flags byte
	if f.TopLevel {
		flags |= 0x02
	}
	if f.Ordered {
		flags |= 0x01
	}
	bd.U8(flags)
	bd.U8(byte(len(f.ChildIDs)))
	for _, id := range f.ChildIDs {
		bd.Raw([]byte(id))
		bd.U8(0)
	}
	for _, sf := range f.SubFrames {
		rendered, err := RenderFrame(ver, sf)
		if err != nil {
			return nil, err
		}
		bd.Raw(rendered)
	}
	return append([]byte(nil), bd.Bytes()...), nil
}
