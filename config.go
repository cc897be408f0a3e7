package tagkit

import "github.com/go-tagkit/tagkit/id3v2"

// Config holds the recognized options from spec.md §6, all defaulted.
// A zero Config is not valid; use DefaultConfig.
type Config struct {
	// ID3v2WriteVersion selects the ID3v2 version Render targets for
	// MP3 tags. Must be id3v2.Version2_3 or id3v2.Version2_4. The MP3
	// render path is the only one that reads it; DSF, for one, always
	// renders ID3v2.4.
	ID3v2WriteVersion id3v2.Version

	// ID3v2PreservePaddingBytes is the padding length Render appends
	// after the last frame of an MP3's ID3v2 tag. The original tag's
	// padding and size are not considered.
	ID3v2PreservePaddingBytes int

	// ID3v2PreferUTF8 is not read by any render path: id3v2.Apply picks
	// UTF-16 with a BOM for v2.3 text frames and UTF-8 for every other
	// version, whatever its value.
	ID3v2PreferUTF8 bool

	// APICDetectMIMEFromBytes is not read by any render path: APIC/PIC
	// frames and ilst "covr" atoms are encoded with the picture's
	// MIMEType field as given, without sniffing its bytes.
	APICDetectMIMEFromBytes bool

	// MP4RebuildMoov is spec.md §6's only supported mode: Render always
	// rebuilds moov's metadata and keeps moov's position relative to
	// mdat. Nothing reads the field; it exists so Config's shape
	// mirrors spec.md's option table; there is no other value to set it
	// to.
	MP4RebuildMoov bool
}

// DefaultConfig returns spec.md §6's documented defaults.
func DefaultConfig() Config {
	return Config{
		ID3v2WriteVersion:         id3v2.Version2_4,
		ID3v2PreservePaddingBytes: 1024,
		ID3v2PreferUTF8:           true,
		APICDetectMIMEFromBytes:   true,
		MP4RebuildMoov:            true,
	}
}
