package tagmodel

import "bytes"

// PictureType enumerates the ID3v2 APIC/PIC picture-type byte, reused
// verbatim by every other format's cover-art field since it is the de
// facto cross-format vocabulary (spec.md §4.3.4), grounded on teacher's
// id3v2frames.go readPICFrame/readAPICFrame picture-type handling.
type PictureType byte

const (
	PictureOther             PictureType = 0x00
	PictureFileIcon          PictureType = 0x01
	PictureOtherFileIcon     PictureType = 0x02
	PictureFrontCover        PictureType = 0x03
	PictureBackCover         PictureType = 0x04
	PictureLeafletPage       PictureType = 0x05
	PictureMedia             PictureType = 0x06
	PictureLeadArtist        PictureType = 0x07
	PictureArtist            PictureType = 0x08
	PictureConductor         PictureType = 0x09
	PictureBand              PictureType = 0x0A
	PictureComposer          PictureType = 0x0B
	PictureLyricist          PictureType = 0x0C
	PictureRecordingLocation PictureType = 0x0D
	PictureDuringRecording   PictureType = 0x0E
	PictureDuringPerformance PictureType = 0x0F
	PictureScreenCapture     PictureType = 0x10
	PictureBrightFish        PictureType = 0x11
	PictureIllustration      PictureType = 0x12
	PictureArtistLogo        PictureType = 0x13
	PictureStudioLogo        PictureType = 0x14
)

// Picture is a single embedded image plus its metadata, as carried by
// ID3v2 APIC/PIC, FLAC PICTURE blocks, Vorbis METADATA_BLOCK_PICTURE,
// MP4 covr atoms, and APEv2 Cover Art items.
type Picture struct {
	Type        PictureType
	MIMEType    string
	Description string
	Data        []byte
}

// mimeSniffTable maps magic byte prefixes to MIME types, grounded on
// teacher's mp4.go imageCodecFromBytes/mime-guess behavior for covr
// atoms (which carry no explicit MIME field and must be sniffed).
var mimeSniffTable = []struct {
	magic []byte
	mime  string
}{
	{[]byte{0xFF, 0xD8, 0xFF}, "image/jpeg"},
	{[]byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}, "image/png"},
	{[]byte{'G', 'I', 'F', '8', '7', 'a'}, "image/gif"},
	{[]byte{'G', 'I', 'F', '8', '9', 'a'}, "image/gif"},
	{[]byte{'B', 'M'}, "image/bmp"},
	{[]byte{'R', 'I', 'F', 'F'}, "image/webp"}, // caller must also check "WEBP" at offset 8
}

// SniffMIME guesses the MIME type of an image payload from its magic
// bytes, for containers (MP4 covr, some APE Cover Art items) whose
// picture atoms carry no explicit content-type field.
func SniffMIME(data []byte) string {
	for _, e := range mimeSniffTable {
		if bytes.HasPrefix(data, e.magic) {
			if e.mime == "image/webp" {
				if len(data) < 12 || string(data[8:12]) != "WEBP" {
					continue
				}
			}
			return e.mime
		}
	}
	return "image/jpeg"
}

// ExtForMIME returns the conventional file extension for a picture MIME
// type. Nothing in this module calls it.
func ExtForMIME(mime string) string {
	switch mime {
	case "image/png":
		return "png"
	case "image/gif":
		return "gif"
	case "image/bmp":
		return "bmp"
	case "image/webp":
		return "webp"
	default:
		return "jpg"
	}
}
