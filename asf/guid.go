package asf

import (
	"encoding/binary"

	"github.com/google/uuid"
)

// parseGUID decodes a 16-byte ASF object GUID. ASF (and Windows GUIDs
// generally) store the first three fields little-endian and the last
// two big-endian, unlike RFC 4122's all-big-endian wire format, so the
// bytes must be reordered before handing them to uuid.UUID.
func parseGUID(b [16]byte) uuid.UUID {
	var out [16]byte
	binary.BigEndian.PutUint32(out[0:4], binary.LittleEndian.Uint32(b[0:4]))
	binary.BigEndian.PutUint16(out[4:6], binary.LittleEndian.Uint16(b[4:6]))
	binary.BigEndian.PutUint16(out[6:8], binary.LittleEndian.Uint16(b[6:8]))
	copy(out[8:16], b[8:16])
	return uuid.UUID(out)
}

// renderGUID is the inverse of parseGUID.
func renderGUID(u uuid.UUID) [16]byte {
	b := [16]byte(u)
	var out [16]byte
	binary.LittleEndian.PutUint32(out[0:4], binary.BigEndian.Uint32(b[0:4]))
	binary.LittleEndian.PutUint16(out[4:6], binary.BigEndian.Uint16(b[4:6]))
	binary.LittleEndian.PutUint16(out[6:8], binary.BigEndian.Uint16(b[6:8]))
	copy(out[8:16], b[8:16])
	return out
}

// Well-known ASF object GUIDs, per the ASF specification.
var (
	GUIDHeaderObject              = uuid.MustParse("75B22630-668E-11CF-A6D9-00AA0062CE6C")
	GUIDContentDescriptionObject  = uuid.MustParse("75B22633-668E-11CF-A6D9-00AA0062CE6C")
	GUIDExtendedContentDescription = uuid.MustParse("D2D0A440-E307-11D2-97F0-00A0C95EA850")
	GUIDFilePropertiesObject      = uuid.MustParse("8CABDCA1-A947-11CF-8EE4-00C00C205365")
	GUIDStreamPropertiesObject    = uuid.MustParse("B7DC0791-A9B7-11CF-8EE6-00C00C205365")
	GUIDHeaderExtensionObject     = uuid.MustParse("5FBF03B5-A92E-11CF-8EE3-00C00C205365")
	GUIDMetadataLibraryObject     = uuid.MustParse("44231C94-9498-49D1-A141-1D134E457054")
	GUIDPaddingObject             = uuid.MustParse("1806D474-CADF-4509-A4BA-9AABCB96AAE8")
)
