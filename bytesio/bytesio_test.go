package bytesio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyncSafeRoundTrip(t *testing.T) {
	for _, n := range []uint32{0, 1, 127, 128, 16384, MaxSyncSafe} {
		enc, err := EncodeSyncSafe(n)
		require.NoError(t, err)
		got, err := DecodeSyncSafe(enc[:])
		require.NoError(t, err)
		assert.Equal(t, n, got)
	}
}

func TestSyncSafeOverflow(t *testing.T) {
	_, err := EncodeSyncSafe(MaxSyncSafe + 1)
	assert.ErrorIs(t, err, ErrSyncSafeOverflow)
}

func TestSyncSafeDecodeNeverExceedsMax(t *testing.T) {
	got, err := DecodeSyncSafe([]byte{0xFF, 0xFF, 0xFF, 0xFF})
	require.NoError(t, err)
	assert.LessOrEqual(t, got, uint32(MaxSyncSafe))
}

func TestViewReads(t *testing.T) {
	v := NewView([]byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08})
	u16, err := v.ReadU16BE(0)
	require.NoError(t, err)
	assert.Equal(t, uint16(0x0102), u16)

	u32, err := v.ReadU32LE(0)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x04030201), u32)

	_, err = v.ReadU64BE(4)
	require.NoError(t, err)

	_, err = v.ReadU8(8)
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestLatin1RoundTrip(t *testing.T) {
	for cp := 0; cp < 256; cp++ {
		s := string([]rune{rune(cp)})
		enc, err := Encode(Latin1, s)
		require.NoError(t, err)
		dec, err := Decode(Latin1, enc)
		require.NoError(t, err)
		assert.Equal(t, s, dec)
	}
}

func TestUTF8RoundTrip(t *testing.T) {
	for _, s := range []string{"", "hello", "日本語", "Ω≈ç√∫"} {
		enc, err := Encode(UTF8, s)
		require.NoError(t, err)
		dec, err := Decode(UTF8, enc)
		require.NoError(t, err)
		assert.Equal(t, s, dec)
	}
}

func TestUTF16BOMRoundTrip(t *testing.T) {
	for _, s := range []string{"hello", "日本語"} {
		enc, err := Encode(UTF16BOM, s)
		require.NoError(t, err)
		assert.Equal(t, byte(0xFF), enc[0])
		assert.Equal(t, byte(0xFE), enc[1])
		dec, err := Decode(UTF16BOM, enc)
		require.NoError(t, err)
		assert.Equal(t, s, dec)
	}
}

func TestUTF16BERoundTrip(t *testing.T) {
	for _, s := range []string{"hello", "日本語"} {
		enc, err := Encode(UTF16BE, s)
		require.NoError(t, err)
		dec, err := Decode(UTF16BE, enc)
		require.NoError(t, err)
		assert.Equal(t, s, dec)
	}
}

func TestExtendedFloat80RoundTrip(t *testing.T) {
	for _, f := range []float64{44100, 48000, 22050, 8000, 96000} {
		b := Float64ToExtendedFloat80(f)
		got := ExtendedFloat80ToFloat64(b)
		assert.InDelta(t, f, got, 0.01)
	}
}

func TestExtendedFloat80Zero(t *testing.T) {
	var zero [10]byte
	assert.Equal(t, float64(0), ExtendedFloat80ToFloat64(zero))
}

func TestCRC32KnownVector(t *testing.T) {
	// "123456789" -> 0xCBF43926 is the standard CRC-32/ISO-HDLC check value.
	assert.Equal(t, uint32(0xCBF43926), CRC32([]byte("123456789")))
}

func TestBuilderGrowthAndRelease(t *testing.T) {
	bd := NewBuilder(4)
	bd.U32BE(0xDEADBEEF).U16LE(0x1234).U8(0xFF)
	got := bd.Bytes()
	want := []byte{0xDE, 0xAD, 0xBE, 0xEF, 0x34, 0x12, 0xFF}
	assert.Equal(t, want, got)
	bd.Release()
}

func TestBuilderPooledAboveThreshold(t *testing.T) {
	bd := NewBuilder(2000)
	bd.ZeroFill(1500)
	assert.Equal(t, 1500, bd.Len())
	bd.Release()
}

func TestBuilderInsertRemoveRange(t *testing.T) {
	bd := NewBuilder(16)
	bd.Raw([]byte("helloworld"))
	require.NoError(t, bd.Insert(5, []byte(" ")))
	assert.Equal(t, "hello world", string(bd.Bytes()))
	require.NoError(t, bd.RemoveRange(5, 1))
	assert.Equal(t, "helloworld", string(bd.Bytes()))

	err := bd.RemoveRange(100, 1)
	assert.Error(t, err)
}

func TestSyncSafeU32BuilderRejectsOverflow(t *testing.T) {
	bd := NewBuilder(4)
	err := bd.SyncSafeU32(MaxSyncSafe + 1)
	assert.Error(t, err)
}
