package zipcore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtraFieldWalker(t *testing.T) {
	var buf writeBuf
	raw := make([]byte, 4+4+4+2)
	buf = raw
	buf.uint16(0x0001)
	buf.uint16(4)
	buf.uint32(0xdeadbeef)
	buf.uint16(0x5455)
	buf.uint16(2)
	buf.uint8(1)
	buf.uint8(2)

	w := NewExtraFieldWalker(raw)
	f1, ok, err := w.Next()
	require.NoError(t, err)
	require.True(t, ok)
	assert.EqualValues(t, 0x0001, f1.ID)
	assert.Equal(t, []byte{0xef, 0xbe, 0xad, 0xde}, f1.Data)

	f2, ok, err := w.Next()
	require.NoError(t, err)
	require.True(t, ok)
	assert.EqualValues(t, 0x5455, f2.ID)
	assert.Equal(t, []byte{1, 2}, f2.Data)

	_, ok, err = w.Next()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestExtraFieldWalker_truncated(t *testing.T) {
	raw := []byte{0x01, 0x00, 0xff, 0xff, 0x00} // claims 0xffff bytes, has 1
	w := NewExtraFieldWalker(raw)
	_, _, err := w.Next()
	require.Error(t, err)
	var zerr *Error
	require.ErrorAs(t, err, &zerr)
	assert.Equal(t, TruncatedSource, zerr.Kind)
}

func TestDecodeZip64Extra_order(t *testing.T) {
	payload := make([]byte, 8+8+8+4)
	b := writeBuf(payload)
	b.uint64(111)
	b.uint64(222)
	b.uint64(333)
	b.uint32(4)

	got, err := DecodeZip64Extra(payload, Zip64Sentinels{
		Uncompressed: true, Compressed: true, Offset: true, Disk: true,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 111, got.UncompressedSize)
	assert.EqualValues(t, 222, got.CompressedSize)
	assert.EqualValues(t, 333, got.LocalHeaderOffset)
	assert.EqualValues(t, 4, got.DiskStart)
}

func TestDecodeZip64Extra_onlySomeFieldsPresent(t *testing.T) {
	// Only compressed size is flagged; the payload need not carry the
	// other three at all, and padding after it must not be misread.
	payload := make([]byte, 8+16) // declared field plus unrelated padding
	b := writeBuf(payload)
	b.uint64(555)

	got, err := DecodeZip64Extra(payload, Zip64Sentinels{Compressed: true})
	require.NoError(t, err)
	assert.EqualValues(t, 555, got.CompressedSize)
	assert.Zero(t, got.UncompressedSize)
}

func TestDecodeZip64Extra_tooShort(t *testing.T) {
	_, err := DecodeZip64Extra([]byte{1, 2, 3}, Zip64Sentinels{Uncompressed: true})
	require.Error(t, err)
	var zerr *Error
	require.ErrorAs(t, err, &zerr)
	assert.Equal(t, InvalidZip64Extra, zerr.Kind)
}

func TestExtendedTimestamp(t *testing.T) {
	want := time.Unix(1_700_000_000, 0).UTC()
	extra := make([]byte, extTimeExtraLen)
	b := writeBuf(extra)
	b.uint16(extTimeExtraID)
	b.uint16(5)
	b.uint8(1)
	b.uint32(uint32(want.Unix()))

	got, ok := ExtendedTimestamp(extra)
	require.True(t, ok)
	assert.Equal(t, want, got)
}

func TestExtendedTimestamp_modTimeFlagNotSet(t *testing.T) {
	extra := make([]byte, extTimeExtraLen)
	b := writeBuf(extra)
	b.uint16(extTimeExtraID)
	b.uint16(5)
	b.uint8(0) // no ModTime bit
	b.uint32(0)

	_, ok := ExtendedTimestamp(extra)
	assert.False(t, ok)
}
