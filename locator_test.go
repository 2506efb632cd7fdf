package zipcore

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocateEOCD_simple(t *testing.T) {
	data := buildZip(map[string]string{"a.txt": "hello"})
	off, err := LocateEOCD(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	assert.Equal(t, uint32(directoryEndSignature), endianUint32(data[off:off+4]))
}

func TestLocateEOCD_withArchiveComment(t *testing.T) {
	data := buildZip(map[string]string{"a.txt": "hello"})
	// archive/zip does not expose a comment setter on Writer in all
	// versions used here, so append one by hand: rewrite the EOCD's
	// comment length and append bytes.
	off, err := LocateEOCD(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	comment := []byte("a trailing note")
	withComment := append([]byte{}, data[:off]...)
	eocd := append([]byte{}, data[off:]...)
	putUint16(eocd[20:22], uint16(len(comment)))
	withComment = append(withComment, eocd...)
	withComment = append(withComment, comment...)

	off2, err := LocateEOCD(bytes.NewReader(withComment), int64(len(withComment)))
	require.NoError(t, err)
	assert.Equal(t, off, off2)
}

func TestLocateEOCD_missing(t *testing.T) {
	_, err := LocateEOCD(bytes.NewReader([]byte("not a zip file")), 14)
	require.Error(t, err)
	var zerr *Error
	require.ErrorAs(t, err, &zerr)
	assert.Equal(t, MissingEOCD, zerr.Kind)
}

func TestLocateEOCD_falsePositiveInComment(t *testing.T) {
	data := buildZip(map[string]string{"a.txt": "hello"})
	off, err := LocateEOCD(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	// Plant a fake EOCD signature inside a comment whose declared length
	// doesn't line up with the real end of the tail window, forcing the
	// scanner to reject it as a false positive and keep looking.
	fakeSig := []byte{0x50, 0x4b, 0x05, 0x06}
	comment := append(append([]byte{}, fakeSig...), make([]byte, 40)...)

	eocd := append([]byte{}, data[off:]...)
	putUint16(eocd[20:22], uint16(len(comment)))

	crafted := append([]byte{}, data[:off]...)
	crafted = append(crafted, eocd...)
	crafted = append(crafted, comment...)

	gotOff, err := LocateEOCD(bytes.NewReader(crafted), int64(len(crafted)))
	require.NoError(t, err)
	assert.Equal(t, off, gotOff)
}

func TestLocateEOCD_onlyFalsePositive(t *testing.T) {
	// A signature with no valid geometry anywhere in the window reports
	// FalseEOCD with the candidate's offset.
	buf := make([]byte, eocdMinLen+10)
	putUint32(buf[5:9], directoryEndSignature)
	_, err := LocateEOCD(bytes.NewReader(buf), int64(len(buf)))
	require.Error(t, err)
	var zerr *Error
	require.ErrorAs(t, err, &zerr)
	assert.Equal(t, FalseEOCD, zerr.Kind)
	assert.EqualValues(t, 5, zerr.Offset)
}

func endianUint32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

func putUint16(b []byte, v uint16) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
}

func putUint32(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}
