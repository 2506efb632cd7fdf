package zipcore

import (
	"hash/crc32"
	"io"
)

// CRC32Hasher is the pluggable checksum used by VerifyingReader. It is
// satisfied directly by the value returned from hash/crc32.NewIEEE, so
// callers needing the stdlib's table-based implementation need not wrap
// anything.
type CRC32Hasher interface {
	io.Writer
	Sum32() uint32
	Reset()
}

// NewIEEECRC32 returns the default CRC-32 (IEEE 802.3) hasher, the
// polynomial ZIP uses.
func NewIEEECRC32() CRC32Hasher { return crc32.NewIEEE() }

// VerifyingReader wraps an arbitrary decompression io.Reader (component
// H, spec.md §4.H "Verifying reader"), folding a CRC-32 and a byte count
// over every byte it yields. On reaching io.EOF from the underlying
// reader, it compares the accumulated CRC-32 and byte count against
// WantCRC32/WantSize and returns a CRCMismatch or SizeMismatch *Error
// instead of io.EOF if either disagrees. It does not itself decompress;
// it is meant to sit directly downstream of a pluggable decompressor
// (spec.md §4.H step 1: "codec-agnostic — wraps whatever io.Reader the
// caller's decompressor produces").
type VerifyingReader struct {
	r         io.Reader
	hasher    CRC32Hasher
	n         uint64
	WantCRC32 uint32
	WantSize  uint64

	done bool
	err  error
}

// NewVerifyingReader wraps r, verifying its output against wantCRC32 and
// wantSize once r reaches EOF. A nil hasher defaults to NewIEEECRC32.
func NewVerifyingReader(r io.Reader, wantCRC32 uint32, wantSize uint64, hasher CRC32Hasher) *VerifyingReader {
	if hasher == nil {
		hasher = NewIEEECRC32()
	}
	return &VerifyingReader{r: r, hasher: hasher, WantCRC32: wantCRC32, WantSize: wantSize}
}

// Read implements io.Reader. Once the wrapped reader reports io.EOF,
// subsequent calls keep returning the same terminal error (io.EOF on
// success, or the mismatch *Error) without reading from r again.
func (v *VerifyingReader) Read(p []byte) (int, error) {
	if v.done {
		return 0, v.err
	}

	n, err := v.r.Read(p)
	if n > 0 {
		v.hasher.Write(p[:n])
		v.n += uint64(n)
	}
	if err == nil {
		return n, nil
	}
	if err != io.EOF {
		v.done, v.err = true, err
		return n, err
	}

	v.done = true
	if v.n != v.WantSize {
		v.err = errSizeMismatch(v.WantSize, v.n)
		return n, v.err
	}
	if got := v.hasher.Sum32(); got != v.WantCRC32 {
		v.err = errCRCMismatch(v.WantCRC32, got)
		return n, v.err
	}
	v.err = io.EOF
	return n, io.EOF
}
