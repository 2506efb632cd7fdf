// Package flatecodec wires the Deflate compression method to zipcore's
// codec-agnostic reader/writer via klauspost/compress/flate, which keeps
// internal buffers off the heap far more aggressively than the standard
// library's compress/flate.
package flatecodec

import (
	"io"

	"github.com/klauspost/compress/flate"
)

// Method is the ZIP compression method identifier this package handles.
const Method = 8 // zipcore.Deflate

// NewWriter wraps w with a Deflate compressor at the given level (see
// flate.DefaultCompression and friends). The returned WriteCloser must be
// Closed before the caller reads the resulting compressed size back off
// an UncompressedCounter/EntrySink pairing.
func NewWriter(w io.Writer, level int) (*flate.Writer, error) {
	return flate.NewWriter(w, level)
}

// NewReader wraps r (an entry's raw compressed bytes, as obtained from
// SliceArchive.Data or ReaderArchive.DataReader) with a Deflate
// decompressor suitable for feeding directly into a VerifyingReader.
func NewReader(r io.Reader) io.ReadCloser {
	return flate.NewReader(r)
}
