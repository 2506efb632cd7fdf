// Package xzcodec demonstrates that zipcore's reader/writer are
// codec-agnostic by wiring up a compression method (LZMA/XZ via a
// vendor-registered method ID, see APPNOTE 4.4.5's extensible method
// list) that the format itself never standardized, using
// github.com/ulikunitz/xz.
package xzcodec

import (
	"io"

	"github.com/ulikunitz/xz"
)

// Method is a vendor-assigned compression method identifier for XZ
// entries, outside the range APPNOTE reserves for standard methods.
const Method = 95

// NewWriter wraps w with an XZ compressor using default settings.
func NewWriter(w io.Writer) (*xz.Writer, error) {
	return xz.NewWriter(w)
}

// NewReader wraps r (an entry's raw compressed bytes) with an XZ
// decompressor suitable for feeding into a VerifyingReader.
func NewReader(r io.Reader) (*xz.Reader, error) {
	return xz.NewReader(r)
}
