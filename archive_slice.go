package zipcore

import (
	"bytes"
	"encoding/binary"
)

// SliceArchive is a zero-copy read view over a ZIP archive already held
// in memory as a single []byte (component F, spec.md §4.F "Slice
// archive"). Every []byte returned from it (names, extras, comments,
// entry data) aliases the backing slice directly; none of them is a
// copy. Only the EOCD search copies bytes, reading the tail window into
// a buffer of its own.
type SliceArchive struct {
	data []byte

	cdOffset int64
	cdSize   int64
	entries  int64
	comment  []byte
}

// OpenSlice parses the end-of-central-directory record (and, if present,
// the ZIP64 end-of-central-directory record) of data and returns a
// SliceArchive ready for iteration.
func OpenSlice(data []byte) (*SliceArchive, error) {
	eocdOffset, err := LocateEOCD(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}

	a := &SliceArchive{data: data}
	if err := a.parseEOCD(eocdOffset); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *SliceArchive) parseEOCD(eocdOffset int64) error {
	raw := a.data[eocdOffset:]
	if len(raw) < directoryEndLen {
		return errTruncated()
	}
	sig := binary.LittleEndian.Uint32(raw[0:4])
	if sig != directoryEndSignature {
		return errInvalidSignature(directoryEndSignature, sig)
	}

	r := newFieldReader(raw[4:20])
	_ = r.uint16() // number of this disk
	_ = r.uint16() // disk with the start of the CD
	_ = r.uint16() // entries on this disk
	entries16 := r.uint16()
	cdSize32 := r.uint32()
	cdOffset32 := r.uint32()
	if err := r.Err(); err != nil {
		return err
	}
	commentLen := int(binary.LittleEndian.Uint16(raw[20:22]))
	if len(raw) < directoryEndLen+commentLen {
		return errTruncated()
	}
	a.comment = raw[directoryEndLen : directoryEndLen+commentLen]

	entries := int64(entries16)
	cdSize := int64(cdSize32)
	cdOffset := int64(cdOffset32)

	src := bytes.NewReader(a.data)
	if entries16 == uint16max || cdSize32 == uint32max || cdOffset32 == uint32max {
		loc64, err := locateEOCD64(src, eocdOffset)
		if err != nil {
			return err
		}
		e64, size64, off64, err := parseEOCD64(src, loc64)
		if err != nil {
			return err
		}
		entries, cdSize, cdOffset = e64, size64, off64
	}

	if cdOffset < 0 || cdSize < 0 || cdOffset+cdSize > int64(len(a.data)) {
		return errInvalidField("central directory extends beyond source")
	}

	a.entries = entries
	a.cdSize = cdSize
	a.cdOffset = cdOffset
	return nil
}

// Comment returns the archive-level comment, aliasing the backing slice.
func (a *SliceArchive) Comment() []byte { return a.comment }

// EntryCount returns the number of entries declared by the central
// directory.
func (a *SliceArchive) EntryCount() int64 { return a.entries }

// Entries returns an iterator over the central directory, starting at
// the first entry.
func (a *SliceArchive) Entries() *SliceEntryIterator {
	return &SliceEntryIterator{
		data: a.data[a.cdOffset : a.cdOffset+a.cdSize],
		base: a.cdOffset,
	}
}

// SliceEntryIterator walks a SliceArchive's central directory record by
// record. It terminates when the declared record bytes are exhausted or
// an end-of-central-directory signature is reached in place of the next
// record, not by a trusted entry count (spec.md §4.F: "CD iteration stops at the
// end of the CD region, not at the declared entry count, since the
// latter can be spoofed or merely wrong").
type SliceEntryIterator struct {
	data []byte
	base int64
	off  int
}

// Next decodes the next central-directory entry, or returns ok=false
// once the CD region is exhausted.
func (it *SliceEntryIterator) Next() (entry *CentralDirEntry, ok bool, err error) {
	if it.off >= len(it.data) {
		return nil, false, nil
	}
	raw := it.data[it.off:]
	if len(raw) < 4 {
		return nil, false, errTruncated()
	}
	sig := binary.LittleEndian.Uint32(raw[0:4])
	if sig == directoryEndSignature {
		it.off = len(it.data)
		return nil, false, nil
	}
	if sig != directoryHeaderSignature {
		return nil, false, errInvalidSignature(directoryHeaderSignature, sig)
	}
	e, n, err := parseCentralDirEntry(raw[4:])
	if err != nil {
		return nil, false, err
	}
	it.off += 4 + n
	return e, true, nil
}

// LocalHeader parses the local file header referenced by e, returning
// the header view and the absolute offset at which the entry's
// (possibly compressed) data begins.
func (a *SliceArchive) LocalHeader(e *CentralDirEntry) (*LocalHeader, int64, error) {
	off := int64(e.LocalHeaderOffset)
	if off < 0 || off+fileHeaderLen > int64(len(a.data)) {
		return nil, 0, errInvalidField("local header offset out of range")
	}
	raw := a.data[off:]
	sig := binary.LittleEndian.Uint32(raw[0:4])
	if sig != fileHeaderSignature {
		return nil, 0, errInvalidSignature(fileHeaderSignature, sig)
	}
	h, n, err := parseLocalHeader(raw[4:])
	if err != nil {
		return nil, 0, err
	}
	dataOffset := off + 4 + int64(n)
	return h, dataOffset, nil
}

// Data returns the raw (possibly compressed) entry bytes for e, aliasing
// the backing slice directly.
func (a *SliceArchive) Data(e *CentralDirEntry) ([]byte, error) {
	_, dataOffset, err := a.LocalHeader(e)
	if err != nil {
		return nil, err
	}
	end := dataOffset + int64(e.CompressedSize)
	if dataOffset < 0 || end > int64(len(a.data)) {
		return nil, errInvalidField("entry data extends beyond source")
	}
	return a.data[dataOffset:end], nil
}
