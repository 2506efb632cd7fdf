package zipcore

import (
	"encoding/binary"
	"time"
)

// ExtraField is one TLV record from an extra-field block (component C,
// spec.md §4.C).
type ExtraField struct {
	ID   uint16
	Data []byte // borrowed from the block passed to NewExtraFieldWalker
}

// ExtraFieldWalker iterates the TLV extra fields of a CD or local-header
// record without allocation.
type ExtraFieldWalker struct {
	b []byte
}

// NewExtraFieldWalker returns a walker over b, which is not copied.
func NewExtraFieldWalker(b []byte) ExtraFieldWalker {
	return ExtraFieldWalker{b: b}
}

// Next returns the next field, ok=false once the block is exhausted, or
// an error if a field's length header claims more bytes than remain.
func (w *ExtraFieldWalker) Next() (ExtraField, bool, error) {
	if len(w.b) == 0 {
		return ExtraField{}, false, nil
	}
	if len(w.b) < 4 {
		return ExtraField{}, false, errTruncated()
	}
	id := binary.LittleEndian.Uint16(w.b[0:2])
	size := int(binary.LittleEndian.Uint16(w.b[2:4]))
	if len(w.b) < 4+size {
		return ExtraField{}, false, errTruncated()
	}
	data := w.b[4 : 4+size]
	w.b = w.b[4+size:]
	return ExtraField{ID: id, Data: data}, true, nil
}

// FindZip64Extra scans an extra-field block for the ZIP64 extension
// record (id 0x0001) and returns its raw payload.
func FindZip64Extra(extra []byte) (payload []byte, ok bool, err error) {
	w := NewExtraFieldWalker(extra)
	for {
		f, more, werr := w.Next()
		if werr != nil {
			return nil, false, werr
		}
		if !more {
			return nil, false, nil
		}
		if f.ID == zip64ExtraID {
			return f.Data, true, nil
		}
	}
}

// Zip64Sentinels records which fields of the parent record were
// sentinel-valued (0xFFFFFFFF or 0xFFFF), and therefore must be recovered
// from the ZIP64 extra field. The walker must use this, rather than the
// payload length alone, because real-world archives pad the payload
// (spec.md §4.C).
type Zip64Sentinels struct {
	Uncompressed bool
	Compressed   bool
	Offset       bool
	Disk         bool
}

// Zip64Promoted holds the 64-bit values recovered from a ZIP64 extra
// field payload.
type Zip64Promoted struct {
	UncompressedSize  uint64
	CompressedSize    uint64
	LocalHeaderOffset uint64
	DiskStart         uint32
}

// DecodeZip64Extra decodes payload, consuming only the fields flagged in
// need, in the fixed documented order: uncompressed size, compressed
// size, local-header offset, disk start (spec.md §4.C). Fields not
// flagged in need are not present in payload and are not consumed.
func DecodeZip64Extra(payload []byte, need Zip64Sentinels) (Zip64Promoted, error) {
	var out Zip64Promoted
	r := newFieldReader(payload)

	if need.Uncompressed {
		if len(r.remaining()) < 8 {
			return out, errInvalidZip64Extra("payload too short for uncompressed size")
		}
		out.UncompressedSize = r.uint64()
	}
	if need.Compressed {
		if len(r.remaining()) < 8 {
			return out, errInvalidZip64Extra("payload too short for compressed size")
		}
		out.CompressedSize = r.uint64()
	}
	if need.Offset {
		if len(r.remaining()) < 8 {
			return out, errInvalidZip64Extra("payload too short for local header offset")
		}
		out.LocalHeaderOffset = r.uint64()
	}
	if need.Disk {
		if len(r.remaining()) < 4 {
			return out, errInvalidZip64Extra("payload too short for disk start")
		}
		out.DiskStart = r.uint32()
	}
	return out, nil
}

// ExtendedTimestamp decodes the Info-ZIP extended-timestamp extra field
// (id 0x5455), returning the modification time it carries, if any.
// This is the read-side counterpart of writer.go:prepareEntry's emission.
func ExtendedTimestamp(extra []byte) (modTime time.Time, ok bool) {
	w := NewExtraFieldWalker(extra)
	for {
		f, more, err := w.Next()
		if err != nil || !more {
			return time.Time{}, false
		}
		if f.ID != extTimeExtraID {
			continue
		}
		if len(f.Data) < 5 {
			return time.Time{}, false
		}
		flags := f.Data[0]
		if flags&0x1 == 0 {
			return time.Time{}, false
		}
		sec := int64(binary.LittleEndian.Uint32(f.Data[1:5]))
		return time.Unix(sec, 0).UTC(), true
	}
}
