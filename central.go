package zipcore

import (
	"os"
	"time"
)

// CentralDirEntry is a zero-copy view over one central-directory record
// (component B, spec.md §3 "Central-directory entry"). NameBytes,
// ExtraBytes and CommentBytes are borrowed: for a SliceArchive they point
// into the archive's source slice; for a ReaderArchive they point into
// the caller-supplied scratch buffer and are only valid until the next
// call to the iterator that produced them.
type CentralDirEntry struct {
	CreatorVersion uint16
	ReaderVersion  uint16
	Flags          uint16
	Method         uint16
	ModTime        uint16
	ModDate        uint16
	CRC32          uint32

	// CompressedSize, UncompressedSize, DiskStart and LocalHeaderOffset
	// are already ZIP64-promoted: any 0xFFFFFFFF/0xFFFF sentinel has been
	// replaced by the corresponding value from the ZIP64 extra field.
	CompressedSize    uint64
	UncompressedSize  uint64
	DiskStart         uint32
	InternalAttrs     uint16
	ExternalAttrs     uint32
	LocalHeaderOffset uint64

	NameBytes    []byte
	ExtraBytes   []byte
	CommentBytes []byte
}

// IsUTF8 reports whether the general-purpose flag's language-encoding bit
// (bit 11) is set.
func (e *CentralDirEntry) IsUTF8() bool { return e.Flags&0x800 != 0 }

// IsDir reports whether the entry's raw name denotes a directory.
func (e *CentralDirEntry) IsDir() bool { return IsDirName(string(e.NameBytes)) }

// Name decodes the entry name as UTF-8.
func (e *CentralDirEntry) Name() (string, error) { return UTF8Path(e.NameBytes) }

// Comment decodes the entry comment as UTF-8.
func (e *CentralDirEntry) Comment() (string, error) { return UTF8Path(e.CommentBytes) }

// Modified reconstructs the entry's modification time, preferring the
// timezone-agnostic Info-ZIP extended-timestamp extra field over the
// legacy 2-second-resolution MS-DOS date/time fields.
func (e *CentralDirEntry) Modified() time.Time {
	if t, ok := ExtendedTimestamp(e.ExtraBytes); ok {
		return t
	}
	return msDosTimeToTime(e.ModDate, e.ModTime)
}

// Mode derives an os.FileMode from CreatorVersion/ExternalAttrs/name,
// reusing struct.go's Unix/MS-DOS attribute decoding.
func (e *CentralDirEntry) Mode() os.FileMode {
	return modeFromAttrs(e.CreatorVersion, e.ExternalAttrs, e.NameBytes)
}

// directoryHeaderFixedLen is directoryHeaderLen minus the 4-byte
// signature already consumed by the caller before decoding the rest.
const directoryHeaderFixedLen = directoryHeaderLen - 4

// parseCentralDirEntry decodes the fixed-width central-directory fields
// from raw (which starts immediately after the 4-byte signature), plus
// the name/extra/comment tail, performing ZIP64 promotion. It returns the
// entry and the number of bytes of raw consumed.
func parseCentralDirEntry(raw []byte) (*CentralDirEntry, int, error) {
	if len(raw) < directoryHeaderFixedLen {
		return nil, 0, errTruncated()
	}
	r := newFieldReader(raw)
	e := &CentralDirEntry{}
	e.CreatorVersion = r.uint16()
	e.ReaderVersion = r.uint16()
	e.Flags = r.uint16()
	e.Method = r.uint16()
	e.ModTime = r.uint16()
	e.ModDate = r.uint16()
	e.CRC32 = r.uint32()
	compSize32 := r.uint32()
	uncompSize32 := r.uint32()
	nameLen := int(r.uint16())
	extraLen := int(r.uint16())
	commentLen := int(r.uint16())
	diskStart16 := r.uint16()
	e.InternalAttrs = r.uint16()
	e.ExternalAttrs = r.uint32()
	offset32 := r.uint32()
	if err := r.Err(); err != nil {
		return nil, 0, err
	}

	tail := nameLen + extraLen + commentLen
	if len(raw) < directoryHeaderFixedLen+tail {
		return nil, 0, errTruncated()
	}
	pos := directoryHeaderFixedLen
	e.NameBytes = raw[pos : pos+nameLen]
	pos += nameLen
	e.ExtraBytes = raw[pos : pos+extraLen]
	pos += extraLen
	e.CommentBytes = raw[pos : pos+commentLen]

	e.CompressedSize = uint64(compSize32)
	e.UncompressedSize = uint64(uncompSize32)
	e.DiskStart = uint32(diskStart16)
	e.LocalHeaderOffset = uint64(offset32)

	need := Zip64Sentinels{
		Uncompressed: uncompSize32 == uint32max,
		Compressed:   compSize32 == uint32max,
		Offset:       offset32 == uint32max,
		Disk:         diskStart16 == uint16max,
	}
	if need.Uncompressed || need.Compressed || need.Offset || need.Disk {
		payload, ok, err := FindZip64Extra(e.ExtraBytes)
		if err != nil {
			return nil, 0, err
		}
		if !ok {
			return nil, 0, errInvalidZip64Extra("sentinel field present but no zip64 extra record")
		}
		promoted, err := DecodeZip64Extra(payload, need)
		if err != nil {
			return nil, 0, err
		}
		if need.Uncompressed {
			e.UncompressedSize = promoted.UncompressedSize
		}
		if need.Compressed {
			e.CompressedSize = promoted.CompressedSize
		}
		if need.Offset {
			e.LocalHeaderOffset = promoted.LocalHeaderOffset
		}
		if need.Disk {
			e.DiskStart = promoted.DiskStart
		}
	}

	return e, directoryHeaderFixedLen + tail, nil
}
