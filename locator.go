package zipcore

import "encoding/binary"

const (
	eocdMinLen        = directoryEndLen // 22
	eocdMaxCommentLen = 1<<16 - 1       // 65,535
	eocdMaxWindow      = eocdMinLen + eocdMaxCommentLen
	eocd64ScanWindow  = 4096
)

// LocateEOCD finds the End-Of-Central-Directory record within src[0:end)
// (component E, spec.md §4.E). end is typically the source's total
// length; callers may pass a smaller value to restrict the search to a
// prefix, which is how a FalseEOCD error is recovered from, and how a
// nested archive embedded in a larger file is located.
//
// The tail window (min(end, 65,557) bytes: 22-byte EOCD plus up to a
// 65,535-byte comment) is scanned backwards for the signature. A
// candidate is accepted only if its declared comment length exactly
// accounts for the remainder of the window; the first (rightmost)
// candidate satisfying that wins. A signature match whose geometry is
// inconsistent is remembered as a false positive and scanning continues
// leftward; if no true EOCD is ultimately found, the false candidate's
// offset is reported via Error.Offset on a FalseEOCD error.
func LocateEOCD(src Source, end int64) (int64, error) {
	if end < eocdMinLen {
		return 0, errMissingEOCD()
	}

	windowLen := end
	if windowLen > eocdMaxWindow {
		windowLen = eocdMaxWindow
	}
	windowStart := end - windowLen

	window := make([]byte, windowLen)
	if err := readFullAt(src, window, windowStart); err != nil {
		return 0, errIO(err)
	}

	falseOffset := int64(-1)
	for k := int(windowLen) - eocdMinLen; k >= 0; k-- {
		if binary.LittleEndian.Uint32(window[k:k+4]) != directoryEndSignature {
			continue
		}
		commentLen := int(binary.LittleEndian.Uint16(window[k+20 : k+22]))
		if k+eocdMinLen+commentLen == int(windowLen) {
			return windowStart + int64(k), nil
		}
		if falseOffset < 0 {
			falseOffset = windowStart + int64(k)
		}
	}

	if falseOffset >= 0 {
		return 0, errFalseEOCD(falseOffset)
	}
	return 0, errMissingEOCD()
}

// locateEOCD64 finds the absolute offset of the ZIP64 end-of-central-
// directory record, given the (already located) offset of the standard
// EOCD record. The locator record is defined to sit immediately before
// the EOCD; a small bounded backward scan tolerates padding some writers
// insert between the two.
func locateEOCD64(src Source, eocdOffset int64) (int64, error) {
	if eocdOffset < directory64LocLen {
		return 0, errInvalidField("zip64 locator would precede start of source")
	}

	var buf [directory64LocLen]byte
	if err := readFullAt(src, buf[:], eocdOffset-directory64LocLen); err != nil {
		return 0, errIO(err)
	}
	if binary.LittleEndian.Uint32(buf[0:4]) == directory64LocSignature {
		return int64(binary.LittleEndian.Uint64(buf[8:16])), nil
	}

	windowEnd := eocdOffset - directory64LocLen
	windowStart := windowEnd - eocd64ScanWindow
	if windowStart < 0 {
		windowStart = 0
	}
	winLen := windowEnd - windowStart
	if winLen < 4 {
		return 0, errInvalidField("zip64 end-of-central-directory locator not found")
	}
	win := make([]byte, winLen+directory64LocLen)
	if err := readFullAt(src, win, windowStart); err != nil {
		return 0, errIO(err)
	}
	for k := int(winLen) - 1; k >= 0; k-- {
		if binary.LittleEndian.Uint32(win[k:k+4]) == directory64LocSignature {
			return int64(binary.LittleEndian.Uint64(win[k+8 : k+16])), nil
		}
	}
	return 0, errInvalidField("zip64 end-of-central-directory locator not found")
}

// parseEOCD64 reads and decodes the ZIP64 end-of-central-directory record
// at offset, returning the authoritative 64-bit entry count, CD size and
// CD offset.
func parseEOCD64(src Source, offset int64) (entries, cdSize, cdOffset int64, err error) {
	var buf [directory64EndLen]byte
	if ferr := readFullAt(src, buf[:], offset); ferr != nil {
		return 0, 0, 0, errIO(ferr)
	}
	sig := binary.LittleEndian.Uint32(buf[0:4])
	if sig != directory64EndSignature {
		return 0, 0, 0, errInvalidSignature(directory64EndSignature, sig)
	}

	r := newFieldReader(buf[4:])
	_ = r.uint64() // record size, minus signature and this field
	_ = r.uint16() // version made by
	_ = r.uint16() // version needed to extract
	_ = r.uint32() // number of this disk
	_ = r.uint32() // number of the disk with the start of the CD
	_ = r.uint64() // total entries on this disk
	entriesTotal := r.uint64()
	size := r.uint64()
	off := r.uint64()
	if rerr := r.Err(); rerr != nil {
		return 0, 0, 0, rerr
	}
	return int64(entriesTotal), int64(size), int64(off), nil
}
