package zipcore

import (
	"encoding/binary"
	"io"
)

// ReaderArchive is a read view over a ZIP archive backed by a Source
// (component G, spec.md §4.G "Reader archive"). Unlike SliceArchive it
// does not require the whole archive to be held in memory: entries are
// decoded into a caller-supplied scratch buffer, which the caller may
// reuse across iterations, trading borrowed-until-next-call lifetime for
// bounded memory use (spec.md §9 option (ii)).
type ReaderArchive struct {
	src Source

	cdOffset int64
	cdSize   int64
	entries  int64
	comment  []byte
}

// OpenReader parses the end-of-central-directory record of a source of
// the given total size.
func OpenReader(src Source, size int64) (*ReaderArchive, error) {
	eocdOffset, err := LocateEOCD(src, size)
	if err != nil {
		return nil, err
	}

	a := &ReaderArchive{src: src}
	if err := a.parseEOCD(eocdOffset, size); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *ReaderArchive) parseEOCD(eocdOffset, size int64) error {
	var fixed [directoryEndLen]byte
	if err := readFullAt(a.src, fixed[:], eocdOffset); err != nil {
		return errIO(err)
	}
	sig := binary.LittleEndian.Uint32(fixed[0:4])
	if sig != directoryEndSignature {
		return errInvalidSignature(directoryEndSignature, sig)
	}

	r := newFieldReader(fixed[4:20])
	_ = r.uint16() // number of this disk
	_ = r.uint16() // disk with the start of the CD
	_ = r.uint16() // entries on this disk
	entries16 := r.uint16()
	cdSize32 := r.uint32()
	cdOffset32 := r.uint32()
	if err := r.Err(); err != nil {
		return err
	}
	commentLen := int(binary.LittleEndian.Uint16(fixed[20:22]))

	comment := make([]byte, commentLen)
	if commentLen > 0 {
		if err := readFullAt(a.src, comment, eocdOffset+directoryEndLen); err != nil {
			return errIO(err)
		}
	}
	a.comment = comment

	entries := int64(entries16)
	cdSize := int64(cdSize32)
	cdOffset := int64(cdOffset32)

	if entries16 == uint16max || cdSize32 == uint32max || cdOffset32 == uint32max {
		loc64, err := locateEOCD64(a.src, eocdOffset)
		if err != nil {
			return err
		}
		e64, size64, off64, err := parseEOCD64(a.src, loc64)
		if err != nil {
			return err
		}
		entries, cdSize, cdOffset = e64, size64, off64
	}

	if cdOffset < 0 || cdSize < 0 || cdOffset+cdSize > size {
		return errInvalidField("central directory extends beyond source")
	}

	a.entries = entries
	a.cdSize = cdSize
	a.cdOffset = cdOffset
	return nil
}

// Comment returns the archive-level comment. The returned slice is owned
// by the ReaderArchive and valid for its lifetime.
func (a *ReaderArchive) Comment() []byte { return a.comment }

// EntryCount returns the number of entries declared by the central
// directory (or, for a ZIP64 archive, its ZIP64 end record).
func (a *ReaderArchive) EntryCount() int64 { return a.entries }

// minCDRecordScratch is the largest fixed-width record size any iterator
// or header read in this file needs as a lower bound on caller-supplied
// scratch; the name/extra/comment tail can require more, reported via
// errBufferTooSmall with Required set to the actual need.
const minCDRecordScratch = directoryHeaderLen

// Entries returns an iterator over the central directory starting at its
// first record. scratch is reused by the iterator to decode each record;
// ReaderEntryIterator.Next returns an *Error of kind BufferTooSmall
// (naming the required size) if scratch cannot hold a given record, and
// the caller should retry with a larger buffer.
func (a *ReaderArchive) Entries(scratch []byte) *ReaderEntryIterator {
	return &ReaderEntryIterator{
		src:     a.src,
		scratch: scratch,
		pos:     a.cdOffset,
		end:     a.cdOffset + a.cdSize,
	}
}

// ReaderEntryIterator walks a ReaderArchive's central directory, one
// record at a time, using only the scratch buffer supplied to
// ReaderArchive.Entries. It stops at the end of the CD region or at an
// end-of-central-directory signature, whichever comes first.
type ReaderEntryIterator struct {
	src     Source
	scratch []byte
	pos     int64
	end     int64
}

// Next decodes the next central-directory entry into the iterator's
// scratch buffer. The returned entry (and its NameBytes/ExtraBytes/
// CommentBytes) alias scratch and are invalidated by the following call
// to Next.
func (it *ReaderEntryIterator) Next() (entry *CentralDirEntry, ok bool, err error) {
	if it.pos >= it.end {
		return nil, false, nil
	}

	if len(it.scratch) < minCDRecordScratch {
		return nil, false, errBufferTooSmall(minCDRecordScratch)
	}
	fixedLen := minCDRecordScratch
	if it.pos+int64(fixedLen) > it.end {
		fixedLen = int(it.end - it.pos)
	}
	if err := readFullAt(it.src, it.scratch[:fixedLen], it.pos); err != nil {
		return nil, false, errIO(err)
	}
	if fixedLen < 4 {
		return nil, false, errTruncated()
	}
	sig := binary.LittleEndian.Uint32(it.scratch[0:4])
	if sig == directoryEndSignature {
		it.pos = it.end
		return nil, false, nil
	}
	if sig != directoryHeaderSignature {
		return nil, false, errInvalidSignature(directoryHeaderSignature, sig)
	}
	if fixedLen < directoryHeaderLen {
		return nil, false, errTruncated()
	}

	nameLen := int(binary.LittleEndian.Uint16(it.scratch[28:30]))
	extraLen := int(binary.LittleEndian.Uint16(it.scratch[30:32]))
	commentLen := int(binary.LittleEndian.Uint16(it.scratch[32:34]))
	total := directoryHeaderLen + nameLen + extraLen + commentLen

	if total > len(it.scratch) {
		return nil, false, errBufferTooSmall(total)
	}
	if it.pos+int64(total) > it.end {
		return nil, false, errTruncated()
	}
	if err := readFullAt(it.src, it.scratch[directoryHeaderLen:total], it.pos+directoryHeaderLen); err != nil {
		return nil, false, errIO(err)
	}

	e, n, err := parseCentralDirEntry(it.scratch[4:total])
	if err != nil {
		return nil, false, err
	}
	it.pos += 4 + int64(n)
	return e, true, nil
}

// minLocalHeaderScratch is the fixed portion of a local file header.
const minLocalHeaderScratch = fileHeaderLen

// LocalHeader reads and parses the local file header referenced by e
// into scratch, returning the header view and the absolute offset at
// which the entry's (possibly compressed) data begins. scratch must hold
// at least fileHeaderLen + len(name) + len(extra) bytes; an
// errBufferTooSmall naming the required size is returned otherwise.
func (a *ReaderArchive) LocalHeader(e *CentralDirEntry, scratch []byte) (*LocalHeader, int64, error) {
	off := int64(e.LocalHeaderOffset)
	if len(scratch) < minLocalHeaderScratch {
		return nil, 0, errBufferTooSmall(minLocalHeaderScratch)
	}
	if err := readFullAt(a.src, scratch[:minLocalHeaderScratch], off); err != nil {
		return nil, 0, errIO(err)
	}
	sig := binary.LittleEndian.Uint32(scratch[0:4])
	if sig != fileHeaderSignature {
		return nil, 0, errInvalidSignature(fileHeaderSignature, sig)
	}
	nameLen := int(binary.LittleEndian.Uint16(scratch[26:28]))
	extraLen := int(binary.LittleEndian.Uint16(scratch[28:30]))
	total := fileHeaderLen + nameLen + extraLen
	if total > len(scratch) {
		return nil, 0, errBufferTooSmall(total)
	}
	if err := readFullAt(a.src, scratch[fileHeaderLen:total], off+fileHeaderLen); err != nil {
		return nil, 0, errIO(err)
	}

	h, n, err := parseLocalHeader(scratch[4:total])
	if err != nil {
		return nil, 0, err
	}
	return h, off + 4 + int64(n), nil
}

// DataReader returns an io.SectionReader over the entry's raw (possibly
// compressed) data, located via e and the local header offset. Unlike
// LocalHeader it does not decode the name/extra fields and so needs no
// caller-supplied scratch sized to them.
func (a *ReaderArchive) DataReader(e *CentralDirEntry) (*io.SectionReader, error) {
	off := int64(e.LocalHeaderOffset)
	var fixed [minLocalHeaderScratch]byte
	if err := readFullAt(a.src, fixed[:], off); err != nil {
		return nil, errIO(err)
	}
	sig := binary.LittleEndian.Uint32(fixed[0:4])
	if sig != fileHeaderSignature {
		return nil, errInvalidSignature(fileHeaderSignature, sig)
	}
	nameLen := int(binary.LittleEndian.Uint16(fixed[26:28]))
	extraLen := int(binary.LittleEndian.Uint16(fixed[28:30]))
	dataOffset := off + fileHeaderLen + int64(nameLen) + int64(extraLen)
	return io.NewSectionReader(a.src, dataOffset, int64(e.CompressedSize)), nil
}
