package zipcore

import (
	"errors"
	"io"
)

// StreamWriter authors a ZIP archive to an io.Writer in a single forward
// pass (component I, spec.md §4.I "Streaming writer"). It never seeks
// backward: every entry's local header is written with zero-valued
// CRC-32/size fields and the data-descriptor flag set, the true values
// following the entry's body in a trailing data descriptor, exactly as
// the teacher's (*Archive)-building callers already expected of
// writeHeader/makeDataDescriptor.
type StreamWriter struct {
	cw      *countWriter
	dir     []*header
	comment string
}

// NewStreamWriter returns a StreamWriter that appends to w.
func NewStreamWriter(w io.Writer) *StreamWriter {
	return &StreamWriter{cw: &countWriter{w: w}}
}

// CreateEntry begins a new entry described by fh. fh is mutated in place
// (compression/version/flags/extra fields are filled in, as
// prepareEntry already does for the non-streaming writer), and must not
// be reused concurrently with another in-flight entry on the same
// StreamWriter. The returned EntrySink is where the caller writes the
// entry's (already compressed, if Method != Store) bytes.
func (sw *StreamWriter) CreateEntry(fh *FileHeader) (*EntrySink, error) {
	prepareEntry(fh)

	offset := uint64(sw.cw.count)
	if err := writeHeader(sw.cw, fh); err != nil {
		return nil, err
	}

	h := &header{FileHeader: fh, offset: offset}
	sw.dir = append(sw.dir, h)
	return &EntrySink{sw: sw, h: h, cw: &countWriter{w: sw.cw}}, nil
}

// EntryDescriptor carries the values a caller measured while writing an
// entry's uncompressed bytes, typically via UncompressedCounter, and
// passes to EntrySink.Finish once the entry's compressed body has been
// written in full.
type EntryDescriptor struct {
	CRC32            uint32
	UncompressedSize uint64
}

// EntrySink is the destination for one entry's (possibly compressed)
// body, obtained from StreamWriter.CreateEntry.
type EntrySink struct {
	sw *StreamWriter
	h  *header
	cw *countWriter
}

// Write appends compressed entry bytes to the archive stream.
func (s *EntrySink) Write(p []byte) (int, error) { return s.cw.Write(p) }

// Finish closes out the entry: it records desc's CRC-32/uncompressed
// size and the compressed size actually observed via Write in the
// entry's header (which CreateEntry already added to the pending central
// directory), then emits the trailing data descriptor (skipped for
// directory entries, which prepareEntry already marked as not using one).
func (s *EntrySink) Finish(desc EntryDescriptor) error {
	s.h.CRC32 = desc.CRC32
	s.h.UncompressedSize64 = desc.UncompressedSize
	s.h.CompressedSize64 = uint64(s.cw.count)

	if s.h.Flags&0x8 == 0 {
		return nil
	}
	_, err := s.sw.cw.Write(makeDataDescriptor(s.h.FileHeader))
	return err
}

// SetComment sets the archive-level comment emitted with the
// end-of-central-directory record.
func (sw *StreamWriter) SetComment(comment string) error {
	if len(comment) > uint16max {
		return errors.New("zip: Writer.Comment too long")
	}
	sw.comment = comment
	return nil
}

// Finish emits the central directory, the ZIP64 end record and locator
// if needed, and the end-of-central-directory record, completing the
// archive. No further entries may be created afterward.
func (sw *StreamWriter) Finish() error {
	start := sw.cw.count
	return writeCentralDirectory(start, sw.dir, sw.cw, sw.comment, nil)
}

// UncompressedCounter wraps the writer a caller feeds an entry's raw
// (pre-compression) bytes into, folding a CRC-32 and byte count as they
// pass through on their way to the caller's chosen compressor. Its
// Descriptor, once the entry's bytes are fully written, is what gets
// passed to EntrySink.Finish.
type UncompressedCounter struct {
	w      io.Writer
	hasher CRC32Hasher
	n      uint64
}

// NewUncompressedCounter wraps w. A nil hasher defaults to NewIEEECRC32.
func NewUncompressedCounter(w io.Writer, hasher CRC32Hasher) *UncompressedCounter {
	if hasher == nil {
		hasher = NewIEEECRC32()
	}
	return &UncompressedCounter{w: w, hasher: hasher}
}

func (c *UncompressedCounter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.hasher.Write(p[:n])
	c.n += uint64(n)
	return n, err
}

// Descriptor returns the CRC-32 and byte count accumulated so far.
func (c *UncompressedCounter) Descriptor() EntryDescriptor {
	return EntryDescriptor{CRC32: c.hasher.Sum32(), UncompressedSize: c.n}
}
