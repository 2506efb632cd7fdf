package zipcore

// LocalHeader is a zero-copy view over a local file header record
// (component B, spec.md §3 "Local-file-header (view)"). It has the same
// shape as CentralDirEntry minus the creator version, disk start,
// internal/external attributes, local-header offset and comment, since
// those fields don't exist in the local header.
type LocalHeader struct {
	ReaderVersion    uint16
	Flags            uint16
	Method           uint16
	ModTime          uint16
	ModDate          uint16
	CRC32            uint32
	CompressedSize   uint64
	UncompressedSize uint64

	NameBytes  []byte
	ExtraBytes []byte
}

// IsUTF8 reports whether the general-purpose flag's language-encoding bit
// (bit 11) is set.
func (h *LocalHeader) IsUTF8() bool { return h.Flags&0x800 != 0 }

// HasDataDescriptor reports whether general-purpose flag bit 3 is set,
// meaning CRC-32/sizes are zero here and follow the entry body instead
// (spec.md §4.I step 2).
func (h *LocalHeader) HasDataDescriptor() bool { return h.Flags&0x8 != 0 }

// localHeaderFixedLen is fileHeaderLen minus the 4-byte signature already
// consumed by the caller.
const localHeaderFixedLen = fileHeaderLen - 4

// parseLocalHeader decodes the fixed-width local-header fields from raw
// (starting immediately after the 4-byte signature) plus the name/extra
// tail. The local header's own ZIP64 extra (if any) carries only sizes —
// there is no offset/disk field in a local header — and is promoted here
// for completeness, even though spec.md §4.F says the CD entry's sizes
// remain authoritative for reading compressed data (streaming-written
// archives leave these fields zeroed with a trailing data descriptor).
func parseLocalHeader(raw []byte) (*LocalHeader, int, error) {
	if len(raw) < localHeaderFixedLen {
		return nil, 0, errTruncated()
	}
	r := newFieldReader(raw)
	h := &LocalHeader{}
	h.ReaderVersion = r.uint16()
	h.Flags = r.uint16()
	h.Method = r.uint16()
	h.ModTime = r.uint16()
	h.ModDate = r.uint16()
	h.CRC32 = r.uint32()
	compSize32 := r.uint32()
	uncompSize32 := r.uint32()
	nameLen := int(r.uint16())
	extraLen := int(r.uint16())
	if err := r.Err(); err != nil {
		return nil, 0, err
	}

	tail := nameLen + extraLen
	if len(raw) < localHeaderFixedLen+tail {
		return nil, 0, errTruncated()
	}
	h.NameBytes = raw[localHeaderFixedLen : localHeaderFixedLen+nameLen]
	h.ExtraBytes = raw[localHeaderFixedLen+nameLen : localHeaderFixedLen+tail]
	h.CompressedSize = uint64(compSize32)
	h.UncompressedSize = uint64(uncompSize32)

	if uncompSize32 == uint32max || compSize32 == uint32max {
		need := Zip64Sentinels{
			Uncompressed: uncompSize32 == uint32max,
			Compressed:   compSize32 == uint32max,
		}
		if payload, ok, err := FindZip64Extra(h.ExtraBytes); err == nil && ok {
			if promoted, derr := DecodeZip64Extra(payload, need); derr == nil {
				if need.Uncompressed {
					h.UncompressedSize = promoted.UncompressedSize
				}
				if need.Compressed {
					h.CompressedSize = promoted.CompressedSize
				}
			}
		}
	}

	return h, localHeaderFixedLen + tail, nil
}
