package zipcore

import (
	"strings"
	"unicode/utf8"
)

// UTF8Path validates name as UTF-8 and returns it as a string, borrowing
// the same backing array (component D, spec.md §4.D). It fails with
// InvalidEncoding rather than silently substituting replacement
// characters, since a caller that asked for a normalized view needs to
// know the bytes weren't what they expected.
func UTF8Path(name []byte) (string, error) {
	if !utf8.Valid(name) {
		return "", errInvalidEncoding()
	}
	return string(name), nil
}

// IsDirName reports whether name denotes a directory entry, matching the
// writer's own convention (writer.go:prepareEntry) of a trailing slash.
func IsDirName(name string) bool {
	return strings.HasSuffix(name, "/")
}

// SafePath derives a traversal-free, drive-stripped relative path from a
// stored entry name: it strips a Windows drive prefix ("C:"), treats
// backslash as a path separator, drops leading slashes, and removes ".."
// and "." segments. name must already be valid UTF-8 (see UTF8Path).
//
// SafePath returns name unmodified (the same string, no copy) when no
// normalization was needed; otherwise it returns an owned, normalized
// string, per spec.md §4.D and §9 "Borrowed views".
func SafePath(name string) (string, error) {
	if !utf8.ValidString(name) {
		return "", errInvalidEncoding()
	}

	s := name
	dirty := false

	if strings.ContainsRune(s, '\\') {
		s = strings.ReplaceAll(s, "\\", "/")
		dirty = true
	}

	if len(s) >= 2 && s[1] == ':' && isASCIILetter(s[0]) {
		s = s[2:]
		dirty = true
	}

	for len(s) > 0 && s[0] == '/' {
		s = s[1:]
		dirty = true
	}

	if strings.Contains(s, ".") {
		segments := strings.Split(s, "/")
		kept := segments[:0]
		for _, seg := range segments {
			if seg == ".." || seg == "." {
				dirty = true
				continue
			}
			kept = append(kept, seg)
		}
		s = strings.Join(kept, "/")
	}

	if !dirty {
		return name, nil
	}
	return s, nil
}

func isASCIILetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
