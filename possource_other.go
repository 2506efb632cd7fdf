//go:build !unix

package zipcore

import "os"

// NewFDSource wraps a raw file descriptor/handle for use as a Source. On
// platforms without direct pread(2) support (see possource_unix.go) this
// goes through *os.File, whose ReadAt already performs positional reads
// without mutating a shared cursor.
func NewFDSource(fd int) Source {
	return os.NewFile(uintptr(fd), "")
}
