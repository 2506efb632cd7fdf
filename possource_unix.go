//go:build unix

package zipcore

import (
	"io"

	"golang.org/x/sys/unix"
)

// fdSource is a Source backed directly by a unix file descriptor's
// positional pread(2), independent of *os.File's own internal read path.
// It never mutates a shared file cursor, so concurrent ReadAt calls need
// no synchronization (spec.md §5 "Shared mutability", §9 "Positional
// reads vs. seek").
type fdSource struct {
	fd int
}

// NewFDSource wraps a raw file descriptor for use as a Source. The caller
// retains ownership of fd and must keep it open for as long as the
// returned Source is in use.
func NewFDSource(fd int) Source {
	return &fdSource{fd: fd}
}

func (s *fdSource) ReadAt(p []byte, off int64) (int, error) {
	n, err := unix.Pread(s.fd, p, off)
	if err != nil {
		return n, err
	}
	if n < len(p) {
		return n, io.ErrUnexpectedEOF
	}
	return n, nil
}
