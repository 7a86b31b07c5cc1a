//go:build (darwin && !ios) || freebsd || openbsd || netbsd || dragonfly

// io_unix.go implements the internal I/O backend contract (see io.go) for
// "mainstream" non-Linux Unix platforms:
//   - macOS (darwin, excluding iOS)
//   - the BSD family (FreeBSD/OpenBSD/NetBSD/DragonFly)
//
// Enumeration goes through (*os.File).ReadDir, which surfaces d_type as
// fs.DirEntry.Type() without an extra lstat on these platforms.
package scandir

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"syscall"

	"golang.org/x/sys/unix"
)

// readDirStream wraps an *os.File and the pending tail of the last ReadDir
// batch.
type readDirStream struct {
	f       *os.File
	pending []fs.DirEntry
	err     error
	eof     bool
}

func (osBackend) openStream(path string) (dirStream, error) {
	for {
		fd, err := unix.Open(path, unix.O_RDONLY|unix.O_DIRECTORY|unix.O_CLOEXEC, 0)
		if errors.Is(err, syscall.EINTR) {
			continue
		}

		if err != nil {
			return nil, err
		}

		return &readDirStream{f: os.NewFile(uintptr(fd), path)}, nil
	}
}

func (s *readDirStream) next() (rawEntry, error) {
	for {
		if len(s.pending) > 0 {
			e := s.pending[0]
			s.pending = s.pending[1:]

			name := e.Name()
			if isDotEntry(name) {
				continue
			}

			return rawEntry{name: name, kind: kindFromMode(e.Type())}, nil
		}

		if s.err != nil {
			return rawEntry{}, s.err
		}

		if s.eof {
			return rawEntry{}, io.EOF
		}

		// ReadDir(n) may return entries together with a non-EOF error; those
		// entries are delivered before the error surfaces.
		entries, err := s.f.ReadDir(readDirBatchSize)
		s.pending = entries

		switch {
		case errors.Is(err, io.EOF):
			s.eof = true
		case err != nil:
			s.err = unwrapPathError(err)
		case len(entries) == 0:
			s.eof = true
		}
	}
}

func (s *readDirStream) closeHandle() error {
	if s.f == nil {
		return nil
	}

	err := s.f.Close()
	s.f = nil

	if err != nil {
		return unwrapPathError(err)
	}

	return nil
}
