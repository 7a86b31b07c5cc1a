//go:build !linux && !darwin && !freebsd && !openbsd && !netbsd && !dragonfly && !windows || android || ios

// io_other.go implements the internal I/O backend contract (see io.go) for
// platforms where we don't maintain a syscall-level fast path (android, ios,
// solaris/illumos, aix, js, wasip1, ...).
//
// Only names are enumerated, so every entry is KindUnknown and the first
// classification query on it costs an lstat.
package scandir

import (
	"errors"
	"io"
	"os"
)

var errNotDir = errors.New("not a directory")

type namesStream struct {
	f       *os.File
	pending []string
	err     error
	eof     bool
}

func (osBackend) openStream(path string) (dirStream, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, unwrapPathError(err)
	}

	// Opening a regular file succeeds here; reject it up front like the
	// native backends do.
	info, err := f.Stat()
	if err == nil && !info.IsDir() {
		err = errNotDir
	}

	if err != nil {
		_ = f.Close()

		return nil, unwrapPathError(err)
	}

	return &namesStream{f: f}, nil
}

func (s *namesStream) next() (rawEntry, error) {
	for {
		if len(s.pending) > 0 {
			name := s.pending[0]
			s.pending = s.pending[1:]

			if isDotEntry(name) {
				continue
			}

			return rawEntry{name: name, kind: KindUnknown}, nil
		}

		if s.err != nil {
			return rawEntry{}, s.err
		}

		if s.eof {
			return rawEntry{}, io.EOF
		}

		names, err := s.f.Readdirnames(readDirBatchSize)
		s.pending = names

		switch {
		case errors.Is(err, io.EOF):
			s.eof = true
		case err != nil:
			s.err = unwrapPathError(err)
		case len(names) == 0:
			s.eof = true
		}
	}
}

func (s *namesStream) closeHandle() error {
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
