//go:build windows

// io_windows.go implements the internal I/O backend contract (see io.go) for
// Windows.
//
// FindFirstFile/FindNextFile return the attributes, size and timestamps of
// every entry, so each rawEntry carries both a type hint and a complete
// status record. The record is converted lazily (see stat_windows.go).
package scandir

import (
	"errors"
	"io"

	"golang.org/x/sys/windows"
)

// findStream wraps a find handle. data holds the record returned by the last
// FindFirstFile/FindNextFile call; pending reports whether it has not been
// handed out yet.
type findStream struct {
	h       windows.Handle
	data    windows.Win32finddata
	pending bool
	eof     bool
}

func (osBackend) openStream(path string) (dirStream, error) {
	pattern, err := windows.UTF16PtrFromString(joinPath(path, "*"))
	if err != nil {
		return nil, err
	}

	s := &findStream{h: windows.InvalidHandle}

	h, err := windows.FindFirstFile(pattern, &s.data)
	if err != nil {
		// The wildcard matched nothing. In an existing directory (drive roots
		// have no "." or ".." entries) that is an empty listing.
		if errors.Is(err, windows.ERROR_FILE_NOT_FOUND) {
			dirErr := checkIsDir(path)
			if dirErr != nil {
				return nil, dirErr
			}

			s.eof = true

			return s, nil
		}

		return nil, err
	}

	s.h = h
	s.pending = true

	return s, nil
}

func (s *findStream) next() (rawEntry, error) {
	for {
		if s.eof {
			return rawEntry{}, io.EOF
		}

		if !s.pending {
			err := windows.FindNextFile(s.h, &s.data)
			if errors.Is(err, windows.ERROR_NO_MORE_FILES) {
				s.eof = true

				return rawEntry{}, io.EOF
			}

			if err != nil {
				return rawEntry{}, err
			}
		}

		s.pending = false

		name := windows.UTF16ToString(s.data.FileName[:])
		if name == "" || isDotEntry(name) {
			continue
		}

		data := s.data

		return rawEntry{
			name: name,
			kind: kindFromAttributes(data.FileAttributes, data.Reserved0),
			free: func() Stat { return statFromFindData(&data) },
		}, nil
	}
}

func (s *findStream) closeHandle() error {
	if s.h == windows.InvalidHandle {
		return nil
	}

	err := windows.FindClose(s.h)
	s.h = windows.InvalidHandle

	return err
}

func checkIsDir(path string) error {
	p, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return err
	}

	attrs, err := windows.GetFileAttributes(p)
	if err != nil {
		return err
	}

	if attrs&windows.FILE_ATTRIBUTE_DIRECTORY == 0 {
		return windows.ERROR_DIRECTORY
	}

	return nil
}
