// Package scandir provides a directory iterator that exposes the file type
// information the OS already returns while listing a directory, and a tree
// walker built on top of it.
//
// It uses platform-specific fast paths where available (Linux getdents64,
// Windows FindFirstFile) and falls back to portable APIs on other platforms.
//
// # Entries
//
// [Scan] and [ScanDir] yield one [*DirEntry] per child, excluding "." and
// "..". Classification ([DirEntry.IsDir], [DirEntry.IsRegular],
// [DirEntry.IsSymlink]) is free when the enumeration call reported the type
// (see [DirEntry.Kind]); otherwise the first classification call performs one
// lstat and memoizes it. [DirEntry.Stat] returns the full status and is
// memoized too.
//
// Classification never returns an error: an entry whose status cannot be
// queried (it vanished, or permissions changed) is not a directory, not a
// regular file and not a symlink. [DirEntry.Stat] reports the same failure as
// an error.
//
// # Handles
//
// A [Scanner] owns one open directory handle. The handle is released exactly
// once: when the end of the directory is reached, when a read fails, or when
// [Scanner.Close] is called, whichever comes first. [ScanDir] and [Walk]
// release it when the range loop exits, including on break.
//
// # Walking
//
// [Walk] yields one [*Level] per directory: its path, its subdirectory names
// and its other entry names. In the default pre-order mode the caller may edit
// [Level.Dirs] inside the loop body to prune or reorder the subtrees visited
// next. See [WithPostOrder], [WithFollowLinks] and [WithOnError].
//
// # Concurrency
//
// Everything runs on the calling goroutine, one system call at a time, only
// as results are requested. Scanners and entries are not safe for concurrent
// use; independent scanners may be used from different goroutines.
//
// # Concurrent Modifications
//
// Entries reflect a live view of the directory. Files created or removed while
// a scan is in progress may or may not be seen, and an entry's memoized status
// is not refreshed.
package scandir

import (
	"errors"
	"io"
	"iter"
	"strings"
)

var errContainsNUL = errors.New("contains NUL byte")

// scanState tracks a Scanner's position in its lifecycle.
type scanState uint8

const (
	scanOpen   scanState = iota // handle open, more entries may follow
	scanEnded                   // end reached, handle released
	scanFailed                  // read failed, handle released
	scanClosed                  // Close called
)

// Scanner iterates over the entries of one directory.
//
// Usage follows bufio.Scanner:
//
//	s, err := scandir.Scan(dir)
//	if err != nil {
//		return err
//	}
//	defer s.Close()
//
//	for s.Next() {
//		e := s.Entry()
//		...
//	}
//
//	return s.Err()
type Scanner struct {
	path   string
	sys    backend
	stream dirStream
	cur    *DirEntry
	err    error
	state  scanState
}

// Scan opens path for enumeration. An empty path means the current directory.
//
// Open failures are [*IOError] values matching [ErrNotFound] or
// [ErrPermission] where applicable.
func Scan(path string) (*Scanner, error) {
	return scan(osBackend{}, path)
}

func scan(sys backend, path string) (*Scanner, error) {
	if path == "" {
		path = "."
	}

	if strings.IndexByte(path, 0) >= 0 {
		return nil, &IOError{Path: path, Op: "open", Kind: KindOSError, Err: errContainsNUL}
	}

	stream, err := sys.openStream(path)
	if err != nil {
		return nil, newIOError("open", path, err)
	}

	return &Scanner{path: path, sys: sys, stream: stream}, nil
}

// Path returns the directory being scanned.
func (s *Scanner) Path() string { return s.path }

// Next advances to the next entry. It returns false at the end of the
// directory or on error; check [Scanner.Err] to tell them apart.
//
// Calling Next again after it returned false, or after Close, records
// [ErrInvalidState].
func (s *Scanner) Next() bool {
	s.cur = nil

	if s.state != scanOpen {
		if s.err == nil {
			s.err = ErrInvalidState
		}

		return false
	}

	raw, err := s.stream.next()
	if err == nil {
		s.cur = newEntry(s.sys, s.path, raw)

		return true
	}

	closeErr := s.release()

	if errors.Is(err, io.EOF) {
		s.state = scanEnded
		if closeErr != nil {
			s.err = newIOError("close", s.path, closeErr)
		}

		return false
	}

	s.state = scanFailed
	s.err = newIOError("readdir", s.path, err)

	return false
}

// Entry returns the entry produced by the last successful Next, or nil.
func (s *Scanner) Entry() *DirEntry { return s.cur }

// Err returns the first error encountered, or nil if the scan reached the end
// of the directory normally.
func (s *Scanner) Err() error { return s.err }

// Close releases the directory handle if it is still open. It is safe to call
// more than once; only the call that actually releases the handle can return
// an error.
func (s *Scanner) Close() error {
	if s.state == scanClosed {
		return nil
	}

	s.state = scanClosed
	s.cur = nil

	err := s.release()
	if err != nil {
		return newIOError("close", s.path, err)
	}

	return nil
}

// release closes the native handle once.
func (s *Scanner) release() error {
	if s.stream == nil {
		return nil
	}

	stream := s.stream
	s.stream = nil

	return stream.closeHandle()
}

// ScanDir returns an iterator over the entries of path.
//
// An error ends the sequence: it is yielded once, with a nil entry. Breaking
// out of the loop releases the directory handle.
//
//	for e, err := range scandir.ScanDir(dir) {
//		if err != nil {
//			return err
//		}
//		...
//	}
func ScanDir(path string) iter.Seq2[*DirEntry, error] {
	return scanSeq(osBackend{}, path)
}

func scanSeq(sys backend, path string) iter.Seq2[*DirEntry, error] {
	return func(yield func(*DirEntry, error) bool) {
		s, err := scan(sys, path)
		if err != nil {
			yield(nil, err)

			return
		}

		defer func() { _ = s.Close() }()

		for s.Next() {
			if !yield(s.Entry(), nil) {
				return
			}
		}

		if err := s.Err(); err != nil {
			yield(nil, err)
		}
	}
}

// ReadDir scans path to the end and returns its entries in enumeration order.
// On error it returns the entries read so far together with the error.
func ReadDir(path string) ([]*DirEntry, error) {
	s, err := Scan(path)
	if err != nil {
		return nil, err
	}

	defer func() { _ = s.Close() }()

	var entries []*DirEntry
	for s.Next() {
		entries = append(entries, s.Entry())
	}

	return entries, s.Err()
}
