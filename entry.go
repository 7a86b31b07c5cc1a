package scandir

import (
	"fmt"
	"io/fs"
	"time"
)

// Kind is the coarse file type a directory enumeration call may report for
// free alongside an entry's name.
type Kind uint8

const (
	// KindUnknown means the OS did not report a type. Classification needs a
	// status query.
	KindUnknown Kind = iota
	// KindDir is a directory.
	KindDir
	// KindRegular is a regular file.
	KindRegular
	// KindSymlink is a symbolic link (or, on Windows, a link-like reparse
	// point).
	KindSymlink
	// KindOther is a FIFO, socket, device or other special file.
	KindOther
)

func (k Kind) String() string {
	switch k {
	case KindDir:
		return "dir"
	case KindRegular:
		return "file"
	case KindSymlink:
		return "symlink"
	case KindOther:
		return "other"
	default:
		return "unknown"
	}
}

// fileMode returns the fs.FileMode type bits for a known kind.
func (k Kind) fileMode() fs.FileMode {
	switch k {
	case KindDir:
		return fs.ModeDir
	case KindSymlink:
		return fs.ModeSymlink
	case KindRegular:
		return 0
	default:
		return fs.ModeIrregular
	}
}

// kindFromMode classifies fs.FileMode type bits.
func kindFromMode(mode fs.FileMode) Kind {
	switch {
	case mode&fs.ModeSymlink != 0:
		return KindSymlink
	case mode.IsDir():
		return KindDir
	case mode&fs.ModeType == 0:
		return KindRegular
	default:
		return KindOther
	}
}

// Stat holds the full status of a directory entry.
//
// Times are expressed as Unix nanoseconds to avoid time.Time allocations
// in hot paths. Use the Modified/Accessed/Changed helpers to convert.
type Stat struct {
	// Size is the file size in bytes.
	Size int64
	// Mode holds the type and permission bits.
	Mode fs.FileMode
	// ModTime is the modification time in Unix nanoseconds.
	ModTime int64
	// AccessTime is the last access time in Unix nanoseconds.
	AccessTime int64
	// ChangeTime is the inode change time in Unix nanoseconds. On Windows it
	// is the creation time.
	ChangeTime int64
	// Inode is the inode number when available (0 on Windows).
	Inode uint64
	// Dev is the device id when available.
	Dev uint64
	// Nlink is the hard link count when available.
	Nlink uint64
	// UID and GID are the owner ids when available.
	UID uint32
	GID uint32
	// Attributes holds the Windows file attributes (0 elsewhere).
	Attributes uint32
}

// Modified returns ModTime as a time.Time.
func (s Stat) Modified() time.Time { return time.Unix(0, s.ModTime) }

// Accessed returns AccessTime as a time.Time.
func (s Stat) Accessed() time.Time { return time.Unix(0, s.AccessTime) }

// Changed returns ChangeTime as a time.Time.
func (s Stat) Changed() time.Time { return time.Unix(0, s.ChangeTime) }

// statState tags a memoized status query.
type statState uint8

const (
	statPending statState = iota
	statDone
)

// statMemo is a status query that runs at most once. A failed query is
// memoized as well.
type statMemo struct {
	state statState
	st    Stat
	err   error
}

// DirEntry is one child of a scanned directory.
//
// Type classification is answered from the hint the OS reported during
// enumeration when there is one, and from a single memoized lstat otherwise.
// The status is never refreshed: re-scan to observe later changes.
//
// A DirEntry is not safe for concurrent use. It satisfies [fs.DirEntry].
type DirEntry struct {
	name string
	dir  string
	kind Kind
	sys  backend

	// free converts status data the enumeration call already returned.
	free func() Stat

	lst statMemo
	tgt statMemo
}

var _ fs.DirEntry = (*DirEntry)(nil)

func newEntry(sys backend, dir string, raw rawEntry) *DirEntry {
	return &DirEntry{
		name: raw.name,
		dir:  dir,
		kind: raw.kind,
		sys:  sys,
		free: raw.free,
	}
}

// Name returns the entry's base name.
func (e *DirEntry) Name() string { return e.name }

// Dir returns the path of the directory the entry was found in, as passed to
// the scan.
func (e *DirEntry) Dir() string { return e.dir }

// Path returns Dir joined with Name.
func (e *DirEntry) Path() string { return joinPath(e.dir, e.name) }

// Kind returns the type hint reported during enumeration. It never queries
// the filesystem; KindUnknown means no hint was available.
func (e *DirEntry) Kind() Kind { return e.kind }

// IsDir reports whether the entry is a directory. Symlinks are not followed.
//
// Returns false if the type must be queried and the query fails.
func (e *DirEntry) IsDir() bool {
	if e.kind != KindUnknown {
		return e.kind == KindDir
	}

	st, err := e.Stat()
	if err != nil {
		return false
	}

	return st.Mode.IsDir()
}

// IsRegular reports whether the entry is a regular file.
//
// Returns false if the type must be queried and the query fails.
func (e *DirEntry) IsRegular() bool {
	if e.kind != KindUnknown {
		return e.kind == KindRegular
	}

	st, err := e.Stat()
	if err != nil {
		return false
	}

	return st.Mode.IsRegular()
}

// IsSymlink reports whether the entry is a symbolic link.
//
// Returns false if the type must be queried and the query fails.
func (e *DirEntry) IsSymlink() bool {
	if e.kind != KindUnknown {
		return e.kind == KindSymlink
	}

	st, err := e.Stat()
	if err != nil {
		return false
	}

	return st.Mode&fs.ModeSymlink != 0
}

// IsDirTarget reports whether the entry is a directory or a symlink that
// resolves to one. Returns false if resolving fails (dangling link, race).
func (e *DirEntry) IsDirTarget() bool {
	if e.IsDir() {
		return true
	}

	if !e.IsSymlink() {
		return false
	}

	st, err := e.TargetStat()
	if err != nil {
		return false
	}

	return st.Mode.IsDir()
}

// Stat returns the entry's status without following a final symlink.
//
// The first call performs the query (or, on Windows, converts the data the
// enumeration already returned); later calls return the memoized result,
// including a memoized error. Errors are [*IOError].
func (e *DirEntry) Stat() (Stat, error) {
	if e.lst.state == statDone {
		return e.lst.st, e.lst.err
	}

	if e.free != nil {
		e.lst.st = e.free()
	} else {
		st, err := e.sys.lstat(e.Path())
		if err != nil {
			e.lst.err = newIOError("lstat", e.Path(), err)
		} else {
			e.lst.st = st
		}
	}

	e.lst.state = statDone

	return e.lst.st, e.lst.err
}

// TargetStat returns the status of the entry with symlinks followed.
// For anything but a symlink it is the same as [DirEntry.Stat].
//
// Memoized separately from Stat.
func (e *DirEntry) TargetStat() (Stat, error) {
	if !e.IsSymlink() {
		return e.Stat()
	}

	if e.tgt.state == statDone {
		return e.tgt.st, e.tgt.err
	}

	st, err := e.sys.stat(e.Path())
	if err != nil {
		e.tgt.err = newIOError("stat", e.Path(), err)
	} else {
		e.tgt.st = st
	}

	e.tgt.state = statDone

	return e.tgt.st, e.tgt.err
}

// Type returns the type bits of the entry, as [fs.DirEntry] requires.
//
// Returns fs.ModeIrregular if the type must be queried and the query fails.
func (e *DirEntry) Type() fs.FileMode {
	if e.kind != KindUnknown {
		return e.kind.fileMode()
	}

	st, err := e.Stat()
	if err != nil {
		return fs.ModeIrregular
	}

	return st.Mode.Type()
}

// Info returns the memoized status as an fs.FileInfo.
func (e *DirEntry) Info() (fs.FileInfo, error) {
	st, err := e.Stat()
	if err != nil {
		return nil, err
	}

	return fileInfo{name: e.name, st: st}, nil
}

func (e *DirEntry) String() string {
	return fmt.Sprintf("<DirEntry: %q>", e.name)
}

// fileInfo adapts Stat to fs.FileInfo.
type fileInfo struct {
	name string
	st   Stat
}

func (fi fileInfo) Name() string       { return fi.name }
func (fi fileInfo) Size() int64        { return fi.st.Size }
func (fi fileInfo) Mode() fs.FileMode  { return fi.st.Mode }
func (fi fileInfo) ModTime() time.Time { return fi.st.Modified() }
func (fi fileInfo) IsDir() bool        { return fi.st.Mode.IsDir() }

// Sys returns the underlying *Stat.
func (fi fileInfo) Sys() any { return &fi.st }
