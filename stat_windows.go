//go:build windows

package scandir

import (
	"io/fs"
	"os"
	"syscall"

	"golang.org/x/sys/windows"
)

// statFromFindData converts a FindFirstFile/FindNextFile record.
//
// Timestamps come from FILETIME (100ns ticks since 1601-01-01 UTC), converted
// to Unix nanoseconds by windows.Filetime.Nanoseconds. ChangeTime carries the
// creation time; Windows has no inode change time. Inode, Dev, Nlink, UID and
// GID are not reported by find data and stay zero.
func statFromFindData(d *windows.Win32finddata) Stat {
	return Stat{
		Size:       int64(d.FileSizeHigh)<<32 | int64(d.FileSizeLow),
		Mode:       modeFromAttributes(d.FileAttributes, d.Reserved0),
		ModTime:    d.LastWriteTime.Nanoseconds(),
		AccessTime: d.LastAccessTime.Nanoseconds(),
		ChangeTime: d.CreationTime.Nanoseconds(),
		Attributes: d.FileAttributes,
	}
}

func (osBackend) lstat(path string) (Stat, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return Stat{}, unwrapPathError(err)
	}

	return statFromFileInfo(info), nil
}

func (osBackend) stat(path string) (Stat, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Stat{}, unwrapPathError(err)
	}

	return statFromFileInfo(info), nil
}

func statFromFileInfo(info fs.FileInfo) Stat {
	st := Stat{
		Size:    info.Size(),
		Mode:    info.Mode(),
		ModTime: info.ModTime().UnixNano(),
	}

	if d, ok := info.Sys().(*syscall.Win32FileAttributeData); ok {
		st.AccessTime = d.LastAccessTime.Nanoseconds()
		st.ChangeTime = d.CreationTime.Nanoseconds()
		st.Attributes = d.FileAttributes
	}

	return st
}

// isLinkReparse reports whether a reparse tag is one the os package treats as
// a symlink.
func isLinkReparse(attrs, tag uint32) bool {
	if attrs&windows.FILE_ATTRIBUTE_REPARSE_POINT == 0 {
		return false
	}

	return tag == windows.IO_REPARSE_TAG_SYMLINK || tag == windows.IO_REPARSE_TAG_MOUNT_POINT
}

func kindFromAttributes(attrs, tag uint32) Kind {
	switch {
	case isLinkReparse(attrs, tag):
		return KindSymlink
	case attrs&windows.FILE_ATTRIBUTE_DIRECTORY != 0:
		return KindDir
	default:
		return KindRegular
	}
}

func modeFromAttributes(attrs, tag uint32) fs.FileMode {
	var mode fs.FileMode = 0o666
	if attrs&windows.FILE_ATTRIBUTE_READONLY != 0 {
		mode = 0o444
	}

	switch {
	case isLinkReparse(attrs, tag):
		mode |= fs.ModeSymlink
	case attrs&windows.FILE_ATTRIBUTE_DIRECTORY != 0:
		mode |= fs.ModeDir | 0o111
	}

	return mode
}
