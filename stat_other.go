//go:build !linux && !darwin && !freebsd && !openbsd && !netbsd && !dragonfly && !windows

package scandir

import (
	"io/fs"
	"os"
)

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

// statFromFileInfo fills what the portable fs.FileInfo exposes. Access and
// change times, inode and ownership stay zero.
func statFromFileInfo(info fs.FileInfo) Stat {
	return Stat{
		Size:    info.Size(),
		Mode:    info.Mode(),
		ModTime: info.ModTime().UnixNano(),
	}
}
