//go:build linux || darwin || freebsd || openbsd || netbsd || dragonfly

package scandir

import (
	"errors"
	"io/fs"
	"syscall"

	"golang.org/x/sys/unix"
)

func (osBackend) lstat(path string) (Stat, error) {
	var st unix.Stat_t

	for {
		err := unix.Lstat(path, &st)
		if errors.Is(err, syscall.EINTR) {
			continue
		}

		if err != nil {
			return Stat{}, err
		}

		break
	}

	return statFromSys(&st), nil
}

func (osBackend) stat(path string) (Stat, error) {
	var st unix.Stat_t

	for {
		err := unix.Stat(path, &st)
		if errors.Is(err, syscall.EINTR) {
			continue
		}

		if err != nil {
			return Stat{}, err
		}

		break
	}

	return statFromSys(&st), nil
}

// statFromSys converts a native stat record. Field widths differ across
// platforms, hence the explicit conversions.
func statFromSys(st *unix.Stat_t) Stat {
	return Stat{
		Size:       st.Size,
		Mode:       fileModeFromUnix(uint32(st.Mode)),
		ModTime:    st.Mtim.Nano(),
		AccessTime: st.Atim.Nano(),
		ChangeTime: st.Ctim.Nano(),
		Inode:      uint64(st.Ino),
		Dev:        uint64(st.Dev),
		Nlink:      uint64(st.Nlink),
		UID:        st.Uid,
		GID:        st.Gid,
	}
}

// fileModeFromUnix translates st_mode into fs.FileMode the way the os
// package does.
func fileModeFromUnix(m uint32) fs.FileMode {
	mode := fs.FileMode(m & 0o777)

	switch m & unix.S_IFMT {
	case unix.S_IFBLK:
		mode |= fs.ModeDevice
	case unix.S_IFCHR:
		mode |= fs.ModeDevice | fs.ModeCharDevice
	case unix.S_IFDIR:
		mode |= fs.ModeDir
	case unix.S_IFIFO:
		mode |= fs.ModeNamedPipe
	case unix.S_IFLNK:
		mode |= fs.ModeSymlink
	case unix.S_IFSOCK:
		mode |= fs.ModeSocket
	}

	if m&unix.S_ISGID != 0 {
		mode |= fs.ModeSetgid
	}

	if m&unix.S_ISUID != 0 {
		mode |= fs.ModeSetuid
	}

	if m&unix.S_ISVTX != 0 {
		mode |= fs.ModeSticky
	}

	return mode
}
