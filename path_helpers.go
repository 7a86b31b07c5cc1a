package scandir

import (
	"errors"
	"io/fs"
	"os"
)

// ============================================================================
// Path helpers
// ============================================================================

// byteSeq lets the helpers below work on both string names (os.File.ReadDir,
// FindFirstFile) and []byte names (Linux getdents64 parsing).
type byteSeq interface {
	~string | ~[]byte
}

// isDotEntry reports whether name is "." or "..".
func isDotEntry[S byteSeq](name S) bool {
	if len(name) == 1 && name[0] == '.' {
		return true
	}

	return len(name) == 2 && name[0] == '.' && name[1] == '.'
}

// joinPath joins dir and name with exactly one separator.
//
// Unlike filepath.Join it does not clean the result, so paths handed out by
// the walker keep the prefix the caller passed in.
func joinPath(dir, name string) string {
	if dir == "" {
		return name
	}

	// We must not blindly append a separator. For example, when dir is the
	// filesystem root ("/" on Unix, "C:\\" on Windows), it already ends with
	// one.
	last := dir[len(dir)-1]
	if last == os.PathSeparator || last == '/' {
		return dir + name
	}

	return dir + string(os.PathSeparator) + name
}

// unwrapPathError strips the *fs.PathError the os package adds, so the
// *IOError built from it does not repeat the path and op.
func unwrapPathError(err error) error {
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return pathErr.Err
	}

	return err
}
