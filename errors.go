package scandir

import (
	"errors"
	"fmt"
	"io/fs"
	"syscall"
)

var (
	// ErrNotFound indicates the scanned path does not exist.
	ErrNotFound = errors.New("not found")

	// ErrPermission indicates the OS refused access to the path.
	ErrPermission = errors.New("permission denied")

	// ErrInvalidState indicates a programming error: advancing a [Scanner]
	// past its end, or using it after [Scanner.Close].
	ErrInvalidState = errors.New("invalid state")
)

// ErrorKind classifies an [IOError].
type ErrorKind uint8

const (
	// KindOSError is the catch-all for native failures (EIO, EMFILE, ...).
	KindOSError ErrorKind = iota
	// KindNotFound means the path does not exist.
	KindNotFound
	// KindPermission means access was denied.
	KindPermission
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "not found"
	case KindPermission:
		return "permission denied"
	default:
		return "os error"
	}
}

// IOError is returned when a file system operation fails.
type IOError struct {
	// Path is the path the operation was attempted on.
	Path string
	// Op is the operation that failed: "open", "readdir", "close", "lstat"
	// or "stat".
	Op string
	// Kind classifies Err.
	Kind ErrorKind
	// Err is the underlying error.
	Err error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match the kind sentinels as well as their io/fs
// counterparts.
func (e *IOError) Is(target error) bool {
	switch target {
	case ErrNotFound, fs.ErrNotExist:
		return e.Kind == KindNotFound
	case ErrPermission, fs.ErrPermission:
		return e.Kind == KindPermission
	}

	return false
}

// Code returns the native error code (errno on Unix, the Win32 error code on
// Windows) or 0 if the underlying error carries none.
func (e *IOError) Code() uintptr {
	var errno syscall.Errno
	if errors.As(e.Err, &errno) {
		return uintptr(errno)
	}

	return 0
}

// newIOError wraps err for path/op and classifies it. An err that already is
// an *IOError is returned unchanged.
func newIOError(op, path string, err error) *IOError {
	var existing *IOError
	if errors.As(err, &existing) {
		return existing
	}

	return &IOError{Path: path, Op: op, Kind: classifyErr(err), Err: err}
}

// classifyErr relies on syscall.Errno implementing Is for the io/fs
// sentinels (ENOENT, ERROR_PATH_NOT_FOUND, EACCES, ERROR_ACCESS_DENIED, ...).
func classifyErr(err error) ErrorKind {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return KindNotFound
	case errors.Is(err, fs.ErrPermission):
		return KindPermission
	default:
		return KindOSError
	}
}
