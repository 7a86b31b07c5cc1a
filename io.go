package scandir

// ============================================================================
// Internal I/O backend contract
// ============================================================================
//
// Scanner, DirEntry and the walker are written against a small set of
// unexported, platform-dependent functions and types (the backend contract).
//
// Implementations live in build-tagged backend files:
//   - Linux fast path:                 io_linux.go   (getdents64, d_type hint)
//   - Mainstream non-Linux Unix:       io_unix.go    ((*os.File).ReadDir, d_type hint)
//   - Windows:                         io_windows.go (FindFirstFile, hint + free status)
//   - Everything else:                 io_other.go   (names only, no hint)
//
// Status queries live in stat_unix.go, stat_windows.go and stat_other.go.
//
// Semantics expected from every backend:
//
//   - openStream follows a symlink given as the directory path itself. The
//     walker relies on this to descend into symlinked directories when links
//     are followed.
//
//   - dirStream.next returns exactly one child per call, or io.EOF at the end.
//     "." and ".." are never returned. Any other error is a step failure; the
//     caller releases the stream and does not call next again.
//
//   - rawEntry.kind is KindUnknown unless the enumeration call itself reported
//     the type. Backends must not issue a status query to fill it in.
//
//   - rawEntry.free is non-nil only when the enumeration call already returned
//     the complete status record (Windows find data). It is invoked at most
//     once, lazily.
//
//   - dirStream.closeHandle is called exactly once per successful openStream.

const (
	// dirReadBufSize is the getdents64 buffer size on Linux. Large enough to
	// read many entries per syscall, small enough to stay in L1 cache.
	dirReadBufSize = 32 * 1024

	// readDirBatchSize is the (*os.File).ReadDir/Readdirnames batch size on
	// platforms that enumerate through the os package.
	readDirBatchSize = 256
)

// rawEntry is one child record as reported by the native enumeration call.
type rawEntry struct {
	name string
	kind Kind
	free func() Stat
}

// dirStream is one open native enumeration session.
type dirStream interface {
	next() (rawEntry, error)
	closeHandle() error
}

// backend bundles directory enumeration and status queries so tests can
// substitute counting or failing doubles.
type backend interface {
	openStream(path string) (dirStream, error)
	// lstat queries path without following a final symlink.
	lstat(path string) (Stat, error)
	// stat queries path, following symlinks.
	stat(path string) (Stat, error)
}

// osBackend is the build-selected native backend. Its methods are spread
// across the io_*.go and stat_*.go files.
type osBackend struct{}

var _ backend = osBackend{}
