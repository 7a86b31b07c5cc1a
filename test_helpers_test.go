package scandir_test

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"testing"

	"github.com/calvinalkan/scandir"
)

const windowsOS = "windows"

func writeFile(t *testing.T, root, rel string, data []byte) {
	t.Helper()

	fullPath := filepath.Join(root, rel)
	parent := filepath.Dir(fullPath)

	err := os.MkdirAll(parent, 0o750)
	if err != nil {
		t.Fatalf("mkdir %s: %v", parent, err)
	}

	err = os.WriteFile(fullPath, data, 0o600)
	if err != nil {
		t.Fatalf("write %s: %v", fullPath, err)
	}
}

func writeDir(t *testing.T, root, rel string) {
	t.Helper()

	fullPath := filepath.Join(root, rel)

	err := os.MkdirAll(fullPath, 0o750)
	if err != nil {
		t.Fatalf("mkdir %s: %v", fullPath, err)
	}
}

func writeSymlink(t *testing.T, root, targetRel, linkRel string) {
	t.Helper()

	if runtime.GOOS == windowsOS {
		t.Skip("symlinks unreliable on windows")
	}

	target := filepath.Join(root, targetRel)
	link := filepath.Join(root, linkRel)

	parent := filepath.Dir(link)

	err := os.MkdirAll(parent, 0o750)
	if err != nil {
		t.Fatalf("mkdir %s: %v", parent, err)
	}

	err = os.Symlink(target, link)
	if err != nil {
		t.Fatalf("symlink %s -> %s: %v", link, target, err)
	}
}

// makeUnreadable removes all permissions from path and restores them when
// the test ends so t.TempDir cleanup succeeds.
func makeUnreadable(t *testing.T, path string) {
	t.Helper()

	if runtime.GOOS == windowsOS {
		t.Skip("chmod 000 unsupported on windows")
	}

	if os.Geteuid() == 0 {
		t.Skip("skipping permission test when running as root")
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat %s: %v", path, err)
	}

	origPerm := info.Mode().Perm()

	err = os.Chmod(path, 0)
	if err != nil {
		t.Fatalf("chmod: %v", err)
	}

	t.Cleanup(func() {
		_ = os.Chmod(path, origPerm)
	})
}

func entryNames(entries []*scandir.DirEntry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Name())
	}

	sort.Strings(out)

	return out
}

func assertStringSlicesEqual(t *testing.T, got, want []string) {
	t.Helper()

	gotSorted := append([]string(nil), got...)
	wantSorted := append([]string(nil), want...)

	sort.Strings(gotSorted)
	sort.Strings(wantSorted)

	if len(gotSorted) != len(wantSorted) {
		t.Fatalf("slice length mismatch: got=%d want=%d (got=%v want=%v)", len(gotSorted), len(wantSorted), gotSorted, wantSorted)
	}

	for i := range gotSorted {
		if gotSorted[i] != wantSorted[i] {
			t.Fatalf("slice mismatch at %d: got=%v want=%v", i, gotSorted, wantSorted)
		}
	}
}

func assertIOError(t *testing.T, err error, wantPath, wantOp string) *scandir.IOError {
	t.Helper()

	var ioErr *scandir.IOError
	if !errors.As(err, &ioErr) {
		t.Fatalf("expected IOError, got %T (%v)", err, err)
	}

	if ioErr.Path != wantPath {
		t.Fatalf("unexpected error path: got=%s want=%s", ioErr.Path, wantPath)
	}

	if ioErr.Op != wantOp {
		t.Fatalf("unexpected error op: got=%s want=%s", ioErr.Op, wantOp)
	}

	return ioErr
}
