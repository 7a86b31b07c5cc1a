package filter

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	gitignore "github.com/monochromegane/go-gitignore"
)

// GitignoreFile is the ignore file looked up at the walk root.
const GitignoreFile = ".gitignore"

// Gitignore matches paths against the .gitignore file at a walk root. Nested
// .gitignore files are not consulted.
//
// A nil *Gitignore ignores nothing.
type Gitignore struct {
	m gitignore.IgnoreMatcher
}

// LoadGitignore parses root/.gitignore. It returns nil and no error if the
// file does not exist.
func LoadGitignore(root string) (*Gitignore, error) {
	path := filepath.Join(root, GitignoreFile)

	_, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	m, err := gitignore.NewGitIgnore(path)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	return &Gitignore{m: m}, nil
}

// Ignored reports whether path is ignored. path must start with the root
// passed to LoadGitignore.
func (g *Gitignore) Ignored(path string, isDir bool) bool {
	if g == nil {
		return false
	}

	return g.m.Match(path, isDir)
}
