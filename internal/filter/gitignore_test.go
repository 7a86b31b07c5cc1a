package filter

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadGitignore_MissingFile_ReturnsNil(t *testing.T) {
	g, err := LoadGitignore(t.TempDir())
	require.NoError(t, err)
	assert.Nil(t, g)

	assert.False(t, g.Ignored("anything", false))
}

func TestGitignore_Ignored_MatchesPatterns(t *testing.T) {
	root := t.TempDir()
	content := "*.log\nbuild/\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, GitignoreFile), []byte(content), 0o600))

	g, err := LoadGitignore(root)
	require.NoError(t, err)
	require.NotNil(t, g)

	assert.True(t, g.Ignored(filepath.Join(root, "debug.log"), false))
	assert.True(t, g.Ignored(filepath.Join(root, "build"), true))
	assert.False(t, g.Ignored(filepath.Join(root, "main.go"), false))
	assert.False(t, g.Ignored(filepath.Join(root, "src"), true))
}
