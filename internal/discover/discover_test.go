package discover_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gianged/cindex/internal/discover"
	"github.com/gianged/cindex/internal/secretgate"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
}

func TestDiscover_RespectsGitignore(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".gitignore", "vendor/\n*.log\n")
	writeFile(t, root, "main.go", "package main\n")
	writeFile(t, root, "vendor/dep.go", "package dep\n")
	writeFile(t, root, "debug.log", "noise\n")

	d, err := discover.NewDiscoverer(nil, nil)
	require.NoError(t, err)
	files, err := d.Discover(root)
	require.NoError(t, err)

	var rels []string
	for _, f := range files {
		rels = append(rels, f.RelPath)
	}
	assert.Contains(t, rels, "main.go")
	assert.NotContains(t, rels, "vendor/dep.go")
	assert.NotContains(t, rels, "debug.log")
}

func TestDiscover_SkipsAlwaysIgnoredDirs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".git/HEAD", "ref: refs/heads/main\n")
	writeFile(t, root, "main.go", "package main\n")

	d, err := discover.NewDiscoverer(nil, nil)
	require.NoError(t, err)
	files, err := d.Discover(root)
	require.NoError(t, err)

	for _, f := range files {
		assert.NotContains(t, f.RelPath, ".git/")
	}
}

func TestDiscover_FlagsSecretFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".env", "SECRET=1\n")
	writeFile(t, root, "main.go", "package main\n")

	filter, err := secretgate.NewFilter([]string{"*.env*"})
	require.NoError(t, err)
	d, err := discover.NewDiscoverer(nil, filter)
	require.NoError(t, err)
	files, err := d.Discover(root)
	require.NoError(t, err)

	for _, f := range files {
		if f.RelPath == ".env" {
			assert.True(t, f.IsSecret)
		}
		if f.RelPath == "main.go" {
			assert.False(t, f.IsSecret)
		}
	}
}

func TestDiscover_TagsLargeFileStrategy(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "app.min.js", "var x=1;\n")

	d, err := discover.NewDiscoverer(nil, nil)
	require.NoError(t, err)
	files, err := d.Discover(root)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, secretgate.StrategySkip, files[0].Strategy)
}
