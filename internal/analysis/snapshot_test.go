package analysis

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/mrz1836/go-pranalyzer/internal/errors"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	full := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o750))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o600))
}

func TestSnapshotNotSet(t *testing.T) {
	c := NewContext(PRData{})
	_, _, err := c.FileContentHead("main.go")
	require.ErrorIs(t, err, appErrors.ErrSnapshotNotSet)
}

func TestSetSnapshotValidation(t *testing.T) {
	c := NewContext(PRData{})

	err := c.SetBaseSnapshot(filepath.Join(t.TempDir(), "missing"))
	require.ErrorIs(t, err, appErrors.ErrSnapshotMissing)

	file := filepath.Join(t.TempDir(), "f.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o600))
	require.ErrorIs(t, c.SetHeadSnapshot(file), appErrors.ErrSnapshotMissing)
}

func TestFileContent(t *testing.T) {
	base := t.TempDir()
	head := t.TempDir()
	writeFile(t, base, "pkg/main.go", "package old")
	writeFile(t, head, "pkg/main.go", "package new")

	c := NewContext(PRData{})
	defer c.Close()
	require.NoError(t, c.SetBaseSnapshot(base))
	require.NoError(t, c.SetHeadSnapshot(head))
	assert.NotEmpty(t, c.BaseSnapshot())
	assert.NotEmpty(t, c.HeadSnapshot())

	content, found, err := c.FileContentBase("pkg/main.go")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "package old", content)

	content, found, err = c.FileContentHead("pkg/main.go")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "package new", content)

	content, found, err = c.FileContentHead("pkg/missing.go")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, content)
}

func TestFileContentIsCached(t *testing.T) {
	head := t.TempDir()
	writeFile(t, head, "a.go", "v1")

	c := NewContext(PRData{})
	require.NoError(t, c.SetHeadSnapshot(head))

	content, _, err := c.FileContentHead("a.go")
	require.NoError(t, err)
	assert.Equal(t, "v1", content)

	writeFile(t, head, "a.go", "v2")
	content, _, err = c.FileContentHead("a.go")
	require.NoError(t, err)
	assert.Equal(t, "v1", content)

	stats := c.SnapshotCacheStats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, 1, stats.Entries)
	assert.Positive(t, stats.Misses)
	assert.Greater(t, stats.HitRate, 0.0)

	c.Close()
	assert.Equal(t, stats, c.SnapshotCacheStats())
	content, _, err = c.FileContentHead("a.go")
	require.NoError(t, err)
	assert.Equal(t, "v2", content)
}

func TestFileContentConfinedToSnapshot(t *testing.T) {
	parent := t.TempDir()
	head := filepath.Join(parent, "head")
	writeFile(t, parent, "secret.txt", "nope")
	writeFile(t, head, "ok.txt", "ok")

	c := NewContext(PRData{})
	defer c.Close()
	require.NoError(t, c.SetHeadSnapshot(head))

	_, found, err := c.FileContentHead("../secret.txt")
	require.NoError(t, err)
	assert.False(t, found)
}
