package util

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestSourceCache_ReadAndHit(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.vue", "<template/>")

	c := NewSourceCache(0, testLogger())
	defer c.Close()

	data, err := c.Read(path)
	require.NoError(t, err)
	assert.Equal(t, "<template/>", string(data))

	// Second read is served from the cache.
	data, err = c.Read(path)
	require.NoError(t, err)
	assert.Equal(t, "<template/>", string(data))

	hits, misses := c.Stats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(1), misses)
	assert.Equal(t, 1, c.Len())
}

func TestSourceCache_EmptyFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "empty.js", "")

	c := NewSourceCache(0, testLogger())
	defer c.Close()

	data, err := c.Read(path)
	require.NoError(t, err)
	assert.NotNil(t, data)
	assert.Empty(t, data)
}

func TestSourceCache_MissingFile(t *testing.T) {
	c := NewSourceCache(0, testLogger())
	defer c.Close()

	_, err := c.Read(filepath.Join(t.TempDir(), "missing.js"))
	assert.Error(t, err)
}

func TestSourceCache_Invalidate(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.js", "old")

	c := NewSourceCache(0, testLogger())
	defer c.Close()

	data, err := c.Read(path)
	require.NoError(t, err)
	assert.Equal(t, "old", string(data))

	writeFile(t, dir, "a.js", "new")
	c.Invalidate(path)

	data, err = c.Read(path)
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))
}

func TestSourceCache_MaxFilesLimit(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.js", "a")
	b := writeFile(t, dir, "b.js", "b")

	c := NewSourceCache(1, testLogger())
	defer c.Close()

	_, err := c.Read(a)
	require.NoError(t, err)
	_, err = c.Read(b)
	assert.Error(t, err)

	// Cached entries stay readable at the limit.
	_, err = c.Read(a)
	assert.NoError(t, err)
}

func TestSourceCache_Close(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.js", "x")

	c := NewSourceCache(0, testLogger())
	_, err := c.Read(path)
	require.NoError(t, err)

	require.NoError(t, c.Close())
	assert.Equal(t, 0, c.Len())
}
