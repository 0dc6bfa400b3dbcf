package workspace

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

func readOutput(t *testing.T, outDir, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(outDir, filepath.FromSlash(rel)))
	require.NoError(t, err)
	return string(data)
}

func TestProcessor_Run(t *testing.T) {
	root := t.TempDir()
	outDir := t.TempDir()
	writeTree(t, root, map[string]string{
		"src/page.vue":  "<!-- #ifdef H5 -->\n<web/>\n<!-- #endif -->\n",
		"src/api.js":    "// #ifdef MP-WEIXIN\nwx.request()\n// #endif\ndone()\n",
		"theme.scss":    "/* #ifdef H5 */.web{}/* #endif */\n",
		"package.json":  "{\"name\":\"demo\"}\n",
		"docs/notes.md": "plain\n",
	})

	proc := NewProcessor(Options{Platform: "h5", OutDir: outDir}, testLogger())
	defer proc.Close()

	stats, err := proc.Run(root, nil)
	require.NoError(t, err)

	assert.Equal(t, 5, stats.FilesDiscovered)
	assert.Equal(t, 3, stats.FilesTransformed)
	assert.Equal(t, 2, stats.FilesUnchanged)
	assert.Equal(t, 0, stats.FilesFailed)

	assert.Equal(t, "\n<web/>\n\n", readOutput(t, outDir, "src/page.vue"))
	assert.Equal(t, "done()\n", readOutput(t, outDir, "src/api.js"))
	assert.Equal(t, ".web{}\n", readOutput(t, outDir, "theme.scss"))

	// Files outside the include set are copied through byte for byte.
	assert.Equal(t, "{\"name\":\"demo\"}\n", readOutput(t, outDir, "package.json"))
	assert.Equal(t, "plain\n", readOutput(t, outDir, "docs/notes.md"))
}

func TestProcessor_RunReportsProgress(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a.js": "x\n", "b.js": "y\n"})

	proc := NewProcessor(Options{Platform: "h5"}, testLogger())
	defer proc.Close()

	var calls int
	_, err := proc.Run(root, func(done, total int, _ string) {
		calls++
		assert.Equal(t, 2, total)
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestProcessor_RunPrunesOutDirInsideRoot(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a.js": "x\n"})
	outDir := filepath.Join(root, "dist-h5")

	proc := NewProcessor(Options{Platform: "h5", OutDir: outDir}, testLogger())
	defer proc.Close()

	// Two runs: the second must not discover the first run's output.
	_, err := proc.Run(root, nil)
	require.NoError(t, err)
	stats, err := proc.Run(root, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.FilesDiscovered)
}

func TestProcessor_ProcessFile(t *testing.T) {
	root := t.TempDir()
	outDir := t.TempDir()
	writeTree(t, root, map[string]string{
		"src/page.vue": "<!-- #ifndef H5 -->native<!-- #endif -->keep",
	})

	proc := NewProcessor(Options{Platform: "h5", OutDir: outDir}, testLogger())
	defer proc.Close()

	changed, err := proc.ProcessFile(root, "src/page.vue")
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, "keep", readOutput(t, outDir, "src/page.vue"))

	// A subsequent edit is picked up despite the source cache.
	writeTree(t, root, map[string]string{"src/page.vue": "plain"})
	changed, err = proc.ProcessFile(root, "src/page.vue")
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, "plain", readOutput(t, outDir, "src/page.vue"))
}

func TestProcessor_RemoveOutput(t *testing.T) {
	root := t.TempDir()
	outDir := t.TempDir()
	writeTree(t, root, map[string]string{"a.js": "x\n"})

	proc := NewProcessor(Options{Platform: "h5", OutDir: outDir}, testLogger())
	defer proc.Close()

	_, err := proc.Run(root, nil)
	require.NoError(t, err)

	require.NoError(t, proc.RemoveOutput("a.js"))
	_, err = os.Stat(filepath.Join(outDir, "a.js"))
	assert.True(t, os.IsNotExist(err))

	// Removing a file that was never emitted is not an error.
	assert.NoError(t, proc.RemoveOutput("missing.js"))
}

func TestProcessor_DryRunWithoutOutDir(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"a.vue": "<!-- #ifdef H5 -->x<!-- #endif -->",
	})

	proc := NewProcessor(Options{Platform: "h5"}, testLogger())
	defer proc.Close()

	stats, err := proc.Run(root, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.FilesTransformed)
}
