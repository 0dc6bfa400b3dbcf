package mcplog

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_EmptyPathDisabled(t *testing.T) {
	l, err := NewLogger("")
	require.NoError(t, err)
	assert.Nil(t, l)
}

func TestLogger_AppendsJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "tools.jsonl")
	l, err := NewLogger(path)
	require.NoError(t, err)
	defer l.Close()

	require.NoError(t, l.Write(Entry{Ts: "2026-01-01T00:00:00Z", Tool: "transform_source"}))
	require.NoError(t, l.Write(Entry{Ts: "2026-01-01T00:00:01Z", Tool: "list_platforms"}))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var tools []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var e Entry
		require.NoError(t, json.Unmarshal(sc.Bytes(), &e))
		tools = append(tools, e.Tool)
	}
	assert.Equal(t, []string{"transform_source", "list_platforms"}, tools)
}

func TestLogger_AppendsAcrossReopens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tools.jsonl")

	for i := 0; i < 2; i++ {
		l, err := NewLogger(path)
		require.NoError(t, err)
		require.NoError(t, l.Write(Entry{Tool: "transform_source"}))
		require.NoError(t, l.Close())
	}

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(data), "\n"))
}

func TestSanitizeParams(t *testing.T) {
	long := strings.Repeat("x", 200)
	out := SanitizeParams(map[string]any{
		"code":     long,
		"platform": "h5",
		"count":    3,
	})

	assert.Equal(t, 200, out["code_len"])
	assert.NotContains(t, out, "code")
	assert.Equal(t, "h5", out["platform"])
	assert.Equal(t, 3, out["count"])
}

func TestResponseBytes(t *testing.T) {
	assert.Equal(t, 0, ResponseBytes(nil))

	result := mcp.NewToolResultText("hello")
	assert.Greater(t, ResponseBytes(result), 0)
}
