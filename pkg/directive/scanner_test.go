package directive

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- per-encoding capture ---

func TestScan_HTMLComment(t *testing.T) {
	code := "A\n<!-- #ifdef H5 -->\nB\n<!-- #endif -->\nC\n"

	matches := Scan(code, HTMLComment)
	require.Len(t, matches, 1)
	m := matches[0]
	assert.Equal(t, Ifdef, m.Kind)
	assert.Equal(t, "H5", m.Expression)
	assert.Equal(t, "\nB\n", m.Body)
	assert.Equal(t, code[m.Start:m.End], "<!-- #ifdef H5 -->\nB\n<!-- #endif -->")
	assert.False(t, m.Nested)
}

func TestScan_HTMLCommentIfndef(t *testing.T) {
	code := "<!-- #ifndef MP-WEIXIN -->x<!-- #endif -->"

	matches := Scan(code, HTMLComment)
	require.Len(t, matches, 1)
	assert.Equal(t, Ifndef, matches[0].Kind)
	assert.Equal(t, "MP-WEIXIN", matches[0].Expression)
	assert.Equal(t, "x", matches[0].Body)
}

func TestScan_LineComment(t *testing.T) {
	code := "a\n// #ifdef MP-WEIXIN\nwx.request()\n// #endif\nb\n"

	matches := Scan(code, LineComment)
	require.Len(t, matches, 1)
	m := matches[0]
	assert.Equal(t, Ifdef, m.Kind)
	assert.Equal(t, "MP-WEIXIN", m.Expression)
	assert.Equal(t, "wx.request()\n", m.Body)
	// Both marker lines are inside the span, newlines included, so a
	// deleted block leaves no stray blank lines.
	assert.Equal(t, "// #ifdef MP-WEIXIN\nwx.request()\n// #endif\n", code[m.Start:m.End])
}

func TestScan_LineCommentIndented(t *testing.T) {
	code := "f()\n  // #ifdef H5\n  web()\n  // #endif\ng()\n"

	matches := Scan(code, LineComment)
	require.Len(t, matches, 1)
	assert.Equal(t, "H5", matches[0].Expression)
	assert.Equal(t, "  web()\n", matches[0].Body)
}

func TestScan_BlockComment(t *testing.T) {
	code := "x/* #ifdef H5 */web();/* #endif */y"

	matches := Scan(code, BlockComment)
	require.Len(t, matches, 1)
	assert.Equal(t, Ifdef, matches[0].Kind)
	assert.Equal(t, "H5", matches[0].Expression)
	assert.Equal(t, "web();", matches[0].Body)
}

func TestScan_MarkerCall(t *testing.T) {
	syn := MarkerSyntax(DefaultMarker)
	code := `createCommentVNode(" #ifdef MP-WEIXIN ", true) render() createCommentVNode(" #endif ", true)`

	matches := Scan(code, syn)
	require.Len(t, matches, 1)
	assert.Equal(t, Ifdef, matches[0].Kind)
	assert.Equal(t, "MP-WEIXIN", matches[0].Expression)
	assert.Equal(t, " render() ", matches[0].Body)
}

func TestScan_MarkerCallCustomIdent(t *testing.T) {
	syn := MarkerSyntax("_cm")
	code := `_cm("#ifndef H5")native()_cm("#endif")`

	matches := Scan(code, syn)
	require.Len(t, matches, 1)
	assert.Equal(t, Ifndef, matches[0].Kind)
	assert.Equal(t, "H5", matches[0].Expression)
	assert.Equal(t, "native()", matches[0].Body)
}

// --- pairing rules ---

func TestScan_NoCrossEncodingPairing(t *testing.T) {
	// An HTML open must pair with an HTML close only.
	code := "<!-- #ifdef H5 -->x/* #endif */"
	assert.Empty(t, Scan(code, HTMLComment))
	assert.Empty(t, Scan(code, BlockComment))
}

func TestScan_UnterminatedBlockDoesNotMatch(t *testing.T) {
	assert.Empty(t, Scan("<!-- #ifdef H5 -->\nno close\n", HTMLComment))
	assert.Empty(t, Scan("// #ifdef H5\nno close\n", LineComment))
}

func TestScan_MultipleBlocks(t *testing.T) {
	code := "<!-- #ifdef H5 -->a<!-- #endif -->mid<!-- #ifndef H5 -->b<!-- #endif -->"

	matches := Scan(code, HTMLComment)
	require.Len(t, matches, 2)
	assert.Equal(t, Ifdef, matches[0].Kind)
	assert.Equal(t, "a", matches[0].Body)
	assert.Equal(t, Ifndef, matches[1].Kind)
	assert.Equal(t, "b", matches[1].Body)
	assert.Less(t, matches[0].End, matches[1].Start)
}

func TestScan_NestedBlockFlaggedAndTruncated(t *testing.T) {
	code := "<!-- #ifdef H5 -->a<!-- #ifdef APP-PLUS -->b<!-- #endif -->c<!-- #endif -->"

	matches := Scan(code, HTMLComment)
	require.Len(t, matches, 1)
	m := matches[0]
	// Non-greedy pairing closes at the inner #endif and flags the match.
	assert.Equal(t, "a<!-- #ifdef APP-PLUS -->b", m.Body)
	assert.True(t, m.Nested)
}

func TestScan_KeywordIsCaseSensitive(t *testing.T) {
	assert.Empty(t, Scan("<!-- #IFDEF H5 -->x<!-- #endif -->", HTMLComment))
}

// --- helpers ---

func TestScanAll(t *testing.T) {
	code := "<!-- #ifdef H5 -->a<!-- #endif -->\n// #ifndef H5\nb\n// #endif\n"

	matches := ScanAll(code, Syntaxes(""))
	require.Len(t, matches, 2)
}

func TestLine(t *testing.T) {
	code := "a\nb\nc"
	assert.Equal(t, 1, Line(code, 0))
	assert.Equal(t, 2, Line(code, 2))
	assert.Equal(t, 3, Line(code, 4))
}
