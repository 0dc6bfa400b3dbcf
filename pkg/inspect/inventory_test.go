package inspect

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uniplat/condc/pkg/directive"
)

func TestScanSource_OrderedRecords(t *testing.T) {
	code := "<template>\n" +
		"<!-- #ifdef MP-WEIXIN -->\n" +
		"<btn/>\n" +
		"<!-- #endif -->\n" +
		"</template>\n" +
		"<script>\n" +
		"// #ifndef H5\n" +
		"native()\n" +
		"// #endif\n" +
		"</script>\n"

	records := ScanSource("src/button.vue", code, "")
	require.Len(t, records, 2)

	assert.Equal(t, "src/button.vue", records[0].File)
	assert.Equal(t, directive.Ifdef, records[0].Kind)
	assert.Equal(t, "MP-WEIXIN", records[0].Expression)
	assert.Equal(t, "html-comment", records[0].Encoding)
	assert.Equal(t, 2, records[0].Line)

	assert.Equal(t, directive.Ifndef, records[1].Kind)
	assert.Equal(t, "H5", records[1].Expression)
	assert.Equal(t, "line-comment", records[1].Encoding)
	assert.Equal(t, 7, records[1].Line)
}

func TestScanSource_NoDirectives(t *testing.T) {
	assert.Nil(t, ScanSource("a.js", "plain()\n", ""))
}

func TestScanSource_FlagsNested(t *testing.T) {
	code := "<!-- #ifdef H5 -->a<!-- #ifdef MP -->b<!-- #endif -->"

	records := ScanSource("a.vue", code, "")
	require.Len(t, records, 1)
	assert.True(t, records[0].Nested)
}

func TestScanTree(t *testing.T) {
	root := t.TempDir()
	files := map[string]string{
		"src/page.vue":              "<!-- #ifdef H5 -->x<!-- #endif -->",
		"src/api.js":                "// #ifdef MP-WEIXIN\nwx()\n// #endif\n",
		"plain.js":                  "nothing()\n",
		"node_modules/pkg/index.js": "<!-- #ifdef H5 -->skipme<!-- #endif -->",
	}
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0644))
	}

	inv, err := ScanTree(root, nil, "")
	require.NoError(t, err)

	assert.Equal(t, 3, inv.Files)
	require.Len(t, inv.Records, 2)
	assert.Equal(t, []string{"H5", "MP-WEIXIN"}, inv.Platforms)
}

func TestTokens(t *testing.T) {
	assert.Equal(t, []string{"H5"}, Tokens("h5"))
	assert.Equal(t, []string{"H5", "MP-WEIXIN"}, Tokens("H5 || mp-weixin"))
	assert.Equal(t, []string{"H5", "APP-PLUS"}, Tokens("!H5&&APP-PLUS"))
	assert.Nil(t, Tokens(""))
}
