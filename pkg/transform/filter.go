package transform

import (
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Default inclusion and exclusion sets for the file filter.
var (
	DefaultInclude = []string{
		"**/*.vue",
		"**/*.js",
		"**/*.ts",
		"**/*.css",
		"**/*.scss",
	}
	DefaultExclude = []string{"**/node_modules/**"}
)

// Filter decides which file ids are handed to the rewriting passes.
type Filter struct {
	include []string
	exclude []string
	isTest  bool
}

// NewFilter creates a filter. Nil include/exclude fall back to the defaults.
// In test mode, ids recognizable as test files are always accepted so that
// directive blocks inside tests are still exercised.
func NewFilter(include, exclude []string, isTest bool) *Filter {
	if include == nil {
		include = DefaultInclude
	}
	if exclude == nil {
		exclude = DefaultExclude
	}
	return &Filter{include: include, exclude: exclude, isTest: isTest}
}

// Match reports whether id should be transformed. Bundler query suffixes
// (`widget.vue?vue&type=script`) are stripped before matching.
func (f *Filter) Match(id string) bool {
	p := strings.ReplaceAll(stripQuery(id), "\\", "/")

	if f.isTest && isTestFile(p) {
		return true
	}
	for _, pattern := range f.exclude {
		if ok, _ := doublestar.PathMatch(pattern, p); ok {
			return false
		}
	}
	for _, pattern := range f.include {
		if ok, _ := doublestar.PathMatch(pattern, p); ok {
			return true
		}
	}
	return false
}

func stripQuery(id string) string {
	if i := strings.IndexByte(id, '?'); i >= 0 {
		return id[:i]
	}
	return id
}

// isTestFile matches the naming conventions test runners use.
func isTestFile(p string) bool {
	if strings.Contains(p, "__tests__/") {
		return true
	}
	base := path.Base(p)
	return strings.Contains(base, ".test.") || strings.Contains(base, ".spec.")
}
