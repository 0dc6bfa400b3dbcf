// Package directive locates and evaluates conditional-compilation blocks
// (`#ifdef PLATFORM` / `#ifndef PLATFORM` ... `#endif`) embedded in
// cross-platform UI component sources.
//
// A directive block selects its body for exactly one of the platform targets
// a component library compiles to (H5, native app, WeChat/Alipay/... mini
// programs). The same logical directive appears in four physical encodings
// because sources pass through a template compiler that rewrites comments:
// HTML comments, `//` line comments, `/* */` block comments, and a
// post-compile marker call carrying the directive text as a string literal.
package directive

import "sort"

// Kind is the directive keyword. The keyword match is case-sensitive.
type Kind string

const (
	Ifdef  Kind = "ifdef"
	Ifndef Kind = "ifndef"
)

// Match is one directive block found in a source text.
type Match struct {
	// Syntax that produced the match.
	Syntax *Syntax

	Kind Kind

	// Expression is the raw platform expression between the keyword and the
	// closing delimiter, whitespace-trimmed.
	Expression string

	// Body is the text between the opening and closing markers.
	Body string

	// Start and End are byte offsets of the whole block (markers included)
	// in the scanned text.
	Start int
	End   int

	// Nested reports that the body contains another opening marker of the
	// same encoding. Scanning pairs an opener with the nearest #endif, so a
	// nested block is truncated at the inner close; callers should surface
	// this as a build warning.
	Nested bool
}

// KnownPlatforms lists the platform tokens the toolchain compiles to.
// Matching never consults this table (any token is legal in an expression);
// it backs the inspection and MCP surfaces.
var KnownPlatforms = []string{
	"H5",
	"APP-PLUS",
	"APP-PLUS-NVUE",
	"MP-WEIXIN",
	"MP-ALIPAY",
	"MP-BAIDU",
	"MP-TOUTIAO",
	"MP-LARK",
	"MP-QQ",
	"MP-KUAISHOU",
	"MP-JD",
	"MP-360",
	"QUICKAPP-WEBVIEW",
	"QUICKAPP-WEBVIEW-UNION",
	"QUICKAPP-WEBVIEW-HUAWEI",
}

// IsKnownPlatform reports whether token is in KnownPlatforms, ignoring case.
func IsKnownPlatform(token string) bool {
	i := sort.SearchStrings(sortedPlatforms, normalizeToken(token))
	return i < len(sortedPlatforms) && sortedPlatforms[i] == normalizeToken(token)
}

var sortedPlatforms = func() []string {
	s := make([]string, len(KnownPlatforms))
	copy(s, KnownPlatforms)
	sort.Strings(s)
	return s
}()
