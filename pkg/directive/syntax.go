package directive

import (
	"fmt"
	"regexp"
)

// Syntax describes one physical encoding of a directive block: a compiled
// whole-block pattern (non-greedy, so an opener pairs with the nearest
// #endif of the same encoding) plus an opener probe used for nested-marker
// detection. Capture groups are fixed across encodings: 1 = kind,
// 2 = expression, 3 = body.
type Syntax struct {
	Name string

	pattern *regexp.Regexp
	opener  *regexp.Regexp
}

// expr is the platform expression grammar: tokens of letters, digits, `-`
// and `_`, combined with `||` / `&&`, optionally `!`-prefixed.
const expr = `[\w|&!\- \t]+?`

// Patterns are package-level immutable constants compiled once; they hold no
// per-invocation state, so sharing them across build workers is safe.
var (
	// HTMLComment matches `<!-- #ifdef EXPR --> BODY <!-- #endif -->`.
	HTMLComment = &Syntax{
		Name:    "html-comment",
		pattern: regexp.MustCompile(`<!--[ \t]*#(ifdef|ifndef)[ \t]+(` + expr + `)[ \t]*-->([\s\S]*?)<!--[ \t]*#endif[ \t]*-->`),
		opener:  regexp.MustCompile(`<!--[ \t]*#(?:ifdef|ifndef)[ \t]`),
	}

	// LineComment matches `// #ifdef EXPR` ... `// #endif`, each marker
	// alone on its line. The close consumes its whole line so a deleted
	// block leaves no stray blank line behind.
	LineComment = &Syntax{
		Name:    "line-comment",
		pattern: regexp.MustCompile(`(?m)^[ \t]*//[ \t]*#(ifdef|ifndef)[ \t]+(` + expr + `)[ \t]*\n([\s\S]*?)^[ \t]*//[ \t]*#endif[^\n]*\n?`),
		opener:  regexp.MustCompile(`(?m)^[ \t]*//[ \t]*#(?:ifdef|ifndef)[ \t]`),
	}

	// BlockComment matches `/* #ifdef EXPR */ BODY /* #endif */`. This is
	// the only encoding stylesheets support.
	BlockComment = &Syntax{
		Name:    "block-comment",
		pattern: regexp.MustCompile(`/\*[ \t]*#(ifdef|ifndef)[ \t]+(` + expr + `)[ \t]*\*/([\s\S]*?)/\*[ \t]*#endif[ \t]*\*/`),
		opener:  regexp.MustCompile(`/\*[ \t]*#(?:ifdef|ifndef)[ \t]`),
	}
)

// DefaultMarker is the call identifier the template compiler emits for
// comments it lifts out of templates.
const DefaultMarker = "createCommentVNode"

// MarkerSyntax builds the post-compile encoding for the given call
// identifier: `IDENT("#ifdef EXPR") BODY IDENT("#endif")`, where the
// directive text sits in a string literal and the call may carry trailing
// arguments.
func MarkerSyntax(ident string) *Syntax {
	q := regexp.QuoteMeta(ident)
	open := fmt.Sprintf(`%s\(\s*["']\s*#(ifdef|ifndef)[ \t]+(%s)\s*["']\s*(?:,[^)]*)?\)`, q, expr)
	end := fmt.Sprintf(`%s\(\s*["']\s*#endif\s*["']\s*(?:,[^)]*)?\)`, q)
	return &Syntax{
		Name:    "marker-call",
		pattern: regexp.MustCompile(open + `([\s\S]*?)` + end),
		opener:  regexp.MustCompile(fmt.Sprintf(`%s\(\s*["']\s*#(?:ifdef|ifndef)[ \t]`, q)),
	}
}

// Syntaxes returns the script-side encodings in the fixed pass order the
// rewriter applies: HTML comment, marker call, line comment, block comment.
// An empty marker falls back to DefaultMarker.
func Syntaxes(marker string) []*Syntax {
	if marker == "" {
		marker = DefaultMarker
	}
	return []*Syntax{HTMLComment, MarkerSyntax(marker), LineComment, BlockComment}
}
