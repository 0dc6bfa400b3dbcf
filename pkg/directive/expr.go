package directive

import (
	"regexp"
	"strings"
)

var (
	orSplit  = regexp.MustCompile(`\s*\|\|\s*`)
	andSplit = regexp.MustCompile(`\s*&&\s*`)
)

// Eval decides whether a platform expression holds for the target platform.
//
// `||` is checked before `&&`, so a mixed expression is treated as an OR of
// terms and a term that still contains `&&` is evaluated as a single atomic
// token. Kept for compatibility with the upstream preprocessor; combined with
// substring matching it means `H5&&APP-PLUS||X` is true for platform "h5"
// because the literal term contains "H5". Compound expressions should stick
// to one operator.
func Eval(expression, platform string) bool {
	switch {
	case strings.Contains(expression, "||"):
		for _, term := range orSplit.Split(expression, -1) {
			if evalTerm(term, platform) {
				return true
			}
		}
		return false
	case strings.Contains(expression, "&&"):
		for _, term := range andSplit.Split(expression, -1) {
			if !evalTerm(term, platform) {
				return false
			}
		}
		return true
	default:
		return evalTerm(expression, platform)
	}
}

// evalTerm evaluates one atomic token against the platform. Tokens match
// case-insensitively when equal or when either contains the other, so a
// condition of WEIXIN selects the whole MP-WEIXIN platform family. A leading
// `!` inverts the result; an empty term is false.
func evalTerm(term, platform string) bool {
	term = strings.TrimSpace(term)
	if term == "" {
		return false
	}

	negate := false
	if strings.HasPrefix(term, "!") {
		negate = true
		term = term[1:]
	}

	target := normalizeToken(term)
	plat := normalizeToken(platform)
	ok := target == plat ||
		strings.Contains(target, plat) ||
		strings.Contains(plat, target)

	if negate {
		return !ok
	}
	return ok
}

// HasTestToken reports whether the raw expression references a test-runner
// platform token ("TEST" or "VITEST", any case).
func HasTestToken(expression string) bool {
	up := strings.ToUpper(expression)
	return strings.Contains(up, "VITEST") || strings.Contains(up, "TEST")
}

// ShouldKeep is the block-level decision: the body survives when the
// expression holds for an ifdef, or fails for an ifndef. In test mode a
// directive referencing a test-runner token is kept unconditionally; the
// override is checked once per directive, before operator dispatch, and does
// not recurse into compound terms.
func ShouldKeep(kind Kind, expression, platform string, isTest bool) bool {
	if isTest && HasTestToken(expression) {
		return true
	}
	ok := Eval(expression, platform)
	if kind == Ifndef {
		return !ok
	}
	return ok
}

func normalizeToken(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
