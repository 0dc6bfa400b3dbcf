package directive

import "strings"

// Scan finds every directive block of the given encoding in text, in source
// order. It is a pure function: no state is carried between calls and the
// input is never modified.
//
// An opening marker pairs with the nearest #endif of the same encoding, so
// blocks never match across encodings and nesting is not supported; a match
// whose body contains another opener of the same encoding is flagged Nested.
// Unterminated blocks simply never match and pass through as literal text.
func Scan(text string, syn *Syntax) []Match {
	idx := syn.pattern.FindAllStringSubmatchIndex(text, -1)
	if idx == nil {
		return nil
	}

	matches := make([]Match, 0, len(idx))
	for _, m := range idx {
		// m holds pair offsets for the whole match and groups 1-3.
		body := text[m[6]:m[7]]
		matches = append(matches, Match{
			Syntax:     syn,
			Kind:       Kind(text[m[2]:m[3]]),
			Expression: strings.TrimSpace(text[m[4]:m[5]]),
			Body:       body,
			Start:      m[0],
			End:        m[1],
			Nested:     syn.opener.MatchString(body),
		})
	}
	return matches
}

// ScanAll runs Scan for each syntax against the same text and concatenates
// the results in syntax order. Offsets are all relative to the input text;
// callers that rewrite must apply one syntax at a time.
func ScanAll(text string, syntaxes []*Syntax) []Match {
	var matches []Match
	for _, syn := range syntaxes {
		matches = append(matches, Scan(text, syn)...)
	}
	return matches
}

// Line returns the 1-based line number of byte offset off in text.
func Line(text string, off int) int {
	if off > len(text) {
		off = len(text)
	}
	return 1 + strings.Count(text[:off], "\n")
}
