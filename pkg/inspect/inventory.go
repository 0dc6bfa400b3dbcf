// Package inspect builds a read-only inventory of the directive blocks in a
// source tree: which files carry conditional code, for which platforms, and
// where the markers are malformed or nested. It backs `condc check` and the
// MCP inspection tools.
package inspect

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/uniplat/condc/pkg/directive"
	"github.com/uniplat/condc/pkg/workspace"
)

// Record is one directive block found in a file.
type Record struct {
	File       string         `json:"file"`
	Kind       directive.Kind `json:"kind"`
	Expression string         `json:"expression"`
	Encoding   string         `json:"encoding"`
	Line       int            `json:"line"`
	Nested     bool           `json:"nested,omitempty"`
}

// Inventory aggregates the records of a tree scan.
type Inventory struct {
	Records []Record `json:"records"`

	// Platforms is the sorted, de-duplicated set of platform tokens
	// referenced by any expression (negations stripped).
	Platforms []string `json:"platforms"`

	// Files is the number of files scanned, matched or not.
	Files int `json:"files"`
}

// ScanSource returns the directive records of one source text, in order of
// appearance. All four encodings are scanned; marker selects the
// post-compile call identifier ("" = default).
func ScanSource(file, code, marker string) []Record {
	matches := directive.ScanAll(code, directive.Syntaxes(marker))
	if len(matches) == 0 {
		return nil
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].Start < matches[j].Start })

	records := make([]Record, 0, len(matches))
	for _, m := range matches {
		records = append(records, Record{
			File:       file,
			Kind:       m.Kind,
			Expression: m.Expression,
			Encoding:   m.Syntax.Name,
			Line:       directive.Line(code, m.Start),
			Nested:     m.Nested,
		})
	}
	return records
}

// ScanTree walks root (honoring the workspace skip patterns) and scans
// every file. Unreadable files are skipped.
func ScanTree(root string, skip []string, marker string) (*Inventory, error) {
	if skip == nil {
		skip = workspace.DefaultSkip
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root path: %w", err)
	}

	files, err := workspace.Discover(absRoot, skip)
	if err != nil {
		return nil, fmt.Errorf("discovery failed: %w", err)
	}

	inv := &Inventory{Files: len(files)}
	for _, rel := range files {
		content, err := os.ReadFile(filepath.Join(absRoot, filepath.FromSlash(rel)))
		if err != nil {
			continue
		}
		inv.Records = append(inv.Records, ScanSource(rel, string(content), marker)...)
	}

	inv.Platforms = collectPlatforms(inv.Records)
	return inv, nil
}

var tokenSplit = regexp.MustCompile(`\s*(?:\|\||&&)\s*`)

// Tokens returns the atomic platform tokens of an expression, uppercased,
// with negation prefixes stripped.
func Tokens(expression string) []string {
	var tokens []string
	for _, t := range tokenSplit.Split(expression, -1) {
		t = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(t), "!"))
		if t != "" {
			tokens = append(tokens, strings.ToUpper(t))
		}
	}
	return tokens
}

func collectPlatforms(records []Record) []string {
	seen := make(map[string]bool)
	for _, r := range records {
		for _, t := range Tokens(r.Expression) {
			seen[t] = true
		}
	}
	platforms := make([]string, 0, len(seen))
	for t := range seen {
		platforms = append(platforms, t)
	}
	sort.Strings(platforms)
	return platforms
}
