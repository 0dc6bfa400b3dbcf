package inspect

import (
	"sort"
	"strings"

	"github.com/uniplat/condc/pkg/directive"
)

// QueryService answers questions over a scanned inventory.
type QueryService struct {
	inv *Inventory
}

// NewQueryService wraps an inventory.
func NewQueryService(inv *Inventory) *QueryService {
	return &QueryService{inv: inv}
}

// Inventory returns the underlying inventory.
func (q *QueryService) Inventory() *Inventory { return q.inv }

// FilesForPlatform returns the files with at least one directive whose
// expression references the given platform token, using the same
// family-matching rule as evaluation (WEIXIN matches MP-WEIXIN).
func (q *QueryService) FilesForPlatform(token string) []string {
	token = strings.ToUpper(strings.TrimSpace(token))
	seen := make(map[string]bool)
	for _, r := range q.inv.Records {
		for _, t := range Tokens(r.Expression) {
			if t == token || strings.Contains(t, token) || strings.Contains(token, t) {
				seen[r.File] = true
				break
			}
		}
	}

	files := make([]string, 0, len(seen))
	for f := range seen {
		files = append(files, f)
	}
	sort.Strings(files)
	return files
}

// Survivors returns the records whose bodies would be kept when compiling
// for platform.
func (q *QueryService) Survivors(platform string, isTest bool) []Record {
	var kept []Record
	for _, r := range q.inv.Records {
		if directive.ShouldKeep(r.Kind, r.Expression, platform, isTest) {
			kept = append(kept, r)
		}
	}
	return kept
}

// Nested returns the records flagged as nested, the blocks the rewriter
// would truncate at the inner #endif.
func (q *QueryService) Nested() []Record {
	var nested []Record
	for _, r := range q.inv.Records {
		if r.Nested {
			nested = append(nested, r)
		}
	}
	return nested
}

// Summary condenses an inventory for reporting.
type Summary struct {
	Files      int      `json:"files"`
	Directives int      `json:"directives"`
	Nested     int      `json:"nested"`
	Platforms  []string `json:"platforms"`
	Unknown    []string `json:"unknown_platforms,omitempty"`
}

// Summarize returns counts plus any referenced tokens that are not known
// platform names (often typos, sometimes custom targets).
func (q *QueryService) Summarize() Summary {
	s := Summary{
		Files:      q.inv.Files,
		Directives: len(q.inv.Records),
		Nested:     len(q.Nested()),
		Platforms:  q.inv.Platforms,
	}
	for _, t := range q.inv.Platforms {
		if !directive.IsKnownPlatform(t) && strings.ToUpper(t) != "TEST" && strings.ToUpper(t) != "VITEST" {
			s.Unknown = append(s.Unknown, t)
		}
	}
	return s
}
