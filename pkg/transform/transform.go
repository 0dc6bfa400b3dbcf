// Package transform rewrites one source file at a time by evaluating its
// conditional-compilation blocks against a target platform. It is the
// per-file hook a bundler (or the workspace pipeline) calls for every file
// in a build.
package transform

import (
	"encoding/json"
	"log/slog"
	"os"
	"path"
	"strings"

	"github.com/uniplat/condc/pkg/directive"
)

// Options configures a Transformer. Zero values fall back to the defaults
// the toolchain ships with.
type Options struct {
	// Platform is the compile target the directive expressions are
	// evaluated against. Default "h5".
	Platform string

	// Include and Exclude are doublestar patterns deciding which file ids
	// reach the rewriting passes. Defaults cover .vue/.js/.ts/.css/.scss
	// and skip node_modules.
	Include []string
	Exclude []string

	// Marker is the call identifier of the post-template-compile encoding.
	// Default directive.DefaultMarker.
	Marker string

	// IsTest keeps blocks guarded by test-runner tokens and admits test
	// files past the filter. Default derived from the environment, see
	// TestModeFromEnv.
	IsTest bool
}

// TestModeFromEnv reports whether the build is running under a test runner,
// derived from the NODE_ENV and VITEST environment signals.
func TestModeFromEnv() bool {
	return os.Getenv("NODE_ENV") == "test" || os.Getenv("VITEST") != ""
}

// DefaultOptions returns the options used when a field is left zero.
func DefaultOptions() Options {
	return Options{
		Platform: "h5",
		Include:  DefaultInclude,
		Exclude:  DefaultExclude,
		Marker:   directive.DefaultMarker,
		IsTest:   TestModeFromEnv(),
	}
}

// Result is the rewritten file. Map is always null: the transform splices
// whole comment-delimited regions and emits no source map.
type Result struct {
	Code string          `json:"code"`
	Map  json.RawMessage `json:"map"`
}

// Transformer applies the directive passes to source text. It holds no
// per-file state, so one instance is shared across every file of a build
// and is safe for concurrent use.
type Transformer struct {
	platform string
	isTest   bool
	filter   *Filter
	passes   []*directive.Syntax
	style    *directive.Syntax
	logger   *slog.Logger

	// keep decides block survival; replaceable in tests.
	keep func(kind directive.Kind, expression string) bool
}

// New creates a Transformer. A nil logger falls back to slog.Default().
func New(opts Options, logger *slog.Logger) *Transformer {
	if opts.Platform == "" {
		opts.Platform = "h5"
	}
	if opts.Marker == "" {
		opts.Marker = directive.DefaultMarker
	}
	if logger == nil {
		logger = slog.Default()
	}

	t := &Transformer{
		platform: opts.Platform,
		isTest:   opts.IsTest,
		filter:   NewFilter(opts.Include, opts.Exclude, opts.IsTest),
		passes:   directive.Syntaxes(opts.Marker),
		style:    directive.BlockComment,
		logger:   logger,
	}
	t.keep = func(kind directive.Kind, expression string) bool {
		return directive.ShouldKeep(kind, expression, t.platform, t.isTest)
	}
	return t
}

// Platform returns the configured compile target.
func (t *Transformer) Platform() string { return t.platform }

// Filter returns the file filter gating Transform.
func (t *Transformer) Filter() *Filter { return t.filter }

// Transform is the per-file entry point: ids rejected by the filter are
// passed through untouched and never reach the rewriting passes. The bool
// reports whether the text changed; on false the caller keeps the original.
func (t *Transformer) Transform(code, id string) (*Result, bool) {
	if !t.filter.Match(id) {
		return nil, false
	}
	return t.Rewrite(code, id)
}

// Rewrite runs the passes unconditionally, in fixed order: HTML comment,
// marker call, line comment, block comment, then the stylesheet block pass
// for style ids. Each pass does a global replace over the previous pass's
// output. A failure while processing one file is recovered, logged with the
// file id, and leaves that file unmodified; it never aborts the build.
func (t *Transformer) Rewrite(code, id string) (res *Result, changed bool) {
	defer func() {
		if r := recover(); r != nil {
			t.logger.Error("conditional compile failed, file left unmodified",
				"id", id, "error", r)
			res, changed = nil, false
		}
	}()

	out := code
	for _, syn := range t.passes {
		out = t.rewritePass(out, syn, id)
	}
	if IsStyleID(id) {
		out = t.rewritePass(out, t.style, id)
	}

	if out == code {
		return nil, false
	}
	return &Result{Code: out}, true
}

// rewritePass replaces every block of one encoding: kept blocks collapse to
// their body, deleted blocks to the empty string. Bytes outside matches are
// copied through untouched.
func (t *Transformer) rewritePass(text string, syn *directive.Syntax, id string) string {
	matches := directive.Scan(text, syn)
	if len(matches) == 0 {
		return text
	}

	var b strings.Builder
	b.Grow(len(text))
	last := 0
	for _, m := range matches {
		if m.Nested {
			t.logger.Warn("nested directive block truncated at inner #endif",
				"id", id, "encoding", syn.Name, "expression", m.Expression,
				"line", directive.Line(text, m.Start))
		}
		b.WriteString(text[last:m.Start])
		if t.keep(m.Kind, m.Expression) {
			b.WriteString(m.Body)
		}
		last = m.End
	}
	b.WriteString(text[last:])
	return b.String()
}

// IsStyleID reports whether the id names stylesheet content: a css/scss/less
// extension or a compiler-generated id carrying "style" (such as an SFC
// style block, `widget.vue?vue&type=style`).
func IsStyleID(id string) bool {
	if strings.Contains(id, "style") {
		return true
	}
	switch path.Ext(stripQuery(id)) {
	case ".css", ".scss", ".less":
		return true
	}
	return false
}
