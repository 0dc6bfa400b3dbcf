// Package workspace runs the conditional-compilation transform over a whole
// source tree: discovery, parallel per-file rewriting, output emission, a
// content-addressed result cache, and a watch mode for incremental rebuilds.
package workspace

import (
	"time"
)

// Options configures a workspace run.
type Options struct {
	// Platform is the compile target, e.g. "h5" or "mp-weixin".
	Platform string

	// Include and Exclude gate which files the transformer rewrites
	// (doublestar patterns, relative to the workspace root). Files outside
	// the include set are still copied through to the output tree.
	Include []string
	Exclude []string

	// Skip are discovery patterns never walked at all. Defaults to
	// node_modules, VCS and build-output directories.
	Skip []string

	// OutDir receives the processed tree, preserving relative paths.
	// Empty means dry run: transform and collect stats, write nothing.
	OutDir string

	// Marker is the post-compile call identifier, see directive.MarkerSyntax.
	Marker string

	// IsTest enables the test-mode overrides of the transform.
	IsTest bool

	// Workers overrides the worker pool size (0 = auto).
	Workers int

	// CacheSize bounds the transform result cache (0 = default).
	CacheSize int

	// DebounceMs is the watch-mode debounce window (0 = default 200ms).
	DebounceMs int
}

// DefaultSkip lists directories discovery never descends into.
var DefaultSkip = []string{
	"**/node_modules/**",
	"**/.git/**",
	"**/dist/**",
	"**/build/**",
}

// Stats describes one workspace run.
type Stats struct {
	FilesDiscovered  int
	FilesTransformed int
	FilesUnchanged   int
	FilesFailed      int
	CacheHits        int64

	DiscoveryTimeMs int64
	TransformTimeMs int64
	TotalTimeMs     int64
	WorkerCount     int

	Errors []FileError

	StartTime time.Time
	EndTime   time.Time
}

// FileError is a per-file failure. Failures are collected, never fatal to
// the run.
type FileError struct {
	Path string
	Err  error
}

// ProgressFunc is called as files complete.
type ProgressFunc func(done, total int, path string)
