package workspace

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/uniplat/condc/pkg/transform"
	"github.com/uniplat/condc/pkg/util"
)

// Processor runs the transform over a workspace tree and emits the
// processed tree under Options.OutDir. Files the filter rejects are copied
// through unchanged, so the output is a complete, buildable source tree.
type Processor struct {
	opts   Options
	tr     *transform.Transformer
	cache  *ResultCache
	src    *util.SourceCache
	logger *slog.Logger
}

// NewProcessor wires a transformer, result cache and source cache from opts.
func NewProcessor(opts Options, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	tr := transform.New(transform.Options{
		Platform: opts.Platform,
		Include:  opts.Include,
		Exclude:  opts.Exclude,
		Marker:   opts.Marker,
		IsTest:   opts.IsTest,
	}, logger)

	return &Processor{
		opts:   opts,
		tr:     tr,
		cache:  NewResultCache(opts.CacheSize, logger),
		src:    util.NewSourceCache(0, logger),
		logger: logger,
	}
}

// Transformer returns the per-file transformer the processor drives.
func (p *Processor) Transformer() *transform.Transformer { return p.tr }

// Close releases the mmap-backed source cache.
func (p *Processor) Close() error { return p.src.Close() }

// Run processes every file under root. Per-file failures are collected in
// the returned Stats and never abort the run.
func (p *Processor) Run(root string, progress ProgressFunc) (*Stats, error) {
	totalStart := time.Now()
	stats := &Stats{StartTime: totalStart}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root path: %w", err)
	}

	discoveryStart := time.Now()
	files, err := Discover(absRoot, p.skipPatterns(absRoot))
	if err != nil {
		return nil, fmt.Errorf("discovery failed: %w", err)
	}
	stats.FilesDiscovered = len(files)
	stats.DiscoveryTimeMs = time.Since(discoveryStart).Milliseconds()
	p.logger.Info("discovery complete", "files", len(files), "ms", stats.DiscoveryTimeMs)

	if len(files) == 0 {
		stats.EndTime = time.Now()
		stats.TotalTimeMs = time.Since(totalStart).Milliseconds()
		return stats, nil
	}

	transformStart := time.Now()
	pool := NewWorkerPool(p.opts.Workers, p.tr, p.cache, p.src, p.logger)
	stats.WorkerCount = util.PoolSizeWithOverride(p.opts.Workers)
	pool.Start()
	defer pool.Stop()

	total := len(files)
	done := make(chan struct{})

	// The collector must be running before jobs are submitted: Submit
	// blocks once the jobs channel fills, and nothing would drain results.
	go func() {
		defer close(done)
		seen := 0
		for seen < total {
			select {
			case res, ok := <-pool.Results():
				if !ok {
					return
				}
				seen++
				p.collect(stats, res)
				if progress != nil {
					progress(seen, total, res.Job.Rel)
				}
			case ferr, ok := <-pool.Errors():
				if !ok {
					return
				}
				seen++
				stats.FilesFailed++
				stats.Errors = append(stats.Errors, ferr)
				p.logger.Warn("file processing failed", "path", ferr.Path, "error", ferr.Err)
			}
		}
	}()

	for i, rel := range files {
		job := FileJob{Path: filepath.Join(absRoot, filepath.FromSlash(rel)), Rel: rel, ID: i}
		if err := pool.Submit(job); err != nil {
			return nil, fmt.Errorf("failed to submit %s: %w", rel, err)
		}
	}
	pool.FinishSubmitting()
	<-done

	stats.CacheHits, _ = p.cache.Stats()
	stats.TransformTimeMs = time.Since(transformStart).Milliseconds()
	stats.EndTime = time.Now()
	stats.TotalTimeMs = time.Since(totalStart).Milliseconds()

	p.logger.Info("workspace processed",
		"platform", p.tr.Platform(),
		"discovered", stats.FilesDiscovered,
		"transformed", stats.FilesTransformed,
		"unchanged", stats.FilesUnchanged,
		"failed", stats.FilesFailed,
		"ms", stats.TotalTimeMs)

	return stats, nil
}

// collect records one result and emits its output file.
func (p *Processor) collect(stats *Stats, res FileResult) {
	if res.Changed {
		stats.FilesTransformed++
	} else {
		stats.FilesUnchanged++
	}
	if err := p.writeOutput(res.Job.Rel, res.Code); err != nil {
		stats.FilesFailed++
		stats.Errors = append(stats.Errors, FileError{Path: res.Job.Rel, Err: err})
		p.logger.Warn("failed to write output", "path", res.Job.Rel, "error", err)
	}
}

// ProcessFile re-transforms a single file under root and rewrites its
// output; the watcher calls this for changed files. The bool reports
// whether the transform modified the text.
func (p *Processor) ProcessFile(root, rel string) (bool, error) {
	path := filepath.Join(root, filepath.FromSlash(rel))
	p.src.Invalidate(path)

	content, err := p.src.Read(path)
	if err != nil {
		return false, fmt.Errorf("read: %w", err)
	}

	code := string(content)
	out, changed := code, false
	if res, ok := p.tr.Transform(code, rel); ok {
		out, changed = res.Code, true
	}
	if p.cache != nil && p.tr.Filter().Match(rel) {
		p.cache.Add(Key(p.tr.Platform(), content), CachedResult{Code: out, Changed: changed})
	}
	return changed, p.writeOutput(rel, out)
}

// RemoveOutput deletes the emitted file for a source that disappeared.
func (p *Processor) RemoveOutput(rel string) error {
	if p.opts.OutDir == "" {
		return nil
	}
	err := os.Remove(filepath.Join(p.opts.OutDir, filepath.FromSlash(rel)))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (p *Processor) writeOutput(rel, code string) error {
	if p.opts.OutDir == "" {
		return nil
	}
	outPath := filepath.Join(p.opts.OutDir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return err
	}
	return os.WriteFile(outPath, []byte(code), 0644)
}

// skipPatterns merges the default and configured skip sets, pruning the
// output directory when it lives inside the workspace.
func (p *Processor) skipPatterns(absRoot string) []string {
	skip := append([]string{}, DefaultSkip...)
	skip = append(skip, p.opts.Skip...)

	if p.opts.OutDir != "" {
		if absOut, err := filepath.Abs(p.opts.OutDir); err == nil {
			if rel, err := filepath.Rel(absRoot, absOut); err == nil && rel != "." && !strings.HasPrefix(rel, "..") {
				skip = append(skip, filepath.ToSlash(rel)+"/**")
			}
		}
	}
	return skip
}
