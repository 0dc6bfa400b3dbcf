package workspace

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"

	"github.com/uniplat/condc/pkg/transform"
	"github.com/uniplat/condc/pkg/util"
)

// FileJob is one file for the pool to transform. Path is absolute, Rel is
// the workspace-relative slash path used as the transform id.
type FileJob struct {
	Path string
	Rel  string
	ID   int
}

// FileResult is the transform outcome for one file. Code always holds the
// full output text (the original when Changed is false) so the collector
// can emit a complete tree.
type FileResult struct {
	Job       FileJob
	Code      string
	Changed   bool
	FromCache bool
}

// WorkerPool transforms files on a fixed set of goroutines. Jobs go in
// through Submit, outcomes come out on the Results and Errors channels.
// The transformer itself is stateless, so workers share one instance.
type WorkerPool struct {
	numWorkers int
	jobs       chan FileJob
	results    chan FileResult
	errors     chan FileError
	wg         sync.WaitGroup

	tr     *transform.Transformer
	cache  *ResultCache
	src    *util.SourceCache
	logger *slog.Logger

	ctx        context.Context
	cancel     context.CancelFunc
	started    atomic.Bool
	stopped    atomic.Bool
	jobsClosed atomic.Bool

	processed atomic.Int64
	failed    atomic.Int64
	cacheHits atomic.Int64
}

// NewWorkerPool creates a pool. numWorkers 0 auto-sizes; cache and src may
// be nil to disable memoization and mmap reads respectively.
func NewWorkerPool(numWorkers int, tr *transform.Transformer, cache *ResultCache, src *util.SourceCache, logger *slog.Logger) *WorkerPool {
	numWorkers = util.PoolSizeWithOverride(numWorkers)
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &WorkerPool{
		numWorkers: numWorkers,
		jobs:       make(chan FileJob, numWorkers*2),
		results:    make(chan FileResult, numWorkers),
		errors:     make(chan FileError, numWorkers),
		tr:         tr,
		cache:      cache,
		src:        src,
		logger:     logger,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Start spawns the workers. Must be called before Submit.
func (wp *WorkerPool) Start() {
	if !wp.started.CompareAndSwap(false, true) {
		wp.logger.Warn("worker pool already started")
		return
	}
	wp.logger.Debug("starting worker pool", "workers", wp.numWorkers)
	for i := 0; i < wp.numWorkers; i++ {
		wp.wg.Add(1)
		go wp.worker()
	}
}

func (wp *WorkerPool) worker() {
	defer wp.wg.Done()
	for {
		select {
		case <-wp.ctx.Done():
			return
		case job, ok := <-wp.jobs:
			if !ok {
				return
			}
			wp.process(job)
		}
	}
}

func (wp *WorkerPool) process(job FileJob) {
	content, err := wp.read(job.Path)
	if err != nil {
		wp.failed.Add(1)
		wp.errors <- FileError{Path: job.Rel, Err: fmt.Errorf("read: %w", err)}
		return
	}

	// Only filter-admitted files are memoized: the key is content-only, and
	// a rejected file with the same bytes must stay untouched.
	var key string
	cacheable := wp.cache != nil && wp.tr.Filter().Match(job.Rel)
	if cacheable {
		key = Key(wp.tr.Platform(), content)
		if cached, ok := wp.cache.Get(key); ok {
			wp.cacheHits.Add(1)
			wp.processed.Add(1)
			wp.results <- FileResult{Job: job, Code: cached.Code, Changed: cached.Changed, FromCache: true}
			return
		}
	}

	code := string(content)
	out, changed := code, false
	if res, ok := wp.tr.Transform(code, job.Rel); ok {
		out, changed = res.Code, true
	}

	if cacheable {
		wp.cache.Add(key, CachedResult{Code: out, Changed: changed})
	}
	wp.processed.Add(1)
	wp.results <- FileResult{Job: job, Code: out, Changed: changed}
}

func (wp *WorkerPool) read(path string) ([]byte, error) {
	if wp.src != nil {
		return wp.src.Read(path)
	}
	return os.ReadFile(path)
}

// Submit enqueues a job; blocks while the jobs channel is full.
func (wp *WorkerPool) Submit(job FileJob) error {
	if wp.stopped.Load() {
		return fmt.Errorf("worker pool is stopped")
	}
	select {
	case <-wp.ctx.Done():
		return fmt.Errorf("worker pool cancelled")
	case wp.jobs <- job:
		return nil
	}
}

// Results returns the result channel.
func (wp *WorkerPool) Results() <-chan FileResult { return wp.results }

// Errors returns the error channel.
func (wp *WorkerPool) Errors() <-chan FileError { return wp.errors }

// FinishSubmitting closes the jobs channel so workers drain and exit.
// Idempotent.
func (wp *WorkerPool) FinishSubmitting() {
	if wp.jobsClosed.CompareAndSwap(false, true) {
		close(wp.jobs)
	}
}

// Stop drains the pool: closes jobs if still open, waits for workers, then
// closes the result and error channels. Idempotent.
func (wp *WorkerPool) Stop() {
	if !wp.stopped.CompareAndSwap(false, true) {
		return
	}
	if wp.jobsClosed.CompareAndSwap(false, true) {
		close(wp.jobs)
	}
	wp.wg.Wait()
	close(wp.results)
	close(wp.errors)
	wp.cancel()

	wp.logger.Debug("worker pool stopped",
		"processed", wp.processed.Load(),
		"failed", wp.failed.Load(),
		"cache_hits", wp.cacheHits.Load())
}
