package util

import (
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"

	"github.com/edsrzf/mmap-go"
)

// SourceCache provides read access to workspace source files backed by
// memory-mapped regions, so repeated transform runs (watch mode, MCP
// queries) do not re-read unchanged files. Files that fail to mmap fall
// back to a plain os.ReadFile copy.
//
// Thread-safe: reads take an RWMutex read lock; loads and Close are
// exclusive. Returned byte slices must be treated as read-only and not used
// after Close.
type SourceCache struct {
	maxFiles int
	logger   *slog.Logger

	mu       sync.RWMutex
	mapped   map[string]mmap.MMap
	fallback map[string][]byte

	hits   atomic.Int64
	misses atomic.Int64
}

// NewSourceCache creates a cache holding at most maxFiles entries
// (0 = unlimited). A nil logger falls back to slog.Default().
func NewSourceCache(maxFiles int, logger *slog.Logger) *SourceCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &SourceCache{
		maxFiles: maxFiles,
		logger:   logger,
		mapped:   make(map[string]mmap.MMap),
		fallback: make(map[string][]byte),
	}
}

// Read returns the content of path, mapping it on first access.
func (c *SourceCache) Read(path string) ([]byte, error) {
	c.mu.RLock()
	if data, ok := c.mapped[path]; ok {
		c.mu.RUnlock()
		c.hits.Add(1)
		return data, nil
	}
	if data, ok := c.fallback[path]; ok {
		c.mu.RUnlock()
		c.hits.Add(1)
		return data, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	// Another goroutine may have loaded it while we waited for the lock.
	if data, ok := c.mapped[path]; ok {
		c.hits.Add(1)
		return data, nil
	}
	if data, ok := c.fallback[path]; ok {
		c.hits.Add(1)
		return data, nil
	}

	c.misses.Add(1)
	if c.maxFiles > 0 && len(c.mapped)+len(c.fallback) >= c.maxFiles {
		return nil, fmt.Errorf("source cache limit reached: %d files", c.maxFiles)
	}
	return c.load(path)
}

// load maps path, falling back to a plain read when mmap is unavailable.
// Must be called with the write lock held.
func (c *SourceCache) load(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return nil, err
	}
	// Zero-length regions cannot be mapped.
	if st.Size() == 0 {
		empty := []byte{}
		c.fallback[path] = empty
		return empty, nil
	}

	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		c.logger.Warn("mmap failed, reading file into memory", "path", path, "error", err)
		data, rerr := os.ReadFile(path)
		if rerr != nil {
			return nil, fmt.Errorf("mmap and fallback read both failed for %q: %v; %w", path, err, rerr)
		}
		c.fallback[path] = data
		return data, nil
	}

	c.mapped[path] = m
	return m, nil
}

// Invalidate drops the cached entry for path, unmapping it if mapped.
// The watcher calls this before re-transforming a changed file.
func (c *SourceCache) Invalidate(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if m, ok := c.mapped[path]; ok {
		if err := m.Unmap(); err != nil {
			c.logger.Warn("failed to unmap file", "path", path, "error", err)
		}
		delete(c.mapped, path)
	}
	delete(c.fallback, path)
}

// Len returns the number of cached files.
func (c *SourceCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.mapped) + len(c.fallback)
}

// Stats returns cumulative hit/miss counters.
func (c *SourceCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// Close unmaps every cached file. The cache is unusable afterwards.
func (c *SourceCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var firstErr error
	for path, m := range c.mapped {
		if err := m.Unmap(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("unmap %q: %w", path, err)
		}
	}
	c.mapped = make(map[string]mmap.MMap)
	c.fallback = make(map[string][]byte)
	return firstErr
}
