package workspace

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
)

const defaultCacheSize = 1024

// CachedResult is a memoized transform outcome.
type CachedResult struct {
	Code    string
	Changed bool
}

// ResultCache memoizes transform results keyed by platform and content
// hash, so watch-mode rebuilds skip files whose bytes did not change.
// Safe for concurrent use.
type ResultCache struct {
	cache  *lru.Cache[string, CachedResult]
	hits   atomic.Int64
	misses atomic.Int64
	logger *slog.Logger
}

// NewResultCache creates a cache bounded to size entries (0 = default 1024).
func NewResultCache(size int, logger *slog.Logger) *ResultCache {
	if size <= 0 {
		size = defaultCacheSize
	}
	if logger == nil {
		logger = slog.Default()
	}

	cache, err := lru.NewWithEvict(size, func(key string, _ CachedResult) {
		logger.Debug("evicting cached transform result", "key", key)
	})
	if err != nil {
		// Only reachable with a non-positive size, which is normalized above.
		panic(fmt.Sprintf("failed to create result cache: %v", err))
	}
	return &ResultCache{cache: cache, logger: logger}
}

// Key derives the cache key for a file's content under a platform. The file
// path is deliberately not part of the key: identical content transforms
// identically.
func Key(platform string, content []byte) string {
	h := sha256.New()
	h.Write([]byte(platform))
	h.Write([]byte{0})
	h.Write(content)
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns the memoized result for key.
func (rc *ResultCache) Get(key string) (CachedResult, bool) {
	res, ok := rc.cache.Get(key)
	if ok {
		rc.hits.Add(1)
	} else {
		rc.misses.Add(1)
	}
	return res, ok
}

// Add memoizes a result.
func (rc *ResultCache) Add(key string, res CachedResult) {
	rc.cache.Add(key, res)
}

// Len returns the number of cached results.
func (rc *ResultCache) Len() int { return rc.cache.Len() }

// Stats returns cumulative hit/miss counters.
func (rc *ResultCache) Stats() (hits, misses int64) {
	return rc.hits.Load(), rc.misses.Load()
}
