package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Cache memoizes pipeline results by input identity. The pipeline itself
// stays pure; caching is a wrapper concern. Keys include file size and
// modification time, not just path: the territory sheet is edited in place,
// so a path-only key would serve stale results.
type Cache struct {
	mu      sync.Mutex
	results map[string]*Result
}

// NewCache creates an empty in-memory result cache.
func NewCache() *Cache {
	return &Cache{results: make(map[string]*Result)}
}

// Key derives a content-address for a set of input files.
func (c *Cache) Key(paths ...string) (string, error) {
	h := sha256.New()
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return "", eris.Wrapf(err, "ingest: stat cache input %q", path)
		}
		fmt.Fprintf(h, "%s\x1f%d\x1f%d\x1e", path, info.Size(), info.ModTime().UnixNano())
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Get returns a cached result for the key, if any.
func (c *Cache) Get(key string) (*Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.results[key]
	return r, ok
}

// Put stores a result under the key.
func (c *Cache) Put(key string, r *Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results[key] = r
}

// Run executes the pipeline unless a result for identical inputs is already
// cached. Failed runs are never cached. Unstat-able inputs fall through to
// an uncached run so the pipeline reports the real problem.
func (c *Cache) Run(ctx context.Context, p *Pipeline, archivePath, sheetPath string) (*Result, error) {
	key, err := c.Key(archivePath, sheetPath)
	if err == nil {
		if r, ok := c.Get(key); ok {
			zap.L().Debug("ingest: cache hit", zap.String("key", key))
			return r, nil
		}
	}

	r, runErr := p.Run(ctx, archivePath, sheetPath)
	if runErr == nil && key != "" {
		c.Put(key, r)
	}
	return r, runErr
}
