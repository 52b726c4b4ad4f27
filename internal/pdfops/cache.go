package pdfops

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/pdfbinder/backend/internal/models"
)

// ResultCache persists decode results keyed by content hash, so re-adding a
// file with identical bytes skips validation, page counting and preview
// rendering. Entries are msgpack files named by the hash.
type ResultCache struct {
	dir string
}

// NewResultCache creates a cache rooted at dir.
func NewResultCache(dir string) (*ResultCache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating decode cache directory: %w", err)
	}
	return &ResultCache{dir: dir}, nil
}

// CacheKey returns the cache key for raw file content.
func CacheKey(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Get returns the cached result for key, if present and readable.
func (c *ResultCache) Get(key string) (*models.DecodeResult, bool) {
	data, err := os.ReadFile(c.path(key))
	if err != nil {
		return nil, false
	}

	var res models.DecodeResult
	if err := msgpack.Unmarshal(data, &res); err != nil {
		// Stale or truncated entry; drop it and decode fresh.
		os.Remove(c.path(key))
		return nil, false
	}
	return &res, true
}

// Put stores res under key. Cache writes are advisory; failures are ignored.
func (c *ResultCache) Put(key string, res *models.DecodeResult) {
	data, err := msgpack.Marshal(res)
	if err != nil {
		return
	}
	_ = os.WriteFile(c.path(key), data, 0644)
}

// Purge removes cache entries older than maxAge.
func (c *ResultCache) Purge(maxAge time.Duration) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return
	}

	cutoff := time.Now().Add(-maxAge)
	for _, e := range entries {
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			os.Remove(filepath.Join(c.dir, e.Name()))
		}
	}
}

func (c *ResultCache) path(key string) string {
	return filepath.Join(c.dir, key+".bin")
}
