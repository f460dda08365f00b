package filesystem

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bylapidist/dtifx/internal/core/usecases"
)

var _ usecases.TransformCache = (*TransformCache)(nil)

// transformCacheFile is the on-disk shape of one Transform Cache entry,
// per §6 "Cache files": "a small JSON payload {key, value, expiresAt?}".
type transformCacheFile struct {
	Key       string     `json:"key"`
	Value     any        `json:"value"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

// TransformCache is the content-addressed Transform Cache, persisted as
// one "<sha256>.json" file per entry under dir, mirroring DependencyCache's
// atomic write-temp-then-rename discipline. TTL eviction removes the file
// from disk on first read after expiry (§4.6, §8 scenario (f)).
type TransformCache struct {
	dir string
	now func() time.Time
}

// NewTransformCache constructs a TransformCache rooted at dir. dir is
// created lazily on first write.
func NewTransformCache(dir string) *TransformCache {
	return &TransformCache{dir: dir, now: time.Now}
}

func (c *TransformCache) entryPath(key string) string {
	return filepath.Join(c.dir, key+".json")
}

// Get reads the entry for key, evicting (deleting) it first if its TTL
// has expired.
func (c *TransformCache) Get(key string) (usecases.TransformCacheEntry, bool) {
	path := c.entryPath(key)
	data, err := os.ReadFile(path)
	if err != nil {
		return usecases.TransformCacheEntry{}, false
	}

	var file transformCacheFile
	if err := json.Unmarshal(data, &file); err != nil {
		return usecases.TransformCacheEntry{}, false
	}
	if file.ExpiresAt != nil && c.now().After(*file.ExpiresAt) {
		os.Remove(path)
		return usecases.TransformCacheEntry{}, false
	}
	return usecases.TransformCacheEntry{Key: file.Key, Value: file.Value, ExpiresAt: file.ExpiresAt}, true
}

// Set writes entry to disk, keyed by entry.Key, atomically.
func (c *TransformCache) Set(ctx context.Context, entry usecases.TransformCacheEntry) error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("create transform cache directory %s: %w", c.dir, err)
	}

	data, err := json.Marshal(transformCacheFile{Key: entry.Key, Value: entry.Value, ExpiresAt: entry.ExpiresAt})
	if err != nil {
		return fmt.Errorf("encode transform cache entry: %w", err)
	}

	tmp, err := os.CreateTemp(c.dir, ".dtifx-transformcache-*")
	if err != nil {
		return fmt.Errorf("create temp transform cache file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write transform cache entry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp transform cache file: %w", err)
	}
	if err := os.Rename(tmpPath, c.entryPath(entry.Key)); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename transform cache entry into place: %w", err)
	}
	return nil
}

// Clear removes every entry file under dir.
func (c *TransformCache) Clear() {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		os.Remove(filepath.Join(c.dir, e.Name()))
	}
}
