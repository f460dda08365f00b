// Package cache provides the process-scoped, mutex-guarded Document Cache
// the resolver reads through its port interface, per §5 "Shared resources".
// The Transform Cache lives in adapters/filesystem.
package cache

import (
	"sync"

	"github.com/bylapidist/dtifx/internal/core/usecases"
)

var _ usecases.DocumentCache = (*DocumentCache)(nil)

// DocumentCache is a process-scoped map from document URI to decoded
// document, shared across sources within one run (§5).
type DocumentCache struct {
	mu    sync.RWMutex
	store map[string]map[string]any
}

// NewDocumentCache constructs an empty DocumentCache.
func NewDocumentCache() *DocumentCache {
	return &DocumentCache{store: make(map[string]map[string]any)}
}

func (c *DocumentCache) Get(uri string) (map[string]any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	doc, ok := c.store[uri]
	return doc, ok
}

func (c *DocumentCache) Set(uri string, doc map[string]any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store[uri] = doc
}
