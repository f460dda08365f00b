package filesystem

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bylapidist/dtifx/internal/core/entities"
	"github.com/bylapidist/dtifx/internal/core/usecases"
)

var _ usecases.DependencyCache = (*DependencyCache)(nil)

// DependencyCache persists the Dependency Tracker's versioned snapshot as
// newline-terminated JSON, atomically, per §4.6 "Dependency snapshot".
type DependencyCache struct{}

// NewDependencyCache constructs a DependencyCache.
func NewDependencyCache() *DependencyCache {
	return &DependencyCache{}
}

// Load reads and decodes the snapshot at path. A missing file is reported
// as a plain "not found" error so the caller (DependencyTracker.Evaluate)
// can treat it as "every pointer changed" rather than a hard failure;
// any other read or decode error is a corrupt-cache condition (§4.6
// "Failure").
func (c *DependencyCache) Load(ctx context.Context, path string) (entities.DependencySnapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return entities.DependencySnapshot{}, err
		}
		return entities.DependencySnapshot{}, &entities.DependencyCacheCorruptError{Path: path, Err: err}
	}

	var snapshot entities.DependencySnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return entities.DependencySnapshot{}, &entities.DependencyCacheCorruptError{Path: path, Err: err}
	}
	return snapshot, nil
}

// Save writes snapshot to path with an atomic write-temp-then-rename,
// creating the parent directory first.
func (c *DependencyCache) Save(ctx context.Context, path string, snapshot entities.DependencySnapshot) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create dependency cache directory %s: %w", dir, err)
	}

	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encode dependency snapshot: %w", err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(dir, ".dtifx-depcache-*")
	if err != nil {
		return fmt.Errorf("create temp dependency cache file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write dependency cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp dependency cache file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename dependency cache into place %s: %w", path, err)
	}
	return nil
}
