package usecases

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"sync"

	"github.com/bylapidist/dtifx/internal/core/entities"
	"golang.org/x/sync/errgroup"
)

// TransformSelector filters which snapshots a Transform applies to, per
// §4.3 "Transform contract".
type TransformSelector struct {
	Types           []string
	PointerPatterns []string
	Tags            []string
}

// TransformContext is passed to a Transform's Run function.
type TransformContext struct {
	Snapshot *entities.Snapshot
	Raw      any
	Value    any
	Resolve  func(pointer string) (any, bool) // cross-token lookup, e.g. colour references
}

// Transform is a pure, named function attaching a payload to matching
// snapshots, per §4.3.
type Transform struct {
	Name     string
	Group    string
	Selector TransformSelector
	Run      func(ctx context.Context, tctx TransformContext) (any, error)
}

// groupOrder is the canonical transform group ordering used to sort
// applicable transforms for a snapshot, per §4.3 "Execution".
var groupOrder = map[string]int{
	"web/base":         0,
	"ios/swiftui":      1,
	"android/material": 2,
	"android/compose":  3,
}

// TransformEngine runs a registry of transforms selectively over
// snapshots, using the Transform Cache to skip unchanged work (§4.3, §4.6).
type TransformEngine struct {
	registry []Transform
	cache    TransformCache
	workers  int
}

// NewTransformEngine constructs an engine with the given registered
// transforms. workers bounds how many snapshots are evaluated concurrently
// (each snapshot's transforms run on one goroutine); 0 means unbounded
// (errgroup default).
func NewTransformEngine(registry []Transform, cache TransformCache, workers int) *TransformEngine {
	return &TransformEngine{registry: registry, cache: cache, workers: workers}
}

// applicable returns, for one snapshot, the transforms whose selector
// matches it, sorted by (group, name) using the canonical group order.
func (e *TransformEngine) applicable(snap *entities.Snapshot) []Transform {
	var matches []Transform
	for _, tr := range e.registry {
		if selectorMatches(tr.Selector, snap) {
			matches = append(matches, tr)
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		gi, gj := groupOrder[matches[i].Group], groupOrder[matches[j].Group]
		if gi != gj {
			return gi < gj
		}
		return matches[i].Name < matches[j].Name
	})
	return matches
}

func selectorMatches(sel TransformSelector, snap *entities.Snapshot) bool {
	if len(sel.Types) > 0 {
		found := false
		for _, t := range sel.Types {
			if t == snap.Type {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if len(sel.PointerPatterns) > 0 {
		found := false
		for _, pat := range sel.PointerPatterns {
			if pointerMatchesPattern(pat, snap.Pointer) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if len(sel.Tags) > 0 {
		if snap.Metadata == nil {
			return false
		}
		have := make(map[string]bool, len(snap.Metadata.Tags))
		for _, tag := range snap.Metadata.Tags {
			have[tag] = true
		}
		for _, tag := range sel.Tags {
			if !have[tag] {
				return false
			}
		}
	}
	return true
}

// pointerMatchesPattern supports a single trailing "*" wildcard, the only
// pattern shape DTIF selectors need (prefix match).
func pointerMatchesPattern(pattern, pointer string) bool {
	if n := len(pattern); n > 0 && pattern[n-1] == '*' {
		return len(pointer) >= n-1 && pointer[:n-1] == pattern[:n-1]
	}
	return pattern == pointer
}

// Run executes every applicable transform for every resolved snapshot,
// attaching results to snap.Transforms, per §4.3 "Execution". Failures
// become TRANSFORM_FAILED diagnostics; the affected entry is simply absent.
//
// Concurrency is bounded per snapshot, not per (snapshot, transform) pair:
// a snapshot's own Transforms map is never written from more than one
// goroutine, so all of its applicable transforms run sequentially against
// it while distinct snapshots proceed in parallel.
func (e *TransformEngine) Run(ctx context.Context, snapshots []*entities.Snapshot, optionsHash string) entities.Diagnostics {
	var diags entities.Diagnostics
	var diagMu sync.Mutex
	resolveFn := buildResolver(snapshots)

	g, gctx := errgroup.WithContext(ctx)
	if e.workers > 0 {
		g.SetLimit(e.workers)
	}

	for _, snap := range snapshots {
		snap := snap
		if snap.State == entities.StateFailed {
			continue
		}
		g.Go(func() error {
			if snap.Transforms == nil {
				snap.Transforms = make(map[string]any)
			}
			for _, tr := range e.applicable(snap) {
				cacheKey := e.cacheKey(snap.Pointer, tr.Name, tr.Group, optionsHash)
				if e.cache != nil {
					if entry, ok := e.cache.Get(cacheKey); ok {
						snap.Transforms[tr.Name] = entry.Value
						continue
					}
				}
				payload, err := tr.Run(gctx, TransformContext{Snapshot: snap, Raw: snap.Raw, Value: snap.Value, Resolve: resolveFn})
				if err != nil {
					diagMu.Lock()
					diags = append(diags, entities.Diagnostic{
						Code: entities.CodeTransformFailed, Severity: entities.SeverityError,
						Pointer: snap.Pointer, URI: snap.Provenance.DocumentURI,
						Message: fmt.Sprintf("transform %q failed: %s", tr.Name, err),
					})
					diagMu.Unlock()
					continue
				}
				if payload == nil {
					continue
				}
				snap.Transforms[tr.Name] = payload
				if e.cache != nil {
					_ = e.cache.Set(gctx, TransformCacheEntry{Key: cacheKey, Value: payload})
				}
			}
			return nil
		})
	}

	_ = g.Wait()

	// Failures surface in pointer order regardless of goroutine timing
	// (Invariant 2).
	sort.SliceStable(diags, func(i, j int) bool { return diags[i].Pointer < diags[j].Pointer })
	return diags
}

func (e *TransformEngine) cacheKey(pointer, name, group, optionsHash string) string {
	h := sha256.New()
	h.Write([]byte(pointer))
	h.Write([]byte{0})
	h.Write([]byte(name))
	h.Write([]byte{0})
	h.Write([]byte(group))
	h.Write([]byte{0})
	h.Write([]byte(optionsHash))
	return hex.EncodeToString(h.Sum(nil))
}

// buildResolver returns a cross-token lookup closure over an already
// pointer-indexed snapshot slice, used by transforms that need to read
// another token's resolved value (e.g. colour references).
func buildResolver(snapshots []*entities.Snapshot) func(pointer string) (any, bool) {
	index := make(map[string]*entities.Snapshot, len(snapshots))
	for _, s := range snapshots {
		index[s.Pointer] = s
	}
	return func(pointer string) (any, bool) {
		snap, ok := index[pointer]
		if !ok {
			return nil, false
		}
		return snap.Value, true
	}
}
