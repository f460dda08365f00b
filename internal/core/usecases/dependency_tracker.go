package usecases

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"sort"
	"strings"

	"github.com/bylapidist/dtifx/internal/core/entities"
)

const dependencySnapshotVersion = 1

// DependencyTracker hashes resolved snapshots, diffs them against a
// previously committed snapshot, and persists the current one, per §4.6.
type DependencyTracker struct {
	cache DependencyCache
}

// NewDependencyTracker constructs a tracker backed by the given cache port.
func NewDependencyTracker(cache DependencyCache) *DependencyTracker {
	return &DependencyTracker{cache: cache}
}

// Hash computes a snapshot's dependency hash over encoded pointer, canonical
// resolved value (or raw, when unresolved), canonical metadata, canonical
// context, and sorted resolution references, per §4.6 "Hashing".
func Hash(snap *entities.Snapshot, context map[string]any) (string, error) {
	h := sha256.New()
	h.Write([]byte(snap.Pointer))

	valueSource := snap.Value
	if valueSource == nil {
		valueSource = snap.Raw
	}
	valueJSON, err := entities.CanonicalJSON(valueSource)
	if err != nil {
		return "", err
	}
	h.Write(valueJSON)

	metaJSON, err := entities.CanonicalJSON(metadataToMap(snap.Metadata))
	if err != nil {
		return "", err
	}
	h.Write(metaJSON)

	ctxJSON, err := entities.CanonicalJSON(context)
	if err != nil {
		return "", err
	}
	h.Write(ctxJSON)

	refs := dependencyRefs(snap)
	sort.Strings(refs)
	for _, ref := range refs {
		h.Write([]byte(ref))
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

func metadataToMap(m *entities.Metadata) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	out := map[string]any{
		"description": m.Description,
		"extensions":  m.Extensions,
		"tags":        m.Tags,
		"author":      m.Author,
		"usageCount":  m.UsageCount,
	}
	if m.Deprecation != nil {
		out["deprecation"] = map[string]any{
			"reason":       m.Deprecation.Reason,
			"supersededBy": m.Deprecation.SupersededBy,
		}
	}
	return out
}

func dependencyRefs(snap *entities.Snapshot) []string {
	refs := make([]string, 0, len(snap.References))
	for _, r := range snap.References {
		refs = append(refs, r.URI+"#"+r.Pointer)
	}
	return refs
}

// BuildSnapshot computes the current DependencySnapshot for a resolved set
// of snapshots, per §4.6 "Dependency snapshot".
func BuildSnapshot(snapshots []*entities.Snapshot, contexts map[string]map[string]any) (entities.DependencySnapshot, error) {
	entries := make([]entities.DependencyEntry, 0, len(snapshots))
	for _, snap := range snapshots {
		hash, err := Hash(snap, contexts[snap.Pointer])
		if err != nil {
			return entities.DependencySnapshot{}, err
		}
		deps := dependencyRefs(snap)
		sort.Strings(deps)
		entries = append(entries, entities.DependencyEntry{Pointer: snap.Pointer, Hash: hash, Dependencies: deps})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Pointer < entries[j].Pointer })
	return entities.DependencySnapshot{Version: dependencySnapshotVersion, Entries: entries}, nil
}

// Evaluate computes changed/removed pointer sets between a previously
// committed snapshot (loaded from cachePath) and the current one, per §4.6
// "Evaluation". A missing cache or a version mismatch marks every pointer
// as changed; any other load error (a corrupt snapshot) is fatal and
// propagates (§4.6 "Failure", §7 "Cache").
func (t *DependencyTracker) Evaluate(ctx context.Context, cachePath string, current entities.DependencySnapshot) (entities.DependencyDiff, error) {
	previous, err := t.cache.Load(ctx, cachePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return allChanged(current), nil
		}
		return entities.DependencyDiff{}, err
	}
	if previous.Version != dependencySnapshotVersion {
		return allChanged(current), nil
	}

	prevByPointer := make(map[string]entities.DependencyEntry, len(previous.Entries))
	for _, e := range previous.Entries {
		prevByPointer[e.Pointer] = e
	}
	curByPointer := make(map[string]entities.DependencyEntry, len(current.Entries))
	for _, e := range current.Entries {
		curByPointer[e.Pointer] = e
	}

	changed := make(map[string]bool)
	for _, e := range current.Entries {
		prev, ok := prevByPointer[e.Pointer]
		if !ok || prev.Hash != e.Hash {
			changed[e.Pointer] = true
		}
	}
	// Propagate: a pointer depending on a changed pointer is also changed,
	// fixed-point over the dependency edges.
	for {
		progressed := false
		for _, e := range current.Entries {
			if changed[e.Pointer] {
				continue
			}
			for _, dep := range e.Dependencies {
				// Dependencies are stored "<uri>#<pointer>"; the changed
				// set is keyed by pointer alone, so strip the uri part.
				depPointer := dep
				if i := strings.Index(dep, "#"); i >= 0 {
					depPointer = dep[i+1:]
				}
				if changed[depPointer] {
					changed[e.Pointer] = true
					progressed = true
					break
				}
			}
		}
		if !progressed {
			break
		}
	}

	removed := make(map[string]bool)
	for pointer := range prevByPointer {
		if _, ok := curByPointer[pointer]; !ok {
			removed[pointer] = true
		}
	}

	return entities.DependencyDiff{Changed: changed, Removed: removed}, nil
}

func allChanged(snapshot entities.DependencySnapshot) entities.DependencyDiff {
	changed := make(map[string]bool, len(snapshot.Entries))
	for _, e := range snapshot.Entries {
		changed[e.Pointer] = true
	}
	return entities.DependencyDiff{Changed: changed, Removed: map[string]bool{}}
}

// Commit persists the current snapshot as the baseline for future Evaluate
// calls, per §4.6 "Dependency snapshot" (atomic write, owned by the
// filesystem adapter).
func (t *DependencyTracker) Commit(ctx context.Context, cachePath string, snapshot entities.DependencySnapshot) error {
	return t.cache.Save(ctx, cachePath, snapshot)
}
