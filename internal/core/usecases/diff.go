package usecases

import (
	"bytes"
	"sort"

	"github.com/bylapidist/dtifx/internal/core/entities"
)

// ChangeKind classifies one semantic change between two token snapshots,
// per §1 "a separate diff workflow compares two token snapshots and
// reports semantic changes". Only the comparison algorithm is in scope
// here; CLI/HTML/Markdown/SARIF rendering is a collaborator, not the
// engine.
type ChangeKind string

const (
	ChangeAdded    ChangeKind = "added"
	ChangeRemoved  ChangeKind = "removed"
	ChangeModified ChangeKind = "modified"
)

// TokenChange is one pointer-level difference between a before/after pair
// of resolved snapshot sets.
type TokenChange struct {
	Pointer  string
	Kind     ChangeKind
	Before   any
	After    any
	Breaking bool
}

// DiffResult is the outcome of comparing two resolved snapshot sets.
type DiffResult struct {
	Changes     []TokenChange
	HasBreaking bool
}

// Diff compares two resolved token sets pointer-by-pointer. A token present
// in after but not before is "added"; present before but not after is
// "removed" and always breaking; present in both with a different
// canonical value is "modified", breaking additionally when its type
// changed. Unmodified tokens produce no entry. Changes are returned in
// pointer order.
func Diff(before, after []*entities.Snapshot) (DiffResult, error) {
	beforeByPointer := make(map[string]*entities.Snapshot, len(before))
	for _, s := range before {
		beforeByPointer[s.Pointer] = s
	}
	afterByPointer := make(map[string]*entities.Snapshot, len(after))
	for _, s := range after {
		afterByPointer[s.Pointer] = s
	}

	var result DiffResult

	for _, s := range after {
		prev, existed := beforeByPointer[s.Pointer]
		if !existed {
			result.Changes = append(result.Changes, TokenChange{Pointer: s.Pointer, Kind: ChangeAdded, After: valueOf(s)})
			continue
		}
		equal, err := valuesEqual(prev, s)
		if err != nil {
			return DiffResult{}, err
		}
		if equal && prev.Type == s.Type {
			continue
		}
		breaking := prev.Type != s.Type
		result.Changes = append(result.Changes, TokenChange{
			Pointer: s.Pointer, Kind: ChangeModified,
			Before: valueOf(prev), After: valueOf(s), Breaking: breaking,
		})
		if breaking {
			result.HasBreaking = true
		}
	}

	for _, s := range before {
		if _, stillPresent := afterByPointer[s.Pointer]; stillPresent {
			continue
		}
		result.Changes = append(result.Changes, TokenChange{
			Pointer: s.Pointer, Kind: ChangeRemoved, Before: valueOf(s), Breaking: true,
		})
		result.HasBreaking = true
	}

	sort.Slice(result.Changes, func(i, j int) bool { return result.Changes[i].Pointer < result.Changes[j].Pointer })

	return result, nil
}

func valueOf(s *entities.Snapshot) any {
	if s.Value != nil {
		return s.Value
	}
	return s.Raw
}

func valuesEqual(a, b *entities.Snapshot) (bool, error) {
	aJSON, err := entities.CanonicalJSON(valueOf(a))
	if err != nil {
		return false, err
	}
	bJSON, err := entities.CanonicalJSON(valueOf(b))
	if err != nil {
		return false, err
	}
	return bytes.Equal(aJSON, bJSON), nil
}
