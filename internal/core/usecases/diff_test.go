package usecases

import (
	"testing"

	"github.com/bylapidist/dtifx/internal/core/entities"
)

func tokenSnap(pointer, typ string, value any) *entities.Snapshot {
	return &entities.Snapshot{Pointer: pointer, Type: typ, Value: value}
}

func TestDiffDetectsAddedRemovedModified(t *testing.T) {
	before := []*entities.Snapshot{
		tokenSnap("#/color/primary", "color", 1.0),
		tokenSnap("#/color/secondary", "color", 2.0),
	}
	after := []*entities.Snapshot{
		tokenSnap("#/color/primary", "color", 9.0),
		tokenSnap("#/color/tertiary", "color", 3.0),
	}

	result, err := Diff(before, after)
	if err != nil {
		t.Fatalf("diff: %v", err)
	}

	byPointer := make(map[string]TokenChange, len(result.Changes))
	for _, c := range result.Changes {
		byPointer[c.Pointer] = c
	}

	if c := byPointer["#/color/primary"]; c.Kind != ChangeModified || c.Breaking {
		t.Fatalf("expected non-breaking modification for primary, got %+v", c)
	}
	if c := byPointer["#/color/tertiary"]; c.Kind != ChangeAdded {
		t.Fatalf("expected tertiary added, got %+v", c)
	}
	if c := byPointer["#/color/secondary"]; c.Kind != ChangeRemoved || !c.Breaking {
		t.Fatalf("expected secondary removed and breaking, got %+v", c)
	}
	if !result.HasBreaking {
		t.Fatalf("expected HasBreaking true due to removal")
	}
}

func TestDiffNoChangesWhenIdentical(t *testing.T) {
	before := []*entities.Snapshot{tokenSnap("#/a", "color", 1.0)}
	after := []*entities.Snapshot{tokenSnap("#/a", "color", 1.0)}

	result, err := Diff(before, after)
	if err != nil {
		t.Fatalf("diff: %v", err)
	}
	if len(result.Changes) != 0 {
		t.Fatalf("expected no changes, got %+v", result.Changes)
	}
}

func TestDiffTypeChangeIsBreaking(t *testing.T) {
	before := []*entities.Snapshot{tokenSnap("#/a", "color", 1.0)}
	after := []*entities.Snapshot{tokenSnap("#/a", "dimension", 1.0)}

	result, err := Diff(before, after)
	if err != nil {
		t.Fatalf("diff: %v", err)
	}
	if len(result.Changes) != 1 || !result.Changes[0].Breaking {
		t.Fatalf("expected one breaking change for type switch, got %+v", result.Changes)
	}
}

func TestDiffKeyReorderingIsNotAChange(t *testing.T) {
	before := []*entities.Snapshot{tokenSnap("#/a", "color", map[string]any{"r": 1.0, "g": 2.0})}
	after := []*entities.Snapshot{tokenSnap("#/a", "color", map[string]any{"g": 2.0, "r": 1.0})}

	result, err := Diff(before, after)
	if err != nil {
		t.Fatalf("diff: %v", err)
	}
	if len(result.Changes) != 0 {
		t.Fatalf("expected key reordering to be a no-op, got %+v", result.Changes)
	}
}
