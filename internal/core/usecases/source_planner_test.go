package usecases

import (
	"context"
	"errors"
	"testing"

	"github.com/bylapidist/dtifx/internal/core/entities"
)

func baseConfig() *entities.Configuration {
	return &entities.Configuration{
		Dir:    ".",
		Layers: []entities.Layer{{Name: "base"}, {Name: "brand"}},
	}
}

func TestSourcePlannerOrdersByLayerIndex(t *testing.T) {
	cfg := baseConfig()
	cfg.Sources = []entities.SourceSpec{
		{ID: "brand-colors", Kind: entities.SourceKindInline, Layer: "brand", Document: map[string]any{}},
		{ID: "base-colors", Kind: entities.SourceKindInline, Layer: "base", Document: map[string]any{}},
	}

	planner := NewSourcePlanner(nil)
	result, err := planner.Plan(context.Background(), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(result.Entries))
	}
	if result.Entries[0].ID != "base-colors" || result.Entries[1].ID != "brand-colors" {
		t.Fatalf("expected base-layer entry first, got order %v", []string{result.Entries[0].ID, result.Entries[1].ID})
	}
}

func TestSourcePlannerDuplicateSourceIDFatal(t *testing.T) {
	cfg := baseConfig()
	cfg.Sources = []entities.SourceSpec{
		{ID: "dup", Kind: entities.SourceKindInline, Layer: "base", Document: map[string]any{}},
		{ID: "dup", Kind: entities.SourceKindInline, Layer: "base", Document: map[string]any{}},
	}

	planner := NewSourcePlanner(nil)
	_, err := planner.Plan(context.Background(), cfg)
	var planningErr *entities.PlanningError
	if !errors.As(err, &planningErr) {
		t.Fatalf("expected *entities.PlanningError, got %v", err)
	}
	if len(planningErr.Issues) != 1 || planningErr.Issues[0].Kind != "validation" {
		t.Fatalf("unexpected issues: %+v", planningErr.Issues)
	}
}

func TestSourcePlannerUnknownLayerFatal(t *testing.T) {
	cfg := baseConfig()
	cfg.Sources = []entities.SourceSpec{
		{ID: "s1", Kind: entities.SourceKindInline, Layer: "nonexistent", Document: map[string]any{}},
	}

	planner := NewSourcePlanner(nil)
	_, err := planner.Plan(context.Background(), cfg)
	var planningErr *entities.PlanningError
	if !errors.As(err, &planningErr) {
		t.Fatalf("expected *entities.PlanningError, got %v", err)
	}
}

func TestSourcePlannerVirtualProducerFailureIsNonFatal(t *testing.T) {
	cfg := baseConfig()
	cfg.Sources = []entities.SourceSpec{
		{ID: "ok", Kind: entities.SourceKindInline, Layer: "base", Document: map[string]any{}},
		{ID: "broken", Kind: entities.SourceKindVirtual, Layer: "base", Producer: func() (map[string]any, error) {
			return nil, errors.New("boom")
		}},
	}

	planner := NewSourcePlanner(nil)
	result, err := planner.Plan(context.Background(), cfg)
	if err != nil {
		t.Fatalf("virtual producer failure must not be fatal, got %v", err)
	}
	if len(result.Entries) != 1 || result.Entries[0].ID != "ok" {
		t.Fatalf("expected only the successful source to produce an entry, got %+v", result.Entries)
	}
	if len(result.Issues) != 1 || result.Issues[0].Kind != "io" {
		t.Fatalf("expected one io-kind issue, got %+v", result.Issues)
	}
}

func TestSourcePlannerPointerPrefixRendering(t *testing.T) {
	cfg := baseConfig()
	cfg.Sources = []entities.SourceSpec{
		{
			ID: "s1", Kind: entities.SourceKindInline, Layer: "base", Document: map[string]any{},
			PointerTemplate: entities.PointerTemplate{Base: "/color", Segments: []string{"brand"}},
		},
	}
	planner := NewSourcePlanner(nil)
	result, err := planner.Plan(context.Background(), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Entries[0].PointerPrefix != "#/color/brand" {
		t.Fatalf("unexpected pointer prefix: %q", result.Entries[0].PointerPrefix)
	}
}
