package policy

import (
	"context"
	"testing"

	"github.com/bylapidist/dtifx/internal/core/entities"
	"github.com/bylapidist/dtifx/internal/core/usecases"
)

func runRule(t *testing.T, rule usecases.PolicyRule, options map[string]any, snapshots []*entities.Snapshot) []entities.Violation {
	t.Helper()
	handler, err := rule.Setup(options)
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	index := make(map[string]*entities.Snapshot, len(snapshots))
	for _, s := range snapshots {
		index[s.Pointer] = s
	}
	violations, err := handler(context.Background(), usecases.PolicyInput{
		Snapshots: snapshots,
		ByPointer: func(p string) (*entities.Snapshot, bool) { s, ok := index[p]; return s, ok },
	})
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	return violations
}

func TestRequireOwnerFlagsMissingOwner(t *testing.T) {
	snapshots := []*entities.Snapshot{
		{Pointer: "#/a", Metadata: &entities.Metadata{Extensions: map[string]any{
			"io.dtif.governance": map[string]any{"owner": "design-systems"},
		}}},
		{Pointer: "#/b"},
	}
	violations := runRule(t, RequireOwner(), nil, snapshots)
	if len(violations) != 1 || violations[0].Pointer != "#/b" {
		t.Fatalf("expected one violation for #/b, got %+v", violations)
	}
}

func TestRequireTagListsMissingTags(t *testing.T) {
	snapshots := []*entities.Snapshot{
		{Pointer: "#/a", Metadata: &entities.Metadata{Tags: []string{"public"}}},
	}
	violations := runRule(t, RequireTag(), map[string]any{"tags": []any{"public", "stable"}}, snapshots)
	if len(violations) != 1 {
		t.Fatalf("expected one violation, got %+v", violations)
	}
	missing, _ := violations[0].Details["missingTags"].([]string)
	if len(missing) != 1 || missing[0] != "stable" {
		t.Fatalf("expected missingTags=[stable], got %+v", violations[0].Details)
	}
}

func TestDeprecationHasReplacementRequiresSupersededBy(t *testing.T) {
	snapshots := []*entities.Snapshot{
		{Pointer: "#/old", Metadata: &entities.Metadata{Deprecation: &entities.Deprecation{Reason: "renamed"}}},
		{Pointer: "#/old2", Metadata: &entities.Metadata{Deprecation: &entities.Deprecation{SupersededBy: "#/new"}}},
		{Pointer: "#/new"},
	}
	violations := runRule(t, DeprecationHasReplacement(), nil, snapshots)
	if len(violations) != 1 || violations[0].Pointer != "#/old" {
		t.Fatalf("expected one violation for #/old, got %+v", violations)
	}
}

func TestRequireOverrideApprovalChecksApprovers(t *testing.T) {
	snapshots := []*entities.Snapshot{
		{Pointer: "#/a", OverridesLayer: true, Metadata: &entities.Metadata{Extensions: map[string]any{
			"io.dtif.governance": map[string]any{"approvedBy": []any{"alice"}},
		}}},
		{Pointer: "#/b", OverridesLayer: true},
		{Pointer: "#/c"},
	}
	violations := runRule(t, RequireOverrideApproval(), map[string]any{"minimumApprovals": 1}, snapshots)
	if len(violations) != 1 || violations[0].Pointer != "#/b" {
		t.Fatalf("expected one violation for #/b, got %+v", violations)
	}
}

func TestWCAGContrastFlagsLowRatio(t *testing.T) {
	snapshots := []*entities.Snapshot{
		{Pointer: "#/fg", Value: map[string]any{"srgb": []any{0.5, 0.5, 0.5}}},
		{Pointer: "#/bg", Value: map[string]any{"srgb": []any{0.55, 0.55, 0.55}}},
	}
	options := map[string]any{
		"pairs": []any{
			map[string]any{"foreground": "#/fg", "background": "#/bg", "minimum": 4.5, "label": "body text"},
		},
	}
	violations := runRule(t, WCAGContrast(), options, snapshots)
	if len(violations) != 1 {
		t.Fatalf("expected one low-contrast violation, got %+v", violations)
	}
	if reason, _ := violations[0].Details["reason"].(string); reason != "contrast-below-threshold" {
		t.Fatalf("expected details.reason=contrast-below-threshold, got %+v", violations[0].Details)
	}
}

func TestWCAGContrastPassesHighRatio(t *testing.T) {
	snapshots := []*entities.Snapshot{
		{Pointer: "#/fg", Value: map[string]any{"srgb": []any{0.0, 0.0, 0.0}}},
		{Pointer: "#/bg", Value: map[string]any{"srgb": []any{1.0, 1.0, 1.0}}},
	}
	options := map[string]any{
		"pairs": []any{
			map[string]any{"foreground": "#/fg", "background": "#/bg", "minimum": 4.5, "label": "body text"},
		},
	}
	violations := runRule(t, WCAGContrast(), options, snapshots)
	if len(violations) != 0 {
		t.Fatalf("expected no violations, got %+v", violations)
	}
}
