package usecases

import (
	"context"
	"errors"
	"testing"

	"github.com/bylapidist/dtifx/internal/core/entities"
)

func resolvedSnapshot(pointer, typ string) *entities.Snapshot {
	return &entities.Snapshot{Pointer: pointer, Type: typ, State: entities.StateResolved, Value: "v"}
}

func TestFormatterEnginePlanAssignsDefaultIDs(t *testing.T) {
	engine := NewFormatterEngine(map[string]Formatter{"css": {Name: "css"}})
	plans, err := engine.Plan([]entities.FormatterInstance{{Name: "css"}, {Name: "css", ID: "custom"}})
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if plans[0].ID != "css#0" {
		t.Fatalf("expected default id css#0, got %q", plans[0].ID)
	}
	if plans[1].ID != "custom" {
		t.Fatalf("expected explicit id preserved, got %q", plans[1].ID)
	}
}

func TestFormatterEnginePlanRejectsUnknownFormatter(t *testing.T) {
	engine := NewFormatterEngine(map[string]Formatter{})
	_, err := engine.Plan([]entities.FormatterInstance{{Name: "missing"}})
	if err == nil {
		t.Fatalf("expected an error for an unregistered formatter name")
	}
}

func TestFormatterEngineExecuteFiltersBySelectorAndSortsTokens(t *testing.T) {
	var seenPointers []string
	colorOnly := Formatter{
		Name:     "css",
		Selector: FormatterSelector{Types: []string{"color"}},
		Run: func(_ context.Context, tokens []FormatterToken, _ map[string]any) ([]entities.Artifact, error) {
			for _, tok := range tokens {
				seenPointers = append(seenPointers, tok.Pointer)
			}
			return []entities.Artifact{{Path: "tokens.css", Contents: []byte("body{}")}}, nil
		},
	}
	engine := NewFormatterEngine(map[string]Formatter{"css": colorOnly})
	plans, err := engine.Plan([]entities.FormatterInstance{{Name: "css"}})
	if err != nil {
		t.Fatalf("plan: %v", err)
	}

	snapshots := []*entities.Snapshot{
		resolvedSnapshot("#/color/z", "color"),
		resolvedSnapshot("#/color/a", "color"),
		resolvedSnapshot("#/dimension/a", "dimension"),
	}
	executions, diags := engine.Execute(context.Background(), plans, map[string]map[string]any{"css#0": nil}, snapshots)
	if len(diags) != 0 {
		t.Fatalf("expected no diagnostics, got %+v", diags)
	}
	if len(executions) != 1 || len(executions[0].Artifacts) != 1 {
		t.Fatalf("expected one execution with one artifact, got %+v", executions)
	}
	if len(seenPointers) != 2 || seenPointers[0] != "#/color/a" || seenPointers[1] != "#/color/z" {
		t.Fatalf("expected sorted color-only tokens, got %+v", seenPointers)
	}
}

func TestFormatterEngineExecuteDedupesArtifactPaths(t *testing.T) {
	duplicating := Formatter{
		Name: "jsmodule",
		Run: func(_ context.Context, _ []FormatterToken, _ map[string]any) ([]entities.Artifact, error) {
			return []entities.Artifact{
				{Path: "tokens.js", Contents: []byte("a")},
				{Path: "tokens.js", Contents: []byte("b")},
			}, nil
		},
	}
	engine := NewFormatterEngine(map[string]Formatter{"jsmodule": duplicating})
	plans, _ := engine.Plan([]entities.FormatterInstance{{Name: "jsmodule"}})

	executions, diags := engine.Execute(context.Background(), plans, nil, []*entities.Snapshot{resolvedSnapshot("#/a", "color")})
	if len(executions) != 1 || len(executions[0].Artifacts) != 1 {
		t.Fatalf("expected the duplicate path excluded from the written set, got %+v", executions)
	}
	foundDuplicateDiag := false
	for _, d := range diags {
		if d.Code == entities.CodeDuplicateArtifactPath {
			foundDuplicateDiag = true
		}
	}
	if !foundDuplicateDiag {
		t.Fatalf("expected a DUPLICATE_ARTIFACT_PATH diagnostic, got %+v", diags)
	}
}

func TestFormatterEngineExecuteRecordsFormatterFailure(t *testing.T) {
	failing := Formatter{
		Name: "css",
		Run: func(_ context.Context, _ []FormatterToken, _ map[string]any) ([]entities.Artifact, error) {
			return nil, errors.New("boom")
		},
	}
	engine := NewFormatterEngine(map[string]Formatter{"css": failing})
	plans, _ := engine.Plan([]entities.FormatterInstance{{Name: "css"}})

	executions, diags := engine.Execute(context.Background(), plans, nil, nil)
	if len(executions) != 0 {
		t.Fatalf("expected no executions when the formatter fails, got %+v", executions)
	}
	if len(diags) != 1 || diags[0].Code != entities.CodeFormatterFailed {
		t.Fatalf("expected one FORMATTER_FAILED diagnostic, got %+v", diags)
	}
}
