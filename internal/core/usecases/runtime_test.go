package usecases

import (
	"context"
	"testing"

	"github.com/bylapidist/dtifx/internal/core/entities"
)

type recordingSubscriber struct {
	events []StageEvent
}

func (s *recordingSubscriber) OnStageEvent(ctx context.Context, evt StageEvent) error {
	s.events = append(s.events, evt)
	return nil
}

type memArtifactWriter struct {
	written []entities.Artifact
}

func (w *memArtifactWriter) Write(ctx context.Context, outDir string, artifact entities.Artifact) (string, error) {
	w.written = append(w.written, artifact)
	return outDir + "/" + artifact.Path, nil
}

func passthroughFormatter() Formatter {
	return Formatter{
		Name: "jsonsnapshot",
		Run: func(ctx context.Context, tokens []FormatterToken, options map[string]any) ([]entities.Artifact, error) {
			return []entities.Artifact{{Path: "tokens.json", Contents: []byte("{}"), Encoding: entities.EncodingUTF8}}, nil
		},
	}
}

func TestRuntimeRunSequencesStagesInOrder(t *testing.T) {
	cfg := entities.Configuration{
		Dir:    ".",
		Layers: []entities.Layer{{Name: "base"}},
		Sources: []entities.SourceSpec{
			{ID: "base", Kind: entities.SourceKindInline, Layer: "base", Document: tokenDoc("primary", []any{0.1, 0.2, 0.3})},
		},
		Formatters: []entities.FormatterInstance{{Name: "jsonsnapshot"}},
		Dependencies: entities.DependenciesConfig{CachePath: "cache.json"},
	}

	planner := NewSourcePlanner(nil)
	resolver := NewResolver(nil, nil, nil)
	formatters := NewFormatterEngine(map[string]Formatter{"jsonsnapshot": passthroughFormatter()})
	depCache := &memDependencyCache{}
	tracker := NewDependencyTracker(depCache)
	writer := &memArtifactWriter{}
	sub := &recordingSubscriber{}

	rt := NewRuntime(planner, resolver, nil, formatters, nil, tracker, writer, nil, sub)
	result, err := rt.Run(context.Background(), &cfg)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(result.Artifacts) != 1 {
		t.Fatalf("expected one written artifact, got %d", len(result.Artifacts))
	}
	if !result.DependencyOps.Changed["#/color/primary"] {
		t.Fatalf("expected the token to be reported as changed on first run")
	}

	wantStages := []string{"planning", "planning", "resolution", "resolution", "formatting", "formatting", "dependencies", "dependencies"}
	if len(sub.events) != len(wantStages) {
		t.Fatalf("expected %d events, got %d: %+v", len(wantStages), len(sub.events), sub.events)
	}
	for i, evt := range sub.events {
		if evt.Stage != wantStages[i] {
			t.Fatalf("event %d: expected stage %q, got %q", i, wantStages[i], evt.Stage)
		}
	}
	for i := 0; i < len(sub.events); i += 2 {
		if sub.events[i].Type != "stage:start" || sub.events[i+1].Type != "stage:complete" {
			t.Fatalf("expected start/complete pair at %d, got %+v", i, sub.events[i:i+2])
		}
	}
}

func TestRuntimeDisposeIsIdempotent(t *testing.T) {
	rt := NewRuntime(nil, nil, nil, nil, nil, nil, nil, nil, &recordingSubscriber{})
	rt.Dispose()
	rt.Dispose()
	if len(rt.subscribers) != 0 {
		t.Fatalf("expected subscribers cleared after dispose")
	}
}

func TestRuntimeAuditRecordsPolicySummary(t *testing.T) {
	cfg := entities.Configuration{
		Dir:    ".",
		Layers: []entities.Layer{{Name: "base"}},
		Sources: []entities.SourceSpec{
			{ID: "base", Kind: entities.SourceKindInline, Layer: "base", Document: tokenDoc("primary", []any{0.1, 0.2, 0.3})},
		},
		Audit: entities.AuditConfig{Policies: []entities.PolicyEntry{{Name: "noop"}}},
	}

	planner := NewSourcePlanner(nil)
	resolver := NewResolver(nil, nil, nil)
	noop := PolicyRule{Name: "noop", Setup: func(options map[string]any) (PolicyHandler, error) {
		return func(ctx context.Context, input PolicyInput) ([]entities.Violation, error) { return nil, nil }, nil
	}}
	policies := NewPolicyEngine(map[string]PolicyRule{"noop": noop})

	rt := NewRuntime(planner, resolver, nil, nil, policies, nil, nil, nil)
	result, err := rt.Audit(context.Background(), &cfg)
	if err != nil {
		t.Fatalf("audit: %v", err)
	}
	if result.PolicySummary.PolicyCount != 1 {
		t.Fatalf("expected policy count 1, got %d", result.PolicySummary.PolicyCount)
	}
}
