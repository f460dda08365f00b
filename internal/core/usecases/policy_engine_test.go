package usecases

import (
	"context"
	"errors"
	"testing"

	"github.com/bylapidist/dtifx/internal/core/entities"
)

func flaggingRule(name string, violations []entities.Violation) PolicyRule {
	return PolicyRule{Name: name, Setup: func(_ map[string]any) (PolicyHandler, error) {
		return func(_ context.Context, _ PolicyInput) ([]entities.Violation, error) { return violations, nil }, nil
	}}
}

func TestPolicyEngineEvaluateRunsEntriesInOrder(t *testing.T) {
	var order []string
	first := PolicyRule{Name: "first", Setup: func(_ map[string]any) (PolicyHandler, error) {
		return func(_ context.Context, _ PolicyInput) ([]entities.Violation, error) {
			order = append(order, "first")
			return nil, nil
		}, nil
	}}
	second := PolicyRule{Name: "second", Setup: func(_ map[string]any) (PolicyHandler, error) {
		return func(_ context.Context, _ PolicyInput) ([]entities.Violation, error) {
			order = append(order, "second")
			return nil, nil
		}, nil
	}}
	engine := NewPolicyEngine(map[string]PolicyRule{"first": first, "second": second})

	_, _, err := engine.Evaluate(context.Background(), []entities.PolicyEntry{{Name: "first"}, {Name: "second"}}, nil)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Fatalf("expected rules evaluated in declaration order, got %v", order)
	}
}

func TestPolicyEngineEvaluateAggregatesViolationsAndSummary(t *testing.T) {
	rule := flaggingRule("requireOwner", []entities.Violation{
		{PolicyName: "requireOwner", Pointer: "#/a", Severity: entities.SeverityError},
		{PolicyName: "requireOwner", Pointer: "#/b", Severity: entities.SeverityWarning},
	})
	engine := NewPolicyEngine(map[string]PolicyRule{"requireOwner": rule})
	snapshots := []*entities.Snapshot{{Pointer: "#/a"}, {Pointer: "#/b"}}

	violations, summary, err := engine.Evaluate(context.Background(), []entities.PolicyEntry{{Name: "requireOwner"}}, snapshots)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(violations) != 2 {
		t.Fatalf("expected two violations, got %+v", violations)
	}
	if summary.PolicyCount != 1 || summary.TokenCount != 2 || summary.ViolationCount != 2 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if summary.Severity[entities.SeverityError] != 1 || summary.Severity[entities.SeverityWarning] != 1 {
		t.Fatalf("expected one error and one warning tallied, got %+v", summary.Severity)
	}
}

func TestPolicyEngineEvaluateFailsOnUnknownRule(t *testing.T) {
	engine := NewPolicyEngine(map[string]PolicyRule{})
	_, _, err := engine.Evaluate(context.Background(), []entities.PolicyEntry{{Name: "missing"}}, nil)
	var cfgErr *entities.PolicyConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected a PolicyConfigurationError, got %v", err)
	}
}

func TestPolicyEngineEvaluateCapturesHandlerFailureAsViolation(t *testing.T) {
	broken := PolicyRule{Name: "broken", Setup: func(_ map[string]any) (PolicyHandler, error) {
		return func(_ context.Context, _ PolicyInput) ([]entities.Violation, error) {
			return nil, errors.New("lookup failed")
		}, nil
	}}
	engine := NewPolicyEngine(map[string]PolicyRule{"broken": broken})

	violations, summary, err := engine.Evaluate(context.Background(), []entities.PolicyEntry{{Name: "broken"}}, nil)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(violations) != 1 || violations[0].Severity != entities.SeverityError {
		t.Fatalf("expected one error-severity violation for the failed handler, got %+v", violations)
	}
	if summary.ViolationCount != 1 {
		t.Fatalf("expected violation count 1, got %d", summary.ViolationCount)
	}
}

func TestPolicyEngineEvaluateFailsOnRuleSetupError(t *testing.T) {
	badSetup := PolicyRule{Name: "badSetup", Setup: func(_ map[string]any) (PolicyHandler, error) {
		return nil, errors.New("invalid options")
	}}
	engine := NewPolicyEngine(map[string]PolicyRule{"badSetup": badSetup})

	_, _, err := engine.Evaluate(context.Background(), []entities.PolicyEntry{{Name: "badSetup"}}, nil)
	var cfgErr *entities.PolicyConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected a PolicyConfigurationError, got %v", err)
	}
}
