package usecases

import (
	"context"

	"github.com/bylapidist/dtifx/internal/core/entities"
)

// PolicyInput is what a rule's handler receives, per §4.5 "Rule contract".
type PolicyInput struct {
	Snapshots []*entities.Snapshot
	ByPointer func(pointer string) (*entities.Snapshot, bool)
}

// PolicyHandler evaluates a configured rule instance and returns zero or
// more violations.
type PolicyHandler func(ctx context.Context, input PolicyInput) ([]entities.Violation, error)

// PolicySetup configures a rule instance from its options, returning the
// handler that will run against resolved snapshots. Setup failures are
// fatal (§4.5 "Failure").
type PolicySetup func(options map[string]any) (PolicyHandler, error)

// PolicyRule is one registered rule, addressable by name from
// configuration (§4.5, §6 `audit.policies[]`).
type PolicyRule struct {
	Name  string
	Setup PolicySetup
}

// PolicyEngine evaluates a configured set of rules in declaration order
// over resolved snapshots, per §4.5 "Execution order".
type PolicyEngine struct {
	registry map[string]PolicyRule
}

// NewPolicyEngine constructs an engine from a name-indexed rule registry.
func NewPolicyEngine(registry map[string]PolicyRule) *PolicyEngine {
	return &PolicyEngine{registry: registry}
}

// Evaluate runs every configured policy entry, in order, over snapshots.
// A rule's setup failure aborts the whole run with a
// *entities.PolicyConfigurationError; a rule's handler failure is instead
// captured as an "error"-severity violation of that rule (§4.5 "Failure").
func (e *PolicyEngine) Evaluate(ctx context.Context, entries []entities.PolicyEntry, snapshots []*entities.Snapshot) ([]entities.Violation, entities.PolicySummary, error) {
	index := make(map[string]*entities.Snapshot, len(snapshots))
	for _, s := range snapshots {
		index[s.Pointer] = s
	}
	input := PolicyInput{
		Snapshots: snapshots,
		ByPointer: func(p string) (*entities.Snapshot, bool) { s, ok := index[p]; return s, ok },
	}

	var violations []entities.Violation
	for _, entry := range entries {
		rule, ok := e.registry[entry.Name]
		if !ok {
			return nil, entities.PolicySummary{}, &entities.PolicyConfigurationError{
				RuleName: entry.Name, Err: errUnknownRule(entry.Name),
			}
		}
		handler, err := rule.Setup(entry.Options)
		if err != nil {
			return nil, entities.PolicySummary{}, &entities.PolicyConfigurationError{RuleName: entry.Name, Err: err}
		}
		ruleViolations, err := handler(ctx, input)
		if err != nil {
			violations = append(violations, entities.Violation{
				PolicyName: entry.Name, Severity: entities.SeverityError,
				Message: "rule handler failed: " + err.Error(),
			})
			continue
		}
		violations = append(violations, ruleViolations...)
	}

	summary := entities.PolicySummary{
		PolicyCount:    len(entries),
		ViolationCount: len(violations),
		Severity:       map[entities.Severity]int{},
		TokenCount:     len(snapshots),
	}
	for _, v := range violations {
		summary.Severity[v.Severity]++
	}

	return violations, summary, nil
}

type errUnknownRule string

func (e errUnknownRule) Error() string { return "unknown policy rule: " + string(e) }
