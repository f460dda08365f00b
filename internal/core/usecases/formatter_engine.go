package usecases

import (
	"context"
	"fmt"
	"sort"

	"github.com/bylapidist/dtifx/internal/core/entities"
)

// FormatterToken is the per-snapshot record handed to a Formatter's Run
// function, per §4.4 "Formatter contract".
type FormatterToken struct {
	Snapshot   *entities.Snapshot
	Pointer    string
	Value      any
	Raw        any
	Metadata   *entities.Metadata
	Transforms map[string]any // filtered to the selector's named transforms, or all when unset
}

// FormatterSelector filters which snapshots a Formatter receives, per §4.4.
type FormatterSelector struct {
	Types           []string
	Transforms      []string
	PointerPatterns []string
}

// Formatter groups selected snapshots and emits file artifacts, per §4.4
// "Formatter contract".
type Formatter struct {
	Name     string
	Selector FormatterSelector
	Run      func(ctx context.Context, tokens []FormatterToken, options map[string]any) ([]entities.Artifact, error)
}

// FormatterPlan is one configured formatter instance paired with its
// registered definition, per §4.4 "Planning".
type FormatterPlan struct {
	ID         string
	Name       string
	Output     string
	Definition Formatter
}

// FormatterEngine assembles formatter tokens, runs each configured
// formatter instance, and deduplicates artifact writes, per §4.4.
type FormatterEngine struct {
	registry map[string]Formatter
}

// NewFormatterEngine constructs an engine from a name-indexed registry.
func NewFormatterEngine(registry map[string]Formatter) *FormatterEngine {
	return &FormatterEngine{registry: registry}
}

// Plan resolves each configured formatter instance to its registered
// definition, assigning `<name>#<index>` ids where unset (§4.4 "Planning").
func (e *FormatterEngine) Plan(instances []entities.FormatterInstance) ([]FormatterPlan, error) {
	plans := make([]FormatterPlan, 0, len(instances))
	for i, inst := range instances {
		def, ok := e.registry[inst.Name]
		if !ok {
			return nil, &entities.FormatterRegistryError{FormatterName: inst.Name, Message: "no formatter registered with this name"}
		}
		id := inst.ID
		if id == "" {
			id = fmt.Sprintf("%s#%d", inst.Name, i)
		}
		plans = append(plans, FormatterPlan{ID: id, Name: inst.Name, Output: inst.Output, Definition: def})
	}
	return plans, nil
}

// Execute runs every formatter plan against the full resolved, transformed
// snapshot set, producing one FormatterExecution per plan, sorted tokens
// per Invariant 2, and rejecting duplicate artifact paths within a single
// execution (§4.4 "Ordering").
func (e *FormatterEngine) Execute(ctx context.Context, plans []FormatterPlan, instanceOptions map[string]map[string]any, snapshots []*entities.Snapshot) ([]entities.FormatterExecution, entities.Diagnostics) {
	var executions []entities.FormatterExecution
	var diags entities.Diagnostics

	sorted := make([]*entities.Snapshot, len(snapshots))
	copy(sorted, snapshots)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Pointer < sorted[j].Pointer })

	for _, plan := range plans {
		tokens := selectTokens(plan.Definition.Selector, sorted)
		artifacts, err := plan.Definition.Run(ctx, tokens, instanceOptions[plan.ID])
		if err != nil {
			diags = append(diags, entities.Diagnostic{
				Code: entities.CodeFormatterFailed, Severity: entities.SeverityError,
				Message: plan.Name + ": " + err.Error(),
			})
			continue
		}
		if len(artifacts) == 0 {
			continue
		}
		seenPaths := make(map[string]bool, len(artifacts))
		deduped := make([]entities.Artifact, 0, len(artifacts))
		for _, a := range artifacts {
			if seenPaths[a.Path] {
				diags = append(diags, entities.Diagnostic{
					Code: entities.CodeDuplicateArtifactPath, Severity: entities.SeverityError,
					Message: "duplicate artifact path " + a.Path + " from formatter " + plan.ID,
				})
				continue
			}
			seenPaths[a.Path] = true
			deduped = append(deduped, a)
		}
		executions = append(executions, entities.FormatterExecution{ExecutionID: plan.ID, FormatterID: plan.Name, Artifacts: deduped})
	}
	return executions, diags
}

func selectTokens(sel FormatterSelector, snapshots []*entities.Snapshot) []FormatterToken {
	tokens := make([]FormatterToken, 0, len(snapshots))
	for _, snap := range snapshots {
		if snap.State != entities.StateResolved {
			continue
		}
		if len(sel.Types) > 0 && !containsString(sel.Types, snap.Type) {
			continue
		}
		if len(sel.PointerPatterns) > 0 {
			matched := false
			for _, pat := range sel.PointerPatterns {
				if pointerMatchesPattern(pat, snap.Pointer) {
					matched = true
					break
				}
			}
			if !matched {
				continue
			}
		}
		transforms := snap.Transforms
		if len(sel.Transforms) > 0 {
			filtered := make(map[string]any, len(sel.Transforms))
			for _, name := range sel.Transforms {
				if v, ok := snap.Transforms[name]; ok {
					filtered[name] = v
				}
			}
			transforms = filtered
		}
		tokens = append(tokens, FormatterToken{
			Snapshot: snap, Pointer: snap.Pointer, Value: snap.Value, Raw: snap.Raw,
			Metadata: snap.Metadata, Transforms: transforms,
		})
	}
	return tokens
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
