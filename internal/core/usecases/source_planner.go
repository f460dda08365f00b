package usecases

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/bylapidist/dtifx/internal/core/entities"
	"golang.org/x/sync/errgroup"
)

// PlanResult is the Source Planner's output, per §4.1
// `plan(config) → {plan, issues, durationMs}`.
type PlanResult struct {
	Entries    []entities.PlanEntry
	Issues     []entities.PlanningIssue
	DurationMs int64
}

// SourcePlanner converts a Configuration into a total, deterministic order
// of sources to parse, per §4.1.
type SourcePlanner struct {
	clock Clock
}

// NewSourcePlanner constructs a planner using the provided Clock for
// duration measurement, or time.Now when clock is nil.
func NewSourcePlanner(clock Clock) *SourcePlanner {
	return &SourcePlanner{clock: clock}
}

func (p *SourcePlanner) now() time.Time {
	if p.clock != nil {
		return p.clock.Now()
	}
	return time.Now()
}

// Plan validates the configuration, expands glob patterns and virtual
// producers, and returns a pointer-prefix-rendered, layer-ordered plan.
//
// Validation issues are collected before any document is touched; if any
// exist, Plan returns a fatal *entities.PlanningError and an empty result
// (§4.1 "duplicate (layer, id) pairs produce an AuditSourcePlanningError
// before any document is touched").
func (p *SourcePlanner) Plan(ctx context.Context, config *entities.Configuration) (PlanResult, error) {
	start := p.now()

	issues := p.validate(config)
	if len(issues) > 0 {
		return PlanResult{Issues: issues}, &entities.PlanningError{Issues: issues}
	}

	virtualResults := p.runVirtualProducers(ctx, config.Sources)

	var entriesList []entities.PlanEntry
	var nonFatal []entities.PlanningIssue

	for i, src := range config.Sources {
		layerIndex := config.LayerIndex(src.Layer)
		prefix := renderPointerPrefix(src.PointerTemplate)

		switch src.Kind {
		case entities.SourceKindInline:
			entriesList = append(entriesList, entities.PlanEntry{
				ID: src.ID, Layer: src.Layer, LayerIndex: layerIndex,
				PointerPrefix: prefix, URI: src.ID, Context: src.Context,
				Document: src.Document, Spec: src,
			})

		case entities.SourceKindVirtual:
			result := virtualResults[i]
			if result.err != nil {
				nonFatal = append(nonFatal, entities.PlanningIssue{
					Kind: "io", SourceID: src.ID, URI: src.ID, PointerPrefix: prefix,
					Message: fmt.Sprintf("virtual source producer failed: %s", result.err),
				})
				continue
			}
			entriesList = append(entriesList, entities.PlanEntry{
				ID: src.ID, Layer: src.Layer, LayerIndex: layerIndex,
				PointerPrefix: prefix, URI: src.ID, Context: src.Context,
				Document: result.doc, Spec: src,
			})

		case entities.SourceKindFile:
			matches, err := expandGlobs(config.Dir, src.Patterns)
			if err != nil {
				nonFatal = append(nonFatal, entities.PlanningIssue{
					Kind: "io", SourceID: src.ID, PointerPrefix: prefix,
					Message: fmt.Sprintf("glob expansion failed: %s", err),
				})
				continue
			}
			for _, m := range matches {
				entriesList = append(entriesList, entities.PlanEntry{
					ID: src.ID, Layer: src.Layer, LayerIndex: layerIndex,
					PointerPrefix: prefix, URI: m, Context: src.Context, Spec: src,
				})
			}
		}
	}

	sortPlanEntries(entriesList)

	return PlanResult{
		Entries:    entriesList,
		Issues:     nonFatal,
		DurationMs: p.now().Sub(start).Milliseconds(),
	}, nil
}

type virtualResult struct {
	doc map[string]any
	err error
}

// runVirtualProducers evaluates every virtual source's producer
// concurrently, bounded by detected parallelism, so one slow producer
// doesn't serialise planning behind it (§4.1, §5 "default = detected
// parallelism"). Results are indexed by the source's position in
// config.Sources so the caller applies them deterministically.
func (p *SourcePlanner) runVirtualProducers(ctx context.Context, sources []entities.SourceSpec) []virtualResult {
	results := make([]virtualResult, len(sources))

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, src := range sources {
		if src.Kind != entities.SourceKindVirtual {
			continue
		}
		i, src := i, src
		g.Go(func() error {
			doc, err := src.Producer()
			results[i] = virtualResult{doc: doc, err: err}
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// validate runs the structural checks that must pass before any document
// (inline, virtual-producer, or glob-matched file) is touched.
func (p *SourcePlanner) validate(config *entities.Configuration) []entities.PlanningIssue {
	var issues []entities.PlanningIssue

	seen := make(map[string]bool) // "layer\x00id"
	for _, src := range config.Sources {
		if config.LayerIndex(src.Layer) < 0 {
			issues = append(issues, entities.PlanningIssue{
				Kind: "validation", SourceID: src.ID,
				Message: fmt.Sprintf("source references unknown layer %q", src.Layer),
			})
			continue
		}
		key := src.Layer + "\x00" + src.ID
		if seen[key] {
			issues = append(issues, entities.PlanningIssue{
				Kind: "validation", SourceID: src.ID,
				Message: fmt.Sprintf("duplicate source id %q in layer %q", src.ID, src.Layer),
			})
			continue
		}
		seen[key] = true

		if src.Kind == entities.SourceKindFile && src.Required {
			matches, err := expandGlobs(config.Dir, src.Patterns)
			if err != nil || len(matches) == 0 {
				issues = append(issues, entities.PlanningIssue{
					Kind: "validation", SourceID: src.ID,
					Message: "required file source matched zero paths",
				})
			}
		}
	}
	return issues
}

// expandGlobs resolves each pattern relative to dir and returns the
// deduplicated, sorted union of matches.
func expandGlobs(dir string, patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var all []string
	for _, pattern := range patterns {
		full := pattern
		if !filepath.IsAbs(pattern) {
			full = filepath.Join(dir, pattern)
		}
		matches, err := filepath.Glob(full)
		if err != nil {
			return nil, err
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				all = append(all, m)
			}
		}
	}
	sort.Strings(all)
	return all, nil
}

// renderPointerPrefix joins a template's base and segments into a
// pointer-prefix string, per §4.1 "pointer prefixes are rendered from the
// template (base + segments)".
func renderPointerPrefix(tpl entities.PointerTemplate) string {
	parts := make([]string, 0, len(tpl.Segments)+1)
	base := strings.Trim(tpl.Base, "/")
	if base != "" {
		parts = append(parts, base)
	}
	parts = append(parts, tpl.Segments...)
	if len(parts) == 0 {
		return "#"
	}
	return "#/" + strings.Join(parts, "/")
}

// sortPlanEntries sorts by layerIndex first, then preserves declaration
// order (a stable sort over the already-appended slice), per Invariant 2
// and §4.1 "Guarantees".
func sortPlanEntries(entries []entities.PlanEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].LayerIndex < entries[j].LayerIndex
	})
}
