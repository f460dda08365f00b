package usecases

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/bylapidist/dtifx/internal/core/entities"
)

// Timings records monotonic stage durations for one run, per §4.7 "Timings".
type Timings struct {
	PlanMs           int64
	ParseMs          int64 // fused into resolution in this implementation; mirrors ResolveMs
	ResolveMs        int64
	TransformMs      int64
	FormatMs         int64
	DependencyMs     int64
	AuditMs          int64
	TotalMs          int64
	TotalWithAuditMs int64
}

// RunResult is the runtime's aggregate output for one build (or audit) run.
type RunResult struct {
	Resolved      entities.ResolvedPlan
	Formatted     []entities.FormatterExecution
	Artifacts     []string // absolute paths written
	Diagnostics   entities.Diagnostics
	Violations    []entities.Violation
	PolicySummary entities.PolicySummary
	DependencySet entities.DependencySnapshot
	DependencyOps entities.DependencyDiff
	Timings       Timings
}

// Runtime sequences planning → resolution → transformation → formatting →
// dependency tracking (and, for audits, policy evaluation), publishing
// stage events and aggregating timings, per §4.7.
type Runtime struct {
	planner    *SourcePlanner
	resolver   *Resolver
	transforms *TransformEngine
	formatters *FormatterEngine
	policies   *PolicyEngine
	dependency *DependencyTracker
	writer     ArtifactWriter
	clock      Clock

	subscribers []EventSubscriber
	disposeOnce sync.Once
}

// NewRuntime wires the pipeline stages together. planner and resolver are
// required. transforms, formatters, policies, dependency and writer may be
// nil when a particular run doesn't need them (e.g. a plan-only dry run
// omits formatters and policies); Run and Audit skip a nil stage and leave
// its part of the result zero.
func NewRuntime(
	planner *SourcePlanner,
	resolver *Resolver,
	transforms *TransformEngine,
	formatters *FormatterEngine,
	policies *PolicyEngine,
	dependency *DependencyTracker,
	writer ArtifactWriter,
	clock Clock,
	subscribers ...EventSubscriber,
) *Runtime {
	return &Runtime{
		planner: planner, resolver: resolver, transforms: transforms,
		formatters: formatters, policies: policies, dependency: dependency,
		writer: writer, clock: clock, subscribers: subscribers,
	}
}

// Dispose unsubscribes the runtime's internally registered event listeners
// exactly once, per §4.7 "Dispose".
func (rt *Runtime) Dispose() {
	rt.disposeOnce.Do(func() {
		rt.subscribers = nil
	})
}

func (rt *Runtime) now() time.Time {
	if rt.clock != nil {
		return rt.clock.Now()
	}
	return time.Now()
}

// publish delivers a stage event synchronously to every subscriber, in
// order, per §5 "the event bus is synchronous for in-process subscribers".
// A subscriber's error propagates and fails the run.
func (rt *Runtime) publish(ctx context.Context, evt StageEvent) error {
	for _, sub := range rt.subscribers {
		if err := sub.OnStageEvent(ctx, evt); err != nil {
			return err
		}
	}
	return nil
}

func (rt *Runtime) emitStart(ctx context.Context, stage string) error {
	return rt.publish(ctx, StageEvent{Type: "stage:start", Stage: stage, Timestamp: rt.now()})
}

func (rt *Runtime) emitComplete(ctx context.Context, stage string, attrs map[string]any) error {
	return rt.publish(ctx, StageEvent{Type: "stage:complete", Stage: stage, Timestamp: rt.now(), Attrs: attrs})
}

func (rt *Runtime) emitError(ctx context.Context, stage string, err error) error {
	return rt.publish(ctx, StageEvent{Type: "stage:error", Stage: stage, Timestamp: rt.now(), Err: err})
}

// Run executes a full build: plan, resolve, transform, format, write
// artifacts, and update the dependency snapshot. Policy evaluation is
// skipped; use Audit for that. Cancelling ctx short-circuits between
// stages, per §5 "Cancellation".
func (rt *Runtime) Run(ctx context.Context, cfg *entities.Configuration) (RunResult, error) {
	return rt.run(ctx, cfg, false)
}

// Audit runs the same pipeline as Run and additionally evaluates the
// configured policy rules, recording AuditMs and TotalWithAuditMs.
func (rt *Runtime) Audit(ctx context.Context, cfg *entities.Configuration) (RunResult, error) {
	return rt.run(ctx, cfg, true)
}

func (rt *Runtime) run(ctx context.Context, cfg *entities.Configuration, audit bool) (RunResult, error) {
	var result RunResult
	totalStart := rt.now()

	if err := rt.emitStart(ctx, "planning"); err != nil {
		return result, err
	}
	planStart := rt.now()
	plan, err := rt.planner.Plan(ctx, cfg)
	result.Timings.PlanMs = rt.now().Sub(planStart).Milliseconds()
	if err != nil {
		_ = rt.emitError(ctx, "planning", err)
		return result, err
	}
	if err := rt.emitComplete(ctx, "planning", map[string]any{"sourceCount": len(plan.Entries)}); err != nil {
		return result, err
	}

	if err := ctx.Err(); err != nil {
		return result, err
	}

	if err := rt.emitStart(ctx, "resolution"); err != nil {
		return result, err
	}
	resolveStart := rt.now()
	resolved, err := rt.resolver.Resolve(ctx, plan)
	elapsed := rt.now().Sub(resolveStart).Milliseconds()
	result.Timings.ResolveMs = elapsed
	result.Timings.ParseMs = elapsed
	if err != nil {
		_ = rt.emitError(ctx, "resolution", err)
		return result, err
	}
	result.Resolved = resolved
	result.Diagnostics = append(result.Diagnostics, resolved.AllDiagnostics()...)
	if err := rt.emitComplete(ctx, "resolution", map[string]any{"tokenCount": len(resolved.Merged)}); err != nil {
		return result, err
	}

	if err := ctx.Err(); err != nil {
		return result, err
	}

	snapshots := resolved.SortedSnapshots()

	if rt.transforms != nil {
		if err := rt.emitStart(ctx, "transformation"); err != nil {
			return result, err
		}
		transformStart := rt.now()
		diags := rt.transforms.Run(ctx, snapshots, transformOptionsHash(cfg))
		result.Timings.TransformMs = rt.now().Sub(transformStart).Milliseconds()
		result.Diagnostics = append(result.Diagnostics, diags...)
		if err := rt.emitComplete(ctx, "transformation", nil); err != nil {
			return result, err
		}
	}

	if err := ctx.Err(); err != nil {
		return result, err
	}

	if audit && rt.policies != nil {
		auditStart := rt.now()
		violations, summary, err := rt.policies.Evaluate(ctx, cfg.Audit.Policies, snapshots)
		result.Timings.AuditMs = rt.now().Sub(auditStart).Milliseconds()
		if err != nil {
			return result, err
		}
		result.Violations = violations
		result.PolicySummary = summary
	}

	if err := ctx.Err(); err != nil {
		return result, err
	}

	if rt.formatters != nil {
		if err := rt.emitStart(ctx, "formatting"); err != nil {
			return result, err
		}
		formatStart := rt.now()
		plans, err := rt.formatters.Plan(cfg.Formatters)
		if err != nil {
			_ = rt.emitError(ctx, "formatting", err)
			return result, err
		}
		options := make(map[string]map[string]any, len(cfg.Formatters))
		for i, inst := range cfg.Formatters {
			id := inst.ID
			if id == "" && i < len(plans) {
				id = plans[i].ID
			}
			options[id] = inst.Options
		}
		// Artifacts land under <outDir>/<formatter instance id or output
		// path>/... per §6 "Artifact filesystem layout".
		outputs := make(map[string]string, len(plans))
		for _, p := range plans {
			sub := p.Output
			if sub == "" {
				sub = p.ID
			}
			outputs[p.ID] = sub
		}
		executions, diags := rt.formatters.Execute(ctx, plans, options, snapshots)
		result.Formatted = executions
		result.Diagnostics = append(result.Diagnostics, diags...)

		if rt.writer != nil {
			outDir := cfg.OutputDir()
			for _, exec := range executions {
				for _, artifact := range exec.Artifacts {
					artifact.Path = filepath.Join(outputs[exec.ExecutionID], artifact.Path)
					path, err := rt.writer.Write(ctx, outDir, artifact)
					if err != nil {
						_ = rt.emitError(ctx, "formatting", err)
						return result, &entities.ArtifactWriteError{Path: artifact.Path, Err: err}
					}
					result.Artifacts = append(result.Artifacts, path)
				}
			}
		}

		result.Timings.FormatMs = rt.now().Sub(formatStart).Milliseconds()
		if err := rt.emitComplete(ctx, "formatting", map[string]any{"artifactCount": len(result.Artifacts)}); err != nil {
			return result, err
		}
	}

	if err := ctx.Err(); err != nil {
		return result, err
	}

	if rt.dependency != nil && cfg.Dependencies.CachePath != "" {
		if err := rt.emitStart(ctx, "dependencies"); err != nil {
			return result, err
		}
		depStart := rt.now()
		contexts := contextsByPointer(resolved)
		current, err := BuildSnapshot(snapshots, contexts)
		if err != nil {
			_ = rt.emitError(ctx, "dependencies", err)
			return result, err
		}
		diff, err := rt.dependency.Evaluate(ctx, cfg.Dependencies.CachePath, current)
		if err != nil {
			_ = rt.emitError(ctx, "dependencies", err)
			return result, err
		}
		if err := rt.dependency.Commit(ctx, cfg.Dependencies.CachePath, current); err != nil {
			_ = rt.emitError(ctx, "dependencies", err)
			return result, err
		}
		result.DependencySet = current
		result.DependencyOps = diff
		result.Timings.DependencyMs = rt.now().Sub(depStart).Milliseconds()
		if err := rt.emitComplete(ctx, "dependencies", map[string]any{"changed": len(diff.Changed), "removed": len(diff.Removed)}); err != nil {
			return result, err
		}
	}

	result.Timings.TotalMs = rt.now().Sub(totalStart).Milliseconds()
	result.Timings.TotalWithAuditMs = result.Timings.TotalMs
	return result, nil
}

// Rebuild re-runs the pipeline for an incremental (watch-mode) trigger.
// changed is advisory only in this implementation: dependency propagation
// already recomputes the full changed/removed set from content hashes, so
// a full re-plan/re-resolve is always correct, merely not maximally
// incremental (§1 "enabling watch-mode reuse" is satisfied via the
// dependency snapshot diff, not by skipping stages).
func (rt *Runtime) Rebuild(ctx context.Context, cfg *entities.Configuration, changed []string) (RunResult, error) {
	return rt.Run(ctx, cfg)
}

func contextsByPointer(resolved entities.ResolvedPlan) map[string]map[string]any {
	byPointerPrefix := make(map[string]map[string]any, len(resolved.Sources))
	for _, src := range resolved.Sources {
		byPointerPrefix[src.Entry.PointerPrefix] = src.Entry.Context
	}
	contexts := make(map[string]map[string]any, len(resolved.Merged))
	for pointer, snap := range resolved.Merged {
		contexts[pointer] = byPointerPrefix[snap.Provenance.PointerPrefix]
	}
	return contexts
}

// transformOptionsHash canonicalises the configured transform entries so
// the Transform Cache key changes whenever transform configuration does,
// per §4.6 "options hash".
func transformOptionsHash(cfg *entities.Configuration) string {
	entries := make([]entities.TransformEntry, len(cfg.Transforms))
	copy(entries, cfg.Transforms)
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })

	payload := make([]map[string]any, 0, len(entries))
	for _, e := range entries {
		payload = append(payload, map[string]any{"name": e.Name, "group": e.Group, "options": e.Options})
	}
	data, err := entities.CanonicalJSON(payload)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
