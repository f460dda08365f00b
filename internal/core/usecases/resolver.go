package usecases

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/bylapidist/dtifx/internal/core/entities"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

// Resolver loads DTIF documents, flattens them into snapshots, applies
// layered overrides, and resolves aliases, per §4.2.
type Resolver struct {
	loader DocumentLoader
	cache  DocumentCache
	clock  Clock
}

// NewResolver constructs a Resolver. cache may be nil, in which case every
// external document load misses (no sharing across sources in one run).
func NewResolver(loader DocumentLoader, cache DocumentCache, clock Clock) *Resolver {
	return &Resolver{loader: loader, cache: cache, clock: clock}
}

// key identifies a snapshot globally by owning document and pointer string.
type key struct {
	uri     string
	pointer string
}

// Resolve runs steps 1-6 of §4.2 over a planned set of sources.
func (r *Resolver) Resolve(ctx context.Context, plan PlanResult) (entities.ResolvedPlan, error) {
	var resolvedSources []entities.ResolvedSource
	var globalDiags entities.Diagnostics

	// index accumulates every snapshot across every source, prior to layer
	// merge, keyed by (documentURI, pointer) so aliases can address both
	// same-document and cross-document targets.
	index := make(map[key]*entities.Snapshot)
	// winners tracks, per pointer (independent of document), the key of the
	// snapshot currently winning layer merge (Invariant 1).
	winners := make(map[string]key)
	winnerLayerIndex := make(map[string]int)
	superseded := make(map[string][]*entities.Snapshot) // pointer -> lower-layer snapshots it overrode

	loaded := r.loadDocuments(ctx, plan.Entries)

	for i, entry := range plan.Entries {
		doc, cacheStatus, err := loaded[i].doc, loaded[i].status, loaded[i].err
		ts := entities.NewTokenSet(entry.URI)
		var diags entities.Diagnostics
		if err != nil {
			diags = append(diags, entities.Diagnostic{
				Code: "DOCUMENT_LOAD_FAILED", Severity: entities.SeverityError,
				URI: entry.URI, Message: err.Error(),
			})
			resolvedSources = append(resolvedSources, entities.ResolvedSource{
				Entry: entry, Tokens: ts, Diagnostics: diags, CacheStatus: cacheStatus,
			})
			continue
		}

		flattenDocument(doc, entry.URI, entry.PointerPrefix, nil, ts, entry, &diags)

		for pointer, snap := range ts.Tokens {
			k := key{uri: entry.URI, pointer: pointer}
			index[k] = snap

			prevKey, exists := winners[pointer]
			if !exists || entry.LayerIndex > winnerLayerIndex[pointer] {
				if exists {
					superseded[pointer] = append(superseded[pointer], index[prevKey])
				}
				winners[pointer] = k
				winnerLayerIndex[pointer] = entry.LayerIndex
			} else {
				superseded[pointer] = append(superseded[pointer], snap)
			}
		}

		resolvedSources = append(resolvedSources, entities.ResolvedSource{
			Entry: entry, Tokens: ts, Diagnostics: diags, CacheStatus: cacheStatus,
		})
	}

	// Build the merged, winner-only snapshot set.
	merged := make(map[string]*entities.Snapshot, len(winners))
	for pointer, k := range winners {
		snap := index[k]
		for _, loser := range superseded[pointer] {
			if loser.Metadata != nil && loser.Metadata.Deprecation != nil {
				snap.AppliedAliases = append(snap.AppliedAliases, loser.Pointer)
			}
		}
		sort.Strings(snap.AppliedAliases)
		snap.OverridesLayer = len(superseded[pointer]) > 0
		merged[pointer] = snap
		snap.State = entities.StateMerged
	}

	// Alias resolution (step 5): resolve every merged snapshot's $ref chain.
	// Pointers are walked in sorted order with a shared visited set so each
	// cycle is reported exactly once, at a deterministic member.
	cyclic := map[string]bool{}
	visited := map[string]bool{}
	pointers := make([]string, 0, len(merged))
	for pointer := range merged {
		pointers = append(pointers, pointer)
	}
	sort.Strings(pointers)
	for _, pointer := range pointers {
		r.resolveAlias(ctx, pointer, merged, index, visited, map[string]bool{}, cyclic, &globalDiags)
	}

	for pointer, snap := range merged {
		if cyclic[pointer] || (snap.IsAlias() && snap.Value == nil) {
			snap.State = entities.StateFailed
			continue
		}
		if snap.State == entities.StateMerged {
			snap.State = entities.StateResolved
		}
	}

	return entities.ResolvedPlan{
		Sources:     resolvedSources,
		Merged:      merged,
		Diagnostics: globalDiags,
		Timestamp:   r.clockNow(),
	}, nil
}

type loadedDocument struct {
	doc    map[string]any
	status entities.CacheStatus
	err    error
}

// loadDocuments loads every plan entry's document concurrently, bounded by
// detected parallelism, per §5 "independent source loads MAY execute in
// parallel with a bounded worker pool". The Document Cache is
// mutex-guarded (adapters/cache) so concurrent hits/misses are safe.
func (r *Resolver) loadDocuments(ctx context.Context, entries []entities.PlanEntry) []loadedDocument {
	results := make([]loadedDocument, len(entries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, entry := range entries {
		i, entry := i, entry
		g.Go(func() error {
			doc, status, err := r.loadDocument(gctx, entry)
			results[i] = loadedDocument{doc: doc, status: status, err: err}
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (r *Resolver) clockNow() time.Time {
	if r.clock != nil {
		return r.clock.Now()
	}
	return time.Now()
}

func (r *Resolver) loadDocument(ctx context.Context, entry entities.PlanEntry) (map[string]any, entities.CacheStatus, error) {
	if entry.Document != nil {
		return entry.Document, entities.CacheMiss, nil
	}
	if r.cache != nil {
		if doc, ok := r.cache.Get(entry.URI); ok {
			return doc, entities.CacheHit, nil
		}
	}
	if r.loader == nil {
		return nil, entities.CacheMiss, fmt.Errorf("no document loader configured for uri %q", entry.URI)
	}
	doc, err := r.loader.LoadDocument(ctx, entry.URI)
	if err != nil {
		return nil, entities.CacheMiss, err
	}
	if strings.EqualFold(entry.Spec.Format, "yaml") {
		doc, err = reinterpretAsYAML(doc)
		if err != nil {
			return nil, entities.CacheMiss, err
		}
	}
	if r.cache != nil {
		r.cache.Set(entry.URI, doc)
	}
	return doc, entities.CacheMiss, nil
}

// reinterpretAsYAML runs for sources flagged format:"yaml", over the
// document the loader has already decoded, so the rest of the pipeline is
// format-agnostic. It does not decode anything itself: the filesystem
// DocumentLoader chooses YAML by a .yaml/.yml extension and never sees a
// source's Format.
func reinterpretAsYAML(doc map[string]any) (map[string]any, error) {
	// Round-trip through YAML marshal/unmarshal normalises map[any]any
	// nodes (a legacy YAMLv2 quirk) into map[string]any, matching JSON's
	// decoded shape so flattenDocument doesn't need two code paths.
	raw, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("yaml re-normalise: %w", err)
	}
	var out map[string]any
	if err := yaml.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("yaml re-normalise: %w", err)
	}
	return out, nil
}

// resolveAlias follows a merged snapshot's $ref chain to a terminal value,
// recording each hop in ResolutionPath and detecting cycles via a
// per-pointer visited/recursion-stack pair, directly generalising the
// teacher's DFS cycle check from a C4 dependency graph to the token graph.
// cyclic accumulates every pointer found to be part of (or upstream of) a
// detected cycle across the whole Resolve call, so every member's Value is
// left undefined, not just the frame where the cycle is first observed
// (§4.2 step 5, §7).
func (r *Resolver) resolveAlias(
	ctx context.Context,
	pointer string,
	merged map[string]*entities.Snapshot,
	index map[key]*entities.Snapshot,
	visited, recStack map[string]bool,
	cyclic map[string]bool,
	diags *entities.Diagnostics,
) {
	snap, ok := merged[pointer]
	if !ok || visited[pointer] {
		return
	}
	if recStack[pointer] {
		for p := range recStack {
			cyclic[p] = true
		}
		*diags = append(*diags, entities.Diagnostic{
			Code: entities.CodeCycleDetected, Severity: entities.SeverityError,
			Pointer: pointer, Message: "alias cycle detected",
		})
		return
	}
	if !snap.IsAlias() {
		visited[pointer] = true
		return
	}

	recStack[pointer] = true
	defer delete(recStack, pointer)

	target, _ := snap.RefTarget()
	targetURI, targetPointer, external := splitRef(snap.Provenance.DocumentURI, target)

	targetSnap, ok := findTarget(targetURI, targetPointer, merged, index)
	if !ok {
		if external {
			// The target document was never configured as a source: load it
			// through the shared Document Cache and follow the chain there
			// (§4.2 step 5).
			hops := make([]string, 0, 2)
			if value, resolved := r.resolveExternalValue(ctx, targetURI, targetPointer, &hops, diags); resolved {
				snap.References = append(snap.References, entities.Reference{URI: targetURI, Pointer: targetPointer, External: true})
				snap.ResolutionPath = append([]string{snap.Pointer}, hops...)
				snap.Value = value
				visited[pointer] = true
				return
			}
		}
		*diags = append(*diags, entities.Diagnostic{
			Code: entities.CodeUnknownPointer, Severity: entities.SeverityError,
			Pointer: pointer, URI: targetURI, Message: fmt.Sprintf("unresolved reference %q", target),
		})
		visited[pointer] = true
		return
	}

	// Recurse into the target first so multi-hop chains settle before we
	// copy its value, then detect the cycle on the way back in if the
	// target loops back to this pointer.
	if !external {
		r.resolveAlias(ctx, targetPointer, merged, index, visited, recStack, cyclic, diags)
	}

	snap.References = append(snap.References, entities.Reference{URI: targetURI, Pointer: targetPointer, External: external})
	// ResolutionPath traces from the alias itself to the terminal snapshot,
	// so a single hop yields two entries. Cycle members keep no path (and
	// no value): the diagnostic is their record.
	if !cyclic[pointer] {
		if len(targetSnap.ResolutionPath) > 0 {
			snap.ResolutionPath = append([]string{snap.Pointer}, targetSnap.ResolutionPath...)
		} else {
			snap.ResolutionPath = []string{snap.Pointer, targetPointer}
		}
		snap.Value = targetSnap.CloneValueDeep()
	}

	visited[pointer] = true
}

// loadExternalDocument fetches an alias target's document through the
// shared Document Cache, falling back to the DocumentLoader on a miss.
func (r *Resolver) loadExternalDocument(ctx context.Context, uri string) (map[string]any, error) {
	if r.cache != nil {
		if doc, ok := r.cache.Get(uri); ok {
			return doc, nil
		}
	}
	if r.loader == nil {
		return nil, fmt.Errorf("no document loader configured for external reference %q", uri)
	}
	doc, err := r.loader.LoadDocument(ctx, uri)
	if err != nil {
		return nil, err
	}
	if r.cache != nil {
		r.cache.Set(uri, doc)
	}
	return doc, nil
}

// resolveExternalValue follows a reference chain through documents that
// are not part of the source plan, recording each pointer visited in hops.
// A repeated (uri, pointer) pair is a cross-document cycle.
func (r *Resolver) resolveExternalValue(
	ctx context.Context,
	uri, pointer string,
	hops *[]string,
	diags *entities.Diagnostics,
) (any, bool) {
	seen := map[string]bool{}
	currentURI, current := uri, pointer
	for {
		stepKey := currentURI + "#" + current
		if seen[stepKey] {
			*diags = append(*diags, entities.Diagnostic{
				Code: entities.CodeCycleDetected, Severity: entities.SeverityError,
				Pointer: current, URI: currentURI, Message: "alias cycle detected",
			})
			return nil, false
		}
		seen[stepKey] = true

		doc, err := r.loadExternalDocument(ctx, currentURI)
		if err != nil {
			*diags = append(*diags, entities.Diagnostic{
				Code: "DOCUMENT_LOAD_FAILED", Severity: entities.SeverityError,
				Pointer: current, URI: currentURI, Message: err.Error(),
			})
			return nil, false
		}
		node, ok := lookupNode(doc, current)
		if !ok {
			return nil, false
		}
		raw, has := node["$value"]
		if !has {
			return nil, false
		}
		*hops = append(*hops, current)

		if m, isMap := raw.(map[string]any); isMap {
			if ref, isRef := m["$ref"].(string); isRef {
				nextURI, nextPointer, ext := splitRef(currentURI, ref)
				if ext {
					currentURI = nextURI
				}
				current = nextPointer
				continue
			}
		}
		return entities.CloneValue(raw), true
	}
}

// lookupNode walks a decoded document tree to the object a pointer
// addresses.
func lookupNode(doc map[string]any, pointer string) (map[string]any, bool) {
	p := entities.ParsePointer("", pointer)
	node := doc
	for _, seg := range p.Segments {
		child, ok := node[seg].(map[string]any)
		if !ok {
			return nil, false
		}
		node = child
	}
	return node, true
}

func findTarget(uri, pointer string, merged map[string]*entities.Snapshot, index map[key]*entities.Snapshot) (*entities.Snapshot, bool) {
	if uri == "" {
		if snap, ok := merged[pointer]; ok {
			return snap, true
		}
	}
	if snap, ok := index[key{uri: uri, pointer: pointer}]; ok {
		return snap, true
	}
	return nil, false
}

// splitRef splits a $ref target into (uri, pointer, external). A bare
// "#/a/b" resolves within the current document; "other.json#/a/b" is
// external.
func splitRef(currentURI, ref string) (uri, pointer string, external bool) {
	if idx := strings.Index(ref, "#"); idx >= 0 {
		prefix := ref[:idx]
		pointer = ref[idx:]
		if prefix == "" {
			return "", pointer, false
		}
		return prefix, pointer, true
	}
	return currentURI, "#" + ref, false
}

// flattenDocument walks a DTIF document tree, emitting one Snapshot per
// node that carries a "$value" key. Groups (plain nested objects without
// "$value") are traversed but never themselves emitted.
func flattenDocument(
	node map[string]any,
	documentURI, pointerPrefix string,
	path []string,
	ts *entities.TokenSet,
	entry entities.PlanEntry,
	diags *entities.Diagnostics,
) {
	if raw, hasValue := node["$value"]; hasValue {
		pointer := joinPointer(pointerPrefix, path)
		meta := extractMetadata(node)
		snap := &entities.Snapshot{
			Pointer:  pointer,
			Path:     append([]string(nil), path...),
			Type:     stringField(node, "$type"),
			Raw:      entities.CloneValue(raw),
			Metadata: meta,
			Provenance: entities.Provenance{
				SourceID: entry.ID, Layer: entry.Layer, LayerIndex: entry.LayerIndex,
				DocumentURI: documentURI, PointerPrefix: pointerPrefix,
			},
			State: entities.StateParsed,
		}
		if !snap.IsAlias() {
			snap.Value = entities.CloneValue(raw)
		}
		ts.Tokens[pointer] = snap
		return
	}

	keys := make([]string, 0, len(node))
	for k := range node {
		if strings.HasPrefix(k, "$") {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		child, ok := node[k].(map[string]any)
		if !ok {
			continue
		}
		flattenDocument(child, documentURI, pointerPrefix, append(path, k), ts, entry, diags)
	}
}

func joinPointer(prefix string, path []string) string {
	if len(path) == 0 {
		return prefix
	}
	if prefix == "#" || prefix == "" {
		return "#/" + strings.Join(path, "/")
	}
	return prefix + "/" + strings.Join(path, "/")
}

func stringField(node map[string]any, key string) string {
	if v, ok := node[key].(string); ok {
		return v
	}
	return ""
}

func extractMetadata(node map[string]any) *entities.Metadata {
	meta := &entities.Metadata{}
	hasMeta := false
	if desc := stringField(node, "$description"); desc != "" {
		meta.Description = desc
		hasMeta = true
	}
	if ext, ok := node["$extensions"].(map[string]any); ok {
		meta.Extensions = entities.CloneExtensions(ext)
		hasMeta = true
	}
	if dep, ok := node["$deprecated"]; ok {
		hasMeta = true
		switch v := dep.(type) {
		case bool:
			if v {
				meta.Deprecation = &entities.Deprecation{}
			}
		case map[string]any:
			meta.Deprecation = &entities.Deprecation{
				Reason:       stringField(v, "reason"),
				SupersededBy: stringField(v, "supersededBy"),
			}
		}
	}
	if !hasMeta {
		return nil
	}
	return meta
}
