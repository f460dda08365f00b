package entities

import (
	"sort"
	"time"
)

// SourceKind distinguishes the three ways a source supplies a document,
// per §3 "Source Plan Entry" and §6.
type SourceKind string

const (
	SourceKindFile    SourceKind = "file"
	SourceKindInline  SourceKind = "inline"
	SourceKindVirtual SourceKind = "virtual"
)

// CacheStatus records whether a resolved source's document came from cache,
// per §3 "Resolved Plan".
type CacheStatus string

const (
	CacheMiss  CacheStatus = "miss"
	CacheHit   CacheStatus = "hit"
	CacheStale CacheStatus = "stale"
)

// PointerTemplate renders a pointer prefix from a base plus ordered
// segments, per §6 `pointerTemplate: {base, segments[]}`.
type PointerTemplate struct {
	Base     string
	Segments []string
}

// VirtualProducer yields an inline document for a virtual source. It may
// return an error, which the planner turns into a planning issue rather
// than deferring failure to load time (§9 Open Question, resolved).
type VirtualProducer func() (document map[string]any, err error)

// SourceSpec is one configured source entry, per §6 `sources[]`.
type SourceSpec struct {
	ID              string
	Kind            SourceKind
	Layer           string
	PointerTemplate PointerTemplate
	Patterns        []string        // kind=file
	Document        map[string]any  // kind=inline
	Producer        VirtualProducer // kind=virtual
	Context         map[string]any
	Required        bool
	Format          string // "json" (default) or "yaml"
}

// Layer is one named, ordered override bucket, per §6 `layers[]`.
type Layer struct {
	Name string
}

// PlanEntry is one planned source load, per §3 "Source Plan Entry".
type PlanEntry struct {
	ID            string
	Layer         string
	LayerIndex    int
	PointerPrefix string
	URI           string
	Context       map[string]any
	Document      map[string]any // inlined for virtual/inline sources
	Spec          SourceSpec
}

// ResolvedSource is a PlanEntry plus its parsed tokens and diagnostics,
// per §3 "Resolved Plan".
type ResolvedSource struct {
	Entry       PlanEntry
	Tokens      *TokenSet
	Diagnostics Diagnostics
	CacheStatus CacheStatus
}

// ResolvedPlan is the Parser+Resolver's output, per §3 "Resolved Plan".
type ResolvedPlan struct {
	Sources     []ResolvedSource
	Merged      map[string]*Snapshot // winner-only, alias-resolved snapshots keyed by pointer
	Diagnostics Diagnostics
	Timestamp   time.Time
}

// SortedSnapshots flattens the resolved plan's merged set into
// pointer-sorted snapshots after layer merging has already collapsed
// duplicates (Invariant 2). Callers that need pre-merge per-source
// snapshots should use Sources directly.
func (rp *ResolvedPlan) SortedSnapshots() []*Snapshot {
	out := make([]*Snapshot, 0, len(rp.Merged))
	for _, snap := range rp.Merged {
		out = append(out, snap)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Pointer < out[j].Pointer })
	return out
}

func (rp *ResolvedPlan) AllDiagnostics() Diagnostics {
	all := make(Diagnostics, 0, len(rp.Diagnostics))
	all = append(all, rp.Diagnostics...)
	for _, src := range rp.Sources {
		all = append(all, src.Diagnostics...)
	}
	return all
}
